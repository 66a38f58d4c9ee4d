package net

import (
	"fmt"
	"strconv"

	"github.com/awalterschulze/gographviz"
	"github.com/pkg/errors"

	"github.com/nesai/digitmlp/internal/layer"
)

// Dot renders the layer sequence as a Graphviz digraph.
func (s *Sequential) Dot() (string, error) {
	g := gographviz.NewGraph()
	if err := g.SetName("model"); err != nil {
		return "", errors.WithStack(err)
	}
	if err := g.SetDir(true); err != nil {
		return "", errors.WithStack(err)
	}
	if err := g.AddAttr("model", "rankdir", "TB"); err != nil {
		return "", errors.WithStack(err)
	}

	prev := "input"
	if err := g.AddNode("model", prev, map[string]string{
		"shape": "plaintext",
		"label": strconv.Quote(fmt.Sprintf("input (%d)", s.inSize)),
	}); err != nil {
		return "", errors.WithStack(err)
	}

	width := s.inSize
	for i, l := range s.layers {
		in := width
		width = l.OutSize(width)

		name := fmt.Sprintf("layer%d", i)
		var label, shape string
		switch l := l.(type) {
		case *layer.Dense:
			label, shape = fmt.Sprintf("Dense %d→%d", in, width), "box"
		case *layer.Activation:
			label, shape = l.Func.Name(), "ellipse"
		case *layer.Dropout:
			label, shape = fmt.Sprintf("Dropout %.2g", l.Rate), "ellipse"
		}
		if err := g.AddNode("model", name, map[string]string{
			"shape": shape,
			"label": strconv.Quote(label),
		}); err != nil {
			return "", errors.Wrapf(err, "add node %s", name)
		}
		if err := g.AddEdge(prev, name, true, nil); err != nil {
			return "", errors.Wrapf(err, "add edge %s->%s", prev, name)
		}
		prev = name
	}
	return g.String(), nil
}
