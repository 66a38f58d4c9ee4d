// Package dataset supplies labeled digit images for training and evaluation.
package dataset

import (
	"fmt"
	"image"
	"sort"

	"github.com/pkg/errors"
)

// Sample is one labeled single-channel image.
type Sample struct {
	Image *image.Gray
	Label int
}

// Split is an ordered, read-only sequence of samples.
type Split struct {
	Name    string
	Samples []Sample
}

// Len returns the number of samples.
func (s Split) Len() int { return len(s.Samples) }

// Labels returns the distinct labels in ascending order.
func (s Split) Labels() []int {
	seen := make(map[int]struct{})
	for _, smp := range s.Samples {
		seen[smp.Label] = struct{}{}
	}
	labels := make([]int, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Ints(labels)
	return labels
}

// Dataset is a training split and an evaluation split.
type Dataset struct {
	Train Split
	Test  Split
}

// Provider loads a Dataset. Implementations report failures as
// *DataAccessError.
type Provider interface {
	Load() (Dataset, error)
}

// DataAccessError reports that samples could not be supplied.
type DataAccessError struct {
	Source string
	Err    error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("data access %s: %v", e.Source, e.Err)
}

// Unwrap returns the underlying error.
func (e *DataAccessError) Unwrap() error { return e.Err }

// IsDataAccess reports whether err was caused by a *DataAccessError.
func IsDataAccess(err error) bool {
	var target *DataAccessError
	return errors.As(err, &target)
}

// MemoryProvider serves a Dataset already held in memory.
type MemoryProvider struct {
	Data Dataset
}

// Load returns the in-memory dataset.
func (m MemoryProvider) Load() (Dataset, error) {
	if m.Data.Train.Len() == 0 {
		return Dataset{}, &DataAccessError{Source: "memory", Err: errors.New("empty training split")}
	}
	return m.Data, nil
}
