package dataset

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"image"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Standard MNIST file names. Each may be stored raw or with a .gz suffix.
const (
	TrainImagesFile = "train-images-idx3-ubyte"
	TrainLabelsFile = "train-labels-idx1-ubyte"
	TestImagesFile  = "t10k-images-idx3-ubyte"
	TestLabelsFile  = "t10k-labels-idx1-ubyte"
)

const (
	imagesMagic = 0x00000803
	labelsMagic = 0x00000801

	// maxSide bounds the image side a header may declare.
	maxSide = 1 << 12
	// maxPrealloc bounds the slice capacity reserved from a header count;
	// beyond it slices grow as records are actually read.
	maxPrealloc = 1 << 16
)

// IDXProvider loads MNIST-format IDX files from Dir.
type IDXProvider struct {
	Dir string
}

// Load reads the training and test splits.
func (p IDXProvider) Load() (Dataset, error) {
	train, err := p.split("train", TrainImagesFile, TrainLabelsFile)
	if err != nil {
		return Dataset{}, err
	}
	test, err := p.split("test", TestImagesFile, TestLabelsFile)
	if err != nil {
		return Dataset{}, err
	}
	return Dataset{Train: train, Test: test}, nil
}

func (p IDXProvider) split(name, imagesFile, labelsFile string) (Split, error) {
	images, err := readFile(p.Dir, imagesFile, ReadImages)
	if err != nil {
		return Split{}, err
	}
	labels, err := readFile(p.Dir, labelsFile, ReadLabels)
	if err != nil {
		return Split{}, err
	}
	if len(images) != len(labels) {
		return Split{}, &DataAccessError{
			Source: filepath.Join(p.Dir, imagesFile),
			Err:    errors.Errorf("%d images but %d labels", len(images), len(labels)),
		}
	}

	samples := make([]Sample, len(images))
	for i := range images {
		samples[i] = Sample{Image: images[i], Label: labels[i]}
	}
	return Split{Name: name, Samples: samples}, nil
}

func readFile[T any](dir, name string, read func(io.Reader) ([]T, error)) ([]T, error) {
	path := filepath.Join(dir, name)
	rc, opened, err := openIDX(path)
	if err != nil {
		return nil, &DataAccessError{Source: opened, Err: err}
	}
	defer rc.Close()

	out, err := read(rc)
	if err != nil {
		return nil, &DataAccessError{Source: opened, Err: err}
	}
	return out, nil
}

// openIDX prefers path.gz and falls back to the raw file only when the
// compressed one does not exist.
func openIDX(path string) (io.ReadCloser, string, error) {
	f, err := os.Open(path + ".gz")
	switch {
	case err == nil:
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, path + ".gz", errors.Wrap(err, "gunzip")
		}
		return &gzipFile{Reader: zr, f: f}, path + ".gz", nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, path + ".gz", errors.WithStack(err)
	}
	f, err = os.Open(path)
	if err != nil {
		return nil, path, errors.Wrapf(err, "open %s(.gz)", filepath.Base(path))
	}
	return f, path, nil
}

type gzipFile struct {
	*gzip.Reader
	f *os.File
}

func (g *gzipFile) Close() error {
	zerr := g.Reader.Close()
	if err := g.f.Close(); err != nil {
		return err
	}
	return zerr
}

// ReadImages decodes an IDX3 unsigned-byte image file.
func ReadImages(r io.Reader) ([]*image.Gray, error) {
	br := bufio.NewReader(r)
	var hdr struct{ Magic, Count, Rows, Cols uint32 }
	if err := binary.Read(br, binary.BigEndian, &hdr); err != nil {
		return nil, errors.Wrap(err, "read image header")
	}
	if hdr.Magic != imagesMagic {
		return nil, errors.Errorf("bad image magic %#08x", hdr.Magic)
	}
	if hdr.Rows == 0 || hdr.Cols == 0 || hdr.Rows > maxSide || hdr.Cols > maxSide {
		return nil, errors.Errorf("bad image size %dx%d", hdr.Rows, hdr.Cols)
	}

	images := make([]*image.Gray, 0, min(hdr.Count, maxPrealloc))
	for i := uint32(0); i < hdr.Count; i++ {
		img := image.NewGray(image.Rect(0, 0, int(hdr.Cols), int(hdr.Rows)))
		if _, err := io.ReadFull(br, img.Pix); err != nil {
			return nil, errors.Wrapf(err, "read image %d of %d", i, hdr.Count)
		}
		images = append(images, img)
	}
	return images, nil
}

// ReadLabels decodes an IDX1 unsigned-byte label file.
func ReadLabels(r io.Reader) ([]int, error) {
	br := bufio.NewReader(r)
	var hdr struct{ Magic, Count uint32 }
	if err := binary.Read(br, binary.BigEndian, &hdr); err != nil {
		return nil, errors.Wrap(err, "read label header")
	}
	if hdr.Magic != labelsMagic {
		return nil, errors.Errorf("bad label magic %#08x", hdr.Magic)
	}

	raw, err := io.ReadAll(io.LimitReader(br, int64(hdr.Count)))
	if err != nil {
		return nil, errors.Wrapf(err, "read %d labels", hdr.Count)
	}
	if len(raw) != int(hdr.Count) {
		return nil, errors.Wrapf(io.ErrUnexpectedEOF, "read %d of %d labels", len(raw), hdr.Count)
	}
	labels := make([]int, len(raw))
	for i, b := range raw {
		labels[i] = int(b)
	}
	return labels, nil
}

// WriteImages encodes images as an IDX3 file. All images must share the
// bounds of the first one.
func WriteImages(w io.Writer, images []*image.Gray) error {
	var rows, cols int
	if len(images) > 0 {
		rows, cols = images[0].Bounds().Dy(), images[0].Bounds().Dx()
	}
	hdr := []uint32{imagesMagic, uint32(len(images)), uint32(rows), uint32(cols)}
	if err := binary.Write(w, binary.BigEndian, hdr); err != nil {
		return errors.Wrap(err, "write image header")
	}
	for i, img := range images {
		b := img.Bounds()
		if b.Dy() != rows || b.Dx() != cols {
			return errors.Errorf("image %d is %dx%d, want %dx%d", i, b.Dx(), b.Dy(), cols, rows)
		}
		for y := b.Min.Y; y < b.Max.Y; y++ {
			off := img.PixOffset(b.Min.X, y)
			if _, err := w.Write(img.Pix[off : off+cols]); err != nil {
				return errors.Wrapf(err, "write image %d", i)
			}
		}
	}
	return nil
}

// WriteLabels encodes labels as an IDX1 file.
func WriteLabels(w io.Writer, labels []int) error {
	if err := binary.Write(w, binary.BigEndian, []uint32{labelsMagic, uint32(len(labels))}); err != nil {
		return errors.Wrap(err, "write label header")
	}
	raw := make([]byte, len(labels))
	for i, l := range labels {
		if l < 0 || l > 255 {
			return errors.Errorf("label %d out of byte range", l)
		}
		raw[i] = byte(l)
	}
	_, err := w.Write(raw)
	return errors.Wrap(err, "write labels")
}
