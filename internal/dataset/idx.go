package dataset

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// IDX magic numbers.
const (
	idxImagesMagic = 0x00000803 // 2051
	idxLabelsMagic = 0x00000801 // 2049
)

// Header limits. IDX counts are untrusted uint32 fields; anything beyond
// these is a corrupt or hostile file, not a dataset.
const (
	maxIDXSide    = 1 << 12 // rows or cols
	maxIDXPayload = 1 << 30 // bytes of pixels or labels
)

// Split selects the training or test half of MNIST.
type Split string

// Known splits.
const (
	Train Split = "train"
	Test  Split = "test"
)

func (s Split) files() (images, labels string, err error) {
	switch s {
	case Train:
		return "train-images-idx3-ubyte", "train-labels-idx1-ubyte", nil
	case Test:
		return "t10k-images-idx3-ubyte", "t10k-labels-idx1-ubyte", nil
	default:
		return "", "", errors.Errorf("unknown split %q (want %q or %q)", s, Train, Test)
	}
}

// LoadIDX loads MNIST from the official IDX files in dir.
//
// Expected files (each optionally gzip-compressed with a .gz suffix):
//   - train-images-idx3-ubyte, train-labels-idx1-ubyte for Train
//   - t10k-images-idx3-ubyte, t10k-labels-idx1-ubyte for Test
func LoadIDX(dir string, split Split) (*InMemory, error) {
	imageFile, labelFile, err := split.files()
	if err != nil {
		return nil, err
	}

	var (
		images     [][]uint8
		rows, cols int
		labels     []uint8
	)
	err = withIDXFile(dir, imageFile, func(r io.Reader) error {
		var err error
		images, rows, cols, err = ReadIDXImages(r)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "load images")
	}

	err = withIDXFile(dir, labelFile, func(r io.Reader) error {
		var err error
		labels, err = ReadIDXLabels(r)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "load labels")
	}

	return NewInMemory(rows, cols, images, labels)
}

// withIDXFile opens dir/name, falling back to dir/name.gz, and hands f a
// reader that transparently decompresses gzip content.
func withIDXFile(dir, name string, f func(io.Reader) error) error {
	path := filepath.Join(dir, name)
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		path += ".gz"
		file, err = os.Open(path)
	}
	if err != nil {
		return err
	}
	defer file.Close()

	br := bufio.NewReader(file)
	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return errors.Wrapf(err, "%s", path)
		}
		defer zr.Close()
		return errors.Wrapf(f(zr), "%s", path)
	}
	return errors.Wrapf(f(br), "%s", path)
}

// ReadIDXImages reads an IDX3 image file.
//
//	magic number: 0x00000803 (2051)
//	number of images: 4 bytes
//	number of rows: 4 bytes
//	number of cols: 4 bytes
//	pixel data: unsigned bytes (0-255)
func ReadIDXImages(r io.Reader) (images [][]uint8, rows, cols int, err error) {
	var header [4]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, 0, 0, errors.Wrap(err, "read header")
	}
	if header[0] != idxImagesMagic {
		return nil, 0, 0, errors.Wrapf(ErrBadMagic, "got %d, want %d", header[0], idxImagesMagic)
	}

	if header[1] == 0 {
		return nil, 0, 0, ErrEmpty
	}
	if header[2] == 0 || header[3] == 0 || header[2] > maxIDXSide || header[3] > maxIDXSide {
		return nil, 0, 0, errors.Wrapf(ErrBadImage, "geometry %dx%d", header[2], header[3])
	}
	if total := uint64(header[1]) * uint64(header[2]) * uint64(header[3]); total > maxIDXPayload {
		return nil, 0, 0, errors.Wrapf(ErrBadImage, "%d images of %dx%d exceed %d bytes", header[1], header[2], header[3], maxIDXPayload)
	}
	count, rows, cols := int(header[1]), int(header[2]), int(header[3])

	// One allocation for all pixels; images are sub-slices of it.
	pixels := make([]uint8, count*rows*cols)
	if _, err := io.ReadFull(r, pixels); err != nil {
		return nil, 0, 0, errors.Wrapf(err, "read %d images", count)
	}

	images = make([][]uint8, count)
	size := rows * cols
	for i := range images {
		images[i] = pixels[i*size : (i+1)*size : (i+1)*size]
	}
	return images, rows, cols, nil
}

// ReadIDXLabels reads an IDX1 label file.
//
//	magic number: 0x00000801 (2049)
//	number of labels: 4 bytes
//	label data: unsigned bytes (0-9)
func ReadIDXLabels(r io.Reader) ([]uint8, error) {
	var header [2]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, errors.Wrap(err, "read header")
	}
	if header[0] != idxLabelsMagic {
		return nil, errors.Wrapf(ErrBadMagic, "got %d, want %d", header[0], idxLabelsMagic)
	}

	if header[1] > maxIDXPayload {
		return nil, errors.Wrapf(ErrBadLabel, "%d labels exceed %d bytes", header[1], maxIDXPayload)
	}

	labels := make([]uint8, header[1])
	if _, err := io.ReadFull(r, labels); err != nil {
		return nil, errors.Wrapf(err, "read %d labels", header[1])
	}
	return labels, nil
}

// WriteIDX writes ds as an IDX3 image file and an IDX1 label file.
func WriteIDX(images, labels io.Writer, ds Dataset) error {
	n := uint32(ds.Len())
	if err := binary.Write(images, binary.BigEndian, [4]uint32{idxImagesMagic, n, uint32(ds.Rows()), uint32(ds.Cols())}); err != nil {
		return errors.Wrap(err, "write image header")
	}
	if err := binary.Write(labels, binary.BigEndian, [2]uint32{idxLabelsMagic, n}); err != nil {
		return errors.Wrap(err, "write label header")
	}

	buf := make([]uint8, 0, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		s := ds.At(i)
		if _, err := images.Write(s.Pixels); err != nil {
			return errors.Wrapf(err, "write image %d", i)
		}
		buf = append(buf, s.Label)
	}
	_, err := labels.Write(buf)
	return errors.Wrap(err, "write labels")
}
