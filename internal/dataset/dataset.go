// Package dataset loads labeled single-channel image datasets in the MNIST
// layout and serves them as shuffled, normalized tensor batches.
package dataset

import (
	"github.com/pkg/errors"
)

// MNIST geometry.
const (
	Rows       = 28
	Cols       = 28
	NumClasses = 10
)

// Sentinel errors.
var (
	ErrBadMagic      = errors.New("bad IDX magic number")
	ErrCountMismatch = errors.New("image and label counts differ")
	ErrEmpty         = errors.New("dataset is empty")
	ErrBadLabel      = errors.New("label out of range")
	ErrBadImage      = errors.New("image has wrong size")
)

// Sample is one image and its class label.
type Sample struct {
	Pixels []uint8 // Rows*Cols intensities, row-major, 0 = background
	Label  uint8   // 0-9
}

// Dataset is a random-access collection of equally sized samples.
type Dataset interface {
	Len() int
	At(i int) Sample
	Rows() int
	Cols() int
}

// InMemory holds a whole dataset in memory. It is immutable after creation.
type InMemory struct {
	rows, cols int
	images     [][]uint8
	labels     []uint8
}

// NewInMemory validates and wraps images and labels. The slices are retained,
// not copied.
func NewInMemory(rows, cols int, images [][]uint8, labels []uint8) (*InMemory, error) {
	if len(images) != len(labels) {
		return nil, errors.Wrapf(ErrCountMismatch, "%d images, %d labels", len(images), len(labels))
	}
	if len(images) == 0 {
		return nil, ErrEmpty
	}
	if rows <= 0 || cols <= 0 {
		return nil, errors.Wrapf(ErrBadImage, "geometry %dx%d", rows, cols)
	}
	for i, img := range images {
		if len(img) != rows*cols {
			return nil, errors.Wrapf(ErrBadImage, "sample %d: %d pixels, want %d", i, len(img), rows*cols)
		}
		if labels[i] >= NumClasses {
			return nil, errors.Wrapf(ErrBadLabel, "sample %d: label %d", i, labels[i])
		}
	}
	return &InMemory{rows: rows, cols: cols, images: images, labels: labels}, nil
}

// Len returns the number of samples.
func (d *InMemory) Len() int {
	return len(d.images)
}

// At returns sample i. Callers must not modify the returned pixels.
func (d *InMemory) At(i int) Sample {
	return Sample{Pixels: d.images[i], Label: d.labels[i]}
}

// Rows returns the image height.
func (d *InMemory) Rows() int {
	return d.rows
}

// Cols returns the image width.
func (d *InMemory) Cols() int {
	return d.cols
}

// Head returns a dataset restricted to the first n samples (all if n <= 0 or
// n >= Len).
func (d *InMemory) Head(n int) *InMemory {
	if n <= 0 || n >= len(d.images) {
		return d
	}
	return &InMemory{rows: d.rows, cols: d.cols, images: d.images[:n], labels: d.labels[:n]}
}

// LabelCounts returns how many samples carry each label.
func LabelCounts(ds Dataset) [NumClasses]int {
	var counts [NumClasses]int
	for i := 0; i < ds.Len(); i++ {
		counts[ds.At(i).Label]++
	}
	return counts
}
