package dataset

import (
	"math/rand/v2"

	"github.com/born-ml/feedforward/internal/tensor"
	"github.com/pkg/errors"
)

// Batch is one mini-batch of images and labels.
type Batch[B tensor.Backend] struct {
	Images  *tensor.Tensor[float32, B] // [Size, 1, Rows, Cols], normalized
	Labels  *tensor.Tensor[int32, B]   // [Size]
	Size    int
	Indices []int // dataset indices of the samples, in batch order
}

// LoaderOptions configures a Loader.
type LoaderOptions struct {
	BatchSize     int
	Shuffle       bool
	Seed          uint64
	DropLast      bool           // drop the final short batch
	Normalization *Normalization // nil means DefaultNormalization
}

// Loader iterates over a dataset in mini-batches. One pass over the data is an
// epoch; Reset starts the next one. With Shuffle set, the order of epoch e is a
// permutation derived only from Seed and e, so equal seeds give equal orders.
//
// A Loader is not safe for concurrent use.
type Loader[B tensor.Backend] struct {
	ds      Dataset
	backend B
	opts    LoaderOptions
	norm    Normalization

	order  []int
	pos    int
	epoch  int
	pixels int
}

// NewLoader validates opts and prepares the first epoch.
func NewLoader[B tensor.Backend](ds Dataset, backend B, opts LoaderOptions) (*Loader[B], error) {
	if ds == nil || ds.Len() == 0 {
		return nil, ErrEmpty
	}
	if opts.BatchSize <= 0 {
		return nil, errors.Errorf("batch size must be positive, got %d", opts.BatchSize)
	}
	norm := DefaultNormalization
	if opts.Normalization != nil {
		norm = *opts.Normalization
	}
	if norm.Std <= 0 {
		return nil, errors.Errorf("normalization std must be positive, got %g", norm.Std)
	}
	if opts.DropLast && ds.Len() < opts.BatchSize {
		return nil, errors.Errorf("drop-last with %d samples and batch size %d yields no batches", ds.Len(), opts.BatchSize)
	}

	l := &Loader[B]{
		ds:      ds,
		backend: backend,
		opts:    opts,
		norm:    norm,
		order:   make([]int, ds.Len()),
		pixels:  ds.Rows() * ds.Cols(),
	}
	l.arrange()
	return l, nil
}

// arrange fills the sample order for the current epoch.
func (l *Loader[B]) arrange() {
	for i := range l.order {
		l.order[i] = i
	}
	if !l.opts.Shuffle {
		return
	}
	rng := rand.New(rand.NewPCG(l.opts.Seed, uint64(l.epoch)))
	rng.Shuffle(len(l.order), func(i, j int) {
		l.order[i], l.order[j] = l.order[j], l.order[i]
	})
}

// Next returns the next batch of the current epoch, or false when the epoch
// is exhausted.
func (l *Loader[B]) Next() (*Batch[B], bool) {
	remaining := len(l.order) - l.pos
	size := min(l.opts.BatchSize, remaining)
	if size == 0 || (l.opts.DropLast && size < l.opts.BatchSize) {
		return nil, false
	}

	indices := make([]int, size)
	copy(indices, l.order[l.pos:l.pos+size])
	l.pos += size

	rows, cols := l.ds.Rows(), l.ds.Cols()
	images := tensor.Zeros[float32](tensor.Shape{size, 1, rows, cols}, l.backend)
	labels := tensor.Zeros[int32](tensor.Shape{size}, l.backend)
	imgData, lblData := images.Data(), labels.Data()
	for i, idx := range indices {
		s := l.ds.At(idx)
		l.norm.Fill(imgData[i*l.pixels:(i+1)*l.pixels], s.Pixels)
		lblData[i] = int32(s.Label)
	}

	return &Batch[B]{Images: images, Labels: labels, Size: size, Indices: indices}, true
}

// Reset ends the current epoch and starts the next one, reshuffling if
// enabled.
func (l *Loader[B]) Reset() {
	l.epoch++
	l.pos = 0
	l.arrange()
}

// Epoch returns the zero-based index of the current epoch.
func (l *Loader[B]) Epoch() int {
	return l.epoch
}

// NumBatches returns the number of batches per epoch.
func (l *Loader[B]) NumBatches() int {
	n := l.ds.Len() / l.opts.BatchSize
	if !l.opts.DropLast && l.ds.Len()%l.opts.BatchSize != 0 {
		n++
	}
	return n
}

// BatchSize returns the configured batch size.
func (l *Loader[B]) BatchSize() int {
	return l.opts.BatchSize
}

// Len returns the number of samples per epoch.
func (l *Loader[B]) Len() int {
	if l.opts.DropLast {
		return l.NumBatches() * l.opts.BatchSize
	}
	return l.ds.Len()
}
