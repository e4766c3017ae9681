package dataset_test

import (
	"math"
	"testing"

	"github.com/born-ml/feedforward/internal/backend/cpu"
	"github.com/born-ml/feedforward/internal/dataset"
	"github.com/born-ml/feedforward/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoader(t *testing.T, n int, opts dataset.LoaderOptions) *dataset.Loader[*cpu.CPUBackend] {
	t.Helper()
	ds, err := dataset.Synthetic(n, 3)
	require.NoError(t, err)
	l, err := dataset.NewLoader(ds, cpu.New(), opts)
	require.NoError(t, err)
	return l
}

func epochOrder(l *dataset.Loader[*cpu.CPUBackend]) []int {
	var order []int
	for {
		b, ok := l.Next()
		if !ok {
			return order
		}
		order = append(order, b.Indices...)
	}
}

func TestLoader_BatchShapes(t *testing.T) {
	l := newLoader(t, 10, dataset.LoaderOptions{BatchSize: 4})
	assert.Equal(t, 3, l.NumBatches())
	assert.Equal(t, 4, l.BatchSize())

	var sizes []int
	for {
		b, ok := l.Next()
		if !ok {
			break
		}
		sizes = append(sizes, b.Size)
		assert.Equal(t, tensor.Shape{b.Size, 1, 28, 28}, b.Images.Shape())
		assert.Equal(t, tensor.Shape{b.Size}, b.Labels.Shape())
	}
	assert.Equal(t, []int{4, 4, 2}, sizes)

	_, ok := l.Next()
	assert.False(t, ok, "exhausted epoch stays exhausted")
}

func TestLoader_DropLast(t *testing.T) {
	l := newLoader(t, 10, dataset.LoaderOptions{BatchSize: 4, DropLast: true})
	assert.Equal(t, 2, l.NumBatches())
	assert.Equal(t, 8, l.Len())
	assert.Len(t, epochOrder(l), 8)
}

func TestLoader_SequentialOrder(t *testing.T) {
	l := newLoader(t, 7, dataset.LoaderOptions{BatchSize: 3})
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, epochOrder(l))
}

func TestLoader_ShuffleIsSeeded(t *testing.T) {
	opts := dataset.LoaderOptions{BatchSize: 8, Shuffle: true, Seed: 99}
	a := newLoader(t, 50, opts)
	b := newLoader(t, 50, opts)

	first := epochOrder(a)
	assert.Equal(t, first, epochOrder(b))
	assert.ElementsMatch(t, first, epochOrder(newLoader(t, 50, dataset.LoaderOptions{BatchSize: 50})))

	opts.Seed = 100
	assert.NotEqual(t, first, epochOrder(newLoader(t, 50, opts)))
}

func TestLoader_ResetReshuffles(t *testing.T) {
	l := newLoader(t, 50, dataset.LoaderOptions{BatchSize: 16, Shuffle: true, Seed: 5})
	first := epochOrder(l)

	l.Reset()
	assert.Equal(t, 1, l.Epoch())
	second := epochOrder(l)
	assert.Len(t, second, 50)
	assert.ElementsMatch(t, first, second)
	assert.NotEqual(t, first, second)

	// A fresh loader replays the same epoch sequence.
	replay := newLoader(t, 50, dataset.LoaderOptions{BatchSize: 16, Shuffle: true, Seed: 5})
	assert.Equal(t, first, epochOrder(replay))
	replay.Reset()
	assert.Equal(t, second, epochOrder(replay))
}

func TestLoader_ResetMidEpoch(t *testing.T) {
	l := newLoader(t, 10, dataset.LoaderOptions{BatchSize: 4})
	_, ok := l.Next()
	require.True(t, ok)
	l.Reset()
	assert.Len(t, epochOrder(l), 10)
}

func TestLoader_NormalizesAndLabels(t *testing.T) {
	ds, err := dataset.NewInMemory(28, 28,
		[][]uint8{make([]uint8, 784), fullImage(255)},
		[]uint8{2, 7})
	require.NoError(t, err)

	l, err := dataset.NewLoader(ds, cpu.New(), dataset.LoaderOptions{BatchSize: 2})
	require.NoError(t, err)
	b, ok := l.Next()
	require.True(t, ok)

	assert.Equal(t, []int32{2, 7}, b.Labels.Data())
	assert.InDelta(t, -1.0, b.Images.At(0, 0, 5, 5), 1e-6)
	assert.InDelta(t, 1.0, b.Images.At(1, 0, 27, 27), 1e-6)

	norm := dataset.MNISTNormalization
	l, err = dataset.NewLoader(ds, cpu.New(), dataset.LoaderOptions{BatchSize: 1, Normalization: &norm})
	require.NoError(t, err)
	b, _ = l.Next()
	assert.InDelta(t, -0.1307/0.3081, b.Images.At(0, 0, 0, 0), 1e-5)
}

func TestNewLoader_Errors(t *testing.T) {
	ds, err := dataset.Synthetic(5, 1)
	require.NoError(t, err)
	backend := cpu.New()

	_, err = dataset.NewLoader(ds, backend, dataset.LoaderOptions{BatchSize: 0})
	assert.Error(t, err)

	_, err = dataset.NewLoader(ds, backend, dataset.LoaderOptions{BatchSize: 8, DropLast: true})
	assert.Error(t, err)

	bad := dataset.Normalization{Mean: 0, Std: 0}
	_, err = dataset.NewLoader(ds, backend, dataset.LoaderOptions{BatchSize: 2, Normalization: &bad})
	assert.Error(t, err)

	_, err = dataset.NewLoader(nil, backend, dataset.LoaderOptions{BatchSize: 2})
	assert.ErrorIs(t, err, dataset.ErrEmpty)
}

func fullImage(v uint8) []uint8 {
	img := make([]uint8, 784)
	for i := range img {
		img[i] = v
	}
	return img
}

func TestComputeStats(t *testing.T) {
	ds, err := dataset.NewInMemory(28, 28,
		[][]uint8{make([]uint8, 784), fullImage(255)},
		[]uint8{0, 1})
	require.NoError(t, err)

	stats := dataset.ComputeStats(ds)
	assert.InDelta(t, 0.5, stats.Mean, 1e-12)
	assert.InDelta(t, 0.5, stats.Std, 1e-12)

	constant, err := dataset.NewInMemory(28, 28, [][]uint8{fullImage(51)}, []uint8{0})
	require.NoError(t, err)
	stats = dataset.ComputeStats(constant)
	assert.InDelta(t, 0.2, stats.Mean, 1e-12)
	assert.InDelta(t, 0, stats.Std, 1e-9)
}

func TestNormalization_Apply(t *testing.T) {
	n := dataset.DefaultNormalization
	assert.InDelta(t, -1.0, n.Apply(0), 1e-7)
	assert.InDelta(t, 1.0, n.Apply(255), 1e-7)
	assert.InDelta(t, 0.0, n.Apply(128), 1.0/255)

	dst := make([]float32, 3)
	n.Fill(dst, []uint8{0, 255, 0})
	for _, v := range dst {
		assert.False(t, math.IsNaN(float64(v)))
	}
	assert.Equal(t, []float32{-1, 1, -1}, dst)
}
