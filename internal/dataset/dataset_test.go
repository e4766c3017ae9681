package dataset_test

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/born-ml/feedforward/internal/dataset"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInMemory_Validation(t *testing.T) {
	img := make([]uint8, 4)

	_, err := dataset.NewInMemory(2, 2, [][]uint8{img}, []uint8{1, 2})
	assert.True(t, errors.Is(err, dataset.ErrCountMismatch))

	_, err = dataset.NewInMemory(2, 2, nil, nil)
	assert.True(t, errors.Is(err, dataset.ErrEmpty))

	_, err = dataset.NewInMemory(2, 2, [][]uint8{make([]uint8, 3)}, []uint8{1})
	assert.True(t, errors.Is(err, dataset.ErrBadImage))

	_, err = dataset.NewInMemory(0, 0, [][]uint8{{}}, []uint8{1})
	assert.True(t, errors.Is(err, dataset.ErrBadImage), "zero geometry: %v", err)

	_, err = dataset.NewInMemory(2, 2, [][]uint8{img}, []uint8{10})
	assert.True(t, errors.Is(err, dataset.ErrBadLabel))

	ds, err := dataset.NewInMemory(2, 2, [][]uint8{img, img}, []uint8{3, 4})
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, uint8(4), ds.At(1).Label)
	assert.Equal(t, 1, ds.Head(1).Len())
	assert.Equal(t, 2, ds.Head(0).Len())
}

func TestSynthetic(t *testing.T) {
	a, err := dataset.Synthetic(30, 7)
	require.NoError(t, err)
	b, err := dataset.Synthetic(30, 7)
	require.NoError(t, err)

	assert.Equal(t, 30, a.Len())
	assert.Equal(t, dataset.Rows, a.Rows())
	assert.Equal(t, dataset.Cols, a.Cols())
	for i := 0; i < a.Len(); i++ {
		assert.Equal(t, a.At(i), b.At(i), "sample %d", i)
	}

	counts := dataset.LabelCounts(a)
	for class, n := range counts {
		assert.Equal(t, 3, n, "class %d", class)
	}

	// Digits are drawn with bright strokes.
	var bright int
	for _, p := range a.At(8).Pixels {
		if p >= 180 {
			bright++
		}
	}
	assert.Greater(t, bright, 50)
}

func TestIDX_RoundTrip(t *testing.T) {
	src, err := dataset.Synthetic(12, 1)
	require.NoError(t, err)

	dir := t.TempDir()
	var images, labels bytes.Buffer
	require.NoError(t, dataset.WriteIDX(&images, &labels, src))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "t10k-images-idx3-ubyte"), images.Bytes(), 0o644))

	// Labels are gzip-compressed to exercise the .gz fallback.
	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, err = zw.Write(labels.Bytes())
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "t10k-labels-idx1-ubyte.gz"), gz.Bytes(), 0o644))

	got, err := dataset.LoadIDX(dir, dataset.Test)
	require.NoError(t, err)
	require.Equal(t, src.Len(), got.Len())
	for i := 0; i < src.Len(); i++ {
		assert.Equal(t, src.At(i), got.At(i), "sample %d", i)
	}

	_, err = dataset.LoadIDX(dir, dataset.Train)
	assert.Error(t, err)
	_, err = dataset.LoadIDX(dir, dataset.Split("validation"))
	assert.Error(t, err)
}

func TestReadIDX_BadMagic(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, [4]uint32{2049, 1, 28, 28}))
	_, _, _, err := dataset.ReadIDXImages(&buf)
	assert.True(t, errors.Is(err, dataset.ErrBadMagic))

	buf.Reset()
	require.NoError(t, binary.Write(&buf, binary.BigEndian, [2]uint32{2051, 1}))
	_, err = dataset.ReadIDXLabels(&buf)
	assert.True(t, errors.Is(err, dataset.ErrBadMagic))
}

func TestReadIDX_Truncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, [4]uint32{2051, 2, 28, 28}))
	buf.Write(make([]byte, 28*28))
	_, _, _, err := dataset.ReadIDXImages(&buf)
	assert.Error(t, err)
}

func TestReadIDXImages_ZeroGeometry(t *testing.T) {
	for _, header := range [][4]uint32{
		{2051, 2, 0, 0},
		{2051, 2, 28, 0},
		{2051, 2, 0, 28},
	} {
		var buf bytes.Buffer
		require.NoError(t, binary.Write(&buf, binary.BigEndian, header))
		_, _, _, err := dataset.ReadIDXImages(&buf)
		assert.True(t, errors.Is(err, dataset.ErrBadImage), "header %v: %v", header, err)
	}
}

func TestReadIDXImages_OversizedHeader(t *testing.T) {
	for _, header := range [][4]uint32{
		{2051, 1 << 31, 1 << 16, 1 << 16}, // product wraps int64
		{2051, 1, 1 << 16, 1},              // side too large
		{2051, 1 << 20, 64, 64},            // 4 GiB of pixels
	} {
		var buf bytes.Buffer
		require.NoError(t, binary.Write(&buf, binary.BigEndian, header))
		_, _, _, err := dataset.ReadIDXImages(&buf)
		assert.True(t, errors.Is(err, dataset.ErrBadImage), "header %v: %v", header, err)
	}
}

func TestReadIDXLabels_OversizedHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, [2]uint32{2049, 1<<31 + 1}))
	_, err := dataset.ReadIDXLabels(&buf)
	assert.True(t, errors.Is(err, dataset.ErrBadLabel), "got %v", err)
}

func TestLoadIDX_ZeroGeometryIsAnError(t *testing.T) {
	dir := t.TempDir()
	var images, labels bytes.Buffer
	require.NoError(t, binary.Write(&images, binary.BigEndian, [4]uint32{2051, 2, 0, 0}))
	require.NoError(t, binary.Write(&labels, binary.BigEndian, [2]uint32{2049, 2}))
	labels.Write([]byte{1, 2})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "t10k-images-idx3-ubyte"), images.Bytes(), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "t10k-labels-idx1-ubyte"), labels.Bytes(), 0o644))

	_, err := dataset.LoadIDX(dir, dataset.Test)
	assert.True(t, errors.Is(err, dataset.ErrBadImage), "got %v", err)
}

func csvRow(label int, fill int) string {
	fields := make([]string, 1+dataset.Rows*dataset.Cols)
	fields[0] = strconv.Itoa(label)
	for i := 1; i < len(fields); i++ {
		fields[i] = strconv.Itoa(fill)
	}
	return strings.Join(fields, ",")
}

func TestReadCSV(t *testing.T) {
	header := make([]string, 1+dataset.Rows*dataset.Cols)
	header[0] = "label"
	for i := 1; i < len(header); i++ {
		header[i] = "pixel" + strconv.Itoa(i-1)
	}
	input := strings.Join([]string{
		strings.Join(header, ","),
		csvRow(5, 0),
		csvRow(3, 255),
		csvRow(9, 7),
	}, "\n") + "\n"

	ds, err := dataset.ReadCSV(strings.NewReader(input), 0)
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())
	assert.Equal(t, uint8(5), ds.At(0).Label)
	assert.Equal(t, uint8(255), ds.At(1).Pixels[100])
	assert.Equal(t, uint8(7), ds.At(2).Pixels[783])

	limited, err := dataset.ReadCSV(strings.NewReader(input), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, limited.Len())
}

func TestReadCSV_Errors(t *testing.T) {
	_, err := dataset.ReadCSV(strings.NewReader(csvRow(1, 0)+"\n"+csvRow(2, 300)+"\n"), 0)
	assert.Error(t, err, "pixel out of range")

	_, err = dataset.ReadCSV(strings.NewReader("1,2,3\n"), 0)
	assert.Error(t, err, "wrong field count")

	_, err = dataset.ReadCSV(strings.NewReader(""), 0)
	assert.True(t, errors.Is(err, dataset.ErrEmpty))
}

func TestLoadCSV_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mnist.csv")
	require.NoError(t, os.WriteFile(path, []byte(csvRow(4, 1)+"\n"), 0o644))

	ds, err := dataset.LoadCSV(path, 0)
	require.NoError(t, err)
	assert.Equal(t, uint8(4), ds.At(0).Label)

	_, err = dataset.LoadCSV(filepath.Join(t.TempDir(), "missing.csv"), 0)
	assert.Error(t, err)
}
