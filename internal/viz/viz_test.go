package viz

import (
	"bytes"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderImage(t *testing.T) {
	pixels := []uint8{
		0, 255, 0,
		0, 128, 0,
	}
	var buf bytes.Buffer
	require.NoError(t, RenderImage(&buf, pixels, 2, 3))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "  @@  ", lines[0])
	assert.Len(t, lines[1], 6)
	assert.Equal(t, "  ", lines[1][:2])
}

func TestRenderImage_NormalizedFloats(t *testing.T) {
	var raw, norm bytes.Buffer
	require.NoError(t, RenderImage(&raw, []uint8{0, 255, 51, 204}, 2, 2))
	require.NoError(t, RenderImage(&norm, []float32{-1, 1, -0.6, 0.6}, 2, 2))
	assert.Equal(t, raw.String(), norm.String())
}

func TestRenderImage_Constant(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderImage(&buf, make([]float32, 4), 2, 2))
	assert.Equal(t, "    \n    \n", buf.String())
}

func TestRenderImage_NaNAndInfPixels(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))

	var buf bytes.Buffer
	require.NoError(t, RenderImage(&buf, []float32{nan, 0, 1, nan}, 2, 2))
	assert.Equal(t, "    \n@@  \n", buf.String())

	buf.Reset()
	require.NoError(t, RenderImage(&buf, []float32{nan, nan, nan, nan}, 2, 2))
	assert.Equal(t, "    \n    \n", buf.String())

	buf.Reset()
	require.NoError(t, RenderImage(&buf, []float32{0, inf, 1, 0}, 2, 2))
	assert.Len(t, buf.String(), 10)
}

func TestRampLevel_StaysInRange(t *testing.T) {
	for _, v := range []float64{-1e9, -1, 0, 0.5, 1, 2, 1e9, math.NaN(), math.Inf(1), math.Inf(-1)} {
		level := rampLevel(v, 0, 1)
		assert.GreaterOrEqual(t, level, 0, "v=%v", v)
		assert.Less(t, level, len(ramp), "v=%v", v)
	}
	assert.Equal(t, 0, rampLevel(5, 0, 0))
	assert.Equal(t, 0, rampLevel(5, 0, math.NaN()))
	assert.Equal(t, len(ramp)-1, rampLevel(1, 0, 1))
}

func TestRenderImage_BadShape(t *testing.T) {
	err := RenderImage(&bytes.Buffer{}, make([]uint8, 5), 2, 3)
	assert.True(t, errors.Is(err, ErrShape))
}

func TestRenderProbabilities(t *testing.T) {
	probs := []float32{0.05, 0.05, 0.05, 0.05, 0.05, 0.05, 0.05, 0.5, 0.1, 0.05}
	var buf bytes.Buffer
	require.NoError(t, RenderProbabilities(&buf, probs, 8))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, NumClasses+1)

	assert.True(t, strings.HasPrefix(lines[7], "7 | "+strings.Repeat("#", BarWidth/2)+" "))
	assert.True(t, strings.HasSuffix(lines[7], "0.5000 <"))
	assert.True(t, strings.HasSuffix(lines[8], "0.1000 *"))
	assert.Equal(t, "predicted 7 (p=0.5000), label 8", lines[10])

	for _, line := range lines[:NumClasses] {
		assert.Equal(t, len("0 | ")+BarWidth+len(" 0.0000"), len(strings.TrimRight(line, " <*")))
	}
}

func TestRenderProbabilities_NoLabel(t *testing.T) {
	probs := make([]float32, NumClasses)
	probs[3] = 1
	var buf bytes.Buffer
	require.NoError(t, RenderProbabilities(&buf, probs, NoLabel))
	assert.NotContains(t, buf.String(), "*")
	assert.Contains(t, buf.String(), "predicted 3 (p=1.0000)\n")
}

func TestRenderProbabilities_BarsStayWithinWidth(t *testing.T) {
	probs := make([]float32, NumClasses)
	probs[0] = float32(math.NaN())
	probs[1] = -0.5
	probs[2] = 1.5
	probs[3] = float32(math.Inf(1))

	var buf bytes.Buffer
	require.NotPanics(t, func() {
		require.NoError(t, RenderProbabilities(&buf, probs, NoLabel))
	})
	want := []int{0, 0, BarWidth, BarWidth, 0, 0, 0, 0, 0, 0}
	for i, line := range strings.Split(buf.String(), "\n")[:NumClasses] {
		assert.Equal(t, want[i], strings.Count(line, "#"), "class %d: %q", i, line)
	}
}

func TestRenderProbabilities_Errors(t *testing.T) {
	err := RenderProbabilities(&bytes.Buffer{}, make([]float32, 9), 0)
	assert.True(t, errors.Is(err, ErrShape))

	err = RenderProbabilities(&bytes.Buffer{}, make([]float32, 11), 0)
	assert.True(t, errors.Is(err, ErrShape))

	err = RenderProbabilities(&bytes.Buffer{}, make([]float32, NumClasses), 10)
	assert.Error(t, err)
}

func TestWritePNG(t *testing.T) {
	pixels := make([]uint8, 28*28)
	for i := range pixels {
		pixels[i] = uint8(i % 256)
	}
	path := filepath.Join(t.TempDir(), "out", "sample.png")
	require.NoError(t, WritePNG(path, pixels, 28, 28))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	img, err := png.Decode(file)
	require.NoError(t, err)

	assert.Equal(t, 28, img.Bounds().Dx())
	assert.Equal(t, 28, img.Bounds().Dy())
	r, _, _, _ := img.At(5, 1).RGBA()
	assert.Equal(t, uint32(pixels[1*28+5])*0x101, r)

	assert.Error(t, WritePNG(path, pixels[:10], 28, 28))
}
