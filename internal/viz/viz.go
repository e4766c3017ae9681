// Package viz renders MNIST samples and class probabilities for a terminal,
// and exports samples as PNG.
package viz

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// NumClasses is the length of a probability vector RenderProbabilities accepts.
const NumClasses = 10

// NoLabel tells RenderProbabilities the true class is unknown.
const NoLabel = -1

// ErrShape is returned for pixel or probability slices of the wrong length.
var ErrShape = errors.New("unexpected input length")

// ramp maps intensity to glyphs, darkest first.
const ramp = " .:-=+*#%@"

// BarWidth is the width in cells of a probability of 1.
const BarWidth = 40

// RenderImage draws a rows x cols grayscale image as ASCII art, one line per
// pixel row and two characters per pixel. Intensities are scaled between the
// image's own minimum and maximum, so both raw bytes and normalized floats
// render the same way. NaN pixels render as background.
func RenderImage[P uint8 | float32](w io.Writer, pixels []P, rows, cols int) error {
	if rows <= 0 || cols <= 0 || len(pixels) != rows*cols {
		return errors.Wrapf(ErrShape, "image: %d pixels for %dx%d", len(pixels), rows, cols)
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range pixels {
		if v := float64(p); !math.IsNaN(v) {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	span := hi - lo

	bw := bufio.NewWriter(w)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			g := ramp[rampLevel(float64(pixels[r*cols+c]), lo, span)]
			bw.WriteByte(g)
			bw.WriteByte(g)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// rampLevel maps v in [lo, lo+span] to an index into ramp.
func rampLevel(v, lo, span float64) int {
	if !(span > 0) || math.IsNaN(v) {
		return 0
	}
	top := len(ramp) - 1
	level := (v - lo) / span * float64(top)
	switch {
	case math.IsNaN(level) || level < 0:
		return 0
	case level > float64(top):
		return top
	}
	return int(level)
}

// RenderProbabilities draws a horizontal bar chart of ten class
// probabilities. The most probable class is marked with '<' and the true
// label, unless it is NoLabel, with '*'.
//
//	0 | ###                   0.0712
//	7 | ##################### 0.5120 < *
func RenderProbabilities(w io.Writer, probs []float32, label int) error {
	if len(probs) != NumClasses {
		return errors.Wrapf(ErrShape, "probabilities: got %d, want %d", len(probs), NumClasses)
	}
	if label != NoLabel && (label < 0 || label >= NumClasses) {
		return errors.Errorf("label %d out of range", label)
	}

	p64 := make([]float64, len(probs))
	for i, p := range probs {
		p64[i] = float64(p)
	}
	best := floats.MaxIdx(p64)

	bw := bufio.NewWriter(w)
	for class, p := range p64 {
		n := int(math.Round(clamp01(p) * float64(BarWidth)))
		fmt.Fprintf(bw, "%d | %s%s %.4f", class, strings.Repeat("#", n), strings.Repeat(" ", BarWidth-n), p)
		if class == best {
			bw.WriteString(" <")
		}
		if class == label {
			bw.WriteString(" *")
		}
		bw.WriteByte('\n')
	}
	if label != NoLabel {
		fmt.Fprintf(bw, "predicted %d (p=%.4f), label %d\n", best, p64[best], label)
	} else {
		fmt.Fprintf(bw, "predicted %d (p=%.4f)\n", best, p64[best])
	}
	return bw.Flush()
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

// Grayscale converts raw pixels into an image.Gray.
func Grayscale(pixels []uint8, rows, cols int) (*image.Gray, error) {
	if rows <= 0 || cols <= 0 || len(pixels) != rows*cols {
		return nil, errors.Wrapf(ErrShape, "image: %d pixels for %dx%d", len(pixels), rows, cols)
	}
	img := image.NewGray(image.Rect(0, 0, cols, rows))
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			img.SetGray(x, y, color.Gray{Y: pixels[y*cols+x]})
		}
	}
	return img, nil
}

// WritePNG saves the image as an 8-bit grayscale PNG, creating parent
// directories as needed.
func WritePNG(path string, pixels []uint8, rows, cols int) error {
	img, err := Grayscale(pixels, rows, cols)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create png directory")
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create png")
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return errors.Wrapf(err, "encode %s", path)
	}
	return errors.Wrapf(file.Close(), "close %s", path)
}
