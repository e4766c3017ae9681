package dataset

import (
	"gonum.org/v1/gonum/stat"
)

// Normalization maps a raw pixel p in [0, 255] to (p/255 - Mean) / Std.
type Normalization struct {
	Mean float64
	Std  float64
}

// DefaultNormalization maps pixels into [-1, 1].
var DefaultNormalization = Normalization{Mean: 0.5, Std: 0.5}

// MNISTNormalization uses the commonly published MNIST training-set statistics.
var MNISTNormalization = Normalization{Mean: 0.1307, Std: 0.3081}

// Apply normalizes a single pixel.
func (n Normalization) Apply(p uint8) float32 {
	return float32((float64(p)/255 - n.Mean) / n.Std)
}

// Fill normalizes pixels into dst, which must be at least as long as pixels.
func (n Normalization) Fill(dst []float32, pixels []uint8) {
	// Precompute the 256 possible outputs.
	var table [256]float32
	for i := range table {
		table[i] = n.Apply(uint8(i))
	}
	for i, p := range pixels {
		dst[i] = table[p]
	}
}

// ComputeStats measures the mean and population standard deviation of all
// pixels of ds, scaled to [0, 1]. A constant dataset yields Std 0, which
// NewLoader rejects.
func ComputeStats(ds Dataset) Normalization {
	// Pixels take only 256 values, so weight each value by its count.
	var hist [256]float64
	for i := 0; i < ds.Len(); i++ {
		for _, p := range ds.At(i).Pixels {
			hist[p]++
		}
	}

	values := make([]float64, 0, len(hist))
	weights := make([]float64, 0, len(hist))
	for v, count := range hist {
		if count == 0 {
			continue
		}
		values = append(values, float64(v)/255)
		weights = append(weights, count)
	}

	mean, std := stat.PopMeanStdDev(values, weights)
	return Normalization{Mean: mean, Std: std}
}
