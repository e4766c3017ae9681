package nn

import (
	"math"
	"math/rand/v2"

	"github.com/born-ml/feedforward/internal/tensor"
	"gonum.org/v1/gonum/stat/distuv"
)

// Xavier (Glorot) initialization for weights.
//
// Values are drawn from U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out))).
// A nil rng draws from the global math/rand/v2 source.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B, rng *rand.Rand) *tensor.Tensor[float32, B] {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))

	uniform := rand.Float64
	if rng != nil {
		uniform = rng.Float64
	}

	t := tensor.Zeros[float32](shape, backend)
	data := t.Data()
	for i := range data {
		//nolint:gosec // weight initialization is not security-critical
		data[i] = float32((uniform()*2.0 - 1.0) * bound)
	}

	return t
}

// Normal creates a tensor with values drawn from N(mean, std²).
//
// A nil src uses the global math/rand/v2 source; pass a seeded source for
// reproducible weights.
func Normal[B tensor.Backend](shape tensor.Shape, mean, std float64, backend B, src rand.Source) *tensor.Tensor[float32, B] {
	dist := distuv.Normal{Mu: mean, Sigma: std, Src: src}

	t := tensor.Zeros[float32](shape, backend)
	data := t.Data()
	for i := range data {
		data[i] = float32(dist.Rand())
	}

	return t
}

// Zeros creates a tensor filled with zeros.
// Commonly used for bias initialization.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Zeros[float32](shape, backend)
}
