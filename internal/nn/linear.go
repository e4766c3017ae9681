package nn

import (
	"fmt"
	"math/rand/v2"

	"github.com/born-ml/feedforward/internal/tensor"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ Wᵀ + b
// where:
//   - x is the input tensor with shape [batch_size, in_features]
//   - W is the weight matrix with shape [out_features, in_features]
//   - b is the bias vector with shape [out_features]
//   - y is the output tensor with shape [batch_size, out_features]
//
// Weights are initialized using Xavier/Glorot initialization.
// Biases are initialized to zeros.
//
// Example:
//
//	backend := cpu.New()
//	layer := nn.NewLinear(784, 128, backend)
//	output := layer.Forward(input)  // [32, 784] -> [32, 128]
type Linear[B tensor.Backend] struct {
	name        string
	inFeatures  int
	outFeatures int
	weight      *Parameter[B] // [out_features, in_features]
	bias        *Parameter[B] // [out_features]
}

// LinearOption configures NewLinear.
type LinearOption func(*linearConfig)

type linearConfig struct {
	name string
	rng  *rand.Rand
}

// WithName prefixes the layer's parameter names ("fc1" → "fc1.weight").
func WithName(name string) LinearOption {
	return func(c *linearConfig) {
		c.name = name
	}
}

// WithRand draws the initial weights from rng instead of the global source.
func WithRand(rng *rand.Rand) LinearOption {
	return func(c *linearConfig) {
		c.rng = rng
	}
}

// NewLinear creates a new Linear layer.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B, opts ...LinearOption) *Linear[B] {
	var cfg linearConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	weightTensor := Xavier(inFeatures, outFeatures, tensor.Shape{outFeatures, inFeatures}, backend, cfg.rng)
	return &Linear[B]{
		name:        cfg.name,
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter(paramName(cfg.name, "weight"), weightTensor),
		bias:        NewParameter(paramName(cfg.name, "bias"), Zeros(tensor.Shape{outFeatures}, backend)),
	}
}

func paramName(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// Forward computes the output of the linear layer.
//
// Input shape: [batch_size, in_features]
// Output shape: [batch_size, out_features]
//
// Panics if the input is not 2D or has the wrong feature count.
func (l *Linear[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	inputShape := input.Shape()
	if len(inputShape) != 2 {
		panic(fmt.Sprintf("Linear.Forward: expected 2D input [batch, features], got shape %v", inputShape))
	}
	if inputShape[1] != l.inFeatures {
		panic(fmt.Sprintf("Linear.Forward: expected input with %d features, got %d", l.inFeatures, inputShape[1]))
	}

	// [batch, in] @ [out, in]ᵀ = [batch, out], no transposed copy of W.
	output := input.MatMulT(l.weight.Tensor())

	// [out] viewed as [1, out] broadcasts over the batch.
	return output.Add(l.bias.Tensor().Reshape(1, l.outFeatures))
}

// Parameters returns [weight, bias].
func (l *Linear[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.weight, l.bias}
}

// Name returns the layer name given by WithName.
func (l *Linear[B]) Name() string {
	return l.name
}

// Weight returns the weight parameter.
func (l *Linear[B]) Weight() *Parameter[B] {
	return l.weight
}

// Bias returns the bias parameter.
func (l *Linear[B]) Bias() *Parameter[B] {
	return l.bias
}

// InFeatures returns the number of input features.
func (l *Linear[B]) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear[B]) OutFeatures() int {
	return l.outFeatures
}
