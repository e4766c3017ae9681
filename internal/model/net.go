// Package model defines the digit classifier: a fixed three-layer perceptron
// mapping a 28×28 image (784 features) to ten class scores.
//
//	input [N, 784]
//	  → fc1 (784 → 128) → ReLU
//	  → fc2 (128 → 64)  → ReLU
//	  → fc3 (64 → 10)   → logits
//	  → softmax         → probabilities (Predict only)
package model

import (
	"math/rand/v2"

	"github.com/born-ml/feedforward/internal/nn"
	"github.com/born-ml/feedforward/internal/tensor"
	"github.com/pkg/errors"
)

// Network dimensions.
const (
	ImageRows  = 28
	ImageCols  = 28
	InputSize  = ImageRows * ImageCols // 784
	Hidden1    = 128
	Hidden2    = 64
	NumClasses = 10
)

// Layer names, in forward order.
const (
	FC1 = "fc1"
	FC2 = "fc2"
	FC3 = "fc3"
)

// ErrInvalidInputShape is returned when an input cannot be interpreted as a
// batch of 784-feature vectors. Inputs are never truncated or padded.
var ErrInvalidInputShape = errors.New("invalid input shape")

// ErrUnknownLayer is returned when a layer name is not fc1, fc2 or fc3.
var ErrUnknownLayer = errors.New("unknown layer")

// Net is the 784→128→64→10 classifier.
//
// Forward and Predict are pure with respect to the parameters: the only way
// to change them is Reinit or the nn.Parameter setters.
type Net[B tensor.Backend] struct {
	fc1     *nn.Linear[B]
	fc2     *nn.Linear[B]
	fc3     *nn.Linear[B]
	relu    *nn.ReLU[B]
	softmax *nn.Softmax[B]
	layers  *nn.Sequential[B]
	backend B
}

// Option configures New.
type Option func(*options)

type options struct {
	rng *rand.Rand
}

// WithSeed makes the default initialization reproducible.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.rng = rand.New(initSource(seed))
	}
}

// New builds the network with the default initialization: Xavier/Glorot
// uniform weights and zero biases.
func New[B tensor.Backend](backend B, opts ...Option) *Net[B] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	linear := func(in, out int, name string) *nn.Linear[B] {
		lopts := []nn.LinearOption{nn.WithName(name)}
		if o.rng != nil {
			lopts = append(lopts, nn.WithRand(o.rng))
		}
		return nn.NewLinear(in, out, backend, lopts...)
	}

	n := &Net[B]{
		fc1:     linear(InputSize, Hidden1, FC1),
		fc2:     linear(Hidden1, Hidden2, FC2),
		fc3:     linear(Hidden2, NumClasses, FC3),
		relu:    nn.NewReLU[B](),
		softmax: nn.NewSoftmax[B](-1),
		backend: backend,
	}
	n.layers = nn.NewSequential[B](n.fc1, n.relu, n.fc2, n.relu, n.fc3)
	return n
}

// Forward maps a batch of images to unnormalized class scores.
//
// Accepted input shapes:
//   - [784]: a single flattened image, treated as a batch of one
//   - [N, 784]: a batch of flattened images
//   - [N, 28, 28] and [N, 1, 28, 28]: image batches, flattened here
//
// Returns logits with shape [N, 10]. Any other shape yields an error
// wrapping ErrInvalidInputShape.
func (n *Net[B]) Forward(input *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	x, err := flatten(input)
	if err != nil {
		return nil, err
	}
	return n.layers.Forward(x), nil
}

// Predict returns class probabilities: softmax(Forward(input)) over the
// class dimension. Every row is non-negative and sums to 1.
func (n *Net[B]) Predict(input *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	logits, err := n.Forward(input)
	if err != nil {
		return nil, err
	}
	return n.softmax.Forward(logits), nil
}

// Classify returns the most probable class for every sample in the batch.
func (n *Net[B]) Classify(input *tensor.Tensor[float32, B]) ([]int, error) {
	logits, err := n.Forward(input)
	if err != nil {
		return nil, err
	}
	idx := logits.Argmax(-1).Data()
	classes := make([]int, len(idx))
	for i, c := range idx {
		classes[i] = int(c)
	}
	return classes, nil
}

// Activations holds every intermediate buffer of one forward pass.
// PreActivations[i] is the affine output of layer i before ReLU.
type Activations[B tensor.Backend] struct {
	PreActivations []*tensor.Tensor[float32, B] // fc1, fc2, fc3 outputs
	Hidden         []*tensor.Tensor[float32, B] // ReLU outputs after fc1, fc2
	Logits         *tensor.Tensor[float32, B]
}

// Trace runs a forward pass and keeps the intermediate buffers.
func (n *Net[B]) Trace(input *tensor.Tensor[float32, B]) (*Activations[B], error) {
	x, err := flatten(input)
	if err != nil {
		return nil, err
	}

	// Sequential order: fc1, relu, fc2, relu, fc3.
	outs := n.layers.Trace(x)
	return &Activations[B]{
		PreActivations: []*tensor.Tensor[float32, B]{outs[0], outs[2], outs[4]},
		Hidden:         []*tensor.Tensor[float32, B]{outs[1], outs[3]},
		Logits:         outs[4],
	}, nil
}

// Layers returns the dense layers in forward order.
func (n *Net[B]) Layers() []*nn.Linear[B] {
	return []*nn.Linear[B]{n.fc1, n.fc2, n.fc3}
}

// Layer returns the dense layer with the given name.
func (n *Net[B]) Layer(name string) (*nn.Linear[B], error) {
	i, err := n.layerIndex(name)
	if err != nil {
		return nil, err
	}
	return n.Layers()[i], nil
}

func (n *Net[B]) layerIndex(name string) (int, error) {
	for i, l := range n.Layers() {
		if l.Name() == name {
			return i, nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownLayer, "%q (want %s, %s or %s)", name, FC1, FC2, FC3)
}

// Parameters returns the six parameters in layer order: weight, bias per layer.
func (n *Net[B]) Parameters() []*nn.Parameter[B] {
	return n.layers.Parameters()
}

// NumParameters returns the total number of scalar parameters.
func (n *Net[B]) NumParameters() int {
	total := 0
	for _, p := range n.Parameters() {
		total += p.Shape().NumElements()
	}
	return total
}

// Backend returns the compute backend the parameters live on.
func (n *Net[B]) Backend() B {
	return n.backend
}

func flatten[B tensor.Backend](input *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	shape := input.Shape()
	switch {
	case len(shape) == 1 && shape[0] == InputSize:
		return input.Reshape(1, InputSize), nil
	case len(shape) == 2 && shape[1] == InputSize:
		return input, nil
	case len(shape) == 3 && shape[1] == ImageRows && shape[2] == ImageCols:
		return input.Flatten(1), nil
	case len(shape) == 4 && shape[1] == 1 && shape[2] == ImageRows && shape[3] == ImageCols:
		return input.Flatten(1), nil
	default:
		return nil, errors.Wrapf(ErrInvalidInputShape, "got %v, want [%d], [N, %d], [N, %d, %d] or [N, 1, %d, %d]",
			shape, InputSize, InputSize, ImageRows, ImageCols, ImageRows, ImageCols)
	}
}
