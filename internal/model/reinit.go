package model

import (
	"github.com/born-ml/feedforward/internal/nn"
	"github.com/pkg/errors"
)

// ErrInvalidInit is returned for a non-positive standard deviation.
var ErrInvalidInit = errors.New("invalid initialization")

// Init describes an explicit overwrite of one layer: weights drawn from
// N(WeightMean, WeightStd²), every bias element set to Bias.
type Init struct {
	WeightMean float64
	WeightStd  float64
	Bias       float32
	Seed       uint64
}

// SmallNormal is the classic small-variance overwrite: weights ~ N(0, 0.01²)
// and zero bias.
func SmallNormal(seed uint64) Init {
	return Init{WeightMean: 0, WeightStd: 0.01, Bias: 0, Seed: seed}
}

// Reinit overwrites the named layer's parameters in place. Draws come from a
// stream of Init.Seed reserved for this layer's re-initialization, so they
// never repeat the default initialization of a net built WithSeed(Init.Seed).
func (n *Net[B]) Reinit(name string, init Init) error {
	if init.WeightStd <= 0 {
		return errors.Wrapf(ErrInvalidInit, "weight std must be > 0, got %g", init.WeightStd)
	}

	idx, err := n.layerIndex(name)
	if err != nil {
		return err
	}
	layer := n.Layers()[idx]

	src := reinitSource(init.Seed, idx)
	weights := nn.Normal(layer.Weight().Shape(), init.WeightMean, init.WeightStd, n.backend, src)
	if err := layer.Weight().CopyFrom(weights); err != nil {
		return errors.Wrapf(err, "reinit %s", name)
	}

	layer.Bias().Fill(init.Bias)
	return nil
}

// ZeroBiases sets every bias in the network to zero.
func (n *Net[B]) ZeroBiases() {
	for _, l := range n.Layers() {
		l.Bias().Fill(0)
	}
}
