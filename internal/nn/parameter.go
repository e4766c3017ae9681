package nn

import (
	"github.com/born-ml/feedforward/internal/tensor"
	"github.com/pkg/errors"
)

// ErrParameterShape is returned when new values do not match a parameter's shape.
var ErrParameterShape = errors.New("parameter shape mismatch")

// Parameter is a named weight or bias tensor owned by a module.
//
// The tensor is only written through Copy and Fill, never by Forward.
type Parameter[B tensor.Backend] struct {
	name   string                     // Parameter name (e.g., "fc1.weight")
	tensor *tensor.Tensor[float32, B] // The parameter tensor
}

// NewParameter wraps an initialized tensor as a parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// Shape returns the parameter's shape.
func (p *Parameter[B]) Shape() tensor.Shape {
	return p.tensor.Shape()
}

// Values returns a copy of the parameter's values in row-major order.
func (p *Parameter[B]) Values() []float32 {
	values := make([]float32, p.tensor.NumElements())
	copy(values, p.tensor.Data())
	return values
}

// Copy overwrites the parameter with values, which must hold exactly one
// value per element.
func (p *Parameter[B]) Copy(values []float32) error {
	if len(values) != p.tensor.NumElements() {
		return errors.Wrapf(ErrParameterShape, "%s: got %d values for shape %v", p.name, len(values), p.Shape())
	}
	copy(p.tensor.Data(), values)
	return nil
}

// CopyFrom overwrites the parameter with the contents of t, which must have
// the same shape.
func (p *Parameter[B]) CopyFrom(t *tensor.Tensor[float32, B]) error {
	if !t.Shape().Equal(p.Shape()) {
		return errors.Wrapf(ErrParameterShape, "%s: expected %v, got %v", p.name, p.Shape(), t.Shape())
	}
	copy(p.tensor.Data(), t.Data())
	return nil
}

// Fill sets every element of the parameter to value.
func (p *Parameter[B]) Fill(value float32) {
	data := p.tensor.Data()
	for i := range data {
		data[i] = value
	}
}
