package cpu

import (
	"fmt"

	"github.com/born-ml/feedforward/internal/tensor"
)

// Reshape returns a view of t with a new shape. No data is copied.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	view, err := t.View(newShape)
	if err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	return view
}
