package cpu

import (
	"fmt"

	"github.com/born-ml/feedforward/internal/tensor"
)

// Argmax returns the int32 index of the maximum element along dim.
// Ties resolve to the lowest index. The reduced dimension is removed.
func (cpu *CPUBackend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	dim, err := shape.NormalizeDim(dim)
	if err != nil {
		panic(fmt.Sprintf("argmax: %v", err))
	}

	result := cpu.newResult("argmax", reducedShape(shape, dim), tensor.Int32)
	outer, size, inner := splitAround(shape, dim)

	switch x.DType() {
	case tensor.Float32:
		argmax(result.AsInt32(), x.AsFloat32(), outer, size, inner)
	case tensor.Float64:
		argmax(result.AsInt32(), x.AsFloat64(), outer, size, inner)
	default:
		panic(fmt.Sprintf("argmax: unsupported dtype %s", x.DType()))
	}

	return result
}

func argmax[T float](dst []int32, src []T, outer, size, inner int) {
	for row := 0; row < outer*inner; row++ {
		base := sliceBase(row, size, inner)
		best := 0
		for j := 1; j < size; j++ {
			if src[base+j*inner] > src[base+best*inner] {
				best = j
			}
		}
		dst[row] = int32(best)
	}
}

// reducedShape drops dimension dim. Reducing a 1D tensor yields a scalar
// shape.
func reducedShape(shape tensor.Shape, dim int) tensor.Shape {
	out := make(tensor.Shape, 0, len(shape)-1)
	for i, d := range shape {
		if i != dim {
			out = append(out, d)
		}
	}
	return out
}
