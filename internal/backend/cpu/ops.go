package cpu

import (
	"fmt"

	"github.com/born-ml/feedforward/internal/tensor"
)

type float interface {
	~float32 | ~float64
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("add: dtype mismatch %s vs %s", a.DType(), b.DType()))
	}

	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("add: %v", err))
	}

	result := cpu.newResult("add", outShape, a.DType())

	switch a.DType() {
	case tensor.Float32:
		addBroadcast(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), a.Shape(), b.Shape(), outShape, needsBroadcast)
	case tensor.Float64:
		addBroadcast(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), a.Shape(), b.Shape(), outShape, needsBroadcast)
	default:
		panic(fmt.Sprintf("add: unsupported dtype %s", a.DType()))
	}

	return result
}

func addBroadcast[T float](dst, a, b []T, aShape, bShape, outShape tensor.Shape, needsBroadcast bool) {
	// Fast path: identical shapes, walk all three slices in lockstep.
	if !needsBroadcast {
		for i := range dst {
			dst[i] = a[i] + b[i]
		}
		return
	}

	aStrides := tensor.BroadcastStrides(aShape, outShape)
	bStrides := tensor.BroadcastStrides(bShape, outShape)
	ndim := len(outShape)
	index := make([]int, ndim)
	aOff, bOff := 0, 0

	for i := range dst {
		dst[i] = a[aOff] + b[bOff]

		// Odometer increment over the output index.
		for d := ndim - 1; d >= 0; d-- {
			index[d]++
			aOff += aStrides[d]
			bOff += bStrides[d]
			if index[d] < outShape[d] {
				break
			}
			aOff -= aStrides[d] * index[d]
			bOff -= bStrides[d] * index[d]
			index[d] = 0
		}
	}
}
