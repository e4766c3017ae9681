package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/feedforward/internal/parallel"
	"github.com/born-ml/feedforward/internal/tensor"
	"github.com/chewxy/math32"
)

// ReLU applies max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	result := cpu.newResult("relu", x.Shape(), x.DType())

	switch x.DType() {
	case tensor.Float32:
		src, dst := x.AsFloat32(), result.AsFloat32()
		parallel.ForRange(len(src), func(start, end int) {
			for i := start; i < end; i++ {
				dst[i] = math32.Max(src[i], 0)
			}
		}, cpu.par)
	case tensor.Float64:
		src, dst := x.AsFloat64(), result.AsFloat64()
		parallel.ForRange(len(src), func(start, end int) {
			for i := start; i < end; i++ {
				dst[i] = math.Max(src[i], 0)
			}
		}, cpu.par)
	default:
		panic(fmt.Sprintf("relu: unsupported dtype %s (only float32/float64 supported)", x.DType()))
	}

	return result
}

// Softmax computes exp(x_i) / sum_j exp(x_j) along dim.
//
// The maximum of each slice is subtracted before exponentiating, so large
// logits cannot overflow to +Inf and produce NaN probabilities. The result is
// mathematically identical to the unshifted formula.
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	dim, err := shape.NormalizeDim(dim)
	if err != nil {
		panic(fmt.Sprintf("softmax: %v", err))
	}

	result := cpu.newResult("softmax", shape, x.DType())
	outer, size, inner := splitAround(shape, dim)

	switch x.DType() {
	case tensor.Float32:
		src, dst := x.AsFloat32(), result.AsFloat32()
		parallel.ForRange(outer*inner, func(start, end int) {
			for row := start; row < end; row++ {
				softmaxSliceFloat32(dst, src, sliceBase(row, size, inner), size, inner)
			}
		}, cpu.par)
	case tensor.Float64:
		src, dst := x.AsFloat64(), result.AsFloat64()
		parallel.ForRange(outer*inner, func(start, end int) {
			for row := start; row < end; row++ {
				softmaxSliceFloat64(dst, src, sliceBase(row, size, inner), size, inner)
			}
		}, cpu.par)
	default:
		panic(fmt.Sprintf("softmax: unsupported dtype %s (only float32/float64 supported)", x.DType()))
	}

	return result
}

func softmaxSliceFloat32(dst, src []float32, base, size, stride int) {
	maxVal := float32(math32.Inf(-1))
	for j := 0; j < size; j++ {
		maxVal = math32.Max(maxVal, src[base+j*stride])
	}

	var sum float32
	for j := 0; j < size; j++ {
		idx := base + j*stride
		e := math32.Exp(src[idx] - maxVal)
		dst[idx] = e
		sum += e
	}

	for j := 0; j < size; j++ {
		dst[base+j*stride] /= sum
	}
}

func softmaxSliceFloat64(dst, src []float64, base, size, stride int) {
	maxVal := math.Inf(-1)
	for j := 0; j < size; j++ {
		maxVal = math.Max(maxVal, src[base+j*stride])
	}

	var sum float64
	for j := 0; j < size; j++ {
		idx := base + j*stride
		e := math.Exp(src[idx] - maxVal)
		dst[idx] = e
		sum += e
	}

	for j := 0; j < size; j++ {
		dst[base+j*stride] /= sum
	}
}

// splitAround factors shape into (product before dim, shape[dim], product after dim).
func splitAround(shape tensor.Shape, dim int) (outer, size, inner int) {
	outer, inner = 1, 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	return outer, shape[dim], inner
}

// sliceBase returns the flat offset of the first element of reduction slice row.
func sliceBase(row, size, inner int) int {
	o, i := row/inner, row%inner
	return o*size*inner + i
}
