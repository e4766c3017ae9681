package tensor

import "fmt"

// Add performs element-wise addition with broadcasting.
//
// Example:
//
//	a := tensor.Zeros[float32](Shape{3, 5}, backend)
//	b := tensor.Zeros[float32](Shape{1, 5}, backend)
//	c := a.Add(b) // Shape: [3, 5] (broadcasted)
func (t *Tensor[T, B]) Add(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Add(t.raw, other.raw), t.backend)
}

// MatMulT multiplies t by the transpose of other: (M, K) @ (N, K)ᵀ → (M, N).
// The transpose is never materialized.
//
// Example:
//
//	x := tensor.Zeros[float32](Shape{64, 784}, backend)
//	w := tensor.Zeros[float32](Shape{128, 784}, backend)
//	y := x.MatMulT(w) // Shape: [64, 128]
func (t *Tensor[T, B]) MatMulT(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.MatMulT(t.raw, other.raw), t.backend)
}

// Reshape returns a tensor with the same data but different shape.
// The new shape must have the same number of elements.
func (t *Tensor[T, B]) Reshape(newShape ...int) *Tensor[T, B] {
	return New[T, B](t.backend.Reshape(t.raw, Shape(newShape)), t.backend)
}

// Flatten collapses every dimension from startDim onwards into one.
//
//	x: [64, 1, 28, 28]
//	x.Flatten(1): [64, 784]
func (t *Tensor[T, B]) Flatten(startDim int) *Tensor[T, B] {
	shape := t.Shape()
	if startDim < 0 || startDim >= len(shape) {
		panic(fmt.Sprintf("flatten: start dim %d out of range for shape %v", startDim, shape))
	}
	newShape := make([]int, 0, startDim+1)
	newShape = append(newShape, shape[:startDim]...)
	newShape = append(newShape, Shape(shape[startDim:]).NumElements())
	return t.Reshape(newShape...)
}

// Softmax normalizes the tensor into probabilities along dim.
// Negative dims count from the end.
func (t *Tensor[T, B]) Softmax(dim int) *Tensor[T, B] {
	return New[T, B](t.backend.Softmax(t.raw, dim), t.backend)
}

// Argmax returns the index of the maximum value along dim.
func (t *Tensor[T, B]) Argmax(dim int) *Tensor[int32, B] {
	return New[int32, B](t.backend.Argmax(t.raw, dim), t.backend)
}
