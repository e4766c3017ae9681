package tensor

// Backend defines the interface that compute backends implement.
// Backends own the actual computation; Tensor methods only dispatch.
//
// Kernels panic on programmer errors (incompatible shapes, unsupported
// dtypes). Callers that accept untrusted shapes validate them first.
// Kernels never modify their inputs and always return a fresh result.
type Backend interface {
	// Add is element-wise addition with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor

	// MatMulT multiplies a 2D tensor by the transpose of another:
	// (M, K) @ (N, K)ᵀ -> (M, N). This is the dense-layer product with the
	// weight kept in its [out, in] layout.
	MatMulT(a, b *RawTensor) *RawTensor

	// Reshape returns a view with a new shape.
	Reshape(t *RawTensor, newShape Shape) *RawTensor

	// Softmax normalizes exponentials along dim.
	Softmax(x *RawTensor, dim int) *RawTensor

	// Argmax reduces dim to the int32 index of its maximum.
	Argmax(x *RawTensor, dim int) *RawTensor

	// Metadata
	Name() string
	Device() Device
}
