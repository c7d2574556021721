package nn

// Tensor is a 4D activation tensor in NCHW layout (batch, channel, height,
// width), stored contiguously N-major. Data and Grad are two parallel buffers
// over the same shape, each independently addressable and mutable. The layer
// only borrows tensors for the duration of a call; the caller owns them.
type Tensor[S any] struct {
	Data  []S
	Grad  []S
	Shape [4]int // N, C, H, W
}

// NewTensor creates a zero-filled tensor with both data and gradient buffers.
func NewTensor[S any](n, c, h, w int) *Tensor[S] {
	count := n * c * h * w
	return &Tensor[S]{
		Data:  make([]S, count),
		Grad:  make([]S, count),
		Shape: [4]int{n, c, h, w},
	}
}

// NewTensorFromSlice wraps an existing data slice in a tensor of the given
// shape. Returns nil if the slice length does not match the shape.
func NewTensorFromSlice[S any](data []S, n, c, h, w int) *Tensor[S] {
	count := n * c * h * w
	if len(data) != count {
		return nil
	}
	return &Tensor[S]{
		Data:  data,
		Grad:  make([]S, count),
		Shape: [4]int{n, c, h, w},
	}
}

func (t *Tensor[S]) Num() int      { return t.Shape[0] }
func (t *Tensor[S]) Channels() int { return t.Shape[1] }
func (t *Tensor[S]) Height() int   { return t.Shape[2] }
func (t *Tensor[S]) Width() int    { return t.Shape[3] }

// Count returns the total number of elements in either buffer.
func (t *Tensor[S]) Count() int {
	return t.Shape[0] * t.Shape[1] * t.Shape[2] * t.Shape[3]
}

// Offset returns the flat index of element (n, c, y, x).
func (t *Tensor[S]) Offset(n, c, y, x int) int {
	return ((n*t.Shape[1]+c)*t.Shape[2]+y)*t.Shape[3] + x
}

// Clone returns a deep copy of the tensor, including the gradient buffer.
func (t *Tensor[S]) Clone() *Tensor[S] {
	out := &Tensor[S]{
		Data:  make([]S, len(t.Data)),
		Grad:  make([]S, len(t.Grad)),
		Shape: t.Shape,
	}
	copy(out.Data, t.Data)
	copy(out.Grad, t.Grad)
	return out
}

// ZeroGrad clears the gradient buffer.
func (t *Tensor[S]) ZeroGrad() {
	var zero S
	for i := range t.Grad {
		t.Grad[i] = zero
	}
}
