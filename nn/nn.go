// Package nn implements cross-channel Local Response Normalization (LRN)
// with both CPU and GPU execution, over pluggable numeric precision.
//
// LRN rescales each activation by the energy of its channel neighborhood:
//
//	scale[n,c,y,x] = k + alpha/size * sum over window(c) of in[n,c',y,x]^2
//	out[n,c,y,x]   = in[n,c,y,x] * scale[n,c,y,x]^-beta
//
// The windowed kernels use an O(C) sliding accumulator per spatial column,
// launched as independent tasks (one per (n, y, x) location) through a
// pluggable Runner. Elements may be stored in reduced precision (Float16,
// BFloat16) while all arithmetic runs in a wider accumulation type; the
// Numerics pairing makes every widen/narrow explicit.
//
// Example usage:
//
//	layer, err := nn.NewLayer[float32, float32, nn.F32](nn.LRNConfig{
//		Size: 5, Alpha: 1e-4, Beta: 0.75, K: 2,
//	})
//
//	bottom := nn.NewTensor[float32](n, c, h, w)
//	top := nn.NewTensor[float32](n, c, h, w)
//
//	layer.Forward(bottom, top)
//
//	// Backward reads top.Grad and writes bottom.Grad
//	layer.Backward(bottom, top)
//
// The GPU execution path lives in the sibling gpu package.
package nn
