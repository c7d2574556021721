package nn

// Accum is the set of types usable for intermediate arithmetic. Every kernel
// accumulates in one of these regardless of how elements are stored.
type Accum interface {
	~float32 | ~float64
}

// Numerics couples a storage type S with the accumulation type A used for all
// arithmetic on its elements. Widen runs at every element read and Narrow at
// every element write, so a reduced-precision storage type never participates
// in a running sum directly.
type Numerics[S any, A Accum] interface {
	Widen(S) A
	Narrow(A) S
}

// F32 stores and accumulates in float32.
type F32 struct{}

func (F32) Widen(v float32) float32  { return v }
func (F32) Narrow(v float32) float32 { return v }

// F64 stores and accumulates in float64.
type F64 struct{}

func (F64) Widen(v float64) float64  { return v }
func (F64) Narrow(v float64) float64 { return v }

// F16 stores IEEE 754 binary16 and accumulates in float32.
type F16 struct{}

func (F16) Widen(v Float16) float32  { return float16ToFloat32(uint16(v)) }
func (F16) Narrow(v float32) Float16 { return Float16(float32ToFloat16(v)) }

// BF16 stores bfloat16 and accumulates in float32.
type BF16 struct{}

func (BF16) Widen(v BFloat16) float32  { return bfloat16ToFloat32(uint16(v)) }
func (BF16) Narrow(v float32) BFloat16 { return BFloat16(float32ToBFloat16(v)) }

// WidenSlice converts a storage slice to its accumulation type.
func WidenSlice[S any, A Accum, P Numerics[S, A]](p P, src []S) []A {
	out := make([]A, len(src))
	for i, v := range src {
		out[i] = p.Widen(v)
	}
	return out
}

// NarrowSlice converts an accumulation slice to its storage type.
func NarrowSlice[S any, A Accum, P Numerics[S, A]](p P, src []A) []S {
	out := make([]S, len(src))
	for i, v := range src {
		out[i] = p.Narrow(v)
	}
	return out
}
