package nn

import "math"

// =============================================================================
// Cross-Channel LRN Kernels
// =============================================================================
// The windowed kernels walk the channel axis once per spatial column with a
// running accumulator (add on entry, subtract on exit), so each column costs
// O(C) instead of O(C*size). Columns share no state and run as independent
// tasks. Boundary windows are truncated, not zero-padded: fewer terms, with
// alpha/size applied uniformly regardless of window occupancy.

// ScaleFill computes the per-channel normalization scale
//
//	scale[n,c,y,x] = k + alphaOverSize * sum of in[n,c',y,x]^2
//
// over the window c' in [c-prePad, c+postPad] clamped to [0, C), with the
// forward split prePad = (size-1)/2. Squares and the running sum stay in the
// accumulation type; scale narrows to storage on write.
func ScaleFill[S any, A Accum, P Numerics[S, A]](p P, run Runner, in, scale *Tensor[S], size int, alphaOverSize, k A) {
	num, channels, height, width := in.Num(), in.Channels(), in.Height(), in.Width()
	step := height * width
	prePad := (size - 1) / 2
	postPad := size - prePad - 1

	run(num*height*width, func(task int) {
		n, y, x := taskPos(task, height, width)
		offset := (n*channels*height+y)*width + x

		head := 0
		var accum A
		// Fill the trailing half of the first window
		for head < postPad && head < channels {
			v := p.Widen(in.Data[offset+head*step])
			accum += v * v
			head++
		}
		// Add the entering channel, drop the leaving one, emit
		for head < channels {
			v := p.Widen(in.Data[offset+head*step])
			accum += v * v
			if head-size >= 0 {
				u := p.Widen(in.Data[offset+(head-size)*step])
				accum -= u * u
			}
			if head-postPad >= 0 {
				scale.Data[offset+(head-postPad)*step] = p.Narrow(k + accum*alphaOverSize)
			}
			head++
		}
		// Drain: subtract only, emit the remaining outputs
		for head < channels+postPad {
			if head-size >= 0 {
				u := p.Widen(in.Data[offset+(head-size)*step])
				accum -= u * u
			}
			if head-postPad >= 0 {
				scale.Data[offset+(head-postPad)*step] = p.Narrow(k + accum*alphaOverSize)
			}
			head++
		}
	})
}

// OutputCompute applies out[i] = in[i] * scale[i]^(-beta) elementwise, one
// task per element.
func OutputCompute[S any, A Accum, P Numerics[S, A]](p P, run Runner, in, scale, out *Tensor[S], beta A) {
	negBeta := -float64(beta)
	run(in.Count(), func(i int) {
		s := math.Pow(float64(p.Widen(scale.Data[i])), negBeta)
		out.Data[i] = p.Narrow(p.Widen(in.Data[i]) * A(s))
	})
}

// DiffCompute computes the backward pass, reading the upstream gradient from
// top.Grad and writing the input gradient to bottom.Grad:
//
//	bottomDiff[c] = topDiff[c] * scale[c]^(-beta)
//	              - cacheRatio * bottom[c] * sum of topDiff[c']*top[c']/scale[c']
//
// with cacheRatio = 2*alpha*beta/size and the window summed over
// c' in [c-prePad, c+postPad] clamped to [0, C). The backward split is
// prePad = size - (size+1)/2, which differs from the forward split by one
// channel for even sizes. Both formulas are deliberate; do not unify them.
func DiffCompute[S any, A Accum, P Numerics[S, A]](p P, run Runner, bottom, top, scale *Tensor[S], size int, alpha, beta A) {
	num, channels, height, width := bottom.Num(), bottom.Channels(), bottom.Height(), bottom.Width()
	step := height * width
	prePad := size - (size+1)/2
	postPad := size - prePad - 1
	negBeta := -float64(beta)
	cacheRatio := 2 * alpha * beta / A(size)

	run(num*height*width, func(task int) {
		n, y, x := taskPos(task, height, width)
		offset := (n*channels*height+y)*width + x

		ratio := func(c int) A {
			i := offset + c*step
			return p.Widen(top.Grad[i]) * p.Widen(top.Data[i]) / p.Widen(scale.Data[i])
		}

		head := 0
		var accum A
		for head < postPad && head < channels {
			accum += ratio(head)
			head++
		}
		for head < channels {
			accum += ratio(head)
			if head-size >= 0 {
				accum -= ratio(head - size)
			}
			if head-postPad >= 0 {
				i := offset + (head-postPad)*step
				direct := p.Widen(top.Grad[i]) * A(math.Pow(float64(p.Widen(scale.Data[i])), negBeta))
				bottom.Grad[i] = p.Narrow(direct - cacheRatio*p.Widen(bottom.Data[i])*accum)
			}
			head++
		}
		for head < channels+postPad {
			if head-size >= 0 {
				accum -= ratio(head - size)
			}
			if head-postPad >= 0 {
				i := offset + (head-postPad)*step
				direct := p.Widen(top.Grad[i]) * A(math.Pow(float64(p.Widen(scale.Data[i])), negBeta))
				bottom.Grad[i] = p.Narrow(direct - cacheRatio*p.Widen(bottom.Data[i])*accum)
			}
			head++
		}
	})
}
