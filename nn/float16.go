package nn

import "math"

// Float16 holds the raw bits of an IEEE 754 binary16 value.
type Float16 uint16

// BFloat16 holds the raw bits of a bfloat16 value (the top 16 bits of a
// float32).
type BFloat16 uint16

// float16ToFloat32 converts a float16 (half precision) to float32.
func float16ToFloat32(f16 uint16) float32 {
	sign := uint32((f16 >> 15) & 0x1)
	exponent := uint32((f16 >> 10) & 0x1F)
	mantissa := uint32(f16 & 0x3FF)

	var f32bits uint32
	if exponent == 0 {
		if mantissa == 0 {
			// Zero
			f32bits = sign << 31
		} else {
			// Subnormal
			exponent = 1
			for (mantissa & 0x400) == 0 {
				mantissa <<= 1
				exponent--
			}
			mantissa &= 0x3FF
			f32bits = (sign << 31) | ((exponent + (127 - 15)) << 23) | (mantissa << 13)
		}
	} else if exponent == 0x1F {
		// Inf or NaN
		f32bits = (sign << 31) | (0xFF << 23) | (mantissa << 13)
	} else {
		// Normal
		f32bits = (sign << 31) | ((exponent + (127 - 15)) << 23) | (mantissa << 13)
	}

	return math.Float32frombits(f32bits)
}

// float32ToFloat16 converts a float32 to float16 bits, rounding to nearest
// even and saturating overflow to Inf.
func float32ToFloat16(f32 float32) uint16 {
	bits := math.Float32bits(f32)
	sign := uint16((bits >> 16) & 0x8000)
	exponent := int32((bits>>23)&0xFF) - 127 + 15
	mantissa := bits & 0x7FFFFF

	if (bits>>23)&0xFF == 0xFF {
		// Inf or NaN
		if mantissa != 0 {
			return sign | 0x7E00
		}
		return sign | 0x7C00
	}
	if exponent >= 0x1F {
		// Overflow
		return sign | 0x7C00
	}
	if exponent <= 0 {
		if exponent < -10 {
			// Underflow to signed zero
			return sign
		}
		// Subnormal: shift the implicit leading bit into range
		mantissa |= 0x800000
		shift := uint32(14 - exponent)
		half := uint16(mantissa >> shift)
		rem := mantissa & ((1 << shift) - 1)
		midpoint := uint32(1) << (shift - 1)
		if rem > midpoint || (rem == midpoint && half&1 == 1) {
			half++
		}
		return sign | half
	}

	out := sign | uint16(exponent)<<10 | uint16(mantissa>>13)
	rem := mantissa & 0x1FFF
	// Round to nearest even; a carry here correctly rolls into the exponent
	if rem > 0x1000 || (rem == 0x1000 && out&1 == 1) {
		out++
	}
	return out
}

// bfloat16ToFloat32 converts a bfloat16 to float32.
func bfloat16ToFloat32(bf16 uint16) float32 {
	// bfloat16 is just the top 16 bits of float32
	return math.Float32frombits(uint32(bf16) << 16)
}

// float32ToBFloat16 converts a float32 to bfloat16 bits, rounding to nearest
// even.
func float32ToBFloat16(f32 float32) uint16 {
	bits := math.Float32bits(f32)
	if bits&0x7FFFFFFF > 0x7F800000 {
		// NaN: keep it quiet after truncation
		return uint16(bits>>16) | 0x0040
	}
	rounding := uint32(0x7FFF + ((bits >> 16) & 1))
	return uint16((bits + rounding) >> 16)
}
