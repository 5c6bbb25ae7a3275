// Package f16 implements IEEE-754 binary16 (float16) encoding/decoding.
//
// This package is internal: it exists so float vectors can be stored at
// reduced precision in container files while execution stays in float64.
package f16

import "math"

// Bits is the raw IEEE-754 binary16 bit-pattern.
//
// Layout:
//
//	sign: 1 bit
//	exp:  5 bits (bias 15)
//	frac: 10 bits
type Bits uint16

const (
	signMask Bits = 0x8000
	expMask  Bits = 0x7C00
	fracMask Bits = 0x03FF

	f32ExpMask  uint32 = 0x7F800000
	f32FracMask uint32 = 0x007FFFFF
)

// Float64 converts a binary16 bit-pattern to float64.
func (h Bits) Float64() float64 {
	sign := uint32(h&signMask) << 16
	exp := uint32(h&expMask) >> 10
	frac := uint32(h & fracMask)

	var f32 uint32
	switch exp {
	case 0:
		if frac == 0 {
			f32 = sign
			break
		}
		// Subnormal: normalize the fraction. Half subnormals have an
		// exponent of -14 and no implicit leading 1.
		e := int32(-14)
		m := frac
		for (m & 0x0400) == 0 {
			m <<= 1
			e--
		}
		m &= 0x03FF // strip leading 1
		f32 = sign | uint32(int32(127)+e)<<23 | m<<13
	case 0x1F:
		// Inf/NaN
		f32 = sign | f32ExpMask | (frac << 13)
	default:
		f32 = sign | uint32(int32(exp)-15+127)<<23 | frac<<13
	}
	return float64(math.Float32frombits(f32))
}

// FromFloat64 converts a float64 value into a binary16 bit-pattern.
//
// The value is first narrowed to float32, then rounded to binary16 with
// round-to-nearest, ties-to-even.
func FromFloat64(f float64) Bits {
	bits := math.Float32bits(float32(f))
	sign := Bits((bits >> 16) & uint32(signMask))
	exp := int32((bits & f32ExpMask) >> 23)
	frac := bits & f32FracMask

	// NaN / Inf
	if exp == 0xFF {
		if frac == 0 {
			return sign | expMask // infinity
		}
		// Preserve some payload; ensure it's a quiet NaN and non-zero.
		payload := Bits(frac >> 13)
		if payload == 0 {
			payload = 1
		}
		payload |= 0x0200
		return sign | expMask | (payload & fracMask)
	}

	// Zero (and float32 subnormals underflow to zero for binary16 in practice)
	if exp == 0 {
		return sign
	}

	// Re-bias exponent from float32 (127) to float16 (15).
	e16 := exp - 127 + 15

	// Overflow -> Inf
	if e16 >= 0x1F {
		return sign | expMask
	}

	// Underflow -> subnormal/zero
	if e16 <= 0 {
		// Too small even for subnormal.
		if e16 < -10 {
			return sign
		}
		// Make the implicit leading 1 explicit.
		mant := frac | 0x00800000
		// Shift so that we end up with a 10-bit mantissa.
		shift := uint32(1-e16) + 13
		m := mant >> shift
		remainder := mant & ((uint32(1) << shift) - 1)
		half := uint32(1) << (shift - 1)
		if remainder > half || (remainder == half && (m&1) == 1) {
			m++
		}
		return sign | Bits(m)
	}

	// Normal case: convert fraction (23 bits) -> (10 bits) with rounding.
	m := frac >> 13
	remainder := frac & 0x1FFF
	if remainder > 0x1000 || (remainder == 0x1000 && (m&1) == 1) {
		m++
		if m == 0x0400 {
			// Mantissa overflow; carry into exponent.
			m = 0
			e16++
			if e16 >= 0x1F {
				return sign | expMask
			}
		}
	}

	return sign | Bits(uint32(e16)<<10) | Bits(m)
}

// Encode converts a float64 slice into binary16 bit-patterns.
func Encode(src []float64) []Bits {
	dst := make([]Bits, len(src))
	for i, f := range src {
		dst[i] = FromFloat64(f)
	}
	return dst
}

// Decode converts binary16 bit-patterns back into float64.
func Decode(src []Bits) []float64 {
	dst := make([]float64, len(src))
	for i, h := range src {
		dst[i] = h.Float64()
	}
	return dst
}
