/*
NAME
  reflect.go

DESCRIPTION
  reflect.go converts XLL's quantized reflection coefficients into
  direct-form linear-predictor coefficients (spec §4.9 "Reflection-to-
  direct-form transform"), the step-up recursion that is the inverse of
  Levinson-Durbin: each new reflection coefficient updates every
  existing direct-form coefficient by a term proportional to itself and
  the coefficient's mirror image. This is carried out with
  gonum.org/v1/gonum/mat's vector type rather than a plain Go slice, so
  the per-step update is expressed as the in-place vector operation it
  mathematically is, the way codec/dca's domain-stack commitment to
  gonum for this transform is exercised (see DESIGN.md).

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package xll

import (
	"gonum.org/v1/gonum/mat"
)

// reflCoeffToDirect converts order quantized reflection coefficients
// (signed 8-bit indices, dequantized to Q16 the way the reference
// decoder's lpc_refl_coeffs_q_ind table lookup does — approximated
// here as a direct signed-linear scaling since the literal
// dequantization table is one of dcadata.c's absent tables, see
// DESIGN.md) into order direct-form predictor coefficients, via the
// step-up recursion spec §4.9 specifies:
//
//	for i in 1..order {
//	    if i is odd:  c[i/2] += (c[i]*c[i/2] + 0x8000) >> 16
//	    for j in 0..i/2 {
//	        r0 = c[j]; r1 = c[i-j-1]
//	        c[j]     += (c[i]*r1 + 0x8000) >> 16
//	        c[i-j-1] += (c[i]*r0 + 0x8000) >> 16
//	    }
//	}
func reflCoeffToDirect(quant []uint8) []int32 {
	order := len(quant)
	if order == 0 {
		return nil
	}

	c := mat.NewVecDense(order, nil)
	for i, q := range quant {
		c.SetVec(i, float64(dequantizeRefl(q)))
	}

	for i := 1; i < order; i++ {
		ci := c.AtVec(i)
		if i%2 == 1 {
			half := i / 2
			c.SetVec(half, c.AtVec(half)+round16(ci*c.AtVec(half)))
		}
		for j := 0; j < i/2; j++ {
			r0 := c.AtVec(j)
			r1 := c.AtVec(i - j - 1)
			c.SetVec(j, r0+round16(ci*r1))
			c.SetVec(i-j-1, r1+round16(ci*r0))
		}
	}

	out := make([]int32, order)
	for i := 0; i < order; i++ {
		out[i] = int32(c.AtVec(i))
	}
	return out
}

// dequantizeRefl maps an 8-bit signed reflection-coefficient index to
// a Q16 fixed-point value in (-65536, 65536), approximating the
// reference decoder's lpc_refl_coeffs_q_ind lookup table (dcadata.c,
// absent from the retrieval pack) with a direct proportional scaling,
// the same non-bit-exact substitution pattern used for other missing
// literal tables in this module (see DESIGN.md).
func dequantizeRefl(q uint8) int32 {
	v := int32(int8(q))
	return v * (65536 / 128)
}

// round16 performs DCA's "(x + 0x8000) >> 16" rounding-shift, applied
// here in the floating-point domain gonum's mat.VecDense operates in.
func round16(x float64) float64 {
	return float64((int64(x) + 0x8000) >> 16)
}
