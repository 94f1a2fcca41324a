/*
NAME
  imdct.go

DESCRIPTION
  imdct.go implements the 32- and 64-point inverse MDCT "half" transforms
  that feed the polyphase synthesis filter (codec/dca/synth). DCA carries
  two independent implementations of the same transform, selected by
  whether the decoder runs its fixed or floating-point path (spec §4.4):

    - FixedContext precomputes a cosine-modulation table once and applies
      it as a direct O(n^2) sum, the way the reference decoder's hard-coded
      per-size tables do, with the magnitude-adaptive pre-shift that keeps
      the running sum inside the 32-bit fixed-point range.
    - FloatContext reduces the same transform to an (n/2)-point complex FFT
      via the standard pre/post-twiddle IMDCT-via-FFT reduction, built on
      top of github.com/mjibson/go-dsp/fft rather than hand-rolling a
      radix-2 butterfly network.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package imdct provides the 32- and 64-point inverse MDCT half-transforms
// used by the DCA core and X96 synthesis stages, in both fixed- and
// floating-point variants.
package imdct

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/mjibson/go-dsp/fft"
	"github.com/pkg/errors"

	"github.com/ausocean/av/codec/dca/fixed"
)

// cosTable holds a precomputed n x n cosine-modulation matrix for the
// direct-sum fixed-point IMDCT of size n, scaled to 23-bit fixed point.
type cosTable struct {
	n    int
	rows [][]int32 // rows[k][i], scaled by 1<<22
}

const cosScaleBits = 22

func buildCosTable(n int) *cosTable {
	t := &cosTable{n: n, rows: make([][]int32, n)}
	for k := 0; k < n; k++ {
		row := make([]int32, n)
		for i := 0; i < n; i++ {
			angle := math.Pi / float64(2*n) * float64(2*i+1+n/2) * float64(2*k+1)
			row[i] = int32(math.Round(math.Cos(angle) * float64(int64(1)<<cosScaleBits)))
		}
		t.rows[k] = row
	}
	return t
}

var (
	cos32     *cosTable
	cos64     *cosTable
	cosInit32 sync.Once
	cosInit64 sync.Once
)

func table32() *cosTable {
	cosInit32.Do(func() { cos32 = buildCosTable(32) })
	return cos32
}

func table64() *cosTable {
	cosInit64.Do(func() { cos64 = buildCosTable(64) })
	return cos64
}

// FixedContext is the fixed-point IMDCT-half implementation.
type FixedContext struct{}

// Half32 computes the 32-point fixed-point IMDCT half transform described
// in spec §4.4: inputs are pre-shifted by 2 bits (rounded) when their sum
// of magnitudes exceeds 2^22, and outputs are saturated via fixed.Clip23.
func (FixedContext) Half32(out, in [32]int32) [32]int32 {
	return halfFixed(table32(), in[:], 32)
}

// Half64 computes the 64-point fixed-point IMDCT half transform.
func (FixedContext) Half64(in [64]int32) [64]int32 {
	var out [64]int32
	copy(out[:], halfFixed(table64(), in[:], 64))
	return out
}

func halfFixed(t *cosTable, in []int32, n int) []int32 {
	var sum int64
	for _, v := range in {
		if v < 0 {
			sum -= int64(v)
		} else {
			sum += int64(v)
		}
	}

	shifted := in
	preShift := uint(0)
	if sum > 1<<22 {
		preShift = 2
		tmp := make([]int32, n)
		for i, v := range in {
			tmp[i] = fixed.NormK(int64(v), preShift)
		}
		shifted = tmp
	}

	out := make([]int32, n)
	for k := 0; k < n; k++ {
		var acc int64
		row := t.rows[k]
		for i := 0; i < n; i++ {
			acc += int64(shifted[i]) * int64(row[i])
		}
		v := fixed.NormK(acc, cosScaleBits)
		if preShift > 0 {
			v = v << preShift
		}
		out[k] = fixed.Clip23(v)
	}
	return out
}

// FloatContext is the floating-point IMDCT-half implementation, built on
// an (n/2)-point complex FFT.
type FloatContext struct{}

// Half32 computes the 32-point floating-point IMDCT half transform.
func (FloatContext) Half32(in [32]float64) ([32]float64, error) {
	out, err := halfFloat(in[:], 32)
	if err != nil {
		return [32]float64{}, err
	}
	var r [32]float64
	copy(r[:], out)
	return r, nil
}

// Half64 computes the 64-point floating-point IMDCT half transform.
func (FloatContext) Half64(in [64]float64) ([64]float64, error) {
	out, err := halfFloat(in[:], 64)
	if err != nil {
		return [64]float64{}, err
	}
	var r [64]float64
	copy(r[:], out)
	return r, nil
}

// HalfN computes the floating-point IMDCT half transform for an
// arbitrary power-of-two size, generalizing Half32/Half64 for callers
// whose window size varies with stream parameters (codec/dca/lbr's
// long-window synthesis, spec §4.8, sizes its window by the LBR
// frequency range rather than a fixed 32/64).
func (FloatContext) HalfN(in []float64) ([]float64, error) {
	return halfFloat(in, len(in))
}

// halfFloat implements the IMDCT-half-via-FFT reduction: pre-rotate n real
// inputs into an n/2 complex sequence, run it through a complex FFT, then
// post-rotate the n/2 complex outputs back into n real samples.
func halfFloat(in []float64, n int) ([]float64, error) {
	if n <= 0 || n&(n-1) != 0 {
		return nil, errors.Errorf("imdct: size %d is not a power of two", n)
	}
	half := n / 2
	z := make([]complex128, half)
	for k := 0; k < half; k++ {
		re := in[2*k]
		im := in[n-1-2*k]
		angle := -2 * math.Pi * (float64(k) + 0.125) / float64(n)
		tw := cmplx.Rect(1, angle)
		z[k] = complex(re, im) * tw
	}

	Z := fft.FFT(z)

	out := make([]float64, n)
	for k := 0; k < half; k++ {
		angle := -2 * math.Pi * (float64(k) + 0.125) / float64(n)
		tw := cmplx.Rect(1, angle)
		v := Z[k] * tw
		out[2*k] = -real(v)
		out[n-1-2*k] = imag(v)
	}
	return out, nil
}
