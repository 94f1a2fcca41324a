/*
NAME
  highfreq.go

DESCRIPTION
  highfreq.go implements high-frequency VQ subband expansion (spec §4.5
  step 4 "VQ-encoded high-frequency subbands" and spec §6 "High-
  frequency VQ"): a 10-bit address selects a fixed 32-sample envelope
  vector, which is scaled by the subband's scale factor to produce that
  subband's samples for the whole subframe.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package core

import (
	"math"

	"github.com/ausocean/av/codec/dca/bits"
	"github.com/ausocean/av/codec/dca/fixed"
)

// HighFreqVQAddresses is the size of the high-frequency VQ codebook a
// 10-bit address selects into.
const HighFreqVQAddresses = 1024

// HighFreqVQVectorLen is the number of samples one VQ codebook entry
// expands to.
const HighFreqVQVectorLen = 32

// highFreqVQ lazily holds the codebook envelopes (see highFreqVQSample).
var highFreqVQ [HighFreqVQAddresses][HighFreqVQVectorLen]int8
var highFreqVQBuilt bool

// highFreqVQSample returns codebook entry idx's value at position n.
// The reference decoder ships this 1024x32 codebook as a literal table
// in dcadata.c (ff_dca_high_freq_vq), unavailable in the retrieved
// source pack (see DESIGN.md). It is regenerated here as a family of
// smoothly decaying envelope shapes parameterized by idx, matching the
// shape requirement (a bounded, position-dependent weighting vector
// used to re-synthesize a high subband's coarse spectral envelope from
// a single index) rather than reusing the original trained vectors.
func highFreqVQSample(idx, n int) int8 {
	if !highFreqVQBuilt {
		buildHighFreqVQ()
	}
	return highFreqVQ[idx&(HighFreqVQAddresses-1)][n&(HighFreqVQVectorLen-1)]
}

// HighFreqVQSample exports highFreqVQSample for extension parsers (X96)
// that index the same codebook directly, one vector entry at a time,
// rather than through DecodeHighFreqVQ's whole-subframe loop.
func HighFreqVQSample(idx, n int) int8 {
	return highFreqVQSample(idx, n)
}

func buildHighFreqVQ() {
	for idx := 0; idx < HighFreqVQAddresses; idx++ {
		// Split the address into a decay-rate selector and a phase
		// selector so neighboring indices trace out a continuum of
		// envelope shapes, as a trained codebook would.
		decaySel := idx & 0x1f
		phaseSel := (idx >> 5) & 0x1f
		decay := 0.85 + 0.14*float64(decaySel)/31.0
		phase := 2 * math.Pi * float64(phaseSel) / 32.0
		for n := 0; n < HighFreqVQVectorLen; n++ {
			env := math.Pow(decay, float64(n)) * math.Cos(phase+float64(n)*math.Pi/16.0)
			v := math.Round(env * 100)
			if v > 127 {
				v = 127
			}
			if v < -128 {
				v = -128
			}
			highFreqVQ[idx][n] = int8(v)
		}
	}
	highFreqVQBuilt = true
}

// DecodeHighFreqVQ reads one 10-bit VQ address per subband in
// [vqStart, nsubbands) and expands it into length samples of out[band]
// starting at AdpcmCoeffs+ofs (the history-prefixed layout every
// channel subband buffer shares, see ChannelSubbands), scaled by
// scale[band] (spec §4.5 step 4).
func DecodeHighFreqVQ(r *bits.Reader, out [][]int32, scale [][2]uint32, vqStart, nsubbands, ofs, length int) error {
	for band := vqStart; band < nsubbands; band++ {
		addr, err := r.ReadBits(10)
		if err != nil {
			return err
		}
		buf := out[band]
		for n := 0; n < length; n++ {
			raw := int32(highFreqVQSample(int(addr), n))
			buf[AdpcmCoeffs+ofs+n] = fixed.Clip23(fixed.Mul23(raw<<16, int32(scale[band][0])))
		}
	}
	return nil
}
