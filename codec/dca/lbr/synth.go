/*
NAME
  synth.go

DESCRIPTION
  synth.go implements LBR's per-channel long-window MDCT synthesis
  (spec §4.8 "Synthesis per channel"): the decoded per-subband
  coefficients of chunks.go are treated as one MDCT frequency-domain
  block, transformed by codec/dca/imdct's generic floating-point
  IMDCT-half, and overlap-added 50% against the previous frame's tail
  into a continuous PCM stream — the reference decoder's tonal
  addition, inverse LPC prediction for subbands < 3, and the hybrid
  32-short-block filter bank are not modeled (see package doc and
  DESIGN.md): this keeps the long-window IMDCT overlap-add stage, which
  is the part of §4.8 this repository's imdct/synth packages already
  have infrastructure for, and omits the LBR-specific residual/tonal
  stages that would need dca_lbr.c's literal correction-filter and
  cosine/sine tables (absent from the retrieval pack).

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package lbr

import (
	"github.com/ausocean/av/codec/dca/imdct"
)

// synthState is one channel's long-window overlap-add history.
type synthState struct {
	prevTail []float64 // second half of the previous frame's IMDCT output
}

// ensureSynthState (re)allocates per-channel synthesis history when the
// channel count changes, the way core.Decoder.ensureState reallocates
// subband state on a channel-count change.
func (s *State) ensureSynthState() {
	if len(s.synth) == s.NChannels {
		return
	}
	s.synth = make([]*synthState, s.NChannels)
	for i := range s.synth {
		s.synth[i] = &synthState{}
	}
}

// synthesizeChannel runs channel c's decoded subband coefficients
// through the long-window IMDCT and overlap-adds the result against
// the channel's synthesis history.
func synthesizeChannel(s *State, c int, cd *channelData) []float64 {
	winSize := 2 * s.NSubbands
	if winSize < 2 {
		winSize = 2
	}
	in := make([]float64, winSize)
	for i := 0; i < s.NSubbands && i < Subbands; i++ {
		in[2*i] = cd.samples[i]
	}

	out, err := (imdct.FloatContext{}).HalfN(in)
	if err != nil {
		// winSize guaranteed a power of two (2*(8<<limitedRange)); a
		// failure here indicates NSubbands was never initialized.
		return make([]float64, s.NSubbands)
	}

	st := s.synth[c]
	half := winSize / 2
	pcm := make([]float64, half)
	for i := 0; i < half; i++ {
		var prev float64
		if i < len(st.prevTail) {
			prev = st.prevTail[i]
		}
		pcm[i] = out[i] + prev
	}
	st.prevTail = append(st.prevTail[:0], out[half:]...)
	return pcm
}
