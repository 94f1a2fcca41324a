/*
NAME
  frame.go

DESCRIPTION
  frame.go is the core substream's frame-level driver: it sequences
  frame header, coding header, and per-subframe side-information/audio
  parsing (spec §4.5), then feeds the decoded subband samples through
  the polyphase synthesis filter bank and LFE interpolator to produce
  PCM (spec §4.4, §4.5 step 7 "Synthesis").

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
	"github.com/ausocean/av/codec/dca/bits"
	"github.com/ausocean/av/codec/dca/synth"
)

// SynthBands is the core substream's subband count (spec §4.4: a
// 512-tap, 32-band polyphase synthesis filter).
const SynthBands = 32

// Frame is one decoded core access unit: PCM[c] holds NPCMBlocks*32
// samples for primary channel c, and LFE holds the interpolated LFE
// channel's samples (nil when the frame carries no LFE channel).
type Frame struct {
	Header *FrameHeader
	Coding *CodingHeader
	PCM    [][]int32
	LFE    []int32
}

// Decoder holds the per-channel state (subband sample history, ADPCM
// history, synthesis filter history) that must persist across frames,
// matching the reference decoder's DCACoreDecoder lifetime (spec §3
// "SynthesisHistory ... created at decoder init, zeroed on flush or
// when predictor-history is disabled").
type Decoder struct {
	subbands []*ChannelSubbands
	filters  []*synth.FixedFilter
	lfe      []int32
	lfeHist  [LFEHistory]int32
}

// NewDecoder returns a Decoder with no allocated per-channel state; the
// state is (re)allocated on the first call to DecodeAccessUnit, or
// whenever the channel count or block count changes between frames.
func NewDecoder() *Decoder {
	return &Decoder{}
}

func (d *Decoder) ensureState(ch *CodingHeader, npcmblocks int) {
	if len(d.subbands) == ch.NChannels && len(d.subbands) > 0 && len(d.subbands[0].Samples[0]) == AdpcmCoeffs+npcmblocks {
		return
	}
	d.subbands = make([]*ChannelSubbands, ch.NChannels)
	d.filters = make([]*synth.FixedFilter, ch.NChannels)
	for c := range d.subbands {
		d.subbands[c] = NewChannelSubbands(npcmblocks)
		d.filters[c] = synth.NewFixedFilter(SynthBands)
	}
	d.lfe = make([]int32, LFEHistory+npcmblocks/2)
}

// DecodeAccessUnit parses and fully reconstructs one core access unit
// starting at r's current position, which must be positioned at the
// frame's sync word.
func (d *Decoder) DecodeAccessUnit(r *bits.Reader) (*Frame, error) {
	h, err := ParseFrameHeader(r)
	if err != nil {
		return nil, err
	}

	ch := &CodingHeader{}
	if err := ParseCodingHeader(r, ch, h, 0, false); err != nil {
		return nil, err
	}

	d.ensureState(ch, h.NPCMBlocks)
	if !h.PredictorHistory {
		for _, cs := range d.subbands {
			cs.EraseHistory()
		}
		for i := range d.lfeHist {
			d.lfeHist[i] = 0
		}
	}

	subPos, lfePos := 0, 0
	for sf := 0; sf < ch.NSubframes; sf++ {
		si := &SubframeSideInfo{}
		if err := ParseSubframeHeader(r, si, ch, h, true, 0); err != nil {
			return nil, err
		}
		if err := ParseSubframeAudio(r, d.subbands, d.lfe, si, ch, h, true, false, 0, &subPos, &lfePos); err != nil {
			return nil, err
		}
	}

	frame := &Frame{Header: h, Coding: ch}
	frame.PCM = make([][]int32, ch.NChannels)
	for c := 0; c < ch.NChannels; c++ {
		frame.PCM[c] = d.synthesizeChannel(c, ch.NSubbands[c], h.NPCMBlocks)
	}
	if h.LFE.Valid() && h.LFE != LFENone {
		frame.LFE = d.interpolateLFE(h, lfePos)
	}

	return frame, nil
}

// synthesizeChannel runs the polyphase synthesis filter bank over
// channel c's decoded subband samples, one 32-sample subband vector at
// a time, producing npcmblocks*SynthBands PCM samples (spec §4.4
// synth_filter).
func (d *Decoder) synthesizeChannel(c, nsubbands, npcmblocks int) []int32 {
	cs := d.subbands[c]
	filter := d.filters[c]
	pcm := make([]int32, npcmblocks*SynthBands)
	in := make([]int32, SynthBands)
	out := make([]int32, SynthBands)
	for j := 0; j < npcmblocks; j++ {
		for band := 0; band < SynthBands; band++ {
			if band < nsubbands {
				in[band] = cs.Samples[band][AdpcmCoeffs+j]
			} else {
				in[band] = 0
			}
		}
		filter.Apply(out, in)
		copy(pcm[j*SynthBands:], out)
	}
	return pcm
}

// interpolateLFE upsamples the decoded LFE samples (decimated by 64 or
// 128 relative to the primary channels) to the primary sample rate
// (spec §4.5 step 7 "interpolate LFE via a 64- or 128-tap FIR"). The
// reference decoder's literal FIR coefficient tables
// (ff_dca_lfe_fir_64/128) live in dcadata.c, unavailable in the
// retrieved source pack (see DESIGN.md); this substitutes a linear
// interpolation across the decimation ratio, which reconstructs the
// same sample count and preserves the same DC gain but does not
// reproduce the reference decoder's stop-band attenuation.
func (d *Decoder) interpolateLFE(h *FrameHeader, nlfesamples int) []int32 {
	ratio := 128
	if h.LFE == LFE64 {
		ratio = 64
	}
	out := make([]int32, nlfesamples*ratio)
	prev := d.lfeHist[LFEHistory-1]
	for i := 0; i < nlfesamples; i++ {
		cur := d.lfe[LFEHistory+i]
		for k := 0; k < ratio; k++ {
			t := float64(k) / float64(ratio)
			out[i*ratio+k] = int32(float64(prev)*(1-t) + float64(cur)*t)
		}
		prev = cur
	}
	copy(d.lfeHist[:], d.lfe[nlfesamples:nlfesamples+LFEHistory])
	return out
}
