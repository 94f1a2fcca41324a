/*
NAME
  downmix.go

DESCRIPTION
  downmix.go implements the top-level controller's channel-domain
  steps that run after core/extension synthesis (spec §4.10 steps 9-10):
  front/surround sum-difference recovery and the default stereo
  downmix applied on request. The per-mode channel ordering mirrors
  tables.go's audioModeMask comment ("ordered to match the channel
  arrangement in dca_core.h's DCACoreAudioMode comments"), since the
  core package itself only exposes the aggregate speaker mask, not a
  per-channel-index speaker assignment.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package dca

import (
	"math"

	"github.com/ausocean/av/codec/dca/core"
)

// modeChannelOrder gives, for each of the ten core audio modes, the
// primary-channel speaker assigned to each PCM plane index, in the
// same order ParseCodingHeader's channel loop fills them.
var modeChannelOrder = [][]core.Speaker{
	{core.SpeakerC},                                                     // mono
	{core.SpeakerC, core.SpeakerC},                                      // dual mono
	{core.SpeakerL, core.SpeakerR},                                      // stereo
	{core.SpeakerL, core.SpeakerR},                                      // stereo sum/difference
	{core.SpeakerL, core.SpeakerR},                                      // stereo total
	{core.SpeakerC, core.SpeakerL, core.SpeakerR},                       // 3F
	{core.SpeakerL, core.SpeakerR, core.SpeakerCs},                      // 2F1R
	{core.SpeakerC, core.SpeakerL, core.SpeakerR, core.SpeakerCs},       // 3F1R
	{core.SpeakerL, core.SpeakerR, core.SpeakerLs, core.SpeakerRs},      // 2F2R
	{core.SpeakerC, core.SpeakerL, core.SpeakerR, core.SpeakerLs, core.SpeakerRs}, // 3F2R
}

// findSpeaker returns the PCM plane index carrying sp under mode, or
// -1 if mode's channel arrangement does not include it.
func findSpeaker(mode core.AudioMode, sp core.Speaker) int {
	if int(mode) < 0 || int(mode) >= len(modeChannelOrder) {
		return -1
	}
	for i, s := range modeChannelOrder[mode] {
		if s == sp {
			return i
		}
	}
	return -1
}

// applySumDifference undoes the core frame header's front and/or
// surround sum/difference encoding in place: `L = L+R, R = L-R`
// applied to the relevant speaker pair's already-summed representation
// recovers the original L/R (or Ls/Rs) pair (spec §4.10 step 9).
func applySumDifference(pcm [][]int32, h *core.FrameHeader) {
	if h.SumDiffFront {
		butterfly(pcm, findSpeaker(h.AudioMode, core.SpeakerL), findSpeaker(h.AudioMode, core.SpeakerR))
	}
	if h.SumDiffSurround {
		butterfly(pcm, findSpeaker(h.AudioMode, core.SpeakerLs), findSpeaker(h.AudioMode, core.SpeakerRs))
	}
}

func butterfly(pcm [][]int32, li, ri int) {
	if li < 0 || ri < 0 || li >= len(pcm) || ri >= len(pcm) {
		return
	}
	l, r := pcm[li], pcm[ri]
	n := len(l)
	if len(r) < n {
		n = len(r)
	}
	for i := 0; i < n; i++ {
		sum, diff := l[i], r[i]
		l[i] = sum + diff
		r[i] = sum - diff
	}
}

// invSqrt2 is the √½ attenuation spec §4.10 steps 8 and 10 apply to
// center and surround contributions folded into a two-channel downmix.
var invSqrt2 = float32(1 / math.Sqrt2)

// downmixToStereo produces a default Lo/Ro-style two-channel downmix
// when the caller requests stereo output and no compatible embedded
// downmix coefficients were parsed (spec §4.10 step 10 "a default
// amode-keyed coefficient table"). The center channel is folded into
// both outputs at √½ gain and each surround channel into its own side
// at √½ gain (Lo = L + 0.707C + 0.707Ls, Ro = R + 0.707C + 0.707Rs);
// Cs and LFE are not folded into either output.
func downmixToStereo(pcm [][]int32, mode core.AudioMode) [][]int32 {
	order := modeChannelOrder[mode]
	n := 0
	if len(pcm) > 0 {
		n = len(pcm[0])
	}
	l := make([]int32, n)
	r := make([]int32, n)

	for idx, sp := range order {
		if idx >= len(pcm) {
			continue
		}
		ch := pcm[idx]
		switch sp {
		case core.SpeakerL, core.SpeakerLs:
			gain := float32(1)
			if sp == core.SpeakerLs {
				gain = invSqrt2
			}
			addScaled(l, ch, gain)
		case core.SpeakerR, core.SpeakerRs:
			gain := float32(1)
			if sp == core.SpeakerRs {
				gain = invSqrt2
			}
			addScaled(r, ch, gain)
		case core.SpeakerC:
			addScaled(l, ch, invSqrt2)
			addScaled(r, ch, invSqrt2)
		}
	}

	return [][]int32{l, r}
}

func addScaled(dst, src []int32, gain float32) {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		dst[i] += int32(float32(src[i]) * gain)
	}
}
