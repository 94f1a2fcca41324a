/*
NAME
  downmix.go

DESCRIPTION
  downmix.go undoes hierarchical downmix between XLL channel sets (spec
  §4.9 step 7 "For non-primary hierarchical sets with embedded downmix,
  after decode, undo the downmix against earlier channels using the
  coefficient matrix scaled by 2⁻¹⁶ (primary) and 2⁻¹⁵ (cross terms)").

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

// applyHierarchicalDownmix walks channel sets in order; for any
// non-primary, hierarchical set carrying embedded downmix
// coefficients, it subtracts that set's scaled contribution from each
// earlier (already-decoded) set's corresponding channel, recovering
// the earlier sets' original, pre-downmix samples.
func applyHierarchicalDownmix(sets []*ChannelSet, samples [][][]int32) {
	for si, cs := range sets {
		if cs.PrimarySet || !cs.Hierarchical || cs.Downmix == nil {
			continue
		}
		dm := cs.Downmix
		nOutCh := len(dm.Coeffs) / cs.NChannels
		for earlier := 0; earlier < si; earlier++ {
			target := samples[earlier]
			for outCh := 0; outCh < nOutCh && outCh < len(target); outCh++ {
				scaleShift := uint(16)
				if outCh > 0 {
					scaleShift = 15
				}
				for c := 0; c < cs.NChannels; c++ {
					coeff := dm.Coeffs[outCh*cs.NChannels+c]
					if coeff == 0 {
						continue
					}
					src := samples[si][c]
					n := len(target[outCh])
					if len(src) < n {
						n = len(src)
					}
					for i := 0; i < n; i++ {
						target[outCh][i] -= int32((int64(coeff) * int64(src[i])) >> scaleShift)
					}
				}
			}
		}
	}
}
