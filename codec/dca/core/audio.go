/*
NAME
  audio.go

DESCRIPTION
  audio.go parses and reconstructs a subframe's subband audio data (spec
  §4.5 "Subframe", steps 4-7): per-subband sample extraction (Huffman,
  block, or linear coding), LFE sample decode, inverse ADPCM, and
  joint-subband recombination.

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
	"github.com/pkg/errors"

	"github.com/ausocean/av/codec/dca/bits"
	"github.com/ausocean/av/codec/dca/fixed"
	"github.com/ausocean/av/codec/dca/huffman"
)

// ChannelSubbands holds one channel's decoded subband sample history:
// Samples[band] is sized AdpcmCoeffs+npcmblocks, with the first
// AdpcmCoeffs entries holding ADPCM prediction history carried over
// from (or zeroed across) the previous frame, matching the reference
// decoder's subband_samples pointer convention of indexing backwards
// from a base offset.
type ChannelSubbands struct {
	Samples [SubbandsMax][]int32
}

// NewChannelSubbands allocates sample storage across npcmblocks
// subband-sample periods for all SubbandsMax subbands: every channel's
// buffer reserves the full subband range regardless of its own
// activity count, since joint-subband coding can make one channel the
// recombination target for another channel's higher subbands (spec
// §4.5 step 6).
func NewChannelSubbands(npcmblocks int) *ChannelSubbands {
	cs := &ChannelSubbands{}
	for band := 0; band < SubbandsMax; band++ {
		cs.Samples[band] = make([]int32, AdpcmCoeffs+npcmblocks)
	}
	return cs
}

// EraseHistory zeroes the ADPCM history region across all subbands,
// matching the reference decoder's erase_adpcm_history, called once per
// frame when predictor_history is false.
func (cs *ChannelSubbands) EraseHistory() {
	for band := 0; band < SubbandsMax; band++ {
		buf := cs.Samples[band]
		for i := 0; i < AdpcmCoeffs && i < len(buf); i++ {
			buf[i] = 0
		}
	}
}

// LFEHistory is the number of pre-roll samples (DCA_LFE_HISTORY=8) that
// lead an LFE sample buffer, the way ChannelSubbands carries AdpcmCoeffs
// of ADPCM history ahead of each subband's samples.
const LFEHistory = 8

// decodeBlockCodes implements the two-codeword block coding path (spec
// §4.5 step 4 "block coding"): two fixed-width integers are expanded by
// repeated base-`levels` division with a midpoint offset into
// SubbandSamples signed values.
func decodeBlockCodes(code1, code2 uint32, levels int) ([SubbandSamples]int32, bool) {
	var out [SubbandSamples]int32
	offset := (levels - 1) / 2
	c1, c2 := int64(code1), int64(code2)
	half := SubbandSamples / 2
	for n := 0; n < half; n++ {
		div := c1 / int64(levels)
		out[n] = int32(c1 - div*int64(levels) - int64(offset))
		c1 = div
	}
	for n := half; n < SubbandSamples; n++ {
		div := c2 / int64(levels)
		out[n] = int32(c2 - div*int64(levels) - int64(offset))
		c2 = div
	}
	return out, c1 == 0 && c2 == 0
}

// DecodeBlockCodes is decodeBlockCodes exported for extension parsers
// (XBR) that share the core's block-code path outside this package.
func DecodeBlockCodes(code1, code2 uint32, levels int) ([SubbandSamples]int32, bool) {
	return decodeBlockCodes(code1, code2, levels)
}

// ExtractAudio exports extractAudio for extension parsers (X96) that
// share the core's per-subband sample decode outside this package.
func ExtractAudio(r *bits.Reader, abits, quantIndexSel int) ([SubbandSamples]int32, bool, error) {
	return extractAudio(r, abits, quantIndexSel)
}

// extractAudio reads SubbandSamples quantized values for one subband
// under bit-allocation index abits, choosing the Huffman, block, or
// linear coding path per spec §4.5 step 4. It returns the decoded
// values and whether they came from a Huffman code book (used to
// decide whether scale_factor_adj applies).
func extractAudio(r *bits.Reader, abits, quantIndexSel int) (samples [SubbandSamples]int32, huffmanCoded bool, err error) {
	if abits == 0 {
		return samples, false, nil
	}
	if abits <= huffman.CodeBooks {
		book := abits - 1
		if quantIndexSel < huffman.QuantIndexGroupSize[book] {
			fam := huffman.QuantIndexTable(book)
			tbl := fam.Tables[quantIndexSel]
			for i := range samples {
				v, err := bits.LookupVLC(r, tbl, fam.MaxDepth)
				if err != nil {
					return samples, false, err
				}
				samples[i] = v
			}
			return samples, true, nil
		}
		if abits <= 7 {
			c1, err := r.ReadBits(blockCodeNBits[book])
			if err != nil {
				return samples, false, err
			}
			c2, err := r.ReadBits(blockCodeNBits[book])
			if err != nil {
				return samples, false, err
			}
			vals, ok := decodeBlockCodes(c1, c2, quantLevels[book])
			if !ok {
				return samples, false, errors.Wrap(ErrInvalidData, "block code residual nonzero after decode")
			}
			return vals, false, nil
		}
	}
	for i := range samples {
		v, err := r.ReadSigned(abits - 3)
		if err != nil {
			return samples, false, err
		}
		samples[i] = v
	}
	return samples, false, nil
}

// ParseSubframeAudio decodes the subband audio data for one subframe
// (spec §4.5 steps 4-7) into subbands (indexed by channel) and, when
// isCore is set and h carries an LFE channel, the LFE samples into lfe
// (which may be nil when there is no LFE channel). subPos/lfePos are the
// running subband/LFE sample offsets across the whole frame and are
// advanced by the samples this subframe contributes.
func ParseSubframeAudio(r *bits.Reader, subbands []*ChannelSubbands, lfe []int32, si *SubframeSideInfo, ch *CodingHeader, h *FrameHeader, isCore bool, lossless bool, xchBase int, subPos, lfePos *int) error {
	n := ch.NChannels
	nsamples := si.NSubsubframes * SubbandSamples
	if *subPos+nsamples > h.NPCMBlocks {
		return errors.Wrap(ErrInvalidData, "subband sample buffer overflow")
	}

	for c := xchBase; c < n; c++ {
		if ch.VQStart[c] >= ch.NSubbands[c] {
			continue
		}
		if err := DecodeHighFreqVQ(r, subbands[c].Samples[:ch.NSubbands[c]], si.ScaleFactors[c][:], ch.VQStart[c], ch.NSubbands[c], *subPos, nsamples); err != nil {
			return err
		}
	}

	if lfe != nil && isCore && h.LFE != LFENone {
		if err := parseLFE(r, lfe, h.LFE, si.NSubsubframes, lfePos); err != nil {
			return err
		}
	}

	ofs := *subPos
	for ssf := 0; ssf < si.NSubsubframes; ssf++ {
		for c := xchBase; c < n; c++ {
			for band := 0; band < ch.VQStart[c]; band++ {
				abits := si.BitAllocation[c][band]
				vals, huffCoded, err := extractAudio(r, abits, ch.QuantIndexSel[c][maxInt(abits-1, 0)])
				if err != nil {
					return err
				}

				stepSize := StepSize(abits, lossless)

				transSSF := si.TransitionMode[c][band]
				scale := si.ScaleFactors[c][band][0]
				if transSSF != 0 && ssf >= transSSF {
					scale = si.ScaleFactors[c][band][1]
				}
				if huffCoded && abits > 0 {
					adj := scaleFactorAdj[ch.ScaleFactorAdjIdx[c][abits-1]]
					scale = uint32(fixed.Clip23(fixed.NormK(int64(adj)*int64(scale), 22)))
				}

				buf := subbands[c].Samples[band]
				out := make([]int32, SubbandSamples)
				Dequantize(out, vals[:], stepSize, scale, false)
				copy(buf[AdpcmCoeffs+ofs:AdpcmCoeffs+ofs+SubbandSamples], out)
			}
		}

		last := ssf == si.NSubsubframes-1
		if last || h.SyncSSF {
			dsync, err := r.ReadBits(16)
			if err != nil {
				return err
			}
			if dsync != 0xffff {
				return errors.Wrap(ErrInvalidData, "DSYNC check failed")
			}
		}

		ofs += SubbandSamples
	}

	for c := xchBase; c < n; c++ {
		InverseADPCM(subbands[c].Samples[:ch.NSubbands[c]], si.PredictionVQIdx[c][:], si.PredictionMode[c][:], 0, ch.NSubbands[c], *subPos, nsamples)
	}

	for c := xchBase; c < n; c++ {
		srcCh := ch.JointIntensityIdx[c] - 1
		if srcCh < 0 {
			continue
		}
		decodeJointSubband(subbands[c], subbands[srcCh], si.JointScaleFactors[c][:], ch.NSubbands[c], ch.NSubbands[srcCh], *subPos, nsamples)
	}

	*subPos = ofs
	return nil
}

// DecodeJointSubband exports decodeJointSubband for extension parsers
// (X96) that share the core's joint-subband copy outside this package.
func DecodeJointSubband(dst, src *ChannelSubbands, jointScale []uint32, dstSubbands, srcSubbands, ofs, length int) {
	decodeJointSubband(dst, src, jointScale, dstSubbands, srcSubbands, ofs, length)
}

// decodeJointSubband copies src's subbands beyond dst's own activity
// count into dst, scaling each by the per-subband joint scale factor
// (spec §4.5 step 6).
func decodeJointSubband(dst, src *ChannelSubbands, jointScale []uint32, dstSubbands, srcSubbands, ofs, length int) {
	for band := dstSubbands; band < srcSubbands; band++ {
		s := src.Samples[band]
		d := dst.Samples[band]
		scale := int32(jointScale[band])
		for n := 0; n < length; n++ {
			pos := AdpcmCoeffs + ofs + n
			d[pos] = fixed.Clip23(fixed.Mul23(s[pos], scale))
		}
	}
}

// parseLFE decodes 2*lfeFlag*nsubsubframes LFE samples (two per
// subsubframe for LFE128, four for LFE64; spec §4.5 step 4 "Low
// frequency effect data"): 8-bit signed raw values are scaled by a
// 7-bit root-square quantizer index and a fixed 0.035 quantizer-step
// constant, stored after the LFEHistory pre-roll at the running offset
// lfePos, then interpolated by the caller's LFE filter.
func parseLFE(r *bits.Reader, lfe []int32, lfeFlag LFEFlag, nsubsubframes int, lfePos *int) error {
	n := 2 * int(lfeFlag) * nsubsubframes
	raw := make([]int32, n)
	for i := range raw {
		v, err := r.ReadSigned(8)
		if err != nil {
			return err
		}
		raw[i] = v
	}
	idx, err := r.ReadBits(8)
	if err != nil {
		return err
	}
	table := ScaleFactorQuant(6) // 7-bit table
	if int(idx) >= len(table) {
		return errors.Wrap(ErrInvalidData, "invalid LFE scale factor index")
	}
	scale := table[idx]
	// 0.035 * (1<<27), the reference decoder's fixed-point quantizer
	// step constant for the LFE channel.
	const lfeStepQ27 = 4697620
	scale = uint32(fixed.Clip23(fixed.NormK(int64(lfeStepQ27)*int64(scale), 23)))

	ofs := *lfePos
	for i, v := range raw {
		lfe[LFEHistory+ofs+i] = fixed.Clip23(int32((int64(v) * int64(scale)) >> 4))
	}
	*lfePos = ofs + n
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
