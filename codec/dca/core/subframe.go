/*
NAME
  subframe.go

DESCRIPTION
  subframe.go parses the per-subframe side information that precedes a
  subframe's subband audio data (spec §4.5 "Subframe", steps 1-3):
  subsubframe framing, prediction mode/VQ address, bit allocation,
  transition mode, and scale factors including the joint-subband coding
  variant.

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
	"github.com/ausocean/av/codec/dca/huffman"
)

// SubbandsMax is the largest legal subband count for a single channel
// (spec §3: nsubbands in [2, 32]).
const SubbandsMax = 32

// AbitsMax is the largest legal bit-allocation index (spec §3
// "bit_allocation in [0, 26]").
const AbitsMax = 26

// SubbandSamples is the number of audio samples a single subsubframe
// carries per subband (spec §3 "eight samples per subsubframe").
const SubbandSamples = 8

// SubframeSideInfo holds the per-channel side information decoded ahead
// of a subframe's subband audio data (spec §3 SubframeSideInfo).
type SubframeSideInfo struct {
	NSubsubframes int
	// PredictionMode[c][band] is true when 4-tap ADPCM prediction is
	// active for that subband (spec §4.5 step 5).
	PredictionMode  [DCAChannelsMax][SubbandsMax]bool
	PredictionVQIdx [DCAChannelsMax][SubbandsMax]int
	// BitAllocation[c][band] is the bit-allocation index (abits) for
	// subbands below VQStart; VQ subbands above it are not populated
	// here (spec §4.5 step 4 "high frequency VQ subbands").
	BitAllocation [DCAChannelsMax][SubbandsMax]int
	// TransitionMode[c][band] is nonzero when the subband's envelope
	// changes partway through the subframe (spec §3 "transition_mode").
	TransitionMode [DCAChannelsMax][SubbandsMax]int
	// ScaleFactors[c][band][0] is the primary scale factor; [1] holds
	// the second scale factor a transient subband carries.
	ScaleFactors      [DCAChannelsMax][SubbandsMax][2]uint32
	JointScaleSel     [DCAChannelsMax]int
	JointScaleFactors [DCAChannelsMax][SubbandsMax]uint32
}

// parseScale decodes one running scale-factor index update and looks the
// resulting value up in the root-square quantization table selected by
// sel (spec §4.5 step 3).
func parseScale(r *bits.Reader, index *int, sel int) (uint32, error) {
	table := ScaleFactorQuant(sel)
	if sel < 5 {
		delta, err := huffman.Lookup(r, huffman.ScaleFactor())
		if err != nil {
			return 0, err
		}
		*index += int(delta)
	} else {
		v, err := r.ReadBits(sel + 1)
		if err != nil {
			return 0, err
		}
		*index = int(v)
	}
	if *index < 0 || *index >= len(table) {
		return 0, errors.Wrapf(ErrInvalidData, "scale factor index=%d out of range", *index)
	}
	return table[*index], nil
}

// parseJointScale decodes one joint-subband scale factor: the index is
// always absolute (never a running delta, even under a Huffman
// selector) and biased by 64 before the table lookup (spec §4.5 step 3
// "the joint table is biased by 64").
func parseJointScale(r *bits.Reader, sel int) (uint32, error) {
	var index int
	if sel < 5 {
		v, err := huffman.Lookup(r, huffman.ScaleFactor())
		if err != nil {
			return 0, err
		}
		index = int(v)
	} else {
		v, err := r.ReadBits(sel + 1)
		if err != nil {
			return 0, err
		}
		index = int(v)
	}
	index += 64
	table := JointScaleFactors()
	if index < 0 || index >= len(table) {
		return 0, errors.Wrapf(ErrInvalidData, "joint scale factor index=%d out of range", index)
	}
	return table[index], nil
}

// ParseScale exports parseScale for extension parsers (X96) that share
// the core's running scale-factor decode outside this package.
func ParseScale(r *bits.Reader, index *int, sel int) (uint32, error) {
	return parseScale(r, index, sel)
}

// ParseJointScale exports parseJointScale for extension parsers (X96)
// that share the core's joint-subband scale decode outside this
// package.
func ParseJointScale(r *bits.Reader, sel int) (uint32, error) {
	return parseJointScale(r, sel)
}

// ParseSubframeHeader parses the side information for one subframe
// (spec §4.5 steps 1-3). isCore is true only when parsing the core
// substream's own subframe, since the subsubframe count and partial
// sample count are core-only fields; xchBase is the first channel index
// this call owns, matching ParseCodingHeader's extension convention.
func ParseSubframeHeader(r *bits.Reader, si *SubframeSideInfo, ch *CodingHeader, h *FrameHeader, isCore bool, xchBase int) error {
	if isCore {
		nssf, err := r.ReadBits(2)
		if err != nil {
			return err
		}
		si.NSubsubframes = int(nssf) + 1

		if err := r.Skip(3); err != nil { // partial subsubframe sample count, unused
			return err
		}
	}

	n := ch.NChannels

	for c := xchBase; c < n; c++ {
		for band := 0; band < ch.NSubbands[c]; band++ {
			v, err := r.ReadBool()
			if err != nil {
				return err
			}
			si.PredictionMode[c][band] = v
		}
	}

	for c := xchBase; c < n; c++ {
		for band := 0; band < ch.NSubbands[c]; band++ {
			if !si.PredictionMode[c][band] {
				continue
			}
			v, err := r.ReadBits(12)
			if err != nil {
				return err
			}
			si.PredictionVQIdx[c][band] = int(v)
		}
	}

	for c := xchBase; c < n; c++ {
		sel := ch.BitAllocationSel[c]
		for band := 0; band < ch.VQStart[c]; band++ {
			var abits int
			if sel < 5 {
				fam := huffman.BitAllocation()
				v, err := bits.LookupVLC(r, fam.Tables[sel], fam.MaxDepth)
				if err != nil {
					return err
				}
				abits = int(v)
			} else {
				v, err := r.ReadBits(sel - 1)
				if err != nil {
					return err
				}
				abits = int(v)
			}
			if abits > AbitsMax {
				return errors.Wrapf(ErrInvalidData, "bit_allocation=%d exceeds max %d", abits, AbitsMax)
			}
			si.BitAllocation[c][band] = abits
		}
	}

	for c := xchBase; c < n; c++ {
		for band := 0; band < SubbandsMax; band++ {
			si.TransitionMode[c][band] = 0
		}
		if si.NSubsubframes <= 1 {
			continue
		}
		sel := ch.TransitionModeSel[c]
		for band := 0; band < ch.VQStart[c]; band++ {
			if si.BitAllocation[c][band] == 0 {
				continue
			}
			v, err := huffman.Lookup(r, huffman.TransitionMode(sel))
			if err != nil {
				return err
			}
			si.TransitionMode[c][band] = int(v)
		}
	}

	for c := xchBase; c < n; c++ {
		sel := ch.ScaleFactorSel[c]
		scaleIndex := 0
		for band := 0; band < ch.VQStart[c]; band++ {
			if si.BitAllocation[c][band] == 0 {
				si.ScaleFactors[c][band][0] = 0
				continue
			}
			v, err := parseScale(r, &scaleIndex, sel)
			if err != nil {
				return err
			}
			si.ScaleFactors[c][band][0] = v
			if si.TransitionMode[c][band] != 0 {
				v2, err := parseScale(r, &scaleIndex, sel)
				if err != nil {
					return err
				}
				si.ScaleFactors[c][band][1] = v2
			}
		}
		for band := ch.VQStart[c]; band < ch.NSubbands[c]; band++ {
			v, err := parseScale(r, &scaleIndex, sel)
			if err != nil {
				return err
			}
			si.ScaleFactors[c][band][0] = v
		}
	}

	for c := xchBase; c < n; c++ {
		if ch.JointIntensityIdx[c] == 0 {
			continue
		}
		v, err := r.ReadBits(3)
		if err != nil {
			return err
		}
		if v == 7 {
			return errors.Wrapf(ErrInvalidData, "joint_scale_sel=7 for channel %d", c)
		}
		si.JointScaleSel[c] = int(v)
	}

	for c := xchBase; c < n; c++ {
		srcCh := ch.JointIntensityIdx[c] - 1
		if srcCh < 0 {
			continue
		}
		sel := si.JointScaleSel[c]
		for band := ch.NSubbands[c]; band < ch.NSubbands[srcCh]; band++ {
			v, err := parseJointScale(r, sel)
			if err != nil {
				return err
			}
			si.JointScaleFactors[c][band] = v
		}
	}

	if isCore && h.DynamicRangePresent {
		if err := r.Skip(8); err != nil { // dynamic range coefficient
			return err
		}
	}

	if h.CRCPresent {
		if err := r.Skip(16); err != nil { // side information CRC
			return err
		}
	}

	return nil
}
