/*
NAME
  xbr.go

DESCRIPTION
  xbr.go parses the XBR extension (spec §4.6 "XBR"): a bitrate
  refinement layer whose per-subband samples are additive corrections
  applied on top of the core's own dequantized samples, always at the
  lossless quantization step size.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package ext

import (
	"github.com/pkg/errors"

	"github.com/ausocean/av/codec/dca/bits"
	"github.com/ausocean/av/codec/dca/core"
)

// SyncXBR is the XBR extension's sync word.
const SyncXBR = 0x655E315E

// xbrChannelSetsMax bounds the number of channel sets one XBR frame may
// declare (spec's DCA_EXSS_CHSETS_MAX).
const xbrChannelSetsMax = 4

// ParseXBR parses the XBR extension beginning at r's current position
// (the XBR sync word) and adds its refinement samples into subbands,
// which must already hold the core's own dequantized subband samples
// for every channel XBR refines (spec §4.6 "samples are additive
// refinements to the core samples, not replacements"). ch is the
// core's (already-parsed) coding header, used to know each channel's
// subframe/subsubframe structure and transition mode.
func ParseXBR(r *bits.Reader, ch *core.CodingHeader, sideInfo []*core.SubframeSideInfo, h *core.FrameHeader, subbands []*core.ChannelSubbands) error {
	headerPos := r.Pos()

	sync, err := r.ReadBits(32)
	if err != nil {
		return err
	}
	if sync != SyncXBR {
		return errors.Wrapf(ErrInvalidSync, "xbr: got %#08x", sync)
	}

	headerSizeRaw, err := r.ReadBits(6)
	if err != nil {
		return err
	}
	headerSize := int(headerSizeRaw) + 1

	nchsetsRaw, err := r.ReadBits(2)
	if err != nil {
		return err
	}
	nchsets := int(nchsetsRaw) + 1
	if nchsets > xbrChannelSetsMax {
		return errors.Wrapf(ErrInvalidData, "xbr: nchsets=%d", nchsets)
	}

	frameSize := make([]int, nchsets)
	for i := range frameSize {
		v, err := r.ReadBits(14)
		if err != nil {
			return err
		}
		frameSize[i] = int(v) + 1
	}

	transitionMode, err := r.ReadBool()
	if err != nil {
		return err
	}

	nchannels := make([]int, nchsets)
	nsubbands := make([][]int, nchsets)
	for i := 0; i < nchsets; i++ {
		v, err := r.ReadBits(3)
		if err != nil {
			return err
		}
		nchannels[i] = int(v) + 1

		bandNBitsRaw, err := r.ReadBits(2)
		if err != nil {
			return err
		}
		bandNBits := int(bandNBitsRaw) + 5

		nsubbands[i] = make([]int, nchannels[i])
		for c := 0; c < nchannels[i]; c++ {
			v, err := r.ReadBits(bandNBits)
			if err != nil {
				return err
			}
			n := int(v) + 1
			if n > core.SubbandsMax {
				return errors.Wrapf(ErrInvalidData, "xbr: nsubbands=%d", n)
			}
			nsubbands[i][c] = n
		}
	}

	if err := r.Seek(headerPos + headerSize*8); err != nil {
		return errors.Wrap(ErrTruncated, "xbr: seek to end of frame header")
	}

	baseCh := 0
	for i := 0; i < nchsets; i++ {
		setPos := r.Pos()
		if baseCh+nchannels[i] <= ch.NChannels {
			subPos := 0
			for sf := 0; sf < ch.NSubframes; sf++ {
				var si *core.SubframeSideInfo
				if sf < len(sideInfo) {
					si = sideInfo[sf]
				}
				if err := parseXBRSubframe(r, subbands, si, h, baseCh, baseCh+nchannels[i], nsubbands[i], transitionMode, &subPos); err != nil {
					return errors.Wrap(err, "xbr: subframe")
				}
			}
		}
		if err := r.Seek(setPos + frameSize[i]*8); err != nil {
			return errors.Wrap(ErrTruncated, "xbr: seek to end of channel set")
		}
		baseCh += nchannels[i]
	}

	return nil
}

// parseXBRSubframe decodes one XBR subframe's refinement samples for
// channels [baseCh, topCh) and accumulates them into subbands (spec
// §4.6 step "additive refinements").
func parseXBRSubframe(r *bits.Reader, subbands []*core.ChannelSubbands, si *core.SubframeSideInfo, h *core.FrameHeader, baseCh, topCh int, nsubbands []int, transitionMode bool, subPos *int) error {
	nssf := 1
	if si != nil {
		nssf = si.NSubsubframes
	}
	if *subPos+nssf*core.SubbandSamples > h.NPCMBlocks {
		return errors.Wrap(ErrInvalidData, "xbr: subband sample buffer overflow")
	}

	nabits := make([]int, topCh)
	bitAlloc := make([][]int, topCh)
	for c := baseCh; c < topCh; c++ {
		v, err := r.ReadBits(2)
		if err != nil {
			return err
		}
		nabits[c] = int(v) + 2

		bitAlloc[c] = make([]int, nsubbands[c-baseCh])
		for band := range bitAlloc[c] {
			a, err := r.ReadBits(nabits[c])
			if err != nil {
				return err
			}
			if int(a) > core.AbitsMax {
				return errors.Wrap(ErrInvalidData, "xbr: bit allocation index")
			}
			bitAlloc[c][band] = int(a)
		}
	}

	scaleNBits := make([]int, topCh)
	for c := baseCh; c < topCh; c++ {
		v, err := r.ReadBits(3)
		if err != nil {
			return err
		}
		if v == 0 {
			return errors.Wrap(ErrInvalidData, "xbr: scale factor bit width")
		}
		scaleNBits[c] = int(v)
	}

	scale := make([][][2]uint32, topCh)
	for c := baseCh; c < topCh; c++ {
		scale[c] = make([][2]uint32, nsubbands[c-baseCh])
		for band := range scale[c] {
			if bitAlloc[c][band] == 0 {
				continue
			}
			idx, err := r.ReadBits(scaleNBits[c])
			if err != nil {
				return err
			}
			table := core.ScaleFactorQuant(boolToSel(scaleNBits[c] > 5))
			if int(idx) >= len(table) {
				return errors.Wrap(ErrInvalidData, "xbr: scale factor index")
			}
			scale[c][band][0] = table[idx]

			trans := 0
			if transitionMode && si != nil {
				trans = si.TransitionMode[c][band]
			}
			if trans != 0 {
				idx, err := r.ReadBits(scaleNBits[c])
				if err != nil {
					return err
				}
				if int(idx) >= len(table) {
					return errors.Wrap(ErrInvalidData, "xbr: scale factor index")
				}
				scale[c][band][1] = table[idx]
			}
		}
	}

	ofs := *subPos
	for ssf := 0; ssf < nssf; ssf++ {
		for c := baseCh; c < topCh; c++ {
			for band := range bitAlloc[c] {
				abits := bitAlloc[c][band]
				if abits == 0 {
					continue
				}

				var audio [core.SubbandSamples]int32
				if abits > 7 {
					for i := range audio {
						v, err := r.ReadSigned(abits - 3)
						if err != nil {
							return err
						}
						audio[i] = v
					}
				} else {
					c1, err := r.ReadBits(core.BlockCodeNBits(abits - 1))
					if err != nil {
						return err
					}
					c2, err := r.ReadBits(core.BlockCodeNBits(abits - 1))
					if err != nil {
						return err
					}
					vals, ok := core.DecodeBlockCodes(c1, c2, core.QuantLevels(abits-1))
					if !ok {
						return errors.Wrap(ErrInvalidData, "xbr: block code residual nonzero")
					}
					audio = vals
				}

				stepSize := core.StepSize(abits, true)

				trans := 0
				if transitionMode && si != nil {
					trans = si.TransitionMode[c][band]
				}
				sc := scale[c][band][0]
				if trans != 0 && ssf >= trans {
					sc = scale[c][band][1]
				}

				buf := subbands[c].Samples[band]
				core.Dequantize(buf[core.AdpcmCoeffs+ofs:core.AdpcmCoeffs+ofs+core.SubbandSamples], audio[:], stepSize, sc, true)
			}
		}

		last := ssf == nssf-1
		if last || h.SyncSSF {
			dsync, err := r.ReadBits(16)
			if err != nil {
				return err
			}
			if dsync != 0xffff {
				return errors.Wrap(ErrInvalidData, "xbr: DSYNC check failed")
			}
		}

		ofs += core.SubbandSamples
	}

	*subPos = ofs
	return nil
}

func boolToSel(hi bool) int {
	if hi {
		return 6
	}
	return 0
}
