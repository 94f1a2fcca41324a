/*
NAME
  xxch.go

DESCRIPTION
  xxch.go parses the XXCH extension (spec §4.6 "XXCH"): a speaker-mask
  descriptor defines one or more new channels appended to the core
  substream, with an optional embedded downmix, riding on the same
  coding-header/subframe machinery as XCH but with its own frame header
  and channel set header.

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
	mathbits "math/bits"

	"github.com/pkg/errors"

	"github.com/ausocean/av/codec/dca/bits"
	"github.com/ausocean/av/codec/dca/core"
	"github.com/ausocean/av/codec/dca/crc16"
)

// SyncXXCH is the XXCH extension's sync word.
const SyncXXCH = 0x47004A03

// DmixCoeffMax bounds the embedded downmix coefficient table an XXCH
// channel set may carry (one entry per active mask bit per channel).
const DmixCoeffMax = 8 * 7

// XXCHInfo holds the fields parsed from the XXCH frame header and
// channel set 0's own coding header that matter beyond feeding the
// shared subframe machinery: the combined speaker mask and the
// embedded downmix, when present (spec §4.6 "optional embedded downmix
// with per-channel mask and 7-bit signed coefficients").
type XXCHInfo struct {
	SpeakerMask      uint32
	DownmixEmbedded  bool
	DownmixScaleInv  int32
	DownmixMask      [core.DCAChannelsMax]uint32
	DownmixCoeff     [DmixCoeffMax]int32
	DownmixCoeffUsed int
}

// ParseXXCH parses the XXCH extension beginning at r's current position
// (the XXCH sync word), extends ch by the channel set's new channels,
// and decodes their subband audio into subbands (lfe is not written).
// coreMask is the
// core substream's own speaker mask (excluding LFE), used to validate
// the XXCH frame header's declared core mask (spec §4.6 "the core mask
// and the XXCH mask must be disjoint and must jointly cover the
// claimed speakers").
func ParseXXCH(r *bits.Reader, ch *core.CodingHeader, h *core.FrameHeader, subbands []*core.ChannelSubbands, lfe []int32, coreMask uint32) (*XXCHInfo, error) {
	headerPos := r.Pos()

	sync, err := r.ReadBits(32)
	if err != nil {
		return nil, err
	}
	if sync != SyncXXCH {
		return nil, errors.Wrapf(ErrInvalidSync, "xxch: got %#08x", sync)
	}

	headerSizeRaw, err := r.ReadBits(6)
	if err != nil {
		return nil, err
	}
	headerSize := int(headerSizeRaw) + 1

	if !crc16.Check(r.Bytes(), headerPos+32, headerPos+headerSize*8-1) {
		return nil, errors.Wrap(ErrInvalidData, "xxch: frame header checksum")
	}

	crcPresent, err := r.ReadBool()
	if err != nil {
		return nil, err
	}

	maskNBitsRaw, err := r.ReadBits(5)
	if err != nil {
		return nil, err
	}
	maskNBits := int(maskNBitsRaw) + 1
	const speakerCs = 6 // DCA_SPEAKER_Cs: the first speaker position XXCH masks may describe
	if maskNBits <= speakerCs {
		return nil, errors.Wrapf(ErrInvalidData, "xxch: mask_nbits=%d", maskNBits)
	}

	nchsetsRaw, err := r.ReadBits(2)
	if err != nil {
		return nil, err
	}
	if nchsets := int(nchsetsRaw) + 1; nchsets > 1 {
		return nil, errors.Wrapf(ErrUnsupported, "%d XXCH channel sets", nchsets)
	}

	frameSizeRaw, err := r.ReadBits(14)
	if err != nil {
		return nil, err
	}
	frameSize := int(frameSizeRaw) + 1

	xxchCoreMask, err := r.ReadBits(maskNBits)
	if err != nil {
		return nil, err
	}
	if xxchCoreMask != coreMask {
		return nil, errors.Wrapf(ErrInvalidData, "xxch: core mask %#x disagrees with core %#x", xxchCoreMask, coreMask)
	}

	if err := r.Seek(headerPos + headerSize*8); err != nil {
		return nil, errors.Wrap(ErrTruncated, "xxch: seek to end of frame header")
	}

	info := &XXCHInfo{}
	xchBase := ch.NChannels
	setHeaderPos := r.Pos()

	setHeaderSizeRaw, err := r.ReadBits(7)
	if err != nil {
		return nil, err
	}
	setHeaderSize := int(setHeaderSizeRaw) + 1

	if crcPresent && !crc16.Check(r.Bytes(), setHeaderPos, setHeaderPos+setHeaderSize*8-1) {
		return nil, errors.Wrap(ErrInvalidData, "xxch: channel set header checksum")
	}

	nchRaw, err := r.ReadBits(3)
	if err != nil {
		return nil, err
	}
	nch := int(nchRaw) + 1
	ch.NChannels = xchBase + nch

	spkrMaskRaw, err := r.ReadBits(maskNBits - speakerCs)
	if err != nil {
		return nil, err
	}
	info.SpeakerMask = spkrMaskRaw << speakerCs
	if mathbits.OnesCount32(info.SpeakerMask) != nch {
		return nil, errors.Wrapf(ErrInvalidData, "xxch: speaker mask %#x does not match nchannels=%d", info.SpeakerMask, nch)
	}
	if coreMask&info.SpeakerMask != 0 {
		return nil, errors.Wrapf(ErrInvalidData, "xxch: speaker mask %#x overlaps core %#x", info.SpeakerMask, coreMask)
	}

	dmixPresent, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	if dmixPresent {
		embedded, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		info.DownmixEmbedded = embedded

		scaleCodeRaw, err := r.ReadBits(6)
		if err != nil {
			return nil, err
		}
		info.DownmixScaleInv = int32(scaleCodeRaw) // index into the (unavailable) inverse downmix table; see DESIGN.md

		for c := 0; c < nch; c++ {
			m, err := r.ReadBits(maskNBits)
			if err != nil {
				return nil, err
			}
			if m&coreMask != m {
				return nil, errors.Wrapf(ErrInvalidData, "xxch: downmix channel mask %#x not a subset of core %#x", m, coreMask)
			}
			info.DownmixMask[xchBase+c] = m
		}

		n := 0
		for c := 0; c < nch; c++ {
			for bit := 0; bit < maskNBits; bit++ {
				if info.DownmixMask[xchBase+c]&(1<<uint(bit)) == 0 {
					continue
				}
				code, err := r.ReadBits(7)
				if err != nil {
					return nil, err
				}
				sign := int32(code>>6) - 1 // -1 when the sign bit is clear, 0 when set (matches the reference's xor-sub trick)
				mag := code & 0x3f
				// The reference decoder looks mag up in a 7-bit-log
				// downmix coefficient table (ff_dca_dmixtable), itself
				// part of the unavailable dcadata.c (see DESIGN.md); mag
				// is kept as the coefficient's raw magnitude rather than
				// its table-expanded value.
				if mag != 0 && n < DmixCoeffMax {
					info.DownmixCoeff[n] = int32(mag) ^ sign - sign
				}
				n++
			}
		}
		info.DownmixCoeffUsed = n
	}

	if err := core.ParseCodingHeader(r, ch, h, xchBase, true); err != nil {
		return nil, errors.Wrap(err, "xxch: coding header")
	}

	subPos, lfePos := 0, 0
	for sf := 0; sf < ch.NSubframes; sf++ {
		si := &core.SubframeSideInfo{}
		if err := core.ParseSubframeHeader(r, si, ch, h, false, xchBase); err != nil {
			return nil, errors.Wrap(err, "xxch: subframe header")
		}
		if err := core.ParseSubframeAudio(r, subbands, lfe, si, ch, h, false, false, xchBase, &subPos, &lfePos); err != nil {
			return nil, errors.Wrap(err, "xxch: subframe audio")
		}
	}

	if err := r.Seek(headerPos + headerSize*8 + frameSize*8); err != nil {
		return nil, errors.Wrap(ErrTruncated, "xxch: seek to end of channel set")
	}

	return info, nil
}
