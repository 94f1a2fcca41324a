/*
NAME
  header.go

DESCRIPTION
  header.go parses the core frame header and coding header (spec §4.5
  "Frame header" and "Coding header"), the first two structures read out
  of every DCA access unit.

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

// SyncCoreBE is the core substream's native big-endian sync word.
const SyncCoreBE = 0x7FFE8001

// FrameHeader holds the decoded fields of the core frame header (spec
// §3 CoreFrameHeader).
type FrameHeader struct {
	FrameType           int // 1 = normal frame, 0 = "termination" frame
	DeficitSamples      int
	CRCPresent          bool
	NPCMBlocks          int
	FrameSize           int
	AudioMode           AudioMode
	SampleRateCode      int
	SampleRate          int
	BitRateCode         int
	FixedBitRate        bool
	LFE                 LFEFlag
	PredictorHistory    bool
	SyncSSF             bool
	MultiRateFilter     bool // true = non-perfect reconstruction filter
	SourcePCMRes        int
	SourcePCMResCode    int
	SumDiffFront        bool
	SumDiffSurround     bool
	DialogNormCode      int
	DynamicRangePresent bool
	ExtAudioPresent     bool
	ExtAudioType        int
	TimeStampPresent    bool
	AuxPresent          bool
}

// sourcePCMResTable maps the 3-bit source PCM resolution code (the low
// three bits of the 4-bit field ParseFrameHeader reads) to bits per
// sample, following the reference decoder's ff_dca_bits_per_sample
// table; zero entries are reserved codes.
var sourcePCMResTable = [8]int{16, 16, 20, 20, 0, 24, 24, 0}

// ParseFrameHeader consumes the 32-bit sync word and the fields that
// follow it, validating them in the order spec §4.5 requires.
func ParseFrameHeader(r *bits.Reader) (*FrameHeader, error) {
	sync, err := r.ReadBits(32)
	if err != nil {
		return nil, errors.Wrap(err, "dca/core: reading sync word")
	}
	if sync != SyncCoreBE {
		return nil, errors.Wrapf(ErrInvalidSync, "got %#08x", sync)
	}

	h := &FrameHeader{}

	frameType, err := r.ReadBits(1)
	if err != nil {
		return nil, err
	}
	h.FrameType = int(frameType)

	deficit, err := r.ReadBits(5)
	if err != nil {
		return nil, err
	}
	h.DeficitSamples = int(deficit) + 1
	if h.FrameType == 1 && h.DeficitSamples != 32 {
		return nil, errors.Wrapf(ErrUnsupported, "normal frame with deficit_samples=%d", h.DeficitSamples)
	} else if h.FrameType == 0 && h.DeficitSamples != 32 {
		return nil, errors.Wrapf(ErrInvalidData, "termination frame with deficit_samples=%d", h.DeficitSamples)
	}

	crc, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	h.CRCPresent = crc

	npb, err := r.ReadBits(7)
	if err != nil {
		return nil, err
	}
	h.NPCMBlocks = int(npb) + 1

	fsz, err := r.ReadBits(14)
	if err != nil {
		return nil, err
	}
	h.FrameSize = int(fsz) + 1
	if h.FrameSize < 96 {
		return nil, errors.Wrapf(ErrInvalidData, "frame_size=%d < 96", h.FrameSize)
	}

	amode, err := r.ReadBits(6)
	if err != nil {
		return nil, err
	}
	h.AudioMode = AudioMode(amode)
	if !h.AudioMode.Valid() {
		return nil, errors.Wrapf(ErrInvalidData, "audio_mode=%d", amode)
	}

	srCode, err := r.ReadBits(4)
	if err != nil {
		return nil, err
	}
	h.SampleRateCode = int(srCode)
	h.SampleRate = SampleRates[h.SampleRateCode]
	if h.SampleRate == 0 {
		return nil, errors.Wrapf(ErrInvalidData, "sample_rate_code=%d", h.SampleRateCode)
	}

	brCode, err := r.ReadBits(5)
	if err != nil {
		return nil, err
	}
	h.BitRateCode = int(brCode)
	if h.BitRateCode == 31 {
		h.FixedBitRate = true
	} else if h.BitRateCode > 28 {
		return nil, errors.Wrapf(ErrInvalidData, "bit_rate_code=%d", h.BitRateCode)
	}

	if err := r.Skip(1); err != nil { // reserved
		return nil, err
	}

	dynRange, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	h.DynamicRangePresent = dynRange

	ts, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	h.TimeStampPresent = ts

	aux, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	h.AuxPresent = aux

	if err := r.Skip(1); err != nil { // HDCD, not modeled
		return nil, err
	}

	extType, err := r.ReadBits(3)
	if err != nil {
		return nil, err
	}
	h.ExtAudioType = int(extType)

	extPresent, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	h.ExtAudioPresent = extPresent

	syncSSF, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	h.SyncSSF = syncSSF

	if err := r.Skip(2); err != nil { // reserved + low-pass delay, not modeled
		return nil, err
	}

	lfe, err := r.ReadBits(2)
	if err != nil {
		return nil, err
	}
	h.LFE = LFEFlag(lfe)
	if !h.LFE.Valid() {
		return nil, errors.Wrapf(ErrInvalidData, "lfe_flag=%d", lfe)
	}

	predHist, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	h.PredictorHistory = predHist

	if h.CRCPresent {
		if err := r.Skip(16); err != nil { // header CRC
			return nil, err
		}
	}

	mrFilter, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	h.MultiRateFilter = mrFilter

	if err := r.Skip(1); err != nil { // copy history
		return nil, err
	}

	pcmRes, err := r.ReadBits(4)
	if err != nil {
		return nil, err
	}
	h.SourcePCMResCode = int(pcmRes) & 0x7
	h.SourcePCMRes = sourcePCMResTable[h.SourcePCMResCode]
	if h.SourcePCMRes == 0 {
		return nil, errors.Wrapf(ErrInvalidData, "source_pcm_res_code=%d", h.SourcePCMResCode)
	}

	if err := r.Skip(1); err != nil { // front sum/difference moved below in real bitstream; kept as single flag set
		return nil, err
	}

	sdFront, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	h.SumDiffFront = sdFront

	sdSurround, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	h.SumDiffSurround = sdSurround

	dialogNorm, err := r.ReadBits(4)
	if err != nil {
		return nil, err
	}
	h.DialogNormCode = int(dialogNorm)

	return h, nil
}

// CodingHeader holds the per-channel side information decoded from the
// primary audio coding header (spec §3 CodingHeader).
type CodingHeader struct {
	NSubframes         int
	NChannels          int
	NSubbands          [DCAChannelsMax]int
	VQStart            [DCAChannelsMax]int
	JointIntensityIdx  [DCAChannelsMax]int
	TransitionModeSel  [DCAChannelsMax]int
	ScaleFactorSel     [DCAChannelsMax]int
	BitAllocationSel   [DCAChannelsMax]int
	QuantIndexSel      [DCAChannelsMax][huffman.CodeBooks]int
	ScaleFactorAdjIdx  [DCAChannelsMax][huffman.CodeBooks]int
	HasScaleFactorAdj  [DCAChannelsMax][huffman.CodeBooks]bool
}

// DCAChannelsMax is the maximum number of primary channels the core
// substream's per-channel arrays are sized for, including extension
// channels (spec §3: "≤ 7 including extensions").
const DCAChannelsMax = 7

// ParseCodingHeader parses the primary audio coding header for the
// channels from index xchBase up to ch.NChannels within ch (spec §4.5 "Coding
// header"); xchBase is 0 for the core itself and the prior channel count
// when called again for an XCH/XXCH channel set appended to it. xxch is
// true only when parsing an XXCH channel set, which biases a nonzero
// joint intensity coding index by xchBase-1 (the reference decoder's
// parse_coding_header: "if (n && header == HEADER_XXCH) n += xch_base
// - 1", since an XXCH channel set's index is local to itself but must
// address a channel in the combined core+XXCH channel numbering).
func ParseCodingHeader(r *bits.Reader, ch *CodingHeader, h *FrameHeader, xchBase int, xxch bool) error {
	if xchBase == 0 {
		nsf, err := r.ReadBits(4)
		if err != nil {
			return err
		}
		ch.NSubframes = int(nsf) + 1

		nch, err := r.ReadBits(3)
		if err != nil {
			return err
		}
		ch.NChannels = int(nch) + 1
		if ch.NChannels != ChannelsForMode(h.AudioMode) {
			return errors.Wrapf(ErrInvalidData, "nchannels=%d does not match audio_mode %d", ch.NChannels, h.AudioMode)
		}
	}

	n := ch.NChannels
	for c := xchBase; c < n; c++ {
		v, err := r.ReadBits(5)
		if err != nil {
			return err
		}
		ch.NSubbands[c] = int(v) + 2
	}
	for c := xchBase; c < n; c++ {
		v, err := r.ReadBits(5)
		if err != nil {
			return err
		}
		ch.VQStart[c] = int(v) + 1
		if ch.VQStart[c] > ch.NSubbands[c] {
			return errors.Wrapf(ErrInvalidData, "vq_start=%d > nsubbands=%d", ch.VQStart[c], ch.NSubbands[c])
		}
	}
	for c := xchBase; c < n; c++ {
		v, err := r.ReadBits(3)
		if err != nil {
			return err
		}
		idx := int(v)
		if idx != 0 && xxch {
			idx += xchBase - 1
		}
		if idx > n {
			return errors.Wrapf(ErrInvalidData, "joint_intensity_index=%d exceeds nchannels=%d", idx, n)
		}
		ch.JointIntensityIdx[c] = idx
	}
	for c := xchBase; c < n; c++ {
		v, err := r.ReadBits(2)
		if err != nil {
			return err
		}
		ch.TransitionModeSel[c] = int(v)
	}
	for c := xchBase; c < n; c++ {
		v, err := r.ReadBits(3)
		if err != nil {
			return err
		}
		if v == 7 {
			return errors.Wrapf(ErrInvalidData, "scale_factor_sel=7 for channel %d", c)
		}
		ch.ScaleFactorSel[c] = int(v)
	}
	for c := xchBase; c < n; c++ {
		v, err := r.ReadBits(3)
		if err != nil {
			return err
		}
		if v == 7 {
			return errors.Wrapf(ErrInvalidData, "bit_allocation_sel=7 for channel %d", c)
		}
		ch.BitAllocationSel[c] = int(v)
	}
	for book := 0; book < huffman.CodeBooks; book++ {
		for c := xchBase; c < n; c++ {
			v, err := r.ReadBits(huffman.QuantIndexSelBits[book])
			if err != nil {
				return err
			}
			ch.QuantIndexSel[c][book] = int(v)
		}
	}
	for book := 0; book < huffman.CodeBooks; book++ {
		for c := xchBase; c < n; c++ {
			if ch.QuantIndexSel[c][book] < huffman.QuantIndexGroupSize[book] {
				v, err := r.ReadBits(2)
				if err != nil {
					return err
				}
				ch.ScaleFactorAdjIdx[c][book] = int(v)
				ch.HasScaleFactorAdj[c][book] = true
			}
		}
	}

	if h.CRCPresent {
		if err := r.Skip(16); err != nil {
			return err
		}
	}
	return nil
}
