/*
NAME
  lbr.go

DESCRIPTION
  lbr.go implements the LBR (low-bitrate) decoder (spec §4.8): a
  chunked byte-oriented format riding under its own sync word
  0x0A801921, carrying decoder-init metadata, an LFE ADPCM chunk,
  tonal-component groups, and per channel-pair scale-factor grid and
  time-sample chunks, synthesized through a long-window IMDCT (reusing
  codec/dca/imdct) into fullband PCM.

  Ported from the reference decoder's dca_lbr.c, which is present in
  full in the retrieval pack: the chunk-header loop (ff_dca_lbr_parse),
  decoder-init field layout (parse_decoder_init) and subband/frequency
  derivations below follow it closely. The tonal/grid/time-sample
  decode in chunks.go is a structural simplification of
  decode_grid/decode_ts/decode_tonal: it reconstructs the same chunk
  framing, scale-factor interpolation and per-subband fill rules the
  spec describes, but approximates the per-sample Huffman/VLC symbol
  tables those routines consume (dcahuff.c, absent from the retrieval
  pack, same gap documented for codec/dca/huffman) with a directly
  decodable fixed-width code, so LBR output is structurally correct
  but not bit-exact against a reference LBR bitstream (see DESIGN.md).

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package lbr implements the DCA LBR (low-bitrate) extension decoder,
// a self-contained coder that shares only bitstream framing
// conventions with the core substream (spec §4.8).
package lbr

import (
	"github.com/pkg/errors"
)

// Sync is the LBR chunk stream's sync word.
const Sync = 0x0A801921

// Header types (spec §4.8; dca_lbr.h's DCALBRHeader).
const (
	HeaderSyncOnly    = 1
	HeaderDecoderInit = 2
)

// MaxChannels is the maximum number of LBR fullband channels decoded
// per frame (dca_lbr.h's DCA_LBR_CHANNELS).
const MaxChannels = 6

// Subbands is the maximum number of LBR subbands (dca_lbr.h's
// DCA_LBR_SUBBANDS).
const Subbands = 32

var (
	// ErrInvalidSync is returned when the buffer does not begin with
	// the LBR sync word.
	ErrInvalidSync = errors.New("dca/lbr: invalid sync word")
	// ErrTruncated is returned when a chunk or header runs past the
	// end of the buffer.
	ErrTruncated = errors.New("dca/lbr: truncated bitstream")
	// ErrInvalidData is returned when a field violates LBR's own
	// constraints.
	ErrInvalidData = errors.New("dca/lbr: invalid data")
	// ErrUnsupported is returned for a legal but unimplemented variant
	// (e.g. a sample rate above 48kHz, or a multi-channel downmix).
	ErrUnsupported = errors.New("dca/lbr: unsupported")
)

// bandLimit flag bits within the decoder-init flags byte (dca_lbr.c's
// LBR_FLAG_BAND_LIMIT_*).
const (
	flagLFEPresent    = 1 << 0
	flagBandLimitMask = 0x06
	flagDmixMultiCh   = 1 << 3
)

// samplingFreqs mirrors ff_dca_sampling_freqs, the 16-entry LBR sample
// rate code table (dca.c).
var samplingFreqs = [16]int{
	8000, 16000, 32000, 64000, 128000,
	22050, 44100, 88200, 176400, 352800,
	12000, 24000, 48000, 96000, 192000, 384000,
}

// freqRanges mirrors ff_dca_freq_ranges, the per-sample-rate-code
// frequency range exponent (dca.c).
var freqRanges = [16]int{0, 0, 0, 1, 2, 0, 0, 1, 2, 3, 0, 0, 0, 1, 2, 3}

// State holds the per-stream decoder state that persists across LBR
// frames: decoder-init metadata and the per-channel synthesis history
// (dca_lbr.h's DCALbrDecoder, scoped to what this package models).
type State struct {
	SampleRate    int
	ChannelMask   uint16
	Flags         uint8
	BitRateOrig   int
	BitRateScaled int

	NChannelsTotal int
	NChannels      int
	BandLimit      int
	FreqRange      int
	LimitedRate    int
	LimitedRange   int
	NSubbands      int
	MinMonoSubband int
	MaxMonoSubband int

	framenum int
	synth    []*synthState
}

// NewState returns an LBR decoder State with no sample rate configured;
// the first frame must carry a decoder-init header (spec §4.8 "Header
// type 1 reuses the previously initialized state").
func NewState() *State {
	return &State{}
}

// Asset is the subset of an exss.Asset's fields LBR's entry point
// needs, kept local to avoid an import cycle between exss and lbr (the
// top-level controller wires the two packages together).
type Asset struct {
	Data []byte // the LBR component's bytes, exss.Component(buf, asset, exss.ExtLBR)
}

// Frame is one decoded LBR access unit: PCM[c] holds one frame's worth
// of fullband samples for channel c, and LFE holds the interpolated
// LFE channel (nil when no LFE chunk was present).
type Frame struct {
	PCM [][]float64
	LFE []float64
}

// Parse decodes one LBR frame from asset.Data (spec §4.8).
func Parse(s *State, asset *Asset) (*Frame, error) {
	r := newByteReader(asset.Data)

	sync, err := r.be32()
	if err != nil {
		return nil, err
	}
	if sync != Sync {
		return nil, errors.Wrapf(ErrInvalidSync, "got %#08x", sync)
	}

	headerType, err := r.u8()
	if err != nil {
		return nil, err
	}
	switch headerType {
	case HeaderSyncOnly:
		if s.SampleRate == 0 {
			return nil, errors.Wrap(ErrInvalidData, "LBR decoder not initialized")
		}
	case HeaderDecoderInit:
		if err := parseDecoderInit(s, r); err != nil {
			s.SampleRate = 0
			return nil, err
		}
	default:
		return nil, errors.Wrapf(ErrInvalidData, "invalid LBR header type %d", headerType)
	}

	frameChunkID, err := r.u8()
	if err != nil {
		return nil, err
	}
	frameChunkLen, err := chunkLen(r, frameChunkID)
	if err != nil {
		return nil, err
	}
	body, err := r.bytes(frameChunkLen)
	if err != nil {
		return nil, err
	}

	switch frameChunkID & 0x7f {
	case chunkFrame:
		if len(body) < 2 {
			return nil, errors.Wrap(ErrTruncated, "frame checksum")
		}
		body = body[2:] // checksum verification omitted; see DESIGN.md
	case chunkFrameNoCsum:
	default:
		return nil, errors.Wrapf(ErrInvalidData, "invalid LBR frame chunk id %#x", frameChunkID)
	}

	s.framenum = (s.framenum + 1) & 31
	s.ensureSynthState()

	return decodeFrameBody(s, body)
}

func parseDecoderInit(s *State, r *byteReader) error {
	srCode, err := r.u8()
	if err != nil {
		return err
	}
	if int(srCode) >= len(samplingFreqs) {
		return errors.Wrap(ErrInvalidData, "invalid LBR sample rate code")
	}
	oldRate, oldBandLimit, oldNChannels := s.SampleRate, s.BandLimit, s.NChannels

	s.SampleRate = samplingFreqs[srCode]
	if s.SampleRate > 48000 {
		return errors.Wrapf(ErrUnsupported, "%d Hz LBR sample rate", s.SampleRate)
	}

	mask, err := r.le16()
	if err != nil {
		return err
	}
	s.ChannelMask = mask
	if mask&0x7 == 0 {
		return errors.Wrapf(ErrUnsupported, "LBR channel mask %#x", mask)
	}

	version, err := r.le16()
	if err != nil {
		return err
	}
	if version&0xff00 != 0x0800 {
		return errors.Wrapf(ErrUnsupported, "LBR stream version %#x", version)
	}

	flags, err := r.u8()
	if err != nil {
		return err
	}
	s.Flags = flags
	if flags&flagDmixMultiCh != 0 {
		return errors.Wrap(ErrUnsupported, "LBR multi-channel downmix")
	}
	if flags&flagLFEPresent != 0 && s.SampleRate != 48000 {
		s.Flags &^= flagLFEPresent
	}

	bitRateHi, err := r.u8()
	if err != nil {
		return err
	}
	origLo, err := r.le16()
	if err != nil {
		return err
	}
	s.BitRateOrig = int(origLo) | (int(bitRateHi&0x0F) << 16)
	scaledLo, err := r.le16()
	if err != nil {
		return err
	}
	s.BitRateScaled = int(scaledLo) | (int(bitRateHi&0xF0) << 12)

	s.NChannelsTotal = countChannels(mask &^ speakerLFE1)
	s.NChannels = s.NChannelsTotal
	if s.NChannels > MaxChannels {
		s.NChannels = MaxChannels
	}

	switch s.Flags & flagBandLimitMask {
	case 0:
		s.BandLimit = 0
	case 1 << 1:
		s.BandLimit = 1
	case 2 << 1:
		s.BandLimit = 2
	default:
		return errors.Wrap(ErrUnsupported, "LBR band limit")
	}

	s.FreqRange = freqRanges[srCode]
	s.LimitedRate = s.SampleRate >> uint(s.BandLimit)
	s.LimitedRange = s.FreqRange - s.BandLimit
	if s.LimitedRange < 0 {
		return errors.Wrap(ErrInvalidData, "LBR band limit exceeds frequency range")
	}
	s.NSubbands = 8 << uint(s.LimitedRange)

	s.MinMonoSubband = clampSubband(s.NSubbands*2000/(s.LimitedRate/2), s.NSubbands)
	s.MaxMonoSubband = clampSubband(s.NSubbands*14000/(s.LimitedRate/2), s.NSubbands)

	if oldRate != s.SampleRate || oldBandLimit != s.BandLimit || oldNChannels != s.NChannels {
		s.synth = nil // reallocated lazily by ensureSynthState
	}
	return nil
}

func clampSubband(v, max int) int {
	if v > max {
		return max
	}
	return v
}

// speakerLFE1 is the LFE1 bit of an LBR/DCA speaker mask.
const speakerLFE1 = 1 << 3

// countChannels counts the set bits of a DCA speaker mask, mirroring
// ff_dca_count_chs_for_mask for the subset of speakers LBR uses.
func countChannels(mask uint16) int {
	n := 0
	for mask != 0 {
		n += int(mask & 1)
		mask >>= 1
	}
	return n
}
