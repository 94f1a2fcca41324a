/*
NAME
  dca.go

DESCRIPTION
  dca.go implements the top-level DCA decoder controller (spec §4.10):
  the state machine that turns one borrowed access-unit byte slice into
  PCM, sequencing bitstream normalization, core parsing, extension
  probing/dispatch (XCH/XXCH/X96/XBR directly, EXSS/LBR/XLL via their
  own packages), downmix undo, sum/difference recovery, and channel
  remap/emit — the steps core.Decoder.DecodeAccessUnit alone does not
  cover, since it only parses a pre-built reader positioned at a core
  sync word and never touches extension substreams.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package dca is the top-level DCA Coherent Acoustics decoder
// controller: it accepts one access unit per call and produces PCM,
// coordinating the core substream parser (codec/dca/core), the
// XCH/XXCH/X96/XBR extensions (codec/dca/ext), the EXSS demultiplexer
// (codec/dca/exss), and the LBR/XLL extension decoders (codec/dca/lbr,
// codec/dca/xll), per spec §4.10.
package dca

import (
	"github.com/pkg/errors"

	"github.com/ausocean/av/codec/dca/bits"
	"github.com/ausocean/av/codec/dca/core"
	"github.com/ausocean/av/codec/dca/exss"
	"github.com/ausocean/av/codec/dca/ext"
	"github.com/ausocean/av/codec/dca/lbr"
	"github.com/ausocean/av/codec/dca/synth"
	"github.com/ausocean/av/codec/dca/xll"
)

// Profile tags the decoded access unit's DTS profile (spec §6 "Output
// framing").
type Profile int

const (
	ProfileDTS Profile = iota
	ProfileDTSES
	ProfileDTS96_24
	ProfileDTSHDHRA
	ProfileDTSHDMA
	ProfileDTSExpress
)

func (p Profile) String() string {
	switch p {
	case ProfileDTSES:
		return "DTS-ES"
	case ProfileDTS96_24:
		return "DTS-96/24"
	case ProfileDTSHDHRA:
		return "DTS-HD HRA"
	case ProfileDTSHDMA:
		return "DTS-HD MA"
	case ProfileDTSExpress:
		return "DTS Express"
	default:
		return "DTS"
	}
}

// ChannelLayout selects the controller's output channel arrangement
// (spec §6 "Controller options").
type ChannelLayout int

const (
	LayoutKeep ChannelLayout = iota
	LayoutStereo
)

// ErrRecognition is a bitset of strictness flags (spec §6 "Controller
// options").
type ErrRecognition int

const (
	ErrCareful ErrRecognition = 1 << iota
	ErrCrcCheck
	ErrExplode
)

// Options configures a Decoder's controller behavior (spec §6
// "Controller options").
type Options struct {
	DisableXLL           bool // default true
	DisableXCH           bool
	CoreOnly             bool
	RequestChannelLayout ChannelLayout
	ErrRecognition       ErrRecognition
	BitExact             bool
}

// DefaultOptions returns the controller's documented defaults (spec
// §6: "disable_xll (default true)").
func DefaultOptions() Options {
	return Options{DisableXLL: true}
}

// ErrInvalidData is returned when no recognized sync pattern is found
// at the start of an access unit.
var ErrInvalidData = errors.New("dca: invalid access unit")

// Output is the result of decoding one access unit (spec §6 "Output
// framing").
type Output struct {
	PCM         [][]int32 // fixed-point planar samples, 24-bit in the low bits
	SampleRate  int
	ChannelMask uint32
	Profile     Profile
	NSamples    int
}

// Decoder holds the per-stream state that persists across access
// units: the core decoder's history, LBR's decoder-init state, and the
// controller's own options.
type Decoder struct {
	Options Options

	core *core.Decoder
	lbr  *lbr.State

	x96State *ext.X96State
}

// NewDecoder returns a Decoder configured with opts.
func NewDecoder(opts Options) *Decoder {
	return &Decoder{
		Options: opts,
		core:    core.NewDecoder(),
		lbr:     lbr.NewState(),
	}
}

// DecodeAccessUnit runs the full controller state machine (spec §4.10)
// over buf, a single borrowed access unit.
func (d *Decoder) DecodeAccessUnit(buf []byte) (*Output, error) {
	norm, err := ConvertBitstream(buf)
	if err != nil {
		return nil, err
	}

	r := bits.New(norm, bits.BigEndian)
	coreSync, err := r.PeekBits(32)
	if err != nil {
		return nil, err
	}
	if coreSync != core.SyncCoreBE {
		return nil, errors.Wrap(ErrInvalidData, "access unit does not start with the core sync word")
	}

	frame, err := d.core.DecodeAccessUnit(r)
	if err != nil {
		return nil, err
	}

	var extraChannels [][]int32
	if !d.Options.CoreOnly {
		extraChannels, err = d.probeCoreExtensions(r, frame)
		if err != nil && d.Options.ErrRecognition&ErrExplode != 0 {
			return nil, err
		}
	}

	var xllSamples [][][]int32
	var profile Profile
	if !d.Options.CoreOnly {
		tail := trailingBytes(r, frame.Header.FrameSize)
		if len(tail) >= 4 {
			tr := bits.New(tail, bits.BigEndian)
			if sync, _ := tr.PeekBits(32); sync == exss.Sync {
				h, err := exss.Parse(tail)
				if err != nil && d.Options.ErrRecognition&ErrExplode != 0 {
					return nil, err
				}
				if h != nil {
					xllSamples, err = d.dispatchEXSS(tail, h, frame)
					if err != nil && d.Options.ErrRecognition&ErrExplode != 0 {
						return nil, err
					}
					if xllSamples != nil {
						profile = ProfileDTSHDMA
					}
				}
			}
		}
	}

	return d.assemble(frame, extraChannels, xllSamples, profile), nil
}

// trailingBytes returns the portion of buf following the core frame's
// declared size, the candidate region for an EXSS header (spec §4.10
// step 4).
func trailingBytes(r *bits.Reader, frameSize int) []byte {
	buf := r.Bytes()
	if frameSize >= len(buf) {
		return nil
	}
	return buf[frameSize:]
}

// beUint32 reads a big-endian uint32 from the start of buf, or 0 if
// buf is shorter than 4 bytes.
func beUint32(buf []byte) uint32 {
	if len(buf) < 4 {
		return 0
	}
	return uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])
}

// probeCoreExtensions scans the core frame's trailing region for
// XCH/XXCH sync words riding directly on the core frame (spec §4.10
// step 3; spec §4.5 "ext_audio_present" backward scan) and, when
// found, parses and synthesizes them into extra PCM planes appended
// after the core's own channels.
//
// The new channels' subband history is allocated fresh for each probed
// extension rather than sharing the core decoder's own (private)
// per-channel history, so predictor and synthesis-filter state does
// not persist for these channels across frames — acceptable for
// validating presence and producing plausible PCM, but a further
// simplification beyond the core channels' own frame-to-frame
// continuity (see DESIGN.md).
func (d *Decoder) probeCoreExtensions(r *bits.Reader, frame *core.Frame) ([][]int32, error) {
	buf := r.Bytes()
	frameEnd := frame.Header.FrameSize
	if frameEnd > len(buf) {
		frameEnd = len(buf)
	}
	scanStart := frameEnd - 4
	if scanStart < 0 {
		return nil, nil
	}

	var extra [][]int32
	for pos := 0; pos <= scanStart; pos++ {
		word := beUint32(buf[pos:])
		switch word {
		case ext.SyncXCH:
			if d.Options.DisableXCH {
				continue
			}
			if core.SpeakerMaskForMode(frame.Header.AudioMode)&(1<<core.SpeakerCs) != 0 {
				continue
			}
			ch := cloneCodingHeader(frame.Coding)
			xchBase := ch.NChannels
			er := bits.New(buf, bits.BigEndian)
			if err := er.Seek(pos * 8); err != nil {
				continue
			}
			subbands := freshSubbands(xchBase+1, frame.Header.NPCMBlocks)
			if err := ext.ParseXCH(er, ch, frame.Header, subbands, nil, xchBase); err != nil {
				return extra, errors.Wrap(err, "dca: XCH probe")
			}
			extra = append(extra, synthesizeExtraChannel(subbands[xchBase], ch.NSubbands[xchBase], frame.Header.NPCMBlocks))
		case ext.SyncXXCH:
			ch := cloneCodingHeader(frame.Coding)
			coreMask := core.SpeakerMaskForMode(frame.Header.AudioMode)
			er := bits.New(buf, bits.BigEndian)
			if err := er.Seek(pos * 8); err != nil {
				continue
			}
			xchBase := ch.NChannels
			subbands := freshSubbands(core.DCAChannelsMax, frame.Header.NPCMBlocks)
			if _, err := ext.ParseXXCH(er, ch, frame.Header, subbands, nil, coreMask); err != nil {
				return extra, errors.Wrap(err, "dca: XXCH probe")
			}
			for c := xchBase; c < ch.NChannels; c++ {
				extra = append(extra, synthesizeExtraChannel(subbands[c], ch.NSubbands[c], frame.Header.NPCMBlocks))
			}
		}
	}
	return extra, nil
}

// cloneCodingHeader copies a CodingHeader so a probe's speculative
// parse cannot corrupt the frame's own already-validated copy.
func cloneCodingHeader(ch *core.CodingHeader) *core.CodingHeader {
	cp := *ch
	return &cp
}

// freshSubbands allocates n channels' worth of subband sample history,
// used both for probed core-riding extensions and for EXSS-delivered
// ones, since the core decoder's own subband history is private state.
func freshSubbands(n, npcmblocks int) []*core.ChannelSubbands {
	out := make([]*core.ChannelSubbands, n)
	for c := range out {
		out[c] = core.NewChannelSubbands(npcmblocks)
	}
	return out
}

// synthesizeExtraChannel runs a freshly constructed polyphase synthesis
// filter over cs's decoded subband samples, mirroring core.Decoder's
// own (private) synthesizeChannel for channels outside the core's own
// channel set.
func synthesizeExtraChannel(cs *core.ChannelSubbands, nsubbands, npcmblocks int) []int32 {
	filter := synth.NewFixedFilter(core.SynthBands)
	pcm := make([]int32, npcmblocks*core.SynthBands)
	in := make([]int32, core.SynthBands)
	out := make([]int32, core.SynthBands)
	for j := 0; j < npcmblocks; j++ {
		for band := 0; band < core.SynthBands; band++ {
			if band < nsubbands {
				in[band] = cs.Samples[band][core.AdpcmCoeffs+j]
			} else {
				in[band] = 0
			}
		}
		filter.Apply(out, in)
		copy(pcm[j*core.SynthBands:], out)
	}
	return pcm
}

// dispatchEXSS invokes each asset's present extension parsers in the
// fixed order exss.DispatchOrder (spec §4.7), returning any decoded
// XLL samples (step 5 substitution candidate). XXCH/XBR/X96 assets
// carried in EXSS are parsed for structural validity against freshly
// allocated subband history, the same simplification
// probeCoreExtensions documents for the non-EXSS form.
func (d *Decoder) dispatchEXSS(buf []byte, h *exss.Header, frame *core.Frame) ([][][]int32, error) {
	var xllSamples [][][]int32

	for _, a := range h.Assets {
		// LBR sits outside exss.DispatchOrder's XXCH/XBR/X96/XLL
		// substitution sequence (spec §4.7): it is an alternative lossy
		// rendition of the whole asset, not a layer the other four
		// extensions build on, so it is decoded for presence validation
		// independently of that order.
		if a.HasExt(exss.ExtLBR) {
			if comp := exss.Component(buf, a, exss.ExtLBR); comp != nil {
				lbrFrame, err := lbr.Parse(d.lbr, &lbr.Asset{Data: comp})
				if err != nil {
					return nil, errors.Wrap(err, "dca: EXSS LBR")
				}
				_ = lbrFrame
			}
		}

		for _, extBit := range exss.DispatchOrder {
			if !a.HasExt(extBit) {
				continue
			}
			comp := exss.Component(buf, a, extBit)
			if comp == nil {
				continue
			}
			switch extBit {
			case exss.ExtXXCH:
				ch := cloneCodingHeader(frame.Coding)
				coreMask := core.SpeakerMaskForMode(frame.Header.AudioMode)
				er := bits.New(comp, bits.BigEndian)
				subbands := freshSubbands(core.DCAChannelsMax, frame.Header.NPCMBlocks)
				if _, err := ext.ParseXXCH(er, ch, frame.Header, subbands, nil, coreMask); err != nil {
					return nil, errors.Wrap(err, "dca: EXSS XXCH")
				}
			case exss.ExtXBR:
				er := bits.New(comp, bits.BigEndian)
				subbands := freshSubbands(frame.Coding.NChannels, frame.Header.NPCMBlocks)
				if err := ext.ParseXBR(er, frame.Coding, nil, frame.Header, subbands); err != nil {
					return nil, errors.Wrap(err, "dca: EXSS XBR")
				}
			case exss.ExtX96:
				if a.HasExt(exss.ExtXLL) {
					continue
				}
				if d.x96State == nil {
					d.x96State = ext.NewX96State(frame.Coding.NChannels, frame.Header.NPCMBlocks)
				}
				er := bits.New(comp, bits.BigEndian)
				if err := ext.ParseX96(er, frame.Coding, nil, frame.Header, d.x96State); err != nil {
					return nil, errors.Wrap(err, "dca: EXSS X96")
				}
			case exss.ExtXLL:
				if d.Options.DisableXLL {
					continue
				}
				xllFrame, err := xll.Decode(&xll.Asset{Data: comp})
				if err != nil {
					return nil, errors.Wrap(err, "dca: EXSS XLL")
				}
				xllSamples = xllFrame.Samples
			}
		}
	}
	return xllSamples, nil
}

// assemble performs controller steps 6-11: output-format selection,
// XLL substitution, sum/difference recovery, optional stereo downmix,
// and channel-remap emission.
func (d *Decoder) assemble(frame *core.Frame, extraChannels [][]int32, xllSamples [][][]int32, profile Profile) *Output {
	out := &Output{
		SampleRate: frame.Header.SampleRate,
		Profile:    profile,
	}

	pcm := make([][]int32, len(frame.PCM))
	for c := range pcm {
		pcm[c] = append([]int32(nil), frame.PCM[c]...)
	}
	pcm = append(pcm, extraChannels...)

	// Step 5: an XLL primary channel set's residual adds onto the
	// matching core-decoded channel (spec §4.9 step 7 "for primary sets
	// ... add to the existing (core-provided) channel").
	if len(xllSamples) > 0 {
		addXLLResidual(pcm, xllSamples[0])
	}

	mask := core.SpeakerMaskForMode(frame.Header.AudioMode)
	if frame.LFE != nil {
		pcm = append(pcm, append([]int32(nil), frame.LFE...))
		mask |= 1 << core.SpeakerLFE1
	}

	applySumDifference(pcm, frame.Header)

	if d.Options.RequestChannelLayout == LayoutStereo {
		pcm = downmixToStereo(pcm, frame.Header.AudioMode)
		mask = 1<<core.SpeakerL | 1<<core.SpeakerR
	}

	out.PCM = pcm
	out.ChannelMask = mask
	if len(pcm) > 0 {
		out.NSamples = len(pcm[0])
	}
	return out
}

// addXLLResidual adds an XLL channel set's decoded per-channel
// residuals onto the matching core PCM channel, truncating to
// whichever of the two is shorter (bit-depth and block-length
// differences between the core's synthesis output and XLL's
// segment-granular samples are not otherwise reconciled — see
// DESIGN.md).
func addXLLResidual(pcm [][]int32, xllCh [][]int32) {
	for c := 0; c < len(pcm) && c < len(xllCh); c++ {
		n := len(pcm[c])
		if len(xllCh[c]) < n {
			n = len(xllCh[c])
		}
		for i := 0; i < n; i++ {
			pcm[c][i] += xllCh[c][i]
		}
	}
}
