/*
NAME
  x96.go

DESCRIPTION
  x96.go parses the X96 extension (spec §4.6 "X96"): a set of extra
  high-frequency subbands (32-63) carried at double the core's subband
  count, reusing the core's prediction, scale-factor, and joint-coding
  machinery but with its own bit allocation and an LCG dither generator
  for unallocated-but-scaled subbands.

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
	"github.com/ausocean/av/codec/dca/crc16"
	"github.com/ausocean/av/codec/dca/fixed"
	"github.com/ausocean/av/codec/dca/huffman"
)

// SyncX96 is the X96 extension's sync word.
const SyncX96 = 0x1D95F262

// x96SubbandsMax is the largest total subband count of an X96 channel
// set, the core's own 32 included (spec's DCA_SUBBANDS_X96).
const x96SubbandsMax = 64

// x96ChannelSamples holds one channel's X96 subband sample history,
// analogous to core.ChannelSubbands but sized for X96's doubled
// subband range.
type x96ChannelSamples struct {
	Samples [x96SubbandsMax][]int32
}

func newX96ChannelSamples(npcmblocks int) *x96ChannelSamples {
	cs := &x96ChannelSamples{}
	for band := range cs.Samples {
		cs.Samples[band] = make([]int32, core.AdpcmCoeffs+npcmblocks)
	}
	return cs
}

// X96State holds one decoder's X96 subband sample history and the RNG
// state for its dither generator (spec §4.6 "samples below nsubbands
// for an unallocated subband are pseudo-randomly dithered, scaled by
// the subband's own scale factor").
type X96State struct {
	rnd     uint32
	channel []*x96ChannelSamples
}

// NewX96State allocates per-channel subband sample buffers sized for
// npcmblocks output blocks of x96SubbandsMax subbands each.
func NewX96State(nchannels, npcmblocks int) *X96State {
	s := &X96State{rnd: 1}
	s.channel = make([]*x96ChannelSamples, nchannels)
	for c := range s.channel {
		s.channel[c] = newX96ChannelSamples(npcmblocks)
	}
	return s
}

// Channel returns the decoded X96 subband sample history for channel
// c, for use once ParseX96 has populated it.
func (s *X96State) Channel(c int) [][]int32 {
	return s.channel[c].Samples[:]
}

// nextRand advances the linear-congruential generator the reference
// decoder uses to dither unallocated-but-scaled X96 subbands (spec §4.6
// "s = 1103515245*s + 12345").
func (s *X96State) nextRand() int32 {
	s.rnd = 1103515245*s.rnd + 12345
	return int32(s.rnd)
}

// x96Coding holds the fields X96's own coding header carries
// independently of the core's (revision, subband start, activity
// count, and resolution), since X96 does not reuse the core's coding
// header instance.
type x96Coding struct {
	highRes      bool
	subbandStart int
	nsubbands    [core.DCAChannelsMax]int
	jointIdx     [core.DCAChannelsMax]int
	scaleSel     [core.DCAChannelsMax]int
	allocSel     [core.DCAChannelsMax]int
	quantSel     [core.DCAChannelsMax][10]int
}

// x96SubframeState holds one subframe's transient side information,
// scoped separately from x96Coding since it is rebuilt every subframe.
type x96SubframeState struct {
	predMode      [core.DCAChannelsMax][x96SubbandsMax]bool
	predVQ        [core.DCAChannelsMax][x96SubbandsMax]int
	bitAlloc      [core.DCAChannelsMax][x96SubbandsMax]int
	scale         [core.DCAChannelsMax][x96SubbandsMax]uint32
	jointScaleSel [core.DCAChannelsMax]int
	jointScale    [core.DCAChannelsMax][x96SubbandsMax]uint32
}

// ParseX96 parses one X96 channel set riding directly on the core frame
// (not wrapped in EXSS), beginning at r's current position (just past
// the X96 sync word), decoding subband samples for every channel ch already
// describes into st (spec §4.6 "X96 frame, non-EXSS form").
func ParseX96(r *bits.Reader, ch *core.CodingHeader, sideInfo []*core.SubframeSideInfo, h *core.FrameHeader, st *X96State) error {
	revNo, err := r.ReadBits(4)
	if err != nil {
		return err
	}
	if revNo < 1 || revNo > 8 {
		return errors.Wrapf(ErrInvalidData, "x96: revision=%d", revNo)
	}

	xc := &x96Coding{}
	if err := parseX96CodingHeader(r, xc, ch, h, false, 0, int(revNo)); err != nil {
		return err
	}

	subPos := 0
	for sf := 0; sf < ch.NSubframes; sf++ {
		var si *core.SubframeSideInfo
		if sf < len(sideInfo) {
			si = sideInfo[sf]
		}
		ss := &x96SubframeState{}
		if err := parseX96SubframeHeader(r, ss, xc, ch, h, 0); err != nil {
			return errors.Wrap(err, "x96: subframe header")
		}
		if err := parseX96SubframeAudio(r, st, ss, xc, ch, si, h, 0, &subPos); err != nil {
			return errors.Wrap(err, "x96: subframe audio")
		}
	}

	if err := r.Seek(h.FrameSize * 8); err != nil {
		return errors.Wrap(ErrTruncated, "x96: seek to end of core frame")
	}
	return nil
}

// parseX96CodingHeader parses X96's coding header. exss is true when
// called from the EXSS-wrapped form (its channel set header carries an
// explicit byte length and optional CRC); xchBase is the first channel
// this call's fields start at.
func parseX96CodingHeader(r *bits.Reader, xc *x96Coding, ch *core.CodingHeader, h *core.FrameHeader, exss bool, xchBase int, revNo int) error {
	headerPos := r.Pos()
	headerSize := 0

	if exss {
		v, err := r.ReadBits(7)
		if err != nil {
			return err
		}
		headerSize = int(v) + 1
		if h.CRCPresent && !crc16.Check(r.Bytes(), headerPos, headerPos+headerSize*8-1) {
			return errors.Wrap(ErrInvalidData, "x96: channel set header checksum")
		}
	}

	highRes, err := r.ReadBool()
	if err != nil {
		return err
	}
	xc.highRes = highRes

	if revNo < 8 {
		v, err := r.ReadBits(5)
		if err != nil {
			return err
		}
		xc.subbandStart = int(v)
		if xc.subbandStart > 27 {
			return errors.Wrapf(ErrInvalidData, "x96: subband_start=%d", xc.subbandStart)
		}
	} else {
		xc.subbandStart = core.SubbandsMax
	}

	n := ch.NChannels
	for c := xchBase; c < n; c++ {
		v, err := r.ReadBits(6)
		if err != nil {
			return err
		}
		xc.nsubbands[c] = int(v) + 1
		if xc.nsubbands[c] < core.SubbandsMax {
			return errors.Wrapf(ErrInvalidData, "x96: nsubbands=%d", xc.nsubbands[c])
		}
	}

	for c := xchBase; c < n; c++ {
		v, err := r.ReadBits(3)
		if err != nil {
			return err
		}
		idx := int(v)
		if idx != 0 && xchBase != 0 {
			idx += xchBase - 1
		}
		if idx > n {
			return errors.Wrapf(ErrInvalidData, "x96: joint_intensity_index=%d", idx)
		}
		xc.jointIdx[c] = idx
	}

	for c := xchBase; c < n; c++ {
		v, err := r.ReadBits(3)
		if err != nil {
			return err
		}
		if v >= 6 {
			return errors.Wrap(ErrInvalidData, "x96: scale factor code book")
		}
		xc.scaleSel[c] = int(v)
	}

	for c := xchBase; c < n; c++ {
		v, err := r.ReadBits(3)
		if err != nil {
			return err
		}
		xc.allocSel[c] = int(v)
	}

	nbooks := 6
	if xc.highRes {
		nbooks = 10
	}
	for book := 0; book < nbooks; book++ {
		for c := xchBase; c < n; c++ {
			v, err := r.ReadBits(huffman.QuantIndexSelBits[book])
			if err != nil {
				return err
			}
			xc.quantSel[c][book] = int(v)
		}
	}

	if exss {
		if err := r.Seek(headerPos + headerSize*8); err != nil {
			return errors.Wrap(ErrTruncated, "x96: seek to end of channel set header")
		}
	} else if h.CRCPresent {
		if err := r.Skip(16); err != nil {
			return err
		}
	}

	return nil
}

// x96AllocTable selects the quant-index VLC table family X96 reuses for
// delta-coding its bit-allocation indices (ff_dca_vlc_quant_index[5 +
// 2*high_res], which for low resolution is the same book 5 code book
// the core's own abits=6 quantization path uses).
func x96AllocTable(highRes bool) *huffman.BitAllocTable {
	if highRes {
		return huffman.QuantIndexTable(7)
	}
	return huffman.QuantIndexTable(5)
}

func parseX96SubframeHeader(r *bits.Reader, ss *x96SubframeState, xc *x96Coding, ch *core.CodingHeader, h *core.FrameHeader, xchBase int) error {
	n := ch.NChannels

	for c := xchBase; c < n; c++ {
		for band := xc.subbandStart; band < xc.nsubbands[c]; band++ {
			v, err := r.ReadBool()
			if err != nil {
				return err
			}
			ss.predMode[c][band] = v
		}
	}
	for c := xchBase; c < n; c++ {
		for band := xc.subbandStart; band < xc.nsubbands[c]; band++ {
			if !ss.predMode[c][band] {
				continue
			}
			v, err := r.ReadBits(12)
			if err != nil {
				return err
			}
			ss.predVQ[c][band] = int(v)
		}
	}

	fam := x96AllocTable(xc.highRes)
	allocMax := 7
	if xc.highRes {
		allocMax = 15
	}
	for c := xchBase; c < n; c++ {
		sel := xc.allocSel[c]
		abits := 0
		for band := xc.subbandStart; band < xc.nsubbands[c]; band++ {
			if sel < 7 {
				delta, err := bits.LookupVLC(r, fam.Tables[sel], fam.MaxDepth)
				if err != nil {
					return err
				}
				abits += int(delta)
			} else {
				nbits := 3
				if xc.highRes {
					nbits = 4
				}
				v, err := r.ReadBits(nbits)
				if err != nil {
					return err
				}
				abits = int(v)
			}
			if abits < 0 || abits > allocMax+8*boolToInt(xc.highRes) {
				return errors.Wrap(ErrInvalidData, "x96: bit allocation index")
			}
			ss.bitAlloc[c][band] = abits
		}
	}

	for c := xchBase; c < n; c++ {
		sel := xc.scaleSel[c]
		idx := 0
		for band := xc.subbandStart; band < xc.nsubbands[c]; band++ {
			v, err := core.ParseScale(r, &idx, sel)
			if err != nil {
				return err
			}
			ss.scale[c][band] = v
		}
	}

	for c := xchBase; c < n; c++ {
		if xc.jointIdx[c] == 0 {
			continue
		}
		v, err := r.ReadBits(3)
		if err != nil {
			return err
		}
		if v == 7 {
			return errors.Wrap(ErrInvalidData, "x96: joint scale factor code book")
		}
		ss.jointScaleSel[c] = int(v)
	}

	for c := xchBase; c < n; c++ {
		srcCh := xc.jointIdx[c] - 1
		if srcCh < 0 {
			continue
		}
		sel := ss.jointScaleSel[c]
		for band := xc.nsubbands[c]; band < xc.nsubbands[srcCh]; band++ {
			v, err := core.ParseJointScale(r, sel)
			if err != nil {
				return err
			}
			ss.jointScale[c][band] = v
		}
	}

	if h.CRCPresent {
		if err := r.Skip(16); err != nil {
			return err
		}
	}
	return nil
}

func parseX96SubframeAudio(r *bits.Reader, st *X96State, ss *x96SubframeState, xc *x96Coding, ch *core.CodingHeader, si *core.SubframeSideInfo, h *core.FrameHeader, xchBase int, subPos *int) error {
	nssf := 1
	if si != nil {
		nssf = si.NSubsubframes
	}
	nsamples := nssf * core.SubbandSamples
	if *subPos+nsamples > h.NPCMBlocks {
		return errors.Wrap(ErrInvalidData, "x96: subband sample buffer overflow")
	}

	n := ch.NChannels
	for c := xchBase; c < n; c++ {
		for band := xc.subbandStart; band < xc.nsubbands[c]; band++ {
			buf := st.channel[c].Samples[band]
			scale := ss.scale[c][band]

			switch {
			case ss.bitAlloc[c][band] == 0:
				if scale <= 1 {
					for k := 0; k < nsamples; k++ {
						buf[core.AdpcmCoeffs+*subPos+k] = 0
					}
				} else {
					for k := 0; k < nsamples; k++ {
						buf[core.AdpcmCoeffs+*subPos+k] = fixed.Mul31(st.nextRand(), int32(scale))
					}
				}
			case ss.bitAlloc[c][band] == 1:
				for sub := 0; sub < (nssf+1)/2; sub++ {
					addr, err := r.ReadBits(10)
					if err != nil {
						return err
					}
					lim := 16
					if rem := nsamples - sub*16; rem < lim {
						lim = rem
					}
					for k := 0; k < lim; k++ {
						raw := int32(core.HighFreqVQSample(int(addr), k))
						buf[core.AdpcmCoeffs+*subPos+sub*16+k] = fixed.Clip23((raw*int32(scale) + (1 << 3)) >> 4)
					}
				}
			}
		}
	}

	ofs := *subPos
	for sub := 0; sub < nssf; sub++ {
		for c := xchBase; c < n; c++ {
			for band := xc.subbandStart; band < xc.nsubbands[c]; band++ {
				abits := ss.bitAlloc[c][band] - 1
				if abits < 1 {
					continue
				}
				audio, _, err := core.ExtractAudio(r, abits, xc.quantSel[c][abits-1])
				if err != nil {
					return err
				}
				stepSize := core.StepSize(abits, false)
				scale := ss.scale[c][band]
				buf := st.channel[c].Samples[band]
				core.Dequantize(buf[core.AdpcmCoeffs+ofs:core.AdpcmCoeffs+ofs+core.SubbandSamples], audio[:], stepSize, scale, false)
			}
		}

		last := sub == nssf-1
		if last || h.SyncSSF {
			dsync, err := r.ReadBits(16)
			if err != nil {
				return err
			}
			if dsync != 0xffff {
				return errors.Wrap(ErrInvalidData, "x96: DSYNC check failed")
			}
		}
		ofs += core.SubbandSamples
	}

	for c := xchBase; c < n; c++ {
		core.InverseADPCM(st.channel[c].Samples[:], ss.predVQ[c][:], ss.predMode[c][:], xc.subbandStart, xc.nsubbands[c], *subPos, nsamples)
	}

	for c := xchBase; c < n; c++ {
		srcCh := xc.jointIdx[c] - 1
		if srcCh < 0 {
			continue
		}
		decodeX96JointSubband(st.channel[c], st.channel[srcCh], ss.jointScale[c][:], xc.nsubbands[c], xc.nsubbands[srcCh], *subPos, nsamples)
	}

	*subPos = ofs
	return nil
}

// decodeX96JointSubband mirrors core.DecodeJointSubband for X96's own
// doubled-width subband storage (spec §4.5 step 6, reused unmodified by
// X96 per parse_x96_subframe_audio's "Joint subband coding").
func decodeX96JointSubband(dst, src *x96ChannelSamples, jointScale []uint32, dstSubbands, srcSubbands, ofs, length int) {
	for band := dstSubbands; band < srcSubbands; band++ {
		s := src.Samples[band]
		d := dst.Samples[band]
		scale := int32(jointScale[band])
		for n := 0; n < length; n++ {
			pos := core.AdpcmCoeffs + ofs + n
			d[pos] = fixed.Clip23(fixed.Mul23(s[pos], scale))
		}
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
