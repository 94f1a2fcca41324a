/*
NAME
  header_test.go

DESCRIPTION
  header_test.go contains tests for header.go.

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
	"testing"

	"github.com/ausocean/av/codec/dca/bits"
)

// bitWriter packs fields MSB-first into a byte slice, matching the
// big-endian bit order bits.Reader expects.
type bitWriter struct {
	buf  []byte
	nbit int
}

func (w *bitWriter) WriteBits(v uint32, n int) {
	for i := n - 1; i >= 0; i-- {
		bit := (v >> uint(i)) & 1
		byteIdx := w.nbit / 8
		for byteIdx >= len(w.buf) {
			w.buf = append(w.buf, 0)
		}
		if bit != 0 {
			w.buf[byteIdx] |= 1 << uint(7-w.nbit%8)
		}
		w.nbit++
	}
}

func validFrameHeaderBits() []byte {
	w := &bitWriter{}
	w.WriteBits(SyncCoreBE, 32)
	w.WriteBits(1, 1)  // frame_type = normal
	w.WriteBits(31, 5) // deficit_samples raw -> +1 = 32
	w.WriteBits(0, 1)  // crc_present
	w.WriteBits(7, 7)  // npcmblocks raw -> +1 = 8
	w.WriteBits(95, 14) // frame_size raw -> +1 = 96
	w.WriteBits(uint32(AmodeMono), 6)
	w.WriteBits(13, 4) // sample_rate_code -> 48000
	w.WriteBits(0, 5)  // bit_rate_code
	w.WriteBits(0, 1)  // reserved
	w.WriteBits(0, 1)  // dynamic_range
	w.WriteBits(0, 1)  // timestamp
	w.WriteBits(0, 1)  // aux
	w.WriteBits(0, 1)  // HDCD
	w.WriteBits(0, 3)  // ext_audio_type
	w.WriteBits(0, 1)  // ext_audio_present
	w.WriteBits(0, 1)  // sync_ssf
	w.WriteBits(0, 2)  // reserved + low-pass delay
	w.WriteBits(uint32(LFENone), 2)
	w.WriteBits(0, 1) // predictor_history
	w.WriteBits(0, 1) // multirate_filter
	w.WriteBits(0, 1) // copy_history
	w.WriteBits(0, 4) // source_pcm_res_code -> 16 bits
	w.WriteBits(0, 1) // reserved
	w.WriteBits(0, 1) // sum_diff_front
	w.WriteBits(0, 1) // sum_diff_surround
	w.WriteBits(0, 4) // dialog_norm
	return w.buf
}

func TestParseFrameHeaderValid(t *testing.T) {
	r := bits.New(validFrameHeaderBits(), bits.BigEndian)
	h, err := ParseFrameHeader(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.FrameType != 1 {
		t.Errorf("FrameType = %d, want 1", h.FrameType)
	}
	if h.DeficitSamples != 32 {
		t.Errorf("DeficitSamples = %d, want 32", h.DeficitSamples)
	}
	if h.NPCMBlocks != 8 {
		t.Errorf("NPCMBlocks = %d, want 8", h.NPCMBlocks)
	}
	if h.FrameSize != 96 {
		t.Errorf("FrameSize = %d, want 96", h.FrameSize)
	}
	if h.AudioMode != AmodeMono {
		t.Errorf("AudioMode = %d, want AmodeMono", h.AudioMode)
	}
	if h.SampleRate != 48000 {
		t.Errorf("SampleRate = %d, want 48000", h.SampleRate)
	}
	if h.SourcePCMRes != 16 {
		t.Errorf("SourcePCMRes = %d, want 16", h.SourcePCMRes)
	}
}

func TestParseFrameHeaderInvalidSync(t *testing.T) {
	buf := make([]byte, 4)
	r := bits.New(buf, bits.BigEndian)
	if _, err := ParseFrameHeader(r); err == nil {
		t.Error("expected an error for a mismatched sync word")
	}
}

func TestParseFrameHeaderRejectsFrameSizeUnder96(t *testing.T) {
	w := &bitWriter{}
	w.WriteBits(SyncCoreBE, 32)
	w.WriteBits(1, 1)
	w.WriteBits(31, 5)
	w.WriteBits(0, 1)
	w.WriteBits(0, 7)
	w.WriteBits(10, 14) // frame_size raw -> +1 = 11, well under 96
	r := bits.New(w.buf, bits.BigEndian)
	if _, err := ParseFrameHeader(r); err == nil {
		t.Error("expected an error for frame_size < 96")
	}
}

func TestParseCodingHeaderChannelCountMustMatchAudioMode(t *testing.T) {
	h := &FrameHeader{AudioMode: AmodeStereo}
	w := &bitWriter{}
	w.WriteBits(0, 4) // nsubframes raw -> 1
	w.WriteBits(0, 3) // nchannels raw -> 1, but AmodeStereo wants 2
	r := bits.New(w.buf, bits.BigEndian)
	ch := &CodingHeader{}
	if err := ParseCodingHeader(r, ch, h, 0, false); err == nil {
		t.Error("expected a mismatch error between nchannels and audio_mode")
	}
}

func TestParseCodingHeaderRejectsVQStartAboveNSubbands(t *testing.T) {
	h := &FrameHeader{AudioMode: AmodeMono}
	w := &bitWriter{}
	w.WriteBits(0, 4) // nsubframes raw -> 1
	w.WriteBits(0, 3) // nchannels raw -> 1
	w.WriteBits(0, 5) // nsubbands raw -> 2
	w.WriteBits(31, 5) // vq_start raw -> 32, exceeds nsubbands
	r := bits.New(w.buf, bits.BigEndian)
	ch := &CodingHeader{}
	if err := ParseCodingHeader(r, ch, h, 0, false); err == nil {
		t.Error("expected an error when vq_start exceeds nsubbands")
	}
}
