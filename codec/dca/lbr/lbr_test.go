/*
NAME
  lbr_test.go

DESCRIPTION
  lbr_test.go contains tests for lbr.go, chunks.go and synth.go.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package lbr

import "testing"

func TestParseRejectsInvalidSync(t *testing.T) {
	s := NewState()
	asset := &Asset{Data: []byte{0xde, 0xad, 0xbe, 0xef, 0, 0}}
	if _, err := Parse(s, asset); err == nil {
		t.Error("expected an error for a mismatched LBR sync word")
	}
}

func TestParseSyncOnlyRequiresPriorInit(t *testing.T) {
	s := NewState()
	buf := []byte{0x0A, 0x80, 0x19, 0x21, HeaderSyncOnly, chunkFrameNoCsum, 0}
	if _, err := Parse(s, &Asset{Data: buf}); err == nil {
		t.Error("expected an error for a sync-only header before any decoder-init")
	}
}

// buildDecoderInit writes a minimal LBR decoder-init header (48kHz,
// stereo mask, version 0x0800) followed by an empty no-checksum frame
// chunk.
func buildDecoderInit() []byte {
	buf := []byte{0x0A, 0x80, 0x19, 0x21, HeaderDecoderInit}
	buf = append(buf, 12)       // sample rate code 12 -> 48000Hz
	buf = append(buf, 0x03, 0) // channel mask LE -> 0x0003 (L, R)
	buf = append(buf, 0x00, 0x08) // version LE -> 0x0800
	buf = append(buf, 0x00)       // flags: no LFE, no band limit, no multi-ch dmix
	buf = append(buf, 0x00)       // bit_rate_hi
	buf = append(buf, 0x00, 0x00) // bit_rate_orig LE
	buf = append(buf, 0x00, 0x00) // bit_rate_scaled LE
	buf = append(buf, chunkFrameNoCsum, 0)
	return buf
}

func TestParseDecoderInit(t *testing.T) {
	s := NewState()
	frame, err := Parse(s, &Asset{Data: buildDecoderInit()})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.SampleRate != 48000 {
		t.Errorf("SampleRate = %d, want 48000", s.SampleRate)
	}
	if s.NChannels != 2 {
		t.Errorf("NChannels = %d, want 2", s.NChannels)
	}
	if len(frame.PCM) != s.NChannels {
		t.Errorf("got %d PCM planes, want %d", len(frame.PCM), s.NChannels)
	}
}

func TestParseRejectsUnsupportedSampleRate(t *testing.T) {
	s := NewState()
	buf := []byte{0x0A, 0x80, 0x19, 0x21, HeaderDecoderInit}
	buf = append(buf, 4) // code 4 -> 128000Hz, above the 48kHz ceiling
	buf = append(buf, 0x03, 0, 0x00, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00)
	if _, err := Parse(s, &Asset{Data: buf}); err == nil {
		t.Error("expected an error for a >48kHz LBR sample rate")
	}
}

func TestLbrRandAdvances(t *testing.T) {
	seed := uint32(1)
	a := lbrRand(&seed)
	b := lbrRand(&seed)
	if a == b {
		t.Error("expected successive LCG draws to differ")
	}
}

func TestDecodeGridChunkInterpolates(t *testing.T) {
	chans := []*channelData{{}, {}}
	payload := []byte{0, 8, 16, 24, 32, 40, 48, 56, 64}
	decodeGridChunk(payload, chans, 0, false)
	if chans[0].scf[0] != 0 {
		t.Errorf("scf[0] = %v, want 0", chans[0].scf[0])
	}
	if chans[0].scf[4] != 8 {
		t.Errorf("scf[4] = %v, want 8 (grid point)", chans[0].scf[4])
	}
	if chans[0].scf[2] <= chans[0].scf[0] || chans[0].scf[2] >= chans[0].scf[4] {
		t.Errorf("scf[2] = %v, want strictly between scf[0] and scf[4]", chans[0].scf[2])
	}
}
