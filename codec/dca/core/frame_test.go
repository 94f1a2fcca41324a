/*
NAME
  frame_test.go

DESCRIPTION
  frame_test.go contains tests for frame.go.

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

import "testing"

func TestEnsureStateAllocatesPerChannel(t *testing.T) {
	d := NewDecoder()
	ch := &CodingHeader{NChannels: 2}
	d.ensureState(ch, 16)
	if len(d.subbands) != 2 || len(d.filters) != 2 {
		t.Fatalf("got %d subbands / %d filters, want 2/2", len(d.subbands), len(d.filters))
	}
	for _, cs := range d.subbands {
		if len(cs.Samples[0]) != AdpcmCoeffs+16 {
			t.Errorf("subband buffer length %d, want %d", len(cs.Samples[0]), AdpcmCoeffs+16)
		}
	}
}

func TestEnsureStateReallocatesOnChannelCountChange(t *testing.T) {
	d := NewDecoder()
	d.ensureState(&CodingHeader{NChannels: 1}, 16)
	first := d.subbands[0]
	d.ensureState(&CodingHeader{NChannels: 2}, 16)
	if len(d.subbands) != 2 {
		t.Fatalf("got %d subbands, want 2", len(d.subbands))
	}
	if d.subbands[0] == first {
		t.Error("expected fresh allocation after channel count changed")
	}
}

func TestSynthesizeChannelProducesExpectedLength(t *testing.T) {
	d := NewDecoder()
	d.ensureState(&CodingHeader{NChannels: 1}, 4)
	out := d.synthesizeChannel(0, SynthBands, 4)
	if len(out) != 4*SynthBands {
		t.Fatalf("got %d samples, want %d", len(out), 4*SynthBands)
	}
}

func TestInterpolateLFEProducesExpectedLength(t *testing.T) {
	d := NewDecoder()
	d.lfe = make([]int32, LFEHistory+4)
	h := &FrameHeader{LFE: LFE64}
	out := d.interpolateLFE(h, 4)
	if len(out) != 4*64 {
		t.Fatalf("got %d samples, want %d", len(out), 4*64)
	}
}
