/*
NAME
  x96_test.go

DESCRIPTION
  x96_test.go contains tests for x96.go.

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
	"testing"

	"github.com/ausocean/av/codec/dca/bits"
	"github.com/ausocean/av/codec/dca/core"
)

func TestParseX96RejectsInvalidRevision(t *testing.T) {
	w := &bitWriter{}
	w.WriteBits(0, 4) // revision 0, out of the valid 1..8 range
	r := bits.New(w.buf, bits.BigEndian)

	ch := &core.CodingHeader{NChannels: 1, NSubframes: 1}
	h := &core.FrameHeader{AudioMode: core.AmodeMono, FrameSize: 96, NPCMBlocks: 8}
	st := NewX96State(ch.NChannels, h.NPCMBlocks)

	if err := ParseX96(r, ch, nil, h, st); err == nil {
		t.Error("expected an error for an out-of-range X96 revision number")
	}
}

func TestX96StateDitherGeneratorAdvances(t *testing.T) {
	st := NewX96State(1, 8)
	a := st.nextRand()
	b := st.nextRand()
	if a == b {
		t.Error("expected successive LCG draws to differ")
	}
}

func TestNewX96StateAllocatesChannelBuffers(t *testing.T) {
	st := NewX96State(2, 8)
	ch0 := st.Channel(0)
	if len(ch0) != x96SubbandsMax {
		t.Errorf("Channel(0) has %d subbands, want %d", len(ch0), x96SubbandsMax)
	}
	if len(ch0[0]) != core.AdpcmCoeffs+8 {
		t.Errorf("subband buffer length = %d, want %d", len(ch0[0]), core.AdpcmCoeffs+8)
	}
}
