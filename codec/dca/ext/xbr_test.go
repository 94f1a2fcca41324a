/*
NAME
  xbr_test.go

DESCRIPTION
  xbr_test.go contains tests for xbr.go.

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

func TestParseXBRRejectsInvalidSync(t *testing.T) {
	w := &bitWriter{}
	w.WriteBits(0xdeadbeef, 32) // not SyncXBR
	r := bits.New(w.buf, bits.BigEndian)

	ch := &core.CodingHeader{NChannels: 1, NSubframes: 1}
	h := &core.FrameHeader{AudioMode: core.AmodeMono, FrameSize: 96, NPCMBlocks: 8}
	subbands := []*core.ChannelSubbands{core.NewChannelSubbands(h.NPCMBlocks)}

	if err := ParseXBR(r, ch, nil, h, subbands); err == nil {
		t.Error("expected an error for a mismatched XBR sync word")
	}
}

func TestParseXBRRejectsTruncatedFrameSizes(t *testing.T) {
	w := &bitWriter{}
	w.WriteBits(SyncXBR, 32)
	w.WriteBits(0, 6) // header_size -> 1
	w.WriteBits(3, 2) // nchsets raw -> 4, at the limit but frame_size reads will run past the tiny buffer
	r := bits.New(w.buf, bits.BigEndian)

	ch := &core.CodingHeader{NChannels: 1, NSubframes: 1}
	h := &core.FrameHeader{AudioMode: core.AmodeMono, FrameSize: 96, NPCMBlocks: 8}
	subbands := []*core.ChannelSubbands{core.NewChannelSubbands(h.NPCMBlocks)}

	if err := ParseXBR(r, ch, nil, h, subbands); err == nil {
		t.Error("expected a truncation error reading frame sizes past the buffer")
	}
}
