/*
NAME
  xxch_test.go

DESCRIPTION
  xxch_test.go contains tests for xxch.go.

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

func TestParseXXCHRejectsInvalidSync(t *testing.T) {
	w := &bitWriter{}
	w.WriteBits(0x11223344, 32) // not SyncXXCH
	r := bits.New(w.buf, bits.BigEndian)

	ch := &core.CodingHeader{}
	h := &core.FrameHeader{AudioMode: core.AmodeMono, FrameSize: 96, NPCMBlocks: 8}
	subbands := []*core.ChannelSubbands{core.NewChannelSubbands(h.NPCMBlocks)}
	lfe := make([]int32, h.NPCMBlocks)

	if _, err := ParseXXCH(r, ch, h, subbands, lfe, 1); err == nil {
		t.Error("expected an error for a mismatched XXCH sync word")
	}
}

func TestParseXXCHRejectsSmallMaskNBits(t *testing.T) {
	w := &bitWriter{}
	w.WriteBits(SyncXXCH, 32)
	w.WriteBits(3, 6) // header_size -> 4
	// Pad so the frame-header CRC check (over 4 bytes) has something to
	// read; the CRC will fail regardless, which this test expects.
	w.WriteBits(0, 32)
	r := bits.New(w.buf, bits.BigEndian)

	ch := &core.CodingHeader{}
	h := &core.FrameHeader{AudioMode: core.AmodeMono, FrameSize: 96, NPCMBlocks: 8}
	subbands := []*core.ChannelSubbands{core.NewChannelSubbands(h.NPCMBlocks)}
	lfe := make([]int32, h.NPCMBlocks)

	if _, err := ParseXXCH(r, ch, h, subbands, lfe, 1); err == nil {
		t.Error("expected an error (checksum or mask width) for a malformed XXCH header")
	}
}
