/*
NAME
  xch_test.go

DESCRIPTION
  xch_test.go contains tests for xch.go.

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

// minimalXCHCodingHeader writes just enough of a coding header (one
// subframe, one new subband-active channel at xchBase, VQ-only
// subbands so no block/Huffman code books are exercised) to drive
// ParseXCH/ParseXXCH's shared machinery without a full bitstream.
func minimalXCHCodingHeader(w *bitWriter) {
	w.WriteBits(0, 4) // nsubframes -> 1
	w.WriteBits(1, 5) // nsubbands -> 3
	w.WriteBits(0, 5) // vq_start -> 1 (all subbands beyond 0 are VQ)
	w.WriteBits(0, 3) // joint_intensity_index -> 0
	w.WriteBits(0, 2) // transition_mode_sel
	w.WriteBits(0, 3) // scale_factor_sel
	w.WriteBits(0, 3) // bit_allocation_sel
	for book := 0; book < 10; book++ {
		nbits := []int{1, 2, 2, 2, 2, 3, 3, 3, 3, 3}[book]
		w.WriteBits(0, nbits)
	}
}

func TestParseXCHTruncatedBuffer(t *testing.T) {
	r := bits.New([]byte{}, bits.BigEndian)
	ch := &core.CodingHeader{}
	h := &core.FrameHeader{AudioMode: core.AmodeMono, FrameSize: 96, NPCMBlocks: 8}
	subbands := []*core.ChannelSubbands{core.NewChannelSubbands(h.NPCMBlocks), core.NewChannelSubbands(h.NPCMBlocks)}
	lfe := make([]int32, h.NPCMBlocks)

	if err := ParseXCH(r, ch, h, subbands, lfe, 1); err == nil {
		t.Error("expected an error parsing an XCH channel set from an empty buffer")
	}
}
