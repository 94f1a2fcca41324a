/*
NAME
  xll_test.go

DESCRIPTION
  xll_test.go contains tests for xll.go, navi.go, reflect.go and
  segment.go.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package xll

import (
	"testing"

	"github.com/ausocean/av/codec/dca/bits"
)

func TestReflCoeffToDirectLength(t *testing.T) {
	quant := []uint8{10, 245, 3, 200}
	direct := reflCoeffToDirect(quant)
	if len(direct) != len(quant) {
		t.Fatalf("got %d direct coefficients, want %d", len(direct), len(quant))
	}
}

func TestReflCoeffToDirectEmpty(t *testing.T) {
	if got := reflCoeffToDirect(nil); got != nil {
		t.Errorf("reflCoeffToDirect(nil) = %v, want nil", got)
	}
}

func TestClip24Saturates(t *testing.T) {
	if got := clip24(1 << 24); got != (1<<23)-1 {
		t.Errorf("clip24 upper = %d, want %d", got, (1<<23)-1)
	}
	if got := clip24(-(1 << 24)); got != -(1 << 23) {
		t.Errorf("clip24 lower = %d, want %d", got, -(1 << 23))
	}
}

func TestDecodeResidualLinear(t *testing.T) {
	w := &bitWriter{}
	w.WriteBits(0x2A, 8) // arbitrary 8-bit signed sample
	r := bits.New(w.buf, bits.BigEndian)
	v, err := decodeResidual(r, false, 8, 0)
	if err != nil {
		t.Fatalf("decodeResidual: %v", err)
	}
	if v != 0x2A {
		t.Errorf("decodeResidual = %d, want %d", v, 0x2A)
	}
}

func TestDecodeResidualZeroWidth(t *testing.T) {
	r := bits.New(nil, bits.BigEndian)
	v, err := decodeResidual(r, true, 0, 0)
	if err != nil {
		t.Fatalf("decodeResidual: %v", err)
	}
	if v != 0 {
		t.Errorf("decodeResidual(width=0) = %d, want 0", v)
	}
}

func TestDecodeResidualRiceZigZag(t *testing.T) {
	w := &bitWriter{}
	w.WriteBits(0, 1) // unary terminator immediately (unary=0)
	w.WriteBits(1, 4) // suffix t=1 -> zig-zag decodes to -1
	r := bits.New(w.buf, bits.BigEndian)
	v, err := decodeResidual(r, true, 4, 0)
	if err != nil {
		t.Fatalf("decodeResidual: %v", err)
	}
	if v != -1 {
		t.Errorf("decodeResidual rice = %d, want -1", v)
	}
}

func TestInvertPermutationRoundTrip(t *testing.T) {
	order := []int{2, 0, 1}
	inv := invertPermutation(order)
	for i, v := range order {
		if inv[v] != i {
			t.Errorf("invertPermutation[%d] = %d, want %d", v, inv[v], i)
		}
	}
}

func TestParseNAVISizesAndCRC(t *testing.T) {
	h := &Header{NSegments: 2, SegSizeNbits: 8}
	sets := []*ChannelSet{{NFreqBands: 1}}

	w := &bitWriter{}
	w.WriteBits(10, 8) // segment 0
	w.WriteBits(20, 8) // segment 1
	w.WriteBits(0, 16) // CRC placeholder
	r := bits.New(w.buf, bits.BigEndian)

	nv, err := parseNAVI(r, h, sets)
	if err != nil {
		t.Fatalf("parseNAVI: %v", err)
	}
	if nv.size(0, 0, 0) != 10 || nv.size(0, 1, 0) != 20 {
		t.Errorf("NAVI sizes = %d,%d want 10,20", nv.size(0, 0, 0), nv.size(0, 1, 0))
	}
	if nv.BandSize(0) != 30 {
		t.Errorf("BandSize = %d, want 30", nv.BandSize(0))
	}
}

// bitWriter packs fields MSB-first, matching bits.Reader's big-endian
// bit order, mirroring codec/dca/ext's test helper of the same name.
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
