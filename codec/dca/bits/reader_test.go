/*
NAME
  reader_test.go

DESCRIPTION
  reader_test.go contains tests for the bits package.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package bits

import "testing"

func TestReadBitsBigEndian(t *testing.T) {
	// 1000 1111, 1110 0011
	buf := []byte{0x8f, 0xe3}
	r := New(buf, BigEndian)

	tests := []struct {
		n    int
		want uint32
	}{
		{4, 0x8},
		{4, 0xf},
		{8, 0xe3},
	}
	for i, tt := range tests {
		got, err := r.ReadBits(tt.n)
		if err != nil {
			t.Fatalf("test %d: unexpected error: %v", i, err)
		}
		if got != tt.want {
			t.Errorf("test %d: got 0x%x, want 0x%x", i, got, tt.want)
		}
	}
}

func TestReadSigned(t *testing.T) {
	// 4-bit two's complement -1 is 0b1111.
	buf := []byte{0xf0}
	r := New(buf, BigEndian)
	got, err := r.ReadSigned(4)
	if err != nil {
		t.Fatal(err)
	}
	if got != -1 {
		t.Errorf("got %d, want -1", got)
	}
}

func TestTruncated(t *testing.T) {
	r := New([]byte{0xff}, BigEndian)
	if _, err := r.ReadBits(9); err != ErrTruncated {
		t.Errorf("got %v, want ErrTruncated", err)
	}
}

func TestSeekAndAlign(t *testing.T) {
	r := New(make([]byte, 4), BigEndian)
	if err := r.Skip(5); err != nil {
		t.Fatal(err)
	}
	if err := r.AlignTo(8); err != nil {
		t.Fatal(err)
	}
	if r.Pos() != 8 {
		t.Errorf("got pos %d, want 8", r.Pos())
	}
	if err := r.Seek(16); err != nil {
		t.Fatal(err)
	}
	if r.BitsLeft() != 16 {
		t.Errorf("got %d bits left, want 16", r.BitsLeft())
	}
	if err := r.Seek(-1); err == nil {
		t.Error("expected error seeking to negative position")
	}
}

func TestLittleEndianOrder(t *testing.T) {
	// 1000 1111 read LSB-first: first 4 bits are 1111.
	buf := []byte{0x8f}
	r := New(buf, LittleEndian)
	got, err := r.ReadBits(4)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0xf {
		t.Errorf("got 0x%x, want 0xf", got)
	}
}

func TestLookupVLC(t *testing.T) {
	// Two codes: "0" -> 1, "10" -> 2, built at 2 bits wide.
	tbl := BuildVLCTable(2, []uint32{0, 2}, []int{1, 2}, []int32{1, 2})
	r := New([]byte{0b00000000}, BigEndian)
	sym, err := LookupVLC(r, tbl, 1)
	if err != nil {
		t.Fatal(err)
	}
	if sym != 1 {
		t.Errorf("got %d, want 1", sym)
	}

	r2 := New([]byte{0b10100000}, BigEndian)
	sym2, err := LookupVLC(r2, tbl, 1)
	if err != nil {
		t.Fatal(err)
	}
	if sym2 != 2 {
		t.Errorf("got %d, want 2", sym2)
	}
}
