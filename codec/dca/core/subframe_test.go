/*
NAME
  subframe_test.go

DESCRIPTION
  subframe_test.go contains tests for subframe.go.

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

func TestParseScaleAbsoluteSelectorInRange(t *testing.T) {
	// sel=6 reads a 7-bit absolute index directly, no Huffman delta.
	buf := []byte{0b0000101_0, 0}
	r := bits.New(buf, bits.BigEndian)
	index := 0
	v, err := parseScale(r, &index, 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if index != 5 {
		t.Errorf("index = %d, want 5", index)
	}
	if v == 0 {
		t.Error("expected a nonzero quantized scale factor")
	}
}

func TestParseScaleRejectsOutOfRangeIndex(t *testing.T) {
	// sel=31 reads a 32-bit absolute index, certain to exceed the
	// 128-entry sel>5 table.
	buf := make([]byte, 8)
	for i := range buf {
		buf[i] = 0xff
	}
	r := bits.New(buf, bits.BigEndian)
	index := 0
	if _, err := parseScale(r, &index, 31); err == nil {
		t.Error("expected an error for an out-of-range scale factor index")
	}
}

func TestParseJointScaleBiasesBy64(t *testing.T) {
	// sel=6 reads a 7-bit absolute index of zero, biased to 64 (the
	// joint table's unity-gain entry).
	buf := []byte{0, 0}
	r := bits.New(buf, bits.BigEndian)
	v, err := parseJointScale(r, 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := JointScaleFactors()[64]
	if v != want {
		t.Errorf("got %d, want %d (unity-gain entry)", v, want)
	}
}
