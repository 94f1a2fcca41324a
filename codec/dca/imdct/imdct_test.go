/*
NAME
  imdct_test.go

DESCRIPTION
  imdct_test.go contains tests for the imdct package.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package imdct

import (
	"math"
	"testing"
)

func TestHalfFixedZeroInputIsZeroOutput(t *testing.T) {
	var in, out [32]int32
	out = FixedContext{}.Half32(out, in)
	for i, v := range out {
		if v != 0 {
			t.Errorf("out[%d] = %d, want 0 for zero input", i, v)
		}
	}
}

func TestHalfFixedSaturates(t *testing.T) {
	var in [32]int32
	for i := range in {
		in[i] = 1 << 22
	}
	var out [32]int32
	out = FixedContext{}.Half32(out, in)
	for i, v := range out {
		if v > (1<<23-1) || v < -(1<<23) {
			t.Errorf("out[%d] = %d escaped the 23-bit clip range", i, v)
		}
	}
}

func TestHalfFloatZeroInputIsZeroOutput(t *testing.T) {
	var in [32]float64
	out, err := FloatContext{}.Half32(in)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range out {
		if math.Abs(v) > 1e-9 {
			t.Errorf("out[%d] = %v, want ~0 for zero input", i, v)
		}
	}
}

func TestHalfFloat64RunsWithoutError(t *testing.T) {
	var in [64]float64
	in[0] = 1.0
	if _, err := (FloatContext{}).Half64(in); err != nil {
		t.Fatal(err)
	}
}
