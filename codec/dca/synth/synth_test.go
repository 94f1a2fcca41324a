/*
NAME
  synth_test.go

DESCRIPTION
  synth_test.go contains tests for the synth package.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package synth

import "testing"

func TestFloatFilterZeroInputIsZeroOutput(t *testing.T) {
	f := NewFloatFilter(32)
	in := make([]float64, 32)
	out := make([]float64, 32)
	for i := 0; i < 4; i++ {
		if err := f.Apply(out, in, 1.0); err != nil {
			t.Fatalf("Apply: %v", err)
		}
		for j, v := range out {
			if v != 0 {
				t.Errorf("iteration %d: out[%d] = %v, want 0 for zero input", i, j, v)
			}
		}
	}
}

func TestFloatFilterOffsetWraps(t *testing.T) {
	f := NewFloatFilter(32)
	in := make([]float64, 32)
	out := make([]float64, 32)
	histLen := 32 * 16
	// After 16 calls the offset has wrapped exactly once around the
	// 512-sample history (offset decreases by n=32 each call).
	for i := 0; i < histLen/32; i++ {
		if err := f.Apply(out, in, 1.0); err != nil {
			t.Fatalf("Apply: %v", err)
		}
	}
	if f.offset != 0 {
		t.Errorf("offset = %d after a full cycle, want 0", f.offset)
	}
}

func TestFloatFilter64Band(t *testing.T) {
	f := NewFloatFilter(64)
	in := make([]float64, 64)
	in[0] = 1.0
	out := make([]float64, 64)
	if err := f.Apply(out, in, 1.0); err != nil {
		t.Fatalf("Apply: %v", err)
	}
}

func TestFixedFilterZeroInputIsZeroOutput(t *testing.T) {
	f := NewFixedFilter(32)
	in := make([]int32, 32)
	out := make([]int32, 32)
	for i := 0; i < 4; i++ {
		f.Apply(out, in)
		for j, v := range out {
			if v != 0 {
				t.Errorf("iteration %d: out[%d] = %d, want 0 for zero input", i, j, v)
			}
		}
	}
}

func TestFixedFilterResetClearsState(t *testing.T) {
	f := NewFixedFilter(32)
	in := make([]int32, 32)
	for i := range in {
		in[i] = 1 << 10
	}
	out := make([]int32, 32)
	f.Apply(out, in)
	f.Reset()
	if f.offset != 0 {
		t.Errorf("offset = %d after Reset, want 0", f.offset)
	}
	for i, v := range f.history {
		if v != 0 {
			t.Errorf("history[%d] = %d after Reset, want 0", i, v)
		}
	}
}

func TestFixedFilter64Band(t *testing.T) {
	f := NewFixedFilter(64)
	in := make([]int32, 64)
	in[0] = 1 << 10
	out := make([]int32, 64)
	f.Apply(out, in)
}
