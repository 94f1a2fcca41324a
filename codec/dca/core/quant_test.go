/*
NAME
  quant_test.go

DESCRIPTION
  quant_test.go contains tests for quant.go.

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

func TestStepSizeDecreasesWithAbits(t *testing.T) {
	prev := StepSize(0, false)
	for n := 1; n < 32; n++ {
		cur := StepSize(n, false)
		if cur > prev {
			t.Errorf("abits=%d step size %d exceeds abits=%d step size %d", n, cur, n-1, prev)
		}
		prev = cur
	}
}

func TestStepSizeInRange(t *testing.T) {
	for n := 0; n < 32; n++ {
		if v := StepSize(n, false); v < 1 {
			t.Errorf("abits=%d step size %d below 1", n, v)
		}
		if v := StepSize(n, true); v < 1 {
			t.Errorf("abits=%d lossless step size %d below 1", n, v)
		}
	}
}

func TestDequantizeZeroInputIsZero(t *testing.T) {
	in := []int32{0, 0, 0}
	out := make([]int32, len(in))
	Dequantize(out, in, StepSize(10, false), 1<<scaleFactorShift, false)
	for i, v := range out {
		if v != 0 {
			t.Errorf("output[%d] = %d, want 0", i, v)
		}
	}
}

func TestDequantizeResidualAccumulates(t *testing.T) {
	out := []int32{100}
	in := []int32{0}
	Dequantize(out, in, StepSize(10, false), 1<<scaleFactorShift, true)
	if out[0] != 100 {
		t.Errorf("residual accumulation changed unrelated value: got %d, want 100", out[0])
	}
}

func TestDequantizeScalesWithStepSize(t *testing.T) {
	in := []int32{4}
	lo := make([]int32, 1)
	hi := make([]int32, 1)
	Dequantize(lo, in, StepSize(31, false), 1<<scaleFactorShift, false)
	Dequantize(hi, in, StepSize(4, false), 1<<scaleFactorShift, false)
	if hi[0] <= lo[0] {
		t.Errorf("larger step size (lower abits) should scale up the output more: lo=%d hi=%d", lo[0], hi[0])
	}
}
