/*
NAME
  fixed_test.go

DESCRIPTION
  fixed_test.go contains tests for the fixed package.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package fixed

import "testing"

func TestClip23(t *testing.T) {
	tests := []struct {
		in, want int32
	}{
		{0, 0},
		{Max23, Max23},
		{Max23 + 1, Max23},
		{Min23, Min23},
		{Min23 - 1, Min23},
		{1 << 30, Max23},
		{-(1 << 30), Min23},
	}
	for _, tt := range tests {
		if got := Clip23(tt.in); got != tt.want {
			t.Errorf("Clip23(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestNormK(t *testing.T) {
	if got := NormK(100, 0); got != 100 {
		t.Errorf("NormK(100,0) = %d, want 100", got)
	}
	// 5/4 = 1.25 rounds to 1 at shift 2: (5+2)>>2 = 1.
	if got := NormK(5, 2); got != 1 {
		t.Errorf("NormK(5,2) = %d, want 1", got)
	}
	if got := NormK(-5, 2); got != -1 {
		t.Errorf("NormK(-5,2) = %d, want -1", got)
	}
}

func TestMul23RoundsToNearest(t *testing.T) {
	// (1<<23) * 2 should normalize back to 2 via the 23-bit shift.
	got := Mul23(1<<23, 2)
	if got != 2 {
		t.Errorf("Mul23 = %d, want 2", got)
	}
}

func TestRoundMasksLowBits(t *testing.T) {
	got := Round(0b1011, 2)
	if got&0b11 != 0 {
		t.Errorf("Round result %b has nonzero low bits", got)
	}
}
