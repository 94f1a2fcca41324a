/*
NAME
  highfreq_test.go

DESCRIPTION
  highfreq_test.go contains tests for highfreq.go.

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

func TestHighFreqVQSampleDeterministic(t *testing.T) {
	for n := 0; n < HighFreqVQVectorLen; n++ {
		if a, b := highFreqVQSample(42, n), highFreqVQSample(42, n); a != b {
			t.Errorf("position %d not deterministic: %d != %d", n, a, b)
		}
	}
}

func TestHighFreqVQSampleAddressWraps(t *testing.T) {
	for n := 0; n < HighFreqVQVectorLen; n++ {
		a := highFreqVQSample(3, n)
		b := highFreqVQSample(3+HighFreqVQAddresses, n)
		if a != b {
			t.Errorf("position %d should wrap at HighFreqVQAddresses: %d != %d", n, a, b)
		}
	}
}

func TestHighFreqVQDistinctAddressesDiffer(t *testing.T) {
	same := true
	for n := 0; n < HighFreqVQVectorLen; n++ {
		if highFreqVQSample(10, n) != highFreqVQSample(500, n) {
			same = false
			break
		}
	}
	if same {
		t.Error("distinct VQ addresses produced identical envelopes across the whole vector")
	}
}
