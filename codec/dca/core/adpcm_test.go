/*
NAME
  adpcm_test.go

DESCRIPTION
  adpcm_test.go contains tests for adpcm.go.

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

func TestPredictorCoeffsDeterministic(t *testing.T) {
	a := predictorCoeffs(123)
	b := predictorCoeffs(123)
	if a != b {
		t.Errorf("predictorCoeffs not deterministic: %v != %v", a, b)
	}
}

func TestPredictorCoeffsAddressWraps(t *testing.T) {
	a := predictorCoeffs(5)
	b := predictorCoeffs(5 + AdpcmVQAddresses)
	if a != b {
		t.Errorf("predictorCoeffs should wrap at AdpcmVQAddresses: %v != %v", a, b)
	}
}

func TestPredictZeroHistoryIsZero(t *testing.T) {
	hist := make([]int32, AdpcmCoeffs)
	if got := Predict(0, hist); got != 0 {
		t.Errorf("Predict with zero history = %d, want 0", got)
	}
}

func TestInverseADPCMSkipsSubbandsWithoutPredictionMode(t *testing.T) {
	samples := [][]int32{make([]int32, AdpcmCoeffs+8)}
	for i := range samples[0] {
		samples[0][i] = 7
	}
	vq := []int{0}
	mode := []bool{false}
	InverseADPCM(samples, vq, mode, 0, 1, 0, 8)
	for i := AdpcmCoeffs; i < len(samples[0]); i++ {
		if samples[0][i] != 7 {
			t.Errorf("sample %d mutated despite prediction_mode=false: got %d, want 7", i, samples[0][i])
		}
	}
}

func TestInverseADPCMAppliesWhenEnabled(t *testing.T) {
	samples := [][]int32{make([]int32, AdpcmCoeffs+4)}
	vq := []int{1}
	mode := []bool{true}
	// Non-zero history so the predictor has something to act on.
	samples[0][0], samples[0][1], samples[0][2], samples[0][3] = 1000, 2000, 3000, 4000
	InverseADPCM(samples, vq, mode, 0, 1, 0, 4)
	allZero := true
	for i := AdpcmCoeffs; i < len(samples[0]); i++ {
		if samples[0][i] != 0 {
			allZero = false
		}
	}
	if allZero {
		t.Error("InverseADPCM left all predicted samples at zero despite non-zero history")
	}
}
