/*
NAME
  audio_test.go

DESCRIPTION
  audio_test.go contains tests for audio.go.

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

func TestDecodeBlockCodesZeroIsValid(t *testing.T) {
	levels := quantLevels[0]
	offset := uint32((levels - 1) / 2)
	// Every residual digit equal to offset divides to exactly zero.
	var code1, code2 uint32
	for n := 0; n < SubbandSamples/2; n++ {
		code1 = code1*uint32(levels) + offset
		code2 = code2*uint32(levels) + offset
	}
	vals, ok := decodeBlockCodes(code1, code2, levels)
	if !ok {
		t.Fatal("expected valid decode for all-offset codewords")
	}
	for i, v := range vals {
		if v != 0 {
			t.Errorf("sample %d = %d, want 0", i, v)
		}
	}
}

func TestDecodeBlockCodesInvalidResidual(t *testing.T) {
	_, ok := decodeBlockCodes(0xffffffff, 0xffffffff, quantLevels[0])
	if ok {
		t.Error("expected invalid decode for overflowing codewords")
	}
}

func TestExtractAudioZeroAbits(t *testing.T) {
	r := bits.New(nil, bits.BigEndian)
	samples, huff, err := extractAudio(r, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if huff {
		t.Error("abits=0 should not report huffmanCoded")
	}
	for i, v := range samples {
		if v != 0 {
			t.Errorf("sample %d = %d, want 0", i, v)
		}
	}
}

func TestExtractAudioLinearPath(t *testing.T) {
	// abits=12 exceeds huffman.CodeBooks (10), forcing the linear path,
	// which reads SubbandSamples signed (abits-3)-bit values.
	buf := make([]byte, 64)
	r := bits.New(buf, bits.BigEndian)
	samples, huff, err := extractAudio(r, 12, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if huff {
		t.Error("linear path should not report huffmanCoded")
	}
	if len(samples) != SubbandSamples {
		t.Errorf("got %d samples, want %d", len(samples), SubbandSamples)
	}
}

func TestDecodeJointSubbandScalesSource(t *testing.T) {
	dst := NewChannelSubbands(8)
	src := NewChannelSubbands(8)
	for n := 0; n < 8; n++ {
		src.Samples[2][AdpcmCoeffs+n] = 1000
	}
	jointScale := make([]uint32, SubbandsMax)
	jointScale[2] = 1 << scaleFactorShift
	decodeJointSubband(dst, src, jointScale, 2, 3, 0, 8)
	for n := 0; n < 8; n++ {
		if dst.Samples[2][AdpcmCoeffs+n] == 0 {
			t.Errorf("sample %d not copied from source channel", n)
		}
	}
}
