/*
NAME
  exss_test.go

DESCRIPTION
  exss_test.go contains tests for exss.go.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package exss

import "testing"

// bitWriter packs fields MSB-first, matching bitReader's big-endian
// bit order.
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

func TestParseRejectsInvalidSync(t *testing.T) {
	w := &bitWriter{}
	w.WriteBits(0xdeadbeef, 32)
	if _, err := Parse(w.buf); err == nil {
		t.Error("expected an error for a mismatched EXSS sync word")
	}
}

func TestParseTruncatedHeader(t *testing.T) {
	w := &bitWriter{}
	w.WriteBits(Sync, 32)
	if _, err := Parse(w.buf); err == nil {
		t.Error("expected an error parsing a header truncated after the sync word")
	}
}

// buildMinimalHeader writes a single-asset EXSS header declaring a
// core-only extension_mask, enough to exercise one full pass through
// Parse/assignAssetOffsets.
func buildMinimalHeader(t *testing.T, bodyLen int) []byte {
	t.Helper()
	w := &bitWriter{}
	w.WriteBits(Sync, 32)
	w.WriteBits(0, 8)  // ext_substream_index
	w.WriteBits(0, 2)  // size_nbits code -> 8
	w.WriteBits(uint32(bodyLen-1), 8) // exss_size

	w.WriteBits(1, 1) // static_fields_present
	w.WriteBits(0, 2) // reference_clock_code
	w.WriteBits(0, 3) // exss_frame_duration_code
	w.WriteBits(0, 1) // timestamp flag
	w.WriteBits(0, 3) // npresents -> 1
	w.WriteBits(0, 3) // nassets -> 1
	w.WriteBits(0, 8) // per-presentation active_ext_mask (size_nbits wide)

	// Asset descriptor.
	w.WriteBits(0, 2)   // asset size_nbits code -> 8
	w.WriteBits(0, 8)   // asset descriptor size
	w.WriteBits(31, 5)  // pcm_bit_res -> 32
	w.WriteBits(13, 4)  // max_sample_rate code
	w.WriteBits(1, 8)   // nchannels_total -> 2
	w.WriteBits(0, 1)   // one_to_one_map
	w.WriteBits(0, 1)   // embedded_stereo
	w.WriteBits(0, 1)   // embedded_6ch
	w.WriteBits(0, 1)   // spkr_mask_enabled
	w.WriteBits(0, 3)   // representation_type

	for w.nbit%8 != 0 {
		w.WriteBits(0, 1) // byte alignment before the offset table
	}
	w.WriteBits(ExtCore, 6) // extension_mask
	w.WriteBits(0, 24)      // core_offset
	w.WriteBits(uint32(bodyLen), 20) // core_size

	for w.nbit%8 != 0 {
		w.WriteBits(0, 1)
	}
	for len(w.buf) < bodyLen {
		w.buf = append(w.buf, 0)
	}
	return w.buf
}

func TestParseSingleCoreAsset(t *testing.T) {
	buf := buildMinimalHeader(t, 64)
	h, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(h.Assets) != 1 {
		t.Fatalf("got %d assets, want 1", len(h.Assets))
	}
	a := h.Assets[0]
	if !a.HasExt(ExtCore) {
		t.Error("expected asset to declare the core extension")
	}
	if a.HasExt(ExtXLL) {
		t.Error("did not expect the XLL extension bit to be set")
	}
	if comp := Component(buf, a, ExtCore); comp == nil {
		t.Error("Component returned nil for a declared core extension")
	}
	if comp := Component(buf, a, ExtXLL); comp != nil {
		t.Error("Component returned non-nil for an extension absent from the mask")
	}
}

func TestDispatchOrderFixed(t *testing.T) {
	want := []int{ExtXXCH, ExtXBR, ExtX96, ExtXLL}
	if len(DispatchOrder) != len(want) {
		t.Fatalf("DispatchOrder has %d entries, want %d", len(DispatchOrder), len(want))
	}
	for i, v := range want {
		if DispatchOrder[i] != v {
			t.Errorf("DispatchOrder[%d] = %d, want %d", i, DispatchOrder[i], v)
		}
	}
}
