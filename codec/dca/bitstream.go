/*
NAME
  bitstream.go

DESCRIPTION
  bitstream.go normalizes an access unit into canonical big-endian
  16-bit-word form before core parsing (spec §4.10 step 1; spec §8
  "round-trip of bitstream-conversion"). Ported from
  avpriv_dca_convert_bitstream's four-sync-word switch: raw big-endian
  passes through unchanged, raw little-endian is byte-swapped in
  16-bit words, and the two 14-bit-packed forms are unpacked 14 bits
  at a time and repacked into 16-bit big-endian words.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package dca

import (
	"github.com/ausocean/av/codec/dca/core"
)

const (
	syncCoreBE  = core.SyncCoreBE
	syncCoreLE  = 0xFE7F0180
	syncCore14BE = 0x1FFFE800
	syncCore14LE = 0xFF1F00E8
)

// ConvertBitstream inspects buf's leading 32-bit sync word and
// normalizes it to canonical big-endian 16-bit-word form, returning a
// freshly allocated buffer for the raw-LE and 14-bit forms (the BE
// form is returned unmodified, since the caller's buf is borrowed and
// must not be mutated in place).
func ConvertBitstream(buf []byte) ([]byte, error) {
	if len(buf) < 4 {
		return nil, ErrInvalidData
	}
	mrk := beUint32(buf)
	switch mrk {
	case syncCoreBE:
		return buf, nil
	case syncCoreLE:
		return swap16(buf), nil
	case syncCore14BE, syncCore14LE:
		return unpack14(buf, mrk == syncCore14BE), nil
	default:
		return nil, ErrInvalidData
	}
}

// swap16 returns a copy of buf with each 16-bit little-endian word
// byte-swapped into big-endian order.
func swap16(buf []byte) []byte {
	out := make([]byte, len(buf))
	copy(out, buf)
	n := len(out) &^ 1
	for i := 0; i < n; i += 2 {
		out[i], out[i+1] = out[i+1], out[i]
	}
	return out
}

// unpack14 reads buf 16 bits at a time, keeps only the low 14 bits of
// each word (in the byte order bigEndian selects), and repacks the
// stream of 14-bit values into contiguous 16-bit big-endian words,
// mirroring avpriv_dca_convert_bitstream's PutBitContext loop.
func unpack14(buf []byte, bigEndian bool) []byte {
	nwords := len(buf) / 2
	w := newBitPacker(nwords * 14 / 8 + 2)
	for i := 0; i < nwords; i++ {
		hi, lo := buf[2*i], buf[2*i+1]
		var word uint16
		if bigEndian {
			word = uint16(hi)<<8 | uint16(lo)
		} else {
			word = uint16(lo)<<8 | uint16(hi)
		}
		w.put(uint32(word&0x3FFF), 14)
	}
	return w.bytes()
}

// bitPacker accumulates big-endian bits MSB-first into a byte buffer,
// the inverse of codec/dca/bits.Reader, used only for the 14-bit
// repacking step above.
type bitPacker struct {
	buf  []byte
	nbit int
}

func newBitPacker(capacity int) *bitPacker {
	return &bitPacker{buf: make([]byte, 0, capacity)}
}

func (w *bitPacker) put(v uint32, n int) {
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

func (w *bitPacker) bytes() []byte {
	return w.buf
}
