/*
NAME
  reader.go

DESCRIPTION
  reader.go provides a bit-oriented cursor over a borrowed byte slice for
  parsing DTS Coherent Acoustics bitstreams. Unlike the io.Reader-based
  bits.BitReader used by the h264 decoder, the DCA bitstream formats require
  absolute seeking (for extension-sync backtracking and CRC verification
  over an already-read range) so the reader holds the whole access unit in
  memory and tracks a bit cursor into it.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package bits provides a forward bit-oriented cursor over a borrowed byte
// buffer, used by the DCA core, extension and EXSS parsers. It supports
// both the big-endian bit order of the core substream and the little-endian
// order used by LBR chunks.
package bits

import (
	"github.com/pkg/errors"
)

// ErrTruncated is returned whenever a read would consume more bits than
// remain in the buffer.
var ErrTruncated = errors.New("bits: truncated read past end of buffer")

// Order selects the bit order a Reader interprets its buffer in.
type Order int

const (
	// BigEndian is the bit order used by the DCA core substream, EXSS and
	// all extensions riding on the core.
	BigEndian Order = iota
	// LittleEndian is the bit order used by LBR chunks.
	LittleEndian
)

// Reader is a forward bit cursor over a byte slice that is borrowed, not
// owned, by the Reader. The zero value is not usable; construct with New.
type Reader struct {
	buf   []byte
	order Order
	pos   int // bit position from the start of buf
	total int // total number of bits in buf
}

// New returns a Reader over buf using the given bit Order. buf is not
// copied; the caller must keep it alive and unmodified for the Reader's
// lifetime.
func New(buf []byte, order Order) *Reader {
	return &Reader{buf: buf, order: order, total: len(buf) * 8}
}

// BitsLeft returns the number of bits remaining before the end of the
// buffer.
func (r *Reader) BitsLeft() int {
	return r.total - r.pos
}

// Pos returns the current absolute bit position.
func (r *Reader) Pos() int {
	return r.pos
}

// Len returns the total number of bits addressable by the Reader.
func (r *Reader) Len() int {
	return r.total
}

// bitAt returns the i-th bit of buf in the Reader's configured order, where
// i is an absolute bit index from the start of the buffer.
func (r *Reader) bitAt(i int) uint {
	switch r.order {
	case LittleEndian:
		byteIdx := i / 8
		bitIdx := uint(i % 8) // LSB first within each byte
		return uint(r.buf[byteIdx]>>bitIdx) & 1
	default: // BigEndian
		byteIdx := i / 8
		bitIdx := uint(7 - i%8) // MSB first within each byte
		return uint(r.buf[byteIdx]>>bitIdx) & 1
	}
}

// ReadBits reads the next n bits (1..=32) and returns them as the
// least-significant bits of a uint32 in the Reader's bit order.
func (r *Reader) ReadBits(n int) (uint32, error) {
	if n < 0 || n > 32 {
		return 0, errors.Errorf("bits: invalid width %d", n)
	}
	if n == 0 {
		return 0, nil
	}
	if r.pos+n > r.total {
		return 0, ErrTruncated
	}
	var v uint32
	for i := 0; i < n; i++ {
		v = (v << 1) | uint32(r.bitAt(r.pos+i))
	}
	r.pos += n
	return v, nil
}

// ReadSigned reads n bits (1..=32) as a two's-complement signed value.
func (r *Reader) ReadSigned(n int) (int32, error) {
	u, err := r.ReadBits(n)
	if err != nil {
		return 0, err
	}
	if n == 32 {
		return int32(u), nil
	}
	if u&(1<<uint(n-1)) != 0 {
		return int32(u) - (1 << uint(n)), nil
	}
	return int32(u), nil
}

// ReadBool reads a single bit and reports whether it was set.
func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadBits(1)
	return v != 0, err
}

// Skip advances the cursor by n bits without interpreting them.
func (r *Reader) Skip(n int) error {
	if n < 0 {
		return errors.Errorf("bits: negative skip %d", n)
	}
	if r.pos+n > r.total {
		return ErrTruncated
	}
	r.pos += n
	return nil
}

// AlignTo advances the cursor to the next position that is a multiple of k
// bits (k is typically 8 for byte alignment, or 4 for nibble alignment). If
// the cursor is already aligned, AlignTo is a no-op.
func (r *Reader) AlignTo(k int) error {
	rem := r.pos % k
	if rem == 0 {
		return nil
	}
	return r.Skip(k - rem)
}

// Seek moves the cursor to an absolute bit position, which must lie within
// [0, Len()].
func (r *Reader) Seek(pos int) error {
	if pos < 0 || pos > r.total {
		return errors.Errorf("bits: seek position %d out of range [0,%d]", pos, r.total)
	}
	r.pos = pos
	return nil
}

// PeekBits returns the next n bits without advancing the cursor.
func (r *Reader) PeekBits(n int) (uint32, error) {
	save := r.pos
	v, err := r.ReadBits(n)
	r.pos = save
	return v, err
}

// Bytes returns the underlying borrowed buffer.
func (r *Reader) Bytes() []byte {
	return r.buf
}
