/*
NAME
  vlc.go

DESCRIPTION
  vlc.go implements a generic two-stage variable-length-code (Huffman) table
  lookup consumed by every frozen DCA Huffman table in codec/dca/huffman.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package bits

import "github.com/pkg/errors"

// ErrInvalidVLC is returned when a VLC table yields no match within its
// configured maximum depth.
var ErrInvalidVLC = errors.New("bits: no matching VLC code within max depth")

// VLCEntry is one row of a flattened first-stage VLC table: a code of
// CodeLen bits maps to Symbol, or, when CodeLen is zero, to a second-stage
// sub-table reached via Sub.
type VLCEntry struct {
	CodeLen int // number of bits this entry consumes; 0 means "see Sub"
	Symbol  int32
	Sub     *VLCTable
}

// VLCTable is a single stage of a VLC lookup: FirstStageBits is the number
// of bits consumed to index into Entries, which has 1<<FirstStageBits rows.
type VLCTable struct {
	FirstStageBits int
	Entries        []VLCEntry
}

// LookupVLC reads a symbol from r using table, descending through chained
// sub-tables up to maxDepth stages. It returns ErrInvalidVLC if no entry
// resolves within that many stages.
func LookupVLC(r *Reader, table *VLCTable, maxDepth int) (int32, error) {
	t := table
	for depth := 0; depth < maxDepth; depth++ {
		idx, err := r.PeekBits(t.FirstStageBits)
		if err != nil {
			return 0, err
		}
		if int(idx) >= len(t.Entries) {
			return 0, ErrInvalidVLC
		}
		e := t.Entries[idx]
		if e.CodeLen > 0 {
			if err := r.Skip(e.CodeLen); err != nil {
				return 0, err
			}
			return e.Symbol, nil
		}
		if e.Sub == nil {
			return 0, ErrInvalidVLC
		}
		if err := r.Skip(t.FirstStageBits); err != nil {
			return 0, err
		}
		t = e.Sub
	}
	return 0, ErrInvalidVLC
}

// BuildVLCTable constructs a single-stage VLCTable from a canonical
// (code, length, symbol) triple list, as used by codec/dca/huffman's
// procedurally built canonical tables. codes must all have length <=
// firstStageBits; BuildVLCTable builds no chained sub-tables.
func BuildVLCTable(firstStageBits int, codes []uint32, lens []int, symbols []int32) *VLCTable {
	t := &VLCTable{
		FirstStageBits: firstStageBits,
		Entries:        make([]VLCEntry, 1<<uint(firstStageBits)),
	}
	for i, code := range codes {
		l := lens[i]
		pad := firstStageBits - l
		base := code << uint(pad)
		for fill := uint32(0); fill < (1 << uint(pad)); fill++ {
			t.Entries[base|fill] = VLCEntry{CodeLen: l, Symbol: symbols[i]}
		}
	}
	return t
}
