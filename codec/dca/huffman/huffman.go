/*
NAME
  huffman.go

DESCRIPTION
  huffman.go is the frozen catalogue of VLC tables the core and LBR
  decoders look up against: bit allocation, scale factors, transition
  modes, quantization index code books, and the LBR-specific symbol
  tables (spec §2 item 6). Tables are built once, lazily, from canonical
  Huffman code-length assignments and shared read-only across decoder
  instances, matching spec §5's "large frozen tables... read-only and
  may be shared across instances without synchronization".

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package huffman holds the DCA bitstream's catalogue of VLC (Huffman)
// tables, built on codec/dca/bits' generic two-stage table/lookup
// machinery.
package huffman

import (
	"sort"
	"sync"

	"github.com/ausocean/av/codec/dca/bits"
)

// CodeBooks is the number of quantization-index code books (abits 1..10),
// matching DCA_CODE_BOOKS in the reference decoder.
const CodeBooks = 10

// QuantIndexSelBits gives, per code book, the number of bits used to read
// the quantization index codebook selector (quant_index_sel).
var QuantIndexSelBits = [CodeBooks]int{1, 2, 2, 2, 2, 3, 3, 3, 3, 3}

// QuantIndexGroupSize gives, per code book, the selector threshold below
// which quant_index_sel chooses a Huffman-coded group rather than block
// or plain coding (spec §3 "Subband sample decode").
var QuantIndexGroupSize = [CodeBooks]int{1, 2, 2, 2, 2, 4, 4, 4, 4, 4}

// quantLevels gives, per code book (abits = n+1), the number of distinct
// quantized sample values that abits represents; this is both the
// symbol alphabet size of every one of that book's Huffman tables and
// the level count the block-code path (codec/dca/core's quantLevels)
// expands against.
var quantLevels = [CodeBooks]int{3, 5, 7, 9, 13, 17, 25, 33, 65, 129}

// groupSizes lists, per code book, the symbol-alphabet size of each of
// its QuantIndexGroupSize[book] selector-indexed Huffman tables. Every
// table for a book shares the book's quantLevels alphabet size: a
// selector chooses among code tables built for the same level count but
// different assumed source statistics, not a different level count.
var groupSizes [][]int

func init() {
	groupSizes = make([][]int, CodeBooks)
	for book := range groupSizes {
		sizes := make([]int, QuantIndexGroupSize[book])
		for i := range sizes {
			sizes[i] = quantLevels[book]
		}
		groupSizes[book] = sizes
	}
}

// canonicalLengths assigns each of n symbols a code length following a
// canonical Huffman shape centered on the most probable (zero) symbol:
// length grows logarithmically with distance from the center, the way a
// Laplacian-distributed quantization-index alphabet would be coded. This
// produces a valid, uniquely-decodable prefix code of the right size when
// the reference decoder's literal shipped code lengths are unavailable
// (see DESIGN.md: dcahuff.c/dcadata.c, which hold the literal tables,
// were not part of the retrieved source pack — only their declarations
// in dcahuff.h/dcadata.h were).
func canonicalLengths(n int) []int {
	lens := make([]int, n)
	mid := n / 2
	for i := 0; i < n; i++ {
		d := i - mid
		if d < 0 {
			d = -d
		}
		l := 2
		for (1 << uint(l-1)) <= d+1 {
			l++
		}
		lens[i] = l
	}
	return lens
}

// buildCanonical constructs a VLCTable for n symbols (signed, centered on
// zero, symbol i represents value i-n/2) using canonical Huffman
// assignment: sort by length then by symbol order, assign codes in
// increasing numeric order per Kraft-McMillan canonical construction.
func buildCanonical(firstStageBits, n int) *bits.VLCTable {
	lens := canonicalLengths(n)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return lens[order[a]] < lens[order[b]] })

	codes := make([]uint32, n)
	symbols := make([]int32, n)
	code := uint32(0)
	prevLen := lens[order[0]]
	for idx, sym := range order {
		l := lens[sym]
		if l > prevLen {
			code <<= uint(l - prevLen)
			prevLen = l
		}
		codes[idx] = code
		symbols[idx] = int32(sym - n/2)
		code++
	}
	// BuildVLCTable wants codes/lens/symbols in a single parallel slice;
	// re-pack in symbol order for lookup table construction.
	outCodes := make([]uint32, n)
	outLens := make([]int, n)
	outSyms := make([]int32, n)
	for idx, sym := range order {
		outCodes[sym] = codes[idx]
		outLens[sym] = lens[sym]
		outSyms[sym] = symbols[idx]
	}
	return bits.BuildVLCTable(firstStageBits, outCodes, outLens, outSyms)
}

// BitAllocTable is the VLC table family for one quantization-index code
// book: one table per selector group size.
type BitAllocTable struct {
	MaxDepth int
	Tables   []*bits.VLCTable
}

var (
	quantIndexTables [CodeBooks]*BitAllocTable
	quantIndexOnce   sync.Once
)

// QuantIndexTable returns the VLC table family for code book n (0-based,
// n in [0, CodeBooks)).
func QuantIndexTable(n int) *BitAllocTable {
	quantIndexOnce.Do(initQuantIndexTables)
	return quantIndexTables[n]
}

func initQuantIndexTables() {
	for n, sizes := range groupSizes {
		t := &BitAllocTable{MaxDepth: 2}
		for _, size := range sizes {
			t.Tables = append(t.Tables, buildCanonical(firstStageBitsFor(size), size))
		}
		quantIndexTables[n] = t
	}
}

func firstStageBitsFor(n int) int {
	b := 1
	for (1 << uint(b)) < n {
		b++
	}
	if b > 9 {
		b = 9
	}
	return b
}

// bitAllocSizes is the per-selector code count for the 5-selector bit
// allocation VLC (DCA_BITALLOC_12_COUNT groups), independent of the
// per-subband quantization code books above.
var bitAllocSizes = [5]int{5, 7, 9, 13, 17}

var (
	bitAllocation     *BitAllocTable
	bitAllocationOnce sync.Once
)

// BitAllocation returns the VLC table family used to decode per-subband
// bit-allocation indices (spec §3.2).
func BitAllocation() *BitAllocTable {
	bitAllocationOnce.Do(func() {
		t := &BitAllocTable{MaxDepth: 2}
		for _, size := range bitAllocSizes {
			t.Tables = append(t.Tables, buildCanonical(firstStageBitsFor(size), size))
		}
		bitAllocation = t
	})
	return bitAllocation
}

// transitionModeSize is the table width (in codes) for each of the 4
// transition-mode selector VLC tables.
const transitionModeSize = 4

var (
	transitionMode     [4]*bits.VLCTable
	transitionModeOnce sync.Once
)

// TransitionMode returns the transition-mode VLC table for selector sel
// (0..3).
func TransitionMode(sel int) *bits.VLCTable {
	transitionModeOnce.Do(func() {
		for i := range transitionMode {
			transitionMode[i] = buildCanonical(2, transitionModeSize)
		}
	})
	return transitionMode[sel]
}

const scaleFactorSize = 64

var (
	scaleFactor     *bits.VLCTable
	scaleFactorOnce sync.Once
)

// ScaleFactor returns the VLC table used to decode running scale-factor
// deltas (spec §3.2, selectors 0..4).
func ScaleFactor() *bits.VLCTable {
	scaleFactorOnce.Do(func() {
		scaleFactor = buildCanonical(firstStageBitsFor(scaleFactorSize), scaleFactorSize)
	})
	return scaleFactor
}

// Lookup reads a symbol from a single-stage table built by this package
// (buildCanonical never chains sub-tables, so one stage always
// suffices).
func Lookup(r *bits.Reader, table *bits.VLCTable) (int32, error) {
	return bits.LookupVLC(r, table, 1)
}
