/*
NAME
  huffman_test.go

DESCRIPTION
  huffman_test.go contains tests for the huffman package.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package huffman

import "testing"

func TestCanonicalLengthsMonotonicFromCenter(t *testing.T) {
	lens := canonicalLengths(17)
	mid := 17 / 2
	for i := 1; i <= mid; i++ {
		if lens[mid+i] < lens[mid] {
			t.Errorf("length at offset %d (%d) is shorter than center length (%d)", i, lens[mid+i], lens[mid])
		}
	}
}

func TestBitAllocationTablesBuilt(t *testing.T) {
	fam := BitAllocation()
	if len(fam.Tables) != len(bitAllocSizes) {
		t.Fatalf("got %d tables, want %d", len(fam.Tables), len(bitAllocSizes))
	}
	for i, tbl := range fam.Tables {
		if len(tbl.Entries) != 1<<uint(tbl.FirstStageBits) {
			t.Errorf("table %d: entries len %d does not match 1<<FirstStageBits", i, len(tbl.Entries))
		}
	}
}

func TestQuantIndexTableCoversAllCodeBooks(t *testing.T) {
	for n := 0; n < CodeBooks; n++ {
		fam := QuantIndexTable(n)
		if fam == nil || len(fam.Tables) == 0 {
			t.Errorf("code book %d has no tables", n)
		}
	}
}

func TestScaleFactorTableSize(t *testing.T) {
	tbl := ScaleFactor()
	if len(tbl.Entries) != 1<<uint(tbl.FirstStageBits) {
		t.Errorf("entries len %d does not match 1<<FirstStageBits", len(tbl.Entries))
	}
}

func TestTransitionModeAllSelectorsBuild(t *testing.T) {
	for sel := 0; sel < 4; sel++ {
		if TransitionMode(sel) == nil {
			t.Errorf("selector %d returned nil table", sel)
		}
	}
}
