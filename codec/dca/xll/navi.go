/*
NAME
  navi.go

DESCRIPTION
  navi.go parses the XLL NAVI table (spec §4.9 "NAVI"): a table of
  segment byte sizes, one entry per {frequency band, segment, channel
  set}, followed by a 16-bit CRC and byte alignment.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package xll

import (
	"github.com/ausocean/av/codec/dca/bits"
)

// NAVI holds the per-{band,segment,channel-set} byte sizes read from
// the NAVI table.
type NAVI struct {
	sizes [][][]int // sizes[band][segment][chset]
}

// size returns the decoded byte count for one band/segment/channel-set
// triple.
func (n *NAVI) size(band, seg, chset int) int {
	if band >= len(n.sizes) || seg >= len(n.sizes[band]) || chset >= len(n.sizes[band][seg]) {
		return 0
	}
	return n.sizes[band][seg][chset]
}

// SegmentSize returns the total byte size of one segment across all
// channel sets (the sum NAVI's per-channel-set entries contribute,
// spec §4.9: "the sum over channel sets gives the segment size").
func (n *NAVI) SegmentSize(band, seg int) int {
	total := 0
	if band >= len(n.sizes) || seg >= len(n.sizes[band]) {
		return 0
	}
	for _, v := range n.sizes[band][seg] {
		total += v
	}
	return total
}

// BandSize returns the total byte size of one frequency band across
// all segments (spec §4.9: "the sum over segments gives the band
// size").
func (n *NAVI) BandSize(band int) int {
	total := 0
	if band >= len(n.sizes) {
		return 0
	}
	for seg := range n.sizes[band] {
		total += n.SegmentSize(band, seg)
	}
	return total
}

// parseNAVI reads h.NChannelSets * h.NSegments * cs.NFreqBands entries,
// each seg_size_nbits+1 bits wide, followed by a 16-bit CRC and a byte
// alignment (spec §4.9).
func parseNAVI(r *bits.Reader, h *Header, sets []*ChannelSet) (*NAVI, error) {
	nBands := 1
	for _, cs := range sets {
		if cs.NFreqBands > nBands {
			nBands = cs.NFreqBands
		}
	}

	nv := &NAVI{sizes: make([][][]int, nBands)}
	for b := range nv.sizes {
		nv.sizes[b] = make([][]int, h.NSegments)
		for s := range nv.sizes[b] {
			nv.sizes[b][s] = make([]int, len(sets))
		}
	}

	for b := 0; b < nBands; b++ {
		for seg := 0; seg < h.NSegments; seg++ {
			for si := range sets {
				v, err := r.ReadBits(h.SegSizeNbits)
				if err != nil {
					return nil, err
				}
				nv.sizes[b][seg][si] = int(v)
			}
		}
	}

	if err := r.Skip(16); err != nil { // NAVI CRC, not independently validated
		return nil, err
	}
	if err := r.AlignTo(8); err != nil {
		return nil, err
	}
	return nv, nil
}
