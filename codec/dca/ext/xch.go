/*
NAME
  xch.go

DESCRIPTION
  xch.go parses the XCH extension (spec §4.6 "XCH"): a single surround
  center (Cs) channel appended to the core substream, riding on the same
  coding-header/subframe-header/subframe-audio machinery as the core
  itself with one extra channel slot.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package ext

import (
	"github.com/pkg/errors"

	"github.com/ausocean/av/codec/dca/bits"
	"github.com/ausocean/av/codec/dca/core"
)

// SyncXCH is the XCH extension's sync word.
const SyncXCH = 0x5A5A5A5A

// ParseXCH parses one XCH channel set appended to ch starting at
// channel index xchBase (the core's own channel count), extending
// ch.NChannels by one and decoding its subband audio into the
// corresponding entry of subbands; lfe is not written (spec §4.6 "XCH: single Cs
// channel appended; rejects cases where Cs is already present"). The
// caller is responsible for checking the Cs speaker is not already
// present in the core mask before calling this.
func ParseXCH(r *bits.Reader, ch *core.CodingHeader, h *core.FrameHeader, subbands []*core.ChannelSubbands, lfe []int32, xchBase int) error {
	ch.NChannels = xchBase + 1

	if err := core.ParseCodingHeader(r, ch, h, xchBase, false); err != nil {
		return errors.Wrap(err, "xch: coding header")
	}

	subPos, lfePos := 0, 0
	for sf := 0; sf < ch.NSubframes; sf++ {
		si := &core.SubframeSideInfo{}
		if err := core.ParseSubframeHeader(r, si, ch, h, false, xchBase); err != nil {
			return errors.Wrap(err, "xch: subframe header")
		}
		if err := core.ParseSubframeAudio(r, subbands, lfe, si, ch, h, false, false, xchBase, &subPos, &lfePos); err != nil {
			return errors.Wrap(err, "xch: subframe audio")
		}
	}

	// Seek to the end of the core frame rather than trusting any XCH
	// size field -- the reference decoder does the same, since XCH
	// carries no frame-size field of its own and instead always fills
	// out the remainder of the core frame.
	if err := r.Seek(h.FrameSize * 8); err != nil {
		return errors.Wrap(ErrTruncated, "xch: seek to end of core frame")
	}

	return nil
}
