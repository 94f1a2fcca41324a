/*
NAME
  crc16_test.go

DESCRIPTION
  crc16_test.go contains tests for the crc16 package.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package crc16

import "testing"

// TestCheckSelfConsistent verifies that appending the CRC computed over a
// payload to that payload makes Check report success, regardless of the
// payload's content — the defining property of the algorithm, independent
// of any specific third-party vector.
func TestCheckSelfConsistent(t *testing.T) {
	payloads := [][]byte{
		{0x00, 0x00},
		{0xff, 0xff, 0xff},
		{0x12, 0x34, 0x56, 0x78, 0x9a},
		{0xde, 0xad, 0xbe, 0xef},
	}
	for _, p := range payloads {
		crc := Update(p, 0, len(p)*8, 0xFFFF)
		buf := append(append([]byte{}, p...), byte(crc>>8), byte(crc))
		if !Check(buf, 0, len(buf)*8-1) {
			t.Errorf("Check failed for payload %x with computed crc %04x", p, crc)
		}
		// Corrupting a byte must break the check.
		buf[0] ^= 0xff
		if Check(buf, 0, len(buf)*8-1) {
			t.Errorf("Check unexpectedly passed for corrupted payload %x", p)
		}
	}
}

func TestUpdateByteAlignedMatchesBitwise(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	fast := Update(buf, 0, len(buf)*8, 0xFFFF)

	// Force the bitwise path by splitting the whole buffer at a
	// non-multiple-of-8 bit boundary, so each half runs bit by bit.
	slow := Update(buf, 0, 4, 0xFFFF)
	slow = Update(buf, 4, len(buf)*8, slow)
	if fast != slow {
		t.Errorf("byte-aligned and bitwise paths disagree: %04x vs %04x", fast, slow)
	}
}
