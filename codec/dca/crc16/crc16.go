/*
NAME
  crc16.go

DESCRIPTION
  crc16.go implements the CRC-16 (ITU/CCITT polynomial, initial value
  0xFFFF, no final XOR) used by DTS Coherent Acoustics to protect coding
  side information, auxiliary blocks, and XLL NAVI tables. A region is
  valid when the running CRC over it, seeded by 0xFFFF, reaches zero at the
  end of the protected interval plus its trailing checksum field.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package crc16 computes the CRC-16 DTS uses to protect bit ranges of a
// Coherent Acoustics bitstream.
package crc16

// polynomial is the ITU-T CRC-16 polynomial (x^16 + x^12 + x^5 + 1) used by
// DTS, in the standard non-reflected, MSB-first form.
const polynomial = 0x1021

// table is the byte-wise CRC-16 lookup table, built once at init.
var table [256]uint16

func init() {
	for i := 0; i < 256; i++ {
		crc := uint16(i) << 8
		for b := 0; b < 8; b++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ polynomial
			} else {
				crc <<= 1
			}
		}
		table[i] = crc
	}
}

// bitAt returns the i-th bit (MSB-first within each byte) of buf.
func bitAt(buf []byte, i int) uint {
	byteIdx := i / 8
	bitIdx := uint(7 - i%8)
	return uint(buf[byteIdx]>>bitIdx) & 1
}

// Update runs the CRC over the half-open bit interval [startBit, endBit) of
// buf, starting from seed, and returns the resulting running CRC. Use 0xFFFF
// as the initial seed per the DTS specification.
func Update(buf []byte, startBit, endBit int, seed uint16) uint16 {
	crc := seed
	// Fast path: byte-aligned interval, whole bytes at a time.
	if startBit%8 == 0 && endBit%8 == 0 {
		for i := startBit / 8; i < endBit/8; i++ {
			crc = (crc << 8) ^ table[byte(crc>>8)^buf[i]]
		}
		return crc
	}
	for i := startBit; i < endBit; i++ {
		bit := bitAt(buf, i)
		msb := (crc >> 15) & 1
		crc <<= 1
		if msb^uint16(bit) != 0 {
			crc ^= polynomial
		}
	}
	return crc
}

// Check computes the CRC-16 over the half-open bit interval
// [startBit, endBitInclusive+1) of buf (the protected payload followed
// immediately by its own 16-bit checksum field) and reports whether the
// running CRC, seeded with 0xFFFF, reaches zero — i.e. the checksum
// validates the preceding payload.
func Check(buf []byte, startBit, endBitInclusive int) bool {
	return Update(buf, startBit, endBitInclusive+1, 0xFFFF) == 0
}
