// Package crc computes the AX.25 frame check sequence.
//
// AX.25 uses CRC-16/X-25: polynomial 0x1021, both input and output
// reflected, init 0xFFFF, final XOR 0xFFFF. That is exactly the catalog
// entry github.com/sigurn/crc16 calls CRC16_X_25, so the table and the
// bit-reflection bookkeeping are delegated to it rather than hand-rolled.
package crc

import "github.com/sigurn/crc16"

var table = crc16.MakeTable(crc16.CRC16_X_25)

// FCS computes the 16-bit AX.25 frame check sequence over buf.
//
// The result is ready to split MSB-first (high byte, then low byte) for
// the wire, per the frame layout in the link package.
func FCS(buf []byte) uint16 {
	return crc16.Checksum(buf, table)
}

// Verify reports whether the last two bytes of buf (high byte first) are
// the correct FCS for the bytes preceding them. buf must be at least 2
// bytes long.
func Verify(buf []byte) bool {
	if len(buf) < 2 {
		return false
	}
	body := buf[:len(buf)-2]
	want := FCS(body)
	got := uint16(buf[len(buf)-2])<<8 | uint16(buf[len(buf)-1])
	return want == got
}
