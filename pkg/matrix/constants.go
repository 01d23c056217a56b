// Package matrix fragments a flat rows*cols*element_size byte image
// across many AX.25 UI frames and reassembles it on the other end. Each
// fragment's information field carries an 11-byte metadata header ahead
// of its data slice, and the wire frames it produces are concatenated
// behind a 2-byte big-endian length prefix so a receiver can walk the
// stream without a side channel.
package matrix

import "github.com/parsat/ax25link/pkg/link"

// HeaderLen is the size of the metadata record written at the start of
// every fragment's information field: total_chunks, chunk_index, rows,
// cols, data_len (all u16 big-endian), element_size (u8).
const HeaderLen = 11

// MaxChunkData is the largest data slice a single fragment can carry:
// the AX.25 information field ceiling minus the metadata header.
const MaxChunkData = link.MaxInfoLen - HeaderLen

// DefaultChunkSize is the reference target payload size per fragment.
const DefaultChunkSize = 200

// MaxLengthPrefix is the sanity bound the reassembler enforces on each
// fragment's 2-byte length prefix.
const MaxLengthPrefix = 500

// Header is a decoded (or about-to-be-encoded) fragment metadata record.
type Header struct {
	TotalChunks uint16
	ChunkIndex  uint16
	Rows        uint16
	Cols        uint16
	DataLen     uint16
	ElementSize uint8
}

func (h Header) marshal() [HeaderLen]byte {
	var b [HeaderLen]byte
	b[0], b[1] = byte(h.TotalChunks>>8), byte(h.TotalChunks)
	b[2], b[3] = byte(h.ChunkIndex>>8), byte(h.ChunkIndex)
	b[4], b[5] = byte(h.Rows>>8), byte(h.Rows)
	b[6], b[7] = byte(h.Cols>>8), byte(h.Cols)
	b[8], b[9] = byte(h.DataLen>>8), byte(h.DataLen)
	b[10] = h.ElementSize
	return b
}

func unmarshalHeader(b []byte) Header {
	return Header{
		TotalChunks: uint16(b[0])<<8 | uint16(b[1]),
		ChunkIndex:  uint16(b[2])<<8 | uint16(b[3]),
		Rows:        uint16(b[4])<<8 | uint16(b[5]),
		Cols:        uint16(b[6])<<8 | uint16(b[7]),
		DataLen:     uint16(b[8])<<8 | uint16(b[9]),
		ElementSize: b[10],
	}
}
