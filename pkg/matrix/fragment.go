package matrix

import (
	"fmt"

	"github.com/parsat/ax25link/pkg/link"
)

// Fragment splits a flat rows*cols*elementSize byte image into ordered
// UI-frame fragments, each length-prefixed, and returns the
// concatenated stream plus the chunk count.
//
// chunkDataSize is the caller's preferred payload size per fragment; it
// is clamped to MaxChunkData. A value <= 0 selects DefaultChunkSize.
func Fragment(codec *link.Codec, image []byte, rows, cols uint16, elementSize uint8, chunkDataSize int) ([]byte, int, error) {
	want := int(rows) * int(cols) * int(elementSize)
	if want != len(image) {
		return nil, 0, fmt.Errorf("matrix: image is %d bytes, rows*cols*element_size wants %d: %w", len(image), want, link.ErrInvalidParam)
	}

	if chunkDataSize <= 0 {
		chunkDataSize = DefaultChunkSize
	}
	if chunkDataSize > MaxChunkData {
		chunkDataSize = MaxChunkData
	}

	total := len(image)
	chunks := 0
	if total > 0 {
		chunks = (total + chunkDataSize - 1) / chunkDataSize
	}

	var out []byte
	offset := 0
	for i := 0; i < chunks; i++ {
		remaining := total - offset
		dataLen := remaining
		if dataLen > chunkDataSize {
			dataLen = chunkDataSize
		}

		hdr := Header{
			TotalChunks: uint16(chunks),
			ChunkIndex:  uint16(i),
			Rows:        rows,
			Cols:        cols,
			DataLen:     uint16(dataLen),
			ElementSize: elementSize,
		}.marshal()

		info := make([]byte, 0, HeaderLen+dataLen)
		info = append(info, hdr[:]...)
		info = append(info, image[offset:offset+dataLen]...)

		wire, err := codec.Encode(info)
		if err != nil {
			return nil, 0, fmt.Errorf("matrix: encoding chunk %d/%d: %w", i, chunks, err)
		}

		out = append(out, byte(len(wire)>>8), byte(len(wire)))
		out = append(out, wire...)

		offset += dataLen
	}

	return out, chunks, nil
}
