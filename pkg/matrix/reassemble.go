package matrix

import (
	"fmt"

	"github.com/parsat/ax25link/pkg/link"
)

// Reassemble walks a length-prefixed fragment stream produced by
// Fragment, decodes each frame, and concatenates the payload bytes in
// order. It assumes the stream is complete and in order; reordering- or
// loss-tolerant reassembly is out of scope.
//
// chunk_index is checked against the loop position and rows/cols/
// element_size are checked against the first chunk's values on every
// subsequent chunk; a mismatch signals stream corruption and aborts the
// whole reassembly rather than returning a partial image.
func Reassemble(codec *link.Codec, stream []byte, totalChunks int) (image []byte, rows, cols uint16, elementSize uint8, err error) {
	pos := 0
	latched := false

	for i := 0; i < totalChunks; i++ {
		if pos+2 > len(stream) {
			err = fmt.Errorf("matrix: truncated length prefix before chunk %d: %w", i, link.ErrDecodeDesync)
			return
		}
		length := int(stream[pos])<<8 | int(stream[pos+1])
		pos += 2
		if length <= 0 || length > MaxLengthPrefix {
			err = fmt.Errorf("matrix: chunk %d length %d out of range (0, %d]: %w", i, length, MaxLengthPrefix, link.ErrDecodeDesync)
			return
		}
		if pos+length > len(stream) {
			err = fmt.Errorf("matrix: chunk %d claims %d bytes, only %d remain: %w", i, length, len(stream)-pos, link.ErrDecodeDesync)
			return
		}

		decoded, decErr := codec.Recv(stream[pos : pos+length])
		pos += length
		if decErr != nil {
			err = fmt.Errorf("matrix: decoding chunk %d: %w", i, decErr)
			return
		}
		if len(decoded) < link.HeaderLen+HeaderLen {
			err = fmt.Errorf("matrix: chunk %d decoded to %d bytes, want at least %d: %w", i, len(decoded), link.HeaderLen+HeaderLen, link.ErrDecodeDesync)
			return
		}

		info := decoded[link.HeaderLen:]
		hdr := unmarshalHeader(info)

		if int(hdr.ChunkIndex) != i {
			err = fmt.Errorf("matrix: chunk %d carries chunk_index %d: %w", i, hdr.ChunkIndex, link.ErrDecodeDesync)
			return
		}
		if !latched {
			rows, cols, elementSize = hdr.Rows, hdr.Cols, hdr.ElementSize
			latched = true
		} else if hdr.Rows != rows || hdr.Cols != cols || hdr.ElementSize != elementSize {
			err = fmt.Errorf("matrix: chunk %d shape %dx%dx%d does not match latched %dx%dx%d: %w",
				i, hdr.Rows, hdr.Cols, hdr.ElementSize, rows, cols, elementSize, link.ErrDecodeDesync)
			return
		}
		if int(HeaderLen)+int(hdr.DataLen) > len(info) {
			err = fmt.Errorf("matrix: chunk %d claims data_len %d, info field only has %d bytes: %w", i, hdr.DataLen, len(info)-HeaderLen, link.ErrDecodeDesync)
			return
		}

		image = append(image, info[HeaderLen:HeaderLen+int(hdr.DataLen)]...)
	}

	return image, rows, cols, elementSize, nil
}
