package matrix

import (
	"bytes"
	"errors"
	"testing"

	"github.com/parsat/ax25link/pkg/link"
)

func testCodec(t *testing.T) *link.Codec {
	t.Helper()
	c, err := link.NewCodec("ABCD", 0, "PARSAT", 0)
	if err != nil {
		t.Fatalf("link.NewCodec() error = %v", err)
	}
	return c
}

// A 5x5 uint8_t matrix M[i][j] = 5i+j is well under one chunk's data
// ceiling, so it must fragment into exactly one fragment and reassemble
// byte-identical.
func Test5x5MatrixSingleFragmentRoundTrip(t *testing.T) {
	codec := testCodec(t)

	image := make([]byte, 25)
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			image[i*5+j] = byte(5*i + j)
		}
	}

	stream, chunks, err := Fragment(codec, image, 5, 5, 1, DefaultChunkSize)
	if err != nil {
		t.Fatalf("Fragment() error = %v", err)
	}
	if chunks != 1 {
		t.Fatalf("chunks = %d, want 1", chunks)
	}

	got, rows, cols, elem, err := Reassemble(codec, stream, chunks)
	if err != nil {
		t.Fatalf("Reassemble() error = %v", err)
	}
	if rows != 5 || cols != 5 || elem != 1 {
		t.Errorf("shape = %dx%dx%d, want 5x5x1", rows, cols, elem)
	}
	if !bytes.Equal(got, image) {
		t.Errorf("Reassemble() = % X, want % X", got, image)
	}
}

func TestFragmentReassemble_MultiChunkRoundTrip(t *testing.T) {
	codec := testCodec(t)

	rows, cols := uint16(20), uint16(30)
	image := make([]byte, int(rows)*int(cols))
	for i := range image {
		image[i] = byte(i)
	}

	stream, chunks, err := Fragment(codec, image, rows, cols, 1, 64)
	if err != nil {
		t.Fatalf("Fragment() error = %v", err)
	}
	if chunks < 2 {
		t.Fatalf("expected multiple chunks for a 600-byte image with 64-byte chunks, got %d", chunks)
	}

	got, gotRows, gotCols, gotElem, err := Reassemble(codec, stream, chunks)
	if err != nil {
		t.Fatalf("Reassemble() error = %v", err)
	}
	if gotRows != rows || gotCols != cols || gotElem != 1 {
		t.Errorf("shape = %dx%dx%d, want %dx%dx1", gotRows, gotCols, gotElem, rows, cols)
	}
	if !bytes.Equal(got, image) {
		t.Errorf("reassembled image mismatch, got %d bytes want %d", len(got), len(image))
	}
}

func TestFragment_RejectsShapeMismatch(t *testing.T) {
	codec := testCodec(t)
	_, _, err := Fragment(codec, make([]byte, 10), 5, 5, 1, DefaultChunkSize)
	if !errors.Is(err, link.ErrInvalidParam) {
		t.Errorf("Fragment() error = %v, want ErrInvalidParam", err)
	}
}

func TestFragment_ChunkDataSizeClamped(t *testing.T) {
	codec := testCodec(t)
	image := make([]byte, 500)
	stream, chunks, err := Fragment(codec, image, 1, 500, 1, 10000)
	if err != nil {
		t.Fatalf("Fragment() error = %v", err)
	}
	if chunks != (500+MaxChunkData-1)/MaxChunkData {
		t.Errorf("chunks = %d, want clamped chunking at %d bytes/chunk", chunks, MaxChunkData)
	}
	if len(stream) == 0 {
		t.Error("stream is empty")
	}
}

func TestFragment_EmptyImage(t *testing.T) {
	codec := testCodec(t)
	stream, chunks, err := Fragment(codec, nil, 0, 0, 1, DefaultChunkSize)
	if err != nil {
		t.Fatalf("Fragment() error = %v", err)
	}
	if chunks != 0 || len(stream) != 0 {
		t.Errorf("Fragment(empty) = (%d bytes, %d chunks), want (0, 0)", len(stream), chunks)
	}
}

func TestReassemble_InflatedTotalChunksIsDetected(t *testing.T) {
	codec := testCodec(t)
	image := make([]byte, 25)
	stream, chunks, err := Fragment(codec, image, 5, 5, 1, DefaultChunkSize)
	if err != nil {
		t.Fatalf("Fragment() error = %v", err)
	}

	// Asking for one more chunk than the stream actually contains must
	// surface as a truncation error, not a silently short image.
	if _, _, _, _, err := Reassemble(codec, stream, chunks+1); err == nil {
		t.Error("Reassemble() with an inflated totalChunks should fail, got nil error")
	}
}
