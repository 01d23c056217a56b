package link

import (
	"bytes"
	"errors"
	"testing"

	"pgregory.net/rapid"
)

func frameOf(body []byte) []byte {
	f := make([]byte, 0, len(body)+2)
	f = append(f, Flag)
	f = append(f, body...)
	f = append(f, Flag)
	return f
}

func TestStuff_AllOnesInsertsOneZeroPerFiveBits(t *testing.T) {
	stuffed, err := Stuff(frameOf([]byte{0xFF}))
	if err != nil {
		t.Fatalf("Stuff() error = %v", err)
	}
	// 8 leading flag bits, then 9 body bits (a single inserted zero
	// breaking up the run of eight 1s), then 8 trailing flag bits.
	want := append(append([]byte{0, 1, 1, 1, 1, 1, 1, 0}, 1, 1, 1, 1, 1, 0, 1, 1, 1), 0, 1, 1, 1, 1, 1, 1, 0)
	if !bytes.Equal(stuffed, want) {
		t.Errorf("Stuff(0xFF) = %v, want %v", stuffed, want)
	}
}

func TestStuffUnstuff_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		body := rapid.SliceOfN(rapid.Byte(), 0, 64).Draw(t, "body")
		frame := frameOf(body)

		stuffed, err := Stuff(frame)
		if err != nil {
			t.Fatalf("Stuff() error = %v", err)
		}

		got, err := Unstuff(stuffed)
		if err != nil {
			t.Fatalf("Unstuff() error = %v", err)
		}
		if !bytes.Equal(got, body) {
			t.Fatalf("round trip = % X, want % X", got, body)
		}
	})
}

func TestStuffUnstuff_AllFlagBytes(t *testing.T) {
	body := bytes.Repeat([]byte{0x7E}, 20)
	stuffed, err := Stuff(frameOf(body))
	if err != nil {
		t.Fatalf("Stuff() error = %v", err)
	}
	got, err := Unstuff(stuffed)
	if err != nil {
		t.Fatalf("Unstuff() error = %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Errorf("round trip of all-0x7E body = % X, want % X", got, body)
	}
}

func TestUnstuff_NoLeadingFlag(t *testing.T) {
	_, err := Unstuff([]byte{1, 1, 1, 1, 1, 1, 1, 1})
	if !errors.Is(err, ErrDecodeDesync) {
		t.Errorf("Unstuff() error = %v, want ErrDecodeDesync", err)
	}
}

func TestUnstuff_NoClosingFlag(t *testing.T) {
	bits := append([]byte{0, 1, 1, 1, 1, 1, 1, 0}, 0, 1, 0, 1, 0, 1, 0, 1)
	_, err := Unstuff(bits)
	if !errors.Is(err, ErrDecodeDesync) {
		t.Errorf("Unstuff() error = %v, want ErrDecodeDesync", err)
	}
}

func TestUnstuff_BadStuffBit(t *testing.T) {
	// Five 1 bits followed by a 1 (instead of the mandatory stuffed 0)
	// is an abort/idle pattern appearing mid-payload.
	bits := []byte{0, 1, 1, 1, 1, 1, 1, 0} // leading flag
	bits = append(bits, 1, 1, 1, 1, 1, 1)  // five ones then a bad bit
	bits = append(bits, 0, 1, 1, 1, 1, 1, 1, 0) // trailing flag, unreachable

	_, err := Unstuff(bits)
	if !errors.Is(err, ErrDecodeDesync) {
		t.Errorf("Unstuff() error = %v, want ErrDecodeDesync", err)
	}
}

func TestFindFlag(t *testing.T) {
	bits := append([]byte{1, 0, 0}, flagPattern[:]...)
	idx, ok := findFlag(bits, 0)
	if !ok || idx != 3 {
		t.Errorf("findFlag() = (%d, %v), want (3, true)", idx, ok)
	}
}
