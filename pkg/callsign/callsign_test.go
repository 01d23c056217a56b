package callsign

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecode_RoundTripAssert(t *testing.T) {
	addr, err := Encode("KD2ABC", 5, "VU2XYZ", 9)
	assert.NoError(t, err)

	got, err := Decode(addr[:])
	assert.NoError(t, err)
	assert.Equal(t, "KD2ABC", got.DestCallsign)
	assert.Equal(t, uint8(5), got.DestSSID)
	assert.Equal(t, "VU2XYZ", got.SrcCallsign)
	assert.Equal(t, uint8(9), got.SrcSSID)
}

func TestEncode_KnownVector(t *testing.T) {
	addr, err := Encode("ABCD", 0, "PARSAT", 0)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	want := [FieldLen]byte{
		'A' << 1, 'B' << 1, 'C' << 1, 'D' << 1, padByte, padByte, ssidReserved,
		'P' << 1, 'A' << 1, 'R' << 1, 'S' << 1, 'A' << 1, 'T' << 1, ssidReserved | ssidLastAddr,
	}
	if addr != want {
		t.Errorf("Encode() = % X, want % X", addr, want)
	}
}

func TestEncode_DoesNotDuplicateDestIntoSource(t *testing.T) {
	// Regression test for a documented bug in the reference C
	// implementation, which copies the destination callsign bytes into
	// the source slot. A symmetric round trip alone would not catch
	// this, so the two callsigns here are deliberately different and
	// checked independently.
	addr, err := Encode("GRD", 1, "SATNOD", 7)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	got, err := Decode(addr[:])
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if got.DestCallsign != "GRD" || got.DestSSID != 1 {
		t.Errorf("destination = %q/%d, want GRD/1", got.DestCallsign, got.DestSSID)
	}
	if got.SrcCallsign != "SATNOD" || got.SrcSSID != 7 {
		t.Errorf("source = %q/%d, want SATNOD/7", got.SrcCallsign, got.SrcSSID)
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	tests := []struct {
		destCall string
		destSSID uint8
		srcCall  string
		srcSSID  uint8
	}{
		{"ABCD", 0, "PARSAT", 0},
		{"A", 0, "Z", 15},
		{"N0CALL", 15, "N0CALL", 0},
		{"kd2abc", 5, "vu2xyz", 9}, // lower case in, upper case out
	}

	for _, tt := range tests {
		addr, err := Encode(tt.destCall, tt.destSSID, tt.srcCall, tt.srcSSID)
		if err != nil {
			t.Fatalf("Encode(%q, %d, %q, %d) error = %v", tt.destCall, tt.destSSID, tt.srcCall, tt.srcSSID, err)
		}

		got, err := Decode(addr[:])
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}

		wantDest := upper(tt.destCall)
		wantSrc := upper(tt.srcCall)
		if got.DestCallsign != wantDest || got.DestSSID != tt.destSSID {
			t.Errorf("destination = %q/%d, want %q/%d", got.DestCallsign, got.DestSSID, wantDest, tt.destSSID)
		}
		if got.SrcCallsign != wantSrc || got.SrcSSID != tt.srcSSID {
			t.Errorf("source = %q/%d, want %q/%d", got.SrcCallsign, got.SrcSSID, wantSrc, tt.srcSSID)
		}
	}
}

func TestEncode_LastAddressBit(t *testing.T) {
	addr, err := Encode("ABCD", 0, "PARSAT", 0)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if addr[6]&ssidLastAddr != 0 {
		t.Errorf("destination SSID byte must not set the end-of-address bit, got 0x%02X", addr[6])
	}
	if addr[13]&ssidLastAddr == 0 {
		t.Errorf("source SSID byte must set the end-of-address bit, got 0x%02X", addr[13])
	}
}

func TestEncode_InvalidParams(t *testing.T) {
	if _, err := Encode("ABCD", 16, "PARSAT", 0); err == nil {
		t.Error("Encode() with ssid=16 should fail")
	}
	if _, err := Encode("TOOLONGCALL", 0, "PARSAT", 0); err == nil {
		t.Error("Encode() with a 11-char callsign should fail")
	}
	if _, err := Encode("", 0, "PARSAT", 0); err == nil {
		t.Error("Encode() with an empty callsign should fail")
	}
	if _, err := Encode("AB CD", 0, "PARSAT", 0); err == nil {
		t.Error("Encode() with a space inside the callsign should fail")
	}
}

func TestDecode_WrongLength(t *testing.T) {
	if _, err := Decode(make([]byte, 13)); err == nil {
		t.Error("Decode() with a 13-byte field should fail")
	}
	if _, err := Decode(make([]byte, 15)); err == nil {
		t.Error("Decode() with a 15-byte field should fail")
	}
}

func upper(s string) string {
	out := []byte(s)
	for i, c := range out {
		if c >= 'a' && c <= 'z' {
			out[i] = c - 'a' + 'A'
		}
	}
	return string(out)
}
