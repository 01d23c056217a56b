package link

import (
	"fmt"

	"github.com/parsat/ax25link/pkg/callsign"
	"github.com/parsat/ax25link/pkg/crc"
)

// Codec glues the frame builder, bit stuffer, and bit packer into a
// one-shot encode/recv pair for a single configured destination/source
// pair. Building one is cheap and it holds no mutable state beyond the
// precomputed 14-byte address field, so a Codec is safe for concurrent
// use as long as callers pass disjoint buffers.
type Codec struct {
	addr [AddrLen]byte
}

// NewCodec builds a Codec for the given destination and source
// callsigns/SSIDs, resolving station identity at construction time
// instead of baking it into compile-time constants.
func NewCodec(destCall string, destSSID uint8, srcCall string, srcSSID uint8) (*Codec, error) {
	addr, err := callsign.Encode(destCall, destSSID, srcCall, srcSSID)
	if err != nil {
		return nil, fmt.Errorf("link: %w", err)
	}
	return &Codec{addr: addr}, nil
}

// Encode turns a payload into stuffed, packed wire bytes: an
// Unnumbered Information frame with control 0x03 and PID 0xF0.
func (c *Codec) Encode(payload []byte) ([]byte, error) {
	if len(payload) > MaxInfoLen {
		return nil, fmt.Errorf("link: payload %d bytes exceeds max %d: %w", len(payload), MaxInfoLen, ErrInvalidParam)
	}

	frame, err := BuildUnstuffed(c.addr, []byte{CtrlUI}, payload, FrameUI)
	if err != nil {
		return nil, err
	}
	stuffed, err := Stuff(frame)
	if err != nil {
		return nil, err
	}
	return Pack(stuffed), nil
}

// EncodeInto behaves like Encode but writes into a caller-supplied
// buffer, for callers that manage their own fixed transmit buffers
// instead of taking a freshly allocated slice. Callers sizing dst
// should use at least 2*len(payload)+32 bytes as a safety margin.
func (c *Codec) EncodeInto(dst []byte, payload []byte) (int, error) {
	wire, err := c.Encode(payload)
	if err != nil {
		return 0, err
	}
	if len(dst) < len(wire) {
		return 0, fmt.Errorf("link: output buffer has %d bytes, need %d: %w", len(dst), len(wire), ErrBufferOverflow)
	}
	return copy(dst, wire), nil
}

// Recv decodes packed wire bytes back into the reconstructed frame minus
// its trailing FCS: address ‖ control ‖ PID ‖ info. Callers skip
// HeaderLen bytes to reach the information field, or use Split.
func (c *Codec) Recv(wire []byte) ([]byte, error) {
	bits := Expand(wire)
	body, err := Unstuff(bits)
	if err != nil {
		return nil, err
	}
	if len(body) < HeaderLen+2 {
		return nil, fmt.Errorf("link: reconstructed frame has %d bytes, want at least %d: %w", len(body), HeaderLen+2, ErrDecodeDesync)
	}
	if !crc.Verify(body) {
		return nil, ErrFCSMismatch
	}
	return body[:len(body)-2], nil
}

// Split parses a Recv result into its address, control, PID, and
// information field.
func Split(decoded []byte) (addr callsign.Address, ctrl byte, pid byte, info []byte, err error) {
	if len(decoded) < HeaderLen {
		err = fmt.Errorf("link: decoded frame has %d bytes, want at least %d: %w", len(decoded), HeaderLen, ErrDecodeDesync)
		return
	}
	addr, err = callsign.Decode(decoded[:AddrLen])
	if err != nil {
		return
	}
	ctrl = decoded[AddrLen]
	pid = decoded[AddrLen+1]
	info = decoded[HeaderLen:]
	return
}
