package link

import (
	"fmt"

	"github.com/parsat/ax25link/pkg/crc"
)

// BuildUnstuffed assembles an unstuffed, in-memory AX.25 frame: leading
// flag, address, control, PID (I/UI only), information, FCS, trailing
// flag. Only ftype == FrameUI is currently supported.
//
// ctrl is copied into the frame in the order given, so a two-byte
// control field is passed low byte first. The FCS is
// computed over addr‖ctrl‖PID?‖info and appended high-byte-first — the
// reverse of the control field's own byte order. That asymmetry is
// AX.25, not a bug.
func BuildUnstuffed(addr [AddrLen]byte, ctrl []byte, info []byte, ftype FrameType) ([]byte, error) {
	if ftype != FrameUI {
		return nil, fmt.Errorf("link: frame type %s not supported: %w", ftype, ErrInvalidParam)
	}
	if len(info) > MaxInfoLen {
		return nil, fmt.Errorf("link: info field %d bytes exceeds max %d: %w", len(info), MaxInfoLen, ErrInvalidParam)
	}
	if len(ctrl) != 1 && len(ctrl) != 2 {
		return nil, fmt.Errorf("link: control field must be 1 or 2 bytes, got %d: %w", len(ctrl), ErrInvalidParam)
	}

	body := make([]byte, 0, AddrLen+2+1+len(info))
	body = append(body, addr[:]...)
	body = append(body, ctrl...)
	body = append(body, PID) // UI always carries PID = "no layer 3"
	body = append(body, info...)

	fcs := crc.FCS(body)

	frame := make([]byte, 0, 1+len(body)+2+1)
	frame = append(frame, Flag)
	frame = append(frame, body...)
	frame = append(frame, byte(fcs>>8), byte(fcs))
	frame = append(frame, Flag)
	return frame, nil
}
