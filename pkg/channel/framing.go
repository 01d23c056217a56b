package channel

import (
	"context"
	"errors"
	"io"
	"time"
)

// errFrameLenOutOfRange is returned when a stream's length prefix names
// a frame that is zero-length or larger than this package will buffer.
var errFrameLenOutOfRange = errors.New("channel: frame length out of range")

// readLengthPrefixedFrame reads one frame from a reliable, ordered
// stream (a TCP or QUIC connection): a 2-byte big-endian length prefix
// followed by that many bytes of wire frame. TCP and QUIC share this
// framing because both give the codec a byte stream with no built-in
// message boundaries, unlike UDP's self-delimited datagrams.
func readLengthPrefixedFrame(r io.Reader, maxLen int) ([]byte, error) {
	lenPrefix := make([]byte, 2)
	if _, err := io.ReadFull(r, lenPrefix); err != nil {
		return nil, err
	}
	frameLen := int(lenPrefix[0])<<8 | int(lenPrefix[1])
	if frameLen <= 0 || frameLen > maxLen {
		return nil, errFrameLenOutOfRange
	}
	frame := make([]byte, frameLen)
	if _, err := io.ReadFull(r, frame); err != nil {
		return nil, err
	}
	return frame, nil
}

// writeLengthPrefixedFrame writes data to w prefixed with its 2-byte
// big-endian length, the write-side half of readLengthPrefixedFrame.
func writeLengthPrefixedFrame(w io.Writer, data []byte) error {
	framed := make([]byte, 2+len(data))
	framed[0] = byte(len(data) >> 8)
	framed[1] = byte(len(data))
	copy(framed[2:], data)
	_, err := w.Write(framed)
	return err
}

// awaitReady polls ready at the given interval until it reports true,
// callCtx is cancelled, or lifeCtx (the owning channel's lifetime
// context) is done. TCP and QUIC both need this to let Read block until
// a connection or stream has been (re)established rather than failing
// outright the instant one drops.
func awaitReady(callCtx, lifeCtx context.Context, interval time.Duration, ready func() bool) error {
	for {
		if ready() {
			return nil
		}
		select {
		case <-time.After(interval):
			continue
		case <-callCtx.Done():
			return callCtx.Err()
		case <-lifeCtx.Done():
			return errChannelLifetimeDone
		}
	}
}

var errChannelLifetimeDone = errors.New("channel: closed")

// runReconnectLoop calls attempt on every tick of interval until ctx is
// done. TCP and QUIC client-mode channels both run one of these in the
// background for the lifetime of the channel; attempt is expected to
// no-op when a connection is already installed and otherwise try to
// dial a replacement, which is the one part of redialing that differs
// between the two transports.
func runReconnectLoop(ctx context.Context, interval time.Duration, attempt func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			attempt()
		}
	}
}
