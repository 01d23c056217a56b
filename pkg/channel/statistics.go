package channel

import "sync/atomic"

// Statistics tracks station-level statistics: frames handed to the
// codec for encoding, frames recovered from the wire, and the ways a
// received frame can fail before it reaches the data callback.
type Statistics struct {
	numFramesEncoded uint64
	numFramesSent    uint64
	numFramesRecv    uint64
	numFramesDecoded uint64
	numFCSErrors     uint64
	numDecodeErrors  uint64
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{}
}

// FrameEncoded increments frames successfully built by the codec.
func (s *Statistics) FrameEncoded() {
	atomic.AddUint64(&s.numFramesEncoded, 1)
}

// FrameSent increments frames handed off to the physical channel.
func (s *Statistics) FrameSent() {
	atomic.AddUint64(&s.numFramesSent, 1)
}

// FrameReceived increments frames read off the physical channel,
// decoded or not.
func (s *Statistics) FrameReceived() {
	atomic.AddUint64(&s.numFramesRecv, 1)
}

// FrameDecoded increments frames the codec successfully recovered a
// payload from.
func (s *Statistics) FrameDecoded() {
	atomic.AddUint64(&s.numFramesDecoded, 1)
}

// FCSError increments frames rejected for a checksum mismatch.
func (s *Statistics) FCSError() {
	atomic.AddUint64(&s.numFCSErrors, 1)
}

// DecodeError increments frames rejected for any other decode failure
// (bad flag delimiters, bit-stuffing desync, truncated bodies).
func (s *Statistics) DecodeError() {
	atomic.AddUint64(&s.numDecodeErrors, 1)
}

// GetFramesEncoded returns the number of frames the codec has built.
func (s *Statistics) GetFramesEncoded() uint64 {
	return atomic.LoadUint64(&s.numFramesEncoded)
}

// GetFramesSent returns the number of frames written to the transport.
func (s *Statistics) GetFramesSent() uint64 {
	return atomic.LoadUint64(&s.numFramesSent)
}

// GetFramesReceived returns the number of frames read off the transport.
func (s *Statistics) GetFramesReceived() uint64 {
	return atomic.LoadUint64(&s.numFramesRecv)
}

// GetFramesDecoded returns the number of frames successfully decoded.
func (s *Statistics) GetFramesDecoded() uint64 {
	return atomic.LoadUint64(&s.numFramesDecoded)
}

// GetFCSErrors returns the number of checksum failures.
func (s *Statistics) GetFCSErrors() uint64 {
	return atomic.LoadUint64(&s.numFCSErrors)
}

// GetDecodeErrors returns the number of non-checksum decode failures.
func (s *Statistics) GetDecodeErrors() uint64 {
	return atomic.LoadUint64(&s.numDecodeErrors)
}

// Reset zeroes all counters.
func (s *Statistics) Reset() {
	atomic.StoreUint64(&s.numFramesEncoded, 0)
	atomic.StoreUint64(&s.numFramesSent, 0)
	atomic.StoreUint64(&s.numFramesRecv, 0)
	atomic.StoreUint64(&s.numFramesDecoded, 0)
	atomic.StoreUint64(&s.numFCSErrors, 0)
	atomic.StoreUint64(&s.numDecodeErrors, 0)
}
