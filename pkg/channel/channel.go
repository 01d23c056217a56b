package channel

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/parsat/ax25link/internal/logger"
	"github.com/parsat/ax25link/pkg/link"
)

var (
	ErrChannelClosed = errors.New("channel is closed")
	ErrChannelOpen   = errors.New("channel is already open")
)

// DataCallback receives a payload recovered from a decoded frame.
type DataCallback func(payload []byte)

// Station owns one PhysicalChannel and one link.Codec: it runs the
// codec's synchronous encode/decode pipeline inside a read loop and a
// write loop, the one place in the module that touches goroutines and
// locks. There is no session router or address multiplexing here — a
// Station only ever talks to the single destination/source pair its
// Codec was built with.
type Station struct {
	id              string
	physicalChannel PhysicalChannel
	codec           *link.Codec
	stats           *Statistics
	logger          logger.Logger

	onData   DataCallback
	dataLock sync.RWMutex

	state   ChannelState
	stateMu sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	writeQueue chan *writeRequest
}

// writeRequest represents a single queued payload write.
type writeRequest struct {
	payload []byte
	resp    chan error
}

// New creates a new Station over the given physical channel and codec.
func New(id string, physical PhysicalChannel, codec *link.Codec, log logger.Logger) *Station {
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Station{
		id:              id,
		physicalChannel: physical,
		codec:           codec,
		stats:           NewStatistics(),
		logger:          log,
		state:           ChannelStateClosed,
		ctx:             ctx,
		cancel:          cancel,
		writeQueue:      make(chan *writeRequest, 100),
	}
}

// ID returns the station's ID.
func (c *Station) ID() string {
	return c.id
}

// SetDataCallback registers the function invoked with each successfully
// decoded payload. Safe to call before or after Open.
func (c *Station) SetDataCallback(cb DataCallback) {
	c.dataLock.Lock()
	defer c.dataLock.Unlock()
	c.onData = cb
}

// Open starts the read and write loops.
func (c *Station) Open() error {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	if c.state == ChannelStateOpen {
		return ErrChannelOpen
	}

	c.state = ChannelStateOpen
	c.logger.Info("station %s opening", c.id)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.readLoop()
	}()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.writeLoop()
	}()

	c.logger.Info("station %s opened", c.id)
	return nil
}

// Close stops the loops and closes the underlying physical channel.
func (c *Station) Close() error {
	c.stateMu.Lock()
	if c.state == ChannelStateClosed {
		c.stateMu.Unlock()
		return nil
	}
	c.state = ChannelStateClosed
	c.stateMu.Unlock()

	c.logger.Info("station %s closing", c.id)

	c.cancel()

	if err := c.physicalChannel.Close(); err != nil {
		c.logger.Error("station %s: error closing physical channel: %v", c.id, err)
	}

	c.wg.Wait()

	c.logger.Info("station %s closed", c.id)
	return nil
}

// readLoop continuously reads wire frames, decodes them with the
// codec, and dispatches recovered payloads to the data callback.
func (c *Station) readLoop() {
	c.logger.Debug("station %s read loop started", c.id)
	defer c.logger.Debug("station %s read loop stopped", c.id)

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		wire, err := c.physicalChannel.Read(c.ctx)
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			c.logger.Error("station %s: read error: %v", c.id, err)
			continue
		}
		c.stats.FrameReceived()

		decoded, err := c.codec.Recv(wire)
		if err != nil {
			if errors.Is(err, link.ErrFCSMismatch) {
				c.stats.FCSError()
			} else {
				c.stats.DecodeError()
			}
			c.logger.Warn("station %s: decode error: %v", c.id, err)
			continue
		}
		c.stats.FrameDecoded()

		_, _, _, info, err := link.Split(decoded)
		if err != nil {
			c.stats.DecodeError()
			c.logger.Warn("station %s: split error: %v", c.id, err)
			continue
		}

		c.dataLock.RLock()
		cb := c.onData
		c.dataLock.RUnlock()
		if cb != nil {
			cb(info)
		}
	}
}

// writeLoop serializes payload writes through the codec onto the
// physical channel.
func (c *Station) writeLoop() {
	c.logger.Debug("station %s write loop started", c.id)
	defer c.logger.Debug("station %s write loop stopped", c.id)

	for {
		select {
		case <-c.ctx.Done():
			for {
				select {
				case req := <-c.writeQueue:
					req.resp <- ErrChannelClosed
				default:
					return
				}
			}

		case req := <-c.writeQueue:
			wire, err := c.codec.Encode(req.payload)
			if err != nil {
				c.logger.Error("station %s: encode error: %v", c.id, err)
				req.resp <- err
				continue
			}
			c.stats.FrameEncoded()

			err = c.physicalChannel.Write(c.ctx, wire)
			if err != nil {
				c.logger.Error("station %s: write error: %v", c.id, err)
			} else {
				c.stats.FrameSent()
			}
			req.resp <- err
		}
	}
}

// SendPayload encodes and transmits one payload, blocking until it has
// been handed to the physical channel or the station is closed.
func (c *Station) SendPayload(payload []byte) error {
	c.stateMu.RLock()
	if c.state != ChannelStateOpen {
		c.stateMu.RUnlock()
		return ErrChannelClosed
	}
	c.stateMu.RUnlock()

	req := &writeRequest{
		payload: payload,
		resp:    make(chan error, 1),
	}

	select {
	case c.writeQueue <- req:
		select {
		case err := <-req.resp:
			return err
		case <-c.ctx.Done():
			return ErrChannelClosed
		}
	case <-c.ctx.Done():
		return ErrChannelClosed
	}
}

// GetStatistics returns the station's frame statistics.
func (c *Station) GetStatistics() *Statistics {
	return c.stats
}

// GetPhysicalStatistics returns the underlying transport's statistics.
func (c *Station) GetPhysicalStatistics() TransportStats {
	return c.physicalChannel.Statistics()
}

// State returns the current station state.
func (c *Station) State() ChannelState {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

// String returns a human-readable summary of the station.
func (c *Station) String() string {
	return fmt.Sprintf("Station{ID=%s, State=%s}", c.id, c.State())
}
