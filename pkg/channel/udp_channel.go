package channel

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/parsat/ax25link/pkg/link"
)

// UDPChannel implements PhysicalChannel over a UDP socket. Each
// datagram is expected to carry exactly one flag-delimited AX.25 wire
// frame — a KISS-like point-to-point link, not a multiplexed stream.
type UDPChannel struct {
	conn     *net.UDPConn
	connLock sync.RWMutex

	address      string
	isServer     bool
	remoteAddr   *net.UDPAddr // client mode: where to send
	lastPeerAddr *net.UDPAddr // server mode: last peer heard from
	peerLock     sync.RWMutex
	readTimeout  time.Duration
	writeTimeout time.Duration

	stats transportCounters

	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool
}

// UDPChannelConfig configures a UDPChannel.
type UDPChannelConfig struct {
	Address      string        // "host:port"
	IsServer     bool          // true = bind and listen, false = bind and send to remote
	ReadTimeout  time.Duration // 0 = no timeout
	WriteTimeout time.Duration // 0 = no timeout
}

// NewUDPChannel binds a UDP socket in either server (listen-on-any-peer)
// or client (fixed-remote) mode.
func NewUDPChannel(config UDPChannelConfig) (*UDPChannel, error) {
	if config.Address == "" {
		return nil, fmt.Errorf("address is required")
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = 30 * time.Second
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	uc := &UDPChannel{
		address:      config.Address,
		isServer:     config.IsServer,
		readTimeout:  config.ReadTimeout,
		writeTimeout: config.WriteTimeout,
		ctx:          ctx,
		cancel:       cancel,
	}

	if err := uc.bind(); err != nil {
		cancel()
		return nil, err
	}
	return uc, nil
}

// bind opens the underlying UDP socket for either mode.
func (uc *UDPChannel) bind() error {
	addr, err := net.ResolveUDPAddr("udp", uc.address)
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address %s: %w", uc.address, err)
	}

	if uc.isServer {
		conn, err := net.ListenUDP("udp", addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", uc.address, err)
		}
		uc.conn = conn
	} else {
		uc.remoteAddr = addr

		localAddr, err := net.ResolveUDPAddr("udp", ":0")
		if err != nil {
			return fmt.Errorf("failed to resolve local UDP address: %w", err)
		}
		conn, err := net.ListenUDP("udp", localAddr)
		if err != nil {
			return fmt.Errorf("failed to create UDP socket: %w", err)
		}
		uc.conn = conn
	}

	uc.stats.connects.Add(1)
	return nil
}

// Read implements PhysicalChannel.Read.
func (uc *UDPChannel) Read(ctx context.Context) ([]byte, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-uc.ctx.Done():
			return nil, fmt.Errorf("channel closed")
		default:
		}

		uc.connLock.RLock()
		conn := uc.conn
		uc.connLock.RUnlock()
		if conn == nil {
			return nil, fmt.Errorf("no connection")
		}

		if uc.readTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(uc.readTimeout))
		}

		buffer := make([]byte, maxWireFrameLen)
		n, remoteAddr, err := conn.ReadFromUDP(buffer)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			if uc.closed.Load() {
				return nil, fmt.Errorf("channel closed")
			}
			uc.stats.readErrors.Add(1)
			return nil, err
		}

		if uc.isServer && remoteAddr != nil {
			uc.peerLock.Lock()
			uc.lastPeerAddr = remoteAddr
			uc.peerLock.Unlock()
		}

		if !looksLikeAX25Datagram(buffer[:n]) {
			uc.stats.readErrors.Add(1)
			continue
		}

		uc.stats.bytesReceived.Add(uint64(n))
		return buffer[:n], nil
	}
}

// looksLikeAX25Datagram checks that a UDP payload opens with an HDLC
// flag byte, rejecting stray traffic on the socket without fully
// decoding it.
//
// Only the leading byte is checked. Pack lays the stuffed bitstream out
// MSB-first starting at bit 0, so the opening flag always lands on the
// first byte exactly as 0x7E — but the closing flag's bit offset shifts
// with the stuffed body's length and generally does NOT fall on a byte
// boundary, so the last byte of a packed datagram is not comparable to
// Flag by simple equality. That check belongs to Unstuff, which walks
// the bitstream itself instead of packed bytes.
func looksLikeAX25Datagram(datagram []byte) bool {
	return len(datagram) >= 1 && datagram[0] == link.Flag
}

// Write implements PhysicalChannel.Write.
func (uc *UDPChannel) Write(ctx context.Context, data []byte) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-uc.ctx.Done():
		return fmt.Errorf("channel closed")
	default:
	}

	uc.connLock.RLock()
	conn := uc.conn
	uc.connLock.RUnlock()
	if conn == nil {
		uc.stats.writeErrors.Add(1)
		return fmt.Errorf("no connection")
	}

	var destAddr *net.UDPAddr
	if uc.isServer {
		uc.peerLock.RLock()
		destAddr = uc.lastPeerAddr
		uc.peerLock.RUnlock()
		if destAddr == nil {
			uc.stats.writeErrors.Add(1)
			return fmt.Errorf("no peer address available (no data received yet)")
		}
	} else {
		destAddr = uc.remoteAddr
	}

	if uc.writeTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(uc.writeTimeout))
	}

	if _, err := conn.WriteToUDP(data, destAddr); err != nil {
		uc.stats.writeErrors.Add(1)
		return err
	}

	uc.stats.bytesSent.Add(uint64(len(data)))
	return nil
}

// Close implements PhysicalChannel.Close.
func (uc *UDPChannel) Close() error {
	if !uc.closed.CompareAndSwap(false, true) {
		return nil
	}
	uc.cancel()

	uc.connLock.Lock()
	if uc.conn != nil {
		uc.conn.Close()
		uc.stats.disconnects.Add(1)
		uc.conn = nil
	}
	uc.connLock.Unlock()
	return nil
}

// Statistics implements PhysicalChannel.Statistics.
func (uc *UDPChannel) Statistics() TransportStats {
	return uc.stats.snapshot()
}

// IsConnected reports whether the socket is still bound. For UDP this
// is not a peer liveness check, only a local-resource check.
func (uc *UDPChannel) IsConnected() bool {
	uc.connLock.RLock()
	defer uc.connLock.RUnlock()
	return uc.conn != nil
}

// LocalAddr returns the local address of the socket.
func (uc *UDPChannel) LocalAddr() net.Addr {
	uc.connLock.RLock()
	defer uc.connLock.RUnlock()
	if uc.conn != nil {
		return uc.conn.LocalAddr()
	}
	return nil
}

// RemoteAddr returns the last peer heard from (server mode) or the
// configured remote address (client mode).
func (uc *UDPChannel) RemoteAddr() net.Addr {
	if uc.isServer {
		uc.peerLock.RLock()
		defer uc.peerLock.RUnlock()
		return uc.lastPeerAddr
	}
	return uc.remoteAddr
}

// SetConnectionStateListener implements PhysicalChannel.SetConnectionStateListener.
// UDP is connectionless, so there is no state transition to report.
func (uc *UDPChannel) SetConnectionStateListener(listener ConnectionStateListener) {}
