package channel

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// TCPChannel implements PhysicalChannel over a persistent TCP
// connection, for a wired ground-station-to-TNC-server link.
type TCPChannel struct {
	conn     net.Conn
	connLock sync.RWMutex

	address        string
	isServer       bool
	listener       net.Listener
	reconnectDelay time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration

	stats transportCounters

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed atomic.Bool
}

// TCPChannelConfig configures a TCPChannel.
type TCPChannelConfig struct {
	Address        string        // "host:port"
	IsServer       bool          // true = listen, false = dial
	ReconnectDelay time.Duration // client-mode redial cadence (0 = 5s)
	ReadTimeout    time.Duration // 0 = no timeout
	WriteTimeout   time.Duration // 0 = no timeout
}

// NewTCPChannel dials or listens depending on config.IsServer.
func NewTCPChannel(config TCPChannelConfig) (*TCPChannel, error) {
	if config.Address == "" {
		return nil, fmt.Errorf("address is required")
	}
	if config.ReconnectDelay == 0 {
		config.ReconnectDelay = 5 * time.Second
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = 30 * time.Second
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	tc := &TCPChannel{
		address:        config.Address,
		isServer:       config.IsServer,
		reconnectDelay: config.ReconnectDelay,
		readTimeout:    config.ReadTimeout,
		writeTimeout:   config.WriteTimeout,
		ctx:            ctx,
		cancel:         cancel,
	}

	var err error
	if config.IsServer {
		err = tc.startServer()
	} else {
		err = tc.connect()
	}
	if err != nil {
		cancel()
		return nil, err
	}
	return tc, nil
}

// startServer opens a listening socket and accepts connections in the
// background, replacing whatever peer is currently attached each time
// a new one connects — this transport serves one active peer at a time.
func (tc *TCPChannel) startServer() error {
	listener, err := net.Listen("tcp", tc.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", tc.address, err)
	}
	tc.listener = listener

	tc.wg.Add(1)
	go tc.acceptLoop()
	return nil
}

func (tc *TCPChannel) acceptLoop() {
	defer tc.wg.Done()

	for {
		select {
		case <-tc.ctx.Done():
			return
		default:
		}

		if l, ok := tc.listener.(*net.TCPListener); ok {
			l.SetDeadline(time.Now().Add(time.Second))
		}

		conn, err := tc.listener.Accept()
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			if tc.closed.Load() {
				return
			}
			continue
		}

		tc.installConn(conn)
	}
}

// installConn swaps in a freshly accepted or dialed connection,
// closing whatever was there before.
func (tc *TCPChannel) installConn(conn net.Conn) {
	tc.connLock.Lock()
	if tc.conn != nil {
		tc.conn.Close()
		tc.stats.disconnects.Add(1)
	}
	tc.conn = conn
	tc.stats.connects.Add(1)
	tc.connLock.Unlock()
}

// connect dials the remote server once and starts the background
// supervisor that redials whenever the connection drops.
func (tc *TCPChannel) connect() error {
	conn, err := net.DialTimeout("tcp", tc.address, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", tc.address, err)
	}
	tc.installConn(conn)

	tc.wg.Add(1)
	go func() {
		defer tc.wg.Done()
		runReconnectLoop(tc.ctx, tc.reconnectDelay, tc.redialIfDown)
	}()
	return nil
}

// redialIfDown dials a replacement connection if none is currently
// installed. Errors are silently retried on the next tick.
func (tc *TCPChannel) redialIfDown() {
	tc.connLock.RLock()
	haveConn := tc.conn != nil
	tc.connLock.RUnlock()
	if haveConn {
		return
	}

	conn, err := net.DialTimeout("tcp", tc.address, 10*time.Second)
	if err != nil {
		return
	}
	tc.installConn(conn)
}

// Read implements PhysicalChannel.Read.
func (tc *TCPChannel) Read(ctx context.Context) ([]byte, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-tc.ctx.Done():
			return nil, fmt.Errorf("channel closed")
		default:
		}

		if err := awaitReady(ctx, tc.ctx, 100*time.Millisecond, tc.IsConnected); err != nil {
			if err == errChannelLifetimeDone {
				return nil, fmt.Errorf("channel closed")
			}
			return nil, err
		}

		tc.connLock.RLock()
		conn := tc.conn
		tc.connLock.RUnlock()

		if tc.readTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(tc.readTimeout))
		}

		frame, err := readLengthPrefixedFrame(conn, maxWireFrameLen)
		if err != nil {
			if err == errFrameLenOutOfRange {
				tc.stats.readErrors.Add(1)
				continue
			}
			tc.handleReadError(err)
			continue
		}

		tc.stats.bytesReceived.Add(uint64(len(frame)))
		return frame, nil
	}
}

// Write implements PhysicalChannel.Write.
func (tc *TCPChannel) Write(ctx context.Context, data []byte) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-tc.ctx.Done():
		return fmt.Errorf("channel closed")
	default:
	}

	tc.connLock.RLock()
	conn := tc.conn
	tc.connLock.RUnlock()
	if conn == nil {
		tc.stats.writeErrors.Add(1)
		return fmt.Errorf("no connection")
	}

	if tc.writeTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(tc.writeTimeout))
	}

	if err := writeLengthPrefixedFrame(conn, data); err != nil {
		tc.handleWriteError(err)
		return err
	}

	tc.stats.bytesSent.Add(uint64(len(data)))
	return nil
}

// Close implements PhysicalChannel.Close.
func (tc *TCPChannel) Close() error {
	if !tc.closed.CompareAndSwap(false, true) {
		return nil
	}
	tc.cancel()

	if tc.listener != nil {
		tc.listener.Close()
	}

	tc.connLock.Lock()
	if tc.conn != nil {
		tc.conn.Close()
		tc.stats.disconnects.Add(1)
		tc.conn = nil
	}
	tc.connLock.Unlock()

	tc.wg.Wait()
	return nil
}

// Statistics implements PhysicalChannel.Statistics.
func (tc *TCPChannel) Statistics() TransportStats {
	return tc.stats.snapshot()
}

func (tc *TCPChannel) handleReadError(err error) {
	tc.stats.readErrors.Add(1)
	tc.dropConn()
}

func (tc *TCPChannel) handleWriteError(err error) {
	tc.stats.writeErrors.Add(1)
	tc.dropConn()
}

func (tc *TCPChannel) dropConn() {
	tc.connLock.Lock()
	defer tc.connLock.Unlock()
	if tc.conn != nil {
		tc.conn.Close()
		tc.stats.disconnects.Add(1)
		tc.conn = nil
	}
}

// IsConnected reports whether a connection is currently installed.
func (tc *TCPChannel) IsConnected() bool {
	tc.connLock.RLock()
	defer tc.connLock.RUnlock()
	return tc.conn != nil
}

// LocalAddr returns the local address of the connection.
func (tc *TCPChannel) LocalAddr() net.Addr {
	tc.connLock.RLock()
	defer tc.connLock.RUnlock()
	if tc.conn != nil {
		return tc.conn.LocalAddr()
	}
	return nil
}

// RemoteAddr returns the remote address of the connection.
func (tc *TCPChannel) RemoteAddr() net.Addr {
	tc.connLock.RLock()
	defer tc.connLock.RUnlock()
	if tc.conn != nil {
		return tc.conn.RemoteAddr()
	}
	return nil
}

// SetConnectionStateListener implements PhysicalChannel.SetConnectionStateListener.
// TCP connection loss surfaces through Read/Write errors instead, so this is a no-op.
func (tc *TCPChannel) SetConnectionStateListener(listener ConnectionStateListener) {}
