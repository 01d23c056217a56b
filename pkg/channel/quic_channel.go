package channel

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quic-go/quic-go"
)

// QUICChannel implements PhysicalChannel over a QUIC connection and a
// single stream opened on it, for a satellite ground-station
// uplink/downlink that needs to survive a dropped UDP path without
// tearing down the whole session the way TCP would.
type QUICChannel struct {
	connection quic.Connection
	stream     quic.Stream
	connLock   sync.RWMutex
	streamLock sync.RWMutex

	address        string
	isServer       bool
	listener       *quic.Listener
	reconnectDelay time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	tlsConfig      *tls.Config

	stateListener     ConnectionStateListener
	stateListenerLock sync.RWMutex

	stats transportCounters

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed atomic.Bool
}

// QUICChannelConfig configures a QUICChannel.
type QUICChannelConfig struct {
	Address        string        // "host:port"
	IsServer       bool          // true = listen, false = dial
	ReconnectDelay time.Duration // client-mode redial cadence (0 = 5s)
	ReadTimeout    time.Duration // 0 = 30s
	WriteTimeout   time.Duration // 0 = 10s
	TLSConfig      *tls.Config   // nil generates a self-signed cert
}

// NewQUICChannel dials or listens depending on config.IsServer.
func NewQUICChannel(config QUICChannelConfig) (*QUICChannel, error) {
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

	tlsConfig := config.TLSConfig
	if tlsConfig == nil {
		var err error
		tlsConfig, err = generateSelfSignedTLSConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to generate TLS config: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	qc := &QUICChannel{
		address:        config.Address,
		isServer:       config.IsServer,
		reconnectDelay: config.ReconnectDelay,
		readTimeout:    config.ReadTimeout,
		writeTimeout:   config.WriteTimeout,
		tlsConfig:      tlsConfig,
		ctx:            ctx,
		cancel:         cancel,
	}

	var err error
	if config.IsServer {
		err = qc.startServer()
	} else {
		err = qc.connect()
	}
	if err != nil {
		cancel()
		return nil, err
	}
	return qc, nil
}

// generateSelfSignedTLSConfig builds a throwaway RSA cert good for a
// year, valid only for talking to another instance of this codec — the
// ALPN identifies the wire protocol, not a real PKI chain.
func generateSelfSignedTLSConfig() (*tls.Config, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		NotBefore:    time.Now(),
		NotAfter:     time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return nil, err
	}

	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, err
	}

	return &tls.Config{
		Certificates:       []tls.Certificate{cert},
		NextProtos:         []string{"ax25link-quic"},
		InsecureSkipVerify: true,
	}, nil
}

func (qc *QUICChannel) startServer() error {
	udpAddr, err := net.ResolveUDPAddr("udp", qc.address)
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address %s: %w", qc.address, err)
	}
	udpConn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", qc.address, err)
	}
	listener, err := quic.Listen(udpConn, qc.tlsConfig, nil)
	if err != nil {
		udpConn.Close()
		return fmt.Errorf("failed to create QUIC listener: %w", err)
	}
	qc.listener = listener

	qc.wg.Add(1)
	go qc.acceptLoop()
	return nil
}

func (qc *QUICChannel) acceptLoop() {
	defer qc.wg.Done()

	for {
		select {
		case <-qc.ctx.Done():
			return
		default:
		}

		conn, err := qc.listener.Accept(qc.ctx)
		if err != nil {
			if qc.closed.Load() {
				return
			}
			continue
		}

		hadConnection := qc.installConnection(conn)

		qc.wg.Add(1)
		go qc.acceptStream(conn, hadConnection)
	}
}

func (qc *QUICChannel) acceptStream(conn quic.Connection, hadConnection bool) {
	defer qc.wg.Done()

	stream, err := conn.AcceptStream(qc.ctx)
	if err != nil {
		return
	}
	qc.installStream(stream)

	if hadConnection {
		qc.notifyConnectionLost()
	}
	qc.notifyConnectionEstablished()
}

// installConnection swaps in a new quic.Connection, closing the old one if
// present, and reports whether one was already installed.
func (qc *QUICChannel) installConnection(conn quic.Connection) bool {
	qc.connLock.Lock()
	defer qc.connLock.Unlock()
	had := qc.connection != nil
	if had {
		qc.connection.CloseWithError(0, "replaced")
		qc.stats.disconnects.Add(1)
	}
	qc.connection = conn
	qc.stats.connects.Add(1)
	return had
}

func (qc *QUICChannel) installStream(stream quic.Stream) {
	qc.streamLock.Lock()
	defer qc.streamLock.Unlock()
	if qc.stream != nil {
		qc.stream.Close()
	}
	qc.stream = stream
}

// dialAndOpenStream dials a fresh QUIC connection to qc.address and
// opens the one stream this codec uses for its wire frames.
func (qc *QUICChannel) dialAndOpenStream() (quic.Connection, quic.Stream, error) {
	udpConn, err := net.ListenUDP("udp", &net.UDPAddr{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create UDP socket: %w", err)
	}

	remoteAddr, err := net.ResolveUDPAddr("udp", qc.address)
	if err != nil {
		udpConn.Close()
		return nil, nil, fmt.Errorf("failed to resolve remote address %s: %w", qc.address, err)
	}

	conn, err := quic.Dial(qc.ctx, udpConn, remoteAddr, qc.tlsConfig, nil)
	if err != nil {
		udpConn.Close()
		return nil, nil, fmt.Errorf("failed to connect to %s: %w", qc.address, err)
	}

	stream, err := conn.OpenStreamSync(qc.ctx)
	if err != nil {
		conn.CloseWithError(0, "failed to open stream")
		return nil, nil, fmt.Errorf("failed to open stream: %w", err)
	}
	return conn, stream, nil
}

// connect dials once and starts the background supervisor that
// redials whenever the connection dies.
func (qc *QUICChannel) connect() error {
	conn, stream, err := qc.dialAndOpenStream()
	if err != nil {
		return err
	}
	qc.installConnection(conn)
	qc.installStream(stream)
	qc.notifyConnectionEstablished()

	qc.wg.Add(1)
	go func() {
		defer qc.wg.Done()
		runReconnectLoop(qc.ctx, qc.reconnectDelay, qc.redialIfDown)
	}()
	return nil
}

// redialIfDown replaces the connection/stream pair if the current
// connection is missing or its context has already ended.
func (qc *QUICChannel) redialIfDown() {
	qc.connLock.RLock()
	conn := qc.connection
	qc.connLock.RUnlock()
	if conn != nil && conn.Context().Err() == nil {
		return
	}

	newConn, newStream, err := qc.dialAndOpenStream()
	if err != nil {
		return
	}
	qc.installConnection(newConn)
	qc.installStream(newStream)
	qc.notifyConnectionEstablished()
}

// Read implements PhysicalChannel.Read.
func (qc *QUICChannel) Read(ctx context.Context) ([]byte, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-qc.ctx.Done():
			return nil, fmt.Errorf("channel closed")
		default:
		}

		if err := awaitReady(ctx, qc.ctx, 100*time.Millisecond, qc.hasStream); err != nil {
			if err == errChannelLifetimeDone {
				return nil, fmt.Errorf("channel closed")
			}
			return nil, err
		}

		qc.streamLock.RLock()
		stream := qc.stream
		qc.streamLock.RUnlock()

		if qc.readTimeout > 0 {
			stream.SetReadDeadline(time.Now().Add(qc.readTimeout))
		}

		// A QUIC stream is reliable and ordered like a TCP connection,
		// so it uses the same 2-byte length-prefixed framing.
		frame, err := readLengthPrefixedFrame(stream, maxWireFrameLen)
		if err != nil {
			if err == errFrameLenOutOfRange {
				qc.stats.readErrors.Add(1)
				continue
			}
			qc.handleReadError(err)
			continue
		}

		qc.stats.bytesReceived.Add(uint64(len(frame)))
		return frame, nil
	}
}

func (qc *QUICChannel) hasStream() bool {
	qc.streamLock.RLock()
	defer qc.streamLock.RUnlock()
	return qc.stream != nil
}

// Write implements PhysicalChannel.Write.
func (qc *QUICChannel) Write(ctx context.Context, data []byte) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-qc.ctx.Done():
		return fmt.Errorf("channel closed")
	default:
	}

	qc.streamLock.RLock()
	stream := qc.stream
	qc.streamLock.RUnlock()
	if stream == nil {
		qc.stats.writeErrors.Add(1)
		return fmt.Errorf("no stream")
	}

	if qc.writeTimeout > 0 {
		stream.SetWriteDeadline(time.Now().Add(qc.writeTimeout))
	}

	if err := writeLengthPrefixedFrame(stream, data); err != nil {
		qc.handleWriteError(err)
		return err
	}

	qc.stats.bytesSent.Add(uint64(len(data)))
	return nil
}

// Close implements PhysicalChannel.Close.
func (qc *QUICChannel) Close() error {
	if !qc.closed.CompareAndSwap(false, true) {
		return nil
	}
	qc.cancel()

	if qc.listener != nil {
		qc.listener.Close()
	}

	qc.streamLock.Lock()
	if qc.stream != nil {
		qc.stream.Close()
		qc.stream = nil
	}
	qc.streamLock.Unlock()

	qc.connLock.Lock()
	if qc.connection != nil {
		qc.connection.CloseWithError(0, "channel closed")
		qc.stats.disconnects.Add(1)
		qc.connection = nil
	}
	qc.connLock.Unlock()

	qc.wg.Wait()
	return nil
}

// Statistics implements PhysicalChannel.Statistics.
func (qc *QUICChannel) Statistics() TransportStats {
	return qc.stats.snapshot()
}

func (qc *QUICChannel) handleReadError(err error) {
	qc.stats.readErrors.Add(1)
	qc.dropConnAndStream("read error")
}

func (qc *QUICChannel) handleWriteError(err error) {
	qc.stats.writeErrors.Add(1)
	qc.dropConnAndStream("write error")
}

func (qc *QUICChannel) dropConnAndStream(reason string) {
	qc.streamLock.Lock()
	if qc.stream != nil {
		qc.stream.Close()
		qc.stream = nil
	}
	qc.streamLock.Unlock()

	qc.connLock.Lock()
	hadConnection := qc.connection != nil
	if qc.connection != nil {
		qc.connection.CloseWithError(0, reason)
		qc.stats.disconnects.Add(1)
		qc.connection = nil
	}
	qc.connLock.Unlock()

	if hadConnection {
		qc.notifyConnectionLost()
	}
}

// IsConnected reports whether the underlying QUIC connection is
// present and its context hasn't ended.
func (qc *QUICChannel) IsConnected() bool {
	qc.connLock.RLock()
	defer qc.connLock.RUnlock()
	return qc.connection != nil && qc.connection.Context().Err() == nil
}

// LocalAddr returns the local address of the connection.
func (qc *QUICChannel) LocalAddr() net.Addr {
	qc.connLock.RLock()
	defer qc.connLock.RUnlock()
	if qc.connection != nil {
		return qc.connection.LocalAddr()
	}
	return nil
}

// RemoteAddr returns the remote address of the connection.
func (qc *QUICChannel) RemoteAddr() net.Addr {
	qc.connLock.RLock()
	defer qc.connLock.RUnlock()
	if qc.connection != nil {
		return qc.connection.RemoteAddr()
	}
	return nil
}

// SetConnectionStateListener implements PhysicalChannel.SetConnectionStateListener.
func (qc *QUICChannel) SetConnectionStateListener(listener ConnectionStateListener) {
	qc.stateListenerLock.Lock()
	defer qc.stateListenerLock.Unlock()
	qc.stateListener = listener
}

func (qc *QUICChannel) notifyConnectionEstablished() {
	qc.stateListenerLock.RLock()
	listener := qc.stateListener
	qc.stateListenerLock.RUnlock()
	if listener != nil {
		listener.OnConnectionEstablished()
	}
}

func (qc *QUICChannel) notifyConnectionLost() {
	qc.stateListenerLock.RLock()
	listener := qc.stateListener
	qc.stateListenerLock.RUnlock()
	if listener != nil {
		listener.OnConnectionLost()
	}
}
