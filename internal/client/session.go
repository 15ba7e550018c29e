package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/opimobi/ohap-go/internal/logging"
	"github.com/opimobi/ohap-go/internal/protocol"
	"github.com/opimobi/ohap-go/ohap"
)

const (
	// defaultDialTimeout bounds the WebSocket handshake
	defaultDialTimeout = 10 * time.Second

	// writeWait is the time allowed to write a message to the server
	writeWait = 10 * time.Second

	// outboundQueueSize buffers listen requests and commands between the
	// caller's goroutine and the write pump
	outboundQueueSize = 64
)

// ErrSessionClosed is returned by operations on a closed session.
var ErrSessionClosed = errors.New("client: session closed")

// Config holds the session configuration
type Config struct {
	// URL is the central unit's WebSocket address (ws:// or wss://).
	// http:// and https:// are accepted and rewritten.
	URL string

	// DialTimeout bounds the connection handshake (default 10s)
	DialTimeout time.Duration
}

// Session is one client connection mirroring one central unit's tree.
type Session struct {
	conn      *websocket.Conn
	central   *ohap.CentralUnit
	outbound  chan []byte
	done      chan struct{}
	closeOnce sync.Once

	// targets indexes the mirrored items by what a command may do to them.
	// The tree itself belongs to the Run goroutine; this index is the one
	// piece of mirrored state commands may consult from other goroutines.
	mu      sync.Mutex
	targets map[int64]commandTarget
}

// commandTarget is the command-relevant shape of one mirrored item.
type commandTarget struct {
	isDevice   bool
	deviceType ohap.DeviceType
	valueKind  ohap.ValueKind
}

// Dial connects to a central-unit server and prepares an empty mirror of its
// tree. Nothing is synchronized until a container starts listening.
func Dial(ctx context.Context, cfg Config) (*Session, error) {
	wsURL, err := normalizeURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	timeout := cfg.DialTimeout
	if timeout == 0 {
		timeout = defaultDialTimeout
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to central unit at %s: %w", wsURL, err)
	}
	logging.LogConnection(conn.RemoteAddr().String(), "websocket_connected")

	s := &Session{
		conn:     conn,
		outbound: make(chan []byte, outboundQueueSize),
		done:     make(chan struct{}),
		targets:  make(map[int64]commandTarget),
	}

	central, err := ohap.NewCentralUnit(wsURL, s.listeningStateChanged)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	s.central = central
	s.watchUnregistrations()

	go s.writePump()
	return s, nil
}

// newMirrorSession builds a session with a mirror but no connection.
// Used by tests that drive apply directly.
func newMirrorSession(rawURL string) (*Session, error) {
	s := &Session{
		outbound: make(chan []byte, outboundQueueSize),
		done:     make(chan struct{}),
		targets:  make(map[int64]commandTarget),
	}
	central, err := ohap.NewCentralUnit(rawURL, s.listeningStateChanged)
	if err != nil {
		return nil, err
	}
	s.central = central
	s.watchUnregistrations()
	return s, nil
}

// watchUnregistrations keeps the command index in step with items leaving
// the tree. The callback runs on the Run goroutine, while the identifier is
// still valid.
func (s *Session) watchUnregistrations() {
	s.central.ItemUnregistered().Subscribe(func(_ *ohap.CentralUnit, item ohap.Item) {
		s.mu.Lock()
		delete(s.targets, item.ID())
		s.mu.Unlock()
	})
}

// rememberTarget records a freshly mirrored item in the command index.
func (s *Session) rememberTarget(id int64, target commandTarget) {
	s.mu.Lock()
	s.targets[id] = target
	s.mu.Unlock()
}

// CentralUnit returns the mirrored central unit.
func (s *Session) CentralUnit() *ohap.CentralUnit {
	return s.central
}

// Root returns the root container of the mirrored tree, the usual starting
// point for listening.
func (s *Session) Root() *ohap.Container {
	return &s.central.Container
}

// Run reads and applies server updates until the context is canceled, the
// server closes the connection, or a protocol violation occurs. It must be
// called once; all model events fire on its goroutine.
func (s *Session) Run(ctx context.Context) error {
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.done:
		}
	}()

	remoteAddr := s.conn.RemoteAddr().String()
	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.LogConnection(remoteAddr, "websocket_closed")
				return nil
			}
			return fmt.Errorf("connection to central unit lost: %w", err)
		}
		if msgType != websocket.BinaryMessage {
			logging.Warn("Ignoring non-binary WebSocket message",
				zap.String("remote_addr", remoteAddr),
				zap.Int("message_type", msgType),
			)
			continue
		}

		logging.LogWireMessage(remoteAddr, "received", data)

		msg, err := protocol.Decode(data)
		if err != nil {
			// Not speaking our protocol; drop the connection.
			s.Close()
			return fmt.Errorf("protocol violation from central unit: %w", err)
		}
		if err := s.apply(msg); err != nil {
			// A stale or unknown update is survivable; log and move on.
			logging.Warn("Could not apply update",
				zap.String("remote_addr", remoteAddr),
				zap.Error(err),
			)
		}
	}
}

// SetBinaryValue asks the server to change a binary actuator. The mirror is
// updated when the server echoes the change back.
func (s *Session) SetBinaryValue(deviceID int64, value bool) error {
	if err := s.checkCommand(deviceID, ohap.ValueKindBinary); err != nil {
		return err
	}
	return s.send(protocol.SetBinary{DeviceID: deviceID, Value: value})
}

// SetDecimalValue asks the server to change a decimal actuator. The mirror is
// updated when the server echoes the change back.
func (s *Session) SetDecimalValue(deviceID int64, value float64) error {
	if err := s.checkCommand(deviceID, ohap.ValueKindDecimal); err != nil {
		return err
	}
	return s.send(protocol.SetDecimal{DeviceID: deviceID, Value: value})
}

// checkCommand validates a command against the command index when the target
// is already mirrored. An unmirrored device passes; the server is the
// authority and will reject a bad command itself. The index, not the live
// tree, is consulted so commands may come from any goroutine.
func (s *Session) checkCommand(deviceID int64, kind ohap.ValueKind) error {
	s.mu.Lock()
	target, ok := s.targets[deviceID]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	if !target.isDevice {
		return fmt.Errorf("item %d is not a device", deviceID)
	}
	if target.deviceType != ohap.DeviceTypeActuator {
		return fmt.Errorf("device %d is a sensor and cannot be commanded", deviceID)
	}
	if target.valueKind != kind {
		return fmt.Errorf("device %d carries a %s value, not %s", deviceID, target.valueKind, kind)
	}
	return nil
}

// Close tears down the connection. Safe to call more than once and from any
// goroutine.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.conn != nil {
			_ = s.conn.Close()
		}
	})
}

// listeningStateChanged is the ohap.ListeningStateFunc of the mirrored
// central unit. It translates listening transitions into Listen/Unlisten
// messages for the server.
func (s *Session) listeningStateChanged(c *ohap.Container, listening bool) {
	logging.LogListeningState(c.ID(), listening)

	var msg protocol.Message
	if listening {
		msg = protocol.Listen{ContainerID: c.ID()}
	} else {
		msg = protocol.Unlisten{ContainerID: c.ID()}
	}
	if err := s.send(msg); err != nil {
		logging.Warn("Could not send listening request",
			zap.Int64("container_id", c.ID()),
			zap.Bool("listening", listening),
			zap.Error(err),
		)
	}
}

// send encodes a message and hands it to the write pump.
func (s *Session) send(m protocol.Message) error {
	data, err := protocol.Encode(m)
	if err != nil {
		return err
	}
	select {
	case s.outbound <- data:
		return nil
	case <-s.done:
		return ErrSessionClosed
	}
}

// writePump serializes all writes onto one goroutine, as required by
// gorilla/websocket.
func (s *Session) writePump() {
	for {
		select {
		case data := <-s.outbound:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				logging.Warn("Write to central unit failed", zap.Error(err))
				s.Close()
				return
			}
			logging.LogWireMessage(s.conn.RemoteAddr().String(), "sent", data)
		case <-s.done:
			return
		}
	}
}

// normalizeURL accepts ws, wss, http and https URLs and returns the
// WebSocket form.
func normalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid central unit URL %q: %w", rawURL, err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "":
		return "", fmt.Errorf("central unit URL %q has no scheme", rawURL)
	default:
		return "", fmt.Errorf("central unit URL %q has unsupported scheme %q", rawURL, u.Scheme)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), nil
}
