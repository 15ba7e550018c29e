package simulator

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/opimobi/ohap-go/internal/logging"
	"github.com/opimobi/ohap-go/internal/protocol"
	"github.com/opimobi/ohap-go/ohap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Outgoing messages buffered per connection before the connection is
	// considered too slow and dropped
	sendQueueSize = 64

	// Grace period for connections to drain on shutdown
	shutdownTimeout = 10 * time.Second
)

// Config holds the simulator configuration
type Config struct {
	Host     string
	Port     int
	TreePath string // Path to a YAML tree definition (empty = built-in demo tree)
	LogLevel string
}

// Simulator is a central-unit server backed by an in-memory item tree. It
// answers Listen requests with snapshots of the listened container's children
// and streams subsequent changes to every connection listening to the
// affected container.
type Simulator struct {
	config     *Config
	central    *ohap.CentralUnit
	upgrader   websocket.Upgrader
	httpServer *http.Server

	mu    sync.Mutex // guards central and conns
	conns map[*wsSession]struct{}
	wg    sync.WaitGroup
}

// wsSession is one client connection and the set of containers it listens to.
type wsSession struct {
	sim       *Simulator
	conn      *websocket.Conn
	send      chan []byte
	listening map[int64]bool
}

// New creates a simulator serving the tree named by the configuration.
func New(config *Config) (*Simulator, error) {
	if err := logging.Initialize(config.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	def := DefaultTree()
	if config.TreePath != "" {
		var err error
		def, err = LoadTree(config.TreePath)
		if err != nil {
			return nil, err
		}
	}
	central, err := def.Build()
	if err != nil {
		return nil, fmt.Errorf("invalid tree definition: %w", err)
	}

	return &Simulator{
		config:  config,
		central: central,
		conns:   make(map[*wsSession]struct{}),
	}, nil
}

// CentralUnit returns the authoritative tree. Mutate it only through the
// Update and Remove methods, which broadcast the change to listeners.
func (s *Simulator) CentralUnit() *ohap.CentralUnit {
	return s.central
}

// Start serves WebSocket connections and blocks until a shutdown signal.
func (s *Simulator) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{Addr: addr, Handler: s}

	logging.Info("Starting central-unit simulator",
		zap.String("addr", addr),
		zap.String("tree", s.central.Name()),
		zap.Int("items", s.central.ItemIDCount()),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping simulator...")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// Shutdown stops accepting connections and closes the active ones.
func (s *Simulator) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			logging.Error("Error shutting down HTTP server", zap.Error(err))
		}
	}

	s.mu.Lock()
	for ws := range s.conns {
		_ = ws.conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		logging.Info("All connections closed")
	case <-shutdownCtx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	}

	logging.Sync()
	return nil
}

// ServeHTTP upgrades the request and runs the connection until it closes.
func (s *Simulator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}
	logging.LogConnection(r.RemoteAddr, "websocket_upgraded")

	ws := &wsSession{
		sim:       s,
		conn:      conn,
		send:      make(chan []byte, sendQueueSize),
		listening: make(map[int64]bool),
	}
	s.mu.Lock()
	s.conns[ws] = struct{}{}
	s.mu.Unlock()

	s.wg.Add(1)
	go ws.writePump()
	ws.readLoop()
	s.wg.Done()
}

func (ws *wsSession) readLoop() {
	remoteAddr := ws.conn.RemoteAddr().String()
	defer func() {
		ws.sim.mu.Lock()
		delete(ws.sim.conns, ws)
		ws.sim.mu.Unlock()
		close(ws.send)
		_ = ws.conn.Close()
		logging.LogConnection(remoteAddr, "websocket_closed")
	}()

	for {
		msgType, data, err := ws.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logging.Debug("Connection read ended",
					zap.String("remote_addr", remoteAddr),
					zap.Error(err),
				)
			}
			return
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
			logging.Warn("Dropping client speaking a broken protocol",
				zap.String("remote_addr", remoteAddr),
				zap.Error(err),
			)
			return
		}
		if err := ws.sim.handle(ws, msg); err != nil {
			// Bad commands are the client's problem, not the connection's.
			logging.Warn("Rejected client message",
				zap.String("remote_addr", remoteAddr),
				zap.Error(err),
			)
		}
	}
}

func (ws *wsSession) writePump() {
	for data := range ws.send {
		_ = ws.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := ws.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			logging.Debug("Write failed, closing connection", zap.Error(err))
			_ = ws.conn.Close()
			return
		}
		logging.LogWireMessage(ws.conn.RemoteAddr().String(), "sent", data)
	}
}

// enqueue hands an encoded message to the connection's write pump. Callers
// hold sim.mu, which also serializes against readLoop's close of the channel.
func (ws *wsSession) enqueue(data []byte) {
	select {
	case ws.send <- data:
	default:
		logging.Warn("Send queue full, dropping message",
			zap.String("remote_addr", ws.conn.RemoteAddr().String()),
		)
	}
}

// handle applies one client message to the authoritative tree.
func (s *Simulator) handle(ws *wsSession, msg protocol.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch msg := msg.(type) {
	case protocol.Listen:
		return s.handleListen(ws, msg.ContainerID)
	case protocol.Unlisten:
		delete(ws.listening, msg.ContainerID)
		return nil
	case protocol.SetBinary:
		device, err := s.actuatorByID(msg.DeviceID, ohap.ValueKindBinary)
		if err != nil {
			return err
		}
		return s.applyBinaryLocked(device, msg.Value)
	case protocol.SetDecimal:
		device, err := s.actuatorByID(msg.DeviceID, ohap.ValueKindDecimal)
		if err != nil {
			return err
		}
		return s.applyDecimalLocked(device, msg.Value)
	default:
		return fmt.Errorf("unexpected message %T from client", msg)
	}
}

// handleListen marks the container listened and sends the snapshot of its
// direct children. Listening twice is idempotent; the snapshot is not resent.
func (s *Simulator) handleListen(ws *wsSession, containerID int64) error {
	container, err := s.containerByID(containerID)
	if err != nil {
		return err
	}
	if ws.listening[containerID] {
		return nil
	}
	ws.listening[containerID] = true

	for i := 0; i < container.ItemCount(); i++ {
		msg := itemAddedMessage(container.ItemByIndex(i))
		data, err := protocol.Encode(msg)
		if err != nil {
			return err
		}
		ws.enqueue(data)
	}
	return nil
}

// UpdateBinary changes a binary device's value from the server side (a
// simulated measurement or manual override) and broadcasts the change.
func (s *Simulator) UpdateBinary(deviceID int64, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	device, err := s.deviceByID(deviceID, ohap.ValueKindBinary)
	if err != nil {
		return err
	}
	return s.applyBinaryLocked(device, value)
}

// UpdateDecimal changes a decimal device's value from the server side and
// broadcasts the change.
func (s *Simulator) UpdateDecimal(deviceID int64, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	device, err := s.deviceByID(deviceID, ohap.ValueKindDecimal)
	if err != nil {
		return err
	}
	return s.applyDecimalLocked(device, value)
}

// RemoveItem removes an item and its subtree from the installation and tells
// the listeners of its parent.
func (s *Simulator) RemoveItem(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.central.ItemByID(id)
	if !ok {
		return fmt.Errorf("unknown item %d", id)
	}
	parentID := item.Parent().ID()
	item.Destroy()

	s.broadcastLocked(parentID, protocol.ItemRemoved{ID: id})
	logging.LogItemEvent("item_removed", id, "")
	return nil
}

func (s *Simulator) applyBinaryLocked(device *ohap.Device, value bool) error {
	if err := device.SetBinaryValue(value); err != nil {
		return err
	}
	s.broadcastLocked(device.Parent().ID(), protocol.BinaryChanged{DeviceID: device.ID(), Value: value})
	return nil
}

func (s *Simulator) applyDecimalLocked(device *ohap.Device, value float64) error {
	if err := device.SetDecimalValue(value); err != nil {
		return err
	}
	s.broadcastLocked(device.Parent().ID(), protocol.DecimalChanged{DeviceID: device.ID(), Value: value})
	return nil
}

// broadcastLocked sends a message to every connection listening to the given
// container. Callers hold s.mu.
func (s *Simulator) broadcastLocked(containerID int64, msg protocol.Message) {
	data, err := protocol.Encode(msg)
	if err != nil {
		logging.Error("Could not encode broadcast", zap.Error(err))
		return
	}
	for ws := range s.conns {
		if ws.listening[containerID] {
			ws.enqueue(data)
		}
	}
}

func (s *Simulator) containerByID(id int64) (*ohap.Container, error) {
	if id == 0 {
		return &s.central.Container, nil
	}
	item, ok := s.central.ItemByID(id)
	if !ok {
		return nil, fmt.Errorf("unknown container %d", id)
	}
	container, ok := item.(*ohap.Container)
	if !ok {
		return nil, fmt.Errorf("item %d is not a container", id)
	}
	return container, nil
}

func (s *Simulator) deviceByID(id int64, kind ohap.ValueKind) (*ohap.Device, error) {
	item, ok := s.central.ItemByID(id)
	if !ok {
		return nil, fmt.Errorf("unknown device %d", id)
	}
	device, ok := item.(*ohap.Device)
	if !ok {
		return nil, fmt.Errorf("item %d is not a device", id)
	}
	if device.ValueKind() != kind {
		return nil, fmt.Errorf("device %d carries a %s value, not %s", id, device.ValueKind(), kind)
	}
	return device, nil
}

// actuatorByID is deviceByID with the additional requirement that clients may
// only command actuators.
func (s *Simulator) actuatorByID(id int64, kind ohap.ValueKind) (*ohap.Device, error) {
	device, err := s.deviceByID(id, kind)
	if err != nil {
		return nil, err
	}
	if device.Type() != ohap.DeviceTypeActuator {
		return nil, fmt.Errorf("device %d is a sensor and cannot be commanded", id)
	}
	return device, nil
}

// itemAddedMessage encodes one tree item as the wire message announcing it.
func itemAddedMessage(item ohap.Item) protocol.Message {
	loc := item.Location()
	switch item := item.(type) {
	case *ohap.Device:
		msg := protocol.DeviceAdded{
			ID:          item.ID(),
			ParentID:    item.Parent().ID(),
			DeviceType:  deviceTypeToWire(item.Type()),
			ValueKind:   valueKindToWire(item.ValueKind()),
			Name:        item.Name(),
			Description: item.Description(),
			Internal:    item.Internal(),
			X:           int32(loc.X), Y: int32(loc.Y), Z: int32(loc.Z),
		}
		switch item.ValueKind() {
		case ohap.ValueKindBinary:
			msg.BinaryValue = item.BinaryValue()
		case ohap.ValueKindDecimal:
			msg.DecimalValue = item.DecimalValue()
			msg.MinValue = item.MinValue()
			msg.MaxValue = item.MaxValue()
			msg.Unit = item.Unit()
			msg.UnitAbbreviation = item.UnitAbbreviation()
		}
		return msg
	case *ohap.Container:
		return protocol.ContainerAdded{
			ID:          item.ID(),
			ParentID:    item.Parent().ID(),
			Name:        item.Name(),
			Description: item.Description(),
			Internal:    item.Internal(),
			X:           int32(loc.X), Y: int32(loc.Y), Z: int32(loc.Z),
		}
	default:
		panic(fmt.Sprintf("simulator: unexpected item %T in tree", item))
	}
}

func deviceTypeToWire(t ohap.DeviceType) byte {
	if t == ohap.DeviceTypeSensor {
		return protocol.DeviceSensor
	}
	return protocol.DeviceActuator
}

func valueKindToWire(k ohap.ValueKind) byte {
	if k == ohap.ValueKindDecimal {
		return protocol.ValueDecimal
	}
	return protocol.ValueBinary
}
