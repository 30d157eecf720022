// Package transport owns the single WebSocket connection to the game server.
// It turns the socket lifecycle into an ordered stream of events and offers a
// non-blocking send side.
package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/tui-tictac/internal/protocol"
)

var (
	// ErrEmptyUsername is returned by Connect for a blank name.
	ErrEmptyUsername = errors.New("transport: username is empty")

	// ErrAlreadyConnected is returned by Connect while a connection is
	// dialing or open.
	ErrAlreadyConnected = errors.New("transport: already connected")
)

// Event is something that happened on the connection.
type Event interface {
	isEvent()
}

// Opened is emitted once the socket is up. The username announcement is
// already queued as the first frame.
type Opened struct {
	Username string
}

// Message carries one text frame from the server.
type Message struct {
	Data []byte
}

// Closed is emitted exactly once per Connect, after every Message of that
// connection. Err is nil for a close this client asked for or a normal close
// by the server.
type Closed struct {
	Err error
}

func (Opened) isEvent()  {}
func (Message) isEvent() {}
func (Closed) isEvent()  {}

// Options tunes the connection.
type Options struct {
	Endpoint         string
	HandshakeTimeout time.Duration
	WriteWait        time.Duration
	PongWait         time.Duration
	PingPeriod       time.Duration
	MaxMessageSize   int64
	SendBuffer       int
	EventBuffer      int
}

// DefaultOptions mirrors the game server's keepalive settings.
func DefaultOptions() Options {
	return Options{
		Endpoint:         "ws://localhost:8000",
		HandshakeTimeout: 10 * time.Second,
		WriteWait:        10 * time.Second,
		PongWait:         60 * time.Second,
		PingPeriod:       54 * time.Second,
		MaxMessageSize:   64 * 1024,
		SendBuffer:       16,
		EventBuffer:      64,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Endpoint == "" {
		o.Endpoint = d.Endpoint
	}
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = d.HandshakeTimeout
	}
	if o.WriteWait <= 0 {
		o.WriteWait = d.WriteWait
	}
	if o.PongWait <= 0 {
		o.PongWait = d.PongWait
	}
	if o.PingPeriod <= 0 || o.PingPeriod >= o.PongWait {
		o.PingPeriod = o.PongWait * 9 / 10
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = d.MaxMessageSize
	}
	if o.SendBuffer < 1 {
		o.SendBuffer = d.SendBuffer
	}
	if o.EventBuffer < 1 {
		o.EventBuffer = d.EventBuffer
	}
	return o
}

// link is one Connect call, from dial to close.
type link struct {
	username string
	cancel   context.CancelFunc
	conn     *websocket.Conn // nil while dialing; guarded by Manager.mu
	send     chan []byte
	quit     chan struct{}
	quitOnce sync.Once
	closing  atomic.Bool
}

func (l *link) stop() {
	l.closing.Store(true)
	l.cancel()
	l.quitOnce.Do(func() { close(l.quit) })
}

// Manager holds at most one live connection.
type Manager struct {
	opts   Options
	dialer *websocket.Dialer
	logger *log.Logger

	events    chan Event
	done      chan struct{}
	closeOnce sync.Once

	mu   sync.Mutex
	link *link
}

// New creates a manager. Nothing is dialed until Connect.
func New(opts Options, logger *log.Logger) *Manager {
	opts = opts.withDefaults()
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		opts: opts,
		dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: opts.HandshakeTimeout,
		},
		logger: logger.WithPrefix("transport"),
		events: make(chan Event, opts.EventBuffer),
		done:   make(chan struct{}),
	}
}

// Events returns the ordered event stream. It must be drained.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// Connected reports whether a connection is open and not closing.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.link != nil && m.link.conn != nil && !m.link.closing.Load()
}

// Connect starts dialing <endpoint>/ws and returns immediately. ctx bounds
// the dial only. The outcome arrives on Events: Opened then Closed, or just
// Closed when the dial fails.
func (m *Manager) Connect(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrEmptyUsername
	}
	target, err := SocketURL(m.opts.Endpoint)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if m.link != nil {
		m.mu.Unlock()
		return ErrAlreadyConnected
	}
	dialCtx, cancel := context.WithCancel(ctx)
	l := &link{
		username: username,
		cancel:   cancel,
		send:     make(chan []byte, m.opts.SendBuffer),
		quit:     make(chan struct{}),
	}
	m.link = l
	m.mu.Unlock()

	go m.run(dialCtx, l, target)
	return nil
}

// Send queues msg for transmission. It returns false, without error, when
// no connection is open or the send buffer is full.
func (m *Manager) Send(msg protocol.Outbound) bool {
	m.mu.Lock()
	l := m.link
	open := l != nil && l.conn != nil && !l.closing.Load()
	m.mu.Unlock()
	if !open {
		return false
	}

	data, err := protocol.Encode(msg)
	if err != nil {
		m.logger.Warn("encode failed", "type", msg.MessageType(), "err", err)
		return false
	}
	select {
	case l.send <- data:
		return true
	default:
		m.logger.Warn("send buffer full, dropping", "type", msg.MessageType())
		return false
	}
}

// Disconnect closes the current connection with a normal close frame after
// flushing queued frames. Idempotent; a no-op when idle.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	l := m.link
	m.mu.Unlock()
	if l != nil {
		l.stop()
	}
}

// Close disconnects and releases the event stream. Pending events may be
// discarded once Close returns.
func (m *Manager) Close() {
	m.Disconnect()
	m.closeOnce.Do(func() { close(m.done) })
}

func (m *Manager) emit(ev Event) {
	select {
	case m.events <- ev:
	case <-m.done:
	}
}

func (m *Manager) run(ctx context.Context, l *link, target string) {
	err := m.serve(ctx, l, target)
	if err != nil {
		m.logger.Warn("connection closed", "username", l.username, "err", err)
	} else {
		m.logger.Info("connection closed", "username", l.username)
	}
	m.emit(Closed{Err: err})

	m.mu.Lock()
	if m.link == l {
		m.link = nil
	}
	m.mu.Unlock()
	l.cancel()
}

func (m *Manager) serve(ctx context.Context, l *link, target string) error {
	m.logger.Debug("dialing", "url", target)
	conn, resp, err := m.dialer.DialContext(ctx, target, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if l.closing.Load() {
			return nil
		}
		return fmt.Errorf("transport: dial %s: %w", target, err)
	}
	defer conn.Close()
	conn.SetReadLimit(m.opts.MaxMessageSize)

	hello, err := protocol.Encode(protocol.NewUsername(l.username))
	if err != nil {
		return err
	}
	l.send <- hello

	m.mu.Lock()
	aborted := l.closing.Load()
	if !aborted {
		l.conn = conn
	}
	m.mu.Unlock()
	if aborted {
		return nil
	}

	m.logger.Info("connected", "url", target, "username", l.username)
	m.emit(Opened{Username: l.username})

	g, gctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		return m.readPump(l, conn)
	})
	g.Go(func() error {
		err := m.writePump(gctx, l, conn)
		if err != nil {
			// Unblock the reader.
			_ = conn.Close()
		}
		return err
	})
	err = g.Wait()

	if l.closing.Load() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return nil
	}
	return fmt.Errorf("transport: %w", err)
}

func (m *Manager) readPump(l *link, conn *websocket.Conn) error {
	_ = conn.SetReadDeadline(time.Now().Add(m.opts.PongWait))
	conn.SetPongHandler(func(string) error {
		if l.closing.Load() {
			return nil
		}
		return conn.SetReadDeadline(time.Now().Add(m.opts.PongWait))
	})

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if kind != websocket.TextMessage {
			m.logger.Debug("ignoring non-text frame", "kind", kind)
			continue
		}
		m.emit(Message{Data: data})
	}
}

func (m *Manager) writePump(ctx context.Context, l *link, conn *websocket.Conn) error {
	ticker := time.NewTicker(m.opts.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case data := <-l.send:
			if err := m.write(conn, websocket.TextMessage, data); err != nil {
				return err
			}

		case <-ticker.C:
			if err := m.write(conn, websocket.PingMessage, nil); err != nil {
				return err
			}

		case <-l.quit:
			if err := m.flush(l, conn); err != nil {
				return err
			}
			bye := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			if err := m.write(conn, websocket.CloseMessage, bye); err != nil {
				return err
			}
			// Wait for the server's close echo, but not forever.
			_ = conn.SetReadDeadline(time.Now().Add(m.opts.WriteWait))
			return nil
		}
	}
}

// flush writes whatever is still queued.
func (m *Manager) flush(l *link, conn *websocket.Conn) error {
	for {
		select {
		case data := <-l.send:
			if err := m.write(conn, websocket.TextMessage, data); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (m *Manager) write(conn *websocket.Conn, kind int, data []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(m.opts.WriteWait))
	return conn.WriteMessage(kind, data)
}
