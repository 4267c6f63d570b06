package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// State is the lifecycle of the notification channel.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	default:
		return "disconnected"
	}
}

// ErrNotConnected is returned by Send when the channel is not open. The
// caller falls back to the request/response path; the Manager never queues
// outbound messages across reconnects.
var ErrNotConnected = errors.New("notification channel not open")

const (
	defaultPingInterval   = 30 * time.Second
	defaultReconnectDelay = 5 * time.Second
)

// WSConn is the slice of *websocket.Conn the Manager needs. Tests inject a
// fake.
type WSConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v any) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadDeadline(t time.Time) error
	Close() error
}

// Dialer opens a websocket connection to the given URL.
type Dialer func(ctx context.Context, url string) (WSConn, error)

func gorillaDialer(ctx context.Context, rawURL string) (WSConn, error) {
	c, _, err := websocket.DefaultDialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// EventHandler receives inbound channel events in arrival order. The Store
// implements it.
type EventHandler interface {
	HandleConnected(unread int)
	HandleNotification(n Notification)
	HandleRead(id string)
}

// Options configures a Manager.
type Options struct {
	// ServerURL is the http(s) base of the notification service.
	ServerURL string
	// Token authenticates the channel, passed as a query parameter: the
	// handshake is a plain HTTP upgrade and may not carry custom headers.
	Token string

	// PingInterval defaults to 30s. The read deadline is held at twice the
	// interval, so a channel with no traffic (the server answers every
	// ping) is forced closed and reconnected.
	PingInterval time.Duration
	// ReconnectDelay defaults to 5s. Fixed delay, no backoff: acceptable
	// for a low-traffic internal admin feed.
	ReconnectDelay time.Duration

	// Dialer defaults to the gorilla dialer.
	Dialer Dialer
}

// Manager owns at most one live channel to the notification service and
// recovers from failures without intervention. All channel errors are
// non-fatal: the only externally visible effect is the state flipping to
// disconnected until the scheduled reconnect lands.
type Manager struct {
	url     string
	token   string
	handler EventHandler
	dial    Dialer

	pingInterval   time.Duration
	reconnectDelay time.Duration

	mu        sync.Mutex
	state     State
	conn      WSConn
	gen       int // connection generation; stale goroutines check it and bail
	stopPing  chan struct{}
	reconnect *time.Timer
	closed    bool

	// wmu serializes WriteJSON calls (keepalive vs. mark_read).
	wmu sync.Mutex
}

func NewManager(opts Options, handler EventHandler) (*Manager, error) {
	wsURL, err := websocketURL(opts.ServerURL, opts.Token)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		url:            wsURL,
		token:          opts.Token,
		handler:        handler,
		dial:           opts.Dialer,
		pingInterval:   opts.PingInterval,
		reconnectDelay: opts.ReconnectDelay,
		state:          StateDisconnected,
	}
	if m.dial == nil {
		m.dial = gorillaDialer
	}
	if m.pingInterval <= 0 {
		m.pingInterval = defaultPingInterval
	}
	if m.reconnectDelay <= 0 {
		m.reconnectDelay = defaultReconnectDelay
	}
	return m, nil
}

// State returns the current channel state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connect opens the channel. Without a token it is a no-op. If a channel is
// already live it is closed first, so two Connect calls in a row still leave
// exactly one open channel. Dial failures never propagate: they schedule the
// single reconnect attempt.
func (m *Manager) Connect() {
	m.mu.Lock()
	if m.closed || m.token == "" {
		m.mu.Unlock()
		return
	}
	m.closeConnLocked(true)
	if m.reconnect != nil {
		m.reconnect.Stop()
		m.reconnect = nil
	}
	m.state = StateConnecting
	m.gen++
	gen := m.gen
	m.mu.Unlock()

	conn, err := m.dial(context.Background(), m.url)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || gen != m.gen {
		// Superseded by a later Connect or by teardown while dialing.
		if conn != nil {
			conn.Close()
		}
		return
	}
	if err != nil {
		log.Warn().Err(err).Msg("notification channel dial failed")
		m.state = StateDisconnected
		m.scheduleReconnectLocked()
		return
	}

	m.conn = conn
	m.state = StateOpen
	m.stopPing = make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(2 * m.pingInterval))

	go m.pingLoop(conn, m.stopPing)
	go m.readLoop(conn, gen)
}

// Send transmits a tagged payload if the channel is open. No buffering: on
// ErrNotConnected the caller uses the fallback path.
func (m *Manager) Send(msg outboundMessage) error {
	m.mu.Lock()
	if m.state != StateOpen || m.conn == nil {
		m.mu.Unlock()
		return ErrNotConnected
	}
	conn := m.conn
	m.mu.Unlock()

	m.wmu.Lock()
	defer m.wmu.Unlock()
	return conn.WriteJSON(msg)
}

// Close tears the channel down deliberately: normal closure code, all timers
// cleared, no reconnect. Idempotent.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.state = StateClosing
	if m.reconnect != nil {
		m.reconnect.Stop()
		m.reconnect = nil
	}
	m.gen++
	m.closeConnLocked(true)
	m.state = StateDisconnected
}

// closeConnLocked stops the keepalive and closes the connection, optionally
// sending a normal-closure frame first. Caller holds mu.
func (m *Manager) closeConnLocked(sendClose bool) {
	if m.stopPing != nil {
		close(m.stopPing)
		m.stopPing = nil
	}
	if m.conn == nil {
		return
	}
	if sendClose {
		data := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		m.conn.WriteControl(websocket.CloseMessage, data, time.Now().Add(time.Second))
	}
	m.conn.Close()
	m.conn = nil
}

func (m *Manager) pingLoop(conn WSConn, stop <-chan struct{}) {
	ticker := time.NewTicker(m.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.wmu.Lock()
			err := conn.WriteJSON(outboundMessage{Type: "ping"})
			m.wmu.Unlock()
			if err != nil {
				// The read loop sees the same failure and handles it.
				return
			}
		}
	}
}

func (m *Manager) readLoop(conn WSConn, gen int) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			m.handleClosed(gen, err)
			return
		}
		// Any inbound traffic counts as liveness; the server answers every
		// ping, so silence past 2x the interval means a dead channel.
		conn.SetReadDeadline(time.Now().Add(2 * m.pingInterval))
		m.dispatch(raw)
	}
}

// dispatch parses and applies one inbound payload. Malformed or unknown
// payloads are logged and dropped; they never take the channel down.
func (m *Manager) dispatch(raw []byte) {
	var ev inboundEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		log.Warn().Err(err).Msg("discarding malformed channel payload")
		return
	}

	switch ev.Event {
	case "connected":
		if ev.Counts == nil {
			log.Warn().Msg("connected event without counts")
			return
		}
		m.handler.HandleConnected(ev.Counts.UnreadNotifications)
	case "notification":
		if ev.Notification == nil {
			log.Warn().Msg("notification event without record")
			return
		}
		m.handler.HandleNotification(*ev.Notification)
	case "notification_read":
		if ev.NotificationID == "" {
			return
		}
		m.handler.HandleRead(ev.NotificationID)
	case "":
		if ev.Type != "pong" && ev.Type != "" {
			log.Debug().Str("type", ev.Type).Msg("ignoring unknown channel message")
		}
	default:
		log.Debug().Str("event", ev.Event).Msg("ignoring unknown channel event")
	}
}

// handleClosed runs when a read fails. A stale generation means this
// connection was already superseded and state belongs to its successor.
func (m *Manager) handleClosed(gen int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return
	}

	m.closeConnLocked(false)
	m.state = StateDisconnected

	if m.closed || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		return
	}

	log.Warn().Err(err).Dur("retry_in", m.reconnectDelay).Msg("notification channel lost")
	m.scheduleReconnectLocked()
}

// scheduleReconnectLocked arms the single reconnect timer. At most one is
// pending at any time. Caller holds mu.
func (m *Manager) scheduleReconnectLocked() {
	if m.reconnect != nil || m.closed {
		return
	}
	m.reconnect = time.AfterFunc(m.reconnectDelay, func() {
		m.mu.Lock()
		m.reconnect = nil
		closed := m.closed
		m.mu.Unlock()
		if !closed {
			m.Connect()
		}
	})
}

func websocketURL(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("server url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("server url: unsupported scheme %q", u.Scheme)
	}
	u.Path = "/ws/notifications"
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
