// Package websocket manages the analysis stream connection to the backend.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/raihanakbr/scamguard-monitor/internal/observability/logging"
	"github.com/raihanakbr/scamguard-monitor/internal/observability/metrics"
	"github.com/raihanakbr/scamguard-monitor/internal/protocol"
)

type WebsocketDialer interface {
	DialContext(ctx context.Context, urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

// NewDialer returns the default dialer used against the analysis backend.
func NewDialer() *websocket.Dialer {
	return &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: HandshakeTimeout,
	}
}

// Manager owns the single stream session to the analysis endpoint.
type Manager struct {
	url      string
	dialer   WebsocketDialer
	mode     Readiness
	listener Listener
	logger   zerolog.Logger
	metrics  *metrics.Metrics

	mu            sync.Mutex
	conn          *websocket.Conn
	phase         Phase
	attempted     bool
	ready         bool
	explicitReady bool
	startSent     bool
	finished      bool
	closing       bool
	done          chan struct{}

	writeMu sync.Mutex
}

// NewManager creates a manager for the stream at url. A nil dialer uses
// NewDialer.
func NewManager(url string, mode Readiness, dialer WebsocketDialer, listener Listener) *Manager {
	if dialer == nil {
		dialer = NewDialer()
	}
	return &Manager{
		url:      url,
		dialer:   dialer,
		mode:     mode,
		listener: listener,
		logger:   logging.WithComponent("connection"),
		metrics:  metrics.DefaultMetrics,
		done:     make(chan struct{}),
	}
}

// WithMetrics replaces the metrics sink.
func (m *Manager) WithMetrics(mt *metrics.Metrics) *Manager {
	m.metrics = mt
	return m
}

// Connect opens the stream. It makes exactly one attempt per manager and does
// not retry: a failed dial moves the phase to error.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.attempted {
		m.mu.Unlock()
		return ErrAlreadyConnected
	}
	m.attempted = true
	m.mu.Unlock()

	m.setPhase(PhaseConnecting, LabelConnecting)
	m.logger.Info().Str("url", m.url).Str("readiness", m.mode.String()).Msg("Connecting to analysis stream")

	conn, _, err := m.dialer.DialContext(ctx, m.url, nil)
	if err != nil {
		m.setPhase(PhaseError, LabelError)
		return fmt.Errorf("failed to connect to analysis stream: %w", err)
	}
	conn.SetReadLimit(MaxMessageBytes)

	m.mu.Lock()
	if m.closing {
		m.mu.Unlock()
		conn.Close()
		return nil
	}
	m.conn = conn
	m.mu.Unlock()

	label := LabelProcessing
	if m.mode == ReadinessExplicit {
		label = LabelLoadingAI
	}
	m.setPhase(PhaseProcessing, label)

	go m.listen(conn)
	return nil
}

// Phase returns the current connection phase.
func (m *Manager) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Ready reports whether streaming analysis can begin.
func (m *Manager) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

// RequiresStart reports whether the backend announced readiness explicitly and
// therefore waits for the start command.
func (m *Manager) RequiresStart() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.explicitReady
}

// SendStart sends {action:"start"} at most once. It reports sent=false without
// error when the backend does not need the command or it was already sent.
func (m *Manager) SendStart() (bool, error) {
	m.mu.Lock()
	if !m.ready {
		m.mu.Unlock()
		return false, ErrNotReady
	}
	if !m.explicitReady || m.startSent || m.conn == nil {
		m.mu.Unlock()
		return false, nil
	}
	m.startSent = true
	conn := m.conn
	m.mu.Unlock()

	if err := m.writeJSON(conn, protocol.NewStartCommand()); err != nil {
		return false, fmt.Errorf("failed to send start command: %w", err)
	}
	m.logger.Info().Msg("Sent start command")
	return true, nil
}

// Close tears the stream down. Closing is not reported as a phase change.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closing {
		m.mu.Unlock()
		return
	}
	m.closing = true
	close(m.done)
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	if conn == nil {
		return
	}
	m.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(CloseGrace)); err != nil {
		m.logger.Debug().Err(err).Msg("Error sending close frame")
	}
	m.writeMu.Unlock()
	conn.Close()
}

func (m *Manager) writeJSON(conn *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if err := conn.SetWriteDeadline(time.Now().Add(WriteWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

// listen reads frames until the socket fails or closes.
func (m *Manager) listen(conn *websocket.Conn) {
	defer conn.Close()

	for {
		select {
		case <-m.done:
			return
		default:
		}

		messageType, data, err := conn.ReadMessage()
		if err != nil {
			m.handleReadError(err)
			return
		}
		if messageType != websocket.TextMessage {
			m.logger.Debug().Int("messageType", messageType).Msg("Ignoring non-text frame")
			continue
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			m.metrics.RecordStreamMessage(protocol.KindUnknown.String())
			m.logger.Debug().Err(err).Bytes("frame", truncate(data, 200)).Msg("Ignoring stream message")
			continue
		}
		m.metrics.RecordStreamMessage(msg.Kind.String())
		m.handleMessage(msg)
	}
}

func (m *Manager) handleMessage(msg protocol.Inbound) {
	switch msg.Kind {
	case protocol.KindReady:
		label := LabelReady
		if msg.Control != nil && msg.Control.Message != "" {
			label = msg.Control.Message
		}
		m.markReady(m.mode != ReadinessImplicit, label)
		return
	case protocol.KindFinished:
		m.mu.Lock()
		m.finished = true
		m.mu.Unlock()
		m.setPhase(PhaseComplete, LabelComplete)
		m.listener.OnMessage(msg)
		return
	}

	if m.mode != ReadinessExplicit {
		m.markReady(false, LabelReady)
	}
	m.listener.OnMessage(msg)
}

func (m *Manager) markReady(explicit bool, label string) {
	m.mu.Lock()
	if m.ready {
		m.mu.Unlock()
		return
	}
	m.ready = true
	m.explicitReady = explicit
	m.mu.Unlock()

	m.logger.Info().Bool("explicit", explicit).Msg("Analysis backend ready")
	m.setPhase(PhaseReady, label)
	m.listener.OnReady(explicit)
}

func (m *Manager) handleReadError(err error) {
	m.mu.Lock()
	closing, finished, ready := m.closing, m.finished, m.ready
	m.mu.Unlock()

	if closing || finished {
		m.logger.Debug().Err(err).Msg("Stream closed")
		return
	}

	var closeErr *websocket.CloseError
	switch {
	case errors.As(err, &closeErr) && !ready:
		m.logger.Warn().Err(err).Msg("Stream closed before readiness")
		m.setPhase(PhaseError, LabelDisconnected)
	case errors.As(err, &closeErr):
		m.logger.Warn().Err(err).Msg("Stream closed before analysis finished")
		m.setPhase(PhaseDisconnected, LabelDisconnected)
	default:
		m.logger.Error().Err(err).Msg("Error reading analysis stream")
		m.setPhase(PhaseError, LabelError)
	}
}

func (m *Manager) setPhase(p Phase, label string) {
	m.mu.Lock()
	if !m.phase.canMoveTo(p) {
		cur := m.phase
		m.mu.Unlock()
		m.logger.Debug().Stringer("from", cur).Stringer("to", p).Msg("Ignoring phase transition")
		return
	}
	m.phase = p
	m.mu.Unlock()

	m.metrics.RecordPhase(p.String())
	m.listener.OnPhase(p, label)
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
