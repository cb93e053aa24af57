package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/raihanakbr/scamguard-monitor/internal/observability/logging"
	"github.com/raihanakbr/scamguard-monitor/internal/observability/metrics"
	"github.com/raihanakbr/scamguard-monitor/internal/protocol"
)

// ReadyMessage is sent with the READY status when explicit readiness is on.
const ReadyMessage = "AI Ready. Waiting for play..."

const writeWait = 5 * time.Second

var errClientGone = errors.New("client disconnected")

// Options controls how a script is streamed.
type Options struct {
	// ExplicitReady sends READY first and waits for {action:"start"}.
	ExplicitReady bool
	// Realtime honours each event's delay_ms.
	Realtime bool
}

// Server serves the analysis backend contracts from a script.
type Server struct {
	script   *Script
	store    *Store
	opts     Options
	upgrader websocket.Upgrader
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// NewServer creates a replay server for script.
func NewServer(script *Script, opts Options) *Server {
	return &Server{
		script:   script,
		store:    NewStore(),
		opts:     opts,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		metrics:  metrics.DefaultMetrics,
		logger:   logging.WithComponent("replay"),
	}
}

// WithMetrics replaces the metrics sink.
func (s *Server) WithMetrics(m *metrics.Metrics) *Server {
	s.metrics = m
	return s
}

// Store exposes the session store.
func (s *Server) Store() *Store {
	return s.store
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get(protocol.AnalyzePath, s.handleAnalyze)
	r.Post(protocol.CheckTextPath, s.handleCheckText)
	r.Get("/api/sessions/{id}", s.handleGetSession)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to upgrade connection")
		return
	}
	defer conn.Close()

	sess := s.store.Create()
	log := logging.WithSession("replay", sess.ID)
	log.Info().Str("remote", r.RemoteAddr).Msg("New analysis connection")

	defer func() {
		info := sess.Info()
		s.metrics.RecordReplaySession(info.Status)
		log.Info().
			Str("status", info.Status).
			Int("messages_sent", info.MessagesSent).
			Msg("Analysis connection finished")
	}()

	if s.opts.ExplicitReady {
		if err := s.awaitStart(conn); err != nil {
			log.Warn().Err(err).Msg("Start handshake failed")
			sess.finish(StatusError, err.Error())
			return
		}
	}
	sess.markStarted()

	// The only thing the client sends after start is a close frame.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := s.stream(conn, sess, gone); err != nil {
		log.Warn().Err(err).Msg("Streaming aborted")
		sess.finish(StatusError, err.Error())
		return
	}

	if err := s.write(conn, protocol.Control{Status: protocol.ControlFinished}); err != nil {
		sess.finish(StatusError, err.Error())
		return
	}
	sess.finish(StatusCompleted, "")

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	select {
	case <-gone:
	case <-time.After(writeWait):
	}
}

func (s *Server) awaitStart(conn *websocket.Conn) error {
	if err := s.write(conn, protocol.Control{Status: protocol.ControlReady, Message: ReadyMessage}); err != nil {
		return fmt.Errorf("send ready: %w", err)
	}
	var cmd protocol.StartCommand
	if err := conn.ReadJSON(&cmd); err != nil {
		return fmt.Errorf("read start command: %w", err)
	}
	if cmd.Action != protocol.ActionStart {
		err := fmt.Errorf("unexpected action %q", cmd.Action)
		_ = s.write(conn, map[string]string{
			"status": string(protocol.StatusError),
			"text":   "System Error: " + err.Error(),
			"reason": "AI Processing Failed",
		})
		return err
	}
	return nil
}

func (s *Server) stream(conn *websocket.Conn, sess *Session, gone <-chan struct{}) error {
	for _, ev := range s.script.Events {
		if s.opts.Realtime && ev.DelayMS > 0 {
			select {
			case <-time.After(time.Duration(ev.DelayMS) * time.Millisecond):
			case <-gone:
				return errClientGone
			}
		} else {
			select {
			case <-gone:
				return errClientGone
			default:
			}
		}
		if err := s.write(conn, ev.Message); err != nil {
			return err
		}
		sess.recordSent()
	}
	return nil
}

func (s *Server) write(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(v); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

func (s *Server) handleCheckText(w http.ResponseWriter, r *http.Request) {
	var req protocol.CheckRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, protocol.CheckResponse{Error: "invalid request body"})
		return
	}

	resp, err := s.script.Classify(req.Text)
	if err != nil {
		writeJSON(w, http.StatusOK, protocol.CheckResponse{Error: err.Error()})
		return
	}
	s.logger.Debug().Str("label", string(resp.Label)).Msg("Text checked")
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.store.Get(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sess.Info())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
