package replay

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Session statuses.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusError     = "error"
)

// SessionInfo is the JSON view of a session.
type SessionInfo struct {
	ID           string     `json:"id"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	Status       string     `json:"status"` // "active", "completed", "error"
	Started      bool       `json:"started"`
	MessagesSent int        `json:"messages_sent"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

// Session tracks one /ws/analyze connection.
type Session struct {
	ID        string
	StartTime time.Time

	mu   sync.RWMutex
	info SessionInfo
}

func (s *Session) markStarted() {
	s.mu.Lock()
	s.info.Started = true
	s.mu.Unlock()
}

func (s *Session) recordSent() {
	s.mu.Lock()
	s.info.MessagesSent++
	s.mu.Unlock()
}

func (s *Session) finish(status, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.info.Status != StatusActive {
		return
	}
	now := time.Now()
	s.info.EndTime = &now
	s.info.Status = status
	s.info.ErrorMessage = errMsg
}

// Info returns a copy safe to encode.
func (s *Session) Info() SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// Store holds replay sessions in memory.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Create registers a new active session.
func (st *Store) Create() *Session {
	id, now := ulid.Make().String(), time.Now()
	s := &Session{
		ID:        id,
		StartTime: now,
		info:      SessionInfo{ID: id, StartTime: now, Status: StatusActive},
	}
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// Get looks a session up by id.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Len returns the number of sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
