// Package synchronizer aligns buffered analysis events with the playback clock
// and drives the derived monitor state.
package synchronizer

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/raihanakbr/scamguard-monitor/internal/transcript"
)

// State is the playback lifecycle of a session.
type State int

const (
	StateIdle State = iota
	StatePlaying
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StateFinished:
		return "finished"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Session is the state of one monitored call: the transcript buffer, which
// events have been shown and the counters derived from them.
type Session struct {
	ID        string
	StartedAt time.Time
	Buffer    *transcript.Buffer
	State     State

	SegmentsProcessed int
	ScamCount         int
	CallerIdentified  bool
	CallerSpeaker     string

	displayed map[int]struct{}
}

// NewSession creates an empty idle session with a fresh id.
func NewSession() *Session {
	s := &Session{}
	s.Reset()
	return s
}

// Reset discards everything and starts a new session id.
func (s *Session) Reset() {
	s.ID = ulid.Make().String()
	s.StartedAt = time.Now()
	s.Buffer = transcript.NewBuffer()
	s.State = StateIdle
	s.SegmentsProcessed = 0
	s.ScamCount = 0
	s.CallerIdentified = false
	s.CallerSpeaker = ""
	s.displayed = make(map[int]struct{})
}

// Displayed reports whether the event with id has been shown.
func (s *Session) Displayed(id int) bool {
	_, ok := s.displayed[id]
	return ok
}

// DisplayedCount returns how many events have been shown, escalations included.
func (s *Session) DisplayedCount() int {
	return len(s.displayed)
}

// Pending returns how many buffered events are still withheld.
func (s *Session) Pending() int {
	return s.Buffer.Len() - len(s.displayed)
}

func (s *Session) markDisplayed(id int) {
	s.displayed[id] = struct{}{}
}
