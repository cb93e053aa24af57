package app

import (
	"github.com/raihanakbr/scamguard-monitor/internal/protocol"
	"github.com/raihanakbr/scamguard-monitor/internal/textcheck"
	"github.com/raihanakbr/scamguard-monitor/internal/ui"
	"github.com/raihanakbr/scamguard-monitor/internal/websocket"
)

// Event is one item on the loop's queue.
type Event interface {
	event()
}

// Stream events carry the generation of the connection that produced them so
// events from a connection torn down by a reset are dropped.

type StreamMessage struct {
	Gen int
	Msg protocol.Inbound
}

type PhaseChanged struct {
	Gen   int
	Phase websocket.Phase
	Label string
}

type BackendReady struct {
	Gen      int
	Explicit bool
}

// ClockTick is a playback position update.
type ClockTick struct {
	Position float64
}

// PlaybackEnded fires once when the media reaches its end.
type PlaybackEnded struct {
	Position float64
}

// UserAction is keyboard or command input.
type UserAction struct {
	Action ui.Action
}

// CheckCompleted carries the outcome of a text check.
type CheckCompleted struct {
	Verdict textcheck.Verdict
	Err     error
}

func (StreamMessage) event()  {}
func (PhaseChanged) event()   {}
func (BackendReady) event()   {}
func (ClockTick) event()      {}
func (PlaybackEnded) event()  {}
func (UserAction) event()     {}
func (CheckCompleted) event() {}

// listener forwards connection callbacks onto the queue.
type listener struct {
	loop *Loop
	gen  int
}

func (l listener) OnPhase(p websocket.Phase, label string) {
	l.loop.Post(PhaseChanged{Gen: l.gen, Phase: p, Label: label})
}

func (l listener) OnReady(explicit bool) {
	l.loop.Post(BackendReady{Gen: l.gen, Explicit: explicit})
}

func (l listener) OnMessage(msg protocol.Inbound) {
	l.loop.Post(StreamMessage{Gen: l.gen, Msg: msg})
}
