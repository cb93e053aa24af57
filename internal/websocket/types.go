package websocket

import (
	"errors"
	"fmt"
	"strings"

	"github.com/raihanakbr/scamguard-monitor/internal/protocol"
)

var (
	// ErrAlreadyConnected is returned by a second Connect on the same manager.
	// Each manager makes a single attempt; a reset builds a new one.
	ErrAlreadyConnected = errors.New("connection already attempted")
	// ErrNotReady is returned when the start command is requested before
	// readiness.
	ErrNotReady = errors.New("backend not ready")
)

// Phase is the coarse connection state shown on the status badge.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseConnecting
	PhaseProcessing
	PhaseReady
	PhaseComplete
	PhaseDisconnected
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseConnecting:
		return "connecting"
	case PhaseProcessing:
		return "processing"
	case PhaseReady:
		return "ready"
	case PhaseComplete:
		return "connected"
	case PhaseDisconnected:
		return "disconnected"
	case PhaseError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// IsTerminal reports whether no further transitions are accepted.
func (p Phase) IsTerminal() bool {
	return p == PhaseComplete || p == PhaseDisconnected || p == PhaseError
}

// canMoveTo enforces forward-only transitions. Error is reachable from every
// non-terminal phase.
func (p Phase) canMoveTo(next Phase) bool {
	if p.IsTerminal() {
		return false
	}
	if next == PhaseError || next == PhaseDisconnected {
		return true
	}
	return next > p
}

// Readiness selects how the manager decides the backend is ready.
type Readiness int

const (
	// ReadinessAuto accepts an explicit READY or the first data message,
	// whichever arrives first.
	ReadinessAuto Readiness = iota
	// ReadinessImplicit treats the first message as readiness and never sends
	// the start command.
	ReadinessImplicit
	// ReadinessExplicit waits for a READY message.
	ReadinessExplicit
)

// ParseReadiness maps a config value to a Readiness, defaulting to auto.
func ParseReadiness(s string) Readiness {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "implicit":
		return ReadinessImplicit
	case "explicit":
		return ReadinessExplicit
	default:
		return ReadinessAuto
	}
}

func (r Readiness) String() string {
	switch r {
	case ReadinessImplicit:
		return "implicit"
	case ReadinessExplicit:
		return "explicit"
	default:
		return "auto"
	}
}

// Listener receives connection events. Calls arrive from the manager's read
// goroutine, in order: a readiness signal always precedes the message that
// caused it.
type Listener interface {
	OnPhase(phase Phase, label string)
	OnReady(explicit bool)
	OnMessage(msg protocol.Inbound)
}
