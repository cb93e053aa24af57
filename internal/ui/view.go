// Package ui renders monitor state. Views hold no business logic: the
// synchronizer and the event loop decide what to show and call a View.
package ui

import (
	"time"

	"github.com/raihanakbr/scamguard-monitor/internal/protocol"
)

// Level is the colour of the status indicator.
type Level int

const (
	LevelIdle Level = iota
	LevelSafe
	LevelWarning
	LevelDanger
)

func (l Level) String() string {
	switch l {
	case LevelSafe:
		return "safe"
	case LevelWarning:
		return "warning"
	case LevelDanger:
		return "danger"
	default:
		return "idle"
	}
}

// Line is one transcript entry.
type Line struct {
	ID      int
	Role    protocol.Role
	Speaker string
	Text    string
	Start   float64
	End     float64
	Status  protocol.Status
	Reason  string
}

// Scam reports whether the line is highlighted as a scam.
func (l Line) Scam() bool {
	return l.Status == protocol.StatusScam
}

// ShowsReason reports whether the line's reason block is rendered.
func (l Line) ShowsReason() bool {
	return l.Reason != "" && (l.Status == protocol.StatusScam || l.Status == protocol.StatusWarning)
}

// DefaultWarningText fills the warning modal when the escalation has no reason.
const DefaultWarningText = "พบรูปแบบการหลอกลวง"

// WarningText returns the body of the warning modal for reason.
func WarningText(reason string) string {
	if reason == "" {
		return DefaultWarningText
	}
	return reason
}

// PlayerState describes the play control and progress bar.
type PlayerState struct {
	Playing  bool
	Waiting  bool // Play pressed before the backend was ready
	Enabled  bool
	Position float64
	Duration float64
}

// CheckResult is the outcome shown in the text-check panel. Exactly one of
// Notice, Err or Label is set.
type CheckResult struct {
	Notice     string
	Err        string
	Label      protocol.Status
	Percent    int
	HasPercent bool
	Reason     string
}

// View is the presentation contract.
type View interface {
	Reset(sessionID string)
	Connection(phase, label string)
	Transcript(line Line)
	Toast(title, message string, ttl time.Duration)
	WarningModal(reason string)
	Status(level Level, text string)
	Alert(percent int, reason string)
	CallerIdentified(speaker string)
	Counters(segments, scams int)
	Log(surface protocol.Surface, step, message string)
	Player(state PlayerState)
	CheckBusy(busy bool)
	CheckResult(res CheckResult)
}

// Nop discards everything. Embed it to implement only part of View.
type Nop struct{}

func (Nop) Reset(string) {}
func (Nop) Connection(string, string) {}
func (Nop) Transcript(Line) {}
func (Nop) Toast(string, string, time.Duration) {}
func (Nop) WarningModal(string) {}
func (Nop) Status(Level, string) {}
func (Nop) Alert(int, string) {}
func (Nop) CallerIdentified(string) {}
func (Nop) Counters(int, int) {}
func (Nop) Log(protocol.Surface, string, string) {}
func (Nop) Player(PlayerState) {}
func (Nop) CheckBusy(bool) {}
func (Nop) CheckResult(CheckResult) {}

// Multi fans every call out to each view in order.
type Multi []View

func (m Multi) Reset(id string) {
	for _, v := range m {
		v.Reset(id)
	}
}

func (m Multi) Connection(phase, label string) {
	for _, v := range m {
		v.Connection(phase, label)
	}
}

func (m Multi) Transcript(line Line) {
	for _, v := range m {
		v.Transcript(line)
	}
}

func (m Multi) Toast(title, message string, ttl time.Duration) {
	for _, v := range m {
		v.Toast(title, message, ttl)
	}
}

func (m Multi) WarningModal(reason string) {
	for _, v := range m {
		v.WarningModal(reason)
	}
}

func (m Multi) Status(level Level, text string) {
	for _, v := range m {
		v.Status(level, text)
	}
}

func (m Multi) Alert(percent int, reason string) {
	for _, v := range m {
		v.Alert(percent, reason)
	}
}

func (m Multi) CallerIdentified(speaker string) {
	for _, v := range m {
		v.CallerIdentified(speaker)
	}
}

func (m Multi) Counters(segments, scams int) {
	for _, v := range m {
		v.Counters(segments, scams)
	}
}

func (m Multi) Log(surface protocol.Surface, step, message string) {
	for _, v := range m {
		v.Log(surface, step, message)
	}
}

func (m Multi) Player(state PlayerState) {
	for _, v := range m {
		v.Player(state)
	}
}

func (m Multi) CheckBusy(busy bool) {
	for _, v := range m {
		v.CheckBusy(busy)
	}
}

func (m Multi) CheckResult(res CheckResult) {
	for _, v := range m {
		v.CheckResult(res)
	}
}
