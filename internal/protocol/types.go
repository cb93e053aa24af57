// Package protocol defines the messages exchanged with the analysis backend.
package protocol

import "math"

// Paths served by the analysis backend.
const (
	AnalyzePath   = "/ws/analyze"
	CheckTextPath = "/api/check-text"
)

// Control status values carried in {status: ...} messages.
const (
	ControlReady    = "READY"
	ControlFinished = "FINISHED"
)

// ActionStart is the only outbound stream command.
const ActionStart = "start"

// Status is the classification attached to an analysis event or verdict.
type Status string

const (
	StatusSafe    Status = "SAFE"
	StatusWait    Status = "WAIT"
	StatusScam    Status = "SCAM"
	StatusWarning Status = "WARNING"
	StatusError   Status = "ERROR"
)

// Role tells which side of the call produced an utterance.
type Role string

const (
	RoleCaller   Role = "CALLER"
	RoleReceiver Role = "RECEIVER"
	RoleSystem   Role = "SYSTEM"
)

// Display defaults used when a backend event omits its confidence.
const (
	DefaultConfidence     = 0.5
	DefaultScamConfidence = 0.9
)

// AnalysisEvent is one transcript/classification unit tied to an audio interval.
type AnalysisEvent struct {
	// ID is the insertion index assigned by the transcript buffer, never sent
	// by the backend.
	ID         int      `json:"-"`
	Type       string   `json:"type,omitempty"`
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	Role       Role     `json:"role"`
	Speaker    string   `json:"speaker"`
	Text       string   `json:"text"`
	Status     Status   `json:"status"`
	IsWarning  bool     `json:"is_warning,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	Reason     string   `json:"reason,omitempty"`
}

// IsEscalation reports whether the event is a warning escalation that is shown
// as a blocking modal instead of a transcript line.
func (e AnalysisEvent) IsEscalation() bool {
	return e.Status == StatusWarning && e.IsWarning
}

// DisplayConfidence returns the confidence to render. The fallback depends on
// the status and is never written back to the event.
func (e AnalysisEvent) DisplayConfidence() float64 {
	if e.Confidence != nil {
		return *e.Confidence
	}
	if e.Status == StatusScam {
		return DefaultScamConfidence
	}
	return DefaultConfidence
}

// Percent renders a [0,1] confidence as a whole percentage.
func Percent(confidence float64) int {
	return int(math.Round(confidence * 100))
}

// LogEvent is a side-channel progress message from the backend pipeline.
type LogEvent struct {
	Type    string `json:"type"`
	Step    string `json:"step"`
	Message string `json:"message"`
}

// Control is a READY or FINISHED status message.
type Control struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// StartCommand asks the backend to begin streaming analysis.
type StartCommand struct {
	Action string `json:"action"`
}

// NewStartCommand returns the {action:"start"} command.
func NewStartCommand() StartCommand {
	return StartCommand{Action: ActionStart}
}

// CheckRequest is the body of POST /api/check-text.
type CheckRequest struct {
	Text string `json:"text"`
}

// CheckResponse is the body returned by POST /api/check-text.
type CheckResponse struct {
	Label      Status   `json:"label,omitempty"`
	Confidence *float64 `json:"confidence,omitempty"`
	Reason     string   `json:"reason,omitempty"`
	Text       string   `json:"text,omitempty"`
	Error      string   `json:"error,omitempty"`
}
