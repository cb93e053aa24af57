package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMessage is returned for well-formed JSON that matches no known shape.
var ErrUnknownMessage = errors.New("unknown message shape")

// Kind classifies an inbound stream message.
type Kind int

const (
	KindUnknown Kind = iota
	KindReady
	KindFinished
	KindLog
	KindAnalysis
)

func (k Kind) String() string {
	switch k {
	case KindReady:
		return "ready"
	case KindFinished:
		return "finished"
	case KindLog:
		return "log"
	case KindAnalysis:
		return "analysis"
	default:
		return "unknown"
	}
}

// Inbound is a decoded stream message. Exactly one of Control, Log or Event is
// set, according to Kind.
type Inbound struct {
	Kind    Kind
	Control *Control
	Log     *LogEvent
	Event   *AnalysisEvent
}

// Decode classifies a raw stream frame by field presence. Log messages win over
// everything else, then READY/FINISHED control messages, then anything that
// carries text or type "result".
func Decode(data []byte) (Inbound, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Inbound{}, fmt.Errorf("decode stream message: %w", err)
	}

	msgType := stringField(fields, "type")
	if msgType == "log" {
		var l LogEvent
		if err := json.Unmarshal(data, &l); err != nil {
			return Inbound{}, fmt.Errorf("decode log message: %w", err)
		}
		return Inbound{Kind: KindLog, Log: &l}, nil
	}

	switch stringField(fields, "status") {
	case ControlReady:
		return Inbound{Kind: KindReady, Control: &Control{Status: ControlReady, Message: stringField(fields, "message")}}, nil
	case ControlFinished:
		return Inbound{Kind: KindFinished, Control: &Control{Status: ControlFinished, Message: stringField(fields, "message")}}, nil
	}

	if _, hasText := fields["text"]; hasText || msgType == "result" {
		var ev AnalysisEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return Inbound{}, fmt.Errorf("decode analysis event: %w", err)
		}
		normalizeInterval(&ev)
		return Inbound{Kind: KindAnalysis, Event: &ev}, nil
	}

	return Inbound{Kind: KindUnknown}, ErrUnknownMessage
}

// normalizeInterval keeps end >= start >= 0.
func normalizeInterval(ev *AnalysisEvent) {
	if ev.Start < 0 {
		ev.Start = 0
	}
	if ev.End < ev.Start {
		ev.End = ev.Start
	}
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
