// Package replay serves the analysis backend's contracts from a recorded
// script so the monitor can run without the real service.
package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/raihanakbr/scamguard-monitor/internal/protocol"
)

// ScriptEvent is one stream message, sent DelayMS after the previous one.
type ScriptEvent struct {
	DelayMS int             `json:"delay_ms"`
	Message json.RawMessage `json:"message"`
}

// ScriptVerdict answers a text check whose text contains Contains.
type ScriptVerdict struct {
	Contains   string          `json:"contains"`
	Label      protocol.Status `json:"label"`
	Confidence *float64        `json:"confidence,omitempty"`
	Reason     string          `json:"reason,omitempty"`
}

// Script is a recorded analysis run plus canned text-check verdicts.
type Script struct {
	Events         []ScriptEvent   `json:"events"`
	Verdicts       []ScriptVerdict `json:"verdicts"`
	DefaultVerdict ScriptVerdict   `json:"default_verdict"`
}

// LoadScript reads a script file.
func LoadScript(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()
	return ParseScript(f)
}

// ParseScript decodes and validates a script.
func ParseScript(r io.Reader) (*Script, error) {
	var s Script
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode script: %w", err)
	}
	for i, ev := range s.Events {
		if ev.DelayMS < 0 {
			return nil, fmt.Errorf("event %d: negative delay_ms", i)
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(ev.Message, &obj); err != nil {
			return nil, fmt.Errorf("event %d: message must be a JSON object: %w", i, err)
		}
	}
	if s.DefaultVerdict.Label == "" {
		s.DefaultVerdict.Label = protocol.StatusSafe
	}
	for i, v := range s.Verdicts {
		if v.Contains == "" || v.Label == "" {
			return nil, fmt.Errorf("verdict %d: contains and label are required", i)
		}
	}
	return &s, nil
}

// ErrTextRequired is reported for an empty text check.
var ErrTextRequired = errors.New("text is required")

// Classify returns the first verdict whose Contains occurs in text, or the
// default verdict.
func (s *Script) Classify(text string) (protocol.CheckResponse, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return protocol.CheckResponse{}, ErrTextRequired
	}
	v := s.DefaultVerdict
	lower := strings.ToLower(text)
	for _, candidate := range s.Verdicts {
		if strings.Contains(lower, strings.ToLower(candidate.Contains)) {
			v = candidate
			break
		}
	}
	return protocol.CheckResponse{
		Text:       text,
		Label:      v.Label,
		Confidence: v.Confidence,
		Reason:     v.Reason,
	}, nil
}
