package transcript

import (
	"testing"

	"github.com/raihanakbr/scamguard-monitor/internal/protocol"
)

func TestBuffer_AppendAssignsInsertionIndex(t *testing.T) {
	b := NewBuffer()

	for want := 0; want < 5; want++ {
		got := b.Append(protocol.AnalysisEvent{Text: "x", End: float64(10 - want)})
		if got != want {
			t.Errorf("Append #%d returned id %d", want, got)
		}
	}
	if b.Len() != 5 {
		t.Errorf("Len() = %d, want 5", b.Len())
	}

	ev, ok := b.Get(3)
	if !ok {
		t.Fatal("expected event 3")
	}
	if ev.ID != 3 || ev.End != 7 {
		t.Errorf("Get(3) = %+v", ev)
	}
}

func TestBuffer_AppendOverridesIncomingID(t *testing.T) {
	b := NewBuffer()
	id := b.Append(protocol.AnalysisEvent{ID: 42})
	if id != 0 {
		t.Errorf("expected id 0, got %d", id)
	}
	ev, _ := b.Get(0)
	if ev.ID != 0 {
		t.Errorf("stored id = %d, want 0", ev.ID)
	}
}

func TestBuffer_Accept(t *testing.T) {
	b := NewBuffer()

	tests := []struct {
		name     string
		msg      protocol.Inbound
		buffered bool
	}{
		{"analysis", protocol.Inbound{Kind: protocol.KindAnalysis, Event: &protocol.AnalysisEvent{Text: "hi"}}, true},
		{"log", protocol.Inbound{Kind: protocol.KindLog, Log: &protocol.LogEvent{Step: "ASR"}}, false},
		{"ready", protocol.Inbound{Kind: protocol.KindReady, Control: &protocol.Control{Status: "READY"}}, false},
		{"analysis without event", protocol.Inbound{Kind: protocol.KindAnalysis}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, buffered := b.Accept(tt.msg)
			if buffered != tt.buffered {
				t.Errorf("buffered = %v, want %v", buffered, tt.buffered)
			}
		})
	}
	if b.Len() != 1 {
		t.Errorf("Len() = %d, want 1", b.Len())
	}
}

func TestBuffer_GetOutOfRange(t *testing.T) {
	b := NewBuffer()
	if _, ok := b.Get(0); ok {
		t.Error("expected miss on empty buffer")
	}
	if _, ok := b.Get(-1); ok {
		t.Error("expected miss for negative id")
	}
}

func TestBuffer_SnapshotIsCopy(t *testing.T) {
	b := NewBuffer()
	b.Append(protocol.AnalysisEvent{Text: "a"})
	snap := b.Snapshot()
	snap[0].Text = "mutated"

	ev, _ := b.Get(0)
	if ev.Text != "a" {
		t.Errorf("snapshot aliased buffer storage: %q", ev.Text)
	}
}
