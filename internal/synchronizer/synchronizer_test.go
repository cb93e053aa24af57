package synchronizer

import (
	"math/rand"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/raihanakbr/scamguard-monitor/internal/observability/metrics"
	"github.com/raihanakbr/scamguard-monitor/internal/protocol"
	"github.com/raihanakbr/scamguard-monitor/internal/ui"
)

type status struct {
	level ui.Level
	text  string
}

type recordingView struct {
	ui.Nop
	lines    []ui.Line
	toasts   []string
	ttls     []time.Duration
	modals   []string
	statuses []status
	alerts   []string
	callers  []string
	resets   []string
}

func (v *recordingView) Transcript(l ui.Line) { v.lines = append(v.lines, l) }
func (v *recordingView) WarningModal(r string) { v.modals = append(v.modals, r) }
func (v *recordingView) CallerIdentified(s string) { v.callers = append(v.callers, s) }
func (v *recordingView) Reset(id string) { v.resets = append(v.resets, id) }

func (v *recordingView) Toast(_, msg string, ttl time.Duration) {
	v.toasts = append(v.toasts, msg)
	v.ttls = append(v.ttls, ttl)
}

func (v *recordingView) Status(l ui.Level, text string) {
	v.statuses = append(v.statuses, status{l, text})
}

func (v *recordingView) Alert(_ int, reason string) {
	v.alerts = append(v.alerts, reason)
}

func (v *recordingView) lastStatus() status {
	if len(v.statuses) == 0 {
		return status{}
	}
	return v.statuses[len(v.statuses)-1]
}

func newTestSynchronizer() (*Synchronizer, *recordingView) {
	view := &recordingView{}
	s := New(NewSession(), view, 0).WithMetrics(metrics.NewMetrics(prometheus.NewRegistry()))
	return s, view
}

func conf(v float64) *float64 { return &v }

func appendAll(s *Synchronizer, evs ...protocol.AnalysisEvent) {
	for _, ev := range evs {
		s.Session().Buffer.Append(ev)
	}
}

func TestTick_ScenarioThreeEvents(t *testing.T) {
	s, view := newTestSynchronizer()
	appendAll(s,
		protocol.AnalysisEvent{End: 2, Role: protocol.RoleCaller, Speaker: "SPEAKER_01", Status: protocol.StatusSafe},
		protocol.AnalysisEvent{End: 5, Role: protocol.RoleReceiver, Speaker: "SPEAKER_00", Status: protocol.StatusWait},
		protocol.AnalysisEvent{End: 5, Role: protocol.RoleCaller, Speaker: "SPEAKER_01", Status: protocol.StatusScam, Reason: "asks for OTP"},
	)

	shown := s.Tick(6)
	if len(shown) != 3 || shown[0] != 0 || shown[1] != 1 || shown[2] != 2 {
		t.Fatalf("shown = %v, want [0 1 2]", shown)
	}
	sess := s.Session()
	if sess.SegmentsProcessed != 3 || sess.ScamCount != 1 {
		t.Errorf("segments=%d scams=%d, want 3 and 1", sess.SegmentsProcessed, sess.ScamCount)
	}
	if !sess.CallerIdentified || sess.CallerSpeaker != "SPEAKER_01" {
		t.Errorf("caller = %v %q", sess.CallerIdentified, sess.CallerSpeaker)
	}
	if len(view.callers) != 1 {
		t.Errorf("caller identified %d times", len(view.callers))
	}
	if got := view.lastStatus(); got.level != ui.LevelDanger || got.text != "SCAM DETECTED! (90%)" {
		t.Errorf("status = %+v", got)
	}
	if len(view.toasts) != 1 || view.toasts[0] != "asks for OTP" || view.ttls[0] != DefaultToastDuration {
		t.Errorf("toasts = %v %v", view.toasts, view.ttls)
	}
	if len(view.alerts) != 1 || view.alerts[0] != "asks for OTP" {
		t.Errorf("alerts = %v", view.alerts)
	}
}

func TestTick_CallerLatchedAtSecondSegment(t *testing.T) {
	s, view := newTestSynchronizer()
	appendAll(s,
		protocol.AnalysisEvent{End: 1, Role: protocol.RoleCaller, Speaker: "A", Status: protocol.StatusSafe},
		protocol.AnalysisEvent{End: 2, Role: protocol.RoleCaller, Speaker: "B", Status: protocol.StatusSafe},
		protocol.AnalysisEvent{End: 3, Role: protocol.RoleCaller, Speaker: "C", Status: protocol.StatusSafe},
	)

	s.Tick(1)
	if s.Session().CallerIdentified {
		t.Fatal("caller identified after a single segment")
	}
	s.Tick(2)
	s.Tick(3)
	if got := s.Session().CallerSpeaker; got != "B" {
		t.Errorf("caller = %q, want B", got)
	}
	if len(view.callers) != 1 {
		t.Errorf("identification fired %d times", len(view.callers))
	}
}

func TestTick_WarningEscalation(t *testing.T) {
	s, view := newTestSynchronizer()
	appendAll(s,
		protocol.AnalysisEvent{End: 4, Role: protocol.RoleCaller, Status: protocol.StatusSafe},
		protocol.AnalysisEvent{End: 10, Role: protocol.RoleSystem, Status: protocol.StatusWarning, IsWarning: true, Reason: "repeated scam calls"},
	)

	s.Tick(9.9)
	if len(view.modals) != 0 {
		t.Fatal("escalation shown before its end time")
	}
	s.Tick(10)
	if len(view.modals) != 1 || view.modals[0] != "repeated scam calls" {
		t.Errorf("modals = %v", view.modals)
	}
	if len(view.lines) != 1 {
		t.Errorf("escalation rendered as a transcript line: %d lines", len(view.lines))
	}
	if s.Session().SegmentsProcessed != 1 {
		t.Errorf("segments = %d, want 1", s.Session().SegmentsProcessed)
	}
	if !s.Session().Displayed(1) {
		t.Error("escalation not marked displayed")
	}
	s.Tick(11)
	if len(view.modals) != 1 {
		t.Error("escalation shown twice")
	}
}

func TestTick_WarningWithoutFlagIsALine(t *testing.T) {
	s, view := newTestSynchronizer()
	appendAll(s, protocol.AnalysisEvent{End: 1, Status: protocol.StatusWarning, Text: "heads up"})
	s.Tick(1)
	if len(view.lines) != 1 || len(view.modals) != 0 {
		t.Errorf("lines=%d modals=%d", len(view.lines), len(view.modals))
	}
	if s.Session().SegmentsProcessed != 1 {
		t.Errorf("segments = %d", s.Session().SegmentsProcessed)
	}
}

func TestTick_StatusPriority(t *testing.T) {
	tests := []struct {
		name   string
		ev     protocol.AnalysisEvent
		want   status
		change bool
	}{
		{"scam", protocol.AnalysisEvent{Role: protocol.RoleReceiver, Status: protocol.StatusScam, Confidence: conf(0.87)}, status{ui.LevelDanger, "SCAM DETECTED! (87%)"}, true},
		{"wait default", protocol.AnalysisEvent{Role: protocol.RoleCaller, Status: protocol.StatusWait}, status{ui.LevelWarning, "Monitoring... (50%)"}, true},
		{"caller safe", protocol.AnalysisEvent{Role: protocol.RoleCaller, Status: protocol.StatusSafe, Confidence: conf(0.93)}, status{ui.LevelSafe, "Safe (93%)"}, true},
		{"receiver safe", protocol.AnalysisEvent{Role: protocol.RoleReceiver, Status: protocol.StatusSafe}, status{}, false},
		{"error status", protocol.AnalysisEvent{Status: protocol.StatusError, Text: "System Error"}, status{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, view := newTestSynchronizer()
			appendAll(s, tt.ev)
			s.Tick(0)
			if !tt.change {
				if len(view.statuses) != 0 {
					t.Errorf("unexpected status change %+v", view.statuses)
				}
				return
			}
			if got := view.lastStatus(); got != tt.want {
				t.Errorf("status = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTick_ScamWithoutReasonUsesFallback(t *testing.T) {
	s, view := newTestSynchronizer()
	appendAll(s, protocol.AnalysisEvent{Status: protocol.StatusScam})
	s.Tick(0)
	if len(view.alerts) != 1 || view.alerts[0] != FallbackScamReason {
		t.Errorf("alerts = %v", view.alerts)
	}
	if view.lines[0].Reason != "" {
		t.Error("fallback reason must not be written into the line")
	}
}

func TestTick_ConfidenceFallbackNotStored(t *testing.T) {
	s, _ := newTestSynchronizer()
	appendAll(s, protocol.AnalysisEvent{Status: protocol.StatusWait})
	s.Tick(0)
	ev, _ := s.Session().Buffer.Get(0)
	if ev.Confidence != nil {
		t.Error("display default written back to the event")
	}
}

func TestTick_WithheldUntilEnd(t *testing.T) {
	s, view := newTestSynchronizer()
	// Arrives first but ends later.
	appendAll(s,
		protocol.AnalysisEvent{End: 8, Text: "late"},
		protocol.AnalysisEvent{End: 3, Text: "early"},
	)
	s.Tick(5)
	if len(view.lines) != 1 || view.lines[0].Text != "early" {
		t.Fatalf("lines = %+v", view.lines)
	}
	if s.Session().Pending() != 1 {
		t.Errorf("pending = %d", s.Session().Pending())
	}
	s.Tick(8)
	if len(view.lines) != 2 || view.lines[1].Text != "late" {
		t.Errorf("lines = %+v", view.lines)
	}
}

func TestTick_BackwardSeekDoesNotRedisplay(t *testing.T) {
	s, view := newTestSynchronizer()
	appendAll(s, protocol.AnalysisEvent{End: 2}, protocol.AnalysisEvent{End: 4})
	s.Tick(5)
	s.Tick(0)
	s.Tick(5)
	if len(view.lines) != 2 {
		t.Errorf("lines = %d, want 2", len(view.lines))
	}
}

// Random appends and tick times: every event is shown at most once, never
// before its end time, and the segment counter matches the distinct
// non-escalation events that became eligible.
func TestTick_RandomizedInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		s, view := newTestSynchronizer()
		shownAt := make(map[int]float64)
		eligible := make(map[int]bool)

		for step := 0; step < 200; step++ {
			if rng.Intn(3) == 0 {
				ev := protocol.AnalysisEvent{End: rng.Float64() * 60}
				switch rng.Intn(4) {
				case 0:
					ev.Status, ev.Role = protocol.StatusScam, protocol.RoleCaller
				case 1:
					ev.Status, ev.IsWarning = protocol.StatusWarning, true
				case 2:
					ev.Status, ev.Role = protocol.StatusSafe, protocol.RoleReceiver
				default:
					ev.Status, ev.Role = protocol.StatusWait, protocol.RoleCaller
				}
				s.Session().Buffer.Append(ev)
			}

			now := rng.Float64() * 60
			for _, id := range s.Tick(now) {
				if _, dup := shownAt[id]; dup {
					t.Fatalf("round %d: event %d shown twice", round, id)
				}
				ev, _ := s.Session().Buffer.Get(id)
				if now < ev.End {
					t.Fatalf("round %d: event %d shown at %v before end %v", round, id, now, ev.End)
				}
				shownAt[id] = now
			}
			for _, ev := range s.Session().Buffer.Snapshot() {
				if ev.End <= now && !ev.IsEscalation() {
					eligible[ev.ID] = true
				}
			}
		}

		if got := s.Session().SegmentsProcessed; got != len(eligible) || got != len(view.lines) {
			t.Fatalf("round %d: segments=%d eligible=%d lines=%d", round, got, len(eligible), len(view.lines))
		}
	}
}

func TestLifecycle(t *testing.T) {
	s, view := newTestSynchronizer()
	if s.Session().State != StateIdle {
		t.Fatalf("state = %v", s.Session().State)
	}
	s.Start()
	s.Start()
	if s.Session().State != StatePlaying {
		t.Errorf("state = %v", s.Session().State)
	}
	if n := len(view.statuses); n != 1 || view.statuses[0].text != StatusAnalyzing {
		t.Errorf("statuses = %+v", view.statuses)
	}
	s.Finish()
	if s.Session().State != StateFinished || view.lastStatus().text != StatusComplete {
		t.Errorf("state = %v status = %+v", s.Session().State, view.lastStatus())
	}
}

func TestReset(t *testing.T) {
	s, view := newTestSynchronizer()
	appendAll(s,
		protocol.AnalysisEvent{End: 1, Role: protocol.RoleCaller, Speaker: "A", Status: protocol.StatusScam},
		protocol.AnalysisEvent{End: 1, Role: protocol.RoleCaller, Speaker: "A", Status: protocol.StatusSafe},
	)
	s.Start()
	s.Tick(2)
	oldID := s.Session().ID

	newID := s.Reset()
	sess := s.Session()
	if newID == oldID || sess.ID != newID {
		t.Errorf("id not renewed: %q -> %q", oldID, newID)
	}
	if sess.Buffer.Len() != 0 || sess.SegmentsProcessed != 0 || sess.ScamCount != 0 ||
		sess.CallerIdentified || sess.CallerSpeaker != "" || sess.State != StateIdle || sess.DisplayedCount() != 0 {
		t.Errorf("session not cleared: %+v", sess)
	}
	if len(view.resets) != 1 || view.resets[0] != newID {
		t.Errorf("view resets = %v", view.resets)
	}

	appendAll(s, protocol.AnalysisEvent{End: 1})
	if shown := s.Tick(1); len(shown) != 1 || shown[0] != 0 {
		t.Errorf("ids restart at 0 after reset, got %v", shown)
	}
}
