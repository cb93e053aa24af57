package synchronizer

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/raihanakbr/scamguard-monitor/internal/observability/logging"
	"github.com/raihanakbr/scamguard-monitor/internal/observability/metrics"
	"github.com/raihanakbr/scamguard-monitor/internal/protocol"
	"github.com/raihanakbr/scamguard-monitor/internal/ui"
)

// Texts shown by the status indicator and notifications.
const (
	ToastTitle         = "SCAM DETECTED!"
	FallbackScamReason = "พบรูปแบบการหลอกลวง"
	StatusAnalyzing    = "Analyzing audio..."
	StatusComplete     = "Analysis complete"
)

// DefaultToastDuration is how long a SCAM notification stays up.
const DefaultToastDuration = 6 * time.Second

// Synchronizer releases buffered events to the view once the playback clock
// passes their end time. It is not safe for concurrent use; the event loop
// owns it.
type Synchronizer struct {
	session  *Session
	view     ui.View
	toastTTL time.Duration
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

// New creates a synchronizer over session that renders into view.
func New(session *Session, view ui.View, toastTTL time.Duration) *Synchronizer {
	if toastTTL <= 0 {
		toastTTL = DefaultToastDuration
	}
	return &Synchronizer{
		session:  session,
		view:     view,
		toastTTL: toastTTL,
		logger:   logging.WithSession("synchronizer", session.ID),
		metrics:  metrics.DefaultMetrics,
	}
}

// WithMetrics replaces the metrics sink.
func (s *Synchronizer) WithMetrics(m *metrics.Metrics) *Synchronizer {
	s.metrics = m
	return s
}

// Session returns the session the synchronizer drives.
func (s *Synchronizer) Session() *Session {
	return s.session
}

// Start marks playback as started.
func (s *Synchronizer) Start() {
	if s.session.State == StatePlaying {
		return
	}
	s.session.State = StatePlaying
	s.view.Status(ui.LevelSafe, StatusAnalyzing)
	s.logger.Info().Msg("Playback started")
}

// Finish handles the end of the media.
func (s *Synchronizer) Finish() {
	s.session.State = StateFinished
	s.view.Status(ui.LevelSafe, StatusComplete)
	s.logger.Info().
		Int("segments", s.session.SegmentsProcessed).
		Int("scams", s.session.ScamCount).
		Int("pending", s.session.Pending()).
		Msg("Playback finished")
}

// Reset starts a new session and clears the view. It returns the new id.
func (s *Synchronizer) Reset() string {
	s.session.Reset()
	s.logger = logging.WithSession("synchronizer", s.session.ID)
	s.view.Reset(s.session.ID)
	return s.session.ID
}

// Tick shows every buffered event whose end time has been reached and that has
// not been shown yet, in buffer order. It returns the ids shown.
func (s *Synchronizer) Tick(currentTime float64) []int {
	var shown []int
	for _, ev := range s.session.Buffer.Snapshot() {
		if s.session.Displayed(ev.ID) || currentTime < ev.End {
			continue
		}
		s.session.markDisplayed(ev.ID)
		shown = append(shown, ev.ID)

		if ev.IsEscalation() {
			s.escalate(ev)
			continue
		}
		s.display(ev)
	}
	s.metrics.RecordTick(s.session.Pending())
	return shown
}

func (s *Synchronizer) escalate(ev protocol.AnalysisEvent) {
	s.metrics.RecordWarning()
	s.logger.Warn().Int("id", ev.ID).Str("reason", ev.Reason).Msg("Warning escalation")
	s.view.WarningModal(ev.Reason)
}

func (s *Synchronizer) display(ev protocol.AnalysisEvent) {
	sess := s.session
	scam := ev.Status == protocol.StatusScam

	s.view.Transcript(ui.Line{
		ID:      ev.ID,
		Role:    ev.Role,
		Speaker: ev.Speaker,
		Text:    ev.Text,
		Start:   ev.Start,
		End:     ev.End,
		Status:  ev.Status,
		Reason:  ev.Reason,
	})
	sess.SegmentsProcessed++

	if !sess.CallerIdentified && sess.SegmentsProcessed >= 2 && ev.Role == protocol.RoleCaller {
		sess.CallerIdentified = true
		sess.CallerSpeaker = ev.Speaker
		s.logger.Info().Str("speaker", ev.Speaker).Msg("Caller identified")
		s.view.CallerIdentified(ev.Speaker)
	}

	pct := protocol.Percent(ev.DisplayConfidence())
	switch {
	case scam:
		reason := ev.Reason
		if reason == "" {
			reason = FallbackScamReason
		}
		sess.ScamCount++
		s.view.Toast(ToastTitle, reason, s.toastTTL)
		s.view.Status(ui.LevelDanger, fmt.Sprintf("SCAM DETECTED! (%d%%)", pct))
		s.view.Alert(pct, reason)
		s.logger.Warn().Int("id", ev.ID).Int("confidence", pct).Str("reason", reason).Msg("Scam detected")
	case ev.Status == protocol.StatusWait:
		s.view.Status(ui.LevelWarning, fmt.Sprintf("Monitoring... (%d%%)", pct))
	case ev.Role == protocol.RoleCaller && ev.Status == protocol.StatusSafe:
		s.view.Status(ui.LevelSafe, fmt.Sprintf("Safe (%d%%)", pct))
	}

	s.view.Counters(sess.SegmentsProcessed, sess.ScamCount)
	s.metrics.RecordSegment(scam)
}
