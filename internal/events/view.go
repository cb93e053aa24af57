package events

import (
	"context"
	"sync"
	"time"

	"github.com/raihanakbr/scamguard-monitor/internal/ui"
)

// PublishTimeout bounds one alert write.
const PublishTimeout = 10 * time.Second

// AlertPublisher is the subset of Publisher used by AlertView.
type AlertPublisher interface {
	Publish(ctx context.Context, alert Alert) error
}

// AlertView is a ui.View that turns SCAM alerts and warning modals into
// published alerts. Writes run in the background so the event loop never
// waits on Kafka.
type AlertView struct {
	ui.Nop

	pub AlertPublisher
	now func() time.Time

	mu        sync.Mutex
	sessionID string
	wg        sync.WaitGroup
}

// NewAlertView creates the adapter for session sessionID.
func NewAlertView(pub AlertPublisher, sessionID string) *AlertView {
	return &AlertView{pub: pub, now: time.Now, sessionID: sessionID}
}

func (v *AlertView) Reset(sessionID string) {
	v.mu.Lock()
	v.sessionID = sessionID
	v.mu.Unlock()
}

func (v *AlertView) Alert(percent int, reason string) {
	v.publish(Alert{Kind: KindScam, Confidence: percent, Reason: reason})
}

func (v *AlertView) WarningModal(reason string) {
	v.publish(Alert{Kind: KindWarning, Reason: reason})
}

// Wait blocks until every pending write finished.
func (v *AlertView) Wait() {
	v.wg.Wait()
}

func (v *AlertView) publish(a Alert) {
	v.mu.Lock()
	a.SessionID = v.sessionID
	v.mu.Unlock()
	a.Timestamp = v.now().UTC()

	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
		defer cancel()
		_ = v.pub.Publish(ctx, a)
	}()
}
