// Package app runs the monitor's single-threaded event loop. Stream messages,
// clock ticks and user input are queued and handled one at a time, so session
// state needs no locking.
package app

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/raihanakbr/scamguard-monitor/internal/observability/logging"
	"github.com/raihanakbr/scamguard-monitor/internal/observability/metrics"
	"github.com/raihanakbr/scamguard-monitor/internal/playback"
	"github.com/raihanakbr/scamguard-monitor/internal/protocol"
	"github.com/raihanakbr/scamguard-monitor/internal/synchronizer"
	"github.com/raihanakbr/scamguard-monitor/internal/textcheck"
	"github.com/raihanakbr/scamguard-monitor/internal/ui"
	"github.com/raihanakbr/scamguard-monitor/internal/websocket"
)

// QueueSize is the capacity of the event queue.
const QueueSize = 1024

// Stream is the connection manager as used by the loop.
type Stream interface {
	Connect(ctx context.Context) error
	SendStart() (bool, error)
	Close()
}

// StreamFactory opens a new stream reporting to l. A reset calls it again.
type StreamFactory func(l websocket.Listener) Stream

// Checker classifies pasted text.
type Checker interface {
	Check(ctx context.Context, text string) (textcheck.Verdict, error)
}

// Options wires a Loop.
type Options struct {
	Synchronizer *synchronizer.Synchronizer
	View         ui.View
	Clock        *playback.Clock
	Streams      StreamFactory
	Checker      Checker
	TickInterval time.Duration
	Autoplay     bool
	// OnQuit is called when the user asks to quit.
	OnQuit func()
}

// Loop owns the session and reacts to queued events.
type Loop struct {
	events  chan Event
	done    chan struct{}
	opts    Options
	sync    *synchronizer.Synchronizer
	view    ui.View
	clock   *playback.Clock
	logger  zerolog.Logger
	metrics *metrics.Metrics
	ctx     context.Context

	stream        Stream
	gen           int
	ready         bool
	explicitReady bool
	failed        bool
	waiting       bool
	checkBusy     bool

	// live mirrors ready for readers outside the loop goroutine.
	live atomic.Bool
}

// New creates a loop. Run starts it.
func New(opts Options) *Loop {
	if opts.View == nil {
		opts.View = ui.Nop{}
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = 250 * time.Millisecond
	}
	if opts.OnQuit == nil {
		opts.OnQuit = func() {}
	}
	return &Loop{
		events:  make(chan Event, QueueSize),
		done:    make(chan struct{}),
		opts:    opts,
		sync:    opts.Synchronizer,
		view:    opts.View,
		clock:   opts.Clock,
		logger:  logging.WithComponent("loop"),
		metrics: metrics.DefaultMetrics,
		ctx:     context.Background(),
	}
}

// WithMetrics replaces the metrics sink.
func (l *Loop) WithMetrics(m *metrics.Metrics) *Loop {
	l.metrics = m
	return l
}

// Ready reports whether the current stream's backend is ready and the
// connection has not failed since. Safe to call from any goroutine.
func (l *Loop) Ready() bool {
	return l.live.Load()
}

// Post queues ev. It drops ev once the loop has stopped.
func (l *Loop) Post(ev Event) {
	select {
	case l.events <- ev:
	case <-l.done:
	}
}

// Act queues a user action. It satisfies ui.ActionFunc.
func (l *Loop) Act(a ui.Action) {
	l.Post(UserAction{Action: a})
}

// OnTick implements playback.Handler.
func (l *Loop) OnTick(position float64) {
	l.Post(ClockTick{Position: position})
}

// OnEnded implements playback.Handler.
func (l *Loop) OnEnded(position float64) {
	l.Post(PlaybackEnded{Position: position})
}

// Start opens the first connection and shows the initial state. Run calls it;
// tests driving Dispatch directly call it themselves.
func (l *Loop) Start(ctx context.Context) {
	l.ctx = ctx
	l.view.Reset(l.sync.Session().ID)
	l.connect()
	l.showPlayer()
	if l.opts.Autoplay {
		l.Dispatch(UserAction{Action: ui.Action{Kind: ui.ActionTogglePlay}})
	}
}

// Run processes events until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)

	l.Start(ctx)
	go l.clock.Run(ctx, l.opts.TickInterval, l)

	for {
		select {
		case <-ctx.Done():
			l.shutdown()
			return ctx.Err()
		case ev := <-l.events:
			l.Dispatch(ev)
		}
	}
}

func (l *Loop) shutdown() {
	if l.stream != nil {
		l.stream.Close()
	}
	l.logger.Info().
		Str("sessionId", l.sync.Session().ID).
		Int("segments", l.sync.Session().SegmentsProcessed).
		Int("scams", l.sync.Session().ScamCount).
		Msg("Event loop stopped")
}

// Dispatch handles one event synchronously.
func (l *Loop) Dispatch(ev Event) {
	switch e := ev.(type) {
	case StreamMessage:
		if e.Gen == l.gen {
			l.handleMessage(e.Msg)
		}
	case PhaseChanged:
		if e.Gen == l.gen {
			l.handlePhase(e.Phase, e.Label)
		}
	case BackendReady:
		if e.Gen == l.gen {
			l.handleReady(e.Explicit)
		}
	case ClockTick:
		l.sync.Tick(e.Position)
		l.showPlayer()
	case PlaybackEnded:
		l.sync.Tick(e.Position)
		l.sync.Finish()
		l.showPlayer()
	case UserAction:
		l.handleAction(e.Action)
	case CheckCompleted:
		l.handleCheckCompleted(e.Verdict, e.Err)
	default:
		l.logger.Warn().Msgf("Unhandled event %T", ev)
	}
}

func (l *Loop) connect() {
	l.gen++
	l.ready, l.explicitReady, l.failed, l.waiting = false, false, false, false
	l.live.Store(false)
	stream := l.opts.Streams(listener{loop: l, gen: l.gen})
	l.stream = stream

	ctx := l.ctx
	go func() {
		if err := stream.Connect(ctx); err != nil {
			l.logger.Error().Err(err).Msg("Analysis stream unavailable")
		}
	}()
}

func (l *Loop) handleMessage(msg protocol.Inbound) {
	switch msg.Kind {
	case protocol.KindLog:
		surface := protocol.RouteLog(msg.Log.Step)
		l.metrics.RecordLogEvent(surface.String())
		if surface == protocol.SurfaceConsole {
			l.logger.Info().Str("step", msg.Log.Step).Msg(msg.Log.Message)
			return
		}
		l.view.Log(surface, msg.Log.Step, msg.Log.Message)
	case protocol.KindAnalysis:
		id, _ := l.sync.Session().Buffer.Accept(msg)
		l.logger.Debug().Int("id", id).Float64("end", msg.Event.End).Str("status", string(msg.Event.Status)).Msg("Buffered analysis event")
	case protocol.KindFinished:
		l.logger.Info().Int("buffered", l.sync.Session().Buffer.Len()).Msg("Backend finished analysis")
	}
}

func (l *Loop) handlePhase(p websocket.Phase, label string) {
	l.view.Connection(p.String(), label)
	if p == websocket.PhaseError || p == websocket.PhaseDisconnected {
		l.live.Store(false)
	}

	if (p == websocket.PhaseError || p == websocket.PhaseDisconnected) && !l.ready {
		l.failed = true
		if l.waiting {
			l.waiting = false
			l.showPlayer()
		}
	}
}

func (l *Loop) handleReady(explicit bool) {
	l.ready = true
	l.explicitReady = explicit
	l.live.Store(true)
	if l.waiting {
		l.waiting = false
		l.startPlayback()
	}
}

func (l *Loop) handleAction(a ui.Action) {
	switch a.Kind {
	case ui.ActionTogglePlay:
		l.togglePlay()
	case ui.ActionSeek:
		l.seeked(l.clock.SeekBy(a.Delta))
	case ui.ActionSeekTo:
		l.seeked(l.clock.Seek(a.At))
	case ui.ActionCheck:
		l.check(a.Text)
	case ui.ActionReset:
		l.reset()
	case ui.ActionQuit:
		l.opts.OnQuit()
	}
}

func (l *Loop) seeked(pos float64) {
	l.sync.Tick(pos)
	l.showPlayer()
}

func (l *Loop) togglePlay() {
	switch {
	case l.clock.Playing():
		l.clock.Pause()
		l.showPlayer()
	case l.waiting:
	case l.ready || l.failed:
		l.startPlayback()
	default:
		l.waiting = true
		l.view.Connection(websocket.PhaseProcessing.String(), websocket.LabelWaitingForAI)
		l.showPlayer()
	}
}

func (l *Loop) startPlayback() {
	if l.explicitReady {
		if _, err := l.stream.SendStart(); err != nil {
			l.logger.Error().Err(err).Msg("Failed to start backend analysis")
		}
	}
	l.clock.Play()
	l.sync.Start()
	l.showPlayer()
}

func (l *Loop) check(text string) {
	if l.checkBusy {
		return
	}
	if strings.TrimSpace(text) == "" {
		l.view.CheckResult(ui.CheckResult{Notice: textcheck.EmptyTextPrompt})
		return
	}

	l.checkBusy = true
	l.view.CheckBusy(true)

	ctx := l.ctx
	go func() {
		v, err := l.opts.Checker.Check(ctx, text)
		l.Post(CheckCompleted{Verdict: v, Err: err})
	}()
}

func (l *Loop) handleCheckCompleted(v textcheck.Verdict, err error) {
	l.checkBusy = false
	l.view.CheckResult(CheckResult(v, err))
	l.view.CheckBusy(false)
}

// CheckResult maps a text check outcome to what the check panel shows.
func CheckResult(v textcheck.Verdict, err error) ui.CheckResult {
	var be *textcheck.BackendError
	switch {
	case errors.Is(err, textcheck.ErrEmptyText):
		return ui.CheckResult{Notice: textcheck.EmptyTextPrompt}
	case errors.As(err, &be):
		return ui.CheckResult{Err: be.Message}
	case err != nil:
		return ui.CheckResult{Err: err.Error()}
	}
	pct, ok := v.Percent()
	return ui.CheckResult{
		Label:      v.Label,
		Percent:    pct,
		HasPercent: ok,
		Reason:     v.Reason,
	}
}

func (l *Loop) reset() {
	if l.stream != nil {
		l.stream.Close()
	}
	l.clock.Rewind()
	id := l.sync.Reset()
	l.logger.Info().Str("sessionId", id).Msg("Session reset")
	l.connect()
	l.showPlayer()
}

func (l *Loop) showPlayer() {
	l.view.Player(ui.PlayerState{
		Playing:  l.clock.Playing(),
		Waiting:  l.waiting,
		Enabled:  !l.waiting,
		Position: l.clock.Position(),
		Duration: l.clock.Duration(),
	})
}
