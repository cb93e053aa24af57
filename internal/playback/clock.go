// Package playback simulates the media element the transcript is synchronized
// against: a clock that advances while playing and a tick loop that polls it.
package playback

import (
	"context"
	"math"
	"sync"
	"time"
)

// SeekStep is the jump applied by the seek-back and seek-forward controls.
const SeekStep = 5.0

// Clock is a media playback position in seconds. It advances with wall time
// while playing and stops at Duration. A zero duration means unknown length:
// the clock never ends on its own.
type Clock struct {
	mu       sync.Mutex
	now      func() time.Time
	duration float64
	base     float64
	anchor   time.Time
	playing  bool
	ended    bool
}

// NewClock creates a paused clock at position 0.
func NewClock(duration float64) *Clock {
	if duration < 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		duration = 0
	}
	return &Clock{now: time.Now, duration: duration}
}

// WithNow replaces the time source. Used by tests.
func (c *Clock) WithNow(now func() time.Time) *Clock {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
	return c
}

// Duration returns the media length in seconds.
func (c *Clock) Duration() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration
}

// Play starts or resumes the clock. Playing an ended clock rewinds it first.
// It reports whether the clock was paused before the call.
func (c *Clock) Play() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playing {
		return false
	}
	if c.ended {
		c.base = 0
		c.ended = false
	}
	c.playing = true
	c.anchor = c.now()
	return true
}

// Pause freezes the clock at its current position.
func (c *Clock) Pause() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.playing {
		return false
	}
	c.base = c.positionLocked()
	c.playing = false
	return true
}

// Playing reports whether the clock is advancing.
func (c *Clock) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// Position returns the current position in seconds.
func (c *Clock) Position() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.positionLocked()
}

// Seek moves to pos, clamped to [0, Duration], and returns the new position.
// Seeking clears the ended state.
func (c *Clock) Seek(pos float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = c.clamp(pos)
	c.anchor = c.now()
	c.ended = false
	return c.base
}

// SeekBy moves the position by delta seconds.
func (c *Clock) SeekBy(delta float64) float64 {
	c.mu.Lock()
	pos := c.positionLocked() + delta
	c.mu.Unlock()
	return c.Seek(pos)
}

// Rewind pauses the clock and returns it to 0.
func (c *Clock) Rewind() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = 0
	c.playing = false
	c.ended = false
}

// Ended reports whether playback ran to the end of the media.
func (c *Clock) Ended() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ended
}

// checkEnded latches the ended state once the position reaches the duration.
// It reports true exactly once per play-through.
func (c *Clock) checkEnded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ended || !c.playing || c.duration <= 0 {
		return false
	}
	if c.positionLocked() < c.duration {
		return false
	}
	c.base = c.duration
	c.playing = false
	c.ended = true
	return true
}

func (c *Clock) positionLocked() float64 {
	if !c.playing {
		return c.base
	}
	return c.clamp(c.base + c.now().Sub(c.anchor).Seconds())
}

func (c *Clock) clamp(pos float64) float64 {
	if pos < 0 || math.IsNaN(pos) {
		return 0
	}
	if c.duration > 0 && pos > c.duration {
		return c.duration
	}
	if math.IsInf(pos, 1) {
		return 0
	}
	return pos
}

// Handler receives clock signals. Both callbacks run on the ticker goroutine.
type Handler interface {
	OnTick(position float64)
	OnEnded(position float64)
}

// Run polls the clock every interval while it is playing, the way a media
// element fires timeupdate. It returns when ctx is done.
func (c *Clock) Run(ctx context.Context, interval time.Duration, h Handler) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !c.Playing() {
				continue
			}
			pos := c.Position()
			h.OnTick(pos)
			if c.checkEnded() {
				h.OnEnded(c.Position())
			}
		}
	}
}
