// Package transcript holds the append-only store of analysis events received
// from the backend stream.
package transcript

import (
	"sync"

	"github.com/raihanakbr/scamguard-monitor/internal/protocol"
)

// Buffer is an insertion-ordered store of analysis events. Ids are the
// insertion index, so they run 0, 1, 2, ... in arrival order. There is no
// removal and no capacity bound; a buffer lives for one session.
type Buffer struct {
	mu     sync.RWMutex
	events []protocol.AnalysisEvent
}

// NewBuffer creates an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{events: make([]protocol.AnalysisEvent, 0, 64)}
}

// Append assigns the next id to ev, stores it and returns the id.
func (b *Buffer) Append(ev protocol.AnalysisEvent) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	ev.ID = len(b.events)
	b.events = append(b.events, ev)
	return ev.ID
}

// Accept buffers msg if it is an analysis event. Log and control messages
// bypass the buffer and report buffered=false.
func (b *Buffer) Accept(msg protocol.Inbound) (id int, buffered bool) {
	if msg.Kind != protocol.KindAnalysis || msg.Event == nil {
		return -1, false
	}
	return b.Append(*msg.Event), true
}

// Len returns the number of buffered events.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.events)
}

// Get returns the event with the given id.
func (b *Buffer) Get(id int) (protocol.AnalysisEvent, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if id < 0 || id >= len(b.events) {
		return protocol.AnalysisEvent{}, false
	}
	return b.events[id], true
}

// Snapshot returns a copy of the buffered events in arrival order.
func (b *Buffer) Snapshot() []protocol.AnalysisEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]protocol.AnalysisEvent, len(b.events))
	copy(out, b.events)
	return out
}
