// Package log provides session event logging.
package log

import (
	"fmt"
	"io"
	"sync"
)

// EventLogger receives session events as they occur.
type EventLogger interface {
	Log(e Event)
}

// MemoryLogger stores events in memory for later inspection.
// It is safe for concurrent use.
type MemoryLogger struct {
	mu     sync.Mutex
	events []Event
	seq    int
}

// NewMemoryLogger creates an empty MemoryLogger.
func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

// Log records an event, assigning it the next sequence number.
func (m *MemoryLogger) Log(e Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	e.Seq = m.seq
	m.events = append(m.events, e)
}

// Events returns a copy of all recorded events.
func (m *MemoryLogger) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// EventsOfType returns all recorded events of the given type.
func (m *MemoryLogger) EventsOfType(t EventType) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Event
	for _, e := range m.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// LastEvent returns the most recently recorded event, or false if none.
func (m *MemoryLogger) LastEvent() (Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.events) == 0 {
		return Event{}, false
	}
	return m.events[len(m.events)-1], true
}

// TextLogger writes events as formatted lines to an io.Writer.
type TextLogger struct {
	mu  sync.Mutex
	w   io.Writer
	seq int
}

// NewTextLogger creates a TextLogger writing to w.
func NewTextLogger(w io.Writer) *TextLogger {
	return &TextLogger{w: w}
}

// Log writes a single formatted line for the event.
func (t *TextLogger) Log(e Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	line := fmt.Sprintf("[%04d]", t.seq)
	if e.Round > 0 {
		line += fmt.Sprintf(" r%d", e.Round)
	}
	line += " " + e.Type.String()
	if e.Player != "" {
		line += " player=" + e.Player
	}
	if e.Card != "" {
		line += " card=" + e.Card
	}
	if e.Details != "" {
		line += " " + e.Details
	}
	fmt.Fprintln(t.w, line)
}

// NopLogger discards all events.
type NopLogger struct{}

func (NopLogger) Log(Event) {}
