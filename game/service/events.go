package service

import (
	"time"

	"github.com/wricardo/mcp-training/tileslide/game/engine"
)

// DefaultEventCapacity is how many recent events a session keeps
const DefaultEventCapacity = 256

// eventLog is a fixed-capacity ring of recent events
type eventLog struct {
	buf   []EventRecord
	start int
	size  int
	seq   int
}

func newEventLog(capacity int) *eventLog {
	if capacity <= 0 {
		capacity = DefaultEventCapacity
	}
	return &eventLog{buf: make([]EventRecord, capacity)}
}

func (l *eventLog) add(ev engine.Event, now time.Time) EventRecord {
	l.seq++
	rec := EventRecord{Event: ev, Seq: l.seq, Timestamp: now}
	if l.size < len(l.buf) {
		l.buf[(l.start+l.size)%len(l.buf)] = rec
		l.size++
	} else {
		l.buf[l.start] = rec
		l.start = (l.start + 1) % len(l.buf)
	}
	return rec
}

// all returns the retained events oldest first
func (l *eventLog) all() []EventRecord {
	out := make([]EventRecord, l.size)
	for i := 0; i < l.size; i++ {
		out[i] = l.buf[(l.start+i)%len(l.buf)]
	}
	return out
}

func (l *eventLog) total() int { return l.seq }

// NewSession creates a session around game. The game's observer should
// forward to Record.
func NewSession(id, profile string, game *engine.Game) *Session {
	now := time.Now()
	return &Session{
		ID:             id,
		Profile:        profile,
		Game:           game,
		CreatedAt:      now,
		LastAccessedAt: now,
		events:         newEventLog(DefaultEventCapacity),
	}
}

// Record stores ev in the session log. Must be called with the session
// locked, which is always the case for events raised by the game.
func (s *Session) Record(ev engine.Event) EventRecord {
	if s.events == nil {
		s.events = newEventLog(DefaultEventCapacity)
	}
	rec := s.events.add(ev, time.Now())
	if s.capture != nil {
		s.capture = append(s.capture, rec)
	}
	return rec
}

// Events returns the retained events oldest first. Must be called with the
// session locked.
func (s *Session) Events() []EventRecord {
	if s.events == nil {
		return nil
	}
	return s.events.all()
}

// beginCapture starts collecting events for the current call
func (s *Session) beginCapture() { s.capture = make([]EventRecord, 0, 8) }

// endCapture stops collecting and returns what was collected
func (s *Session) endCapture() []EventRecord {
	out := s.capture
	s.capture = nil
	return out
}
