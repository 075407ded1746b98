package world

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"simworld/pkg/logx"
)

// Archiver receives every appended event for durable storage. The in-memory
// log does not depend on the archive for queries.
type Archiver interface {
	WriteEvent(e *Event) error
}

// Log is the ordered, witness-filtered record of everything that happens in
// the world. Appends are safe from concurrent agent ticks; events are never
// mutated after append.
type Log struct {
	mu        sync.RWMutex
	events    []Event
	directory *Directory
	archive   Archiver
	logger    *logx.Logger
}

// NewLog creates an event log over a location directory. archive may be nil.
func NewLog(directory *Directory, archive Archiver) *Log {
	return &Log{directory: directory, archive: archive, logger: logx.NewLogger("world")}
}

// Append stamps the event's witness set from location occupancy and records
// it. The witness set is fixed here: agents arriving later do not see the
// event.
func (l *Log) Append(e Event) Event {
	if loc, ok := l.directory.ByID(e.LocationID); ok {
		e.WitnessIDs = loc.Occupants()
	}
	if e.RecipientID != nil && !e.WitnessedBy(*e.RecipientID) {
		e.WitnessIDs = append(e.WitnessIDs, *e.RecipientID)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()

	if l.archive != nil {
		// Archive failures do not block the simulation; the in-memory
		// log is authoritative for a run.
		if err := l.archive.WriteEvent(&e); err != nil {
			l.logger.Warn("event archive write failed: %v", err)
		}
	}
	return e
}

// EventsAfter returns events with Timestamp strictly after t that the given
// agent witnesses, in append order. Calling twice with the same t and no
// intervening appends returns the same result.
func (l *Log) EventsAfter(t time.Time, witnessID uuid.UUID) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Event
	for i := range l.events {
		e := &l.events[i]
		if !e.Timestamp.After(t) {
			continue
		}
		if e.WitnessedBy(witnessID) {
			out = append(out, *e)
		}
	}
	return out
}

// RecentMessages returns the last n message events at a location, oldest
// first. Used to build conversation history for prompts.
func (l *Log) RecentMessages(locationID uuid.UUID, n int) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Event
	for i := len(l.events) - 1; i >= 0 && len(out) < n; i-- {
		e := &l.events[i]
		if e.Type == EventTypeMessage && e.LocationID == locationID {
			out = append(out, *e)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Len returns the number of events recorded.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}
