// Package conversation enforces turn-taking discipline between agents. A
// speaker may not send a second message into the same thread until the
// other party has replied; without this, two chatty agents monologue past
// each other forever.
package conversation

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// BroadcastKey is the sentinel thread key for location-wide announcements.
// Broadcasts share one thread so an agent cannot spam a room either.
const BroadcastKey = "broadcast"

// Thread is the turn state for one pair of participants or the broadcast
// channel.
type Thread struct {
	Key              string
	LastSpeaker      uuid.UUID
	LastMessageAt    time.Time
	AwaitingResponse bool
}

// Tracker holds every conversation thread for one world run. It is the only
// mutable state shared across agents; the check in CanSpeak and the update
// in RecordMessage must run under the same lock so two agents cannot both
// observe an open thread and both speak.
type Tracker struct {
	mu      sync.Mutex
	threads map[string]*Thread
}

// NewTracker creates an empty tracker. One per world run, passed down
// explicitly to the tools that need it.
func NewTracker() *Tracker {
	return &Tracker{threads: make(map[string]*Thread)}
}

// ThreadKey returns the canonical key for a pair of participants. The pair
// is unordered: ThreadKey(a, b) == ThreadKey(b, a). A nil recipient means
// broadcast.
func ThreadKey(a uuid.UUID, b *uuid.UUID) string {
	if b == nil {
		return BroadcastKey
	}
	as, bs := a.String(), b.String()
	if as < bs {
		return as + ":" + bs
	}
	return bs + ":" + as
}

// CanSpeak reports whether speaker may message recipient now. False only
// when the thread is awaiting a response and speaker was the last to talk.
func (t *Tracker) CanSpeak(speaker uuid.UUID, recipient *uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	th, ok := t.threads[ThreadKey(speaker, recipient)]
	if !ok {
		return true
	}
	return !(th.AwaitingResponse && th.LastSpeaker == speaker)
}

// RecordMessage marks speaker as having sent a message and the thread as
// awaiting a response. Returns false without recording if the speaker was
// not allowed to speak, so check-then-update is atomic.
func (t *Tracker) RecordMessage(speaker uuid.UUID, recipient *uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := ThreadKey(speaker, recipient)
	th, ok := t.threads[key]
	if !ok {
		th = &Thread{Key: key}
		t.threads[key] = th
	}
	if th.AwaitingResponse && th.LastSpeaker == speaker {
		return false
	}

	th.LastSpeaker = speaker
	th.LastMessageAt = time.Now()
	th.AwaitingResponse = true
	return true
}

// RecordResponse reopens the thread after responder replies to original.
// A "response" from the original speaker is ignored.
func (t *Tracker) RecordResponse(responder uuid.UUID, original *uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	th, ok := t.threads[ThreadKey(responder, original)]
	if !ok || th.LastSpeaker == responder {
		return
	}

	th.LastSpeaker = responder
	th.LastMessageAt = time.Now()
	th.AwaitingResponse = false
}

// Snapshot returns a copy of a thread's state, if it exists.
func (t *Tracker) Snapshot(a uuid.UUID, b *uuid.UUID) (Thread, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	th, ok := t.threads[ThreadKey(a, b)]
	if !ok {
		return Thread{}, false
	}
	return *th, true
}
