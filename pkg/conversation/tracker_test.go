package conversation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTurnTakingSequence(t *testing.T) {
	tracker := NewTracker()
	a := uuid.New()
	b := uuid.New()

	// Empty thread: anyone may open it.
	assert.True(t, tracker.CanSpeak(a, &b))
	assert.True(t, tracker.CanSpeak(b, &a))

	assert.True(t, tracker.RecordMessage(a, &b))
	assert.False(t, tracker.CanSpeak(a, &b))
	assert.True(t, tracker.CanSpeak(b, &a))

	tracker.RecordResponse(b, &a)
	assert.True(t, tracker.CanSpeak(a, &b))
}

func TestRecordMessageRejectsDoubleSpeak(t *testing.T) {
	tracker := NewTracker()
	a := uuid.New()
	b := uuid.New()

	assert.True(t, tracker.RecordMessage(a, &b))
	assert.False(t, tracker.RecordMessage(a, &b))

	// The rejected attempt must not disturb the thread.
	th, ok := tracker.Snapshot(a, &b)
	assert.True(t, ok)
	assert.Equal(t, a, th.LastSpeaker)
	assert.True(t, th.AwaitingResponse)
}

func TestThreadKeyIsUnordered(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	assert.Equal(t, ThreadKey(a, &b), ThreadKey(b, &a))
	assert.Equal(t, BroadcastKey, ThreadKey(a, nil))
}

func TestBroadcastUsesOwnThread(t *testing.T) {
	tracker := NewTracker()
	a := uuid.New()
	b := uuid.New()

	assert.True(t, tracker.RecordMessage(a, nil))
	assert.False(t, tracker.CanSpeak(a, nil))

	// Broadcast turn state is independent of the pairwise thread.
	assert.True(t, tracker.CanSpeak(a, &b))

	// Any other agent broadcasting reopens the channel.
	tracker.RecordResponse(b, nil)
	assert.True(t, tracker.CanSpeak(a, nil))
}

func TestResponseFromLastSpeakerIgnored(t *testing.T) {
	tracker := NewTracker()
	a := uuid.New()
	b := uuid.New()

	tracker.RecordMessage(a, &b)
	tracker.RecordResponse(a, &b)
	assert.False(t, tracker.CanSpeak(a, &b))
}
