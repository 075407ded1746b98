package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is an append-only collection of one agent's memories. Records are
// never deleted; concurrent appends from the step loop and the reflection
// engine are safe.
type Store struct {
	mu       sync.RWMutex
	agentID  uuid.UUID
	memories []SingleMemory
	byID     map[uuid.UUID]int
}

// NewStore creates an empty store for an agent.
func NewStore(agentID uuid.UUID) *Store {
	return &Store{
		agentID: agentID,
		byID:    make(map[uuid.UUID]int),
	}
}

// Add appends a memory and returns it.
func (s *Store) Add(m SingleMemory) SingleMemory {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[m.ID] = len(s.memories)
	s.memories = append(s.memories, m)
	return m
}

// Get looks up a memory by id.
func (s *Store) Get(id uuid.UUID) (SingleMemory, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byID[id]
	if !ok {
		return SingleMemory{}, false
	}
	return s.memories[idx], true
}

// All returns a snapshot of every memory in creation order.
func (s *Store) All() []SingleMemory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SingleMemory, len(s.memories))
	copy(out, s.memories)
	return out
}

// Recent returns the newest n memories, oldest first.
func (s *Store) Recent(n int) []SingleMemory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n > len(s.memories) {
		n = len(s.memories)
	}
	out := make([]SingleMemory, n)
	copy(out, s.memories[len(s.memories)-n:])
	return out
}

// Since returns memories created strictly after t.
func (s *Store) Since(t time.Time) []SingleMemory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []SingleMemory
	for i := range s.memories {
		if s.memories[i].CreatedAt.After(t) {
			out = append(out, s.memories[i])
		}
	}
	return out
}

// ImportanceSince sums the importance of memories created strictly after t.
// Drives the reflection trigger.
func (s *Store) ImportanceSince(t time.Time) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for i := range s.memories {
		if s.memories[i].CreatedAt.After(t) {
			total += s.memories[i].Importance
		}
	}
	return total
}

// Touch updates LastAccessed on the given memories. Called by the ranker
// when memories are pulled into a prompt.
func (s *Store) Touch(ids []uuid.UUID) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if idx, ok := s.byID[id]; ok {
			s.memories[idx].LastAccessed = now
		}
	}
}

// Len returns the number of memories.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.memories)
}
