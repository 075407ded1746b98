// Package memory stores per-agent experience records and ranks them for
// relevance when building prompts and reflections.
package memory

import (
	"time"

	"github.com/google/uuid"
)

// Type tags how a memory was produced.
type Type string

const (
	TypeObservation Type = "OBSERVATION"
	TypeReflection  Type = "REFLECTION"
)

// SingleMemory is one record of agent experience. Immutable after creation
// except for LastAccessed, which recency ranking updates.
type SingleMemory struct {
	ID           uuid.UUID `json:"id"`
	AgentID      uuid.UUID `json:"agent_id"`
	Type         Type      `json:"type"`
	Description  string    `json:"description"`
	Importance   int       `json:"importance"` // 1..5
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`

	// RelatedMemoryIDs back-reference the memories a reflection was
	// synthesized from. Index lookups only; the store owns the records.
	RelatedMemoryIDs []uuid.UUID `json:"related_memory_ids,omitempty"`

	Embedding []float32 `json:"-"`
}

// NewObservation creates an observation memory.
func NewObservation(agentID uuid.UUID, description string, importance int) SingleMemory {
	now := time.Now()
	return SingleMemory{
		ID:           uuid.New(),
		AgentID:      agentID,
		Type:         TypeObservation,
		Description:  description,
		Importance:   clampImportance(importance),
		CreatedAt:    now,
		LastAccessed: now,
	}
}

// NewReflection creates a reflection memory back-referencing its sources.
func NewReflection(agentID uuid.UUID, description string, importance int, related []uuid.UUID) SingleMemory {
	m := NewObservation(agentID, description, importance)
	m.Type = TypeReflection
	m.RelatedMemoryIDs = related
	return m
}

func clampImportance(n int) int {
	if n < 1 {
		return 1
	}
	if n > 5 {
		return 5
	}
	return n
}
