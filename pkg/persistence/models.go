package persistence

import (
	"database/sql"
	"time"
)

// AgentRow mirrors one row of the agents table.
type AgentRow struct {
	ID                string
	FullName          string
	Bio               string
	Directives        string // JSON array
	LocationID        string
	LastCheckedEvents sql.NullTime
	LastReflection    sql.NullTime
	CreatedAt         time.Time
}

// PlanRow mirrors one row of the plans table. Priority 0 is "do first";
// the scratchpad is the plan's serialized (action, observation) history.
type PlanRow struct {
	ID                 string
	AgentID            string
	Description        string
	LocationID         string
	MaxDurationSeconds int64
	StopCondition      string
	Status             string
	Scratchpad         string // JSON array
	Priority           int
	CreatedAt          time.Time
	CompletedAt        sql.NullTime
}

// MemoryRow mirrors one row of the memories table.
type MemoryRow struct {
	ID               string
	AgentID          string
	Type             string
	Description      string
	Importance       int
	CreatedAt        time.Time
	LastAccessed     time.Time
	RelatedMemoryIDs string // JSON array
}

// EventRow mirrors one row of the events table.
type EventRow struct {
	ID          string
	Type        string
	Subtype     string
	Description string
	LocationID  string
	SenderID    sql.NullString
	RecipientID sql.NullString
	WitnessIDs  string // JSON array
	Timestamp   time.Time
}

// DocumentRow mirrors one row of the documents table. NormalizedTitle is the
// lookup key so "My Notes" and "my notes" resolve to the same document.
type DocumentRow struct {
	ID              string
	AuthorID        string
	Title           string
	NormalizedTitle string
	Content         string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
