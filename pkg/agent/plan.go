// Package agent implements the simulation's core: the per-tick step loop,
// the plan state machine, the ReAct plan executor with layered output
// parsing, the reaction engine, and the reflection engine.
package agent

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PlanStatus is the plan state machine:
// TODO -> IN_PROGRESS -> {DONE, FAILED}. An IN_PROGRESS plan may also be
// abandoned when a reaction replaces it.
type PlanStatus string

const (
	PlanStatusTodo       PlanStatus = "TODO"
	PlanStatusInProgress PlanStatus = "IN_PROGRESS"
	PlanStatusDone       PlanStatus = "DONE"
	PlanStatusFailed     PlanStatus = "FAILED"
)

// ScratchpadStep is one (action, observation) pair accumulated while a plan
// executes.
type ScratchpadStep struct {
	Tool        string `json:"tool"`
	ToolInput   string `json:"tool_input"`
	Log         string `json:"log"` // the oracle output that produced the action
	Observation string `json:"observation"`
}

// Scratchpad is the ordered history of a plan's execution, kept so an
// interrupted plan resumes instead of restarting.
type Scratchpad []ScratchpadStep

// MarshalJSON is the persistence form; an empty scratchpad serializes as [].
func (s Scratchpad) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]ScratchpadStep(s))
}

// Serialize encodes the scratchpad for a plan row.
func (s Scratchpad) Serialize() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to serialize scratchpad: %w", err)
	}
	return string(data), nil
}

// DeserializeScratchpad restores a scratchpad from its persisted form.
func DeserializeScratchpad(data string) (Scratchpad, error) {
	if data == "" {
		return nil, nil
	}
	var s Scratchpad
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("failed to deserialize scratchpad: %w", err)
	}
	return s, nil
}

// SinglePlan is one unit of intended activity. The stop condition is free
// text evaluated by the oracle, not by this code.
type SinglePlan struct {
	ID            uuid.UUID
	AgentID       uuid.UUID
	Description   string
	LocationID    uuid.UUID
	MaxDuration   time.Duration
	StopCondition string
	Status        PlanStatus
	Scratchpad    Scratchpad
	CreatedAt     time.Time
	CompletedAt   *time.Time
}

// NewPlan creates a TODO plan.
func NewPlan(agentID uuid.UUID, description string, locationID uuid.UUID, maxDuration time.Duration, stopCondition string) *SinglePlan {
	return &SinglePlan{
		ID:            uuid.New(),
		AgentID:       agentID,
		Description:   description,
		LocationID:    locationID,
		MaxDuration:   maxDuration,
		StopCondition: stopCondition,
		Status:        PlanStatusTodo,
		CreatedAt:     time.Now(),
	}
}

// Terminal reports whether the plan has finished, successfully or not.
func (p *SinglePlan) Terminal() bool {
	return p.Status == PlanStatusDone || p.Status == PlanStatusFailed
}

// Complete transitions the plan to a terminal status and clears the
// scratchpad: the history only matters while the plan can resume.
func (p *SinglePlan) Complete(status PlanStatus) {
	p.Status = status
	p.Scratchpad = nil
	now := time.Now()
	p.CompletedAt = &now
}
