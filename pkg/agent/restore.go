package agent

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"simworld/pkg/memory"
	"simworld/pkg/persistence"
)

// RestoreSource is the read side of the durable store, used at startup to
// resume a seeded agent from a prior run.
type RestoreSource interface {
	GetAgentByName(fullName string) (*persistence.AgentRow, error)
	GetPendingPlans(agentID string) ([]*persistence.PlanRow, error)
	MemoriesSince(agentID string, t time.Time) ([]*persistence.MemoryRow, error)
}

// NewFromStore creates an agent, resuming identity, watermarks, memories,
// and pending plans saved under the same full name when present. A name
// never seen before starts fresh.
func NewFromStore(p Params, src RestoreSource) (*Agent, error) {
	if src == nil {
		return New(p), nil
	}

	row, err := src.GetAgentByName(p.FullName)
	if err != nil {
		return nil, fmt.Errorf("restore lookup for %q failed: %w", p.FullName, err)
	}
	if row == nil {
		return New(p), nil
	}

	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, fmt.Errorf("restore of %q: bad agent id %q: %w", p.FullName, row.ID, err)
	}

	// The saved location wins over the seed when it still exists.
	if locID, err := uuid.Parse(row.LocationID); err == nil {
		if _, ok := p.World.Directory.ByID(locID); ok {
			p.LocationID = locID
		}
	}

	a := newAgent(p, id)
	if row.LastCheckedEvents.Valid {
		a.lastCheckedEvents = row.LastCheckedEvents.Time
	}
	if row.LastReflection.Valid {
		a.lastReflection = row.LastReflection.Time
	}
	// The construction-time seed wrote fresh watermarks; put the restored
	// ones back in the durable row.
	if a.persister != nil {
		if err := a.persister.UpsertAgent(a.agentRow()); err != nil {
			a.logger.Warn("watermark refresh failed: %v", err)
		}
	}

	memRows, err := src.MemoriesSince(row.ID, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("restore of %q: memories: %w", p.FullName, err)
	}
	for _, m := range memRows {
		restored, err := memoryFromRow(m)
		if err != nil {
			a.logger.Warn("skipping unrestorable memory %s: %v", m.ID, err)
			continue
		}
		a.memories.Add(restored)
	}

	planRows, err := src.GetPendingPlans(row.ID)
	if err != nil {
		return nil, fmt.Errorf("restore of %q: plans: %w", p.FullName, err)
	}
	for _, pr := range planRows {
		restored, err := planFromRow(pr)
		if err != nil {
			a.logger.Warn("skipping unrestorable plan %s: %v", pr.ID, err)
			continue
		}
		a.plans = append(a.plans, restored)
	}

	a.logger.Info("restored from prior run: %d memories, %d pending plans", len(memRows), len(a.plans))
	return a, nil
}

func memoryFromRow(m *persistence.MemoryRow) (memory.SingleMemory, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return memory.SingleMemory{}, fmt.Errorf("bad memory id %q: %w", m.ID, err)
	}
	agentID, err := uuid.Parse(m.AgentID)
	if err != nil {
		return memory.SingleMemory{}, fmt.Errorf("bad agent id %q: %w", m.AgentID, err)
	}

	var relatedStrings []string
	if m.RelatedMemoryIDs != "" {
		if err := json.Unmarshal([]byte(m.RelatedMemoryIDs), &relatedStrings); err != nil {
			return memory.SingleMemory{}, fmt.Errorf("bad related ids: %w", err)
		}
	}
	var related []uuid.UUID
	for _, s := range relatedStrings {
		if rid, err := uuid.Parse(s); err == nil {
			related = append(related, rid)
		}
	}

	return memory.SingleMemory{
		ID:               id,
		AgentID:          agentID,
		Type:             memory.Type(m.Type),
		Description:      m.Description,
		Importance:       m.Importance,
		CreatedAt:        m.CreatedAt,
		LastAccessed:     m.LastAccessed,
		RelatedMemoryIDs: related,
	}, nil
}

func planFromRow(pr *persistence.PlanRow) (*SinglePlan, error) {
	id, err := uuid.Parse(pr.ID)
	if err != nil {
		return nil, fmt.Errorf("bad plan id %q: %w", pr.ID, err)
	}
	agentID, err := uuid.Parse(pr.AgentID)
	if err != nil {
		return nil, fmt.Errorf("bad agent id %q: %w", pr.AgentID, err)
	}
	locID, err := uuid.Parse(pr.LocationID)
	if err != nil {
		return nil, fmt.Errorf("bad location id %q: %w", pr.LocationID, err)
	}
	scratchpad, err := DeserializeScratchpad(pr.Scratchpad)
	if err != nil {
		return nil, err
	}

	return &SinglePlan{
		ID:            id,
		AgentID:       agentID,
		Description:   pr.Description,
		LocationID:    locID,
		MaxDuration:   time.Duration(pr.MaxDurationSeconds) * time.Second,
		StopCondition: pr.StopCondition,
		Status:        PlanStatus(pr.Status),
		Scratchpad:    scratchpad,
		CreatedAt:     pr.CreatedAt,
	}, nil
}
