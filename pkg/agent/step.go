package agent

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"simworld/pkg/memory"
	"simworld/pkg/oracle"
	"simworld/pkg/persistence"
	"simworld/pkg/world"
)

// Step runs one tick: Observe -> Plan-if-empty -> React -> Act -> Reflect ->
// flush. Any sub-step error ends the tick early; side effects already
// committed stand, and the loop is re-entrant next tick because every
// decision input (watermark, scratchpad, importance budget) is durable.
func (a *Agent) Step(ctx context.Context) error {
	ctx = context.WithValue(ctx, oracle.AgentIDContextKey, a.FullName)
	err := a.step(ctx)
	a.recorder.RecordTick(a.FullName, err == nil)
	if err != nil {
		a.logger.Error("tick aborted: %v", err)
	}
	return err
}

func (a *Agent) step(ctx context.Context) error {
	events := a.observe(ctx)

	if len(a.plans) == 0 {
		if err := a.plan(ctx, ""); err != nil {
			return fmt.Errorf("planning failed: %w", err)
		}
	}

	if len(events) > 0 {
		reaction, err := a.react(ctx, events)
		if err != nil {
			return fmt.Errorf("reaction failed: %w", err)
		}
		a.applyReaction(reaction)

		// A cancel can empty the queue; repopulate before acting.
		if len(a.plans) == 0 {
			if err := a.plan(ctx, reaction.Thought); err != nil {
				return fmt.Errorf("replanning failed: %w", err)
			}
		}
	}

	completed := a.act(ctx)

	if a.shouldReflect() {
		err := a.reflect(ctx)
		a.recorder.RecordReflection(a.FullName, err == nil)
		if err != nil {
			return fmt.Errorf("reflection failed: %w", err)
		}
	}

	if err := a.flush(completed); err != nil {
		return fmt.Errorf("persistence flush failed: %w", err)
	}
	return nil
}

// observe converts newly witnessed events into observation memories. The
// watermark advances to now BEFORE the fetch so events this agent creates
// later in the same tick are never re-observed next tick. That ordering is
// what prevents self-observation loops.
func (a *Agent) observe(ctx context.Context) []string {
	watermark := a.lastCheckedEvents
	a.lastCheckedEvents = time.Now()

	events := a.w.Log.EventsAfter(watermark, a.id)
	var descriptions []string
	for i := range events {
		e := &events[i]
		if e.SenderID != nil && *e.SenderID == a.id {
			// Own actions are already in the scratchpad; no need to
			// remember saying something twice.
			continue
		}
		importance := a.rateImportance(ctx, e.Description)
		a.addMemory(memory.NewObservation(a.id, e.Description, importance))
		descriptions = append(descriptions, e.Description)
	}
	return descriptions
}

// act executes the current plan and applies the resulting status to the
// queue. Returns any plan that reached a terminal state this tick, for the
// flush to record.
func (a *Agent) act(ctx context.Context) *SinglePlan {
	if len(a.plans) == 0 {
		return nil
	}
	current := a.plans[0]

	if current.LocationID != uuid.Nil && current.LocationID != a.locationID {
		a.MoveTo(current.LocationID)
	}

	current.Status = PlanStatusInProgress
	result := a.executePlan(ctx, current)

	switch result.Status {
	case PlanStatusDone:
		a.logger.Info("completed plan: %s", current.Description)
		current.Scratchpad = result.Scratchpad
		current.Complete(PlanStatusDone)
		a.removeSameDescription(current.Description)
		return current

	case PlanStatusFailed:
		a.logger.Warn("failed plan: %s (%s)", current.Description, result.Output)
		current.Scratchpad = result.Scratchpad
		current.Complete(PlanStatusFailed)
		a.removeSameDescription(current.Description)

		// Announce the failure so other agents can react to it.
		locName := ""
		if loc, ok := a.w.Directory.ByID(a.locationID); ok {
			locName = " at " + loc.Name
		}
		a.w.Log.Append(world.NewEvent(fmt.Sprintf(
			"%s failed to complete the following%s: %s. The problem was: %s",
			a.FullName, locName, current.Description, result.Output,
		), a.locationID))
		return current

	default:
		current.Scratchpad = result.Scratchpad
		return nil
	}
}

// addMemory stores a memory and writes it through to persistence.
func (a *Agent) addMemory(m memory.SingleMemory) {
	a.memories.Add(m)
	if a.persister == nil {
		return
	}

	related, err := json.Marshal(m.RelatedMemoryIDs)
	if err != nil {
		related = []byte("[]")
	}
	row := &persistence.MemoryRow{
		ID:               m.ID.String(),
		AgentID:          m.AgentID.String(),
		Type:             string(m.Type),
		Description:      m.Description,
		Importance:       m.Importance,
		CreatedAt:        m.CreatedAt,
		LastAccessed:     m.LastAccessed,
		RelatedMemoryIDs: string(related),
	}
	if err := a.persister.InsertMemory(row); err != nil {
		a.logger.Warn("memory write-through failed: %v", err)
	}
}

func (a *Agent) agentRow() *persistence.AgentRow {
	directives, err := json.Marshal(a.Directives)
	if err != nil {
		directives = []byte("[]")
	}
	return &persistence.AgentRow{
		ID:                a.id.String(),
		FullName:          a.FullName,
		Bio:               a.PrivateBio,
		Directives:        string(directives),
		LocationID:        a.locationID.String(),
		LastCheckedEvents: sql.NullTime{Time: a.lastCheckedEvents, Valid: true},
		LastReflection:    sql.NullTime{Time: a.lastReflection, Valid: true},
		CreatedAt:         time.Now(),
	}
}

// flush upserts the agent row and the full plan queue, priority order
// preserved: row order is the priority, index 0 runs first.
func (a *Agent) flush(completed *SinglePlan) error {
	if a.persister == nil {
		return nil
	}

	if err := a.persister.UpsertAgent(a.agentRow()); err != nil {
		return err
	}

	queue := a.plans
	if completed != nil {
		// The terminal plan rides along so its final status and cleared
		// scratchpad are recorded; UpsertPlans keeps terminal rows as
		// history.
		queue = append([]*SinglePlan{}, a.plans...)
		queue = append(queue, completed)
	}

	rows := make([]*persistence.PlanRow, 0, len(queue))
	for _, p := range queue {
		scratchpad, err := p.Scratchpad.Serialize()
		if err != nil {
			return err
		}
		planRow := &persistence.PlanRow{
			ID:                 p.ID.String(),
			AgentID:            p.AgentID.String(),
			Description:        p.Description,
			LocationID:         p.LocationID.String(),
			MaxDurationSeconds: int64(p.MaxDuration.Seconds()),
			StopCondition:      p.StopCondition,
			Status:             string(p.Status),
			Scratchpad:         scratchpad,
			CreatedAt:          p.CreatedAt,
		}
		if p.CompletedAt != nil {
			planRow.CompletedAt = sql.NullTime{Time: *p.CompletedAt, Valid: true}
		}
		rows = append(rows, planRow)
	}
	return a.persister.UpsertPlans(a.id.String(), rows)
}
