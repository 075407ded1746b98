package agent

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simworld/pkg/conversation"
	"simworld/pkg/memory"
	"simworld/pkg/oracle"
	"simworld/pkg/persistence"
	"simworld/pkg/tools"
	"simworld/pkg/world"
)

func TestObserveSkipsOwnEvents(t *testing.T) {
	client := silentClient()
	h := newHarness(t, client)

	id := h.agent.id
	h.world.Log.Append(world.NewMessageEvent(
		world.SubtypeAgentToAgent, "Alice Zimmer said hello", h.lounge.ID, id, &h.other.id,
	))

	events := h.agent.observe(context.Background())
	assert.Empty(t, events)
	assert.Equal(t, 0, client.Calls(), "own events are never rated or remembered")
	assert.Equal(t, 0, h.agent.memories.Len())
}

func TestObserveSeesEachEventOnce(t *testing.T) {
	client := oracle.NewScriptedClient("3")
	h := newHarness(t, client)

	h.world.Log.Append(world.NewMessageEvent(
		world.SubtypeAgentToAgent, "Bob Tran said hello to Alice Zimmer", h.lounge.ID, h.other.id, &h.agent.id,
	))

	events := h.agent.observe(context.Background())
	require.Len(t, events, 1)
	assert.Equal(t, 1, h.agent.memories.Len())

	// The watermark moved past the event; a second pass is empty.
	events = h.agent.observe(context.Background())
	assert.Empty(t, events)
	assert.Equal(t, 1, h.agent.memories.Len())
}

func TestObserveRatesImportance(t *testing.T) {
	client := oracle.NewScriptedClient("5")
	h := newHarness(t, client)

	h.world.Log.Append(world.NewEvent("The fire alarm went off", h.lounge.ID))

	h.agent.observe(context.Background())
	all := h.agent.memories.All()
	require.Len(t, all, 1)
	assert.Equal(t, memory.TypeObservation, all[0].Type)
	assert.Equal(t, 5, all[0].Importance)
}

func TestStepPlansAndActsToCompletion(t *testing.T) {
	client := oracle.NewScriptedClient(
		`[{"description": "tidy the lounge", "location": "Lounge", "max_duration_hours": 1}]`,
		"Final Response: the lounge is tidy.",
	)
	h := newHarness(t, client)

	require.NoError(t, h.agent.Step(context.Background()))
	assert.Empty(t, h.agent.plans, "a completed plan leaves the queue")
	assert.Equal(t, 2, client.Calls())
}

func TestStepFailedPlanAnnouncedToWorld(t *testing.T) {
	client := oracle.NewScriptedClient(
		`[{"description": "open the vault", "location": "Lounge", "max_duration_hours": 1}]`,
		"Final Response: Need Help, the vault is locked.",
	)
	h := newHarness(t, client)

	require.NoError(t, h.agent.Step(context.Background()))
	assert.Empty(t, h.agent.plans)

	require.Equal(t, 1, h.world.Log.Len())
	events := h.world.Log.EventsAfter(h.other.lastCheckedEvents, h.other.id)
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Description, "failed to complete")
	assert.Contains(t, events[0].Description, "open the vault")
}

func TestActMovesAgentToPlanLocation(t *testing.T) {
	client := oracle.NewScriptedClient("Final Response: settled in.")
	h := newHarness(t, client)

	h.agent.plans = []*SinglePlan{
		NewPlan(h.agent.id, "work from the office", h.office.ID, 0, ""),
	}

	completed := h.agent.act(context.Background())
	require.NotNil(t, completed)
	assert.Equal(t, PlanStatusDone, completed.Status)
	assert.Equal(t, h.office.ID, h.agent.locationID)
	assert.True(t, h.office.Contains(h.agent.id))
	assert.False(t, h.lounge.Contains(h.agent.id))
}

func TestActKeepsInProgressPlanQueued(t *testing.T) {
	client := oracle.NewScriptedClient("Action: wait\nAction Input: none")
	h := newHarness(t, client)

	plan := NewPlan(h.agent.id, "wait for the mail", h.lounge.ID, 0, "")
	h.agent.plans = []*SinglePlan{plan}

	completed := h.agent.act(context.Background())
	assert.Nil(t, completed)
	require.Len(t, h.agent.plans, 1)
	assert.Equal(t, PlanStatusInProgress, h.agent.plans[0].Status)
	assert.Len(t, h.agent.plans[0].Scratchpad, 1, "the scratchpad survives for the next tick")
}

func TestMemoryWriteThroughBeforeFirstFlush(t *testing.T) {
	tools.InitCatalog()
	store, err := persistence.Open(filepath.Join(t.TempDir(), "sim.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	lounge := world.NewLocation("Lounge", "a quiet lounge")
	w := world.New("testworld", []*world.Location{lounge}, nil)
	a := New(Params{
		FullName:   "Alice Zimmer",
		PrivateBio: "a test inhabitant",
		LocationID: lounge.ID,
		World:      w,
		Tracker:    conversation.NewTracker(),
		Completer:  silentClient(),
		Persister:  store,
		Config:     testConfig(),
	})

	// No flush has run yet; the write-through must land durably anyway.
	a.addMemory(memory.NewObservation(a.id, "the kettle is boiling", 2))

	rows, err := store.MemoriesSince(a.id.String(), time.Time{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "the kettle is boiling", rows[0].Description)
}
