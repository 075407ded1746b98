package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simworld/pkg/oracle"
)

func TestPlanBuildsQueueFromJSON(t *testing.T) {
	client := oracle.NewScriptedClient(`[
		{"description": "chat with Bob", "location": "Lounge", "stop_condition": "Bob replies", "max_duration_hours": 2},
		{"description": "write the report", "location": "Office", "max_duration_hours": 0}
	]`)
	h := newHarness(t, client)

	require.NoError(t, h.agent.plan(context.Background(), ""))
	require.Len(t, h.agent.plans, 2)

	first := h.agent.plans[0]
	assert.Equal(t, "chat with Bob", first.Description)
	assert.Equal(t, h.lounge.ID, first.LocationID)
	assert.Equal(t, "Bob replies", first.StopCondition)
	assert.Equal(t, 2*time.Hour, first.MaxDuration)

	// A zero duration falls back to the configured plan length.
	second := h.agent.plans[1]
	assert.Equal(t, h.office.ID, second.LocationID)
	assert.Equal(t, testConfig().PlanLength, second.MaxDuration)
}

func TestPlanToleratesCodeFences(t *testing.T) {
	client := oracle.NewScriptedClient("Here you go:\n```json\n[{\"description\": \"nap\", \"location\": \"Lounge\"}]\n```")
	h := newHarness(t, client)

	require.NoError(t, h.agent.plan(context.Background(), ""))
	require.Len(t, h.agent.plans, 1)
	assert.Equal(t, "nap", h.agent.plans[0].Description)
}

func TestPlanDropsEmptyDescriptions(t *testing.T) {
	client := oracle.NewScriptedClient(`[
		{"description": "  ", "location": "Lounge"},
		{"description": "do something real", "location": "Lounge"}
	]`)
	h := newHarness(t, client)

	require.NoError(t, h.agent.plan(context.Background(), ""))
	require.Len(t, h.agent.plans, 1)
	assert.Equal(t, "do something real", h.agent.plans[0].Description)
}

func TestPlanInvalidLocationGetsOneCorrection(t *testing.T) {
	client := oracle.NewScriptedClient(
		`[{"description": "visit the moon", "location": "Moon Base"}]`,
		`[{"description": "visit the moon exhibit", "location": "Office"}]`,
	)
	h := newHarness(t, client)

	require.NoError(t, h.agent.plan(context.Background(), ""))
	require.Len(t, h.agent.plans, 1)
	assert.Equal(t, h.office.ID, h.agent.plans[0].LocationID)
	assert.Equal(t, 2, client.Calls())

	// The correction enumerated both the offenders and the valid names.
	reqs := client.Requests()
	require.Len(t, reqs, 2)
	followup := reqs[1].Messages[len(reqs[1].Messages)-1].Content
	assert.Contains(t, followup, "Moon Base")
	assert.Contains(t, followup, "Lounge")
	assert.Contains(t, followup, "Office")
}

func TestPlanInvalidLocationTwiceIsAnError(t *testing.T) {
	client := oracle.NewScriptedClient(
		`[{"description": "visit the moon", "location": "Moon Base"}]`,
		`[{"description": "visit mars", "location": "Mars Base"}]`,
	)
	h := newHarness(t, client)

	err := h.agent.plan(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid locations")
}

func TestPlanEmptyQueueIsAnError(t *testing.T) {
	client := oracle.NewScriptedClient(`[]`)
	h := newHarness(t, client)

	err := h.agent.plan(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty queue")
}

func TestRemoveSameDescriptionRemovesAllMatches(t *testing.T) {
	h := newHarness(t, silentClient())
	h.agent.plans = []*SinglePlan{
		NewPlan(h.agent.id, "water the plants", h.lounge.ID, time.Hour, ""),
		NewPlan(h.agent.id, "file the report", h.lounge.ID, time.Hour, ""),
		NewPlan(h.agent.id, "water the plants", h.lounge.ID, time.Hour, ""),
	}

	h.agent.removeSameDescription("water the plants")

	require.Len(t, h.agent.plans, 1)
	assert.Equal(t, "file the report", h.agent.plans[0].Description)
}

func TestPlanningPromptListsBudgetsOfCurrentPlans(t *testing.T) {
	h := newHarness(t, silentClient())
	h.agent.plans = []*SinglePlan{
		NewPlan(h.agent.id, "chat with Bob", h.lounge.ID, 2*time.Hour, "Bob replies"),
	}

	prompt := h.agent.planningPrompt("")
	assert.Contains(t, prompt, "chat with Bob (under 2h0m0s) [stop when: Bob replies]")
}
