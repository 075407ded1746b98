package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simworld/pkg/memory"
	"simworld/pkg/oracle"
)

func TestReactParsesContinue(t *testing.T) {
	client := oracle.NewScriptedClient("Reaction: continue\nThought: nothing changed.")
	h := newHarness(t, client)
	h.agent.plans = []*SinglePlan{NewPlan(h.agent.id, "read a book", h.lounge.ID, time.Hour, "")}

	result, err := h.agent.react(context.Background(), []string{"Bob Tran sat down."})
	require.NoError(t, err)
	assert.Equal(t, ReactionContinue, result.Reaction)
	assert.Equal(t, "nothing changed.", result.Thought)
}

func TestReactParsesCancelWithThought(t *testing.T) {
	client := oracle.NewScriptedClient("Reaction: cancel\nThought: the meeting was called off.")
	h := newHarness(t, client)

	result, err := h.agent.react(context.Background(), []string{"The meeting is cancelled."})
	require.NoError(t, err)
	assert.Equal(t, ReactionCancel, result.Reaction)
	assert.Equal(t, "the meeting was called off.", result.Thought)
}

func TestReactAcceptsEscalateAsPostpone(t *testing.T) {
	client := oracle.NewScriptedClient("Reaction: escalate\nNew Plan: answer Bob first")
	h := newHarness(t, client)

	result, err := h.agent.react(context.Background(), []string{"Bob Tran asked a question."})
	require.NoError(t, err)
	assert.Equal(t, ReactionPostpone, result.Reaction)
	assert.Equal(t, "answer Bob first", result.NewPlan)
}

func TestReactInvalidVerdictGetsOneCorrection(t *testing.T) {
	client := oracle.NewScriptedClient(
		"I think I should probably keep going?",
		"Reaction: continue",
	)
	h := newHarness(t, client)

	result, err := h.agent.react(context.Background(), []string{"something happened"})
	require.NoError(t, err)
	assert.Equal(t, ReactionContinue, result.Reaction)
	assert.Equal(t, 2, client.Calls())
}

func TestReactDoubleInvalidIsAnError(t *testing.T) {
	client := oracle.NewScriptedClient(
		"Shrug.",
		"Still shrugging.",
	)
	h := newHarness(t, client)

	_, err := h.agent.react(context.Background(), []string{"something happened"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized reaction")
}

func TestReactPostponeWithoutPlanIsAnError(t *testing.T) {
	client := oracle.NewScriptedClient("Reaction: postpone")
	h := newHarness(t, client)

	_, err := h.agent.react(context.Background(), []string{"something happened"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without a replacement plan")
}

func TestApplyReactionPostponePushesFront(t *testing.T) {
	h := newHarness(t, silentClient())
	original := NewPlan(h.agent.id, "read a book", h.lounge.ID, time.Hour, "")
	h.agent.plans = []*SinglePlan{original}

	h.agent.applyReaction(ReactionResult{Reaction: ReactionPostpone, NewPlan: "greet Bob"})

	require.Len(t, h.agent.plans, 2)
	assert.Equal(t, "greet Bob", h.agent.plans[0].Description)
	assert.Same(t, original, h.agent.plans[1])
}

func TestApplyReactionCancelDropsHead(t *testing.T) {
	h := newHarness(t, silentClient())
	h.agent.plans = []*SinglePlan{
		NewPlan(h.agent.id, "first", h.lounge.ID, time.Hour, ""),
		NewPlan(h.agent.id, "second", h.lounge.ID, time.Hour, ""),
	}

	h.agent.applyReaction(ReactionResult{Reaction: ReactionCancel})

	require.Len(t, h.agent.plans, 1)
	assert.Equal(t, "second", h.agent.plans[0].Description)
}

func TestActivitySummaryRespectsTTL(t *testing.T) {
	client := oracle.NewScriptedClient("I have been chatting with Bob.")
	h := newHarness(t, client)
	h.agent.addMemory(memory.NewObservation(h.agent.id, "talked to Bob", 2))

	require.NoError(t, h.agent.refreshActivitySummary(context.Background()))
	assert.Equal(t, "I have been chatting with Bob.", h.agent.recentActivity)
	assert.Equal(t, 1, client.Calls())

	// Inside the TTL the cached summary is reused without a completion.
	require.NoError(t, h.agent.refreshActivitySummary(context.Background()))
	assert.Equal(t, 1, client.Calls())
}
