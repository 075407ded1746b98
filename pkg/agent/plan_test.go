package agent

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScratchpadRoundTrip(t *testing.T) {
	original := Scratchpad{
		{Tool: "speak", ToolInput: `{"recipient":"Bob","message":"hi"}`, Log: "Action: speak", Observation: "You said hi"},
		{Tool: "wait", ToolInput: "", Log: "Action: wait", Observation: "You waited"},
		{Tool: "search", ToolInput: "weather", Log: "Action: search", Observation: "It is raining"},
	}

	serialized, err := original.Serialize()
	require.NoError(t, err)

	restored, err := DeserializeScratchpad(serialized)
	require.NoError(t, err)
	assert.Equal(t, original, restored)
}

func TestScratchpadEmptyForms(t *testing.T) {
	serialized, err := Scratchpad(nil).Serialize()
	require.NoError(t, err)
	assert.Equal(t, "[]", serialized)

	restored, err := DeserializeScratchpad("")
	require.NoError(t, err)
	assert.Nil(t, restored)

	restored, err = DeserializeScratchpad("[]")
	require.NoError(t, err)
	assert.Empty(t, restored)
}

func TestPlanStatusTransitions(t *testing.T) {
	p := NewPlan(uuid.New(), "water the plants", uuid.New(), time.Hour, "the plants are watered")
	assert.Equal(t, PlanStatusTodo, p.Status)
	assert.False(t, p.Terminal())

	p.Status = PlanStatusInProgress
	p.Scratchpad = Scratchpad{{Tool: "wait", Observation: "You waited"}}
	assert.False(t, p.Terminal())

	p.Complete(PlanStatusDone)
	assert.True(t, p.Terminal())
	assert.Nil(t, p.Scratchpad, "terminal plans carry no scratchpad")
	require.NotNil(t, p.CompletedAt)
}
