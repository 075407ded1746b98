package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simworld/pkg/oracle"
)

func TestPrepareSystemOnlyRequest(t *testing.T) {
	system, params, err := prepare([]oracle.Message{
		oracle.SystemMessage("decide how to react"),
	})
	require.NoError(t, err)
	assert.Equal(t, "decide how to react", system)
	require.Len(t, params, 1)
	assert.Equal(t, "user", string(params[0].Role))
}

func TestPrepareMergesConsecutiveRoles(t *testing.T) {
	system, params, err := prepare([]oracle.Message{
		oracle.SystemMessage("persona"),
		oracle.SystemMessage("rules"),
		oracle.UserMessage("first"),
		oracle.UserMessage("second"),
	})
	require.NoError(t, err)
	assert.Equal(t, "persona\n\nrules", system)
	require.Len(t, params, 1)
}

func TestPrepareInsertsLeadingUserTurn(t *testing.T) {
	_, params, err := prepare([]oracle.Message{
		oracle.AssistantMessage("earlier reply"),
		oracle.UserMessage("continue"),
	})
	require.NoError(t, err)
	require.Len(t, params, 3)
	assert.Equal(t, "user", string(params[0].Role))
}

func TestPrepareEmptyListIsAnError(t *testing.T) {
	_, _, err := prepare(nil)
	assert.Error(t, err)
}
