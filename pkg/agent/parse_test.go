package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParser() *Parser {
	return NewParser([]string{"speak", "wait", "search"}, []string{"Bob Tran"})
}

func TestParseExactActionInput(t *testing.T) {
	p := testParser()

	out := "Thought: I should ask Bob.\nAction: speak\nAction Input: Bob Tran\nhello there"
	action, ok := p.ParseExact(out)
	require.True(t, ok)
	assert.False(t, action.Terminal)
	assert.Equal(t, "speak", action.Tool)
	assert.Equal(t, "Bob Tran\nhello there", action.Input)
}

func TestParseExactToleratesNumberedLabels(t *testing.T) {
	p := testParser()

	action, ok := p.ParseExact("Action 2: wait\nAction 2 Input 2: nothing")
	require.True(t, ok)
	assert.Equal(t, "wait", action.Tool)
	assert.Equal(t, "nothing", action.Input)
}

func TestParseExactStopsAtHallucinatedObservation(t *testing.T) {
	p := testParser()

	action, ok := p.ParseExact("Action: search\nAction Input: the weather\nObservation: sunny")
	require.True(t, ok)
	assert.Equal(t, "the weather", action.Input)
}

func TestParseExactFinalResponse(t *testing.T) {
	p := testParser()

	action, ok := p.ParseExact("Thought: done.\nFinal Response: I finished tidying up.")
	require.True(t, ok)
	assert.True(t, action.Terminal)
	assert.Equal(t, "I finished tidying up.", action.Output)
}

func TestParseExactRejectsProse(t *testing.T) {
	p := testParser()
	_, ok := p.ParseExact("I think I should probably do something now.")
	assert.False(t, ok)
}

func TestParseHeuristicFindsParticipant(t *testing.T) {
	p := testParser()

	action, ok := p.ParseHeuristic("I really must tell Bob Tran about the leak")
	require.True(t, ok)
	assert.Equal(t, "speak", action.Tool)

	_, ok = p.ParseHeuristic("nothing recognizable here")
	assert.False(t, ok)
}

func TestNormalizeActionExactAndSynonyms(t *testing.T) {
	p := testParser()

	name, err := p.NormalizeAction("  SPEAK ")
	require.NoError(t, err)
	assert.Equal(t, "speak", name)

	// Communication-flavored synonyms normalize to speak instead of
	// erroring out.
	for _, syn := range []string{"respond", "ChatGPT", "answer the question", "reply to Bob"} {
		name, err := p.NormalizeAction(syn)
		require.NoError(t, err, "synonym %q", syn)
		assert.Equal(t, "speak", name)
	}

	_, err = p.NormalizeAction("somersault")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valid actions are")
}

func TestExtractMessageLayers(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		wantRecipient string
		wantMessage   string
	}{
		{"json", `{"recipient": "Bob Tran", "message": "hello"}`, "Bob Tran", "hello"},
		{"newline split", "Bob Tran\nhello there", "Bob Tran", "hello there"},
		{"to-message pattern", "To: Bob Tran Message: hello", "Bob Tran", "hello"},
		{"tell pattern", "Tell Bob Tran that the meeting moved", "Bob Tran", "the meeting moved"},
		{"colon pattern", "Bob Tran: you are late", "Bob Tran", "you are late"},
		{"first word fallback", "Bob hello there friend", "Bob", "hello there friend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recipient, message, err := ExtractMessage(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRecipient, recipient)
			assert.Equal(t, tt.wantMessage, message)
		})
	}

	_, _, err := ExtractMessage("   ")
	require.Error(t, err)
}
