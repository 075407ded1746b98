package world

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveRoundTrip(t *testing.T) {
	dir := t.TempDir()

	w, err := NewArchiveWriter(dir)
	require.NoError(t, err)
	defer w.Close()

	locID := uuid.New()
	sender := uuid.New()
	e1 := NewEvent("the lights went out", locID)
	e2 := NewMessageEvent(SubtypeBroadcast, "anyone have a flashlight?", locID, sender, nil)

	require.NoError(t, w.WriteEvent(&e1))
	require.NoError(t, w.WriteEvent(&e2))

	events, err := ReadArchive(w.CurrentFile())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, e1.ID, events[0].ID)
	assert.Equal(t, e2.Description, events[1].Description)
	assert.Equal(t, SubtypeBroadcast, events[1].Subtype)

	files, err := ListArchiveFiles(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}
