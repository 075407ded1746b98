package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUpsertAgentRoundTrip(t *testing.T) {
	s := openTestStore(t)

	id := uuid.NewString()
	row := &AgentRow{
		ID:         id,
		FullName:   "Marty Byrde",
		Bio:        "an anxious accountant",
		Directives: `["keep the family safe"]`,
		LocationID: uuid.NewString(),
		CreatedAt:  time.Now(),
	}
	require.NoError(t, s.UpsertAgent(row))

	row.Bio = "a very anxious accountant"
	require.NoError(t, s.UpsertAgent(row))

	got, err := s.GetAgent(id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a very anxious accountant", got.Bio)

	missing, err := s.GetAgent(uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpsertPlansPreservesPriorityOrder(t *testing.T) {
	s := openTestStore(t)

	agentID := uuid.NewString()
	require.NoError(t, s.UpsertAgent(&AgentRow{
		ID: agentID, FullName: "x", LocationID: uuid.NewString(), CreatedAt: time.Now(),
	}))

	mk := func(desc string) *PlanRow {
		return &PlanRow{
			ID: uuid.NewString(), AgentID: agentID, Description: desc,
			LocationID: uuid.NewString(), Status: "TODO", Scratchpad: "[]", CreatedAt: time.Now(),
		}
	}
	first := mk("talk to ruth")
	second := mk("check the books")
	require.NoError(t, s.UpsertPlans(agentID, []*PlanRow{first, second}))

	plans, err := s.GetPendingPlans(agentID)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "talk to ruth", plans[0].Description)
	assert.Equal(t, 0, plans[0].Priority)
	assert.Equal(t, 1, plans[1].Priority)

	// Replacing the queue drops plans no longer in it.
	replacement := mk("leave town")
	require.NoError(t, s.UpsertPlans(agentID, []*PlanRow{replacement}))

	plans, err = s.GetPendingPlans(agentID)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "leave town", plans[0].Description)
}

func TestMemoriesSinceStrictlyAfter(t *testing.T) {
	s := openTestStore(t)

	agentID := uuid.NewString()
	require.NoError(t, s.UpsertAgent(&AgentRow{
		ID: agentID, FullName: "x", LocationID: uuid.NewString(), CreatedAt: time.Now(),
	}))

	t0 := time.Now()
	row := &MemoryRow{
		ID: uuid.NewString(), AgentID: agentID, Type: "OBSERVATION",
		Description: "saw something", Importance: 3,
		CreatedAt: t0, LastAccessed: t0, RelatedMemoryIDs: "[]",
	}
	require.NoError(t, s.InsertMemory(row))

	got, err := s.MemoriesSince(agentID, t0.Add(-time.Second))
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = s.MemoriesSince(agentID, t0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDocumentSaveGetSearch(t *testing.T) {
	s := openTestStore(t)

	doc := &DocumentRow{
		ID:       uuid.NewString(),
		AuthorID: uuid.NewString(),
		Title:    "Meeting Notes",
		Content:  "discussed the quarterly forecast",
	}
	require.NoError(t, s.SaveDocument(doc))

	got, err := s.GetDocument("  meeting   NOTES ")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, doc.Content, got.Content)

	// Same normalized title overwrites in place.
	doc2 := &DocumentRow{
		ID:       uuid.NewString(),
		AuthorID: doc.AuthorID,
		Title:    "meeting notes",
		Content:  "revised forecast",
	}
	require.NoError(t, s.SaveDocument(doc2))

	results, err := s.SearchDocuments("forecast", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "revised forecast", results[0].Content)
}
