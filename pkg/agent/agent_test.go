package agent

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"simworld/pkg/conversation"
	"simworld/pkg/oracle"
	"simworld/pkg/tools"
	"simworld/pkg/world"
)

// testHarness bundles a two-agent world around a scripted oracle.
type testHarness struct {
	world  *world.World
	lounge *world.Location
	office *world.Location
	roster *Roster
	agent  *Agent
	other  *Agent
}

func testConfig() Config {
	return Config{
		MaxPlanIterations:   10,
		ReflectionThreshold: 500,
		ReflectionMemories:  20,
		ActivitySummaryTTL:  time.Hour,
		PlanLength:          24 * time.Hour,
	}
}

func newHarness(t *testing.T, completer oracle.Completer) *testHarness {
	t.Helper()
	tools.InitCatalog()

	lounge := world.NewLocation("Lounge", "a quiet lounge")
	office := world.NewLocation("Office", "a shared office")
	w := world.New("testworld", []*world.Location{lounge, office}, nil)
	tracker := conversation.NewTracker()

	mk := func(name string) *Agent {
		return New(Params{
			FullName:   name,
			PrivateBio: "a test inhabitant",
			Directives: []string{"be helpful"},
			LocationID: lounge.ID,
			World:      w,
			Tracker:    tracker,
			Completer:  completer,
			Config:     testConfig(),
		})
	}

	roster := NewRoster()
	a := mk("Alice Zimmer")
	b := mk("Bob Tran")
	roster.Add(a)
	roster.Add(b)

	return &testHarness{world: w, lounge: lounge, office: office, roster: roster, agent: a, other: b}
}

// quiet oracle for tests that should not complete anything.
func silentClient() *oracle.MockClient {
	return oracle.NewMockClient(nil, nil)
}

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	if err != nil {
		t.Fatalf("bad uuid %q: %v", s, err)
	}
	return id
}
