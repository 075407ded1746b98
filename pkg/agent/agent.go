package agent

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"simworld/pkg/conversation"
	"simworld/pkg/logx"
	"simworld/pkg/memory"
	"simworld/pkg/oracle"
	"simworld/pkg/persistence"
	"simworld/pkg/tools"
	"simworld/pkg/world"
)

// Config bounds the step loop's appetite.
type Config struct {
	// MaxPlanIterations caps one plan execution's ReAct loop.
	MaxPlanIterations int
	// ReflectionThreshold is the cumulative importance of new memories
	// that triggers a reflection. Strictly-greater: importance exactly at
	// the threshold does not trigger.
	ReflectionThreshold int
	// ReflectionMemories is how many recent memories seed reflection
	// questions.
	ReflectionMemories int
	// ActivitySummaryTTL is how long a cached recent-activity summary
	// stays fresh.
	ActivitySummaryTTL time.Duration
	// PlanLength is the default duration budget given to new plans.
	PlanLength time.Duration
}

// DefaultConfig mirrors the values the simulation ships with.
func DefaultConfig() Config {
	return Config{
		MaxPlanIterations:   10,
		ReflectionThreshold: 500,
		ReflectionMemories:  20,
		ActivitySummaryTTL:  20 * time.Second,
		PlanLength:          24 * time.Hour,
	}
}

// Recorder receives step loop telemetry. Satisfied by
// metrics.PrometheusRecorder; a nil recorder disables instrumentation.
type Recorder interface {
	RecordParseOutcome(agentID, layer string)
	RecordToolExecution(agentID, tool string, success bool)
	RecordReflection(agentID string, success bool)
	RecordTick(agentID string, success bool)
}

type nopRecorder struct{}

func (nopRecorder) RecordParseOutcome(string, string) {}
func (nopRecorder) RecordToolExecution(string, string, bool) {
}
func (nopRecorder) RecordReflection(string, bool) {}
func (nopRecorder) RecordTick(string, bool)       {}

// Persister is the durable surface the step loop flushes to. A nil
// persister keeps the run purely in memory.
type Persister interface {
	UpsertAgent(a *persistence.AgentRow) error
	UpsertPlans(agentID string, plans []*persistence.PlanRow) error
	InsertMemory(m *persistence.MemoryRow) error
}

// Agent is one inhabitant of the world. All of its mutable state is owned by
// its own tick loop; nothing here is touched by other agents directly.
type Agent struct {
	id         uuid.UUID
	FullName   string
	PublicBio  string
	PrivateBio string
	Directives []string

	locationID       uuid.UUID
	allowedLocations []uuid.UUID

	memories *memory.Store
	ranker   *memory.Ranker
	plans    []*SinglePlan

	completer oracle.Completer
	w         *world.World
	tracker   *conversation.Tracker
	provider  *tools.Provider
	parser    *Parser
	roster    *Roster
	persister Persister
	recorder  Recorder
	documents tools.DocumentStore
	search    tools.SearchProvider
	humans    tools.AgentResolver
	logger    *logx.Logger
	cfg       Config

	lastCheckedEvents time.Time
	lastReflection    time.Time

	recentActivity string
	lastSummarized time.Time
}

// Params collects the collaborators an agent needs. World, Tracker, and
// Completer are required; the rest may be nil.
type Params struct {
	FullName         string
	PublicBio        string
	PrivateBio       string
	Directives       []string
	LocationID       uuid.UUID
	AllowedLocations []uuid.UUID
	AuthorizedTools  []string

	World     *world.World
	Tracker   *conversation.Tracker
	Completer oracle.Completer
	Embedder  memory.Embedder
	Persister Persister
	Recorder  Recorder
	Documents tools.DocumentStore
	Search    tools.SearchProvider
	Humans    tools.AgentResolver

	Config Config
	Color  logx.Color
}

// New creates an agent. The parser is wired later, when the roster knows
// every participant's name.
func New(p Params) *Agent {
	return newAgent(p, uuid.New())
}

func newAgent(p Params, id uuid.UUID) *Agent {
	store := memory.NewStore(id)

	recorder := p.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}
	cfg := p.Config
	if cfg.MaxPlanIterations <= 0 {
		cfg = DefaultConfig()
	}

	a := &Agent{
		id:                id,
		FullName:          p.FullName,
		PublicBio:         p.PublicBio,
		PrivateBio:        p.PrivateBio,
		Directives:        p.Directives,
		locationID:        p.LocationID,
		allowedLocations:  p.AllowedLocations,
		memories:          store,
		ranker:            memory.NewRanker(store, p.Embedder),
		completer:         p.Completer,
		w:                 p.World,
		tracker:           p.Tracker,
		provider:          tools.NewProvider(p.AuthorizedTools),
		persister:         p.Persister,
		recorder:          recorder,
		documents:         p.Documents,
		search:            p.Search,
		humans:            p.Humans,
		logger:            logx.NewColoredLogger(p.FullName, p.Color),
		cfg:               cfg,
		lastCheckedEvents: time.Now(),
		lastReflection:    time.Now(),
	}
	if loc, ok := p.World.Directory.ByID(p.LocationID); ok {
		loc.Enter(id)
	}
	// Seed the agent row up front; memories written through before the
	// first end-of-tick flush foreign-key it.
	if a.persister != nil {
		if err := a.persister.UpsertAgent(a.agentRow()); err != nil {
			a.logger.Warn("seed persistence failed: %v", err)
		}
	}
	return a
}

// ID implements world.Stepper.
func (a *Agent) ID() uuid.UUID { return a.id }

// Name implements world.Stepper.
func (a *Agent) Name() string { return a.FullName }

// LocationID returns where the agent currently is.
func (a *Agent) LocationID() uuid.UUID { return a.locationID }

// Plans returns the current plan queue. Index 0 executes first.
func (a *Agent) Plans() []*SinglePlan { return a.plans }

// Memories exposes the agent's memory store.
func (a *Agent) Memories() *memory.Store { return a.memories }

// MoveTo relocates the agent and announces the move as a world event.
func (a *Agent) MoveTo(locationID uuid.UUID) {
	if locationID == a.locationID {
		return
	}
	if from, ok := a.w.Directory.ByID(a.locationID); ok {
		from.Leave(a.id)
	}
	to, ok := a.w.Directory.ByID(locationID)
	if !ok {
		return
	}
	to.Enter(a.id)
	a.locationID = locationID
	a.w.Log.Append(world.NewEvent(a.FullName+" arrived at "+to.Name, locationID))
}

// allowedLocationNames resolves the agent's allowed-location set to names
// for prompts and validation. An empty set means everywhere.
func (a *Agent) allowedLocationNames() []string {
	if len(a.allowedLocations) == 0 {
		return a.w.Directory.Names()
	}
	var names []string
	for _, id := range a.allowedLocations {
		if loc, ok := a.w.Directory.ByID(id); ok {
			names = append(names, loc.Name)
		}
	}
	return names
}

func (a *Agent) locationAllowed(name string) (uuid.UUID, bool) {
	loc, ok := a.w.Directory.ByName(name)
	if !ok {
		return uuid.Nil, false
	}
	if len(a.allowedLocations) == 0 {
		return loc.ID, true
	}
	for _, id := range a.allowedLocations {
		if id == loc.ID {
			return loc.ID, true
		}
	}
	return uuid.Nil, false
}

// Roster knows every agent in a run by name. It implements
// tools.AgentResolver and feeds the parser's participant heuristic.
type Roster struct {
	mu     sync.RWMutex
	agents map[string]*Agent // lowercased name -> agent
	order  []string
}

// NewRoster creates an empty roster.
func NewRoster() *Roster {
	return &Roster{agents: make(map[string]*Agent)}
}

// Add registers an agent and rewires its parser with the updated
// participant list. Call once per agent at seed time, before the
// scheduler starts.
func (r *Roster) Add(a *Agent) {
	r.mu.Lock()
	r.agents[strings.ToLower(a.FullName)] = a
	r.order = append(r.order, a.FullName)
	r.mu.Unlock()

	a.roster = r
	for _, other := range r.All() {
		other.rebuildParser()
	}
}

// ResolveAgent implements tools.AgentResolver.
func (r *Roster) ResolveAgent(name string) (uuid.UUID, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return uuid.Nil, "", false
	}
	return a.id, a.FullName, true
}

// AgentNames implements tools.AgentResolver.
func (r *Roster) AgentNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// All returns every registered agent.
func (r *Roster) All() []*Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Agent, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.agents[strings.ToLower(name)])
	}
	return out
}

func (a *Agent) rebuildParser() {
	var toolNames []string
	for _, t := range a.provider.List() {
		toolNames = append(toolNames, t.Name())
	}
	var participants []string
	if a.roster != nil {
		for _, name := range a.roster.AgentNames() {
			if name != a.FullName {
				participants = append(participants, name)
			}
		}
	}
	if a.humans != nil {
		participants = append(participants, a.humans.AgentNames()...)
	}
	a.parser = NewParser(toolNames, participants)
}

// toolContext assembles the per-tick context handed to tools.
func (a *Agent) toolContext() *tools.Context {
	return &tools.Context{
		AgentID:    a.id,
		AgentName:  a.FullName,
		LocationID: a.locationID,
		World:      a.w,
		Tracker:    a.tracker,
		Agents:     a.roster,
		Humans:     a.humans,
		Documents:  a.documents,
		Search:     a.search,
	}
}
