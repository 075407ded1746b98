package world

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Location is a named place agents occupy. Occupancy determines which
// agents witness an event.
type Location struct {
	ID          uuid.UUID
	Name        string
	Description string

	mu        sync.Mutex
	occupants map[uuid.UUID]struct{}
}

// NewLocation creates an empty location.
func NewLocation(name, description string) *Location {
	return &Location{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		occupants:   make(map[uuid.UUID]struct{}),
	}
}

// Enter adds an agent to the location.
func (l *Location) Enter(agentID uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.occupants[agentID] = struct{}{}
}

// Leave removes an agent from the location.
func (l *Location) Leave(agentID uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.occupants, agentID)
}

// Occupants returns a snapshot of the agent ids currently present.
func (l *Location) Occupants() []uuid.UUID {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(l.occupants))
	for id := range l.occupants {
		ids = append(ids, id)
	}
	return ids
}

// Contains reports whether an agent is present.
func (l *Location) Contains(agentID uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.occupants[agentID]
	return ok
}

// Directory maps location names to locations, case-insensitively.
type Directory struct {
	byID   map[uuid.UUID]*Location
	byName map[string]*Location
}

// NewDirectory builds a directory from a fixed set of locations. The set is
// fixed for the lifetime of a run.
func NewDirectory(locations []*Location) *Directory {
	d := &Directory{
		byID:   make(map[uuid.UUID]*Location, len(locations)),
		byName: make(map[string]*Location, len(locations)),
	}
	for _, loc := range locations {
		d.byID[loc.ID] = loc
		d.byName[strings.ToLower(strings.TrimSpace(loc.Name))] = loc
	}
	return d
}

// ByID looks up a location by id.
func (d *Directory) ByID(id uuid.UUID) (*Location, bool) {
	loc, ok := d.byID[id]
	return loc, ok
}

// ByName looks up a location by name, ignoring case and surrounding space.
func (d *Directory) ByName(name string) (*Location, bool) {
	loc, ok := d.byName[strings.ToLower(strings.TrimSpace(name))]
	return loc, ok
}

// Names returns all location names.
func (d *Directory) Names() []string {
	names := make([]string, 0, len(d.byName))
	for _, loc := range d.byID {
		names = append(names, loc.Name)
	}
	return names
}
