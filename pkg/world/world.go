package world

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"simworld/pkg/logx"
)

// Stepper is one schedulable inhabitant of the world. The scheduler knows
// nothing about agents beyond this.
type Stepper interface {
	ID() uuid.UUID
	Name() string
	Step(ctx context.Context) error
}

// World ties together the shared state of a run: the location directory and
// the event log. It is constructed once at seed time and passed down
// explicitly to everything that needs it.
type World struct {
	Name      string
	Directory *Directory
	Log       *Log
}

// New creates a world over the given locations. archive may be nil.
func New(name string, locations []*Location, archive Archiver) *World {
	dir := NewDirectory(locations)
	return &World{
		Name:      name,
		Directory: dir,
		Log:       NewLog(dir, archive),
	}
}

// Scheduler drives independent tick loops, one goroutine per stepper. Ticks
// are jittered so agents do not hammer the oracle in lockstep.
type Scheduler struct {
	tickInterval time.Duration
	logger       *logx.Logger

	mu       sync.Mutex
	steppers []Stepper
	wg       sync.WaitGroup
}

// NewScheduler creates a scheduler with the given base tick interval.
func NewScheduler(tickInterval time.Duration) *Scheduler {
	return &Scheduler{
		tickInterval: tickInterval,
		logger:       logx.NewLogger("scheduler"),
	}
}

// Add registers a stepper. Must be called before Run.
func (s *Scheduler) Add(st Stepper) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steppers = append(s.steppers, st)
}

// Run ticks every registered stepper until ctx is cancelled, then waits for
// in-flight ticks to finish. A failed tick is logged and the loop continues;
// one inhabitant's trouble never halts the world.
func (s *Scheduler) Run(ctx context.Context) {
	s.mu.Lock()
	steppers := make([]Stepper, len(s.steppers))
	copy(steppers, s.steppers)
	s.mu.Unlock()

	for _, st := range steppers {
		s.wg.Add(1)
		go func(st Stepper) {
			defer s.wg.Done()
			s.loop(ctx, st)
		}(st)
	}
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, st Stepper) {
	// Stagger startup so agents do not all call the oracle at once.
	select {
	case <-ctx.Done():
		return
	case <-time.After(s.jitter()):
	}

	for {
		if err := st.Step(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("tick failed for %s: %v", st.Name(), err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.tickInterval + s.jitter()):
		}
	}
}

func (s *Scheduler) jitter() time.Duration {
	if s.tickInterval <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(s.tickInterval) / 2)) //nolint:gosec // scheduling jitter
}
