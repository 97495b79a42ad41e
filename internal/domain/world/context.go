package world

import (
	"sort"
	"sync"

	"github.com/andrescamacho/colonysim/internal/domain/agent"
	"github.com/andrescamacho/colonysim/internal/domain/event"
	"github.com/andrescamacho/colonysim/internal/domain/settlement"
	"github.com/andrescamacho/colonysim/internal/domain/shared"
)

// Window is a millisol range within a sol, [Start, End)
type Window struct {
	Start float64
	End   float64
}

// Contains reports whether the millisol falls inside the window
func (w Window) Contains(millisol float64) bool {
	return millisol >= w.Start && millisol < w.End
}

// Tuning holds the numeric knobs scorers, tasks and missions read
type Tuning struct {
	AccidentBaseChance float64 // probability per millisol of work at skill 0 and full wear
	WorkPerMeal        float64
	CookSessionWork    float64 // cooking work one cook task performs before ending
	MealWindows        []Window
	RelaxDuration      float64
	WorkoutDuration    float64
	LoadingChanceMin   float64
	LoadingChanceMax   float64
	ConsumableMargin   float64
	MaxPhaseChain      int
	ExperiencePerWork  float64
}

// DefaultTuning returns the defaults used when configuration leaves a knob unset
func DefaultTuning() Tuning {
	return Tuning{
		AccidentBaseChance: 0.001,
		WorkPerMeal:        settlement.DefaultWorkPerMeal,
		CookSessionWork:    100,
		MealWindows: []Window{
			{Start: 200, End: 350},
			{Start: 450, End: 600},
			{Start: 700, End: 850},
		},
		RelaxDuration:     50,
		WorkoutDuration:   40,
		LoadingChanceMin:  0.5,
		LoadingChanceMax:  0.75,
		ConsumableMargin:  1.5,
		MaxPhaseChain:     16,
		ExperiencePerWork: 0.1,
	}
}

// IsMealTime reports whether any meal window is open at the millisol
func (t Tuning) IsMealTime(millisol float64) bool {
	for _, w := range t.MealWindows {
		if w.Contains(millisol) {
			return true
		}
	}
	return false
}

// Context carries everything scorers, tasks and missions need. It is built once
// at startup and passed by reference.
type Context struct {
	Clock       shared.SimClock
	Settlements *settlement.Registry
	Actors      *Actors
	Rand        shared.RandomSource
	Logger      shared.Logger
	Events      *event.Hub
	Tuning      Tuning
}

// NewContext builds a context with empty registries. Nil collaborators get defaults.
func NewContext(clock shared.SimClock, rng shared.RandomSource, logger shared.Logger) *Context {
	if clock == nil {
		clock = shared.NewMasterClock(1, 0)
	}
	if rng == nil {
		rng = shared.NewSeededRandom(1)
	}
	if logger == nil {
		logger = shared.NoOpLogger{}
	}
	return &Context{
		Clock:       clock,
		Settlements: settlement.NewRegistry(),
		Actors:      NewActors(),
		Rand:        rng,
		Logger:      logger,
		Events:      event.NewHub(event.DefaultQueueCapacity),
		Tuning:      DefaultTuning(),
	}
}

// Publish records an event through the named producer queue, stamping the current time
func (c *Context) Publish(producer string, e event.Event) {
	e.Time = c.Clock.Now()
	c.Events.Producer(producer).Publish(e)
}

// Actors is the registry of every person and robot
type Actors struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]agent.Actor
}

func NewActors() *Actors {
	return &Actors{byID: make(map[string]agent.Actor)}
}

// Add registers an actor; re-adding the same ID replaces the entry in place
func (a *Actors) Add(actor agent.Actor) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.byID[actor.ID()]; !ok {
		a.order = append(a.order, actor.ID())
	}
	a.byID[actor.ID()] = actor
}

func (a *Actors) Get(id string) (agent.Actor, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	actor, ok := a.byID[id]
	return actor, ok
}

// All returns every actor in registration order
func (a *Actors) All() []agent.Actor {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]agent.Actor, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.byID[id])
	}
	return out
}

// InSettlement returns actors associated with a settlement, in registration order
func (a *Actors) InSettlement(settlementID string) []agent.Actor {
	var out []agent.Actor
	for _, actor := range a.All() {
		if actor.SettlementID() == settlementID {
			out = append(out, actor)
		}
	}
	return out
}

// People returns the persons associated with a settlement
func (a *Actors) People(settlementID string) []*agent.Person {
	var out []*agent.Person
	for _, actor := range a.InSettlement(settlementID) {
		if p, ok := actor.(*agent.Person); ok {
			out = append(out, p)
		}
	}
	return out
}

// Count returns the number of registered actors
func (a *Actors) Count() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.order)
}

// IDs returns actor IDs sorted lexically
func (a *Actors) IDs() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	ids := make([]string, len(a.order))
	copy(ids, a.order)
	sort.Strings(ids)
	return ids
}
