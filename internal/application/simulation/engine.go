package simulation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/andrescamacho/colonysim/internal/domain/agent"
	"github.com/andrescamacho/colonysim/internal/domain/event"
	"github.com/andrescamacho/colonysim/internal/domain/mission"
	"github.com/andrescamacho/colonysim/internal/domain/resupply"
	"github.com/andrescamacho/colonysim/internal/domain/shared"
	"github.com/andrescamacho/colonysim/internal/domain/task"
	"github.com/andrescamacho/colonysim/internal/domain/world"
)

// DefaultTickMillisols is the time budget of one tick when none is configured
const DefaultTickMillisols = 1.0

// ErrHalted is returned by Tick once an invariant violation has stopped the run
var ErrHalted = errors.New("simulation halted")

// Config tunes the tick loop
type Config struct {
	RunID               string
	TickMillisols       float64
	ParallelSettlements bool
	MaxParallel         int
	CheckpointInterval  int // ticks between checkpoints, 0 disables
}

// Options wires the engine's collaborators. Nil ports are skipped.
type Options struct {
	Selector    *task.Selector
	Missions    *mission.Registry
	Resupplies  *resupply.Schedule
	Placer      resupply.Placer
	Delivery    resupply.DriverOptions
	Checkpoints CheckpointRepository
	EventLog    EventLogRepository
	Metrics     MetricsRecorder
	WallClock   shared.Clock
}

// TickReport summarises one tick
type TickReport struct {
	Tick           uint64
	Time           shared.MarsTime
	NewSol         bool
	ActorsTicked   int
	TasksStarted   int
	ActiveTasks    int
	MissionsActive int
	MissionsEnded  int
	Resupplies     []*resupply.Report
	Events         int
	Dropped        uint64
	Checkpointed   bool
}

// Engine advances the simulation one tick at a time.
//
// Each tick:
// - advances the master clock by the tick budget, resetting kitchens on a new sol
// - lands resupplies whose arrival time has passed
// - drives every actor outside a mission: selection when idle, then Perform
// - drives every active mission
// - drains the event hub into the event log and records metrics
// - writes a checkpoint every CheckpointInterval ticks
//
// An invariant violation anywhere halts the engine; later ticks return ErrHalted.
type Engine struct {
	mu sync.Mutex

	ctx        *world.Context
	clock      *shared.MasterClock
	cfg        Config
	selector   *task.Selector
	missions   *mission.Registry
	resupplies *resupply.Schedule
	driver     *resupply.DeliveryDriver
	rejected   map[string]bool

	checkpoints CheckpointRepository
	eventLog    EventLogRepository
	metrics     MetricsRecorder
	wallClock   shared.Clock

	tick   uint64
	halted error
}

// NewEngine builds an engine around a world context. The clock must be the
// writer behind ctx.Clock.
func NewEngine(ctx *world.Context, clock *shared.MasterClock, cfg Config, opts Options) *Engine {
	if cfg.TickMillisols <= 0 {
		cfg.TickMillisols = DefaultTickMillisols
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = 4
	}
	if opts.Selector == nil {
		opts.Selector = task.NewSelector(nil)
	}
	if opts.Missions == nil {
		opts.Missions = mission.NewRegistry()
	}
	if opts.Resupplies == nil {
		opts.Resupplies = resupply.NewSchedule()
	}
	if opts.WallClock == nil {
		opts.WallClock = shared.NewRealClock()
	}
	return &Engine{
		ctx:         ctx,
		clock:       clock,
		cfg:         cfg,
		selector:    opts.Selector,
		missions:    opts.Missions,
		resupplies:  opts.Resupplies,
		driver:      resupply.NewDeliveryDriver(ctx, opts.Placer, opts.Delivery),
		rejected:    make(map[string]bool),
		checkpoints: opts.Checkpoints,
		eventLog:    opts.EventLog,
		metrics:     opts.Metrics,
		wallClock:   opts.WallClock,
	}
}

func (e *Engine) World() *world.Context          { return e.ctx }
func (e *Engine) Missions() *mission.Registry    { return e.missions }
func (e *Engine) Resupplies() *resupply.Schedule { return e.resupplies }
func (e *Engine) Config() Config                 { return e.cfg }

// TickCount returns the number of completed ticks
func (e *Engine) TickCount() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tick
}

// Halted returns the error that stopped the engine, or nil
func (e *Engine) Halted() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.halted
}

// Exclusive runs f between ticks so commands never race the tick loop
func (e *Engine) Exclusive(f func(ctx *world.Context) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return f(e.ctx)
}

// AddMission registers a started mission so ticks drive it
func (e *Engine) AddMission(m *mission.Mission) {
	e.missions.Add(m)
}

// ScheduleResupply queues a shipment for delivery at its arrival time
func (e *Engine) ScheduleResupply(r *resupply.Resupply) error {
	if _, ok := e.ctx.Settlements.Get(r.SettlementID); !ok {
		return shared.NewValidationError("settlementID", fmt.Sprintf("unknown settlement %q", r.SettlementID))
	}
	e.resupplies.Add(r)
	return nil
}

// Run performs n ticks, stopping early on cancellation or error
func (e *Engine) Run(ctx context.Context, n int) ([]*TickReport, error) {
	reports := make([]*TickReport, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		report, err := e.Tick(ctx)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// Tick advances the simulation by one budget
func (e *Engine) Tick(ctx context.Context) (*TickReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.halted != nil {
		return nil, fmt.Errorf("%w: %v", ErrHalted, e.halted)
	}

	start := e.wallClock.Now()
	budget := e.cfg.TickMillisols
	report := &TickReport{Tick: e.tick + 1}

	report.NewSol = e.clock.Advance(budget)
	report.Time = e.clock.Now()
	if report.NewSol {
		e.resetDay()
	}

	e.deliverResupplies(report)

	if err := e.tickActors(ctx, budget, report); err != nil {
		return nil, e.halt(err)
	}
	if err := e.tickMissions(budget, report); err != nil {
		return nil, e.halt(err)
	}

	events := e.ctx.Events.DrainAll()
	report.Events = len(events)
	report.Dropped = e.ctx.Events.Dropped()
	if e.eventLog != nil && len(events) > 0 {
		if err := e.eventLog.Append(ctx, e.cfg.RunID, events); err != nil {
			e.ctx.Logger.Log(shared.LevelWarn, "failed to persist events", map[string]interface{}{
				"tick":  report.Tick,
				"error": err.Error(),
			})
		}
	}

	e.tick = report.Tick
	if e.checkpoints != nil && e.cfg.CheckpointInterval > 0 && e.tick%uint64(e.cfg.CheckpointInterval) == 0 {
		if err := e.saveCheckpoint(ctx); err != nil {
			e.ctx.Logger.Log(shared.LevelWarn, "failed to save checkpoint", map[string]interface{}{
				"tick":  e.tick,
				"error": err.Error(),
			})
		} else {
			report.Checkpointed = true
			e.missions.Prune()
		}
	}

	if e.metrics != nil {
		e.metrics.RecordTick(report, events, e.wallClock.Now().Sub(start))
	}
	return report, nil
}

func (e *Engine) halt(err error) error {
	if shared.IsInvariantViolation(err) {
		e.halted = err
		e.ctx.Logger.Log(shared.LevelError, "simulation halted", map[string]interface{}{
			"tick":  e.tick + 1,
			"error": err.Error(),
		})
	}
	return err
}

func (e *Engine) resetDay() {
	for _, s := range e.ctx.Settlements.AllSettlements() {
		for _, b := range s.Buildings() {
			if k := b.Kitchen(); k != nil {
				k.ResetDay()
			}
		}
	}
}

func (e *Engine) deliverResupplies(report *TickReport) {
	for _, r := range e.resupplies.Due(report.Time) {
		if e.rejected[r.ID] {
			continue
		}
		delivered, err := e.driver.Apply(r)
		if err != nil {
			if !errors.Is(err, resupply.ErrAlreadyDelivered) {
				e.rejected[r.ID] = true
				e.ctx.Logger.Log(shared.LevelError, "resupply rejected", map[string]interface{}{
					"resupply": r.ID,
					"error":    err.Error(),
				})
			}
			continue
		}
		report.Resupplies = append(report.Resupplies, delivered)
	}
}

// tickActors drives every actor not on a mission. Actors are grouped by
// settlement; groups run concurrently when ParallelSettlements is set.
func (e *Engine) tickActors(ctx context.Context, budget float64, report *TickReport) error {
	groups, order := e.groupActors()

	var mu sync.Mutex
	run := func(actors []agent.Actor) error {
		ticked, started := 0, 0
		for _, a := range actors {
			ok, s, err := e.tickActor(a, budget)
			if err != nil {
				return err
			}
			if ok {
				ticked++
			}
			if s {
				started++
			}
		}
		mu.Lock()
		report.ActorsTicked += ticked
		report.TasksStarted += started
		mu.Unlock()
		return nil
	}

	if !e.cfg.ParallelSettlements || len(order) < 2 {
		for _, id := range order {
			if err := run(groups[id]); err != nil {
				return err
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.cfg.MaxParallel)
		for _, id := range order {
			actors := groups[id]
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				return run(actors)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	for _, a := range e.ctx.Actors.All() {
		if !agent.IsIdle(a) {
			report.ActiveTasks++
		}
	}
	return nil
}

func (e *Engine) groupActors() (map[string][]agent.Actor, []string) {
	groups := make(map[string][]agent.Actor)
	var order []string
	for _, a := range e.ctx.Actors.All() {
		id := a.SettlementID()
		if _, ok := groups[id]; !ok {
			order = append(order, id)
		}
		groups[id] = append(groups[id], a)
	}
	return groups, order
}

// tickActor reports whether the actor was driven and whether new work was selected
func (e *Engine) tickActor(a agent.Actor, budget float64) (bool, bool, error) {
	if !agent.IsAvailable(a) {
		return false, false, nil
	}
	a.Condition().Elapse(budget)

	// mission members are driven by their mission
	if a.MissionID() != "" {
		return false, false, nil
	}

	started := false
	w, _ := a.CurrentTask().(task.Work)
	if w == nil || w.Ended() {
		a.ClearTask()
		next, _ := e.selector.Select(e.ctx, a)
		started = true
		if next.Ended() {
			return true, started, nil
		}
		if err := a.AssignTask(next); err != nil {
			return true, started, fmt.Errorf("assign %s to %s: %w", next.Name(), a.ID(), err)
		}
		e.ctx.Publish(task.EventProducer, event.Event{
			Type:       event.TypeTaskStarted,
			Settlement: a.SettlementID(),
			Actor:      a.ID(),
			Message:    fmt.Sprintf("%s started %s", a.Name(), next.Name()),
			Data:       map[string]interface{}{"task": next.Name(), "task_id": next.ID()},
		})
		w = next
	}

	if _, err := w.Perform(budget); err != nil {
		return true, started, fmt.Errorf("actor %s task %s: %w", a.ID(), w.Name(), err)
	}
	return true, started, nil
}

func (e *Engine) tickMissions(budget float64, report *TickReport) error {
	for _, m := range e.missions.Active() {
		if err := m.Perform(budget); err != nil {
			return fmt.Errorf("mission %s: %w", m.ID(), err)
		}
		if m.IsDone() {
			report.MissionsEnded++
		} else {
			report.MissionsActive++
		}
	}
	return nil
}

// Snapshot captures the current task and mission state
func (e *Engine) Snapshot() *Checkpoint {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

func (e *Engine) snapshot() *Checkpoint {
	cp := &Checkpoint{
		RunID:     e.cfg.RunID,
		Tick:      e.tick,
		Time:      e.clock.Now(),
		CreatedAt: e.wallClock.Now(),
	}
	for _, a := range e.ctx.Actors.All() {
		w, ok := a.CurrentTask().(task.Work)
		if !ok || w == nil || w.Ended() {
			continue
		}
		cp.Tasks = append(cp.Tasks, w.Base().Snapshot())
	}
	for _, m := range e.missions.All() {
		cp.Missions = append(cp.Missions, m.Snapshot())
	}
	return cp
}

func (e *Engine) saveCheckpoint(ctx context.Context) error {
	cp := e.snapshot()
	if err := e.checkpoints.Save(ctx, cp); err != nil {
		return fmt.Errorf("save checkpoint at tick %d: %w", cp.Tick, err)
	}
	e.ctx.Logger.Log(shared.LevelDebug, "checkpoint saved", map[string]interface{}{
		"tick":     cp.Tick,
		"tasks":    len(cp.Tasks),
		"missions": len(cp.Missions),
	})
	return nil
}
