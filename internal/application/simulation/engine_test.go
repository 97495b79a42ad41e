package simulation_test

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/colonysim/internal/application/simulation"
	"github.com/andrescamacho/colonysim/internal/domain/agent"
	"github.com/andrescamacho/colonysim/internal/domain/event"
	"github.com/andrescamacho/colonysim/internal/domain/resupply"
	"github.com/andrescamacho/colonysim/internal/domain/settlement"
	"github.com/andrescamacho/colonysim/internal/domain/shared"
	"github.com/andrescamacho/colonysim/internal/domain/task"
	"github.com/andrescamacho/colonysim/internal/domain/world"
)

type memoryCheckpoints struct {
	mu    sync.Mutex
	saved []*simulation.Checkpoint
}

func (m *memoryCheckpoints) Save(_ context.Context, cp *simulation.Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, cp)
	return nil
}

func (m *memoryCheckpoints) Latest(_ context.Context, runID string) (*simulation.Checkpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.saved) - 1; i >= 0; i-- {
		if m.saved[i].RunID == runID {
			return m.saved[i], nil
		}
	}
	return nil, nil
}

type memoryEventLog struct {
	events []event.Event
}

func (m *memoryEventLog) Append(_ context.Context, _ string, events []event.Event) error {
	m.events = append(m.events, events...)
	return nil
}

type countingMetrics struct {
	ticks int
}

func (c *countingMetrics) RecordTick(*simulation.TickReport, []event.Event, time.Duration) {
	c.ticks++
}

// chores is a meta-task that always scores 1 and builds a task finishing after work millisols
func chores(work float64) *task.MetaTask {
	return &task.MetaTask{
		Name:  "Chores",
		Score: func(*world.Context, agent.Actor) float64 { return 1 },
		New: func(ctx *world.Context, a agent.Actor) task.Work {
			tk := task.NewTask(ctx, a, "Chores")
			done := 0.0
			tk.AddPhase("SWEEPING", func(budget float64) task.Outcome {
				use := math.Min(budget, work-done)
				done += use
				tk.SetCounter("swept", done)
				if done >= work {
					tk.Complete("floor is clean")
				}
				return task.Suspend(use)
			})
			_ = tk.SetPhase("SWEEPING")
			return tk
		},
	}
}

type fixture struct {
	ctx   *world.Context
	clock *shared.MasterClock
	home  *settlement.Settlement
}

func newFixture(t *testing.T, millisol float64) *fixture {
	t.Helper()
	clock := shared.NewMasterClock(1, millisol)
	ctx := world.NewContext(clock, shared.NewFixedRandom(0), nil)
	ctx.Tuning.AccidentBaseChance = 0
	home := settlement.NewSettlement(settlement.Params{ID: "s1", Name: "Alpha Base", GeneralCapacity: 1000})
	require.NoError(t, ctx.Settlements.Add(home))
	return &fixture{ctx: ctx, clock: clock, home: home}
}

func (f *fixture) settler(id, settlementID string) *agent.Person {
	p := agent.NewPerson(id, "Settler "+id, agent.GenderFemale, settlementID)
	f.ctx.Actors.Add(p)
	if s, ok := f.ctx.Settlements.Get(settlementID); ok {
		s.AddResident(id)
	}
	return p
}

func (f *fixture) engine(cfg simulation.Config, opts simulation.Options) *simulation.Engine {
	if cfg.TickMillisols == 0 {
		cfg.TickMillisols = 10
	}
	if opts.Selector == nil {
		opts.Selector = task.NewSelector(task.NewRegistry(chores(15)))
	}
	return simulation.NewEngine(f.ctx, f.clock, cfg, opts)
}

func TestTick_AdvancesClockAndAssignsWork(t *testing.T) {
	f := newFixture(t, 100)
	p := f.settler("p1", "s1")
	e := f.engine(simulation.Config{}, simulation.Options{})

	report, err := e.Tick(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(1), report.Tick)
	assert.InDelta(t, 110, report.Time.Millisol, 1e-9)
	assert.False(t, report.NewSol)
	assert.Equal(t, 1, report.ActorsTicked)
	assert.Equal(t, 1, report.TasksStarted)
	assert.Equal(t, 1, report.ActiveTasks)
	require.NotNil(t, p.CurrentTask())
	assert.Equal(t, "Chores", p.CurrentTask().Name())
	assert.Equal(t, uint64(1), e.TickCount())
}

func TestTick_ReselectsOnlyAfterWorkEnds(t *testing.T) {
	f := newFixture(t, 100)
	p := f.settler("p1", "s1")
	e := f.engine(simulation.Config{}, simulation.Options{})
	ctx := context.Background()

	_, err := e.Tick(ctx)
	require.NoError(t, err)
	first := p.CurrentTask().(task.Work)

	report, err := e.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.TasksStarted)
	assert.True(t, first.Ended())
	assert.Equal(t, "floor is clean", first.EndReason())

	report, err = e.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.TasksStarted)
	second := p.CurrentTask().(task.Work)
	assert.NotEqual(t, first.ID(), second.ID())
}

func TestTick_ZeroWeightsHandOutIdle(t *testing.T) {
	f := newFixture(t, 100)
	p := f.settler("p1", "s1")
	e := f.engine(simulation.Config{}, simulation.Options{Selector: task.NewSelector(task.NewRegistry())})

	_, err := e.Tick(context.Background())
	require.NoError(t, err)

	require.NotNil(t, p.CurrentTask())
	assert.Equal(t, task.IdleName, p.CurrentTask().Name())
}

func TestTick_MissionMembersAreLeftToTheirMission(t *testing.T) {
	f := newFixture(t, 100)
	p := f.settler("p1", "s1")
	require.NoError(t, p.JoinMission("m-1"))
	e := f.engine(simulation.Config{}, simulation.Options{})

	report, err := e.Tick(context.Background())
	require.NoError(t, err)

	assert.Nil(t, p.CurrentTask())
	assert.Equal(t, 0, report.ActorsTicked)
	assert.Greater(t, p.Condition().Hunger(), 0.0)
}

func TestTick_NewSolIsReported(t *testing.T) {
	f := newFixture(t, 995)
	e := f.engine(simulation.Config{}, simulation.Options{})

	report, err := e.Tick(context.Background())
	require.NoError(t, err)

	assert.True(t, report.NewSol)
	assert.Equal(t, 2, report.Time.Sol)
	assert.InDelta(t, 5, report.Time.Millisol, 1e-9)
}

func TestTick_InvariantViolationHaltsTheRun(t *testing.T) {
	f := newFixture(t, 100)
	f.settler("p1", "s1")
	broken := &task.MetaTask{
		Name:  "Broken",
		Score: func(*world.Context, agent.Actor) float64 { return 1 },
		New: func(ctx *world.Context, a agent.Actor) task.Work {
			return task.NewTask(ctx, a, "Broken")
		},
	}
	e := f.engine(simulation.Config{}, simulation.Options{Selector: task.NewSelector(task.NewRegistry(broken))})
	ctx := context.Background()

	_, err := e.Tick(ctx)
	require.Error(t, err)
	assert.True(t, shared.IsInvariantViolation(err))
	assert.Error(t, e.Halted())

	_, err = e.Tick(ctx)
	assert.ErrorIs(t, err, simulation.ErrHalted)
	assert.Equal(t, uint64(0), e.TickCount())
}

func TestTick_DeliversDueResupplyOnce(t *testing.T) {
	f := newFixture(t, 100)
	e := f.engine(simulation.Config{}, simulation.Options{})
	require.NoError(t, e.ScheduleResupply(&resupply.Resupply{
		ID:           "r1",
		SettlementID: "s1",
		ArrivalTime:  shared.MarsTime{Sol: 1, Millisol: 115},
		Resources:    map[settlement.ResourceType]float64{settlement.ResourceWater: 40},
	}))
	ctx := context.Background()

	report, err := e.Tick(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Resupplies)

	report, err = e.Tick(ctx)
	require.NoError(t, err)
	require.Len(t, report.Resupplies, 1)
	assert.Equal(t, "r1", report.Resupplies[0].ResupplyID)
	assert.InDelta(t, 40, f.home.Inventory().Amount(settlement.ResourceWater), 1e-9)

	report, err = e.Tick(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Resupplies)
	assert.InDelta(t, 40, f.home.Inventory().Amount(settlement.ResourceWater), 1e-9)
}

func TestTick_RejectedResupplyIsNotRetried(t *testing.T) {
	f := newFixture(t, 100)
	e := f.engine(simulation.Config{}, simulation.Options{})
	r := &resupply.Resupply{
		ID:           "r1",
		SettlementID: "s1",
		ArrivalTime:  shared.MarsTime{Sol: 1, Millisol: 100},
		Buildings: []resupply.BuildingTemplate{{
			ID: "h1", Type: "Hallway", Connector: true, Endpoints: [2]string{"nowhere", "nothing"},
		}},
	}
	require.NoError(t, e.ScheduleResupply(r))

	reports, err := e.Run(context.Background(), 3)
	require.NoError(t, err)

	for _, report := range reports {
		assert.Empty(t, report.Resupplies)
	}
	assert.False(t, r.IsDelivered())
	assert.Empty(t, f.home.Buildings())
}

func TestScheduleResupply_UnknownSettlement(t *testing.T) {
	f := newFixture(t, 100)
	e := f.engine(simulation.Config{}, simulation.Options{})

	err := e.ScheduleResupply(&resupply.Resupply{ID: "r1", SettlementID: "nowhere"})

	var verr *shared.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Empty(t, e.Resupplies().All())
}

func TestTick_CheckpointsEveryInterval(t *testing.T) {
	f := newFixture(t, 100)
	f.settler("p1", "s1")
	repo := &memoryCheckpoints{}
	e := f.engine(
		simulation.Config{RunID: "run-1", CheckpointInterval: 2},
		simulation.Options{Checkpoints: repo, Selector: task.NewSelector(task.NewRegistry(chores(100)))},
	)

	reports, err := e.Run(context.Background(), 4)
	require.NoError(t, err)

	require.Len(t, repo.saved, 2)
	assert.Equal(t, uint64(2), repo.saved[0].Tick)
	assert.Equal(t, uint64(4), repo.saved[1].Tick)
	assert.False(t, reports[0].Checkpointed)
	assert.True(t, reports[1].Checkpointed)

	snap, ok := repo.saved[0].Task("p1")
	require.True(t, ok)
	assert.Equal(t, "Chores", snap.Name)
	assert.Equal(t, task.Phase("SWEEPING"), snap.Phase)
	assert.InDelta(t, 20, snap.Counters["swept"], 1e-9)
	assert.Equal(t, "run-1", repo.saved[1].RunID)
}

func TestTick_PersistsEventsAndRecordsMetrics(t *testing.T) {
	f := newFixture(t, 100)
	f.settler("p1", "s1")
	log := &memoryEventLog{}
	metrics := &countingMetrics{}
	e := f.engine(simulation.Config{}, simulation.Options{EventLog: log, Metrics: metrics})

	report, err := e.Tick(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, log.events)
	assert.Equal(t, report.Events, len(log.events))
	assert.Equal(t, event.TypeTaskStarted, log.events[0].Type)
	assert.Equal(t, "p1", log.events[0].Actor)
	assert.Equal(t, 1, metrics.ticks)
	assert.Empty(t, f.ctx.Events.DrainAll())
}

func TestTick_ParallelSettlementsDriveEveryActor(t *testing.T) {
	f := newFixture(t, 100)
	second := settlement.NewSettlement(settlement.Params{ID: "s2", Name: "Beta Outpost", GeneralCapacity: 1000})
	require.NoError(t, f.ctx.Settlements.Add(second))
	a, b, c := f.settler("p1", "s1"), f.settler("p2", "s2"), f.settler("p3", "s2")
	e := f.engine(simulation.Config{ParallelSettlements: true, MaxParallel: 2}, simulation.Options{})

	report, err := e.Tick(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.ActorsTicked)
	assert.Equal(t, 3, report.TasksStarted)
	for _, p := range []*agent.Person{a, b, c} {
		require.NotNil(t, p.CurrentTask(), p.ID())
	}
}

func TestRun_StopsOnCancellation(t *testing.T) {
	f := newFixture(t, 100)
	e := f.engine(simulation.Config{}, simulation.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reports, err := e.Run(ctx, 5)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, reports)
}
