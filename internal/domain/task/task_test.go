package task_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/colonysim/internal/domain/agent"
	"github.com/andrescamacho/colonysim/internal/domain/settlement"
	"github.com/andrescamacho/colonysim/internal/domain/shared"
	"github.com/andrescamacho/colonysim/internal/domain/task"
	"github.com/andrescamacho/colonysim/internal/domain/world"
)

// newWorld builds a context at the given millisol of sol 1 with a single
// empty settlement "s1" and accidents disabled
func newWorld(t *testing.T, millisol float64, rng shared.RandomSource) (*world.Context, *settlement.Settlement) {
	t.Helper()
	ctx := world.NewContext(shared.NewMasterClock(1, millisol), rng, nil)
	ctx.Tuning.AccidentBaseChance = 0
	s := settlement.NewSettlement(settlement.Params{ID: "s1", Name: "Alpha Base", GeneralCapacity: 10000})
	require.NoError(t, ctx.Settlements.Add(s))
	return ctx, s
}

func addKitchen(s *settlement.Settlement, id string, slots int) *settlement.Building {
	b := settlement.NewBuilding(settlement.BuildingParams{
		ID:           id,
		Name:         "Kitchen " + id,
		Type:         "Lander Hab",
		SettlementID: s.ID(),
		Functions:    map[settlement.Function]int{settlement.FunctionCooking: slots},
	})
	s.AddBuilding(b)
	return b
}

func chef(ctx *world.Context, id string) *agent.Person {
	p := agent.NewPerson(id, "Chef "+id, agent.GenderFemale, "s1")
	p.SetJob(agent.JobChef)
	p.Skills().SetLevel(agent.SkillCooking, 1)
	ctx.Actors.Add(p)
	return p
}

func stockBeans(s *settlement.Settlement, kg float64) {
	s.Inventory().Store(settlement.ResourceSoybean, kg)
	s.Inventory().Store(settlement.ResourceWater, kg)
}

// ============================================================================
// Task engine
// ============================================================================

func TestPerform_WithoutActivePhaseIsInvariantViolation(t *testing.T) {
	ctx, _ := newWorld(t, 250, nil)
	p := chef(ctx, "p1")
	tk := task.NewTask(ctx, p, "Unstarted")

	_, err := tk.Perform(10)

	require.Error(t, err)
	assert.True(t, shared.IsInvariantViolation(err))
}

func TestSetPhase_UndeclaredPhaseIsRejected(t *testing.T) {
	ctx, _ := newWorld(t, 250, nil)
	tk := task.NewTask(ctx, chef(ctx, "p1"), "Strict")

	err := tk.SetPhase("NOWHERE")

	assert.True(t, shared.IsInvariantViolation(err))
}

func TestPerform_ChainsPhasesWithinBudget(t *testing.T) {
	ctx, _ := newWorld(t, 250, nil)
	tk := task.NewTask(ctx, chef(ctx, "p1"), "Two Step")
	tk.AddPhase("FIRST", func(budget float64) task.Outcome { return task.Continue(2, "SECOND") })
	tk.AddPhase("SECOND", func(budget float64) task.Outcome { return task.Suspend(3) })
	require.NoError(t, tk.SetPhase("FIRST"))

	left, err := tk.Perform(10)

	require.NoError(t, err)
	assert.InDelta(t, 5.0, left, 1e-9)
	assert.Equal(t, task.Phase("SECOND"), tk.Phase())
	assert.InDelta(t, 5.0, tk.Effort(), 1e-9)
}

func TestPerform_ChainIsBounded(t *testing.T) {
	ctx, _ := newWorld(t, 250, nil)
	ctx.Tuning.MaxPhaseChain = 4
	tk := task.NewTask(ctx, chef(ctx, "p1"), "Ping Pong")
	calls := 0
	tk.AddPhase("PING", func(float64) task.Outcome { calls++; return task.Continue(0, "PONG") })
	tk.AddPhase("PONG", func(float64) task.Outcome { calls++; return task.Continue(0, "PING") })
	require.NoError(t, tk.SetPhase("PING"))

	left, err := tk.Perform(10)

	require.NoError(t, err)
	assert.Equal(t, 4, calls)
	assert.InDelta(t, 10.0, left, 1e-9)
}

func TestEnd_IsIdempotentAndRunsHooksOnce(t *testing.T) {
	ctx, _ := newWorld(t, 250, nil)
	tk := task.NewTask(ctx, chef(ctx, "p1"), "Hooked")
	var order []string
	tk.OnEnd(func() { order = append(order, "first") })
	tk.OnEnd(func() { order = append(order, "second") })

	tk.End("done")
	tk.End("again")

	assert.Equal(t, []string{"second", "first"}, order)
	assert.Equal(t, "done", tk.EndReason())
	assert.True(t, tk.Ended())
}

func TestComplete_ReinforcesPreference(t *testing.T) {
	ctx, _ := newWorld(t, 250, nil)
	p := chef(ctx, "p1")
	tk := task.NewTask(ctx, p, "Liked")

	tk.Complete("finished")

	assert.InDelta(t, 0.1, p.Preferences().Bonus("Liked"), 1e-9)
	assert.True(t, tk.Completed())
}

// ============================================================================
// Selection
// ============================================================================

func constantMeta(name string, score float64) *task.MetaTask {
	return &task.MetaTask{
		Name:  name,
		Score: func(*world.Context, agent.Actor) float64 { return score },
		New:   func(ctx *world.Context, a agent.Actor) task.Work { return task.NewIdle(ctx, a) },
	}
}

func TestSelect_AllZeroWeightsReturnsIdle(t *testing.T) {
	ctx, _ := newWorld(t, 100, nil)
	p := chef(ctx, "p1")
	sel := task.NewSelector(task.NewRegistry(constantMeta("A", 0), constantMeta("B", 0)))

	work, meta := sel.Select(ctx, p)

	assert.Nil(t, meta)
	assert.Equal(t, task.IdleName, work.Name())
}

func TestSelect_SingleNonZeroWeightIsAlwaysChosen(t *testing.T) {
	ctx, _ := newWorld(t, 100, shared.NewSeededRandom(42))
	p := chef(ctx, "p1")
	sel := task.NewSelector(task.NewRegistry(constantMeta("A", 0), constantMeta("B", 3), constantMeta("C", 0)))

	for i := 0; i < 50; i++ {
		_, meta := sel.Select(ctx, p)
		require.NotNil(t, meta)
		assert.Equal(t, "B", meta.Name)
	}
}

func TestSelect_WalksWeightsInRegistrationOrder(t *testing.T) {
	tests := []struct {
		name string
		draw float64
		want string
	}{
		{"low draw lands on first", 0.2, "A"},
		{"high draw lands on second", 0.3, "B"},
		{"top of range", 0.99, "B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := newWorld(t, 100, shared.NewFixedRandom(tt.draw))
			p := chef(ctx, "p1")
			sel := task.NewSelector(task.NewRegistry(constantMeta("A", 1), constantMeta("B", 3)))

			_, meta := sel.Select(ctx, p)

			require.NotNil(t, meta)
			assert.Equal(t, tt.want, meta.Name)
		})
	}
}

func TestSelect_HugeWeightsStayDrawable(t *testing.T) {
	assert.Equal(t, task.MaxWeight, task.Clamp(math.Inf(1)))
	assert.Zero(t, task.Clamp(-1))

	tests := []struct {
		name string
		draw float64
		want string
	}{
		{"low draw lands on first", 0.2, "A"},
		{"high draw lands on second", 0.8, "B"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := newWorld(t, 100, shared.NewFixedRandom(tt.draw))
			p := chef(ctx, "p1")
			sel := task.NewSelector(task.NewRegistry(constantMeta("A", 1e308), constantMeta("B", 1e308)))

			_, total := sel.Weights(ctx, p)
			_, meta := sel.Select(ctx, p)

			assert.InDelta(t, 2*task.MaxWeight, total, 1)
			require.NotNil(t, meta)
			assert.Equal(t, tt.want, meta.Name)
		})
	}
}

func TestDefaultScorers_AreNeverNegative(t *testing.T) {
	for _, millisol := range []float64{0, 250, 500, 900} {
		ctx, s := newWorld(t, millisol, nil)
		addKitchen(s, "k1", 2)
		stockBeans(s, 5)
		p := chef(ctx, "p1")
		s.AddResident(p.ID())
		r := agent.NewRobot("r1", "ChefBot 001", agent.RobotChefBot, "s1")
		p.Condition().AddStress(90)
		p.Condition().AddFatigue(900)

		for _, m := range task.DefaultRegistry().Metas() {
			for _, a := range []agent.Actor{p, r} {
				assert.GreaterOrEqual(t, m.Probability(ctx, a), 0.0, "%s at %v", m.Name, millisol)
			}
		}
	}
}

func TestProbability_JobFitAndFavorite(t *testing.T) {
	ctx, _ := newWorld(t, 100, nil)
	meta := constantMeta("Cook", 10)
	meta.Jobs = []agent.Job{agent.JobChef}
	meta.Activity = agent.ActivityCooking

	p := agent.NewPerson("p1", "Pat", agent.GenderMale, "s1")
	p.SetJob(agent.JobDriver)
	assert.InDelta(t, 5.0, meta.Probability(ctx, p), 1e-9)

	p.Preferences().SetFavoriteActivity(agent.ActivityCooking)
	assert.InDelta(t, 10.0, meta.Probability(ctx, p), 1e-9)
}

// ============================================================================
// Cook Meal
// ============================================================================

func TestCookMeal_NoIngredientsEndsImmediately(t *testing.T) {
	ctx, s := newWorld(t, 250, nil)
	k := addKitchen(s, "k1", 2)
	p := chef(ctx, "p1")

	cook := task.NewCookMeal(ctx, p)

	assert.True(t, cook.Ended())
	assert.Equal(t, task.ReasonNoIngredients, cook.EndReason())
	assert.Equal(t, task.Phase(""), cook.Phase())
	assert.Zero(t, cook.WorkDone())
	assert.Zero(t, k.OccupantCount(settlement.FunctionCooking))
}

func TestCookMeal_FailedPreconditions(t *testing.T) {
	tests := []struct {
		name     string
		millisol float64
		kitchen  bool
		want     string
	}{
		{"no kitchen", 250, false, task.ReasonNoKitchen},
		{"outside meal window", 400, true, task.ReasonNotMealTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, s := newWorld(t, tt.millisol, nil)
			if tt.kitchen {
				addKitchen(s, "k1", 2)
			}
			stockBeans(s, 5)

			cook := task.NewCookMeal(ctx, chef(ctx, "p1"))

			assert.True(t, cook.Ended())
			assert.Equal(t, tt.want, cook.EndReason())
		})
	}
}

func TestCookMeal_CompletesAfterSessionWork(t *testing.T) {
	ctx, s := newWorld(t, 250, nil)
	k := addKitchen(s, "k1", 2)
	stockBeans(s, 10)
	p := chef(ctx, "p1")

	cook := task.NewCookMeal(ctx, p)
	require.False(t, cook.Ended())
	assert.Equal(t, 1, k.OccupantCount(settlement.FunctionCooking))

	ticks := 0
	for !cook.Ended() && ticks < 100 {
		_, err := cook.Perform(10)
		require.NoError(t, err)
		ticks++
	}

	assert.Equal(t, 10, ticks)
	assert.Equal(t, task.ReasonCookingFinished, cook.EndReason())
	assert.InDelta(t, 100.0, cook.WorkDone(), 1e-9)
	assert.Equal(t, 5, cook.MealsCooked())
	assert.Equal(t, 5, k.Kitchen().MealCount())
	assert.InDelta(t, 10-5*0.3, s.Inventory().Amount(settlement.ResourceSoybean), 1e-9)
	assert.Zero(t, k.OccupantCount(settlement.FunctionCooking))
	assert.InDelta(t, 0.1, p.Preferences().Bonus(task.CookMealName), 1e-9)
}

func TestCookMeal_RunsOutOfIngredients(t *testing.T) {
	ctx, s := newWorld(t, 250, nil)
	addKitchen(s, "k1", 2)
	stockBeans(s, 0.3) // one serving

	cook := task.NewCookMeal(ctx, chef(ctx, "p1"))
	_, err := cook.Perform(50)

	require.NoError(t, err)
	assert.True(t, cook.Ended())
	assert.Equal(t, task.ReasonNoIngredients, cook.EndReason())
	assert.Equal(t, 1, cook.MealsCooked())
}

func TestCookMeal_SecondCookFindsKitchenFull(t *testing.T) {
	ctx, s := newWorld(t, 250, nil)
	addKitchen(s, "k1", 1)
	stockBeans(s, 10)

	first := task.NewCookMeal(ctx, chef(ctx, "p1"))
	second := task.NewCookMeal(ctx, chef(ctx, "p2"))

	assert.False(t, first.Ended())
	assert.True(t, second.Ended())
	assert.Equal(t, task.ReasonNoKitchen, second.EndReason())
}

func TestCookMeal_EndsWhenWindowCloses(t *testing.T) {
	clock := shared.NewMasterClock(1, 340)
	ctx := world.NewContext(clock, nil, nil)
	ctx.Tuning.AccidentBaseChance = 0
	s := settlement.NewSettlement(settlement.Params{ID: "s1", GeneralCapacity: 1000})
	require.NoError(t, ctx.Settlements.Add(s))
	addKitchen(s, "k1", 2)
	stockBeans(s, 10)

	cook := task.NewCookMeal(ctx, chef(ctx, "p1"))
	_, err := cook.Perform(5)
	require.NoError(t, err)
	clock.Advance(20)
	_, err = cook.Perform(5)

	require.NoError(t, err)
	assert.Equal(t, task.ReasonMealTimeOver, cook.EndReason())
}

// ============================================================================
// Relax and Workout
// ============================================================================

func TestRelax_CompletesAfterDuration(t *testing.T) {
	ctx, _ := newWorld(t, 100, nil)
	p := chef(ctx, "p1")
	p.Condition().AddStress(50)

	relax := task.NewRelax(ctx, p)
	_, err := relax.Perform(ctx.Tuning.RelaxDuration)

	require.NoError(t, err)
	assert.Equal(t, task.ReasonRelaxed, relax.EndReason())
	assert.Less(t, p.Condition().Stress(), 50.0)
}

func TestWorkout_RequiresGym(t *testing.T) {
	ctx, _ := newWorld(t, 100, nil)

	w := task.NewWorkout(ctx, chef(ctx, "p1"))

	assert.Equal(t, task.ReasonNoGym, w.EndReason())
}

// ============================================================================
// Vehicle tasks
// ============================================================================

func rover(s *settlement.Settlement, methane float64) *settlement.Vehicle {
	v := settlement.NewVehicle(settlement.VehicleParams{
		ID:            "v1",
		Name:          "Rover 1",
		Type:          settlement.VehicleExplorerRover,
		CargoCapacity: 1000,
		Range:         2000,
		Speed:         0.5,
		CrewCapacity:  2,
		FuelEconomy:   4,
	})
	s.AddVehicle(v)
	v.Inventory().Store(settlement.ResourceMethane, methane)
	return v
}

func TestWalkToVehicle_NeedsSuitWithoutGarage(t *testing.T) {
	ctx, s := newWorld(t, 100, nil)
	v := rover(s, 0)

	walk := task.NewWalkToVehicle(ctx, chef(ctx, "p1"), v, s)

	assert.Equal(t, task.ReasonNoSuit, walk.EndReason())
}

func TestWalkToVehicle_BoardsAndReturnsSuit(t *testing.T) {
	ctx, s := newWorld(t, 100, nil)
	v := rover(s, 0)
	s.AddEquipment("suit-1", "EVA Suit", settlement.EquipmentEVASuit)
	p := chef(ctx, "p1")

	walk := task.NewWalkToVehicle(ctx, p, v, s)
	require.False(t, walk.Ended())
	require.NotNil(t, walk.Suit())
	assert.True(t, walk.Suit().IsReserved())

	_, err := walk.Perform(20)

	require.NoError(t, err)
	assert.Equal(t, task.ReasonBoarded, walk.EndReason())
	assert.Equal(t, agent.SituationInVehicle, p.Situation())
	assert.Equal(t, "v1", p.VehicleID())
	assert.True(t, v.IsAboard(p.ID()))
	assert.False(t, walk.Suit().IsReserved())
}

func TestWalkToSettlement_ReturnsActorInside(t *testing.T) {
	ctx, s := newWorld(t, 100, nil)
	v := rover(s, 0)
	p := chef(ctx, "p1")
	require.NoError(t, v.Board(p.ID()))
	p.SetSituation(agent.SituationInVehicle)
	p.SetVehicleID(v.ID())

	walk := task.NewWalkToSettlement(ctx, p, v, s)
	_, err := walk.Perform(20)

	require.NoError(t, err)
	assert.Equal(t, task.ReasonWalkedInside, walk.EndReason())
	assert.Equal(t, agent.SituationInSettlement, p.Situation())
	assert.Empty(t, p.VehicleID())
	assert.False(t, v.IsAboard(p.ID()))
}

func loader(ctx *world.Context) *agent.Person {
	p := agent.NewPerson("l1", "Lee", agent.GenderMale, "s1")
	p.Skills().SetLevel(agent.SkillEVA, 1)
	ctx.Actors.Add(p)
	return p
}

func TestLoadVehicle_LoadsManifestAtRate(t *testing.T) {
	ctx, s := newWorld(t, 100, nil)
	v := rover(s, 0)
	s.Inventory().Store(settlement.ResourceOxygen, 100)
	m := settlement.NewManifest()
	m.Required[settlement.ResourceOxygen] = 50

	load := task.NewLoadVehicle(ctx, loader(ctx), v, s, m)
	_, err := load.Perform(1)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, v.Inventory().Amount(settlement.ResourceOxygen), 1e-9)
	assert.False(t, load.Ended())

	_, err = load.Perform(5)
	require.NoError(t, err)

	assert.Equal(t, task.ReasonLoaded, load.EndReason())
	assert.True(t, m.IsLoaded(v))
	assert.InDelta(t, 50.0, s.Inventory().Amount(settlement.ResourceOxygen), 1e-9)
}

func TestLoadVehicle_InsufficientSupplies(t *testing.T) {
	ctx, s := newWorld(t, 100, nil)
	v := rover(s, 0)
	s.Inventory().Store(settlement.ResourceWater, 10)
	m := settlement.NewManifest()
	m.Required[settlement.ResourceWater] = 50

	load := task.NewLoadVehicle(ctx, loader(ctx), v, s, m)
	_, err := load.Perform(10)

	require.NoError(t, err)
	assert.Equal(t, task.ReasonNoSupplies, load.EndReason())
	assert.InDelta(t, 10.0, v.Inventory().Amount(settlement.ResourceWater), 1e-9)
}

func TestLoadVehicle_MovesEquipment(t *testing.T) {
	ctx, s := newWorld(t, 100, nil)
	v := rover(s, 0)
	s.AddEquipment("b1", "Barrel", settlement.EquipmentBarrel)
	s.AddEquipment("b2", "Barrel", settlement.EquipmentBarrel)
	m := settlement.NewManifest()
	m.Equipment[settlement.EquipmentBarrel] = 2

	load := task.NewLoadVehicle(ctx, loader(ctx), v, s, m)
	_, err := load.Perform(1)

	require.NoError(t, err)
	assert.Equal(t, 2, v.CargoEquipmentCount(settlement.EquipmentBarrel))
	assert.Zero(t, s.EquipmentCount(settlement.EquipmentBarrel))
	assert.Equal(t, task.ReasonLoaded, load.EndReason())
}

func TestUnloadVehicle_KeepsReserveAboard(t *testing.T) {
	ctx, s := newWorld(t, 100, nil)
	v := rover(s, 100)
	v.Inventory().Store(settlement.ResourceWater, 40)
	keep := map[settlement.ResourceType]float64{settlement.ResourceMethane: 30}

	unload := task.NewUnloadVehicle(ctx, loader(ctx), v, s, keep)
	_, err := unload.Perform(10)

	require.NoError(t, err)
	assert.Equal(t, task.ReasonUnloaded, unload.EndReason())
	assert.InDelta(t, 30.0, v.Inventory().Amount(settlement.ResourceMethane), 1e-9)
	assert.InDelta(t, 70.0, s.Inventory().Amount(settlement.ResourceMethane), 1e-9)
	assert.InDelta(t, 40.0, s.Inventory().Amount(settlement.ResourceWater), 1e-9)
}

func TestUnloadVehicle_StorageFull(t *testing.T) {
	ctx := world.NewContext(shared.NewMasterClock(1, 100), nil, nil)
	s := settlement.NewSettlement(settlement.Params{ID: "s1", GeneralCapacity: 25})
	require.NoError(t, ctx.Settlements.Add(s))
	v := rover(s, 0)
	v.Inventory().Store(settlement.ResourceRegolith, 40)

	unload := task.NewUnloadVehicle(ctx, loader(ctx), v, s, nil)
	_, err := unload.Perform(10)

	require.NoError(t, err)
	assert.Equal(t, task.ReasonStorageFull, unload.EndReason())
	assert.InDelta(t, 25.0, s.Inventory().Amount(settlement.ResourceRegolith), 1e-9)
	assert.InDelta(t, 15.0, v.Inventory().Amount(settlement.ResourceRegolith), 1e-9)
}

func driver(ctx *world.Context, v *settlement.Vehicle) *agent.Person {
	p := agent.NewPerson("d1", "Dana", agent.GenderFemale, "s1")
	p.SetJob(agent.JobDriver)
	p.Skills().SetLevel(agent.SkillPiloting, 1)
	ctx.Actors.Add(p)
	_ = v.Board(p.ID())
	p.SetSituation(agent.SituationInVehicle)
	return p
}

func TestOperateVehicle_DrivesToDestination(t *testing.T) {
	ctx, s := newWorld(t, 100, nil)
	v := rover(s, 100)
	p := driver(ctx, v)
	dest := shared.Coordinates{X: 10}

	drive := task.NewOperateVehicle(ctx, p, v, dest)
	_, err := drive.Perform(10)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, v.Position().X, 1e-9)
	assert.Empty(t, v.SettlementID())

	left, err := drive.Perform(100)
	require.NoError(t, err)

	assert.Equal(t, task.ReasonArrived, drive.EndReason())
	assert.InDelta(t, 90.0, left, 1e-9)
	assert.Equal(t, dest, p.Position())
	assert.InDelta(t, 100-10.0/4, v.Inventory().Amount(settlement.ResourceMethane), 1e-9)
}

func TestOperateVehicle_OutOfFuel(t *testing.T) {
	ctx, s := newWorld(t, 100, nil)
	v := rover(s, 0)
	p := driver(ctx, v)

	drive := task.NewOperateVehicle(ctx, p, v, shared.Coordinates{X: 10})
	_, err := drive.Perform(10)

	require.NoError(t, err)
	assert.Equal(t, task.ReasonOutOfFuel, drive.EndReason())
}

func TestOperateVehicle_DriverMustBeAboard(t *testing.T) {
	ctx, s := newWorld(t, 100, nil)
	v := rover(s, 100)

	drive := task.NewOperateVehicle(ctx, chef(ctx, "p1"), v, shared.Coordinates{X: 10})

	assert.Equal(t, task.ReasonNotAboard, drive.EndReason())
}
