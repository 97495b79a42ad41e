package mission_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/colonysim/internal/domain/agent"
	"github.com/andrescamacho/colonysim/internal/domain/event"
	"github.com/andrescamacho/colonysim/internal/domain/mission"
	"github.com/andrescamacho/colonysim/internal/domain/settlement"
	"github.com/andrescamacho/colonysim/internal/domain/shared"
	"github.com/andrescamacho/colonysim/internal/domain/task"
	"github.com/andrescamacho/colonysim/internal/domain/world"
)

type fixture struct {
	ctx  *world.Context
	home *settlement.Settlement
	dest *settlement.Settlement
}

// newFixture builds two settlements 10 km apart. Home has a garage so
// members walk to vehicles indoors; every loading draw succeeds.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := newOutpostFixture(t)
	f.home.AddBuilding(settlement.NewBuilding(settlement.BuildingParams{
		ID: "g1", Name: "Garage 1", Type: "Garage", SettlementID: "s1",
		Functions: map[settlement.Function]int{settlement.FunctionGarage: 2},
	}))
	return f
}

// newOutpostFixture is newFixture without the garage: people need an EVA
// suit to reach a vehicle.
func newOutpostFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := world.NewContext(shared.NewMasterClock(1, 100), shared.NewFixedRandom(0), nil)
	ctx.Tuning.AccidentBaseChance = 0

	home := settlement.NewSettlement(settlement.Params{ID: "s1", Name: "Alpha Base", GeneralCapacity: 10000})
	dest := settlement.NewSettlement(settlement.Params{
		ID: "s2", Name: "Beta Outpost", GeneralCapacity: 10000,
		Position: shared.Coordinates{X: 10},
	})
	require.NoError(t, ctx.Settlements.Add(home))
	require.NoError(t, ctx.Settlements.Add(dest))

	inv := home.Inventory()
	inv.Store(settlement.ResourceOxygen, 10)
	inv.Store(settlement.ResourceWater, 10)
	inv.Store(settlement.ResourceFood, 10)
	inv.Store(settlement.ResourceMethane, 50)
	return &fixture{ctx: ctx, home: home, dest: dest}
}

func (f *fixture) person(id string, piloting int) *agent.Person {
	p := agent.NewPerson(id, "Settler "+id, agent.GenderMale, f.home.ID())
	p.Skills().SetLevel(agent.SkillPiloting, piloting)
	p.Skills().SetLevel(agent.SkillEVA, 1)
	f.ctx.Actors.Add(p)
	f.home.AddResident(p.ID())
	return p
}

func (f *fixture) rover(id string, cargo, rangeKM float64) *settlement.Vehicle {
	v := settlement.NewVehicle(settlement.VehicleParams{
		ID: id, Name: "Rover " + id, Type: settlement.VehicleExplorerRover,
		CargoCapacity: cargo, Range: rangeKM, Speed: 0.5, CrewCapacity: 4, FuelEconomy: 4,
	})
	f.home.AddVehicle(v)
	return v
}

func (f *fixture) delivery(t *testing.T, starter agent.Actor, min, max int, goods map[settlement.ResourceType]float64) *mission.Mission {
	t.Helper()
	m, err := mission.New(f.ctx, mission.Params{
		Starter:     starter,
		Home:        f.home,
		Destination: f.dest,
		MinMembers:  min,
		MaxMembers:  max,
		Flavor:      mission.Delivery(goods, nil),
	})
	require.NoError(t, err)
	return m
}

func runUntilDone(t *testing.T, m *mission.Mission, maxTicks int) int {
	t.Helper()
	return runInSteps(t, m, 10, maxTicks)
}

func runInSteps(t *testing.T, m *mission.Mission, step float64, maxTicks int) int {
	t.Helper()
	ticks := 0
	for !m.IsDone() && ticks < maxTicks {
		require.NoError(t, m.Perform(step))
		ticks++
	}
	return ticks
}

func TestNew_ValidatesParams(t *testing.T) {
	f := newFixture(t)
	p := f.person("p1", 1)

	_, err := mission.New(f.ctx, mission.Params{Starter: p, Home: f.home, MinMembers: 1, MaxMembers: 1})
	assert.Error(t, err)

	_, err = mission.New(f.ctx, mission.Params{Starter: p, Home: f.home, Destination: f.dest, MinMembers: 3, MaxMembers: 2})
	assert.Error(t, err)
}

func TestRecruit_SkipsMembersOfOtherMissions(t *testing.T) {
	f := newFixture(t)
	p1, p2, p3 := f.person("p1", 1), f.person("p2", 0), f.person("p3", 0)
	other := f.delivery(t, p3, 1, 2, nil)
	require.Equal(t, other.ID(), p3.MissionID())

	m := f.delivery(t, p1, 1, 3, nil)
	added := m.Recruit(p2, p3)

	assert.Equal(t, 1, added)
	assert.Len(t, m.Members(), 2)
	assert.Equal(t, other.ID(), p3.MissionID())
}

func TestRecruit_LosingSecondMemberSelfTerminates(t *testing.T) {
	f := newFixture(t)
	p1, p2 := f.person("p1", 1), f.person("p2", 0)
	m := f.delivery(t, p1, 2, 3, nil)
	require.Equal(t, 1, m.Recruit(p2))

	m.RemoveMember(p2.ID())

	assert.True(t, m.IsDone())
	assert.Contains(t, m.EndReason(), "insufficient members")
	assert.Equal(t, shared.LifecycleStatusFailed, m.Status())
	assert.Empty(t, p1.MissionID())
	assert.Empty(t, p2.MissionID())
}

func TestStart_BelowMinimumEnds(t *testing.T) {
	f := newFixture(t)
	m := f.delivery(t, f.person("p1", 1), 2, 2, nil)

	require.NoError(t, m.Start())

	assert.True(t, m.IsDone())
	assert.Equal(t, mission.ReasonInsufficientMembers, m.EndReason())
}

func TestStart_NoVehicleEnds(t *testing.T) {
	f := newFixture(t)
	m := f.delivery(t, f.person("p1", 1), 1, 1, nil)

	require.NoError(t, m.Start())

	assert.Equal(t, mission.ReasonNoVehicle, m.EndReason())
}

func TestStart_PicksLargestCargoThenRange(t *testing.T) {
	f := newFixture(t)
	f.rover("small", 500, 3000)
	f.rover("short", 1000, 100)
	f.rover("long", 1000, 800)
	m := f.delivery(t, f.person("p1", 1), 1, 1, nil)

	require.NoError(t, m.Start())

	require.NotNil(t, m.Vehicle())
	assert.Equal(t, "long", m.Vehicle().ID())
	assert.Equal(t, m.ID(), m.Vehicle().ReservedBy())
	assert.Equal(t, mission.PhaseEmbarking, m.Phase())
}

func TestStart_BuildsConsumableManifest(t *testing.T) {
	f := newFixture(t)
	f.rover("v1", 1000, 500)
	p1, p2 := f.person("p1", 1), f.person("p2", 0)
	m := f.delivery(t, p1, 1, 2, map[settlement.ResourceType]float64{settlement.ResourcePotato: 30})
	m.Recruit(p2)

	require.NoError(t, m.Start())

	// 20 km round trip at 0.5 km/msol is 40 msol for 2 people, margin 1.5
	manifest := m.Manifest()
	assert.InDelta(t, 20.0/4*1.5, manifest.Required[settlement.ResourceMethane], 1e-9)
	assert.InDelta(t, mission.OxygenPerMillisol*2*40*1.5, manifest.Required[settlement.ResourceOxygen], 1e-9)
	assert.InDelta(t, 30.0, manifest.Required[settlement.ResourcePotato], 1e-9)
	assert.Greater(t, manifest.Optional[settlement.ResourceFood], 0.0)
}

func TestDelivery_FullRoundTrip(t *testing.T) {
	f := newFixture(t)
	v := f.rover("v1", 1000, 500)
	f.home.Inventory().Store(settlement.ResourcePotato, 30)
	p1, p2 := f.person("p1", 1), f.person("p2", 0)
	m := f.delivery(t, p1, 2, 2, map[settlement.ResourceType]float64{settlement.ResourcePotato: 30})
	require.Equal(t, 1, m.Recruit(p2))
	require.NoError(t, m.Start())

	ticks := runUntilDone(t, m, 50)

	assert.Less(t, ticks, 50)
	assert.Equal(t, mission.ReasonCompleted, m.EndReason())
	assert.Equal(t, shared.LifecycleStatusCompleted, m.Status())
	assert.InDelta(t, 30.0, f.dest.Inventory().Amount(settlement.ResourcePotato), 1e-9)
	assert.InDelta(t, 20.0, v.Odometer(), 1e-9)
	assert.Equal(t, f.home.ID(), v.SettlementID())
	assert.False(t, v.IsReserved())
	assert.Empty(t, v.Crew())
	for _, p := range []*agent.Person{p1, p2} {
		assert.Empty(t, p.MissionID())
		assert.Equal(t, agent.SituationInSettlement, p.Situation())
		assert.Equal(t, f.home.ID(), p.SettlementID())
		assert.Nil(t, p.CurrentTask())
	}
}

func TestDelivery_CrewSharingOneSuitTakesTurns(t *testing.T) {
	for _, step := range []float64{1, 10} {
		t.Run(fmt.Sprintf("%g millisols per tick", step), func(t *testing.T) {
			f := newOutpostFixture(t)
			f.rover("v1", 1000, 500)
			f.home.AddEquipment("suit-1", "EVA Suit", settlement.EquipmentEVASuit)
			p1, p2 := f.person("p1", 1), f.person("p2", 0)
			m := f.delivery(t, p1, 2, 2, nil)
			require.Equal(t, 1, m.Recruit(p2))
			require.NoError(t, m.Start())

			ticks := runInSteps(t, m, step, 2000)

			assert.Less(t, ticks, 2000)
			assert.Equal(t, mission.ReasonCompleted, m.EndReason())
			for _, suit := range f.home.Suits() {
				assert.False(t, suit.IsReserved())
			}
		})
	}
}

func TestDelivery_NoSuitAnywhereEndsEmbarking(t *testing.T) {
	f := newOutpostFixture(t)
	f.rover("v1", 1000, 500)
	m := f.delivery(t, f.person("p1", 1), 1, 1, nil)
	require.NoError(t, m.Start())

	runInSteps(t, m, 1, 200)

	assert.True(t, m.IsDone())
	assert.Equal(t, task.ReasonNoSuit, m.EndReason())
}

func TestRemoveMember_AfterDepartureRidesToNextStop(t *testing.T) {
	f := newFixture(t)
	v := f.rover("v1", 1000, 500)
	p1, p2 := f.person("p1", 1), f.person("p2", 0)
	m := f.delivery(t, p1, 1, 2, nil)
	require.Equal(t, 1, m.Recruit(p2))
	require.NoError(t, m.Start())
	for i := 0; i < 50 && m.Phase() != mission.PhaseTravelling; i++ {
		require.NoError(t, m.Perform(10))
	}
	require.Equal(t, mission.PhaseTravelling, m.Phase())
	require.NoError(t, m.Perform(1))
	require.Empty(t, v.SettlementID())

	m.RemoveMember(p2.ID())

	assert.False(t, m.IsDone())
	assert.Empty(t, p2.MissionID())
	require.Len(t, m.Passengers(), 1)

	runUntilDone(t, m, 100)

	assert.Equal(t, mission.ReasonCompleted, m.EndReason())
	assert.Empty(t, m.Passengers())
	assert.Equal(t, agent.SituationInSettlement, p2.Situation())
	assert.Equal(t, f.dest.ID(), p2.SettlementID())
	assert.Equal(t, f.dest.Position(), p2.Position())
	assert.False(t, v.IsAboard(p2.ID()))
	assert.Equal(t, f.home.ID(), p1.SettlementID())
}

func TestStop_RecordsStoppedLifecycle(t *testing.T) {
	f := newFixture(t)
	v := f.rover("v1", 1000, 500)
	p1 := f.person("p1", 1)
	m := f.delivery(t, p1, 1, 1, nil)
	require.NoError(t, m.Start())

	m.Stop(mission.ReasonStopped)
	m.End("later failure")

	assert.Equal(t, shared.LifecycleStatusStopped, m.Status())
	assert.Equal(t, mission.ReasonStopped, m.EndReason())
	assert.False(t, v.IsReserved())
	assert.Empty(t, p1.MissionID())
}

func TestDelivery_LoadingUsesOneLoaderAtATime(t *testing.T) {
	f := newFixture(t)
	f.rover("v1", 1000, 500)
	f.home.Inventory().Store(settlement.ResourceRegolith, 500)
	p1, p2 := f.person("p1", 1), f.person("p2", 0)
	m := f.delivery(t, p1, 2, 2, map[settlement.ResourceType]float64{settlement.ResourceRegolith: 500})
	m.Recruit(p2)
	require.NoError(t, m.Start())

	require.NoError(t, m.Perform(10))

	loader := m.Loader()
	require.NotNil(t, loader)
	assert.Equal(t, p1.ID(), loader.ID())
	assert.Nil(t, p2.CurrentTask())
	assert.Equal(t, mission.PhaseEmbarking, m.Phase())
}

func TestDelivery_MissingGoodsEndsDuringLoading(t *testing.T) {
	f := newFixture(t)
	f.rover("v1", 1000, 500)
	m := f.delivery(t, f.person("p1", 1), 1, 1, map[settlement.ResourceType]float64{settlement.ResourceRice: 5})
	require.NoError(t, m.Start())

	runUntilDone(t, m, 5)

	assert.True(t, m.IsDone())
	assert.Equal(t, "insufficient supplies", m.EndReason())
	assert.False(t, m.Vehicle().IsReserved())
}

func TestEnd_IsIdempotentAndReleasesReservations(t *testing.T) {
	f := newFixture(t)
	tow := f.rover("towed", 100, 100)
	v := f.rover("v1", 1000, 500)
	p1 := f.person("p1", 1)
	m, err := mission.New(f.ctx, mission.Params{
		Starter: p1, Home: f.home, Destination: f.dest,
		MinMembers: 1, MaxMembers: 1,
		Flavor: mission.Delivery(nil, nil),
		Tow:    tow,
	})
	require.NoError(t, err)
	require.NoError(t, m.Start())
	require.Equal(t, v, m.Vehicle())
	require.Equal(t, tow, v.Towing())
	f.ctx.Events.DrainAll()

	m.End(mission.ReasonStopped)
	m.End("second call")

	assert.Equal(t, mission.ReasonStopped, m.EndReason())
	assert.False(t, v.IsReserved())
	assert.Nil(t, v.Towing())
	assert.Empty(t, tow.TowedBy())
	assert.Empty(t, p1.MissionID())

	ended := 0
	for _, e := range f.ctx.Events.DrainAll() {
		if e.Type == event.TypeMissionEnded {
			ended++
		}
	}
	assert.Equal(t, 1, ended)
}

func TestPerform_AfterEndIsNoOp(t *testing.T) {
	f := newFixture(t)
	f.rover("v1", 1000, 500)
	m := f.delivery(t, f.person("p1", 1), 1, 1, nil)
	require.NoError(t, m.Start())
	m.End(mission.ReasonStopped)

	assert.NoError(t, m.Perform(10))
	assert.Error(t, m.Start())
}

func TestEmergencySupply_PlanRequiresContainers(t *testing.T) {
	f := newFixture(t)
	depot := settlement.NewSettlement(settlement.Params{ID: "d1", Name: "Depot", GeneralCapacity: 1000})
	depot.Inventory().Store(settlement.ResourceOxygen, 100)
	for _, id := range []string{"a", "b", "c", "d"} {
		f.dest.AddResident(id)
	}

	_, ok := mission.PlanEmergencySupply(depot, f.dest, 3)
	assert.False(t, ok, "no gas canisters at the depot")

	depot.AddEquipment("c1", "Gas Canister", settlement.EquipmentGasCanister)
	payload, ok := mission.PlanEmergencySupply(depot, f.dest, 3)

	require.True(t, ok)
	assert.InDelta(t, mission.OxygenPerMillisol*1000*4*3, payload.Required[settlement.ResourceOxygen], 1e-9)
	assert.Equal(t, 1, payload.Equipment[settlement.EquipmentGasCanister])
	assert.Len(t, payload.Required, 1)
}

func TestEmergencySupply_HomeKeepsItsOwnReserve(t *testing.T) {
	f := newFixture(t)
	f.dest.AddResident("x1")
	f.home.AddEquipment("c1", "Gas Canister", settlement.EquipmentGasCanister)
	f.home.AddEquipment("c2", "Gas Canister", settlement.EquipmentGasCanister)
	f.home.AddEquipment("b1", "Barrel", settlement.EquipmentBarrel)
	f.home.AddEquipment("g1", "Bag", settlement.EquipmentBag)
	for i := 0; i < 3; i++ {
		f.home.AddResident(string(rune('p' + i)))
	}

	payload, ok := mission.PlanEmergencySupply(f.home, f.dest, 1)

	// home holds 10 kg water and needs 3 x 4.4 of it, so none can go
	require.True(t, ok)
	assert.Zero(t, payload.Required[settlement.ResourceWater])
	assert.InDelta(t, mission.OxygenPerMillisol*1000, payload.Required[settlement.ResourceOxygen], 1e-9)
}

func TestEmergencySupply_NoDeficitMeansNoDispatch(t *testing.T) {
	f := newFixture(t)

	_, ok := mission.PlanEmergencySupply(f.home, f.dest, 3)

	assert.False(t, ok)
}

func TestEmergencySupply_DeliversPayload(t *testing.T) {
	f := newFixture(t)
	f.rover("v1", 1000, 500)
	f.dest.AddResident("x1")
	f.home.AddEquipment("c1", "Gas Canister", settlement.EquipmentGasCanister)
	f.home.AddEquipment("c2", "Gas Canister", settlement.EquipmentGasCanister)
	f.home.AddEquipment("b1", "Barrel", settlement.EquipmentBarrel)
	f.home.AddEquipment("g1", "Bag", settlement.EquipmentBag)
	p1 := f.person("p1", 1)
	payload, ok := mission.PlanEmergencySupply(f.home, f.dest, 1)
	require.True(t, ok)

	m, err := mission.New(f.ctx, mission.Params{
		Starter: p1, Home: f.home, Destination: f.dest,
		MinMembers: 1, MaxMembers: 1,
		Flavor: mission.EmergencySupply(payload),
	})
	require.NoError(t, err)
	require.NoError(t, m.Start())
	runUntilDone(t, m, 50)

	assert.Equal(t, mission.ReasonCompleted, m.EndReason())
	assert.Greater(t, f.dest.Inventory().Amount(settlement.ResourceOxygen), 0.0)
	assert.Equal(t, 2, f.dest.EquipmentCount(settlement.EquipmentGasCanister))
	assert.Equal(t, 1, f.dest.EquipmentCount(settlement.EquipmentBag))
}

func TestTravelPlan_ConsumesInOrder(t *testing.T) {
	plan := mission.NewTravelPlan(shared.Coordinates{},
		mission.Navpoint{Position: shared.Coordinates{X: 3}},
		mission.Navpoint{Position: shared.Coordinates{X: 3, Y: 4}, SettlementID: "s2"},
	)

	assert.InDelta(t, 7.0, plan.TotalDistance(), 1e-9)
	np, ok := plan.Current()
	require.True(t, ok)
	assert.False(t, np.IsSettlement())
	assert.False(t, plan.IsLast())

	assert.True(t, plan.Advance())
	assert.True(t, plan.IsLast())
	assert.False(t, plan.Advance())
	_, ok = plan.Current()
	assert.False(t, ok)
}

func TestRegistry_PruneDropsEndedMissions(t *testing.T) {
	f := newFixture(t)
	reg := mission.NewRegistry()
	a := f.delivery(t, f.person("p1", 1), 1, 1, nil)
	b := f.delivery(t, f.person("p2", 1), 1, 1, nil)
	reg.Add(a)
	reg.Add(b)
	a.End(mission.ReasonStopped)

	assert.Len(t, reg.Active(), 1)
	assert.Equal(t, 1, reg.Prune())
	assert.Len(t, reg.All(), 1)
}
