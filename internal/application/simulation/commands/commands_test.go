package commands_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/colonysim/internal/application/common"
	"github.com/andrescamacho/colonysim/internal/application/simulation"
	"github.com/andrescamacho/colonysim/internal/application/simulation/commands"
	"github.com/andrescamacho/colonysim/internal/application/simulation/queries"
	"github.com/andrescamacho/colonysim/internal/domain/agent"
	"github.com/andrescamacho/colonysim/internal/domain/mission"
	"github.com/andrescamacho/colonysim/internal/domain/resupply"
	"github.com/andrescamacho/colonysim/internal/domain/settlement"
	"github.com/andrescamacho/colonysim/internal/domain/shared"
	"github.com/andrescamacho/colonysim/internal/domain/task"
	"github.com/andrescamacho/colonysim/internal/domain/world"
)

type fixture struct {
	ctx    *world.Context
	home   *settlement.Settlement
	dest   *settlement.Settlement
	engine *simulation.Engine
	med    common.Mediator
}

// newFixture builds two settlements 10 km apart behind a mediator. Settlers
// outside missions only ever idle so missions run undisturbed.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := shared.NewMasterClock(1, 100)
	ctx := world.NewContext(clock, shared.NewFixedRandom(0), nil)
	ctx.Tuning.AccidentBaseChance = 0

	home := settlement.NewSettlement(settlement.Params{ID: "s1", Name: "Alpha Base", GeneralCapacity: 10000})
	dest := settlement.NewSettlement(settlement.Params{
		ID: "s2", Name: "Beta Outpost", GeneralCapacity: 10000,
		Position: shared.Coordinates{X: 10},
	})
	require.NoError(t, ctx.Settlements.Add(home))
	require.NoError(t, ctx.Settlements.Add(dest))
	home.AddBuilding(settlement.NewBuilding(settlement.BuildingParams{
		ID: "g1", Name: "Garage 1", Type: "Garage", SettlementID: "s1",
		Functions: map[settlement.Function]int{settlement.FunctionGarage: 2},
	}))
	inv := home.Inventory()
	inv.Store(settlement.ResourceOxygen, 10)
	inv.Store(settlement.ResourceWater, 10)
	inv.Store(settlement.ResourceFood, 10)
	inv.Store(settlement.ResourceMethane, 50)

	engine := simulation.NewEngine(ctx, clock, simulation.Config{TickMillisols: 10}, simulation.Options{
		Selector: task.NewSelector(task.NewRegistry()),
	})
	defaults := commands.MissionDefaults{MinMembers: 1, MaxMembers: 2}

	med := common.NewMediator()
	med.Use(common.LoggingMiddleware())
	require.NoError(t, common.RegisterHandler[*commands.RunTicksCommand](med, commands.NewRunTicksHandler(engine)))
	require.NoError(t, common.RegisterHandler[*commands.StartDeliveryMissionCommand](med, commands.NewStartDeliveryMissionHandler(engine, defaults)))
	require.NoError(t, common.RegisterHandler[*commands.DispatchEmergencySupplyCommand](med, commands.NewDispatchEmergencySupplyHandler(engine, defaults)))
	require.NoError(t, common.RegisterHandler[*commands.ScheduleResupplyCommand](med, commands.NewScheduleResupplyHandler(engine)))
	require.NoError(t, common.RegisterHandler[*commands.StopMissionCommand](med, commands.NewStopMissionHandler(engine)))
	require.NoError(t, common.RegisterHandler[*queries.ListMissionsQuery](med, queries.NewListMissionsHandler(engine)))
	require.NoError(t, common.RegisterHandler[*queries.GetSettlementReportQuery](med, queries.NewGetSettlementReportHandler(engine)))

	return &fixture{ctx: ctx, home: home, dest: dest, engine: engine, med: med}
}

func (f *fixture) person(id string, piloting int) *agent.Person {
	p := agent.NewPerson(id, "Settler "+id, agent.GenderMale, f.home.ID())
	p.Skills().SetLevel(agent.SkillPiloting, piloting)
	p.Skills().SetLevel(agent.SkillEVA, 1)
	f.ctx.Actors.Add(p)
	f.home.AddResident(p.ID())
	return p
}

func (f *fixture) rover(id string) *settlement.Vehicle {
	v := settlement.NewVehicle(settlement.VehicleParams{
		ID: id, Name: "Rover " + id, Type: settlement.VehicleExplorerRover,
		CargoCapacity: 1000, Range: 500, Speed: 0.5, CrewCapacity: 4, FuelEconomy: 4,
	})
	f.home.AddVehicle(v)
	return v
}

func (f *fixture) send(t *testing.T, request common.Request) common.Response {
	t.Helper()
	resp, err := f.med.Send(context.Background(), request)
	require.NoError(t, err)
	return resp
}

func TestStartDeliveryMission_RunsToCompletionUnderTheEngine(t *testing.T) {
	f := newFixture(t)
	f.rover("v1")
	f.home.Inventory().Store(settlement.ResourcePotato, 30)
	p1, p2 := f.person("p1", 1), f.person("p2", 0)

	resp := f.send(t, &commands.StartDeliveryMissionCommand{
		HomeID:        "s1",
		DestinationID: "s2",
		MinMembers:    2,
		Goods:         map[settlement.ResourceType]float64{settlement.ResourcePotato: 30},
	}).(*commands.StartMissionResponse)

	require.True(t, resp.Started, resp.Reason)
	assert.Equal(t, mission.PhaseEmbarking, resp.Phase)
	assert.Equal(t, []string{"p1", "p2"}, resp.Members)
	assert.Equal(t, "v1", resp.VehicleID)

	run := f.send(t, &commands.RunTicksCommand{Ticks: 40}).(*commands.RunTicksResponse)

	assert.Equal(t, 40, run.TicksRun)
	assert.Equal(t, 1, run.MissionsEnded)
	assert.InDelta(t, 30.0, f.dest.Inventory().Amount(settlement.ResourcePotato), 1e-9)
	m, ok := f.engine.Missions().Get(resp.MissionID)
	require.True(t, ok)
	assert.Equal(t, mission.ReasonCompleted, m.EndReason())
	for _, p := range []*agent.Person{p1, p2} {
		assert.Empty(t, p.MissionID())
		assert.Equal(t, agent.SituationInSettlement, p.Situation())
	}
}

func TestStartDeliveryMission_NobodyHomeIsNotAnError(t *testing.T) {
	f := newFixture(t)
	f.rover("v1")

	resp := f.send(t, &commands.StartDeliveryMissionCommand{HomeID: "s1", DestinationID: "s2"}).(*commands.StartMissionResponse)

	assert.False(t, resp.Started)
	assert.Equal(t, commands.ReasonNoCrew, resp.Reason)
	assert.Empty(t, f.engine.Missions().All())
}

func TestStartDeliveryMission_NoVehicleEndsTheMission(t *testing.T) {
	f := newFixture(t)
	p1 := f.person("p1", 1)

	resp := f.send(t, &commands.StartDeliveryMissionCommand{HomeID: "s1", DestinationID: "s2"}).(*commands.StartMissionResponse)

	assert.False(t, resp.Started)
	assert.Equal(t, mission.ReasonNoVehicle, resp.Reason)
	assert.Empty(t, p1.MissionID())

	active := f.send(t, &queries.ListMissionsQuery{}).(*queries.ListMissionsResponse)
	assert.Empty(t, active.Missions)
	all := f.send(t, &queries.ListMissionsQuery{IncludeEnded: true}).(*queries.ListMissionsResponse)
	require.Len(t, all.Missions, 1)
	assert.Equal(t, mission.ReasonNoVehicle, all.Missions[0].Reason)
}

func TestStartDeliveryMission_ValidatesSettlements(t *testing.T) {
	f := newFixture(t)
	f.person("p1", 1)

	_, err := f.med.Send(context.Background(), &commands.StartDeliveryMissionCommand{HomeID: "s1", DestinationID: "s9"})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "destinationID", verr.Field)

	_, err = f.med.Send(context.Background(), &commands.StartDeliveryMissionCommand{HomeID: "s1", DestinationID: "s1"})
	assert.ErrorAs(t, err, &verr)
}

func TestStartDeliveryMission_BusyStarterNeedsPreempt(t *testing.T) {
	f := newFixture(t)
	f.rover("v1")
	p1 := f.person("p1", 1)
	idle := task.NewIdle(f.ctx, p1)
	require.NoError(t, p1.AssignTask(idle))

	_, err := f.med.Send(context.Background(), &commands.StartDeliveryMissionCommand{
		HomeID: "s1", DestinationID: "s2", StarterID: "p1",
	})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "starterID", verr.Field)
	assert.False(t, idle.Ended())

	resp := f.send(t, &commands.StartDeliveryMissionCommand{
		HomeID: "s1", DestinationID: "s2", StarterID: "p1", Preempt: true,
	}).(*commands.StartMissionResponse)

	assert.True(t, resp.Started)
	assert.True(t, idle.Ended())
	assert.Equal(t, "released for mission", idle.EndReason())
	assert.Equal(t, resp.MissionID, p1.MissionID())
}

func TestDispatchEmergencySupply_NoDeficitIsNotDispatched(t *testing.T) {
	f := newFixture(t)
	f.rover("v1")
	f.person("p1", 1)

	resp := f.send(t, &commands.DispatchEmergencySupplyCommand{HomeID: "s1", TargetID: "s2"}).(*commands.DispatchEmergencySupplyResponse)

	assert.False(t, resp.Dispatched)
	assert.Equal(t, commands.ReasonNothingToSend, resp.Reason)
	assert.Nil(t, resp.Mission)
	assert.Empty(t, f.engine.Missions().All())
}

func TestStopMission_EndsWithOperatorReason(t *testing.T) {
	f := newFixture(t)
	v := f.rover("v1")
	p1 := f.person("p1", 1)
	started := f.send(t, &commands.StartDeliveryMissionCommand{HomeID: "s1", DestinationID: "s2"}).(*commands.StartMissionResponse)
	require.True(t, started.Started)

	resp := f.send(t, &commands.StopMissionCommand{MissionID: started.MissionID}).(*commands.StopMissionResponse)

	assert.False(t, resp.AlreadyDone)
	assert.Equal(t, mission.ReasonStopped, resp.Reason)
	assert.Empty(t, p1.MissionID())
	assert.False(t, v.IsReserved())
	m, ok := f.engine.Missions().Get(started.MissionID)
	require.True(t, ok)
	assert.Equal(t, shared.LifecycleStatusStopped, m.Status())

	again := f.send(t, &commands.StopMissionCommand{MissionID: started.MissionID}).(*commands.StopMissionResponse)
	assert.True(t, again.AlreadyDone)
	assert.Equal(t, mission.ReasonStopped, again.Reason)

	_, err := f.med.Send(context.Background(), &commands.StopMissionCommand{MissionID: "nope"})
	assert.Error(t, err)
}

func TestScheduleResupply_LandsDuringRun(t *testing.T) {
	f := newFixture(t)

	resp := f.send(t, &commands.ScheduleResupplyCommand{Resupply: &resupply.Resupply{
		SettlementID: "s1",
		ArrivalTime:  shared.MarsTime{Sol: 1, Millisol: 120},
		Resources:    map[settlement.ResourceType]float64{settlement.ResourceIce: 25},
	}}).(*commands.ScheduleResupplyResponse)
	require.NotEmpty(t, resp.ResupplyID)

	run := f.send(t, &commands.RunTicksCommand{Ticks: 3}).(*commands.RunTicksResponse)

	assert.Equal(t, []string{resp.ResupplyID}, run.Resupplies)
	assert.InDelta(t, 25.0, f.home.Inventory().Amount(settlement.ResourceIce), 1e-9)
}

func TestScheduleResupply_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.med.Send(context.Background(), &commands.ScheduleResupplyCommand{})
	assert.Error(t, err)

	_, err = f.med.Send(context.Background(), &commands.ScheduleResupplyCommand{Resupply: &resupply.Resupply{SettlementID: "s9"}})
	var verr *shared.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestRunTicks_RejectsNonPositiveCount(t *testing.T) {
	f := newFixture(t)

	_, err := f.med.Send(context.Background(), &commands.RunTicksCommand{Ticks: 0})

	var verr *shared.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, uint64(0), f.engine.TickCount())
}

func TestSettlementReport_SummarisesResidentsAndStock(t *testing.T) {
	f := newFixture(t)
	f.rover("v1")
	for _, p := range []*agent.Person{f.person("p2", 0), f.person("p1", 1)} {
		require.NoError(t, p.AssignTask(task.NewIdle(f.ctx, p)))
	}

	report := f.send(t, &queries.GetSettlementReportQuery{SettlementID: "s1"}).(*queries.SettlementReport)

	assert.Equal(t, "Alpha Base", report.Name)
	assert.Equal(t, 2, report.Population)
	assert.Equal(t, 1, report.Buildings)
	assert.Equal(t, []string{"Rover v1"}, report.Vehicles)
	assert.Equal(t, 1, report.ParkedVehicles)
	assert.InDelta(t, 50.0, report.Resources[settlement.ResourceMethane], 1e-9)
	require.Len(t, report.Residents, 2)
	assert.Equal(t, "p1", report.Residents[0].ID)
	assert.Equal(t, task.IdleName, report.Residents[0].Task)
	assert.Equal(t, 2, report.Tasks[task.IdleName])

	_, err := f.med.Send(context.Background(), &queries.GetSettlementReportQuery{SettlementID: "s9"})
	assert.Error(t, err)
}
