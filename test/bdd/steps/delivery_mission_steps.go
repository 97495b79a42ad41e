package steps

import (
	"context"
	"fmt"
	"math"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/colonysim/internal/adapters/persistence"
	"github.com/andrescamacho/colonysim/internal/application/common"
	"github.com/andrescamacho/colonysim/internal/application/setup"
	"github.com/andrescamacho/colonysim/internal/application/simulation"
	"github.com/andrescamacho/colonysim/internal/application/simulation/commands"
	"github.com/andrescamacho/colonysim/internal/application/simulation/queries"
	"github.com/andrescamacho/colonysim/internal/domain/agent"
	"github.com/andrescamacho/colonysim/internal/domain/event"
	"github.com/andrescamacho/colonysim/internal/domain/settlement"
	"github.com/andrescamacho/colonysim/internal/domain/shared"
	"github.com/andrescamacho/colonysim/internal/domain/task"
	"github.com/andrescamacho/colonysim/internal/domain/world"
	"github.com/andrescamacho/colonysim/test/helpers"
)

const bddRunID = "bdd-run"

type deliveryMissionContext struct {
	clock       *shared.MasterClock
	world       *world.Context
	engine      *simulation.Engine
	mediator    common.Mediator
	checkpoints *persistence.GormCheckpointRepository
	eventLog    *persistence.GormEventLogRepository
	interval    int

	mission  *commands.StartMissionResponse
	dispatch *commands.DispatchEmergencySupplyResponse
	run      *commands.RunTicksResponse
	goods    map[settlement.ResourceType]float64
	err      error
}

func (dc *deliveryMissionContext) reset() {
	dc.clock = shared.NewMasterClock(1, 100)
	dc.world = world.NewContext(dc.clock, shared.NewFixedRandom(0), nil)
	dc.world.Tuning.AccidentBaseChance = 0
	dc.engine = nil
	dc.mediator = nil
	dc.checkpoints = nil
	dc.eventLog = nil
	dc.interval = 0
	dc.mission = nil
	dc.dispatch = nil
	dc.run = nil
	dc.goods = make(map[settlement.ResourceType]float64)
	dc.err = nil
}

func (dc *deliveryMissionContext) settlement(id string) (*settlement.Settlement, error) {
	s, ok := dc.world.Settlements.Get(id)
	if !ok {
		return nil, fmt.Errorf("unknown settlement %s", id)
	}
	return s, nil
}

// ensureMediator builds the engine and mediator on first use so Given steps
// can still change the engine configuration.
func (dc *deliveryMissionContext) ensureMediator() error {
	if dc.mediator != nil {
		return nil
	}
	opts := simulation.Options{Selector: task.NewSelector(task.NewRegistry())}
	if dc.checkpoints != nil {
		opts.Checkpoints = dc.checkpoints
		opts.EventLog = dc.eventLog
	}
	dc.engine = simulation.NewEngine(dc.world, dc.clock, simulation.Config{
		RunID:              bddRunID,
		TickMillisols:      10,
		CheckpointInterval: dc.interval,
	}, opts)

	var repo simulation.CheckpointRepository
	if dc.checkpoints != nil {
		repo = dc.checkpoints
	}
	registry := setup.NewHandlerRegistry(dc.engine, repo, commands.MissionDefaults{MinMembers: 1, MaxMembers: 2})
	med, err := registry.CreateConfiguredMediator(common.LoggingMiddleware())
	if err != nil {
		return err
	}
	dc.mediator = med
	return nil
}

func (dc *deliveryMissionContext) send(request common.Request) (common.Response, error) {
	if err := dc.ensureMediator(); err != nil {
		return nil, err
	}
	return dc.mediator.Send(context.Background(), request)
}

// Given steps

func (dc *deliveryMissionContext) aSettlementAtKilometres(id string, x float64) error {
	s := settlement.NewSettlement(settlement.Params{
		ID: id, Name: id, GeneralCapacity: 10000,
		Position: shared.Coordinates{X: x},
	})
	return dc.world.Settlements.Add(s)
}

func (dc *deliveryMissionContext) settlementHasAGarage(id string) error {
	s, err := dc.settlement(id)
	if err != nil {
		return err
	}
	s.AddBuilding(settlement.NewBuilding(settlement.BuildingParams{
		ID: id + "-garage", Name: "Garage 1", Type: "Garage", SettlementID: id,
		Functions: map[settlement.Function]int{settlement.FunctionGarage: 2},
	}))
	return nil
}

func (dc *deliveryMissionContext) settlementStores(id string, amount float64, resource string) error {
	s, err := dc.settlement(id)
	if err != nil {
		return err
	}
	s.Inventory().Store(settlement.ResourceType(resource), amount)
	return nil
}

func (dc *deliveryMissionContext) settlementHasARover(id, vehicleID string) error {
	s, err := dc.settlement(id)
	if err != nil {
		return err
	}
	s.AddVehicle(settlement.NewVehicle(settlement.VehicleParams{
		ID: vehicleID, Name: "Rover " + vehicleID, Type: settlement.VehicleExplorerRover,
		CargoCapacity: 1000, Range: 500, Speed: 0.5, CrewCapacity: 4, FuelEconomy: 4,
	}))
	return nil
}

func (dc *deliveryMissionContext) settlementHasAPilot(id, personID string) error {
	s, err := dc.settlement(id)
	if err != nil {
		return err
	}
	p := agent.NewPerson(personID, "Settler "+personID, agent.GenderMale, id)
	p.Skills().SetLevel(agent.SkillPiloting, 1)
	p.Skills().SetLevel(agent.SkillEVA, 1)
	dc.world.Actors.Add(p)
	s.AddResident(personID)
	return nil
}

func (dc *deliveryMissionContext) checkpointsAreWrittenEveryTicks(interval int) error {
	if err := helpers.TruncateAllTables(); err != nil {
		return err
	}
	dc.checkpoints = persistence.NewGormCheckpointRepository(helpers.SharedTestDB)
	dc.eventLog = persistence.NewGormEventLogRepository(helpers.SharedTestDB, nil)
	dc.interval = interval
	return nil
}

// When steps

func (dc *deliveryMissionContext) iRequestADeliveryOfFromTo(amount float64, resource, home, dest string) error {
	dc.goods[settlement.ResourceType(resource)] = amount
	resp, err := dc.send(&commands.StartDeliveryMissionCommand{
		HomeID:        home,
		DestinationID: dest,
		Goods:         dc.goods,
	})
	dc.err = err
	if err == nil {
		dc.mission = resp.(*commands.StartMissionResponse)
	}
	return nil
}

func (dc *deliveryMissionContext) iDispatchEmergencySuppliesFromTo(home, target string) error {
	resp, err := dc.send(&commands.DispatchEmergencySupplyCommand{HomeID: home, TargetID: target})
	dc.err = err
	if err == nil {
		dc.dispatch = resp.(*commands.DispatchEmergencySupplyResponse)
		dc.mission = dc.dispatch.Mission
	}
	return nil
}

func (dc *deliveryMissionContext) theSimulationRunsForTicks(ticks int) error {
	resp, err := dc.send(&commands.RunTicksCommand{Ticks: ticks})
	if err != nil {
		return err
	}
	dc.run = resp.(*commands.RunTicksResponse)
	return nil
}

func (dc *deliveryMissionContext) iStopTheMission() error {
	if dc.mission == nil {
		return fmt.Errorf("no mission started")
	}
	_, err := dc.send(&commands.StopMissionCommand{MissionID: dc.mission.MissionID})
	return err
}

// Then steps

func (dc *deliveryMissionContext) theMissionShouldHaveStarted() error {
	if dc.err != nil {
		return fmt.Errorf("command failed: %w", dc.err)
	}
	if dc.mission == nil || !dc.mission.Started {
		reason := ""
		if dc.mission != nil {
			reason = dc.mission.Reason
		}
		return fmt.Errorf("expected mission to start, reason: %s", reason)
	}
	return nil
}

func (dc *deliveryMissionContext) theMissionShouldNotStartBecause(reason string) error {
	if dc.err != nil {
		return fmt.Errorf("command failed: %w", dc.err)
	}
	if dc.mission == nil {
		return fmt.Errorf("no mission response")
	}
	if dc.mission.Started {
		return fmt.Errorf("expected mission not to start")
	}
	if dc.mission.Reason != reason {
		return fmt.Errorf("expected reason %q, got %q", reason, dc.mission.Reason)
	}
	return nil
}

func (dc *deliveryMissionContext) theCommandShouldBeRejected() error {
	if dc.err == nil {
		return fmt.Errorf("expected the command to be rejected")
	}
	return nil
}

func (dc *deliveryMissionContext) theMissionShouldUseVehicle(vehicleID string) error {
	if dc.mission == nil || dc.mission.VehicleID != vehicleID {
		return fmt.Errorf("expected vehicle %s", vehicleID)
	}
	return nil
}

func (dc *deliveryMissionContext) missionsShouldHaveEnded(expected int) error {
	if dc.run == nil {
		return fmt.Errorf("the simulation has not run")
	}
	if dc.run.MissionsEnded != expected {
		return fmt.Errorf("expected %d missions ended, got %d", expected, dc.run.MissionsEnded)
	}
	return nil
}

func (dc *deliveryMissionContext) settlementShouldStore(id string, amount float64, resource string) error {
	s, err := dc.settlement(id)
	if err != nil {
		return err
	}
	got := s.Inventory().Amount(settlement.ResourceType(resource))
	if math.Abs(got-amount) > 1e-6 {
		return fmt.Errorf("expected %s to store %.2f %s, got %.2f", id, amount, resource, got)
	}
	return nil
}

func (dc *deliveryMissionContext) settlerShouldBeBackInTheSettlement(personID string) error {
	a, ok := dc.world.Actors.Get(personID)
	if !ok {
		return fmt.Errorf("unknown settler %s", personID)
	}
	if a.MissionID() != "" {
		return fmt.Errorf("%s is still on mission %s", personID, a.MissionID())
	}
	if a.Situation() != agent.SituationInSettlement {
		return fmt.Errorf("%s is %s", personID, a.Situation())
	}
	return nil
}

func (dc *deliveryMissionContext) noActiveMissionsShouldBeListed() error {
	resp, err := dc.send(&queries.ListMissionsQuery{})
	if err != nil {
		return err
	}
	if n := len(resp.(*queries.ListMissionsResponse).Missions); n != 0 {
		return fmt.Errorf("expected no active missions, got %d", n)
	}
	return nil
}

func (dc *deliveryMissionContext) noReliefShouldBeDispatchedBecause(reason string) error {
	if dc.err != nil {
		return fmt.Errorf("command failed: %w", dc.err)
	}
	if dc.dispatch == nil {
		return fmt.Errorf("no emergency dispatch")
	}
	if dc.dispatch.Dispatched || dc.dispatch.Mission != nil {
		return fmt.Errorf("expected no relief mission")
	}
	if dc.dispatch.Reason != reason {
		return fmt.Errorf("expected reason %q, got %q", reason, dc.dispatch.Reason)
	}
	return nil
}

func (dc *deliveryMissionContext) theLatestCheckpointShouldBeAtTick(tick int) error {
	resp, err := dc.send(&queries.GetLatestCheckpointQuery{RunID: bddRunID})
	if err != nil {
		return err
	}
	cp, ok := resp.(*simulation.Checkpoint)
	if !ok || cp == nil {
		return fmt.Errorf("no checkpoint stored")
	}
	if cp.Tick != uint64(tick) {
		return fmt.Errorf("expected latest checkpoint at tick %d, got %d", tick, cp.Tick)
	}
	return nil
}

func (dc *deliveryMissionContext) checkpointsShouldBeStored(expected int) error {
	cps, err := dc.checkpoints.List(context.Background(), bddRunID, 0)
	if err != nil {
		return err
	}
	if len(cps) != expected {
		return fmt.Errorf("expected %d checkpoints, got %d", expected, len(cps))
	}
	return nil
}

func (dc *deliveryMissionContext) theEventLogShouldContain(eventType string) error {
	events, err := dc.eventLog.List(context.Background(), bddRunID, persistence.EventLogFilter{Type: event.Type(eventType)})
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return fmt.Errorf("expected a %s event in the log", eventType)
	}
	return nil
}

// InitializeDeliveryMissionScenario registers the mission, relief and checkpoint steps
func InitializeDeliveryMissionScenario(ctx *godog.ScenarioContext) {
	dc := &deliveryMissionContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		dc.reset()
		return ctx, nil
	})

	ctx.Step(`^a settlement "([^"]*)" at (\d+(?:\.\d+)?) km$`, dc.aSettlementAtKilometres)
	ctx.Step(`^settlement "([^"]*)" has a garage$`, dc.settlementHasAGarage)
	ctx.Step(`^settlement "([^"]*)" stores (\d+(?:\.\d+)?) "([^"]*)"$`, dc.settlementStores)
	ctx.Step(`^settlement "([^"]*)" has a rover "([^"]*)"$`, dc.settlementHasARover)
	ctx.Step(`^settlement "([^"]*)" has a pilot "([^"]*)"$`, dc.settlementHasAPilot)
	ctx.Step(`^checkpoints are written every (\d+) ticks$`, dc.checkpointsAreWrittenEveryTicks)

	ctx.Step(`^I request a delivery of (\d+(?:\.\d+)?) "([^"]*)" from "([^"]*)" to "([^"]*)"$`, dc.iRequestADeliveryOfFromTo)
	ctx.Step(`^I dispatch emergency supplies from "([^"]*)" to "([^"]*)"$`, dc.iDispatchEmergencySuppliesFromTo)
	ctx.Step(`^the simulation runs for (\d+) ticks$`, dc.theSimulationRunsForTicks)
	ctx.Step(`^I stop the mission$`, dc.iStopTheMission)

	ctx.Step(`^the mission should have started$`, dc.theMissionShouldHaveStarted)
	ctx.Step(`^the mission should not start because "([^"]*)"$`, dc.theMissionShouldNotStartBecause)
	ctx.Step(`^the command should be rejected$`, dc.theCommandShouldBeRejected)
	ctx.Step(`^the mission should use vehicle "([^"]*)"$`, dc.theMissionShouldUseVehicle)
	ctx.Step(`^(\d+) missions? should have ended$`, dc.missionsShouldHaveEnded)
	ctx.Step(`^settlement "([^"]*)" should store (\d+(?:\.\d+)?) "([^"]*)"$`, dc.settlementShouldStore)
	ctx.Step(`^settler "([^"]*)" should be back in the settlement$`, dc.settlerShouldBeBackInTheSettlement)
	ctx.Step(`^no active missions should be listed$`, dc.noActiveMissionsShouldBeListed)
	ctx.Step(`^no relief should be dispatched because "([^"]*)"$`, dc.noReliefShouldBeDispatchedBecause)
	ctx.Step(`^the latest checkpoint should be at tick (\d+)$`, dc.theLatestCheckpointShouldBeAtTick)
	ctx.Step(`^(\d+) checkpoints should be stored$`, dc.checkpointsShouldBeStored)
	ctx.Step(`^the event log should contain a "([^"]*)" event$`, dc.theEventLogShouldContain)
}
