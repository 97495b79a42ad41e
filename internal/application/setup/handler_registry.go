package setup

import (
	"github.com/andrescamacho/colonysim/internal/application/common"
	"github.com/andrescamacho/colonysim/internal/application/simulation"
	"github.com/andrescamacho/colonysim/internal/application/simulation/commands"
	"github.com/andrescamacho/colonysim/internal/application/simulation/queries"
)

// HandlerRegistry holds the dependencies the simulation handlers are built from
type HandlerRegistry struct {
	engine      *simulation.Engine
	checkpoints simulation.CheckpointRepository
	defaults    commands.MissionDefaults
}

// NewHandlerRegistry creates a new handler registry. checkpoints may be nil,
// in which case GetLatestCheckpointQuery reports that checkpoints are off.
func NewHandlerRegistry(
	engine *simulation.Engine,
	checkpoints simulation.CheckpointRepository,
	defaults commands.MissionDefaults,
) *HandlerRegistry {
	return &HandlerRegistry{
		engine:      engine,
		checkpoints: checkpoints,
		defaults:    defaults,
	}
}

// RegisterCommandHandlers registers:
//   - RunTicksCommand
//   - StartDeliveryMissionCommand
//   - DispatchEmergencySupplyCommand
//   - ScheduleResupplyCommand
//   - StopMissionCommand
func (r *HandlerRegistry) RegisterCommandHandlers(m common.Mediator) error {
	if err := common.RegisterHandler[*commands.RunTicksCommand](m, commands.NewRunTicksHandler(r.engine)); err != nil {
		return err
	}
	if err := common.RegisterHandler[*commands.StartDeliveryMissionCommand](m, commands.NewStartDeliveryMissionHandler(r.engine, r.defaults)); err != nil {
		return err
	}
	if err := common.RegisterHandler[*commands.DispatchEmergencySupplyCommand](m, commands.NewDispatchEmergencySupplyHandler(r.engine, r.defaults)); err != nil {
		return err
	}
	if err := common.RegisterHandler[*commands.ScheduleResupplyCommand](m, commands.NewScheduleResupplyHandler(r.engine)); err != nil {
		return err
	}
	return common.RegisterHandler[*commands.StopMissionCommand](m, commands.NewStopMissionHandler(r.engine))
}

// RegisterQueryHandlers registers the read side: missions, settlement reports and checkpoints
func (r *HandlerRegistry) RegisterQueryHandlers(m common.Mediator) error {
	if err := common.RegisterHandler[*queries.ListMissionsQuery](m, queries.NewListMissionsHandler(r.engine)); err != nil {
		return err
	}
	if err := common.RegisterHandler[*queries.GetSettlementReportQuery](m, queries.NewGetSettlementReportHandler(r.engine)); err != nil {
		return err
	}
	return common.RegisterHandler[*queries.GetLatestCheckpointQuery](m, queries.NewGetLatestCheckpointHandler(r.engine, r.checkpoints))
}

// CreateConfiguredMediator creates a mediator with every simulation handler
// registered. Middleware runs in the order given, outermost first.
func (r *HandlerRegistry) CreateConfiguredMediator(middleware ...common.Middleware) (common.Mediator, error) {
	m := common.NewMediator()
	for _, mw := range middleware {
		if mw != nil {
			m.Use(mw)
		}
	}

	if err := r.RegisterCommandHandlers(m); err != nil {
		return nil, err
	}
	if err := r.RegisterQueryHandlers(m); err != nil {
		return nil, err
	}
	return m, nil
}
