// Package bootstrap assembles a runnable simulation from configuration and a
// scenario. Both the CLI and the daemon start from Build.
package bootstrap

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andrescamacho/colonysim/internal/adapters/metrics"
	"github.com/andrescamacho/colonysim/internal/adapters/persistence"
	"github.com/andrescamacho/colonysim/internal/adapters/placement"
	"github.com/andrescamacho/colonysim/internal/adapters/scenario"
	"github.com/andrescamacho/colonysim/internal/application/common"
	"github.com/andrescamacho/colonysim/internal/application/setup"
	"github.com/andrescamacho/colonysim/internal/application/simulation"
	"github.com/andrescamacho/colonysim/internal/application/simulation/commands"
	"github.com/andrescamacho/colonysim/internal/domain/event"
	"github.com/andrescamacho/colonysim/internal/domain/resupply"
	"github.com/andrescamacho/colonysim/internal/domain/shared"
	"github.com/andrescamacho/colonysim/internal/domain/task"
	"github.com/andrescamacho/colonysim/internal/domain/world"
	"github.com/andrescamacho/colonysim/internal/infrastructure/config"
)

// Runtime is a fully wired simulation
type Runtime struct {
	RunID    string
	World    *world.Context
	Clock    *shared.MasterClock
	Engine   *simulation.Engine
	Mediator common.Mediator

	// Nil when no database is configured
	Checkpoints *persistence.GormCheckpointRepository
	EventLog    *persistence.GormEventLogRepository

	// Nil when metrics are disabled
	Settlements *metrics.SettlementMetricsCollector
}

// Build wires a runtime. db may be nil to run without persistence.
func Build(cfg *config.Config, file *scenario.File, db *gorm.DB, logger shared.Logger) (*Runtime, error) {
	if file == nil {
		return nil, fmt.Errorf("scenario is required")
	}
	runID := cfg.Simulation.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	start := file.Start.MarsTime()
	clock := shared.NewMasterClock(start.Sol, start.Millisol)
	ctx := world.NewContext(clock, shared.NewSeededRandom(cfg.Simulation.Seed), logger)
	ctx.Events = event.NewHub(cfg.Simulation.EventQueueCapacity)
	ctx.Tuning = cfg.Tuning()

	built, err := file.Build(ctx, scenario.Defaults{
		CommandThreshold:    cfg.Governance.CommandThreshold,
		ThreeShiftThreshold: cfg.Governance.ThreeShiftThreshold,
		FoundationWork:      cfg.Tasks.FoundationWork,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build scenario %q: %w", file.Name, err)
	}

	rt := &Runtime{RunID: runID, World: ctx, Clock: clock}
	opts := simulation.Options{
		Selector: task.NewSelector(task.DefaultRegistry()),
		Placer:   placement.NewOverlapPlacer(),
		Delivery: resupply.DriverOptions{
			MaleRatio:      cfg.Governance.ImmigrantMaleRatio,
			FoundationWork: cfg.Tasks.FoundationWork,
		},
	}
	if db != nil {
		rt.Checkpoints = persistence.NewGormCheckpointRepository(db)
		rt.EventLog = persistence.NewGormEventLogRepository(db, nil)
		opts.Checkpoints = rt.Checkpoints
		opts.EventLog = rt.EventLog
	}

	var commandMetrics *metrics.CommandMetricsCollector
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		simMetrics := metrics.NewSimulationCollector()
		commandMetrics = metrics.NewCommandMetricsCollector()
		if err := simMetrics.Register(); err != nil {
			return nil, fmt.Errorf("failed to register simulation metrics: %w", err)
		}
		if err := commandMetrics.Register(); err != nil {
			return nil, fmt.Errorf("failed to register command metrics: %w", err)
		}
		opts.Metrics = simMetrics
	}

	rt.Engine = simulation.NewEngine(ctx, clock, simulation.Config{
		RunID:               runID,
		TickMillisols:       cfg.Simulation.TickMillisols,
		ParallelSettlements: cfg.Simulation.ParallelSettlements,
		MaxParallel:         cfg.Simulation.MaxParallel,
		CheckpointInterval:  cfg.Simulation.CheckpointInterval,
	}, opts)

	for _, r := range built.Resupplies {
		if err := rt.Engine.ScheduleResupply(r); err != nil {
			return nil, fmt.Errorf("failed to schedule resupply %q: %w", r.Name, err)
		}
	}

	if cfg.Metrics.Enabled {
		rt.Settlements = metrics.NewSettlementMetricsCollector(rt.sampleSettlements, 0)
		if err := rt.Settlements.Register(); err != nil {
			return nil, fmt.Errorf("failed to register settlement metrics: %w", err)
		}
	}

	registry := setup.NewHandlerRegistry(rt.Engine, checkpointPort(rt.Checkpoints), commands.MissionDefaults{
		MinMembers: cfg.Mission.MinMembers,
		MaxMembers: cfg.Mission.MaxMembers,
	})
	var promMiddleware common.Middleware
	if commandMetrics != nil {
		promMiddleware = metrics.PrometheusMiddleware(commandMetrics)
	}
	rt.Mediator, err = registry.CreateConfiguredMediator(common.LoggingMiddleware(), promMiddleware)
	if err != nil {
		return nil, fmt.Errorf("failed to register handlers: %w", err)
	}
	return rt, nil
}

// LoadAndBuild reads the scenario at path and wires a runtime around it
func LoadAndBuild(cfg *config.Config, path string, db *gorm.DB, logger shared.Logger) (*Runtime, error) {
	file, err := scenario.Load(path)
	if err != nil {
		return nil, err
	}
	return Build(cfg, file, db, logger)
}

func (rt *Runtime) sampleSettlements() []metrics.SettlementSample {
	var samples []metrics.SettlementSample
	_ = rt.Engine.Exclusive(func(w *world.Context) error {
		samples = metrics.SampleSettlements(w.Settlements)
		return nil
	})
	return samples
}

// checkpointPort keeps a nil repository from becoming a non-nil interface
func checkpointPort(repo *persistence.GormCheckpointRepository) simulation.CheckpointRepository {
	if repo == nil {
		return nil
	}
	return repo
}
