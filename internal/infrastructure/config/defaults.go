package config

import (
	"time"

	"github.com/andrescamacho/colonysim/internal/domain/resupply"
	"github.com/andrescamacho/colonysim/internal/domain/settlement"
	"github.com/andrescamacho/colonysim/internal/domain/world"
)

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// Database defaults
	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.Type == "sqlite" && cfg.Database.Path == "" {
		cfg.Database.Path = "colonysim.db"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "colonysim"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "colonysim"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Pool.MaxOpen == 0 {
		cfg.Database.Pool.MaxOpen = 25
	}
	if cfg.Database.Pool.MaxIdle == 0 {
		cfg.Database.Pool.MaxIdle = 5
	}
	if cfg.Database.Pool.MaxLifetime == 0 {
		cfg.Database.Pool.MaxLifetime = 5 * time.Minute
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}

	// Metrics defaults
	if cfg.Metrics.Host == "" {
		cfg.Metrics.Host = "localhost"
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9464
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	// Daemon defaults
	if cfg.Daemon.Address == "" {
		cfg.Daemon.Address = "localhost:50061"
	}
	if cfg.Daemon.PIDFile == "" {
		cfg.Daemon.PIDFile = "/tmp/colonysim-daemon.pid"
	}
	if cfg.Daemon.StatusInterval == 0 {
		cfg.Daemon.StatusInterval = 30 * time.Second
	}
	if cfg.Daemon.ShutdownTimeout == 0 {
		cfg.Daemon.ShutdownTimeout = 10 * time.Second
	}

	// Simulation defaults
	if cfg.Simulation.TickMillisols == 0 {
		cfg.Simulation.TickMillisols = 1
	}
	if cfg.Simulation.Burst == 0 {
		cfg.Simulation.Burst = 1
	}
	if cfg.Simulation.Seed == 0 {
		cfg.Simulation.Seed = 1
	}
	if cfg.Simulation.MaxParallel == 0 {
		cfg.Simulation.MaxParallel = 4
	}
	if cfg.Simulation.MaxPhaseChain == 0 {
		cfg.Simulation.MaxPhaseChain = world.DefaultTuning().MaxPhaseChain
	}
	if cfg.Simulation.EventQueueCapacity == 0 {
		cfg.Simulation.EventQueueCapacity = 256
	}

	// Governance defaults
	if cfg.Governance.CommandThreshold == 0 {
		cfg.Governance.CommandThreshold = settlement.DefaultChainOfCommandThreshold
	}
	if cfg.Governance.ThreeShiftThreshold == 0 {
		cfg.Governance.ThreeShiftThreshold = settlement.DefaultThreeShiftThreshold
	}
	if cfg.Governance.ImmigrantMaleRatio == 0 {
		cfg.Governance.ImmigrantMaleRatio = 0.5
	}

	// Mission defaults
	tuning := world.DefaultTuning()
	if cfg.Mission.LoadingChanceMin == 0 {
		cfg.Mission.LoadingChanceMin = tuning.LoadingChanceMin
	}
	if cfg.Mission.LoadingChanceMax == 0 {
		cfg.Mission.LoadingChanceMax = tuning.LoadingChanceMax
	}
	if cfg.Mission.ConsumableMargin == 0 {
		cfg.Mission.ConsumableMargin = tuning.ConsumableMargin
	}
	if cfg.Mission.MinMembers == 0 {
		cfg.Mission.MinMembers = 2
	}
	if cfg.Mission.MaxMembers == 0 {
		cfg.Mission.MaxMembers = 4
	}

	// Task defaults
	if cfg.Tasks.AccidentBaseChance == 0 {
		cfg.Tasks.AccidentBaseChance = tuning.AccidentBaseChance
	}
	if cfg.Tasks.WorkPerMeal == 0 {
		cfg.Tasks.WorkPerMeal = tuning.WorkPerMeal
	}
	if cfg.Tasks.CookSessionWork == 0 {
		cfg.Tasks.CookSessionWork = tuning.CookSessionWork
	}
	if cfg.Tasks.RelaxDuration == 0 {
		cfg.Tasks.RelaxDuration = tuning.RelaxDuration
	}
	if cfg.Tasks.WorkoutDuration == 0 {
		cfg.Tasks.WorkoutDuration = tuning.WorkoutDuration
	}
	if cfg.Tasks.ExperiencePerWork == 0 {
		cfg.Tasks.ExperiencePerWork = tuning.ExperiencePerWork
	}
	if cfg.Tasks.FoundationWork == 0 {
		cfg.Tasks.FoundationWork = resupply.DefaultFoundationWork
	}
}

// Tuning maps mission and task settings onto the world tuning knobs
func (c *Config) Tuning() world.Tuning {
	t := world.DefaultTuning()
	t.AccidentBaseChance = c.Tasks.AccidentBaseChance
	t.WorkPerMeal = c.Tasks.WorkPerMeal
	t.CookSessionWork = c.Tasks.CookSessionWork
	t.RelaxDuration = c.Tasks.RelaxDuration
	t.WorkoutDuration = c.Tasks.WorkoutDuration
	t.ExperiencePerWork = c.Tasks.ExperiencePerWork
	t.LoadingChanceMin = c.Mission.LoadingChanceMin
	t.LoadingChanceMax = c.Mission.LoadingChanceMax
	t.ConsumableMargin = c.Mission.ConsumableMargin
	t.MaxPhaseChain = c.Simulation.MaxPhaseChain
	return t
}
