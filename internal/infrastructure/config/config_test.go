package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/colonysim/internal/domain/settlement"
	"github.com/andrescamacho/colonysim/internal/domain/world"
	"github.com/andrescamacho/colonysim/internal/infrastructure/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "colony.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := config.DefaultConfig()

	require.NoError(t, config.ValidateConfig(cfg))
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "colonysim.db", cfg.Database.Path)
	assert.Equal(t, "localhost:50061", cfg.Daemon.Address)
	assert.Equal(t, 30*time.Second, cfg.Daemon.StatusInterval)
	assert.Equal(t, settlement.DefaultChainOfCommandThreshold, cfg.Governance.CommandThreshold)
	assert.Equal(t, settlement.DefaultThreeShiftThreshold, cfg.Governance.ThreeShiftThreshold)
	assert.Equal(t, 1.0, cfg.Simulation.TickMillisols)
	assert.Equal(t, 0, cfg.Simulation.CheckpointInterval)
}

func TestConfig_TuningMatchesDefaults(t *testing.T) {
	cfg := config.DefaultConfig()

	tuning := cfg.Tuning()

	assert.Equal(t, world.DefaultTuning(), tuning)
}

func TestConfig_TuningCarriesOverrides(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Tasks.AccidentBaseChance = 0
	cfg.Mission.LoadingChanceMin = 0.9
	cfg.Mission.LoadingChanceMax = 1
	cfg.Simulation.MaxPhaseChain = 3

	tuning := cfg.Tuning()

	assert.Equal(t, 0.0, tuning.AccidentBaseChance)
	assert.Equal(t, 0.9, tuning.LoadingChanceMin)
	assert.Equal(t, 1.0, tuning.LoadingChanceMax)
	assert.Equal(t, 3, tuning.MaxPhaseChain)
	assert.Equal(t, world.DefaultTuning().MealWindows, tuning.MealWindows)
}

func TestLoadConfig_ReadsFile(t *testing.T) {
	path := writeConfig(t, `
database:
  type: sqlite
  path: ":memory:"
simulation:
  seed: 7
  tick_millisols: 2.5
  checkpoint_interval: 50
  scenario_path: configs/scenarios/alpha-base.yaml
governance:
  command_threshold: 20
mission:
  min_members: 3
  max_members: 5
logging:
  level: debug
  format: json
`)

	cfg, err := config.LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.Equal(t, int64(7), cfg.Simulation.Seed)
	assert.Equal(t, 2.5, cfg.Simulation.TickMillisols)
	assert.Equal(t, 50, cfg.Simulation.CheckpointInterval)
	assert.Equal(t, "configs/scenarios/alpha-base.yaml", cfg.Simulation.ScenarioPath)
	assert.Equal(t, 20, cfg.Governance.CommandThreshold)
	assert.Equal(t, 3, cfg.Mission.MinMembers)
	assert.Equal(t, 5, cfg.Mission.MaxMembers)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadConfig_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "simulation:\n  seed: 7\n")
	t.Setenv("COLONY_SIMULATION_SEED", "42")
	t.Setenv("COLONY_LOGGING_LEVEL", "warn")

	cfg, err := config.LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, int64(42), cfg.Simulation.Seed)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadConfig_DatabaseURL(t *testing.T) {
	path := writeConfig(t, "database:\n  type: postgres\n")
	t.Setenv("DATABASE_URL", "postgresql://colony:secret@db:5432/colony")

	cfg, err := config.LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "postgresql://colony:secret@db:5432/colony", cfg.Database.URL)
}

func TestLoadConfig_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown log level", "logging:\n  level: loud\n"},
		{"file output without path", "logging:\n  output: file\n"},
		{"max members below min", "mission:\n  min_members: 4\n  max_members: 2\n"},
		{"loading chance inverted", "mission:\n  loading_chance_min: 0.8\n  loading_chance_max: 0.4\n"},
		{"male ratio above one", "governance:\n  immigrant_male_ratio: 1.5\n"},
		{"unknown database", "database:\n  type: mysql\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadConfig(writeConfig(t, tt.body))

			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
		})
	}
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	_, err := config.LoadConfig(writeConfig(t, "simulation: [not, a, map"))

	assert.Error(t, err)
}

func TestLoadConfigOrDefault_FallsBack(t *testing.T) {
	cfg := config.LoadConfigOrDefault(writeConfig(t, "logging:\n  level: loud\n"))

	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestUserConfigHandler_RoundTrip(t *testing.T) {
	h, err := config.NewUserConfigHandlerAt(t.TempDir())
	require.NoError(t, err)

	empty, err := h.Load()
	require.NoError(t, err)
	assert.Empty(t, empty.DefaultScenario)

	require.NoError(t, h.SetDefaultScenario("configs/scenarios/alpha-base.yaml"))
	require.NoError(t, h.SetDefaultSettlement("alpha"))

	loaded, err := h.Load()
	require.NoError(t, err)
	assert.Equal(t, "configs/scenarios/alpha-base.yaml", loaded.DefaultScenario)
	assert.Equal(t, "alpha", loaded.DefaultSettlement)

	require.NoError(t, h.Clear())
	cleared, err := h.Load()
	require.NoError(t, err)
	assert.Empty(t, cleared.DefaultSettlement)
}

func TestValidateConfig_NamesYAMLKeys(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Mission.MinMembers = 4
	cfg.Mission.MaxMembers = 2
	cfg.Metrics.Path = "metrics"

	err := config.ValidateConfig(cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 field(s) failed validation")
	assert.Contains(t, err.Error(), "mission.max_members: 2 violates gtefield=MinMembers")
	assert.Contains(t, err.Error(), "metrics.path: metrics violates startswith=/")
}
