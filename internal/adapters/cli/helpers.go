package cli

import (
	"fmt"
	"net/url"
	"strings"

	"gorm.io/gorm"

	"github.com/andrescamacho/colonysim/internal/infrastructure/config"
	"github.com/andrescamacho/colonysim/internal/infrastructure/database"
)

// loadConfig reads the system config, falling back to defaults with a warning
func loadConfig() *config.Config {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Warning: Failed to load config: %v\n", err)
		fmt.Println("Using default configuration.")
		return config.DefaultConfig()
	}
	return cfg
}

// openDatabase connects and migrates the configured database
func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		database.Close(db)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// resolveScenario picks the scenario path.
// Priority: --scenario flag > user default > simulation.scenario_path
func resolveScenario(flag string, cfg *config.Config) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if h, err := config.NewUserConfigHandler(); err == nil {
		if userCfg, err := h.Load(); err == nil && userCfg.DefaultScenario != "" {
			return userCfg.DefaultScenario, nil
		}
	}
	if cfg.Simulation.ScenarioPath != "" {
		return cfg.Simulation.ScenarioPath, nil
	}
	return "", fmt.Errorf("no scenario specified: use --scenario, set simulation.scenario_path, or run 'colonysim config set-scenario'")
}

// parseRoute splits "home:destination"
func parseRoute(s string) (string, string, error) {
	home, dest, ok := strings.Cut(s, ":")
	if !ok || home == "" || dest == "" {
		return "", "", fmt.Errorf("invalid route %q: expected home:destination", s)
	}
	return home, dest, nil
}

// maskPassword hides the password of a connection URL
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); !ok {
		return raw
	}
	u.User = url.UserPassword(u.User.Username(), "xxxxx")
	return u.String()
}
