package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/colonysim/internal/infrastructure/config"
)

// NewConfigCommand creates the config command with subcommands
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage colony simulation configuration settings.

Configuration is loaded from multiple sources with priority:
1. Environment variables (COLONY_* prefix)
2. Config file (colony.yaml)
3. Default values

User preferences (default scenario and settlement) are stored in ~/.colonysim/preferences.yaml

Examples:
  colonysim config show
  colonysim config set-scenario configs/scenarios/alpha-base.yaml
  colonysim config set-settlement alpha
  colonysim config clear`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetScenarioCommand())
	cmd.AddCommand(newConfigSetSettlementCommand())
	cmd.AddCommand(newConfigClearCommand())

	return cmd
}

// newConfigShowCommand creates the config show subcommand
func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			userConfigHandler, err := config.NewUserConfigHandler()
			if err != nil {
				return fmt.Errorf("failed to create user config handler: %w", err)
			}
			userCfg, err := userConfigHandler.Load()
			if err != nil {
				fmt.Printf("Warning: Failed to load user config: %v\n\n", err)
				userCfg = &config.UserConfig{}
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "Colony Simulation Configuration")
			fmt.Fprintln(w, "===============================")

			fmt.Fprintln(w, "User Preferences:")
			fmt.Fprintf(w, "  Config file:      %s\n", userConfigHandler.GetConfigPath())
			fmt.Fprintf(w, "  Scenario:         %s\n", orUnset(userCfg.DefaultScenario))
			fmt.Fprintf(w, "  Settlement:       %s\n", orUnset(userCfg.DefaultSettlement))

			fmt.Fprintln(w, "\nDatabase:")
			fmt.Fprintf(w, "  Type:             %s\n", cfg.Database.Type)
			switch {
			case cfg.Database.URL != "":
				fmt.Fprintf(w, "  URL:              %s\n", maskPassword(cfg.Database.URL))
			case cfg.Database.Type == "sqlite":
				fmt.Fprintf(w, "  Path:             %s\n", cfg.Database.Path)
			default:
				fmt.Fprintf(w, "  Host:             %s:%d\n", cfg.Database.Host, cfg.Database.Port)
				fmt.Fprintf(w, "  Database:         %s\n", cfg.Database.Name)
				fmt.Fprintf(w, "  User:             %s\n", cfg.Database.User)
			}

			fmt.Fprintln(w, "\nSimulation:")
			fmt.Fprintf(w, "  Scenario:         %s\n", orUnset(cfg.Simulation.ScenarioPath))
			fmt.Fprintf(w, "  Tick:             %.2f millisols\n", cfg.Simulation.TickMillisols)
			fmt.Fprintf(w, "  Pace:             %.1f ticks/s (burst: %d)\n", cfg.Simulation.TicksPerSecond, cfg.Simulation.Burst)
			fmt.Fprintf(w, "  Seed:             %d\n", cfg.Simulation.Seed)
			fmt.Fprintf(w, "  Checkpoint every: %d ticks\n", cfg.Simulation.CheckpointInterval)
			fmt.Fprintf(w, "  Parallel:         %v (max %d)\n", cfg.Simulation.ParallelSettlements, cfg.Simulation.MaxParallel)

			fmt.Fprintln(w, "\nGovernance:")
			fmt.Fprintf(w, "  Command at:       %d residents\n", cfg.Governance.CommandThreshold)
			fmt.Fprintf(w, "  Three shifts at:  %d residents\n", cfg.Governance.ThreeShiftThreshold)

			fmt.Fprintln(w, "\nDaemon:")
			fmt.Fprintf(w, "  Address:          %s\n", cfg.Daemon.Address)
			fmt.Fprintf(w, "  PID file:         %s\n", cfg.Daemon.PIDFile)

			fmt.Fprintln(w, "\nLogging:")
			fmt.Fprintf(w, "  Level:            %s\n", cfg.Logging.Level)
			fmt.Fprintf(w, "  Format:           %s\n", cfg.Logging.Format)
			fmt.Fprintf(w, "  Output:           %s\n", cfg.Logging.Output)

			return nil
		},
	}
}

func newConfigSetScenarioCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-scenario <path>",
		Short: "Set the scenario used when --scenario is omitted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := config.NewUserConfigHandler()
			if err != nil {
				return fmt.Errorf("failed to create user config handler: %w", err)
			}
			if err := h.SetDefaultScenario(args[0]); err != nil {
				return fmt.Errorf("failed to save default scenario: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Default scenario set to %s\n", args[0])
			return nil
		},
	}
}

func newConfigSetSettlementCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-settlement <id>",
		Short: "Set the settlement reported when --settlement is omitted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := config.NewUserConfigHandler()
			if err != nil {
				return fmt.Errorf("failed to create user config handler: %w", err)
			}
			if err := h.SetDefaultSettlement(args[0]); err != nil {
				return fmt.Errorf("failed to save default settlement: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Default settlement set to %s\n", args[0])
			return nil
		},
	}
}

func newConfigClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear user preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := config.NewUserConfigHandler()
			if err != nil {
				return fmt.Errorf("failed to create user config handler: %w", err)
			}
			if err := h.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ User preferences cleared")
			return nil
		},
	}
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
