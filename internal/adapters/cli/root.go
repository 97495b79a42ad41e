package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath    string
	daemonAddress string
	noColor       bool
	verbose       bool
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "colonysim",
		Short: "Colony simulation CLI - run scenarios and inspect their history",
		Long: `colonysim runs Mars settlement scenarios in-process and inspects the
checkpoints and events a run leaves in the database. The health command
talks to a running colony-daemon over gRPC.

Examples:
  colonysim run --scenario configs/scenarios/alpha-base.yaml --ticks 1000
  colonysim run --ticks 500 --deliver alpha:beta --persist
  colonysim checkpoints latest --run <run-id>
  colonysim events --run <run-id> --type TASK_ENDED --limit 20
  colonysim health`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to colony.yaml (default: search ./, ./configs, /etc/colonysim)")
	rootCmd.PersistentFlags().StringVar(&daemonAddress, "address", getDefaultDaemonAddress(),
		"Daemon gRPC address (host:port or unix:/path)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"Disable coloured output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")

	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewCheckpointsCommand())
	rootCmd.AddCommand(NewEventsCommand())
	rootCmd.AddCommand(NewHealthCommand())
	rootCmd.AddCommand(NewConfigCommand())

	return rootCmd
}

// getDefaultDaemonAddress returns the default daemon address
func getDefaultDaemonAddress() string {
	if addr := os.Getenv("COLONY_DAEMON_ADDRESS"); addr != "" {
		return addr
	}
	return "localhost:50061"
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
