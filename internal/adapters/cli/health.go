package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/andrescamacho/colonysim/internal/adapters/grpc"
)

// NewHealthCommand creates the health command
func NewHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check daemon health status",
		Long:  `Verify that the daemon is running and that its engine is ticking.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := grpc.NewHealthClient(daemonAddress)
			if err != nil {
				return fmt.Errorf("failed to connect to daemon: %w", err)
			}
			defer client.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			server, err := client.Check(ctx, "")
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			engine, err := client.Check(ctx, grpc.EngineService)
			if err != nil {
				return fmt.Errorf("engine health check failed: %w", err)
			}

			w := cmd.OutOrStdout()
			green := color.New(color.FgGreen)
			yellow := color.New(color.FgYellow)

			green.Fprintln(w, "✓ Daemon is reachable")
			fmt.Fprintf(w, "  Address: %s\n", daemonAddress)
			fmt.Fprintf(w, "  Server:  %s\n", server)
			fmt.Fprint(w, "  Engine:  ")
			if engine == "SERVING" {
				green.Fprintln(w, engine)
			} else {
				yellow.Fprintln(w, engine)
			}
			return nil
		},
	}
}
