package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/andrescamacho/colonysim/internal/adapters/persistence"
	"github.com/andrescamacho/colonysim/internal/domain/event"
	"github.com/andrescamacho/colonysim/internal/infrastructure/database"
)

// NewEventsCommand creates the events command
func NewEventsCommand() *cobra.Command {
	var (
		runID  string
		filter persistence.EventLogFilter
		kind   string
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List persisted simulation events of a run",
		Long: `List the events recorded by a persisted run in sequence order.

Examples:
  colonysim events --run <run-id>
  colonysim events --run <run-id> --type MISSION_PHASE --settlement alpha
  colonysim events --run <run-id> --actor p1 --limit 50 --offset 100`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase(loadConfig())
			if err != nil {
				return err
			}
			defer database.Close(db)

			repo := persistence.NewGormEventLogRepository(db, nil)
			filter.Type = event.Type(kind)
			events, err := repo.List(cmd.Context(), runID, filter)
			if err != nil {
				return err
			}
			total, err := repo.Count(cmd.Context(), runID)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintf(w, "No matching events (%d recorded for run %s)\n", total, runID)
				return nil
			}
			typeColor := color.New(color.FgCyan)
			for _, e := range events {
				fmt.Fprintf(w, "%6d %-16s ", e.Seq, e.Time)
				typeColor.Fprintf(w, "%-20s", e.Type)
				fmt.Fprintf(w, " %-10s %-8s %s\n", e.Settlement, e.Actor, e.Message)
			}
			fmt.Fprintf(w, "\nShowing %d of %d events\n", len(events), total)
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Run ID (required)")
	cmd.Flags().StringVar(&kind, "type", "", "Only events of this type, e.g. TASK_ENDED")
	cmd.Flags().StringVar(&filter.Settlement, "settlement", "", "Only events at this settlement")
	cmd.Flags().StringVar(&filter.Actor, "actor", "", "Only events about this actor")
	cmd.Flags().IntVar(&filter.Limit, "limit", 100, "Maximum events to show")
	cmd.Flags().IntVar(&filter.Offset, "offset", 0, "Events to skip")
	_ = cmd.MarkFlagRequired("run")

	return cmd
}
