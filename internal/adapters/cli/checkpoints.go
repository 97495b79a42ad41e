package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/andrescamacho/colonysim/internal/adapters/persistence"
	"github.com/andrescamacho/colonysim/internal/application/simulation"
	"github.com/andrescamacho/colonysim/internal/infrastructure/database"
)

// NewCheckpointsCommand creates the checkpoints command with subcommands
func NewCheckpointsCommand() *cobra.Command {
	var runID string
	cmd := &cobra.Command{
		Use:   "checkpoints",
		Short: "Inspect persisted checkpoints of a run",
		Long: `Inspect the task and mission checkpoints written by 'colonysim run --persist'
or the daemon.

Examples:
  colonysim checkpoints list --run <run-id> --limit 5
  colonysim checkpoints latest --run <run-id>
  colonysim checkpoints prune --run <run-id> --keep 10`,
	}
	cmd.PersistentFlags().StringVar(&runID, "run", "", "Run ID (required)")
	_ = cmd.MarkPersistentFlagRequired("run")

	cmd.AddCommand(newCheckpointsListCommand(&runID))
	cmd.AddCommand(newCheckpointsLatestCommand(&runID))
	cmd.AddCommand(newCheckpointsPruneCommand(&runID))
	return cmd
}

func newCheckpointsListCommand(runID *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent checkpoints, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeDB, err := checkpointRepository()
			if err != nil {
				return err
			}
			defer closeDB()

			cps, err := repo.List(cmd.Context(), *runID, limit)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(cps) == 0 {
				fmt.Fprintf(w, "No checkpoints for run %s\n", *runID)
				return nil
			}
			fmt.Fprintf(w, "%-8s %-16s %-6s %-8s %s\n", "TICK", "TIME", "TASKS", "MISSIONS", "SAVED")
			for _, cp := range cps {
				fmt.Fprintf(w, "%-8d %-16s %-6d %-8d %s\n",
					cp.Tick, cp.Time, len(cp.Tasks), len(cp.Missions), cp.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum checkpoints to list")
	return cmd
}

func newCheckpointsLatestCommand(runID *string) *cobra.Command {
	return &cobra.Command{
		Use:   "latest",
		Short: "Show the most recent checkpoint in detail",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, closeDB, err := checkpointRepository()
			if err != nil {
				return err
			}
			defer closeDB()

			cp, err := repo.Latest(cmd.Context(), *runID)
			if err != nil {
				return err
			}
			if cp == nil {
				return fmt.Errorf("no checkpoints for run %s", *runID)
			}
			printCheckpoint(cmd.OutOrStdout(), cp)
			return nil
		},
	}
}

func newCheckpointsPruneCommand(runID *string) *cobra.Command {
	var keep int
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest checkpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			if keep < 1 {
				return fmt.Errorf("--keep must be at least 1")
			}
			repo, closeDB, err := checkpointRepository()
			if err != nil {
				return err
			}
			defer closeDB()

			removed, err := repo.Prune(cmd.Context(), *runID, keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %d checkpoints, kept %d\n", removed, keep)
			return nil
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 10, "Checkpoints to keep")
	return cmd
}

func checkpointRepository() (*persistence.GormCheckpointRepository, func(), error) {
	db, err := openDatabase(loadConfig())
	if err != nil {
		return nil, nil, err
	}
	return persistence.NewGormCheckpointRepository(db), func() { database.Close(db) }, nil
}

func printCheckpoint(w io.Writer, cp *simulation.Checkpoint) {
	cyan := color.New(color.FgCyan, color.Bold)
	faint := color.New(color.Faint)

	cyan.Fprintf(w, "Checkpoint %d of run %s\n", cp.Tick, cp.RunID)
	fmt.Fprintf(w, "  Simulated time: %s\n", cp.Time)
	fmt.Fprintf(w, "  Saved:          %s\n", cp.CreatedAt.Format("2006-01-02 15:04:05"))

	tasks := append(cp.Tasks[:0:0], cp.Tasks...)
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ActorID < tasks[j].ActorID })
	cyan.Fprintf(w, "\nTasks (%d):\n", len(tasks))
	for _, t := range tasks {
		fmt.Fprintf(w, "  %-10s %-20s %-18s effort %.1f", t.ActorID, t.Name, t.Phase, t.Effort)
		if t.Ended {
			faint.Fprintf(w, "  ended: %s", t.Reason)
		}
		fmt.Fprintln(w)
	}

	cyan.Fprintf(w, "\nMissions (%d):\n", len(cp.Missions))
	fmt.Fprint(w, NewReportFormatter(!color.NoColor).FormatMissions(cp.Missions))
}
