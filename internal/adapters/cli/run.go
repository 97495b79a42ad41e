package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/andrescamacho/colonysim/internal/application/common"
	"github.com/andrescamacho/colonysim/internal/application/simulation/commands"
	"github.com/andrescamacho/colonysim/internal/application/simulation/queries"
	"github.com/andrescamacho/colonysim/internal/domain/settlement"
	"github.com/andrescamacho/colonysim/internal/infrastructure/bootstrap"
	"github.com/andrescamacho/colonysim/internal/infrastructure/config"
	"github.com/andrescamacho/colonysim/internal/infrastructure/database"
	"github.com/andrescamacho/colonysim/internal/infrastructure/logging"
)

type runOptions struct {
	scenario   string
	ticks      int
	seed       int64
	persist    bool
	deliveries []string
	emergency  []string
	goods      map[string]string
	settlement string
	preempt    bool
}

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a scenario in-process for a number of ticks",
		Long: `Load a scenario, optionally launch missions, run the engine for the
requested number of ticks and print a report of every settlement.

With --persist, checkpoints and events are written to the configured database
so they can be inspected afterwards with 'colonysim checkpoints' and
'colonysim events'.

Examples:
  colonysim run --scenario configs/scenarios/alpha-base.yaml --ticks 1000
  colonysim run --ticks 300 --deliver alpha:beta --goods water=100,oxygen=40
  colonysim run --ticks 300 --emergency alpha:beta --persist`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if cmd.Flags().Changed("seed") {
				cfg.Simulation.Seed = opts.seed
			}
			return runScenario(cmd.Context(), cmd.OutOrStdout(), cfg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.scenario, "scenario", "", "Scenario YAML to load")
	cmd.Flags().IntVar(&opts.ticks, "ticks", 100, "Number of ticks to run")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "Random seed (overrides simulation.seed)")
	cmd.Flags().BoolVar(&opts.persist, "persist", false, "Write checkpoints and events to the database")
	cmd.Flags().StringSliceVar(&opts.deliveries, "deliver", nil, "Start a delivery mission home:destination before running")
	cmd.Flags().StringSliceVar(&opts.emergency, "emergency", nil, "Evaluate an emergency supply home:target before running")
	cmd.Flags().StringToStringVar(&opts.goods, "goods", nil, "Goods for --deliver missions, e.g. water=100,oxygen=40")
	cmd.Flags().StringVar(&opts.settlement, "settlement", "", "Only report this settlement")
	cmd.Flags().BoolVar(&opts.preempt, "preempt", false, "Let missions recruit settlers that are busy")

	return cmd
}

func runScenario(parent context.Context, w io.Writer, cfg *config.Config, opts *runOptions) error {
	if opts.ticks <= 0 {
		return fmt.Errorf("--ticks must be positive")
	}
	path, err := resolveScenario(opts.scenario, cfg)
	if err != nil {
		return err
	}
	goods, err := parseGoods(opts.goods)
	if err != nil {
		return err
	}

	if verbose {
		cfg.Logging.Level = "debug"
	}
	slogger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer closer.Close()
	logger := logging.NewSlogLogger(slogger)

	rt, cleanup, err := buildRuntime(cfg, path, opts.persist, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = common.WithLogger(ctx, logger)
	med := rt.Mediator
	formatter := NewReportFormatter(!color.NoColor)
	cyan := color.New(color.FgCyan, color.Bold)

	cyan.Fprintf(w, "Run %s\n", rt.RunID)
	fmt.Fprintf(w, "  Scenario: %s\n", path)
	fmt.Fprintf(w, "  Start:    %s\n\n", rt.World.Clock.Now())

	for _, route := range opts.deliveries {
		home, dest, err := parseRoute(route)
		if err != nil {
			return err
		}
		resp, err := med.Send(ctx, &commands.StartDeliveryMissionCommand{
			Name:          fmt.Sprintf("Delivery %s to %s", home, dest),
			HomeID:        home,
			DestinationID: dest,
			Goods:         goods,
			Preempt:       opts.preempt,
		})
		if err != nil {
			return fmt.Errorf("delivery %s: %w", route, err)
		}
		printLaunch(w, route, resp.(*commands.StartMissionResponse))
	}
	for _, route := range opts.emergency {
		home, target, err := parseRoute(route)
		if err != nil {
			return err
		}
		resp, err := med.Send(ctx, &commands.DispatchEmergencySupplyCommand{
			HomeID:   home,
			TargetID: target,
			Preempt:  opts.preempt,
		})
		if err != nil {
			return fmt.Errorf("emergency supply %s: %w", route, err)
		}
		dispatch := resp.(*commands.DispatchEmergencySupplyResponse)
		if dispatch.Mission != nil {
			printLaunch(w, route, dispatch.Mission)
		} else {
			fmt.Fprintf(w, "Emergency supply %s not dispatched: %s\n", route, dispatch.Reason)
		}
	}

	resp, runErr := med.Send(ctx, &commands.RunTicksCommand{Ticks: opts.ticks})
	if ran, ok := resp.(*commands.RunTicksResponse); ok && ran != nil {
		fmt.Fprintf(w, "\nRan %d ticks, now %s\n", ran.TicksRun, ran.Time)
		fmt.Fprintf(w, "  Tasks started:    %d\n", ran.TasksStarted)
		fmt.Fprintf(w, "  Missions ended:   %d\n", ran.MissionsEnded)
		fmt.Fprintf(w, "  Events:           %d\n", ran.Events)
		fmt.Fprintf(w, "  Checkpoints:      %d\n", ran.Checkpoints)
		if len(ran.Resupplies) > 0 {
			fmt.Fprintf(w, "  Resupplies:       %s\n", strings.Join(ran.Resupplies, ", "))
		}
		fmt.Fprintln(w)
	}
	if runErr != nil {
		color.New(color.FgRed).Fprintf(w, "✗ %v\n", runErr)
	}

	ids := []string{opts.settlement}
	if opts.settlement == "" {
		ids = ids[:0]
		for _, s := range rt.World.Settlements.AllSettlements() {
			ids = append(ids, s.ID())
		}
	}
	for _, id := range ids {
		report, err := med.Send(ctx, &queries.GetSettlementReportQuery{SettlementID: id})
		if err != nil {
			return err
		}
		fmt.Fprintln(w, formatter.FormatSettlement(report.(*queries.SettlementReport)))
	}

	listed, err := med.Send(ctx, &queries.ListMissionsQuery{IncludeEnded: true})
	if err != nil {
		return err
	}
	missions := listed.(*queries.ListMissionsResponse).Missions
	cyan.Fprintln(w, formatter.FormatMissionSummary(missions))
	fmt.Fprint(w, formatter.FormatMissions(missions))

	return runErr
}

func buildRuntime(cfg *config.Config, path string, persist bool, logger *logging.SlogLogger) (*bootstrap.Runtime, func(), error) {
	if !persist {
		rt, err := bootstrap.LoadAndBuild(cfg, path, nil, logger)
		return rt, func() {}, err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	rt, err := bootstrap.LoadAndBuild(cfg, path, db, logger)
	if err != nil {
		database.Close(db)
		return nil, nil, err
	}
	return rt, func() { database.Close(db) }, nil
}

func printLaunch(w io.Writer, route string, resp *commands.StartMissionResponse) {
	if !resp.Started {
		color.New(color.FgYellow).Fprintf(w, "Mission %s not started: %s\n", route, resp.Reason)
		return
	}
	color.New(color.FgGreen).Fprintf(w, "✓ Mission %q started", resp.Name)
	fmt.Fprintf(w, " (vehicle %s, crew %s)\n", resp.VehicleID, strings.Join(resp.Members, ", "))
}

func parseGoods(in map[string]string) (map[settlement.ResourceType]float64, error) {
	if len(in) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(in))
	for name := range in {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[settlement.ResourceType]float64, len(in))
	for _, name := range names {
		amount, err := strconv.ParseFloat(in[name], 64)
		if err != nil || amount <= 0 {
			return nil, fmt.Errorf("invalid amount %q for %s", in[name], name)
		}
		out[settlement.ResourceType(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), " ", "_")))] = amount
	}
	return out, nil
}
