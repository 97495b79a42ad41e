package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/andrescamacho/colonysim/internal/adapters/grpc"
	"github.com/andrescamacho/colonysim/internal/adapters/metrics"
	"github.com/andrescamacho/colonysim/internal/application/common"
	"github.com/andrescamacho/colonysim/internal/application/simulation"
	"github.com/andrescamacho/colonysim/internal/domain/shared"
	"github.com/andrescamacho/colonysim/internal/infrastructure/bootstrap"
	"github.com/andrescamacho/colonysim/internal/infrastructure/config"
	"github.com/andrescamacho/colonysim/internal/infrastructure/database"
	"github.com/andrescamacho/colonysim/internal/infrastructure/logging"
	"github.com/andrescamacho/colonysim/internal/infrastructure/pidfile"
)

func main() {
	forceFlag := flag.Bool("force", false, "Stop any existing daemon and start a new one")
	configFlag := flag.String("config", "", "Path to colony.yaml (default: search ./, ./configs, /etc/colonysim)")
	scenarioFlag := flag.String("scenario", "", "Scenario YAML (overrides simulation.scenario_path)")
	flag.Parse()

	fmt.Println("Colony Simulation Daemon v0.1.0")
	fmt.Println("===============================")

	cfg := config.MustLoadConfig(*configFlag)
	if *scenarioFlag != "" {
		cfg.Simulation.ScenarioPath = *scenarioFlag
	}

	fmt.Printf("Acquiring PID file lock: %s\n", cfg.Daemon.PIDFile)
	pf := pidfile.New(cfg.Daemon.PIDFile)
	if err := pf.Acquire(); err != nil {
		if !*forceFlag {
			log.Fatalf("Failed to acquire PID file lock: %v\nUse --force to stop the existing daemon", err)
		}
		fmt.Println("Force mode enabled - stopping existing daemon...")
		if killErr := pf.KillExisting(cfg.Daemon.ShutdownTimeout); killErr != nil {
			log.Fatalf("Failed to stop existing daemon: %v", killErr)
		}
		if err := pf.Acquire(); err != nil {
			log.Fatalf("Failed to acquire PID file lock after stopping existing daemon: %v", err)
		}
	}
	defer func() {
		if err := pf.Release(); err != nil {
			log.Printf("Warning: failed to release PID file: %v", err)
		}
	}()

	if err := run(cfg); err != nil {
		log.Printf("Fatal error: %v", err)
		pf.Release()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	slogger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer closer.Close()
	logger := logging.NewSlogLogger(slogger)

	if cfg.Simulation.ScenarioPath == "" {
		return fmt.Errorf("no scenario configured: set simulation.scenario_path or pass --scenario")
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	rt, err := bootstrap.LoadAndBuild(cfg, cfg.Simulation.ScenarioPath, db, logger.With("component", "engine"))
	if err != nil {
		return err
	}
	logger = logger.With("run_id", rt.RunID)
	logger.Log(shared.LevelInfo, "simulation loaded", map[string]interface{}{
		"scenario":    cfg.Simulation.ScenarioPath,
		"settlements": len(rt.World.Settlements.AllSettlements()),
		"actors":      len(rt.World.Actors.All()),
		"start":       rt.World.Clock.Now().String(),
	})

	health, err := grpc.NewHealthServer(cfg.Daemon.Address, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = common.WithLogger(ctx, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return health.Serve(gctx) })

	if cfg.Metrics.Enabled {
		srv := metricsServer(cfg.Metrics)
		g.Go(func() error {
			logger.Log(shared.LevelInfo, "metrics endpoint listening", map[string]interface{}{"addr": srv.Addr})
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Daemon.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		rt.Settlements.Start(gctx)
		defer rt.Settlements.Stop()
	}

	runner := simulation.NewRunner(rt.Engine, simulation.RunnerConfig{
		TicksPerSecond: cfg.Simulation.TicksPerSecond,
		Burst:          cfg.Simulation.Burst,
		StatusInterval: cfg.Daemon.StatusInterval,
	}, logger)
	g.Go(func() error {
		health.SetEngineServing(true)
		defer health.SetEngineServing(false)
		if err := runner.Run(gctx); err != nil {
			return fmt.Errorf("engine stopped: %w", err)
		}
		return nil
	})

	fmt.Println("\n✓ Daemon is running")
	fmt.Println("Press Ctrl+C to stop")

	err = g.Wait()
	logger.Log(shared.LevelInfo, "daemon stopped", map[string]interface{}{
		"ticks": rt.Engine.TickCount(),
		"time":  rt.World.Clock.Now().String(),
	})
	return err
}

func metricsServer(cfg config.MetricsConfig) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
