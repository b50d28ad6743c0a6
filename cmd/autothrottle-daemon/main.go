package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	switchgrpc "github.com/mikeday37/maneuver-autothrottle/internal/adapters/grpc"
	"github.com/mikeday37/maneuver-autothrottle/internal/adapters/metrics"
	"github.com/mikeday37/maneuver-autothrottle/internal/adapters/persistence"
	"github.com/mikeday37/maneuver-autothrottle/internal/adapters/simhost"
	"github.com/mikeday37/maneuver-autothrottle/internal/application/autothrottle"
	"github.com/mikeday37/maneuver-autothrottle/internal/infrastructure/config"
	"github.com/mikeday37/maneuver-autothrottle/internal/infrastructure/database"
	"github.com/mikeday37/maneuver-autothrottle/internal/infrastructure/logging"
	"github.com/mikeday37/maneuver-autothrottle/internal/infrastructure/pidfile"
)

func main() {
	// Parse command-line flags
	configFlag := flag.String("config", "", "Path to config file")
	scenarioFlag := flag.String("scenario", "", "Scenario to fly (overrides daemon.scenario)")
	flag.Parse()

	fmt.Println("Maneuver Auto-Throttle Daemon v0.1.0")
	fmt.Println("====================================")

	// Load configuration
	fmt.Println("Loading configuration...")
	cfg := config.MustLoadConfig(*configFlag)
	if *scenarioFlag != "" {
		cfg.Daemon.Scenario = *scenarioFlag
	}

	// Acquire PID file lock to prevent multiple instances
	fmt.Printf("Acquiring PID file lock: %s\n", cfg.Daemon.PIDFile)
	pf := pidfile.New(cfg.Daemon.PIDFile)
	if err := pf.Acquire(); err != nil {
		log.Fatalf("Failed to acquire PID file lock: %v", err)
	}
	defer func() {
		if err := pf.Release(); err != nil {
			log.Printf("Warning: failed to release PID file: %v", err)
		}
	}()
	fmt.Println("PID file lock acquired")

	if err := run(cfg); err != nil {
		// os.Exit skips the deferred release
		log.Printf("Fatal error: %v", err)
		pf.Release()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	if cfg.Daemon.Scenario == "" {
		return errors.New("no scenario configured: set daemon.scenario or pass -scenario")
	}

	logger, logCloser, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	scenario, err := simhost.LoadScenario(cfg.Daemon.Scenario)
	if err != nil {
		return err
	}
	fmt.Printf("Scenario loaded: %s (%d maneuvers)\n", cfg.Daemon.Scenario, len(scenario.Maneuvers))

	table, err := cfg.Tuning.ToTable()
	if err != nil {
		return fmt.Errorf("invalid tuning: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	flightLogger := logging.NewFlightLogger(logger)
	vessel := simhost.NewVessel(scenario)
	sw := autothrottle.NewMasterSwitch()
	if scenario.Switch.Enabled {
		sw.Toggle()
	}
	if scenario.Switch.Repeat {
		sw.ToggleRepeat()
	}

	opts := []autothrottle.Option{
		autothrottle.WithLogger(flightLogger),
		autothrottle.WithRedraw(func() {
			logger.Info("master switch released")
		}),
	}

	// Flight recorder
	if !cfg.Daemon.DisableRecorder {
		fmt.Printf("Connecting to %s database...\n", cfg.Database.Type)
		db, err := database.NewConnection(&cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close(db)
		if err := database.AutoMigrate(db); err != nil {
			return err
		}
		fmt.Println("Database connected")

		recorder := persistence.NewFlightRecorder(persistence.NewGormFlightRepository(db), cfg.Daemon.RecorderBuffer, flightLogger)
		opts = append(opts, autothrottle.WithEventSink(recorder))
		g.Go(func() error {
			return recorder.Run(ctx)
		})
	}

	// Metrics collector, registered before the controller publishes anything
	var collector *metrics.FlightMetricsCollector
	var controller *autothrottle.Controller
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		collector = metrics.NewFlightMetricsCollector(func() autothrottle.Snapshot {
			return controller.Snapshot()
		})
		if err := collector.Register(); err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
		opts = append(opts, autothrottle.WithEventSink(collector))
	}

	controller = autothrottle.NewController(vessel, vessel, sw, table, opts...)

	if collector != nil {
		collector.Start(ctx, cfg.Metrics.SnapshotInterval)
		defer collector.Stop()

		server := metrics.NewServer(cfg.Metrics.Host, cfg.Metrics.Port, cfg.Metrics.Path, logger)
		g.Go(func() error {
			return server.Run(ctx)
		})
		fmt.Printf("Metrics on http://%s:%d%s\n", cfg.Metrics.Host, cfg.Metrics.Port, cfg.Metrics.Path)
	}

	// Switch service
	switchServer, err := switchgrpc.NewSwitchServer(
		cfg.Daemon.SocketPath,
		switchgrpc.NewSwitchService(sw, controller.Snapshot, logger),
		logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create switch server: %w", err)
	}
	defer os.Remove(cfg.Daemon.SocketPath)
	g.Go(func() error {
		return switchServer.Serve(ctx)
	})

	fmt.Println("\n✓ Daemon is ready to accept connections")
	fmt.Println("Press Ctrl+C to stop")

	// Flight loop; everything else stops when it ends
	flightCtx, endFlight := context.WithCancel(ctx)
	g.Go(func() error {
		defer endFlight()
		host := simhost.NewHost(scenario, vessel, sw, simhost.WithRealTime())
		result, err := host.Run(flightCtx, controller, nil)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("flight failed: %w", err)
		}
		logger.Info("flight ended",
			"physics_ticks", result.PhysicsTicks,
			"late_ticks", result.LateTicks,
			"end_ut", result.EndUT,
			"nodes_left", vessel.RemainingManeuvers(),
		)
		return nil
	})
	g.Go(func() error {
		<-flightCtx.Done()
		stop()
		return nil
	})

	waitErr := make(chan error, 1)
	go func() { waitErr <- g.Wait() }()

	select {
	case err := <-waitErr:
		if err != nil {
			return err
		}
	case <-shutdownDeadline(ctx, cfg.Daemon.ShutdownTimeout):
		return fmt.Errorf("shutdown did not finish within %s", cfg.Daemon.ShutdownTimeout)
	}

	fmt.Println("\nDaemon stopped")
	return nil
}

// shutdownDeadline fires timeout after ctx is done.
func shutdownDeadline(ctx context.Context, timeout time.Duration) <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		<-ctx.Done()
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		<-timer.C
		close(ch)
	}()
	return ch
}
