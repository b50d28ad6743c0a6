package cli

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/mikeday37/maneuver-autothrottle/internal/adapters/persistence"
	"github.com/mikeday37/maneuver-autothrottle/internal/adapters/simhost"
	"github.com/mikeday37/maneuver-autothrottle/internal/application/autothrottle"
	"github.com/mikeday37/maneuver-autothrottle/internal/application/common"
	"github.com/mikeday37/maneuver-autothrottle/internal/domain/maneuver"
	"github.com/mikeday37/maneuver-autothrottle/internal/infrastructure/config"
	"github.com/mikeday37/maneuver-autothrottle/internal/infrastructure/database"
)

// flight is one scenario wired to a controller.
type flight struct {
	scenario   *simhost.Scenario
	vessel     *simhost.Vessel
	sw         *autothrottle.MasterSwitch
	controller *autothrottle.Controller
	host       *simhost.Host
}

type flightOptions struct {
	sinks    maneuver.EventSinks
	logger   common.FlightLogger
	redraw   func()
	realTime bool
}

// newFlight builds the vessel, switch, controller and host for a scenario.
// The switch starts in the positions the scenario asks for.
func newFlight(scenario *simhost.Scenario, tuningCfg config.TuningConfig, opts flightOptions) (*flight, error) {
	table, err := tuningCfg.ToTable()
	if err != nil {
		return nil, fmt.Errorf("invalid tuning: %w", err)
	}

	vessel := simhost.NewVessel(scenario)
	sw := autothrottle.NewMasterSwitch()
	if scenario.Switch.Enabled {
		sw.Toggle()
	}
	if scenario.Switch.Repeat {
		sw.ToggleRepeat()
	}

	var controllerOpts []autothrottle.Option
	for _, sink := range opts.sinks {
		controllerOpts = append(controllerOpts, autothrottle.WithEventSink(sink))
	}
	if opts.logger != nil {
		controllerOpts = append(controllerOpts, autothrottle.WithLogger(opts.logger))
	}
	if opts.redraw != nil {
		controllerOpts = append(controllerOpts, autothrottle.WithRedraw(opts.redraw))
	}
	controller := autothrottle.NewController(vessel, vessel, sw, table, controllerOpts...)

	var hostOpts []simhost.HostOption
	if opts.realTime {
		hostOpts = append(hostOpts, simhost.WithRealTime())
	}

	return &flight{
		scenario:   scenario,
		vessel:     vessel,
		sw:         sw,
		controller: controller,
		host:       simhost.NewHost(scenario, vessel, sw, hostOpts...),
	}, nil
}

// openRecorder connects to the configured database and builds a recorder
// on it. The caller runs the recorder and closes the database.
func openRecorder(dbCfg *config.DatabaseConfig, buffer int, logger common.FlightLogger) (*gorm.DB, *persistence.FlightRecorder, error) {
	db, err := openDatabase(dbCfg)
	if err != nil {
		return nil, nil, err
	}
	repo := persistence.NewGormFlightRepository(db)
	return db, persistence.NewFlightRecorder(repo, buffer, logger), nil
}

func openDatabase(dbCfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := database.NewConnection(dbCfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		database.Close(db)
		return nil, err
	}
	return db, nil
}

// runRecorder starts the recorder and returns a function that stops it and
// waits for the queue to drain.
func runRecorder(ctx context.Context, recorder *persistence.FlightRecorder) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := recorder.Run(ctx); err != nil {
			slog.Error("flight recorder stopped", "error", err)
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
