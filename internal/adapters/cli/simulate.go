package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mikeday37/maneuver-autothrottle/internal/adapters/simhost"
	"github.com/mikeday37/maneuver-autothrottle/internal/application/common"
	"github.com/mikeday37/maneuver-autothrottle/internal/domain/maneuver"
	"github.com/mikeday37/maneuver-autothrottle/internal/infrastructure/database"
	"github.com/mikeday37/maneuver-autothrottle/internal/infrastructure/logging"
)

// NewSimulateCommand creates the simulate command
func NewSimulateCommand() *cobra.Command {
	var (
		record     bool
		untilReset bool
		quiet      bool
	)

	cmd := &cobra.Command{
		Use:   "simulate <scenario.yaml>",
		Short: "Fly a scenario as fast as possible and print the timeline",
		Long: `Fly a scenario against the controller without pacing against the wall clock.

Every phase change, completed burn and reset is printed with its time relative
to the scenario start, followed by a summary. With --record the events are also
written to the configured database.

Examples:
  autothrottle simulate configs/scenarios/single_burn.yaml
  autothrottle simulate configs/scenarios/repeat.yaml --record
  autothrottle simulate configs/scenarios/single_burn.yaml --until-reset=false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadedConfig()
			if err != nil {
				return err
			}

			scenario, err := simhost.LoadScenario(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tl := newTimeline(out, scenario.StartUT, quiet)
			opts := flightOptions{
				sinks: maneuver.EventSinks{tl},
				redraw: func() {
					if !quiet {
						fmt.Fprintln(out, "  master switch released")
					}
				},
			}

			var flightLogger common.FlightLogger = common.NoOpLogger()
			if verbose {
				logger, closer, err := logging.New(cfg.Logging)
				if err != nil {
					return err
				}
				defer closer.Close()
				flightLogger = logging.NewFlightLogger(logger)
				opts.logger = flightLogger
			}

			ctx := cmd.Context()
			if record {
				db, recorder, err := openRecorder(&cfg.Database, cfg.Daemon.RecorderBuffer, flightLogger)
				if err != nil {
					return fmt.Errorf("failed to open flight recorder: %w", err)
				}
				defer database.Close(db)
				stopRecorder := runRecorder(ctx, recorder)
				defer stopRecorder()
				opts.sinks = append(opts.sinks, recorder)
			}

			f, err := newFlight(scenario, cfg.Tuning, opts)
			if err != nil {
				return err
			}

			name := scenario.Name
			if name == "" {
				name = args[0]
			}
			fmt.Fprintf(out, "Flying %s (%d maneuvers)\n", name, len(scenario.Maneuvers))

			var stop func() bool
			if untilReset {
				stop = func() bool { return len(tl.resets) > 0 }
			}
			result, err := f.host.Run(ctx, f.controller, stop)
			if err != nil {
				return fmt.Errorf("simulation failed: %w", err)
			}

			printSummary(out, result, tl, f.vessel)
			return nil
		},
	}

	cmd.Flags().BoolVar(&record, "record", false, "Write events to the configured database")
	cmd.Flags().BoolVar(&untilReset, "until-reset", true, "Stop at the first controller reset")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print only the summary")

	return cmd
}

func printSummary(out io.Writer, result simhost.RunResult, tl *timeline, vessel *simhost.Vessel) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Summary")
	fmt.Fprintf(out, "  simulated:     %.2fs (UT %.2f to %.2f)\n", result.RealSeconds, result.StartUT, result.EndUT)
	fmt.Fprintf(out, "  ticks:         %d physics, %d late\n", result.PhysicsTicks, result.LateTicks)
	fmt.Fprintf(out, "  transitions:   %d\n", tl.transitions)
	fmt.Fprintf(out, "  burns:         %d\n", len(tl.burns))
	for i, b := range tl.burns {
		overshoot := ""
		if b.Overshoot {
			overshoot = " (overshoot)"
		}
		fmt.Fprintf(out, "    #%d  %.1f m/s in %.2fs, residual %.4f m/s, %d stagings%s\n",
			i+1, b.TotalDeltaV, b.BurnDuration(), b.ResidualDeltaV, b.Stagings, overshoot)
	}
	fmt.Fprintf(out, "  resets:        %d\n", len(tl.resets))
	for _, r := range tl.resets {
		fmt.Fprintf(out, "    from %s (%s)\n", r.From, r.Reason)
	}
	fmt.Fprintf(out, "  nodes left:    %d\n", vessel.RemainingManeuvers())
	if !result.Stopped {
		fmt.Fprintln(out, "  ran to max_seconds")
	}
}
