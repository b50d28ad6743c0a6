package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mikeday37/maneuver-autothrottle/internal/adapters/persistence"
	"github.com/mikeday37/maneuver-autothrottle/internal/domain/maneuver"
	"github.com/mikeday37/maneuver-autothrottle/internal/infrastructure/database"
)

// NewHistoryCommand creates the history command with subcommands
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded flights",
		Long: `Show what the flight recorder wrote to the configured database.

Burns and resets are listed newest first. Transitions are listed in the order
they happened, optionally for a single session.

Examples:
  autothrottle history burns --limit 5
  autothrottle history transitions --session burn-7-0badf00d
  autothrottle history resets`,
	}

	cmd.AddCommand(newHistoryBurnsCommand())
	cmd.AddCommand(newHistoryTransitionsCommand())
	cmd.AddCommand(newHistoryResetsCommand())

	return cmd
}

func newHistoryBurnsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "burns",
		Short: "List completed burns",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFlightRepository(func(ctx context.Context, repo persistence.FlightRepository) error {
				burns, err := repo.ListBurns(ctx, limit)
				if err != nil {
					return fmt.Errorf("failed to list burns: %w", err)
				}
				displayBurns(cmd.OutOrStdout(), burns)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of burns to show")

	return cmd
}

func newHistoryTransitionsCommand() *cobra.Command {
	var (
		sessionID string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "transitions",
		Short: "List phase transitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFlightRepository(func(ctx context.Context, repo persistence.FlightRepository) error {
				transitions, err := repo.ListTransitions(ctx, sessionID, limit)
				if err != nil {
					return fmt.Errorf("failed to list transitions: %w", err)
				}
				displayTransitions(cmd.OutOrStdout(), transitions)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Only show this session")
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum number of transitions to show")

	return cmd
}

func newHistoryResetsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "resets",
		Short: "List controller resets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFlightRepository(func(ctx context.Context, repo persistence.FlightRepository) error {
				resets, err := repo.ListResets(ctx, limit)
				if err != nil {
					return fmt.Errorf("failed to list resets: %w", err)
				}
				displayResets(cmd.OutOrStdout(), resets)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of resets to show")

	return cmd
}

func withFlightRepository(fn func(context.Context, persistence.FlightRepository) error) error {
	cfg, err := loadedConfig()
	if err != nil {
		return err
	}

	db, err := openDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)

	return fn(context.Background(), persistence.NewGormFlightRepository(db))
}

func displayBurns(out io.Writer, burns []maneuver.BurnCompletedEvent) {
	if len(burns) == 0 {
		fmt.Fprintln(out, "No burns recorded")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tVESSEL\tDELTA-V\tRESIDUAL\tDURATION\tSTAGINGS\tOVERSHOOT\tAT")
	for _, b := range burns {
		fmt.Fprintf(w, "%s\t%d\t%.1f\t%.4f\t%.2fs\t%d\t%t\t%s\n",
			b.SessionID, b.Vessel, b.TotalDeltaV, b.ResidualDeltaV, b.BurnDuration(),
			b.Stagings, b.Overshoot, b.At.Format("2006-01-02 15:04:05"))
	}
	w.Flush()
}

func displayTransitions(out io.Writer, transitions []maneuver.PhaseChangedEvent) {
	if len(transitions) == 0 {
		fmt.Fprintln(out, "No transitions recorded")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tVESSEL\tUT\tFROM\tTO")
	for _, t := range transitions {
		fmt.Fprintf(w, "%s\t%d\t%.2f\t%s\t%s\n", t.SessionID, t.Vessel, t.UT, t.From, t.To)
	}
	w.Flush()
}

func displayResets(out io.Writer, resets []maneuver.ControllerResetEvent) {
	if len(resets) == 0 {
		fmt.Fprintln(out, "No resets recorded")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tVESSEL\tUT\tFROM\tREASON\tAT")
	for _, r := range resets {
		fmt.Fprintf(w, "%s\t%d\t%.2f\t%s\t%s\t%s\n",
			r.SessionID, r.Vessel, r.UT, r.From, r.Reason, r.At.Format("2006-01-02 15:04:05"))
	}
	w.Flush()
}
