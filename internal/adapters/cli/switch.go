package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	switchgrpc "github.com/mikeday37/maneuver-autothrottle/internal/adapters/grpc"
)

const switchTimeout = 5 * time.Second

// NewSwitchCommand creates the switch command with subcommands
func NewSwitchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "switch",
		Short: "Operate the master switch of a running daemon",
		Long: `Operate the master switch of a running daemon.

The controller only flies while the switch is on. It turns the switch off by
itself when a maneuver completes without repeat, when the vessel changes, or
when the node disappears.

Examples:
  autothrottle switch status
  autothrottle switch toggle
  autothrottle switch repeat
  autothrottle switch disable`,
	}

	cmd.AddCommand(newSwitchStatusCommand())
	cmd.AddCommand(newSwitchActionCommand("toggle", "Flip the master switch", "enabled",
		(*switchgrpc.SwitchClient).Toggle))
	cmd.AddCommand(newSwitchActionCommand("repeat", "Flip the repeat flag", "repeat",
		(*switchgrpc.SwitchClient).ToggleRepeat))
	cmd.AddCommand(newSwitchActionCommand("disable", "Turn the master switch off", "was enabled",
		(*switchgrpc.SwitchClient).Disable))

	return cmd
}

func newSwitchStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the controller's latest snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSwitchClient(func(ctx context.Context, client *switchgrpc.SwitchClient) error {
				status, err := client.Status(ctx)
				if err != nil {
					return err
				}
				displayStatus(cmd.OutOrStdout(), status)
				return nil
			})
		},
	}
}

func newSwitchActionCommand(use, short, label string, action func(*switchgrpc.SwitchClient, context.Context) (bool, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSwitchClient(func(ctx context.Context, client *switchgrpc.SwitchClient) error {
				value, err := action(client, ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", label, onOff(value))
				return nil
			})
		},
	}
}

func withSwitchClient(fn func(context.Context, *switchgrpc.SwitchClient) error) error {
	client, err := switchgrpc.NewSwitchClient(socketPath)
	if err != nil {
		return fmt.Errorf("failed to connect to daemon: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), switchTimeout)
	defer cancel()

	return fn(ctx, client)
}

func displayStatus(out io.Writer, s switchgrpc.Status) {
	fmt.Fprintf(out, "Phase:          %s\n", s.Phase)
	if s.Pending != "" {
		fmt.Fprintf(out, "Pending:        %s\n", s.Pending)
	}
	fmt.Fprintf(out, "Switch:         %s (repeat %s)\n", onOff(s.Enabled), onOff(s.RepeatEnabled))
	if s.SessionID != "" {
		fmt.Fprintf(out, "Session:        %s\n", s.SessionID)
	}
	fmt.Fprintf(out, "Vessel:         %d\n", s.Vessel)
	fmt.Fprintf(out, "UT:             %.2f\n", s.UT)
	fmt.Fprintf(out, "Phase age:      %.2fs (%d physics, %d late ticks)\n", s.PhaseAge, s.PhysicsTicks, s.LateTicks)
	fmt.Fprintf(out, "Autopilot:      %s\n", onOff(s.Autopilot))
	if s.Acceleration != nil {
		fmt.Fprintf(out, "Acceleration:   %.3f m/s²\n", *s.Acceleration)
	}
	if s.BurnTimeRemaining != nil {
		fmt.Fprintf(out, "Burn remaining: %.2fs\n", *s.BurnTimeRemaining)
	}
	if s.WarpAttempts > 0 {
		fmt.Fprintf(out, "Warp attempts:  %d (target UT %.2f)\n", s.WarpAttempts, s.WarpTargetUT)
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
