package cli

import (
	"fmt"
	"io"

	"github.com/mikeday37/maneuver-autothrottle/internal/domain/maneuver"
)

// timeline prints controller events as they happen, with UT relative to
// the scenario start.
type timeline struct {
	out     io.Writer
	startUT float64
	quiet   bool

	transitions int
	burns       []maneuver.BurnCompletedEvent
	resets      []maneuver.ControllerResetEvent
}

func newTimeline(out io.Writer, startUT float64, quiet bool) *timeline {
	return &timeline{out: out, startUT: startUT, quiet: quiet}
}

func (t *timeline) PhaseChanged(e maneuver.PhaseChangedEvent) {
	t.transitions++
	if !t.quiet {
		fmt.Fprintf(t.out, "  T%+9.2fs  %-20s -> %s\n", e.UT-t.startUT, e.From, e.To)
	}
}

func (t *timeline) ThrottleCommanded(maneuver.ThrottleCommandedEvent) {}

func (t *timeline) BurnCompleted(e maneuver.BurnCompletedEvent) {
	t.burns = append(t.burns, e)
	if !t.quiet {
		fmt.Fprintf(t.out, "  T%+9.2fs  burn complete: %.4f m/s left of %.1f m/s\n",
			e.BurnEndUT-t.startUT, e.ResidualDeltaV, e.TotalDeltaV)
	}
}

func (t *timeline) ControllerReset(e maneuver.ControllerResetEvent) {
	t.resets = append(t.resets, e)
	if !t.quiet {
		fmt.Fprintf(t.out, "  T%+9.2fs  reset from %s (%s)\n", e.UT-t.startUT, e.From, e.Reason)
	}
}
