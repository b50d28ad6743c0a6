package autothrottle

import (
	"github.com/mikeday37/maneuver-autothrottle/internal/domain/maneuver"
	"github.com/mikeday37/maneuver-autothrottle/internal/domain/tuning"
)

// afterFarWarp is where the run continues once the far warp is done or
// skipped.
func (c *Controller) afterFarWarp() maneuver.Phase {
	if c.autopilot {
		return maneuver.PhaseNearAim
	}
	return maneuver.PhaseCountdown
}

func (c *Controller) aimed() bool {
	aimErr, ok := c.telemetry.AimError()
	return ok && aimErr <= c.tuning.AimTolerance(c.autopilot)
}

func (c *Controller) handleAim(stabilize maneuver.Phase) {
	if c.changed && c.tuning.ManeuverHold {
		if err := c.actuator.EnableManeuverHold(); err != nil {
			c.logActuatorError("enable maneuver hold", err)
		}
	}

	if c.aimed() {
		c.setNext(stabilize)
	}

	c.skipAhead(true)
}

func (c *Controller) handleAimStabilize(postAim maneuver.Phase) {
	if !c.aimed() {
		// drifted off, start the settling window over
		c.resetCurrentPhase()
	} else if c.settled(c.tuning.AimStabilization) {
		c.setNext(postAim)
	}

	c.skipAhead(true)
}

func (c *Controller) handleWarpStart(margin float64, wait, skipped maneuver.Phase) {
	if c.changed {
		c.warp = nil
	}

	if c.telemetry.WarpStatus() == maneuver.WarpFast {
		c.setNext(wait)
		c.skipAhead(false)
		return
	}

	t, ok := c.timeToBurn()
	if !ok {
		return
	}

	if t <= margin {
		c.logInfo("Skipping warp", map[string]interface{}{"next": skipped, "time_to_burn": t})
		c.setNext(skipped)
	} else {
		c.requestWarp(c.telemetry.CurrentUT() + t - margin)

		// some hosts engage warp synchronously
		if c.warp.Poll(c.telemetry.WarpStatus(), c.telemetry.CurrentUT()) == maneuver.WarpEngaged {
			c.setNext(wait)
		}
	}

	c.skipAhead(false)
}

// requestWarp issues a warp to targetUT unless one went out within the
// retry spacing.
func (c *Controller) requestWarp(targetUT float64) {
	tick := c.counters.lateTicks
	switch {
	case c.warp == nil:
		c.warp = maneuver.NewWarpRequest(targetUT, tick)
	case c.warp.RetryDue(tick, c.tuning.WarpRetrySpacing):
		c.warp.Reissue(targetUT, tick)
	default:
		return
	}

	c.logInfo("Warping", map[string]interface{}{
		"target_ut": targetUT,
		"attempt":   c.warp.Attempts(),
	})
	if err := c.actuator.WarpTo(targetUT); err != nil {
		c.logActuatorError("warp", err)
	}
}

// handleWarpWait waits for the warp to land inside margin. skip is false for
// the near warp, which lands right at the countdown threshold and must still
// reach its rest window.
func (c *Controller) handleWarpWait(margin float64, rest maneuver.Phase, skip bool) {
	status := c.telemetry.WarpStatus()
	if c.warp != nil {
		c.warp.Poll(status, c.telemetry.CurrentUT())
	}

	if t, ok := c.timeToBurn(); ok && !c.changed && status != maneuver.WarpFast && t <= margin {
		c.setNext(rest)
	}

	if skip {
		c.skipAhead(false)
	}
}

func (c *Controller) handleWarpRest(req tuning.StabilizationRequirement, next maneuver.Phase, skip bool) {
	if c.settled(req) {
		c.setNext(next)
	}

	if skip {
		c.skipAhead(false)
	}
}
