package autothrottle

import "github.com/mikeday37/maneuver-autothrottle/internal/domain/maneuver"

func (c *Controller) handleDone() {
	if !c.autopilot || !c.sw.IsRepeatEnabled() {
		c.logInfo("Disengaging for manual resolution", nil)
		c.setNext(maneuver.PhaseIdle)
		return
	}

	if err := c.actuator.DeleteNextManeuverNode(); err != nil {
		c.logActuatorError("delete maneuver node", err)
	}

	if c.telemetry.ManeuverPlanned() {
		c.logInfo("Next maneuver", nil)
		c.setNext(maneuver.PhaseNextManeuver)
	} else {
		c.logInfo("No further maneuvers planned", nil)
		c.setNext(maneuver.PhaseIdle)
	}
}

// handleStaging waits for the operator to stage and throttle up again.
func (c *Controller) handleStaging() {
	if c.telemetry.Throttle() > 0 && !c.telemetry.StageExhausted() {
		c.setNext(c.resumeAfterStaging)
	}
}

func (c *Controller) handleNextManeuver() {
	if c.settled(c.tuning.NextManeuverCooldown) {
		c.startDecision(false)
	}
}
