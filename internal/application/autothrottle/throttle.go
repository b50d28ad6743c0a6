package autothrottle

import (
	"fmt"
	"math"

	"github.com/mikeday37/maneuver-autothrottle/internal/application/common"
	"github.com/mikeday37/maneuver-autothrottle/internal/domain/maneuver"
	"github.com/mikeday37/maneuver-autothrottle/pkg/utils"
)

var sqrtHalf = math.Sqrt(0.5)

func (c *Controller) handleCountdown() {
	m, ok := c.telemetry.NextManeuver()
	if !ok {
		return
	}
	now := c.telemetry.CurrentUT()

	if c.telemetry.Throttle() != 0 {
		c.logInfo("Throttle already engaged, treating current setting as max", nil)
		c.beginBurn(m, now)
		c.setNext(maneuver.PhaseThrottleMax)
		c.throttleCheck()
		return
	}

	ramp := c.tuning.IgnitionRamp
	if m.TimeToBurnStart(now) <= ramp*sqrtHalf {
		// centre the ramp on the nominal burn start
		c.targetMaxThrottleUT = m.BurnStartUT + ramp*(1-sqrtHalf)
		c.beginBurn(m, now)
		c.commandThrottle(c.tuning.InitialThrottle, true)
		c.setNext(maneuver.PhaseThrottleUp)
		c.throttleCheck()
	}
}

// beginBurn records the delta-V baseline and the burn summary start.
func (c *Controller) beginBurn(m maneuver.Maneuver, now float64) {
	c.lastRemaining = m.RemainingDeltaV
	c.hasLastRemaining = true
	c.burn = burnRecord{
		active:      true,
		startUT:     now,
		totalDeltaV: m.TotalDeltaV,
	}
}

func (c *Controller) handleThrottleUp() {
	if c.throttleCheck() {
		return
	}

	ramp := c.tuning.IgnitionRamp
	secondsToMax := c.targetMaxThrottleUT - c.telemetry.CurrentUT()
	if secondsToMax <= 0 {
		if c.telemetry.Throttle() != 1.0 {
			c.commandThrottle(1.0, true)
		}
		c.setNext(maneuver.PhaseThrottleMax)
		return
	}

	fulfilled := (ramp - secondsToMax) / ramp
	throttle := utils.Clamp(utils.Lerp(c.tuning.InitialThrottle, 1.0, fulfilled), 0, 1)
	c.commandThrottle(throttle, false)
}

func (c *Controller) handleThrottleMax() {
	if c.throttleCheck() {
		return
	}

	if c.changed && c.telemetry.Throttle() != 1.0 {
		c.commandThrottle(1.0, true)
	}
}

// throttleCheck stops, parks for staging or lowers the throttle when the
// burn calls for it, and reports whether it did any of those.
func (c *Controller) throttleCheck() bool {
	m, ok := c.telemetry.NextManeuver()
	if !ok {
		return false
	}
	remaining := m.RemainingDeltaV

	increasing := c.hasLastRemaining && remaining-c.lastRemaining > c.tuning.IncreaseEpsilon
	c.lastRemaining, c.hasLastRemaining = remaining, true
	reachedGoal := remaining <= c.tuning.DeltaVGoal

	if increasing || reachedGoal {
		c.logInfo("Stopping burn", map[string]interface{}{
			"reached_goal":         reachedGoal,
			"remaining_increasing": increasing,
			"remaining_delta_v":    remaining,
		})
		c.commandThrottle(0, true)
		c.setNext(maneuver.PhaseThrottleZero)
		c.completeBurn(remaining, increasing)
		return true
	}

	if c.telemetry.StageExhausted() {
		c.logInfo("Stage fuel exhausted, stage to continue", nil)
		c.resumeAfterStaging = c.phase
		c.burn.stagings++
		c.setNext(maneuver.PhaseStaging)
		return true
	}

	est, ok := c.estimator.Estimate()
	if !ok {
		return false
	}
	step, hit := c.tuning.RampCap(est.BurnTimeRemaining, c.telemetry.Throttle())
	if !hit {
		return false
	}
	c.logInfo("Lowering throttle", map[string]interface{}{
		"burn_time_remaining": est.BurnTimeRemaining,
		"acceleration":        est.Acceleration,
		"max_acceleration":    est.MaxAcceleration,
		"ramp_seconds":        step.SecondsRemaining,
	})
	c.commandThrottle(step.MaxThrottle, true)
	c.setNext(maneuver.PhaseThrottleDown)
	return true
}

func (c *Controller) completeBurn(residual float64, overshoot bool) {
	if !c.burn.active {
		return
	}
	now := c.telemetry.CurrentUT()
	c.logInfo(fmt.Sprintf("Final remaining delta-V: %g", residual), nil)
	c.events.BurnCompleted(maneuver.BurnCompletedEvent{
		SessionID:      c.sessionID,
		Vessel:         c.vessel,
		TotalDeltaV:    c.burn.totalDeltaV,
		ResidualDeltaV: residual,
		BurnStartUT:    c.burn.startUT,
		BurnEndUT:      now,
		Stagings:       c.burn.stagings,
		Overshoot:      overshoot,
		At:             c.clock.Now(),
	})
	c.burn = burnRecord{}
}

func (c *Controller) handleThrottleZero() {
	if c.telemetry.Throttle() != 0 {
		c.commandThrottle(0, true)
		c.resetCurrentPhase()
		return
	}

	if c.settled(c.tuning.ThrottleZeroRest) {
		c.setNext(maneuver.PhaseDone)
	}
}

// commandThrottle clamps and sends a throttle command. Non-verbose
// commands are logged at debug level and sampled.
func (c *Controller) commandThrottle(throttle float64, verbose bool) {
	throttle = utils.Clamp(throttle, 0, 1)

	if err := c.actuator.SetThrottle(throttle); err != nil {
		c.logActuatorError("set throttle", err)
	}

	meta := map[string]interface{}{"throttle": throttle}
	if verbose {
		c.logInfo("Throttle set", meta)
	} else {
		c.rampLog.Do(func() {
			c.log(common.LevelDebug, "Throttle set", meta)
		})
	}

	c.events.ThrottleCommanded(maneuver.ThrottleCommandedEvent{
		SessionID: c.sessionID,
		Phase:     c.phase,
		Throttle:  throttle,
		UT:        c.telemetry.CurrentUT(),
	})
}
