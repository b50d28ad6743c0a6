package autothrottle

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/mikeday37/maneuver-autothrottle/internal/application/common"
	"github.com/mikeday37/maneuver-autothrottle/internal/domain/burn"
	"github.com/mikeday37/maneuver-autothrottle/internal/domain/maneuver"
	"github.com/mikeday37/maneuver-autothrottle/internal/domain/shared"
	"github.com/mikeday37/maneuver-autothrottle/internal/domain/tuning"
	"github.com/mikeday37/maneuver-autothrottle/pkg/utils"
)

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for every controller message.
func WithLogger(logger common.FlightLogger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithEventSink adds a sink for controller events. May be given more
// than once.
func WithEventSink(sink maneuver.EventSink) Option {
	return func(c *Controller) {
		if sink != nil {
			c.events = append(c.events, sink)
		}
	}
}

// WithRedraw sets the hook invoked when a reset turns the master switch off.
func WithRedraw(redraw func()) Option {
	return func(c *Controller) {
		c.redraw = redraw
	}
}

// WithClock overrides the wall clock used for event timestamps.
func WithClock(clock shared.Clock) Option {
	return func(c *Controller) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// phaseCounters measure how long the current phase has been active.
type phaseCounters struct {
	physicsTicks uint64
	lateTicks    uint64
	enteredUT    float64
	ageUT        float64
}

// burnRecord tracks the running burn for the completion event.
type burnRecord struct {
	active      bool
	startUT     float64
	totalDeltaV float64
	stagings    int
}

// Controller is the phased auto-throttle state machine. The host drives it
// through OnPhysicsTick and OnLateTick from a single goroutine; only the
// MasterSwitch and Snapshot are safe to touch from elsewhere.
type Controller struct {
	telemetry maneuver.Telemetry
	actuator  maneuver.Actuator
	sw        *MasterSwitch
	tuning    *tuning.Table
	estimator *burn.Estimator

	logger common.FlightLogger
	events maneuver.EventSinks
	redraw func()
	clock  shared.Clock

	rampLog rate.Sometimes

	phase    maneuver.Phase
	next     maneuver.Phase
	hasNext  bool
	changed  bool
	counters phaseCounters

	autopilot bool

	vessel    maneuver.VesselID
	hasVessel bool

	targetMaxThrottleUT float64

	lastRemaining    float64
	hasLastRemaining bool

	resumeAfterStaging maneuver.Phase

	warp *maneuver.WarpRequest

	sessionID string
	burn      burnRecord

	snapshot atomic.Pointer[Snapshot]
}

// NewController builds an idle controller. The table must come from
// tuning.NewTable or tuning.Default.
func NewController(
	telemetry maneuver.Telemetry,
	actuator maneuver.Actuator,
	sw *MasterSwitch,
	table *tuning.Table,
	opts ...Option,
) *Controller {
	c := &Controller{
		telemetry: telemetry,
		actuator:  actuator,
		sw:        sw,
		tuning:    table,
		estimator: burn.NewEstimator(),
		logger:    common.NoOpLogger(),
		clock:     shared.NewRealClock(),
		rampLog:   rate.Sometimes{First: 1, Every: 10},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.resetLogic()
	c.publishSnapshot()
	return c
}

// Switch returns the master switch the controller obeys.
func (c *Controller) Switch() *MasterSwitch {
	return c.sw
}

// Phase returns the current phase. Only call it from the tick goroutine;
// other goroutines should use Snapshot.
func (c *Controller) Phase() maneuver.Phase {
	return c.phase
}

// OnPhysicsTick is called at the fixed physics rate.
func (c *Controller) OnPhysicsTick() {
	c.counters.physicsTicks++

	throttle := c.telemetry.Throttle()
	if !c.sw.IsEnabled() || throttle <= 0 {
		c.estimator.Reset()
		return
	}
	m, ok := c.telemetry.NextManeuver()
	if !ok {
		c.estimator.Reset()
		return
	}
	c.estimator.Record(burn.Sample{
		UT:              c.telemetry.CurrentUT(),
		Throttle:        throttle,
		RemainingDeltaV: m.RemainingDeltaV,
	})
}

// OnLateTick runs the decision protocol once. It is called once per frame.
func (c *Controller) OnLateTick() {
	defer c.publishSnapshot()

	enabled := c.sw.IsEnabled()

	vessel := c.telemetry.ActiveVessel()
	if enabled && c.hasVessel && c.vessel != vessel {
		c.logInfo("Vessel changed, resetting", map[string]interface{}{
			"previous_vessel": c.vessel,
			"vessel":          vessel,
		})
		c.reset(maneuver.ResetVesselChanged)
		return
	}
	c.vessel, c.hasVessel = vessel, true

	if enabled && !c.telemetry.ManeuverPlanned() &&
		c.phase != maneuver.PhaseDone && !c.pendingIs(maneuver.PhaseIdle) {
		c.logInfo("Cannot engage, no maneuver planned, resetting", nil)
		c.reset(maneuver.ResetNoManeuver)
		return
	}

	if !enabled && c.phase != maneuver.PhaseIdle {
		c.setNext(maneuver.PhaseIdle)
	}

	if c.hasNext && c.next != c.phase {
		if c.next == maneuver.PhaseIdle {
			reason := maneuver.ResetIdle
			if !enabled {
				reason = maneuver.ResetExternal
			}
			c.logInfo("Going idle, resetting", nil)
			c.reset(reason)
			return
		}
		c.commit()
	} else {
		c.hasNext = false
		c.changed = false
		c.counters.ageUT = c.telemetry.CurrentUT() - c.counters.enteredUT
	}

	c.counters.lateTicks++

	c.dispatch()
}

// Reset returns the controller to idle and turns the master switch off.
func (c *Controller) Reset() {
	c.reset(maneuver.ResetExternal)
	c.publishSnapshot()
}

func (c *Controller) reset(reason maneuver.ResetReason) {
	from := c.phase
	endingRun := from != maneuver.PhaseIdle && c.autopilot

	c.events.ControllerReset(maneuver.ControllerResetEvent{
		SessionID: c.sessionID,
		Vessel:    c.vessel,
		From:      from,
		Reason:    reason,
		UT:        c.telemetry.CurrentUT(),
		At:        c.clock.Now(),
	})

	c.hasVessel = false
	c.resetLogic()

	if endingRun {
		if err := c.actuator.EnableStabilityAssist(); err != nil {
			c.logActuatorError("enable stability assist", err)
		}
	}

	if c.sw.Disable() && c.redraw != nil {
		c.redraw()
	}
}

// resetLogic clears all phase state without touching the master switch.
func (c *Controller) resetLogic() {
	c.phase = maneuver.PhaseIdle
	c.autopilot = false
	c.resumeAfterStaging = maneuver.PhaseIdle
	c.hasLastRemaining = false
	c.targetMaxThrottleUT = 0
	c.warp = nil
	c.sessionID = ""
	c.burn = burnRecord{}
	c.estimator.Reset()
	c.resetCurrentPhase()
}

// resetCurrentPhase drops any pending transition and restarts the
// counters of the current phase.
func (c *Controller) resetCurrentPhase() {
	c.hasNext = false
	c.changed = false
	c.counters = phaseCounters{enteredUT: c.telemetry.CurrentUT()}
}

func (c *Controller) commit() {
	from := c.phase
	c.phase = c.next
	c.resetCurrentPhase()
	c.changed = true

	c.logInfo(fmt.Sprintf("Phase changed --> %s", c.phase), map[string]interface{}{
		"from": from,
	})
	c.events.PhaseChanged(maneuver.PhaseChangedEvent{
		SessionID: c.sessionID,
		Vessel:    c.vessel,
		From:      from,
		To:        c.phase,
		UT:        c.counters.enteredUT,
		At:        c.clock.Now(),
	})
}

func (c *Controller) setNext(phase maneuver.Phase) {
	c.next = phase
	c.hasNext = true
}

func (c *Controller) pendingIs(phase maneuver.Phase) bool {
	return c.hasNext && c.next == phase
}

// effectivePhase is the pending phase if one is set, else the current one.
func (c *Controller) effectivePhase() maneuver.Phase {
	if c.hasNext {
		return c.next
	}
	return c.phase
}

func (c *Controller) settled(req tuning.StabilizationRequirement) bool {
	return req.Met(c.counters.physicsTicks, c.counters.lateTicks, c.counters.ageUT)
}

func (c *Controller) dispatch() {
	t := c.tuning

	switch c.phase {
	case maneuver.PhaseIdle:
		c.handleIdle()

	case maneuver.PhaseFarAim:
		c.handleAim(maneuver.PhaseFarAimStabilize)
	case maneuver.PhaseFarAimStabilize:
		c.handleAimStabilize(maneuver.PhaseFarWarpStart)

	case maneuver.PhaseFarWarpStart:
		c.handleWarpStart(t.FarMargin, maneuver.PhaseFarWarpWait, c.afterFarWarp())
	case maneuver.PhaseFarWarpWait:
		c.handleWarpWait(t.FarMargin, maneuver.PhaseFarWarpRest, true)
	case maneuver.PhaseFarWarpRest:
		c.handleWarpRest(t.FarWarpRest, c.afterFarWarp(), true)

	case maneuver.PhaseNearAim:
		c.handleAim(maneuver.PhaseNearAimStabilize)
	case maneuver.PhaseNearAimStabilize:
		c.handleAimStabilize(maneuver.PhaseNearWarpStart)

	case maneuver.PhaseNearWarpStart:
		c.handleWarpStart(t.NearMargin, maneuver.PhaseNearWarpWait, maneuver.PhaseCountdown)
	case maneuver.PhaseNearWarpWait:
		c.handleWarpWait(t.NearMargin, maneuver.PhaseNearWarpRest, false)
	case maneuver.PhaseNearWarpRest:
		c.handleWarpRest(t.NearWarpRest, maneuver.PhaseCountdown, false)

	case maneuver.PhaseCountdown:
		c.handleCountdown()

	case maneuver.PhaseThrottleUp:
		c.handleThrottleUp()
	case maneuver.PhaseThrottleMax:
		c.handleThrottleMax()
	case maneuver.PhaseThrottleDown:
		c.throttleCheck()
	case maneuver.PhaseThrottleZero:
		c.handleThrottleZero()

	case maneuver.PhaseDone:
		c.handleDone()

	case maneuver.PhaseStaging:
		c.handleStaging()

	case maneuver.PhaseNextManeuver:
		c.handleNextManeuver()
	}
}

func (c *Controller) handleIdle() {
	if !c.sw.IsEnabled() || !c.telemetry.ManeuverPlanned() {
		return
	}
	c.sessionID = utils.GenerateSessionID("burn", uint32(c.vessel))
	c.logInfo("Auto-throttle engaged", nil)
	c.startDecision(true)
}

// startDecision picks the first approach phase from the vessel's
// autopilot capability, then applies skip-ahead.
func (c *Controller) startDecision(verbose bool) {
	if c.telemetry.CanHoldManeuverAttitude() {
		if verbose {
			c.logInfo("Maneuver hold available, enabling full autopilot", nil)
		}
		c.autopilot = true
		c.setNext(maneuver.PhaseFarAim)
	} else {
		if verbose {
			c.logInfo("Maneuver hold not available, proceeding without autopilot", nil)
		}
		c.autopilot = false
		c.setNext(maneuver.PhaseFarWarpStart)
	}
	c.skipAhead(true)
}

// timeToBurn returns the seconds until the next burn starts.
func (c *Controller) timeToBurn() (float64, bool) {
	m, ok := c.telemetry.NextManeuver()
	if !ok {
		return 0, false
	}
	return m.TimeToBurnStart(c.telemetry.CurrentUT()), true
}

// skipAhead moves an approach phase forward when too little time is left
// for it. Every approach handler applies it except near warp wait and rest,
// which already end at Countdown. allowNearAim enables the far-to-near jump
// for autopilot runs; only the start decision and the aim handlers pass it.
func (c *Controller) skipAhead(allowNearAim bool) {
	relevant := c.effectivePhase()
	if !relevant.IsApproach() {
		return
	}
	t, ok := c.timeToBurn()
	if !ok {
		return
	}

	if t <= c.tuning.NearMargin {
		c.logInfo("Skipping ahead to countdown", map[string]interface{}{"time_to_burn": t})
		c.setNext(maneuver.PhaseCountdown)
		return
	}
	if allowNearAim && c.autopilot && relevant.Before(maneuver.PhaseNearAim) && t <= c.tuning.FarMargin {
		c.logInfo("Skipping ahead to near aim", map[string]interface{}{"time_to_burn": t})
		c.setNext(maneuver.PhaseNearAim)
	}
}

// Snapshot returns the state published at the end of the last tick.
func (c *Controller) Snapshot() Snapshot {
	return *c.snapshot.Load()
}

func (c *Controller) publishSnapshot() {
	s := &Snapshot{
		SessionID:     c.sessionID,
		Phase:         c.phase,
		PhaseChanged:  c.changed,
		PhysicsTicks:  c.counters.physicsTicks,
		LateTicks:     c.counters.lateTicks,
		PhaseAge:      c.counters.ageUT,
		Autopilot:     c.autopilot,
		Enabled:       c.sw.IsEnabled(),
		RepeatEnabled: c.sw.IsRepeatEnabled(),
		Vessel:        c.vessel,
		UT:            c.telemetry.CurrentUT(),
	}
	if c.hasNext {
		s.Pending = c.next
		s.HasPending = true
	}
	if est, ok := c.estimator.Estimate(); ok {
		s.Estimate = est
		s.EstimateValid = true
	}
	if c.warp != nil {
		s.WarpAttempts = c.warp.Attempts()
		s.WarpTargetUT = c.warp.TargetUT()
	}
	c.snapshot.Store(s)
}

func (c *Controller) logInfo(message string, metadata map[string]interface{}) {
	c.log(common.LevelInfo, message, metadata)
}

func (c *Controller) logActuatorError(command string, err error) {
	actErr := shared.NewActuationError(command, err)
	c.log(common.LevelWarn, actErr.Error(), map[string]interface{}{"command": command})
}

func (c *Controller) log(level, message string, metadata map[string]interface{}) {
	if metadata == nil {
		metadata = make(map[string]interface{}, 3)
	}
	metadata["ut"] = c.telemetry.CurrentUT()
	metadata["phase"] = string(c.phase)
	if c.sessionID != "" {
		metadata["session_id"] = c.sessionID
	}
	c.logger.Log(level, message, metadata)
}
