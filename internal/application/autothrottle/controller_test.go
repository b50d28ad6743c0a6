package autothrottle

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikeday37/maneuver-autothrottle/internal/application/common"
	"github.com/mikeday37/maneuver-autothrottle/internal/domain/maneuver"
	"github.com/mikeday37/maneuver-autothrottle/internal/domain/shared"
	"github.com/mikeday37/maneuver-autothrottle/internal/domain/tuning"
)

// fakeVessel is a scriptable Telemetry and Actuator.
type fakeVessel struct {
	ut        float64
	vessel    maneuver.VesselID
	nodes     []maneuver.Maneuver
	aimErr    float64
	warp      maneuver.WarpStatus
	throttle  float64
	canHold   bool
	exhausted bool

	failCommands bool

	warpCalls      []float64
	throttleCalls  []float64
	deleteCalls    int
	holdCalls      int
	stabilityCalls int
}

func newFakeVessel() *fakeVessel {
	return &fakeVessel{
		ut:     1000,
		vessel: 7,
		warp:   maneuver.WarpNone,
		nodes: []maneuver.Maneuver{{
			BurnStartUT:     1120,
			TotalDeltaV:     50,
			RemainingDeltaV: 50,
			BurnVector:      maneuver.Vector3{Y: 50},
		}},
	}
}

func (f *fakeVessel) timeToBurn(t float64) {
	f.nodes[0].BurnStartUT = f.ut + t
}

func (f *fakeVessel) remaining(dv float64) {
	f.nodes[0].RemainingDeltaV = dv
}

func (f *fakeVessel) CurrentUT() float64 { return f.ut }
func (f *fakeVessel) ActiveVessel() maneuver.VesselID { return f.vessel }
func (f *fakeVessel) ManeuverPlanned() bool { return len(f.nodes) > 0 }
func (f *fakeVessel) NextManeuver() (maneuver.Maneuver, bool) {
	if len(f.nodes) == 0 {
		return maneuver.Maneuver{}, false
	}
	return f.nodes[0], true
}
func (f *fakeVessel) AimError() (float64, bool) {
	if len(f.nodes) == 0 {
		return 0, false
	}
	return f.aimErr, true
}
func (f *fakeVessel) ThrustVector() maneuver.Vector3 { return maneuver.Vector3{Y: 1} }
func (f *fakeVessel) WarpStatus() maneuver.WarpStatus { return f.warp }
func (f *fakeVessel) WarpRate() float64 { return 1 }
func (f *fakeVessel) Throttle() float64 { return f.throttle }
func (f *fakeVessel) CanHoldManeuverAttitude() bool { return f.canHold }
func (f *fakeVessel) StageExhausted() bool { return f.exhausted }
func (f *fakeVessel) CurrentAcceleration() (float64, bool) { return 0, false }

func (f *fakeVessel) err() error {
	if f.failCommands {
		return errors.New("vessel not responding")
	}
	return nil
}

func (f *fakeVessel) WarpTo(ut float64) error {
	f.warpCalls = append(f.warpCalls, ut)
	return f.err()
}

func (f *fakeVessel) SetThrottle(throttle float64) error {
	f.throttleCalls = append(f.throttleCalls, throttle)
	if !f.failCommands {
		f.throttle = throttle
	}
	return f.err()
}

func (f *fakeVessel) DeleteNextManeuverNode() error {
	f.deleteCalls++
	if len(f.nodes) > 0 {
		f.nodes = f.nodes[1:]
	}
	return f.err()
}

func (f *fakeVessel) EnableManeuverHold() error {
	f.holdCalls++
	return f.err()
}

func (f *fakeVessel) EnableStabilityAssist() error {
	f.stabilityCalls++
	return f.err()
}

func (f *fakeVessel) lastThrottle() float64 {
	if len(f.throttleCalls) == 0 {
		return -1
	}
	return f.throttleCalls[len(f.throttleCalls)-1]
}

type logEntry struct {
	level   string
	message string
}

type recordingLogger struct {
	entries []logEntry
}

func (r *recordingLogger) Log(level, message string, metadata map[string]interface{}) {
	r.entries = append(r.entries, logEntry{level, message})
}

func (r *recordingLogger) count(level string) int {
	n := 0
	for _, e := range r.entries {
		if e.level == level {
			n++
		}
	}
	return n
}

type recordingSink struct {
	phases []maneuver.PhaseChangedEvent
	burns  []maneuver.BurnCompletedEvent
	resets []maneuver.ControllerResetEvent
}

func (r *recordingSink) PhaseChanged(e maneuver.PhaseChangedEvent) { r.phases = append(r.phases, e) }
func (r *recordingSink) ThrottleCommanded(maneuver.ThrottleCommandedEvent) {}
func (r *recordingSink) BurnCompleted(e maneuver.BurnCompletedEvent) { r.burns = append(r.burns, e) }
func (r *recordingSink) ControllerReset(e maneuver.ControllerResetEvent) { r.resets = append(r.resets, e) }

func newTestController(t *testing.T, v *fakeVessel, opts ...Option) *Controller {
	t.Helper()
	return NewController(v, v, NewMasterSwitch(), tuning.Default(), opts...)
}

// force puts an enabled controller directly into phase with fresh counters.
func force(c *Controller, phase maneuver.Phase, autopilot bool) {
	if !c.sw.IsEnabled() {
		c.sw.Toggle()
	}
	c.vessel = c.telemetry.ActiveVessel()
	c.hasVessel = true
	c.phase = phase
	c.autopilot = autopilot
	c.resetCurrentPhase()
}

// settle bumps the phase counters past every stock stabilization window.
func settle(c *Controller) {
	c.counters.physicsTicks = 100
	c.counters.lateTicks = 100
	c.counters.enteredUT = c.telemetry.CurrentUT() - 10
}

func TestController_IdleWhileDisabled(t *testing.T) {
	v := newFakeVessel()
	c := newTestController(t, v)

	c.OnLateTick()
	c.OnLateTick()

	assert.Equal(t, maneuver.PhaseIdle, c.Phase())
	assert.Empty(t, v.throttleCalls)
	assert.Empty(t, v.warpCalls)
}

func TestController_EngageWithoutAutopilotStartsAtFarWarp(t *testing.T) {
	// Arrange
	v := newFakeVessel()
	c := newTestController(t, v)
	c.Switch().Toggle()

	// Act
	c.OnLateTick()
	pending := c.next
	c.OnLateTick()

	// Assert
	assert.Equal(t, maneuver.PhaseFarWarpStart, pending)
	assert.Equal(t, maneuver.PhaseFarWarpStart, c.Phase())
	assert.False(t, c.autopilot)
	assert.NotEmpty(t, c.sessionID)
}

func TestController_EngageWithAutopilotStartsAtFarAim(t *testing.T) {
	v := newFakeVessel()
	v.canHold = true
	v.aimErr = 45
	c := newTestController(t, v)
	c.Switch().Toggle()

	c.OnLateTick()
	c.OnLateTick()

	assert.Equal(t, maneuver.PhaseFarAim, c.Phase())
	assert.True(t, c.autopilot)
	assert.Equal(t, 1, v.holdCalls, "hold requested on first tick in aim")
}

func TestController_EngageInsideFarMarginSkipsToNearAim(t *testing.T) {
	v := newFakeVessel()
	v.canHold = true
	v.aimErr = 45
	v.timeToBurn(30)
	c := newTestController(t, v)
	c.Switch().Toggle()

	c.OnLateTick()
	c.OnLateTick()

	assert.Equal(t, maneuver.PhaseNearAim, c.Phase())
}

func TestController_SkipAheadToCountdownFromEveryApproachPhase(t *testing.T) {
	for _, autopilot := range []bool{true, false} {
		for _, phase := range maneuver.AllPhases() {
			if !phase.IsApproach() || phase == maneuver.PhaseNearWarpWait || phase == maneuver.PhaseNearWarpRest {
				continue
			}
			t.Run(string(phase), func(t *testing.T) {
				v := newFakeVessel()
				v.timeToBurn(3)
				c := newTestController(t, v)
				force(c, phase, autopilot)

				c.OnLateTick()
				c.OnLateTick()

				assert.Equal(t, maneuver.PhaseCountdown, c.Phase())
			})
		}
	}
}

func TestController_FarWarpRestFinishesBeforeNearAim(t *testing.T) {
	v := newFakeVessel()
	v.timeToBurn(30)
	c := newTestController(t, v)
	force(c, maneuver.PhaseFarWarpRest, true)

	c.OnLateTick()
	assert.False(t, c.hasNext, "only aim handlers jump to near aim")

	settle(c)
	c.OnLateTick()
	c.OnLateTick()
	assert.Equal(t, maneuver.PhaseNearAim, c.Phase())
}

func TestController_NearWarpLandingAtMarginStillRests(t *testing.T) {
	// Arrange: the near warp has just landed exactly on the near margin
	v := newFakeVessel()
	v.timeToBurn(5)
	c := newTestController(t, v)
	force(c, maneuver.PhaseNearWarpWait, true)

	// Act
	c.OnLateTick()

	// Assert
	assert.Equal(t, maneuver.PhaseNearWarpRest, c.next)

	c.OnLateTick()
	require.Equal(t, maneuver.PhaseNearWarpRest, c.Phase())
	assert.False(t, c.hasNext, "rest window not met yet")

	c.OnLateTick()
	assert.Equal(t, maneuver.PhaseNearWarpRest, c.Phase())

	settle(c)
	c.OnLateTick()
	c.OnLateTick()
	assert.Equal(t, maneuver.PhaseCountdown, c.Phase())
}

func TestController_DisableFromAnyPhaseGoesIdle(t *testing.T) {
	for _, phase := range maneuver.AllPhases() {
		if phase == maneuver.PhaseIdle {
			continue
		}
		t.Run(string(phase), func(t *testing.T) {
			v := newFakeVessel()
			c := newTestController(t, v)
			force(c, phase, true)
			c.counters.physicsTicks = 12
			c.Switch().Disable()

			c.OnLateTick()

			assert.Equal(t, maneuver.PhaseIdle, c.Phase())
			assert.Zero(t, c.counters.physicsTicks)
			assert.Zero(t, c.counters.lateTicks)
			assert.False(t, c.hasNext)
			assert.False(t, c.autopilot)
		})
	}
}

func TestController_IncreasingRemainingForcesThrottleZero(t *testing.T) {
	for _, phase := range []maneuver.Phase{
		maneuver.PhaseThrottleUp, maneuver.PhaseThrottleMax, maneuver.PhaseThrottleDown,
	} {
		t.Run(string(phase), func(t *testing.T) {
			v := newFakeVessel()
			v.throttle = 0.6
			v.remaining(10.1)
			c := newTestController(t, v)
			force(c, phase, false)
			c.lastRemaining, c.hasLastRemaining = 10, true
			c.targetMaxThrottleUT = v.ut + 100

			c.OnLateTick()
			c.OnLateTick()

			assert.Equal(t, maneuver.PhaseThrottleZero, c.Phase())
			assert.Equal(t, 0.0, v.lastThrottle())
		})
	}
}

func TestController_TinyIncreaseIsTolerated(t *testing.T) {
	v := newFakeVessel()
	v.throttle = 1
	v.remaining(10.000005)
	c := newTestController(t, v)
	force(c, maneuver.PhaseThrottleMax, false)
	c.lastRemaining, c.hasLastRemaining = 10, true

	c.OnLateTick()

	assert.False(t, c.hasNext)
}

func TestController_ReachingGoalStops(t *testing.T) {
	sink := &recordingSink{}
	v := newFakeVessel()
	v.throttle = 0.01
	v.remaining(0.0005)
	c := newTestController(t, v, WithEventSink(sink))
	force(c, maneuver.PhaseThrottleDown, false)
	c.beginBurn(v.nodes[0], v.ut-12)
	c.lastRemaining = 0.001

	c.OnLateTick()

	assert.Equal(t, maneuver.PhaseThrottleZero, c.next)
	require.Len(t, sink.burns, 1)
	assert.Equal(t, 0.0005, sink.burns[0].ResidualDeltaV)
	assert.False(t, sink.burns[0].Overshoot)
	assert.InDelta(t, 12, sink.burns[0].BurnDuration(), 1e-9)
}

func TestController_RampTableLowersThrottle(t *testing.T) {
	// Arrange: estimate 0.65s left, throttle already at the second cap
	v := newFakeVessel()
	c := newTestController(t, v)
	force(c, maneuver.PhaseThrottleDown, false)
	v.throttle = 0.4
	v.remaining(3.35)
	c.OnPhysicsTick()
	v.ut += 0.02
	v.remaining(3.25)
	c.OnPhysicsTick()
	c.lastRemaining, c.hasLastRemaining = 3.3, true

	// Act
	c.OnLateTick()

	// Assert
	est, ok := c.estimator.Estimate()
	require.True(t, ok)
	assert.InDelta(t, 0.65, est.BurnTimeRemaining, 1e-9)
	assert.Equal(t, 0.2, v.lastThrottle())
	assert.Equal(t, maneuver.PhaseThrottleDown, c.next)
}

func TestController_RampTableFirstMatchWins(t *testing.T) {
	v := newFakeVessel()
	c := newTestController(t, v)
	force(c, maneuver.PhaseThrottleMax, false)
	v.throttle = 1
	v.remaining(3.35)
	c.OnPhysicsTick()
	v.ut += 0.02
	v.remaining(3.25)
	c.OnPhysicsTick()
	c.lastRemaining, c.hasLastRemaining = 3.3, true

	c.OnLateTick()

	assert.Equal(t, 0.8, v.lastThrottle())
}

func TestController_CountdownIgnitesCentredOnBurnStart(t *testing.T) {
	v := newFakeVessel()
	v.timeToBurn(0.3)
	c := newTestController(t, v)
	force(c, maneuver.PhaseCountdown, false)

	c.OnLateTick()

	assert.Equal(t, maneuver.PhaseThrottleUp, c.next)
	assert.Equal(t, 0.1, v.lastThrottle())
	assert.InDelta(t, v.nodes[0].BurnStartUT+0.5*(1-sqrtHalf), c.targetMaxThrottleUT, 1e-12)
	assert.True(t, c.hasLastRemaining)
}

func TestController_CountdownWaitsForIgnitionWindow(t *testing.T) {
	v := newFakeVessel()
	v.timeToBurn(0.4)
	c := newTestController(t, v)
	force(c, maneuver.PhaseCountdown, false)

	c.OnLateTick()

	assert.False(t, c.hasNext)
	assert.Empty(t, v.throttleCalls)
}

func TestController_CountdownWithManualThrottleGoesToMax(t *testing.T) {
	v := newFakeVessel()
	v.timeToBurn(4)
	v.throttle = 0.5
	c := newTestController(t, v)
	force(c, maneuver.PhaseCountdown, false)

	c.OnLateTick()
	c.OnLateTick()

	assert.Equal(t, maneuver.PhaseThrottleMax, c.Phase())
	assert.Equal(t, 50.0, c.lastRemaining)
	assert.Equal(t, 1.0, v.lastThrottle())
}

func TestController_ThrottleUpInterpolates(t *testing.T) {
	v := newFakeVessel()
	v.throttle = 0.1
	c := newTestController(t, v)
	force(c, maneuver.PhaseThrottleUp, false)
	c.lastRemaining, c.hasLastRemaining = 50, true
	c.targetMaxThrottleUT = v.ut + 0.25

	c.OnLateTick()

	assert.InDelta(t, 0.55, v.lastThrottle(), 1e-12)
	assert.False(t, c.hasNext)
}

func TestController_ThrottleUpSnapsToMax(t *testing.T) {
	v := newFakeVessel()
	v.throttle = 0.9
	c := newTestController(t, v)
	force(c, maneuver.PhaseThrottleUp, false)
	c.lastRemaining, c.hasLastRemaining = 50, true
	c.targetMaxThrottleUT = v.ut - 0.01

	c.OnLateTick()

	assert.Equal(t, 1.0, v.lastThrottle())
	assert.Equal(t, maneuver.PhaseThrottleMax, c.next)
}

func TestController_StagingParksAndResumes(t *testing.T) {
	// Arrange
	v := newFakeVessel()
	v.throttle = 0.4
	c := newTestController(t, v)
	force(c, maneuver.PhaseThrottleDown, false)
	c.lastRemaining, c.hasLastRemaining = 50, true
	v.exhausted = true

	// Act: runs dry
	c.OnLateTick()
	c.OnLateTick()
	require.Equal(t, maneuver.PhaseStaging, c.Phase())

	// still parked while the stage is dry, at any throttle
	v.throttle = 0
	c.OnLateTick()
	c.OnLateTick()
	assert.Equal(t, maneuver.PhaseStaging, c.Phase())

	// staged but throttle still zero
	v.exhausted = false
	c.OnLateTick()
	assert.Equal(t, maneuver.PhaseStaging, c.Phase())

	// throttled back up
	v.throttle = 0.4
	c.OnLateTick()
	c.OnLateTick()

	// Assert
	assert.Equal(t, maneuver.PhaseThrottleDown, c.Phase())
	assert.Equal(t, 1, c.burn.stagings)
}

func TestController_ThrottleZeroRestartsWindowWhileThrottleOpen(t *testing.T) {
	v := newFakeVessel()
	v.throttle = 0.3
	c := newTestController(t, v)
	force(c, maneuver.PhaseThrottleZero, false)
	settle(c)

	c.OnLateTick()

	assert.Equal(t, 0.0, v.lastThrottle())
	assert.Zero(t, c.counters.lateTicks)
	assert.False(t, c.hasNext)
}

func TestController_ThrottleZeroNeedsEveryThreshold(t *testing.T) {
	v := newFakeVessel()
	c := newTestController(t, v)
	force(c, maneuver.PhaseThrottleZero, false)

	// plenty of late ticks and time, too few physics ticks
	c.counters.lateTicks = 50
	c.counters.enteredUT = v.ut - 5
	c.counters.physicsTicks = 3
	c.OnLateTick()
	assert.False(t, c.hasNext)

	c.OnPhysicsTick()
	c.OnPhysicsTick()
	c.OnLateTick()
	assert.Equal(t, maneuver.PhaseDone, c.next)
}

func TestController_DoneWithoutRepeatGoesIdle(t *testing.T) {
	v := newFakeVessel()
	v.nodes = append(v.nodes, v.nodes[0])
	redraws := 0
	c := newTestController(t, v, WithRedraw(func() { redraws++ }))
	force(c, maneuver.PhaseDone, true)

	c.OnLateTick()
	c.OnLateTick()

	assert.Equal(t, maneuver.PhaseIdle, c.Phase())
	assert.False(t, c.Switch().IsEnabled())
	assert.Zero(t, v.deleteCalls)
	assert.Equal(t, 1, redraws)
}

func TestController_DoneWithRepeatMovesToNextManeuver(t *testing.T) {
	v := newFakeVessel()
	second := v.nodes[0]
	second.BurnStartUT += 600
	v.nodes = append(v.nodes, second)
	c := newTestController(t, v)
	force(c, maneuver.PhaseDone, true)
	c.Switch().ToggleRepeat()

	c.OnLateTick()
	c.OnLateTick()

	assert.Equal(t, maneuver.PhaseNextManeuver, c.Phase())
	assert.Equal(t, 1, v.deleteCalls)
	assert.True(t, c.Switch().IsEnabled())
}

func TestController_DoneWithRepeatAndNothingLeftGoesIdle(t *testing.T) {
	v := newFakeVessel()
	c := newTestController(t, v)
	force(c, maneuver.PhaseDone, true)
	c.Switch().ToggleRepeat()

	c.OnLateTick()
	c.OnLateTick()

	assert.Equal(t, maneuver.PhaseIdle, c.Phase())
	assert.False(t, c.Switch().IsEnabled())
}

func TestController_NextManeuverRestartsAfterCooldown(t *testing.T) {
	v := newFakeVessel()
	v.canHold = true
	v.aimErr = 30
	c := newTestController(t, v)
	force(c, maneuver.PhaseNextManeuver, true)

	c.OnLateTick()
	assert.False(t, c.hasNext)

	settle(c)
	c.OnLateTick()
	c.OnLateTick()
	assert.Equal(t, maneuver.PhaseFarAim, c.Phase())
}

func TestController_NoManeuverWhileEnabledResets(t *testing.T) {
	sink := &recordingSink{}
	v := newFakeVessel()
	v.nodes = nil
	c := newTestController(t, v, WithEventSink(sink))
	c.Switch().Toggle()

	c.OnLateTick()

	assert.False(t, c.Switch().IsEnabled())
	require.Len(t, sink.resets, 1)
	assert.Equal(t, maneuver.ResetNoManeuver, sink.resets[0].Reason)
}

func TestController_VesselChangeResetsAndRedraws(t *testing.T) {
	sink := &recordingSink{}
	v := newFakeVessel()
	v.aimErr = 90
	v.canHold = true
	redraws := 0
	c := newTestController(t, v, WithRedraw(func() { redraws++ }), WithEventSink(sink))
	force(c, maneuver.PhaseFarAim, true)

	v.vessel = 8
	c.OnLateTick()

	assert.Equal(t, maneuver.PhaseIdle, c.Phase())
	assert.False(t, c.Switch().IsEnabled())
	assert.Equal(t, 1, redraws)
	assert.Equal(t, 1, v.stabilityCalls, "autopilot run ends in stability assist")
	require.Len(t, sink.resets, 1)
	assert.Equal(t, maneuver.ResetVesselChanged, sink.resets[0].Reason)
	assert.Equal(t, maneuver.PhaseFarAim, sink.resets[0].From)
}

func TestController_FirstTickRecordsVessel(t *testing.T) {
	v := newFakeVessel()
	c := newTestController(t, v)
	c.Switch().Toggle()

	c.OnLateTick()

	assert.True(t, c.Switch().IsEnabled())
	assert.Equal(t, maneuver.VesselID(7), c.vessel)
}

func TestController_WarpRetriesAreSpaced(t *testing.T) {
	v := newFakeVessel()
	c := newTestController(t, v)
	force(c, maneuver.PhaseFarWarpStart, false)

	for i := 0; i < 5; i++ {
		c.OnLateTick()
	}
	assert.Len(t, v.warpCalls, 1)
	assert.InDelta(t, v.nodes[0].BurnStartUT-60, v.warpCalls[0], 1e-9)

	c.OnLateTick()
	assert.Len(t, v.warpCalls, 2)
	assert.Equal(t, 2, c.Snapshot().WarpAttempts)
}

func TestController_WarpEngagedMovesToWaitThenRest(t *testing.T) {
	v := newFakeVessel()
	c := newTestController(t, v)
	force(c, maneuver.PhaseFarWarpStart, false)

	c.OnLateTick()
	v.warp = maneuver.WarpFast
	c.OnLateTick()
	c.OnLateTick()
	require.Equal(t, maneuver.PhaseFarWarpWait, c.Phase())

	// warp lands at the margin
	v.ut = v.nodes[0].BurnStartUT - 60
	v.warp = maneuver.WarpNone
	c.OnLateTick()
	c.OnLateTick()
	require.Equal(t, maneuver.PhaseFarWarpRest, c.Phase())

	settle(c)
	c.OnLateTick()
	c.OnLateTick()
	assert.Equal(t, maneuver.PhaseCountdown, c.Phase(), "no autopilot skips near aim")
}

func TestController_WarpStartInsideMarginSkipsWarp(t *testing.T) {
	v := newFakeVessel()
	v.timeToBurn(40)
	c := newTestController(t, v)
	force(c, maneuver.PhaseFarWarpStart, true)

	c.OnLateTick()

	assert.Equal(t, maneuver.PhaseNearAim, c.next)
	assert.Empty(t, v.warpCalls)
}

func TestController_AimStabilizeRestartsOnDrift(t *testing.T) {
	v := newFakeVessel()
	c := newTestController(t, v)
	force(c, maneuver.PhaseFarAimStabilize, true)
	settle(c)

	v.aimErr = 0.5
	c.OnLateTick()

	assert.Equal(t, maneuver.PhaseFarAimStabilize, c.Phase())
	assert.Zero(t, c.counters.lateTicks)
	assert.False(t, c.hasNext)

	v.aimErr = 0.001
	settle(c)
	c.OnLateTick()
	assert.Equal(t, maneuver.PhaseFarWarpStart, c.next)
}

func TestController_ManualAimUsesLooseTolerance(t *testing.T) {
	v := newFakeVessel()
	v.aimErr = 1.5
	c := newTestController(t, v)
	force(c, maneuver.PhaseNearAim, false)

	c.OnLateTick()

	assert.Equal(t, maneuver.PhaseNearAimStabilize, c.next)
}

func TestController_ActuatorFailuresAreLoggedNotFatal(t *testing.T) {
	logger := &recordingLogger{}
	v := newFakeVessel()
	v.failCommands = true
	v.timeToBurn(0.2)
	c := newTestController(t, v, WithLogger(logger))
	force(c, maneuver.PhaseCountdown, false)

	assert.NotPanics(t, func() {
		c.OnLateTick()
	})

	assert.Equal(t, maneuver.PhaseThrottleUp, c.next)
	assert.Equal(t, 1, logger.count(common.LevelWarn))
}

func TestController_PhaseEventsCarrySession(t *testing.T) {
	sink := &recordingSink{}
	clock := shared.NewMockClock(time.Time{})
	v := newFakeVessel()
	c := newTestController(t, v, WithEventSink(sink), WithClock(clock))
	c.Switch().Toggle()

	c.OnLateTick()
	c.OnLateTick()

	require.Len(t, sink.phases, 1)
	e := sink.phases[0]
	assert.Equal(t, maneuver.PhaseIdle, e.From)
	assert.Equal(t, maneuver.PhaseFarWarpStart, e.To)
	assert.Equal(t, c.sessionID, e.SessionID)
	assert.Equal(t, clock.Now(), e.At)

	// Act: switch off a minute later
	session := c.sessionID
	started := clock.Now()
	clock.Advance(time.Minute)
	c.Switch().Disable()
	c.OnLateTick()

	require.Len(t, sink.resets, 1)
	r := sink.resets[0]
	assert.Equal(t, session, r.SessionID)
	assert.Equal(t, maneuver.ResetExternal, r.Reason)
	assert.Equal(t, started.Add(time.Minute), r.At)
}

func TestController_SnapshotTracksState(t *testing.T) {
	v := newFakeVessel()
	c := newTestController(t, v)
	c.Switch().Toggle()
	c.Switch().ToggleRepeat()

	c.OnLateTick()
	snap := c.Snapshot()

	assert.Equal(t, maneuver.PhaseIdle, snap.Phase)
	assert.True(t, snap.HasPending)
	assert.Equal(t, maneuver.PhaseFarWarpStart, snap.Pending)
	assert.True(t, snap.Enabled)
	assert.True(t, snap.RepeatEnabled)
	assert.Equal(t, v.ut, snap.UT)

	c.Reset()
	assert.Equal(t, maneuver.PhaseIdle, c.Snapshot().Phase)
	assert.False(t, c.Snapshot().Enabled)
}

func TestController_PhysicsTickIgnoredWhileDisabled(t *testing.T) {
	v := newFakeVessel()
	v.throttle = 1
	c := newTestController(t, v)

	c.OnPhysicsTick()
	v.ut += 0.02
	v.remaining(49)
	c.OnPhysicsTick()

	_, ok := c.estimator.Estimate()
	assert.False(t, ok)
}
