package simhost_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikeday37/maneuver-autothrottle/internal/adapters/simhost"
	"github.com/mikeday37/maneuver-autothrottle/internal/domain/maneuver"
)

func newScenario(t *testing.T, yaml string) *simhost.Scenario {
	t.Helper()
	s, err := simhost.ParseScenario([]byte(yaml))
	require.NoError(t, err)
	return s
}

func TestVessel_WarpEngagesAfterDelayAndStopsAtTarget(t *testing.T) {
	// Arrange
	v := simhost.NewVessel(newScenario(t, `
start_ut: 0
vessel: {max_acceleration: 10, stages: [10], warp_rate: 100, warp_engage_ticks: 2}
maneuvers: [{burn_start_in: 100, delta_v: 5}]
`))

	// Act
	require.NoError(t, v.WarpTo(50))
	v.Step(0.02)
	status1 := v.WarpStatus()
	v.Step(0.02)
	status2 := v.WarpStatus()
	for i := 0; i < 100 && v.WarpStatus() == maneuver.WarpFast; i++ {
		v.Step(0.02)
	}

	// Assert
	assert.Equal(t, maneuver.WarpNone, status1)
	assert.Equal(t, maneuver.WarpFast, status2)
	assert.Equal(t, maneuver.WarpNone, v.WarpStatus())
	assert.Equal(t, 50.0, v.CurrentUT())
	assert.Equal(t, 1, v.Commands().WarpTo)
}

func TestVessel_ThrustReducesRemainingDeltaV(t *testing.T) {
	v := simhost.NewVessel(newScenario(t, `
vessel: {max_acceleration: 10, stages: [10]}
maneuvers: [{burn_start_in: 10, delta_v: 5}]
`))

	require.NoError(t, v.SetThrottle(0.5))
	v.Step(0.1)

	m, ok := v.NextManeuver()
	require.True(t, ok)
	assert.InDelta(t, 4.5, m.RemainingDeltaV, 1e-9)
	accel, _ := v.CurrentAcceleration()
	assert.InDelta(t, 5.0, accel, 1e-9)
}

func TestVessel_OvershootGrowsRemaining(t *testing.T) {
	v := simhost.NewVessel(newScenario(t, `
vessel: {max_acceleration: 10, stages: [10]}
maneuvers: [{burn_start_in: 10, delta_v: 0.5}]
`))
	require.NoError(t, v.SetThrottle(1))

	v.Step(0.04)
	before, _ := v.NextManeuver()
	v.Step(0.04)
	after, _ := v.NextManeuver()

	assert.InDelta(t, 0.1, before.RemainingDeltaV, 1e-9)
	assert.InDelta(t, 0.3, after.RemainingDeltaV, 1e-9)
	aim, ok := v.AimError()
	require.True(t, ok)
	assert.InDelta(t, 180, aim, 1e-6)
}

func TestVessel_StageRunsDryAndOperatorRestages(t *testing.T) {
	v := simhost.NewVessel(newScenario(t, `
vessel: {max_acceleration: 1, stages: [0.05, 10], restage_after: 0.1, restage_throttle: 0.5}
maneuvers: [{burn_start_in: 10, delta_v: 50}]
`))
	require.NoError(t, v.SetThrottle(1))

	v.Step(0.1)
	require.True(t, v.StageExhausted())
	m, _ := v.NextManeuver()
	assert.InDelta(t, 49.95, m.RemainingDeltaV, 1e-9)

	require.NoError(t, v.SetThrottle(0))
	v.Step(0.15)

	assert.False(t, v.StageExhausted())
	assert.Equal(t, 1, v.Stage())
	assert.Equal(t, 0.5, v.Throttle())
}

func TestVessel_HoldConvergesOnBurnVector(t *testing.T) {
	v := simhost.NewVessel(newScenario(t, `
vessel: {max_acceleration: 1, stages: [10], can_hold_attitude: true, initial_aim_error: 10, aim_convergence: 0.3}
maneuvers: [{burn_start_in: 100, delta_v: 5}]
`))
	initial, _ := v.AimError()
	require.InDelta(t, 10, initial, 1e-6)

	require.NoError(t, v.EnableManeuverHold())
	for i := 0; i < 60; i++ {
		v.Step(0.02)
	}

	aim, ok := v.AimError()
	require.True(t, ok)
	assert.Less(t, aim, 0.01)

	require.NoError(t, v.EnableStabilityAssist())
	assert.Equal(t, 1, v.Commands().StabilityAssist)
}

func TestVessel_HoldUnavailableWithoutCapability(t *testing.T) {
	v := simhost.NewVessel(newScenario(t, `
vessel: {max_acceleration: 1, stages: [10]}
maneuvers: [{burn_start_in: 100, delta_v: 5}]
`))

	assert.False(t, v.CanHoldManeuverAttitude())
	assert.Error(t, v.EnableManeuverHold())
}

func TestVessel_DeleteNode(t *testing.T) {
	v := simhost.NewVessel(newScenario(t, `
vessel: {max_acceleration: 1, stages: [10]}
maneuvers: [{burn_start_in: 100, delta_v: 5}]
`))

	require.NoError(t, v.DeleteNextManeuverNode())
	assert.False(t, v.ManeuverPlanned())
	_, ok := v.NextManeuver()
	assert.False(t, ok)
	assert.ErrorIs(t, v.DeleteNextManeuverNode(), simhost.ErrNoManeuver)
}
