package simhost_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikeday37/maneuver-autothrottle/internal/adapters/simhost"
)

type countingTicker struct {
	physics, late int
	order        []string
}

func (c *countingTicker) OnPhysicsTick() {
	c.physics++
	if len(c.order) < 4 {
		c.order = append(c.order, "physics")
	}
}

func (c *countingTicker) OnLateTick() {
	c.late++
	if len(c.order) < 4 {
		c.order = append(c.order, "late")
	}
}

type fakeSwitch struct {
	enabled, repeat bool
}

func (f *fakeSwitch) Toggle() bool       { f.enabled = !f.enabled; return f.enabled }
func (f *fakeSwitch) ToggleRepeat() bool { f.repeat = !f.repeat; return f.repeat }
func (f *fakeSwitch) Disable() bool      { was := f.enabled; f.enabled = false; return was }

func TestHost_DrivesBothTickRates(t *testing.T) {
	// Arrange
	s := newScenario(t, `
physics_rate: 50
frame_rate: 30
max_seconds: 1
vessel: {max_acceleration: 1, stages: [1]}
`)
	host := simhost.NewHost(s, simhost.NewVessel(s), nil)
	ticker := &countingTicker{}

	// Act
	result, err := host.Run(context.Background(), ticker, nil)

	// Assert
	require.NoError(t, err)
	assert.InDelta(t, 50, ticker.physics, 1)
	assert.InDelta(t, 30, ticker.late, 1)
	assert.Equal(t, uint64(ticker.physics), result.PhysicsTicks)
	assert.Equal(t, []string{"physics", "physics", "late", "physics"}, ticker.order)
	assert.False(t, result.Stopped)
}

func TestHost_StopConditionEndsRun(t *testing.T) {
	s := newScenario(t, `
max_seconds: 100
vessel: {max_acceleration: 1, stages: [1]}
`)
	host := simhost.NewHost(s, simhost.NewVessel(s), nil)
	ticker := &countingTicker{}

	result, err := host.Run(context.Background(), ticker, func() bool { return ticker.late >= 10 })

	require.NoError(t, err)
	assert.True(t, result.Stopped)
	assert.Equal(t, 10, ticker.late)
}

func TestHost_FiresScriptedEvents(t *testing.T) {
	s := newScenario(t, `
max_seconds: 2
vessel: {max_acceleration: 1, stages: [1]}
maneuvers: [{burn_start_in: 100, delta_v: 5}]
events:
  - {at: 1.0, action: switch_vessel}
  - {at: 0.5, action: toggle}
  - {at: 1.5, action: delete_node}
`)
	vessel := simhost.NewVessel(s)
	sw := &fakeSwitch{}
	host := simhost.NewHost(s, vessel, sw)

	_, err := host.Run(context.Background(), &countingTicker{}, nil)

	require.NoError(t, err)
	assert.True(t, sw.enabled)
	assert.EqualValues(t, 2, vessel.ActiveVessel())
	assert.False(t, vessel.ManeuverPlanned())
	assert.Zero(t, vessel.Commands().DeleteNode, "operator actions are not controller commands")
}

func TestHost_SwitchEventNeedsSwitch(t *testing.T) {
	s := newScenario(t, `
vessel: {max_acceleration: 1, stages: [1]}
events: [{at: 0, action: disable}]
`)
	host := simhost.NewHost(s, simhost.NewVessel(s), nil)

	_, err := host.Run(context.Background(), &countingTicker{}, nil)

	require.Error(t, err)
}

func TestHost_CancelledContext(t *testing.T) {
	s := newScenario(t, `
vessel: {max_acceleration: 1, stages: [1]}
`)
	host := simhost.NewHost(s, simhost.NewVessel(s), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := host.Run(ctx, &countingTicker{}, nil)

	assert.ErrorIs(t, err, context.Canceled)
}
