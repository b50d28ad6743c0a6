package tuning_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikeday37/maneuver-autothrottle/internal/domain/shared"
	"github.com/mikeday37/maneuver-autothrottle/internal/domain/tuning"
)

func TestDefault_IsValid(t *testing.T) {
	table := tuning.Default()

	require.NoError(t, table.Validate())
	assert.Equal(t, 60.0, table.FarMargin)
	assert.Equal(t, 5.0, table.NearMargin)
	assert.Len(t, table.Ramp, 8)
}

func TestNewTable_RejectsUnsortedRamp(t *testing.T) {
	// Arrange
	table := *tuning.Default()
	table.Ramp = []tuning.RampStep{{1.0, 0.4}, {2.0, 0.8}}

	// Act
	_, err := tuning.NewTable(table)

	// Assert
	require.Error(t, err)
	assert.True(t, shared.IsValidationError(err))
	assert.Contains(t, err.Error(), "ramp[1].seconds_remaining")
}

func TestNewTable_RejectsDuplicateThreshold(t *testing.T) {
	table := *tuning.Default()
	table.Ramp = []tuning.RampStep{{1.0, 0.4}, {1.0, 0.2}}

	_, err := tuning.NewTable(table)

	require.Error(t, err)
}

func TestNewTable_ReportsEveryProblem(t *testing.T) {
	table := *tuning.Default()
	table.InitialThrottle = 0
	table.FarMargin = 1
	table.Ramp = []tuning.RampStep{{0.5, 1.5}}

	_, err := tuning.NewTable(table)

	require.Error(t, err)
	var errs shared.ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Len(t, errs, 3)
}

func TestValidate_ReportsRestWindowsInFieldOrder(t *testing.T) {
	table := *tuning.Default()
	table.AimStabilization.MinSeconds = -1
	table.FarWarpRest.MinSeconds = -1
	table.NearWarpRest.MinSeconds = -1
	table.ThrottleZeroRest.MinSeconds = -1
	table.NextManeuverCooldown.MinSeconds = -1

	for i := 0; i < 10; i++ {
		var errs shared.ValidationErrors
		require.ErrorAs(t, table.Validate(), &errs)

		fields := make([]string, 0, len(errs))
		for _, e := range errs {
			fields = append(fields, e.Field)
		}
		assert.Equal(t, []string{
			"aim_stabilization.min_seconds",
			"far_warp_rest.min_seconds",
			"near_warp_rest.min_seconds",
			"throttle_zero_rest.min_seconds",
			"next_maneuver_cooldown.min_seconds",
		}, fields)
	}
}

func TestNewTable_CopiesRamp(t *testing.T) {
	input := *tuning.Default()
	input.Ramp = tuning.DefaultRamp()

	table, err := tuning.NewTable(input)
	require.NoError(t, err)
	input.Ramp[0].MaxThrottle = 0.0

	assert.Equal(t, 0.8, table.Ramp[0].MaxThrottle)
}

func TestStabilizationRequirement_NeedsAllThree(t *testing.T) {
	req := tuning.StabilizationRequirement{MinPhysicsTicks: 5, MinLateTicks: 5, MinSeconds: 0.4}

	assert.False(t, req.Met(4, 5, 0.4))
	assert.False(t, req.Met(5, 4, 0.4))
	assert.False(t, req.Met(5, 5, 0.39))
	assert.True(t, req.Met(5, 5, 0.4))
	assert.True(t, req.Met(100, 6, 2))
}

func TestRampCap_ThirdEntryWhenOnlyItsThresholdIsMet(t *testing.T) {
	table := tuning.Default()

	// 0.65s meets 2.0, 1.0 and 0.7; throttle 0.4 sits at the second cap
	// so only the third step lowers it.
	step, ok := table.RampCap(0.65, 0.4)

	require.True(t, ok)
	assert.Equal(t, 0.2, step.MaxThrottle)
}

func TestRampCap_FirstMatchWins(t *testing.T) {
	table := tuning.Default()

	step, ok := table.RampCap(0.65, 1.0)

	require.True(t, ok)
	assert.Equal(t, 0.8, step.MaxThrottle)
}

func TestRampCap_SafetyMarginSuppressesTinyCuts(t *testing.T) {
	table := tuning.Default()

	_, ok := table.RampCap(1.5, 0.8001)

	assert.False(t, ok)
}

func TestRampCap_NoMatchAboveLargestThreshold(t *testing.T) {
	table := tuning.Default()

	_, ok := table.RampCap(10, 1.0)

	assert.False(t, ok)
}

func TestAimTolerance(t *testing.T) {
	table := tuning.Default()

	assert.Equal(t, 0.01, table.AimTolerance(true))
	assert.Equal(t, 2.0, table.AimTolerance(false))
}
