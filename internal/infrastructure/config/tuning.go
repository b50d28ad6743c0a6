package config

import (
	"github.com/mikeday37/maneuver-autothrottle/internal/domain/tuning"
)

// TuningConfig holds the controller thresholds. Zero or nil values are
// replaced by the stock tuning in SetDefaults.
type TuningConfig struct {
	// Engage maneuver hold when the vessel supports it; nil means true
	ManeuverHold *bool `mapstructure:"maneuver_hold" yaml:"maneuver_hold"`

	// Allowed aim error in degrees with and without maneuver hold
	AimToleranceAutopilot float64 `mapstructure:"aim_tolerance_autopilot" yaml:"aim_tolerance_autopilot" validate:"gt=0,lte=180"`
	AimToleranceManual    float64 `mapstructure:"aim_tolerance_manual" yaml:"aim_tolerance_manual" validate:"gt=0,lte=180"`

	AimStabilization StabilizationConfig `mapstructure:"aim_stabilization" yaml:"aim_stabilization"`

	// Late ticks between repeated warp requests
	WarpRetrySpacing uint64 `mapstructure:"warp_retry_spacing" yaml:"warp_retry_spacing" validate:"min=1"`

	// Seconds before burn start at which each warp stops
	FarMargin    float64             `mapstructure:"far_margin" yaml:"far_margin" validate:"gtfield=NearMargin"`
	FarWarpRest  StabilizationConfig `mapstructure:"far_warp_rest" yaml:"far_warp_rest"`
	NearMargin   float64             `mapstructure:"near_margin" yaml:"near_margin" validate:"gt=0"`
	NearWarpRest StabilizationConfig `mapstructure:"near_warp_rest" yaml:"near_warp_rest"`

	IgnitionRamp    float64 `mapstructure:"ignition_ramp" yaml:"ignition_ramp" validate:"gt=0"`
	InitialThrottle float64 `mapstructure:"initial_throttle" yaml:"initial_throttle" validate:"gt=0,lte=1"`

	// Zero is a meaningful setting for these three, so nil means unset
	DeltaVGoal           *float64            `mapstructure:"delta_v_goal" yaml:"delta_v_goal" validate:"omitempty,min=0"`
	IncreaseEpsilon      *float64            `mapstructure:"increase_epsilon" yaml:"increase_epsilon" validate:"omitempty,min=0"`
	ThrottleSafetyMargin *float64            `mapstructure:"throttle_safety_margin" yaml:"throttle_safety_margin" validate:"omitempty,min=0"`
	ThrottleZeroRest     StabilizationConfig `mapstructure:"throttle_zero_rest" yaml:"throttle_zero_rest"`

	NextManeuverCooldown StabilizationConfig `mapstructure:"next_maneuver_cooldown" yaml:"next_maneuver_cooldown"`

	Ramp []RampStepConfig `mapstructure:"ramp" yaml:"ramp" validate:"ramp_descending,dive"`
}

// StabilizationConfig is a settling window: all three minimums must be met.
type StabilizationConfig struct {
	PhysicsTicks uint64  `mapstructure:"physics_ticks" yaml:"physics_ticks"`
	LateTicks    uint64  `mapstructure:"late_ticks" yaml:"late_ticks"`
	Seconds      float64 `mapstructure:"seconds" yaml:"seconds" validate:"min=0"`
}

// RampStepConfig caps the throttle once the estimated burn time drops to
// SecondsRemaining.
type RampStepConfig struct {
	SecondsRemaining float64 `mapstructure:"seconds_remaining" yaml:"seconds_remaining" validate:"gt=0"`
	MaxThrottle      float64 `mapstructure:"max_throttle" yaml:"max_throttle" validate:"min=0,max=1"`
}

// ToTable builds the validated domain tuning table. Unset optional values
// take the stock tuning.
func (t TuningConfig) ToTable() (*tuning.Table, error) {
	stock := tuning.Default()
	hold := stock.ManeuverHold
	if t.ManeuverHold != nil {
		hold = *t.ManeuverHold
	}

	ramp := make([]tuning.RampStep, len(t.Ramp))
	for i, s := range t.Ramp {
		ramp[i] = tuning.RampStep{SecondsRemaining: s.SecondsRemaining, MaxThrottle: s.MaxThrottle}
	}

	return tuning.NewTable(tuning.Table{
		ManeuverHold:          hold,
		AimToleranceAutopilot: t.AimToleranceAutopilot,
		AimToleranceManual:    t.AimToleranceManual,
		AimStabilization:      t.AimStabilization.toRequirement(),
		WarpRetrySpacing:      t.WarpRetrySpacing,
		FarMargin:             t.FarMargin,
		FarWarpRest:           t.FarWarpRest.toRequirement(),
		NearMargin:            t.NearMargin,
		NearWarpRest:          t.NearWarpRest.toRequirement(),
		IgnitionRamp:          t.IgnitionRamp,
		InitialThrottle:       t.InitialThrottle,
		DeltaVGoal:            floatOr(t.DeltaVGoal, stock.DeltaVGoal),
		IncreaseEpsilon:       floatOr(t.IncreaseEpsilon, stock.IncreaseEpsilon),
		ThrottleSafetyMargin:  floatOr(t.ThrottleSafetyMargin, stock.ThrottleSafetyMargin),
		ThrottleZeroRest:      t.ThrottleZeroRest.toRequirement(),
		NextManeuverCooldown:  t.NextManeuverCooldown.toRequirement(),
		Ramp:                  ramp,
	})
}

func floatOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func (s StabilizationConfig) toRequirement() tuning.StabilizationRequirement {
	return tuning.StabilizationRequirement{
		MinPhysicsTicks: s.PhysicsTicks,
		MinLateTicks:    s.LateTicks,
		MinSeconds:      s.Seconds,
	}
}

func fromRequirement(r tuning.StabilizationRequirement) StabilizationConfig {
	return StabilizationConfig{
		PhysicsTicks: r.MinPhysicsTicks,
		LateTicks:    r.MinLateTicks,
		Seconds:      r.MinSeconds,
	}
}

// TuningFromTable converts a domain table back into its config form, for
// printing the effective tuning.
func TuningFromTable(t *tuning.Table) TuningConfig {
	hold := t.ManeuverHold
	goal, epsilon, margin := t.DeltaVGoal, t.IncreaseEpsilon, t.ThrottleSafetyMargin
	ramp := make([]RampStepConfig, len(t.Ramp))
	for i, s := range t.Ramp {
		ramp[i] = RampStepConfig{SecondsRemaining: s.SecondsRemaining, MaxThrottle: s.MaxThrottle}
	}
	return TuningConfig{
		ManeuverHold:          &hold,
		AimToleranceAutopilot: t.AimToleranceAutopilot,
		AimToleranceManual:    t.AimToleranceManual,
		AimStabilization:      fromRequirement(t.AimStabilization),
		WarpRetrySpacing:      t.WarpRetrySpacing,
		FarMargin:             t.FarMargin,
		FarWarpRest:           fromRequirement(t.FarWarpRest),
		NearMargin:            t.NearMargin,
		NearWarpRest:          fromRequirement(t.NearWarpRest),
		IgnitionRamp:          t.IgnitionRamp,
		InitialThrottle:       t.InitialThrottle,
		DeltaVGoal:            &goal,
		IncreaseEpsilon:       &epsilon,
		ThrottleSafetyMargin:  &margin,
		ThrottleZeroRest:      fromRequirement(t.ThrottleZeroRest),
		NextManeuverCooldown:  fromRequirement(t.NextManeuverCooldown),
		Ramp:                  ramp,
	}
}
