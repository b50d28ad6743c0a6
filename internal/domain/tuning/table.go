package tuning

import (
	"fmt"

	"github.com/mikeday37/maneuver-autothrottle/internal/domain/shared"
)

// StabilizationRequirement is the settling window of a phase. A phase is
// settled only when every threshold is met at the same time, because the
// physics and frame rates drift independently and warp dilates UT.
type StabilizationRequirement struct {
	MinPhysicsTicks uint64
	MinLateTicks    uint64
	MinSeconds      float64
}

// Met reports whether the counters satisfy the requirement.
func (r StabilizationRequirement) Met(physicsTicks, lateTicks uint64, seconds float64) bool {
	return physicsTicks >= r.MinPhysicsTicks &&
		lateTicks >= r.MinLateTicks &&
		seconds >= r.MinSeconds
}

// RampStep caps the throttle once the estimated burn time remaining drops
// to SecondsRemaining or below.
type RampStep struct {
	SecondsRemaining float64
	MaxThrottle      float64
}

// Table holds every tunable threshold of the controller. Construct it with
// NewTable so the ramp ordering is checked once, up front.
type Table struct {
	ManeuverHold bool

	AimToleranceAutopilot float64 // degrees
	AimToleranceManual    float64 // degrees
	AimStabilization      StabilizationRequirement

	WarpRetrySpacing uint64 // late ticks

	FarMargin   float64 // seconds before burn start
	FarWarpRest StabilizationRequirement

	NearMargin   float64
	NearWarpRest StabilizationRequirement

	IgnitionRamp    float64 // seconds
	InitialThrottle float64

	DeltaVGoal           float64
	IncreaseEpsilon      float64
	ThrottleSafetyMargin float64
	ThrottleZeroRest     StabilizationRequirement

	NextManeuverCooldown StabilizationRequirement

	// Ramp must be sorted by strictly descending SecondsRemaining; the
	// first matching step wins.
	Ramp []RampStep
}

// NewTable validates t and returns a copy that does not share the ramp
// slice with the caller.
func NewTable(t Table) (*Table, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	out := t
	out.Ramp = append([]RampStep(nil), t.Ramp...)
	return &out, nil
}

// Default returns the stock tuning.
func Default() *Table {
	t, err := NewTable(Table{
		ManeuverHold:          true,
		AimToleranceAutopilot: 0.01,
		AimToleranceManual:    2.0,
		AimStabilization:      StabilizationRequirement{5, 5, 0.4},
		WarpRetrySpacing:      5,
		FarMargin:             60.0,
		FarWarpRest:           StabilizationRequirement{5, 5, 0.2},
		NearMargin:            5.0,
		NearWarpRest:          StabilizationRequirement{5, 5, 0.2},
		IgnitionRamp:          0.5,
		InitialThrottle:       0.1,
		DeltaVGoal:            0.001,
		IncreaseEpsilon:       0.00001,
		ThrottleSafetyMargin:  0.0002,
		ThrottleZeroRest:      StabilizationRequirement{5, 5, 0.4},
		NextManeuverCooldown:  StabilizationRequirement{5, 5, 1.0},
		Ramp:                  DefaultRamp(),
	})
	if err != nil {
		panic(fmt.Sprintf("default tuning is invalid: %v", err))
	}
	return t
}

// DefaultRamp returns a fresh copy of the stock ramp-down curve.
func DefaultRamp() []RampStep {
	return []RampStep{
		{2.0, 0.8},
		{1.0, 0.4},
		{0.7, 0.2},
		{0.5, 0.1},
		{0.4, 0.05},
		{0.3, 0.02},
		{0.2, 0.01},
		{0.1, 0.005},
	}
}

// Validate checks every field and reports all problems together.
func (t Table) Validate() error {
	var errs shared.ValidationErrors
	add := func(field, msg string, args ...any) {
		errs = append(errs, shared.NewValidationError(field, fmt.Sprintf(msg, args...)))
	}

	if t.AimToleranceAutopilot <= 0 {
		add("aim_tolerance_autopilot", "must be positive, got %v", t.AimToleranceAutopilot)
	}
	if t.AimToleranceManual <= 0 {
		add("aim_tolerance_manual", "must be positive, got %v", t.AimToleranceManual)
	}
	if t.WarpRetrySpacing == 0 {
		add("warp_retry_spacing", "must be at least 1 late tick")
	}
	if t.NearMargin <= 0 {
		add("near_margin", "must be positive, got %v", t.NearMargin)
	}
	if t.FarMargin <= t.NearMargin {
		add("far_margin", "must exceed near_margin (%v), got %v", t.NearMargin, t.FarMargin)
	}
	if t.IgnitionRamp <= 0 {
		add("ignition_ramp", "must be positive, got %v", t.IgnitionRamp)
	}
	if t.InitialThrottle <= 0 || t.InitialThrottle > 1 {
		add("initial_throttle", "must be in (0,1], got %v", t.InitialThrottle)
	}
	if t.DeltaVGoal < 0 {
		add("delta_v_goal", "must not be negative, got %v", t.DeltaVGoal)
	}
	if t.IncreaseEpsilon < 0 {
		add("increase_epsilon", "must not be negative, got %v", t.IncreaseEpsilon)
	}
	if t.ThrottleSafetyMargin < 0 {
		add("throttle_safety_margin", "must not be negative, got %v", t.ThrottleSafetyMargin)
	}

	for _, r := range []struct {
		name string
		req  StabilizationRequirement
	}{
		{"aim_stabilization", t.AimStabilization},
		{"far_warp_rest", t.FarWarpRest},
		{"near_warp_rest", t.NearWarpRest},
		{"throttle_zero_rest", t.ThrottleZeroRest},
		{"next_maneuver_cooldown", t.NextManeuverCooldown},
	} {
		if r.req.MinSeconds < 0 {
			add(r.name+".min_seconds", "must not be negative, got %v", r.req.MinSeconds)
		}
	}

	errs = append(errs, ValidateRamp(t.Ramp)...)

	return errs.Err()
}

// ValidateRamp checks that thresholds are positive and strictly
// descending, and that every throttle cap is in [0,1].
func ValidateRamp(ramp []RampStep) []*shared.ValidationError {
	var errs []*shared.ValidationError
	for i, step := range ramp {
		field := fmt.Sprintf("ramp[%d]", i)
		if step.SecondsRemaining <= 0 {
			errs = append(errs, shared.NewValidationError(field+".seconds_remaining",
				fmt.Sprintf("must be positive, got %v", step.SecondsRemaining)))
		}
		if step.MaxThrottle < 0 || step.MaxThrottle > 1 {
			errs = append(errs, shared.NewValidationError(field+".max_throttle",
				fmt.Sprintf("must be in [0,1], got %v", step.MaxThrottle)))
		}
		if i > 0 && step.SecondsRemaining >= ramp[i-1].SecondsRemaining {
			errs = append(errs, shared.NewValidationError(field+".seconds_remaining",
				fmt.Sprintf("must be below ramp[%d] (%v), got %v", i-1, ramp[i-1].SecondsRemaining, step.SecondsRemaining)))
		}
	}
	return errs
}

// AimTolerance returns the allowed aim error for the given autopilot mode.
func (t *Table) AimTolerance(autopilot bool) float64 {
	if autopilot {
		return t.AimToleranceAutopilot
	}
	return t.AimToleranceManual
}

// RampCap returns the first ramp step whose threshold the estimate meets
// and whose cap sits below throttle by more than the safety margin.
func (t *Table) RampCap(estimatedSeconds, throttle float64) (RampStep, bool) {
	for _, step := range t.Ramp {
		if estimatedSeconds <= step.SecondsRemaining && throttle > step.MaxThrottle+t.ThrottleSafetyMargin {
			return step, true
		}
	}
	return RampStep{}, false
}
