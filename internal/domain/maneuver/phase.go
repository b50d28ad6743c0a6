package maneuver

import "fmt"

// Phase is one step of the burn execution protocol.
type Phase string

const (
	PhaseIdle Phase = "IDLE"

	PhaseFarAim          Phase = "FAR_AIM"
	PhaseFarAimStabilize Phase = "FAR_AIM_STABILIZE"

	PhaseFarWarpStart Phase = "FAR_WARP_START"
	PhaseFarWarpWait  Phase = "FAR_WARP_WAIT"
	PhaseFarWarpRest  Phase = "FAR_WARP_REST"

	PhaseNearAim          Phase = "NEAR_AIM"
	PhaseNearAimStabilize Phase = "NEAR_AIM_STABILIZE"

	PhaseNearWarpStart Phase = "NEAR_WARP_START"
	PhaseNearWarpWait  Phase = "NEAR_WARP_WAIT"
	PhaseNearWarpRest  Phase = "NEAR_WARP_REST"

	PhaseCountdown Phase = "COUNTDOWN"

	PhaseThrottleUp   Phase = "THROTTLE_UP"
	PhaseThrottleMax  Phase = "THROTTLE_MAX"
	PhaseThrottleDown Phase = "THROTTLE_DOWN"
	PhaseThrottleZero Phase = "THROTTLE_ZERO"

	PhaseDone Phase = "DONE"

	PhaseStaging Phase = "STAGING"

	PhaseNextManeuver Phase = "NEXT_MANEUVER"
)

// phaseOrder is the total order of phases. Skip-ahead decisions compare
// ranks, so the approach sub-range FarAim..Countdown must stay contiguous
// and in execution order.
var phaseOrder = []Phase{
	PhaseIdle,
	PhaseFarAim,
	PhaseFarAimStabilize,
	PhaseFarWarpStart,
	PhaseFarWarpWait,
	PhaseFarWarpRest,
	PhaseNearAim,
	PhaseNearAimStabilize,
	PhaseNearWarpStart,
	PhaseNearWarpWait,
	PhaseNearWarpRest,
	PhaseCountdown,
	PhaseThrottleUp,
	PhaseThrottleMax,
	PhaseThrottleDown,
	PhaseThrottleZero,
	PhaseDone,
	PhaseStaging,
	PhaseNextManeuver,
}

var phaseRanks = func() map[Phase]int {
	ranks := make(map[Phase]int, len(phaseOrder))
	for i, p := range phaseOrder {
		ranks[p] = i
	}
	return ranks
}()

// AllPhases returns every phase in rank order.
func AllPhases() []Phase {
	out := make([]Phase, len(phaseOrder))
	copy(out, phaseOrder)
	return out
}

// ParsePhase converts a stored or transmitted phase name back to a Phase.
func ParsePhase(s string) (Phase, error) {
	p := Phase(s)
	if _, ok := phaseRanks[p]; !ok {
		return "", fmt.Errorf("unknown phase: %q", s)
	}
	return p, nil
}

// Rank returns the position of p in the phase order, or -1 for an unknown phase.
func (p Phase) Rank() int {
	if r, ok := phaseRanks[p]; ok {
		return r
	}
	return -1
}

// Before reports whether p ranks strictly before other.
func (p Phase) Before(other Phase) bool {
	return p.Rank() < other.Rank()
}

// IsApproach reports whether p lies in [FarAim, Countdown), the range in
// which the controller may skip ahead when the burn is close.
func (p Phase) IsApproach() bool {
	r := p.Rank()
	return r >= PhaseFarAim.Rank() && r < PhaseCountdown.Rank()
}

func (p Phase) String() string {
	return string(p)
}
