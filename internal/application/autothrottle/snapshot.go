package autothrottle

import (
	"github.com/mikeday37/maneuver-autothrottle/internal/domain/burn"
	"github.com/mikeday37/maneuver-autothrottle/internal/domain/maneuver"
)

// Snapshot is an immutable copy of the controller state taken at the end
// of a tick. Safe to read from any goroutine.
type Snapshot struct {
	SessionID string
	UT        float64
	Vessel    maneuver.VesselID

	Phase        maneuver.Phase
	Pending      maneuver.Phase
	HasPending   bool
	PhaseChanged bool
	PhysicsTicks uint64
	LateTicks    uint64
	PhaseAge     float64

	Autopilot     bool
	Enabled       bool
	RepeatEnabled bool

	Estimate      burn.Estimate
	EstimateValid bool

	WarpAttempts int
	WarpTargetUT float64
}
