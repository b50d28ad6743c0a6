package grpc

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mikeday37/maneuver-autothrottle/internal/application/autothrottle"
	"github.com/mikeday37/maneuver-autothrottle/internal/domain/maneuver"
)

// Snapshot <-> structpb conversion at the switch service boundary.

// Status is the client-side view of a controller snapshot.
type Status struct {
	SessionID     string
	UT            float64
	Vessel        maneuver.VesselID
	Phase         maneuver.Phase
	Pending       maneuver.Phase // empty when nothing is pending
	PhaseAge      float64
	PhysicsTicks  uint64
	LateTicks     uint64
	Autopilot     bool
	Enabled       bool
	RepeatEnabled bool

	// BurnTimeRemaining is set only while an estimate exists.
	BurnTimeRemaining *float64
	Acceleration      *float64

	WarpAttempts int
	WarpTargetUT float64
}

// SnapshotToStruct converts a snapshot for the wire.
func SnapshotToStruct(s autothrottle.Snapshot) (*structpb.Struct, error) {
	fields := map[string]interface{}{
		"session_id":     s.SessionID,
		"ut":             s.UT,
		"vessel":         uint32(s.Vessel),
		"phase":          string(s.Phase),
		"phase_age":      s.PhaseAge,
		"physics_ticks":  s.PhysicsTicks,
		"late_ticks":     s.LateTicks,
		"autopilot":      s.Autopilot,
		"enabled":        s.Enabled,
		"repeat_enabled": s.RepeatEnabled,
		"warp_attempts":  s.WarpAttempts,
		"warp_target_ut": s.WarpTargetUT,
	}
	if s.HasPending {
		fields["pending"] = string(s.Pending)
	}
	if s.EstimateValid {
		fields["acceleration"] = s.Estimate.Acceleration
		// a stalled burn has no finite estimate and JSON cannot carry Inf
		if !math.IsInf(s.Estimate.BurnTimeRemaining, 0) {
			fields["burn_time_remaining"] = s.Estimate.BurnTimeRemaining
		}
	}

	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode status: %w", err)
	}
	return st, nil
}

// StatusFromStruct decodes what SnapshotToStruct produced.
func StatusFromStruct(st *structpb.Struct) (Status, error) {
	f := st.GetFields()
	phase, err := maneuver.ParsePhase(f["phase"].GetStringValue())
	if err != nil {
		return Status{}, fmt.Errorf("bad status: %w", err)
	}

	out := Status{
		SessionID:     f["session_id"].GetStringValue(),
		UT:            f["ut"].GetNumberValue(),
		Vessel:        maneuver.VesselID(f["vessel"].GetNumberValue()),
		Phase:         phase,
		PhaseAge:      f["phase_age"].GetNumberValue(),
		PhysicsTicks:  uint64(f["physics_ticks"].GetNumberValue()),
		LateTicks:     uint64(f["late_ticks"].GetNumberValue()),
		Autopilot:     f["autopilot"].GetBoolValue(),
		Enabled:       f["enabled"].GetBoolValue(),
		RepeatEnabled: f["repeat_enabled"].GetBoolValue(),
		WarpAttempts:  int(f["warp_attempts"].GetNumberValue()),
		WarpTargetUT:  f["warp_target_ut"].GetNumberValue(),
	}
	if v, ok := f["pending"]; ok {
		out.Pending = maneuver.Phase(v.GetStringValue())
	}
	if v, ok := f["burn_time_remaining"]; ok {
		n := v.GetNumberValue()
		out.BurnTimeRemaining = &n
	}
	if v, ok := f["acceleration"]; ok {
		n := v.GetNumberValue()
		out.Acceleration = &n
	}
	return out, nil
}
