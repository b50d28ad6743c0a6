package maneuver

import "time"

// PhaseChangedEvent is published when a pending phase is committed.
type PhaseChangedEvent struct {
	SessionID string
	Vessel    VesselID
	From      Phase
	To        Phase
	UT        float64
	At        time.Time
}

// ThrottleCommandedEvent is published for every throttle command the
// controller issues.
type ThrottleCommandedEvent struct {
	SessionID string
	Phase     Phase
	Throttle  float64
	UT        float64
}

// BurnCompletedEvent summarises one executed maneuver. ResidualDeltaV is
// the remaining delta-V observed when the engine was cut.
type BurnCompletedEvent struct {
	SessionID      string
	Vessel         VesselID
	TotalDeltaV    float64
	ResidualDeltaV float64
	BurnStartUT    float64
	BurnEndUT      float64
	Stagings       int
	Overshoot      bool
	At             time.Time
}

// BurnDuration returns the simulation seconds between ignition and cutoff.
func (e BurnCompletedEvent) BurnDuration() float64 {
	return e.BurnEndUT - e.BurnStartUT
}

// ResetReason explains why the controller returned to idle.
type ResetReason string

const (
	ResetVesselChanged ResetReason = "vessel_changed"
	ResetNoManeuver    ResetReason = "no_maneuver"
	ResetIdle          ResetReason = "idle"
	ResetExternal      ResetReason = "external"
)

// ControllerResetEvent is published whenever the controller performs a
// full reset.
type ControllerResetEvent struct {
	SessionID string
	Vessel    VesselID
	From      Phase
	Reason    ResetReason
	UT        float64
	At        time.Time
}

// EventSink receives controller events. Implementations are called from
// the tick loop and must return quickly.
type EventSink interface {
	PhaseChanged(event PhaseChangedEvent)
	ThrottleCommanded(event ThrottleCommandedEvent)
	BurnCompleted(event BurnCompletedEvent)
	ControllerReset(event ControllerResetEvent)
}

// EventSinks fans events out to several sinks.
type EventSinks []EventSink

func (s EventSinks) PhaseChanged(event PhaseChangedEvent) {
	for _, sink := range s {
		sink.PhaseChanged(event)
	}
}

func (s EventSinks) ThrottleCommanded(event ThrottleCommandedEvent) {
	for _, sink := range s {
		sink.ThrottleCommanded(event)
	}
}

func (s EventSinks) BurnCompleted(event BurnCompletedEvent) {
	for _, sink := range s {
		sink.BurnCompleted(event)
	}
}

func (s EventSinks) ControllerReset(event ControllerResetEvent) {
	for _, sink := range s {
		sink.ControllerReset(event)
	}
}
