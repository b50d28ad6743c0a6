package maneuver

// Telemetry is the read-only view of the vessel. Every query is answered
// fresh. Queries that only make sense with a planned maneuver report
// ok=false when there is none.
type Telemetry interface {
	// CurrentUT returns simulation (universal) time in seconds.
	CurrentUT() float64

	ActiveVessel() VesselID

	ManeuverPlanned() bool

	// NextManeuver returns the first planned maneuver node.
	NextManeuver() (Maneuver, bool)

	// AimError returns the angle in degrees between the thrust vector and
	// the next maneuver's burn vector.
	AimError() (float64, bool)

	ThrustVector() Vector3

	WarpStatus() WarpStatus
	WarpRate() float64

	// Throttle returns the main throttle setting in [0,1].
	Throttle() float64

	// CanHoldManeuverAttitude reports whether the vessel's autopilot can
	// hold attitude toward the maneuver burn vector.
	CanHoldManeuverAttitude() bool

	// StageExhausted reports whether no active engine in the current stage
	// can sustain thrust.
	StageExhausted() bool

	// CurrentAcceleration returns the vessel's measured acceleration, if known.
	CurrentAcceleration() (float64, bool)
}

// Actuator issues commands to the vessel. Commands are best effort; a
// returned error is informational only.
type Actuator interface {
	// WarpTo requests time warp until the given UT. It does not block;
	// engagement is observed later through Telemetry.WarpStatus.
	WarpTo(ut float64) error

	// SetThrottle sets the main throttle, clamped to [0,1].
	SetThrottle(throttle float64) error

	DeleteNextManeuverNode() error
	EnableManeuverHold() error
	EnableStabilityAssist() error
}
