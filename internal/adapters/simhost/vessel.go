package simhost

import (
	"errors"
	"math"

	"github.com/mikeday37/maneuver-autothrottle/internal/domain/maneuver"
)

// ErrNoManeuver is returned by node commands when nothing is planned.
var ErrNoManeuver = errors.New("no maneuver planned")

// node is a planned maneuver. remaining is the delta-V still to apply, as
// a vector, so an overshoot shows up as the remaining magnitude growing.
type node struct {
	burnStartUT float64
	totalDeltaV float64
	remaining   maneuver.Vector3
}

// Commands counts actuator calls for tests and run summaries.
type Commands struct {
	WarpTo          int
	SetThrottle     int
	DeleteNode      int
	ManeuverHold    int
	StabilityAssist int
}

// Vessel is a toy spacecraft implementing both maneuver.Telemetry and
// maneuver.Actuator. It is not orbital mechanics: remaining delta-V
// shrinks by the thrust applied along the engine axis and nothing else
// moves. Not safe for concurrent use; the host calls it from the tick
// goroutine only.
type Vessel struct {
	spec VesselSpec

	id       maneuver.VesselID
	ut       float64
	throttle float64
	thrust   maneuver.Vector3 // unit engine axis
	hold     bool

	nodes []node

	stages       []float64
	stage        int
	exhaustedAt  float64
	hasExhausted bool

	warpStatus     maneuver.WarpStatus
	warpTarget     float64
	warpEngageLeft int

	lastAccel float64

	commands Commands
}

// NewVessel builds the vessel described by the scenario, at its start UT.
func NewVessel(s *Scenario) *Vessel {
	v := &Vessel{
		spec:       s.Vessel,
		id:         maneuver.VesselID(s.Vessel.ID),
		ut:         s.StartUT,
		stages:     append([]float64(nil), s.Vessel.Stages...),
		warpStatus: maneuver.WarpNone,
	}
	for _, m := range s.Maneuvers {
		dir := maneuver.Vector3{X: m.Direction[0], Y: m.Direction[1], Z: m.Direction[2]}.Normalize()
		v.nodes = append(v.nodes, node{
			burnStartUT: s.StartUT + m.BurnStartIn,
			totalDeltaV: m.DeltaV,
			remaining:   dir.Scale(m.DeltaV),
		})
	}

	v.thrust = maneuver.Vector3{X: 0, Y: 1, Z: 0}
	if len(v.nodes) > 0 {
		v.thrust = offsetBy(v.nodes[0].remaining.Normalize(), s.Vessel.InitialAimError)
	}
	return v
}

// offsetBy rotates the unit vector d by deg degrees about an arbitrary
// perpendicular axis.
func offsetBy(d maneuver.Vector3, deg float64) maneuver.Vector3 {
	if deg == 0 {
		return d
	}
	ref := maneuver.Vector3{X: 1}
	if math.Abs(d.X) > 0.9 {
		ref = maneuver.Vector3{Y: 1}
	}
	perp := d.Cross(ref).Normalize()
	rad := deg * math.Pi / 180
	return d.Scale(math.Cos(rad)).Add(perp.Scale(math.Sin(rad))).Normalize()
}

// Step advances the vessel by dt real seconds: warp, attitude, thrust and
// fuel, then the scripted operator's staging.
func (v *Vessel) Step(dt float64) {
	v.stepWarp(dt)
	v.stepAttitude()
	v.stepThrust(dt)
	v.stepStaging()
}

func (v *Vessel) stepWarp(dt float64) {
	if v.warpEngageLeft > 0 {
		v.warpEngageLeft--
		if v.warpEngageLeft == 0 && v.warpTarget > v.ut {
			v.warpStatus = maneuver.WarpFast
		}
	}

	if v.warpStatus != maneuver.WarpFast {
		v.ut += dt
		return
	}

	next := v.ut + dt*v.spec.WarpRate
	if next >= v.warpTarget {
		v.ut = v.warpTarget
		v.warpStatus = maneuver.WarpNone
		return
	}
	v.ut = next
}

func (v *Vessel) stepAttitude() {
	if !v.hold || len(v.nodes) == 0 {
		return
	}
	target := v.nodes[0].remaining.Normalize()
	if target == (maneuver.Vector3{}) {
		return
	}
	blended := v.thrust.Add(target.Sub(v.thrust).Scale(v.spec.AimConvergence)).Normalize()
	if blended == (maneuver.Vector3{}) {
		// exactly opposite, nudge off the singularity
		blended = offsetBy(target, 90)
	}
	if angle, ok := blended.AngleDegrees(target); ok && angle < 1e-6 {
		blended = target
	}
	v.thrust = blended
}

func (v *Vessel) stepThrust(dt float64) {
	v.lastAccel = 0
	if v.throttle <= 0 || v.warpStatus == maneuver.WarpFast || v.StageExhausted() {
		return
	}

	burnTime := dt
	need := v.throttle * dt
	if fuel := v.stages[v.stage]; need > fuel {
		burnTime = fuel / v.throttle
		need = fuel
	}
	v.stages[v.stage] -= need
	if v.stages[v.stage] <= 0 {
		v.stages[v.stage] = 0
		v.exhaustedAt = v.ut
		v.hasExhausted = true
	}

	accel := v.throttle * v.spec.MaxAcceleration
	v.lastAccel = accel * burnTime / dt
	if len(v.nodes) > 0 {
		v.nodes[0].remaining = v.nodes[0].remaining.Sub(v.thrust.Scale(accel * burnTime))
	}
}

func (v *Vessel) stepStaging() {
	if !v.hasExhausted || v.spec.RestageAfter <= 0 {
		return
	}
	if v.ut < v.exhaustedAt+v.spec.RestageAfter || v.stage+1 >= len(v.stages) {
		return
	}
	v.stage++
	v.hasExhausted = false
	if v.spec.RestageThrottle > 0 {
		v.setThrottle(v.spec.RestageThrottle)
	}
}

// SwitchVessel makes a different vessel active, as if the operator
// changed focus.
func (v *Vessel) SwitchVessel() {
	v.id++
}

// Commands returns how many times each actuator was called.
func (v *Vessel) Commands() Commands {
	return v.commands
}

// RemainingManeuvers returns how many nodes are still planned.
func (v *Vessel) RemainingManeuvers() int {
	return len(v.nodes)
}

// Stage returns the index of the active stage.
func (v *Vessel) Stage() int {
	return v.stage
}

func (v *Vessel) CurrentUT() float64 { return v.ut }

func (v *Vessel) ActiveVessel() maneuver.VesselID { return v.id }

func (v *Vessel) ManeuverPlanned() bool { return len(v.nodes) > 0 }

func (v *Vessel) NextManeuver() (maneuver.Maneuver, bool) {
	if len(v.nodes) == 0 {
		return maneuver.Maneuver{}, false
	}
	n := v.nodes[0]
	return maneuver.Maneuver{
		BurnStartUT:     n.burnStartUT,
		TotalDeltaV:     n.totalDeltaV,
		RemainingDeltaV: n.remaining.Length(),
		BurnVector:      n.remaining,
	}, true
}

func (v *Vessel) AimError() (float64, bool) {
	if len(v.nodes) == 0 {
		return 0, false
	}
	return v.thrust.AngleDegrees(v.nodes[0].remaining)
}

func (v *Vessel) ThrustVector() maneuver.Vector3 { return v.thrust }

func (v *Vessel) WarpStatus() maneuver.WarpStatus { return v.warpStatus }

func (v *Vessel) WarpRate() float64 {
	if v.warpStatus == maneuver.WarpFast {
		return v.spec.WarpRate
	}
	return 1
}

func (v *Vessel) Throttle() float64 { return v.throttle }

func (v *Vessel) CanHoldManeuverAttitude() bool {
	return v.spec.CanHoldAttitude && len(v.nodes) > 0
}

func (v *Vessel) StageExhausted() bool {
	return v.stages[v.stage] <= 0
}

func (v *Vessel) CurrentAcceleration() (float64, bool) {
	return v.lastAccel, true
}

func (v *Vessel) WarpTo(ut float64) error {
	v.commands.WarpTo++
	if ut <= v.ut {
		return nil
	}
	v.warpTarget = ut
	if v.warpStatus != maneuver.WarpFast && v.warpEngageLeft == 0 {
		v.warpEngageLeft = v.spec.WarpEngageTicks
	}
	return nil
}

func (v *Vessel) SetThrottle(throttle float64) error {
	v.commands.SetThrottle++
	v.setThrottle(throttle)
	return nil
}

func (v *Vessel) setThrottle(throttle float64) {
	v.throttle = math.Max(0, math.Min(1, throttle))
}

func (v *Vessel) DeleteNextManeuverNode() error {
	v.commands.DeleteNode++
	return v.deleteNode()
}

func (v *Vessel) deleteNode() error {
	if len(v.nodes) == 0 {
		return ErrNoManeuver
	}
	v.nodes = v.nodes[1:]
	return nil
}

func (v *Vessel) EnableManeuverHold() error {
	v.commands.ManeuverHold++
	if !v.CanHoldManeuverAttitude() {
		return errors.New("maneuver hold not available")
	}
	v.hold = true
	return nil
}

func (v *Vessel) EnableStabilityAssist() error {
	v.commands.StabilityAssist++
	v.hold = false
	return nil
}

var (
	_ maneuver.Telemetry = (*Vessel)(nil)
	_ maneuver.Actuator  = (*Vessel)(nil)
)
