package maneuver

import "math"

// VesselID identifies the active vessel. Zero means no vessel.
type VesselID uint32

// WarpStatus describes what kind of time warp is in effect.
type WarpStatus string

const (
	WarpNone    WarpStatus = "NONE"
	WarpFast    WarpStatus = "FAST"
	WarpPhysics WarpStatus = "PHYSICS"
	WarpUnknown WarpStatus = "UNKNOWN"
)

// Vector3 is a direction or velocity in the vessel's reference frame.
type Vector3 struct {
	X, Y, Z float64
}

func (v Vector3) Add(o Vector3) Vector3   { return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vector3) Sub(o Vector3) Vector3   { return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vector3) Scale(s float64) Vector3 { return Vector3{v.X * s, v.Y * s, v.Z * s} }
func (v Vector3) Dot(o Vector3) float64   { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vector3) Length() float64         { return math.Sqrt(v.Dot(v)) }

func (v Vector3) Cross(o Vector3) Vector3 {
	return Vector3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// Normalize returns the unit vector in the direction of v, or the zero
// vector if v has no length.
func (v Vector3) Normalize() Vector3 {
	l := v.Length()
	if l < 1e-12 {
		return Vector3{}
	}
	return v.Scale(1 / l)
}

// AngleDegrees returns the angle between v and o in degrees. The second
// result is false if either vector is zero.
func (v Vector3) AngleDegrees(o Vector3) (float64, bool) {
	lv, lo := v.Length(), o.Length()
	if lv < 1e-12 || lo < 1e-12 {
		return 0, false
	}
	c := v.Dot(o) / (lv * lo)
	if c > 1 {
		c = 1
	} else if c < -1 {
		c = -1
	}
	return math.Acos(c) * 180 / math.Pi, true
}

// Maneuver is a planned velocity change, as reported by telemetry. It is
// always fetched fresh and never cached across ticks.
type Maneuver struct {
	BurnStartUT     float64
	TotalDeltaV     float64
	RemainingDeltaV float64
	BurnVector      Vector3
}

// TimeToBurnStart returns the seconds from now until the burn should
// start. Negative once the nominal start has passed.
func (m Maneuver) TimeToBurnStart(nowUT float64) float64 {
	return m.BurnStartUT - nowUT
}
