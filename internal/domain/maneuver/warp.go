package maneuver

// WarpProgress is the observed state of an issued warp request.
type WarpProgress string

const (
	WarpPending  WarpProgress = "PENDING"
	WarpEngaged  WarpProgress = "ENGAGED"
	WarpComplete WarpProgress = "COMPLETE"
)

// WarpRequest tracks one fire-and-forget warp command. The actuator
// returns immediately, so engagement and completion are discovered by
// polling the warp status on later ticks.
//
// Invariants:
// - Once engaged, a request never returns to pending
// - A request is complete when fast warp has ended after engaging, or
//   when the target time has been reached
type WarpRequest struct {
	targetUT     float64
	issuedAtTick uint64
	attempts     int
	engaged      bool
}

// NewWarpRequest records a warp to targetUT issued on the given late tick.
func NewWarpRequest(targetUT float64, tick uint64) *WarpRequest {
	return &WarpRequest{
		targetUT:     targetUT,
		issuedAtTick: tick,
		attempts:     1,
	}
}

func (r *WarpRequest) TargetUT() float64    { return r.targetUT }
func (r *WarpRequest) IssuedAtTick() uint64 { return r.issuedAtTick }
func (r *WarpRequest) Attempts() int        { return r.attempts }

// RetryDue reports whether at least spacing late ticks have passed since
// the request was last (re)issued.
func (r *WarpRequest) RetryDue(tick, spacing uint64) bool {
	if tick < r.issuedAtTick {
		return true
	}
	return tick-r.issuedAtTick >= spacing
}

// Reissue records a retry of the same request on the given tick.
func (r *WarpRequest) Reissue(targetUT float64, tick uint64) {
	r.targetUT = targetUT
	r.issuedAtTick = tick
	r.attempts++
}

// Poll updates the request from the current warp status and time.
func (r *WarpRequest) Poll(status WarpStatus, nowUT float64) WarpProgress {
	if status == WarpFast {
		r.engaged = true
		return WarpEngaged
	}
	if r.engaged || nowUT >= r.targetUT {
		return WarpComplete
	}
	return WarpPending
}
