// Package burn estimates acceleration and remaining burn time from a short
// history of physics samples.
package burn

import "math"

const capacity = 3

// Sample is one physics-tick observation taken during a burn.
type Sample struct {
	UT              float64
	Throttle        float64
	RemainingDeltaV float64
}

// Estimate is derived from the two most recent samples.
type Estimate struct {
	Acceleration    float64
	MaxAcceleration float64
	// BurnTimeRemaining is the time to use up the remaining delta-V at the
	// current throttle. +Inf when the vessel is not accelerating toward
	// the target.
	BurnTimeRemaining float64
}

// Estimator keeps a ring of the latest samples of a single contiguous
// burn. It is not safe for concurrent use.
type Estimator struct {
	samples  [capacity]Sample
	count    int
	head     int
	estimate Estimate
	valid    bool
}

func NewEstimator() *Estimator {
	return &Estimator{}
}

// Reset discards all samples.
func (e *Estimator) Reset() {
	e.count = 0
	e.head = 0
	e.valid = false
	e.estimate = Estimate{}
}

// Record adds a sample and refreshes the estimate. A zero-throttle sample
// ends the burn and clears the buffer.
func (e *Estimator) Record(s Sample) {
	if s.Throttle <= 0 {
		e.Reset()
		return
	}

	e.samples[e.head] = s
	prev := e.samples[(e.head+capacity-1)%capacity]
	e.head = (e.head + 1) % capacity
	if e.count < capacity {
		e.count++
	}

	if e.count < 2 {
		e.valid = false
		return
	}

	dt := s.UT - prev.UT
	if dt <= 0 {
		// paused or repeated tick, nothing can be derived from it
		e.valid = false
		return
	}

	accel := (prev.RemainingDeltaV - s.RemainingDeltaV) / dt
	remaining := math.Inf(1)
	if accel > 0 {
		remaining = s.RemainingDeltaV / accel
	}
	e.estimate = Estimate{
		Acceleration:      accel,
		MaxAcceleration:   accel / prev.Throttle,
		BurnTimeRemaining: remaining,
	}
	e.valid = true
}

// Estimate returns the latest estimate, if the buffer holds enough samples
// to produce one.
func (e *Estimator) Estimate() (Estimate, bool) {
	if !e.valid {
		return Estimate{}, false
	}
	return e.estimate, true
}

// Len returns the number of buffered samples.
func (e *Estimator) Len() int {
	return e.count
}
