package simhost

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"
)

// Ticker is the controller side of the host contract.
type Ticker interface {
	OnPhysicsTick()
	OnLateTick()
}

// Switch is the operator-facing master switch the scripted events act on.
type Switch interface {
	Toggle() bool
	ToggleRepeat() bool
	Disable() bool
}

// RunResult summarises a finished run.
type RunResult struct {
	PhysicsTicks uint64
	LateTicks    uint64
	RealSeconds  float64
	StartUT      float64
	EndUT        float64
	Stopped      bool // the stop condition fired before max_seconds
}

// Host drives a Ticker the way a game engine would: physics ticks at a
// fixed rate and late ticks once per frame at a jittered rate. Each
// physics tick steps the vessel first, then the ticker.
type Host struct {
	scenario *Scenario
	vessel   *Vessel
	sw       Switch
	rng      *rand.Rand

	// realTime paces ticks against the wall clock, for the daemon.
	realTime bool

	events []EventSpec
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithRealTime paces the simulation against the wall clock.
func WithRealTime() HostOption {
	return func(h *Host) {
		h.realTime = true
	}
}

// NewHost creates a host for the given scenario and vessel. sw may be nil
// when the scenario has no switch events.
func NewHost(scenario *Scenario, vessel *Vessel, sw Switch, opts ...HostOption) *Host {
	h := &Host{
		scenario: scenario,
		vessel:   vessel,
		sw:       sw,
		rng:      rand.New(rand.NewSource(scenario.Seed)),
		events:   append([]EventSpec(nil), scenario.Events...),
	}
	sort.SliceStable(h.events, func(i, j int) bool { return h.events[i].At < h.events[j].At })
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Vessel returns the simulated vessel.
func (h *Host) Vessel() *Vessel {
	return h.vessel
}

// Run ticks until stop returns true (checked after every late tick), the
// scenario's max_seconds elapse, or ctx is cancelled.
func (h *Host) Run(ctx context.Context, ticker Ticker, stop func() bool) (RunResult, error) {
	physicsDt := 1 / h.scenario.PhysicsRate
	result := RunResult{StartUT: h.vessel.CurrentUT()}

	var clock, nextPhysics, nextFrame float64
	nextFrame = h.frameInterval()
	started := time.Now()

	for clock < h.scenario.MaxSeconds {
		if err := ctx.Err(); err != nil {
			result.EndUT = h.vessel.CurrentUT()
			result.RealSeconds = clock
			return result, err
		}

		if nextPhysics <= nextFrame {
			clock = nextPhysics
			if err := h.pace(ctx, started, clock); err != nil {
				return result, err
			}
			h.vessel.Step(physicsDt)
			ticker.OnPhysicsTick()
			result.PhysicsTicks++
			nextPhysics += physicsDt
			continue
		}

		clock = nextFrame
		if err := h.pace(ctx, started, clock); err != nil {
			return result, err
		}
		if err := h.fireEvents(); err != nil {
			return result, err
		}
		ticker.OnLateTick()
		result.LateTicks++
		nextFrame += h.frameInterval()

		if stop != nil && stop() {
			result.Stopped = true
			break
		}
	}

	result.RealSeconds = clock
	result.EndUT = h.vessel.CurrentUT()
	return result, nil
}

func (h *Host) frameInterval() float64 {
	base := 1 / h.scenario.FrameRate
	if h.scenario.FrameJitter == 0 {
		return base
	}
	spread := (h.rng.Float64()*2 - 1) * h.scenario.FrameJitter
	return base * (1 + spread)
}

func (h *Host) pace(ctx context.Context, started time.Time, clock float64) error {
	if !h.realTime {
		return nil
	}
	wait := time.Until(started.Add(time.Duration(clock * float64(time.Second))))
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (h *Host) fireEvents() error {
	now := h.vessel.CurrentUT() - h.scenario.StartUT
	for len(h.events) > 0 && h.events[0].At <= now {
		ev := h.events[0]
		h.events = h.events[1:]
		if err := h.apply(ev); err != nil {
			return err
		}
	}
	return nil
}

func (h *Host) apply(ev EventSpec) error {
	switch ev.Action {
	case ActionSwitchVessel:
		h.vessel.SwitchVessel()
	case ActionDeleteNode:
		// the operator removing the node is not an error even if none is left
		_ = h.vessel.deleteNode()
	case ActionThrottle:
		h.vessel.setThrottle(ev.Value)
	case ActionToggle, ActionToggleRepeat, ActionDisable:
		if h.sw == nil {
			return fmt.Errorf("event %s at %v needs a master switch", ev.Action, ev.At)
		}
		switch ev.Action {
		case ActionToggle:
			h.sw.Toggle()
		case ActionToggleRepeat:
			h.sw.ToggleRepeat()
		default:
			h.sw.Disable()
		}
	default:
		return fmt.Errorf("unknown event action %q", ev.Action)
	}
	return nil
}
