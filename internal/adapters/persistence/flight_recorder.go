package persistence

import (
	"context"
	"sync/atomic"

	"github.com/mikeday37/maneuver-autothrottle/internal/application/common"
	"github.com/mikeday37/maneuver-autothrottle/internal/domain/maneuver"
)

// DefaultRecorderBuffer is the queue length used when none is configured.
const DefaultRecorderBuffer = 1024

// record is one queued event; exactly one field is set.
type record struct {
	transition *maneuver.PhaseChangedEvent
	burn       *maneuver.BurnCompletedEvent
	reset      *maneuver.ControllerResetEvent
}

// FlightRecorder is a write-behind EventSink. Events are queued from the
// tick goroutine without blocking and written by Run. When the queue is
// full the event is dropped and counted.
type FlightRecorder struct {
	repo   FlightRepository
	queue  chan record
	logger common.FlightLogger

	dropped atomic.Uint64
	written atomic.Uint64
}

// NewFlightRecorder creates a recorder writing to repo. A non-positive
// buffer uses DefaultRecorderBuffer.
func NewFlightRecorder(repo FlightRepository, buffer int, logger common.FlightLogger) *FlightRecorder {
	if buffer <= 0 {
		buffer = DefaultRecorderBuffer
	}
	if logger == nil {
		logger = common.NoOpLogger()
	}
	return &FlightRecorder{
		repo:   repo,
		queue:  make(chan record, buffer),
		logger: logger,
	}
}

func (r *FlightRecorder) PhaseChanged(e maneuver.PhaseChangedEvent) {
	r.enqueue(record{transition: &e})
}

// ThrottleCommanded is not recorded; throttle updates are too frequent to
// be worth a row each.
func (r *FlightRecorder) ThrottleCommanded(maneuver.ThrottleCommandedEvent) {}

func (r *FlightRecorder) BurnCompleted(e maneuver.BurnCompletedEvent) {
	r.enqueue(record{burn: &e})
}

func (r *FlightRecorder) ControllerReset(e maneuver.ControllerResetEvent) {
	r.enqueue(record{reset: &e})
}

func (r *FlightRecorder) enqueue(rec record) {
	select {
	case r.queue <- rec:
	default:
		r.dropped.Add(1)
	}
}

// Dropped returns how many events were discarded because the queue was full.
func (r *FlightRecorder) Dropped() uint64 {
	return r.dropped.Load()
}

// Written returns how many events were persisted.
func (r *FlightRecorder) Written() uint64 {
	return r.written.Load()
}

// Run writes queued events until ctx is cancelled, then drains what is
// already queued before returning.
func (r *FlightRecorder) Run(ctx context.Context) error {
	for {
		select {
		case rec := <-r.queue:
			r.write(ctx, rec)
		case <-ctx.Done():
			r.drain()
			return nil
		}
	}
}

func (r *FlightRecorder) drain() {
	// the run context is gone; the final writes get their own
	ctx := context.Background()
	for {
		select {
		case rec := <-r.queue:
			r.write(ctx, rec)
		default:
			if n := r.dropped.Load(); n > 0 {
				r.logger.Log(common.LevelWarn, "Flight recorder dropped events", map[string]interface{}{
					"dropped": n,
				})
			}
			return
		}
	}
}

func (r *FlightRecorder) write(ctx context.Context, rec record) {
	var err error
	switch {
	case rec.transition != nil:
		err = r.repo.SaveTransition(ctx, *rec.transition)
	case rec.burn != nil:
		err = r.repo.SaveBurn(ctx, *rec.burn)
	case rec.reset != nil:
		err = r.repo.SaveReset(ctx, *rec.reset)
	}
	if err != nil {
		r.logger.Log(common.LevelError, "Flight recorder write failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	r.written.Add(1)
}

var _ maneuver.EventSink = (*FlightRecorder)(nil)
