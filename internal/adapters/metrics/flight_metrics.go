package metrics

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mikeday37/maneuver-autothrottle/internal/application/autothrottle"
	"github.com/mikeday37/maneuver-autothrottle/internal/domain/maneuver"
)

// FlightMetricsCollector turns controller events into Prometheus series and
// polls the controller snapshot for the gauges events cannot carry.
type FlightMetricsCollector struct {
	// Dependencies
	getSnapshot func() autothrottle.Snapshot

	// Event metrics
	phaseTransitions *prometheus.CounterVec
	throttleCommands prometheus.Counter
	throttle         prometheus.Gauge
	burnsCompleted   *prometheus.CounterVec
	burnResidual     prometheus.Histogram
	burnDuration     prometheus.Histogram
	stagings         prometheus.Counter
	resets           *prometheus.CounterVec

	// Snapshot metrics
	currentPhase      *prometheus.GaugeVec
	switchEnabled     prometheus.Gauge
	repeatEnabled     prometheus.Gauge
	burnTimeRemaining prometheus.Gauge
	warpAttempts      prometheus.Gauge

	// Lifecycle
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewFlightMetricsCollector creates a collector. getSnapshot may be nil
// when only event metrics are wanted.
func NewFlightMetricsCollector(getSnapshot func() autothrottle.Snapshot) *FlightMetricsCollector {
	return &FlightMetricsCollector{
		getSnapshot: getSnapshot,

		phaseTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "phase_transitions_total",
				Help:      "Committed phase changes by source and destination phase",
			},
			[]string{"from", "to"},
		),

		throttleCommands: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "throttle_commands_total",
				Help:      "Total number of throttle commands issued",
			},
		),

		throttle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "throttle_commanded",
				Help:      "Most recently commanded throttle",
			},
		),

		burnsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "burns_completed_total",
				Help:      "Burns cut off, labelled by whether an overshoot ended them",
			},
			[]string{"overshoot"},
		),

		burnResidual: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "burn_residual_delta_v",
				Help:      "Remaining delta-V in m/s when the engine was cut",
				Buckets:   []float64{0.0005, 0.001, 0.002, 0.005, 0.01, 0.05, 0.1, 1},
			},
		),

		burnDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "burn_duration_seconds",
				Help:      "Simulation seconds from ignition to cutoff",
				Buckets:   []float64{1, 5, 10, 30, 60, 300, 600, 1800},
			},
		),

		stagings: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stagings_total",
				Help:      "Total number of mid-burn stage exhaustions",
			},
		),

		resets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "resets_total",
				Help:      "Controller resets by reason",
			},
			[]string{"reason"},
		),

		currentPhase: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "phase",
				Help:      "1 for the phase the controller is in, 0 otherwise",
			},
			[]string{"phase"},
		),

		switchEnabled: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "switch_enabled",
				Help:      "Master switch position",
			},
		),

		repeatEnabled: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "repeat_enabled",
				Help:      "Repeat flag position",
			},
		),

		burnTimeRemaining: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "burn_time_remaining_seconds",
				Help:      "Estimated seconds to finish the burn at the current throttle, 0 when unknown",
			},
		),

		warpAttempts: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "warp_attempts",
				Help:      "Warp requests issued for the current warp phase",
			},
		),
	}
}

// Register registers all metrics with the Prometheus registry
func (c *FlightMetricsCollector) Register() error {
	if Registry == nil {
		return nil // Metrics not enabled
	}

	for _, metric := range c.collectors() {
		if err := Registry.Register(metric); err != nil {
			return err
		}
	}

	return nil
}

func (c *FlightMetricsCollector) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.phaseTransitions,
		c.throttleCommands,
		c.throttle,
		c.burnsCompleted,
		c.burnResidual,
		c.burnDuration,
		c.stagings,
		c.resets,
		c.currentPhase,
		c.switchEnabled,
		c.repeatEnabled,
		c.burnTimeRemaining,
		c.warpAttempts,
	}
}

// Start begins polling the controller snapshot
func (c *FlightMetricsCollector) Start(ctx context.Context, interval time.Duration) {
	c.ctx, c.cancelFunc = context.WithCancel(ctx)
	if c.getSnapshot == nil {
		return
	}

	c.wg.Add(1)
	go c.collectSnapshotMetrics(interval)
}

// Stop gracefully stops the snapshot polling
func (c *FlightMetricsCollector) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.wg.Wait()
}

func (c *FlightMetricsCollector) collectSnapshotMetrics(interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.UpdateFromSnapshot(c.getSnapshot())
		}
	}
}

// UpdateFromSnapshot sets the polled gauges from one snapshot.
func (c *FlightMetricsCollector) UpdateFromSnapshot(s autothrottle.Snapshot) {
	for _, p := range maneuver.AllPhases() {
		v := 0.0
		if p == s.Phase {
			v = 1
		}
		c.currentPhase.WithLabelValues(string(p)).Set(v)
	}

	c.switchEnabled.Set(boolToFloat(s.Enabled))
	c.repeatEnabled.Set(boolToFloat(s.RepeatEnabled))
	c.warpAttempts.Set(float64(s.WarpAttempts))

	// +Inf means the burn stalled; report it as unknown like the no-estimate case
	remaining := 0.0
	if s.EstimateValid && s.Estimate.BurnTimeRemaining < maxReportedBurnTime {
		remaining = s.Estimate.BurnTimeRemaining
	}
	c.burnTimeRemaining.Set(remaining)
}

const maxReportedBurnTime = 1e9

func (c *FlightMetricsCollector) PhaseChanged(e maneuver.PhaseChangedEvent) {
	c.phaseTransitions.WithLabelValues(string(e.From), string(e.To)).Inc()
}

func (c *FlightMetricsCollector) ThrottleCommanded(e maneuver.ThrottleCommandedEvent) {
	c.throttleCommands.Inc()
	c.throttle.Set(e.Throttle)
}

func (c *FlightMetricsCollector) BurnCompleted(e maneuver.BurnCompletedEvent) {
	c.burnsCompleted.WithLabelValues(strconv.FormatBool(e.Overshoot)).Inc()
	c.burnResidual.Observe(e.ResidualDeltaV)
	c.burnDuration.Observe(e.BurnDuration())
	c.stagings.Add(float64(e.Stagings))
}

func (c *FlightMetricsCollector) ControllerReset(e maneuver.ControllerResetEvent) {
	c.resets.WithLabelValues(string(e.Reason)).Inc()
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

var _ maneuver.EventSink = (*FlightMetricsCollector)(nil)
