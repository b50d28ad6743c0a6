package config

import (
	"time"

	"github.com/mikeday37/maneuver-autothrottle/internal/domain/tuning"
)

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	setTuningDefaults(&cfg.Tuning)

	// Database defaults
	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.Type == "sqlite" && cfg.Database.Path == "" {
		cfg.Database.Path = "autothrottle.db"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "autothrottle"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "autothrottle"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Pool.MaxOpen == 0 {
		cfg.Database.Pool.MaxOpen = 10
	}
	if cfg.Database.Pool.MaxIdle == 0 {
		cfg.Database.Pool.MaxIdle = 2
	}
	if cfg.Database.Pool.MaxLifetime == 0 {
		cfg.Database.Pool.MaxLifetime = 5 * time.Minute
	}

	// Daemon defaults
	if cfg.Daemon.SocketPath == "" {
		cfg.Daemon.SocketPath = "/tmp/autothrottle.sock"
	}
	if cfg.Daemon.PIDFile == "" {
		cfg.Daemon.PIDFile = "/tmp/autothrottle.pid"
	}
	if cfg.Daemon.RecorderBuffer == 0 {
		cfg.Daemon.RecorderBuffer = 1024
	}
	if cfg.Daemon.ShutdownTimeout == 0 {
		cfg.Daemon.ShutdownTimeout = 10 * time.Second
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}
	if cfg.Logging.Rotation.MaxSize == 0 {
		cfg.Logging.Rotation.MaxSize = 100 // MB
	}
	if cfg.Logging.Rotation.MaxBackups == 0 {
		cfg.Logging.Rotation.MaxBackups = 3
	}
	if cfg.Logging.Rotation.MaxAge == 0 {
		cfg.Logging.Rotation.MaxAge = 28 // days
	}

	// Metrics defaults
	if cfg.Metrics.Host == "" {
		cfg.Metrics.Host = "localhost"
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9464
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Metrics.SnapshotInterval == 0 {
		cfg.Metrics.SnapshotInterval = time.Second
	}
}

// setTuningDefaults fills every unset tuning field from the stock table. A
// settling window is taken as unset only when all three minimums are zero.
func setTuningDefaults(t *TuningConfig) {
	stock := TuningFromTable(tuning.Default())

	if t.ManeuverHold == nil {
		t.ManeuverHold = stock.ManeuverHold
	}
	if t.AimToleranceAutopilot == 0 {
		t.AimToleranceAutopilot = stock.AimToleranceAutopilot
	}
	if t.AimToleranceManual == 0 {
		t.AimToleranceManual = stock.AimToleranceManual
	}
	if t.WarpRetrySpacing == 0 {
		t.WarpRetrySpacing = stock.WarpRetrySpacing
	}
	if t.FarMargin == 0 {
		t.FarMargin = stock.FarMargin
	}
	if t.NearMargin == 0 {
		t.NearMargin = stock.NearMargin
	}
	if t.IgnitionRamp == 0 {
		t.IgnitionRamp = stock.IgnitionRamp
	}
	if t.InitialThrottle == 0 {
		t.InitialThrottle = stock.InitialThrottle
	}
	if t.DeltaVGoal == nil {
		t.DeltaVGoal = stock.DeltaVGoal
	}
	if t.IncreaseEpsilon == nil {
		t.IncreaseEpsilon = stock.IncreaseEpsilon
	}
	if t.ThrottleSafetyMargin == nil {
		t.ThrottleSafetyMargin = stock.ThrottleSafetyMargin
	}

	for _, pair := range []struct {
		field *StabilizationConfig
		stock StabilizationConfig
	}{
		{&t.AimStabilization, stock.AimStabilization},
		{&t.FarWarpRest, stock.FarWarpRest},
		{&t.NearWarpRest, stock.NearWarpRest},
		{&t.ThrottleZeroRest, stock.ThrottleZeroRest},
		{&t.NextManeuverCooldown, stock.NextManeuverCooldown},
	} {
		if *pair.field == (StabilizationConfig{}) {
			*pair.field = pair.stock
		}
	}

	if len(t.Ramp) == 0 {
		t.Ramp = stock.Ramp
	}
}
