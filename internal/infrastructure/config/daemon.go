package config

import "time"

// DaemonConfig holds daemon service configuration
type DaemonConfig struct {
	// Unix socket path the master switch service listens on
	SocketPath string `mapstructure:"socket_path" validate:"required"`

	// PID file location
	PIDFile string `mapstructure:"pid_file" validate:"required"`

	// Scenario the real-time host flies
	Scenario string `mapstructure:"scenario"`

	// Queue length of the write-behind flight recorder
	RecorderBuffer int `mapstructure:"recorder_buffer" validate:"min=1"`

	// Skip writing burns and transitions to the database
	DisableRecorder bool `mapstructure:"disable_recorder"`

	// Graceful shutdown timeout
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required"`
}
