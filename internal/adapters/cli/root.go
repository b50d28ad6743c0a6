package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mikeday37/maneuver-autothrottle/internal/infrastructure/config"
)

var (
	// Global flags
	configPath string
	socketPath string
	verbose    bool

	// Loaded once per invocation by the root pre-run
	cfg     *config.Config
	loadErr error
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "autothrottle",
		Short: "Maneuver auto-throttle - fly planned burns to the node",
		Long: `autothrottle executes planned maneuvers: it aims, warps toward the burn,
ramps the throttle up and down along the configured curve, and cuts the engine
when the remaining delta-V reaches the goal.

The daemon (autothrottle-daemon) flies a scenario in real time and exposes the
master switch over a Unix socket. The switch commands talk to it; the others
inspect the tuning and flight history or replay a scenario as fast as possible.

Examples:
  autothrottle simulate configs/scenarios/single_burn.yaml
  autothrottle switch toggle
  autothrottle switch status
  autothrottle tuning show
  autothrottle history burns --limit 5`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg, loadErr = config.LoadConfig(configPath)
			if loadErr != nil {
				cfg = &config.Config{}
				config.SetDefaults(cfg)
			}
			// --socket, then AUTOTHROTTLE_SOCKET, then daemon.socket_path
			if !cmd.Flags().Changed("socket") && os.Getenv("AUTOTHROTTLE_SOCKET") == "" {
				socketPath = cfg.Daemon.SocketPath
			}
		},
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default: autothrottle.yaml in ., ./configs, /etc/autothrottle)")
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", getDefaultSocketPath(),
		"Path to daemon Unix socket")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")

	// Add command groups
	rootCmd.AddCommand(NewSimulateCommand())
	rootCmd.AddCommand(NewSwitchCommand())
	rootCmd.AddCommand(NewTuningCommand())
	rootCmd.AddCommand(NewHistoryCommand())

	return rootCmd
}

// loadedConfig returns the configuration read by the root pre-run, or the
// error that prevented reading it.
func loadedConfig() (*config.Config, error) {
	if loadErr != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", loadErr)
	}
	return cfg, nil
}

// getDefaultSocketPath returns the default socket path
func getDefaultSocketPath() string {
	if path := os.Getenv("AUTOTHROTTLE_SOCKET"); path != "" {
		return path
	}
	return "/tmp/autothrottle.sock"
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
