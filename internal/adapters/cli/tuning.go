package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mikeday37/maneuver-autothrottle/internal/infrastructure/config"
)

// NewTuningCommand creates the tuning command with subcommands
func NewTuningCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tuning",
		Short: "Inspect and check controller tuning",
		Long: `Inspect and check the tuning table the controller flies with.

Unset values fall back to the built-in defaults. The throttle ramp must be
sorted by descending seconds remaining.

Examples:
  autothrottle tuning show
  autothrottle tuning show --config configs/autothrottle.yaml
  autothrottle tuning validate my-tuning.yaml`,
	}

	cmd.AddCommand(newTuningShowCommand())
	cmd.AddCommand(newTuningValidateCommand())

	return cmd
}

func newTuningShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective tuning as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadedConfig()
			if err != nil {
				return err
			}

			table, err := cfg.Tuning.ToTable()
			if err != nil {
				return fmt.Errorf("invalid tuning: %w", err)
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(map[string]config.TuningConfig{"tuning": config.TuningFromTable(table)}); err != nil {
				return fmt.Errorf("failed to encode tuning: %w", err)
			}
			return enc.Close()
		},
	}
}

func newTuningValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a tuning file, or the loaded configuration",
		Long: `Check a tuning file, or the loaded configuration when no file is given.

The file holds a "tuning:" section in the same layout "tuning show" prints.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				if _, err := loadedConfig(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration is valid")
				return nil
			}

			t, err := readTuningFile(args[0])
			if err != nil {
				return err
			}
			if err := config.ValidateTuning(&t); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is valid\n", args[0])
			return nil
		},
	}
}

// readTuningFile decodes a tuning section and fills unset values from the
// defaults.
func readTuningFile(path string) (config.TuningConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return config.TuningConfig{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc struct {
		Tuning config.TuningConfig `yaml:"tuning"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return config.TuningConfig{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg := &config.Config{Tuning: doc.Tuning}
	config.SetDefaults(cfg)
	return cfg.Tuning, nil
}
