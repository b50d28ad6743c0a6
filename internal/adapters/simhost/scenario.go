package simhost

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario describes one simulated flight: the vessel, its planned
// maneuvers, how the host paces the two tick callbacks, and any scripted
// operator actions.
type Scenario struct {
	Name    string  `yaml:"name"`
	StartUT float64 `yaml:"start_ut"`

	// PhysicsRate is physics ticks per real second.
	PhysicsRate float64 `yaml:"physics_rate"`
	// FrameRate is the mean late ticks per real second; FrameJitter is the
	// relative spread of each frame interval.
	FrameRate   float64 `yaml:"frame_rate"`
	FrameJitter float64 `yaml:"frame_jitter"`
	Seed        int64   `yaml:"seed"`

	// MaxSeconds bounds the run in simulated real seconds.
	MaxSeconds float64 `yaml:"max_seconds"`

	Vessel    VesselSpec     `yaml:"vessel"`
	Maneuvers []ManeuverSpec `yaml:"maneuvers"`
	Switch    SwitchSpec     `yaml:"switch"`
	Events    []EventSpec    `yaml:"events"`
}

// VesselSpec holds the toy vessel characteristics.
type VesselSpec struct {
	ID              uint32  `yaml:"id"`
	MaxAcceleration float64 `yaml:"max_acceleration"`
	CanHoldAttitude bool    `yaml:"can_hold_attitude"`

	// InitialAimError is the starting angle in degrees between the engine
	// and the first burn vector.
	InitialAimError float64 `yaml:"initial_aim_error"`
	// AimConvergence is the fraction of the aim error removed per physics
	// tick while maneuver hold is engaged.
	AimConvergence float64 `yaml:"aim_convergence"`

	// Stages lists fuel per stage in full-throttle seconds, first stage
	// first.
	Stages []float64 `yaml:"stages"`
	// RestageAfter is how long the scripted operator waits after a stage
	// runs dry before staging. Zero means never.
	RestageAfter float64 `yaml:"restage_after"`
	// RestageThrottle, when positive, is applied by the operator right
	// after staging.
	RestageThrottle float64 `yaml:"restage_throttle"`

	WarpRate        float64 `yaml:"warp_rate"`
	WarpEngageTicks int     `yaml:"warp_engage_ticks"`
}

// ManeuverSpec is one planned node. BurnStartIn is relative to StartUT.
type ManeuverSpec struct {
	BurnStartIn float64    `yaml:"burn_start_in"`
	DeltaV      float64    `yaml:"delta_v"`
	Direction   [3]float64 `yaml:"direction"`
}

// SwitchSpec is the master switch position at the start of the run.
type SwitchSpec struct {
	Enabled bool `yaml:"enabled"`
	Repeat  bool `yaml:"repeat"`
}

// EventAction is a scripted operator action.
type EventAction string

const (
	ActionToggle       EventAction = "toggle"
	ActionToggleRepeat EventAction = "toggle_repeat"
	ActionDisable      EventAction = "disable"
	ActionSwitchVessel EventAction = "switch_vessel"
	ActionDeleteNode   EventAction = "delete_node"
	ActionThrottle     EventAction = "throttle"
)

// EventSpec fires Action once simulation time passes StartUT + At.
type EventSpec struct {
	At     float64     `yaml:"at"`
	Action EventAction `yaml:"action"`
	Value  float64     `yaml:"value"`
}

// LoadScenario reads a scenario from a YAML file and fills defaults.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario %s: %w", path, err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes YAML and fills defaults.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := s.Normalize(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Normalize fills defaults and validates. Scenarios built in code must
// call it before use.
func (s *Scenario) Normalize() error {
	s.applyDefaults()
	return s.Validate()
}

func (s *Scenario) applyDefaults() {
	if s.Name == "" {
		s.Name = "unnamed"
	}
	if s.PhysicsRate <= 0 {
		s.PhysicsRate = 50
	}
	if s.FrameRate <= 0 {
		s.FrameRate = 60
	}
	if s.MaxSeconds <= 0 {
		s.MaxSeconds = 3600
	}
	if s.Vessel.ID == 0 {
		s.Vessel.ID = 1
	}
	if s.Vessel.AimConvergence <= 0 {
		s.Vessel.AimConvergence = 0.2
	}
	if s.Vessel.WarpRate <= 0 {
		s.Vessel.WarpRate = 50
	}
	if s.Vessel.WarpEngageTicks <= 0 {
		s.Vessel.WarpEngageTicks = 3
	}
	for i := range s.Maneuvers {
		if s.Maneuvers[i].Direction == [3]float64{} {
			s.Maneuvers[i].Direction = [3]float64{0, 1, 0}
		}
	}
}

// Validate rejects scenarios the simulation cannot run.
func (s *Scenario) Validate() error {
	if s.Vessel.MaxAcceleration <= 0 {
		return fmt.Errorf("scenario %s: vessel.max_acceleration must be positive", s.Name)
	}
	if len(s.Vessel.Stages) == 0 {
		return fmt.Errorf("scenario %s: vessel needs at least one stage", s.Name)
	}
	if s.FrameJitter < 0 || s.FrameJitter >= 1 {
		return fmt.Errorf("scenario %s: frame_jitter must be in [0,1)", s.Name)
	}
	for i, m := range s.Maneuvers {
		if m.DeltaV <= 0 {
			return fmt.Errorf("scenario %s: maneuvers[%d].delta_v must be positive", s.Name, i)
		}
		if i > 0 && m.BurnStartIn <= s.Maneuvers[i-1].BurnStartIn {
			return fmt.Errorf("scenario %s: maneuvers must be in burn order", s.Name)
		}
	}
	return nil
}
