package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical environment defaults file.
// This is the single source of truth for all default environment values.
const DefaultConfigPath = "config/env.defaults.json"

// EnvConfig holds the tunable parameters of the drone environment: goal and
// boundary geometry, episode limits, reward magnitudes, and space bounds.
// All fields are pointers so partial config files are safe; the Get* methods
// supply defaults for anything not set.
type EnvConfig struct {
	// Goal and boundary geometry
	TargetPosition *[]float64 `json:"target_position,omitempty"` // [x, y, z]
	SafeBound      *float64   `json:"safe_bound,omitempty"`      // metres from boundary center

	// Episode limits
	MaxSteps *int `json:"max_steps,omitempty"`

	// Reward magnitudes. Penalties carry their sign in the config value.
	RewardCollision     *float64 `json:"reward_collision,omitempty"`
	RewardMaxStepExceed *float64 `json:"reward_max_step_exceed,omitempty"`
	RewardGoal          *float64 `json:"reward_goal,omitempty"`
	RewardOutOfBounds   *float64 `json:"reward_out_of_bounds,omitempty"`
	RewardStep          *float64 `json:"reward_step,omitempty"`
	RewardDistanceGain  *float64 `json:"reward_distance_gain,omitempty"`
	RewardDistanceLoss  *float64 `json:"reward_distance_loss,omitempty"`

	// Space bounds
	ActionLow       *[]float64 `json:"action_low,omitempty"`  // [vx, vy, vz, yaw_rate]
	ActionHigh      *[]float64 `json:"action_high,omitempty"` // [vx, vy, vz, yaw_rate]
	ObservationLow  *float64   `json:"observation_low,omitempty"`
	ObservationHigh *float64   `json:"observation_high,omitempty"`

	// Flight parameters
	PreflightPosition *[]float64 `json:"preflight_position,omitempty"` // [x, y, z]
	PreflightVelocity *float64   `json:"preflight_velocity,omitempty"`
	MoveDuration      *string    `json:"move_duration,omitempty"` // duration string like "500ms"
	LidarSensor       *string    `json:"lidar_sensor,omitempty"`
}

// EmptyEnvConfig returns an EnvConfig with all fields set to nil.
// Use LoadEnvConfig to load actual values from the defaults file.
func EmptyEnvConfig() *EnvConfig {
	return &EnvConfig{}
}

// LoadEnvConfig loads an EnvConfig from a JSON file. The file must have a
// .json extension and be under the max file size. Fields omitted from the
// JSON retain their defaults, so partial configs are safe.
func LoadEnvConfig(path string) (*EnvConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyEnvConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical environment defaults from
// DefaultConfigPath, searching the current directory and common parent
// directories. Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *EnvConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadEnvConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *EnvConfig) Validate() error {
	if c.TargetPosition != nil && len(*c.TargetPosition) != 3 {
		return fmt.Errorf("target_position must have 3 components, got %d", len(*c.TargetPosition))
	}
	if c.PreflightPosition != nil && len(*c.PreflightPosition) != 3 {
		return fmt.Errorf("preflight_position must have 3 components, got %d", len(*c.PreflightPosition))
	}
	if c.ActionLow != nil && len(*c.ActionLow) != 4 {
		return fmt.Errorf("action_low must have 4 components, got %d", len(*c.ActionLow))
	}
	if c.ActionHigh != nil && len(*c.ActionHigh) != 4 {
		return fmt.Errorf("action_high must have 4 components, got %d", len(*c.ActionHigh))
	}
	if c.ActionLow != nil && c.ActionHigh != nil {
		low, high := *c.ActionLow, *c.ActionHigh
		for i := range low {
			if low[i] >= high[i] {
				return fmt.Errorf("action_low[%d] (%f) must be below action_high[%d] (%f)", i, low[i], i, high[i])
			}
		}
	}
	if c.ObservationLow != nil && c.ObservationHigh != nil && *c.ObservationLow >= *c.ObservationHigh {
		return fmt.Errorf("observation_low (%f) must be below observation_high (%f)", *c.ObservationLow, *c.ObservationHigh)
	}
	if c.MaxSteps != nil && *c.MaxSteps <= 0 {
		return fmt.Errorf("max_steps must be positive, got %d", *c.MaxSteps)
	}
	if c.SafeBound != nil && *c.SafeBound <= 0 {
		return fmt.Errorf("safe_bound must be positive, got %f", *c.SafeBound)
	}
	if c.PreflightVelocity != nil && *c.PreflightVelocity <= 0 {
		return fmt.Errorf("preflight_velocity must be positive, got %f", *c.PreflightVelocity)
	}
	if c.MoveDuration != nil && *c.MoveDuration != "" {
		d, err := time.ParseDuration(*c.MoveDuration)
		if err != nil {
			return fmt.Errorf("invalid move_duration '%s': %w", *c.MoveDuration, err)
		}
		if d <= 0 {
			return fmt.Errorf("move_duration must be positive, got %s", d)
		}
	}
	return nil
}

// GetTargetPosition returns the goal position or the default.
func (c *EnvConfig) GetTargetPosition() [3]float64 {
	if c.TargetPosition == nil {
		return [3]float64{30, 0, -5}
	}
	p := *c.TargetPosition
	return [3]float64{p[0], p[1], p[2]}
}

// GetSafeBound returns the safe boundary radius or the default.
func (c *EnvConfig) GetSafeBound() float64 {
	if c.SafeBound == nil {
		return 50.0
	}
	return *c.SafeBound
}

// GetMaxSteps returns the per-episode step limit or the default.
func (c *EnvConfig) GetMaxSteps() int {
	if c.MaxSteps == nil {
		return 500
	}
	return *c.MaxSteps
}

// GetRewardCollision returns the collision penalty or the default.
func (c *EnvConfig) GetRewardCollision() float64 {
	if c.RewardCollision == nil {
		return -100.0
	}
	return *c.RewardCollision
}

// GetRewardMaxStepExceed returns the step-limit penalty or the default.
func (c *EnvConfig) GetRewardMaxStepExceed() float64 {
	if c.RewardMaxStepExceed == nil {
		return -50.0
	}
	return *c.RewardMaxStepExceed
}

// GetRewardGoal returns the goal-reached reward or the default.
func (c *EnvConfig) GetRewardGoal() float64 {
	if c.RewardGoal == nil {
		return 100.0
	}
	return *c.RewardGoal
}

// GetRewardOutOfBounds returns the boundary-exit penalty or the default.
func (c *EnvConfig) GetRewardOutOfBounds() float64 {
	if c.RewardOutOfBounds == nil {
		return -100.0
	}
	return *c.RewardOutOfBounds
}

// GetRewardStep returns the base per-step reward or the default.
func (c *EnvConfig) GetRewardStep() float64 {
	if c.RewardStep == nil {
		return -0.5
	}
	return *c.RewardStep
}

// GetRewardDistanceGain returns the approach shaping coefficient or the default.
func (c *EnvConfig) GetRewardDistanceGain() float64 {
	if c.RewardDistanceGain == nil {
		return 10.0
	}
	return *c.RewardDistanceGain
}

// GetRewardDistanceLoss returns the retreat shaping coefficient or the default.
func (c *EnvConfig) GetRewardDistanceLoss() float64 {
	if c.RewardDistanceLoss == nil {
		return -10.0
	}
	return *c.RewardDistanceLoss
}

// GetActionLow returns the per-component action lower bounds or the default.
func (c *EnvConfig) GetActionLow() [4]float64 {
	if c.ActionLow == nil {
		return [4]float64{-5, -5, -5, -45}
	}
	a := *c.ActionLow
	return [4]float64{a[0], a[1], a[2], a[3]}
}

// GetActionHigh returns the per-component action upper bounds or the default.
func (c *EnvConfig) GetActionHigh() [4]float64 {
	if c.ActionHigh == nil {
		return [4]float64{5, 5, 5, 45}
	}
	a := *c.ActionHigh
	return [4]float64{a[0], a[1], a[2], a[3]}
}

// GetObservationLow returns the scalar observation lower bound or the default.
func (c *EnvConfig) GetObservationLow() float64 {
	if c.ObservationLow == nil {
		return -100.0
	}
	return *c.ObservationLow
}

// GetObservationHigh returns the scalar observation upper bound or the default.
func (c *EnvConfig) GetObservationHigh() float64 {
	if c.ObservationHigh == nil {
		return 100.0
	}
	return *c.ObservationHigh
}

// GetPreflightPosition returns the pre-takeoff staging position or the default.
func (c *EnvConfig) GetPreflightPosition() [3]float64 {
	if c.PreflightPosition == nil {
		return [3]float64{0, 0, -1}
	}
	p := *c.PreflightPosition
	return [3]float64{p[0], p[1], p[2]}
}

// GetPreflightVelocity returns the staging move velocity or the default.
func (c *EnvConfig) GetPreflightVelocity() float64 {
	if c.PreflightVelocity == nil {
		return 1.0
	}
	return *c.PreflightVelocity
}

// GetMoveDuration parses and returns the velocity command duration.
func (c *EnvConfig) GetMoveDuration() time.Duration {
	if c.MoveDuration == nil || *c.MoveDuration == "" {
		return 500 * time.Millisecond // default
	}
	d, err := time.ParseDuration(*c.MoveDuration)
	if err != nil {
		return 500 * time.Millisecond // default on parse error
	}
	return d
}

// GetLidarSensor returns the LiDAR sensor name or the default.
func (c *EnvConfig) GetLidarSensor() string {
	if c.LidarSensor == nil || *c.LidarSensor == "" {
		return "LidarSensor1"
	}
	return *c.LidarSensor
}
