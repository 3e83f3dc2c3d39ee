// Package env implements a goal-reaching navigation environment around a
// multirotor simulator. It translates simulator state into fixed-shape
// observations, agent actions into velocity commands, and computes a shaped
// reward with collision, timeout, and boundary termination.
package env

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/ascent-robotics/dronegym/internal/config"
	"github.com/ascent-robotics/dronegym/internal/monitoring"
	"github.com/ascent-robotics/dronegym/internal/sim"
)

// ActionDims is the number of action components.
const ActionDims = 4

// Action is a velocity command: vx, vy, vz in m/s plus a yaw rate. The yaw
// rate is bounded by the action space but not forwarded to the simulator's
// velocity command.
type Action [ActionDims]float64

// Info is the auxiliary mapping returned by Step. Always empty.
type Info map[string]interface{}

// Env wraps one simulator session. It owns only the episode counters; all
// physical state lives in the simulator and is queried fresh every call. One
// Env exclusively owns its sim.Client; concurrent use is undefined.
type Env struct {
	client sim.Client

	target       []float64 // goal position, len 3
	maxSteps     int
	safeBound    float64
	preflight    [3]float64
	preflightVel float64
	moveDuration float64 // seconds
	lidarName    string

	rewards rewardTable

	obsSpace Box
	actSpace Box

	// stepCount counts steps across the Env lifetime; stepInEpisode counts
	// non-terminal steps since the last reset or terminal.
	stepCount     int
	stepInEpisode int
}

// NewEnv establishes the session: confirms the simulator connection, takes
// API control, and arms the vehicle. Any simulator failure propagates.
func NewEnv(ctx context.Context, client sim.Client, cfg *config.EnvConfig) (*Env, error) {
	if cfg == nil {
		cfg = config.EmptyEnvConfig()
	}

	if err := client.ConfirmConnection(ctx); err != nil {
		return nil, fmt.Errorf("confirm connection: %w", err)
	}
	if err := client.EnableAPIControl(ctx, true); err != nil {
		return nil, fmt.Errorf("enable api control: %w", err)
	}
	if err := client.ArmDisarm(ctx, true); err != nil {
		return nil, fmt.Errorf("arm: %w", err)
	}

	target := cfg.GetTargetPosition()
	actLow := cfg.GetActionLow()
	actHigh := cfg.GetActionHigh()
	actSpace, err := NewBox(1, ActionDims, actLow[:], actHigh[:])
	if err != nil {
		return nil, fmt.Errorf("action space: %w", err)
	}

	return &Env{
		client:       client,
		target:       target[:],
		maxSteps:     cfg.GetMaxSteps(),
		safeBound:    cfg.GetSafeBound(),
		preflight:    cfg.GetPreflightPosition(),
		preflightVel: cfg.GetPreflightVelocity(),
		moveDuration: cfg.GetMoveDuration().Seconds(),
		lidarName:    cfg.GetLidarSensor(),
		rewards:      rewardTableFromConfig(cfg),
		obsSpace:     UniformBox(ObservationRows, ObservationCols, cfg.GetObservationLow(), cfg.GetObservationHigh()),
		actSpace:     actSpace,
	}, nil
}

// ObservationSpace returns the 81×3 observation bounds.
func (e *Env) ObservationSpace() Box { return e.obsSpace }

// ActionSpace returns the 4-component action bounds.
func (e *Env) ActionSpace() Box { return e.actSpace }

// StepCount returns the lifetime step counter.
func (e *Env) StepCount() int { return e.stepCount }

// StepInEpisode returns the per-episode step counter.
func (e *Env) StepInEpisode() int { return e.stepInEpisode }

// Reset starts a new episode: simulator reset, re-acquire control and
// arming, move to the pre-flight position, take off. Both step counters are
// zeroed. Each command blocks until the simulator completes it; any failure
// propagates with no recovery.
func (e *Env) Reset(ctx context.Context) (*mat.Dense, error) {
	if err := e.client.Reset(ctx); err != nil {
		return nil, fmt.Errorf("reset simulator: %w", err)
	}
	if err := e.client.EnableAPIControl(ctx, true); err != nil {
		return nil, fmt.Errorf("enable api control: %w", err)
	}
	if err := e.client.ArmDisarm(ctx, true); err != nil {
		return nil, fmt.Errorf("arm: %w", err)
	}
	if err := e.client.MoveToPosition(ctx, e.preflight[0], e.preflight[1], e.preflight[2], e.preflightVel); err != nil {
		return nil, fmt.Errorf("move to preflight position: %w", err)
	}
	if err := e.client.Takeoff(ctx); err != nil {
		return nil, fmt.Errorf("takeoff: %w", err)
	}

	e.stepCount = 0
	e.stepInEpisode = 0

	obs, err := e.state(ctx)
	if err != nil {
		return nil, err
	}
	monitoring.Logf("env: reset complete, position %v", dronePosition(obs))
	return obs, nil
}

// Step applies an action for one control interval and returns the resulting
// observation, reward, terminal flag, and an empty info map. The action is
// not range-checked here; the simulator enforces its own limits.
func (e *Env) Step(ctx context.Context, action Action) (*mat.Dense, float64, bool, Info, error) {
	prev, err := e.state(ctx)
	if err != nil {
		return nil, 0, false, nil, err
	}
	if err := e.client.MoveByVelocity(ctx, action[0], action[1], action[2], e.moveDuration); err != nil {
		return nil, 0, false, nil, fmt.Errorf("move by velocity: %w", err)
	}
	obs, err := e.state(ctx)
	if err != nil {
		return nil, 0, false, nil, err
	}

	prevDistance := floats.Distance(dronePosition(prev), e.target, 2)
	currDistance := floats.Distance(dronePosition(obs), e.target, 2)

	reward, done, err := e.calculateReward(ctx, prevDistance, currDistance, obs)
	if err != nil {
		return nil, 0, false, nil, err
	}
	e.stepCount++

	return obs, reward, done, Info{}, nil
}

// Close releases the vehicle: disarm, revoke control authority, and reset
// the simulator.
func (e *Env) Close(ctx context.Context) error {
	if err := e.client.ArmDisarm(ctx, false); err != nil {
		return fmt.Errorf("disarm: %w", err)
	}
	if err := e.client.EnableAPIControl(ctx, false); err != nil {
		return fmt.Errorf("revoke api control: %w", err)
	}
	if err := e.client.Reset(ctx); err != nil {
		return fmt.Errorf("reset simulator: %w", err)
	}
	monitoring.Logf("env: closed")
	return nil
}

// state queries the current drone position and LiDAR cloud and assembles the
// 81×3 observation.
func (e *Env) state(ctx context.Context) (*mat.Dense, error) {
	pose, err := e.client.VehiclePose(ctx)
	if err != nil {
		return nil, fmt.Errorf("vehicle pose: %w", err)
	}
	lidar, err := e.client.LidarData(ctx, e.lidarName)
	if err != nil {
		return nil, fmt.Errorf("lidar data: %w", err)
	}
	return buildObservation(pose, lidar.PointCloud), nil
}
