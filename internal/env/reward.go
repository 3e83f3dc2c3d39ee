package env

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/ascent-robotics/dronegym/internal/config"
	"github.com/ascent-robotics/dronegym/internal/monitoring"
	"github.com/ascent-robotics/dronegym/internal/sim"
)

// goalDistance is the absolute goal-reached threshold in metres. It is not
// configurable.
const goalDistance = 1.0

// shapingExponent tempers the shaping term: squared progress swings the
// reward too sharply for stable training.
const shapingExponent = 1.5

// boundaryCenter is the center of the spherical safe boundary.
var boundaryCenter = sim.Vector3{X: 0, Y: 0, Z: -2}

// rewardTable holds the configured reward magnitudes for one Env.
type rewardTable struct {
	collision     float64
	maxStepExceed float64
	goal          float64
	outOfBounds   float64
	step          float64
	distanceGain  float64
	distanceLoss  float64
}

func rewardTableFromConfig(cfg *config.EnvConfig) rewardTable {
	return rewardTable{
		collision:     cfg.GetRewardCollision(),
		maxStepExceed: cfg.GetRewardMaxStepExceed(),
		goal:          cfg.GetRewardGoal(),
		outOfBounds:   cfg.GetRewardOutOfBounds(),
		step:          cfg.GetRewardStep(),
		distanceGain:  cfg.GetRewardDistanceGain(),
		distanceLoss:  cfg.GetRewardDistanceLoss(),
	}
}

// calculateReward scores one step. Branches are evaluated in fixed priority
// order and the first match wins:
//
//  1. collision
//  2. per-episode step limit (checked before goal: reaching the goal exactly
//     at the limit scores as timeout)
//  3. goal reached (distance < goalDistance)
//  4. safe boundary exit (strictly greater than the bound)
//  5. base step reward plus distance shaping
//
// Terminal branches zero the per-episode counter; the shaping branch
// increments it.
func (e *Env) calculateReward(ctx context.Context, prevDistance, currDistance float64, obs *mat.Dense) (float64, bool, error) {
	info, err := e.client.CollisionInfo(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("collision info: %w", err)
	}
	if info.HasCollided {
		monitoring.Logf("env: collision detected")
		e.stepInEpisode = 0
		return e.rewards.collision, true, nil
	}

	if e.stepInEpisode >= e.maxSteps {
		monitoring.Logf("env: step limit %d exceeded", e.maxSteps)
		e.stepInEpisode = 0
		return e.rewards.maxStepExceed, true, nil
	}

	if currDistance < goalDistance {
		monitoring.Logf("env: goal reached at distance %.2f", currDistance)
		e.stepInEpisode = 0
		return e.rewards.goal, true, nil
	}

	fromCenter := floats.Distance(dronePosition(obs), boundaryCenter.Slice(), 2)
	if fromCenter > e.safeBound {
		monitoring.Logf("env: safe boundary exited at %.2f m from center", fromCenter)
		e.stepInEpisode = 0
		return e.rewards.outOfBounds, true, nil
	}

	reward := e.rewards.step
	delta := prevDistance - currDistance
	if delta > 0 {
		reward += e.rewards.distanceGain * math.Pow(delta, shapingExponent)
	} else {
		reward += e.rewards.distanceLoss * math.Pow(math.Abs(delta), shapingExponent)
	}

	e.stepInEpisode++
	return reward, false, nil
}
