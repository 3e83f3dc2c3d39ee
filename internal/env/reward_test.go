package env

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ascent-robotics/dronegym/internal/config"
	"github.com/ascent-robotics/dronegym/internal/sim"
)

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }

// testConfig returns a config with small, distinctive reward magnitudes so
// branch outcomes are unambiguous in assertions.
func testConfig() *config.EnvConfig {
	return &config.EnvConfig{
		TargetPosition:      &[]float64{10, 0, -2},
		SafeBound:           ptrFloat64(20),
		MaxSteps:            ptrInt(5),
		RewardCollision:     ptrFloat64(-100),
		RewardMaxStepExceed: ptrFloat64(-50),
		RewardGoal:          ptrFloat64(100),
		RewardOutOfBounds:   ptrFloat64(-75),
		RewardStep:          ptrFloat64(-0.5),
		RewardDistanceGain:  ptrFloat64(10),
		RewardDistanceLoss:  ptrFloat64(-10),
	}
}

func newTestEnv(t *testing.T, mock *sim.MockClient) *Env {
	t.Helper()
	e, err := NewEnv(context.Background(), mock, testConfig())
	require.NoError(t, err)
	return e
}

func TestRewardCollisionBeatsEverything(t *testing.T) {
	t.Parallel()

	// Collision, goal reached, and step limit all hold at once: the collision
	// penalty wins.
	mock := sim.NewMockClient()
	mock.Collided = true
	e := newTestEnv(t, mock)
	e.stepInEpisode = e.maxSteps

	obs := buildObservation(sim.Vector3{X: 10, Y: 0, Z: -2}, nil) // at goal
	reward, done, err := e.calculateReward(context.Background(), 5, 0.2, obs)
	require.NoError(t, err)

	assert.Equal(t, -100.0, reward)
	assert.True(t, done)
	assert.Equal(t, 0, e.stepInEpisode, "terminal branch resets the episode counter")
}

func TestRewardTimeoutBeatsGoal(t *testing.T) {
	t.Parallel()

	// Goal reached exactly at the step limit scores as timeout, not goal.
	mock := sim.NewMockClient()
	e := newTestEnv(t, mock)
	e.stepInEpisode = e.maxSteps

	obs := buildObservation(sim.Vector3{X: 10, Y: 0, Z: -2}, nil)
	reward, done, err := e.calculateReward(context.Background(), 5, 0.2, obs)
	require.NoError(t, err)

	assert.Equal(t, -50.0, reward)
	assert.True(t, done)
	assert.Equal(t, 0, e.stepInEpisode)
}

func TestRewardGoalReached(t *testing.T) {
	t.Parallel()

	mock := sim.NewMockClient()
	e := newTestEnv(t, mock)
	e.stepInEpisode = 1

	obs := buildObservation(sim.Vector3{X: 9.5, Y: 0, Z: -2}, nil)
	reward, done, err := e.calculateReward(context.Background(), 2, 0.5, obs)
	require.NoError(t, err)

	assert.Equal(t, 100.0, reward)
	assert.True(t, done)
	assert.Equal(t, 0, e.stepInEpisode)
}

func TestRewardGoalThresholdIsExclusive(t *testing.T) {
	t.Parallel()

	// Distance exactly 1.0 is not the goal; the step falls through to
	// shaping.
	mock := sim.NewMockClient()
	e := newTestEnv(t, mock)

	obs := buildObservation(sim.Vector3{X: 9, Y: 0, Z: -2}, nil)
	_, done, err := e.calculateReward(context.Background(), 1.0, 1.0, obs)
	require.NoError(t, err)
	assert.False(t, done)
}

func TestRewardOutOfBounds(t *testing.T) {
	t.Parallel()

	mock := sim.NewMockClient()
	e := newTestEnv(t, mock)
	e.stepInEpisode = 2

	// 25 m below the boundary center with safe bound 20.
	obs := buildObservation(sim.Vector3{X: 0, Y: 0, Z: -27}, nil)
	reward, done, err := e.calculateReward(context.Background(), 28, 27, obs)
	require.NoError(t, err)

	assert.Equal(t, -75.0, reward)
	assert.True(t, done)
	assert.Equal(t, 0, e.stepInEpisode)
}

func TestRewardBoundaryEqualityIsInside(t *testing.T) {
	t.Parallel()

	// Exactly on the safe bound: not terminal via the boundary branch.
	mock := sim.NewMockClient()
	e := newTestEnv(t, mock)

	obs := buildObservation(sim.Vector3{X: 20, Y: 0, Z: -2}, nil) // 20 m from (0,0,-2)
	_, done, err := e.calculateReward(context.Background(), 11, 10.5, obs)
	require.NoError(t, err)
	assert.False(t, done)
}

func TestRewardShapingApproach(t *testing.T) {
	t.Parallel()

	mock := sim.NewMockClient()
	e := newTestEnv(t, mock)
	obs := buildObservation(sim.Vector3{X: 4, Y: 0, Z: -2}, nil) // 6 m from target

	delta := 0.5
	reward, done, err := e.calculateReward(context.Background(), 6.5, 6.0, obs)
	require.NoError(t, err)

	want := -0.5 + 10*math.Pow(delta, 1.5)
	assert.InDelta(t, want, reward, 1e-12)
	assert.False(t, done)
	assert.Equal(t, 1, e.stepInEpisode, "non-terminal step advances the episode counter")
}

func TestRewardShapingRetreat(t *testing.T) {
	t.Parallel()

	mock := sim.NewMockClient()
	e := newTestEnv(t, mock)
	obs := buildObservation(sim.Vector3{X: 3, Y: 0, Z: -2}, nil)

	delta := 0.25
	reward, done, err := e.calculateReward(context.Background(), 6.75, 7.0, obs)
	require.NoError(t, err)

	want := -0.5 + -10*math.Pow(delta, 1.5)
	assert.InDelta(t, want, reward, 1e-12)
	assert.False(t, done)
}

func TestRewardShapingContinuousAtZero(t *testing.T) {
	t.Parallel()

	mock := sim.NewMockClient()
	e := newTestEnv(t, mock)
	obs := buildObservation(sim.Vector3{X: 3, Y: 0, Z: -2}, nil)

	eps := 1e-9
	approach, _, err := e.calculateReward(context.Background(), 7+eps, 7, obs)
	require.NoError(t, err)
	retreat, _, err := e.calculateReward(context.Background(), 7-eps, 7, obs)
	require.NoError(t, err)
	still, _, err := e.calculateReward(context.Background(), 7, 7, obs)
	require.NoError(t, err)

	assert.InDelta(t, still, approach, 1e-10)
	assert.InDelta(t, still, retreat, 1e-10)
	assert.InDelta(t, -0.5, still, 1e-12, "zero progress earns exactly the base step reward")
}

func TestRewardCollisionQueryErrorPropagates(t *testing.T) {
	t.Parallel()

	mock := sim.NewMockClient()
	e := newTestEnv(t, mock)
	mock.Errs = map[string]error{"simGetCollisionInfo": assert.AnError}

	obs := buildObservation(sim.Vector3{}, nil)
	_, _, err := e.calculateReward(context.Background(), 5, 4, obs)
	require.Error(t, err)
}
