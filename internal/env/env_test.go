package env

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ascent-robotics/dronegym/internal/sim"
)

func TestNewEnvAcquiresControl(t *testing.T) {
	t.Parallel()

	mock := sim.NewMockClient()
	_, err := NewEnv(context.Background(), mock, testConfig())
	require.NoError(t, err)

	assert.True(t, mock.ControlEnabled)
	assert.True(t, mock.Armed)
	assert.Equal(t, 1, mock.CallCount("confirmConnection"))
}

func TestNewEnvPropagatesConnectionFailure(t *testing.T) {
	t.Parallel()

	mock := sim.NewMockClient()
	mock.Errs = map[string]error{"confirmConnection": assert.AnError}
	_, err := NewEnv(context.Background(), mock, testConfig())
	require.Error(t, err)
}

func TestResetSequenceAndCounters(t *testing.T) {
	t.Parallel()

	mock := sim.NewMockClient()
	mock.Kinematic = true
	e := newTestEnv(t, mock)
	ctx := context.Background()

	// Burn some steps so the reset has counters to clear.
	_, _, _, _, err := e.Step(ctx, Action{1, 0, 0, 0})
	require.NoError(t, err)
	_, _, _, _, err = e.Step(ctx, Action{1, 0, 0, 0})
	require.NoError(t, err)
	require.Equal(t, 2, e.StepCount())
	require.Equal(t, 2, e.StepInEpisode())

	obs, err := e.Reset(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, e.StepCount())
	assert.Equal(t, 0, e.StepInEpisode())
	r, c := obs.Dims()
	assert.Equal(t, ObservationRows, r)
	assert.Equal(t, ObservationCols, c)

	// The reset flies the staging sequence: reset, control, arm, move, takeoff.
	assert.Equal(t, 1, mock.ResetCount)
	assert.Equal(t, 1, mock.CallCount("moveToPosition"))
	assert.Equal(t, 1, mock.CallCount("takeoff"))

	// Pre-flight position from config defaults lands the drone at (0,0,-1).
	assert.Equal(t, []float64{0, 0, -1}, dronePosition(obs))
}

func TestStepReturnsObservationRewardInfo(t *testing.T) {
	t.Parallel()

	mock := sim.NewMockClient()
	mock.Kinematic = true
	mock.Pose = sim.Vector3{X: 0, Y: 0, Z: -2}
	e := newTestEnv(t, mock)

	// Fly toward the target at (10,0,-2): the shaped reward must beat the
	// plain step penalty.
	obs, reward, done, info, err := e.Step(context.Background(), Action{2, 0, 0, 0})
	require.NoError(t, err)

	r, c := obs.Dims()
	assert.Equal(t, ObservationRows, r)
	assert.Equal(t, ObservationCols, c)
	assert.False(t, done)
	assert.Greater(t, reward, e.rewards.step)
	assert.NotNil(t, info)
	assert.Empty(t, info)
	assert.Equal(t, 1, e.StepCount())
}

func TestStepYawRateNotForwarded(t *testing.T) {
	t.Parallel()

	// The 4th action component is bounded by the action space but the
	// velocity command carries only vx, vy, vz.
	mock := sim.NewMockClient()
	mock.Kinematic = true
	e := newTestEnv(t, mock)

	_, _, _, _, err := e.Step(context.Background(), Action{0, 0, 0, 45})
	require.NoError(t, err)

	pose, err := mock.VehiclePose(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sim.Vector3{}, pose, "zero velocity command must not move the vehicle")
}

func TestStepPropagatesCommandFailure(t *testing.T) {
	t.Parallel()

	mock := sim.NewMockClient()
	e := newTestEnv(t, mock)
	mock.Errs = map[string]error{"moveByVelocity": assert.AnError}

	_, _, _, _, err := e.Step(context.Background(), Action{1, 0, 0, 0})
	require.Error(t, err)
	assert.Equal(t, 0, e.StepCount(), "failed step must not advance the lifetime counter")
}

func TestCloseReleasesVehicle(t *testing.T) {
	t.Parallel()

	mock := sim.NewMockClient()
	e := newTestEnv(t, mock)

	require.NoError(t, e.Close(context.Background()))
	assert.False(t, mock.Armed)
	assert.False(t, mock.ControlEnabled)
	assert.Equal(t, 1, mock.ResetCount)
}

func TestSpacesFromConfig(t *testing.T) {
	t.Parallel()

	mock := sim.NewMockClient()
	e := newTestEnv(t, mock)

	r, c := e.ObservationSpace().Dims()
	assert.Equal(t, ObservationRows, r)
	assert.Equal(t, ObservationCols, c)

	ar, ac := e.ActionSpace().Dims()
	assert.Equal(t, 1, ar)
	assert.Equal(t, ActionDims, ac)
}
