package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockClientPoseQueue(t *testing.T) {
	t.Parallel()
	m := NewMockClient()
	m.Pose = Vector3{X: 9}
	m.PoseQueue = []Vector3{{X: 1}, {X: 2}}

	ctx := context.Background()
	p1, err := m.VehiclePose(ctx)
	require.NoError(t, err)
	p2, err := m.VehiclePose(ctx)
	require.NoError(t, err)
	p3, err := m.VehiclePose(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1.0, p1.X)
	assert.Equal(t, 2.0, p2.X)
	// Queue drained: falls back to the last queued pose.
	assert.Equal(t, 2.0, p3.X)
}

func TestMockClientKinematic(t *testing.T) {
	t.Parallel()
	m := NewMockClient()
	m.Kinematic = true

	ctx := context.Background()
	require.NoError(t, m.MoveByVelocity(ctx, 2, 0, -1, 0.5))
	pose, err := m.VehiclePose(ctx)
	require.NoError(t, err)
	assert.Equal(t, Vector3{X: 1, Y: 0, Z: -0.5}, pose)
}

func TestMockClientErrorInjection(t *testing.T) {
	t.Parallel()
	m := NewMockClient()
	m.Errs = map[string]error{"takeoff": errors.New("boom")}

	err := m.Takeoff(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, m.CallCount("takeoff"))
}
