package sim

import (
	"context"
	"sync"
)

// MockClient implements Client with scripted behaviour for tests and for
// running the service in dev mode without a simulator attached.
//
// VehiclePose consumes PoseQueue first and falls back to Pose once the queue
// is drained. When Kinematic is set, MoveByVelocity integrates the commanded
// velocity into Pose so consecutive poses show movement. Errs injects a
// failure for a single named method.
type MockClient struct {
	mu sync.Mutex

	// Pose is the position returned once PoseQueue is empty.
	Pose Vector3

	// PoseQueue holds positions returned by successive VehiclePose calls.
	PoseQueue []Vector3

	// Cloud is the flat x,y,z buffer returned by LidarData.
	Cloud []float32

	// Collided is reported by CollisionInfo.
	Collided bool

	// Kinematic makes MoveByVelocity integrate into Pose.
	Kinematic bool

	// Errs maps a method name ("reset", "takeoff", ...) to an error returned
	// by that method.
	Errs map[string]error

	// Calls records method names in invocation order.
	Calls []string

	// Armed and ControlEnabled track the simulator-side flags.
	Armed          bool
	ControlEnabled bool

	// ResetCount counts simulator resets.
	ResetCount int
}

var _ Client = (*MockClient)(nil)

// NewMockClient returns a mock with an empty scene: pose at origin, no
// collision, no LiDAR returns.
func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) record(method string) error {
	m.Calls = append(m.Calls, method)
	if err, ok := m.Errs[method]; ok {
		return err
	}
	return nil
}

func (m *MockClient) ConfirmConnection(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record("confirmConnection")
}

func (m *MockClient) EnableAPIControl(ctx context.Context, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("enableApiControl"); err != nil {
		return err
	}
	m.ControlEnabled = enabled
	return nil
}

func (m *MockClient) ArmDisarm(ctx context.Context, arm bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("armDisarm"); err != nil {
		return err
	}
	m.Armed = arm
	return nil
}

func (m *MockClient) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("reset"); err != nil {
		return err
	}
	m.ResetCount++
	return nil
}

func (m *MockClient) MoveToPosition(ctx context.Context, x, y, z, velocity float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("moveToPosition"); err != nil {
		return err
	}
	m.Pose = Vector3{X: x, Y: y, Z: z}
	return nil
}

func (m *MockClient) Takeoff(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record("takeoff")
}

func (m *MockClient) MoveByVelocity(ctx context.Context, vx, vy, vz, duration float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("moveByVelocity"); err != nil {
		return err
	}
	if m.Kinematic {
		m.Pose.X += vx * duration
		m.Pose.Y += vy * duration
		m.Pose.Z += vz * duration
	}
	return nil
}

func (m *MockClient) VehiclePose(ctx context.Context) (Vector3, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("getMultirotorState"); err != nil {
		return Vector3{}, err
	}
	if len(m.PoseQueue) > 0 {
		pose := m.PoseQueue[0]
		m.PoseQueue = m.PoseQueue[1:]
		m.Pose = pose
		return pose, nil
	}
	return m.Pose, nil
}

func (m *MockClient) CollisionInfo(ctx context.Context) (CollisionInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("simGetCollisionInfo"); err != nil {
		return CollisionInfo{}, err
	}
	return CollisionInfo{HasCollided: m.Collided}, nil
}

func (m *MockClient) LidarData(ctx context.Context, sensorName string) (LidarData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("getLidarData"); err != nil {
		return LidarData{}, err
	}
	cloud := make([]float32, len(m.Cloud))
	copy(cloud, m.Cloud)
	return LidarData{PointCloud: cloud}, nil
}

func (m *MockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("close")
	return nil
}

// CallCount returns how many times method was invoked.
func (m *MockClient) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c == method {
			n++
		}
	}
	return n
}
