// Package sim provides a client for a multirotor flight simulator exposing a
// msgpack-RPC control surface. The Client interface covers the subset of the
// simulator API the environment adapter needs: session control, vehicle
// arming, movement commands, and state/sensor queries. All calls are
// synchronous and block until the simulator acknowledges.
package sim

import (
	"context"
	"math"
)

// Vector3 is a position or displacement in the simulator's NED frame, metres.
type Vector3 struct {
	X float64 `msgpack:"x_val" json:"x"`
	Y float64 `msgpack:"y_val" json:"y"`
	Z float64 `msgpack:"z_val" json:"z"`
}

// Sub returns v - o.
func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Norm returns the Euclidean length of v.
func (v Vector3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Slice returns the components as [x, y, z].
func (v Vector3) Slice() []float64 {
	return []float64{v.X, v.Y, v.Z}
}

// CollisionInfo is the simulator's collision record for the vehicle.
type CollisionInfo struct {
	HasCollided      bool    `msgpack:"has_collided"`
	ImpactPoint      Vector3 `msgpack:"impact_point"`
	PenetrationDepth float64 `msgpack:"penetration_depth"`
	ObjectName       string  `msgpack:"object_name"`
	TimestampNanos   int64   `msgpack:"time_stamp"`
}

// LidarData is a raw LiDAR return: a flat buffer of x,y,z triples in the
// sensor frame. The point count is len(PointCloud)/3.
type LidarData struct {
	PointCloud     []float32 `msgpack:"point_cloud"`
	TimestampNanos int64     `msgpack:"time_stamp"`
	Pose           Vector3   `msgpack:"pose"`
}

// Client is the simulator session owned by one environment adapter at a time.
// Concurrent use of a single Client by multiple adapters is undefined.
type Client interface {
	// ConfirmConnection verifies the simulator is reachable and responding.
	ConfirmConnection(ctx context.Context) error

	// EnableAPIControl grants or revokes programmatic control authority.
	EnableAPIControl(ctx context.Context, enabled bool) error

	// ArmDisarm arms (true) or disarms (false) the vehicle motors.
	ArmDisarm(ctx context.Context, arm bool) error

	// Reset returns the simulator to its initial state.
	Reset(ctx context.Context) error

	// MoveToPosition flies the vehicle to (x, y, z) at the given velocity and
	// blocks until the move completes.
	MoveToPosition(ctx context.Context, x, y, z, velocity float64) error

	// Takeoff lifts the vehicle to hover and blocks until complete.
	Takeoff(ctx context.Context) error

	// MoveByVelocity applies a velocity command for the given duration in
	// seconds and blocks until the command completes.
	MoveByVelocity(ctx context.Context, vx, vy, vz, duration float64) error

	// VehiclePose returns the current estimated vehicle position.
	VehiclePose(ctx context.Context) (Vector3, error)

	// CollisionInfo returns the most recent collision record.
	CollisionInfo(ctx context.Context) (CollisionInfo, error)

	// LidarData returns the raw point buffer from the named LiDAR sensor.
	LidarData(ctx context.Context, sensorName string) (LidarData, error)

	// Close releases the session transport.
	Close() error
}
