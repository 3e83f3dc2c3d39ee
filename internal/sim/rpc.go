package sim

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// msgpack-RPC message types.
const (
	msgTypeRequest  = 0
	msgTypeResponse = 1
)

// takeoffTimeoutSecs is passed to the simulator's takeoff command; the call
// itself still blocks until the simulator acknowledges.
const takeoffTimeoutSecs = 20.0

// RPCClient speaks the simulator's msgpack-RPC protocol over a single TCP
// connection. Requests and responses are strictly paired: one request is in
// flight at a time, guarded by mu.
type RPCClient struct {
	mu   sync.Mutex
	conn net.Conn
	enc  *msgpack.Encoder
	dec  *msgpack.Decoder
	seq  uint32
}

var _ Client = (*RPCClient)(nil)

// Dial connects to a simulator RPC endpoint (host:port).
func Dial(addr string) (*RPCClient, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial simulator %s: %w", addr, err)
	}
	return NewRPCClient(conn), nil
}

// NewRPCClient wraps an established connection. Ownership of conn transfers
// to the client.
func NewRPCClient(conn net.Conn) *RPCClient {
	return &RPCClient{
		conn: conn,
		enc:  msgpack.NewEncoder(conn),
		dec:  msgpack.NewDecoder(conn),
	}
}

// call performs one blocking request/response exchange. If out is non-nil the
// RPC result is decoded into it, otherwise the result is discarded. Any
// transport or server fault is returned wrapped; the caller treats all such
// failures as fatal to the episode.
func (c *RPCClient) call(ctx context.Context, method string, out interface{}, args ...interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetDeadline(deadline); err != nil {
			return fmt.Errorf("%s: set deadline: %w", method, err)
		}
		defer c.conn.SetDeadline(time.Time{})
	}

	c.seq++
	if args == nil {
		args = []interface{}{}
	}
	req := []interface{}{msgTypeRequest, c.seq, method, args}
	if err := c.enc.Encode(req); err != nil {
		return fmt.Errorf("%s: send request: %w", method, err)
	}

	n, err := c.dec.DecodeArrayLen()
	if err != nil {
		return fmt.Errorf("%s: read response: %w", method, err)
	}
	if n != 4 {
		return fmt.Errorf("%s: malformed response: array length %d", method, n)
	}
	msgType, err := c.dec.DecodeInt()
	if err != nil {
		return fmt.Errorf("%s: read response type: %w", method, err)
	}
	if msgType != msgTypeResponse {
		return fmt.Errorf("%s: unexpected message type %d", method, msgType)
	}
	msgID, err := c.dec.DecodeUint32()
	if err != nil {
		return fmt.Errorf("%s: read response id: %w", method, err)
	}
	if msgID != c.seq {
		return fmt.Errorf("%s: response id %d does not match request id %d", method, msgID, c.seq)
	}
	rpcErr, err := c.dec.DecodeInterface()
	if err != nil {
		return fmt.Errorf("%s: read error field: %w", method, err)
	}
	if rpcErr != nil {
		if err := c.dec.Skip(); err != nil {
			return fmt.Errorf("%s: simulator error %v (skip result: %w)", method, rpcErr, err)
		}
		return fmt.Errorf("%s: simulator error: %v", method, rpcErr)
	}
	if out == nil {
		if err := c.dec.Skip(); err != nil {
			return fmt.Errorf("%s: skip result: %w", method, err)
		}
		return nil
	}
	if err := c.dec.Decode(out); err != nil {
		return fmt.Errorf("%s: decode result: %w", method, err)
	}
	return nil
}

func (c *RPCClient) ConfirmConnection(ctx context.Context) error {
	var ok bool
	if err := c.call(ctx, "ping", &ok); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("ping: simulator refused connection")
	}
	return nil
}

func (c *RPCClient) EnableAPIControl(ctx context.Context, enabled bool) error {
	return c.call(ctx, "enableApiControl", nil, enabled)
}

func (c *RPCClient) ArmDisarm(ctx context.Context, arm bool) error {
	return c.call(ctx, "armDisarm", nil, arm)
}

func (c *RPCClient) Reset(ctx context.Context) error {
	return c.call(ctx, "reset", nil)
}

func (c *RPCClient) MoveToPosition(ctx context.Context, x, y, z, velocity float64) error {
	return c.call(ctx, "moveToPosition", nil, x, y, z, velocity)
}

func (c *RPCClient) Takeoff(ctx context.Context) error {
	return c.call(ctx, "takeoff", nil, takeoffTimeoutSecs)
}

func (c *RPCClient) MoveByVelocity(ctx context.Context, vx, vy, vz, duration float64) error {
	return c.call(ctx, "moveByVelocity", nil, vx, vy, vz, duration)
}

// multirotorState mirrors the simulator's vehicle state payload; only the
// estimated kinematics position is consumed.
type multirotorState struct {
	Kinematics struct {
		Position Vector3 `msgpack:"position"`
	} `msgpack:"kinematics_estimated"`
}

func (c *RPCClient) VehiclePose(ctx context.Context) (Vector3, error) {
	var state multirotorState
	if err := c.call(ctx, "getMultirotorState", &state); err != nil {
		return Vector3{}, err
	}
	return state.Kinematics.Position, nil
}

func (c *RPCClient) CollisionInfo(ctx context.Context) (CollisionInfo, error) {
	var info CollisionInfo
	if err := c.call(ctx, "simGetCollisionInfo", &info); err != nil {
		return CollisionInfo{}, err
	}
	return info, nil
}

func (c *RPCClient) LidarData(ctx context.Context, sensorName string) (LidarData, error) {
	var data LidarData
	if err := c.call(ctx, "getLidarData", &data, sensorName); err != nil {
		return LidarData{}, err
	}
	return data, nil
}

func (c *RPCClient) Close() error {
	return c.conn.Close()
}
