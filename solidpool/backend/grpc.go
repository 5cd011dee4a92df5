package backend

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/sjy-dv/solidpool/solidpool/poolcore"
)

var _ poolcore.Handle = &GRPCHandle{}
var _ poolcore.Factory = &GRPCFactory{}
var _ poolcore.Validator = &GRPCValidator{}

// GRPCHandle wraps one client conn.
type GRPCHandle struct {
	id     string
	conn   *grpc.ClientConn
	closed int32
}

func (h *GRPCHandle) ID() string {
	return h.id
}

func (h *GRPCHandle) Conn() *grpc.ClientConn {
	return h.conn
}

func (h *GRPCHandle) Close() error {
	if !atomic.CompareAndSwapInt32(&h.closed, 0, 1) {
		return nil
	}
	return h.conn.Close()
}

type GRPCFactory struct {
	// DialTimeout bounds the blocking dial on top of the caller's ctx.
	DialTimeout time.Duration
	DialOptions []grpc.DialOption
}

// Create blocks until the conn reaches Ready, so a dead endpoint fails here
// instead of surfacing on the first RPC.
func (f *GRPCFactory) Create(ctx context.Context, params poolcore.ConnectionParams) (poolcore.Handle, error) {
	opts := make([]grpc.DialOption, 0, len(f.DialOptions)+1)
	if len(f.DialOptions) == 0 {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	} else {
		opts = append(opts, f.DialOptions...)
	}
	opts = append(opts, grpc.WithBlock())

	if f.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.DialTimeout)
		defer cancel()
	}
	conn, err := grpc.DialContext(ctx, params.Endpoint, opts...)
	if err != nil {
		return nil, err
	}
	return &GRPCHandle{id: uuid.NewString(), conn: conn}, nil
}

// GRPCValidator asks the standard health service. A server without the
// health service still counts as alive (Unimplemented), a conn in Shutdown
// state never does.
type GRPCValidator struct {
	// Service is the health-check service name, empty for the server itself.
	Service string
}

func (v *GRPCValidator) IsValid(h poolcore.Handle, timeout time.Duration) bool {
	gh, ok := h.(*GRPCHandle)
	if !ok || atomic.LoadInt32(&gh.closed) == 1 {
		return false
	}
	if gh.conn.GetState() == connectivity.Shutdown {
		return false
	}
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	resp, err := healthpb.NewHealthClient(gh.conn).Check(ctx,
		&healthpb.HealthCheckRequest{Service: v.Service})
	if err != nil {
		return status.Code(err) == codes.Unimplemented
	}
	return resp.Status == healthpb.HealthCheckResponse_SERVING
}
