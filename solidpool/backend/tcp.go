package backend

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/sjy-dv/solidpool/solidpool/poolcore"
)

var _ poolcore.Handle = &TCPHandle{}
var _ poolcore.Factory = &TCPFactory{}
var _ poolcore.Validator = &TCPValidator{}

// TCPHandle wraps one raw TCP connection.
type TCPHandle struct {
	id     string
	conn   net.Conn
	closed int32
}

func (h *TCPHandle) ID() string {
	return h.id
}

func (h *TCPHandle) Conn() net.Conn {
	return h.conn
}

func (h *TCPHandle) Close() error {
	if !atomic.CompareAndSwapInt32(&h.closed, 0, 1) {
		return nil
	}
	return h.conn.Close()
}

func (h *TCPHandle) Closed() bool {
	return atomic.LoadInt32(&h.closed) == 1
}

type TCPFactory struct {
	// DialTimeout bounds the dial on top of the caller's ctx.
	DialTimeout time.Duration
}

func (f *TCPFactory) Create(ctx context.Context, params poolcore.ConnectionParams) (poolcore.Handle, error) {
	d := net.Dialer{Timeout: f.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", params.Endpoint)
	if err != nil {
		return nil, err
	}
	return &TCPHandle{id: uuid.NewString(), conn: conn}, nil
}

// TCPValidator probes liveness by writing HeartData and reading one reply
// byte under a deadline. With no HeartData only the closed flag is checked.
type TCPValidator struct {
	HeartData []byte
}

func (v *TCPValidator) IsValid(h poolcore.Handle, timeout time.Duration) bool {
	th, ok := h.(*TCPHandle)
	if !ok || th.Closed() {
		return false
	}
	if len(v.HeartData) == 0 {
		return true
	}
	if timeout > 0 {
		_ = th.conn.SetDeadline(time.Now().Add(timeout))
		defer th.conn.SetDeadline(time.Time{})
	}
	if _, err := th.conn.Write(v.HeartData); err != nil {
		return false
	}
	reply := make([]byte, 1)
	if _, err := th.conn.Read(reply); err != nil {
		return false
	}
	return true
}
