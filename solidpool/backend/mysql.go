package backend

import (
	"context"
	"database/sql/driver"
	"sync/atomic"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/sjy-dv/solidpool/solidpool/poolcore"
)

var _ poolcore.Handle = &MySQLHandle{}
var _ poolcore.Factory = &MySQLFactory{}
var _ poolcore.Validator = &MySQLValidator{}

// MySQLHandle wraps one raw driver connection, bypassing database/sql's own
// pooling so this pool stays the sole owner.
type MySQLHandle struct {
	id     string
	conn   driver.Conn
	closed int32
}

func (h *MySQLHandle) ID() string {
	return h.id
}

func (h *MySQLHandle) Conn() driver.Conn {
	return h.conn
}

func (h *MySQLHandle) Close() error {
	if !atomic.CompareAndSwapInt32(&h.closed, 0, 1) {
		return nil
	}
	return h.conn.Close()
}

type MySQLFactory struct {
	DBName string
}

func (f *MySQLFactory) Create(ctx context.Context, params poolcore.ConnectionParams) (poolcore.Handle, error) {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = params.Endpoint
	cfg.User = params.Principal
	cfg.Passwd = params.Credential
	cfg.DBName = f.DBName

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, err
	}
	conn, err := connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return &MySQLHandle{id: uuid.NewString(), conn: conn}, nil
}

type MySQLValidator struct{}

func (v *MySQLValidator) IsValid(h poolcore.Handle, timeout time.Duration) bool {
	mh, ok := h.(*MySQLHandle)
	if !ok || atomic.LoadInt32(&mh.closed) == 1 {
		return false
	}
	pinger, ok := mh.conn.(driver.Pinger)
	if !ok {
		return true
	}
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return pinger.Ping(ctx) == nil
}
