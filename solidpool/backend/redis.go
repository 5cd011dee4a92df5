package backend

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sjy-dv/solidpool/solidpool/poolcore"
)

var _ poolcore.Handle = &RedisHandle{}
var _ poolcore.Factory = &RedisFactory{}
var _ poolcore.Validator = &RedisValidator{}

// RedisHandle wraps one single-connection client, so the pool (not go-redis)
// owns the connection lifecycle.
type RedisHandle struct {
	id     string
	client *redis.Client
	closed int32
}

func (h *RedisHandle) ID() string {
	return h.id
}

func (h *RedisHandle) Client() *redis.Client {
	return h.client
}

func (h *RedisHandle) Close() error {
	if !atomic.CompareAndSwapInt32(&h.closed, 0, 1) {
		return nil
	}
	return h.client.Close()
}

type RedisFactory struct {
	DB int
}

func (f *RedisFactory) Create(ctx context.Context, params poolcore.ConnectionParams) (poolcore.Handle, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     params.Endpoint,
		Username: params.Principal,
		Password: params.Credential,
		DB:       f.DB,
		PoolSize: 1,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &RedisHandle{id: uuid.NewString(), client: client}, nil
}

type RedisValidator struct{}

func (v *RedisValidator) IsValid(h poolcore.Handle, timeout time.Duration) bool {
	rh, ok := h.(*RedisHandle)
	if !ok || atomic.LoadInt32(&rh.closed) == 1 {
		return false
	}
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return rh.client.Ping(ctx).Err() == nil
}
