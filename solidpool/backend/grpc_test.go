package backend

import (
	"context"
	"testing"
	"time"

	"github.com/sjy-dv/solidpool/solidpool/poolcore"
)

func TestGRPCFactoryDialFailure(t *testing.T) {
	f := &GRPCFactory{DialTimeout: 300 * time.Millisecond}
	start := time.Now()
	if _, err := f.Create(context.Background(), poolcore.ConnectionParams{Endpoint: "127.0.0.1:1"}); err == nil {
		t.Fatal("dial to closed port produced a handle")
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("dial failure was not bounded by the factory timeout")
	}
}

func TestGRPCFactoryCallerDeadline(t *testing.T) {
	f := &GRPCFactory{}
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if _, err := f.Create(ctx, poolcore.ConnectionParams{Endpoint: "127.0.0.1:1"}); err == nil {
		t.Fatal("dial to closed port produced a handle")
	}
}
