package backend

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/sjy-dv/solidpool/solidpool/poolcore"
)

// heartEchoServer answers every heart byte with one reply byte.
func heartEchoServer(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				buf := make([]byte, 1)
				for {
					if _, err := c.Read(buf); err != nil {
						return
					}
					if _, err := c.Write([]byte{'+'}); err != nil {
						return
					}
				}
			}(conn)
		}
	}()
	return ln
}

func TestTCPFactoryAndValidator(t *testing.T) {
	ln := heartEchoServer(t)
	defer ln.Close()

	f := &TCPFactory{DialTimeout: time.Second}
	h, err := f.Create(context.Background(), poolcore.ConnectionParams{Endpoint: ln.Addr().String()})
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	if h.ID() == "" {
		t.Fatal("handle has no identity")
	}

	v := &TCPValidator{HeartData: []byte{'p'}}
	if !v.IsValid(h, time.Second) {
		t.Fatal("live connection reported invalid")
	}
}

func TestTCPValidatorClosedHandle(t *testing.T) {
	ln := heartEchoServer(t)
	defer ln.Close()

	f := &TCPFactory{DialTimeout: time.Second}
	h, err := f.Create(context.Background(), poolcore.ConnectionParams{Endpoint: ln.Addr().String()})
	if err != nil {
		t.Fatal(err)
	}
	if err := h.Close(); err != nil {
		t.Fatal(err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	v := &TCPValidator{HeartData: []byte{'p'}}
	if v.IsValid(h, time.Second) {
		t.Fatal("closed handle reported valid")
	}
}

func TestTCPValidatorNoHeartData(t *testing.T) {
	ln := heartEchoServer(t)
	defer ln.Close()

	f := &TCPFactory{DialTimeout: time.Second}
	h, err := f.Create(context.Background(), poolcore.ConnectionParams{Endpoint: ln.Addr().String()})
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	v := &TCPValidator{}
	if !v.IsValid(h, time.Second) {
		t.Fatal("open handle without heart probe reported invalid")
	}
}

func TestTCPValidatorWrongHandleType(t *testing.T) {
	v := &TCPValidator{}
	if v.IsValid(nil, time.Second) {
		t.Fatal("nil handle reported valid")
	}
}

func TestTCPFactoryDialFailure(t *testing.T) {
	f := &TCPFactory{DialTimeout: 200 * time.Millisecond}
	if _, err := f.Create(context.Background(), poolcore.ConnectionParams{Endpoint: "127.0.0.1:1"}); err == nil {
		t.Fatal("dial to closed port succeeded")
	}
}
