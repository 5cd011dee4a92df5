package limiter

import (
	"testing"
	"time"
)

func TestDefaultLimiter(t *testing.T) {
	l := NewLimiter(2)
	if !l.Allow() || !l.Allow() {
		t.Fatal("slots should be free")
	}
	if l.Allow() {
		t.Fatal("third slot should be denied")
	}
	l.Revert()
	if !l.Allow() {
		t.Fatal("reverted slot should be free again")
	}
}

func TestTimeoutLimiterWaits(t *testing.T) {
	l := NewTimeoutLimiter(1, 200*time.Millisecond)
	if !l.Allow() {
		t.Fatal("first slot should be free")
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		l.Revert()
	}()
	start := time.Now()
	if !l.Allow() {
		t.Fatal("slot should free up within the timeout")
	}
	if time.Since(start) > 200*time.Millisecond {
		t.Fatal("allow waited past the timeout")
	}
}

func TestTimeoutLimiterGivesUp(t *testing.T) {
	l := NewTimeoutLimiter(1, 30*time.Millisecond)
	if !l.Allow() {
		t.Fatal("first slot should be free")
	}
	if l.Allow() {
		t.Fatal("second allow should time out")
	}
}
