package registry

import (
	"testing"
	"time"
)

func TestAccessorBasic(t *testing.T) {
	acc := NewAccessor()

	l := &Lease{AcquiredAt: time.Now()}
	if old := acc.Save([]byte("h-1"), l); old != nil {
		t.Fatalf("unexpected previous lease %+v", old)
	}
	if acc.Size() != 1 {
		t.Fatalf("size = %d, want 1", acc.Size())
	}
	if got := acc.Get([]byte("h-1")); got != l {
		t.Fatal("get returned wrong lease")
	}
	if got := acc.Get([]byte("h-2")); got != nil {
		t.Fatalf("get of missing key = %+v", got)
	}

	got, ok := acc.Del([]byte("h-1"))
	if !ok || got != l {
		t.Fatal("del did not return the stored lease")
	}
	if _, ok := acc.Del([]byte("h-1")); ok {
		t.Fatal("second del reported found")
	}
	if acc.Size() != 0 {
		t.Fatalf("size = %d, want 0", acc.Size())
	}
}

func TestAccessorFindKeyAsc(t *testing.T) {
	acc := NewAccessor()
	for _, k := range []string{"c", "a", "b"} {
		acc.Save([]byte(k), &Lease{})
	}

	var keys []string
	acc.FindKeyAsc(func(key []byte, l *Lease) (bool, error) {
		keys = append(keys, string(key))
		return true, nil
	})
	want := []string{"a", "b", "c"}
	if len(keys) != len(want) {
		t.Fatalf("visited %d keys, want %d", len(keys), len(want))
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys = %v, want %v", keys, want)
		}
	}
}
