package registry

import (
	"time"

	"github.com/sjy-dv/solidpool/solidpool/poolcore"
)

// Lease records one checked-out handle.
type Lease struct {
	Handle     poolcore.Handle
	AcquiredAt time.Time
	// Probing marks a handle parked here only while its liveness probe
	// runs; such a lease is not recognized by a release.
	Probing bool
}

type Accessor interface {
	Save(key []byte, l *Lease) *Lease
	Get(key []byte) *Lease
	Del(key []byte) (*Lease, bool)
	Size() int
	FindKeyAsc(callback func(key []byte, l *Lease) (bool, error))
}

type AccessorType = byte

const (
	BTree AccessorType = iota
)

var accessorType = BTree

func NewAccessor() Accessor {
	switch accessorType {
	case BTree:
		return newBTree()
	default:
		panic("unsupported accessor type")
	}
}
