package registry

import (
	"bytes"
	"sync"

	"github.com/google/btree"
)

type MemBTree struct {
	tree *btree.BTree
	lock *sync.RWMutex
}

type item struct {
	key   []byte
	lease *Lease
}

func newBTree() *MemBTree {
	return &MemBTree{
		tree: btree.New(32),
		lock: new(sync.RWMutex),
	}
}

func (i *item) Less(bi btree.Item) bool {
	return bytes.Compare(i.key, bi.(*item).key) < 0
}

func (m *MemBTree) Save(key []byte, l *Lease) *Lease {
	m.lock.Lock()
	defer m.lock.Unlock()
	oldVal := m.tree.ReplaceOrInsert(&item{key: key, lease: l})
	if oldVal != nil {
		return oldVal.(*item).lease
	}
	return nil
}

func (m *MemBTree) Get(key []byte) *Lease {
	m.lock.RLock()
	defer m.lock.RUnlock()
	val := m.tree.Get(&item{key: key})
	if val != nil {
		return val.(*item).lease
	}
	return nil
}

func (m *MemBTree) Del(key []byte) (*Lease, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	val := m.tree.Delete(&item{key: key})
	if val != nil {
		return val.(*item).lease, true
	}
	return nil, false
}

func (m *MemBTree) Size() int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.tree.Len()
}

func (m *MemBTree) FindKeyAsc(callback func(key []byte, l *Lease) (bool, error)) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	m.tree.Ascend(func(i btree.Item) bool {
		cont, err := callback(i.(*item).key, i.(*item).lease)
		if err != nil {
			return false
		}
		return cont
	})
}
