package packstore

import (
	"sync"

	"github.com/nivl-labs/packengine/objkind"
)

// object is the materialized (kind, bytes) pair kept per id in a
// MemStore.
type object struct {
	kind    objkind.Kind
	payload []byte
}

// MemStore is an in-memory ObjectStore backed by a map, used by unit
// tests and the round-trip property in spec §8.
type MemStore struct {
	mu      sync.RWMutex
	objects map[[20]byte]object
	packs   [][]byte
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{objects: make(map[[20]byte]object)}
}

// Put seeds the store with a materialized object, as if it had been
// unpacked from some earlier pack.
func (m *MemStore) Put(oid [20]byte, kind objkind.Kind, payload []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[oid] = object{kind: kind, payload: payload}
}

// FindPacked implements ObjectStore.
func (m *MemStore) FindPacked(oid [20]byte) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[oid]
	return ok
}

// Retrieve implements ObjectStore.
func (m *MemStore) Retrieve(oid [20]byte, _ objkind.Kind) (objkind.Kind, []byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[oid]
	if !ok {
		return 0, nil, ErrObjectNotFound
	}
	return o.kind, o.payload, nil
}

// PersistPack implements ObjectStore by appending data to an
// in-memory list, retrievable via Packs for assertions in tests.
func (m *MemStore) PersistPack(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.packs = append(m.packs, cp)
	return nil
}

// Packs returns every pack handed to PersistPack, in call order.
func (m *MemStore) Packs() [][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.packs
}
