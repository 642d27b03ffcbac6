package completion

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps completion records in process memory.
// It only deduplicates within one process; use it for local serving and tests.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (m *MemoryStore) SetIfAbsent(_ context.Context, rec Record, now time.Time) (bool, error) {
	if rec.BatchKey == "" {
		return false, ErrEmptyBatchKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.records[rec.BatchKey]; ok && existing.ExpiresAt > now.Unix() {
		return false, nil
	}
	m.records[rec.BatchKey] = rec
	return true, nil
}

func (m *MemoryStore) Delete(_ context.Context, batchKey, triggerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.records[batchKey]; ok && rec.TriggerID == triggerID {
		delete(m.records, batchKey)
	}
	return nil
}
