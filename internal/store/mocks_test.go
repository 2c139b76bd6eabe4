package store

import (
	"context"
	"ponudaplus/internal/models"
	"ponudaplus/internal/providers"
	"sync"
	"time"
)

// local mocks to avoid the import cycle with testutil

type storeTestLogger struct{}

func (m *storeTestLogger) Errorf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *storeTestLogger) Warnf(_ providers.TypeEnum, _ string, _ ...interface{})  {}
func (m *storeTestLogger) Debugf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *storeTestLogger) Infof(_ providers.TypeEnum, _ string, _ ...interface{})  {}
func (m *storeTestLogger) Fatalf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *storeTestLogger) Close()                                                  {}

type storeTestMetrics struct {
	mu  sync.Mutex
	ops map[string]int
}

func newStoreTestMetrics() *storeTestMetrics {
	return &storeTestMetrics{ops: make(map[string]int)}
}

func (m *storeTestMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (m *storeTestMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *storeTestMetrics) IncCacheHits(_ string)                            {}
func (m *storeTestMetrics) IncCacheMisses(_ string)                          {}
func (m *storeTestMetrics) ObserveBackupDuration(_ string, _ time.Duration)  {}
func (m *storeTestMetrics) SetBackupSize(_ string, _ int)                    {}
func (m *storeTestMetrics) SetLastBackupTimestamp(_ time.Time)               {}
func (m *storeTestMetrics) IncRestoredDocuments(_, _ string)                 {}
func (m *storeTestMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (m *storeTestMetrics) IncStoreOperations(op, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops[op+"/"+status]++
}

type storeTestCache struct {
	data map[string][]byte
}

func newStoreTestCache() *storeTestCache {
	return &storeTestCache{data: make(map[string][]byte)}
}

func (c *storeTestCache) Get(key string) ([]byte, bool) {
	v, ok := c.data[key]
	return v, ok
}
func (c *storeTestCache) Set(key string, value []byte) { c.data[key] = value }
func (c *storeTestCache) Del(key string)               { delete(c.data, key) }

// countingStore is a map-backed DocumentStore that counts Get calls.
type countingStore struct {
	docs map[string]models.Document
	gets int
	err  error
}

func newCountingStore() *countingStore {
	return &countingStore{docs: make(map[string]models.Document)}
}

func (s *countingStore) List(_ context.Context, _ string, _ ListOptions) ([]models.Document, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]models.Document, 0, len(s.docs))
	for _, d := range s.docs {
		out = append(out, d)
	}
	return out, nil
}

func (s *countingStore) Get(_ context.Context, col, id string) (models.Document, error) {
	s.gets++
	if s.err != nil {
		return nil, s.err
	}
	d, ok := s.docs[col+"/"+id]
	if !ok {
		return nil, ErrNotFound
	}
	return d.Copy(), nil
}

func (s *countingStore) Create(_ context.Context, col, id string, fields models.Document) (models.Document, error) {
	if s.err != nil {
		return nil, s.err
	}
	if _, ok := s.docs[col+"/"+id]; ok {
		return nil, ErrConflict
	}
	d := fields.Clean()
	d[models.KeyID] = id
	s.docs[col+"/"+id] = d
	return d.Copy(), nil
}

func (s *countingStore) Update(_ context.Context, col, id string, fields models.Document) (models.Document, error) {
	if s.err != nil {
		return nil, s.err
	}
	d, ok := s.docs[col+"/"+id]
	if !ok {
		return nil, ErrNotFound
	}
	for k, v := range fields.Clean() {
		d[k] = v
	}
	return d.Copy(), nil
}

func (s *countingStore) Delete(_ context.Context, col, id string) error {
	if s.err != nil {
		return s.err
	}
	if _, ok := s.docs[col+"/"+id]; !ok {
		return ErrNotFound
	}
	delete(s.docs, col+"/"+id)
	return nil
}
