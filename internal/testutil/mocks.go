package testutil

import (
	"context"
	"fmt"
	"ponudaplus/internal/models"
	"ponudaplus/internal/providers"
	"ponudaplus/internal/store"
	"strings"
	"sync"
	"time"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (e LogEntry) Message() string {
	return fmt.Sprintf(e.Format, e.Args...)
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// HasLevel reports whether a message at the level containing substr was logged.
func (m *MockLogger) HasLevel(level, substr string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Logs {
		if e.Level == level && strings.Contains(e.Message(), substr) {
			return true
		}
	}
	return false
}

// MockMetrics implements providers.MetricsProviderInterface and counts the calls tests look at.
type MockMetrics struct {
	mu                sync.Mutex
	Requests          int
	BackupDurations   map[string]int
	BackupSizes       map[string]int
	LastBackup        time.Time
	RestoredDocuments map[string]int
	StoreOperations   map[string]int
	PersistenceCalls  int
}

func (m *MockMetrics) init() {
	if m.BackupDurations == nil {
		m.BackupDurations = make(map[string]int)
		m.BackupSizes = make(map[string]int)
		m.RestoredDocuments = make(map[string]int)
		m.StoreOperations = make(map[string]int)
	}
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests++
}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) IncCacheHits(_ string)                            {}
func (m *MockMetrics) IncCacheMisses(_ string)                          {}
func (m *MockMetrics) ObserveBackupDuration(kind string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.init()
	m.BackupDurations[kind]++
}
func (m *MockMetrics) SetBackupSize(kind string, bytes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.init()
	m.BackupSizes[kind] = bytes
}
func (m *MockMetrics) SetLastBackupTimestamp(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastBackup = t
}
func (m *MockMetrics) IncRestoredDocuments(collection, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.init()
	m.RestoredDocuments[collection+"/"+outcome]++
}
func (m *MockMetrics) IncStoreOperations(op, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.init()
	m.StoreOperations[op+"/"+status]++
}
func (m *MockMetrics) ObservePersistenceDuration(_ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PersistenceCalls++
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

func (m *MockCache) Del(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Data, key)
}

// MockCompressor implements interfaces.CompressorInterface with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
	Closed       bool
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	// Default: return as-is (identity)
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Close() { m.Closed = true }

// WriteCall is one Create or Update the MockStore received.
type WriteCall struct {
	Op         string
	Collection string
	ID         string
	Fields     models.Document
}

// MockStore is an in-memory store.DocumentStore. It keeps insertion order per
// collection, records every write payload and lets tests inject failures.
type MockStore struct {
	mu      sync.Mutex
	docs    map[string]map[string]models.Document
	order   map[string][]string
	nextID  int
	Writes  []WriteCall
	ListErr map[string]error
	GetErr  error
	// UpdateErr and CreateErr run before the in-memory behaviour; a non-nil error is returned as is.
	UpdateErr func(collection, id string) error
	CreateErr func(collection, id string) error
}

func NewMockStore() *MockStore {
	return &MockStore{
		docs:  make(map[string]map[string]models.Document),
		order: make(map[string][]string),
	}
}

// Seed inserts documents as if they had been created by the store.
func (m *MockStore) Seed(collection string, docs ...models.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range docs {
		m.put(collection, d.ID(), d.Clean())
	}
}

// Docs returns the stored documents of a collection in insertion order, with metadata.
func (m *MockStore) Docs(collection string) []models.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Document, 0, len(m.order[collection]))
	for _, id := range m.order[collection] {
		out = append(out, m.withMeta(collection, id))
	}
	return out
}

func (m *MockStore) WritesFor(op string) []WriteCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []WriteCall
	for _, w := range m.Writes {
		if w.Op == op {
			out = append(out, w)
		}
	}
	return out
}

func (m *MockStore) put(collection, id string, fields models.Document) {
	if m.docs[collection] == nil {
		m.docs[collection] = make(map[string]models.Document)
	}
	if _, ok := m.docs[collection][id]; !ok {
		m.order[collection] = append(m.order[collection], id)
	}
	m.docs[collection][id] = fields
}

func (m *MockStore) withMeta(collection, id string) models.Document {
	d := m.docs[collection][id].Copy()
	d[models.KeyID] = id
	d[models.KeyCollectionID] = collection
	d[models.KeyCreatedAt] = "2024-01-01T00:00:00.000+00:00"
	d[models.KeyUpdatedAt] = "2024-01-01T00:00:00.000+00:00"
	d[models.KeyPermissions] = []any{}
	return d
}

func (m *MockStore) List(_ context.Context, collection string, opts store.ListOptions) ([]models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ListErr[collection]; err != nil {
		return nil, err
	}
	ids := m.order[collection]
	if opts.Offset > 0 {
		if opts.Offset >= len(ids) {
			ids = nil
		} else {
			ids = ids[opts.Offset:]
		}
	}
	if opts.Limit > 0 && len(ids) > opts.Limit {
		ids = ids[:opts.Limit]
	}
	out := make([]models.Document, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.withMeta(collection, id))
	}
	return out, nil
}

func (m *MockStore) Get(_ context.Context, collection, id string) (models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if _, ok := m.docs[collection][id]; !ok {
		return nil, fmt.Errorf("%w: %s/%s", store.ErrNotFound, collection, id)
	}
	return m.withMeta(collection, id), nil
}

func (m *MockStore) Create(_ context.Context, collection, id string, fields models.Document) (models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Writes = append(m.Writes, WriteCall{Op: "create", Collection: collection, ID: id, Fields: fields.Copy()})
	if m.CreateErr != nil {
		if err := m.CreateErr(collection, id); err != nil {
			return nil, err
		}
	}
	if id == "" {
		m.nextID++
		id = fmt.Sprintf("generated-%d", m.nextID)
	}
	if _, ok := m.docs[collection][id]; ok {
		return nil, fmt.Errorf("%w: %s/%s", store.ErrConflict, collection, id)
	}
	m.put(collection, id, fields.Clean())
	return m.withMeta(collection, id), nil
}

func (m *MockStore) Update(_ context.Context, collection, id string, fields models.Document) (models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Writes = append(m.Writes, WriteCall{Op: "update", Collection: collection, ID: id, Fields: fields.Copy()})
	if m.UpdateErr != nil {
		if err := m.UpdateErr(collection, id); err != nil {
			return nil, err
		}
	}
	current, ok := m.docs[collection][id]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", store.ErrNotFound, collection, id)
	}
	for k, v := range fields.Clean() {
		current[k] = v
	}
	return m.withMeta(collection, id), nil
}

func (m *MockStore) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[collection][id]; !ok {
		return fmt.Errorf("%w: %s/%s", store.ErrNotFound, collection, id)
	}
	delete(m.docs[collection], id)
	ids := m.order[collection]
	for i, v := range ids {
		if v == id {
			m.order[collection] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

// MockKV implements interfaces.KeyValueInterface in memory.
type MockKV struct {
	mu     sync.Mutex
	Data   map[string]string
	SetErr error
	// SetErrFor fails Set only for the listed keys.
	SetErrFor map[string]error
}

func NewMockKV() *MockKV {
	return &MockKV{Data: make(map[string]string)}
}

func (m *MockKV) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.Data[key]
	return v, ok
}

func (m *MockKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SetErr != nil {
		return m.SetErr
	}
	if err := m.SetErrFor[key]; err != nil {
		return err
	}
	m.Data[key] = value
	return nil
}

func (m *MockKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Data, key)
	return nil
}
