package persistence

import (
	"fmt"
	"os"
	"path/filepath"
	"ponudaplus/internal/persistence/interfaces"
	"ponudaplus/internal/providers"
	"ponudaplus/internal/structures"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

const kvFileVersion = 1

type kvFile struct {
	Version int               `json:"version"`
	Entries map[string]string `json:"entries"`
}

// FileKV keeps the local key-value state in memory and writes every change
// through to a single file.
type FileKV struct {
	mu         sync.RWMutex
	path       string
	entries    map[string]string
	compressor interfaces.CompressorInterface
	logger     providers.Logger
	metrics    providers.MetricsProviderInterface
}

func NewFileKV(conf *structures.Config, compressor interfaces.CompressorInterface, logger providers.Logger, metrics providers.MetricsProviderInterface) *FileKV {
	return &FileKV{
		path:       conf.Persistence.FilePath,
		entries:    make(map[string]string),
		compressor: compressor,
		logger:     logger,
		metrics:    metrics,
	}
}

func (f *FileKV) Get(key string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.entries[key]
	return v, ok
}

// Set stores value and writes the file. When the write fails the previous
// value is put back, so memory never holds state the file does not.
func (f *FileKV) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev, existed := f.entries[key]
	f.entries[key] = value
	if err := f.flushLocked(); err != nil {
		f.restoreLocked(key, prev, existed)
		return err
	}
	return nil
}

func (f *FileKV) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev, ok := f.entries[key]
	if !ok {
		return nil
	}
	delete(f.entries, key)
	if err := f.flushLocked(); err != nil {
		f.restoreLocked(key, prev, true)
		return err
	}
	return nil
}

func (f *FileKV) restoreLocked(key, prev string, existed bool) {
	if existed {
		f.entries[key] = prev
		return
	}
	delete(f.entries, key)
}

// Flush rewrites the file from memory.
func (f *FileKV) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flushLocked()
}

func (f *FileKV) flushLocked() error {
	start := time.Now()
	defer func() { f.metrics.ObservePersistenceDuration(time.Since(start)) }()

	jsonData, err := json.Marshal(kvFile{Version: kvFileVersion, Entries: f.entries})
	if err != nil {
		return err
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return err
	}

	tmpFile := f.path + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, f.path)
}

// Load replaces the in-memory state with the file content. A missing file
// leaves the store empty.
func (f *FileKV) Load() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	decompressedData, err := f.compressor.Decompress(data)
	if err != nil {
		return err
	}

	var file kvFile
	if err := json.Unmarshal(decompressedData, &file); err == nil && file.Version > 0 && file.Entries != nil {
		f.replace(file.Entries)
		return nil
	}

	f.logger.Warnf(providers.TypeApp, "Key-value file %s has no version header, trying flat format", f.path)
	var flat map[string]string
	if err := json.Unmarshal(decompressedData, &flat); err != nil {
		return fmt.Errorf("unreadable key-value file %s: %w", f.path, err)
	}
	if flat == nil {
		flat = make(map[string]string)
	}
	f.replace(flat)
	f.logger.Infof(providers.TypeApp, "Loaded %d keys from flat key-value file", len(flat))
	return nil
}

func (f *FileKV) replace(entries map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = entries
}

func (f *FileKV) Close() {
	f.compressor.Close()
}
