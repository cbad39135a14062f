package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

// FileStore keeps values in memory and writes them to a JSON file on Save
type FileStore struct {
	path   string
	log    logrus.FieldLogger
	mu     sync.RWMutex
	values map[string]int
	dirty  bool
}

// NewFileStore opens the JSON file at path, creating its directory if needed.
// A missing file is an empty store.
func NewFileStore(path string, log logrus.FieldLogger) (*FileStore, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	fs := &FileStore{path: path, log: log, values: make(map[string]int)}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return fs, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &fs.values); err != nil {
			return nil, fmt.Errorf("failed to unmarshal store file: %w", err)
		}
	}
	return fs, nil
}

func (f *FileStore) Lookup(key string) (int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.values[key]
	if !ok {
		return 0, ErrKeyNotFound
	}
	return v, nil
}

func (f *FileStore) GetInt(key string, def int) int { return getInt(f, key, def, f.log) }

func (f *FileStore) SetInt(key string, value int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	f.dirty = true
	return nil
}

func (f *FileStore) DeleteKey(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.values[key]; ok {
		delete(f.values, key)
		f.dirty = true
	}
	return nil
}

// Save writes the store to disk through a temporary file
func (f *FileStore) Save() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.dirty {
		return nil
	}

	jsonData, err := json.MarshalIndent(f.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	f.dirty = false
	return nil
}

// Close saves pending writes
func (f *FileStore) Close() error { return f.Save() }

// Path returns the backing file
func (f *FileStore) Path() string { return f.path }
