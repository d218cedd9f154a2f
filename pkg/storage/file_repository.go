package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const storeFileName = "state.json"

// FileRepository implements Repository using a single JSON file on disk.
// Every mutation rewrites the file so state survives process restarts,
// the same way browser localStorage survives page reloads.
type FileRepository struct {
	dataDir string
	values  map[string]string
	mutex   sync.RWMutex
}

// NewFileRepository creates a file-based repository rooted at dataDir,
// creating the directory if needed and loading any existing state.
func NewFileRepository(dataDir string) (*FileRepository, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	repo := &FileRepository{
		dataDir: dataDir,
		values:  make(map[string]string),
	}

	if err := repo.load(); err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	return repo, nil
}

// Get returns the stored value for key.
func (r *FileRepository) Get(key string) (string, bool, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	value, ok := r.values[key]
	return value, ok, nil
}

// Set stores value under key and persists the change.
func (r *FileRepository) Set(key, value string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.values[key] = value
	return r.save()
}

// Delete removes key and persists the change.
func (r *FileRepository) Delete(key string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.values[key]; !ok {
		return nil
	}
	delete(r.values, key)
	return r.save()
}

func (r *FileRepository) filePath() string {
	return filepath.Join(r.dataDir, storeFileName)
}

func (r *FileRepository) load() error {
	data, err := os.ReadFile(r.filePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	return json.Unmarshal(data, &r.values)
}

// save writes the whole map to a temp file and renames it into place so a
// crash mid-write never leaves a truncated store behind.
func (r *FileRepository) save() error {
	data, err := json.MarshalIndent(r.values, "", "  ")
	if err != nil {
		return err
	}

	tmpPath := r.filePath() + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmpPath, r.filePath())
}
