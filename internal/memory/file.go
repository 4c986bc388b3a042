package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jonathan/interview-intel/internal/types"
)

// FileStore keeps discovery records as a JSON array in a single file.
// Writes go to a temp file that is renamed over the original.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store at path. The file is created on first insert.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("memory file path is required")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create memory directory: %w", err)
		}
	}
	return &FileStore{path: path}, nil
}

// Path returns the backing file path
func (s *FileStore) Path() string {
	return s.path
}

// List returns all records in insertion order
func (s *FileStore) List(_ context.Context) ([]types.DiscoveryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Insert appends rec unless its canonical name is already present
func (s *FileStore) Insert(_ context.Context, rec types.DiscoveryRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return false, err
	}
	for _, existing := range records {
		if sameCanonical(existing.CanonicalName, rec.CanonicalName) {
			return false, nil
		}
	}

	records = append(records, rec)
	if err := s.write(records); err != nil {
		return false, err
	}
	return true, nil
}

// Close is a no-op for file stores
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) read() ([]types.DiscoveryRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read memory file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var records []types.DiscoveryRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse memory file %s: %w", s.path, err)
	}
	return records, nil
}

func (s *FileStore) write(records []types.DiscoveryRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal memory records: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".memory-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp memory file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp memory file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp memory file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace memory file: %w", err)
	}
	return nil
}
