package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists keys as a single JSON document on disk. A missing or
// corrupt file reads as empty; the first write replaces it.
type FileStore struct {
	mu   sync.Mutex
	path string
	data map[string]string
}

func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, data: make(map[string]string)}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		// Corrupt state is discarded, not fatal.
		s.data = make(map[string]string)
	}
	return s, nil
}

func (s *FileStore) flush(data map[string]string) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: marshal: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("storage: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("storage: rename %s: %w", filepath.Base(tmp), err)
	}
	return nil
}

func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *FileStore) Set(ctx context.Context, key, value string) error {
	return s.SetMany(ctx, map[string]string{key: value})
}

// SetMany writes through a staged copy: the in-memory view only advances
// once the new document is on disk, so a failed write cannot leave memory
// serving values that were never persisted.
func (s *FileStore) SetMany(_ context.Context, entries map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	staged := maps.Clone(s.data)
	for k, v := range entries {
		staged[k] = v
	}
	if err := s.flush(staged); err != nil {
		return err
	}
	s.data = staged
	return nil
}

func (s *FileStore) Delete(ctx context.Context, key string) error {
	return s.DeleteMany(ctx, key)
}

func (s *FileStore) DeleteMany(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	staged := maps.Clone(s.data)
	for _, k := range keys {
		delete(staged, k)
	}
	if err := s.flush(staged); err != nil {
		return err
	}
	s.data = staged
	return nil
}
