package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/AkshadGawde/Astrape-Ecommerce/internal/domain"
	"github.com/sirupsen/logrus"
)

var _ domain.KeyValueStore = (*FileStore)(nil)

// FileStore persists all keys as one JSON object. Every write replaces the file
// through a temp file and rename, so readers never observe a partial document.
type FileStore struct {
	path string
	mu   sync.Mutex
	log  *logrus.Logger
}

func NewFileStore(path string, logger *logrus.Logger) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("storage file path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
		}
	}
	logger.Infof("Storage: Using file store at %s", path)
	return &FileStore{path: path, log: logger}, nil
}

func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return "", false, err
	}
	value, ok := values[key]
	return value, ok, nil
}

func (s *FileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}
	values[key] = value
	return s.write(values)
}

func (s *FileStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return s.write(values)
}

func (s *FileStore) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		s.log.Errorf("Storage: Failed to read %s: %v", s.path, err)
		return nil, fmt.Errorf("failed to read storage file: %w", err)
	}

	values := make(map[string]string)
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		// A corrupt document is treated as empty; the next write replaces it.
		s.log.Warnf("Storage: Ignoring unreadable storage file %s: %v", s.path, err)
		return make(map[string]string), nil
	}
	return values, nil
}

func (s *FileStore) write(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode storage file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		s.log.Errorf("Storage: Failed to create temp file next to %s: %v", s.path, err)
		return fmt.Errorf("failed to write storage file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write storage file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write storage file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		s.log.Errorf("Storage: Failed to replace %s: %v", s.path, err)
		return fmt.Errorf("failed to replace storage file: %w", err)
	}
	return nil
}
