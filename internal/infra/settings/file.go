// Package settings implements repository.SettingsRepository on a local YAML
// file and on Redis.
package settings

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"news-aggregator/internal/repository"
)

type fileDoc struct {
	DarkMode        bool     `yaml:"dark_mode"`
	SelectedSources []string `yaml:"selected_sources,omitempty"`
}

// FileStore keeps the settings in one YAML document. A missing file reads
// as defaults. Writes replace the file atomically.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path. The file is created on the first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

var _ repository.SettingsRepository = (*FileStore)(nil)

func (s *FileStore) SelectedSources(ctx context.Context) ([]string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readLocked()
	if err != nil {
		return nil, false, fmt.Errorf("SelectedSources: %w", err)
	}
	if len(doc.SelectedSources) == 0 {
		return nil, false, nil
	}
	return doc.SelectedSources, true, nil
}

func (s *FileStore) SetSelectedSources(ctx context.Context, names []string) error {
	return s.update(func(doc *fileDoc) { doc.SelectedSources = slices.Clone(names) })
}

func (s *FileStore) DarkMode(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readLocked()
	if err != nil {
		return false, fmt.Errorf("DarkMode: %w", err)
	}
	return doc.DarkMode, nil
}

func (s *FileStore) SetDarkMode(ctx context.Context, enabled bool) error {
	return s.update(func(doc *fileDoc) { doc.DarkMode = enabled })
}

func (s *FileStore) update(mutate func(*fileDoc)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readLocked()
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	mutate(&doc)
	if err := s.writeLocked(doc); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	return nil
}

func (s *FileStore) readLocked() (fileDoc, error) {
	var doc fileDoc
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("read %s: %w", s.path, err)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return doc, nil
}

func (s *FileStore) writeLocked(doc fileDoc) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
