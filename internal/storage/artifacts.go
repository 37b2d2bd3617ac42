package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileArtifactStore persists companion artifacts as flat files under one
// directory per result ID.
type FileArtifactStore struct {
	root string
}

// NewFileArtifactStore creates the artifact root directory if needed.
func NewFileArtifactStore(root string) (*FileArtifactStore, error) {
	if err := validateString(root, "root"); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(root, 0750); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return &FileArtifactStore{root: root}, nil
}

// Put writes one artifact and returns its path.
func (s *FileArtifactStore) Put(id, name string, data []byte) (string, error) {
	if err := validateString(id, "id"); err != nil {
		return "", err
	}
	if err := validateString(name, "name"); err != nil {
		return "", err
	}

	dir := filepath.Join(s.root, id)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create artifact directory for %s: %w", id, err)
	}

	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0640); err != nil {
		return "", fmt.Errorf("failed to write artifact %s: %w", path, err)
	}

	return path, nil
}

// Get reads one artifact back.
func (s *FileArtifactStore) Get(id, name string) ([]byte, error) {
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	path := filepath.Join(s.root, id, filepath.Base(name))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", path, err)
	}
	return data, nil
}
