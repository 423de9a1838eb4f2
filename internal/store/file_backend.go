package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// fileFormatVersion is written into every history file.
const fileFormatVersion = 1

// historyFile is the on-disk JSON document for one location.
type historyFile[T any] struct {
	Version   int `json:"version"`
	Snapshots []T `json:"snapshots"`
}

// FileBackend stores each history as a JSON document at the location path.
type FileBackend[T any] struct{}

// NewFileBackend creates a file backend. Locations are file paths.
func NewFileBackend[T any]() *FileBackend[T] {
	return &FileBackend[T]{}
}

// Load reads and decodes the history file at path.
func (b *FileBackend[T]) Load(path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	var doc historyFile[T]
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse history file %s: %w", path, err)
	}
	if doc.Version > fileFormatVersion {
		return nil, fmt.Errorf("unsupported history file version %d in %s (expected <= %d)",
			doc.Version, path, fileFormatVersion)
	}
	return doc.Snapshots, nil
}

// Save encodes history and atomically replaces the file at path.
func (b *FileBackend[T]) Save(path string, history []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	data, err := json.MarshalIndent(historyFile[T]{
		Version:   fileFormatVersion,
		Snapshots: history,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	return atomicWriteFile(path, data, 0644)
}

// atomicWriteFile writes content next to path and renames it into place, so
// readers see either the old file or the new one.
func atomicWriteFile(path string, content []byte, perm os.FileMode) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("writing content: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing to disk: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err = os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming into place: %w", err)
	}
	return nil
}
