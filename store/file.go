package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"docsum/types"
)

// FileStore keeps the summary as JSON in a single file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Save writes to a temp file in the same directory and renames it over the
// target, so readers see either the old or the new summary.
func (s *FileStore) Save(_ context.Context, summary types.Summary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".summary-*")
	if err != nil {
		return fmt.Errorf("error creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("error writing summary: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error writing summary: %w", err)
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *FileStore) Load(_ context.Context) (types.Summary, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return types.Summary{}, ErrNotFound
	}
	if err != nil {
		return types.Summary{}, fmt.Errorf("error reading summary: %w", err)
	}
	return decode(data)
}

func (s *FileStore) Close() error { return nil }

func decode(data []byte) (types.Summary, error) {
	if len(data) == 0 {
		return types.Summary{}, ErrNotFound
	}
	var summary types.Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return types.Summary{}, fmt.Errorf("failed to decode summary: %w", err)
	}
	if summary.Content == "" {
		return types.Summary{}, ErrNotFound
	}
	return summary, nil
}
