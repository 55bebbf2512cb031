// Package file keeps the seen-set and the listings log on the local
// filesystem.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"listing_watcher/internal/domain"
	"listing_watcher/internal/seen"
)

// SeenStore persists the seen-set as a JSON object of id -> true.
type SeenStore struct {
	path string
}

func NewSeenStore(path string) *SeenStore {
	return &SeenStore{path: path}
}

func (s *SeenStore) Path() string {
	return s.path
}

// Load returns an empty set when the file does not exist yet.
func (s *SeenStore) Load(_ context.Context) (seen.Set, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return seen.New(), nil
	}
	if err != nil {
		return nil, &domain.StorageReadError{Path: s.path, Err: err}
	}

	set := seen.New()
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, &domain.StorageReadError{Path: s.path, Err: fmt.Errorf("decode seen listings: %w", err)}
	}
	if set == nil {
		set = seen.New()
	}
	return set, nil
}

// Save replaces the file with the full set. The previous file stays intact
// if any step fails.
func (s *SeenStore) Save(_ context.Context, set seen.Set) error {
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return &domain.StorageWriteError{Path: s.path, Err: fmt.Errorf("encode seen listings: %w", err)}
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return &domain.StorageWriteError{Path: s.path, Err: err}
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
