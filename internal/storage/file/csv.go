package file

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"listing_watcher/internal/domain"
)

// CSVLog appends listings to a CSV file. The header row is written only
// when the file is created.
type CSVLog struct {
	path string
}

func NewCSVLog(path string) *CSVLog {
	return &CSVLog{path: path}
}

func (c *CSVLog) Path() string {
	return c.path
}

// AbsPath returns the absolute log path, falling back to the configured one.
func (c *CSVLog) AbsPath() string {
	abs, err := filepath.Abs(c.path)
	if err != nil {
		return c.path
	}
	return abs
}

func (c *CSVLog) Append(_ context.Context, listings []domain.Listing) error {
	if len(listings) == 0 {
		return nil
	}
	if err := c.append(listings); err != nil {
		return &domain.StorageWriteError{Path: c.path, Err: err}
	}
	return nil
}

func (c *CSVLog) append(listings []domain.Listing) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	_, err := os.Stat(c.path)
	exists := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat: %w", err)
	}

	f, err := os.OpenFile(c.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if !exists {
		if err := w.Write(domain.CSVColumns); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for _, l := range listings {
		if err := w.Write(l.Record()); err != nil {
			return fmt.Errorf("write row %s: %w", l.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	return f.Close()
}
