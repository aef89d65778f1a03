package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ReportStore persists rendered report files under a base directory. File
// names come back from signed download tokens, so every name is validated to
// resolve inside the base directory before it touches the filesystem.
type ReportStore struct {
	baseDir string
}

// NewReportStore ensures the base directory exists and returns a handle.
func NewReportStore(baseDir string) (*ReportStore, error) {
	if baseDir == "" {
		baseDir = "./exports"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create reports directory: %w", err)
	}
	return &ReportStore{baseDir: baseDir}, nil
}

// Save writes the rendered report under the given file name.
func (s *ReportStore) Save(name string, data []byte) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report file: %w", err)
	}
	return nil
}

// Open returns a read-only handle for a stored report.
func (s *ReportStore) Open(name string) (*os.File, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open report file: %w", err)
	}
	return file, nil
}

// Path resolves a stored report's absolute path.
func (s *ReportStore) Path(name string) (string, error) {
	return s.resolve(name)
}

// Sweep removes reports older than the TTL and returns the removed names.
func (s *ReportStore) Sweep(ttl time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-ttl)
	removed := make([]string, 0)
	err := filepath.WalkDir(s.baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		removed = append(removed, d.Name())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sweep reports: %w", err)
	}
	return removed, nil
}

// resolve joins the name onto the base directory, rejecting anything that
// escapes it.
func (s *ReportStore) resolve(name string) (string, error) {
	cleaned := filepath.Clean(name)
	if cleaned == "." || cleaned == ".." ||
		strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid report file name %q", name)
	}
	return filepath.Join(s.baseDir, cleaned), nil
}
