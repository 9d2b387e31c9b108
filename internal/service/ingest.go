package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// IngestDirectory walks dir recursively and uploads every .txt file through
// the regular pipeline. It returns the number of files ingested. A missing
// directory is treated as empty so first runs do not fail.
func (s *documentService) IngestDirectory(ctx context.Context, dir string) (int, error) {
	if dir == "" {
		return 0, nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0, nil
	}

	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".txt") {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()

		if _, err := s.Upload(ctx, f, d.Name(), "text/plain"); err != nil {
			// Files with nothing to index are skipped, not fatal.
			if errors.Is(err, ErrNoContent) {
				return nil
			}
			return fmt.Errorf("ingest %s: %w", path, err)
		}
		count++
		return nil
	})
	if err != nil {
		return count, err
	}
	return count, nil
}
