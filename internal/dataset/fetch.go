package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/smartfinance/smartfinance/internal/storage"
)

// EnsureLocal downloads the dataset object at key into path when the local
// file is missing. It reports whether a download happened.
func EnsureLocal(ctx context.Context, store storage.ObjectStore, key, path string) (bool, error) {
	err := CheckFile(path)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrUnavailable) {
		return false, err
	}
	if store == nil || key == "" {
		return false, err
	}

	reader, err := store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return false, fmt.Errorf("%w: object %q not found", ErrUnavailable, key)
		}
		return false, fmt.Errorf("fetch dataset %q: %w", key, err)
	}
	defer func() { _ = reader.Close() }()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("create dataset dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".dataset-*")
	if err != nil {
		return false, fmt.Errorf("create dataset temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := io.Copy(tmp, reader); err != nil {
		_ = tmp.Close()
		return false, fmt.Errorf("write dataset %q: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("close dataset temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return false, fmt.Errorf("move dataset into place: %w", err)
	}
	return true, nil
}
