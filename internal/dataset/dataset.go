package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"
)

// ErrUnavailable reports that the dataset file is not present on disk.
var ErrUnavailable = errors.New("dataset file not found")

// Accessor runs a single read-only query against the local dataset file.
// Implementations open and close their connection inside each Query call.
type Accessor interface {
	Available() error
	Query(ctx context.Context, sqlText string) (Result, error)
}

type Result struct {
	Columns  []string
	Rows     [][]any
	Duration time.Duration
}

func (r Result) Empty() bool {
	return len(r.Rows) == 0
}

// CheckFile returns ErrUnavailable when path does not name a regular file.
func CheckFile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return ErrUnavailable
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrUnavailable, path)
		}
		return fmt.Errorf("stat dataset %q: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrUnavailable, path)
	}
	return nil
}

// ReadAll drains rows into memory. Byte slices are returned as strings.
func ReadAll(rows *sql.Rows) ([]string, [][]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("query columns: %w", err)
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, nil, fmt.Errorf("scan row: %w", err)
		}
		resultRows = append(resultRows, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate rows: %w", err)
	}
	return columns, resultRows, nil
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}
