package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/smartfinance/smartfinance/internal/dataset"
	"github.com/smartfinance/smartfinance/internal/observability"
)

const driverName = "sqlite3"

// Opener opens a database handle. It is replaced in tests.
type Opener func(driverName, dsn string) (*sql.DB, error)

// Accessor queries a SQLite dataset file opened in read-only mode.
type Accessor struct {
	path string
	open Opener
}

func New(path string) *Accessor {
	return NewWithOpener(path, sql.Open)
}

func NewWithOpener(path string, open Opener) *Accessor {
	if open == nil {
		open = sql.Open
	}
	return &Accessor{path: strings.TrimSpace(path), open: open}
}

func (a *Accessor) Path() string {
	return a.path
}

func (a *Accessor) Available() error {
	return dataset.CheckFile(a.path)
}

func (a *Accessor) Query(ctx context.Context, sqlText string) (dataset.Result, error) {
	if strings.TrimSpace(sqlText) == "" {
		return dataset.Result{}, fmt.Errorf("sql is required")
	}

	start := time.Now()
	db, err := a.open(driverName, DSN(a.path))
	if err != nil {
		return dataset.Result{}, fmt.Errorf("open sqlite dataset: %w", err)
	}
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(1)

	rows, err := db.QueryContext(ctx, sqlText)
	if err != nil {
		return dataset.Result{}, err
	}
	defer func() { _ = rows.Close() }()

	columns, resultRows, err := dataset.ReadAll(rows)
	if err != nil {
		return dataset.Result{}, err
	}

	elapsed := time.Since(start)
	observability.ObserveDatasetQuery(len(resultRows), elapsed)
	return dataset.Result{Columns: columns, Rows: resultRows, Duration: elapsed}, nil
}

// uriPathEscaper escapes the characters SQLite treats as URI delimiters.
var uriPathEscaper = strings.NewReplacer("%", "%25", "?", "%3F", "#", "%23")

// DSN builds a read-only URI for path.
func DSN(path string) string {
	values := url.Values{}
	values.Set("mode", "ro")
	values.Set("_query_only", "true")
	return "file:" + uriPathEscaper.Replace(path) + "?" + values.Encode()
}
