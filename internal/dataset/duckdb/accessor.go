package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/smartfinance/smartfinance/internal/dataset"
	"github.com/smartfinance/smartfinance/internal/observability"
)

// Accessor queries a dataset through an in-process DuckDB database.
// Native .duckdb files are opened read-only; parquet and csv files are
// exposed as a view named after the configured table.
type Accessor struct {
	path      string
	tableName string
}

func New(path, tableName string) *Accessor {
	return &Accessor{path: strings.TrimSpace(path), tableName: strings.TrimSpace(tableName)}
}

func (a *Accessor) Available() error {
	return dataset.CheckFile(a.path)
}

func (a *Accessor) Query(ctx context.Context, sqlText string) (dataset.Result, error) {
	if strings.TrimSpace(sqlText) == "" {
		return dataset.Result{}, fmt.Errorf("sql is required")
	}

	start := time.Now()
	dsn, viewSQL, err := a.plan()
	if err != nil {
		return dataset.Result{}, err
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return dataset.Result{}, fmt.Errorf("open duckdb: %w", err)
	}
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(1)

	if viewSQL != "" {
		if _, err := db.ExecContext(ctx, viewSQL); err != nil {
			return dataset.Result{}, fmt.Errorf("create view for table %q: %w", a.tableName, err)
		}
	}

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

func (a *Accessor) plan() (string, string, error) {
	switch strings.ToLower(filepath.Ext(a.path)) {
	case ".duckdb", ".ddb":
		return a.path + "?access_mode=read_only", "", nil
	case ".parquet":
		return "", a.viewSQL("read_parquet"), nil
	case ".csv":
		return "", a.viewSQL("read_csv_auto"), nil
	default:
		return "", "", fmt.Errorf("unsupported dataset file for duckdb: %q", a.path)
	}
}

func (a *Accessor) viewSQL(reader string) string {
	return fmt.Sprintf(`CREATE OR REPLACE VIEW %s AS SELECT * FROM %s(%s)`, quoteIdent(a.tableName), reader, quoteString(a.path))
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func quoteString(value string) string {
	return `'` + strings.ReplaceAll(value, `'`, `''`) + `'`
}
