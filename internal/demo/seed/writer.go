package seed

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/parquet-go/parquet-go"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

var columns = []string{
	"IMPORTE", "ANIO", "MES_ID", "DICCIONARIO_Q", "PYL0", "DICCIONARIO_COUNTRY",
	"MONEDA", "ESCENARIO", "DICCIONARIO_SUBBU", "DICCIONARIO_MACRO_BU", "DICCIONARIO_LOCAL_EBIT",
}

const createTableSQL = `CREATE TABLE %q (
	IMPORTE REAL NOT NULL,
	ANIO INTEGER NOT NULL,
	MES_ID INTEGER NOT NULL,
	DICCIONARIO_Q TEXT NOT NULL,
	PYL0 TEXT NOT NULL,
	DICCIONARIO_COUNTRY TEXT NOT NULL,
	MONEDA TEXT NOT NULL,
	ESCENARIO TEXT NOT NULL,
	DICCIONARIO_SUBBU TEXT NOT NULL,
	DICCIONARIO_MACRO_BU TEXT NOT NULL,
	DICCIONARIO_LOCAL_EBIT REAL NOT NULL
)`

// WriteSQLite writes rows into a fresh SQLite database at path. An existing
// file is replaced only after the new one is complete.
func WriteSQLite(ctx context.Context, path, tableName string, rows []Row) error {
	if !identifierPattern.MatchString(tableName) {
		return fmt.Errorf("invalid table name %q", tableName)
	}
	return writeAtomically(path, func(tmpPath string) error {
		db, err := sql.Open("sqlite3", tmpPath)
		if err != nil {
			return fmt.Errorf("open sqlite: %w", err)
		}
		defer func() { _ = db.Close() }()
		db.SetMaxOpenConns(1)

		if _, err := db.ExecContext(ctx, fmt.Sprintf(createTableSQL, tableName)); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
		for _, index := range []string{"MES_ID", "DICCIONARIO_COUNTRY", "PYL0"} {
			stmt := fmt.Sprintf(`CREATE INDEX %q ON %q (%s)`, "idx_"+strings.ToLower(tableName)+"_"+strings.ToLower(index), tableName, index)
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("create index on %s: %w", index, err)
			}
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin insert: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
		insert, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %q (%s) VALUES (%s)`, tableName, strings.Join(columns, ", "), placeholders))
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer func() { _ = insert.Close() }()

		for _, row := range rows {
			if _, err := insert.ExecContext(ctx,
				row.Importe, row.Anio, row.MesID, row.Quarter, row.Concept, row.Country,
				row.Currency, row.Scenario, row.SubBU, row.MacroBU, row.LocalEBIT,
			); err != nil {
				return fmt.Errorf("insert row: %w", err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit insert: %w", err)
		}
		return nil
	})
}

// WriteParquet writes rows as a single parquet file at path.
func WriteParquet(path string, rows []Row) error {
	return writeAtomically(path, func(tmpPath string) error {
		file, err := os.Create(tmpPath)
		if err != nil {
			return fmt.Errorf("create parquet file: %w", err)
		}
		defer func() { _ = file.Close() }()

		writer := parquet.NewGenericWriter[Row](file)
		if _, err := writer.Write(rows); err != nil {
			return fmt.Errorf("write parquet rows: %w", err)
		}
		if err := writer.Close(); err != nil {
			return fmt.Errorf("close parquet writer: %w", err)
		}
		return file.Close()
	})
}

func writeAtomically(path string, write func(tmpPath string) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmpPath := filepath.Join(dir, "."+filepath.Base(path)+".tmp")
	_ = os.Remove(tmpPath)
	defer func() { _ = os.Remove(tmpPath) }()

	if err := write(tmpPath); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("move output into place: %w", err)
	}
	return nil
}
