package storage

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

var fileNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// BuildDatasetKey returns the object key under which a dataset file is
// published, e.g. datasets/CFO_SAP_PYL/CFO_SAP_PYL.db.
func BuildDatasetKey(tableName, fileName string) (string, error) {
	if err := validatePathComponent(tableName, "table name"); err != nil {
		return "", err
	}
	fileName = path.Base(strings.TrimSpace(fileName))
	if err := validatePathComponent(fileName, "file name"); err != nil {
		return "", err
	}
	return path.Join("datasets", tableName, fileName), nil
}

// ContentTypeFor maps dataset file extensions to upload content types.
func ContentTypeFor(fileName string) string {
	switch strings.ToLower(path.Ext(fileName)) {
	case ".parquet":
		return "application/vnd.apache.parquet"
	case ".csv":
		return "text/csv"
	case ".db", ".sqlite", ".sqlite3":
		return "application/vnd.sqlite3"
	default:
		return "application/octet-stream"
	}
}

func validatePathComponent(value, field string) error {
	if !fileNamePattern.MatchString(value) {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	return nil
}
