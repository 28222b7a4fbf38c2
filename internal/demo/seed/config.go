package seed

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

type LookupFunc func(string) (string, bool)

const (
	FormatSQLite  = "sqlite"
	FormatParquet = "parquet"
)

type Config struct {
	OutputPath string
	Format     string
	TableName  string
	StartYear  int
	Years      int
	Seed       int64
	// Upload pushes the written file to the object store configured for
	// the API, under datasets/<table>/<file>.
	Upload bool
}

func DefaultConfig() Config {
	return Config{
		OutputPath: "CFO_SAP_PYL.db",
		Format:     FormatSQLite,
		TableName:  "CFO_SAP_PYL",
		StartYear:  2023,
		Years:      2,
		Seed:       42,
	}
}

func LoadConfigFromEnv(lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	cfg := DefaultConfig()
	formatSet := false
	if raw, ok := lookup("SMARTFINANCE_SEED_FORMAT"); ok {
		cfg.Format = strings.ToLower(strings.TrimSpace(raw))
		formatSet = true
	}
	if err := applyString(lookup, "SMARTFINANCE_SEED_OUTPUT", &cfg.OutputPath); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SMARTFINANCE_DATASET_TABLE", &cfg.TableName); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "SMARTFINANCE_SEED_START_YEAR", &cfg.StartYear); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "SMARTFINANCE_SEED_YEARS", &cfg.Years); err != nil {
		return Config{}, err
	}
	if err := applyInt64(lookup, "SMARTFINANCE_SEED_RANDOM_SEED", &cfg.Seed); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "SMARTFINANCE_SEED_UPLOAD", &cfg.Upload); err != nil {
		return Config{}, err
	}

	if !formatSet {
		cfg.Format = FormatForPath(cfg.OutputPath)
	}
	if cfg.Format != FormatSQLite && cfg.Format != FormatParquet {
		return Config{}, fmt.Errorf("SMARTFINANCE_SEED_FORMAT must be %q or %q", FormatSQLite, FormatParquet)
	}
	if strings.TrimSpace(cfg.OutputPath) == "" {
		return Config{}, fmt.Errorf("SMARTFINANCE_SEED_OUTPUT is required")
	}
	if strings.TrimSpace(cfg.TableName) == "" {
		return Config{}, fmt.Errorf("SMARTFINANCE_DATASET_TABLE is required")
	}
	if cfg.StartYear < 1900 || cfg.StartYear > 9999 {
		return Config{}, fmt.Errorf("SMARTFINANCE_SEED_START_YEAR must be a four digit year")
	}
	if cfg.Years <= 0 {
		return Config{}, fmt.Errorf("SMARTFINANCE_SEED_YEARS must be > 0")
	}
	return cfg, nil
}

// FormatForPath infers the output format from the file extension.
func FormatForPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		return FormatParquet
	}
	return FormatSQLite
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}

func applyInt64(lookup LookupFunc, key string, dst *int64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}
