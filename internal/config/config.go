package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

const (
	EngineSQLite = "sqlite"
	EngineDuckDB = "duckdb"

	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	HTTP          HTTPConfig
	Sessions      SessionsConfig
	Dataset       DatasetConfig
	ObjectStore   ObjectStoreConfig
	Generation    GenerationConfig
	Prompt        PromptConfig
	Journal       JournalConfig
	CORS          CORSConfig
	Observability ObservabilityConfig
	Auth          AuthConfig
}

type ServiceConfig struct {
	Name string
}

type HTTPConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatasetConfig struct {
	Path      string
	Engine    string
	TableName string
	// ObjectKey, when set, is fetched from the object store if Path is missing.
	ObjectKey string
}

type ObjectStoreConfig struct {
	Enabled         bool
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	Prefix          string
}

type GenerationConfig struct {
	Provider    string
	BaseURL     string
	APIKey      string
	Temperature float64
	Timeout     time.Duration
}

type PromptConfig struct {
	Dir string
}

type JournalConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

// SessionsConfig bounds the in-memory HTTP session registry.
type SessionsConfig struct {
	IdleTTL     time.Duration
	MaxSessions int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

type AuthConfig struct {
	Required   bool
	StaticKeys string
}

func LoadFromEnv(serviceName string) (Config, error) {
	return Load(serviceName, os.LookupEnv)
}

// LoadDotEnv loads secrets files into the process environment. Missing files
// are skipped; variables already set in the environment win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("SMARTFINANCE_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid SMARTFINANCE_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	if err := applyString(lookup, "SMARTFINANCE_SERVICE_NAME", &cfg.Service.Name); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SMARTFINANCE_HTTP_ADDR", &cfg.HTTP.Address); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "SMARTFINANCE_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "SMARTFINANCE_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "SMARTFINANCE_HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "SMARTFINANCE_SESSION_IDLE_TTL", &cfg.Sessions.IdleTTL); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "SMARTFINANCE_SESSION_MAX", &cfg.Sessions.MaxSessions); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SMARTFINANCE_DATASET_PATH", &cfg.Dataset.Path); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SMARTFINANCE_DATASET_ENGINE", &cfg.Dataset.Engine); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SMARTFINANCE_DATASET_TABLE", &cfg.Dataset.TableName); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SMARTFINANCE_DATASET_OBJECT_KEY", &cfg.Dataset.ObjectKey); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "SMARTFINANCE_OBJECTSTORE_ENABLED", &cfg.ObjectStore.Enabled); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SMARTFINANCE_OBJECTSTORE_ENDPOINT", &cfg.ObjectStore.Endpoint); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SMARTFINANCE_OBJECTSTORE_REGION", &cfg.ObjectStore.Region); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SMARTFINANCE_OBJECTSTORE_BUCKET", &cfg.ObjectStore.Bucket); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SMARTFINANCE_OBJECTSTORE_ACCESS_KEY", &cfg.ObjectStore.AccessKeyID); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SMARTFINANCE_OBJECTSTORE_SECRET_KEY", &cfg.ObjectStore.SecretAccessKey); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "SMARTFINANCE_OBJECTSTORE_USE_SSL", &cfg.ObjectStore.UseSSL); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SMARTFINANCE_OBJECTSTORE_PREFIX", &cfg.ObjectStore.Prefix); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SMARTFINANCE_GEN_PROVIDER", &cfg.Generation.Provider); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SMARTFINANCE_GEN_BASE_URL", &cfg.Generation.BaseURL); err != nil {
		return Config{}, err
	}
	// GOOGLE_API_KEY is the name the secrets file has always used.
	if err := applyString(lookup, "GOOGLE_API_KEY", &cfg.Generation.APIKey); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SMARTFINANCE_GEN_API_KEY", &cfg.Generation.APIKey); err != nil {
		return Config{}, err
	}
	if err := applyFloat(lookup, "SMARTFINANCE_GEN_TEMPERATURE", &cfg.Generation.Temperature); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "SMARTFINANCE_GEN_TIMEOUT", &cfg.Generation.Timeout); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SMARTFINANCE_PROMPT_DIR", &cfg.Prompt.Dir); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SMARTFINANCE_JOURNAL_DSN", &cfg.Journal.DSN); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "SMARTFINANCE_JOURNAL_MAX_OPEN_CONNS", &cfg.Journal.MaxOpenConns); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "SMARTFINANCE_JOURNAL_MAX_IDLE_CONNS", &cfg.Journal.MaxIdleConns); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "SMARTFINANCE_JOURNAL_CONN_MAX_IDLE_TIME", &cfg.Journal.ConnMaxIdleTime); err != nil {
		return Config{}, err
	}
	if err := applyDuration(lookup, "SMARTFINANCE_JOURNAL_CONN_MAX_LIFETIME", &cfg.Journal.ConnMaxLifetime); err != nil {
		return Config{}, err
	}
	if err := applyList(lookup, "SMARTFINANCE_CORS_ALLOWED_ORIGINS", &cfg.CORS.AllowedOrigins); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "SMARTFINANCE_LOG_JSON", &cfg.Observability.LogJSON); err != nil {
		return Config{}, err
	}
	if err := applyLogLevel(lookup, "SMARTFINANCE_LOG_LEVEL", &cfg.Observability.LogLevel); err != nil {
		return Config{}, err
	}
	if err := applyBool(lookup, "SMARTFINANCE_AUTH_REQUIRED", &cfg.Auth.Required); err != nil {
		return Config{}, err
	}
	if err := applyString(lookup, "SMARTFINANCE_AUTH_STATIC_KEYS", &cfg.Auth.StaticKeys); err != nil {
		return Config{}, err
	}

	cfg.Dataset.Engine = strings.ToLower(cfg.Dataset.Engine)
	cfg.Generation.Provider = strings.ToLower(cfg.Generation.Provider)

	if cfg.Service.Name == "" {
		return Config{}, fmt.Errorf("service name is required")
	}
	if cfg.HTTP.Address == "" {
		return Config{}, fmt.Errorf("http address is required")
	}
	if cfg.Dataset.Path == "" {
		return Config{}, fmt.Errorf("dataset path is required")
	}
	if cfg.Sessions.IdleTTL < 0 || cfg.Sessions.MaxSessions < 0 {
		return Config{}, fmt.Errorf("session limits must not be negative")
	}
	switch cfg.Dataset.Engine {
	case EngineSQLite, EngineDuckDB:
	default:
		return Config{}, fmt.Errorf("invalid SMARTFINANCE_DATASET_ENGINE: %q", cfg.Dataset.Engine)
	}
	switch cfg.Generation.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return Config{}, fmt.Errorf("invalid SMARTFINANCE_GEN_PROVIDER: %q", cfg.Generation.Provider)
	}
	if cfg.Generation.BaseURL == "" {
		cfg.Generation.BaseURL = defaultBaseURL(cfg.Generation.Provider)
	}
	if cfg.HTTP.WriteTimeout <= 0 {
		cfg.HTTP.WriteTimeout = DeriveWriteTimeout(cfg.Generation.Timeout)
	}
	return cfg, nil
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "smartfinance-api"},
		HTTP: HTTPConfig{
			Address:     ":8080",
			ReadTimeout: 5 * time.Second,
			IdleTimeout: 60 * time.Second,
		},
		Sessions: SessionsConfig{
			IdleTTL:     30 * time.Minute,
			MaxSessions: 1000,
		},
		Dataset: DatasetConfig{
			Path:      "CFO_SAP_PYL.db",
			Engine:    EngineSQLite,
			TableName: "CFO_SAP_PYL",
		},
		ObjectStore: ObjectStoreConfig{
			Enabled:         false,
			Endpoint:        "localhost:9000",
			Region:          "us-east-1",
			Bucket:          "smartfinance",
			AccessKeyID:     "minio",
			SecretAccessKey: "miniostorage",
			UseSSL:          false,
		},
		Generation: GenerationConfig{
			Provider:    ProviderGemini,
			Temperature: 0,
			Timeout:     60 * time.Second,
		},
		Journal: JournalConfig{
			MaxOpenConns:    5,
			MaxIdleConns:    5,
			ConnMaxIdleTime: 5 * time.Minute,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  true,
		},
	}

	switch profile {
	case ProfileTest:
		cfg.HTTP.Address = ":18080"
		cfg.Observability.LogLevel = slog.LevelWarn
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.Auth.Required = true
		cfg.ObjectStore.UseSSL = true
	}

	return cfg
}

// writeTimeoutMargin covers the dataset query and response encoding around
// the two generation calls of one submission.
const writeTimeoutMargin = 15 * time.Second

// DeriveWriteTimeout sizes the HTTP write deadline so one submission, which
// makes a translation call and a summary call, fits inside it.
func DeriveWriteTimeout(generationTimeout time.Duration) time.Duration {
	return 2*generationTimeout + writeTimeoutMargin
}

func defaultBaseURL(provider string) string {
	if provider == ProviderOpenAI {
		return "https://api.openai.com"
	}
	return "https://generativelanguage.googleapis.com"
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyList(lookup LookupFunc, key string, dst *[]string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	values := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			values = append(values, part)
		}
	}
	*dst = values
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyFloat(lookup LookupFunc, key string, dst *float64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(raw))
	switch level {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}
