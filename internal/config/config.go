package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string `yaml:"port"`

	// Auth for the HTTP API; empty disables it.
	APIKey string `yaml:"api_key"`

	// Persisted load
	DataDir string `yaml:"data_dir"`

	// Reconciliation
	SimilarityThreshold float64 `yaml:"similarity_threshold"`

	// Search
	SearchLimit    int           `yaml:"search_limit"`
	SearchCacheTTL time.Duration `yaml:"search_cache_ttl"`
	ExcerptTokens  int           `yaml:"excerpt_tokens"`

	// Loading
	MaxFileBytes         int64         `yaml:"max_file_bytes"`
	WatchDebounce        time.Duration `yaml:"watch_debounce"`
	PDFFallbackPdftotext bool          `yaml:"pdf_fallback_pdftotext"`

	// Logging
	LogFile string `yaml:"log_file"`
	Debug   bool   `yaml:"debug"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:                 "8090",
		DataDir:              defaultDataDir(),
		SimilarityThreshold:  0.8,
		SearchLimit:          20,
		SearchCacheTTL:       5 * time.Minute,
		ExcerptTokens:        40,
		MaxFileBytes:         52428800, // 50MB
		WatchDebounce:        500 * time.Millisecond,
		PDFFallbackPdftotext: true,
	}
}

// Load layers configuration: defaults, then the YAML file at path (if any),
// then NOTEDEX_* environment variables. A .env file in the working directory
// is read first and never overrides variables already set.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Port = envOr("NOTEDEX_PORT", cfg.Port)
	cfg.APIKey = envOr("NOTEDEX_API_KEY", cfg.APIKey)
	cfg.DataDir = envOr("NOTEDEX_DATA_DIR", cfg.DataDir)
	cfg.SimilarityThreshold = envFloat("NOTEDEX_SIMILARITY_THRESHOLD", cfg.SimilarityThreshold)
	cfg.SearchLimit = envInt("NOTEDEX_SEARCH_LIMIT", cfg.SearchLimit)
	cfg.SearchCacheTTL = envDuration("NOTEDEX_SEARCH_CACHE_TTL", cfg.SearchCacheTTL)
	cfg.ExcerptTokens = envInt("NOTEDEX_EXCERPT_TOKENS", cfg.ExcerptTokens)
	cfg.MaxFileBytes = envInt64("NOTEDEX_MAX_FILE_BYTES", cfg.MaxFileBytes)
	cfg.WatchDebounce = envDuration("NOTEDEX_WATCH_DEBOUNCE", cfg.WatchDebounce)
	cfg.PDFFallbackPdftotext = envBool("NOTEDEX_PDF_FALLBACK_PDFTOTEXT", cfg.PDFFallbackPdftotext)
	cfg.LogFile = envOr("NOTEDEX_LOG_FILE", cfg.LogFile)
	cfg.Debug = envBool("NOTEDEX_DEBUG", cfg.Debug)

	def := Defaults()
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = def.SearchLimit
	}
	if cfg.SearchCacheTTL <= 0 {
		cfg.SearchCacheTTL = def.SearchCacheTTL
	}
	if cfg.ExcerptTokens <= 0 {
		cfg.ExcerptTokens = def.ExcerptTokens
	}
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = def.MaxFileBytes
	}
	if cfg.WatchDebounce <= 0 {
		cfg.WatchDebounce = def.WatchDebounce
	}
	if cfg.DataDir == "" {
		cfg.DataDir = def.DataDir
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity threshold must be in (0, 1], got %g", c.SimilarityThreshold)
	}
	if n, err := strconv.Atoi(c.Port); err != nil || n <= 0 || n > 65535 {
		return fmt.Errorf("invalid port %q", c.Port)
	}
	return nil
}

// StorePath is where the persisted load lives.
func (c Config) StorePath() string {
	return filepath.Join(c.DataDir, "index")
}

func defaultDataDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "notedex")
	}
	return ".notedex"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
