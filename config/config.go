package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Embedding   EmbeddingConfig
	Generator   GeneratorConfig
	Cache       CacheConfig
	Memory      MemoryConfig
	Retrieval   RetrievalConfig
	Notify      NotifyConfig
	Environment string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds the pgvector knowledge store configuration.
// When ConnectionString (from DATABASE_URL) is set it takes precedence
// over the individual fields. An empty configuration disables the
// vector store entirely; retrieval then serves from the local corpus.
type DatabaseConfig struct {
	ConnectionString string
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	ChunkTable       string
}

// EmbeddingConfig holds the embedding encoder configuration.
type EmbeddingConfig struct {
	BaseURL    string
	Model      string
	Dimensions int
	Timeout    time.Duration
}

// GeneratorConfig holds the language-model client configuration.
type GeneratorConfig struct {
	APIKey          string
	Model           string
	BaseURL         string
	Timeout         time.Duration
	MaxAttempts     int
	BaseDelay       time.Duration
	Temperature     float64
	MaxOutputTokens int
}

// CacheConfig holds semantic cache configuration.
type CacheConfig struct {
	Enabled             bool
	SimilarityThreshold float64
	MaxSize             int
	TTL                 time.Duration
	SnapshotPath        string // empty disables persistence
}

// MemoryConfig bounds conversation memory and the session table.
type MemoryConfig struct {
	MaxHistory  int
	MaxSessions int
}

// RetrievalConfig holds retriever configuration.
type RetrievalConfig struct {
	TopK            int
	MaxContextChars int
	CorpusPath      string
}

// NotifyConfig bounds the background event dispatcher.
type NotifyConfig struct {
	QueueSize int
	Workers   int
}

// New creates a Config by loading environment variables. A .env file is
// honored when present.
func New() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8000),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			ConnectionString: getEnv("DATABASE_URL", ""),
			Host:             getEnv("DB_HOST", ""),
			Port:             getEnvAsInt("DB_PORT", 5432),
			User:             getEnv("DB_USER", ""),
			Password:         getEnv("DB_PASSWORD", ""),
			Database:         getEnv("DB_NAME", "pregcare_db"),
			SSLMode:          getEnv("DB_SSLMODE", "disable"),
			ChunkTable:       getEnv("DB_CHUNK_TABLE", "pregcare_chunks"),
		},
		Embedding: EmbeddingConfig{
			BaseURL:    getEnv("EMBEDDING_BASE_URL", "http://localhost:8080"),
			Model:      getEnv("EMBEDDING_MODEL", "all-MiniLM-L6-v2"),
			Dimensions: getEnvAsInt("EMBEDDING_DIMENSIONS", 384),
			Timeout:    getEnvAsDuration("EMBEDDING_TIMEOUT", 10*time.Second),
		},
		Generator: GeneratorConfig{
			APIKey:          getEnv("GEMINI_API_KEY", getEnv("GOOGLE_API_KEY", "")),
			Model:           getEnv("MODEL_NAME", "gemini-2.0-flash"),
			BaseURL:         getEnv("GEMINI_BASE_URL", ""),
			Timeout:         getEnvAsDuration("GENERATOR_TIMEOUT", 30*time.Second),
			MaxAttempts:     getEnvAsInt("GENERATOR_MAX_ATTEMPTS", 3),
			BaseDelay:       getEnvAsDuration("GENERATOR_BASE_DELAY", 2*time.Second),
			Temperature:     getEnvAsFloat("GENERATOR_TEMPERATURE", 0.3),
			MaxOutputTokens: getEnvAsInt("GENERATOR_MAX_OUTPUT_TOKENS", 800),
		},
		Cache: CacheConfig{
			Enabled:             getEnvAsBool("CACHE_ENABLED", true),
			SimilarityThreshold: getEnvAsFloat("CACHE_SIMILARITY_THRESHOLD", 0.85),
			MaxSize:             getEnvAsInt("CACHE_MAX_SIZE", 100),
			TTL:                 getEnvAsDuration("CACHE_TTL", 24*time.Hour),
			SnapshotPath:        getEnv("CACHE_SNAPSHOT_PATH", "data/semantic_cache.json"),
		},
		Memory: MemoryConfig{
			MaxHistory:  getEnvAsInt("MEMORY_MAX_HISTORY", 10),
			MaxSessions: getEnvAsInt("MEMORY_MAX_SESSIONS", 1000),
		},
		Retrieval: RetrievalConfig{
			TopK:            getEnvAsInt("RETRIEVAL_TOP_K", 5),
			MaxContextChars: getEnvAsInt("RETRIEVAL_MAX_CONTEXT_CHARS", 18000),
			CorpusPath:      getEnv("RETRIEVAL_CORPUS_PATH", "data/embeddings/embeddings.jsonl"),
		},
		Notify: NotifyConfig{
			QueueSize: getEnvAsInt("NOTIFY_QUEUE_SIZE", 64),
			Workers:   getEnvAsInt("NOTIFY_WORKERS", 2),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.IsProduction() && c.Generator.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required in production")
	}
	if c.Cache.SimilarityThreshold < -1 || c.Cache.SimilarityThreshold > 1 {
		return fmt.Errorf("cache similarity threshold must be in [-1, 1], got %f", c.Cache.SimilarityThreshold)
	}
	if c.Cache.MaxSize <= 0 {
		return fmt.Errorf("cache max size must be positive")
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding dimensions must be positive")
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval top-k must be positive")
	}
	if c.Memory.MaxHistory <= 0 || c.Memory.MaxSessions <= 0 {
		return fmt.Errorf("memory bounds must be positive")
	}
	return nil
}

// IsProduction returns true when running in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true when running in development.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// Configured reports whether a vector store was configured at all.
func (c *DatabaseConfig) Configured() bool {
	return c.ConnectionString != "" || (c.Host != "" && c.User != "")
}

// DSN returns the PostgreSQL connection string. ConnectionString wins
// when set; otherwise the string is built from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.User), url.QueryEscape(c.Password),
		c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// LogString returns a safe representation for logging (no password).
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		if u, err := url.Parse(c.ConnectionString); err == nil {
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			return fmt.Sprintf("host=%s port=%s database=%s", u.Hostname(), port, strings.TrimPrefix(u.Path, "/"))
		}
		return "database_url=<unparsed>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
