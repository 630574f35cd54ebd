package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 384, cfg.Embedding.Dimensions)
	assert.Equal(t, "gemini-2.0-flash", cfg.Generator.Model)
	assert.Equal(t, 3, cfg.Generator.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Generator.BaseDelay)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 0.85, cfg.Cache.SimilarityThreshold)
	assert.Equal(t, 100, cfg.Cache.MaxSize)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 10, cfg.Memory.MaxHistory)
	assert.Equal(t, 1000, cfg.Memory.MaxSessions)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, 18000, cfg.Retrieval.MaxContextChars)
	assert.False(t, cfg.Database.Configured())
}

func TestNew_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CACHE_SIMILARITY_THRESHOLD", "0.9")
	t.Setenv("CACHE_TTL", "1h")
	t.Setenv("RETRIEVAL_TOP_K", "3")
	t.Setenv("GOOGLE_API_KEY", "kunci-cadangan")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 0.9, cfg.Cache.SimilarityThreshold)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.Equal(t, "kunci-cadangan", cfg.Generator.APIKey, "GOOGLE_API_KEY is the fallback key variable")
}

func TestNew_GeminiKeyWinsOverGoogleKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "kunci-utama")
	t.Setenv("GOOGLE_API_KEY", "kunci-cadangan")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "kunci-utama", cfg.Generator.APIKey)
}

func TestNew_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")
	t.Setenv("CACHE_TTL", "not-a-duration")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Environment: "development",
			Server:      ServerConfig{Port: 8000},
			Embedding:   EmbeddingConfig{Dimensions: 384},
			Cache:       CacheConfig{SimilarityThreshold: 0.85, MaxSize: 100},
			Memory:      MemoryConfig{MaxHistory: 10, MaxSessions: 1000},
			Retrieval:   RetrievalConfig{TopK: 5},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid config", func(_ *Config) {}, ""},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"production without api key", func(c *Config) { c.Environment = "production" }, "GEMINI_API_KEY"},
		{"threshold above one", func(c *Config) { c.Cache.SimilarityThreshold = 1.5 }, "similarity threshold"},
		{"zero cache size", func(c *Config) { c.Cache.MaxSize = 0 }, "cache max size"},
		{"zero dimensions", func(c *Config) { c.Embedding.Dimensions = 0 }, "embedding dimensions"},
		{"zero top-k", func(c *Config) { c.Retrieval.TopK = 0 }, "top-k"},
		{"zero memory bounds", func(c *Config) { c.Memory.MaxSessions = 0 }, "memory bounds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("connection string wins", func(t *testing.T) {
		c := DatabaseConfig{
			ConnectionString: "postgresql://u:p@db:5432/pregcare_db",
			Host:             "ignored",
		}
		assert.Equal(t, "postgresql://u:p@db:5432/pregcare_db", c.DSN())
	})

	t.Run("built from fields", func(t *testing.T) {
		c := DatabaseConfig{
			Host: "db", Port: 5432, User: "app", Password: "ra/hasia",
			Database: "pregcare_db", SSLMode: "disable",
		}
		assert.Equal(t, "postgresql://app:ra%2Fhasia@db:5432/pregcare_db?sslmode=disable", c.DSN())
	})
}

func TestDatabaseConfig_LogStringRedactsPassword(t *testing.T) {
	c := DatabaseConfig{
		ConnectionString: "postgresql://app:rahasia@db:6432/pregcare_db",
	}
	s := c.LogString()
	assert.NotContains(t, s, "rahasia")
	assert.Contains(t, s, "host=db")
	assert.Contains(t, s, "port=6432")
	assert.Contains(t, s, "database=pregcare_db")
}
