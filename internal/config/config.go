// Package config loads goaltrack settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Model store kinds.
const (
	ModelStoreRedis = "redis"
	ModelStoreFile  = "file"
)

// Config holds all configuration for the goals CLI and server.
type Config struct {
	DatabaseURL    string
	RedisURL       string
	ProjectRoot    string
	Env            string
	LogLevel       string
	ListenAddr     string
	ModelStore     string
	ModelDir       string
	VocabularyFile string
}

// Load reads a .env file from the working directory if there is one, then
// environment variables with defaults. Variables already set win over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	projectRoot, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	root := getEnv("GOALS_PROJECT_ROOT", projectRoot)

	cfg := &Config{
		DatabaseURL:    getEnv("GOALS_DATABASE_URL", "postgres://localhost:5432/goaltrack?sslmode=disable"),
		RedisURL:       getEnv("GOALS_REDIS_URL", "redis://localhost:6379/0"),
		ProjectRoot:    root,
		Env:            getEnv("GOALS_ENV", "development"),
		LogLevel:       getEnv("GOALS_LOG_LEVEL", ""),
		ListenAddr:     getEnv("GOALS_LISTEN_ADDR", ":8080"),
		ModelStore:     getEnv("GOALS_MODEL_STORE", ModelStoreRedis),
		ModelDir:       getEnv("GOALS_MODEL_DIR", filepath.Join(root, "models")),
		VocabularyFile: getEnv("GOALS_VOCABULARY_FILE", ""),
	}
	return cfg, nil
}

// Validate checks settings that have a fixed set of values.
func (c *Config) Validate() error {
	switch c.ModelStore {
	case ModelStoreRedis, ModelStoreFile:
	default:
		return fmt.Errorf("GOALS_MODEL_STORE must be %q or %q, got %q", ModelStoreRedis, ModelStoreFile, c.ModelStore)
	}
	if c.ModelStore == ModelStoreFile && c.ModelDir == "" {
		return errors.New("GOALS_MODEL_DIR is required for the file model store")
	}
	return nil
}

// MigrationsDir is where the schema files live.
func (c *Config) MigrationsDir() string {
	return filepath.Join(c.ProjectRoot, "migrations")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
