package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	// Chunk size bounds. Below ~512 bytes the read count dominates, above
	// 16 MiB the buffer dwarfs any realistic line table.
	MinChunkSize = 512
	MaxChunkSize = 16 * 1024 * 1024

	DefaultChunkSize = 32 * 1024
)

// Config holds all configuration for the streamloc CLI
type Config struct {
	// Indexing settings
	ChunkSize int `yaml:"chunk_size"` // Bytes read per index extension step

	// Checkpoint store
	CheckpointEnabled bool   `yaml:"checkpoint_enabled"` // Persist line tables across runs
	CheckpointPath    string `yaml:"checkpoint_path"`    // BoltDB file path

	// Observability
	LogLevel       string `yaml:"log_level"`
	LogFile        string `yaml:"log_file"` // Optional file sink in addition to stdout
	TracingEnabled bool   `yaml:"tracing_enabled"`
	TraceEndpoint  string `yaml:"trace_endpoint"` // OTLP endpoint
	TraceProtocol  string `yaml:"trace_protocol"` // "grpc" or "http"
}

// Load loads configuration from an optional YAML file (STREAMLOC_CONFIG),
// with environment variables taking precedence over file values
func Load() (*Config, error) {
	cfg := &Config{
		ChunkSize:      DefaultChunkSize,
		CheckpointPath: "streamloc.db",
		LogLevel:       "info",
		TraceProtocol:  "grpc",
	}

	if path := os.Getenv("STREAMLOC_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.ChunkSize = getEnvInt("STREAMLOC_CHUNK_SIZE", cfg.ChunkSize)
	cfg.CheckpointEnabled = getEnvBool("STREAMLOC_CHECKPOINT", cfg.CheckpointEnabled)
	cfg.CheckpointPath = getEnv("STREAMLOC_CHECKPOINT_PATH", cfg.CheckpointPath)
	cfg.LogLevel = getEnv("STREAMLOC_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = getEnv("STREAMLOC_LOG_FILE", cfg.LogFile)
	cfg.TracingEnabled = getEnvBool("STREAMLOC_TRACING", cfg.TracingEnabled)
	cfg.TraceEndpoint = getEnv("STREAMLOC_TRACE_ENDPOINT", cfg.TraceEndpoint)
	cfg.TraceProtocol = getEnv("STREAMLOC_TRACE_PROTOCOL", cfg.TraceProtocol)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.ChunkSize < MinChunkSize || c.ChunkSize > MaxChunkSize {
		return fmt.Errorf("STREAMLOC_CHUNK_SIZE must be between %d and %d", MinChunkSize, MaxChunkSize)
	}
	if c.CheckpointEnabled && c.CheckpointPath == "" {
		return fmt.Errorf("STREAMLOC_CHECKPOINT_PATH is required when checkpoints are enabled")
	}
	if c.TraceProtocol != "grpc" && c.TraceProtocol != "http" {
		return fmt.Errorf("STREAMLOC_TRACE_PROTOCOL must be 'grpc' or 'http'")
	}

	return nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
