package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string         `toml:"environment"` // "development" or "production"
	Server      ServerConfig   `toml:"server"`
	Storage     StorageConfig  `toml:"storage"`
	Logging     LoggingConfig  `toml:"logging"`
	Pipeline    PipelineConfig `toml:"pipeline"`
	OCR         OCRConfig      `toml:"ocr"`
	LLM         LLMConfig      `toml:"llm"`
	Claude      ClaudeConfig   `toml:"claude"`
	Gemini      GeminiConfig   `toml:"gemini"`
}

type ServerConfig struct {
	Port          int    `toml:"port"`
	Host          string `toml:"host"`
	MaxUploadSize int64  `toml:"max_upload_size"` // bytes, per uploaded file
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// PipelineConfig controls pass retry behavior and job retention
type PipelineConfig struct {
	PassTimeout      string `toml:"pass_timeout"`      // Per-pass timeout as duration string (default: "90s")
	PassMaxRetries   int    `toml:"pass_max_retries"`  // Retries per analytical pass before falling back to defaults
	JobRetention     string `toml:"job_retention"`     // How long terminal jobs are kept (default: "24h")
	SweepSchedule    string `toml:"sweep_schedule"`    // Cron schedule for the retention sweeper
	BatchConcurrency int    `toml:"batch_concurrency"` // Worker cap for batch processing (1 = strictly sequential)
}

// OCRConfig contains Tesseract OCR configuration for image extraction
type OCRConfig struct {
	Languages []string `toml:"languages"` // Tesseract language codes (default: ["eng"])
	Timeout   string   `toml:"timeout"`   // OCR timeout as duration string (default: "60s")
}

// LLMProvider identifies which reasoning-service backend to use
type LLMProvider string

const (
	LLMProviderClaude LLMProvider = "claude"
	LLMProviderGemini LLMProvider = "gemini"
)

// LLMConfig selects the reasoning-service provider for analytical passes
type LLMConfig struct {
	Provider LLMProvider `toml:"provider"` // "claude" or "gemini"
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // User must provide API key (ANTHROPIC_API_KEY or config)
	Model       string  `toml:"model"`       // Model for analytical passes
	MaxTokens   int     `toml:"max_tokens"`  // Default max tokens
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between requests
	Temperature float32 `toml:"temperature"` // Completion temperature
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // User must provide API key (GEMINI_API_KEY or config)
	Model       string  `toml:"model"`       // Model for analytical passes
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string
	RateLimit   string  `toml:"rate_limit"`  // Minimum interval between requests (default "4s" for 15 RPM)
	Temperature float32 `toml:"temperature"` // Completion temperature
}

// NewDefaultConfig returns the configuration defaults applied before any
// file, environment, or flag overrides.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port:          8085,
			Host:          "localhost",
			MaxUploadSize: 25 * 1024 * 1024, // 25MB
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:           "./data/caredoc",
				ResetOnStartup: false,
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Pipeline: PipelineConfig{
			PassTimeout:      "90s",
			PassMaxRetries:   2,
			JobRetention:     "24h",
			SweepSchedule:    "*/10 * * * *", // Every 10 minutes
			BatchConcurrency: 1,              // Sequential by default to bound load on the LLM provider
		},
		OCR: OCRConfig{
			Languages: []string{"eng"},
			Timeout:   "60s",
		},
		LLM: LLMConfig{
			Provider: LLMProviderClaude,
		},
		Claude: ClaudeConfig{
			APIKey:      "",
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   8192,
			Timeout:     "2m",
			RateLimit:   "1s",
			Temperature: 0.2,
		},
		Gemini: GeminiConfig{
			APIKey:      "",
			Model:       "gemini-3-flash-preview",
			Timeout:     "2m",
			RateLimit:   "4s",
			Temperature: 0.2,
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier ones.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variables on top of file configuration
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("CAREDOC_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		}
	}
	if v := os.Getenv("CAREDOC_HOST"); v != "" {
		config.Server.Host = v
	}
	if v := os.Getenv("CAREDOC_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("CAREDOC_BADGER_PATH"); v != "" {
		config.Storage.Badger.Path = v
	}
	if v := os.Getenv("CAREDOC_LLM_PROVIDER"); v != "" {
		config.LLM.Provider = LLMProvider(v)
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" && config.Claude.APIKey == "" {
		config.Claude.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && config.Gemini.APIKey == "" {
		config.Gemini.APIKey = v
	}
}

// ApplyFlagOverrides applies command-line flag values (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// PassTimeoutDuration returns the parsed per-pass timeout, falling back to
// 90 seconds on a malformed value.
func (p *PipelineConfig) PassTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(p.PassTimeout)
	if err != nil || d <= 0 {
		return 90 * time.Second
	}
	return d
}

// JobRetentionDuration returns the parsed retention window, falling back to
// 24 hours on a malformed value.
func (p *PipelineConfig) JobRetentionDuration() time.Duration {
	d, err := time.ParseDuration(p.JobRetention)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// TimeoutDuration returns the parsed OCR timeout, falling back to 60
// seconds on a malformed value.
func (o *OCRConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(o.Timeout)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}

// IsProduction returns true when running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
