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
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	Queue       QueueConfig      `toml:"queue"`
	Uploads     UploadsConfig    `toml:"uploads"`
	Extraction  ExtractionConfig `toml:"extraction"`
	Claude      ClaudeConfig     `toml:"claude"`
	Gemini      GeminiConfig     `toml:"gemini"`
	LLM         LLMConfig        `toml:"llm"`
	Insight     InsightConfig    `toml:"insight"`
	Logging     LoggingConfig    `toml:"logging"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger     BadgerConfig     `toml:"badger"`
	Filesystem FilesystemConfig `toml:"filesystem"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// FilesystemConfig holds the root directory for uploaded asset bytes
type FilesystemConfig struct {
	AssetsDir string `toml:"assets_dir"` // Root directory for content-addressed asset files
}

type QueueConfig struct {
	Concurrency   int    `toml:"concurrency"`    // Number of concurrent processing workers
	SweepSchedule string `toml:"sweep_schedule"` // Cron schedule for re-enqueuing stuck assets ("" disables)
}

// UploadsConfig holds upload admission limits enforced before storage is touched
type UploadsConfig struct {
	MaxFileSize       int64    `toml:"max_file_size"`       // Per-upload size ceiling in bytes
	MaxFilesPerMatter int      `toml:"max_files_per_matter"`
	AllowedExtensions []string `toml:"allowed_extensions"`
}

// ExtractionConfig tunes the extraction dispatcher
type ExtractionConfig struct {
	MinPDFTextLength int     `toml:"min_pdf_text_length"` // Below this, a PDF is treated as scanned and sent to OCR
	ChunkSize        int     `toml:"chunk_size"`
	ChunkOverlap     int     `toml:"chunk_overlap"`
	OCRTimeout       string  `toml:"ocr_timeout"` // e.g. "120s"
	ConfidenceClear  float64 `toml:"confidence_clear"`
	ConfidencePartly float64 `toml:"confidence_partly"`
	ConfidenceOther  float64 `toml:"confidence_other"`
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	VisionModel string  `toml:"vision_model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float32 `toml:"temperature"`
	Timeout     string  `toml:"timeout"`
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float32 `toml:"temperature"`
	Timeout     string  `toml:"timeout"`
}

// LLMConfig selects the active provider and shared limits
type LLMConfig struct {
	Provider          string  `toml:"provider"`            // "claude" or "gemini"
	RequestsPerMinute float64 `toml:"requests_per_minute"` // Rate limit across all LLM calls (0 disables)
}

// InsightConfig tunes the insight orchestrator
type InsightConfig struct {
	MaxDocuments    int    `toml:"max_documents"`     // Recent-N cap applied when no explicit scope is given
	ScopeThreshold  int    `toml:"scope_threshold"`   // Document count above which the recent-N cap kicks in
	MaxDocumentText int    `toml:"max_document_text"` // Per-document text truncation in the prompt
	RunTimeout      string `toml:"run_timeout"`       // e.g. "300s"
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig returns a configuration with working defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/causa.db",
			},
			Filesystem: FilesystemConfig{
				AssetsDir: "./data/assets",
			},
		},
		Queue: QueueConfig{
			Concurrency:   3,
			SweepSchedule: "@every 5m",
		},
		Uploads: UploadsConfig{
			MaxFileSize:       50 * 1024 * 1024,
			MaxFilesPerMatter: 500,
			AllowedExtensions: []string{".pdf", ".png", ".jpg", ".jpeg", ".gif", ".webp", ".docx", ".doc", ".txt", ".md", ".eml", ".csv"},
		},
		Extraction: ExtractionConfig{
			MinPDFTextLength: 100,
			ChunkSize:        4000,
			ChunkOverlap:     400,
			OCRTimeout:       "120s",
			ConfidenceClear:  0.9,
			ConfidencePartly: 0.7,
			ConfidenceOther:  0.5,
		},
		Claude: ClaudeConfig{
			Model:       "claude-sonnet-4-20250514",
			VisionModel: "claude-sonnet-4-20250514",
			MaxTokens:   8192,
			Temperature: 0.2,
			Timeout:     "120s",
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.0-flash",
			MaxTokens:   8192,
			Temperature: 0.2,
			Timeout:     "120s",
		},
		LLM: LLMConfig{
			Provider:          "claude",
			RequestsPerMinute: 30,
		},
		Insight: InsightConfig{
			MaxDocuments:    25,
			ScopeThreshold:  25,
			MaxDocumentText: 12000,
			RunTimeout:      "300s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files. Later files override
// earlier files; environment variables override all files.
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

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("CAUSA_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("CAUSA_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("CAUSA_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if path := os.Getenv("CAUSA_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}
	if dir := os.Getenv("CAUSA_ASSETS_DIR"); dir != "" {
		config.Storage.Filesystem.AssetsDir = dir
	}

	if conc := os.Getenv("CAUSA_QUEUE_CONCURRENCY"); conc != "" {
		if c, err := strconv.Atoi(conc); err == nil && c > 0 {
			config.Queue.Concurrency = c
		}
	}

	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}
	if key := os.Getenv("CAUSA_CLAUDE_API_KEY"); key != "" {
		config.Claude.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}
	if provider := os.Getenv("CAUSA_LLM_PROVIDER"); provider != "" {
		config.LLM.Provider = provider
	}

	if level := os.Getenv("CAUSA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// ApplyFlagOverrides applies command-line flag overrides. Flags are the
// highest-priority configuration source.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// OCRTimeoutDuration parses the configured OCR timeout, falling back to 120s
func (c *ExtractionConfig) OCRTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.OCRTimeout)
	if err != nil || d <= 0 {
		return 120 * time.Second
	}
	return d
}

// RunTimeoutDuration parses the configured insight run timeout, falling back to 5m
func (c *InsightConfig) RunTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.RunTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// Validate checks configuration invariants that would otherwise surface as
// runtime failures deep in the pipeline.
func (c *Config) Validate() error {
	if c.Queue.Concurrency <= 0 {
		return fmt.Errorf("queue.concurrency must be positive, got %d", c.Queue.Concurrency)
	}
	if c.Extraction.ChunkSize <= 0 {
		return fmt.Errorf("extraction.chunk_size must be positive, got %d", c.Extraction.ChunkSize)
	}
	if c.Extraction.ChunkOverlap < 0 || c.Extraction.ChunkOverlap >= c.Extraction.ChunkSize {
		return fmt.Errorf("extraction.chunk_overlap must be in [0, chunk_size), got %d", c.Extraction.ChunkOverlap)
	}
	if c.Uploads.MaxFileSize <= 0 {
		return fmt.Errorf("uploads.max_file_size must be positive, got %d", c.Uploads.MaxFileSize)
	}
	switch c.LLM.Provider {
	case "claude", "gemini":
	default:
		return fmt.Errorf("llm.provider must be \"claude\" or \"gemini\", got %q", c.LLM.Provider)
	}
	return nil
}
