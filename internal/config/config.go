package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/menta2k/posture-analyzer/pkg/analyzer"
	"github.com/menta2k/posture-analyzer/pkg/overlay"
)

// Config holds the application configuration
type Config struct {
	Analyzer  AnalyzerConfig  `json:"analyzer"`
	Overlay   OverlayConfig   `json:"overlay"`
	Landmarks LandmarksConfig `json:"landmarks"`
	Insights  InsightsConfig  `json:"insights"`
	Server    ServerConfig    `json:"server"`
	Output    OutputConfig    `json:"output"`
	Log       LogConfig       `json:"log"`
}

// AnalyzerConfig holds the posture thresholds
type AnalyzerConfig struct {
	MinVisibility      float64 `json:"min_visibility"`
	MinShoulderWidthPx float64 `json:"min_shoulder_width_px"`
	MinHeightProxyPx   float64 `json:"min_height_proxy_px"`
	ShoulderTiltDeg    float64 `json:"shoulder_tilt_deg"`
	PelvicTiltDeg      float64 `json:"pelvic_tilt_deg"`
	MidlineShiftPct    float64 `json:"midline_shift_pct"`
	ForwardHeadPct     float64 `json:"forward_head_pct"`
	PlumbLinePct       float64 `json:"plumb_line_pct"`
	HeadTrunkDeg       float64 `json:"head_trunk_deg"`
}

// OverlayConfig holds the overlay style
type OverlayConfig struct {
	LineWidth   float64 `json:"line_width"`
	JointRadius float64 `json:"joint_radius"`
	MaxFlags    int     `json:"max_flags"`
	TextX       float64 `json:"text_x"`
	TextY       float64 `json:"text_y"`
	LineSpacing float64 `json:"line_spacing"`
}

// LandmarksConfig selects the landmark provider
type LandmarksConfig struct {
	Backend     string `json:"backend"`
	URL         string `json:"url"`
	Model       string `json:"model"`
	FixturePath string `json:"fixture_path"`
}

// InsightsConfig selects the chat provider used for insights.
// Credentials only come from the environment.
type InsightsConfig struct {
	Provider        string  `json:"provider"`
	AzureEndpoint   string  `json:"azure_endpoint"`
	AzureAPIKey     string  `json:"-"`
	AzureAPIVersion string  `json:"azure_api_version"`
	AzureDeployment string  `json:"azure_deployment"`
	OpenAIAPIKey    string  `json:"-"`
	OpenAIModel     string  `json:"openai_model"`
	OpenAIBaseURL   string  `json:"openai_base_url"`
	GeminiAPIKey    string  `json:"-"`
	GeminiModel     string  `json:"gemini_model"`
	OllamaURL       string  `json:"ollama_url"`
	OllamaModel     string  `json:"ollama_model"`
	MaxTokens       int     `json:"max_tokens"`
	Temperature     float32 `json:"temperature"`
	TopP            float32 `json:"top_p"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port               string   `json:"port"`
	RateLimitPerMinute int      `json:"rate_limit_per_minute"`
	MaxUploadMB        int      `json:"max_upload_mb"`
	ShutdownTimeoutSec int      `json:"shutdown_timeout_sec"`
	RequestTimeoutSec  int      `json:"request_timeout_sec"`
	AllowedOrigins     []string `json:"allowed_origins"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	DefaultFormat string `json:"default_format"`
	OutputDir     string `json:"output_dir"`
	Quality       int    `json:"quality"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Default returns a configuration with default values
func Default() *Config {
	a := analyzer.DefaultConfig()
	o := overlay.DefaultConfig()
	return &Config{
		Analyzer: AnalyzerConfig{
			MinVisibility:      a.MinVisibility,
			MinShoulderWidthPx: a.MinShoulderWidthPx,
			MinHeightProxyPx:   a.MinHeightProxyPx,
			ShoulderTiltDeg:    a.ShoulderTiltDeg,
			PelvicTiltDeg:      a.PelvicTiltDeg,
			MidlineShiftPct:    a.MidlineShiftPct,
			ForwardHeadPct:     a.ForwardHeadPct,
			PlumbLinePct:       a.PlumbLinePct,
			HeadTrunkDeg:       a.HeadTrunkDeg,
		},
		Overlay: OverlayConfig{
			LineWidth:   o.LineWidth,
			JointRadius: o.JointRadius,
			MaxFlags:    o.MaxFlags,
			TextX:       o.TextX,
			TextY:       o.TextY,
			LineSpacing: o.LineSpacing,
		},
		Landmarks: LandmarksConfig{
			Backend: "posesvc",
		},
		Insights: InsightsConfig{
			Provider:        "azure",
			AzureAPIVersion: "2024-02-15-preview",
			OpenAIModel:     "gpt-4o-mini",
			GeminiModel:     "gemini-1.5-flash",
			OllamaURL:       "http://localhost:11434",
			OllamaModel:     "llama3.1",
			MaxTokens:       800,
			Temperature:     0.7,
			TopP:            0.95,
		},
		Server: ServerConfig{
			Port:               "8000",
			RateLimitPerMinute: 60,
			MaxUploadMB:        20,
			ShutdownTimeoutSec: 10,
			RequestTimeoutSec:  120,
			AllowedOrigins:     []string{"*"},
		},
		Output: OutputConfig{
			DefaultFormat: "jpg",
			OutputDir:     "./output",
			Quality:       90,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// AnalyzerThresholds converts the analyzer section
func (c *Config) AnalyzerThresholds() analyzer.Config {
	a := c.Analyzer
	return analyzer.Config{
		MinVisibility:      a.MinVisibility,
		MinShoulderWidthPx: a.MinShoulderWidthPx,
		MinHeightProxyPx:   a.MinHeightProxyPx,
		ShoulderTiltDeg:    a.ShoulderTiltDeg,
		PelvicTiltDeg:      a.PelvicTiltDeg,
		MidlineShiftPct:    a.MidlineShiftPct,
		ForwardHeadPct:     a.ForwardHeadPct,
		PlumbLinePct:       a.PlumbLinePct,
		HeadTrunkDeg:       a.HeadTrunkDeg,
	}
}

// OverlayStyle converts the overlay section
func (c *Config) OverlayStyle() overlay.Config {
	o := c.Overlay
	return overlay.Config{
		LineWidth:   o.LineWidth,
		JointRadius: o.JointRadius,
		MaxFlags:    o.MaxFlags,
		TextX:       o.TextX,
		TextY:       o.TextY,
		LineSpacing: o.LineSpacing,
	}
}

// LoadFromFile loads configuration from a JSON file. Keys missing from the
// file keep their default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// Load reads the optional config file, the optional .env files and the
// environment, then validates the result.
func Load(filename string, envFiles ...string) (*Config, error) {
	config := Default()
	if filename != "" {
		var err error
		if config, err = LoadFromFile(filename); err != nil {
			return nil, err
		}
	}

	if err := LoadEnvFiles(envFiles...); err != nil {
		return nil, err
	}
	config.ApplyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadEnvFiles loads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides configuration values from environment variables
func (c *Config) ApplyEnv() {
	c.Insights.AzureEndpoint = getEnv("AZURE_API_BASE", c.Insights.AzureEndpoint)
	c.Insights.AzureAPIKey = getEnv("AZURE_API_KEY", c.Insights.AzureAPIKey)
	c.Insights.AzureAPIVersion = getEnv("AZURE_API_VERSION", c.Insights.AzureAPIVersion)
	c.Insights.AzureDeployment = getEnv("AZURE_DEPLOYMENT_NAME", c.Insights.AzureDeployment)
	c.Insights.OpenAIAPIKey = getEnv("OPENAI_API_KEY", c.Insights.OpenAIAPIKey)
	c.Insights.OpenAIModel = getEnv("OPENAI_MODEL", c.Insights.OpenAIModel)
	c.Insights.GeminiAPIKey = getEnv("GEMINI_API_KEY", getEnv("GOOGLE_API_KEY", c.Insights.GeminiAPIKey))
	c.Insights.GeminiModel = getEnv("GEMINI_MODEL", c.Insights.GeminiModel)
	c.Insights.Provider = strings.ToLower(getEnv("INSIGHTS_PROVIDER", c.Insights.Provider))

	c.Landmarks.Backend = strings.ToLower(getEnv("POSE_BACKEND", c.Landmarks.Backend))
	c.Landmarks.URL = getEnv("POSE_URL", c.Landmarks.URL)
	c.Landmarks.Model = getEnv("POSE_MODEL", c.Landmarks.Model)

	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", c.Server.RateLimitPerMinute)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Analyzer.MinVisibility < 0 || c.Analyzer.MinVisibility > 1 {
		return fmt.Errorf("analyzer.min_visibility must be between 0 and 1")
	}

	for name, v := range map[string]float64{
		"shoulder_tilt_deg": c.Analyzer.ShoulderTiltDeg,
		"pelvic_tilt_deg":   c.Analyzer.PelvicTiltDeg,
		"midline_shift_pct": c.Analyzer.MidlineShiftPct,
		"forward_head_pct":  c.Analyzer.ForwardHeadPct,
		"plumb_line_pct":    c.Analyzer.PlumbLinePct,
		"head_trunk_deg":    c.Analyzer.HeadTrunkDeg,
	} {
		if v <= 0 {
			return fmt.Errorf("analyzer.%s must be positive", name)
		}
	}

	if c.Overlay.MaxFlags < 0 {
		return fmt.Errorf("overlay.max_flags cannot be negative")
	}

	switch c.Landmarks.Backend {
	case "posesvc", "ollama", "fixture":
	default:
		return fmt.Errorf("landmarks.backend must be one of posesvc, ollama, fixture")
	}

	switch c.Insights.Provider {
	case "azure", "openai", "gemini", "ollama", "stub":
	default:
		return fmt.Errorf("insights.provider must be one of azure, openai, gemini, ollama, stub")
	}

	if c.Server.RateLimitPerMinute < 1 {
		return fmt.Errorf("server.rate_limit_per_minute must be positive")
	}

	if c.Server.MaxUploadMB < 1 {
		return fmt.Errorf("server.max_upload_mb must be positive")
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	switch c.Log.Format {
	case "text", "json", "cli":
	default:
		return fmt.Errorf("log.format must be one of text, json, cli")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "posture-analyzer", "config.json")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
