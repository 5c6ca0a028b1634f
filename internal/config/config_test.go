package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, "posesvc", c.Landmarks.Backend)
	assert.Equal(t, "azure", c.Insights.Provider)
	assert.Equal(t, 800, c.Insights.MaxTokens)
	assert.Equal(t, 4.0, c.AnalyzerThresholds().ShoulderTiltDeg)
	assert.Equal(t, 5, c.OverlayStyle().MaxFlags)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	c := Default()
	c.Analyzer.ShoulderTiltDeg = 3
	c.Insights.AzureAPIKey = "must-not-be-written"
	require.NoError(t, c.SaveToFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "must-not-be-written")

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3.0, loaded.Analyzer.ShoulderTiltDeg)
	assert.Empty(t, loaded.Insights.AzureAPIKey)
}

func TestLoadFromFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"analyzer": {"pelvic_tilt_deg": 6}}`), 0644))

	c, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 6.0, c.Analyzer.PelvicTiltDeg)
	assert.Equal(t, "8000", c.Server.Port)
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{`), 0644))
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("AZURE_API_BASE", "https://example.openai.azure.com")
	t.Setenv("AZURE_API_KEY", "key")
	t.Setenv("AZURE_DEPLOYMENT_NAME", "gpt4")
	t.Setenv("GOOGLE_API_KEY", "google")
	t.Setenv("INSIGHTS_PROVIDER", "Gemini")
	t.Setenv("POSE_BACKEND", "ollama")
	t.Setenv("PORT", "9090")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")
	t.Setenv("LOG_FORMAT", "json")

	c := Default()
	c.ApplyEnv()

	assert.Equal(t, "https://example.openai.azure.com", c.Insights.AzureEndpoint)
	assert.Equal(t, "key", c.Insights.AzureAPIKey)
	assert.Equal(t, "gpt4", c.Insights.AzureDeployment)
	assert.Equal(t, "google", c.Insights.GeminiAPIKey)
	assert.Equal(t, "gemini", c.Insights.Provider)
	assert.Equal(t, "ollama", c.Landmarks.Backend)
	assert.Equal(t, "9090", c.Server.Port)
	assert.Equal(t, 60, c.Server.RateLimitPerMinute)
	assert.Equal(t, "json", c.Log.Format)
}

func TestGeminiKeyPrecedence(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gemini")
	t.Setenv("GOOGLE_API_KEY", "google")

	c := Default()
	c.ApplyEnv()
	assert.Equal(t, "gemini", c.Insights.GeminiAPIKey)
}

func TestLoadWithEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("POSTURE_TEST_MARKER=1\nOPENAI_MODEL=gpt-4o\n"), 0644))
	t.Setenv("OPENAI_MODEL", "")
	os.Unsetenv("OPENAI_MODEL")
	t.Cleanup(func() { os.Unsetenv("POSTURE_TEST_MARKER") })

	c, err := Load("", envFile, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", c.Insights.OpenAIModel)
	assert.Equal(t, "1", os.Getenv("POSTURE_TEST_MARKER"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"visibility", func(c *Config) { c.Analyzer.MinVisibility = 2 }},
		{"threshold", func(c *Config) { c.Analyzer.HeadTrunkDeg = 0 }},
		{"backend", func(c *Config) { c.Landmarks.Backend = "opencv" }},
		{"provider", func(c *Config) { c.Insights.Provider = "claude" }},
		{"rate limit", func(c *Config) { c.Server.RateLimitPerMinute = 0 }},
		{"quality", func(c *Config) { c.Output.Quality = 101 }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestGetConfigPath(t *testing.T) {
	assert.Contains(t, GetConfigPath(), "config.json")
}
