// Package backend builds landmark providers and chat clients from configuration
package backend

import (
	"context"
	"fmt"

	"github.com/menta2k/posture-analyzer/internal/config"
	"github.com/menta2k/posture-analyzer/pkg/client"
	"github.com/menta2k/posture-analyzer/pkg/gemini"
	"github.com/menta2k/posture-analyzer/pkg/landmark"
	"github.com/menta2k/posture-analyzer/pkg/ollama"
	"github.com/menta2k/posture-analyzer/pkg/openai"
	"github.com/menta2k/posture-analyzer/pkg/posesvc"
	"github.com/menta2k/posture-analyzer/pkg/stubllm"
)

const defaultOllamaURL = "http://localhost:11434"

// NewLandmarkProvider returns the provider selected by cfg.Backend
func NewLandmarkProvider(cfg config.LandmarksConfig) (client.LandmarkProvider, error) {
	switch cfg.Backend {
	case "posesvc", "":
		return posesvc.NewClient(cfg.URL)
	case "ollama":
		url := cfg.URL
		if url == "" {
			url = defaultOllamaURL
		}
		return ollama.NewClient(url, cfg.Model)
	case "fixture":
		if cfg.FixturePath == "" {
			return nil, fmt.Errorf("fixture backend requires a landmark file")
		}
		set, err := landmark.LoadFile(cfg.FixturePath)
		if err != nil {
			return nil, err
		}
		return landmark.NewStatic(set), nil
	}
	return nil, fmt.Errorf("unknown landmark backend: %s", cfg.Backend)
}

// NewChatClient returns the chat client selected by cfg.Provider. Clients
// holding connections also implement io.Closer.
func NewChatClient(ctx context.Context, cfg config.InsightsConfig) (client.ChatClient, error) {
	options := openai.Options{
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		TopP:        cfg.TopP,
	}

	switch cfg.Provider {
	case "azure", "":
		return openai.NewAzureClient(cfg.AzureEndpoint, cfg.AzureAPIKey, cfg.AzureAPIVersion, cfg.AzureDeployment, options)
	case "openai":
		return openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, options)
	case "gemini":
		return gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case "ollama":
		url := cfg.OllamaURL
		if url == "" {
			url = defaultOllamaURL
		}
		return ollama.NewClient(url, cfg.OllamaModel)
	case "stub":
		return stubllm.NewClient(), nil
	}
	return nil, fmt.Errorf("unknown insights provider: %s", cfg.Provider)
}
