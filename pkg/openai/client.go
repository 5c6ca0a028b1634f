// Package openai implements the insights chat client on top of the OpenAI
// chat completions API, hosted either by Azure OpenAI or by OpenAI itself.
package openai

import (
	"context"
	"fmt"
	"strings"

	gopenai "github.com/sashabaranov/go-openai"
)

// Options are the sampling parameters sent with every completion
type Options struct {
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// DefaultOptions returns the sampling parameters used for insights
func DefaultOptions() Options {
	return Options{
		MaxTokens:   800,
		Temperature: 0.7,
		TopP:        0.95,
	}
}

// Client sends system/user prompt pairs to a chat completion deployment
type Client struct {
	client  *gopenai.Client
	model   string
	source  string
	options Options
}

// NewAzureClient creates a client for an Azure OpenAI deployment
func NewAzureClient(endpoint, apiKey, apiVersion, deployment string, options Options) (*Client, error) {
	if endpoint == "" || apiKey == "" {
		return nil, fmt.Errorf("azure endpoint and api key are required")
	}
	if deployment == "" {
		return nil, fmt.Errorf("azure deployment name is required")
	}

	config := gopenai.DefaultAzureConfig(apiKey, endpoint)
	if apiVersion != "" {
		config.APIVersion = apiVersion
	}
	config.AzureModelMapperFunc = func(string) string {
		return deployment
	}

	return &Client{
		client:  gopenai.NewClientWithConfig(config),
		model:   deployment,
		source:  "AzureOpenAI",
		options: options,
	}, nil
}

// NewClient creates a client for the OpenAI API. An empty baseURL uses the
// public endpoint.
func NewClient(apiKey, model, baseURL string, options Options) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if model == "" {
		model = gopenai.GPT4oMini
	}

	config := gopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = strings.TrimSuffix(baseURL, "/")
	}

	return &Client{
		client:  gopenai.NewClientWithConfig(config),
		model:   model,
		source:  "OpenAI",
		options: options,
	}, nil
}

func (c *Client) SourceName() string {
	return c.source
}

// Complete returns the first choice of a chat completion
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, gopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []gopenai.ChatCompletionMessage{
			{Role: gopenai.ChatMessageRoleSystem, Content: system},
			{Role: gopenai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   c.options.MaxTokens,
		Temperature: c.options.Temperature,
		TopP:        c.options.TopP,
	})
	if err != nil {
		return "", fmt.Errorf("%s chat completion failed: %w", c.source, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in %s response", c.source)
	}
	return resp.Choices[0].Message.Content, nil
}
