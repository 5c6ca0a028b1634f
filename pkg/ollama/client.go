package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/menta2k/posture-analyzer/pkg/landmark"
	"github.com/menta2k/posture-analyzer/pkg/processing"
	"github.com/menta2k/posture-analyzer/pkg/types"
)

// DefaultModel is used when no model is configured
const DefaultModel = "qwen2.5vl:7b"

// Client wraps the Ollama API client. It serves both as a vision landmark
// provider and as a text chat client for insights.
type Client struct {
	client    *api.Client
	model     string
	processor *processing.Processor
}

// NewClient creates a new Ollama client
func NewClient(ollamaURL, model string) (*Client, error) {
	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid URL: %s", ollamaURL)
	}

	// Create base URL from the provided URL (removing path like /api/chat)
	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}
	if model == "" {
		model = DefaultModel
	}

	return &Client{
		client:    api.NewClient(baseURL, http.DefaultClient),
		model:     model,
		processor: processing.NewProcessor(),
	}, nil
}

// SourceName identifies the backend in insight results
func (c *Client) SourceName() string {
	return "ollama:" + c.model
}

// Complete sends a system and user prompt and returns the model answer
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	messages := []api.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}
	options := map[string]any{
		"temperature": 0.7,
		"top_p":       0.95,
		"num_predict": 800,
	}
	return c.chat(ctx, messages, options)
}

// Extract asks the vision model to locate the body keypoints in img.
// Keypoints the model omits keep zero visibility.
func (c *Client) Extract(ctx context.Context, img image.Image) (*landmark.Set, error) {
	imgB64, err := c.processor.PrepareImageForModel(img, "jpg", 1024, 90)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	imgBytes, err := base64.StdEncoding.DecodeString(imgB64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image: %w", err)
	}

	messages := []api.Message{
		{
			Role:    "user",
			Content: landmarkPrompt,
			Images:  []api.ImageData{api.ImageData(imgBytes)},
		},
	}
	options := map[string]any{
		"temperature": 0.1,
		"num_ctx":     4096,
	}

	raw, err := c.chat(ctx, messages, options)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	return parseLandmarks(raw, float64(b.Dx()), float64(b.Dy()))
}

func (c *Client) chat(ctx context.Context, messages []api.Message, options map[string]any) (string, error) {
	// Add timeout if context doesn't have one (vision models on CPU are slow)
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 300*time.Second)
		defer cancel()
	}

	streamFalse := false
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   &streamFalse,
		Options:  options,
		// No Format field - let the prompt guide the format
	}

	var responseContent string
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		responseContent += resp.Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat error: %w", err)
	}
	if strings.TrimSpace(responseContent) == "" {
		return "", fmt.Errorf("empty response from ollama")
	}

	return responseContent, nil
}

const landmarkPrompt = `You are a pose estimation system. Locate the body keypoints of the single person standing in this photograph.

Return ONLY a JSON object in this exact format:
{
  "detected": true,
  "landmarks": {
    "left_ear": {"x": 0.52, "y": 0.12, "visibility": 0.9},
    "right_ear": {"x": 0.46, "y": 0.12, "visibility": 0.9}
  }
}

Rules:
- "left" and "right" are the subject's own left and right, not the viewer's.
- x and y are normalized to [0,1] relative to the image width and height, origin top-left.
- visibility in [0,1] is how clearly the keypoint is visible.
- Include at least: nose, left_ear, right_ear, left_shoulder, right_shoulder, left_hip, right_hip, left_knee, right_knee, left_ankle, right_ankle.
- If no person is visible, return {"detected": false, "landmarks": {}}.
- No explanations, no markdown.`

type landmarkAnswer struct {
	Detected  bool                      `json:"detected"`
	Landmarks map[string]types.Landmark `json:"landmarks"`
}

// parseLandmarks converts the model answer into a pixel-space landmark set.
// Unknown keypoint names are ignored.
func parseLandmarks(raw string, w, h float64) (*landmark.Set, error) {
	raw = sanitizeModelJSON(raw)
	if !strings.HasPrefix(raw, "{") {
		return nil, fmt.Errorf("model returned non-JSON response")
	}

	var answer landmarkAnswer
	if err := json.Unmarshal([]byte(raw), &answer); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}
	if !answer.Detected || len(answer.Landmarks) == 0 {
		return nil, nil
	}

	var set landmark.Set
	found := 0
	for name, lm := range answer.Landmarks {
		id, ok := landmark.ParseID(strings.ToLower(strings.TrimSpace(name)))
		if !ok {
			continue
		}
		set[id] = types.Landmark{
			X:          clamp(lm.X, 0, 1) * w,
			Y:          clamp(lm.Y, 0, 1) * h,
			Visibility: clamp(lm.Visibility, 0, 1),
		}
		found++
	}
	if found == 0 {
		return nil, nil
	}
	return &set, nil
}

var (
	reBlock    = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLine     = regexp.MustCompile(`(?m)^\s*//.*$`)
	reTrailing = regexp.MustCompile(`,(\s*[}\]])`)
)

// sanitizeModelJSON removes code fences, comments, and trailing commas from JSON response
func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	// Strip triple-backtick fences if present
	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "`")

	raw = reBlock.ReplaceAllString(raw, "")
	raw = reLine.ReplaceAllString(raw, "")
	raw = reTrailing.ReplaceAllString(raw, "$1")

	// Keep only the outermost {...}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
