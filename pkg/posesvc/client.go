// Package posesvc talks to a pose estimation sidecar over HTTP. The sidecar
// wraps a BlazePose-style model and answers with 33 normalized landmarks.
package posesvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/apex/log"

	"github.com/menta2k/posture-analyzer/pkg/landmark"
	"github.com/menta2k/posture-analyzer/pkg/processing"
	"github.com/menta2k/posture-analyzer/pkg/types"
)

const defaultURL = "http://localhost:8090"

type Client struct {
	baseURL    string
	httpClient *http.Client
	processor  *processing.Processor
	maxDim     int
}

// PoseRequest is the body sent to the sidecar
type PoseRequest struct {
	Image  string `json:"image"`
	Format string `json:"format"`
}

// PoseResponse carries normalized landmarks in [0, 1] relative to the sent image
type PoseResponse struct {
	Detected  bool             `json:"detected"`
	Landmarks []types.Landmark `json:"landmarks"`
	Model     string           `json:"model,omitempty"`
}

func NewClient(serverURL string) (*Client, error) {
	if serverURL == "" {
		serverURL = defaultURL
	}
	if !strings.HasPrefix(serverURL, "http://") && !strings.HasPrefix(serverURL, "https://") {
		return nil, fmt.Errorf("invalid pose service URL: %s", serverURL)
	}

	return &Client{
		baseURL: strings.TrimSuffix(serverURL, "/"),
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
		processor: processing.NewProcessor(),
		maxDim:    1280,
	}, nil
}

// Extract sends img to the sidecar and converts the answer to pixel space.
// The client holds no per-call state and is safe for concurrent use.
func (c *Client) Extract(ctx context.Context, img image.Image) (*landmark.Set, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 60*time.Second)
		defer cancel()
	}

	imgB64, err := c.processor.PrepareImageForModel(img, "jpg", c.maxDim, 90)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	respBody, err := c.sendRequest(ctx, "/v1/pose", PoseRequest{Image: imgB64, Format: "jpeg"})
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	var resp PoseResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	b := img.Bounds()
	return toPixels(resp, float64(b.Dx()), float64(b.Dy()), float64(b.Min.X), float64(b.Min.Y))
}

// Health checks that the sidecar is reachable
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pose service unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pose service returned status %d", resp.StatusCode)
	}
	return nil
}

func toPixels(resp PoseResponse, w, h, x0, y0 float64) (*landmark.Set, error) {
	if !resp.Detected || len(resp.Landmarks) == 0 {
		return nil, nil
	}
	if len(resp.Landmarks) != int(landmark.Count) {
		return nil, fmt.Errorf("expected %d landmarks, got %d", landmark.Count, len(resp.Landmarks))
	}

	var set landmark.Set
	for i, lm := range resp.Landmarks {
		set[i] = types.Landmark{
			X:          x0 + lm.X*w,
			Y:          y0 + lm.Y*h,
			Visibility: lm.Visibility,
		}
	}
	log.WithField("model", resp.Model).Debug("pose extracted")
	return &set, nil
}

func (c *Client) sendRequest(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
