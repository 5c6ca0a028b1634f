package client

import (
	"context"
	"errors"
	"image"

	"github.com/menta2k/posture-analyzer/pkg/landmark"
)

// ErrBackend marks failures of a landmark provider or a language model
var ErrBackend = errors.New("backend request failed")

// LandmarkProvider extracts a full pose landmark set from a decoded image.
// A nil set with a nil error means no body was detected. Implementations
// in this module are safe for concurrent use.
type LandmarkProvider interface {
	Extract(ctx context.Context, img image.Image) (*landmark.Set, error)
}

// ChatClient sends a system instruction and a user message to a hosted
// language model and returns the text answer.
type ChatClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
	// SourceName is a short provider label, e.g. "AzureOpenAI" or "Gemini".
	SourceName() string
}
