package providers

import (
	"context"
	"errors"
)

// ErrModelLoading signals that the generation model is still warming up and
// the call may be retried. Providers wrap it so callers can branch with
// errors.Is.
var ErrModelLoading = errors.New("model is loading")

// Config represents the configuration for an LLM provider
type Config struct {
	Model       string
	Temperature float64
	Prompt      string
}

// TextProvider defines the interface for a text-generation LLM provider.
type TextProvider interface {
	GenerateText(ctx context.Context, config Config) (string, error)
}

// ImageProvider defines the interface for an image-generation provider.
// Implementations return raw encoded image bytes (PNG or JPEG).
type ImageProvider interface {
	GenerateImage(ctx context.Context, prompt string, width, height int) ([]byte, error)
}
