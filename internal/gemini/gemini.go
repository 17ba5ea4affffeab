// Package gemini implements the text provider against Google Gemini.
package gemini

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/mockpix/mockpix/internal/providers"
	"google.golang.org/api/option"
)

const defaultModel = "gemini-2.0-flash"

// Gemini generates text through the Gemini API. The API key is resolved once
// at construction from GEMINI_API_KEY.
type Gemini struct {
	apiKey string
}

// New returns a new Gemini provider.
func New() *Gemini {
	return &Gemini{apiKey: os.Getenv("GEMINI_API_KEY")}
}

// GenerateText runs one prompt through the configured Gemini model. An unset
// model falls back to the provider default; a zero temperature leaves the
// model's own default in place.
func (g *Gemini) GenerateText(ctx context.Context, config providers.Config) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	name := config.Model
	if name == "" {
		name = defaultModel
	}
	model := client.GenerativeModel(name)
	if config.Temperature > 0 {
		model.SetTemperature(float32(config.Temperature))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(config.Prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return flatten(resp)
}

// flatten joins the text parts of the first candidate. Gemini may split a
// long answer across several parts; keeping only the first would truncate
// generated record arrays mid-JSON.
func flatten(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned from Gemini")
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("unexpected response format from Gemini")
	}
	return sb.String(), nil
}
