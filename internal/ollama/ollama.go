// Package ollama implements the text provider against a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mockpix/mockpix/internal/providers"
)

const defaultModel = "llama3"

// Ollama generates text through the /api/generate endpoint. The server URL
// is resolved once at construction from OLLAMA_URL, defaulting to the
// standard local port.
type Ollama struct {
	baseURL string
	client  *http.Client
}

// New returns a new Ollama provider.
func New() *Ollama {
	baseURL := os.Getenv("OLLAMA_URL")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &Ollama{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		// Local models can take minutes on long prompts; the per-call
		// context still bounds the request.
		client: &http.Client{Timeout: 10 * time.Minute},
	}
}

// GenerateText runs one prompt through the configured model. An unset model
// falls back to the provider default; a zero temperature is omitted so the
// model keeps its own default.
func (o *Ollama) GenerateText(ctx context.Context, config providers.Config) (string, error) {
	model := config.Model
	if model == "" {
		model = defaultModel
	}

	body := map[string]interface{}{
		"model":  model,
		"prompt": config.Prompt,
		"stream": false,
	}
	if config.Temperature > 0 {
		body["options"] = map[string]interface{}{
			"temperature": config.Temperature,
		}
	}

	requestBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/api/generate", bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("received non-200 status code: %d - %s", resp.StatusCode, string(respBody))
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}

	return response.Response, nil
}
