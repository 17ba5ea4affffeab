// Package sdwebui generates images against a self-hosted Stable Diffusion
// web UI (AUTOMATIC1111) txt2img endpoint.
package sdwebui

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/mockpix/mockpix/internal/providers"
)

// SDWebUI is an image provider backed by a local or remote Stable Diffusion
// web UI server.
type SDWebUI struct {
	baseURL string
}

// New returns a new SDWebUI provider. The server URL comes from SDWEBUI_URL,
// defaulting to the web UI's standard local port.
func New() *SDWebUI {
	baseURL := os.Getenv("SDWEBUI_URL")
	if baseURL == "" {
		baseURL = "http://localhost:7860"
	}
	return &SDWebUI{baseURL: strings.TrimSuffix(baseURL, "/")}
}

// GenerateImage renders one image at the requested dimensions.
func (s *SDWebUI) GenerateImage(ctx context.Context, prompt string, width, height int) ([]byte, error) {
	url := s.baseURL + "/sdapi/v1/txt2img"

	requestBody, err := json.Marshal(map[string]interface{}{
		"prompt":          prompt,
		"negative_prompt": "text, watermark, low quality, blurry",
		"width":           width,
		"height":          height,
		"steps":           20,
		"batch_size":      1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	// The web UI answers 503 while the model is still being loaded into
	// VRAM; surface that as a retryable condition.
	if resp.StatusCode == http.StatusServiceUnavailable {
		return nil, fmt.Errorf("stable diffusion server not ready: %w", providers.ErrModelLoading)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("received non-200 status code: %d - %s", resp.StatusCode, string(body))
	}

	var response struct {
		Images []string `json:"images"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	if len(response.Images) == 0 {
		return nil, fmt.Errorf("no images returned from stable diffusion server")
	}

	data, err := base64.StdEncoding.DecodeString(response.Images[0])
	if err != nil {
		return nil, fmt.Errorf("failed to decode image data: %w", err)
	}

	return data, nil
}
