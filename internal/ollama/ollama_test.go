package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mockpix/mockpix/internal/providers"
)

func newTestServer(t *testing.T, handler func(body map[string]any) any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Expected path /api/generate, got %s", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("Expected JSON request body, got %v", err)
		}
		if err := json.NewEncoder(w).Encode(handler(body)); err != nil {
			t.Fatalf("Expected to encode response, got %v", err)
		}
	}))
}

func TestGenerateText(t *testing.T) {
	server := newTestServer(t, func(body map[string]any) any {
		if body["model"] != "llama3.2" {
			t.Errorf("Expected model llama3.2, got %v", body["model"])
		}
		if body["prompt"] != "describe a lamp" {
			t.Errorf("Expected prompt forwarded, got %v", body["prompt"])
		}
		if body["stream"] != false {
			t.Errorf("Expected stream false, got %v", body["stream"])
		}
		opts, ok := body["options"].(map[string]any)
		if !ok || opts["temperature"] != 0.7 {
			t.Errorf("Expected temperature 0.7 in options, got %v", body["options"])
		}
		return map[string]string{"response": "a warm brass desk lamp"}
	})
	defer server.Close()

	provider := &Ollama{baseURL: server.URL, client: server.Client()}

	got, err := provider.GenerateText(context.Background(), providers.Config{
		Model:       "llama3.2",
		Temperature: 0.7,
		Prompt:      "describe a lamp",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got != "a warm brass desk lamp" {
		t.Errorf("Expected response text, got %q", got)
	}
}

func TestGenerateTextDefaults(t *testing.T) {
	server := newTestServer(t, func(body map[string]any) any {
		if body["model"] != defaultModel {
			t.Errorf("Expected default model %s for empty config, got %v", defaultModel, body["model"])
		}
		if _, ok := body["options"]; ok {
			t.Errorf("Expected options omitted for zero temperature, got %v", body["options"])
		}
		return map[string]string{"response": "ok"}
	})
	defer server.Close()

	provider := &Ollama{baseURL: server.URL, client: server.Client()}

	if _, err := provider.GenerateText(context.Background(), providers.Config{Prompt: "hi"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
}

func TestGenerateTextServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	provider := &Ollama{baseURL: server.URL, client: server.Client()}

	if _, err := provider.GenerateText(context.Background(), providers.Config{Model: "nope", Prompt: "hi"}); err == nil {
		t.Errorf("Expected error for non-200 response, got nil")
	}
}
