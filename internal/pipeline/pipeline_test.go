package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/mockpix/mockpix/internal/config"
	"github.com/mockpix/mockpix/internal/storage"
)

type fakeProvider struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (f *fakeProvider) GenerateImage(ctx context.Context, prompt string, width, height int) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.fail {
		return nil, fmt.Errorf("provider down")
	}
	return []byte("png"), nil
}

type fakeStore struct{}

func (fakeStore) Upload(ctx context.Context, data []byte, key, contentType string) (*storage.StoredObject, error) {
	return &storage.StoredObject{URL: "http://images.test/" + key, Key: key}, nil
}

func sampleDoc() map[string]any {
	return map[string]any{
		"products": []any{
			map[string]any{
				"name":  "Desk Lamp",
				"image": "https://picsum.photos/seed/lamp/800/600",
			},
			map[string]any{
				"name":  "Desk Lamp Pro",
				"image": "https://picsum.photos/seed/lamp/400/300",
			},
		},
	}
}

func TestProcessEndToEnd(t *testing.T) {
	provider := &fakeProvider{}
	p := New(config.Default(), provider, fakeStore{})

	doc := sampleDoc()
	result, err := p.Process(context.Background(), doc)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !result.Success {
		t.Fatalf("Expected success, got errors %v", result.Errors)
	}
	if result.RunID == "" {
		t.Errorf("Expected a run ID")
	}
	if result.OriginalImageCount != 2 {
		t.Errorf("Expected 2 images found, got %d", result.OriginalImageCount)
	}
	if result.ProcessedImageCount != 2 {
		t.Errorf("Expected 2 images replaced, got %d", result.ProcessedImageCount)
	}
	if result.GeneratedImageCount < 1 {
		t.Errorf("Expected at least 1 generated image, got %d", result.GeneratedImageCount)
	}

	stages := []string{"extract", "describe", "analyze", "generate", "replace"}
	if len(result.StageTimings) != len(stages) {
		t.Fatalf("Expected %d stage timings, got %d", len(stages), len(result.StageTimings))
	}
	for i, want := range stages {
		if result.StageTimings[i].Stage != want {
			t.Errorf("Expected stage %d to be %s, got %s", i, want, result.StageTimings[i].Stage)
		}
	}

	processed := result.ProcessedData.(map[string]any)
	for i, item := range processed["products"].([]any) {
		url := item.(map[string]any)["image"].(string)
		if !strings.HasPrefix(url, "http://images.test/generated-images/") {
			t.Errorf("Expected product %d to point at a generated image, got %s", i, url)
		}
	}

	// Input document stays untouched without replace_in_place.
	original := doc["products"].([]any)[0].(map[string]any)["image"].(string)
	if original != "https://picsum.photos/seed/lamp/800/600" {
		t.Errorf("Expected original document untouched, got %s", original)
	}
}

func TestProcessNoImages(t *testing.T) {
	p := New(config.Default(), &fakeProvider{}, fakeStore{})

	doc := map[string]any{"name": "no images here", "count": float64(3)}
	result, err := p.Process(context.Background(), doc)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !result.Success {
		t.Errorf("Expected success for a document without placeholders")
	}
	if len(result.StageTimings) != 1 {
		t.Errorf("Expected only the extract stage to run, got %d timings", len(result.StageTimings))
	}
	if result.ProcessedData.(map[string]any)["name"] != "no images here" {
		t.Errorf("Expected document returned unchanged")
	}
}

func TestProcessAllGenerationFails(t *testing.T) {
	p := New(config.Default(), &fakeProvider{fail: true}, fakeStore{})

	doc := sampleDoc()
	result, err := p.Process(context.Background(), doc)
	if err != nil {
		t.Fatalf("Expected no fatal error, got %v", err)
	}

	if result.Success {
		t.Errorf("Expected failure when every group fails")
	}
	if len(result.Errors) == 0 {
		t.Errorf("Expected an error entry")
	}
	if len(result.Warnings) == 0 {
		t.Errorf("Expected per-image failure warnings")
	}

	// Document must come back untouched.
	url := result.ProcessedData.(map[string]any)["products"].([]any)[0].(map[string]any)["image"].(string)
	if url != "https://picsum.photos/seed/lamp/800/600" {
		t.Errorf("Expected original URL preserved, got %s", url)
	}
}
