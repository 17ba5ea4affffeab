package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mockpix/mockpix/internal/models"
	"github.com/parquet-go/parquet-go"
)

func sampleReport() *Report {
	return &Report{
		RunID:               "run-123",
		Timestamp:           "2025-03-14T12:00:00Z",
		Success:             true,
		OriginalImageCount:  4,
		ProcessedImageCount: 4,
		GeneratedImageCount: 2,
		OptimizationSavings: 45.0,
		ProcessingTimeMs:    1234,
		StageTimings: []models.StageTiming{
			{Stage: "extract", DurationMs: 2, Items: 4},
			{Stage: "generate", DurationMs: 1200, Items: 4},
		},
		Mappings: []models.URLMapping{
			{
				OriginalURL: "https://picsum.photos/seed/lamp/800/600",
				NewURL:      "http://images.test/a.png",
				Path:        "products[0].image",
				FieldName:   "image",
				ItemIndex:   0,
				Type:        models.ReplaceDirect,
			},
			{
				OriginalURL: "https://picsum.photos/seed/lamp/400/300",
				NewURL:      "http://images.test/a.png",
				Path:        "products[1].image",
				FieldName:   "image",
				ItemIndex:   1,
				Type:        models.ReplaceVariant,
			},
		},
	}
}

func TestFromResult(t *testing.T) {
	result := &models.PipelineResult{
		RunID:               "run-9",
		Success:             true,
		OriginalImageCount:  2,
		ProcessedImageCount: 2,
		Replacement: &models.ReplacementResult{
			Mappings: []models.URLMapping{{OriginalURL: "a", NewURL: "b"}},
		},
	}

	r := FromResult(result)
	if r.RunID != "run-9" {
		t.Errorf("Expected run ID run-9, got %s", r.RunID)
	}
	if len(r.Mappings) != 1 {
		t.Errorf("Expected 1 mapping, got %d", len(r.Mappings))
	}
	if r.Timestamp == "" {
		t.Errorf("Expected a timestamp")
	}
}

func TestSaveAndLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")

	if err := SaveJSON(sampleReport(), path); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	loaded, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if loaded.RunID != "run-123" {
		t.Errorf("Expected run ID run-123, got %s", loaded.RunID)
	}
	if len(loaded.Mappings) != 2 {
		t.Errorf("Expected 2 mappings, got %d", len(loaded.Mappings))
	}
	if loaded.Mappings[1].Type != models.ReplaceVariant {
		t.Errorf("Expected variant mapping type, got %s", loaded.Mappings[1].Type)
	}
}

func TestSaveYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")

	if err := SaveYAML(sampleReport(), path); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected report file, got %v", err)
	}
	content := string(raw)
	if !strings.Contains(content, "runid: run-123") {
		t.Errorf("Expected runid in YAML output, got:\n%s", content)
	}
	if !strings.Contains(content, "products[0].image") {
		t.Errorf("Expected mapping path in YAML output")
	}
}

func TestSaveParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.parquet")

	if err := SaveParquet(sampleReport(), path); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Expected parquet file, got %v", err)
	}
	defer file.Close()

	info, _ := file.Stat()
	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		t.Fatalf("Expected readable parquet file, got %v", err)
	}

	reader := parquet.NewGenericReader[MappingRow](pf)
	defer reader.Close()

	rows := make([]MappingRow, 2)
	n, _ := reader.Read(rows)
	if n != 2 {
		t.Fatalf("Expected 2 rows, got %d", n)
	}
	if rows[0].RunID != "run-123" {
		t.Errorf("Expected run ID repeated per row, got %s", rows[0].RunID)
	}
	if rows[1].ReplacementType != "variant" {
		t.Errorf("Expected replacement type variant, got %s", rows[1].ReplacementType)
	}
}

func TestSaveParquetEmptyMappings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.parquet")
	r := sampleReport()
	r.Mappings = nil

	if err := SaveParquet(r, path); err != nil {
		t.Errorf("Expected no error for empty mappings, got %v", err)
	}
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	WriteSummary(&buf, sampleReport())

	out := buf.String()
	for _, want := range []string{"run-123", "Status:    OK", "4 found, 2 generated, 4 replaced", "45.0%", "extract"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected summary to contain %q, got:\n%s", want, out)
		}
	}
}

func TestWriteSummaryFailure(t *testing.T) {
	r := sampleReport()
	r.Success = false
	r.Errors = []string{"image generation failed for all groups"}

	var buf bytes.Buffer
	WriteSummary(&buf, r)

	out := buf.String()
	if !strings.Contains(out, "FAILED") {
		t.Errorf("Expected FAILED status, got:\n%s", out)
	}
	if !strings.Contains(out, "image generation failed") {
		t.Errorf("Expected error listed, got:\n%s", out)
	}
}
