// Package report persists and converts pipeline run reports.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mockpix/mockpix/internal/models"
	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

// Report is the saved form of one pipeline run.
type Report struct {
	RunID               string               `json:"run_id" yaml:"runid"`
	Timestamp           string               `json:"timestamp" yaml:"timestamp"`
	Success             bool                 `json:"success" yaml:"success"`
	OriginalImageCount  int                  `json:"original_image_count" yaml:"originalimagecount"`
	ProcessedImageCount int                  `json:"processed_image_count" yaml:"processedimagecount"`
	GeneratedImageCount int                  `json:"generated_image_count" yaml:"generatedimagecount"`
	OptimizationSavings float64              `json:"optimization_savings" yaml:"optimizationsavings"`
	ProcessingTimeMs    int64                `json:"processing_time_ms" yaml:"processingtimems"`
	StageTimings        []models.StageTiming `json:"stage_timings,omitempty" yaml:"stagetimings,omitempty"`
	Mappings            []models.URLMapping  `json:"mappings,omitempty" yaml:"mappings,omitempty"`
	Errors              []string             `json:"errors,omitempty" yaml:"errors,omitempty"`
	Warnings            []string             `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// FromResult flattens a pipeline result into its report form.
func FromResult(result *models.PipelineResult) *Report {
	r := &Report{
		RunID:               result.RunID,
		Timestamp:           time.Now().Format(time.RFC3339),
		Success:             result.Success,
		OriginalImageCount:  result.OriginalImageCount,
		ProcessedImageCount: result.ProcessedImageCount,
		GeneratedImageCount: result.GeneratedImageCount,
		OptimizationSavings: result.OptimizationSavings,
		ProcessingTimeMs:    result.ProcessingTimeMs,
		StageTimings:        result.StageTimings,
		Errors:              result.Errors,
		Warnings:            result.Warnings,
	}
	if result.Replacement != nil {
		r.Mappings = result.Replacement.Mappings
	}
	return r
}

// SaveJSON writes the report as pretty-printed JSON.
func SaveJSON(r *Report, path string) error {
	raw, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}

// LoadJSON reads a report saved by SaveJSON.
func LoadJSON(path string) (*Report, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}
	var r Report
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("failed to parse report file: %w", err)
	}
	return &r, nil
}

// SaveYAML writes the report as YAML.
func SaveYAML(r *Report, path string) error {
	raw, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}

// MappingRow is the flat parquet schema: one row per URL mapping, with the
// run-level fields repeated so the file is self-describing.
type MappingRow struct {
	RunID           string `parquet:"run_id"`
	Timestamp       string `parquet:"timestamp"`
	OriginalURL     string `parquet:"original_url"`
	NewURL          string `parquet:"new_url"`
	CDNURL          string `parquet:"cdn_url"`
	Path            string `parquet:"path"`
	FieldName       string `parquet:"field_name"`
	ItemIndex       int32  `parquet:"item_index"`
	ReplacementType string `parquet:"replacement_type"`
}

// SaveParquet writes the report's URL mappings as a parquet file.
func SaveParquet(r *Report, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[MappingRow](file)

	rows := make([]MappingRow, 0, len(r.Mappings))
	for _, m := range r.Mappings {
		rows = append(rows, MappingRow{
			RunID:           r.RunID,
			Timestamp:       r.Timestamp,
			OriginalURL:     m.OriginalURL,
			NewURL:          m.NewURL,
			CDNURL:          m.CDNURL,
			Path:            m.Path,
			FieldName:       m.FieldName,
			ItemIndex:       int32(m.ItemIndex),
			ReplacementType: string(m.Type),
		})
	}

	if len(rows) > 0 {
		if _, err := writer.Write(rows); err != nil {
			return fmt.Errorf("failed to write parquet rows: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

// WriteSummary prints a human-readable run summary.
func WriteSummary(w io.Writer, r *Report) {
	fmt.Fprintf(w, "Run %s (%s)\n", r.RunID, r.Timestamp)
	status := "OK"
	if !r.Success {
		status = "FAILED"
	}
	fmt.Fprintf(w, "Status:    %s\n", status)
	fmt.Fprintf(w, "Images:    %d found, %d generated, %d replaced\n",
		r.OriginalImageCount, r.GeneratedImageCount, r.ProcessedImageCount)
	fmt.Fprintf(w, "Savings:   %.1f%%\n", r.OptimizationSavings)
	fmt.Fprintf(w, "Duration:  %dms\n", r.ProcessingTimeMs)

	if len(r.StageTimings) > 0 {
		fmt.Fprintf(w, "\nStages:\n")
		for _, s := range r.StageTimings {
			fmt.Fprintf(w, "  %-10s %6dms  %d items\n", s.Stage, s.DurationMs, s.Items)
		}
	}

	if len(r.Errors) > 0 {
		fmt.Fprintf(w, "\nErrors:\n")
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  - %s\n", e)
		}
	}
	if len(r.Warnings) > 0 {
		fmt.Fprintf(w, "\nWarnings:\n")
		for _, warning := range r.Warnings {
			fmt.Fprintf(w, "  - %s\n", warning)
		}
	}
}
