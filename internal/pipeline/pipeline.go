// Package pipeline chains the five processing stages over one JSON document:
// extract placeholder URLs, describe them, plan generation, generate and
// upload images, and rewrite the document.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mockpix/mockpix/internal/analyze"
	"github.com/mockpix/mockpix/internal/config"
	"github.com/mockpix/mockpix/internal/describe"
	"github.com/mockpix/mockpix/internal/extractor"
	"github.com/mockpix/mockpix/internal/generate"
	"github.com/mockpix/mockpix/internal/models"
	"github.com/mockpix/mockpix/internal/providers"
	"github.com/mockpix/mockpix/internal/replace"
	"github.com/mockpix/mockpix/internal/storage"
)

// Pipeline runs the stages in order with the configuration injected once at
// construction.
type Pipeline struct {
	cfg       *config.Config
	extractor *extractor.Extractor
	describer *describe.Describer
	analyzer  *analyze.Analyzer
	driver    *generate.Driver
	replacer  *replace.Replacer
}

// New wires the stages from one Config, an image provider and a store.
func New(cfg *config.Config, provider providers.ImageProvider, store storage.Store) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		extractor: extractor.New(),
		describer: describe.New(describe.Options{
			Style:        cfg.Pipeline.Style,
			Locale:       cfg.Pipeline.Locale,
			MaxPromptLen: cfg.Pipeline.MaxPromptLength,
		}),
		analyzer: analyze.New(cfg.Pipeline.SimilarityThreshold),
		driver: generate.New(provider, store, generate.Options{
			BatchSize:         cfg.Pipeline.BatchSize,
			BatchDelay:        cfg.Pipeline.BatchDelay.Std(),
			CallTimeout:       cfg.Pipeline.GenerationTimeout.Std(),
			RequestsPerSecond: cfg.Pipeline.RequestsPerSecond,
		}),
		replacer: replace.New(replace.Options{
			DeepCopy:                  !cfg.Pipeline.ReplaceInPlace,
			PreferCDNURLs:             cfg.Pipeline.PreferCDNURLs,
			PreserveOriginalOnFailure: cfg.Pipeline.PreserveOriginalOnFailure,
			ValidateURLs:              cfg.Pipeline.ValidateURLs,
			ValidateTimeout:           cfg.Pipeline.ValidationTimeout.Std(),
		}),
	}
}

// Process runs the full pipeline over doc. Stages run strictly in order;
// only the generation stage is concurrent internally. Per-image failures
// become warnings on the result; the error return is reserved for failures
// that prevent producing a document at all.
func (p *Pipeline) Process(ctx context.Context, doc any) (*models.PipelineResult, error) {
	start := time.Now()
	result := &models.PipelineResult{
		RunID:         uuid.NewString(),
		ProcessedData: doc,
	}

	slog.Info("Starting pipeline run", "run_id", result.RunID)

	// Stage 1: extraction.
	stageStart := time.Now()
	extraction := p.extractor.Extract(doc)
	result.Extraction = extraction
	result.OriginalImageCount = extraction.TotalFound
	result.StageTimings = append(result.StageTimings, timing("extract", stageStart, extraction.TotalFound))

	if extraction.TotalFound == 0 {
		result.Success = true
		result.ProcessingTimeMs = time.Since(start).Milliseconds()
		slog.Info("No placeholder images found", "run_id", result.RunID)
		return result, nil
	}

	// Stage 2: description.
	stageStart = time.Now()
	descriptions := p.describer.DescribeAll(extraction.Occurrences)
	result.StageTimings = append(result.StageTimings, timing("describe", stageStart, len(descriptions)))

	// Stage 3: analysis.
	stageStart = time.Now()
	optimization := p.analyzer.Plan(extraction.Occurrences, descriptions)
	result.Optimization = optimization
	result.OptimizationSavings = optimization.EstimatedSavings
	result.StageTimings = append(result.StageTimings, timing("analyze", stageStart, len(optimization.Groups)))

	// Stage 4: generation and upload.
	stageStart = time.Now()
	generation := p.driver.Run(ctx, optimization)
	result.StageTimings = append(result.StageTimings, timing("generate", stageStart, len(generation.Images)))

	for _, f := range generation.Failures {
		result.Warnings = append(result.Warnings, fmt.Sprintf("generation failed for %s (%s): %s", f.ImageID, f.OriginalURL, f.Error))
	}
	for _, img := range generation.Images {
		if img.Master {
			result.GeneratedImageCount++
		}
	}

	if len(generation.Images) == 0 {
		// Every group failed; hand the caller back the untouched input.
		result.Success = false
		result.Errors = append(result.Errors, "image generation failed for all groups")
		result.ProcessingTimeMs = time.Since(start).Milliseconds()
		slog.Warn("Pipeline run failed", "run_id", result.RunID, "failures", len(generation.Failures))
		return result, nil
	}

	// Stage 5: replacement.
	stageStart = time.Now()
	replacement, err := p.replacer.Replace(doc, generation.URLsByOriginal, generation.CDNByOriginal)
	if err != nil {
		result.Success = false
		result.Errors = append(result.Errors, err.Error())
		result.ProcessingTimeMs = time.Since(start).Milliseconds()
		return result, fmt.Errorf("failed to replace URLs: %w", err)
	}
	result.Replacement = replacement
	result.ProcessedData = replacement.Document
	result.ProcessedImageCount = replacement.ReplacedCount
	result.StageTimings = append(result.StageTimings, timing("replace", stageStart, replacement.ReplacedCount))

	result.Errors = append(result.Errors, replacement.Errors...)
	result.Warnings = append(result.Warnings, replacement.ValidationErrors...)

	result.Success = true
	result.ProcessingTimeMs = time.Since(start).Milliseconds()

	slog.Info("Pipeline run finished",
		"run_id", result.RunID,
		"images_found", result.OriginalImageCount,
		"generated", result.GeneratedImageCount,
		"replaced", result.ProcessedImageCount,
		"savings_pct", result.OptimizationSavings,
		"duration_ms", result.ProcessingTimeMs)

	return result, nil
}

func timing(stage string, start time.Time, items int) models.StageTiming {
	return models.StageTiming{
		Stage:      stage,
		DurationMs: time.Since(start).Milliseconds(),
		Items:      items,
	}
}
