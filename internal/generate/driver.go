// Package generate executes an optimization plan against an image provider
// and uploads the results to object storage.
package generate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mockpix/mockpix/internal/models"
	"github.com/mockpix/mockpix/internal/providers"
	"github.com/mockpix/mockpix/internal/storage"
	"golang.org/x/time/rate"
)

// Options controls batching and pacing of provider calls.
type Options struct {
	// BatchSize is the number of groups generated concurrently. Defaults to 3.
	BatchSize int
	// BatchDelay is the pause between consecutive batches. Defaults to 1s.
	BatchDelay time.Duration
	// CallTimeout bounds a single provider call so a hung generation cannot
	// stall its batch forever. Defaults to 2m.
	CallTimeout time.Duration
	// RequestsPerSecond throttles provider calls across all batches.
	// Zero means no throttle.
	RequestsPerSecond float64
}

// Driver runs generation groups in priority order with bounded concurrency.
type Driver struct {
	provider providers.ImageProvider
	store    storage.Store
	opts     Options
	limiter  *rate.Limiter
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

// New returns a Driver using the given provider and store.
func New(provider providers.ImageProvider, store storage.Store, opts Options) *Driver {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 3
	}
	if opts.BatchDelay <= 0 {
		opts.BatchDelay = time.Second
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 2 * time.Minute
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &Driver{
		provider: provider,
		store:    store,
		opts:     opts,
		limiter:  limiter,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Run generates one master image per group, uploads it, and aliases every
// variant in the group to the uploaded URL. Groups are processed in
// descending average-priority order; groups within a batch run concurrently
// and batches run strictly one after another. A failed group produces a
// failure entry per variant and does not stop other groups.
func (d *Driver) Run(ctx context.Context, optimization *models.OptimizationResult) *models.GenerationResult {
	result := &models.GenerationResult{
		URLsByOriginal: map[string]string{},
		CDNByOriginal:  map[string]string{},
	}
	if optimization == nil || len(optimization.Groups) == 0 {
		return result
	}

	groups := make([]models.ProcessingGroup, len(optimization.Groups))
	copy(groups, optimization.Groups)
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].AveragePriority() > groups[j].AveragePriority()
	})

	var mu sync.Mutex

	for start := 0; start < len(groups); start += d.opts.BatchSize {
		end := start + d.opts.BatchSize
		if end > len(groups) {
			end = len(groups)
		}
		batch := groups[start:end]

		slog.Info("Generating image batch", "batch_start", start, "batch_size", len(batch), "total_groups", len(groups))

		var wg sync.WaitGroup
		for i := range batch {
			wg.Add(1)
			go func(group *models.ProcessingGroup) {
				defer wg.Done()

				images, err := d.runGroup(ctx, group)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					slog.Warn("Image group failed", "master", group.MasterImageID, "error", err)
					for _, v := range group.Variants {
						result.Failures = append(result.Failures, models.GenerationFailure{
							ImageID:     v.ImageID,
							OriginalURL: v.OriginalURL,
							Error:       err.Error(),
						})
					}
					return
				}
				result.Images = append(result.Images, images...)
				for _, img := range images {
					result.URLsByOriginal[img.OriginalURL] = img.URL
					if img.CDNURL != "" {
						result.CDNByOriginal[img.OriginalURL] = img.CDNURL
					}
				}
			}(&batch[i])
		}
		wg.Wait()

		if end < len(groups) {
			if err := d.sleep(ctx, d.opts.BatchDelay); err != nil {
				slog.Warn("Generation cancelled between batches", "error", err)
				d.failRemaining(result, groups[end:], err)
				break
			}
		}
	}

	return result
}

// runGroup generates and uploads the group's master image and returns one
// record per variant, all pointing at the master's URL.
func (d *Driver) runGroup(ctx context.Context, group *models.ProcessingGroup) ([]models.GeneratedImage, error) {
	prompt := group.Description.EnhancedPrompt
	if prompt == "" {
		prompt = group.Description.Prompt
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, d.opts.CallTimeout)
	defer cancel()

	data, err := d.provider.GenerateImage(callCtx, prompt, group.TargetDimensions.Width, group.TargetDimensions.Height)
	if err != nil {
		return nil, fmt.Errorf("failed to generate image: %w", err)
	}

	key := storage.MakeKey(keyFilename(group.MasterImageID), d.now())
	stored, err := d.store.Upload(ctx, data, key, "image/png")
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	slog.Info("Generated master image", "master", group.MasterImageID, "key", stored.Key, "variants", len(group.Variants))

	images := make([]models.GeneratedImage, 0, len(group.Variants))
	for _, v := range group.Variants {
		images = append(images, models.GeneratedImage{
			ImageID:     v.ImageID,
			OriginalURL: v.OriginalURL,
			URL:         stored.URL,
			CDNURL:      stored.CDNURL,
			StorageKey:  stored.Key,
			Master:      v.ImageID == group.MasterImageID,
		})
	}
	return images, nil
}

func (d *Driver) failRemaining(result *models.GenerationResult, groups []models.ProcessingGroup, err error) {
	for _, group := range groups {
		for _, v := range group.Variants {
			result.Failures = append(result.Failures, models.GenerationFailure{
				ImageID:     v.ImageID,
				OriginalURL: v.OriginalURL,
				Error:       err.Error(),
			})
		}
	}
}

// keyFilename turns an occurrence path like products[2].image into a safe
// filename suggestion for the storage key.
func keyFilename(imageID string) string {
	replacer := strings.NewReplacer("[", "-", "]", "", ".", "-", "/", "-")
	name := replacer.Replace(imageID)
	if name == "" {
		name = "image"
	}
	return name + ".png"
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
