// Package analyze groups similar image occurrences so one generated master
// image can serve many document locations, and classifies every other
// occurrence as a cheap derivative of its group's master.
package analyze

import (
	"log/slog"
	"math"
	"strings"

	"github.com/mockpix/mockpix/internal/models"
)

// DefaultSimilarityThreshold is the score at or above which two occurrences
// are placed in the same processing group.
const DefaultSimilarityThreshold = 0.8

// Aspect ratios within this absolute tolerance are considered equal for
// resize classification.
const aspectTolerance = 0.1

// A crop is only worthwhile when the target covers at least this fraction of
// the master's area.
const minCropAreaRatio = 0.6

// Analyzer plans which images to generate and which to derive.
type Analyzer struct {
	threshold float64
}

// New returns an Analyzer with the given similarity threshold; values outside
// (0,1] fall back to DefaultSimilarityThreshold.
func New(threshold float64) *Analyzer {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSimilarityThreshold
	}
	return &Analyzer{threshold: threshold}
}

// Plan clusters occurrences into processing groups and classifies each
// group member relative to its master.
//
// Grouping is greedy and single-pass: the first unclaimed occurrence in input
// order seeds a group and claims every later unclaimed occurrence whose
// description or context similarity meets the threshold. An occurrence
// claimed early cannot join a better-matching group discovered later; this is
// intentional, trading global optimality for a predictable linear scan.
func (a *Analyzer) Plan(occs []models.ImageOccurrence, descs map[string]models.Description) *models.OptimizationResult {
	result := &models.OptimizationResult{
		TotalImages: len(occs),
	}

	claimed := make([]bool, len(occs))
	for i := range occs {
		if claimed[i] {
			continue
		}
		claimed[i] = true
		members := []int{i}

		for j := i + 1; j < len(occs); j++ {
			if claimed[j] {
				continue
			}
			descSim := DescriptionSimilarity(descOf(descs, occs[i]), descOf(descs, occs[j]))
			ctxSim := ContextSimilarity(occs[i].Context, occs[j].Context)
			if descSim >= a.threshold || ctxSim >= a.threshold {
				claimed[j] = true
				members = append(members, j)
			}
		}

		group := a.buildGroup(occs, descs, members)
		result.Groups = append(result.Groups, group)
	}

	for _, group := range result.Groups {
		for _, plan := range group.Variants {
			switch plan.Type {
			case models.ProcessGenerate:
				result.GeneratedImages++
			case models.ProcessResize:
				result.ResizedImages++
			case models.ProcessCrop:
				result.CroppedImages++
			case models.ProcessReuse:
				result.ReusedImages++
			}
		}
	}

	result.EstimatedSavings = estimatedSavings(result)

	slog.Debug("Processing plan complete",
		"total", result.TotalImages,
		"groups", len(result.Groups),
		"generated", result.GeneratedImages,
		"reused", result.ReusedImages,
		"savings_pct", result.EstimatedSavings)

	return result
}

// buildGroup selects the master among the member occurrences and classifies
// the rest relative to it.
func (a *Analyzer) buildGroup(occs []models.ImageOccurrence, descs map[string]models.Description, members []int) models.ProcessingGroup {
	masterIdx := selectMaster(occs, descs, members)
	master := occs[masterIdx]
	masterDesc := descOf(descs, master)

	group := models.ProcessingGroup{
		MasterImageID:    master.Path,
		Description:      masterDesc,
		TargetDimensions: master.Dimensions,
	}

	masterPlan := models.ProcessingPlan{
		ImageID:          master.Path,
		OriginalURL:      master.URL,
		Type:             models.ProcessGenerate,
		TargetDimensions: master.Dimensions,
		Description:      masterDesc,
		Priority:         priority(master, masterDesc),
		EstimatedCost:    models.CostGenerate,
		Seed:             master.Seed,
	}
	group.Variants = append(group.Variants, masterPlan)

	for _, idx := range members {
		if idx == masterIdx {
			continue
		}
		occ := occs[idx]
		plan := classifyVariant(occ, descOf(descs, occ), master)
		group.Variants = append(group.Variants, plan)
	}

	for _, v := range group.Variants {
		group.TotalCost += v.EstimatedCost
	}
	return group
}

// selectMaster maximizes confidence*100 + area/10000. A strict greater-than
// comparison keeps the first maximal member, so ties resolve in traversal
// order.
func selectMaster(occs []models.ImageOccurrence, descs map[string]models.Description, members []int) int {
	best := members[0]
	bestScore := masterScore(occs[best], descOf(descs, occs[best]))
	for _, idx := range members[1:] {
		score := masterScore(occs[idx], descOf(descs, occs[idx]))
		if score > bestScore {
			best = idx
			bestScore = score
		}
	}
	return best
}

func masterScore(occ models.ImageOccurrence, desc models.Description) float64 {
	return desc.Confidence*100 + float64(occ.Dimensions.Area())/10000
}

// classifyVariant decides how a non-master occurrence derives its image from
// the master: an exact size match reuses it, a close aspect ratio resizes it,
// a smaller contained region crops it, and anything else is generated
// independently despite belonging to the group.
func classifyVariant(occ models.ImageOccurrence, desc models.Description, master models.ImageOccurrence) models.ProcessingPlan {
	plan := models.ProcessingPlan{
		ImageID:          occ.Path,
		OriginalURL:      occ.URL,
		SourceImageID:    master.Path,
		TargetDimensions: occ.Dimensions,
		Description:      desc,
		Priority:         priority(occ, desc),
		Seed:             occ.Seed,
	}

	target := occ.Dimensions
	src := master.Dimensions

	switch {
	case target == src:
		plan.Type = models.ProcessReuse

	case canResize(target, src):
		plan.Type = models.ProcessResize

	case canCrop(target, src):
		plan.Type = models.ProcessCrop
		plan.CropRegion = centeredCrop(target, src)

	default:
		plan.Type = models.ProcessGenerate
		plan.SourceImageID = ""
	}

	plan.EstimatedCost = plan.Type.Cost()
	return plan
}

func canResize(target, src models.Dimensions) bool {
	if src.Width == 0 || src.Height == 0 {
		return false
	}
	if math.Abs(target.AspectRatio()-src.AspectRatio()) > aspectTolerance {
		return false
	}
	ratio := float64(target.Width) / float64(src.Width)
	return ratio >= 0.5 && ratio <= 2.0
}

func canCrop(target, src models.Dimensions) bool {
	if target.Width > src.Width || target.Height > src.Height {
		return false
	}
	if src.Area() == 0 {
		return false
	}
	return float64(target.Area())/float64(src.Area()) >= minCropAreaRatio
}

// centeredCrop is the centered rectangle of target size within the master.
func centeredCrop(target, src models.Dimensions) *models.CropRegion {
	return &models.CropRegion{
		X:      (src.Width - target.Width) / 2,
		Y:      (src.Height - target.Height) / 2,
		Width:  target.Width,
		Height: target.Height,
	}
}

// priority scores generation urgency: high-confidence descriptions first,
// banner/hero imagery boosted, thumbnails deprioritized, larger images
// slightly ahead of smaller ones. Clamped to [1,10].
func priority(occ models.ImageOccurrence, desc models.Description) int {
	score := desc.Confidence * 10

	field := strings.ToLower(occ.FieldName)
	if strings.Contains(field, "banner") || strings.Contains(field, "hero") {
		score += 5
	}
	if strings.Contains(field, "thumb") {
		score -= 2
	}

	if area := occ.Dimensions.Area(); area > 0 {
		score += math.Log10(float64(area) / 10000)
	}

	p := int(math.Round(score))
	if p < 1 {
		return 1
	}
	if p > 10 {
		return 10
	}
	return p
}

// estimatedSavings compares the actual plan cost against generating every
// occurrence from scratch, as a percentage.
func estimatedSavings(result *models.OptimizationResult) float64 {
	if result.TotalImages == 0 {
		return 0
	}
	unoptimized := float64(result.TotalImages) * models.CostGenerate

	optimized := 0.0
	for _, group := range result.Groups {
		optimized += group.TotalCost
	}

	savings := (unoptimized - optimized) / unoptimized * 100
	if savings < 0 {
		return 0
	}
	return savings
}

// descOf returns the description for an occurrence, or a generic zero-value
// stand-in when the description stage produced none for this path.
func descOf(descs map[string]models.Description, occ models.ImageOccurrence) models.Description {
	if d, ok := descs[occ.Path]; ok {
		return d
	}
	return models.Description{Category: models.CategoryGeneric}
}
