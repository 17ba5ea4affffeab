// Package describe infers a semantic category for each extracted image
// occurrence and assembles the natural-language prompt used to generate a
// replacement image.
package describe

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"strings"

	"github.com/mockpix/mockpix/internal/models"
)

// DefaultMaxPromptLen caps the enhanced prompt sent to image providers.
const DefaultMaxPromptLen = 400

// Options configures prompt generation.
type Options struct {
	Style        string // professional, artistic, realistic, casual
	Locale       string // BCP 47 language code, e.g. "it"
	MaxPromptLen int    // rune cap on the enhanced prompt; 0 means DefaultMaxPromptLen
	Seed         int64  // seeds the locale phrase picker; 0 means a fixed default
}

// Describer builds descriptions for image occurrences.
type Describer struct {
	opts Options
	rng  *rand.Rand
}

// New returns a Describer with the given options.
func New(opts Options) *Describer {
	if opts.MaxPromptLen <= 0 {
		opts.MaxPromptLen = DefaultMaxPromptLen
	}
	seed := opts.Seed
	if seed == 0 {
		seed = 1
	}
	return &Describer{
		opts: opts,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// keywordEntry maps a field-name keyword to a category. Entries are matched
// by substring; the longest matching keyword wins and ties keep the earliest
// entry.
type keywordEntry struct {
	keyword  string
	category models.Category
}

var keywordTable = []keywordEntry{
	{"avatar", models.CategoryAvatar},
	{"profile", models.CategoryAvatar},
	{"portrait", models.CategoryAvatar},
	{"user", models.CategoryAvatar},
	{"logo", models.CategoryLogo},
	{"icon", models.CategoryLogo},
	{"banner", models.CategoryBanner},
	{"hero", models.CategoryBanner},
	{"header", models.CategoryBanner},
	{"cover", models.CategoryBanner},
	{"product", models.CategoryProduct},
	{"item", models.CategoryProduct},
	{"goods", models.CategoryProduct},
	{"food", models.CategoryFood},
	{"meal", models.CategoryFood},
	{"dish", models.CategoryFood},
	{"recipe", models.CategoryFood},
	{"fashion", models.CategoryFashion},
	{"clothing", models.CategoryFashion},
	{"apparel", models.CategoryFashion},
	{"outfit", models.CategoryFashion},
	{"location", models.CategoryLocation},
	{"place", models.CategoryLocation},
	{"venue", models.CategoryLocation},
	{"city", models.CategoryLocation},
	{"landscape", models.CategoryNature},
	{"nature", models.CategoryNature},
	{"outdoor", models.CategoryNature},
	{"vehicle", models.CategoryVehicle},
	{"car", models.CategoryVehicle},
	{"auto", models.CategoryVehicle},
	{"photo", models.CategoryGeneric},
	{"picture", models.CategoryGeneric},
	{"image", models.CategoryGeneric},
	{"img", models.CategoryGeneric},
	{"thumbnail", models.CategoryGeneric},
	{"thumb", models.CategoryGeneric},
}

// canonicalPhrases is the base prompt text per category.
var canonicalPhrases = map[models.Category]string{
	models.CategoryProduct:  "professional product photography on a clean background",
	models.CategoryAvatar:   "portrait photo of a person, head and shoulders",
	models.CategoryLogo:     "minimalist logo design, flat vector style",
	models.CategoryBanner:   "wide promotional banner image",
	models.CategoryFood:     "appetizing food photography",
	models.CategoryFashion:  "fashion photography, editorial style",
	models.CategoryLocation: "scenic photograph of a location",
	models.CategoryNature:   "natural landscape photography",
	models.CategoryVehicle:  "automotive photography",
	models.CategoryGeneric:  "high quality photograph",
}

// stylePhrases is appended to the prompt per configured style.
var stylePhrases = map[string]string{
	"professional": "professional photography, studio lighting, high quality",
	"artistic":     "artistic style, creative composition, dramatic lighting",
	"realistic":    "photorealistic, natural lighting, high detail",
	"casual":       "casual snapshot style, natural setting",
}

// Descriptive sibling fields scanned for context text, in scan order.
var contextFields = []string{
	"name", "title", "description", "brand", "category",
	"location", "type", "style", "color", "material",
}

// Commercial sibling fields nudge the category toward product.
var commercialFields = []string{"price", "cost", "amount"}

// Creative-credit sibling fields nudge the category toward avatar.
var creativeFields = []string{"author", "creator"}

// localePhrases offers locale-flavored phrases keyed by category. When a
// locale is configured, one matching phrase is picked at random; locales or
// categories without an entry fall back to the locale's generic phrase.
var localePhrases = map[string]map[models.Category][]string{
	"it": {
		models.CategoryFood:     {"italian cuisine", "mediterranean table setting"},
		models.CategoryLocation: {"italian cityscape", "tuscan countryside"},
		models.CategoryFashion:  {"milan fashion aesthetic"},
		models.CategoryGeneric:  {"italian style"},
	},
	"fr": {
		models.CategoryFood:     {"french cuisine", "parisian bistro style"},
		models.CategoryLocation: {"parisian street scene", "french countryside"},
		models.CategoryGeneric:  {"french aesthetic"},
	},
	"ja": {
		models.CategoryFood:     {"japanese cuisine", "washoku presentation"},
		models.CategoryLocation: {"tokyo street scene", "japanese garden"},
		models.CategoryGeneric:  {"japanese minimalist aesthetic"},
	},
	"de": {
		models.CategoryFood:     {"german cuisine"},
		models.CategoryLocation: {"german old town scene"},
		models.CategoryGeneric:  {"german design aesthetic"},
	},
}

// Describe builds a Description for one occurrence.
func (d *Describer) Describe(occ models.ImageOccurrence) models.Description {
	return d.describe(occ, "")
}

// DescribeAll describes a batch of occurrences, keyed by occurrence path.
// Before describing, occurrences are grouped by a shared-context key; when
// every member of a group of two or more agrees on the value of a descriptive
// field, that value is injected as shared base context so prompts within the
// group do not drift apart. Category assignment is unaffected.
func (d *Describer) DescribeAll(occs []models.ImageOccurrence) map[string]models.Description {
	shared := sharedContexts(occs)

	out := make(map[string]models.Description, len(occs))
	for _, occ := range occs {
		out[occ.Path] = d.describe(occ, shared[occ.Path])
	}

	slog.Debug("Described occurrences", "count", len(out))
	return out
}

func (d *Describer) describe(occ models.ImageOccurrence, sharedBase string) models.Description {
	field := strings.ToLower(occ.FieldName)

	category, keywordHits := matchCategory(field)
	confidence := 0.2 * float64(keywordHits)

	// Field-name pattern bonuses.
	if strings.Contains(field, "thumb") {
		confidence += 0.2
	}
	if strings.Contains(field, "banner") || strings.Contains(field, "hero") {
		confidence += 0.3
	}
	if occ.Dimensions.Width == occ.Dimensions.Height {
		confidence += 0.2
	}

	contextText, contextHits := scanContext(occ.Context)
	contextBonus := 0.1 * float64(contextHits)
	if contextBonus > 0.5 {
		contextBonus = 0.5
	}
	confidence += contextBonus

	if category == models.CategoryGeneric {
		if hasAnyField(occ.Context, commercialFields) {
			category = models.CategoryProduct
			confidence += 0.1
		} else if hasAnyField(occ.Context, creativeFields) {
			category = models.CategoryAvatar
			confidence += 0.1
		}
	}

	confidence = clamp01(confidence)

	baseContext := contextText
	if sharedBase != "" {
		baseContext = sharedBase
	}

	prompt := canonicalPhrases[category]
	if confidence > 0.3 && baseContext != "" {
		prompt = baseContext + ", " + prompt
	}

	desc := models.Description{
		Prompt:      prompt,
		Category:    category,
		Confidence:  confidence,
		BaseContext: baseContext,
		Style:       d.opts.Style,
	}
	desc.EnhancedPrompt = d.enhance(prompt, category, occ.Dimensions)
	return desc
}

// enhance appends composition, style and locale phrases, then applies the
// configured length cap.
func (d *Describer) enhance(prompt string, category models.Category, dims models.Dimensions) string {
	parts := []string{prompt}

	if hint := compositionHint(dims); hint != "" {
		parts = append(parts, hint)
	}
	if phrase, ok := stylePhrases[d.opts.Style]; ok {
		parts = append(parts, phrase)
	}
	if d.opts.Locale != "" {
		if phrase := d.localePhrase(category); phrase != "" {
			parts = append(parts, phrase)
		}
	}

	return truncate(strings.Join(parts, ", "), d.opts.MaxPromptLen)
}

// localePhrase picks a locale-flavored phrase for the category, falling back
// to the locale's generic phrase.
func (d *Describer) localePhrase(category models.Category) string {
	table, ok := localePhrases[d.opts.Locale]
	if !ok {
		return ""
	}
	phrases := table[category]
	if len(phrases) == 0 {
		phrases = table[models.CategoryGeneric]
	}
	if len(phrases) == 0 {
		return ""
	}
	return phrases[d.rng.Intn(len(phrases))]
}

// matchCategory finds the category for a field name. The longest matching
// keyword wins; ties keep the earliest table entry. The hit count covers all
// matching keywords and feeds the confidence score.
func matchCategory(field string) (models.Category, int) {
	best := models.CategoryGeneric
	bestLen := 0
	hits := 0
	for _, entry := range keywordTable {
		if !strings.Contains(field, entry.keyword) {
			continue
		}
		hits++
		if len(entry.keyword) > bestLen {
			best = entry.category
			bestLen = len(entry.keyword)
		}
	}
	return best, hits
}

// scanContext joins descriptive sibling fields into a lower-cased free-text
// context string and counts how many were present.
func scanContext(ctx map[string]any) (string, int) {
	if ctx == nil {
		return "", 0
	}

	var parts []string
	hits := 0
	for _, field := range contextFields {
		v, ok := ctx[field]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			continue
		}
		hits++
		parts = append(parts, strings.ToLower(strings.TrimSpace(s)))
	}

	text := strings.Join(parts, " ")
	if len(text) > 120 {
		text = truncate(text, 120)
	}
	return text, hits
}

func hasAnyField(ctx map[string]any, fields []string) bool {
	if ctx == nil {
		return false
	}
	for _, f := range fields {
		if _, ok := ctx[f]; ok {
			return true
		}
	}
	return false
}

// compositionHint derives a framing hint from the aspect ratio: equal sides
// are square, width over twice the height is a wide banner, taller than wide
// is vertical.
func compositionHint(dims models.Dimensions) string {
	switch {
	case dims.Width == dims.Height:
		return "square composition"
	case dims.Width > 2*dims.Height:
		return "wide banner format"
	case dims.Height > dims.Width:
		return "vertical composition"
	}
	return ""
}

// truncate caps s at max runes, appending an ellipsis. Operating on runes
// keeps multi-byte characters intact.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// sharedContexts computes the shared base context per occurrence path.
// Occurrences are bucketed by the values of their category/type/brand context
// fields plus exact dimensions; inside each bucket of two or more, a
// descriptive field on which all members unanimously agree contributes its
// value to the shared context.
func sharedContexts(occs []models.ImageOccurrence) map[string]string {
	buckets := make(map[string][]models.ImageOccurrence)
	for _, occ := range occs {
		key := contextKey(occ)
		buckets[key] = append(buckets[key], occ)
	}

	shared := make(map[string]string)
	for _, members := range buckets {
		if len(members) < 2 {
			continue
		}

		var agreed []string
		for _, field := range contextFields {
			value, ok := unanimousValue(members, field)
			if ok {
				agreed = append(agreed, value)
			}
		}
		if len(agreed) == 0 {
			continue
		}

		sort.Strings(agreed)
		text := strings.ToLower(strings.Join(agreed, " "))
		for _, occ := range members {
			shared[occ.Path] = text
		}
	}
	return shared
}

// contextKey buckets occurrences that plausibly depict the same thing.
func contextKey(occ models.ImageOccurrence) string {
	var parts []string
	for _, field := range []string{"category", "type", "brand"} {
		if v, ok := occ.Context[field].(string); ok {
			parts = append(parts, strings.ToLower(v))
		} else {
			parts = append(parts, "")
		}
	}
	parts = append(parts, fmt.Sprintf("%dx%d", occ.Dimensions.Width, occ.Dimensions.Height))
	return strings.Join(parts, "|")
}

// unanimousValue returns the value of field if every member carries it with
// the same string value.
func unanimousValue(members []models.ImageOccurrence, field string) (string, bool) {
	var value string
	for i, occ := range members {
		v, ok := occ.Context[field].(string)
		if !ok || strings.TrimSpace(v) == "" {
			return "", false
		}
		if i == 0 {
			value = v
			continue
		}
		if v != value {
			return "", false
		}
	}
	return value, value != ""
}
