package analyze

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/mockpix/mockpix/internal/models"
)

// Context fields compared when judging whether two occurrences depict the
// same thing.
var similarityFields = []string{"category", "type", "brand", "location", "name"}

// DescriptionSimilarity scores two descriptions in [0,1]: 0.4 for category
// equality, 0.4 for word overlap between the prompts, 0.2 for style equality.
func DescriptionSimilarity(a, b models.Description) float64 {
	score := 0.0
	if a.Category == b.Category {
		score += 0.4
	}
	score += 0.4 * jaccard(tokenize(a.Prompt), tokenize(b.Prompt))
	if a.Style == b.Style {
		score += 0.2
	}
	return score
}

// ContextSimilarity averages per-field string similarity over the key fields
// present in both contexts. Exact matches score 1.0; otherwise a normalized
// edit-distance similarity is used. Returns 0 when no field is shared.
func ContextSimilarity(a, b map[string]any) float64 {
	if a == nil || b == nil {
		return 0
	}

	total := 0.0
	compared := 0
	for _, field := range similarityFields {
		av, aok := stringField(a, field)
		bv, bok := stringField(b, field)
		if !aok || !bok {
			continue
		}
		compared++
		if av == bv {
			total += 1.0
			continue
		}
		total += stringSimilarity(av, bv)
	}

	if compared == 0 {
		return 0
	}
	return total / float64(compared)
}

// stringSimilarity is (len(longer) - editDistance) / len(longer), computed on
// lower-cased values.
func stringSimilarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	longer := len([]rune(a))
	if l := len([]rune(b)); l > longer {
		longer = l
	}
	if longer == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	sim := float64(longer-dist) / float64(longer)
	if sim < 0 {
		return 0
	}
	return sim
}

// jaccard computes word-set overlap between two token sets.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// tokenize splits a prompt into a lower-cased word set.
func tokenize(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		tok = strings.Trim(tok, ",.;:!?")
		if tok != "" {
			out[tok] = struct{}{}
		}
	}
	return out
}

func stringField(ctx map[string]any, field string) (string, bool) {
	v, ok := ctx[field]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}
