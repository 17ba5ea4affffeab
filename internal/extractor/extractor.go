// Package extractor walks a JSON value and records every placeholder image
// URL it contains, together with the location and context of each occurrence.
package extractor

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/mockpix/mockpix/internal/models"
	"github.com/mockpix/mockpix/internal/placeholder"
)

// Extractor finds placeholder image URLs in decoded JSON values. The zero
// value is ready to use.
type Extractor struct{}

// New returns a new Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract performs a depth-first traversal of doc and returns every string
// leaf that matches a known placeholder URL shape. The input is assumed to be
// tree-shaped, as produced by encoding/json. No network calls are made.
func (e *Extractor) Extract(doc any) *models.ExtractionResult {
	result := &models.ExtractionResult{
		DuplicateGroups: make(map[string][]models.ImageOccurrence),
	}

	walk(doc, "", nil, -1, result)

	result.TotalFound = len(result.Occurrences)
	result.UniqueURLs = len(result.DuplicateGroups)

	slog.Debug("Extraction complete",
		"total_found", result.TotalFound,
		"unique_urls", result.UniqueURLs)

	return result
}

// walk visits one node. path is the structural locator built so far, parent
// is the nearest enclosing JSON object, and itemIndex is the index within the
// nearest enclosing array (-1 when there is none).
func walk(node any, path string, parent map[string]any, itemIndex int, result *models.ExtractionResult) {
	switch v := node.(type) {
	case map[string]any:
		// Map iteration order is randomized; sort keys so traversal order,
		// and everything downstream that depends on it, is stable.
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			childPath := key
			if path != "" {
				childPath = path + "." + key
			}
			walk(v[key], childPath, v, itemIndex, result)
		}
	case []any:
		for i, child := range v {
			walk(child, fmt.Sprintf("%s[%d]", path, i), parent, i, result)
		}
	case string:
		info, ok := placeholder.Parse(v)
		if !ok {
			return
		}

		occ := models.ImageOccurrence{
			URL:        v,
			Path:       path,
			FieldName:  fieldName(path),
			Context:    parent,
			Dimensions: info.Dimensions,
			Seed:       info.Seed,
			ItemIndex:  itemIndex,
		}
		result.Occurrences = append(result.Occurrences, occ)

		normalized := placeholder.Normalize(v)
		result.DuplicateGroups[normalized] = append(result.DuplicateGroups[normalized], occ)
	}
	// Numbers, booleans and nulls carry no URLs.
}

// fieldName returns the last path segment, without any array index suffix.
func fieldName(path string) string {
	last := path
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			last = path[i+1:]
			break
		}
	}
	// Trim a trailing [i] left by array traversal, e.g. tags[2].
	for i := 0; i < len(last); i++ {
		if last[i] == '[' {
			return last[:i]
		}
	}
	return last
}
