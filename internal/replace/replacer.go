// Package replace rewrites placeholder image URLs in a JSON document with
// generated image URLs, preserving document structure.
package replace

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mockpix/mockpix/internal/models"
	"github.com/mockpix/mockpix/internal/placeholder"
)

// Options controls replacement behavior.
type Options struct {
	// DeepCopy leaves the input document untouched and rewrites a copy.
	DeepCopy bool
	// PreferCDNURLs substitutes the CDN URL when one is known for the
	// original URL.
	PreferCDNURLs bool
	// PreserveOriginalOnFailure keeps unresolved URLs as-is and counts them
	// as failures instead of recording a no-op fallback substitution.
	PreserveOriginalOnFailure bool
	// ValidateURLs issues an existence check per replacement URL after the
	// rewrite. Validation failures are recorded, never fatal.
	ValidateURLs bool
	// ValidateTimeout bounds each validation request. Defaults to 5s.
	ValidateTimeout time.Duration
}

type mappingEntry struct {
	url    string
	cdnURL string
	info   placeholder.Info
	parsed bool
}

// Replacer rewrites placeholder URLs using the mapping tables produced by
// the generation driver.
type Replacer struct {
	opts   Options
	client *http.Client
}

// New returns a Replacer with the given options.
func New(opts Options) *Replacer {
	if opts.ValidateTimeout <= 0 {
		opts.ValidateTimeout = 5 * time.Second
	}
	return &Replacer{
		opts:   opts,
		client: &http.Client{Timeout: opts.ValidateTimeout},
	}
}

// Replace walks the document the same way extraction does and substitutes
// every placeholder URL it can resolve. Resolution order: a direct match on
// the normalized URL, then a variant match sharing the same seed or the
// same dimensions, then a fallback to the original URL.
func (r *Replacer) Replace(doc any, urls map[string]string, cdnURLs map[string]string) (*models.ReplacementResult, error) {
	result := &models.ReplacementResult{}

	target := doc
	if r.opts.DeepCopy {
		copied, err := deepCopy(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to deep copy document: %w", err)
		}
		target = copied
	}

	lookup := buildLookup(urls, cdnURLs)

	// A document whose root is itself a placeholder string has no enclosing
	// container for walk to mutate; substitute it here.
	if s, ok := target.(string); ok && placeholder.Match(s) {
		target = r.substitute(s, "", "", -1, lookup, result)
	} else {
		r.walk(target, "", -1, lookup, result)
	}
	result.Document = target

	slog.Info("Replaced image URLs", "replaced", result.ReplacedCount, "failed", result.FailedCount)

	if r.opts.ValidateURLs {
		r.validate(result)
	}

	return result, nil
}

// lookupTable holds mapping entries keyed by normalized original URL, with
// the keys pre-sorted so variant scans are deterministic without re-sorting
// per unresolved URL.
type lookupTable struct {
	entries map[string]mappingEntry
	keys    []string
}

// buildLookup keys mapping entries by normalized original URL and
// pre-parses each key's placeholder info for variant matching.
func buildLookup(urls map[string]string, cdnURLs map[string]string) *lookupTable {
	lookup := &lookupTable{
		entries: make(map[string]mappingEntry, len(urls)),
	}
	for original, replacement := range urls {
		norm := placeholder.Normalize(original)
		entry := mappingEntry{url: replacement, cdnURL: cdnURLs[original]}
		if info, ok := placeholder.Parse(original); ok {
			entry.info = info
			entry.parsed = true
		}
		if _, seen := lookup.entries[norm]; !seen {
			lookup.keys = append(lookup.keys, norm)
		}
		lookup.entries[norm] = entry
	}
	sort.Strings(lookup.keys)
	return lookup
}

func (r *Replacer) walk(node any, path string, itemIndex int, lookup *lookupTable, result *models.ReplacementResult) {
	switch v := node.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			childPath := k
			if path != "" {
				childPath = path + "." + k
			}
			if s, ok := v[k].(string); ok && placeholder.Match(s) {
				v[k] = r.substitute(s, childPath, k, itemIndex, lookup, result)
				continue
			}
			r.walk(v[k], childPath, itemIndex, lookup, result)
		}
	case []any:
		for i := range v {
			childPath := path + "[" + strconv.Itoa(i) + "]"
			if s, ok := v[i].(string); ok && placeholder.Match(s) {
				v[i] = r.substitute(s, childPath, fieldName(path), i, lookup, result)
				continue
			}
			r.walk(v[i], childPath, i, lookup, result)
		}
	}
}

// substitute resolves one placeholder URL and records the outcome.
func (r *Replacer) substitute(url, path, field string, itemIndex int, lookup *lookupTable, result *models.ReplacementResult) string {
	entry, rtype, ok := resolve(url, lookup)
	if !ok {
		if r.opts.PreserveOriginalOnFailure {
			result.FailedCount++
			result.Errors = append(result.Errors, fmt.Sprintf("no replacement found for %s at %s", url, path))
			return url
		}
		// Fallback keeps the original URL but still counts as handled.
		result.Mappings = append(result.Mappings, models.URLMapping{
			OriginalURL: url,
			NewURL:      url,
			Path:        path,
			FieldName:   field,
			ItemIndex:   itemIndex,
			Type:        models.ReplaceFallback,
		})
		result.ReplacedCount++
		return url
	}

	newURL := entry.url
	if r.opts.PreferCDNURLs && entry.cdnURL != "" {
		newURL = entry.cdnURL
	}

	result.Mappings = append(result.Mappings, models.URLMapping{
		OriginalURL: url,
		NewURL:      newURL,
		CDNURL:      entry.cdnURL,
		Path:        path,
		FieldName:   field,
		ItemIndex:   itemIndex,
		Type:        rtype,
	})
	result.ReplacedCount++
	return newURL
}

// resolve finds a mapping entry for the URL: direct match on the normalized
// URL first, then a variant sharing the same seed, then a variant with the
// same dimensions.
func resolve(url string, lookup *lookupTable) (mappingEntry, models.ReplacementType, bool) {
	norm := placeholder.Normalize(url)
	if entry, ok := lookup.entries[norm]; ok {
		return entry, models.ReplaceDirect, true
	}

	info, parsed := placeholder.Parse(url)
	if !parsed {
		return mappingEntry{}, "", false
	}

	if info.Seed != "" {
		for _, k := range lookup.keys {
			entry := lookup.entries[k]
			if entry.parsed && entry.info.Seed == info.Seed {
				return entry, models.ReplaceVariant, true
			}
		}
	}
	for _, k := range lookup.keys {
		entry := lookup.entries[k]
		if entry.parsed && entry.info.Dimensions == info.Dimensions {
			return entry, models.ReplaceVariant, true
		}
	}

	return mappingEntry{}, "", false
}

// validate issues a HEAD request per distinct replacement URL. Errors are
// appended to the result and never fail the replacement.
func (r *Replacer) validate(result *models.ReplacementResult) {
	seen := map[string]bool{}
	for _, m := range result.Mappings {
		if m.Type == models.ReplaceFallback || seen[m.NewURL] {
			continue
		}
		seen[m.NewURL] = true

		resp, err := r.client.Head(m.NewURL)
		if err != nil {
			result.ValidationErrors = append(result.ValidationErrors, fmt.Sprintf("validation failed for %s: %v", m.NewURL, err))
			continue
		}
		resp.Body.Close()
		if resp.StatusCode >= 400 {
			result.ValidationErrors = append(result.ValidationErrors, fmt.Sprintf("validation failed for %s: status %d", m.NewURL, resp.StatusCode))
		}
	}
}

// fieldName strips the array suffix from a path so elements of
// products[2].gallery report gallery as their field.
func fieldName(path string) string {
	if path == "" {
		return ""
	}
	if i := strings.LastIndex(path, "."); i >= 0 {
		path = path[i+1:]
	}
	if i := strings.LastIndex(path, "["); i >= 0 {
		path = path[:i]
	}
	return path
}

// deepCopy clones a JSON-shaped value via a marshal round trip.
func deepCopy(doc any) (any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var copied any
	if err := json.Unmarshal(raw, &copied); err != nil {
		return nil, err
	}
	return copied, nil
}
