// Package mockdata produces synthetic JSON records that mirror the structure
// of a sample record, either through a text-generation provider or offline
// with faked values.
package mockdata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/mockpix/mockpix/internal/models"
	"github.com/mockpix/mockpix/internal/placeholder"
	"github.com/mockpix/mockpix/internal/providers"
)

// Generator builds mock records from a sample structure.
type Generator struct {
	provider    providers.TextProvider
	model       string
	temperature float64
	faker       *gofakeit.Faker
}

// New returns a Generator. A nil provider means offline generation only.
func New(provider providers.TextProvider, model string, temperature float64) *Generator {
	return &Generator{
		provider:    provider,
		model:       model,
		temperature: temperature,
		faker:       gofakeit.New(0),
	}
}

// Seed reseeds the offline faker for reproducible output.
func (g *Generator) Seed(seed int64) {
	g.faker = gofakeit.New(seed)
}

// Generate produces count records shaped like sample. With a provider
// configured it asks the model for the records; a provider failure or an
// unparseable response falls back to offline generation with a warning.
func (g *Generator) Generate(ctx context.Context, sample any, count int) ([]any, error) {
	if count <= 0 {
		return nil, fmt.Errorf("record count must be positive, got %d", count)
	}

	if g.provider == nil {
		return g.generateOffline(sample, count), nil
	}

	prompt, err := g.buildPrompt(sample, count)
	if err != nil {
		return nil, err
	}

	response, err := g.provider.GenerateText(ctx, providers.Config{
		Model:       g.model,
		Temperature: g.temperature,
		Prompt:      prompt,
	})
	if err != nil {
		slog.Warn("Text provider failed, falling back to offline generation", "error", err)
		return g.generateOffline(sample, count), nil
	}

	records, err := extractRecords(response)
	if err != nil {
		slog.Warn("Failed to parse provider response, falling back to offline generation", "error", err)
		return g.generateOffline(sample, count), nil
	}

	slog.Info("Generated mock records", "count", len(records), "model", g.model)
	return records, nil
}

// buildPrompt asks the model for structure-preserving records.
func (g *Generator) buildPrompt(sample any, count int) (string, error) {
	sampleJSON, err := json.MarshalIndent(sample, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal sample record: %w", err)
	}

	return fmt.Sprintf(`You are a test-data engineer generating realistic mock records for a development database.

Your task is to produce %d JSON records with EXACTLY the same structure as the sample record below: the same field names, the same nesting, the same value types, and arrays of the same length.

INSTRUCTIONS:
1. Vary the field values realistically between records; do not copy the sample's values.
2. Keep every image URL in the same placeholder format as the sample (for example https://picsum.photos/seed/<seed>/<width>/<height>), with a different seed per record but the same dimensions.
3. Keep numbers within a plausible range for their field name.
4. Do not add, remove or rename any fields.

SAMPLE RECORD:
%s

OUTPUT FORMAT:
Respond with ONLY a JSON array of %d record objects. No markdown, no commentary.`, count, string(sampleJSON), count), nil
}

// extractRecords parses the JSON array out of a model response. Falls back
// to the outermost bracketed substring when the response carries extra text.
func extractRecords(response string) ([]any, error) {
	// Trim any markdown code blocks
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	var records []any
	if err := json.Unmarshal([]byte(response), &records); err == nil {
		return records, nil
	}

	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON array found in response")
	}
	if err := json.Unmarshal([]byte(response[start:end+1]), &records); err != nil {
		return nil, fmt.Errorf("failed to parse records from response: %w", err)
	}
	return records, nil
}

// generateOffline clones the sample structure count times with faked values.
func (g *Generator) generateOffline(sample any, count int) []any {
	records := make([]any, 0, count)
	for i := 0; i < count; i++ {
		records = append(records, g.fakeValue("", sample))
	}
	return records
}

// fakeValue rebuilds one value with fake content. Field names steer string
// generation; placeholder image URLs keep their dimensions with a new seed.
func (g *Generator) fakeValue(field string, v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = g.fakeValue(k, child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = g.fakeValue(field, child)
		}
		return out
	case string:
		return g.fakeString(field, val)
	case float64:
		return g.fakeNumber(field, val)
	case bool:
		return g.faker.Bool()
	default:
		return val
	}
}

func (g *Generator) fakeString(field, original string) string {
	if info, ok := placeholder.Parse(original); ok {
		return placeholderURL(g.faker.Word(), info.Dimensions)
	}

	f := strings.ToLower(field)
	switch {
	case strings.Contains(f, "email"):
		return g.faker.Email()
	case strings.Contains(f, "phone"):
		return g.faker.Phone()
	case strings.Contains(f, "city") || strings.Contains(f, "location"):
		return g.faker.City()
	case strings.Contains(f, "country"):
		return g.faker.Country()
	case strings.Contains(f, "company") || strings.Contains(f, "brand") || strings.Contains(f, "manufacturer"):
		return g.faker.Company()
	case strings.Contains(f, "description") || strings.Contains(f, "summary") || strings.Contains(f, "bio"):
		return g.faker.Sentence(8)
	case strings.Contains(f, "color"):
		return g.faker.Color()
	case strings.Contains(f, "url") || strings.Contains(f, "link") || strings.Contains(f, "website"):
		return g.faker.URL()
	case strings.Contains(f, "id") || strings.Contains(f, "sku") || strings.Contains(f, "code"):
		return g.faker.UUID()
	case strings.Contains(f, "name") || strings.Contains(f, "title"):
		return g.faker.ProductName()
	default:
		return g.faker.Sentence(3)
	}
}

func (g *Generator) fakeNumber(field string, original float64) float64 {
	f := strings.ToLower(field)
	switch {
	case strings.Contains(f, "price") || strings.Contains(f, "cost") || strings.Contains(f, "amount"):
		return g.faker.Price(5, 500)
	case strings.Contains(f, "rating") || strings.Contains(f, "score"):
		return float64(g.faker.Number(10, 50)) / 10
	case strings.Contains(f, "age"):
		return float64(g.faker.Number(18, 80))
	case strings.Contains(f, "year"):
		return float64(g.faker.Number(1990, 2025))
	case original == float64(int(original)):
		return float64(g.faker.Number(1, 1000))
	default:
		return g.faker.Float64Range(0, 1000)
	}
}

func placeholderURL(seed string, dims models.Dimensions) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s/%d/%d", seed, dims.Width, dims.Height)
}
