package extractor

import (
	"encoding/json"
	"testing"

	"github.com/mockpix/mockpix/internal/models"
)

func decode(t *testing.T, data string) any {
	t.Helper()
	var doc any
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		t.Fatalf("failed to decode test document: %v", err)
	}
	return doc
}

func TestExtractSingleImage(t *testing.T) {
	doc := decode(t, `{"img": "https://picsum.photos/800/600"}`)

	result := New().Extract(doc)

	if result.TotalFound != 1 {
		t.Fatalf("Expected TotalFound=1, got %d", result.TotalFound)
	}

	occ := result.Occurrences[0]
	if occ.URL != "https://picsum.photos/800/600" {
		t.Errorf("Expected URL to be preserved, got %q", occ.URL)
	}
	if occ.Path != "img" {
		t.Errorf("Expected path=img, got %q", occ.Path)
	}
	if occ.FieldName != "img" {
		t.Errorf("Expected field name=img, got %q", occ.FieldName)
	}
	want := models.Dimensions{Width: 800, Height: 600}
	if occ.Dimensions != want {
		t.Errorf("Expected dimensions %+v, got %+v", want, occ.Dimensions)
	}
	if occ.Seed != "" {
		t.Errorf("Expected no seed, got %q", occ.Seed)
	}
	if occ.ItemIndex != -1 {
		t.Errorf("Expected item index -1 outside arrays, got %d", occ.ItemIndex)
	}
}

func TestExtractNestedPaths(t *testing.T) {
	doc := decode(t, `{
		"products": [
			{"name": "Lamp", "thumbnail": "https://picsum.photos/200/200"},
			{"name": "Desk", "thumbnail": "https://picsum.photos/200/200"},
			{"name": "Chair", "gallery": ["https://picsum.photos/seed/chair/640/480"]}
		],
		"title": "Catalog"
	}`)

	result := New().Extract(doc)

	if result.TotalFound != 3 {
		t.Fatalf("Expected 3 occurrences, got %d", result.TotalFound)
	}

	paths := make(map[string]models.ImageOccurrence)
	for _, occ := range result.Occurrences {
		paths[occ.Path] = occ
	}

	occ, ok := paths["products[0].thumbnail"]
	if !ok {
		t.Fatalf("Missing occurrence for products[0].thumbnail, have %v", keysOf(paths))
	}
	if occ.ItemIndex != 0 {
		t.Errorf("Expected item index 0, got %d", occ.ItemIndex)
	}
	if occ.FieldName != "thumbnail" {
		t.Errorf("Expected field name thumbnail, got %q", occ.FieldName)
	}
	if occ.Context == nil || occ.Context["name"] != "Lamp" {
		t.Errorf("Expected context to snapshot the enclosing object, got %v", occ.Context)
	}

	occ, ok = paths["products[2].gallery[0]"]
	if !ok {
		t.Fatalf("Missing occurrence for products[2].gallery[0], have %v", keysOf(paths))
	}
	if occ.Seed != "chair" {
		t.Errorf("Expected seed chair, got %q", occ.Seed)
	}
	if occ.FieldName != "gallery" {
		t.Errorf("Expected field name gallery, got %q", occ.FieldName)
	}
	if occ.ItemIndex != 0 {
		t.Errorf("Expected item index 0 for gallery entry, got %d", occ.ItemIndex)
	}
}

func TestExtractDuplicateGrouping(t *testing.T) {
	doc := decode(t, `{
		"a": "https://picsum.photos/200/200",
		"b": "https://picsum.photos/200/200?grayscale",
		"c": "https://picsum.photos/300/300"
	}`)

	result := New().Extract(doc)

	if result.TotalFound != 3 {
		t.Fatalf("Expected 3 occurrences, got %d", result.TotalFound)
	}
	if result.UniqueURLs != 2 {
		t.Errorf("Expected 2 unique normalized URLs, got %d", result.UniqueURLs)
	}

	group := result.DuplicateGroups["https://picsum.photos/200/200"]
	if len(group) != 2 {
		t.Errorf("Expected 2 occurrences in the duplicate group, got %d", len(group))
	}
}

func TestExtractSkipsNonPlaceholders(t *testing.T) {
	doc := decode(t, `{
		"photo": "https://example.com/real-photo.jpg",
		"count": 42,
		"active": true,
		"nothing": null,
		"nested": {"bad": "https://picsum.photos/"}
	}`)

	result := New().Extract(doc)

	if result.TotalFound != 0 {
		t.Errorf("Expected no occurrences, got %d", result.TotalFound)
	}
}

func TestExtractDeterministicOrder(t *testing.T) {
	raw := `{
		"zebra": "https://picsum.photos/100/100",
		"apple": "https://picsum.photos/200/200",
		"mango": "https://picsum.photos/300/300"
	}`

	first := New().Extract(decode(t, raw))
	for i := 0; i < 5; i++ {
		again := New().Extract(decode(t, raw))
		for j := range first.Occurrences {
			if first.Occurrences[j].Path != again.Occurrences[j].Path {
				t.Fatalf("Traversal order changed between runs: %q vs %q",
					first.Occurrences[j].Path, again.Occurrences[j].Path)
			}
		}
	}

	// Keys are visited in sorted order.
	wantOrder := []string{"apple", "mango", "zebra"}
	for i, want := range wantOrder {
		if first.Occurrences[i].Path != want {
			t.Errorf("Expected occurrence %d at %q, got %q", i, want, first.Occurrences[i].Path)
		}
	}
}

func keysOf(m map[string]models.ImageOccurrence) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
