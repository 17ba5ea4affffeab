package placeholder

import (
	"testing"

	"github.com/mockpix/mockpix/internal/models"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantOK   bool
		wantSeed string
		wantDims models.Dimensions
	}{
		{
			name:     "picsum width and height",
			url:      "https://picsum.photos/800/600",
			wantOK:   true,
			wantDims: models.Dimensions{Width: 800, Height: 600},
		},
		{
			name:     "picsum single size is square",
			url:      "https://picsum.photos/200",
			wantOK:   true,
			wantDims: models.Dimensions{Width: 200, Height: 200},
		},
		{
			name:     "picsum with seed",
			url:      "https://picsum.photos/seed/milano/800/600",
			wantOK:   true,
			wantSeed: "milano",
			wantDims: models.Dimensions{Width: 800, Height: 600},
		},
		{
			name:     "picsum with id",
			url:      "https://picsum.photos/id/42/300/300",
			wantOK:   true,
			wantSeed: "id:42",
			wantDims: models.Dimensions{Width: 300, Height: 300},
		},
		{
			name:     "picsum query params ignored",
			url:      "https://picsum.photos/640/480?grayscale&blur=2",
			wantOK:   true,
			wantDims: models.Dimensions{Width: 640, Height: 480},
		},
		{
			name:     "via.placeholder",
			url:      "https://via.placeholder.com/300x200",
			wantOK:   true,
			wantDims: models.Dimensions{Width: 300, Height: 200},
		},
		{
			name:     "placehold.co square",
			url:      "https://placehold.co/400",
			wantOK:   true,
			wantDims: models.Dimensions{Width: 400, Height: 400},
		},
		{
			name:     "dummyimage",
			url:      "https://dummyimage.com/640x480",
			wantOK:   true,
			wantDims: models.Dimensions{Width: 640, Height: 480},
		},
		{
			name:     "loremflickr with topic",
			url:      "https://loremflickr.com/320/240/dog",
			wantOK:   true,
			wantDims: models.Dimensions{Width: 320, Height: 240},
		},
		{
			name:     "unsplash source",
			url:      "https://source.unsplash.com/random/800x600",
			wantOK:   true,
			wantDims: models.Dimensions{Width: 800, Height: 600},
		},
		{
			name:   "plain URL is not a placeholder",
			url:    "https://example.com/photo.jpg",
			wantOK: false,
		},
		{
			name:   "picsum without dimensions",
			url:    "https://picsum.photos/",
			wantOK: false,
		},
		{
			name:   "zero dimension rejected",
			url:    "https://picsum.photos/0/600",
			wantOK: false,
		},
		{
			name:   "overflowing dimension token skipped",
			url:    "https://picsum.photos/99999999999999999999/600",
			wantOK: false,
		},
		{
			name:   "not a URL",
			url:    "hello world",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, ok := Parse(tt.url)
			if ok != tt.wantOK {
				t.Fatalf("Parse(%q) ok = %v, want %v", tt.url, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if info.Seed != tt.wantSeed {
				t.Errorf("Parse(%q) seed = %q, want %q", tt.url, info.Seed, tt.wantSeed)
			}
			if info.Dimensions != tt.wantDims {
				t.Errorf("Parse(%q) dims = %+v, want %+v", tt.url, info.Dimensions, tt.wantDims)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "strips query",
			url:  "https://picsum.photos/800/600?grayscale",
			want: "https://picsum.photos/800/600",
		},
		{
			name: "lowercases host and path",
			url:  "HTTPS://Picsum.Photos/Seed/Milano/800/600",
			want: "https://picsum.photos/seed/milano/800/600",
		},
		{
			name: "strips trailing slash",
			url:  "https://picsum.photos/800/600/",
			want: "https://picsum.photos/800/600",
		},
		{
			name: "strips fragment",
			url:  "https://placehold.co/300x200#main",
			want: "https://placehold.co/300x200",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.url); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}
