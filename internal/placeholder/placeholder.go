// Package placeholder recognizes dimension-encoded stock-photo URLs such as
// https://picsum.photos/seed/milano/800/600 and parses their size and seed.
package placeholder

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mockpix/mockpix/internal/models"
)

// pattern describes one known placeholder URL shape. Submatch indexes refer
// to capture groups in the regexp; 0 means the group does not exist for this
// provider.
type pattern struct {
	re        *regexp.Regexp
	seedIdx   int
	widthIdx  int
	heightIdx int
}

// Known placeholder providers. Width is always captured; height is optional
// (a single size means a square). Seed is optional.
var patterns = []pattern{
	// picsum.photos/800/600, picsum.photos/seed/milano/800/600, picsum.photos/id/42/200
	{
		re:        regexp.MustCompile(`^https?://picsum\.photos(?:/seed/([^/?#]+)|/id/([0-9]+))?/([0-9]+)(?:/([0-9]+))?/?(?:[?#].*)?$`),
		seedIdx:   1,
		widthIdx:  3,
		heightIdx: 4,
	},
	// via.placeholder.com/300x200, placehold.co/600x400, optionally with text
	{
		re:        regexp.MustCompile(`^https?://(?:via\.placeholder\.com|placehold\.co)/([0-9]+)(?:x([0-9]+))?(?:/[^?#]*)?(?:[?#].*)?$`),
		widthIdx:  1,
		heightIdx: 2,
	},
	// dummyimage.com/640x480, dummyimage.com/300
	{
		re:        regexp.MustCompile(`^https?://dummyimage\.com/([0-9]+)(?:x([0-9]+))?(?:/[^?#]*)?(?:[?#].*)?$`),
		widthIdx:  1,
		heightIdx: 2,
	},
	// loremflickr.com/320/240, loremflickr.com/320/240/dog
	{
		re:        regexp.MustCompile(`^https?://loremflickr\.com/([0-9]+)/([0-9]+)(?:/[^?#]*)?(?:[?#].*)?$`),
		widthIdx:  1,
		heightIdx: 2,
	},
	// source.unsplash.com/random/800x600, source.unsplash.com/800x600
	{
		re:        regexp.MustCompile(`^https?://source\.unsplash\.com/(?:random/)?([0-9]+)x([0-9]+)(?:/[^?#]*)?(?:[?#].*)?$`),
		widthIdx:  1,
		heightIdx: 2,
	},
}

// picsum id seeds are captured in group 2 of the picsum pattern; they are
// treated as seeds so size variants of the same id resolve together.
const picsumIDIdx = 2

// Info is the parsed identity of a placeholder URL.
type Info struct {
	Seed       string
	Dimensions models.Dimensions
}

// Parse reports whether s is a recognized placeholder URL and returns its
// parsed seed and dimensions. URLs without any parseable dimension token are
// not placeholders; non-numeric dimension tokens make the value unusable and
// it is rejected the same way.
func Parse(s string) (Info, bool) {
	for i, p := range patterns {
		m := p.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}

		widthTok := m[p.widthIdx]
		if widthTok == "" {
			return Info{}, false
		}
		width, err := strconv.Atoi(widthTok)
		if err != nil {
			// Dimension token overflows or is malformed; skip this value.
			return Info{}, false
		}

		height := width // single size implies a square
		if p.heightIdx > 0 && m[p.heightIdx] != "" {
			height, err = strconv.Atoi(m[p.heightIdx])
			if err != nil {
				return Info{}, false
			}
		}

		if width <= 0 || height <= 0 {
			return Info{}, false
		}

		info := Info{Dimensions: models.Dimensions{Width: width, Height: height}}
		if p.seedIdx > 0 && m[p.seedIdx] != "" {
			info.Seed = m[p.seedIdx]
		}
		if i == 0 && info.Seed == "" && m[picsumIDIdx] != "" {
			info.Seed = "id:" + m[picsumIDIdx]
		}
		return info, true
	}
	return Info{}, false
}

// Match reports whether s looks like a placeholder image URL with parseable
// dimensions.
func Match(s string) bool {
	_, ok := Parse(s)
	return ok
}

// Normalize canonicalizes a URL for duplicate grouping: query parameters and
// fragments are stripped and the scheme/host/path are lower-cased. Seed
// values are case-sensitive on some providers, but placeholder seeds are
// conventionally lower-case so this keeps grouping simple.
func Normalize(rawURL string) string {
	s := rawURL
	if idx := strings.IndexAny(s, "?#"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSuffix(s, "/")
	return strings.ToLower(s)
}
