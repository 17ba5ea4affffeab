// Package storage persists generated images and hands back publicly
// addressable URLs for them.
package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// StoredObject describes one uploaded image.
type StoredObject struct {
	URL    string `json:"url"`
	Key    string `json:"key"`
	CDNURL string `json:"cdn_url,omitempty"`
}

// Store uploads image bytes under a storage key and returns canonical and
// CDN URLs for them.
type Store interface {
	Upload(ctx context.Context, data []byte, key, contentType string) (*StoredObject, error)
}

// MakeKey builds a storage key of the form
// generated-images/<ISO-date>/<8-hex-hash>.<ext>. The hash mixes the
// suggested filename with the current time; collisions are accepted as
// negligible, not cryptographically excluded.
func MakeKey(filename string, now time.Time) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s-%d", filename, now.UnixNano())))
	hash := hex.EncodeToString(sum[:])[:8]

	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ext == "" {
		ext = "png"
	}

	return fmt.Sprintf("generated-images/%s/%s.%s", now.Format("2006-01-02"), hash, ext)
}

// LocalStore writes images to a directory served under a public base URL.
// It stands in for an S3-compatible bucket in local and test setups; the
// request-signing HTTP client for real buckets lives behind the same Store
// interface.
type LocalStore struct {
	Dir        string // root directory for image files
	BaseURL    string // public URL mapped to Dir
	CDNBaseURL string // optional CDN URL mapped to Dir
}

// NewLocalStore returns a LocalStore rooted at dir and served at baseURL.
func NewLocalStore(dir, baseURL, cdnBaseURL string) *LocalStore {
	return &LocalStore{
		Dir:        dir,
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		CDNBaseURL: strings.TrimSuffix(cdnBaseURL, "/"),
	}
}

// Upload writes data under key inside the store's directory.
func (s *LocalStore) Upload(ctx context.Context, data []byte, key, contentType string) (*StoredObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write image file: %w", err)
	}

	obj := &StoredObject{
		URL: s.BaseURL + "/" + key,
		Key: key,
	}
	if s.CDNBaseURL != "" {
		obj.CDNURL = s.CDNBaseURL + "/" + key
	}

	slog.Debug("Stored image", "key", key, "bytes", len(data), "content_type", contentType)
	return obj, nil
}
