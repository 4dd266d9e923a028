package tmdb

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// responseCache stores decoded upstream responses as JSON files with a TTL.
// Writes go through a temp file and rename so a crashed write never leaves a
// truncated entry behind.
type responseCache struct {
	dir string
	ttl time.Duration
}

func newResponseCache(dir string, ttl time.Duration) *responseCache {
	return &responseCache{dir: dir, ttl: ttl}
}

// cacheKey hashes the joined parts into a filesystem-safe name.
func cacheKey(parts ...string) string {
	h := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(h[:])
}

func (c *responseCache) get(key string, v any) bool {
	if c == nil || key == "" {
		return false
	}
	path := filepath.Join(c.dir, key+".json")
	fi, err := os.Stat(path)
	if err != nil {
		return false
	}
	if time.Since(fi.ModTime()) > c.ttl {
		_ = os.Remove(path)
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(v) == nil
}

func (c *responseCache) set(key string, v any) error {
	if c == nil {
		return nil
	}
	if key == "" {
		return errors.New("empty cache key")
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(c.dir, key+".json")
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(v); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// clear removes all cached responses. Used when the API key or language
// changes so stale-keyed data is not served.
func (c *responseCache) clear() error {
	if c == nil {
		return nil
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		_ = os.Remove(filepath.Join(c.dir, entry.Name()))
	}
	return nil
}
