// Package cache provides a file-backed, time-boxed memoization layer used in
// front of expensive remote queries.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// envelope is the on-disk layout: one JSON file per key with the payload and
// its validity window.
type envelope struct {
	CacheData json.RawMessage `json:"cache_data"`
	IsValidTo time.Time       `json:"is_valid_to"`
	CreatedAt time.Time       `json:"created_at"`
}

// FileCache memoizes producer results on disk for a fixed validity window.
//
// There is deliberately no per-key mutual exclusion: two callers racing on
// the same missing or expired key will both invoke the producer and both
// write the file, last write winning. Callers must not rely on this cache
// for single-flight behaviour.
type FileCache struct {
	dir string
	ttl time.Duration
	log *logrus.Logger
	now func() time.Time
}

// New creates a FileCache rooted at dir, creating the directory if needed.
func New(dir string, ttl time.Duration, log *logrus.Logger) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileCache{dir: dir, ttl: ttl, log: log, now: time.Now}, nil
}

// Execute returns the cached payload for key when it is still valid;
// otherwise it invokes producer, stores the result with a fresh validity
// window and returns it. An unreadable or corrupt cache file counts as a
// miss, never as an error.
func (c *FileCache) Execute(key string, producer func() (json.RawMessage, error)) (json.RawMessage, error) {
	path := c.path(key)

	if data, err := os.ReadFile(path); err == nil {
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.log.WithFields(logrus.Fields{"key": key, "err": err}).
				Warn("cache corrompido, tratando como miss")
		} else if c.now().Before(env.IsValidTo) {
			return env.CacheData, nil
		}
	}

	payload, err := producer()
	if err != nil {
		return nil, err
	}

	env := envelope{
		CacheData: payload,
		IsValidTo: c.now().Add(c.ttl),
		CreatedAt: c.now(),
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal cache entry: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		// A failed write only costs the memoization, not the result.
		c.log.WithFields(logrus.Fields{"key": key, "err": err}).
			Warn("falha ao gravar cache")
	}
	return payload, nil
}

// Clear deletes one cache file. A missing file is not an error.
func (c *FileCache) Clear(key string) error {
	err := os.Remove(c.path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ClearAll deletes every cache file in the directory.
func (c *FileCache) ClearAll() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (c *FileCache) path(key string) string {
	return filepath.Join(c.dir, sanitizeKey(key)+".json")
}

// sanitizeKey makes a key safe to use as a file name.
func sanitizeKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
