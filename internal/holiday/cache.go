package holiday

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// CacheEntry is a cached provider response.
type CacheEntry struct {
	Body      []byte
	FetchedAt time.Time
}

// Cache stores raw provider responses keyed by region and year. Get
// reports ok=false when nothing is cached.
type Cache interface {
	Get(ctx context.Context, region string, year int) (entry CacheEntry, ok bool, err error)
	Put(ctx context.Context, region string, year int, body []byte) error
}

// fileMeta sits next to each cached body.
type fileMeta struct {
	Region    string    `json:"region"`
	Year      int       `json:"year"`
	FetchedAt time.Time `json:"fetched_at"`
}

// FileCache keeps one body file per (region, year) under Dir, laid out as
// {Dir}/{REGION}/{YEAR}.json with a {YEAR}.meta.json sidecar.
type FileCache struct {
	Dir string
	now func() time.Time
}

func NewFileCache(dir string) *FileCache {
	if dir == "" {
		dir = "./data/holidays"
	}
	return &FileCache{Dir: dir, now: time.Now}
}

func (c *FileCache) paths(region string, year int) (body, meta string) {
	base := filepath.Join(c.Dir, region, strconv.Itoa(year))
	return base + ".json", base + ".meta.json"
}

func (c *FileCache) Get(_ context.Context, region string, year int) (CacheEntry, bool, error) {
	bodyPath, metaPath := c.paths(region, year)

	body, err := os.ReadFile(bodyPath)
	if errors.Is(err, fs.ErrNotExist) {
		return CacheEntry{}, false, nil
	}
	if err != nil {
		return CacheEntry{}, false, fmt.Errorf("read cache %s: %w", bodyPath, err)
	}

	entry := CacheEntry{Body: body}

	// A missing or broken sidecar falls back to the body's mtime.
	var meta fileMeta
	if raw, err := os.ReadFile(metaPath); err == nil && json.Unmarshal(raw, &meta) == nil && !meta.FetchedAt.IsZero() {
		entry.FetchedAt = meta.FetchedAt
	} else if info, err := os.Stat(bodyPath); err == nil {
		entry.FetchedAt = info.ModTime()
	}
	return entry, true, nil
}

func (c *FileCache) Put(_ context.Context, region string, year int, body []byte) error {
	bodyPath, metaPath := c.paths(region, year)
	if err := os.MkdirAll(filepath.Dir(bodyPath), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	meta, err := json.Marshal(fileMeta{Region: region, Year: year, FetchedAt: c.now().UTC()})
	if err != nil {
		return err
	}
	if err := writeFileAtomic(bodyPath, body); err != nil {
		return err
	}
	return writeFileAtomic(metaPath, meta)
}

// writeFileAtomic writes through a temp file and a rename so readers never
// see a partial body.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
