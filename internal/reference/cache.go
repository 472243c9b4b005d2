package reference

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	cacheEnvVar        = "EDUFORGE_CACHE_DIR"
	cacheSubdir        = "eduforge/references"
	cacheTTL           = 24 * time.Hour
	partialSuffix      = ".part"
	metaSuffix         = ".meta"
	bodySuffix         = ".body"
	defaultHTTPTimeout = 90 * time.Second
)

// urlCache keeps downloaded reference documents on disk and revalidates
// them with ETag / Last-Modified once they are older than cacheTTL.
type urlCache struct {
	dir    string
	client *http.Client
}

type cacheMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"lastModified"`
	ContentType  string    `json:"contentType"`
	CachedAt     time.Time `json:"cachedAt"`
	Size         int64     `json:"size"`
}

func newURLCache(dir string, client *http.Client) (*urlCache, error) {
	if dir == "" {
		dir = os.Getenv(cacheEnvVar)
	}
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = filepath.Join(os.TempDir(), "eduforge-cache")
		}
		dir = filepath.Join(base, cacheSubdir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &urlCache{dir: dir, client: client}, nil
}

// Fetch returns the local path of rawURL's body and its recorded metadata.
// A stale copy is served when revalidation fails.
func (c *urlCache) Fetch(ctx context.Context, rawURL string) (string, cacheMeta, error) {
	bodyPath, metaPath, partialPath := c.pathsFor(cacheKey(rawURL))

	meta, _ := readMeta(metaPath)
	if info, err := os.Stat(bodyPath); err == nil && time.Since(info.ModTime()) < cacheTTL && info.Size() > 0 {
		return bodyPath, meta, nil
	}

	info, _ := os.Stat(bodyPath)
	path, err := c.download(ctx, rawURL, bodyPath, metaPath, partialPath, meta, info)
	if err == nil {
		fresh, _ := readMeta(metaPath)
		return path, fresh, nil
	}
	if info != nil && info.Size() > 0 {
		return bodyPath, meta, nil
	}
	return "", cacheMeta{}, err
}

func (c *urlCache) download(ctx context.Context, rawURL, bodyPath, metaPath, partialPath string, meta cacheMeta, current os.FileInfo) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	if current != nil && current.Size() > 0 {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	var partialSize int64
	if info, err := os.Stat(partialPath); err == nil && info.Size() > 0 {
		partialSize = info.Size()
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", partialSize))
		if meta.ETag != "" {
			req.Header.Set("If-Range", meta.ETag)
		} else if meta.LastModified != "" {
			req.Header.Set("If-Range", meta.LastModified)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		if current != nil && current.Size() > 0 {
			meta.CachedAt = time.Now().UTC()
			writeMeta(metaPath, meta)
			now := time.Now()
			os.Chtimes(bodyPath, now, now)
			return bodyPath, nil
		}
		return c.download(ctx, rawURL, bodyPath, metaPath, partialPath, cacheMeta{}, nil)
	case http.StatusOK:
		return c.saveBody(resp, bodyPath, metaPath, partialPath, false, meta)
	case http.StatusPartialContent:
		return c.saveBody(resp, bodyPath, metaPath, partialPath, partialSize > 0, meta)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("reference download failed: %s (%s)", resp.Status, strings.TrimSpace(string(body)))
	}
}

func (c *urlCache) saveBody(resp *http.Response, bodyPath, metaPath, partialPath string, appendExisting bool, previous cacheMeta) (string, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if appendExisting {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(partialPath, flags, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(partialPath, bodyPath); err != nil {
		return "", err
	}

	meta := cacheMeta{
		URL:          resp.Request.URL.String(),
		ETag:         resp.Header.Get("Etag"),
		LastModified: resp.Header.Get("Last-Modified"),
		ContentType:  mediaType(resp.Header.Get("Content-Type")),
		CachedAt:     time.Now().UTC(),
	}
	if meta.ContentType == "" && appendExisting {
		meta.ContentType = previous.ContentType
	}
	if info, err := os.Stat(bodyPath); err == nil {
		meta.Size = info.Size()
	}
	if err := writeMeta(metaPath, meta); err != nil {
		return "", err
	}
	return bodyPath, nil
}

func (c *urlCache) pathsFor(key string) (string, string, string) {
	return filepath.Join(c.dir, key+bodySuffix), filepath.Join(c.dir, key+metaSuffix), filepath.Join(c.dir, key+partialSuffix)
}

func cacheKey(rawURL string) string {
	sum := sha1.Sum([]byte(strings.TrimSpace(rawURL)))
	return hex.EncodeToString(sum[:])
}

func mediaType(header string) string {
	if header == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return mt
}

func readMeta(path string) (cacheMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cacheMeta{}, err
	}
	var meta cacheMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheMeta{}, err
	}
	return meta, nil
}

func writeMeta(path string, meta cacheMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
