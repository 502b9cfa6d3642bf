package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"
)

const (
	imageSize       = "900x600"
	maxImageRetries = 3
)

// ImageFetcher resolves and downloads stock images for a keyword
type ImageFetcher struct {
	client  *http.Client
	baseURL string
	backoff time.Duration
	sig     func() int
	dirs    []string
}

func NewImageFetcher(baseURL string) *ImageFetcher {
	return &ImageFetcher{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		backoff: time.Second,
		sig:     func() int { return rand.Intn(1_000_000) },
	}
}

// RemoteURLs returns n distinct image URLs for the keyword
func (f *ImageFetcher) RemoteURLs(query string, n int) []string {
	urls := make([]string, 0, n)
	for i := 0; i < n; i++ {
		urls = append(urls, fmt.Sprintf("%s/%s/?%s&sig=%d", f.baseURL, imageSize, url.QueryEscape(query), f.sig()))
	}
	return urls
}

// Download stores up to n images in a fresh temp directory and returns their
// paths. Individual failures are skipped; an empty result is not an error.
func (f *ImageFetcher) Download(ctx context.Context, query string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	dir, err := os.MkdirTemp("", "mall-writer-*")
	if err != nil {
		return nil, fmt.Errorf("creating image dir: %w", err)
	}
	f.dirs = append(f.dirs, dir)

	var paths []string
	for i, src := range f.RemoteURLs(query, n) {
		path, err := f.download(ctx, src, dir, i)
		if err != nil {
			if ctx.Err() != nil {
				return paths, ctx.Err()
			}
			logWarn("image %d: %v", i+1, err)
			continue
		}
		paths = append(paths, path)
	}
	debugLog("downloaded %d/%d images into %s", len(paths), n, dir)
	return paths, nil
}

// Cleanup removes every directory created by Download. Uploaded files must
// stay on disk until the form is submitted, so call this afterwards.
func (f *ImageFetcher) Cleanup() {
	for _, dir := range f.dirs {
		if err := os.RemoveAll(dir); err != nil {
			debugLog("removing %s: %v", dir, err)
		}
	}
	f.dirs = nil
}

func (f *ImageFetcher) download(ctx context.Context, src, dir string, index int) (string, error) {
	var lastErr error
	for i := 0; i < maxImageRetries; i++ {
		path, err := f.fetchOnce(ctx, src, dir, index)
		if err == nil {
			return path, nil
		}
		lastErr = err

		httpErr, ok := err.(*HTTPError)
		if !ok || httpErr.StatusCode != http.StatusTooManyRequests {
			return "", err
		}
		wait := f.backoff * time.Duration(i+1)
		debugLog("rate limited on %s, retrying in %s", src, wait)
		if err := sleepContext(ctx, wait); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("giving up after %d attempts: %w", maxImageRetries, lastErr)
}

func (f *ImageFetcher) fetchOnce(ctx context.Context, src, dir string, index int) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", src, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &HTTPError{StatusCode: resp.StatusCode, URL: src}
	}

	path := filepath.Join(dir, fmt.Sprintf("image_%d%s", index+1, imageExt(resp.Header.Get("Content-Type"))))
	if err := atomic.WriteFile(path, resp.Body); err != nil {
		return "", fmt.Errorf("saving %s: %w", path, err)
	}
	return path, nil
}

func imageExt(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/png"):
		return ".png"
	case strings.HasPrefix(contentType, "image/webp"):
		return ".webp"
	case strings.HasPrefix(contentType, "image/gif"):
		return ".gif"
	default:
		return ".jpg"
	}
}
