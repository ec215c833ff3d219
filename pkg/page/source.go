package page

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"bottagger/pkg/retry"

	"github.com/PuerkitoBio/goquery"
)

// Source loads the listing page to annotate.
type Source interface {
	Load(ctx context.Context) (*goquery.Document, error)
	String() string
}

// PageFetcher fetches raw HTML over HTTP.
type PageFetcher interface {
	GetPage(ctx context.Context, url string) ([]byte, error)
}

// NewSource returns an HTTP source for http(s) locations and a file source
// for anything else.
func NewSource(location string, fetcher PageFetcher, retryCfg *retry.Config) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return &HTTPSource{URL: location, Fetcher: fetcher, Retry: retryCfg}
	}
	return &FileSource{Path: location}
}

// FileSource reads a saved page from disk.
type FileSource struct {
	Path string
}

func (f *FileSource) Load(ctx context.Context) (*goquery.Document, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read page %s: %w", f.Path, err)
	}
	return parseBytes(data)
}

func (f *FileSource) String() string { return f.Path }

// HTTPSource downloads a page, retrying transient failures.
type HTTPSource struct {
	URL     string
	Fetcher PageFetcher
	Retry   *retry.Config
}

func (h *HTTPSource) Load(ctx context.Context) (*goquery.Document, error) {
	if h.Fetcher == nil {
		return nil, fmt.Errorf("no fetcher configured for %s", h.URL)
	}
	data, err := retry.DoWithResult(ctx, func(ctx context.Context) ([]byte, error) {
		return h.Fetcher.GetPage(ctx, h.URL)
	}, h.Retry)
	if err != nil {
		return nil, fmt.Errorf("load page %s: %w", h.URL, err)
	}
	return parseBytes(data)
}

func (h *HTTPSource) String() string { return h.URL }

func parseBytes(data []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return doc, nil
}
