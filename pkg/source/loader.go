// Package source reads raw restaurant menu documents from local files or
// http(s) URLs.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/xhad/menurag/pkg/config"
)

const maxBodySize = 32 << 20

// ErrNoEmbeddedJSON is returned when an HTML page carries no menu JSON.
var ErrNoEmbeddedJSON = errors.New("no embedded JSON document found")

type LoaderConfig struct {
	RateLimit  float64 // requests per second, remote sources only
	Timeout    time.Duration
	OnProgress func(src config.Source)
}

type Loader struct {
	config  LoaderConfig
	client  *http.Client
	limiter *rate.Limiter
}

func NewWithConfig(config LoaderConfig) *Loader {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2
	}

	return &Loader{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

func New() *Loader {
	return NewWithConfig(LoaderConfig{})
}

// IsRemote reports whether path names an http(s) resource.
func IsRemote(path string) bool {
	u, err := url.Parse(path)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Load returns the raw JSON document for one source.
func (l *Loader) Load(ctx context.Context, src config.Source) ([]byte, error) {
	if l.config.OnProgress != nil {
		l.config.OnProgress(src)
	}

	if !IsRemote(src.Path) {
		data, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", src.Path, err)
		}
		return data, nil
	}
	return l.fetch(ctx, src.Path)
}

func (l *Loader) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, text/html;q=0.9")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received status code %d for URL: %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rawURL, err)
	}

	if isHTML(resp.Header.Get("Content-Type"), body) {
		return extractJSON(body)
	}
	return body, nil
}

func isHTML(contentType string, body []byte) bool {
	if strings.Contains(contentType, "html") {
		return true
	}
	trimmed := strings.TrimSpace(string(body[:min(len(body), 512)]))
	return strings.HasPrefix(trimmed, "<")
}

// jsonSelectors are tried in order; the first element holding valid JSON wins.
var jsonSelectors = []string{
	`script[type="application/json"]`,
	`script[type="application/ld+json"]`,
	"pre",
}

// extractJSON pulls a menu document out of a saved or served HTML page.
func extractJSON(page []byte) ([]byte, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(page)))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	var found string
	for _, selector := range jsonSelectors {
		doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			text := strings.TrimSpace(sel.Text())
			if text != "" && gjson.Valid(text) {
				found = text
				return false
			}
			return true
		})
		if found != "" {
			return []byte(found), nil
		}
	}
	return nil, ErrNoEmbeddedJSON
}
