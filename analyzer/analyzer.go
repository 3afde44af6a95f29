package analyzer

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ai-mapper/backend/stats"
)

const (
	defaultCacheSize = 1000
	maxPageSize      = 5 << 20 // 5MB
	userAgent        = "AIMapper/1.0"
)

// ErrPageTooLarge is returned when a fetched page exceeds maxPageSize
var ErrPageTooLarge = errors.New("page exceeds maximum size")

// Buffers reused across page fetches
var bufferPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// Analyzer scores content and memoizes the reports it produces
type Analyzer struct {
	client *http.Client
	cache  *lru.Cache[string, Report]
	size   int
	hits   atomic.Int64
	misses atomic.Int64
	stats  *stats.Storage
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithCacheSize sets the maximum number of cached reports
func WithCacheSize(size int) Option {
	return func(a *Analyzer) {
		if size > 0 {
			a.size = size
		}
	}
}

// WithHTTPClient replaces the client used by AnalyzeURL. The replacement
// client is trusted to reach any host.
func WithHTTPClient(client *http.Client) Option {
	return func(a *Analyzer) {
		if client != nil {
			a.client = client
		}
	}
}

// WithStats records cache and analysis counters in the given storage
func WithStats(storage *stats.Storage) Option {
	return func(a *Analyzer) {
		a.stats = storage
	}
}

// New creates a new Analyzer instance
func New(opts ...Option) (*Analyzer, error) {
	// Pooled keep-alive connections for URL analysis, public hosts only
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   publicOnly,
	}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	a := &Analyzer{
		client: &http.Client{
			Timeout:   15 * time.Second,
			Transport: transport,
		},
		size: defaultCacheSize,
	}
	for _, opt := range opts {
		opt(a)
	}

	cache, err := lru.New[string, Report](a.size)
	if err != nil {
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}
	a.cache = cache

	return a, nil
}

// generateCacheKey creates a unique key for the content and its source
func generateCacheKey(source Source, content string) string {
	hash := md5.Sum([]byte(string(source) + "\x00" + content))
	return hex.EncodeToString(hash[:])
}

// Analyze scores raw text, serving repeated content from the cache
func (a *Analyzer) Analyze(text string) Report {
	key := generateCacheKey(SourceText, text)
	if report, ok := a.lookup(key); ok {
		return report
	}
	return a.store(key, NewReport(Score(text), SourceText))
}

// AnalyzeHTML extracts the text of an HTML document and scores it
func (a *Analyzer) AnalyzeHTML(html string) (Report, error) {
	key := generateCacheKey(SourceHTML, html)
	if report, ok := a.lookup(key); ok {
		return report, nil
	}

	text, err := TextFromHTML(bytes.NewReader([]byte(html)))
	if err != nil {
		return Report{}, err
	}
	return a.store(key, NewReport(Score(text), SourceHTML)), nil
}

// AnalyzeURL fetches a page and scores its text. Pages are not cached since
// their content can change between requests.
func (a *Analyzer) AnalyzeURL(ctx context.Context, url string) (Report, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Report{}, fmt.Errorf("invalid url: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := a.client.Do(req)
	if err != nil {
		return Report{}, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Report{}, fmt.Errorf("failed to fetch page: unexpected status %d", resp.StatusCode)
	}

	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufferPool.Put(buf)

	// Read one byte past the limit so oversized pages can be detected
	n, err := io.Copy(buf, io.LimitReader(resp.Body, maxPageSize+1))
	if err != nil {
		return Report{}, fmt.Errorf("failed to read page: %w", err)
	}
	if n > maxPageSize {
		return Report{}, ErrPageTooLarge
	}

	text, err := TextFromHTML(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return Report{}, err
	}

	a.record(stats.Delta{Analyses: 1})
	return NewReport(Score(text), SourceURL), nil
}

func (a *Analyzer) lookup(key string) (Report, bool) {
	report, ok := a.cache.Get(key)
	if !ok {
		return Report{}, false
	}
	a.hits.Add(1)
	a.record(stats.Delta{Analyses: 1, CacheHits: 1})
	return cloneReport(report), true
}

func (a *Analyzer) store(key string, report Report) Report {
	a.misses.Add(1)
	a.record(stats.Delta{Analyses: 1, CacheMisses: 1})
	a.cache.Add(key, report)
	return cloneReport(report)
}

func (a *Analyzer) record(delta stats.Delta) {
	if a.stats != nil {
		a.stats.Increment(delta)
	}
}

// cloneReport copies the notes so callers cannot mutate cached entries
func cloneReport(report Report) Report {
	notes := make([]string, len(report.Notes))
	copy(notes, report.Notes)
	report.Notes = notes
	return report
}

// IsCached checks if raw text already has a cached report
func (a *Analyzer) IsCached(text string) bool {
	return a.cache.Contains(generateCacheKey(SourceText, text))
}

// ClearCache drops all cached reports
func (a *Analyzer) ClearCache() {
	a.cache.Purge()
}

// GetCacheStats returns statistics about the cache
func (a *Analyzer) GetCacheStats() CacheStats {
	return CacheStats{
		Entries: a.cache.Len(),
		Size:    a.size,
		Hits:    int(a.hits.Load()),
		Misses:  int(a.misses.Load()),
	}
}

// GetStats returns the statistics storage instance
func (a *Analyzer) GetStats() *stats.Storage {
	return a.stats
}

// Shutdown flushes statistics and clears the cache
func (a *Analyzer) Shutdown() error {
	if a == nil {
		return nil
	}

	if a.stats != nil {
		if err := a.stats.Shutdown(); err != nil {
			return fmt.Errorf("failed to shutdown stats storage: %w", err)
		}
	}

	a.cache.Purge()
	return nil
}
