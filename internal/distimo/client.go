// client.go implements the cache-or-fetch flow for provider endpoints: a
// cache hit short-circuits network I/O entirely; a miss triggers exactly one
// signed HTTP GET, and a successful response body is written to the cache
// store before the rows are released to the caller. Transient upstream
// failures degrade to empty rows — partial reporting is preferred over
// failing the whole report.
package distimo

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/tsumanga/analytics-dashboard/internal/cache"
	"github.com/tsumanga/analytics-dashboard/internal/config"
	"github.com/tsumanga/analytics-dashboard/internal/telemetry"
)

// maxCacheKeyLen is the longest key the cache store accepts (memcached
// heritage). Longer keys are replaced by a fixed-width hash of themselves.
const maxCacheKeyLen = 250

// CacheKey derives the cache key for a request from its path and normalized
// query. Two logically identical requests always map to the same key
// regardless of query map iteration order.
func CacheKey(path string, query map[string]string) string {
	key := path + "?" + CanonicalQuery(NormalizeQuery(query))
	if len(key) > maxCacheKeyLen {
		sum := sha1.Sum([]byte(key))
		key = hex.EncodeToString(sum[:])
	}
	return key
}

// Client fetches provider endpoints through the cache store.
type Client struct {
	signer     *Signer
	store      cache.Store
	httpClient *http.Client
	format     Format
	cacheTTL   time.Duration
}

// NewClient creates a provider client backed by the given cache store.
func NewClient(cfg config.DistimoConfig, store cache.Store) *Client {
	format := FormatSCSV
	if cfg.Format != "" {
		format = Format(cfg.Format)
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Client{
		signer: NewSigner(cfg),
		store:  store,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		format:   format,
		cacheTTL: ttl,
	}
}

// Signer exposes the client's signer, mainly for wiring and tests.
func (c *Client) Signer() *Signer {
	return c.signer
}

// Fetch returns the parsed rows for an endpoint, serving from the cache
// store when possible.
//
// Error contract: the only error ever returned is ErrNotConfigured (missing
// credentials). Cache-store errors are treated as misses, and upstream
// transport failures or non-200 statuses are logged and degraded to an empty
// row slice with a nil error, so downstream consumers treat "no data" and
// "provider error" identically.
func (c *Client) Fetch(ctx context.Context, path string, query map[string]string) ([]Row, error) {
	// The format parameter participates in the cache key and the signature,
	// so it is resolved once here: caller-specified format wins, otherwise
	// the client's configured format.
	q := make(map[string]string, len(query)+1)
	for k, v := range query {
		q[k] = v
	}
	if _, ok := q["format"]; !ok {
		q["format"] = string(c.format)
	}
	format := Format(q["format"])

	key := CacheKey(path, q)

	if data, ok, err := c.store.Get(ctx, key); err != nil {
		// Store failure is a miss, never a report failure.
		slog.Warn("cache lookup failed", "key", key, "error", err)
	} else if ok {
		telemetry.CacheHitsTotal.WithLabelValues(path).Inc()
		return ParseRows(string(data), format), nil
	}
	telemetry.CacheMissesTotal.WithLabelValues(path).Inc()

	signed, err := c.signer.Sign(path, q)
	if err != nil {
		return nil, err
	}
	authToken, err := c.signer.BasicAuthToken()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, signed.URL(), nil)
	if err != nil {
		slog.Error("failed to build upstream request", "path", path, "error", err)
		telemetry.UpstreamRequestsTotal.WithLabelValues(path, "error").Inc()
		return nil, nil
	}
	req.Header.Set("Authorization", "Basic "+authToken)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	telemetry.UpstreamRequestDuration.WithLabelValues(path).Observe(elapsed.Seconds())
	if err != nil {
		slog.Error("upstream request failed", "path", path, "elapsed_ms", elapsed.Milliseconds(), "error", err)
		telemetry.UpstreamRequestsTotal.WithLabelValues(path, "error").Inc()
		return nil, nil
	}
	defer resp.Body.Close()

	telemetry.UpstreamRequestsTotal.WithLabelValues(path, strconv.Itoa(resp.StatusCode)).Inc()
	if resp.StatusCode != http.StatusOK {
		slog.Info("response from distimo", "status", resp.StatusCode, "elapsed_ms", elapsed.Milliseconds(), "path", path)
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("failed to read upstream response", "path", path, "error", err)
		return nil, nil
	}

	// Write-through happens before the rows are released so only content
	// actually returned to the caller is ever cached, and a caller-visible
	// failure downstream cannot leave the cache ahead of what was returned.
	if err := c.store.Set(ctx, key, body, c.cacheTTL); err != nil {
		slog.Warn("cache write failed", "key", key, "error", err)
	}

	return ParseRows(string(body), format), nil
}
