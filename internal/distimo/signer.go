// Package distimo implements a client for the Distimo app-analytics REST API
// (https://analytics.distimo.com/api/v3). Every request is authenticated with
// a time-windowed keyed signature: the canonical query string plus a unix
// timestamp is signed with HMAC-SHA1 under the account's private key, and the
// public key, signature, and timestamp ride along as query parameters. The
// provider rejects stale signatures, so the timestamp is computed at signing
// time and never reused.
//
// Responses are delimited text (semicolon-separated by default) and are
// cached in a TTL-bounded key/value store to bound upstream call volume; see
// Client for the cache-or-fetch flow.
package distimo

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tsumanga/analytics-dashboard/internal/config"
)

// ErrNotConfigured is returned when the credential tuple is missing or
// malformed. It is the only error that escapes the reporting pipeline:
// transport and format problems degrade to empty data instead.
var ErrNotConfigured = errors.New("distimo credentials not configured")

// reserved query parameter names owned by the signing scheme. Caller-supplied
// values under these keys are dropped, never merged.
var reservedParams = map[string]bool{"apikey": true, "hash": true, "t": true}

// defaultFormat is inserted into every query that does not already select a
// response serialization. "scsv" is semicolon-separated values.
const defaultFormat = "scsv"

// Credentials is the four-value tuple required to talk to the provider.
type Credentials struct {
	PrivateKey     string // HMAC signing key
	PublicKey      string // apikey query parameter
	Username       string
	BasicAuthToken string // pre-encoded base64 value for the Authorization header
}

// CredentialsFromKeys builds Credentials from the raw config list. The
// deployment config stores the tuple as a single 4-element list; any other
// arity means the deployment is unusable for reporting.
func CredentialsFromKeys(keys []string) (Credentials, error) {
	if len(keys) != 4 {
		return Credentials{}, fmt.Errorf("%w: want 4 values [private, public, username, base64auth], got %d", ErrNotConfigured, len(keys))
	}
	for i, k := range keys {
		if strings.TrimSpace(k) == "" {
			return Credentials{}, fmt.Errorf("%w: value %d is empty", ErrNotConfigured, i)
		}
	}
	return Credentials{
		PrivateKey:     keys[0],
		PublicKey:      keys[1],
		Username:       keys[2],
		BasicAuthToken: keys[3],
	}, nil
}

// SignedRequest is an immutable signed request: endpoint path, canonical
// query string, the unix timestamp at signing time, and the resulting
// signature.
type SignedRequest struct {
	Path      string
	Query     string
	Timestamp int64
	Signature string

	baseURL   string
	publicKey string
}

// URL composes the final request URL.
func (r SignedRequest) URL() string {
	return fmt.Sprintf("%s/%s?%s&apikey=%s&hash=%s&t=%d",
		r.baseURL, r.Path, r.Query, r.publicKey, r.Signature, r.Timestamp)
}

// Signer produces signed request URLs for the provider API.
//
// Credentials are initialized lazily on the first Sign call and never
// re-initialized once set, so a dashboard deployed without analytics keys
// still boots and only the reporting feature fails (with ErrNotConfigured).
type Signer struct {
	baseURL string
	keys    []string

	mu    sync.Mutex
	creds Credentials
	ready bool

	// now is stubbed in tests to pin the signing timestamp.
	now func() time.Time
}

// NewSigner creates a Signer for the configured provider. Credentials are
// validated on first use, not here.
func NewSigner(cfg config.DistimoConfig) *Signer {
	return &Signer{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		keys:    cfg.Keys,
		now:     time.Now,
	}
}

// credentials returns the lazily-initialized credential tuple. The
// check-then-set is idempotent: once populated the stored value is returned
// unchanged for the life of the process.
func (s *Signer) credentials() (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return s.creds, nil
	}
	creds, err := CredentialsFromKeys(s.keys)
	if err != nil {
		return Credentials{}, err
	}
	s.creds = creds
	s.ready = true
	return creds, nil
}

// BasicAuthToken returns the pre-encoded Authorization token for the
// configured account.
func (s *Signer) BasicAuthToken() (string, error) {
	creds, err := s.credentials()
	if err != nil {
		return "", err
	}
	return creds.BasicAuthToken, nil
}

// Sign builds a SignedRequest for the given endpoint path and query.
//
// The query is normalized first (reserved keys dropped, default format
// inserted), canonicalized by lexicographic key sort, and signed together
// with the current UTC unix timestamp:
//
//	signature = hex(HMAC-SHA1(private_key, canonical_query + timestamp))
func (s *Signer) Sign(path string, query map[string]string) (SignedRequest, error) {
	creds, err := s.credentials()
	if err != nil {
		return SignedRequest{}, err
	}

	canonical := CanonicalQuery(NormalizeQuery(query))
	ts := s.now().UTC().Unix()

	mac := hmac.New(sha1.New, []byte(creds.PrivateKey))
	mac.Write([]byte(canonical + strconv.FormatInt(ts, 10)))
	sig := hex.EncodeToString(mac.Sum(nil))

	return SignedRequest{
		Path:      path,
		Query:     canonical,
		Timestamp: ts,
		Signature: sig,
		baseURL:   s.baseURL,
		publicKey: creds.PublicKey,
	}, nil
}

// NormalizeQuery returns a copy of query with reserved signing parameters
// removed and the default format inserted when absent. The input map is
// never mutated.
func NormalizeQuery(query map[string]string) map[string]string {
	normalized := make(map[string]string, len(query)+1)
	for k, v := range query {
		if reservedParams[k] {
			continue
		}
		normalized[k] = v
	}
	if _, ok := normalized["format"]; !ok {
		normalized["format"] = defaultFormat
	}
	return normalized
}

// CanonicalQuery joins the query as key=value pairs sorted by key and
// separated by &. The provider computes the signature over this exact string,
// so two logically identical queries must always canonicalize identically
// regardless of map iteration order.
func CanonicalQuery(query map[string]string) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + query[k]
	}
	return strings.Join(pairs, "&")
}
