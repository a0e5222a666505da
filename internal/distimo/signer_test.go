package distimo

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/tsumanga/analytics-dashboard/internal/config"
)

var testKeys = []string{"private-key", "public-key", "user@example.com", "dXNlcjpwYXNz"}

func newTestSigner(t *testing.T, keys []string) *Signer {
	t.Helper()
	s := NewSigner(config.DistimoConfig{
		BaseURL: "https://analytics.distimo.com/api/v3",
		Keys:    keys,
	})
	s.now = func() time.Time { return time.Unix(1500000000, 0) }
	return s
}

// ---------------------------------------------------------------------------
// CredentialsFromKeys
// ---------------------------------------------------------------------------

func TestCredentialsFromKeys(t *testing.T) {
	tests := []struct {
		name    string
		keys    []string
		wantErr bool
	}{
		{"valid tuple", testKeys, false},
		{"nil", nil, true},
		{"too few", []string{"a", "b", "c"}, true},
		{"too many", []string{"a", "b", "c", "d", "e"}, true},
		{"empty value", []string{"a", "", "c", "d"}, true},
		{"blank value", []string{"a", "b", "  ", "d"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds, err := CredentialsFromKeys(tt.keys)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CredentialsFromKeys(%v) error=%v, wantErr=%v", tt.keys, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if creds.PrivateKey != "private-key" || creds.PublicKey != "public-key" {
				t.Errorf("credentials misassigned: %+v", creds)
			}
			if creds.BasicAuthToken != "dXNlcjpwYXNz" {
				t.Errorf("BasicAuthToken = %q", creds.BasicAuthToken)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// CanonicalQuery / NormalizeQuery
// ---------------------------------------------------------------------------

func TestCanonicalQuery_SortedByKey(t *testing.T) {
	q := map[string]string{"zeta": "1", "alpha": "2", "mid": "3"}
	got := CanonicalQuery(q)
	want := "alpha=2&mid=3&zeta=1"
	if got != want {
		t.Errorf("CanonicalQuery = %q, want %q", got, want)
	}
}

func TestCanonicalQuery_InvariantUnderInsertionOrder(t *testing.T) {
	// Maps iterate in random order, so repeated canonicalization of the same
	// logical query must always produce the same string.
	q := map[string]string{
		"breakdown": "asset", "from": "2024-01-01", "to": "2024-01-31",
		"format": "scsv", "filter": "x",
	}
	first := CanonicalQuery(q)
	for i := 0; i < 50; i++ {
		if got := CanonicalQuery(q); got != first {
			t.Fatalf("canonicalization not stable: %q vs %q", got, first)
		}
	}
}

func TestNormalizeQuery(t *testing.T) {
	in := map[string]string{"breakdown": "asset", "apikey": "evil", "hash": "evil", "t": "evil"}
	got := NormalizeQuery(in)

	if got["format"] != "scsv" {
		t.Errorf("default format not inserted: %v", got)
	}
	for _, reserved := range []string{"apikey", "hash", "t"} {
		if _, ok := got[reserved]; ok {
			t.Errorf("reserved key %q not stripped", reserved)
		}
	}
	// Input map must not be mutated.
	if _, ok := in["format"]; ok {
		t.Error("NormalizeQuery mutated its input")
	}
}

func TestNormalizeQuery_KeepsExplicitFormat(t *testing.T) {
	got := NormalizeQuery(map[string]string{"format": "csv"})
	if got["format"] != "csv" {
		t.Errorf("explicit format overwritten: %v", got)
	}
}

// ---------------------------------------------------------------------------
// Sign
// ---------------------------------------------------------------------------

func TestSign_URLComposition(t *testing.T) {
	s := newTestSigner(t, testKeys)

	signed, err := s.Sign("downloads", map[string]string{"breakdown": "asset"})
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}

	if signed.Path != "downloads" {
		t.Errorf("Path = %q", signed.Path)
	}
	if signed.Query != "breakdown=asset&format=scsv" {
		t.Errorf("Query = %q", signed.Query)
	}
	if signed.Timestamp != 1500000000 {
		t.Errorf("Timestamp = %d, want pinned 1500000000", signed.Timestamp)
	}

	mac := hmac.New(sha1.New, []byte("private-key"))
	mac.Write([]byte("breakdown=asset&format=scsv1500000000"))
	wantSig := hex.EncodeToString(mac.Sum(nil))
	if signed.Signature != wantSig {
		t.Errorf("Signature = %q, want %q", signed.Signature, wantSig)
	}

	wantURL := "https://analytics.distimo.com/api/v3/downloads?breakdown=asset&format=scsv" +
		"&apikey=public-key&hash=" + wantSig + "&t=1500000000"
	if signed.URL() != wantURL {
		t.Errorf("URL = %q, want %q", signed.URL(), wantURL)
	}
}

func TestSign_NotConfigured(t *testing.T) {
	s := newTestSigner(t, []string{"only", "two"})
	_, err := s.Sign("downloads", nil)
	if err == nil {
		t.Fatal("expected error for malformed credential tuple")
	}
	if !strings.Contains(err.Error(), "not configured") {
		t.Errorf("error = %v, want ErrNotConfigured wrap", err)
	}
}

func TestSigner_CredentialInitIsIdempotent(t *testing.T) {
	s := newTestSigner(t, testKeys)
	if _, err := s.Sign("downloads", nil); err != nil {
		t.Fatalf("first Sign error: %v", err)
	}

	// Mutating the source keys after initialization must not change the
	// credentials in use: init is check-then-set, once.
	s.keys[0] = "different-key"
	signed, err := s.Sign("downloads", nil)
	if err != nil {
		t.Fatalf("second Sign error: %v", err)
	}

	mac := hmac.New(sha1.New, []byte("private-key"))
	mac.Write([]byte("format=scsv1500000000"))
	if signed.Signature != hex.EncodeToString(mac.Sum(nil)) {
		t.Error("credentials were re-initialized after first use")
	}
}

func TestSign_TimestampIsFreshPerCall(t *testing.T) {
	s := NewSigner(config.DistimoConfig{BaseURL: "https://example.com", Keys: testKeys})
	current := int64(1500000000)
	s.now = func() time.Time { return time.Unix(current, 0) }

	first, err := s.Sign("downloads", nil)
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}
	current += 60
	second, err := s.Sign("downloads", nil)
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}

	if second.Timestamp != first.Timestamp+60 {
		t.Errorf("timestamps = %d then %d, want 60s apart", first.Timestamp, second.Timestamp)
	}
	if second.Signature == first.Signature {
		t.Error("signature did not change with timestamp")
	}
}
