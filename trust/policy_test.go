package trust

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func testPolicy() *Policy {
	return NewPolicy([]string{"google.com", "www.wikipedia.org", "GitHub.com"})
}

func TestIsTrustedExactAndSubdomain(t *testing.T) {
	p := testPolicy()
	trusted := []string{
		"https://google.com/search?q=x",
		"https://www.google.com/",
		"http://mail.google.com/inbox",
		"https://en.wikipedia.org/wiki/Go",
		"https://github.com/torvalds/linux",
	}
	for _, u := range trusted {
		if !p.IsTrusted(u) {
			t.Fatalf("expected %q to be trusted", u)
		}
	}
}

func TestIsTrustedRejectsSuffixCollision(t *testing.T) {
	p := testPolicy()
	untrusted := []string{
		"https://evilgoogle.com/login",
		"https://google.com.attacker.net/",
		"https://notgithub.com/",
		"https://example.com/",
	}
	for _, u := range untrusted {
		if p.IsTrusted(u) {
			t.Fatalf("expected %q to be untrusted", u)
		}
	}
}

func TestIsTrustedMalformedURL(t *testing.T) {
	p := testPolicy()
	for _, u := range []string{"", "://", "http://", "%zz", "not a url at all"} {
		if p.IsTrusted(u) {
			t.Fatalf("malformed url %q must not be trusted", u)
		}
	}
}

func TestIsTrustedEmptyPolicy(t *testing.T) {
	if NewPolicy(nil).IsTrusted("https://google.com/") {
		t.Fatal("empty allowlist must trust nothing")
	}
}

func TestNewPolicyNormalizes(t *testing.T) {
	p := NewPolicy([]string{" Google.com ", "www.google.com", "", "google.com."})
	if p.Size() != 1 {
		t.Fatalf("expected 1 normalized entry, got %d", p.Size())
	}
	if !p.IsTrusted("https://docs.google.com/") {
		t.Fatal("normalized entry should match")
	}
}

func TestFetchList(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"version":"2026-08-01","domains":["google.com","wikipedia.org"]}`))
	}))
	defer ts.Close()

	domains, version, err := FetchList(ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if version != "2026-08-01" {
		t.Fatalf("unexpected version: %s", version)
	}
	if len(domains) != 2 || domains[0] != "google.com" {
		t.Fatalf("unexpected domains: %v", domains)
	}
}

func TestFetchListErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer ts.Close()
	if _, _, err := FetchList(ts.URL); err == nil {
		t.Fatal("expected error on HTTP 500")
	}

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"version":"v","domains":[]}`))
	}))
	defer empty.Close()
	if _, _, err := FetchList(empty.URL); err == nil {
		t.Fatal("expected error on empty list")
	}
}
