package scan

import (
	"strings"
	"testing"
)

func TestInspectURLShortener(t *testing.T) {
	warnings := inspectURL("https://bit.ly/3xYz")
	if len(warnings) == 0 || !strings.Contains(warnings[0], "bit.ly") {
		t.Fatalf("expected shortener warning, got %v", warnings)
	}
}

func TestInspectURLRawIP(t *testing.T) {
	warnings := inspectURL("http://192.168.10.5/admin")
	found := false
	for _, w := range warnings {
		if strings.Contains(w, "raw IP") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected raw IP warning, got %v", warnings)
	}
}

func TestInspectURLSuspiciousTLD(t *testing.T) {
	warnings := inspectURL("https://free-prizes.xyz/claim")
	found := false
	for _, w := range warnings {
		if strings.Contains(w, `"xyz"`) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected TLD warning, got %v", warnings)
	}
}

func TestInspectURLPhishingKeywords(t *testing.T) {
	warnings := inspectURL("https://evil.test/secure-login-verify")
	var keywordWarning string
	for _, w := range warnings {
		if strings.Contains(w, "keywords") {
			keywordWarning = w
		}
	}
	if keywordWarning == "" {
		t.Fatalf("expected keyword warning, got %v", warnings)
	}
	for _, word := range []string{"secure", "login", "verify"} {
		if !strings.Contains(keywordWarning, word) {
			t.Fatalf("expected %q in warning %q", word, keywordWarning)
		}
	}
	// Repeated keywords are reported once.
	if strings.Count(keywordWarning, "login") != 1 {
		t.Fatalf("expected deduplicated keywords, got %q", keywordWarning)
	}
}

func TestInspectURLPercentEncoding(t *testing.T) {
	warnings := inspectURL("http://ok.test/%41%42%43%44%45")
	found := false
	for _, w := range warnings {
		if strings.Contains(w, "percent-encoding") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected percent-encoding warning, got %v", warnings)
	}
}

func TestInspectURLClean(t *testing.T) {
	if warnings := inspectURL("https://example.org/docs"); len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
}

func TestInspectURLUnparseable(t *testing.T) {
	if warnings := inspectURL("http://[::1"); warnings != nil {
		t.Fatalf("expected nil warnings for unparseable URL, got %v", warnings)
	}
}
