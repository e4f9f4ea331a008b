package config

import (
	"os"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Data:               "https://example.com/",
		ReputationEndpoint: "https://safebrowsing.googleapis.com/v4/threatMatches:find",
		MLEndpoint:         "https://api.qrsentry.io/v1/classify",
		RequestTimeout:     8 * time.Second,
		ConcurrencyLevel:   2,
		OutputFileName:     "out.ndjson",
		LogLevel:           "info",
	}
}

func TestParseCommaSeparated(t *testing.T) {
	res := parseCommaSeparated("a,b , c")
	if len(res) != 3 || res[1] != "b" {
		t.Fatalf("unexpected result: %v", res)
	}
	if res := parseCommaSeparated(""); len(res) != 0 {
		t.Fatalf("expected empty slice")
	}
}

func TestParseHeaders(t *testing.T) {
	res := parseHeaders("a=1, b = 2 ,broken,=x")
	if len(res) != 2 || res["a"] != "1" || res["b"] != "2" {
		t.Fatalf("unexpected result: %v", res)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmp, err := os.CreateTemp("", "cfg*.json")
	if err != nil {
		t.Fatalf("temp: %v", err)
	}
	tmp.WriteString(`{"trusted_domains":["example.org"],"concurrency_level":3,"user_id":"u-7"}`)
	tmp.Close()
	defer os.Remove(tmp.Name())

	cfg := &Config{}
	if err := cfg.loadFromFile(tmp.Name()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.TrustedDomains) != 1 || cfg.TrustedDomains[0] != "example.org" {
		t.Fatalf("unexpected domains: %v", cfg.TrustedDomains)
	}
	if cfg.ConcurrencyLevel != 3 || !cfg.ConcurrencySet {
		t.Fatalf("concurrency merge failed: %+v", cfg)
	}
	if cfg.UserID != "u-7" {
		t.Fatalf("user id: %q", cfg.UserID)
	}
}

func TestValidate(t *testing.T) {
	if err := validConfig().validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := map[string]func(*Config){
		"no input":            func(c *Config) { c.Data = ""; c.InputFile = "" },
		"bad reputation":      func(c *Config) { c.ReputationEndpoint = "safebrowsing.example" },
		"empty ml":            func(c *Config) { c.MLEndpoint = "" },
		"bad trust list":      func(c *Config) { c.TrustListURL = "ftp://lists.example" },
		"zero timeout":        func(c *Config) { c.RequestTimeout = 0 },
		"negative lookups":    func(c *Config) { c.MaxLookupsPerSecond = -1 },
		"negative cache ttl":  func(c *Config) { c.CacheTTL = -time.Second },
		"zero concurrency":    func(c *Config) { c.ConcurrencyLevel = 0 },
		"bad log level":       func(c *Config) { c.LogLevel = "verbose" },
		"bad otel endpoint":   func(c *Config) { c.OtelEndpoint = "collector:4318" },
		"empty output name":   func(c *Config) { c.OutputFileName = "" },
		"negative otel limit": func(c *Config) { c.OtelTimeout = -time.Second },
	}
	for name, mutate := range cases {
		cfg := validConfig()
		mutate(cfg)
		if err := cfg.validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}
