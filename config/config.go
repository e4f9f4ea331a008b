package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"qrsentry/version"
)

type Config struct {
	Data                string            `json:"data"`
	InputFile           string            `json:"input_file"`
	UserID              string            `json:"user_id"`
	TrustedDomains      []string          `json:"trusted_domains"`
	TrustListURL        string            `json:"trust_list_url"`
	ReputationEndpoint  string            `json:"reputation_endpoint"`
	ReputationAPIKey    string            `json:"reputation_api_key"`
	MLEndpoint          string            `json:"ml_endpoint"`
	RequestTimeout      time.Duration     `json:"request_timeout"`
	MaxLookupsPerSecond int               `json:"max_lookups_per_second"`
	CacheTTL            time.Duration     `json:"cache_ttl"`
	ConcurrencyLevel    int               `json:"concurrency_level"`
	OutputFileName      string            `json:"output_file_name"`
	MaxOutputFileSize   int64             `json:"max_output_file_size"`
	LogLevel            string            `json:"log_level"`
	ConfigFile          string            `json:"config_file"`
	OtelEndpoint        string            `json:"otel_endpoint"`
	OtelFromEnv         bool              `json:"otel_from_env"`
	OtelHeaders         map[string]string `json:"otel_headers"`
	OtelServiceName     string            `json:"otel_service_name"`
	OtelTimeout         time.Duration     `json:"otel_timeout"`
	OtelExportContent   bool              `json:"otel_export_content"`
	ConcurrencySet      bool              `json:"-"`
}

// DefaultTrustedDomains seeds the trust policy with extremely high-traffic
// domains. Trusting them skips remote lookups, conserving rate-limited API
// quota; the list is configuration, overridable per environment.
var DefaultTrustedDomains = []string{
	"google.com",
	"youtube.com",
	"facebook.com",
	"instagram.com",
	"wikipedia.org",
	"amazon.com",
	"apple.com",
	"microsoft.com",
	"github.com",
	"linkedin.com",
}

func LoadConfig() (*Config, error) {
	now := time.Now().UTC()
	timestamp := now.Format("20060102-150405")
	cfg := &Config{
		TrustedDomains:      append([]string(nil), DefaultTrustedDomains...),
		ReputationEndpoint:  "https://safebrowsing.googleapis.com/v4/threatMatches:find",
		MLEndpoint:          "https://api.qrsentry.io/v1/classify",
		RequestTimeout:      8 * time.Second,
		MaxLookupsPerSecond: 10,
		CacheTTL:            15 * time.Minute,
		ConcurrencyLevel:    runtime.NumCPU(),
		OutputFileName:      fmt.Sprintf("qrsentry-%s-%d.ndjson", timestamp, now.Unix()),
		MaxOutputFileSize:   104857600,
		LogLevel:            "info",
		UserID:              "local",
		OtelHeaders:         map[string]string{},
		OtelServiceName:     "qrsentry",
		OtelTimeout:         5 * time.Second,
	}

	data := flag.String("data", "", "Single raw QR payload to classify (default: none).")
	inputFile := flag.String("input", "", "File with one raw payload per line, or '-' for stdin (default: none).")
	userID := flag.String("user-id", cfg.UserID, fmt.Sprintf("User identity recorded with history entries (default: %s).", cfg.UserID))
	trustedDomains := flag.String("trusted-domains", "", "Comma-separated allowlist of trusted domains (default: built-in list).")
	trustListURL := flag.String("trust-list-url", cfg.TrustListURL, "URL of a published trusted-domain list to merge at startup (default: none).")
	reputationEndpoint := flag.String("reputation-endpoint", cfg.ReputationEndpoint, "Threat-list lookup endpoint (default: Safe Browsing v4).")
	reputationAPIKey := flag.String("reputation-api-key", "", "API key for the reputation endpoint (default: QRSENTRY_REPUTATION_KEY env).")
	mlEndpoint := flag.String("ml-endpoint", cfg.MLEndpoint, fmt.Sprintf("URL classifier scoring endpoint (default: %s).", cfg.MLEndpoint))
	requestTimeout := flag.Duration("request-timeout", cfg.RequestTimeout, "Per-request timeout for remote lookups (default: 8s).")
	maxLookups := flag.Int("max-lookups-per-second", cfg.MaxLookupsPerSecond, fmt.Sprintf("Maximum remote lookups per second per client, 0 for unlimited (default: %d).", cfg.MaxLookupsPerSecond))
	cacheTTL := flag.Duration("cache-ttl", cfg.CacheTTL, "How long verdicts are cached per URL, 0 to disable (default: 15m).")
	concurrency := flag.Int("concurrency", cfg.ConcurrencyLevel, fmt.Sprintf("Concurrent scans in batch mode (default: %d).", cfg.ConcurrencyLevel))
	output := flag.String("output", cfg.OutputFileName, "History output file name (default: qrsentry-<timestamp>-<unix>.ndjson).")
	maxOutputFileSize := flag.Int64("max-output-file-size", cfg.MaxOutputFileSize, fmt.Sprintf("Maximum history file size before rotation in bytes (default: %d).", cfg.MaxOutputFileSize))
	logLevel := flag.String("log-level", cfg.LogLevel, fmt.Sprintf("Log level: debug, info, warn, error, fatal, or panic (default: %s).", cfg.LogLevel))
	configFile := flag.String("config", "", "Path to JSON configuration file (default: none).")
	otelEndpoint := flag.String("otel-endpoint", cfg.OtelEndpoint, "OTLP/HTTP logs endpoint (default: none).")
	otelFromEnv := flag.Bool("otel-from-env", cfg.OtelFromEnv, "Allow OTEL endpoint fallback from OTEL environment variables (default: false).")
	otelHeaders := flag.String("otel-headers", "", "Comma-separated OTEL headers (key=value) for export (default: none).")
	otelServiceName := flag.String("otel-service-name", cfg.OtelServiceName, "OTEL service name for export (default: qrsentry).")
	otelTimeout := flag.Duration("otel-timeout", cfg.OtelTimeout, "OTEL export timeout (default: 5s).")
	otelExportContent := flag.Bool("otel-export-content", cfg.OtelExportContent, "Include decoded payload content in OTEL records (default: false).")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Usage = displayHelp
	flag.Parse()

	if *showVersion {
		fmt.Printf("QRSentry version %s\n", version.Version)
		os.Exit(0)
	}

	if *configFile != "" {
		cfg.ConfigFile = *configFile
		if err := cfg.loadFromFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data":
			cfg.Data = *data
		case "input":
			cfg.InputFile = *inputFile
		case "user-id":
			cfg.UserID = *userID
		case "trusted-domains":
			cfg.TrustedDomains = parseCommaSeparated(*trustedDomains)
		case "trust-list-url":
			cfg.TrustListURL = strings.TrimSpace(*trustListURL)
		case "reputation-endpoint":
			cfg.ReputationEndpoint = strings.TrimSpace(*reputationEndpoint)
		case "reputation-api-key":
			cfg.ReputationAPIKey = *reputationAPIKey
		case "ml-endpoint":
			cfg.MLEndpoint = strings.TrimSpace(*mlEndpoint)
		case "request-timeout":
			cfg.RequestTimeout = *requestTimeout
		case "max-lookups-per-second":
			cfg.MaxLookupsPerSecond = *maxLookups
		case "cache-ttl":
			cfg.CacheTTL = *cacheTTL
		case "concurrency":
			cfg.ConcurrencyLevel = *concurrency
			cfg.ConcurrencySet = true
		case "output":
			cfg.OutputFileName = *output
		case "max-output-file-size":
			cfg.MaxOutputFileSize = *maxOutputFileSize
		case "log-level":
			cfg.LogLevel = *logLevel
		case "otel-endpoint":
			cfg.OtelEndpoint = strings.TrimSpace(*otelEndpoint)
		case "otel-from-env":
			cfg.OtelFromEnv = *otelFromEnv
		case "otel-headers":
			cfg.OtelHeaders = parseHeaders(*otelHeaders)
		case "otel-service-name":
			cfg.OtelServiceName = strings.TrimSpace(*otelServiceName)
		case "otel-timeout":
			cfg.OtelTimeout = *otelTimeout
		case "otel-export-content":
			cfg.OtelExportContent = *otelExportContent
		}
	})

	if cfg.ReputationAPIKey == "" {
		cfg.ReputationAPIKey = strings.TrimSpace(os.Getenv("QRSENTRY_REPUTATION_KEY"))
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func displayHelp() {
	fmt.Println("QRSentry - QR payload safety classifier")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  qrsentry [options]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  qrsentry --data \"https://example.com/login\"")
	fmt.Println("  qrsentry --input payloads.txt --concurrency 4")
	fmt.Println("  qrsentry --data \"WIFI:S:Cafe;T:WPA;P:pass;;\" --output history.ndjson")
}

func (cfg *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read config file: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid config file format: %v", err)
	}
	if _, ok := raw["concurrency_level"]; ok {
		cfg.ConcurrencySet = true
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("invalid config file format: %v", err)
	}
	return nil
}

func (cfg *Config) validate() error {
	if cfg.Data == "" && cfg.InputFile == "" {
		return fmt.Errorf("either --data or --input must be provided")
	}
	if cfg.ReputationEndpoint == "" {
		return fmt.Errorf("reputation endpoint must not be empty")
	}
	if !hasHTTPScheme(cfg.ReputationEndpoint) {
		return fmt.Errorf("reputation endpoint must include scheme (http or https)")
	}
	if cfg.MLEndpoint == "" {
		return fmt.Errorf("ml endpoint must not be empty")
	}
	if !hasHTTPScheme(cfg.MLEndpoint) {
		return fmt.Errorf("ml endpoint must include scheme (http or https)")
	}
	if cfg.TrustListURL != "" && !hasHTTPScheme(cfg.TrustListURL) {
		return fmt.Errorf("trust-list-url must include scheme (http or https)")
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request-timeout must be positive")
	}
	if cfg.MaxLookupsPerSecond < 0 {
		return fmt.Errorf("max-lookups-per-second must be zero or positive")
	}
	if cfg.CacheTTL < 0 {
		return fmt.Errorf("cache-ttl must be zero or positive")
	}
	if cfg.ConcurrencyLevel <= 0 {
		return fmt.Errorf("concurrency level must be positive")
	}
	if cfg.MaxOutputFileSize < 0 {
		return fmt.Errorf("max-output-file-size must be zero or positive")
	}
	if cfg.OutputFileName == "" {
		return fmt.Errorf("output file name must not be empty")
	}
	if cfg.OtelTimeout < 0 {
		return fmt.Errorf("otel-timeout must be zero or positive")
	}
	if cfg.OtelEndpoint != "" && !hasHTTPScheme(cfg.OtelEndpoint) {
		return fmt.Errorf("otel-endpoint must include scheme (http or https)")
	}
	if cfg.LogLevel != "debug" && cfg.LogLevel != "info" && cfg.LogLevel != "warn" &&
		cfg.LogLevel != "error" && cfg.LogLevel != "fatal" && cfg.LogLevel != "panic" {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}
	return nil
}

func hasHTTPScheme(endpoint string) bool {
	return strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://")
}

func parseCommaSeparated(input string) []string {
	if input == "" {
		return []string{}
	}
	items := strings.Split(input, ",")
	for i, item := range items {
		items[i] = strings.TrimSpace(item)
	}
	return items
}

func parseHeaders(input string) map[string]string {
	headers := make(map[string]string)
	if input == "" {
		return headers
	}
	for _, item := range strings.Split(input, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.SplitN(item, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		headers[key] = value
	}
	return headers
}
