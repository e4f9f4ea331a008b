package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"qrsentry/config"
	"qrsentry/deviceinfo"
	"qrsentry/history"
	"qrsentry/intel"
	"qrsentry/logger"
	"qrsentry/scan"
	"qrsentry/tracing"
	"qrsentry/trust"
	"qrsentry/version"

	"github.com/schollz/progressbar/v3"
)

func main() {
	if err := tracing.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start trace: %v\n", err)
	} else {
		defer tracing.Stop()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel)

	if cfg.ReputationAPIKey == "" {
		logger.Warn("No reputation API key configured. Threat-list lookups will degrade every URL to Suspicious.")
	}

	startTime := time.Now()
	metrics := history.Metrics{
		StartTime: startTime.Format(time.RFC3339),
	}

	device, err := deviceinfo.Collect()
	if err != nil {
		logger.Errorf("Failed to gather device information: %v", err)
	}

	writer, err := history.New(cfg, device, &metrics)
	if err != nil {
		logger.Fatalf("Failed to initialize history: %v", err)
	}
	defer writer.Close()

	policy := buildTrustPolicy(cfg)

	repClient := intel.NewReputationClient(
		cfg.ReputationEndpoint,
		cfg.ReputationAPIKey,
		"qrsentry",
		version.Version,
		cfg.RequestTimeout,
		cfg.MaxLookupsPerSecond,
	)
	mlClient := intel.NewMLClient(cfg.MLEndpoint, cfg.RequestTimeout, cfg.MaxLookupsPerSecond)
	cache := intel.NewCache(cfg.CacheTTL)

	orch := scan.NewOrchestrator(policy, repClient, mlClient, cache, writer, cfg.UserID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go handleSignals(cancel, &metrics, writer)

	if cfg.Data != "" {
		if err := runSingle(ctx, orch, cfg.Data); err != nil {
			logger.Fatalf("Scan failed: %v", err)
		}
	} else {
		if err := runBatch(ctx, cfg, orch); err != nil {
			// An interrupt is an orderly stop: the history trailer and
			// OTLP flush in writer.Close still have to happen.
			if errors.Is(err, context.Canceled) {
				logger.Warn("Batch scan interrupted. Flushing history before exit.")
			} else {
				logger.Fatalf("Batch scan failed: %v", err)
			}
		}
	}

	metrics.EndTime = time.Now().Format(time.RFC3339)
	writer.SetMetrics(metrics)

	logger.Info("Scan completed successfully.")
}

// buildTrustPolicy seeds the allowlist from configuration and merges in the
// published list when one is configured. A fetch failure downgrades to the
// local list instead of aborting startup.
func buildTrustPolicy(cfg *config.Config) *trust.Policy {
	domains := append([]string(nil), cfg.TrustedDomains...)
	if cfg.TrustListURL != "" {
		remote, listVersion, err := trust.FetchList(cfg.TrustListURL)
		if err != nil {
			logger.Warnf("Trusted-domain list fetch failed, using local list: %v", err)
		} else {
			logger.Infof("Merged trusted-domain list version %s (%d domains)", listVersion, len(remote))
			domains = append(domains, remote...)
		}
	}
	return trust.NewPolicy(domains)
}

func runSingle(ctx context.Context, orch *scan.Orchestrator, data string) error {
	result := orch.HandleScan(ctx, scan.RawScan{Type: "QR_CODE", Data: data})
	if result == nil {
		return fmt.Errorf("payload contains no scannable content")
	}
	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}

func runBatch(ctx context.Context, cfg *config.Config, orch *scan.Orchestrator) error {
	payloads, err := readPayloads(cfg.InputFile)
	if err != nil {
		return err
	}
	if len(payloads) == 0 {
		return fmt.Errorf("input contains no payloads")
	}

	bar := progressbar.Default(int64(len(payloads)), "classifying")
	jobs := make(chan string)

	var wg sync.WaitGroup
	for i := 0; i < cfg.ConcurrencyLevel; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for payload := range jobs {
				taskCtx, endTask := tracing.StartTask(ctx, "scan")
				if res := orch.HandleScan(taskCtx, scan.RawScan{Type: "QR_CODE", Data: payload}); res == nil {
					logger.Warnf("Skipping empty payload")
				}
				endTask()
				bar.Add(1)
			}
		}()
	}

feed:
	for _, payload := range payloads {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- payload:
		}
	}
	close(jobs)
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}
	bar.Finish()
	return nil
}

// readPayloads loads one raw payload per line; "-" reads from stdin. Blank
// lines are skipped but whitespace inside a payload is preserved.
func readPayloads(path string) ([]string, error) {
	var reader *bufio.Scanner
	if path == "-" {
		reader = bufio.NewScanner(os.Stdin)
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("could not open input file: %v", err)
		}
		defer f.Close()
		reader = bufio.NewScanner(f)
	}
	reader.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var payloads []string
	for reader.Scan() {
		line := reader.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		payloads = append(payloads, line)
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("could not read input: %v", err)
	}
	return payloads, nil
}

func handleSignals(cancelFunc context.CancelFunc, metrics *history.Metrics, w *history.Writer) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	handleSignalEvent(cancelFunc, metrics, w, sigChan)
}

func handleSignalEvent(cancelFunc context.CancelFunc, metrics *history.Metrics, w *history.Writer, sigChan <-chan os.Signal) {
	<-sigChan
	logger.Info("Interrupt signal received. Shutting down...")

	metrics.EndTime = time.Now().Format(time.RFC3339)
	w.SetMetrics(*metrics)

	cancelFunc()
}
