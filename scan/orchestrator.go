// Package scan drives the full pipeline for one decoded QR payload: parse,
// trust shortcut, remote intelligence, verdict aggregation and best-effort
// history persistence.
package scan

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"qrsentry/history"
	"qrsentry/intel"
	"qrsentry/logger"
	"qrsentry/qrcontent"
	"qrsentry/tracing"
	"qrsentry/trust"
	"qrsentry/verdict"
)

var errNoClassifier = errors.New("no classifier configured")

// RawScan is one decoded barcode as delivered by a scanner frontend.
type RawScan struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// Result is the user-facing outcome of one scan.
type Result struct {
	Status          verdict.Status    `json:"security_status"`
	FlaggedBy       verdict.FlaggedBy `json:"flagged_by,omitempty"`
	OriginalContent string            `json:"original_content"`
	ContentType     qrcontent.Type    `json:"content_type"`
	Parsed          qrcontent.Content `json:"parsed"`
	Warnings        []string          `json:"warnings,omitempty"`
}

// ReputationChecker resolves a URL against a threat-intelligence service.
// Implementations never fail: lookup trouble surfaces as a Suspicious status.
type ReputationChecker interface {
	Check(ctx context.Context, rawURL string) verdict.Status
}

// Classifier scores a URL with an ML model.
type Classifier interface {
	Classify(ctx context.Context, rawURL string) (verdict.MLResult, error)
}

// Recorder persists finished scans. history.Writer satisfies it.
type Recorder interface {
	WriteScan(rec history.Record) error
}

// Orchestrator wires the pipeline stages together.
type Orchestrator struct {
	trust      *trust.Policy
	reputation ReputationChecker
	ml         Classifier
	cache      *intel.Cache
	recorder   Recorder
	userID     string
	now        func() time.Time
}

func NewOrchestrator(policy *trust.Policy, reputation ReputationChecker, ml Classifier, cache *intel.Cache, recorder Recorder, userID string) *Orchestrator {
	return &Orchestrator{
		trust:      policy,
		reputation: reputation,
		ml:         ml,
		cache:      cache,
		recorder:   recorder,
		userID:     userID,
		now:        time.Now,
	}
}

// HandleScan runs the pipeline for one payload. It returns nil for invalid
// input (missing barcode type or empty payload) and otherwise always produces
// a result: remote failures degrade the verdict, they never abort the scan.
func (o *Orchestrator) HandleScan(ctx context.Context, raw RawScan) *Result {
	if strings.TrimSpace(raw.Type) == "" || strings.TrimSpace(raw.Data) == "" {
		return nil
	}

	content := qrcontent.Parse(raw.Data)
	result := &Result{
		OriginalContent: content.Original,
		ContentType:     content.Type,
		Parsed:          content,
	}

	// Only URLs can reach out to the network; everything else is inert
	// from the scanner's point of view. Advisory warnings still apply.
	if content.Type != qrcontent.TypeURL {
		switch content.Type {
		case qrcontent.TypeText:
			result.Warnings = inspectBody(content.Text.Text)
		case qrcontent.TypeSMS:
			result.Warnings = inspectBody(content.SMS.Body)
		case qrcontent.TypeMailto:
			result.Warnings = inspectBody(content.Email.Subject, content.Email.Body)
		}
		result.Status = verdict.StatusSafe
		o.persist(result)
		return result
	}

	target := content.URL.URL
	result.Warnings = inspectURL(target)

	if o.trust != nil && o.trust.IsTrusted(target) {
		result.Status = verdict.StatusSafe
		result.FlaggedBy = verdict.FlaggedByWhitelist
		o.persist(result)
		return result
	}

	if cached, ok := o.cache.Get(target); ok {
		logger.Debugf("Verdict cache hit for %s", target)
		tracing.Log(ctx, "scan", "verdict cache hit")
		result.Status = cached.Status
		result.FlaggedBy = cached.FlaggedBy
		o.persist(result)
		return result
	}

	v := o.resolve(ctx, target)
	o.cache.Put(target, v)

	result.Status = v.Status
	result.FlaggedBy = v.FlaggedBy
	o.persist(result)
	return result
}

// resolve queries reputation and ML in parallel and aggregates the answers.
func (o *Orchestrator) resolve(ctx context.Context, target string) verdict.Verdict {
	var (
		wg        sync.WaitGroup
		repStatus = verdict.StatusSuspicious
		mlResult  verdict.MLResult
		mlErr     error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer tracing.StartRegion(ctx, "reputation-check")()
		if o.reputation != nil {
			repStatus = o.reputation.Check(ctx, target)
		}
	}()

	endRegion := tracing.StartRegion(ctx, "ml-classify")
	if o.ml != nil {
		mlResult, mlErr = o.ml.Classify(ctx, target)
	} else {
		mlErr = errNoClassifier
	}
	endRegion()
	wg.Wait()

	if mlErr != nil {
		logger.Warnf("ML classification unavailable for %s: %v", target, mlErr)
		// Aggregate with a neutral ML answer so a Malicious reputation
		// still wins, then refuse to call the remainder Safe.
		v := verdict.Aggregate(repStatus, verdict.MLResult{Prediction: verdict.StatusSafe})
		if v.Status == verdict.StatusSafe {
			v = verdict.Verdict{Status: verdict.StatusSuspicious}
		}
		return v
	}

	return verdict.Aggregate(repStatus, mlResult)
}

// persist writes the scan to history. Failures are logged and swallowed: the
// verdict already belongs to the user at this point.
func (o *Orchestrator) persist(result *Result) {
	if o.recorder == nil || result == nil {
		return
	}
	rec := history.Record{
		UserID:         o.userID,
		DecodedContent: result.OriginalContent,
		SecurityStatus: result.Status,
		ContentType:    result.ContentType,
		FlaggedBy:      result.FlaggedBy,
		ScannedAt:      o.now().UTC().Format(time.RFC3339),
	}
	if err := o.recorder.WriteScan(rec); err != nil {
		logger.Warnf("History write failed: %v", err)
	}
}
