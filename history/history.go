// Package history persists scan verdicts as NDJSON records, one line per
// scan, with a device-info header and a metrics trailer. Writes are
// best-effort from the pipeline's point of view: a failed write never
// changes the verdict the user sees.
package history

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"qrsentry/config"
	"qrsentry/deviceinfo"
	"qrsentry/logger"
	"qrsentry/qrcontent"
	"qrsentry/verdict"
)

const SchemaVersion = "1.0"

// Record is one persisted scan.
type Record struct {
	UserID         string            `json:"user_id"`
	DecodedContent string            `json:"decoded_content"`
	SecurityStatus verdict.Status    `json:"security_status"`
	ContentType    qrcontent.Type    `json:"content_type"`
	FlaggedBy      verdict.FlaggedBy `json:"flagged_by,omitempty"`
	ScannedAt      string            `json:"scanned_at"`
}

type Metrics struct {
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	ScansRecorded int    `json:"scans_recorded"`
	ScansFlagged  int    `json:"scans_flagged"`
}

type Writer struct {
	file    *os.File
	buf     *bufio.Writer
	mu      sync.Mutex
	metrics *Metrics
	cfg     *config.Config
	device  *deviceinfo.DeviceInfo
	otel    *otelLogger
	base    string
	ext     string
	index   int
}

func New(cfg *config.Config, device *deviceinfo.DeviceInfo, m *Metrics) (*Writer, error) {
	ext := filepath.Ext(cfg.OutputFileName)
	base := strings.TrimSuffix(cfg.OutputFileName, ext)

	if device == nil {
		device = &deviceinfo.DeviceInfo{}
	}

	w := &Writer{
		metrics: m,
		cfg:     cfg,
		device:  device,
		base:    base,
		ext:     ext,
	}
	otel, err := newOtelLogger(cfg)
	if err != nil {
		logger.Warnf("OTEL export disabled: %v", err)
	} else {
		w.otel = otel
	}
	if err := w.openFile(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Writer) openFile() error {
	name := w.base + w.ext
	if w.index > 0 {
		name = fmt.Sprintf("%s.%d%s", w.base, w.index, w.ext)
	}
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	w.file = f
	w.buf = bufio.NewWriterSize(f, 64*1024)
	if err := w.writeLineLocked("device_info", w.device); err != nil {
		return err
	}
	w.emitRecordLocked("device_info", w.device)
	return w.buf.Flush()
}

// WriteScan appends one scan record. The error is informational; callers log
// it and move on.
func (w *Writer) WriteScan(rec Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writeLineLocked("scan", rec); err != nil {
		return err
	}
	if w.metrics != nil {
		w.metrics.ScansRecorded++
		if rec.SecurityStatus != verdict.StatusSafe {
			w.metrics.ScansFlagged++
		}
	}
	w.emitRecordLocked("scan", rec)
	if err := w.buf.Flush(); err != nil {
		return err
	}

	if w.cfg.MaxOutputFileSize > 0 {
		if info, err := w.file.Stat(); err == nil && info.Size() >= w.cfg.MaxOutputFileSize {
			w.rotate()
		}
	}
	return nil
}

func (w *Writer) SetMetrics(m Metrics) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.metrics = &m
}

func (w *Writer) ScansRecorded() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.metrics == nil {
		return 0
	}
	return w.metrics.ScansRecorded
}

func (w *Writer) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.metrics != nil {
		_ = w.writeLineLocked("metrics", w.metrics)
		w.emitRecordLocked("metrics", w.metrics)
	}
	_ = w.buf.Flush()
	_ = w.file.Sync()
	_ = w.file.Close()
	if w.otel != nil {
		w.otel.Shutdown()
	}
}

func (w *Writer) rotate() {
	_ = w.buf.Flush()
	_ = w.file.Sync()
	_ = w.file.Close()
	w.index++
	if err := w.openFile(); err != nil {
		logger.Errorf("History rotation failed: %v", err)
	}
}

// writeLineLocked writes one NDJSON line wrapping the payload in a record
// envelope.
func (w *Writer) writeLineLocked(recordType string, payload interface{}) error {
	data, err := jsonMarshal(payload)
	if err != nil {
		return err
	}
	var fields map[string]interface{}
	if err := jsonUnmarshal(data, &fields); err != nil {
		return err
	}
	fields["record_type"] = recordType
	fields["schema_version"] = SchemaVersion
	line, err := jsonMarshal(fields)
	if err != nil {
		return err
	}
	if _, err := w.buf.Write(line); err != nil {
		return err
	}
	_, err = w.buf.WriteString("\n")
	return err
}

func (w *Writer) emitRecordLocked(recordType string, payload interface{}) {
	if w.otel == nil {
		return
	}
	w.otel.Emit(recordType, payload)
}
