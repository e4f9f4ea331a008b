package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"qrsentry/config"
	"qrsentry/logger"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	otelLog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
)

type otelLogger struct {
	provider *sdklog.LoggerProvider
	logger   otelLog.Logger
	timeout  time.Duration
	endpoint string
	policy   otelPolicy
}

type otelPolicy struct {
	includeContent bool
}

func newOtelLogger(cfg *config.Config) (*otelLogger, error) {
	if cfg == nil {
		return nil, nil
	}
	endpoint := resolveOtelEndpoint(cfg)
	if endpoint == "" {
		return nil, nil
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return nil, fmt.Errorf("otel endpoint must include scheme (http or https)")
	}

	opts := []otlploghttp.Option{otlploghttp.WithEndpointURL(endpoint)}
	if len(cfg.OtelHeaders) > 0 {
		opts = append(opts, otlploghttp.WithHeaders(cfg.OtelHeaders))
	}
	if cfg.OtelTimeout > 0 {
		opts = append(opts, otlploghttp.WithTimeout(cfg.OtelTimeout))
	}

	exp, err := otlploghttp.New(context.Background(), opts...)
	if err != nil {
		return nil, err
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(cfg.OtelServiceName),
	)
	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exp)),
		sdklog.WithResource(res),
	)

	return &otelLogger{
		provider: provider,
		logger:   provider.Logger("qrsentry"),
		timeout:  cfg.OtelTimeout,
		endpoint: endpoint,
		policy: otelPolicy{
			includeContent: cfg.OtelExportContent,
		},
	}, nil
}

func resolveOtelEndpoint(cfg *config.Config) string {
	if cfg == nil {
		return ""
	}
	if endpoint := strings.TrimSpace(cfg.OtelEndpoint); endpoint != "" {
		return endpoint
	}
	if !cfg.OtelFromEnv {
		return ""
	}
	if endpoint := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT")); endpoint != "" {
		return endpoint
	}
	return strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
}

func (o *otelLogger) Endpoint() string {
	if o == nil {
		return ""
	}
	return o.endpoint
}

func (o *otelLogger) Emit(recordType string, payload interface{}) {
	if o == nil || o.logger == nil {
		return
	}
	safePayload := sanitizePayload(recordType, payload, o.policy)

	var record otelLog.Record
	record.SetTimestamp(time.Now())
	record.SetObservedTimestamp(time.Now())
	record.SetEventName("qrsentry.record")
	record.AddAttributes(
		otelLog.String("record_type", recordType),
		otelLog.String("schema_version", SchemaVersion),
	)
	if attrs := semanticAttributes(recordType, safePayload); len(attrs) > 0 {
		record.AddAttributes(attrs...)
	}

	value := toLogValue(safePayload)
	if value.Kind() == otelLog.KindEmpty {
		if data, err := json.Marshal(safePayload); err == nil {
			var decoded interface{}
			if err := json.Unmarshal(data, &decoded); err == nil {
				decodedValue := toLogValue(decoded)
				if decodedValue.Kind() != otelLog.KindEmpty {
					record.SetBody(decodedValue)
				} else {
					record.SetBody(otelLog.StringValue(string(data)))
				}
			} else {
				record.SetBody(otelLog.StringValue(string(data)))
			}
		}
	} else {
		record.SetBody(value)
	}

	o.logger.Emit(context.Background(), record)
}

func (o *otelLogger) Shutdown() {
	if o == nil || o.provider == nil {
		return
	}
	timeout := o.timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := o.provider.Shutdown(ctx); err != nil {
		logger.Debugf("OTEL shutdown failed: %v", err)
	}
}

// sanitizePayload strips decoded QR payloads from exported scan records
// unless content export was explicitly enabled. Everything else ships as-is.
func sanitizePayload(recordType string, payload interface{}, policy otelPolicy) interface{} {
	if recordType != "scan" || policy.includeContent {
		return payload
	}
	data := payloadToMap(payload)
	if len(data) == 0 {
		return payload
	}
	sanitized := make(map[string]interface{}, len(data))
	for k, v := range data {
		sanitized[k] = v
	}
	delete(sanitized, "decoded_content")
	return sanitized
}

func semanticAttributes(recordType string, payload interface{}) []otelLog.KeyValue {
	data := payloadToMap(payload)
	if len(data) == 0 {
		return nil
	}

	switch recordType {
	case "scan":
		return scanSemanticAttributes(data)
	case "device_info":
		return deviceSemanticAttributes(data)
	case "metrics":
		return metricsSemanticAttributes(data)
	default:
		return nil
	}
}

func scanSemanticAttributes(data map[string]interface{}) []otelLog.KeyValue {
	var kvs []otelLog.KeyValue

	kvs = appendStringAttr(kvs, "qrsentry.scan.user_id", getStringField(data, "user_id"))
	kvs = appendStringAttr(kvs, "qrsentry.scan.security_status", getStringField(data, "security_status"))
	kvs = appendStringAttr(kvs, "qrsentry.scan.content_type", getStringField(data, "content_type"))
	kvs = appendStringAttr(kvs, "qrsentry.scan.flagged_by", getStringField(data, "flagged_by"))
	kvs = appendStringAttr(kvs, "qrsentry.scan.scanned_at", getStringField(data, "scanned_at"))

	return kvs
}

func deviceSemanticAttributes(data map[string]interface{}) []otelLog.KeyValue {
	var kvs []otelLog.KeyValue

	kvs = appendStringAttr(kvs, string(semconv.HostNameKey), getStringField(data, "hostname"))
	kvs = appendStringAttr(kvs, string(semconv.OSNameKey), getStringField(data, "platform"))
	kvs = appendStringAttr(kvs, string(semconv.OSVersionKey), getStringField(data, "platform_version"))
	kvs = appendStringAttr(kvs, "qrsentry.device.os", getStringField(data, "os"))
	kvs = appendStringAttr(kvs, "qrsentry.device.kernel_version", getStringField(data, "kernel_version"))

	return kvs
}

func metricsSemanticAttributes(data map[string]interface{}) []otelLog.KeyValue {
	var kvs []otelLog.KeyValue

	kvs = appendStringAttr(kvs, "qrsentry.metrics.start_time", getStringField(data, "start_time"))
	kvs = appendStringAttr(kvs, "qrsentry.metrics.end_time", getStringField(data, "end_time"))
	if recorded, ok := getInt64Field(data, "scans_recorded"); ok {
		kvs = append(kvs, otelLog.Int64("qrsentry.metrics.scans_recorded", recorded))
	}
	if flagged, ok := getInt64Field(data, "scans_flagged"); ok {
		kvs = append(kvs, otelLog.Int64("qrsentry.metrics.scans_flagged", flagged))
	}

	return kvs
}

func payloadToMap(payload interface{}) map[string]interface{} {
	switch v := payload.(type) {
	case map[string]interface{}:
		return v
	case map[string]string:
		out := make(map[string]interface{}, len(v))
		for key, value := range v {
			out[key] = value
		}
		return out
	default:
		data, err := json.Marshal(payload)
		if err != nil {
			return nil
		}
		var decoded map[string]interface{}
		if err := json.Unmarshal(data, &decoded); err != nil {
			return nil
		}
		return decoded
	}
}

func getStringField(values map[string]interface{}, key string) string {
	value, ok := values[key]
	if !ok {
		return ""
	}
	if str, ok := value.(string); ok {
		return str
	}
	if value == nil {
		return ""
	}
	return fmt.Sprint(value)
}

func getInt64Field(values map[string]interface{}, key string) (int64, bool) {
	value, ok := values[key]
	if !ok || value == nil {
		return 0, false
	}
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return int64(v), true
	case float32:
		return int64(v), true
	case json.Number:
		if parsed, err := v.Int64(); err == nil {
			return parsed, true
		}
	}
	return 0, false
}

func appendStringAttr(kvs []otelLog.KeyValue, key, value string) []otelLog.KeyValue {
	if value == "" {
		return kvs
	}
	return append(kvs, otelLog.String(key, value))
}

func toLogValue(value interface{}) otelLog.Value {
	switch v := value.(type) {
	case nil:
		return otelLog.Value{}
	case string:
		return otelLog.StringValue(v)
	case []byte:
		return otelLog.BytesValue(v)
	case bool:
		return otelLog.BoolValue(v)
	case int:
		return otelLog.IntValue(v)
	case int64:
		return otelLog.Int64Value(v)
	case float64:
		return otelLog.Float64Value(v)
	case float32:
		return otelLog.Float64Value(float64(v))
	case map[string]interface{}:
		kvs := make([]otelLog.KeyValue, 0, len(v))
		for key, item := range v {
			kvs = append(kvs, otelLog.KeyValue{Key: key, Value: toLogValue(item)})
		}
		return otelLog.MapValue(kvs...)
	case map[string]string:
		kvs := make([]otelLog.KeyValue, 0, len(v))
		for key, item := range v {
			kvs = append(kvs, otelLog.String(key, item))
		}
		return otelLog.MapValue(kvs...)
	case []string:
		values := make([]otelLog.Value, 0, len(v))
		for _, item := range v {
			values = append(values, otelLog.StringValue(item))
		}
		return otelLog.SliceValue(values...)
	case []interface{}:
		values := make([]otelLog.Value, 0, len(v))
		for _, item := range v {
			values = append(values, toLogValue(item))
		}
		return otelLog.SliceValue(values...)
	default:
		_ = v
		return otelLog.Value{}
	}
}
