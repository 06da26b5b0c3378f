package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/treatmentplan-backend/internal/platform/envutil"
	"github.com/yungbote/treatmentplan-backend/internal/platform/logger"
)

const tracerName = "github.com/yungbote/treatmentplan-backend"

// TraceConfig drives InitTracing. Without an endpoint spans go to stdout.
type TraceConfig struct {
	Enabled     bool
	ServiceName string
	Environment string
	Version     string
	Endpoint    string
	Headers     map[string]string
	Insecure    bool
	SampleRatio float64
}

// TraceConfigFromEnv reads the OTEL_* variables.
func TraceConfigFromEnv(log *logger.Logger, serviceName, environment, version string) TraceConfig {
	return TraceConfig{
		Enabled:     envutil.Bool("OTEL_ENABLED", false, log),
		ServiceName: serviceName,
		Environment: environment,
		Version:     version,
		Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
		Headers:     envutil.Pairs("OTEL_EXPORTER_OTLP_HEADERS", log),
		Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false, log),
		SampleRatio: envutil.Float("OTEL_SAMPLER_RATIO", 0.1, 0, 1, log),
	}
}

func noopShutdown(context.Context) error { return nil }

// InitTracing installs the global tracer provider and propagators. The
// returned func flushes pending spans; it is a no-op when tracing is off.
func InitTracing(ctx context.Context, log *logger.Logger, cfg TraceConfig) func(context.Context) error {
	if !cfg.Enabled {
		return noopShutdown
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceNameKey.String(cfg.ServiceName),
		semconv.ServiceVersionKey.String(cfg.Version),
		attribute.String("deployment.environment", cfg.Environment),
	))
	if err != nil {
		log.Warn("otel resource init failed (continuing)", "error", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithResource(res),
	}
	exporter, err := newSpanExporter(ctx, cfg)
	switch {
	case err != nil:
		log.Warn("otel exporter init failed, spans will be dropped", "error", err)
	case cfg.Endpoint == "":
		log.Warn("otel using stdout exporter (no OTLP endpoint configured)")
		fallthrough
	default:
		opts = append(opts, sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	log.Info("otel tracing initialized", "service", cfg.ServiceName, "endpoint", cfg.Endpoint, "ratio", cfg.SampleRatio)
	return tp.Shutdown
}

func newSpanExporter(ctx context.Context, cfg TraceConfig) (sdktrace.SpanExporter, error) {
	if cfg.Endpoint == "" {
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	}
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(cfg.Headers))
	}
	return otlptracehttp.New(ctx, opts...)
}

// StartSpan opens a span on the global tracer. Without InitTracing the
// global provider is a no-op.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// PlanAttr tags a span with the plan it works on.
func PlanAttr(documentID string) attribute.KeyValue {
	return attribute.String("plan.document_id", documentID)
}
