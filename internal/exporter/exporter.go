// Package exporter wires up the OTel SDK TracerProvider, LoggerProvider,
// and MeterProvider for the stdout/OTLP-gRPC/OTLP-HTTP protocol choices,
// covering all three signal types rather than traces alone.
package exporter

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Protocol selects the OTLP wire protocol, or "stdout" for local debugging.
type Protocol string

const (
	ProtocolStdout Protocol = "stdout"
	ProtocolGRPC   Protocol = "grpc"
	ProtocolHTTP   Protocol = "http/protobuf"
)

// Options configures the exporter pipeline shared by every worker.
type Options struct {
	Protocol Protocol
	Endpoint string
}

// Providers bundles the Logger and Meter providers, which are shared
// across every worker. Each worker additionally owns its own
// TracerProvider, built via NewWorkerTracerProvider, because span/trace ID
// generation must be seeded per worker.
type Providers struct {
	Logger *sdklog.LoggerProvider
	Meter  *sdkmetric.MeterProvider

	mu            sync.Mutex
	workerTracers []*sdktrace.TracerProvider
}

// Shutdown flushes and closes every provider, collecting every error rather
// than stopping at the first.
func (p *Providers) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	tracers := p.workerTracers
	p.mu.Unlock()

	var errs []error
	for _, t := range tracers {
		if err := t.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider: %w", err))
		}
	}
	if p.Logger != nil {
		if err := p.Logger.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("logger provider: %w", err))
		}
	}
	if p.Meter != nil {
		if err := p.Meter.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider: %w", err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("shutting down providers: %v", errs)
}

// New builds the shared Logger/Meter provider pipeline.
func New(ctx context.Context, opts Options) (*Providers, error) {
	logExp, err := newLogExporter(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("log exporter: %w", err)
	}
	metricExp, err := newMetricExporter(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("metric exporter: %w", err)
	}

	return &Providers{
		Logger: sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewBatchProcessor(logExp))),
		Meter:  sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp))),
	}, nil
}

// NewWorkerTracerProvider builds a per-worker TracerProvider exporting
// through its own OTLP connection but generating trace/span IDs from
// idGen, so generation stays reproducible for a fixed seed. The returned
// provider is registered with p so Shutdown flushes it.
func (p *Providers) NewWorkerTracerProvider(ctx context.Context, opts Options, idGen sdktrace.IDGenerator) (*sdktrace.TracerProvider, error) {
	traceExp, err := newTraceExporter(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithIDGenerator(idGen),
	)
	p.mu.Lock()
	p.workerTracers = append(p.workerTracers, tp)
	p.mu.Unlock()
	return tp, nil
}

func newTraceExporter(ctx context.Context, opts Options) (sdktrace.SpanExporter, error) {
	switch opts.Protocol {
	case ProtocolStdout, "":
		return stdouttrace.New(stdouttrace.WithWriter(os.Stdout))
	case ProtocolGRPC:
		var grpcOpts []otlptracegrpc.Option
		if opts.Endpoint != "" {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithEndpoint(opts.Endpoint), otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.New(ctx, grpcOpts...)
	case ProtocolHTTP:
		var httpOpts []otlptracehttp.Option
		if opts.Endpoint != "" {
			httpOpts = append(httpOpts, otlptracehttp.WithEndpoint(opts.Endpoint), otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, httpOpts...)
	default:
		return nil, fmt.Errorf("unsupported protocol %q", opts.Protocol)
	}
}

func newLogExporter(ctx context.Context, opts Options) (sdklog.Exporter, error) {
	switch opts.Protocol {
	case ProtocolStdout, "":
		return stdoutlog.New(stdoutlog.WithWriter(os.Stdout))
	case ProtocolGRPC:
		var grpcOpts []otlploggrpc.Option
		if opts.Endpoint != "" {
			grpcOpts = append(grpcOpts, otlploggrpc.WithEndpoint(opts.Endpoint), otlploggrpc.WithInsecure())
		}
		return otlploggrpc.New(ctx, grpcOpts...)
	case ProtocolHTTP:
		var httpOpts []otlploghttp.Option
		if opts.Endpoint != "" {
			httpOpts = append(httpOpts, otlploghttp.WithEndpoint(opts.Endpoint), otlploghttp.WithInsecure())
		}
		return otlploghttp.New(ctx, httpOpts...)
	default:
		return nil, fmt.Errorf("unsupported protocol %q", opts.Protocol)
	}
}

func newMetricExporter(ctx context.Context, opts Options) (sdkmetric.Exporter, error) {
	switch opts.Protocol {
	case ProtocolStdout, "":
		return stdoutmetric.New()
	case ProtocolGRPC:
		var grpcOpts []otlpmetricgrpc.Option
		if opts.Endpoint != "" {
			grpcOpts = append(grpcOpts, otlpmetricgrpc.WithEndpoint(opts.Endpoint), otlpmetricgrpc.WithInsecure())
		}
		return otlpmetricgrpc.New(ctx, grpcOpts...)
	case ProtocolHTTP:
		var httpOpts []otlpmetrichttp.Option
		if opts.Endpoint != "" {
			httpOpts = append(httpOpts, otlpmetrichttp.WithEndpoint(opts.Endpoint), otlpmetrichttp.WithInsecure())
		}
		return otlpmetrichttp.New(ctx, httpOpts...)
	default:
		return nil, fmt.Errorf("unsupported protocol %q", opts.Protocol)
	}
}
