// Package telemetry provides OpenTelemetry metrics for forge-flow.
package telemetry

import (
	"context"
	"errors"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

const (
	serviceName = "forge-flow"

	// ExporterNone disables export, instruments fall back to the global no-op provider.
	ExporterNone = "none"
	// ExporterStdout prints metrics, to stderr unless WithWriter says otherwise.
	ExporterStdout = "stdout"
	// ExporterOTLP pushes metrics to an OTLP gRPC collector.
	ExporterOTLP = "otlp"
)

// ErrUnsupportedExporter is returned for an unknown exporter name.
var ErrUnsupportedExporter = errors.New("unsupported exporter type")

// Metrics records forge-flow measurements. A nil *Metrics is valid and records through
// whatever global meter provider is installed.
type Metrics struct{}

type options struct {
	ctx          context.Context
	exporter     string
	otlpEndpoint string
	schemaURL    string
	writer       io.Writer
	attributes   []attribute.KeyValue
}

// Option is a function that sets an option for the Metrics instance.
type Option func(*options)

// WithContext sets the context used while building exporters.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		o.ctx = ctx
	}
}

// WithExporter sets the exporter: none, stdout or otlp.
func WithExporter(exporter string) Option {
	return func(o *options) {
		o.exporter = exporter
	}
}

// WithOTLPEndpoint sets the OTLP endpoint for the otlp exporter.
func WithOTLPEndpoint(endpoint string) Option {
	return func(o *options) {
		o.otlpEndpoint = endpoint
	}
}

// WithWriter sets where the stdout exporter writes.
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}

// WithAttributes adds resource attributes.
func WithAttributes(attributes ...attribute.KeyValue) Option {
	return func(o *options) {
		o.attributes = append(o.attributes, attributes...)
	}
}

// WithSchemaURL sets the resource schema URL.
func WithSchemaURL(schemaURL string) Option {
	return func(o *options) {
		o.schemaURL = schemaURL
	}
}

func defaultOptions() *options {
	return &options{
		ctx:          context.Background(),
		exporter:     ExporterNone,
		otlpEndpoint: "localhost:4317",
		schemaURL:    "https://opentelemetry.io/schemas/1.4.0",
		writer:       os.Stderr,
		attributes:   []attribute.KeyValue{attribute.String("service.name", serviceName)},
	}
}

// NewMetrics sets up the OpenTelemetry SDK and returns the Metrics instance with a shutdown
// function that flushes pending measurements. Callers should always call shutdown.
func NewMetrics(options ...Option) (*Metrics, func(context.Context) error, error) {
	opts := defaultOptions()
	for _, opt := range options {
		opt(opts)
	}
	if opts.ctx == nil {
		opts.ctx = context.Background()
	}

	m := &Metrics{}
	if opts.exporter == ExporterNone || opts.exporter == "" {
		return m, func(context.Context) error { return nil }, nil
	}

	meterProvider, err := newMeterProvider(opts)
	if err != nil {
		return nil, nil, errors.New("failed to set up OpenTelemetry SDK: " + err.Error())
	}
	otel.SetMeterProvider(meterProvider)
	return m, meterProvider.Shutdown, nil
}

func newMeterProvider(opts *options) (*metric.MeterProvider, error) {
	var (
		metricExporter metric.Exporter
		err            error
	)
	switch opts.exporter {
	case ExporterStdout:
		metricExporter, err = stdoutmetric.New(
			stdoutmetric.WithWriter(opts.writer),
			stdoutmetric.WithPrettyPrint(),
		)
	case ExporterOTLP:
		metricExporter, err = otlpmetricgrpc.New(opts.ctx,
			otlpmetricgrpc.WithInsecure(),
			otlpmetricgrpc.WithEndpoint(opts.otlpEndpoint),
		)
	default:
		return nil, errors.Join(ErrUnsupportedExporter, errors.New(opts.exporter))
	}
	if err != nil {
		return nil, err
	}

	res, err := resource.New(
		opts.ctx,
		resource.WithAttributes(opts.attributes...),
		resource.WithSchemaURL(opts.schemaURL),
	)
	if err != nil {
		return nil, err
	}

	return metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(metric.NewPeriodicReader(metricExporter)),
	), nil
}
