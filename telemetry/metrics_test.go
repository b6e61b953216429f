package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestNewMetrics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		options []Option
		wantErr bool
	}{
		{
			name: "default options export nothing",
		},
		{
			name:    "explicit none",
			options: []Option{WithExporter(ExporterNone)},
		},
		{
			name: "stdout exporter",
			options: []Option{
				WithExporter(ExporterStdout),
				WithWriter(&bytes.Buffer{}),
				WithContext(context.Background()),
			},
		},
		{
			name: "custom attributes and schema",
			options: []Option{
				WithExporter(ExporterStdout),
				WithWriter(&bytes.Buffer{}),
				WithAttributes(attribute.String("environment", "test")),
				WithSchemaURL("https://opentelemetry.io/schemas/1.4.0"),
			},
		},
		{
			name:    "unsupported exporter",
			options: []Option{WithExporter("carrier-pigeon")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			metrics, shutdown, err := NewMetrics(tt.options...)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, metrics)
				assert.Nil(t, shutdown)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, metrics)
			require.NotNil(t, shutdown)
			require.NoError(t, shutdown(context.Background()))
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := defaultOptions()
	assert.Equal(t, ExporterNone, opts.exporter)
	assert.Equal(t, "localhost:4317", opts.otlpEndpoint)
	assert.NotNil(t, opts.ctx)
	require.Len(t, opts.attributes, 1)
	assert.Equal(t, "service.name", string(opts.attributes[0].Key))
	assert.Equal(t, serviceName, opts.attributes[0].Value.AsString())
}

func TestOptions(t *testing.T) {
	t.Parallel()

	opts := &options{}
	WithExporter(ExporterOTLP)(opts)
	WithOTLPEndpoint("collector:4317")(opts)
	WithSchemaURL("https://example.com/schema")(opts)
	WithAttributes(attribute.String("k", "v"))(opts)

	assert.Equal(t, ExporterOTLP, opts.exporter)
	assert.Equal(t, "collector:4317", opts.otlpEndpoint)
	assert.Equal(t, "https://example.com/schema", opts.schemaURL)
	assert.Len(t, opts.attributes, 1)
}
