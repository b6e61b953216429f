package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	apiMeter       = otel.Meter("forge-flow/api")
	selectionMeter = otel.Meter("forge-flow/selection")
	workflowMeter  = otel.Meter("forge-flow/workflow")
)

// Provider API Metrics

// IncAPIRequest counts a REST or GraphQL call by provider, method and status.
func (m *Metrics) IncAPIRequest(ctx context.Context, provider, method string, status int) {
	counter, _ := apiMeter.Int64Counter("api.requests",
		metric.WithDescription("Count of provider API requests"),
		metric.WithUnit("1"))
	counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("method", method),
		attribute.Int("status", status),
	))
}

// RecordAPILatency records provider API call latency.
func (m *Metrics) RecordAPILatency(ctx context.Context, provider, method string, duration time.Duration) {
	histogram, _ := apiMeter.Float64Histogram("api.latency",
		metric.WithDescription("Provider API call latency"),
		metric.WithUnit("ms"))
	histogram.Record(ctx, duration.Seconds()*1000, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("method", method),
	))
}

// IncRateLimitHit counts responses that exhausted the provider's rate limit.
func (m *Metrics) IncRateLimitHit(ctx context.Context, provider string) {
	counter, _ := apiMeter.Int64Counter("api.rate.limit.hits",
		metric.WithDescription("Count of provider rate limit hits"),
		metric.WithUnit("1"))
	counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
	))
}

// Selection Metrics

// IncAttributeFetch counts candidate fetches by kind and result.
func (m *Metrics) IncAttributeFetch(ctx context.Context, kind, result string) {
	counter, _ := selectionMeter.Int64Counter("attribute.fetches",
		metric.WithDescription("Count of candidate set fetches"),
		metric.WithUnit("1"))
	counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("result", result), // success, failure
	))
}

// RecordAttributeCandidates records how many candidates a fetch returned.
func (m *Metrics) RecordAttributeCandidates(ctx context.Context, kind string, count int64) {
	histogram, _ := selectionMeter.Int64Histogram("attribute.candidates",
		metric.WithDescription("Number of candidates per fetch"),
		metric.WithUnit("1"))
	histogram.Record(ctx, count, metric.WithAttributes(
		attribute.String("kind", kind),
	))
}

// Workflow Metrics

// IncWorkflow counts workflow runs by name and result.
func (m *Metrics) IncWorkflow(ctx context.Context, workflow, result string) {
	counter, _ := workflowMeter.Int64Counter("workflow.runs",
		metric.WithDescription("Count of workflow runs"),
		metric.WithUnit("1"))
	counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("workflow", workflow),
		attribute.String("result", result), // success, failure
	))
}

// RecordWorkflowDuration records how long a workflow took, prompts included.
func (m *Metrics) RecordWorkflowDuration(ctx context.Context, workflow string, duration time.Duration) {
	histogram, _ := workflowMeter.Float64Histogram("workflow.duration",
		metric.WithDescription("Duration of workflow runs"),
		metric.WithUnit("s"))
	histogram.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("workflow", workflow),
	))
}

// IncBranchPublish counts branch publish outcomes.
func (m *Metrics) IncBranchPublish(ctx context.Context, outcome string) {
	counter, _ := workflowMeter.Int64Counter("branch.publish",
		metric.WithDescription("Count of branch publish attempts by outcome"),
		metric.WithUnit("1"))
	counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome), // created, pushed, force_pushed, up_to_date, aborted
	))
}

// IncAutoMerge counts auto-merge enablement attempts.
func (m *Metrics) IncAutoMerge(ctx context.Context, provider, method, result string) {
	counter, _ := workflowMeter.Int64Counter("auto.merge",
		metric.WithDescription("Count of auto-merge enablement attempts"),
		metric.WithUnit("1"))
	counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("method", method),
		attribute.String("result", result),
	))
}
