package selection

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/smartcontractkit/forge-flow/forge"
	"github.com/smartcontractkit/forge-flow/telemetry"
)

// ErrCollected is returned when a Resolver is used after Collect.
var ErrCollected = errors.New("resolver already collected")

// Resolver fetches the candidate sets of submitted requests concurrently.
// A failing fetch does not cancel its siblings, Collect reports the first failure.
type Resolver struct {
	ctx     context.Context
	source  forge.CandidateSource
	logger  zerolog.Logger
	metrics *telemetry.Metrics

	group errgroup.Group

	mu        sync.Mutex
	requests  []AttributeRequest
	results   [][]Candidate
	collected bool
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithMetrics records fetch outcomes.
func WithMetrics(metrics *telemetry.Metrics) ResolverOption {
	return func(r *Resolver) {
		r.metrics = metrics
	}
}

// WithContext sets the context fetches run with. Defaults to context.Background().
func WithContext(ctx context.Context) ResolverOption {
	return func(r *Resolver) {
		r.ctx = ctx
	}
}

// WithConcurrency caps the number of fetches in flight. Submit blocks while the cap is reached.
func WithConcurrency(limit int) ResolverOption {
	return func(r *Resolver) {
		r.group.SetLimit(limit)
	}
}

// NewResolver creates a Resolver reading from source.
func NewResolver(source forge.CandidateSource, options ...ResolverOption) *Resolver {
	r := &Resolver{
		ctx:    context.Background(),
		source: source,
		logger: zerolog.Nop(),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Submit starts fetching the full candidate set for req.Kind and returns.
func (r *Resolver) Submit(req AttributeRequest) error {
	r.mu.Lock()
	if r.collected {
		r.mu.Unlock()
		return ErrCollected
	}
	slot := len(r.requests)
	r.requests = append(r.requests, req)
	r.results = append(r.results, nil)
	r.mu.Unlock()

	r.group.Go(func() error {
		candidates, err := r.fetch(r.ctx, req.Kind)
		if err != nil {
			r.metrics.IncAttributeFetch(r.ctx, string(req.Kind), "error")
			return fmt.Errorf("failed to fetch %ss: %w", req.DisplayName, err)
		}
		r.metrics.IncAttributeFetch(r.ctx, string(req.Kind), "ok")
		r.metrics.RecordAttributeCandidates(r.ctx, string(req.Kind), int64(len(candidates)))
		r.logger.Trace().Str("kind", string(req.Kind)).Int("candidates", len(candidates)).Msg("Fetched candidates")

		r.mu.Lock()
		r.results[slot] = candidates
		r.mu.Unlock()
		return nil
	})
	return nil
}

// Collect waits for every submitted fetch and returns the inputs in submission order,
// with each request's PreFilter applied.
func (r *Resolver) Collect() ([]SelectionInput, error) {
	r.mu.Lock()
	if r.collected {
		r.mu.Unlock()
		return nil, ErrCollected
	}
	r.collected = true
	r.mu.Unlock()

	if err := r.group.Wait(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	inputs := make([]SelectionInput, 0, len(r.requests))
	for i, req := range r.requests {
		candidates := r.results[i]
		if req.PreFilter != nil {
			candidates = req.PreFilter(candidates)
		}
		inputs = append(inputs, SelectionInput{Request: req, Candidates: candidates})
	}
	return inputs, nil
}

func (r *Resolver) fetch(ctx context.Context, kind Kind) ([]Candidate, error) {
	switch kind {
	case KindLabel:
		labels, err := r.source.Labels(ctx)
		return FromLabels(labels), err
	case KindMilestone:
		milestones, err := r.source.Milestones(ctx, forge.MilestoneOpen)
		return FromMilestones(milestones), err
	case KindCollaborator:
		users, err := r.source.Collaborators(ctx)
		return FromUsers(users), err
	default:
		return nil, fmt.Errorf("unknown attribute kind %q", kind)
	}
}
