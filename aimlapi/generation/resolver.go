package generation

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/aimlflow/aimlapi/extract"
	"github.com/BaSui01/aimlflow/aimlapi/payload"
	"github.com/BaSui01/aimlflow/aimlapi/request"
	"github.com/BaSui01/aimlflow/types"
)

const instrumentationName = "github.com/BaSui01/aimlflow/aimlapi/generation"

// Doer performs one HTTP exchange described by a request descriptor.
type Doer interface {
	Do(ctx context.Context, d *request.Descriptor) (*payload.Payload, error)
}

// Recorder receives one observation per finished Resolve call.
type Recorder interface {
	RecordGeneration(mediaType, outcome string, polls int, duration time.Duration)
}

// Result is a completed generation.
type Result struct {
	// Payload is the latest response after normalisation.
	Payload *payload.Payload
	// Original is the latest response as received.
	Original     *payload.Payload
	PromotedFrom string
	GenerationID string
	Status       string
	State        State
	Polls        int
	Artifacts    []extract.Artifact
}

// Resolver turns an initial upstream response into a completed result,
// polling the status endpoint when the job is still running. A Resolver holds
// no per-generation state and is safe for concurrent use.
type Resolver struct {
	doer     Doer
	logger   *zap.Logger
	tracer   trace.Tracer
	polls    metric.Int64Counter
	recorder Recorder
	sleep    func(ctx context.Context, d time.Duration) error
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) ResolverOption {
	return func(r *Resolver) { r.tracer = t }
}

// WithMeter overrides the global meter used for the poll counter.
func WithMeter(m metric.Meter) ResolverOption {
	return func(r *Resolver) { r.polls = newPollCounter(m) }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(rec Recorder) ResolverOption {
	return func(r *Resolver) { r.recorder = rec }
}

// NewResolver creates a Resolver that polls through doer.
func NewResolver(doer Doer, logger *zap.Logger, opts ...ResolverOption) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Resolver{
		doer:   doer,
		logger: logger.With(zap.String("component", "generation_resolver")),
		tracer: otel.Tracer(instrumentationName),
		polls:  newPollCounter(otel.Meter(instrumentationName)),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func newPollCounter(m metric.Meter) metric.Int64Counter {
	c, err := m.Int64Counter("aimlflow.generation.polls",
		metric.WithDescription("Status polls issued while waiting for generations"),
		metric.WithUnit("{poll}"))
	if err != nil {
		return nil
	}
	return c
}

// Resolve inspects initial and, if the generation is still pending, polls
// GET {path}?generation_id={id} until it completes, fails or the attempt
// budget runs out. The first poll is issued without delay; later polls wait
// opts.PollInterval. Cancelling ctx aborts both the wait and the HTTP call.
func (r *Resolver) Resolve(ctx context.Context, baseURL, path string, initial *payload.Payload, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	start := time.Now()

	ctx, span := r.tracer.Start(ctx, "generation.resolve",
		trace.WithAttributes(
			attribute.String("generation.media_type", string(opts.MediaType)),
			attribute.String("generation.path", path),
		))
	defer span.End()

	res, err := r.resolve(ctx, baseURL, path, initial, opts)

	outcome := StateFailed
	polls := 0
	if res != nil {
		outcome, polls = res.State, res.Polls
		span.SetAttributes(attribute.String("generation.id", res.GenerationID))
	}
	if err != nil {
		if types.IsErrorCode(err, types.ErrPollTimeout) {
			outcome = StateTimedOut
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(
		attribute.String("generation.state", outcome.String()),
		attribute.Int("generation.polls", polls),
	)
	if r.recorder != nil {
		r.recorder.RecordGeneration(string(opts.MediaType), outcome.String(), polls, time.Since(start))
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *Resolver) resolve(ctx context.Context, baseURL, path string, initial *payload.Payload, opts Options) (*Result, error) {
	if initial == nil {
		return nil, types.NewError(types.ErrUnexpectedResponse, "empty initial response")
	}

	v, err := evaluate(initial, opts.MediaType, "")
	if err != nil {
		r.logger.Warn("generation failed on initial response",
			zap.String("generation_id", v.id),
			zap.String("status", v.rawStatus),
			zap.Error(err))
		return nil, err
	}
	if !v.poll {
		r.logger.Debug("generation resolved without polling",
			zap.String("generation_id", v.id),
			zap.String("status", v.rawStatus))
		return r.result(v, initial, StateResolved, 0), nil
	}

	id := v.id
	r.logger.Info("generation pending, polling",
		zap.String("generation_id", id),
		zap.String("status", v.rawStatus),
		zap.Duration("interval", opts.PollInterval),
		zap.Int("max_attempts", opts.MaxAttempts))

	for attempt := 0; attempt < opts.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := r.sleep(ctx, opts.PollInterval); err != nil {
				return &Result{GenerationID: id, State: StatePolling, Polls: attempt}, err
			}
		}

		desc := request.Build(baseURL, path, http.MethodGet, request.WithQuery("generation_id", id))
		latest, err := r.doer.Do(ctx, desc)
		if r.polls != nil {
			r.polls.Add(ctx, 1, metric.WithAttributes(attribute.String("media_type", string(opts.MediaType))))
		}
		if err != nil {
			return &Result{GenerationID: id, State: StatePolling, Polls: attempt + 1}, err
		}

		if rid := latest.RootGenerationID(); rid != "" && rid != id {
			return &Result{GenerationID: id, State: StateFailed, Polls: attempt + 1},
				types.NewError(types.ErrUnexpectedResponse, "generation id changed while polling").
					WithGenerationID(id).
					WithReason(rid)
		}

		v, err = evaluate(latest, opts.MediaType, id)
		if err != nil {
			r.logger.Warn("generation failed while polling",
				zap.String("generation_id", id),
				zap.Int("attempt", attempt+1),
				zap.String("status", v.rawStatus),
				zap.Error(err))
			return &Result{GenerationID: id, State: StateFailed, Polls: attempt + 1}, err
		}
		if !v.poll {
			r.logger.Info("generation completed",
				zap.String("generation_id", id),
				zap.Int("polls", attempt+1),
				zap.String("status", v.rawStatus))
			return r.result(v, latest, StateCompleted, attempt+1), nil
		}
		r.logger.Debug("generation still running",
			zap.String("generation_id", id),
			zap.Int("attempt", attempt+1),
			zap.String("status", v.rawStatus))
	}

	r.logger.Warn("generation timed out",
		zap.String("generation_id", id),
		zap.Int("attempts", opts.MaxAttempts))
	return &Result{GenerationID: id, State: StateTimedOut, Polls: opts.MaxAttempts},
		types.NewPollTimeout(id, opts.MaxAttempts)
}

func (r *Resolver) result(v verdict, original *payload.Payload, state State, polls int) *Result {
	res := &Result{
		Payload:      v.payload,
		Original:     original,
		PromotedFrom: v.promotedFrom,
		GenerationID: v.id,
		Status:       v.rawStatus,
		State:        state,
		Polls:        polls,
	}
	if v.payload != nil {
		res.Artifacts = extract.Artifacts(v.payload, v.mediaType)
	}
	return res
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
