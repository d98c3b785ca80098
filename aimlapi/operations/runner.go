package operations

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/aimlflow/aimlapi"
	"github.com/BaSui01/aimlflow/aimlapi/generation"
	"github.com/BaSui01/aimlflow/internal/idempotency"
	"github.com/BaSui01/aimlflow/types"
)

// ItemRecorder receives one observation per executed item.
type ItemRecorder interface {
	RecordOperationItem(operation, result string)
}

// RunnerConfig controls how a batch of items is executed.
type RunnerConfig struct {
	// Concurrency bounds the number of items in flight; values below 1 run
	// items one at a time.
	Concurrency int
	// ContinueOnFail turns item errors into error rows instead of aborting
	// the batch.
	ContinueOnFail bool
}

// Request is one batch: a single operation applied to every item.
type Request struct {
	Operation aimlapi.Operation
	BaseURL   string
	Model     string
	Items     []Item
}

// Runner executes batches of items against the registry. Items share no
// mutable state; each polls its own generation.
type Runner struct {
	registry *Registry
	doer     generation.Doer
	resolver *generation.Resolver
	poll     PollOptionsFunc
	config   RunnerConfig
	dedupe   *idempotency.Manager
	recorder ItemRecorder
	logger   *zap.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRegistry replaces the default executor registry.
func WithRegistry(r *Registry) RunnerOption {
	return func(rn *Runner) { rn.registry = r }
}

// WithPollOptions supplies per-media polling budgets.
func WithPollOptions(f PollOptionsFunc) RunnerOption {
	return func(rn *Runner) { rn.poll = f }
}

// WithDedupe reuses stored rows for items already executed with identical
// parameters. Items carrying binaries are never deduplicated.
func WithDedupe(m *idempotency.Manager) RunnerOption {
	return func(rn *Runner) { rn.dedupe = m }
}

// WithItemRecorder attaches a metrics recorder.
func WithItemRecorder(r ItemRecorder) RunnerOption {
	return func(rn *Runner) { rn.recorder = r }
}

// NewRunner creates a Runner.
func NewRunner(doer generation.Doer, resolver *generation.Resolver, config RunnerConfig, logger *zap.Logger, opts ...RunnerOption) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if resolver == nil {
		resolver = generation.NewResolver(doer, logger)
	}
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	r := &Runner{
		registry: DefaultRegistry(),
		doer:     doer,
		resolver: resolver,
		config:   config,
		logger:   logger.With(zap.String("component", "runner")),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes req and returns one row per item, in item order. Without
// ContinueOnFail the first failing item cancels the rest and its error is
// returned.
func (r *Runner) Run(ctx context.Context, req Request) ([]Output, error) {
	if !req.Operation.Valid() {
		return nil, types.NewUnsupportedOperation(string(req.Operation))
	}
	if _, ok := r.registry.Lookup(req.Operation); !ok {
		return nil, types.NewUnsupportedOperation(string(req.Operation))
	}

	rows := make([]Output, len(req.Items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.Concurrency)

	for i := range req.Items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := r.runItem(gctx, req, i)
			if err == nil {
				rows[i] = out
				r.record(req.Operation, "success")
				return nil
			}
			r.record(req.Operation, "error")
			if !r.config.ContinueOnFail {
				return fmt.Errorf("item %d: %w", i, err)
			}
			r.logger.Warn("item failed, continuing",
				zap.String("operation", string(req.Operation)),
				zap.Int("item", i),
				zap.Error(err))
			rows[i] = ErrorRow(err)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Runner) runItem(ctx context.Context, req Request, index int) (Output, error) {
	item := req.Items[index]
	model := req.Model
	if m := item.Params.String("model"); m != "" {
		model = m
	}
	if model == "" {
		return nil, types.NewValidationError("model is required")
	}

	key := r.dedupeKey(req, model, item)
	if key != "" {
		if cached, found, err := idempotency.GetTyped[Output](ctx, r.dedupe, key); err == nil && found {
			r.logger.Debug("item served from dedupe store", zap.Int("item", index))
			return cached, nil
		}
	}

	ec := &ExecContext{
		BaseURL:  req.BaseURL,
		Model:    model,
		Index:    index,
		Item:     item,
		Doer:     r.doer,
		Resolver: r.resolver,
		Poll:     r.poll,
		Logger:   r.logger.With(zap.Int("item", index)),
	}
	out, err := r.registry.Execute(ctx, req.Operation, ec)
	if err != nil {
		return nil, err
	}

	if key != "" {
		if err := r.dedupe.Set(ctx, key, out); err != nil {
			r.logger.Warn("failed to store item result", zap.Int("item", index), zap.Error(err))
		}
	}
	return out, nil
}

func (r *Runner) dedupeKey(req Request, model string, item Item) string {
	if r.dedupe == nil || len(item.Binaries) > 0 {
		return ""
	}
	params, err := json.Marshal(item.Params)
	if err != nil {
		return ""
	}
	key, err := r.dedupe.GenerateKey(string(req.Operation), req.BaseURL, model, string(params))
	if err != nil {
		return ""
	}
	return key
}

func (r *Runner) record(op aimlapi.Operation, result string) {
	if r.recorder != nil {
		r.recorder.RecordOperationItem(string(op), result)
	}
}

// ErrorRow renders err as the row emitted under ContinueOnFail.
func ErrorRow(err error) Output {
	row := Output{"error": err.Error()}
	if e, ok := types.AsError(err); ok {
		row["error"] = e.Message
		row["code"] = string(e.Code)
		if e.GenerationID != "" {
			row["generation_id"] = e.GenerationID
		}
	}
	return row
}
