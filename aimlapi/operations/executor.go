package operations

import (
	"context"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/BaSui01/aimlflow/aimlapi"
	"github.com/BaSui01/aimlflow/aimlapi/fields"
	"github.com/BaSui01/aimlflow/aimlapi/generation"
	"github.com/BaSui01/aimlflow/aimlapi/payload"
	"github.com/BaSui01/aimlflow/aimlapi/request"
	"github.com/BaSui01/aimlflow/types"
)

// Binary is an uploaded file attached to an item.
type Binary struct {
	Data          []byte `json:"data"`
	FileName      string `json:"fileName,omitempty"`
	MimeType      string `json:"mimeType,omitempty"`
	FileExtension string `json:"fileExtension,omitempty"`
}

// Item is one unit of work: the operation parameters plus any binaries.
type Item struct {
	Params   fields.Bag        `json:"params"`
	Binaries map[string]Binary `json:"binaries,omitempty"`
}

// Output is the JSON row produced for one item.
type Output map[string]any

// PollOptionsFunc supplies the polling budget for a media type.
type PollOptionsFunc func(mediaType aimlapi.MediaType) generation.Options

// ExecContext carries everything an executor needs for one item.
type ExecContext struct {
	BaseURL  string
	Model    string
	Index    int
	Item     Item
	Doer     generation.Doer
	Resolver *generation.Resolver
	Poll     PollOptionsFunc
	Logger   *zap.Logger
}

func (ec *ExecContext) params() fields.Bag {
	if ec.Item.Params == nil {
		return fields.Bag{}
	}
	return ec.Item.Params
}

func (ec *ExecContext) options() fields.Bag {
	return ec.params().Bag("options")
}

func (ec *ExecContext) pollOptions(mediaType aimlapi.MediaType) generation.Options {
	if ec.Poll == nil {
		return generation.DefaultOptions(mediaType)
	}
	opts := ec.Poll(mediaType)
	opts.MediaType = mediaType
	return opts
}

func (ec *ExecContext) resolver() *generation.Resolver {
	if ec.Resolver != nil {
		return ec.Resolver
	}
	return generation.NewResolver(ec.Doer, ec.Logger)
}

// call posts to a synchronous endpoint and returns the reply as is.
func (ec *ExecContext) call(ctx context.Context, path string, opts ...request.Option) (*payload.Payload, error) {
	return ec.Doer.Do(ctx, request.Build(ec.BaseURL, path, http.MethodPost, opts...))
}

// submit posts body to path and resolves the reply into a completed
// generation.
func (ec *ExecContext) submit(ctx context.Context, path string, mediaType aimlapi.MediaType, opts ...request.Option) (*generation.Result, error) {
	desc := request.Build(ec.BaseURL, path, http.MethodPost, opts...)
	initial, err := ec.Doer.Do(ctx, desc)
	if err != nil {
		return nil, err
	}
	return ec.resolver().Resolve(ctx, ec.BaseURL, path, initial, ec.pollOptions(mediaType))
}

// Executor runs one operation for one item.
type Executor func(ctx context.Context, ec *ExecContext) (Output, error)

// Registry maps operations to executors.
type Registry struct {
	mu        sync.RWMutex
	executors map[aimlapi.Operation]Executor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[aimlapi.Operation]Executor)}
}

// DefaultRegistry returns a registry with every gateway operation.
func DefaultRegistry() *Registry {
	return NewRegistry().
		Register(aimlapi.OpChatCompletion, ExecuteChatCompletion).
		Register(aimlapi.OpImageGeneration, ExecuteImageGeneration).
		Register(aimlapi.OpAudioGeneration, ExecuteAudioGeneration).
		Register(aimlapi.OpVideoGeneration, ExecuteVideoGeneration).
		Register(aimlapi.OpSpeechSynthesis, ExecuteSpeechSynthesis).
		Register(aimlapi.OpSpeechTranscription, ExecuteSpeechTranscription).
		Register(aimlapi.OpEmbeddingGeneration, ExecuteEmbeddingGeneration)
}

// Register binds ex to op, replacing any previous executor.
func (r *Registry) Register(op aimlapi.Operation, ex Executor) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[op] = ex
	return r
}

// Lookup returns the executor for op.
func (r *Registry) Lookup(op aimlapi.Operation) (Executor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ex, ok := r.executors[op]
	return ex, ok
}

// Execute runs op for one item. An operation without an executor fails with
// UNSUPPORTED_OPERATION.
func (r *Registry) Execute(ctx context.Context, op aimlapi.Operation, ec *ExecContext) (Output, error) {
	ex, ok := r.Lookup(op)
	if !ok {
		return nil, types.NewUnsupportedOperation(string(op))
	}
	if ec.Logger == nil {
		ec.Logger = zap.NewNop()
	}
	return ex(ctx, ec)
}
