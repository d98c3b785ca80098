package handlers

import (
	"context"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/BaSui01/aimlflow/aimlapi"
	"github.com/BaSui01/aimlflow/aimlapi/catalog"
	"github.com/BaSui01/aimlflow/types"
)

// =============================================================================
// 📚 模型目录 Handler
// =============================================================================

// ModelLister 列出某个操作可用的模型
type ModelLister interface {
	Options(ctx context.Context, baseURL string, op aimlapi.Operation) ([]catalog.Option, error)
	Invalidate(ctx context.Context, baseURL string) error
}

// ModelsResponse GET /api/v1/models 的响应
type ModelsResponse struct {
	Operation string           `json:"operation"`
	Models    []catalog.Option `json:"models"`
}

// ModelsHandler 模型目录处理器
type ModelsHandler struct {
	lister  ModelLister
	baseURL string
	logger  *zap.Logger
}

// NewModelsHandler 创建模型目录处理器
func NewModelsHandler(lister ModelLister, baseURL string, logger *zap.Logger) *ModelsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModelsHandler{
		lister:  lister,
		baseURL: baseURL,
		logger:  logger.With(zap.String("handler", "models")),
	}
}

// HandleList 处理 GET /api/v1/models?operation=chatCompletion[&refresh=true]
func (h *ModelsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	raw := q.Get("operation")
	if raw == "" {
		WriteError(w, types.NewValidationError("query parameter operation is required"), h.logger)
		return
	}
	op, ok := aimlapi.ParseOperation(raw)
	if !ok {
		WriteError(w, types.NewUnsupportedOperation(raw), h.logger)
		return
	}

	if refresh, _ := strconv.ParseBool(q.Get("refresh")); refresh {
		if err := h.lister.Invalidate(r.Context(), h.baseURL); err != nil {
			h.logger.Warn("目录缓存失效失败", zap.Error(err))
		}
	}

	options, err := h.lister.Options(r.Context(), h.baseURL, op)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	if options == nil {
		options = []catalog.Option{}
	}

	WriteSuccess(w, ModelsResponse{Operation: string(op), Models: options})
}
