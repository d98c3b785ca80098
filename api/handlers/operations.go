package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/aimlflow/aimlapi"
	"github.com/BaSui01/aimlflow/aimlapi/operations"
	"github.com/BaSui01/aimlflow/types"
)

// =============================================================================
// ⚙️ 操作执行 Handler
// =============================================================================

// BatchRunner 执行一批条目
type BatchRunner interface {
	Run(ctx context.Context, req operations.Request) ([]operations.Output, error)
}

// OperationRequest POST /api/v1/operations/{operation} 的请求体。
// 网关地址由服务端配置决定，调用方不能指定，凭证不会发往任意主机。
type OperationRequest struct {
	Model string            `json:"model"`
	Items []operations.Item `json:"items"`
}

// OperationResponse 每个条目对应一行，顺序与请求一致
type OperationResponse struct {
	Operation string              `json:"operation"`
	Model     string              `json:"model,omitempty"`
	Results   []operations.Output `json:"results"`
}

// OperationInfo 描述一个可用操作
type OperationInfo struct {
	Operation    string   `json:"operation"`
	Label        string   `json:"label"`
	MediaType    string   `json:"media_type"`
	ExtractModes []string `json:"extract_modes"`
}

// OperationHandler 操作接口处理器
type OperationHandler struct {
	runner   BatchRunner
	baseURL  string
	maxItems int
	logger   *zap.Logger
}

// NewOperationHandler 创建操作处理器，maxItems <= 0 表示不限制批量大小
func NewOperationHandler(runner BatchRunner, baseURL string, maxItems int, logger *zap.Logger) *OperationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OperationHandler{
		runner:   runner,
		baseURL:  baseURL,
		maxItems: maxItems,
		logger:   logger.With(zap.String("handler", "operations")),
	}
}

// HandleList 处理 GET /api/v1/operations
func (h *OperationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ops := aimlapi.Operations()
	infos := make([]OperationInfo, 0, len(ops))
	for _, op := range ops {
		infos = append(infos, OperationInfo{
			Operation:    string(op),
			Label:        op.Label(),
			MediaType:    string(op.MediaType()),
			ExtractModes: operations.ExtractModes(op),
		})
	}
	WriteSuccess(w, infos)
}

// HandleExecute 处理 POST /api/v1/operations/{operation}。
// 请求同步等待所有条目完成，包括异步生成的轮询。
func (h *OperationHandler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	op, ok := aimlapi.ParseOperation(r.PathValue("operation"))
	if !ok {
		WriteError(w, types.NewUnsupportedOperation(r.PathValue("operation")), h.logger)
		return
	}

	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req OperationRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	if len(req.Items) == 0 {
		WriteError(w, types.NewValidationError("items must not be empty"), h.logger)
		return
	}
	if h.maxItems > 0 && len(req.Items) > h.maxItems {
		WriteError(w, types.NewValidationError("at most %d items per request, got %d", h.maxItems, len(req.Items)), h.logger)
		return
	}

	start := time.Now()
	rows, err := h.runner.Run(r.Context(), operations.Request{
		Operation: op,
		BaseURL:   h.baseURL,
		Model:     req.Model,
		Items:     req.Items,
	})
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	h.logger.Info("operation executed",
		zap.String("operation", string(op)),
		zap.String("model", req.Model),
		zap.Int("items", len(req.Items)),
		zap.Duration("duration", time.Since(start)),
	)

	WriteSuccess(w, OperationResponse{
		Operation: string(op),
		Model:     req.Model,
		Results:   rows,
	})
}
