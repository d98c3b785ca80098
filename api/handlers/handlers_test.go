package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/aimlflow/aimlapi"
	"github.com/BaSui01/aimlflow/aimlapi/catalog"
	"github.com/BaSui01/aimlflow/aimlapi/operations"
	"github.com/BaSui01/aimlflow/types"
)

// =============================================================================
// 🧪 测试辅助类型
// =============================================================================

type fakeRunner struct {
	got  operations.Request
	rows []operations.Output
	err  error
}

func (f *fakeRunner) Run(_ context.Context, req operations.Request) ([]operations.Output, error) {
	f.got = req
	return f.rows, f.err
}

type fakeLister struct {
	options     []catalog.Option
	err         error
	op          aimlapi.Operation
	invalidated bool
}

func (f *fakeLister) Options(_ context.Context, _ string, op aimlapi.Operation) ([]catalog.Option, error) {
	f.op = op
	return f.options, f.err
}

func (f *fakeLister) Invalidate(context.Context, string) error {
	f.invalidated = true
	return nil
}

type decodedResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *ErrorInfo      `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) decodedResponse {
	t.Helper()
	var resp decodedResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func executeRequest(h *OperationHandler, op, body string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/operations/{operation}", h.HandleExecute)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/operations/"+op, strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

// =============================================================================
// 🧪 OperationHandler
// =============================================================================

func TestOperationHandler_Execute(t *testing.T) {
	runner := &fakeRunner{rows: []operations.Output{{"content": "hi"}}}
	h := NewOperationHandler(runner, "https://api.aimlapi.com/v1", 0, zap.NewNop())

	w := executeRequest(h, "chatcompletion", `{"model":"gpt-4o","items":[{"params":{"prompt":"hello"}}]}`)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)

	var data OperationResponse
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, "chatCompletion", data.Operation)
	require.Len(t, data.Results, 1)
	assert.Equal(t, "hi", data.Results[0]["content"])

	assert.Equal(t, aimlapi.OpChatCompletion, runner.got.Operation)
	assert.Equal(t, "https://api.aimlapi.com/v1", runner.got.BaseURL)
	assert.Equal(t, "gpt-4o", runner.got.Model)
	assert.Equal(t, "hello", runner.got.Items[0].Params.String("prompt"))
}

func TestOperationHandler_ExecuteDecodesBinaries(t *testing.T) {
	runner := &fakeRunner{rows: []operations.Output{{"text": "ok"}}}
	h := NewOperationHandler(runner, "https://api.aimlapi.com/v1", 0, zap.NewNop())

	body := `{"model":"#g1_whisper-large","items":[{"params":{},"binaries":{"data":{"data":"UklGRg==","fileName":"a.wav","mimeType":"audio/wav"}}}]}`
	w := executeRequest(h, "speechTranscription", body)

	require.Equal(t, http.StatusOK, w.Code)
	bin := runner.got.Items[0].Binaries["data"]
	assert.Equal(t, []byte("RIFF"), bin.Data)
	assert.Equal(t, "a.wav", bin.FileName)
}

func TestOperationHandler_ExecuteErrors(t *testing.T) {
	tests := []struct {
		name       string
		op         string
		body       string
		runnerErr  error
		wantStatus int
		wantCode   types.ErrorCode
	}{
		{
			name:       "unknown operation",
			op:         "translate",
			body:       `{"items":[{}]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   types.ErrUnsupportedOperation,
		},
		{
			name:       "empty items",
			op:         "imageGeneration",
			body:       `{"model":"m","items":[]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   types.ErrValidation,
		},
		{
			name:       "unknown field",
			op:         "imageGeneration",
			body:       `{"model":"m","items":[{}],"base_url":"http://evil"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   types.ErrInvalidRequest,
		},
		{
			name:       "generation failed",
			op:         "videoGeneration",
			body:       `{"model":"m","items":[{}]}`,
			runnerErr:  fmt.Errorf("item 0: %w", types.NewUpstreamFailure("gen-1", "failed", "nsfw")),
			wantStatus: http.StatusBadGateway,
			wantCode:   types.ErrUpstreamFailure,
		},
		{
			name:       "poll timeout",
			op:         "videoGeneration",
			body:       `{"model":"m","items":[{}]}`,
			runnerErr:  types.NewPollTimeout("gen-2", 60),
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   types.ErrPollTimeout,
		},
		{
			name:       "upstream 401 is not forwarded",
			op:         "imageGeneration",
			body:       `{"model":"m","items":[{}]}`,
			runnerErr:  types.NewTransportError(401, "invalid api key"),
			wantStatus: http.StatusBadGateway,
			wantCode:   types.ErrTransport,
		},
		{
			name:       "plain error is internal",
			op:         "imageGeneration",
			body:       `{"model":"m","items":[{}]}`,
			runnerErr:  errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   types.ErrInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewOperationHandler(&fakeRunner{err: tt.runnerErr}, "https://api.aimlapi.com/v1", 0, zap.NewNop())
			w := executeRequest(h, tt.op, tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decode(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, string(tt.wantCode), resp.Error.Code)
		})
	}
}

func TestOperationHandler_GenerationIDInError(t *testing.T) {
	h := NewOperationHandler(&fakeRunner{err: types.NewUpstreamFailure("gen-9", "error", "")}, "u", 0, nil)
	w := executeRequest(h, "audioGeneration", `{"model":"m","items":[{}]}`)

	resp := decode(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "gen-9", resp.Error.GenerationID)
}

func TestOperationHandler_MaxItems(t *testing.T) {
	h := NewOperationHandler(&fakeRunner{}, "u", 1, zap.NewNop())
	w := executeRequest(h, "imageGeneration", `{"model":"m","items":[{},{}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOperationHandler_RequiresJSON(t *testing.T) {
	h := NewOperationHandler(&fakeRunner{}, "u", 0, zap.NewNop())
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/operations/{operation}", h.HandleExecute)

	r := httptest.NewRequest(http.MethodPost, "/api/v1/operations/imageGeneration", bytes.NewBufferString("x"))
	r.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestOperationHandler_List(t *testing.T) {
	h := NewOperationHandler(&fakeRunner{}, "u", 0, zap.NewNop())
	w := httptest.NewRecorder()
	h.HandleList(w, httptest.NewRequest(http.MethodGet, "/api/v1/operations", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var infos []OperationInfo
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &infos))
	require.Len(t, infos, len(aimlapi.Operations()))
	assert.Equal(t, "chatCompletion", infos[0].Operation)
	assert.Equal(t, "text", infos[0].MediaType)
	assert.NotEmpty(t, infos[0].ExtractModes)
}

// =============================================================================
// 🧪 ModelsHandler
// =============================================================================

func TestModelsHandler_List(t *testing.T) {
	lister := &fakeLister{options: []catalog.Option{{Name: "Flux", Value: "flux/dev"}}}
	h := NewModelsHandler(lister, "https://api.aimlapi.com/v1", zap.NewNop())

	w := httptest.NewRecorder()
	h.HandleList(w, httptest.NewRequest(http.MethodGet, "/api/v1/models?operation=imageGeneration&refresh=true", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var data ModelsResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Equal(t, "imageGeneration", data.Operation)
	assert.Equal(t, []catalog.Option{{Name: "Flux", Value: "flux/dev"}}, data.Models)
	assert.Equal(t, aimlapi.OpImageGeneration, lister.op)
	assert.True(t, lister.invalidated)
}

func TestModelsHandler_EmptyListIsArray(t *testing.T) {
	h := NewModelsHandler(&fakeLister{}, "u", nil)
	w := httptest.NewRecorder()
	h.HandleList(w, httptest.NewRequest(http.MethodGet, "/api/v1/models?operation=videoGeneration", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"models":[]`)
}

func TestModelsHandler_Errors(t *testing.T) {
	h := NewModelsHandler(&fakeLister{}, "u", zap.NewNop())

	w := httptest.NewRecorder()
	h.HandleList(w, httptest.NewRequest(http.MethodGet, "/api/v1/models", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	h.HandleList(w, httptest.NewRequest(http.MethodGet, "/api/v1/models?operation=nope", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	failing := NewModelsHandler(&fakeLister{err: types.NewTransportError(0, "dial tcp: refused")}, "u", zap.NewNop())
	w = httptest.NewRecorder()
	failing.HandleList(w, httptest.NewRequest(http.MethodGet, "/api/v1/models?operation=chatCompletion", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

// =============================================================================
// 🧪 HealthHandler
// =============================================================================

func TestHealthHandler_HandleHealth(t *testing.T) {
	h := NewHealthHandler(zap.NewNop())
	w := httptest.NewRecorder()
	h.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var status HealthStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	assert.Equal(t, "healthy", status.Status)
	assert.False(t, status.Timestamp.IsZero())
}

func TestHealthHandler_HandleReady(t *testing.T) {
	h := NewHealthHandler(zap.NewNop())
	h.RegisterCheck(NewFuncCheck("redis", func(context.Context) error { return nil }))

	w := httptest.NewRecorder()
	h.HandleReady(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	h.RegisterCheck(NewFuncCheck("upstream", func(context.Context) error { return errors.New("circuit open") }))
	w = httptest.NewRecorder()
	h.HandleReady(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var status HealthStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	assert.Equal(t, "unhealthy", status.Status)
	assert.Equal(t, "pass", status.Checks["redis"].Status)
	assert.Equal(t, "fail", status.Checks["upstream"].Status)
	assert.Equal(t, "circuit open", status.Checks["upstream"].Message)
}

func TestHealthHandler_HandleVersion(t *testing.T) {
	h := NewHealthHandler(nil)
	w := httptest.NewRecorder()
	h.HandleVersion("1.2.3", "now", "abc")(w, httptest.NewRequest(http.MethodGet, "/version", nil))

	var data map[string]string
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Equal(t, "1.2.3", data["version"])
	assert.Equal(t, "abc", data["git_commit"])
}

// =============================================================================
// 🧪 通用辅助函数
// =============================================================================

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusTooManyRequests, StatusFor(types.NewTransportError(429, "slow down")))
	assert.Equal(t, http.StatusBadGateway, StatusFor(types.NewTransportError(503, "down")))
	assert.Equal(t, http.StatusGatewayTimeout,
		StatusFor(types.NewTransportError(0, "request cancelled").WithCause(context.DeadlineExceeded)))
	assert.Equal(t, http.StatusBadRequest, StatusFor(types.NewError(types.ErrValidation, "bad")))
	assert.Equal(t, http.StatusBadGateway, StatusFor(types.NewError(types.ErrUnexpectedResponse, "id changed")))
}

func TestDecodeJSONBody_TooLarge(t *testing.T) {
	body := `{"model":"` + strings.Repeat("a", MaxBodyBytes) + `"}`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	w := httptest.NewRecorder()

	var dst OperationRequest
	err := DecodeJSONBody(w, r, &dst, zap.NewNop())
	require.Error(t, err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestResponseWriter_CapturesStatusAndBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := NewResponseWriter(rec)
	rw.WriteHeader(http.StatusCreated)
	rw.WriteHeader(http.StatusOK)
	n, err := rw.Write([]byte("hello"))

	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, http.StatusCreated, rw.StatusCode)
	assert.Equal(t, int64(5), rw.BytesWritten)
	assert.Equal(t, http.StatusCreated, rec.Code)
}
