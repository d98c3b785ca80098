package operations

import (
	"bytes"
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/aimlflow/aimlapi"
	"github.com/BaSui01/aimlflow/aimlapi/fields"
	"github.com/BaSui01/aimlflow/aimlapi/generation"
	"github.com/BaSui01/aimlflow/aimlapi/payload"
	"github.com/BaSui01/aimlflow/aimlapi/request"
	"github.com/BaSui01/aimlflow/types"
)

const testBase = "https://api.aimlapi.com/v1"

// routeDoer answers by "METHOD path" and records every descriptor.
type routeDoer struct {
	mu     sync.Mutex
	calls  []*request.Descriptor
	routes map[string][]string
	errs   map[string]error
}

func newRouteDoer() *routeDoer {
	return &routeDoer{routes: map[string][]string{}, errs: map[string]error{}}
}

func (d *routeDoer) on(method, path string, bodies ...string) *routeDoer {
	d.routes[method+" "+path] = append(d.routes[method+" "+path], bodies...)
	return d
}

func (d *routeDoer) Do(_ context.Context, desc *request.Descriptor) (*payload.Payload, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, desc.Clone())
	key := desc.Method + " " + desc.Path
	if err, ok := d.errs[key]; ok {
		return nil, err
	}
	queue := d.routes[key]
	if len(queue) == 0 {
		return nil, types.NewTransportError(404, "no route for "+key)
	}
	body := queue[0]
	if len(queue) > 1 {
		d.routes[key] = queue[1:]
	}
	if desc.ExpectText {
		return payload.FromText(body), nil
	}
	return payload.MustParse(body), nil
}

func (d *routeDoer) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

func fastPoll(mediaType aimlapi.MediaType) generation.Options {
	return generation.Options{MediaType: mediaType, PollInterval: time.Millisecond, MaxAttempts: 3}
}

func execCtx(doer generation.Doer, model string, params fields.Bag) *ExecContext {
	return &ExecContext{
		BaseURL: testBase,
		Model:   model,
		Item:    Item{Params: params},
		Doer:    doer,
		Poll:    fastPoll,
		Logger:  zap.NewNop(),
	}
}

func TestRegistry_UnsupportedOperation(t *testing.T) {
	r := NewRegistry()
	_, err := r.Execute(context.Background(), aimlapi.OpVideoGeneration, execCtx(newRouteDoer(), "m", nil))
	require.Error(t, err)
	assert.Equal(t, types.ErrUnsupportedOperation, types.GetErrorCode(err))

	for _, op := range aimlapi.Operations() {
		_, ok := DefaultRegistry().Lookup(op)
		assert.True(t, ok, op)
	}
}

func TestExtractMode(t *testing.T) {
	ec := execCtx(nil, "m", fields.Bag{})
	mode, err := extractMode(aimlapi.OpVideoGeneration, ec)
	require.NoError(t, err)
	assert.Equal(t, "firstUrl", mode)

	ec.Item.Params["extract"] = "ALLURLS"
	mode, err = extractMode(aimlapi.OpVideoGeneration, ec)
	require.NoError(t, err)
	assert.Equal(t, "allUrls", mode)

	ec.Item.Params["extract"] = "firstBase64"
	_, err = extractMode(aimlapi.OpVideoGeneration, ec)
	assert.Equal(t, types.ErrValidation, types.GetErrorCode(err))
}

func TestChatMessages(t *testing.T) {
	msgs, err := ChatMessages(fields.Bag{"prompt": "hi"})
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"role": "user", "content": "hi"}}, msgs)

	msgs, err = ChatMessages(fields.Bag{
		"useStructuredMessages": true,
		"messages": []any{
			map[string]any{"role": "system", "content": "be brief"},
			map[string]any{"role": "user", "content": "   "},
			map[string]any{"role": "custom", "customRole": "critic", "content": "review"},
			map[string]any{"role": "custom", "content": "fallback"},
			map[string]any{"role": "tool", "tool_call_id": " call_1 ", "content": "42"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{
		{"role": "system", "content": "be brief"},
		{"role": "critic", "content": "review"},
		{"role": "user", "content": "fallback"},
		{"role": "tool", "content": "42", "tool_call_id": "call_1"},
	}, msgs)
}

func TestChatMessages_Validation(t *testing.T) {
	_, err := ChatMessages(fields.Bag{
		"useStructuredMessages": true,
		"messages":              []any{map[string]any{"role": "tool", "content": "42"}},
	})
	assert.Equal(t, types.ErrValidation, types.GetErrorCode(err))

	_, err = ChatMessages(fields.Bag{
		"useStructuredMessages": true,
		"messages":              []any{map[string]any{"role": "user", "content": ""}},
	})
	assert.Equal(t, types.ErrValidation, types.GetErrorCode(err))
}

func TestChatBody_Options(t *testing.T) {
	body, err := ChatBody("gpt-4o-audio-preview", fields.Bag{
		"prompt": "sing",
		"options": map[string]any{
			"temperature":    0.2,
			"maxTokens":      float64(64),
			"topP":           nil,
			"responseFormat": "text",
			"audioOutput":    true,
			"audioFormat":    "mp3",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 0.2, body["temperature"])
	assert.Equal(t, float64(64), body["max_tokens"])
	assert.NotContains(t, body, "top_p")
	assert.Equal(t, map[string]any{"type": "text"}, body["response_format"])
	assert.Equal(t, []string{"text", "audio"}, body["modalities"])
	assert.Equal(t, map[string]any{"voice": "alloy", "format": "mp3"}, body["audio"])
}

func TestExecuteChatCompletion(t *testing.T) {
	doer := newRouteDoer().on(http.MethodPost, "/chat/completions",
		`{"id":"chatcmpl-1","choices":[{"message":{"role":"assistant","content":[{"type":"text","text":"Hello"},{"type":"output_audio","text":"skip"}]}}]}`)

	out, err := ExecuteChatCompletion(context.Background(), execCtx(doer, "gpt-4o", fields.Bag{"prompt": "hi"}))
	require.NoError(t, err)
	assert.Equal(t, Output{"content": "Hello"}, out)
	require.Len(t, doer.calls, 1)
	assert.Equal(t, testBase, doer.calls[0].BaseURL)

	doer = newRouteDoer().on(http.MethodPost, "/chat/completions",
		`{"choices":[{"message":{"role":"assistant","content":"a"}},{"text":"legacy"}]}`)
	out, err = ExecuteChatCompletion(context.Background(), execCtx(doer, "gpt-4o", fields.Bag{"prompt": "hi", "extract": "messages"}))
	require.NoError(t, err)
	assert.Equal(t, []any{map[string]any{"role": "assistant", "content": "a"}}, out["result"])
}

func TestExecuteVideoGeneration_Polls(t *testing.T) {
	doer := newRouteDoer().
		on(http.MethodPost, "/video/generations", `{"id":"g1","status":"queued"}`).
		on(http.MethodGet, "/video/generations",
			`{"id":"g1","status":"processing"}`,
			`{"id":"g1","status":"completed","video":{"url":"https://x/v.mp4"}}`)

	params := fields.Bag{"prompt": "a cat", "options": map[string]any{"aspectRatio": "16:9", "duration": float64(10)}}
	out, err := ExecuteVideoGeneration(context.Background(), execCtx(doer, "runway/gen4_turbo", params))
	require.NoError(t, err)
	assert.Equal(t, Output{"url": "https://x/v.mp4"}, out)

	require.Len(t, doer.calls, 3)
	post := doer.calls[0]
	assert.Equal(t, "https://api.aimlapi.com/v2", post.BaseURL)
	assert.Equal(t, "1280:720", post.Body["ratio"])
	assert.Equal(t, 10, post.Body["duration"])
	assert.Equal(t, "g1", doer.calls[1].Query.Get("generation_id"))
	assert.Equal(t, http.MethodGet, doer.calls[2].Method)
}

func TestExecuteVideoGeneration_UpstreamFailure(t *testing.T) {
	doer := newRouteDoer().
		on(http.MethodPost, "/video/generations", `{"generation_id":"g2","status":"failed","error":"quota exceeded"}`)

	_, err := ExecuteVideoGeneration(context.Background(), execCtx(doer, "kling-video/v1", fields.Bag{"prompt": "x"}))
	require.Error(t, err)
	e, ok := types.AsError(err)
	require.True(t, ok)
	assert.Equal(t, types.ErrUpstreamFailure, e.Code)
	assert.Equal(t, "quota exceeded", e.Reason)
	assert.Equal(t, "g2", e.GenerationID)
	assert.Equal(t, 1, doer.callCount())
}

func TestExecuteImageGeneration_Images(t *testing.T) {
	doer := newRouteDoer().on(http.MethodPost, "/images/generations",
		`{"data":[{"url":"https://x/1.png","revised_prompt":"a red lighthouse"},{"b64_json":"aGVsbG8="}]}`)

	params := fields.Bag{"prompt": "lighthouse", "extract": "images", "options": map[string]any{"size": "1024x1024"}}
	out, err := ExecuteImageGeneration(context.Background(), execCtx(doer, "dall-e-3", params))
	require.NoError(t, err)
	assert.Equal(t, []ImageResult{
		{Index: 0, URL: "https://x/1.png", RevisedPrompt: "a red lighthouse"},
		{Index: 1, Base64: "aGVsbG8="},
	}, out["images"])
	assert.Equal(t, "1024x1024", doer.calls[0].Body["size"])

	doer = newRouteDoer().on(http.MethodPost, "/images/generations", `{"data":[]}`)
	out, err = ExecuteImageGeneration(context.Background(), execCtx(doer, "dall-e-3", fields.Bag{"prompt": "x", "extract": "allUrls"}))
	require.NoError(t, err)
	assert.Equal(t, Output{"urls": []string{}}, out)
}

func TestExecuteAudioGeneration(t *testing.T) {
	doer := newRouteDoer().
		on(http.MethodPost, "/generate/audio", `{"id":"a1","status":"queued"}`).
		on(http.MethodGet, "/generate/audio", `{"id":"a1","status":"completed","audio_file":{"url":"https://x/song.mp3"}}`)

	out, err := ExecuteAudioGeneration(context.Background(), execCtx(doer, "stable-audio", fields.Bag{"prompt": "jazz", "extract": "allUrls"}))
	require.NoError(t, err)
	assert.Equal(t, Output{"urls": []string{"https://x/song.mp3"}}, out)
}

func TestExecuteSpeechSynthesis(t *testing.T) {
	doer := newRouteDoer().on(http.MethodPost, "/tts", `{"audio":{"url":"https://x/speech.mp3"}}`)

	params := fields.Bag{"input": "hello", "extract": "audioUrl", "options": map[string]any{"voice": "nova"}}
	out, err := ExecuteSpeechSynthesis(context.Background(), execCtx(doer, "openai/tts-1", params))
	require.NoError(t, err)
	assert.Equal(t, Output{"url": "https://x/speech.mp3"}, out)
	assert.Equal(t, "hello", doer.calls[0].Body["text"])
	assert.Equal(t, "nova", doer.calls[0].Body["voice"])
}

func TestExecuteSpeechTranscription_URL(t *testing.T) {
	_, err := ExecuteSpeechTranscription(context.Background(),
		execCtx(newRouteDoer(), "#g1_whisper-large", fields.Bag{"source": "url"}))
	assert.Equal(t, types.ErrValidation, types.GetErrorCode(err))

	doer := newRouteDoer().on(http.MethodPost, "/stt",
		`{"results":{"channels":[{"alternatives":[{"transcript":"hello world"}]}]}}`)
	out, err := ExecuteSpeechTranscription(context.Background(),
		execCtx(doer, "#g1_nova-2", fields.Bag{"source": "url", "audioUrl": "https://x/a.wav"}))
	require.NoError(t, err)
	assert.Equal(t, Output{"text": "hello world"}, out)
	assert.Equal(t, map[string]any{"model": "#g1_nova-2", "url": "https://x/a.wav"}, doer.calls[0].Body)
}

func TestExecuteSpeechTranscription_Binary(t *testing.T) {
	doer := newRouteDoer().on(http.MethodPost, "/stt", "WEBVTT\n\nhello")
	ec := execCtx(doer, "#g1_whisper-large", fields.Bag{
		"extract": "text",
		"options": map[string]any{"responseFormat": "vtt", "language": "en"},
	})
	ec.Item.Binaries = map[string]Binary{"data": {Data: []byte("RIFF"), MimeType: "audio/wav"}}

	out, err := ExecuteSpeechTranscription(context.Background(), ec)
	require.NoError(t, err)
	assert.Equal(t, Output{"text": "WEBVTT\n\nhello"}, out)

	desc := doer.calls[0]
	assert.True(t, desc.ExpectText)
	mediaType, mp, err := mime.ParseMediaType(desc.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mediaType)

	form := map[string]string{}
	reader := multipart.NewReader(bytes.NewReader(desc.RawBody), mp["boundary"])
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		b, _ := io.ReadAll(part)
		form[part.FormName()] = string(b)
		if part.FormName() == "file" {
			assert.Equal(t, "audio.wav", part.FileName())
			assert.Equal(t, "audio/wav", part.Header.Get("Content-Type"))
		}
	}
	assert.Equal(t, map[string]string{
		"file":            "RIFF",
		"model":           "#g1_whisper-large",
		"language":        "en",
		"response_format": "vtt",
	}, form)
}

func TestExecuteSpeechTranscription_MissingBinary(t *testing.T) {
	_, err := ExecuteSpeechTranscription(context.Background(), execCtx(newRouteDoer(), "m", fields.Bag{}))
	assert.Equal(t, types.ErrValidation, types.GetErrorCode(err))
}

func TestExecuteEmbeddingGeneration(t *testing.T) {
	body := `{"object":"list","data":[{"embedding":[0.1,0.2]},{"embedding":[0.3]}]}`
	doer := newRouteDoer().on(http.MethodPost, "/embeddings", body, body)

	out, err := ExecuteEmbeddingGeneration(context.Background(), execCtx(doer, "text-embedding-3-small", fields.Bag{"input": "hi"}))
	require.NoError(t, err)
	assert.Equal(t, Output{"embedding": []float64{0.1, 0.2}}, out)

	out, err = ExecuteEmbeddingGeneration(context.Background(),
		execCtx(doer, "text-embedding-3-small", fields.Bag{"input": "hi", "extract": "vectors"}))
	require.NoError(t, err)
	assert.Equal(t, Output{"embeddings": [][]float64{{0.1, 0.2}, {0.3}}}, out)
}
