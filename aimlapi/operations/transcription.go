package operations

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/BaSui01/aimlflow/aimlapi"
	"github.com/BaSui01/aimlflow/aimlapi/extract"
	"github.com/BaSui01/aimlflow/aimlapi/fields"
	"github.com/BaSui01/aimlflow/aimlapi/request"
	"github.com/BaSui01/aimlflow/types"
)

const sttPath = "/v1/stt"

// textualFormats answer with a plain text body instead of JSON.
var textualFormats = map[string]bool{"text": true, "srt": true, "vtt": true}

// ExecuteSpeechTranscription transcribes an uploaded file or a remote URL.
func ExecuteSpeechTranscription(ctx context.Context, ec *ExecContext) (Output, error) {
	mode, err := extractMode(aimlapi.OpSpeechTranscription, ec)
	if err != nil {
		return nil, err
	}
	opts, err := transcriptionRequest(ec)
	if err != nil {
		return nil, err
	}

	res, err := ec.submit(ctx, sttPath, aimlapi.MediaText, opts...)
	if err != nil {
		return nil, err
	}

	switch mode {
	case "text":
		return Output{"text": extract.TranscriptText(res.Payload)}, nil
	case "segments":
		segments := extract.Segments(res.Payload)
		if segments == nil {
			segments = []any{}
		}
		return Output{"segments": segments}, nil
	default:
		return Output{"result": res.Original.Value()}, nil
	}
}

func transcriptionRequest(ec *ExecContext) ([]request.Option, error) {
	params := ec.params()
	if strings.EqualFold(params.String("source"), "url") {
		url := params.String("audioUrl")
		if url == "" {
			return nil, types.NewValidationError("an audio URL is required when the transcription source is a URL")
		}
		return []request.Option{request.WithBody(map[string]any{"model": ec.Model, "url": url})}, nil
	}

	property := params.StringOr("binaryProperty", "data")
	bin, ok := ec.Item.Binaries[property]
	if !ok || len(bin.Data) == 0 {
		return nil, types.NewValidationError("item has no binary data under %q", property)
	}

	opts := params.Bag("options")
	contentType, body, err := TranscriptionForm(ec.Model, bin, opts)
	if err != nil {
		return nil, err
	}
	out := []request.Option{request.WithRawBody(contentType, body)}
	if textualFormats[strings.ToLower(opts.String("responseFormat"))] {
		out = append(out, request.WithTextResponse())
	}
	return out, nil
}

// TranscriptionForm encodes the multipart upload for the transcription
// endpoint and returns its content type.
func TranscriptionForm(model string, bin Binary, opts fields.Bag) (string, []byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	name := bin.FileName
	if name == "" {
		ext := bin.FileExtension
		if ext == "" {
			ext = "wav"
		}
		name = "audio." + ext
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(name)))
	header.Set("Content-Type", firstNonEmpty(bin.MimeType, "application/octet-stream"))
	part, err := w.CreatePart(header)
	if err != nil {
		return "", nil, err
	}
	if _, err := part.Write(bin.Data); err != nil {
		return "", nil, err
	}

	if err := w.WriteField("model", model); err != nil {
		return "", nil, err
	}
	for _, key := range [][2]string{
		{"language", "language"},
		{"prompt", "prompt"},
		{"responseFormat", "response_format"},
		{"temperature", "temperature"},
	} {
		if !opts.Has(key[0]) {
			continue
		}
		if err := w.WriteField(key[1], opts.String(key[0])); err != nil {
			return "", nil, err
		}
	}
	if err := w.Close(); err != nil {
		return "", nil, err
	}
	return w.FormDataContentType(), buf.Bytes(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
