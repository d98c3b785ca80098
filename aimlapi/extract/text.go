package extract

import (
	"strings"

	"github.com/BaSui01/aimlflow/aimlapi"
	"github.com/BaSui01/aimlflow/aimlapi/payload"
)

// Text collects string leaves under text-like fields, skipping any object
// whose type mentions audio, and joins them with newlines.
func Text(n *payload.Node) string {
	var segments []string
	collectText(n, &segments)
	return strings.Join(segments, "\n")
}

func collectText(n *payload.Node, segments *[]string) {
	switch {
	case n == nil:
	case n.IsString():
		if s := strings.TrimSpace(n.Str); s != "" {
			*segments = append(*segments, s)
		}
	case n.IsArray():
		for _, it := range n.Items() {
			collectText(it, segments)
		}
	case n.IsObject():
		if t, ok := n.String("type"); ok && strings.Contains(strings.ToLower(t), "audio") {
			return
		}
		for _, key := range textFields {
			if s, ok := n.String(key); ok {
				*segments = append(*segments, strings.TrimSpace(s))
			}
		}
		for _, key := range textCollections {
			if c := n.Get(key); c.IsArray() {
				collectText(c, segments)
			}
		}
	}
}

// ChatText returns the assistant text of a chat completion: the first
// choice's message content, then its legacy text field, then Responses API
// style output.
func ChatText(p *payload.Payload) string {
	if p == nil {
		return ""
	}
	if p.IsText() {
		return p.Text()
	}
	root := p.Root()
	choice := root.Path("choices.0")
	if s := Text(choice.Path("message.content")); s != "" {
		return s
	}
	if s, ok := choice.String("text"); ok {
		return s
	}
	for _, path := range responsesOutputPaths {
		if s := Text(root.Path(path)); s != "" {
			return s
		}
	}
	return ""
}

// TranscriptText returns the transcript of a speech-to-text payload.
func TranscriptText(p *payload.Payload) string {
	if p == nil {
		return ""
	}
	if p.IsText() {
		return p.Text()
	}
	for _, path := range transcriptPaths {
		if n := p.Root().Path(path); n.IsString() && strings.TrimSpace(n.Str) != "" {
			return n.Str
		}
	}
	return ""
}

// Segments returns timed transcript segments when the provider supplies them.
func Segments(p *payload.Payload) []any {
	if p == nil || p.IsText() {
		return nil
	}
	for _, path := range segmentPaths {
		if n := p.Root().Path(path); n.IsArray() {
			return n.Interface().([]any)
		}
	}
	return nil
}

// Embeddings returns every embedding vector in document order.
func Embeddings(p *payload.Payload) [][]float64 {
	if p == nil || p.IsText() {
		return nil
	}
	var out [][]float64
	for _, obj := range payload.Objects(p.Root()) {
		vec := obj.Get("embedding")
		if !vec.IsArray() {
			continue
		}
		v := make([]float64, 0, vec.Len())
		for _, it := range vec.Items() {
			v = append(v, it.Num)
		}
		out = append(out, v)
	}
	return out
}

// HasContent reports whether p already carries a usable result for
// mediaType.
func HasContent(p *payload.Payload, mediaType aimlapi.MediaType) bool {
	if p == nil {
		return false
	}
	switch mediaType {
	case aimlapi.MediaText:
		if p.IsText() {
			return strings.TrimSpace(p.Text()) != ""
		}
		return ChatText(p) != "" || TranscriptText(p) != ""
	case aimlapi.MediaEmbedding:
		return len(Embeddings(p)) > 0
	default:
		return len(Artifacts(p, mediaType)) > 0
	}
}
