// Package catalog classifies the gateway's model listing into the subsets
// each operation can use.
package catalog

import (
	"regexp"
	"strings"

	"github.com/BaSui01/aimlflow/aimlapi"
	"github.com/BaSui01/aimlflow/aimlapi/payload"
)

// Option is one selectable model.
type Option struct {
	Name        string `json:"name"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

// TypeAliases lists the model type strings that belong to each operation.
var TypeAliases = map[aimlapi.Operation][]string{
	aimlapi.OpChatCompletion:      {"chat-completion", "chat", "completion", "text-generation", "language-completion", "responses"},
	aimlapi.OpImageGeneration:     {"image", "image-generation", "images", "vision"},
	aimlapi.OpAudioGeneration:     {"audio", "music", "sound"},
	aimlapi.OpVideoGeneration:     {"video"},
	aimlapi.OpSpeechSynthesis:     {"tts", "text-to-speech", "speech"},
	aimlapi.OpSpeechTranscription: {"stt", "speech-to-text", "transcription"},
	aimlapi.OpEmbeddingGeneration: {"embedding", "embeddings"},
}

// CapabilityAliases lists capability tags that qualify a model for each
// operation when its type does not.
var CapabilityAliases = map[aimlapi.Operation][]string{
	aimlapi.OpChatCompletion:      {"chat", "completion", "text", "language", "llm"},
	aimlapi.OpImageGeneration:     {"image", "images", "image-generation", "vision"},
	aimlapi.OpAudioGeneration:     {"audio", "music", "sound"},
	aimlapi.OpVideoGeneration:     {"video"},
	aimlapi.OpSpeechSynthesis:     {"tts", "speech", "voice"},
	aimlapi.OpSpeechTranscription: {"stt", "speech-to-text", "transcription"},
	aimlapi.OpEmbeddingGeneration: {"embedding", "vector"},
}

var whitespace = regexp.MustCompile(`\s+`)

// Normalize trims, collapses inner whitespace and lower-cases s.
func Normalize(s string) string {
	return strings.ToLower(whitespace.ReplaceAllString(strings.TrimSpace(s), " "))
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Capabilities reads a model's capability tags from either a list of tags or
// a tag to flag mapping; only truthy flags count.
func Capabilities(model *payload.Node) []string {
	c := model.Get("capabilities")
	var out []string
	switch {
	case c.IsArray():
		for _, it := range c.Items() {
			if it.IsString() {
				if n := Normalize(it.Str); n != "" {
					out = append(out, n)
				}
			}
		}
	case c.IsObject():
		for _, k := range c.Keys() {
			if truthy(c.Get(k)) {
				if n := Normalize(k); n != "" {
					out = append(out, n)
				}
			}
		}
	}
	return out
}

func truthy(n *payload.Node) bool {
	if n == nil {
		return false
	}
	switch n.Kind {
	case payload.KindBool:
		return n.Bool
	case payload.KindNumber:
		return n.Num != 0
	case payload.KindString:
		return n.Str != ""
	case payload.KindObject, payload.KindArray:
		return true
	}
	return false
}

func claimedByOther(typ string, op aimlapi.Operation) bool {
	for other, aliases := range TypeAliases {
		if other != op && contains(aliases, typ) {
			return true
		}
	}
	return false
}

// Supports reports whether model can serve op. Chat completion also accepts
// unclassified models and models whose type no other operation claims.
func Supports(model *payload.Node, op aimlapi.Operation) bool {
	typ := ""
	if t := model.Get("type"); t.IsString() {
		typ = Normalize(t.Str)
	}
	caps := Capabilities(model)

	if typ != "" && contains(TypeAliases[op], typ) {
		return true
	}
	for _, c := range caps {
		if contains(CapabilityAliases[op], c) {
			return true
		}
	}
	if op == aimlapi.OpChatCompletion {
		if typ == "" && len(caps) == 0 {
			return true
		}
		if typ != "" && !claimedByOther(typ, op) {
			return true
		}
	}
	return false
}

// FilterForOperation returns the options for every model that supports op,
// in listing order. Models without a non-empty string id are dropped.
func FilterForOperation(models []*payload.Node, op aimlapi.Operation) []Option {
	out := make([]Option, 0, len(models))
	for _, m := range models {
		if !m.IsObject() || !Supports(m, op) {
			continue
		}
		id, ok := m.String("id")
		if !ok {
			continue
		}
		out = append(out, Option{Name: displayName(m, id), Value: id, Description: description(m)})
	}
	return out
}

func displayName(m *payload.Node, id string) string {
	if info := m.Get("info"); info.IsObject() {
		if s, ok := info.String("name"); ok {
			return s
		}
	}
	if s, ok := m.String("name"); ok {
		return s
	}
	return id
}

func description(m *payload.Node) string {
	if info := m.Get("info"); info.IsObject() {
		if s, ok := info.String("developer"); ok {
			return s
		}
		if s, ok := info.String("description"); ok {
			return s
		}
	}
	if s, ok := m.String("type"); ok {
		return s
	}
	return ""
}
