package payload

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/BaSui01/aimlflow/types"
)

// Payload is one upstream response. JSON bodies are parsed into an ordered
// Node tree; plain text bodies (subtitle formats, raw transcripts) are kept
// as a single string node.
type Payload struct {
	raw    []byte
	root   *Node
	isText bool
}

// Parse parses a JSON response body.
func Parse(raw []byte) (*Payload, error) {
	if !gjson.ValidBytes(raw) {
		return nil, types.NewError(types.ErrUnexpectedResponse, "response body is not valid JSON").
			WithHTTPStatus(502)
	}
	return &Payload{raw: raw, root: buildNode(gjson.ParseBytes(raw))}, nil
}

// MustParse is Parse for static inputs; it panics on invalid JSON.
func MustParse(raw string) *Payload {
	p, err := Parse([]byte(raw))
	if err != nil {
		panic(err)
	}
	return p
}

// FromText wraps a non-JSON response body.
func FromText(s string) *Payload {
	b, _ := json.Marshal(s)
	return &Payload{raw: b, root: &Node{Kind: KindString, Str: s, Raw: string(b)}, isText: true}
}

// Root returns the root node.
func (p *Payload) Root() *Node { return p.root }

// Raw returns the JSON encoding of the payload.
func (p *Payload) Raw() []byte { return p.raw }

// IsText reports whether the upstream answered with plain text.
func (p *Payload) IsText() bool { return p.isText }

// Text returns the body of a plain text payload.
func (p *Payload) Text() string {
	if p.isText {
		return p.root.Str
	}
	return ""
}

// Get evaluates a gjson path against the payload.
func (p *Payload) Get(path string) gjson.Result {
	return gjson.GetBytes(p.raw, path)
}

// Value returns the payload in a form suitable for embedding in output rows.
func (p *Payload) Value() any {
	if p.isText {
		return p.root.Str
	}
	return json.RawMessage(p.raw)
}

// Status returns the first non-blank status synonym found in document
// order, trimmed and lower-cased.
func (p *Payload) Status() string {
	for _, obj := range Objects(p.root) {
		for _, path := range StatusFields {
			n := obj.Path(path)
			if n.IsString() && strings.TrimSpace(n.Str) != "" {
				return strings.ToLower(strings.TrimSpace(n.Str))
			}
		}
	}
	return ""
}

// GenerationID returns the first non-blank identifier synonym.
func (p *Payload) GenerationID() string {
	for _, obj := range Objects(p.root) {
		for _, key := range IDFields {
			if id, ok := obj.String(key); ok {
				return id
			}
		}
	}
	return ""
}

// RootGenerationID returns the id the payload reports about itself at the
// top level, ignoring nested objects.
func (p *Payload) RootGenerationID() string {
	for _, key := range RootIDFields {
		if id, ok := p.root.String(key); ok {
			return id
		}
	}
	return ""
}

// ErrorReason returns the human readable failure reason, if any.
// error may be a string or an object carrying message or error.
func (p *Payload) ErrorReason() string {
	for _, obj := range Objects(p.root) {
		errNode := obj.Get("error")
		if errNode.IsString() && strings.TrimSpace(errNode.Str) != "" {
			return errNode.Str
		}
		if errNode.IsObject() {
			for _, key := range ErrorMessageFields {
				if msg, ok := errNode.String(key); ok {
					return msg
				}
			}
		}
		if msg, ok := obj.String("message"); ok {
			return msg
		}
	}
	return ""
}
