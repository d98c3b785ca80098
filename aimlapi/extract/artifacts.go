package extract

import (
	"github.com/BaSui01/aimlflow/aimlapi"
	"github.com/BaSui01/aimlflow/aimlapi/payload"
)

// Artifact is one generated media unit.
type Artifact struct {
	URL           string        `json:"url,omitempty"`
	Base64        string        `json:"base64,omitempty"`
	RevisedPrompt string        `json:"revisedPrompt,omitempty"`
	Node          *payload.Node `json:"-"`
}

// Artifacts walks the whole payload depth-first and returns every object
// exposing a URL-like or base64-like field for mediaType, in discovery order.
// Known anchors of a node are explored before the node itself and its
// remaining children.
func Artifacts(p *payload.Payload, mediaType aimlapi.MediaType) []Artifact {
	if p == nil || p.IsText() {
		return nil
	}
	return ArtifactsFrom(p.Root(), mediaType)
}

// ArtifactsFrom is Artifacts rooted at an arbitrary node.
func ArtifactsFrom(root *payload.Node, mediaType aimlapi.MediaType) []Artifact {
	table, ok := mediaTables[mediaType]
	if !ok {
		return nil
	}
	w := &artifactWalker{table: table, visited: make(map[*payload.Node]struct{})}
	w.walk(root)
	return w.out
}

type artifactWalker struct {
	table   mediaFields
	visited map[*payload.Node]struct{}
	out     []Artifact
}

func (w *artifactWalker) walk(n *payload.Node) {
	if n == nil || !(n.IsObject() || n.IsArray()) {
		return
	}
	if _, seen := w.visited[n]; seen {
		return
	}
	w.visited[n] = struct{}{}

	if n.IsArray() {
		for _, it := range n.Items() {
			w.walk(it)
		}
		return
	}

	for _, anchor := range w.table.anchors {
		w.walk(n.Get(anchor))
	}
	if a, ok := w.qualify(n); ok {
		w.out = append(w.out, a)
	}
	for _, k := range n.Keys() {
		w.walk(n.Get(k))
	}
}

func (w *artifactWalker) qualify(n *payload.Node) (Artifact, bool) {
	a := Artifact{
		URL:    firstString(n, w.table.url),
		Base64: firstString(n, w.table.base64),
		Node:   n,
	}
	if a.URL == "" && a.Base64 == "" {
		return Artifact{}, false
	}
	a.RevisedPrompt = firstString(n, revisedPromptFields)
	return a, true
}

func firstString(n *payload.Node, keys []string) string {
	for _, k := range keys {
		if s, ok := n.String(k); ok {
			return s
		}
	}
	return ""
}

// URLs returns the non-empty URLs of artifacts in order.
func URLs(artifacts []Artifact) []string {
	out := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		if a.URL != "" {
			out = append(out, a.URL)
		}
	}
	return out
}

// Base64s returns the non-empty base64 blobs of artifacts in order.
func Base64s(artifacts []Artifact) []string {
	out := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		if a.Base64 != "" {
			out = append(out, a.Base64)
		}
	}
	return out
}

// First returns the first element of values, or "".
func First(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
