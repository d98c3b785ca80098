package payload

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Kind is the JSON type of a Node.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindObject
	KindArray
)

// Node is one value of a parsed payload. Object keys keep document order so
// traversal results are deterministic. Node pointers are stable and serve as
// identity for visited-set bookkeeping.
type Node struct {
	Kind Kind
	Str  string
	Num  float64
	Bool bool
	Raw  string

	keys   []string
	fields map[string]*Node
	items  []*Node
}

func buildNode(r gjson.Result) *Node {
	n := &Node{Raw: r.Raw}
	switch {
	case r.IsObject():
		n.Kind = KindObject
		n.fields = make(map[string]*Node)
		r.ForEach(func(k, v gjson.Result) bool {
			key := k.String()
			if _, dup := n.fields[key]; !dup {
				n.keys = append(n.keys, key)
			}
			n.fields[key] = buildNode(v)
			return true
		})
	case r.IsArray():
		n.Kind = KindArray
		r.ForEach(func(_, v gjson.Result) bool {
			n.items = append(n.items, buildNode(v))
			return true
		})
	default:
		switch r.Type {
		case gjson.String:
			n.Kind, n.Str = KindString, r.Str
		case gjson.Number:
			n.Kind, n.Num = KindNumber, r.Num
		case gjson.True, gjson.False:
			n.Kind, n.Bool = KindBool, r.Bool()
		default:
			n.Kind = KindNull
		}
	}
	return n
}

// IsObject reports whether n is a JSON object.
func (n *Node) IsObject() bool { return n != nil && n.Kind == KindObject }

// IsArray reports whether n is a JSON array.
func (n *Node) IsArray() bool { return n != nil && n.Kind == KindArray }

// IsString reports whether n is a JSON string.
func (n *Node) IsString() bool { return n != nil && n.Kind == KindString }

// Keys returns object keys in document order.
func (n *Node) Keys() []string {
	if !n.IsObject() {
		return nil
	}
	return n.keys
}

// Items returns array elements.
func (n *Node) Items() []*Node {
	if !n.IsArray() {
		return nil
	}
	return n.items
}

// Len is the element count of an array or the key count of an object.
func (n *Node) Len() int {
	switch {
	case n.IsArray():
		return len(n.items)
	case n.IsObject():
		return len(n.keys)
	}
	return 0
}

// Get returns the child under key, or nil.
func (n *Node) Get(key string) *Node {
	if !n.IsObject() {
		return nil
	}
	return n.fields[key]
}

// String returns the non-blank string stored under key.
func (n *Node) String(key string) (string, bool) {
	c := n.Get(key)
	if !c.IsString() || strings.TrimSpace(c.Str) == "" {
		return "", false
	}
	return c.Str, true
}

// Index returns the i-th array element, or nil.
func (n *Node) Index(i int) *Node {
	if !n.IsArray() || i < 0 || i >= len(n.items) {
		return nil
	}
	return n.items[i]
}

// Path resolves a dotted path such as "results.channels.0.transcript".
// Numeric segments index arrays.
func (n *Node) Path(path string) *Node {
	cur := n
	for _, seg := range strings.Split(path, ".") {
		if cur == nil {
			return nil
		}
		if cur.IsArray() {
			i, err := strconv.Atoi(seg)
			if err != nil {
				return nil
			}
			cur = cur.Index(i)
			continue
		}
		cur = cur.Get(seg)
	}
	return cur
}

// NonEmpty reports whether n is a non-empty array or object.
func (n *Node) NonEmpty() bool {
	return (n.IsArray() || n.IsObject()) && n.Len() > 0
}

// Interface converts n into plain Go values.
func (n *Node) Interface() any {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case KindObject:
		m := make(map[string]any, len(n.keys))
		for _, k := range n.keys {
			m[k] = n.fields[k].Interface()
		}
		return m
	case KindArray:
		s := make([]any, len(n.items))
		for i, it := range n.items {
			s[i] = it.Interface()
		}
		return s
	case KindString:
		return n.Str
	case KindNumber:
		return json.Number(n.Raw)
	case KindBool:
		return n.Bool
	}
	return nil
}

// Objects returns every object reachable from root in pre-order, document
// order. Arrays are flattened. Each node is visited at most once.
func Objects(root *Node) []*Node {
	var out []*Node
	visited := make(map[*Node]struct{})
	var walk func(*Node)
	walk = func(n *Node) {
		if n == nil {
			return
		}
		if _, seen := visited[n]; seen {
			return
		}
		visited[n] = struct{}{}
		switch n.Kind {
		case KindArray:
			for _, it := range n.items {
				walk(it)
			}
		case KindObject:
			out = append(out, n)
			for _, k := range n.keys {
				walk(n.fields[k])
			}
		}
	}
	walk(root)
	return out
}
