// Package profiles shapes request bodies for the model families behind the
// gateway. A profile is chosen by the longest registered prefix of the
// normalised model id.
package profiles

import (
	"sort"
	"strings"
	"sync"

	"github.com/BaSui01/aimlflow/aimlapi/fields"
)

// Common holds the fields every generation request carries.
type Common struct {
	Model   string
	Prompt  string
	Options fields.Bag
}

// Profile builds a provider body from the common fields. Profiles are pure.
type Profile func(c Common) map[string]any

type entry struct {
	name    string
	prefix  string
	profile Profile
}

// Registry maps model id prefixes to profiles.
type Registry struct {
	mu       sync.RWMutex
	entries  []entry
	fallback entry
}

// NewRegistry creates a registry whose unmatched models use fallback.
func NewRegistry(fallbackName string, fallback Profile) *Registry {
	return &Registry{fallback: entry{name: fallbackName, profile: fallback}}
}

// NormalizeModelID trims and lower-cases a model id.
func NormalizeModelID(model string) string {
	return strings.ToLower(strings.TrimSpace(model))
}

// Register adds a profile for models starting with prefix.
func (r *Registry) Register(name, prefix string, p Profile) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry{name: name, prefix: NormalizeModelID(prefix), profile: p})
	sort.SliceStable(r.entries, func(i, j int) bool {
		return len(r.entries[i].prefix) > len(r.entries[j].prefix)
	})
	return r
}

// Lookup returns the profile name and function for model.
func (r *Registry) Lookup(model string) (string, Profile) {
	id := NormalizeModelID(model)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if strings.HasPrefix(id, e.prefix) {
			return e.name, e.profile
		}
	}
	return r.fallback.name, r.fallback.profile
}

// Build applies the matching profile to c.
func (r *Registry) Build(c Common) map[string]any {
	_, p := r.Lookup(c.Model)
	return p(c)
}

// base starts every body with the model id.
func base(c Common) map[string]any {
	return map[string]any{"model": c.Model}
}

// project copies options into body under new key names.
func project(body map[string]any, opts fields.Bag, mapping [][2]string) {
	for _, m := range mapping {
		fields.Set(body, m[1], opts.Get(m[0]))
	}
}
