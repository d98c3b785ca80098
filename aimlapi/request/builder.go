package request

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/BaSui01/aimlflow/aimlapi"
)

var (
	versionPrefix = regexp.MustCompile(`^/(v\d+)(/|$)`)
	versionSuffix = regexp.MustCompile(`/v\d+$`)
)

// Descriptor is a provider-agnostic description of one HTTP call.
// Building a Descriptor never performs I/O.
type Descriptor struct {
	Method  string
	BaseURL string
	Path    string
	Header  http.Header
	Query   url.Values
	Body    map[string]any

	// RawBody, when non-nil, is sent verbatim instead of the JSON Body.
	RawBody []byte
	// ExpectText marks endpoints that answer with plain text rather than JSON.
	ExpectText bool
}

// Option customises a Descriptor during Build.
type Option func(*Descriptor)

// WithHeaders merges caller headers into the descriptor. A caller header
// replaces any default of the same name.
func WithHeaders(h http.Header) Option {
	return func(d *Descriptor) {
		for k, vs := range h {
			d.Header.Del(k)
			for _, v := range vs {
				d.Header.Add(k, v)
			}
		}
	}
}

// WithHeader sets a single header.
func WithHeader(key, value string) Option {
	return func(d *Descriptor) { d.Header.Set(key, value) }
}

// WithQuery sets a query parameter.
func WithQuery(key, value string) Option {
	return func(d *Descriptor) { d.Query.Set(key, value) }
}

// WithBody replaces the default empty JSON body.
func WithBody(body map[string]any) Option {
	return func(d *Descriptor) {
		if body != nil {
			d.Body = body
		}
	}
}

// WithRawBody sends body as-is with the given content type.
func WithRawBody(contentType string, body []byte) Option {
	return func(d *Descriptor) {
		d.Header.Set("Content-Type", contentType)
		d.RawBody = body
	}
}

// WithTextResponse marks the response as plain text.
func WithTextResponse() Option {
	return func(d *Descriptor) { d.ExpectText = true }
}

// Build constructs a request descriptor. A leading /vN segment on path is
// moved onto the base URL, replacing any version the base already carries.
func Build(baseURL, path, method string, opts ...Option) *Descriptor {
	base, p := ResolveEndpoint(baseURL, path)
	if method == "" {
		method = http.MethodGet
	}
	d := &Descriptor{
		Method:  strings.ToUpper(method),
		BaseURL: base,
		Path:    p,
		Header:  make(http.Header),
		Query:   make(url.Values),
		Body:    map[string]any{},
	}
	d.Header.Set("X-Title", aimlapi.Title)
	for _, opt := range opts {
		opt(d)
	}
	if d.Header.Get("Content-Type") == "" {
		d.Header.Set("Content-Type", "application/json")
	}
	return d
}

// ResolveEndpoint reconciles the version segment between base and path.
func ResolveEndpoint(baseURL, path string) (string, string) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	p := strings.TrimSpace(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}

	m := versionPrefix.FindStringSubmatch(p)
	if m == nil {
		return base, p
	}
	version := m[1]
	rest := strings.TrimPrefix(p, "/"+version)
	if rest == "" {
		rest = "/"
	}
	base = versionSuffix.ReplaceAllString(base, "") + "/" + version
	return base, rest
}

// URL renders the absolute request URL including the query string.
func (d *Descriptor) URL() string {
	u := d.BaseURL + d.Path
	if len(d.Query) > 0 {
		u += "?" + d.Query.Encode()
	}
	return u
}

// Clone returns a deep copy of the descriptor safe to mutate.
func (d *Descriptor) Clone() *Descriptor {
	c := *d
	c.Header = d.Header.Clone()
	c.Query = make(url.Values, len(d.Query))
	for k, v := range d.Query {
		c.Query[k] = append([]string(nil), v...)
	}
	c.Body = make(map[string]any, len(d.Body))
	for k, v := range d.Body {
		c.Body[k] = v
	}
	if d.RawBody != nil {
		c.RawBody = append([]byte(nil), d.RawBody...)
	}
	return &c
}
