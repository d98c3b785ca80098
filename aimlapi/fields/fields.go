// Package fields projects optional parameters into request bodies.
package fields

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Set assigns target[key] = value unless value is nil, a typed nil, or a
// blank string. Calling Set repeatedly with the same arguments is a no-op
// after the first call.
func Set(target map[string]any, key string, value any) {
	if target == nil || !Defined(value) {
		return
	}
	target[key] = value
}

// SetAll applies Set for every entry of src.
func SetAll(target map[string]any, src map[string]any) {
	for k, v := range src {
		Set(target, k, v)
	}
}

// Defined reports whether value would be written by Set.
func Defined(value any) bool {
	if value == nil {
		return false
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) != ""
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return !rv.IsNil()
	}
	return true
}

// Bag is a flat options bag supplied by the parameter source.
type Bag map[string]any

// Has reports whether key is present and defined.
func (b Bag) Has(key string) bool {
	v, ok := b[key]
	return ok && Defined(v)
}

// Get returns the raw value for key.
func (b Bag) Get(key string) any {
	return b[key]
}

// String returns the value as a trimmed string, or "".
func (b Bag) String(key string) string {
	switch v := b[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case nil:
		return ""
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// StringOr returns String(key) or def when it is empty.
func (b Bag) StringOr(key, def string) string {
	if s := b.String(key); s != "" {
		return s
	}
	return def
}

// Float returns a numeric value and whether one was present.
func (b Bag) Float(key string) (float64, bool) {
	switch v := b[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// Int returns an integral value and whether one was present.
func (b Bag) Int(key string) (int, bool) {
	f, ok := b.Float(key)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

// Bool returns a boolean value; strings "true"/"false" are accepted.
func (b Bag) Bool(key string) bool {
	switch v := b[key].(type) {
	case bool:
		return v
	case string:
		ok, _ := strconv.ParseBool(strings.TrimSpace(v))
		return ok
	}
	return false
}

// Bag returns a nested options bag.
func (b Bag) Bag(key string) Bag {
	switch v := b[key].(type) {
	case map[string]any:
		return Bag(v)
	case Bag:
		return v
	}
	return Bag{}
}

// Number returns key's value as a JSON-ready number, or nil when absent.
func (b Bag) Number(key string) any {
	if f, ok := b.Float(key); ok {
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f)
		}
		return f
	}
	return nil
}
