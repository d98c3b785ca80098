package payload

import (
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/BaSui01/aimlflow/aimlapi"
)

// Normalize moves the first non-empty candidate collection for mediaType to
// the top-level "data" field and returns the rewritten payload together with
// the path it was taken from. The input payload is not modified. When data is
// already the first match, or nothing matches, p is returned unchanged.
func Normalize(p *Payload, mediaType aimlapi.MediaType) (*Payload, string, error) {
	if p == nil || p.isText || !p.root.IsObject() {
		return p, "", nil
	}
	for _, path := range PromotionPaths[mediaType] {
		r := gjson.GetBytes(p.raw, path)
		if !nonEmpty(r) {
			continue
		}
		if path == "data" {
			return p, path, nil
		}
		raw, err := sjson.SetRawBytes(append([]byte(nil), p.raw...), "data", []byte(r.Raw))
		if err != nil {
			return nil, "", err
		}
		if raw, err = sjson.DeleteBytes(raw, path); err != nil {
			return nil, "", err
		}
		np, err := Parse(raw)
		if err != nil {
			return nil, "", err
		}
		return np, path, nil
	}
	return p, "", nil
}

func nonEmpty(r gjson.Result) bool {
	switch {
	case r.IsArray():
		return len(r.Array()) > 0
	case r.IsObject():
		return len(r.Map()) > 0
	}
	return false
}
