package codec

import "encoding/json"

// JSON is the standard-library-backed codec. The teacher's codec package
// also offers a goccy/go-json variant, but that dependency is not present
// in this module's dependency closure (see DESIGN.md), so JSON is the only
// codec here.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSON) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (JSON) Name() string { return "json" }
