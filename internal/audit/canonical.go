package audit

import (
	"bytes"
	"encoding/json"
)

// canonicalJSON re-marshals v with alphabetically sorted object keys
// and no insignificant whitespace, so the same event always hashes to
// the same bytes regardless of struct field order. encoding/json
// already sorts map keys on marshal, so round-tripping through
// map[string]interface{} is sufficient; no bespoke canonicalizer
// needed.
func canonicalJSON(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
