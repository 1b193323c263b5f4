package cache

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Key builds a deterministic cache key from a namespace prefix and a
// parameter map. Parameters are serialized in sorted key order so the same
// logical request always maps to the same key regardless of insertion order.
func Key(prefix string, params map[string]any) string {
	if len(params) == 0 {
		return prefix + ":{}"
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(":{")
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		kj, _ := json.Marshal(k)
		b.Write(kj)
		b.WriteByte(':')
		vj, err := json.Marshal(params[k])
		if err != nil {
			// Unmarshalable values (channels, funcs) fall back to %v so the
			// key is still deterministic for a given input.
			vj, _ = json.Marshal(fmt.Sprintf("%v", params[k]))
		}
		b.Write(vj)
	}
	b.WriteByte('}')
	return b.String()
}
