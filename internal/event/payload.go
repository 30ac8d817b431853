package event

import "encoding/json"

// Payload accessors. Every extractor reads optional payload
// fields through these instead of ad hoc type assertions: a
// missing field or a field of the wrong shape contributes
// nothing rather than failing the report.

// StringField returns the string value of a payload field, or
// "" when absent or not a string.
func StringField(p map[string]any, key string) string {
	s, _ := p[key].(string)
	return s
}

// StringSliceField returns the string-array value of a payload
// field. JSON decoding yields []any, so both []string and []any
// of strings are accepted; non-string elements are dropped.
func StringSliceField(p map[string]any, key string) []string {
	switch v := p[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, el := range v {
			if s, ok := el.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// NumberMapField returns the string→number value of a payload
// field. Non-numeric entries are dropped.
func NumberMapField(p map[string]any, key string) map[string]float64 {
	m, ok := p[key].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if n, ok := asFloat(v); ok {
			out[k] = n
		}
	}
	return out
}

// asFloat normalizes the numeric shapes a decoded payload can
// carry.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
