package taskgen

// Payload values arrive through JSON columns, so numbers are float64 and
// lists are []any. These helpers coerce them without caring about the
// storage representation.

func payloadInt(payload map[string]any, key string, def int) int {
	v, ok := payload[key]
	if !ok || v == nil {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return def
}

// payloadIntOr treats zero as absent, mirroring "payload.get(k) or fallback"
// semantics the payload contract was written against.
func payloadIntOr(payload map[string]any, key string, fallback func() int) int {
	if n := payloadInt(payload, key, 0); n != 0 {
		return n
	}
	return fallback()
}

func payloadString(payload map[string]any, key, def string) string {
	if v, ok := payload[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return def
}

func payloadStrings(payload map[string]any, key string) []string {
	v, ok := payload[key]
	if !ok {
		return nil
	}
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...)
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
