package apify

import "strconv"

// Dataset items arrive as loose JSON objects whose field names differ per
// actor. These helpers read the first present value among fallback keys.

func strField(d map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := d[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func intField(d map[string]any, keys ...string) int64 {
	for _, k := range keys {
		switch v := d[k].(type) {
		case float64:
			return int64(v)
		case int64:
			return v
		case string:
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				return n
			}
		}
	}
	return 0
}

func boolField(d map[string]any, key string) bool {
	b, _ := d[key].(bool)
	return b
}

func mapField(d map[string]any, keys ...string) map[string]any {
	for _, k := range keys {
		if m, ok := d[k].(map[string]any); ok {
			return m
		}
	}
	return map[string]any{}
}

func stringList(d map[string]any, key string) []string {
	raw, ok := d[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		switch v := item.(type) {
		case string:
			if v != "" {
				out = append(out, v)
			}
		case map[string]any:
			if name := strField(v, "name", "title"); name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}
