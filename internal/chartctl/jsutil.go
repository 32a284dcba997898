package chartctl

import "encoding/json"

func jsString(v string) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func jsJSON(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func jsBool(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
