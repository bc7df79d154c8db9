package schema

import "strings"

// FunctionName derives the canonical tool name for an endpoint:
// braces stripped from the path, "/" replaced by "_", the lowercased
// method prepended, every character outside [A-Za-z0-9_] mapped to "_",
// and runs of "_" collapsed. GET /customers/{id} -> get_customers_id.
//
// The planner uses this name when declaring functions to the LLM and
// the runtime recomputes it to resolve a call back to its endpoint, so
// both sides must produce byte-identical output.
func FunctionName(e APIEndpoint) string {
	path := strings.ReplaceAll(e.Path, "{", "")
	path = strings.ReplaceAll(path, "}", "")
	path = strings.ReplaceAll(path, "/", "_")

	raw := strings.ToLower(string(e.Method)) + path

	var b strings.Builder
	b.Grow(len(raw))
	prevUnderscore := false
	for _, r := range raw {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			prevUnderscore = false
			continue
		}
		if !prevUnderscore {
			b.WriteByte('_')
		}
		prevUnderscore = true
	}
	return b.String()
}
