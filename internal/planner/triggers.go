package planner

import "strings"

// keywordExpansions appends synonym sets when a domain word shows up in
// the source text, so the agent also fires on related phrasing.
var keywordExpansions = []struct {
	word     string
	synonyms []string
}{
	{"payment", []string{"pay", "charge", "billing", "invoice"}},
	{"customer", []string{"client", "user", "account"}},
	{"order", []string{"purchase", "buy", "transaction"}},
}

// generateTriggers tokenizes text on spaces, keeps tokens longer than
// three characters, and appends the expansion sets for any domain word
// present. Duplicates collapse; callers should treat the result as a
// set, not a sequence.
func generateTriggers(text string) []string {
	lower := strings.ToLower(text)

	var triggers []string
	seen := make(map[string]bool)
	add := func(t string) {
		if t == "" || seen[t] {
			return
		}
		seen[t] = true
		triggers = append(triggers, t)
	}

	for _, token := range strings.Fields(lower) {
		if len(token) > 3 {
			add(token)
		}
	}

	for _, exp := range keywordExpansions {
		if strings.Contains(lower, exp.word) {
			for _, syn := range exp.synonyms {
				add(syn)
			}
		}
	}

	return triggers
}
