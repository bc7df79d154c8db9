package planner

import (
	"sort"
	"strings"

	"github.com/opentalon/agentsmith/internal/schema"
)

// maxRelevantEndpoints caps how many endpoints a plan exposes.
const maxRelevantEndpoints = 5

// keywordPair couples a word looked up in the goal with a counterpart
// substring looked up in the endpoint path.
type keywordPair struct {
	goalWord string
	pathWord string
}

// serviceKeywordPairs are curated per-service heuristics: when the API
// is a known service and the goal mentions a domain word whose
// counterpart appears in the endpoint path, the endpoint gets a strong
// boost.
var serviceKeywordPairs = map[string][]keywordPair{
	"Stripe": {
		{"payment", "payment"},
		{"customer", "customer"},
		{"subscription", "subscription"},
	},
	"Shopify": {
		{"order", "order"},
		{"product", "product"},
		{"customer", "customer"},
	},
	"Slack": {
		{"message", "chat"},
		{"channel", "channel"},
		{"user", "user"},
	},
}

// RelevantEndpoints scores every endpoint against the goal, discards
// zero scores, sorts descending (stable, so declaration order breaks
// ties), and keeps the top five.
//
// An empty goal means "expose everything worth calling": the first five
// endpoints in declaration order. The planner relies on this when
// generating function definitions, which are deliberately a superset of
// the narrative workflow's endpoints.
func RelevantEndpoints(api *schema.ParsedAPI, goal string) []schema.APIEndpoint {
	if strings.TrimSpace(goal) == "" {
		n := len(api.Endpoints)
		if n > maxRelevantEndpoints {
			n = maxRelevantEndpoints
		}
		out := make([]schema.APIEndpoint, n)
		copy(out, api.Endpoints[:n])
		return out
	}

	lowerGoal := strings.ToLower(goal)

	type scored struct {
		endpoint schema.APIEndpoint
		score    int
	}
	var survivors []scored
	for _, e := range api.Endpoints {
		if s := scoreEndpoint(e, lowerGoal, api.Name); s > 0 {
			survivors = append(survivors, scored{endpoint: e, score: s})
		}
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		return survivors[i].score > survivors[j].score
	})

	if len(survivors) > maxRelevantEndpoints {
		survivors = survivors[:maxRelevantEndpoints]
	}
	out := make([]schema.APIEndpoint, len(survivors))
	for i, s := range survivors {
		out[i] = s.endpoint
	}
	return out
}

// scoreEndpoint computes the integer relevance of one endpoint against
// the lowercased goal: +10 for a path match, +8 for a summary match,
// +6 per tag match, +10 per curated service keyword pair that fires.
func scoreEndpoint(e schema.APIEndpoint, lowerGoal, apiName string) int {
	score := 0

	strippedPath := strings.ReplaceAll(e.Path, "{", "")
	strippedPath = strings.ReplaceAll(strippedPath, "}", "")
	strippedPath = strings.ToLower(strippedPath)
	if strippedPath != "" && strings.Contains(lowerGoal, strippedPath) {
		score += 10
	}

	if s := strings.ToLower(e.Summary); s != "" && strings.Contains(lowerGoal, s) {
		score += 8
	}

	for _, tag := range e.Tags {
		if t := strings.ToLower(tag); t != "" && strings.Contains(lowerGoal, t) {
			score += 6
		}
	}

	lowerPath := strings.ToLower(e.Path)
	for _, pair := range serviceKeywordPairs[apiName] {
		if strings.Contains(lowerGoal, pair.goalWord) && strings.Contains(lowerPath, pair.pathWord) {
			score += 10
		}
	}

	return score
}
