package planner

import (
	"fmt"
	"testing"

	"github.com/opentalon/agentsmith/internal/schema"
)

func stripeAPI() *schema.ParsedAPI {
	return &schema.ParsedAPI{
		Name: "Stripe",
		Endpoints: []schema.APIEndpoint{
			{Path: "/customers", Method: schema.MethodPost, Summary: "Create a customer", Tags: []string{"customers"}},
			{Path: "/payment_intents", Method: schema.MethodPost, Summary: "Create a payment intent", Tags: []string{"payments"}},
			{Path: "/subscriptions", Method: schema.MethodPost, Summary: "Create a subscription", Tags: []string{"subscriptions"}},
		},
	}
}

func TestScoreMonotonicity(t *testing.T) {
	// Adding a curated keyword-pair match must strictly increase the
	// score of the matching endpoint.
	api := stripeAPI()
	endpoint := api.Endpoints[1] // /payment_intents

	without := scoreEndpoint(endpoint, "help me with my account", api.Name)
	with := scoreEndpoint(endpoint, "help me with my payment account", api.Name)
	if with <= without {
		t.Errorf("score with keyword = %d, without = %d; want strict increase", with, without)
	}
}

func TestScoreComponents(t *testing.T) {
	api := stripeAPI()

	tests := []struct {
		goal string
		want int
	}{
		// path substring (+10), tag "customers" (+6), and keyword
		// pair (+10).
		{"look up /customers records", 26},
		// tag match only (+6) plus keyword pair (+10).
		{"find customers quickly", 16},
		// summary substring (+8) plus tag (no: "payments" not in goal)
		// plus pair (+10).
		{"create a payment intent for me", 18},
		{"nothing relevant here", 0},
	}

	for i, tt := range tests {
		e := api.Endpoints[0]
		if i >= 2 {
			e = api.Endpoints[1]
		}
		got := scoreEndpoint(e, tt.goal, api.Name)
		if got != tt.want {
			t.Errorf("scoreEndpoint(%q) = %d, want %d", tt.goal, got, tt.want)
		}
	}
}

func TestTopFiveTruncation(t *testing.T) {
	api := &schema.ParsedAPI{Name: "Bulk"}
	for i := 0; i < 8; i++ {
		api.Endpoints = append(api.Endpoints, schema.APIEndpoint{
			Path:   fmt.Sprintf("/things/%d", i),
			Method: schema.MethodGet,
			Tags:   []string{"widget"},
		})
	}

	got := RelevantEndpoints(api, "show me every widget")
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}
	// All scores equal, so stable sort preserves declaration order.
	for i, e := range got {
		want := fmt.Sprintf("/things/%d", i)
		if e.Path != want {
			t.Errorf("got[%d].Path = %q, want %q", i, e.Path, want)
		}
	}
}

func TestZeroScoresDiscarded(t *testing.T) {
	api := stripeAPI()
	got := RelevantEndpoints(api, "tell me a joke about weather")
	if len(got) != 0 {
		t.Fatalf("len = %d, want 0", len(got))
	}
}

func TestEmptyGoalReturnsDeclarationOrder(t *testing.T) {
	api := stripeAPI()
	got := RelevantEndpoints(api, "")
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i := range got {
		if got[i].Path != api.Endpoints[i].Path {
			t.Errorf("got[%d].Path = %q, want %q", i, got[i].Path, api.Endpoints[i].Path)
		}
	}
}

func TestHigherScoreSortsFirst(t *testing.T) {
	api := stripeAPI()
	// "payment" fires the pair (+10) and tag "payments" is absent from
	// the goal; "customer" endpoints get pair (+10) too, but summary
	// match pushes payment_intents ahead.
	got := RelevantEndpoints(api, "create a payment intent for a customer")
	if len(got) < 2 {
		t.Fatalf("len = %d, want >= 2", len(got))
	}
	if got[0].Path != "/payment_intents" {
		t.Errorf("got[0].Path = %q, want /payment_intents", got[0].Path)
	}
}
