package analyzer

import (
	"strings"

	"github.com/opentalon/agentsmith/internal/schema"
)

// knownService couples the substrings that identify a service with its
// pre-populated description. This is static reference data, not
// generated: a match returns the ParsedAPI unchanged.
type knownService struct {
	fragments []string
	api       schema.ParsedAPI
}

func matchKnownService(input string) (*schema.ParsedAPI, bool) {
	lower := strings.ToLower(input)
	for i := range knownServices {
		for _, frag := range knownServices[i].fragments {
			if strings.Contains(lower, frag) {
				api := knownServices[i].api
				return &api, true
			}
		}
	}
	return nil, false
}

var knownServices = []knownService{
	{
		fragments: []string{"stripe", "api.stripe.com"},
		api: schema.ParsedAPI{
			Name:        "Stripe",
			BaseURL:     "https://api.stripe.com/v1",
			Description: "Payment processing API for online businesses",
			Endpoints: []schema.APIEndpoint{
				{
					Path:    "/customers",
					Method:  schema.MethodPost,
					Summary: "Create a customer",
					Parameters: []schema.APIParameter{
						{Name: "email", Type: "string", Required: true, Description: "Customer email address", Location: schema.InBody},
						{Name: "name", Type: "string", Description: "Customer full name", Location: schema.InBody},
						{Name: "description", Type: "string", Description: "Arbitrary description", Location: schema.InBody},
					},
					Responses: []schema.APIResponse{{StatusCode: "200", Description: "Customer created"}},
					Tags:      []string{"customers"},
				},
				{
					Path:    "/customers/{id}",
					Method:  schema.MethodGet,
					Summary: "Retrieve a customer",
					Parameters: []schema.APIParameter{
						{Name: "id", Type: "string", Required: true, Description: "Customer identifier", Location: schema.InPath},
					},
					Responses: []schema.APIResponse{{StatusCode: "200", Description: "Customer details"}},
					Tags:      []string{"customers"},
				},
				{
					Path:    "/payment_intents",
					Method:  schema.MethodPost,
					Summary: "Create a payment intent",
					Parameters: []schema.APIParameter{
						{Name: "amount", Type: "integer", Required: true, Description: "Amount in the smallest currency unit", Location: schema.InBody},
						{Name: "currency", Type: "string", Required: true, Description: "Three-letter ISO currency code", Location: schema.InBody, Example: "usd"},
						{Name: "customer", Type: "string", Description: "Customer to attach the payment to", Location: schema.InBody},
					},
					Responses: []schema.APIResponse{{StatusCode: "200", Description: "Payment intent created"}},
					Tags:      []string{"payments"},
				},
				{
					Path:    "/payment_intents/{id}",
					Method:  schema.MethodGet,
					Summary: "Retrieve a payment intent",
					Parameters: []schema.APIParameter{
						{Name: "id", Type: "string", Required: true, Description: "Payment intent identifier", Location: schema.InPath},
					},
					Responses: []schema.APIResponse{{StatusCode: "200", Description: "Payment intent details"}},
					Tags:      []string{"payments"},
				},
				{
					Path:    "/subscriptions",
					Method:  schema.MethodPost,
					Summary: "Create a subscription",
					Parameters: []schema.APIParameter{
						{Name: "customer", Type: "string", Required: true, Description: "Customer to subscribe", Location: schema.InBody},
						{Name: "items", Type: "other", Required: true, Description: "Subscription items with price ids", Location: schema.InBody},
					},
					Responses: []schema.APIResponse{{StatusCode: "200", Description: "Subscription created"}},
					Tags:      []string{"subscriptions"},
				},
			},
			Authentication: schema.APIAuth{Type: schema.AuthBearer},
			Capabilities: []string{
				"Manage customers",
				"Manage payments",
				"Manage subscriptions",
				"Create resources",
				"Retrieve data",
			},
		},
	},
	{
		fragments: []string{"shopify", "myshopify.com"},
		api: schema.ParsedAPI{
			Name:        "Shopify",
			BaseURL:     "https://your-store.myshopify.com/admin/api/2024-01",
			Description: "E-commerce platform API for products, orders, and inventory",
			Endpoints: []schema.APIEndpoint{
				{
					Path:    "/products.json",
					Method:  schema.MethodGet,
					Summary: "List products",
					Parameters: []schema.APIParameter{
						{Name: "limit", Type: "integer", Description: "Maximum number of results", Location: schema.InQuery, Example: 50},
						{Name: "status", Type: "string", Description: "Filter by product status", Location: schema.InQuery},
					},
					Responses: []schema.APIResponse{{StatusCode: "200", Description: "Product list"}},
					Tags:      []string{"products"},
				},
				{
					Path:    "/orders.json",
					Method:  schema.MethodGet,
					Summary: "List orders",
					Parameters: []schema.APIParameter{
						{Name: "status", Type: "string", Description: "Filter by order status", Location: schema.InQuery, Example: "any"},
						{Name: "limit", Type: "integer", Description: "Maximum number of results", Location: schema.InQuery},
					},
					Responses: []schema.APIResponse{{StatusCode: "200", Description: "Order list"}},
					Tags:      []string{"orders"},
				},
				{
					Path:    "/inventory_levels.json",
					Method:  schema.MethodGet,
					Summary: "List inventory levels",
					Parameters: []schema.APIParameter{
						{Name: "location_ids", Type: "string", Description: "Comma-separated location ids", Location: schema.InQuery},
						{Name: "limit", Type: "integer", Description: "Maximum number of results", Location: schema.InQuery},
					},
					Responses: []schema.APIResponse{{StatusCode: "200", Description: "Inventory levels per location"}},
					Tags:      []string{"inventory", "stock"},
				},
				{
					Path:    "/products.json",
					Method:  schema.MethodPost,
					Summary: "Create a product",
					Parameters: []schema.APIParameter{
						{Name: "title", Type: "string", Required: true, Description: "Product title", Location: schema.InBody},
						{Name: "body_html", Type: "string", Description: "Product description HTML", Location: schema.InBody},
						{Name: "vendor", Type: "string", Description: "Product vendor", Location: schema.InBody},
					},
					Responses: []schema.APIResponse{{StatusCode: "201", Description: "Product created"}},
					Tags:      []string{"products"},
				},
			},
			Authentication: schema.APIAuth{
				Type:       schema.AuthAPIKey,
				Location:   schema.InHeader,
				HeaderName: "X-Shopify-Access-Token",
			},
			Capabilities: []string{
				"Manage products",
				"Manage orders",
				"Manage inventory",
				"Retrieve data",
				"Create resources",
			},
		},
	},
	{
		fragments: []string{"slack", "slack.com/api"},
		api: schema.ParsedAPI{
			Name:        "Slack",
			BaseURL:     "https://slack.com/api",
			Description: "Team messaging API for channels, users, and messages",
			Endpoints: []schema.APIEndpoint{
				{
					Path:    "/chat.postMessage",
					Method:  schema.MethodPost,
					Summary: "Send a message to a channel",
					Parameters: []schema.APIParameter{
						{Name: "channel", Type: "string", Required: true, Description: "Channel id or name", Location: schema.InBody},
						{Name: "text", Type: "string", Required: true, Description: "Message text", Location: schema.InBody},
					},
					Responses: []schema.APIResponse{{StatusCode: "200", Description: "Message posted"}},
					Tags:      []string{"messages"},
				},
				{
					Path:    "/conversations.list",
					Method:  schema.MethodGet,
					Summary: "List channels",
					Parameters: []schema.APIParameter{
						{Name: "limit", Type: "integer", Description: "Maximum number of results", Location: schema.InQuery, Example: 100},
						{Name: "types", Type: "string", Description: "Channel types to include", Location: schema.InQuery},
					},
					Responses: []schema.APIResponse{{StatusCode: "200", Description: "Channel list"}},
					Tags:      []string{"channels"},
				},
				{
					Path:    "/users.list",
					Method:  schema.MethodGet,
					Summary: "List users in the workspace",
					Parameters: []schema.APIParameter{
						{Name: "limit", Type: "integer", Description: "Maximum number of results", Location: schema.InQuery},
					},
					Responses: []schema.APIResponse{{StatusCode: "200", Description: "User list"}},
					Tags:      []string{"users"},
				},
			},
			Authentication: schema.APIAuth{Type: schema.AuthBearer},
			Capabilities: []string{
				"Manage messages",
				"Manage channels",
				"Manage users",
				"Create resources",
				"Retrieve data",
			},
		},
	},
}
