package provider

import "fmt"

const (
	APIOpenAI     = "openai"
	APIOpenRouter = "openrouter"
	APIStub       = "stub"
)

// Config mirrors config.ProviderConfig to avoid circular imports.
type Config struct {
	API     string
	BaseURL string
	APIKey  string
	Model   string
}

// FromConfig creates a Provider from a config entry. The api field
// selects the backend; an empty field means OpenAI.
func FromConfig(cfg Config) (Provider, error) {
	switch cfg.API {
	case APIOpenAI, "":
		var opts []OpenAIOption
		if cfg.Model != "" {
			opts = append(opts, WithOpenAIModel(cfg.Model))
		}
		return NewOpenAIProvider(cfg.BaseURL, cfg.APIKey, opts...), nil
	case APIOpenRouter:
		var opts []OpenRouterOption
		if cfg.Model != "" {
			opts = append(opts, WithOpenRouterModel(cfg.Model))
		}
		return NewOpenRouterProvider(cfg.BaseURL, cfg.APIKey, opts...), nil
	case APIStub:
		return NewStubProvider(""), nil
	default:
		return nil, fmt.Errorf("unknown api type %q (supported: %s, %s, %s)",
			cfg.API, APIOpenAI, APIOpenRouter, APIStub)
	}
}
