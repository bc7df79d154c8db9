package planner

import (
	"fmt"

	"github.com/opentalon/agentsmith/internal/schema"
)

// generateFunctionDefinitions declares one callable tool per endpoint
// in the empty-goal relevance set. Tool exposure is deliberately a
// superset heuristic: it need not match the narrative workflow's
// endpoints.
func generateFunctionDefinitions(api *schema.ParsedAPI) []schema.FunctionDefinition {
	endpoints := RelevantEndpoints(api, "")
	defs := make([]schema.FunctionDefinition, 0, len(endpoints))
	for _, e := range endpoints {
		defs = append(defs, functionDefinition(e))
	}
	return defs
}

func functionDefinition(e schema.APIEndpoint) schema.FunctionDefinition {
	def := schema.FunctionDefinition{
		Name:        schema.FunctionName(e),
		Description: e.Summary,
		Parameters: schema.FunctionParameters{
			Type:       "object",
			Properties: make(map[string]schema.PropertySchema, len(e.Parameters)),
		},
	}
	if def.Description == "" {
		def.Description = fmt.Sprintf("%s %s", e.Method, e.Path)
	}

	for _, p := range e.Parameters {
		prop := schema.PropertySchema{
			Type:        jsonSchemaType(p.Type),
			Description: p.Description,
		}
		if p.Example != nil {
			prop.Example = fmt.Sprintf("%v", p.Example)
		}
		def.Parameters.Properties[p.Name] = prop
		if p.Required {
			def.Parameters.Required = append(def.Parameters.Required, p.Name)
		}
	}
	return def
}

func jsonSchemaType(t string) string {
	switch t {
	case "integer", "number", "boolean", "string":
		return t
	default:
		return "string"
	}
}
