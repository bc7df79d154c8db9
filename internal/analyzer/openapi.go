package analyzer

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/opentalon/agentsmith/internal/schema"
)

// openAPIDocument covers the subset of OpenAPI 3.x / Swagger 2.0 this
// analyzer consumes. Unknown fields are ignored.
type openAPIDocument struct {
	OpenAPI    string                                `json:"openapi"`
	Swagger    string                                `json:"swagger"`
	Info       openAPIInfo                           `json:"info"`
	Servers    []openAPIServer                       `json:"servers"`
	Paths      map[string]map[string]json.RawMessage `json:"paths"`
	Components openAPIComponents                     `json:"components"`
}

type openAPIInfo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type openAPIServer struct {
	URL string `json:"url"`
}

type openAPIComponents struct {
	SecuritySchemes map[string]openAPISecurityScheme `json:"securitySchemes"`
}

type openAPISecurityScheme struct {
	Type   string `json:"type"`
	Scheme string `json:"scheme"`
	In     string `json:"in"`
	Name   string `json:"name"`
}

type openAPIOperation struct {
	Summary     string                     `json:"summary"`
	Description string                     `json:"description"`
	Tags        []string                   `json:"tags"`
	Parameters  []openAPIParameter         `json:"parameters"`
	RequestBody *openAPIRequestBody        `json:"requestBody"`
	Responses   map[string]openAPIResponse `json:"responses"`
}

type openAPIParameter struct {
	Name        string         `json:"name"`
	In          string         `json:"in"`
	Required    bool           `json:"required"`
	Description string         `json:"description"`
	Schema      *openAPISchema `json:"schema"`
	Example     any            `json:"example"`
}

type openAPIRequestBody struct {
	Required bool                        `json:"required"`
	Content  map[string]openAPIMediaType `json:"content"`
}

type openAPIMediaType struct {
	Schema  *openAPISchema `json:"schema"`
	Example any            `json:"example"`
}

type openAPISchema struct {
	Type        string                    `json:"type"`
	Description string                    `json:"description"`
	Properties  map[string]*openAPISchema `json:"properties"`
	Required    []string                  `json:"required"`
	Example     any                       `json:"example"`
}

type openAPIResponse struct {
	Description string                      `json:"description"`
	Content     map[string]openAPIMediaType `json:"content"`
}

// supportedMethods fixes both the closed method set and the order in
// which operations of one path are emitted.
var supportedMethods = []schema.Method{
	schema.MethodGet,
	schema.MethodPost,
	schema.MethodPut,
	schema.MethodDelete,
	schema.MethodPatch,
}

var methodCapabilities = map[schema.Method]string{
	schema.MethodGet:    "Retrieve data",
	schema.MethodPost:   "Create resources",
	schema.MethodPut:    "Update resources",
	schema.MethodPatch:  "Update resources",
	schema.MethodDelete: "Delete resources",
}

// convertOpenAPIDocument maps a parsed specification to a ParsedAPI.
// Paths are visited in sorted order and methods in the fixed order
// above so the endpoint list is deterministic regardless of Go's map
// iteration.
func convertOpenAPIDocument(doc *openAPIDocument) (*schema.ParsedAPI, error) {
	api := &schema.ParsedAPI{
		Name:        doc.Info.Title,
		Description: doc.Info.Description,
	}
	if api.Name == "" {
		api.Name = "Unknown API"
	}
	if len(doc.Servers) > 0 {
		api.BaseURL = doc.Servers[0].URL
	}

	paths := make([]string, 0, len(doc.Paths))
	for p := range doc.Paths {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		item := doc.Paths[path]
		for _, method := range supportedMethods {
			raw, ok := item[strings.ToLower(string(method))]
			if !ok {
				continue
			}
			var op openAPIOperation
			if err := json.Unmarshal(raw, &op); err != nil {
				continue
			}
			api.Endpoints = append(api.Endpoints, convertOperation(path, method, &op))
		}
	}

	api.Authentication = convertSecuritySchemes(doc.Components.SecuritySchemes)
	api.Capabilities = synthesizeCapabilities(api.Endpoints)
	return api, nil
}

func convertOperation(path string, method schema.Method, op *openAPIOperation) schema.APIEndpoint {
	e := schema.APIEndpoint{
		Path:        path,
		Method:      method,
		Summary:     op.Summary,
		Description: op.Description,
		Tags:        op.Tags,
	}

	// Declared parameters first, then body properties, merged into one
	// flat list.
	for _, p := range op.Parameters {
		e.Parameters = append(e.Parameters, schema.APIParameter{
			Name:        p.Name,
			Type:        schemaType(p.Schema),
			Required:    p.Required,
			Description: p.Description,
			Location:    schema.ParamLocation(p.In),
			Example:     p.Example,
		})
	}
	e.Parameters = append(e.Parameters, bodyParameters(op.RequestBody)...)

	codes := make([]string, 0, len(op.Responses))
	for code := range op.Responses {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		r := op.Responses[code]
		resp := schema.APIResponse{StatusCode: code, Description: r.Description}
		if mt, ok := r.Content["application/json"]; ok {
			resp.Example = mt.Example
		}
		e.Responses = append(e.Responses, resp)
	}

	return e
}

// bodyParameters flattens a JSON request body schema into one parameter
// per property, located in the body. Property order is alphabetical so
// the flat list is deterministic.
func bodyParameters(rb *openAPIRequestBody) []schema.APIParameter {
	if rb == nil {
		return nil
	}
	mt, ok := rb.Content["application/json"]
	if !ok || mt.Schema == nil || len(mt.Schema.Properties) == 0 {
		return nil
	}

	required := make(map[string]bool, len(mt.Schema.Required))
	for _, name := range mt.Schema.Required {
		required[name] = true
	}

	names := make([]string, 0, len(mt.Schema.Properties))
	for name := range mt.Schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	params := make([]schema.APIParameter, 0, len(names))
	for _, name := range names {
		prop := mt.Schema.Properties[name]
		params = append(params, schema.APIParameter{
			Name:        name,
			Type:        schemaType(prop),
			Required:    required[name],
			Description: prop.Description,
			Location:    schema.InBody,
			Example:     prop.Example,
		})
	}
	return params
}

func schemaType(s *openAPISchema) string {
	if s == nil || s.Type == "" {
		return "string"
	}
	return s.Type
}

// convertSecuritySchemes maps the first declared scheme (names sorted
// for determinism): http+bearer -> bearer, apiKey -> apiKey with its
// location and name, anything else or absent -> permissive apiKey.
func convertSecuritySchemes(schemes map[string]openAPISecurityScheme) schema.APIAuth {
	if len(schemes) == 0 {
		return schema.APIAuth{Type: schema.AuthAPIKey}
	}
	names := make([]string, 0, len(schemes))
	for name := range schemes {
		names = append(names, name)
	}
	sort.Strings(names)

	s := schemes[names[0]]
	switch {
	case s.Type == "http" && s.Scheme == "bearer":
		return schema.APIAuth{Type: schema.AuthBearer}
	case s.Type == "apiKey":
		return schema.APIAuth{
			Type:       schema.AuthAPIKey,
			Location:   schema.ParamLocation(s.In),
			HeaderName: s.Name,
		}
	default:
		return schema.APIAuth{Type: schema.AuthAPIKey}
	}
}

// synthesizeCapabilities derives human-readable capability strings:
// "Manage {tag}" per endpoint tag plus one fixed string per HTTP method
// in use. Duplicates collapse, first occurrence wins the position.
func synthesizeCapabilities(endpoints []schema.APIEndpoint) []string {
	var caps []string
	seen := make(map[string]bool)
	add := func(c string) {
		if c == "" || seen[c] {
			return
		}
		seen[c] = true
		caps = append(caps, c)
	}

	for _, e := range endpoints {
		for _, tag := range e.Tags {
			add("Manage " + tag)
		}
	}
	for _, e := range endpoints {
		add(methodCapabilities[e.Method])
	}
	return caps
}
