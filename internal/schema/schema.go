// Package schema defines the normalized API description and agent plan
// types shared by the analyzer, planner, and runtime.
package schema

// ParamLocation says where a parameter is serialized into a request.
// Every location maps to exactly one serialization rule at request-build
// time: query string, path substitution, JSON body, or header.
type ParamLocation string

const (
	InQuery  ParamLocation = "query"
	InPath   ParamLocation = "path"
	InBody   ParamLocation = "body"
	InHeader ParamLocation = "header"
)

// Valid reports whether l is one of the four known locations.
func (l ParamLocation) Valid() bool {
	switch l {
	case InQuery, InPath, InBody, InHeader:
		return true
	}
	return false
}

// Method is an HTTP method supported by endpoint synthesis.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
	MethodPatch  Method = "PATCH"
)

// Valid reports whether m is one of the five supported methods.
func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch:
		return true
	}
	return false
}

// AuthType classifies how the target API authenticates requests.
type AuthType string

const (
	AuthAPIKey AuthType = "apiKey"
	AuthBearer AuthType = "bearer"
	AuthOAuth  AuthType = "oauth"
	AuthBasic  AuthType = "basic"
)

// APIParameter describes one parameter of an endpoint.
type APIParameter struct {
	Name        string        `json:"name"`
	Type        string        `json:"type"` // string|integer|number|boolean|other
	Required    bool          `json:"required"`
	Description string        `json:"description,omitempty"`
	Location    ParamLocation `json:"location"`
	Example     any           `json:"example,omitempty"`
}

// APIResponse describes one declared response of an endpoint.
type APIResponse struct {
	StatusCode  string `json:"status_code"`
	Description string `json:"description,omitempty"`
	Example     any    `json:"example,omitempty"`
}

// APIEndpoint is one operation of the target API. Path placeholders
// ({name}) correspond 1:1 with parameters whose Location is InPath.
type APIEndpoint struct {
	Path        string         `json:"path"`
	Method      Method         `json:"method"`
	Summary     string         `json:"summary,omitempty"`
	Description string         `json:"description,omitempty"`
	Parameters  []APIParameter `json:"parameters,omitempty"`
	Responses   []APIResponse  `json:"responses,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
}

// APIAuth describes the authentication scheme of the target API.
// Location and HeaderName are only meaningful for AuthAPIKey.
type APIAuth struct {
	Type       AuthType      `json:"type"`
	Location   ParamLocation `json:"location,omitempty"`
	HeaderName string        `json:"name,omitempty"`
}

// ParsedAPI is the normalized API description produced by the analyzer.
// It is built once per analysis and immutable afterwards.
type ParsedAPI struct {
	Name           string        `json:"name"`
	BaseURL        string        `json:"base_url"`
	Description    string        `json:"description,omitempty"`
	Endpoints      []APIEndpoint `json:"endpoints"`
	Authentication APIAuth       `json:"authentication"`
	Capabilities   []string      `json:"capabilities,omitempty"`
}
