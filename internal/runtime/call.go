package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/opentalon/agentsmith/internal/schema"
)

// ExecuteFunctionCall maps one declared call onto an HTTP request
// against the target API and returns the call with Result or Error set,
// never both. Resolution re-derives the canonical name for every
// endpoint on each call; the endpoint count is small enough that a
// cached index would buy nothing.
func (r *Runtime) ExecuteFunctionCall(ctx context.Context, call schema.FunctionCall, api *schema.ParsedAPI, credentials map[string]string) schema.FunctionCall {
	endpoint := resolveEndpoint(call.Name, api)
	if endpoint == nil {
		call.Error = fmt.Sprintf("Unknown function: %s", call.Name)
		return call
	}

	result, err := r.invoke(ctx, endpoint, call.Parameters, api, credentials)
	if err != nil {
		call.Error = err.Error()
		return call
	}
	call.Result = result
	return call
}

func resolveEndpoint(name string, api *schema.ParsedAPI) *schema.APIEndpoint {
	for i := range api.Endpoints {
		if schema.FunctionName(api.Endpoints[i]) == name {
			return &api.Endpoints[i]
		}
	}
	return nil
}

func (r *Runtime) invoke(ctx context.Context, endpoint *schema.APIEndpoint, args map[string]any, api *schema.ParsedAPI, credentials map[string]string) (any, error) {
	reqURL := api.BaseURL + endpoint.Path

	// Path substitution only happens for truthy values; a zero or empty
	// argument leaves the placeholder in the URL.
	query := url.Values{}
	body := map[string]any{}
	for _, param := range endpoint.Parameters {
		value, present := args[param.Name]
		switch param.Location {
		case schema.InPath:
			if truthy(value) {
				reqURL = strings.ReplaceAll(reqURL, "{"+param.Name+"}", formatValue(value))
			}
		case schema.InQuery:
			// Present-but-nil is sent as the literal "null"; only an
			// absent key is skipped.
			if present {
				query.Set(param.Name, formatValue(value))
			}
		case schema.InBody:
			if present {
				body[param.Name] = value
			}
		}
	}
	if encoded := query.Encode(); encoded != "" {
		reqURL += "?" + encoded
	}

	// GET never carries a body, even when body parameters are declared.
	var payload *bytes.Reader
	if len(body) > 0 && endpoint.Method != schema.MethodGet {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		payload = bytes.NewReader(encoded)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, string(endpoint.Method), reqURL, payload)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	setAuthHeaders(req, api.Authentication, credentials)
	for _, param := range endpoint.Parameters {
		if param.Location == schema.InHeader {
			if value, present := args[param.Name]; present {
				req.Header.Set(param.Name, formatValue(value))
			}
		}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API call failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("API call failed: %s", resp.Status)
	}

	var result any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return result, nil
}

// setAuthHeaders injects credentials per the API's scheme. Missing
// credentials degrade to empty header values rather than failing the
// call; the target API is the one that decides a request is
// unauthorized.
func setAuthHeaders(req *http.Request, auth schema.APIAuth, credentials map[string]string) {
	switch auth.Type {
	case schema.AuthBearer:
		token := credentials["apiKey"]
		if token == "" {
			token = credentials["token"]
		}
		req.Header.Set("Authorization", "Bearer "+token)
	case schema.AuthAPIKey:
		// Analyses of bare URLs carry no location; treat that as
		// header auth so the key is not silently dropped.
		if auth.Location == schema.InHeader || auth.Location == "" {
			name := auth.HeaderName
			if name == "" {
				name = "X-API-Key"
			}
			req.Header.Set(name, credentials["apiKey"])
		}
	}
}

// truthy mirrors loose-typed argument semantics: zero numbers, empty
// strings, false, and nil all count as absent for path substitution.
func truthy(v any) bool {
	switch value := v.(type) {
	case nil:
		return false
	case bool:
		return value
	case string:
		return value != ""
	case float64:
		return value != 0
	case int:
		return value != 0
	default:
		return true
	}
}

func formatValue(v any) string {
	switch value := v.(type) {
	case nil:
		return "null"
	case string:
		return value
	case bool:
		return strconv.FormatBool(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case int:
		return strconv.Itoa(value)
	default:
		return fmt.Sprintf("%v", value)
	}
}

func marshalResult(v any) string {
	encoded, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(encoded)
}
