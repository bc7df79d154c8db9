package planner

import (
	"fmt"
	"strings"

	"github.com/opentalon/agentsmith/internal/schema"
)

func (p *Planner) createWorkflow(api *schema.ParsedAPI, goal string, relevant []schema.APIEndpoint) schema.AgentWorkflow {
	wf := schema.AgentWorkflow{
		ID:          fmt.Sprintf("workflow_%d", p.now().UnixMilli()),
		Name:        workflowName(api, goal),
		Description: fmt.Sprintf("Conversational agent for %s", api.Name),
		Goal:        goal,
		Triggers:    generateTriggers(goal),
		Responses:   cannedResponses(api, goal),
	}

	greeting := schema.AgentStep{
		ID:               "greeting",
		Type:             schema.StepResponse,
		Title:            "Greet the user",
		Description:      "Welcome the user and explain what this agent can do",
		ResponseTemplate: wf.Responses["greeting"],
		NextSteps:        []string{"input"},
	}

	input := schema.AgentStep{
		ID:          "input",
		Type:        schema.StepInput,
		Title:       "Collect the request",
		Description: "Wait for the user to describe what they need",
	}
	if len(relevant) > 0 {
		// Wire the input step to the first generated call; with no
		// relevant endpoints it stays terminal.
		input.NextSteps = []string{"api_call_0"}
	}
	wf.Steps = append(wf.Steps, greeting, input)

	for i, e := range relevant {
		callID := fmt.Sprintf("api_call_%d", i)
		respID := fmt.Sprintf("response_%d", i)
		endpoint := e

		wf.Steps = append(wf.Steps, schema.AgentStep{
			ID:          callID,
			Type:        schema.StepAPICall,
			Title:       stepTitle(e),
			Description: fmt.Sprintf("Call %s %s", e.Method, e.Path),
			Endpoint:    &endpoint,
			Parameters:  generateParameterMapping(e),
			NextSteps:   []string{respID},
		})
		wf.Steps = append(wf.Steps, schema.AgentStep{
			ID:               respID,
			Type:             schema.StepResponse,
			Title:            "Report the result",
			Description:      fmt.Sprintf("Present the outcome of %s %s", e.Method, e.Path),
			ResponseTemplate: responseTemplate(e.Method),
		})
	}

	return wf
}

// workflowName titles the agent after the first four words of the goal.
func workflowName(api *schema.ParsedAPI, goal string) string {
	words := strings.Fields(goal)
	if len(words) == 0 {
		return api.Name + " Agent"
	}
	if len(words) > 4 {
		words = words[:4]
	}
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ") + " Agent"
}

func stepTitle(e schema.APIEndpoint) string {
	if e.Summary != "" {
		return e.Summary
	}
	return fmt.Sprintf("%s %s", e.Method, e.Path)
}

// responseTemplate picks the method-specific phrasing for a terminal
// response step. {response_data} is filled at runtime.
func responseTemplate(m schema.Method) string {
	switch m {
	case schema.MethodGet:
		return "I found the information you requested: {response_data}"
	case schema.MethodPost:
		return "Successfully created the resource: {response_data}"
	case schema.MethodPut, schema.MethodPatch:
		return "Successfully updated the resource: {response_data}"
	case schema.MethodDelete:
		return "Successfully deleted the resource."
	default:
		return "Operation completed: {response_data}"
	}
}

// generateParameterMapping builds the template arguments for an api_call
// step: declared examples verbatim, otherwise a type-derived placeholder
// the LLM is expected to fill in.
func generateParameterMapping(e schema.APIEndpoint) map[string]any {
	if len(e.Parameters) == 0 {
		return nil
	}
	mapping := make(map[string]any, len(e.Parameters))
	for _, p := range e.Parameters {
		if p.Example != nil {
			mapping[p.Name] = p.Example
			continue
		}
		switch p.Type {
		case "string":
			mapping[p.Name] = fmt.Sprintf("{user_input_%s}", p.Name)
		case "integer", "number":
			if strings.Contains(strings.ToLower(p.Name), "limit") {
				mapping[p.Name] = 10
			} else {
				mapping[p.Name] = 1
			}
		case "boolean":
			mapping[p.Name] = true
		default:
			mapping[p.Name] = fmt.Sprintf("{%s}", p.Name)
		}
	}
	return mapping
}

func cannedResponses(api *schema.ParsedAPI, goal string) map[string]string {
	subject := goal
	if subject == "" {
		subject = "work with " + api.Name
	}
	return map[string]string{
		"greeting":      fmt.Sprintf("Hello! I'm your %s assistant. I can help you %s. What would you like to do?", api.Name, subject),
		"help":          fmt.Sprintf("I can help you %s using %s. Just tell me what you need.", subject, api.Name),
		"error":         "I'm sorry, something went wrong while handling your request. Could you try again?",
		"success":       "Done! Is there anything else I can help you with?",
		"clarification": "Could you give me a bit more detail so I can help you properly?",
	}
}
