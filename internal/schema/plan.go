package schema

import "time"

// StepType classifies a workflow step.
type StepType string

const (
	StepResponse  StepType = "response"
	StepInput     StepType = "input"
	StepAPICall   StepType = "api_call"
	StepCondition StepType = "condition"
)

// AgentStep is one node in a workflow graph. Endpoint is set iff
// Type is StepAPICall; Condition iff StepCondition; ResponseTemplate
// iff StepResponse. A response step with empty NextSteps is terminal.
type AgentStep struct {
	ID               string         `json:"id"`
	Type             StepType       `json:"type"`
	Title            string         `json:"title"`
	Description      string         `json:"description,omitempty"`
	Endpoint         *APIEndpoint   `json:"endpoint,omitempty"`
	Parameters       map[string]any `json:"parameters,omitempty"`
	Condition        string         `json:"condition,omitempty"`
	ResponseTemplate string         `json:"response_template,omitempty"`
	NextSteps        []string       `json:"next_steps,omitempty"`
}

// AgentWorkflow is the narrative plan for one agent. The first step is
// always the greeting step.
type AgentWorkflow struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Goal        string            `json:"goal"`
	Steps       []AgentStep       `json:"steps"`
	Triggers    []string          `json:"triggers,omitempty"`
	Responses   map[string]string `json:"responses"`
}

// FunctionDefinition is a JSON-schema-like tool declaration handed to
// the LLM backend. Parameters follows the OpenAI function-calling shape.
type FunctionDefinition struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  FunctionParameters `json:"parameters"`
}

// FunctionParameters is the object schema of a function's arguments.
type FunctionParameters struct {
	Type       string                    `json:"type"`
	Properties map[string]PropertySchema `json:"properties"`
	Required   []string                  `json:"required,omitempty"`
}

// PropertySchema describes one argument in a function schema.
type PropertySchema struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Example     string `json:"example,omitempty"`
}

// ConversationNode is one node of the conversational flow graph.
type ConversationNode struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"` // greeting|question|action|response|error
	Message   string   `json:"message,omitempty"`
	Triggers  []string `json:"triggers,omitempty"`
	Actions   []string `json:"actions,omitempty"`
	NextNodes []string `json:"next_nodes,omitempty"`
}

// AgentPlan is the planner's full output for one (API, goal) pair.
// It is built once and treated as immutable by the runtime.
type AgentPlan struct {
	Workflow            AgentWorkflow        `json:"workflow"`
	SystemPrompt        string               `json:"system_prompt"`
	FunctionDefinitions []FunctionDefinition `json:"function_definitions"`
	ConversationFlow    []ConversationNode   `json:"conversation_flow"`
}

// FunctionCall is one tool invocation requested by the LLM (or staged
// by a scripted batch). Exactly one of Result and Error is set after
// execution.
type FunctionCall struct {
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Result     any            `json:"result,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// AgentExecution records one user turn: the message, the final agent
// response, and every function call executed along the way in arrival
// order.
type AgentExecution struct {
	ID            string         `json:"id"`
	UserMessage   string         `json:"user_message"`
	AgentResponse string         `json:"agent_response"`
	FunctionCalls []FunctionCall `json:"function_calls"`
	Timestamp     time.Time      `json:"timestamp"`
	Success       bool           `json:"success"`
	Error         string         `json:"error,omitempty"`
}
