package planner

import (
	"fmt"
	"strings"

	"github.com/opentalon/agentsmith/internal/schema"
)

// generateSystemPrompt renders the single instruction channel the LLM
// receives: identity, goal, capabilities, workflow outline, and the
// behavioral guidelines. Everything else the model knows about its tool
// universe arrives through the function definitions.
func generateSystemPrompt(api *schema.ParsedAPI, wf schema.AgentWorkflow) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are a helpful assistant for %s.\n\n", api.Name)
	if wf.Goal != "" {
		fmt.Fprintf(&sb, "Your goal: %s\n\n", wf.Goal)
	}

	if len(api.Capabilities) > 0 {
		sb.WriteString("The API provides these capabilities:\n")
		for _, c := range api.Capabilities {
			fmt.Fprintf(&sb, "- %s\n", c)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Your workflow:\n")
	for _, step := range wf.Steps {
		fmt.Fprintf(&sb, "- %s: %s\n", step.ID, step.Description)
	}
	sb.WriteString("\n")

	sb.WriteString(`Guidelines:
1. Greet the user warmly and explain what you can do.
2. Ask for any missing details before calling a function.
3. Only call the functions you have been given, using their exact names.
4. Confirm with the user before performing destructive operations.
5. Summarize API results in plain language instead of raw JSON.
6. If a function call fails, apologize and explain what went wrong.

`)
	fmt.Fprintf(&sb, "If the user asks about anything unrelated, politely redirect the conversation back to %s.", api.Name)

	return sb.String()
}
