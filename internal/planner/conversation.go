package planner

import "github.com/opentalon/agentsmith/internal/schema"

// generateConversationFlow emits the fixed conversational skeleton:
// greeting -> question -> one action node per api_call step -> a shared
// response node looping back to question. The error node is defined but
// never wired from any other node; the runtime jumps to it by
// convention when a turn fails.
func generateConversationFlow(wf schema.AgentWorkflow) []schema.ConversationNode {
	var actionIDs []string
	var actions []schema.ConversationNode

	for _, step := range wf.Steps {
		if step.Type != schema.StepAPICall {
			continue
		}
		nodeID := "action_" + step.ID
		actionIDs = append(actionIDs, nodeID)
		actions = append(actions, schema.ConversationNode{
			ID:        nodeID,
			Type:      "action",
			Message:   step.Title,
			Triggers:  generateTriggers(step.Title),
			Actions:   []string{step.ID},
			NextNodes: []string{"response"},
		})
	}

	nodes := []schema.ConversationNode{
		{
			ID:        "greeting",
			Type:      "greeting",
			Message:   wf.Responses["greeting"],
			Triggers:  []string{"start", "hello", "hi"},
			NextNodes: []string{"question"},
		},
		{
			ID:        "question",
			Type:      "question",
			Message:   wf.Responses["clarification"],
			NextNodes: actionIDs,
		},
	}
	nodes = append(nodes, actions...)
	nodes = append(nodes,
		schema.ConversationNode{
			ID:        "response",
			Type:      "response",
			Message:   wf.Responses["success"],
			NextNodes: []string{"question"},
		},
		schema.ConversationNode{
			ID:        "error",
			Type:      "error",
			Message:   wf.Responses["error"],
			NextNodes: []string{"question"},
		},
	)
	return nodes
}
