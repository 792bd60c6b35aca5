package tools

import (
	mcpschema "github.com/viant/mcp-protocol/schema"
)

// Definitions returns the input schemas of every tool, in a stable order.
func Definitions() []mcpschema.Tool {
	return []mcpschema.Tool{
		{
			Name:        ToolCreateTask,
			Description: describe("Create a new coding task in Tembo. The task is picked up by a coding agent which works on the given repositories."),
			InputSchema: mcpschema.ToolInputSchema{
				Type: "object",
				Properties: mcpschema.ToolInputSchemaProperties(map[string]map[string]interface{}{
					"prompt":         {"type": "string", "description": "What the agent should do"},
					"repositories":   {"type": "array", "items": map[string]interface{}{"type": "string"}, "description": "Repository URLs or owner/repo names"},
					"agent":          {"type": "string", "description": "Agent to run the task, e.g. claudeCode:claude-opus-4-1"},
					"branch":         {"type": "string", "description": "Branch to work on"},
					"queueRightAway": {"type": "boolean", "description": "Start the task immediately"},
				}),
				Required: []string{"prompt"},
			},
		},
		{
			Name:        ToolCreateAutomation,
			Description: describe("Create a Tembo automation that runs an agent on a cron schedule."),
			InputSchema: mcpschema.ToolInputSchema{
				Type: "object",
				Properties: mcpschema.ToolInputSchemaProperties(map[string]map[string]interface{}{
					"name":               {"type": "string", "description": "Automation name"},
					"aim":                {"type": "string", "description": "Instructions the agent follows on every run"},
					"cron":               {"type": "string", "description": "Cron expression, e.g. 0 9 * * 1"},
					"mcp_servers":        {"type": "array", "items": map[string]interface{}{"type": "string"}, "description": "MCP servers available to the agent"},
					"agent":              {"type": "string", "description": "Agent to run the automation"},
					"triggers":           {"type": "array", "items": map[string]interface{}{"type": "object"}, "description": "Event triggers in addition to the schedule"},
					"extra_json_content": {"type": "object", "description": "Extra fields merged into the automation content"},
				}),
				Required: []string{"name", "aim", "cron"},
			},
		},
		{
			Name:        ToolCheckPRMergeable,
			Description: describe("Check whether a GitHub pull request can be merged without conflicts. mergeable is null while GitHub is still computing it; call again after a few seconds."),
			InputSchema: mcpschema.ToolInputSchema{
				Type: "object",
				Properties: mcpschema.ToolInputSchemaProperties(map[string]map[string]interface{}{
					"owner":       {"type": "string", "description": "Repository owner"},
					"repo":        {"type": "string", "description": "Repository name"},
					"pull_number": {"type": "integer", "minimum": 1, "description": "Pull request number"},
				}),
				Required: []string{"owner", "repo", "pull_number"},
			},
		},
	}
}

func describe(s string) *string { return &s }
