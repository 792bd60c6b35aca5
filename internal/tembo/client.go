// Package tembo builds and sends requests to the Tembo public API.
package tembo

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/tembo-mcp/tembo-mcp/internal/core"
	"github.com/tembo-mcp/tembo-mcp/internal/upstream"
)

const service = "tembo"

// CreateTaskRequest is the body of POST /task/create. Nil optional fields are
// left out of the JSON entirely.
type CreateTaskRequest struct {
	Prompt         string    `json:"prompt"`
	Repositories   *[]string `json:"repositories,omitempty"`
	Agent          *string   `json:"agent,omitempty"`
	Branch         *string   `json:"branch,omitempty"`
	QueueRightAway *bool     `json:"queueRightAway,omitempty"`
}

// Schedule is one entry of an automation's schedules array.
type Schedule struct {
	Cron string `json:"cron"`
}

// CreateAutomationRequest is the body of POST /automation.
type CreateAutomationRequest struct {
	Name        string            `json:"name"`
	JSONContent map[string]any    `json:"jsonContent"`
	Schedules   []Schedule        `json:"schedules"`
	MCPServers  *[]string         `json:"mcpServers,omitempty"`
	Agent       *string           `json:"agent,omitempty"`
	Triggers    *[]map[string]any `json:"triggers,omitempty"`
}

// NewAutomationRequest fills the required parts of an automation body. extra
// is merged into jsonContent; aim always takes precedence over an "aim" key
// in extra.
func NewAutomationRequest(name, aim, cron string, extra map[string]any) CreateAutomationRequest {
	content := make(map[string]any, len(extra)+1)
	for k, v := range extra {
		content[k] = v
	}
	content["aim"] = aim
	return CreateAutomationRequest{
		Name:        name,
		JSONContent: content,
		Schedules:   []Schedule{{Cron: cron}},
	}
}

type Client struct {
	http    *upstream.Client
	timeout time.Duration
}

func NewClient(httpClient *upstream.Client, timeout time.Duration) *Client {
	return &Client{http: httpClient, timeout: timeout}
}

// CreateTask submits a coding task and returns the API response unmodified.
func (c *Client) CreateTask(ctx context.Context, creds core.Credentials, in CreateTaskRequest) (json.RawMessage, error) {
	return c.post(ctx, creds, "/task/create", in)
}

// CreateAutomation submits a scheduled automation and returns the API
// response unmodified.
func (c *Client) CreateAutomation(ctx context.Context, creds core.Credentials, in CreateAutomationRequest) (json.RawMessage, error) {
	return c.post(ctx, creds, "/automation", in)
}

func (c *Client) post(ctx context.Context, creds core.Credentials, path string, body any) (json.RawMessage, error) {
	resp, err := c.http.Send(ctx, upstream.Request{
		Service: service,
		Method:  http.MethodPost,
		URL:     creds.BaseURL + path,
		Header: map[string]string{
			"Authorization": "Bearer " + creds.APIKey,
			"Accept":        "application/json",
		},
		Body:    body,
		Timeout: c.timeout,
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
