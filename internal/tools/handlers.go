// Package tools implements the MCP tools and the dispatcher that routes a
// tools/call request to exactly one of them.
package tools

import (
	"context"

	"github.com/tembo-mcp/tembo-mcp/internal/core"
	"github.com/tembo-mcp/tembo-mcp/internal/github"
	"github.com/tembo-mcp/tembo-mcp/internal/tembo"
)

const (
	ToolCreateTask       = "create_task"
	ToolCreateAutomation = "create_automation"
	ToolCheckPRMergeable = "check_pr_mergeable"
)

// Result is a successful tool outcome. Payload is marshalled to JSON for the
// caller.
type Result struct {
	Payload any
}

// Service holds the dependencies shared by the tool handlers. Every handler
// resolves credentials afresh, so a Service never caches secrets.
type Service struct {
	resolver *core.Resolver
	tembo    *tembo.Client
	github   *github.Client
	policy   *core.Policy
}

func NewService(resolver *core.Resolver, temboClient *tembo.Client, githubClient *github.Client, policy *core.Policy) *Service {
	return &Service{
		resolver: resolver,
		tembo:    temboClient,
		github:   githubClient,
		policy:   policy,
	}
}

// CreateTask submits a coding task to Tembo.
func (s *Service) CreateTask(ctx context.Context, args Args) (Result, error) {
	var (
		in  tembo.CreateTaskRequest
		err error
	)
	if in.Prompt, err = args.RequiredString("prompt"); err != nil {
		return Result{}, err
	}
	if in.Repositories, err = args.OptionalStrings("repositories"); err != nil {
		return Result{}, err
	}
	if in.Agent, err = args.OptionalString("agent"); err != nil {
		return Result{}, err
	}
	if in.Branch, err = args.OptionalString("branch"); err != nil {
		return Result{}, err
	}
	if in.QueueRightAway, err = args.OptionalBool("queueRightAway", "queue_right_away"); err != nil {
		return Result{}, err
	}
	if in.Repositories != nil {
		for _, repo := range *in.Repositories {
			if err := s.policy.CheckRepo(repo); err != nil {
				return Result{}, err
			}
		}
	}

	creds, err := s.resolver.Resolve(core.EnvTemboAPIKey)
	if err != nil {
		return Result{}, s.toolError(err)
	}

	out, err := s.tembo.CreateTask(ctx, creds, in)
	if err != nil {
		return Result{}, s.toolError(err)
	}
	return Result{Payload: out}, nil
}

// CreateAutomation submits a scheduled automation to Tembo.
func (s *Service) CreateAutomation(ctx context.Context, args Args) (Result, error) {
	name, err := args.RequiredString("name")
	if err != nil {
		return Result{}, err
	}
	aim, err := args.RequiredString("aim")
	if err != nil {
		return Result{}, err
	}
	cron, err := args.RequiredString("cron")
	if err != nil {
		return Result{}, err
	}
	extra, err := args.OptionalObject("extra_json_content")
	if err != nil {
		return Result{}, err
	}

	in := tembo.NewAutomationRequest(name, aim, cron, extra)
	if in.MCPServers, err = args.OptionalStrings("mcp_servers"); err != nil {
		return Result{}, err
	}
	if in.Agent, err = args.OptionalString("agent"); err != nil {
		return Result{}, err
	}
	if in.Triggers, err = args.OptionalObjects("triggers"); err != nil {
		return Result{}, err
	}

	creds, err := s.resolver.Resolve(core.EnvTemboAPIKey)
	if err != nil {
		return Result{}, s.toolError(err)
	}

	out, err := s.tembo.CreateAutomation(ctx, creds, in)
	if err != nil {
		return Result{}, s.toolError(err)
	}
	return Result{Payload: out}, nil
}

// CheckPRMergeable reports whether a pull request can merge cleanly. It only
// reads, so repeating the call is always safe.
func (s *Service) CheckPRMergeable(ctx context.Context, args Args) (Result, error) {
	owner, err := args.RequiredString("owner", "repo_owner")
	if err != nil {
		return Result{}, err
	}
	repo, err := args.RequiredString("repo", "repo_name")
	if err != nil {
		return Result{}, err
	}
	number, err := args.PositiveInt("pull_number", "pr_number")
	if err != nil {
		return Result{}, err
	}
	if !github.ValidName(owner) {
		return Result{}, core.InvalidArgument("owner %q is not a valid GitHub name", owner)
	}
	if !github.ValidName(repo) {
		return Result{}, core.InvalidArgument("repo %q is not a valid GitHub name", repo)
	}
	if err := s.policy.CheckRepo(owner + "/" + repo); err != nil {
		return Result{}, err
	}

	creds, err := s.resolver.Resolve(core.EnvGitHubToken)
	if err != nil {
		return Result{}, s.toolError(err)
	}

	pr, err := s.github.GetPullRequest(ctx, creds.GitHubToken, owner, repo, number)
	if err != nil {
		return Result{}, s.toolError(err)
	}
	return Result{Payload: github.Evaluate(pr, number)}, nil
}

// toolError classifies err and scrubs every configured secret from its
// message, not only the one this tool resolved.
func (s *Service) toolError(err error) *core.ToolError {
	te := *core.MapError(err)
	te.Message = core.Redact(te.Message, s.resolver.Secrets()...)
	return &te
}
