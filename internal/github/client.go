package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/tembo-mcp/tembo-mcp/internal/core"
	"github.com/tembo-mcp/tembo-mcp/internal/upstream"
)

const (
	service    = "github"
	apiVersion = "2022-11-28"
)

type Client struct {
	http    *upstream.Client
	baseURL string
	timeout time.Duration
}

func NewClient(httpClient *upstream.Client, baseURL string, timeout time.Duration) *Client {
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

type PullRequest struct {
	Number         int    `json:"number"`
	Title          string `json:"title"`
	State          string `json:"state"`
	Draft          bool   `json:"draft"`
	HTMLURL        string `json:"html_url"`
	Merged         bool   `json:"merged"`
	Mergeable      *bool  `json:"mergeable"`
	MergeableState string `json:"mergeable_state"`
	Base           struct {
		Ref string `json:"ref"`
	} `json:"base"`
	Head struct {
		Ref string `json:"ref"`
	} `json:"head"`
}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ValidName reports whether s can be a GitHub owner or repository name. Dot
// segments are refused so a name can never climb out of /repos/{owner}/{repo}.
func ValidName(s string) bool {
	return s != "." && s != ".." && namePattern.MatchString(s)
}

// GetPullRequest fetches a single pull request. Failures are *upstream.Failure
// with a detail tailored to the common 401/403/404 cases.
func (c *Client) GetPullRequest(ctx context.Context, token, owner, repo string, prNumber int) (*PullRequest, error) {
	for _, name := range []string{owner, repo} {
		if !ValidName(name) {
			return nil, core.InvalidArgument("invalid repository name segment %q", name)
		}
	}
	u := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", c.baseURL, url.PathEscape(owner), url.PathEscape(repo), prNumber)
	resp, err := c.http.Send(ctx, upstream.Request{
		Service: service,
		Method:  http.MethodGet,
		URL:     u,
		Header: map[string]string{
			"Authorization":        "Bearer " + token,
			"Accept":               "application/vnd.github+json",
			"X-GitHub-Api-Version": apiVersion,
		},
		Timeout: c.timeout,
	})
	if err != nil {
		var f *upstream.Failure
		if errors.As(err, &f) {
			switch f.StatusCode {
			case http.StatusNotFound:
				f.Detail = fmt.Sprintf("pull request #%d not found in %s/%s", prNumber, owner, repo)
			case http.StatusUnauthorized, http.StatusForbidden:
				f.Detail += "; check that GITHUB_TOKEN can read pull requests in this repository"
			}
		}
		return nil, err
	}

	var pr PullRequest
	if err := json.Unmarshal(resp.Body, &pr); err != nil {
		return nil, &upstream.Failure{Service: service, StatusCode: resp.StatusCode, Detail: "decode pull request: " + err.Error()}
	}
	return &pr, nil
}
