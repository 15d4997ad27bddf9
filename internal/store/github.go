package store

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"git.home.luguber.info/inful/promoter/internal/errors"
)

const (
	githubAPIURL = "https://api.github.com"
	githubWebURL = "https://github.com"
)

// GitHubClient implements Store and CommentClient against the GitHub REST
// contents API.
type GitHubClient struct {
	*BaseClient
	owner  string
	name   string
	branch string
	webURL string
}

// NewGitHubClient creates a GitHub store client. An empty baseURL targets
// github.com; GitHub Enterprise installs pass their API root.
func NewGitHubClient(baseURL, owner, name, branch, token string) (*GitHubClient, error) {
	apiURL := githubAPIURL
	webURL := githubWebURL
	if baseURL != "" {
		apiURL = strings.TrimSuffix(baseURL, "/") + "/api/v3"
		webURL = strings.TrimSuffix(baseURL, "/")
	}

	base := NewBaseClient(newHTTPClient30s(), apiURL, token, owner+"/"+name)
	base.SetCustomHeader("Accept", "application/vnd.github+json")
	base.SetCustomHeader("X-GitHub-Api-Version", "2022-11-28")

	return &GitHubClient{
		BaseClient: base,
		owner:      owner,
		name:       name,
		branch:     branch,
		webURL:     webURL,
	}, nil
}

// FetchDocument fetches a document through the contents API.
func (c *GitHubClient) FetchDocument(ctx context.Context, path string) (*Document, error) {
	endpoint := fmt.Sprintf("/repos/%s/%s/contents/%s?ref=%s", c.owner, c.name, path, url.QueryEscape(c.branch))
	req, err := c.NewRequest(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}

	var contents contentsResponse
	if err := c.DoRequest(req, &contents); err != nil {
		return nil, err
	}

	if contents.Encoding != "" && contents.Encoding != "base64" {
		return nil, errors.NewError(errors.CategoryForge).
			WithMessage(fmt.Sprintf("unexpected contents encoding %q", contents.Encoding)).
			WithContext("path", path).
			Build()
	}

	return decodeContents(&contents, path)
}

// CommitDocument writes a document through the contents API. GitHub uses PUT
// for both create and update; the expected token rides along as the file SHA
// and a stale SHA is answered with 409.
func (c *GitHubClient) CommitDocument(ctx context.Context, path string, content []byte, message string, expected Token) (*CommitInfo, error) {
	endpoint := fmt.Sprintf("/repos/%s/%s/contents/%s", c.owner, c.name, path)

	payload := changeFileRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		Branch:  c.branch,
		SHA:     string(expected),
	}

	req, err := c.NewRequest(ctx, "PUT", endpoint, payload)
	if err != nil {
		return nil, err
	}

	var result commitResponse
	if err := c.DoRequest(req, &result); err != nil {
		return nil, err
	}

	return commitInfoFromResponse(&result, c.CommitURL), nil
}

// CommitURL renders the web URL for a commit.
func (c *GitHubClient) CommitURL(sha string) string {
	return fmt.Sprintf("%s/%s/%s/commit/%s", c.webURL, c.owner, c.name, sha)
}

// ListComments lists the comments on a pull request.
func (c *GitHubClient) ListComments(ctx context.Context, prNumber int) ([]Comment, error) {
	endpoint := fmt.Sprintf("/repos/%s/%s/issues/%d/comments", c.owner, c.name, prNumber)
	req, err := c.NewRequest(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}

	var raw []commentResponse
	if err := c.DoRequest(req, &raw); err != nil {
		return nil, err
	}
	return convertComments(raw), nil
}

// CreateComment posts a new comment on a pull request.
func (c *GitHubClient) CreateComment(ctx context.Context, prNumber int, body string) (*Comment, error) {
	endpoint := fmt.Sprintf("/repos/%s/%s/issues/%d/comments", c.owner, c.name, prNumber)
	req, err := c.NewRequest(ctx, "POST", endpoint, map[string]string{"body": body})
	if err != nil {
		return nil, err
	}

	var raw commentResponse
	if err := c.DoRequest(req, &raw); err != nil {
		return nil, err
	}
	comment := raw.convert()
	return &comment, nil
}

// UpdateComment edits an existing comment in place.
func (c *GitHubClient) UpdateComment(ctx context.Context, commentID int64, body string) (*Comment, error) {
	endpoint := fmt.Sprintf("/repos/%s/%s/issues/comments/%d", c.owner, c.name, commentID)
	req, err := c.NewRequest(ctx, "PATCH", endpoint, map[string]string{"body": body})
	if err != nil {
		return nil, err
	}

	var raw commentResponse
	if err := c.DoRequest(req, &raw); err != nil {
		return nil, err
	}
	comment := raw.convert()
	return &comment, nil
}
