package store

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"git.home.luguber.info/inful/promoter/internal/errors"
)

// ForgejoClient implements Store and CommentClient against the Forgejo
// (Gitea-compatible) contents API.
type ForgejoClient struct {
	*BaseClient
	owner   string
	name    string
	branch  string
	baseURL string
}

// NewForgejoClient creates a Forgejo store client. baseURL is the web root,
// e.g. "https://git.home.luguber.info"; the API lives under /api/v1.
func NewForgejoClient(baseURL, owner, name, branch, token string) (*ForgejoClient, error) {
	if baseURL == "" {
		return nil, errors.ConfigError("forgejo store requires a base URL", nil)
	}

	base := NewBaseClient(newHTTPClient30s(), strings.TrimSuffix(baseURL, "/")+"/api/v1", token, owner+"/"+name)
	// Forgejo uses "token " auth prefix instead of "Bearer "
	base.SetAuthHeaderPrefix("token ")

	return &ForgejoClient{
		BaseClient: base,
		owner:      owner,
		name:       name,
		branch:     branch,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// contentsResponse is the GET contents payload (file case).
type contentsResponse struct {
	Type     string `json:"type"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
	SHA      string `json:"sha"`
	Path     string `json:"path"`
}

// commitResponse is the PUT/POST contents result.
type commitResponse struct {
	Content *struct {
		SHA string `json:"sha"`
	} `json:"content"`
	Commit *struct {
		SHA     string `json:"sha"`
		HTMLURL string `json:"html_url"`
	} `json:"commit"`
}

// changeFileRequest is the PUT/POST contents payload.
type changeFileRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch,omitempty"`
	SHA     string `json:"sha,omitempty"`
}

// FetchDocument fetches a document through the contents API.
func (c *ForgejoClient) FetchDocument(ctx context.Context, path string) (*Document, error) {
	endpoint := fmt.Sprintf("/repos/%s/%s/contents/%s?ref=%s", c.owner, c.name, path, url.QueryEscape(c.branch))
	req, err := c.NewRequest(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}

	var contents contentsResponse
	if err := c.DoRequest(req, &contents); err != nil {
		return nil, err
	}

	return decodeContents(&contents, path)
}

// CommitDocument writes a document through the contents API. A non-empty
// expected token rides along as the file SHA, turning the write into a
// compare-and-swap; the API answers 409 when the SHA is stale.
func (c *ForgejoClient) CommitDocument(ctx context.Context, path string, content []byte, message string, expected Token) (*CommitInfo, error) {
	endpoint := fmt.Sprintf("/repos/%s/%s/contents/%s", c.owner, c.name, path)

	payload := changeFileRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		Branch:  c.branch,
		SHA:     string(expected),
	}

	method := "PUT"
	if expected == "" {
		// Creating a new file. Forgejo accepts POST for create; PUT without a
		// SHA is rejected.
		method = "POST"
	}

	req, err := c.NewRequest(ctx, method, endpoint, payload)
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
func (c *ForgejoClient) CommitURL(sha string) string {
	return fmt.Sprintf("%s/%s/%s/commit/%s", c.baseURL, c.owner, c.name, sha)
}

// ListComments lists the comments on a pull request (issue index).
func (c *ForgejoClient) ListComments(ctx context.Context, prNumber int) ([]Comment, error) {
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
func (c *ForgejoClient) CreateComment(ctx context.Context, prNumber int, body string) (*Comment, error) {
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
func (c *ForgejoClient) UpdateComment(ctx context.Context, commentID int64, body string) (*Comment, error) {
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

// commentResponse is the wire shape shared by the Gitea-compatible and GitHub
// comment APIs.
type commentResponse struct {
	ID      int64  `json:"id"`
	Body    string `json:"body"`
	HTMLURL string `json:"html_url"`
}

func (r commentResponse) convert() Comment {
	return Comment{ID: r.ID, Body: r.Body, URL: r.HTMLURL}
}

func convertComments(raw []commentResponse) []Comment {
	out := make([]Comment, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.convert())
	}
	return out
}

// decodeContents turns a contents-API response into a Document.
func decodeContents(contents *contentsResponse, path string) (*Document, error) {
	if contents.Type != "" && contents.Type != "file" {
		return nil, errors.NewError(errors.CategoryForge).
			WithMessage(fmt.Sprintf("path %s is a %s, not a file", path, contents.Type)).
			Build()
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(contents.Content, "\n", ""))
	if err != nil {
		return nil, errors.NewError(errors.CategoryForge).
			WithMessage("failed to decode base64 contents").
			WithCause(err).
			WithContext("path", path).
			Build()
	}

	return &Document{Content: decoded, Token: Token(contents.SHA)}, nil
}

// commitInfoFromResponse extracts the commit SHA and URL, constructing the URL
// from the SHA when the API omits html_url.
func commitInfoFromResponse(result *commitResponse, urlFor func(string) string) *CommitInfo {
	info := &CommitInfo{}
	if result.Commit != nil {
		info.SHA = result.Commit.SHA
		info.URL = result.Commit.HTMLURL
	}
	if info.URL == "" && info.SHA != "" {
		info.URL = urlFor(info.SHA)
	}
	return info
}
