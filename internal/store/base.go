package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"git.home.luguber.info/inful/promoter/internal/errors"
)

// BaseClient provides common HTTP operations for contents-API stores.
// It consolidates request building, auth headers, and the status-to-category
// mapping shared by the GitHub and Forgejo adapters.
type BaseClient struct {
	httpClient *http.Client
	apiURL     string
	token      string
	repo       string // owner/name, embedded in auth error messages

	// Store-specific customization hooks
	authHeaderPrefix string // "Bearer " for GitHub, "token " for Forgejo
	customHeaders    map[string]string
}

// NewBaseClient creates a BaseClient with common store HTTP settings.
func NewBaseClient(httpClient *http.Client, apiURL, token, repo string) *BaseClient {
	return &BaseClient{
		httpClient:       httpClient,
		apiURL:           apiURL,
		token:            token,
		repo:             repo,
		authHeaderPrefix: "Bearer ", // default to Bearer
		customHeaders:    make(map[string]string),
	}
}

// SetAuthHeaderPrefix customizes the authorization header format (e.g., "token " for Forgejo).
func (b *BaseClient) SetAuthHeaderPrefix(prefix string) {
	b.authHeaderPrefix = prefix
}

// SetCustomHeader sets store-specific headers (e.g., the GitHub API version header).
func (b *BaseClient) SetCustomHeader(key, value string) {
	b.customHeaders[key] = value
}

// newHTTPClient30s returns an HTTP client with a 30s timeout.
func newHTTPClient30s() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// NewRequest creates an HTTP request with common store patterns. Endpoint is a
// relative path like "repos/{owner}/{repo}/contents/{path}"; query strings in
// the endpoint are preserved.
func (b *BaseClient) NewRequest(ctx context.Context, method, endpoint string, body any) (*http.Request, error) {
	cleanEndpoint := strings.TrimPrefix(endpoint, "/")

	var rawQuery string
	if idx := strings.Index(cleanEndpoint, "?"); idx != -1 {
		rawQuery = cleanEndpoint[idx+1:]
		cleanEndpoint = cleanEndpoint[:idx]
	}

	u, err := url.Parse(b.apiURL)
	if err != nil {
		return nil, errors.NewError(errors.CategoryForge).
			WithMessage("failed to parse API URL").
			WithCause(err).
			WithContext("api_url", b.apiURL).
			Build()
	}

	// Join paths while preserving base path
	basePath := strings.TrimSuffix(u.Path, "/")
	u.Path = path.Join(basePath, cleanEndpoint)
	if rawQuery != "" {
		u.RawQuery = rawQuery
	}

	var req *http.Request
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, errors.NewError(errors.CategoryForge).
				WithMessage("failed to marshal request body").
				WithCause(err).
				Build()
		}
		req, err = http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(jsonBody))
		if err != nil {
			return nil, errors.NewError(errors.CategoryForge).
				WithMessage("failed to create request").
				WithCause(err).
				WithContext("method", method).
				WithContext("url", u.String()).
				Build()
		}
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, err = http.NewRequestWithContext(ctx, method, u.String(), http.NoBody)
		if err != nil {
			return nil, errors.NewError(errors.CategoryForge).
				WithMessage("failed to create request").
				WithCause(err).
				WithContext("method", method).
				WithContext("url", u.String()).
				Build()
		}
	}

	req.Header.Set("Authorization", b.authHeaderPrefix+b.token)
	req.Header.Set("User-Agent", "Promoter/1.0")

	for key, value := range b.customHeaders {
		req.Header.Set(key, value)
	}

	return req, nil
}

// DoRequest executes an HTTP request and decodes the JSON response into
// result. Error statuses are mapped onto the closed category set:
// 404 not_found, 409 conflict, 401/403 auth, anything else forge.
func (b *BaseClient) DoRequest(req *http.Request, result any) error {
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return errors.NetworkError("failed to execute store request", err).
			WithContext("method", req.Method).
			WithContext("url", req.URL.String())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return b.classifyStatus(resp, req)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return errors.NewError(errors.CategoryForge).
				WithMessage("failed to decode response").
				WithCause(err).
				Build()
		}
	}

	return nil
}

// classifyStatus turns an error response into a classified error. The body is
// read (bounded) for diagnostics; auth failures embed the repository and
// status in the message itself since they are what the operator needs first.
func (b *BaseClient) classifyStatus(resp *http.Response, req *http.Request) error {
	limitedBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	bodyStr := strings.ReplaceAll(string(limitedBody), "\n", " ")

	builder := func(category errors.Category, message string) *errors.ClassifiedError {
		return errors.NewError(category).
			WithMessage(message).
			WithContext("status", resp.Status).
			WithContext("code", resp.StatusCode).
			WithContext("url", req.URL.String()).
			WithContext("response", bodyStr).
			Build()
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return builder(errors.CategoryNotFound, fmt.Sprintf("not found in %s", b.repo))
	case http.StatusConflict:
		return builder(errors.CategoryConflict, fmt.Sprintf("version conflict in %s", b.repo))
	case http.StatusUnauthorized, http.StatusForbidden:
		return builder(errors.CategoryAuth,
			fmt.Sprintf("access to %s denied (%s)", b.repo, resp.Status))
	default:
		return builder(errors.CategoryForge, fmt.Sprintf("store API error: %s", resp.Status))
	}
}
