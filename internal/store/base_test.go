package store

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"git.home.luguber.info/inful/promoter/internal/errors"
)

func TestBaseClient_NewRequest(t *testing.T) {
	tests := []struct {
		name          string
		apiURL        string
		endpoint      string
		body          any
		authPrefix    string
		customHeaders map[string]string
		wantPath      string
		wantQuery     string
		wantAuth      string
	}{
		{
			name:       "simple endpoint no body",
			apiURL:     "https://forge.example.com/api/v1",
			endpoint:   "/repos/acme/state/contents/services.yaml",
			authPrefix: "token ",
			wantPath:   "/api/v1/repos/acme/state/contents/services.yaml",
			wantAuth:   "token test-token",
		},
		{
			name:      "query string preserved",
			apiURL:    "https://forge.example.com/api/v1",
			endpoint:  "/repos/acme/state/contents/production/shop-api.yaml?ref=main",
			wantPath:  "/api/v1/repos/acme/state/contents/production/shop-api.yaml",
			wantQuery: "ref=main",
			wantAuth:  "Bearer test-token",
		},
		{
			name:     "custom headers applied",
			apiURL:   "https://api.github.com",
			endpoint: "/repos/acme/state/contents/services.yaml",
			customHeaders: map[string]string{
				"Accept":               "application/vnd.github+json",
				"X-GitHub-Api-Version": "2022-11-28",
			},
			wantPath: "/repos/acme/state/contents/services.yaml",
			wantAuth: "Bearer test-token",
		},
		{
			name:     "JSON body sets content type",
			apiURL:   "https://forge.example.com/api/v1",
			endpoint: "/repos/acme/state/contents/services.yaml",
			body:     map[string]string{"message": "chore(production): update shop-api"},
			wantPath: "/api/v1/repos/acme/state/contents/services.yaml",
			wantAuth: "Bearer test-token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bc := NewBaseClient(&http.Client{}, tt.apiURL, "test-token", "acme/state")
			if tt.authPrefix != "" {
				bc.SetAuthHeaderPrefix(tt.authPrefix)
			}
			for k, v := range tt.customHeaders {
				bc.SetCustomHeader(k, v)
			}

			req, err := bc.NewRequest(context.Background(), http.MethodGet, tt.endpoint, tt.body)
			if err != nil {
				t.Fatalf("NewRequest() error = %v", err)
			}

			if req.URL.Path != tt.wantPath {
				t.Errorf("NewRequest() path = %v, want %v", req.URL.Path, tt.wantPath)
			}
			if tt.wantQuery != "" && req.URL.RawQuery != tt.wantQuery {
				t.Errorf("NewRequest() query = %v, want %v", req.URL.RawQuery, tt.wantQuery)
			}
			if auth := req.Header.Get("Authorization"); auth != tt.wantAuth {
				t.Errorf("NewRequest() Authorization = %v, want %v", auth, tt.wantAuth)
			}
			if ua := req.Header.Get("User-Agent"); ua != "Promoter/1.0" {
				t.Errorf("NewRequest() User-Agent = %v, want Promoter/1.0", ua)
			}
			for k, want := range tt.customHeaders {
				if got := req.Header.Get(k); got != want {
					t.Errorf("NewRequest() header %s = %v, want %v", k, got, want)
				}
			}
			if tt.body != nil {
				if ct := req.Header.Get("Content-Type"); ct != "application/json" {
					t.Errorf("NewRequest() Content-Type = %v, want application/json", ct)
				}
			}
		})
	}
}

func TestBaseClient_StatusClassification(t *testing.T) {
	tests := []struct {
		name         string
		statusCode   int
		wantCategory errors.Category
		wantFatal    bool
		wantRetry    bool
		wantContains string
	}{
		{
			name:         "404 maps to not_found",
			statusCode:   http.StatusNotFound,
			wantCategory: errors.CategoryNotFound,
			wantContains: "not found in acme/state",
		},
		{
			name:         "409 maps to retryable conflict",
			statusCode:   http.StatusConflict,
			wantCategory: errors.CategoryConflict,
			wantRetry:    true,
			wantContains: "version conflict in acme/state",
		},
		{
			name:         "401 maps to fatal auth",
			statusCode:   http.StatusUnauthorized,
			wantCategory: errors.CategoryAuth,
			wantFatal:    true,
			wantContains: "access to acme/state denied (401",
		},
		{
			name:         "403 maps to fatal auth",
			statusCode:   http.StatusForbidden,
			wantCategory: errors.CategoryAuth,
			wantFatal:    true,
			wantContains: "access to acme/state denied (403",
		},
		{
			name:         "500 maps to forge",
			statusCode:   http.StatusInternalServerError,
			wantCategory: errors.CategoryForge,
			wantContains: "store API error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(`{"message": "nope"}`))
			}))
			defer server.Close()

			bc := NewBaseClient(server.Client(), server.URL, "test-token", "acme/state")
			req, err := bc.NewRequest(context.Background(), http.MethodGet, "/repos/acme/state/contents/services.yaml", nil)
			if err != nil {
				t.Fatalf("NewRequest() error = %v", err)
			}

			err = bc.DoRequest(req, nil)
			if err == nil {
				t.Fatal("DoRequest() expected error, got nil")
			}
			if got := errors.GetCategory(err); got != tt.wantCategory {
				t.Errorf("category = %v, want %v", got, tt.wantCategory)
			}
			classified, ok := errors.AsClassified(err)
			if !ok {
				t.Fatal("expected a classified error")
			}
			if got := classified.IsFatal(); got != tt.wantFatal {
				t.Errorf("IsFatal() = %v, want %v", got, tt.wantFatal)
			}
			if got := classified.CanRetry(); got != tt.wantRetry {
				t.Errorf("CanRetry() = %v, want %v", got, tt.wantRetry)
			}
			if !strings.Contains(err.Error(), tt.wantContains) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantContains)
			}
		})
	}
}

func TestBaseClient_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := server.Client()
	url := server.URL
	server.Close()

	bc := NewBaseClient(client, url, "test-token", "acme/state")
	req, err := bc.NewRequest(context.Background(), http.MethodGet, "/repos/acme/state/contents/services.yaml", nil)
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}

	err = bc.DoRequest(req, nil)
	if err == nil {
		t.Fatal("DoRequest() expected error against closed server")
	}
	if got := errors.GetCategory(err); got != errors.CategoryNetwork {
		t.Errorf("category = %v, want %v", got, errors.CategoryNetwork)
	}
}
