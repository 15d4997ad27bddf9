package store

import (
	"fmt"
	"testing"

	gogit "github.com/go-git/go-git/v5"

	"git.home.luguber.info/inful/promoter/internal/config"
	"git.home.luguber.info/inful/promoter/internal/errors"
)

func TestNewStore(t *testing.T) {
	localDir := t.TempDir()
	if _, err := gogit.PlainInit(localDir, false); err != nil {
		t.Fatalf("PlainInit() error = %v", err)
	}

	tests := []struct {
		name      string
		repo      config.RepoConfig
		wantType  string
		wantError bool
	}{
		{
			name: "forgejo store",
			repo: config.RepoConfig{
				Owner: "acme", Name: "state", Branch: "main",
				Store: config.StoreForgejo, BaseURL: "https://git.home.luguber.info", Token: "t",
			},
			wantType: "*store.ForgejoClient",
		},
		{
			name: "github store",
			repo: config.RepoConfig{
				Owner: "acme", Name: "state", Branch: "main",
				Store: config.StoreGitHub, Token: "t",
			},
			wantType: "*store.GitHubClient",
		},
		{
			name: "local store",
			repo: config.RepoConfig{
				Owner: "acme", Name: "state", Branch: "main",
				Store: config.StoreLocal, Path: localDir,
			},
			wantType: "*store.LocalClient",
		},
		{
			name: "forgejo without base URL",
			repo: config.RepoConfig{
				Owner: "acme", Name: "state", Branch: "main",
				Store: config.StoreForgejo, Token: "t",
			},
			wantError: true,
		},
		{
			name: "unsupported store type",
			repo: config.RepoConfig{
				Owner: "acme", Name: "state", Branch: "main",
				Store: config.StoreType("svn"),
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Repo: tt.repo}
			s, err := NewStore(cfg)

			if tt.wantError {
				if err == nil {
					t.Fatal("NewStore() expected error, got nil")
				}
				if got := errors.GetCategory(err); got != errors.CategoryConfig {
					t.Errorf("category = %v, want %v", got, errors.CategoryConfig)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewStore() error = %v", err)
			}
			if got := fmt.Sprintf("%T", s); got != tt.wantType {
				t.Errorf("NewStore() type = %v, want %v", got, tt.wantType)
			}
		})
	}
}

func TestNewCommentClient(t *testing.T) {
	cfg := &config.Config{
		Repo: config.RepoConfig{
			Owner: "acme", Name: "state", Branch: "main",
			Store: config.StoreForgejo, BaseURL: "https://git.home.luguber.info", Token: "state-token",
		},
	}

	client, err := NewCommentClient(cfg, "acme/shop-api", "source-token")
	if err != nil {
		t.Fatalf("NewCommentClient() error = %v", err)
	}
	if _, ok := client.(*ForgejoClient); !ok {
		t.Errorf("client type = %T, want *ForgejoClient", client)
	}

	if _, err := NewCommentClient(cfg, "shop-api", "source-token"); err == nil {
		t.Error("expected error for repository identifier without owner")
	}

	cfg.Repo.Store = config.StoreLocal
	if _, err := NewCommentClient(cfg, "acme/shop-api", "source-token"); err == nil {
		t.Error("expected error for local store comments")
	}
}

func TestSplitRepo(t *testing.T) {
	tests := []struct {
		input     string
		owner     string
		name      string
		wantError bool
	}{
		{input: "acme/shop-api", owner: "acme", name: "shop-api"},
		{input: "inful/gitops-state", owner: "inful", name: "gitops-state"},
		{input: "shop-api", wantError: true},
		{input: "acme/", wantError: true},
		{input: "/shop-api", wantError: true},
		{input: "acme/group/shop-api", wantError: true},
		{input: "", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			owner, name, err := SplitRepo(tt.input)
			if tt.wantError {
				if err == nil {
					t.Fatalf("SplitRepo(%q) expected error", tt.input)
				}
				if got := errors.GetCategory(err); got != errors.CategoryValidation {
					t.Errorf("category = %v, want %v", got, errors.CategoryValidation)
				}
				return
			}
			if err != nil {
				t.Fatalf("SplitRepo(%q) error = %v", tt.input, err)
			}
			if owner != tt.owner || name != tt.name {
				t.Errorf("SplitRepo(%q) = %q, %q, want %q, %q", tt.input, owner, name, tt.owner, tt.name)
			}
		})
	}
}
