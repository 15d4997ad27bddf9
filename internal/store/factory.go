package store

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/promoter/internal/config"
	"git.home.luguber.info/inful/promoter/internal/errors"
)

// NewStore builds the document store for the configured state repository.
func NewStore(cfg *config.Config) (Store, error) {
	switch cfg.Repo.Store {
	case config.StoreForgejo:
		return NewForgejoClient(cfg.Repo.BaseURL, cfg.Repo.Owner, cfg.Repo.Name, cfg.Repo.Branch, cfg.Repo.Token)
	case config.StoreGitHub:
		return NewGitHubClient(cfg.Repo.BaseURL, cfg.Repo.Owner, cfg.Repo.Name, cfg.Repo.Branch, cfg.Repo.Token)
	case config.StoreLocal:
		return NewLocalClient(cfg.Repo.Path)
	default:
		return nil, errors.ConfigError(fmt.Sprintf("unsupported store type: %s", cfg.Repo.Store), nil)
	}
}

// NewCommentClient builds a comment client against a source repository,
// reusing the configured store flavor and base URL. The source repository is
// where pull requests live, which is not necessarily the state repository.
func NewCommentClient(cfg *config.Config, repo, token string) (CommentClient, error) {
	owner, name, err := SplitRepo(repo)
	if err != nil {
		return nil, err
	}
	switch cfg.Repo.Store {
	case config.StoreForgejo:
		return NewForgejoClient(cfg.Repo.BaseURL, owner, name, "", token)
	case config.StoreGitHub:
		return NewGitHubClient(cfg.Repo.BaseURL, owner, name, "", token)
	default:
		return nil, errors.ConfigError(fmt.Sprintf("comments are not supported for store type: %s", cfg.Repo.Store), nil)
	}
}

// SplitRepo splits an owner/name repository identifier.
func SplitRepo(repo string) (string, string, error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", errors.ValidationError(fmt.Sprintf("malformed repository identifier %q (want owner/name)", repo), nil)
	}
	return owner, name, nil
}
