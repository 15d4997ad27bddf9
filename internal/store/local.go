package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"git.home.luguber.info/inful/promoter/internal/errors"
)

// LocalClient implements Store against a local working copy of the state
// repository. It exists for development and tests: same CAS semantics as the
// remote stores, no network. The check-and-write is not atomic against other
// processes mutating the same working copy, which is acceptable for its use.
type LocalClient struct {
	root string
	repo *gogit.Repository
}

// NewLocalClient opens the working copy at root.
func NewLocalClient(root string) (*LocalClient, error) {
	repo, err := gogit.PlainOpen(root)
	if err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("failed to open local state repository at %s", root), err)
	}
	return &LocalClient{root: root, repo: repo}, nil
}

// blobToken hashes content the way git hashes blobs, so tokens from the local
// store line up with the blob SHAs the contents-API stores return.
func blobToken(content []byte) Token {
	return Token(plumbing.ComputeHash(plumbing.BlobObject, content).String())
}

// FetchDocument reads a document from the working copy.
func (c *LocalClient) FetchDocument(_ context.Context, path string) (*Document, error) {
	data, err := os.ReadFile(filepath.Join(c.root, filepath.FromSlash(path)))
	if os.IsNotExist(err) {
		return nil, errors.NotFoundError(fmt.Sprintf("not found in %s", c.root), err).
			WithContext("path", path)
	}
	if err != nil {
		return nil, errors.NewError(errors.CategoryForge).
			WithMessage("failed to read local document").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	return &Document{Content: data, Token: blobToken(data)}, nil
}

// CommitDocument writes a document to the working copy and commits it.
// The expected token is compared against the current blob hash before
// writing, mirroring the remote stores' compare-and-swap.
func (c *LocalClient) CommitDocument(_ context.Context, path string, content []byte, message string, expected Token) (*CommitInfo, error) {
	full := filepath.Join(c.root, filepath.FromSlash(path))

	current, err := os.ReadFile(full)
	switch {
	case os.IsNotExist(err):
		if expected != "" {
			return nil, errors.NotFoundError(fmt.Sprintf("not found in %s", c.root), nil).
				WithContext("path", path)
		}
	case err != nil:
		return nil, errors.NewError(errors.CategoryForge).
			WithMessage("failed to read local document").
			WithCause(err).
			WithContext("path", path).
			Build()
	default:
		if expected == "" {
			return nil, errors.ConflictError(fmt.Sprintf("version conflict in %s", c.root), nil).
				WithContext("path", path)
		}
		if got := blobToken(current); got != expected {
			return nil, errors.ConflictError(fmt.Sprintf("version conflict in %s", c.root), nil).
				WithContext("path", path).
				WithContext("expected", string(expected)).
				WithContext("actual", string(got))
		}
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, errors.NewError(errors.CategoryForge).
			WithMessage("failed to create document directory").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	if err := os.WriteFile(full, content, 0o644); err != nil {
		return nil, errors.NewError(errors.CategoryForge).
			WithMessage("failed to write local document").
			WithCause(err).
			WithContext("path", path).
			Build()
	}

	wt, err := c.repo.Worktree()
	if err != nil {
		return nil, errors.NewError(errors.CategoryForge).
			WithMessage("failed to open worktree").
			WithCause(err).
			Build()
	}
	if _, err := wt.Add(path); err != nil {
		return nil, errors.NewError(errors.CategoryForge).
			WithMessage("failed to stage document").
			WithCause(err).
			WithContext("path", path).
			Build()
	}

	hash, err := wt.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{Name: "promoter", Email: "promoter@localhost", When: time.Now()},
	})
	if err != nil {
		return nil, errors.NewError(errors.CategoryForge).
			WithMessage("failed to commit document").
			WithCause(err).
			WithContext("path", path).
			Build()
	}

	return &CommitInfo{SHA: hash.String()}, nil
}

// CommitURL returns empty: local commits have no browsable URL.
func (c *LocalClient) CommitURL(string) string {
	return ""
}
