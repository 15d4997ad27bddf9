// Package store adapts remote document stores to the synchronizer.
//
// A store is a version-controlled file host consumed through two operations:
// fetch a document (content plus an opaque version token) and commit a
// document conditioned on the token last observed. Adapters translate forge
// HTTP status codes into the closed error categories the synchronizer
// dispatches on; nothing above this boundary inspects status codes.
package store

import "context"

// Token is the opaque version token for compare-and-swap commits. For the
// contents-API stores it is the file blob SHA; for the local store it is the
// git blob hash of the content.
type Token string

// Document is a fetched document: raw content plus the version token
// representing the exact byte-state observed.
type Document struct {
	Content []byte
	Token   Token
}

// CommitInfo describes a landed commit.
type CommitInfo struct {
	SHA string
	URL string
}

// Store is the remote document store boundary.
type Store interface {
	// FetchDocument returns the document at path, or a not_found classified
	// error if nothing exists there.
	FetchDocument(ctx context.Context, path string) (*Document, error)

	// CommitDocument writes content to path with a commit message. A non-empty
	// expected token makes the write conditional: the store must reject the
	// commit with a conflict classified error if the document changed since
	// the token was observed. An empty token means create.
	CommitDocument(ctx context.Context, path string, content []byte, message string, expected Token) (*CommitInfo, error)

	// CommitURL renders a browsable URL for a commit SHA.
	CommitURL(sha string) string
}

// Comment is a discussion-thread comment on a pull request.
type Comment struct {
	ID   int64
	Body string
	URL  string
}

// CommentClient is the PR comment boundary used by the notification fan-out.
// It usually points at the source repository, not the state repository, and
// authenticates with a secondary token.
type CommentClient interface {
	ListComments(ctx context.Context, prNumber int) ([]Comment, error)
	CreateComment(ctx context.Context, prNumber int, body string) (*Comment, error)
	UpdateComment(ctx context.Context, commentID int64, body string) (*Comment, error)
}
