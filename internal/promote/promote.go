// Package promote implements the conflict-retry synchronizer at the heart of
// the promoter: fetch the state document, merge one service's update into it,
// and commit the result conditioned on the version token observed by that
// same fetch.
// A concurrent writer surfaces as a version conflict, which re-enters the
// loop with a mandatory re-fetch so the losing writer re-applies its update
// on top of the winner's state instead of overwriting it.
package promote

import (
	"fmt"

	"git.home.luguber.info/inful/promoter/internal/catalog"
	"git.home.luguber.info/inful/promoter/internal/errors"
	"git.home.luguber.info/inful/promoter/internal/store"
)

// Environment selects the document layout a promotion targets.
type Environment string

const (
	// EnvPreview targets a per-branch preview document holding every
	// registry service.
	EnvPreview Environment = "preview"
	// EnvProduction targets a single-service production document.
	EnvProduction Environment = "production"
)

// Request describes one promotion: pin Service to Ref in the document the
// environment maps to.
type Request struct {
	Environment Environment
	Service     string
	// Branch is the source branch name. Preview documents live under the
	// branch's normalized slug, so previews require it; production
	// promotions carry it as metadata only.
	Branch string
	// Ref is the artifact identifier, typically the build's commit SHA.
	Ref string
	// Meta is the audit metadata stamped onto the updated entry.
	Meta catalog.Metadata
}

func (r Request) validate() error {
	switch r.Environment {
	case EnvPreview, EnvProduction:
	default:
		return errors.ValidationError(fmt.Sprintf("unknown environment %q", r.Environment), nil)
	}
	if r.Service == "" {
		return errors.ValidationError("service name is required", nil)
	}
	if r.Ref == "" {
		return errors.ValidationError("artifact ref is required", nil)
	}
	if r.Environment == EnvPreview && r.Branch == "" {
		return errors.ValidationError("branch is required for preview promotions", nil)
	}
	return nil
}

// AttemptOutcome is how a single fetch-merge-commit pass ended.
type AttemptOutcome string

const (
	AttemptCommitted AttemptOutcome = "committed"
	AttemptConflict  AttemptOutcome = "conflict"
	AttemptFailed    AttemptOutcome = "failed"
)

// Attempt records one pass through the protocol loop. Token is the version
// token the pass observed; empty means the document did not exist yet.
type Attempt struct {
	Number  int
	Token   store.Token
	Outcome AttemptOutcome
}

// Result is the outcome of a Run. It is returned non-nil alongside an error
// so failure reporting can reuse the derived slug, path, and attempt trail
// without re-deriving them.
type Result struct {
	Environment Environment
	Service     string

	// Slug is the normalized branch slug; empty for production targets.
	Slug string
	// Path is the document path inside the state repository.
	Path string

	// Document is the committed state; OldText/NewText are its encoding
	// before and after the merge, for diff rendering. All three are set
	// only on success.
	Document *catalog.Document
	OldText  string
	NewText  string

	Message   string
	CommitSHA string
	CommitURL string
	// Created reports whether the winning attempt scaffolded a fresh
	// document rather than merging into an existing one.
	Created bool

	// Attempts counts the passes taken, including the winning one.
	Attempts int
	Trail    []Attempt
}
