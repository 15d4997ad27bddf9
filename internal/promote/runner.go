package promote

import (
	"context"
	"fmt"
	"path"
	"time"

	"git.home.luguber.info/inful/promoter/internal/catalog"
	"git.home.luguber.info/inful/promoter/internal/config"
	"git.home.luguber.info/inful/promoter/internal/errors"
	"git.home.luguber.info/inful/promoter/internal/logfields"
	"git.home.luguber.info/inful/promoter/internal/metrics"
	"git.home.luguber.info/inful/promoter/internal/observability"
	"git.home.luguber.info/inful/promoter/internal/retry"
	"git.home.luguber.info/inful/promoter/internal/slug"
	"git.home.luguber.info/inful/promoter/internal/store"
)

// Promoter runs the conflict-retry synchronization against a document store.
type Promoter struct {
	store    store.Store
	paths    config.PathsConfig
	policy   retry.Policy
	recorder metrics.Recorder
}

// NewPromoter creates a Promoter over the given store using the configured
// catalog layout. Empty layout fields fall back to the standard paths.
func NewPromoter(st store.Store, paths config.PathsConfig) *Promoter {
	if paths.Previews == "" {
		paths.Previews = config.DefaultPreviewsDir
	}
	if paths.Production == "" {
		paths.Production = config.DefaultProductionDir
	}
	if paths.Registry == "" {
		paths.Registry = config.DefaultRegistryPath
	}
	return &Promoter{
		store:    st,
		paths:    paths,
		policy:   retry.DefaultPolicy(),
		recorder: metrics.NoopRecorder{},
	}
}

// WithPolicy sets the conflict-retry policy.
func (p *Promoter) WithPolicy(policy retry.Policy) *Promoter {
	p.policy = policy
	return p
}

// WithRecorder sets the metrics recorder.
func (p *Promoter) WithRecorder(recorder metrics.Recorder) *Promoter {
	if recorder != nil {
		p.recorder = recorder
	}
	return p
}

// Run executes the promotion protocol for one request.
//
// The registry is fetched and the target service validated once per call;
// conflict retries reuse that snapshot. A registry change landing mid-retry
// cannot drop anyone's entry because the merge never prunes, so re-fetching
// the registry per attempt would buy nothing.
//
// Run always returns a non-nil Result carrying whatever was derived before
// the failure (slug, path, attempt trail).
func (p *Promoter) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	result := &Result{Environment: req.Environment, Service: req.Service}

	if err := req.validate(); err != nil {
		return result, err
	}

	ctx = observability.WithEnvironment(ctx, string(req.Environment))
	ctx = observability.WithService(ctx, req.Service)

	if req.Environment == EnvPreview {
		result.Slug = slug.Normalize(req.Branch)
		if result.Slug == "" {
			return result, errors.ValidationError(
				fmt.Sprintf("branch %q normalizes to an empty slug", req.Branch), nil).
				WithContext("branch", req.Branch)
		}
		ctx = observability.WithSlug(ctx, result.Slug)
		result.Path = path.Join(p.paths.Previews, result.Slug, "values.yaml")
	} else {
		result.Path = path.Join(p.paths.Production, req.Service+".yaml")
	}

	registry, err := p.fetchRegistry(ctx)
	if err != nil {
		return p.fail(ctx, result, start, err)
	}
	if err := registry.Resolve(req.Service); err != nil {
		return p.fail(ctx, result, start, err)
	}

	// Preview documents scaffold every registry service; production
	// documents hold just the one being promoted.
	scaffold := registry.Names()
	if req.Environment == EnvProduction {
		scaffold = []string{req.Service}
	}

	for number := 1; number <= p.policy.MaxAttempts; number++ {
		if number > 1 {
			p.recorder.IncConflictRetry(string(req.Environment))
			if err := sleepContext(ctx, p.policy.Delay(number-1)); err != nil {
				result.Attempts = number - 1
				return p.fail(ctx, result, start, err)
			}
		}

		err := p.attempt(ctx, req, scaffold, result, number)
		result.Attempts = number

		switch {
		case err == nil:
			duration := time.Since(start)
			p.recorder.ObservePromotionDuration(string(req.Environment), duration)
			p.recorder.IncPromotionOutcome(string(req.Environment), metrics.OutcomeSuccess)
			observability.InfoContext(ctx, "promotion committed",
				logfields.Path(result.Path),
				logfields.ImageTag(req.Ref),
				logfields.CommitSHA(result.CommitSHA),
				logfields.Attempt(number))
			return result, nil
		case errors.HasCategory(err, errors.CategoryConflict):
			observability.WarnContext(ctx, "version conflict, re-fetching state",
				logfields.Path(result.Path),
				logfields.Attempt(number))
		default:
			return p.fail(ctx, result, start, err)
		}
	}

	p.recorder.IncConflictRetryExhausted(string(req.Environment))
	p.recorder.ObservePromotionDuration(string(req.Environment), time.Since(start))
	p.recorder.IncPromotionOutcome(string(req.Environment), metrics.OutcomeConflictExhausted)
	return result, errors.NewError(errors.CategoryConflict).
		WithMessage(fmt.Sprintf("version conflict on %s persisted after %d attempts", result.Path, p.policy.MaxAttempts)).
		Fatal().
		UserAction().
		WithContext("attempts", p.policy.MaxAttempts).
		WithContext("path", result.Path).
		Build()
}

// attempt runs one fetch-merge-commit pass. The commit is conditioned on the
// token this pass observed, never on one from an earlier pass.
func (p *Promoter) attempt(ctx context.Context, req Request, scaffold []string, result *Result, number int) error {
	var (
		existing *catalog.Document
		oldText  string
		token    store.Token
	)

	fetchStart := time.Now()
	fetched, err := p.store.FetchDocument(ctx, result.Path)
	p.recorder.ObserveStageDuration("fetch", time.Since(fetchStart))
	switch {
	case err == nil:
		doc, derr := catalog.Decode(fetched.Content)
		if derr != nil {
			result.Trail = append(result.Trail, Attempt{Number: number, Token: fetched.Token, Outcome: AttemptFailed})
			return derr
		}
		existing = doc
		oldText = string(fetched.Content)
		token = fetched.Token
	case errors.HasCategory(err, errors.CategoryNotFound):
		observability.InfoContext(ctx, "no existing document, creating",
			logfields.Path(result.Path))
	default:
		result.Trail = append(result.Trail, Attempt{Number: number, Outcome: AttemptFailed})
		return err
	}

	var (
		next    *catalog.Document
		message string
	)
	if existing == nil {
		next = catalog.BuildFresh(scaffold, req.Service, req.Ref, req.Meta)
		message = createMessage(req.Environment, req.Service, result.Slug)
	} else {
		next = catalog.MergeUpdate(existing, req.Service, req.Ref, req.Meta)
		message = updateMessage(req.Environment, req.Service, result.Slug)
	}

	encoded, err := catalog.Encode(next)
	if err != nil {
		result.Trail = append(result.Trail, Attempt{Number: number, Token: token, Outcome: AttemptFailed})
		return err
	}

	commitStart := time.Now()
	info, err := p.store.CommitDocument(ctx, result.Path, encoded, message, token)
	p.recorder.ObserveStageDuration("commit", time.Since(commitStart))
	if err != nil {
		outcome := AttemptFailed
		if errors.HasCategory(err, errors.CategoryConflict) {
			outcome = AttemptConflict
		}
		result.Trail = append(result.Trail, Attempt{Number: number, Token: token, Outcome: outcome})
		return err
	}

	result.Document = next
	result.OldText = oldText
	result.NewText = string(encoded)
	result.Message = message
	result.CommitSHA = info.SHA
	result.CommitURL = info.URL
	result.Created = existing == nil
	result.Trail = append(result.Trail, Attempt{Number: number, Token: token, Outcome: AttemptCommitted})
	return nil
}

// fetchRegistry snapshots the service registry from the state repository.
func (p *Promoter) fetchRegistry(ctx context.Context) (*catalog.Registry, error) {
	fetched, err := p.store.FetchDocument(ctx, p.paths.Registry)
	if err != nil {
		if errors.HasCategory(err, errors.CategoryNotFound) {
			return nil, errors.NewError(errors.CategoryNotFound).
				WithMessage(fmt.Sprintf("service registry %s not found in the state repository", p.paths.Registry)).
				WithCause(err).
				Fatal().
				Build()
		}
		return nil, err
	}
	return catalog.ParseRegistry(fetched.Content)
}

func (p *Promoter) fail(ctx context.Context, result *Result, start time.Time, err error) (*Result, error) {
	p.recorder.ObservePromotionDuration(string(result.Environment), time.Since(start))
	p.recorder.IncPromotionOutcome(string(result.Environment), metrics.OutcomeFailure)
	observability.ErrorContext(ctx, "promotion failed",
		logfields.Path(result.Path),
		logfields.Error(err))
	return result, err
}

func createMessage(env Environment, service, documentSlug string) string {
	if env == EnvPreview {
		return fmt.Sprintf("chore(preview): create %s preview", documentSlug)
	}
	return fmt.Sprintf("chore(production): create %s", service)
}

func updateMessage(env Environment, service, documentSlug string) string {
	if env == EnvPreview {
		return fmt.Sprintf("chore(preview): update %s in %s", service, documentSlug)
	}
	return fmt.Sprintf("chore(production): update %s", service)
}

// sleepContext pauses for d unless the context ends first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return errors.InternalError("promotion canceled while waiting to retry", ctx.Err())
	case <-timer.C:
		return nil
	}
}
