package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRun         = "run_id"
	KeyEnvironment = "environment"
	KeyService     = "service"
	KeySlug        = "slug"
	KeyTag         = "image_tag"
	KeyPath        = "path"
	KeyRepo        = "repository"
	KeyAttempt     = "attempt"
	KeyCommitSHA   = "commit_sha"
	KeySink        = "sink"
	KeyDurationMS  = "duration_ms"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRun, id) }
func Environment(e string) slog.Attr  { return slog.String(KeyEnvironment, e) }
func Service(s string) slog.Attr      { return slog.String(KeyService, s) }
func Slug(s string) slog.Attr         { return slog.String(KeySlug, s) }
func ImageTag(t string) slog.Attr     { return slog.String(KeyTag, t) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Repository(r string) slog.Attr   { return slog.String(KeyRepo, r) }
func Attempt(n int) slog.Attr         { return slog.Int(KeyAttempt, n) }
func CommitSHA(sha string) slog.Attr  { return slog.String(KeyCommitSHA, sha) }
func Sink(name string) slog.Attr      { return slog.String(KeySink, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil { return slog.String(KeyError, "") }
	return slog.String(KeyError, err.Error())
}
