package errors

import "maps"

// Category represents the broad category of an error for classification and
// routing. The set is closed: the synchronizer and the CLI adapter dispatch on
// it, so new categories must be added here and nowhere else.
type Category string

const (
	// User-facing configuration and input errors.
	CategoryConfig     Category = "config"
	CategoryValidation Category = "validation"
	CategoryAuth       Category = "auth"

	// Remote store outcomes.
	CategoryNotFound Category = "not_found"
	CategoryConflict Category = "conflict"
	CategoryDecode   Category = "decode"

	// External system integration errors.
	CategoryNetwork Category = "network"
	CategoryForge   Category = "forge"

	// Side-channel errors, downgraded to warnings by callers.
	CategoryNotify  Category = "notify"
	CategoryHistory Category = "history"

	CategoryInternal Category = "internal"
)

// Severity indicates the impact level of an error.
type Severity string

const (
	SeverityFatal   Severity = "fatal"   // Stops execution completely
	SeverityError   Severity = "error"   // Fails the current operation
	SeverityWarning Severity = "warning" // Continues with degraded functionality
	SeverityInfo    Severity = "info"    // Informational, no impact
)

// RetryStrategy indicates how an error should be handled in retry scenarios.
type RetryStrategy string

const (
	RetryNever      RetryStrategy = "never"     // Permanent failure, don't retry
	RetryImmediate  RetryStrategy = "immediate" // Retry immediately
	RetryBackoff    RetryStrategy = "backoff"   // Retry with backoff
	RetryUserAction RetryStrategy = "user"      // Requires user intervention
)

// Context provides structured context for errors.
type Context map[string]any

// Set adds or updates a context value.
func (c Context) Set(key string, value any) Context {
	if c == nil {
		c = make(Context)
	}
	c[key] = value
	return c
}

// Get retrieves a context value.
func (c Context) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	value, exists := c[key]
	return value, exists
}

// GetString retrieves a string context value.
func (c Context) GetString(key string) (string, bool) {
	if value, exists := c.Get(key); exists {
		if str, ok := value.(string); ok {
			return str, true
		}
	}
	return "", false
}

// GetInt retrieves an int context value.
func (c Context) GetInt(key string) (int, bool) {
	if value, exists := c.Get(key); exists {
		if n, ok := value.(int); ok {
			return n, true
		}
	}
	return 0, false
}

// Merge combines two contexts, with other taking precedence.
func (c Context) Merge(other Context) Context {
	if c == nil {
		return other
	}
	if other == nil {
		return c
	}
	result := make(Context)
	maps.Copy(result, c)
	maps.Copy(result, other)
	return result
}
