package errors

// ErrorBuilder provides a fluent interface for constructing classified errors.
type ErrorBuilder struct {
	err *ClassifiedError
}

// NewError creates a new error builder with the specified category.
// Severity and retry strategy default from the category and can be
// overridden before Build.
func NewError(category Category) *ErrorBuilder {
	return &ErrorBuilder{
		err: &ClassifiedError{
			category: category,
			severity: defaultSeverity(category),
			retry:    defaultRetryStrategy(category),
			context:  make(Context),
		},
	}
}

// WithMessage sets the error message.
func (b *ErrorBuilder) WithMessage(message string) *ErrorBuilder {
	b.err.message = message
	return b
}

// WithCause sets the underlying cause error.
func (b *ErrorBuilder) WithCause(cause error) *ErrorBuilder {
	b.err.cause = cause
	return b
}

// WithSeverity overrides the default severity.
func (b *ErrorBuilder) WithSeverity(severity Severity) *ErrorBuilder {
	b.err.severity = severity
	return b
}

// WithRetryStrategy overrides the default retry strategy.
func (b *ErrorBuilder) WithRetryStrategy(strategy RetryStrategy) *ErrorBuilder {
	b.err.retry = strategy
	return b
}

// WithContext adds a context key-value pair.
func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context.Set(key, value)
	return b
}

// WithContextMap merges a map of context values.
func (b *ErrorBuilder) WithContextMap(ctx Context) *ErrorBuilder {
	b.err.context = b.err.context.Merge(ctx)
	return b
}

// Fatal marks the error as fatal.
func (b *ErrorBuilder) Fatal() *ErrorBuilder {
	b.err.severity = SeverityFatal
	return b
}

// Warning marks the error as a warning.
func (b *ErrorBuilder) Warning() *ErrorBuilder {
	b.err.severity = SeverityWarning
	return b
}

// Retryable marks the error as retryable with backoff.
func (b *ErrorBuilder) Retryable() *ErrorBuilder {
	b.err.retry = RetryBackoff
	return b
}

// UserAction marks the error as requiring user intervention.
func (b *ErrorBuilder) UserAction() *ErrorBuilder {
	b.err.retry = RetryUserAction
	return b
}

// Build returns the constructed classified error.
func (b *ErrorBuilder) Build() *ClassifiedError {
	return b.err
}

// defaultSeverity maps categories to their usual severity.
func defaultSeverity(category Category) Severity {
	switch category {
	case CategoryAuth:
		return SeverityFatal
	case CategoryNotify:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// defaultRetryStrategy maps categories to their usual retry strategy.
// Conflicts retry immediately against a re-fetched remote state; network
// failures back off; auth and validation never retry.
func defaultRetryStrategy(category Category) RetryStrategy {
	switch category {
	case CategoryConflict:
		return RetryImmediate
	case CategoryNetwork:
		return RetryBackoff
	case CategoryConfig, CategoryValidation:
		return RetryUserAction
	case CategoryAuth:
		return RetryNever
	default:
		return RetryNever
	}
}

// Convenience constructors for common error categories.

// ConfigError creates a configuration error.
func ConfigError(message string, cause error) *ClassifiedError {
	return NewError(CategoryConfig).WithMessage(message).WithCause(cause).Build()
}

// ValidationError creates a validation error.
func ValidationError(message string, cause error) *ClassifiedError {
	return NewError(CategoryValidation).WithMessage(message).WithCause(cause).Build()
}

// AuthError creates an authentication/authorization error. Auth errors are
// fatal and never retried.
func AuthError(message string, cause error) *ClassifiedError {
	return NewError(CategoryAuth).WithMessage(message).WithCause(cause).Build()
}

// NotFoundError creates a not-found error.
func NotFoundError(message string, cause error) *ClassifiedError {
	return NewError(CategoryNotFound).WithMessage(message).WithCause(cause).Build()
}

// ConflictError creates a version-conflict error.
func ConflictError(message string, cause error) *ClassifiedError {
	return NewError(CategoryConflict).WithMessage(message).WithCause(cause).Build()
}

// DecodeError creates a document decode error.
func DecodeError(message string, cause error) *ClassifiedError {
	return NewError(CategoryDecode).WithMessage(message).WithCause(cause).Build()
}

// NetworkError creates a network error.
func NetworkError(message string, cause error) *ClassifiedError {
	return NewError(CategoryNetwork).WithMessage(message).WithCause(cause).Build()
}

// ForgeError creates a forge API error.
func ForgeError(message string, cause error) *ClassifiedError {
	return NewError(CategoryForge).WithMessage(message).WithCause(cause).Build()
}

// NotifyError creates a notification delivery error. Notification errors are
// warnings so they never mask the promotion outcome.
func NotifyError(message string, cause error) *ClassifiedError {
	return NewError(CategoryNotify).WithMessage(message).WithCause(cause).Build()
}

// HistoryError creates a history ledger error.
func HistoryError(message string, cause error) *ClassifiedError {
	return NewError(CategoryHistory).WithMessage(message).WithCause(cause).Build()
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *ClassifiedError {
	return NewError(CategoryInternal).WithMessage(message).WithCause(cause).Build()
}
