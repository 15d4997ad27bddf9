package retry

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/promoter/internal/config"
)

// Policy encapsulates retry/backoff settings for conflict retries.
// It is immutable after construction.
type Policy struct {
	Mode        config.RetryBackoffMode // fixed|linear|exponential
	Initial     time.Duration           // base delay
	Max         time.Duration           // cap for growth
	MaxAttempts int                     // total fetch-merge-commit attempts, including the first
}

// DefaultPolicy returns the default policy (fixed, 500ms delay, 5s cap, 3 attempts).
func DefaultPolicy() Policy {
	return Policy{Mode: config.RetryBackoffFixed, Initial: 500 * time.Millisecond, Max: 5 * time.Second, MaxAttempts: 3}
}

// NewPolicy builds a policy from raw config fields; zero/invalid values fall back to defaults.
func NewPolicy(mode config.RetryBackoffMode, initial, maxDuration time.Duration, maxAttempts int) Policy {
	p := DefaultPolicy()
	if maxAttempts >= 1 {
		p.MaxAttempts = maxAttempts
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDuration > 0 {
		p.Max = maxDuration
	}
	if mode != "" {
		switch mode {
		case config.RetryBackoffFixed, config.RetryBackoffLinear, config.RetryBackoffExponential:
			p.Mode = mode
		default:
			// unknown -> keep default
		}
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// FromConfig builds a policy from a validated configuration.
func FromConfig(cfg *config.Config) Policy {
	return NewPolicy(cfg.Retry.Backoff, cfg.InitialDelayDuration(), cfg.MaxDelayDuration(), cfg.Retry.MaxAttempts)
}

// Delay returns the backoff delay before the given retry (1-based: the delay
// before the second attempt => 1).
func (p Policy) Delay(retryCount int) time.Duration {
	if retryCount <= 0 {
		return 0
	}
	switch p.Mode {
	case config.RetryBackoffFixed:
		return p.Initial
	case config.RetryBackoffExponential:
		d := p.Initial * (1 << (retryCount - 1))
		if d > p.Max {
			return p.Max
		}
		return d
	default: // linear
		d := time.Duration(retryCount) * p.Initial
		if d > p.Max {
			return p.Max
		}
		return d
	}
}

// Validate ensures invariants; returns error if policy impossible to apply.
func (p Policy) Validate() error {
	if p.Initial <= 0 {
		return fmt.Errorf("initial must be >0")
	}
	if p.Max <= 0 {
		return fmt.Errorf("max must be >0")
	}
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be >= 1")
	}
	return nil
}
