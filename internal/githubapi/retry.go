package githubapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v57/github"
	"go.uber.org/zap"
)

// RetryConfig bounds the backoff Do applies. Zero fields take the values of
// DefaultRetryConfig.
type RetryConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultRetryConfig allows three retries starting at one second, doubling up
// to thirty seconds.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// withDefaults returns a copy of c with zero fields filled in. The caller's
// config is shared between goroutines and is never written.
func (c *RetryConfig) withDefaults() RetryConfig {
	d := DefaultRetryConfig()
	if c == nil {
		return *d
	}
	out := *c
	if out.MaxRetries == 0 {
		out.MaxRetries = d.MaxRetries
	}
	if out.InitialBackoff == 0 {
		out.InitialBackoff = d.InitialBackoff
	}
	if out.MaxBackoff == 0 {
		out.MaxBackoff = d.MaxBackoff
	}
	if out.BackoffMultiplier == 0 {
		out.BackoffMultiplier = d.BackoffMultiplier
	}
	return out
}

// nextBackoff grows current by the multiplier, capped at MaxBackoff.
func (c RetryConfig) nextBackoff(current time.Duration) time.Duration {
	return min(time.Duration(float64(current)*c.BackoffMultiplier), c.MaxBackoff)
}

// failure classifies a failed call.
type failure int

const (
	permanent failure = iota
	transient
	rateLimited
)

func classifyFailure(resp *github.Response) failure {
	code := StatusCode(resp)
	switch {
	case code == 0:
		// Network error or timeout; nothing reached GitHub's handlers.
		return transient
	case code == http.StatusTooManyRequests:
		return rateLimited
	case code == http.StatusForbidden:
		// Secondary rate limits come back as 403 with rate headers.
		if resp.Rate.Limit > 0 {
			return rateLimited
		}
		return permanent
	case code >= 500 && code < 600:
		return transient
	default:
		return permanent
	}
}

// rateLimitWait is the time until the limit resets plus a second, clamped to
// [1s, ceiling]. Without rate headers it is a minute, clamped the same way.
func rateLimitWait(resp *github.Response, ceiling time.Duration) time.Duration {
	wait := time.Minute
	if resp != nil && (resp.Rate.Limit != 0 || resp.Rate.Remaining != 0) {
		wait = max(time.Until(resp.Rate.Reset.Time)+time.Second, time.Second)
	}
	return min(wait, ceiling)
}

// Do calls op until it succeeds, fails permanently, or the retries run out.
// Server errors and dropped connections back off exponentially; rate limits
// wait for the reset. Only idempotent calls may go through Do: creating a
// comment or requesting a rerun must be sent exactly once.
func Do(ctx context.Context, config *RetryConfig, logger *zap.Logger, op func() (*github.Response, error)) (*github.Response, error) {
	cfg := config.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("github")

	start := time.Now()
	backoff := cfg.InitialBackoff
	var (
		resp *github.Response
		err  error
	)
	for attempt := 1; ; attempt++ {
		resp, err = op()
		if err == nil {
			if attempt > 1 {
				log.Info("github call succeeded after retry",
					zap.Int("attempts", attempt),
					zap.Duration("elapsed", time.Since(start)))
			}
			return resp, nil
		}

		kind := classifyFailure(resp)
		if kind == permanent {
			log.Debug("github call failed permanently",
				zap.Error(err), zap.Int("status_code", StatusCode(resp)))
			return resp, err
		}
		if attempt > cfg.MaxRetries {
			break
		}

		wait := backoff
		if kind == rateLimited {
			wait = rateLimitWait(resp, cfg.MaxBackoff)
		}
		log.Info("github call failed, backing off",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", cfg.MaxRetries+1),
			zap.Bool("rate_limited", kind == rateLimited),
			zap.Int("status_code", StatusCode(resp)),
			zap.Duration("wait", wait),
			zap.Error(err))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("operation canceled: %w", ctx.Err())
		case <-timer.C:
		}
		backoff = cfg.nextBackoff(backoff)
	}

	log.Warn("github call failed after all retries",
		zap.Int("attempts", cfg.MaxRetries+1),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("status_code", StatusCode(resp)),
		zap.Error(err))
	return resp, fmt.Errorf("GitHub API operation failed after %d retries: %w", cfg.MaxRetries, err)
}
