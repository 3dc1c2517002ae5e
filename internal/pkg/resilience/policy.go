// Package resilience wraps calls to outbound analysis services with rate limiting,
// bounded retries with exponential backoff and a circuit breaker.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/yigit/feedsphere/internal/config"
	"github.com/yigit/feedsphere/internal/pkg/metrics"
)

// StatusError is returned for non-2xx responses from a collaborator
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// IsTransient reports whether err is worth retrying: network failures, per-attempt
// timeouts, HTTP 429 and 5xx responses.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// Policy guards one collaborator
type Policy struct {
	name     string
	attempts int
	delay    time.Duration
	timeout  time.Duration
	limiter  *rate.Limiter
	cb       *gobreaker.CircuitBreaker[[]byte]
	logger   zerolog.Logger
}

// NewPolicy builds a policy from a collaborator configuration. A non-positive rate
// disables throttling.
func NewPolicy(name string, cfg config.CollaboratorConfig, logger zerolog.Logger) *Policy {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Permanent errors are the collaborator answering correctly
		IsSuccessful: func(err error) bool {
			return err == nil || !IsTransient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &Policy{
		name:     name,
		attempts: attempts,
		delay:    cfg.RetryDelay,
		timeout:  cfg.Timeout,
		limiter:  rate.NewLimiter(limit, burst),
		cb:       cb,
		logger:   logger,
	}
}

// Do runs fn until it succeeds, fails permanently, the attempts are exhausted or ctx
// is done. Each attempt gets its own timeout.
func (p *Policy) Do(ctx context.Context, fn func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	var err error
	delay := p.delay

	for attempt := 0; attempt < p.attempts; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if err = p.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s rate limiter: %w", p.name, err)
		}

		var body []byte
		body, err = p.cb.Execute(func() ([]byte, error) {
			return p.attempt(ctx, fn)
		})
		if err == nil {
			metrics.CollaboratorRequests.WithLabelValues(p.name, "success").Inc()
			return body, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CollaboratorRequests.WithLabelValues(p.name, "rejected").Inc()
			return nil, fmt.Errorf("%s unavailable: %w", p.name, err)
		}

		if !IsTransient(err) || ctx.Err() != nil {
			metrics.CollaboratorRequests.WithLabelValues(p.name, "failure").Inc()
			return nil, err
		}

		if attempt < p.attempts-1 {
			metrics.CollaboratorRequests.WithLabelValues(p.name, "retry").Inc()
			p.logger.Warn().Err(err).Str("collaborator", p.name).Int("attempt", attempt+1).Int("max_attempts", p.attempts).Dur("delay", delay).Msg("Retry attempt")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			delay *= 2
		}
	}

	metrics.CollaboratorRequests.WithLabelValues(p.name, "failure").Inc()
	return nil, fmt.Errorf("%s: max retry attempts reached: %w", p.name, err)
}

func (p *Policy) attempt(ctx context.Context, fn func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if p.timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return fn(attemptCtx)
}

// State returns the current breaker state
func (p *Policy) State() gobreaker.State {
	return p.cb.State()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
