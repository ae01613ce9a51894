package breaker

import (
	"context"
	"errors"
	"time"

	"hybridmcp/pkg/logger"

	"github.com/sony/gobreaker"
)

var (
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// Settings breaker tuning
type Settings struct {
	MaxRequests  uint32        // probes allowed while half-open
	Interval     time.Duration // closed-state counter reset period
	Timeout      time.Duration // open duration before half-open
	MinRequests  uint32
	FailureRatio float64
}

// DefaultSettings trips after 60% failures over at least 3 requests
func DefaultSettings() Settings {
	return Settings{
		MaxRequests:  3,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		MinRequests:  3,
		FailureRatio: 0.6,
	}
}

// CircuitBreaker wraps gobreaker for error-only calls
type CircuitBreaker struct {
	cb *gobreaker.CircuitBreaker
}

// New creates a circuit breaker. isFailure decides which errors count
// against the breaker; nil counts every error.
func New(name string, s Settings, isFailure func(error) bool) *CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= s.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warnf("circuit breaker %s changed from %s to %s", name, from, to)
		},
	}
	if isFailure != nil {
		settings.IsSuccessful = func(err error) bool {
			return err == nil || !isFailure(err)
		}
	}

	return &CircuitBreaker{
		cb: gobreaker.NewCircuitBreaker(settings),
	}
}

// Execute runs fn with circuit breaker protection
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := cb.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}

	return err
}

// State returns the current state name
func (cb *CircuitBreaker) State() string {
	return cb.cb.State().String()
}
