package service

import (
	"errors"
	"net/http"

	"hybridmcp/pkg/claude"
	"hybridmcp/pkg/functions"
	"hybridmcp/pkg/hybrid"
	"hybridmcp/pkg/interfaces"
)

var (
	// ErrInvalidInput is returned for malformed caller input
	ErrInvalidInput = errors.New("invalid input")
	// ErrSessionNotFound is returned when a plugin session does not exist or has expired
	ErrSessionNotFound = errors.New("session not found")
	// ErrTaskNotFound is returned when an async task id is unknown
	ErrTaskNotFound = errors.New("task not found")
	// ErrNoLocalFunction is returned when a task routed locally has no local implementation
	ErrNoLocalFunction = errors.New("task has no local implementation")
	// ErrRemoteUnavailable is returned when a task routed remotely cannot be invoked
	ErrRemoteUnavailable = errors.New("remote execution unavailable")
	// ErrQueueDisabled is returned when async tasks are requested without a queue
	ErrQueueDisabled = errors.New("async task queue disabled")
)

// StatusCode maps a service error onto an HTTP status
func StatusCode(err error) int {
	var apiErr *claude.APIError
	var invErr *functions.InvocationError

	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, claude.ErrInvalidRequest),
		errors.Is(err, hybrid.ErrInvalidThresholds),
		errors.Is(err, hybrid.ErrInvalidDuration):
		return http.StatusBadRequest
	case errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrTaskNotFound),
		errors.Is(err, interfaces.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, claude.ErrCircuitOpen),
		errors.Is(err, functions.ErrCircuitOpen),
		errors.Is(err, ErrQueueDisabled):
		return http.StatusServiceUnavailable
	case errors.As(err, &apiErr),
		errors.As(err, &invErr),
		errors.Is(err, ErrRemoteUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
