package service

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"hybridmcp/pkg/claude"
	"hybridmcp/pkg/functions"
	"hybridmcp/pkg/interfaces"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{fmt.Errorf("%w: empty prompt", claude.ErrInvalidRequest), http.StatusBadRequest},
		{fmt.Errorf("%w: topic", ErrInvalidInput), http.StatusBadRequest},
		{ErrSessionNotFound, http.StatusNotFound},
		{fmt.Errorf("execution x: %w", interfaces.ErrNotFound), http.StatusNotFound},
		{claude.ErrCircuitOpen, http.StatusServiceUnavailable},
		{functions.ErrCircuitOpen, http.StatusServiceUnavailable},
		{&claude.APIError{StatusCode: 529, Type: "overloaded_error"}, http.StatusBadGateway},
		{errors.Join(errors.New("local"), &functions.InvocationError{StatusCode: 500}), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusCode(tt.err), "%v", tt.err)
	}
}
