package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMapErrorToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", ErrNotFound, http.StatusNotFound},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"invalid request", ErrInvalidRequest, http.StatusBadRequest},
		{"already exists", ErrAlreadyExists, http.StatusConflict},
		{"invalid state", ErrInvalidState, http.StatusConflict},
		{"wrapped sentinel", fmt.Errorf("%w: connection not found", ErrNotFound), http.StatusNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapErrorToStatus(tt.err); got != tt.want {
				t.Errorf("MapErrorToStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	inner := ErrForbidden
	appErr := New(http.StatusForbidden, "nope", inner)

	if !errors.Is(appErr, ErrForbidden) {
		t.Error("errors.Is does not see the wrapped sentinel")
	}
	if appErr.Error() != inner.Error() {
		t.Errorf("Error() = %q, want %q", appErr.Error(), inner.Error())
	}
}
