package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validationf("bad input"), http.StatusBadRequest},
		{"not found", NotFoundf("missing %s", "thing"), http.StatusNotFound},
		{"conflict", Conflictf("already done"), http.StatusConflict},
		{"internal", Internal(errors.New("driver broke")), http.StatusInternalServerError},
		{"plain error", errors.New("anonymous"), http.StatusInternalServerError},
		{"wrapped validation", fmt.Errorf("context: %w", Validationf("bad")), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestIsKind(t *testing.T) {
	err := NotFoundf("nothing here")
	assert.True(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(err, KindConflict))
	assert.False(t, IsKind(errors.New("plain"), KindNotFound))

	wrapped := fmt.Errorf("outer: %w", Conflictf("terminal"))
	assert.True(t, IsKind(wrapped, KindConflict))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Internal(cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "internal server error", err.Error())
}
