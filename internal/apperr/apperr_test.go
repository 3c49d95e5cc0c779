package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeConflict, CodeOf(Conflictf("insufficient stock")))
	assert.Equal(t, CodeValidation, CodeOf(Validationf("bad input")))
	assert.Equal(t, CodeNotFound, CodeOf(NotFound("missing")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))

	// classification survives wrapping
	wrapped := fmt.Errorf("checkout failed: %w", Conflictf("insufficient stock"))
	assert.Equal(t, CodeConflict, CodeOf(wrapped))
}

func TestCodeOfPostgresErrors(t *testing.T) {
	check := &pgconn.PgError{Code: "23514"}
	assert.Equal(t, CodeInvariant, CodeOf(check))
	assert.Equal(t, CodeInvariant, CodeOf(fmt.Errorf("update: %w", check)))

	unique := &pgconn.PgError{Code: "23505"}
	assert.Equal(t, CodeConflict, CodeOf(unique))

	other := &pgconn.PgError{Code: "40001"}
	assert.Equal(t, CodeInternal, CodeOf(other))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:   http.StatusBadRequest,
		CodeUnauthorized: http.StatusUnauthorized,
		CodeForbidden:    http.StatusForbidden,
		CodeNotFound:     http.StatusNotFound,
		CodeConflict:     http.StatusConflict,
		CodeInProgress:   http.StatusConflict,
		CodeTransient:    http.StatusServiceUnavailable,
		CodeInvariant:    http.StatusInternalServerError,
		CodeInternal:     http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equalf(t, want, HTTPStatus(New(code, "x")), "code %s", code)
	}
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(CodeTransient, "gateway unreachable", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "TRANSIENT")
	assert.Contains(t, err.Error(), "connection refused")
}
