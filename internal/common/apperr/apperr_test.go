package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestStatusCodeMapping(t *testing.T) {
	cases := map[error]int{
		ErrUnauthenticated:        http.StatusUnauthorized,
		ErrForbidden:              http.StatusForbidden,
		ErrNotFound:               http.StatusNotFound,
		ErrValidation:             http.StatusBadRequest,
		ErrConflict:               http.StatusBadRequest,
		ErrUpstream:               http.StatusBadGateway,
		errors.New("mystery"):     http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, StatusCode(err), err.Error())
	}
}

func TestStatusCodeUnwrapsChains(t *testing.T) {
	err := fmt.Errorf("loading post: %w", fmt.Errorf("%w: post not found", ErrNotFound))
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
}

func TestMessageNeverLeaksInternals(t *testing.T) {
	internal := errors.New(`pq: duplicate key value violates unique constraint "users_username_key"`)
	assert.Equal(t, "Internal server error", Message(internal))

	upstream := fmt.Errorf("%w: cognito said no", ErrUpstream)
	assert.NotContains(t, Message(upstream), "cognito")
}

func TestMessagePassesThroughCuratedText(t *testing.T) {
	err := fmt.Errorf("%w: username is already taken", ErrConflict)
	assert.Contains(t, Message(err), "username is already taken")

	err = fmt.Errorf("%w: media not found in storage: a, b", ErrValidation)
	assert.Contains(t, Message(err), "media not found in storage")
}

func TestUniqueAndForeignKeyViolation(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})
	fk := fmt.Errorf("insert: %w", &pq.Error{Code: "23503"})

	assert.True(t, IsUniqueViolation(unique))
	assert.False(t, IsUniqueViolation(fk))
	assert.True(t, IsForeignKeyViolation(fk))
	assert.False(t, IsForeignKeyViolation(errors.New("plain")))
}
