package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("bad %s", "input"), http.StatusBadRequest},
		{Auth("Token expired"), http.StatusUnauthorized},
		{NotFound("missing"), http.StatusNotFound},
		{&Error{Kind: KindMethodNotAllowed, Msg: "Method not allowed"}, http.StatusMethodNotAllowed},
		{Conflict("taken"), http.StatusConflict},
		{Storage("Database error", errors.New("boom")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", Conflict("taken")), http.StatusConflict},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Status(tc.err), tc.err.Error())
	}
}

func TestMessage(t *testing.T) {
	storage := Storage("Database error", errors.New("relation \"meetings\" does not exist"))

	assert.Equal(t, "Database error", Message(storage, false))
	assert.Equal(t, `Database error: relation "meetings" does not exist`, Message(storage, true))
	assert.Equal(t, "bad date", Message(Validation("bad date"), false))
	assert.Equal(t, "internal error", Message(errors.New("raw"), false))
	assert.Equal(t, "raw", Message(errors.New("raw"), true))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Storage("Processing failed", cause)
	assert.ErrorIs(t, err, cause)
}
