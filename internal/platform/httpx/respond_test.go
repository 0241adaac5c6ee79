package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/roledesk/internal/shared"
)

func TestRespondErrorStatus(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", fmt.Errorf("roles: create: %w", shared.NewValidationError("name", "name is required")), http.StatusBadRequest},
		{"bad request", fmt.Errorf("%w: nope", ErrBadRequest), http.StatusBadRequest},
		{"not found", fmt.Errorf("roles: role 3: %w", shared.ErrNotFound), http.StatusNotFound},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			RespondError(rr, tc.err)
			assert.Equal(t, tc.status, rr.Code)
			assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
		})
	}
}

func TestRespondErrorIncludesFields(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, shared.NewValidationError("email", "email is required"))

	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Validation Failed", body.Title)
	assert.Equal(t, map[string]string{"email": "email is required"}, body.Errors)
}

func TestInternalErrorHidesDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, errors.New("kv: redis set: connection refused"))

	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Empty(t, body.Detail)
}
