package response

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"galaxy-server/internal/shared/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestErrorMapsTypeToStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{errors.Validationf("branches must be at least %d", 2), http.StatusBadRequest},
		{errors.NotFoundf("no snapshot"), http.StatusNotFound},
		{errors.Unauthorized("authentication required"), http.StatusUnauthorized},
		{errors.Forbidden("operator access required"), http.StatusForbidden},
		{errors.Conflict("superseded"), http.StatusConflict},
		{errors.MethodNotAllowed("PATCH"), http.StatusMethodNotAllowed},
		{errors.RateLimited("rate limit exceeded"), http.StatusTooManyRequests},
		{errors.External("database unavailable"), http.StatusServiceUnavailable},
		{errors.WrapInternal("boom", nil), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/galaxy/buffer", nil)

		Error(rec, req, discardLogger(), tc.err)

		require.Equal(t, tc.status, rec.Code, tc.err.Error())

		var body ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, string(errors.GetType(tc.err)), body.Error)
		assert.Equal(t, tc.err.Error(), body.Message)
		assert.Equal(t, tc.status, body.Code)
	}
}

func TestErrorHidesServerSideCauses(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
	}{
		{errors.WrapExternal("failed to save snapshot", stdErrors.New("pq: connection refused")),
			http.StatusServiceUnavailable, "failed to save snapshot"},
		{errors.WrapTimeout("galaxy generation timed out", context.DeadlineExceeded),
			http.StatusGatewayTimeout, "galaxy generation timed out"},
		{stdErrors.New("nil pointer somewhere"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/galaxy/parameters", nil)

		Error(rec, req, discardLogger(), tc.err)

		require.Equal(t, tc.status, rec.Code)
		var body ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, tc.message, body.Message)
	}
}

func TestStatusCodeDefaultsToInternal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusCode(errors.ErrorType("mystery")))
}

func TestBinary(t *testing.T) {
	rec := httptest.NewRecorder()

	require.NoError(t, Binary(rec, http.StatusOK, "application/octet-stream", []byte{1, 2, 3}))

	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "3", rec.Header().Get("Content-Length"))
	assert.Equal(t, []byte{1, 2, 3}, rec.Body.Bytes())
}
