package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/fellowship/pkg/apperror"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestFromErrorConflictIsBadRequest(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/likes", nil)

	FromError(rec, req, apperror.Conflict("You have already liked this post"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "You have already liked this post", decodeError(t, rec).Error)
}

func TestFromErrorKeepsDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/topics", nil)

	FromError(rec, req, apperror.Validation("Missing required fields").WithDetails("title is required"))

	body := decodeError(t, rec)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "title is required", body.Details)
}

func TestFromErrorHidesUpstreamCause(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/topics", nil)

	FromError(rec, req, errors.New("pq: relation \"topics\" does not exist"))

	body := decodeError(t, rec)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, genericMessage, body.Error)
	assert.Empty(t, body.Details)
}

func TestUnauthorizedBody(t *testing.T) {
	rec := httptest.NewRecorder()
	Unauthorized(rec)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}
