package respond

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/task-manager/backend/internal/apperr"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperr.Validation("title", "This field is required"), http.StatusBadRequest},
		{fmt.Errorf("register: %w", apperr.ErrDuplicateEmail), http.StatusConflict},
		{apperr.ErrInvalidCredentials, http.StatusUnauthorized},
		{apperr.ErrTokenExpired, http.StatusUnauthorized},
		{apperr.ErrTokenInvalid, http.StatusUnauthorized},
		{fmt.Errorf("task 42: %w", apperr.ErrNotFound), http.StatusNotFound},
		{apperr.ErrBodyTooLarge, http.StatusRequestEntityTooLarge},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		got, body := Status(c.err)
		assert.Equal(t, c.want, got, c.err.Error())
		assert.False(t, body.Success)
		assert.NotEmpty(t, body.Message)
	}
}

func TestError_HidesInternalCause(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("mongo: server selection timeout"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "mongo")
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestError_ValidationDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	err := apperr.Validation("title", "This field is required").Add("dueDate", "This field is required")
	Error(rec, httptest.NewRequest(http.MethodPost, "/", nil), err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{
		"success": false,
		"message": "Validation failed",
		"errors": [
			{"field": "title", "message": "This field is required"},
			{"field": "dueDate", "message": "This field is required"}
		]
	}`, rec.Body.String())
}

func TestDecode(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Ann"}`))
	require.NoError(t, Decode(httptest.NewRecorder(), r, &v))
	assert.Equal(t, "Ann", v.Name)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	assert.ErrorIs(t, Decode(httptest.NewRecorder(), r, &v), apperr.ErrValidation)
}

func TestDecode_BodyTooLarge(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	big := `{"name":"` + strings.Repeat("a", MaxBodyBytes) + `"}`
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))

	err := Decode(rec, r, &v)
	assert.ErrorIs(t, err, apperr.ErrBodyTooLarge)

	Error(rec, r, err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	Message(rec, http.StatusOK, "Password updated")
	assert.JSONEq(t, `{"success":true,"message":"Password updated"}`, rec.Body.String())
}
