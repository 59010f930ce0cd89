package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/task-manager/backend/internal/apperr"
	"github.com/ayush/task-manager/backend/internal/models"
)

func fields(t *testing.T, err error) map[string]string {
	t.Helper()
	var ve *apperr.ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
	out := map[string]string{}
	for _, f := range ve.Fields {
		out[f.Field] = f.Message
	}
	return out
}

func TestStruct_Valid(t *testing.T) {
	v := New()
	err := v.Struct(models.RegisterRequest{Name: "Ann", Email: "a@x.com", Password: "secret1"})
	assert.NoError(t, err)
}

func TestStruct_UsesJSONNames(t *testing.T) {
	v := New()
	err := v.Struct(models.RegisterRequest{Email: "not-an-email", Password: strings.Repeat("x", 73)})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	got := fields(t, err)
	assert.Equal(t, "This field is required", got["name"])
	assert.Equal(t, "Invalid email format", got["email"])
	assert.Equal(t, "Must be at most 72 characters", got["password"])
}

func TestStruct_Enums(t *testing.T) {
	v := New()
	err := v.Struct(models.CreateTaskRequest{
		Title:     "Buy milk",
		DueDate:   "2030-01-01",
		Priority:  "Urgent",
		Completed: "maybe",
	})
	got := fields(t, err)
	assert.Equal(t, "Must be one of: Low Medium High", got["priority"])
	assert.Equal(t, "Must be one of: Yes No", got["completed"])
}

func TestStruct_OptionalPointers(t *testing.T) {
	v := New()
	assert.NoError(t, v.Struct(models.UpdateTaskRequest{}))

	bad := models.Priority("Urgent")
	err := v.Struct(models.UpdateTaskRequest{Priority: &bad})
	assert.Contains(t, fields(t, err), "priority")
}
