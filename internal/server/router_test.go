package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ayush/task-manager/backend/internal/auth"
	"github.com/ayush/task-manager/backend/internal/models"
	"github.com/ayush/task-manager/backend/internal/store"
	"github.com/ayush/task-manager/backend/internal/tasks"
	"github.com/ayush/task-manager/backend/internal/validate"
)

type api struct {
	t *testing.T
	h http.Handler
}

func newAPI(t *testing.T) *api {
	t.Helper()
	v := validate.New()
	tokens := auth.NewTokenIssuer("test-secret", "test", time.Hour)
	h := NewRouter(Deps{
		Logger:         zap.NewNop(),
		Tokens:         tokens,
		Auth:           auth.NewHandler(auth.NewService(store.NewMemoryUserStore(), tokens, v)),
		Tasks:          tasks.NewHandler(tasks.NewService(store.NewMemoryTaskStore(), v)),
		AllowedOrigins: []string{"http://localhost:5173"},
	})
	return &api{t: t, h: h}
}

func (a *api) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (a *api) signup(name, email, password string) string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/user/register", "", map[string]string{
		"name": name, "email": email, "password": password,
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(http.MethodPost, "/api/user/login", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[models.AuthResponse](a.t, rec)
	require.NotEmpty(a.t, resp.Token)
	return resp.Token
}

func futureDate(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format(time.DateOnly)
}

func TestRootAndHealth(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "API Working", rec.Body.String())

	rec = a.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestTaskLifecycle(t *testing.T) {
	a := newAPI(t)
	token := a.signup("Ann", "ann@example.com", "secret1")

	rec := a.do(http.MethodGet, "/api/user/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[models.UserResponse](t, rec)
	assert.Equal(t, "ann@example.com", me.User.Email)
	assert.NotContains(t, rec.Body.String(), "password")

	due := futureDate(3)
	rec = a.do(http.MethodPost, "/api/tasks/gp", token, map[string]any{
		"title":    "Buy milk",
		"dueDate":  due,
		"priority": "high",
		"owner":    "someone-else",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.Task](t, rec)
	assert.Equal(t, "Buy milk", created.Title)
	assert.Equal(t, models.PriorityHigh, created.Priority)
	assert.Equal(t, models.NotCompleted, created.Completed)
	assert.Equal(t, me.User.ID, created.Owner)
	id := created.ID.Hex()

	for _, path := range []string{"/api/tasks", "/api/tasks/gp"} {
		rec = a.do(http.MethodGet, path, token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		list := decode[[]models.Task](t, rec)
		require.Len(t, list, 1)
		assert.Equal(t, created.ID, list[0].ID)
	}

	rec = a.do(http.MethodPut, "/api/tasks/"+id+"/gp", token, map[string]any{"completed": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[models.Task](t, rec)
	assert.Equal(t, models.Completed, updated.Completed)
	assert.Equal(t, "Buy milk", updated.Title)
	assert.Equal(t, models.PriorityHigh, updated.Priority)
	assert.Contains(t, rec.Body.String(), `"completed":"Yes"`)

	rec = a.do(http.MethodGet, "/api/tasks/"+id, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodDelete, "/api/tasks/"+id+"/gp", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = a.do(http.MethodGet, "/api/tasks", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = a.do(http.MethodDelete, "/api/tasks/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestShortPasswordScenario(t *testing.T) {
	a := newAPI(t)
	token := a.signup("A", "a@x.com", "pw1")

	rec := a.do(http.MethodPost, "/api/tasks/gp", token, map[string]any{
		"title": "Buy milk", "dueDate": futureDate(1),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.Task](t, rec)
	require.False(t, created.ID.IsZero())

	rec = a.do(http.MethodGet, "/api/tasks", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]models.Task](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	rec = a.do(http.MethodDelete, "/api/tasks/"+created.ID.Hex(), token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = a.do(http.MethodGet, "/api/tasks", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestTasksAreOwnerScoped(t *testing.T) {
	a := newAPI(t)
	alice := a.signup("Alice", "alice@example.com", "secret1")
	bob := a.signup("Bob", "bob@example.com", "secret2")

	rec := a.do(http.MethodPost, "/api/tasks", alice, map[string]any{
		"title": "Alice's task", "dueDate": futureDate(1),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode[models.Task](t, rec).ID.Hex()

	rec = a.do(http.MethodGet, "/api/tasks", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/tasks/"+id, bob, nil).Code)
	assert.Equal(t, http.StatusNotFound,
		a.do(http.MethodPut, "/api/tasks/"+id, bob, map[string]any{"title": "mine"}).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodDelete, "/api/tasks/"+id, bob, nil).Code)

	rec = a.do(http.MethodGet, "/api/tasks/"+id, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Alice's task", decode[models.Task](t, rec).Title)
}

func TestUnauthenticatedRequestsChangeNothing(t *testing.T) {
	a := newAPI(t)
	token := a.signup("Ann", "ann@example.com", "secret1")

	cases := []struct{ method, path string }{
		{http.MethodGet, "/api/user/me"},
		{http.MethodGet, "/api/tasks"},
		{http.MethodPost, "/api/tasks/gp"},
		{http.MethodPut, "/api/tasks/65f000000000000000000000/gp"},
		{http.MethodDelete, "/api/tasks/65f000000000000000000000"},
	}
	for _, tc := range cases {
		rec := a.do(tc.method, tc.path, "", map[string]any{"title": "x", "dueDate": futureDate(1)})
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
		assert.Contains(t, rec.Body.String(), `"success":false`)
	}

	rec := a.do(http.MethodGet, "/api/tasks", token, nil)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRegisterErrors(t *testing.T) {
	a := newAPI(t)
	a.signup("Ann", "ann@example.com", "secret1")

	rec := a.do(http.MethodPost, "/api/user/register", "", map[string]string{
		"name": "Ann again", "email": "  ANN@example.com ", "password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "User already exists")

	rec = a.do(http.MethodPost, "/api/user/register", "", map[string]string{
		"name": "Bob", "email": "not-an-email", "password": "",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[struct {
		Success bool `json:"success"`
		Errors  []struct {
			Field string `json:"field"`
		} `json:"errors"`
	}](t, rec)
	assert.False(t, body.Success)
	var fields []string
	for _, e := range body.Errors {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"email", "password"}, fields)

	req := httptest.NewRequest(http.MethodPost, "/api/user/register", bytes.NewBufferString("{not json"))
	raw := httptest.NewRecorder()
	a.h.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestLoginFailuresLookTheSame(t *testing.T) {
	a := newAPI(t)
	a.signup("Ann", "ann@example.com", "secret1")

	wrongPw := a.do(http.MethodPost, "/api/user/login", "", map[string]string{
		"email": "ann@example.com", "password": "wrong-password",
	})
	unknown := a.do(http.MethodPost, "/api/user/login", "", map[string]string{
		"email": "nobody@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusUnauthorized, wrongPw.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrongPw.Body.String(), unknown.Body.String())
}

func TestOversizedBodyIsRejected(t *testing.T) {
	a := newAPI(t)
	token := a.signup("Ann", "ann@example.com", "secret1")

	rec := a.do(http.MethodPost, "/api/tasks/gp", token, map[string]any{
		"title":       "x",
		"dueDate":     futureDate(1),
		"description": strings.Repeat("a", 2<<20),
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = a.do(http.MethodGet, "/api/tasks", token, nil)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreateTaskValidation(t *testing.T) {
	a := newAPI(t)
	token := a.signup("Ann", "ann@example.com", "secret1")

	cases := map[string]map[string]any{
		"missing title": {"dueDate": futureDate(1)},
		"past due date": {"title": "x", "dueDate": "2001-01-01"},
		"bad priority":  {"title": "x", "dueDate": futureDate(1), "priority": "Urgent"},
		"bad completed": {"title": "x", "dueDate": futureDate(1), "completed": 7},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := a.do(http.MethodPost, "/api/tasks/gp", token, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}

	rec := a.do(http.MethodGet, "/api/tasks", token, nil)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestProfileAndPassword(t *testing.T) {
	a := newAPI(t)
	token := a.signup("Ann", "ann@example.com", "secret1")
	a.signup("Bob", "bob@example.com", "secret2")

	rec := a.do(http.MethodPut, "/api/user/profile", token, map[string]string{
		"name": "Annie", "email": "bob@example.com",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(http.MethodPut, "/api/user/profile", token, map[string]string{
		"name": "Annie", "email": "annie@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Annie", decode[models.UserResponse](t, rec).User.Name)

	rec = a.do(http.MethodPut, "/api/user/password", token, map[string]string{
		"currentPassword": "nope", "newPassword": "secret3",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodPut, "/api/user/password", token, map[string]string{
		"currentPassword": "secret1", "newPassword": "secret3",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(http.MethodPost, "/api/user/login", "", map[string]string{
		"email": "annie@example.com", "password": "secret3",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	a := newAPI(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWildcard(t *testing.T) {
	v := validate.New()
	tokens := auth.NewTokenIssuer("test-secret", "test", time.Hour)
	h := NewRouter(Deps{
		Logger:         zap.NewNop(),
		Tokens:         tokens,
		Auth:           auth.NewHandler(auth.NewService(store.NewMemoryUserStore(), tokens, v)),
		Tasks:          tasks.NewHandler(tasks.NewService(store.NewMemoryTaskStore(), v)),
		AllowedOrigins: []string{"*"},
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks/gp", nil)
	req.Header.Set("Origin", "https://tasks.example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://tasks.example.org", rec.Header().Get("Access-Control-Allow-Origin"))
}
