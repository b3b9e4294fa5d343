package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TWRT/board-sync/internal/api/handlers"
	"github.com/TWRT/board-sync/internal/client/firebase"
	"github.com/TWRT/board-sync/internal/client/webhook"
	"github.com/TWRT/board-sync/internal/repository"
	"github.com/TWRT/board-sync/internal/service"
	"github.com/TWRT/board-sync/internal/testutil"
)

type testServer struct {
	router *gin.Engine
	fb     *testutil.Firebase
	tasks  *service.TaskService
}

func newTestServer(t *testing.T, dailyMax int) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := testutil.Logger(t)
	fb := testutil.NewFirebase(t)
	store := firebase.NewFirebaseClient(fb.URL, time.Second, logger)

	db, err := repository.InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	notifications := service.NewNotificationService(webhook.NewWebhookClient("", time.Second), service.NotificationConfig{}, logger)
	tasks := service.NewTaskService(store, notifications, logger)
	contacts := service.NewContactService(store, tasks, logger)
	auth := service.NewAuthService(store, repository.NewSessionRepository(db), service.AuthConfig{
		SigningKey: []byte("router-test"),
		TokenTTL:   time.Hour,
	}, logger)
	limits := service.NewRateLimitService(store, dailyMax, 0, logger)
	requests := service.NewRequestService(tasks, limits, notifications, logger)

	h := handlers.NewHandler(logger, tasks, contacts, auth, limits, requests)
	return &testServer{router: SetupRouter(h, logger), fb: fb, tasks: tasks}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "guest", "password": "guest123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result service.AuthResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.NotEmpty(t, result.Token)
	return result.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, 10)
	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodGet, "/healthz", "", nil).Code)
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t, 10)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/v1/tasks", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/v1/contacts", "bogus", nil).Code)
}

func TestLoginFailure(t *testing.T) {
	s := newTestServer(t, 10)

	rec := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "nobody@x.de", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"success": false, "error": "User not found"}`, rec.Body.String())
}

func TestSessionEndpoints(t *testing.T) {
	s := newTestServer(t, 10)
	token := s.login(t)

	rec := s.do(t, http.MethodPut, "/api/v1/auth/last-page", token, map[string]string{"page": "/summary"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user": {"email": "guest", "name": "Guest User", "initials": "GU"}, "last_page": "/summary"}`, rec.Body.String())

	require.Equal(t, http.StatusNoContent, s.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/v1/auth/me", token, nil).Code)
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t, 10)

	rec := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{"name": "Anna", "email": "nope"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode[map[string]map[string]string](t, rec)
	assert.Contains(t, body["errors"], "email")
	assert.Contains(t, body["errors"], "password")
}

func TestTaskLifecycle(t *testing.T) {
	s := newTestServer(t, 10)
	token := s.login(t)

	rec := s.do(t, http.MethodPost, "/api/v1/tasks", token, map[string]any{
		"name":        "Write <b>docs</b>",
		"due_date":    "2099-01-01",
		"category":    "tt",
		"prio":        3,
		"assigned_to": []string{"Anna"},
		"subtasks":    []map[string]any{{"id": 0, "name": "Outline", "status": 0}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decode[map[string]any](t, rec)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "Write docs", created["name"])
	assert.Equal(t, "triage", created["status"])
	assert.Equal(t, map[string]any{"name": "Guest User", "email": "guest", "type": "internal"}, created["creator"])

	rec = s.do(t, http.MethodPatch, "/api/v1/tasks/"+id+"/status", token, map[string]string{"status": "done"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "done", decode[map[string]any](t, rec)["status"])

	rec = s.do(t, http.MethodPatch, "/api/v1/tasks/"+id+"/subtasks/0", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/v1/tasks?status=done", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]any](t, rec)["tasks"], 1)

	rec = s.do(t, http.MethodGet, "/api/v1/tasks/board", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]any](t, rec)["columns"], 5)

	rec = s.do(t, http.MethodGet, "/api/v1/tasks/summary", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, rec)["total"])

	require.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/v1/tasks/"+id, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/v1/tasks/"+id, token, nil).Code)
}

func TestTaskErrors(t *testing.T) {
	s := newTestServer(t, 10)
	token := s.login(t)

	rec := s.do(t, http.MethodPost, "/api/v1/tasks", token, map[string]any{"name": ""})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string]map[string]string](t, rec)["errors"], "category")

	rec = s.do(t, http.MethodPatch, "/api/v1/tasks/missing/status", token, map[string]string{"status": "done"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPatch, "/api/v1/tasks/missing/subtasks/x", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error": "invalid subtask id"}`, rec.Body.String())

	s.fb.SetRaw(t, "tasks", `[{"id": "t1", "name": "A", "status": "triage", "category": "tt", "prio": 1, "subtasks": "", "assigned_to": "", "due_date": "2099-01-01", "created_at": "2026-01-01T00:00:00.000Z"}]`)
	s.tasks.Load(t.Context())

	rec = s.do(t, http.MethodPatch, "/api/v1/tasks/t1/status", token, map[string]string{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.fb.SetFailing(true)
	rec = s.do(t, http.MethodDelete, "/api/v1/tasks/t1", token, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	// an unreadable store does not wipe the cached board
	rec = s.do(t, http.MethodGet, "/api/v1/tasks/t1", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTaskDuplicateSubtaskIDs(t *testing.T) {
	s := newTestServer(t, 10)
	token := s.login(t)
	s.fb.SetRaw(t, "tasks", `[{"id": "t1", "name": "A", "status": "triage", "category": "tt", "prio": 1, "subtasks": "", "assigned_to": "", "due_date": "2099-01-01", "created_at": "2026-01-01T00:00:00.000Z"}]`)
	s.tasks.Load(t.Context())

	body := map[string]any{
		"name":     "Dup",
		"due_date": "2099-01-01",
		"category": "tt",
		"prio":     1,
		"subtasks": []map[string]any{{"id": 0, "name": "a", "status": 0}, {"id": 0, "name": "b", "status": 0}},
	}
	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/tasks"},
		{http.MethodPut, "/api/v1/tasks/t1"},
	} {
		rec := s.do(t, tc.method, tc.path, token, body)
		require.Equal(t, http.StatusBadRequest, rec.Code, tc.method)
		assert.Equal(t, "Subtask id 0 is used more than once",
			decode[map[string]map[string]string](t, rec)["errors"]["subtasks"], tc.method)
	}
	assert.Zero(t, s.fb.Count(http.MethodPut, "tasks"))
}

func TestContactEndpoints(t *testing.T) {
	s := newTestServer(t, 10)
	token := s.login(t)

	rec := s.do(t, http.MethodPost, "/api/v1/contacts", token, map[string]string{"name": " Anna Maria ", "email": "anna@x.de"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"id": "0", "name": "Anna Maria", "email": "anna@x.de", "phone": "", "initials": "AM", "badge_color": "bgcolor__13"}`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/v1/contacts", token, map[string]string{"name": "Bo", "email": "bad"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/contacts", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	groups := decode[map[string][]map[string]any](t, rec)["groups"]
	require.Len(t, groups, 1)
	assert.Equal(t, "A", groups[0]["letter"])

	rec = s.do(t, http.MethodPut, "/api/v1/contacts/7", token, map[string]string{"name": "Anna", "email": "anna@x.de"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/v1/contacts/0", token, nil).Code)
}

func TestRequestEndpoints(t *testing.T) {
	s := newTestServer(t, 1)
	form := map[string]any{
		"name":             "Eve",
		"email":            "eve@example.com",
		"title":            "Export broken",
		"description":      "CSV export returns an empty file",
		"category":         "tt",
		"privacy_accepted": true,
		"screen":           "1920x1080",
		"timezone":         "Europe/Berlin",
	}

	rec := s.do(t, http.MethodGet, "/api/v1/requests/limit", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	limit := decode[map[string]any](t, rec)
	assert.Equal(t, true, limit["allowed"])
	assert.NotEmpty(t, limit["resets_in"])

	rec = s.do(t, http.MethodPost, "/api/v1/requests", "", form)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decode[map[string]any](t, rec)["task_id"])

	rec = s.do(t, http.MethodPost, "/api/v1/requests", "", form)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	form["website"] = "http://spam.example"
	rec = s.do(t, http.MethodPost, "/api/v1/requests", "", form)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"success": true}`, rec.Body.String())

	form["title"] = ""
	rec = s.do(t, http.MethodPost, "/api/v1/requests", "", form)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
