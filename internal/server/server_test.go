package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tasktrack/tasktracker/internal/config"
	"github.com/tasktrack/tasktracker/internal/constants"
	"github.com/tasktrack/tasktracker/internal/dto"
	"github.com/tasktrack/tasktracker/internal/logging"
	"github.com/tasktrack/tasktracker/internal/repository"
	"github.com/tasktrack/tasktracker/internal/services"
)

func newTestRouter(t *testing.T, origins []string) *gin.Engine {
	t.Helper()
	logging.Discard()
	gin.SetMode(gin.TestMode)

	store, err := repository.NewFileStore(t.TempDir())
	require.NoError(t, err)
	repos := store.Set()

	directory := services.NewDirectoryService(repos.Users, repos.Projects)
	_, err = directory.Seed(services.SeedFile{
		Users: []services.SeedUser{
			{ID: "u-mgr", Name: "Morgan Manager", Role: "manager"},
			{ID: "u-stf-1", Name: "Sam Staff", Role: "staff", ManagerID: "u-mgr"},
		},
		Projects: []string{"Website Refresh"},
	})
	require.NoError(t, err)

	return NewRouter(Dependencies{
		Config: &config.Config{
			TokenSecret:     "test-secret",
			TokenTTL:        time.Hour,
			TrustUserHeader: true,
			CORSOrigins:     origins,
			Location:        time.UTC,
		},
		Repos:        repos,
		SessionStore: cookie.NewStore([]byte("secret")),
		Clock:        func() time.Time { return time.Date(2025, 9, 17, 9, 0, 0, 0, time.UTC) },
	})
}

func serve(r http.Handler, method, url, userID string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(constants.HeaderUserID, userID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, nil)

	w := serve(r, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestTaskLifecycle(t *testing.T) {
	r := newTestRouter(t, nil)

	w := serve(r, http.MethodPost, "/api/tasks", "u-stf-1", map[string]interface{}{
		"title":     "Bug bash",
		"priority":  "Medium",
		"startDate": "2025-09-20",
		"endDate":   "2025-09-21",
		"status":    "Completed",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created dto.TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "u-stf-1", created.Task.OwnedBy.ID)
	assert.Equal(t, "To Do", string(created.Task.Status))

	// the manager sees the report's task
	w = serve(r, http.MethodGet, "/api/tasks/"+created.Task.ID, "u-mgr", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `"1"`, w.Header().Get(constants.HeaderETag))

	w = serve(r, http.MethodPut, "/api/tasks/"+created.Task.ID, "u-stf-1", map[string]interface{}{
		"ownedById": "u-mgr",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(r, http.MethodPut, "/api/tasks/"+created.Task.ID, "u-mgr", map[string]interface{}{
		"status":    "In Progress",
		"projectId": 1,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated dto.TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "In Progress", string(updated.Task.Status))
	require.NotNil(t, updated.Task.Project)
	assert.Equal(t, "Website Refresh", updated.Task.Project.Name)
	assert.Equal(t, int64(2), updated.Task.Version)

	w = serve(r, http.MethodGet, "/api/tasks?project=Website%20Refresh&status=In%20Progress", "u-stf-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list dto.TaskListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Tasks, 1)
}

func TestDirectoryRoutes(t *testing.T) {
	r := newTestRouter(t, nil)

	w := serve(r, http.MethodGet, "/api/users", "u-stf-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users struct {
		Users []dto.UserDTO `json:"users"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	assert.Len(t, users.Users, 2)

	w = serve(r, http.MethodGet, "/api/users/accessible", "u-stf-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	users.Users = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	require.Len(t, users.Users, 1)
	assert.Equal(t, "u-stf-1", users.Users[0].ID)

	w = serve(r, http.MethodGet, "/api/projects", "u-stf-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Website Refresh")

	w = serve(r, http.MethodGet, "/api/projects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCORS(t *testing.T) {
	r := newTestRouter(t, []string{"http://localhost:3000"})

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Contains(t, strings.ToLower(w.Header().Get("Access-Control-Expose-Headers")), "etag")
}
