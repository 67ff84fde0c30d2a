package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskorbit/taskorbit/internal/config"
	"github.com/taskorbit/taskorbit/internal/database"
	"github.com/taskorbit/taskorbit/internal/database/users"
	"github.com/taskorbit/taskorbit/internal/entities"
)

func setupMiddlewareRouter(t *testing.T) (*gin.Engine, *users.Repository, *entities.User) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Database{
		Kind:           config.KindSQLite,
		Host:           t.TempDir(),
		Name:           "middleware-test.db",
		Prefix:         "to_",
		MaxOpenConns:   1,
		MaxIdleConns:   1,
		ConnectTimeout: config.DefaultConnectTimeout,
	}

	db, err := database.NewDatabase(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.EnsureSchema())

	repo := users.NewRepository(db.DB)
	user, err := repo.Create("alice", "not-a-real-hash")
	require.NoError(t, err)

	sm, err := NewSessionManager(db, config.Auth{SessionLifetime: time.Hour})
	require.NoError(t, err)

	router := gin.New()
	router.Use(sm.SessionLoadSave())
	router.Use(NewMiddleware(repo, sm).Handler())
	router.POST("/api/login", func(c *gin.Context) {
		require.NoError(t, sm.CreateSession(c.Request, user.ID, user.Name))
		c.Status(http.StatusNoContent)
	})
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":   GetUserID(c).String(),
			"user_name": GetUserName(c),
		})
	})

	return router, repo, user
}

func get(router *gin.Engine, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestMiddleware_RejectsUnauthenticated(t *testing.T) {
	router, _, _ := setupMiddlewareRouter(t)

	w := get(router, "/api/tasks", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// No paths outside the public set bypass authentication.
	w = get(router, "/static/app.js", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_PublicPaths(t *testing.T) {
	router, _, _ := setupMiddlewareRouter(t)

	for _, path := range []string{"/health", "/ping", "/api/csrf"} {
		w := get(router, path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestMiddleware_SessionGrantsAccess(t *testing.T) {
	router, _, user := setupMiddlewareRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/login", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	authed := get(router, "/api/tasks", cookies)
	require.Equal(t, http.StatusOK, authed.Code)
	assert.Contains(t, authed.Body.String(), user.ID.String())
	assert.Contains(t, authed.Body.String(), user.Name)
}

func TestMiddleware_DeactivatedUserLosesAccess(t *testing.T) {
	router, repo, user := setupMiddlewareRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/login", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	require.NoError(t, repo.Deactivate(user.ID))

	// Deactivation invalidates the live session on the next request.
	denied := get(router, "/api/tasks", cookies)
	assert.Equal(t, http.StatusUnauthorized, denied.Code)
}
