package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/taskorbit/taskorbit/internal/database/users"
	"github.com/taskorbit/taskorbit/internal/entities"
)

// Context keys for user data
const (
	ContextKeyUserID   = "auth_user_id"
	ContextKeyUserName = "auth_user_name"
)

// Middleware guards routes behind a valid session cookie.
type Middleware struct {
	users          *users.Repository
	sessionManager *SessionManager
	publicPaths    map[string]bool
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(repo *users.Repository, sessionManager *SessionManager) *Middleware {
	publicPaths := map[string]bool{
		"/health":       true,
		"/ping":         true,
		"/api/login":    true,
		"/api/register": true,
		"/api/csrf":     true,
	}

	return &Middleware{
		users:          repo,
		sessionManager: sessionManager,
		publicPaths:    publicPaths,
	}
}

// Handler returns a Gin middleware handler that authenticates requests.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.isPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		user := m.trySessionAuth(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}

		c.Set(ContextKeyUserID, user.ID)
		c.Set(ContextKeyUserName, user.Name)
		c.Next()
	}
}

// trySessionAuth resolves the session cookie to an active user.
func (m *Middleware) trySessionAuth(c *gin.Context) *entities.User {
	userID := m.sessionManager.GetUserID(c.Request)
	if userID == uuid.Nil {
		return nil
	}

	user, err := m.users.GetByID(userID)
	if err != nil || !user.Active {
		return nil
	}
	return user
}

func (m *Middleware) isPublicPath(path string) bool {
	return m.publicPaths[path]
}

// GetUserID retrieves the authenticated user's ID from the context.
// Returns uuid.Nil if not authenticated.
func GetUserID(c *gin.Context) uuid.UUID {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := id.(uuid.UUID); ok {
			return userID
		}
	}
	return uuid.Nil
}

// GetUserName retrieves the authenticated user's name from the context.
func GetUserName(c *gin.Context) string {
	if name, exists := c.Get(ContextKeyUserName); exists {
		if userName, ok := name.(string); ok {
			return userName
		}
	}
	return ""
}
