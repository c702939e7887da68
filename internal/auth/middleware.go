package auth

import (
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// Middleware guards gin routes with token authentication.
type Middleware struct {
	tokens           *Manager
	cookieName       string
	cookieSecure     bool
	enforceOwnership bool
}

// NewMiddleware creates the gin middleware. An empty cookieName falls back to DefaultCookieName.
func NewMiddleware(tokens *Manager, cookieName string, cookieSecure, enforceOwnership bool) *Middleware {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &Middleware{
		tokens:           tokens,
		cookieName:       cookieName,
		cookieSecure:     cookieSecure,
		enforceOwnership: enforceOwnership,
	}
}

// Tokens returns the token manager.
func (m *Middleware) Tokens() *Manager {
	return m.tokens
}

// RequireAuth rejects requests without a valid token with 401 and stores the identity otherwise.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := ExtractToken(c.Request, m.cookieName)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "authentication required",
			})
			return
		}

		identity, err := m.tokens.VerifyToken(token)
		if err != nil {
			log.Debug("rejected token", "path", c.FullPath(), "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "invalid or expired token",
			})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireOwner rejects requests whose path parameter param names another user with 403.
// Must run after RequireAuth.
func (m *Middleware) RequireOwner(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param(param)
		userID, err := strconv.ParseUint(raw, 10, 0)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "invalid user ID",
			})
			return
		}
		if err := m.CheckOwner(c, uint(userID)); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   err.Error(),
			})
			return
		}
		c.Next()
	}
}

// CheckOwner returns ErrForbidden if ownership is enforced and userID is not the authenticated user.
func (m *Middleware) CheckOwner(c *gin.Context, userID uint) error {
	if !m.enforceOwnership {
		return nil
	}
	identity, ok := IdentityFrom(c)
	if !ok || identity.UserID != userID {
		return ErrForbidden
	}
	return nil
}

// SetTokenCookie stores token in an http-only cookie that lives as long as the token.
func (m *Middleware) SetTokenCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookieName, token, int(m.tokens.TTL().Seconds()), "/", "", m.cookieSecure, true)
}

// ClearTokenCookie expires the token cookie.
func (m *Middleware) ClearTokenCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookieName, "", -1, "/", "", m.cookieSecure, true)
}

// IdentityFrom returns the identity stored by RequireAuth.
func IdentityFrom(c *gin.Context) (*Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*Identity)
	return identity, ok
}
