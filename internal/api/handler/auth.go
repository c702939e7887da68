package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/neurodash/neurodash/internal/api/models"
	"github.com/neurodash/neurodash/internal/auth"
)

// Login gets or creates the user, issues a token and stores it in a cookie.
func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.engine.Login(c.Request.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		writeError(c, err)
		return
	}

	tokens := h.auth.Tokens()
	token, err := tokens.IssueToken(user.ID, user.Username)
	if err != nil {
		log.Error("failed to issue token", "user_id", user.ID, "error", err)
		writeError(c, err)
		return
	}
	h.auth.SetTokenCookie(c, token)

	c.JSON(http.StatusOK, models.LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(tokens.TTL()).UTC(),
		User:      models.ToUser(user),
	})
}

// Logout expires the token cookie. Tokens are stateless, a copied token stays valid until it expires.
func (h *Handler) Logout(c *gin.Context) {
	h.auth.ClearTokenCookie(c)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}

// Me returns the authenticated identity.
func (h *Handler) Me(c *gin.Context) {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		writeError(c, auth.ErrNoToken)
		return
	}
	c.JSON(http.StatusOK, identity)
}
