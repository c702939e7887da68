// Package handler implements the JSON endpoints of the neurodash API.
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/neurodash/neurodash/internal/analysis"
	"github.com/neurodash/neurodash/internal/auth"
	"github.com/neurodash/neurodash/internal/config"
	"github.com/neurodash/neurodash/internal/database"
	"github.com/neurodash/neurodash/internal/engine"
)

// MaxLimit is the largest accepted ?limit= value.
const MaxLimit = 1000

type Handler struct {
	engine *engine.Engine
	auth   *auth.Middleware
	config *config.Config
}

var registerTagNameOnce sync.Once

func New(eng *engine.Engine, mw *auth.Middleware, cfg *config.Config) *Handler {
	registerTagNameOnce.Do(registerJSONTagNames)
	return &Handler{
		engine: eng,
		auth:   mw,
		config: cfg,
	}
}

// registerJSONTagNames makes validation errors report JSON field names.
func registerJSONTagNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}

func parseUintParam(param string) (uint, error) {
	id, err := strconv.ParseUint(param, 10, 0)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// pathUserID reads the :userId path parameter.
func pathUserID(c *gin.Context) (uint, bool) {
	userID, err := parseUintParam(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid user ID",
		})
		return 0, false
	}
	return userID, true
}

// parseLimit reads ?limit=. An absent value returns 0, which selects the store default.
func parseLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err == nil && n <= MaxLimit {
		var limit int
		if limit, err = safecast.Convert[int](n); err == nil {
			return limit, true
		}
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   fmt.Sprintf("limit must be an integer between 0 and %d", MaxLimit),
	})
	return 0, false
}

// bodyUserID resolves the target user of a write request.
// An absent userId means the authenticated user.
func (h *Handler) bodyUserID(c *gin.Context, requested *uint) (uint, error) {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		return 0, auth.ErrNoToken
	}
	if requested == nil {
		return identity.UserID, nil
	}
	if err := h.auth.CheckOwner(c, *requested); err != nil {
		return 0, err
	}
	return *requested, nil
}

// bindJSON binds the request body and writes a 400 with field messages on failure.
func bindJSON(c *gin.Context, obj any) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   strings.Join(msgs, "; "),
		})
		return false
	}

	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   "invalid request body: " + err.Error(),
	})
	return false
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed the %s check", fe.Field(), fe.Tag())
	}
}

// writeError maps engine, store, auth and analysis errors to a status code and error body.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := "internal server error"

	switch {
	case errors.Is(err, engine.ErrInvalidInput):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrNoToken), errors.Is(err, auth.ErrInvalidToken):
		status, msg = http.StatusUnauthorized, "authentication required"
	case errors.Is(err, auth.ErrForbidden):
		status, msg = http.StatusForbidden, err.Error()
	case errors.Is(err, database.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, database.ErrUsernameTaken):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, analysis.ErrNotConfigured):
		msg = "analysis service is not configured"
	case errors.Is(err, analysis.ErrUpstream):
		msg = "analysis service failed"
	case errors.Is(err, database.ErrStorage):
		msg = "storage error"
	}

	if status >= http.StatusInternalServerError {
		log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   msg,
	})
}
