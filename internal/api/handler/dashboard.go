package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/neurodash/neurodash/internal/api/models"
)

// Dashboard returns the dashboard summary of a user.
func (h *Handler) Dashboard(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}

	d, err := h.engine.Dashboard(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToDashboard(d))
}

// Signals returns the latest snapshot of the signal generator.
func (h *Handler) Signals(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Signals())
}
