package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/neurodash/neurodash/internal/api/models"
)

// GetSettings returns the stored settings of a user, or null if there are none.
func (h *Handler) GetSettings(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}

	settings, err := h.engine.GetSettings(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToUserSettings(settings))
}

// UpdateSettings merges a partial update into the settings of a user.
func (h *Handler) UpdateSettings(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}
	var req models.SettingsRequest
	if !bindJSON(c, &req) {
		return
	}

	settings, err := h.engine.UpdateSettings(c.Request.Context(), userID, models.ToSettingsPatch(req))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToUserSettings(settings))
}
