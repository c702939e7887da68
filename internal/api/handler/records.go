package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/neurodash/neurodash/internal/api/models"
	"github.com/neurodash/neurodash/internal/database"
)

// ListMetrics returns the newest metric samples of a user.
func (h *Handler) ListMetrics(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	samples, err := h.engine.ListMetrics(c.Request.Context(), userID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToMetricSamples(samples))
}

// CreateMetric stores a metric sample.
func (h *Handler) CreateMetric(c *gin.Context) {
	var req models.CreateMetricRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, err := h.bodyUserID(c, req.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	created, err := h.engine.RecordMetric(c.Request.Context(), userID, database.MetricSample{
		HeartRate:      *req.HeartRate,
		StressLevel:    *req.StressLevel,
		SleepQuality:   *req.SleepQuality,
		NeuralActivity: *req.NeuralActivity,
		DailySteps:     req.DailySteps,
		SleepDuration:  req.SleepDuration,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.ToMetricSample(*created))
}

// ListDreams returns the newest dream records of a user.
func (h *Handler) ListDreams(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	dreams, err := h.engine.ListDreams(c.Request.Context(), userID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToDreamRecords(dreams))
}

// CreateDream interprets and stores a dream.
func (h *Handler) CreateDream(c *gin.Context) {
	var req models.CreateDreamRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, err := h.bodyUserID(c, req.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	dream, err := h.engine.RecordDream(c.Request.Context(), userID, req.DreamText)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.ToDreamRecord(*dream))
}

// ListChat returns the tail of the conversation of a user, oldest first.
func (h *Handler) ListChat(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	msgs, err := h.engine.ListChat(c.Request.Context(), userID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToChatMessages(msgs))
}

// SendChat stores a user message and the assistant reply and returns the reply.
func (h *Handler) SendChat(c *gin.Context) {
	var req models.ChatRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, err := h.bodyUserID(c, req.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	reply, err := h.engine.SendChat(c.Request.Context(), userID, req.Message)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.ToChatMessage(*reply))
}

// AnalyzeMood classifies the mood of a text without storing it.
func (h *Handler) AnalyzeMood(c *gin.Context) {
	var req models.MoodRequest
	if !bindJSON(c, &req) {
		return
	}

	mood, err := h.engine.AnalyzeMood(c.Request.Context(), req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ToMood(mood))
}
