package api

import (
	"net/http"
	"strconv"

	"github.com/Domenick1991/flighttrack/internal/service/tracking"
	"github.com/gin-gonic/gin"
)

type HistoryHandler struct {
	service tracking.TrackingUseCase
}

func NewHistoryHandler(service tracking.TrackingUseCase) *HistoryHandler {
	return &HistoryHandler{service: service}
}

func (h *HistoryHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.recent)
	router.GET("/:number", h.forFlight)
	router.DELETE("/", h.clear)
}

func (h *HistoryHandler) recent(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	changes, err := h.service.RecentStatusChanges(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, changes)
}

func (h *HistoryHandler) forFlight(c *gin.Context) {
	changes, err := h.service.StatusChangesForFlight(c.Request.Context(), c.Param("number"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, changes)
}

func (h *HistoryHandler) clear(c *gin.Context) {
	if err := h.service.ClearHistory(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
