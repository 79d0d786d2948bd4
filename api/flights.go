package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/flighttrack/internal/provider"
	"github.com/Domenick1991/flighttrack/internal/service/tracking"
	"github.com/gin-gonic/gin"
)

type FlightHandler struct {
	service tracking.TrackingUseCase
}

func NewFlightHandler(service tracking.TrackingUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
	router.GET("/:number", h.get)
	router.POST("/:number", h.search)
	router.DELETE("/:number", h.remove)
}

func (h *FlightHandler) list(c *gin.Context) {
	flights, err := h.service.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, flights)
}

func (h *FlightHandler) get(c *gin.Context) {
	rec, err := h.service.Get(c.Request.Context(), c.Param("number"))
	if err != nil {
		if errors.Is(err, tracking.ErrFlightNotTracked) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// search triggers an on-demand one-flight refresh and starts tracking
// the flight.
func (h *FlightHandler) search(c *gin.Context) {
	rec, err := h.service.Search(c.Request.Context(), c.Param("number"))
	if err != nil {
		status, msg := classifyProviderError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *FlightHandler) remove(c *gin.Context) {
	if err := h.service.Remove(c.Request.Context(), c.Param("number")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// classifyProviderError maps the source error taxonomy onto HTTP
// responses with user-facing messages.
func classifyProviderError(err error) (int, string) {
	switch {
	case errors.Is(err, provider.ErrNotFound):
		return http.StatusNotFound, "no flights found"
	case errors.Is(err, provider.ErrRateLimited):
		return http.StatusTooManyRequests, "rate limit exceeded, try again later"
	case provider.IsNetwork(err):
		return http.StatusBadGateway, "network error, check connectivity and try again"
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
