package api

import (
	"net/http"

	"github.com/Domenick1991/flighttrack/internal/service/tracking"
	"github.com/gin-gonic/gin"
)

type RouteHandler struct {
	service tracking.TrackingUseCase
}

func NewRouteHandler(service tracking.TrackingUseCase) *RouteHandler {
	return &RouteHandler{service: service}
}

func (h *RouteHandler) Register(router *gin.RouterGroup) {
	router.GET("/airports", h.airports)
	router.GET("/:dep/:arr/flights", h.flights)
	router.GET("/:dep/:arr/average", h.average)
	router.POST("/:dep/:arr/search", h.search)
}

func (h *RouteHandler) airports(c *gin.Context) {
	departures, arrivals, err := h.service.Airports(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"departures": departures, "arrivals": arrivals})
}

func (h *RouteHandler) flights(c *gin.Context) {
	flights, err := h.service.ListByRoute(c.Request.Context(), c.Param("dep"), c.Param("arr"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, flights)
}

func (h *RouteHandler) average(c *gin.Context) {
	minutes, err := h.service.AverageDuration(c.Request.Context(), c.Param("dep"), c.Param("arr"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if minutes == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no flight durations known for this route"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"average_minutes": *minutes})
}

func (h *RouteHandler) search(c *gin.Context) {
	flights, err := h.service.SearchRoute(c.Request.Context(), c.Param("dep"), c.Param("arr"))
	if err != nil {
		status, msg := classifyProviderError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, flights)
}
