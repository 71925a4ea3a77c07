package handler

import (
	"net/http"
	"strconv"
	"time"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
}

func NewStatisticsHandler(statisticsService service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	stats := router.Group("/api/statistics")
	{
		stats.GET("", middleware.RequirePermission("statistics.read"), h.GetStatistics)
		stats.GET("/receivables", middleware.RequirePermission("statistics.read"), h.GetReceivables)
		stats.GET("/collections", middleware.RequirePermission("statistics.read"), h.GetAgentCollections)
	}
}

// parseWindow reads start_date/end_date query params, defaulting to the current month
func parseWindow(c *gin.Context) (time.Time, time.Time, error) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := now

	if raw := c.Query("start_date"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return start, end, err
		}
		start = parsed
	}
	if raw := c.Query("end_date"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return start, end, err
		}
		end = parsed
	}
	return start, end, nil
}

// GetStatistics returns the dashboard aggregate for a time window
// @Summary      Get dashboard statistics
// @Description  Order volume by payment type, top receivables, and agent collections over a window
// @Tags         statistics
// @Security     BearerAuth
// @Produce      json
// @Param        start_date  query     string  false  "Start date (RFC3339, default: start of current month)"
// @Param        end_date    query     string  false  "End date (RFC3339, default: now)"
// @Success      200         {object}  response.Response{data=service.DashboardStatistics}
// @Failure      400         {object}  response.Response
// @Router       /api/statistics [get]
func (h *StatisticsHandler) GetStatistics(c *gin.Context) {
	start, end, err := parseWindow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid date format, expected RFC3339"))
		return
	}

	stats, err := h.statisticsService.GetStatistics(c.Request.Context(), start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}

// GetReceivables ranks customers by outstanding dues
// @Summary      Get top receivables
// @Tags         statistics
// @Security     BearerAuth
// @Produce      json
// @Param        limit  query     int  false  "Number of customers to return (default 10)"
// @Success      200    {object}  response.Response{data=[]model.CustomerReceivable}
// @Router       /api/statistics/receivables [get]
func (h *StatisticsHandler) GetReceivables(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	receivables, err := h.statisticsService.GetReceivables(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, receivables))
}

// GetAgentCollections sums funds each field agent holds or has forwarded
// @Summary      Get agent collections
// @Tags         statistics
// @Security     BearerAuth
// @Produce      json
// @Param        start_date  query     string  false  "Start date (RFC3339, default: start of current month)"
// @Param        end_date    query     string  false  "End date (RFC3339, default: now)"
// @Success      200         {object}  response.Response{data=[]model.AgentCollection}
// @Failure      400         {object}  response.Response
// @Router       /api/statistics/collections [get]
func (h *StatisticsHandler) GetAgentCollections(c *gin.Context) {
	start, end, err := parseWindow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid date format, expected RFC3339"))
		return
	}

	collections, err := h.statisticsService.GetAgentCollections(c.Request.Context(), start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, collections))
}
