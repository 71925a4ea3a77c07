package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/audit-logs", middleware.RequirePermission("audit.read"), h.GetAuditLogs)
}

// GetAuditLogs returns the audit trail, newest first
// @Summary      List audit logs
// @Description  Paginated audit trail of who did what, optionally filtered by action
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        action  query     string  false  "Filter by action code"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=response.PageData}
// @Failure      500     {object}  response.Response
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	params := pagination.Parse(c)

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), params.Page, params.Limit, c.Query("action"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch audit logs"))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, logs, params.Page, params.Limit, total))
}
