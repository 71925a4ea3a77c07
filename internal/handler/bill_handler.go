package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type BillHandler struct {
	billingService service.BillingService
}

func NewBillHandler(billingService service.BillingService) *BillHandler {
	return &BillHandler{billingService: billingService}
}

func (h *BillHandler) RegisterRoutes(router *gin.RouterGroup) {
	bills := router.Group("/api/bills")
	{
		bills.POST("/generate", middleware.RequireRole(model.RoleAdmin), h.GenerateBill)
		bills.GET("", middleware.RequirePermission("bills.read"), h.ListBills)
		bills.GET("/:id", middleware.RequirePermission("bills.read"), h.GetBill)
		bills.PUT("/:id/pay", middleware.RequirePermission("bills.write"), h.PayBill)
	}
}

// GenerateBill rolls a customer's unbilled credit orders into a cycle bill
// @Summary      Generate billing cycle bill
// @Description  Aggregates unbilled credit orders in the cycle window into one bill with a grace-based due date
// @Tags         bills
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.GenerateBillRequest  true  "Billing Cycle Window"
// @Success      201      {object}  response.Response{data=service.BillResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/bills/generate [post]
func (h *BillHandler) GenerateBill(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req service.GenerateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	bill, err := h.billingService.GenerateBill(c.Request.Context(), actor, req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, bill))
}

// ListBills returns bills scoped to the caller's role, refreshing overdue status lazily
// @Summary      List bills
// @Tags         bills
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "Filter by bill status"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=response.PageData}
// @Router       /api/bills [get]
func (h *BillHandler) ListBills(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	params := pagination.Parse(c)

	bills, total, err := h.billingService.List(c.Request.Context(), actor, c.Query("status"), params.Page, params.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, bills, params.Page, params.Limit, total))
}

// GetBill fetches one bill, enforcing ownership for customers
// @Summary      Get bill by ID
// @Tags         bills
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Bill ID"
// @Success      200  {object}  response.Response{data=service.BillResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/bills/{id} [get]
func (h *BillHandler) GetBill(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	bill, err := h.billingService.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, bill))
}

// PayBill applies a direct payment against the bill, capped at the amount due
// @Summary      Pay bill
// @Description  Applies a payment to the bill; overpayment is capped at the remaining amount due
// @Tags         bills
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Bill ID"
// @Param        payload  body      service.PayBillRequest  true  "Payment"
// @Success      200      {object}  response.Response{data=service.BillResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/bills/{id}/pay [put]
func (h *BillHandler) PayBill(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req service.PayBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	bill, err := h.billingService.PayBill(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, bill))
}
