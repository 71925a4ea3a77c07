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

type PaymentHandler struct {
	paymentService service.PaymentService
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup) {
	requests := router.Group("/api/payment-requests")
	{
		requests.POST("", middleware.RequireRole(model.RoleCustomer), h.CreateRequest)
		requests.GET("", middleware.RequirePermission("payments.read"), h.ListRequests)
		requests.PUT("/:id/accept", middleware.RequireRole(model.RoleDeliveryMan, model.RoleSalesMan), h.AcceptRequest)
		requests.PUT("/:id/reject", middleware.RequireRole(model.RoleDeliveryMan, model.RoleSalesMan), h.RejectRequest)
	}

	transactions := router.Group("/api/bill-transactions")
	{
		transactions.GET("", middleware.RequirePermission("payments.read"), h.ListTransactions)
		transactions.PUT("/:id/pay-to-admin", middleware.RequireRole(model.RoleDeliveryMan, model.RoleSalesMan), h.PayToAdmin)
	}

	adminRequests := router.Group("/api/admin-requests")
	{
		adminRequests.GET("", middleware.RequireRole(model.RoleAdmin), h.ListAdminRequests)
		adminRequests.PUT("/:id/accept", middleware.RequirePermission("payments.settle"), h.AdminAccept)
		adminRequests.PUT("/:id/reject", middleware.RequirePermission("payments.settle"), h.AdminReject)
	}
}

// CreateRequest opens a payment request against a bill, moving it to pending_payment
// @Summary      Create payment request
// @Description  Customer offers a payment on their bill to a named field agent
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreatePaymentRequestDTO  true  "Payment Request"
// @Success      201      {object}  response.Response{data=service.PaymentRequestResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/payment-requests [post]
func (h *PaymentHandler) CreateRequest(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req service.CreatePaymentRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	paymentRequest, err := h.paymentService.CreateRequest(c.Request.Context(), actor, req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, paymentRequest))
}

// ListRequests returns payment requests scoped to the caller's role
// @Summary      List payment requests
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "Filter by request status"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=response.PageData}
// @Router       /api/payment-requests [get]
func (h *PaymentHandler) ListRequests(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	params := pagination.Parse(c)

	requests, total, err := h.paymentService.ListRequests(c.Request.Context(), actor, c.Query("status"), params.Page, params.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, requests, params.Page, params.Limit, total))
}

// AcceptRequest confirms the collection; the bill is paid down and a transaction opens on the agent
// @Summary      Accept payment request
// @Description  Recipient confirms the collection; the paid amount is capped at the bill's amount due and a bill transaction is opened on the holder
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Payment Request ID"
// @Success      200  {object}  response.Response{data=service.BillTransactionResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/payment-requests/{id}/accept [put]
func (h *PaymentHandler) AcceptRequest(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	billTx, err := h.paymentService.AcceptRequest(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, billTx))
}

// RejectRequest declines the collection; the bill returns to pending untouched
// @Summary      Reject payment request
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Payment Request ID"
// @Success      200  {object}  response.Response{data=service.PaymentRequestResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/payment-requests/{id}/reject [put]
func (h *PaymentHandler) RejectRequest(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	paymentRequest, err := h.paymentService.RejectRequest(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, paymentRequest))
}

// ListTransactions returns bill transactions scoped to the caller's role
// @Summary      List bill transactions
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "Filter by transaction status"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=response.PageData}
// @Router       /api/bill-transactions [get]
func (h *PaymentHandler) ListTransactions(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	params := pagination.Parse(c)

	transactions, total, err := h.paymentService.ListTransactions(c.Request.Context(), actor, c.Query("status"), params.Page, params.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, transactions, params.Page, params.Limit, total))
}

// PayToAdmin forwards held funds to the admin for settlement
// @Summary      Forward bill transaction to admin
// @Description  Holder hands the collected funds to the admin; the transaction waits on the admin's decision
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Bill Transaction ID"
// @Success      201  {object}  response.Response{data=service.BillAdminRequestResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/bill-transactions/{id}/pay-to-admin [put]
func (h *PaymentHandler) PayToAdmin(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	adminRequest, err := h.paymentService.PayToAdmin(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, adminRequest))
}

// ListAdminRequests returns pending and decided settlement requests
// @Summary      List admin settlement requests
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "Filter by request status"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=response.PageData}
// @Router       /api/admin-requests [get]
func (h *PaymentHandler) ListAdminRequests(c *gin.Context) {
	params := pagination.Parse(c)

	requests, total, err := h.paymentService.ListAdminRequests(c.Request.Context(), c.Query("status"), params.Page, params.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, requests, params.Page, params.Limit, total))
}

// AdminAccept settles the forwarded funds
// @Summary      Accept settlement request
// @Description  Admin confirms receipt; the underlying bill transaction closes as paid_to_admin
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Admin Request ID"
// @Success      200  {object}  response.Response{data=service.BillAdminRequestResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/admin-requests/{id}/accept [put]
func (h *PaymentHandler) AdminAccept(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	adminRequest, err := h.paymentService.AdminAccept(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, adminRequest))
}

// AdminReject sends the funds back to the holder for a retry
// @Summary      Reject settlement request
// @Description  Admin declines receipt; the bill transaction returns to the holder and can be forwarded again
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Admin Request ID"
// @Success      200  {object}  response.Response{data=service.BillAdminRequestResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/admin-requests/{id}/reject [put]
func (h *PaymentHandler) AdminReject(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	adminRequest, err := h.paymentService.AdminReject(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, adminRequest))
}
