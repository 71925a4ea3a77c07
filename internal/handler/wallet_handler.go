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

type WalletHandler struct {
	walletService service.WalletService
}

func NewWalletHandler(walletService service.WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

func (h *WalletHandler) RegisterRoutes(router *gin.RouterGroup) {
	wallet := router.Group("/api/wallet")
	{
		wallet.POST("/collect", middleware.RequireRole(model.RoleDeliveryMan), h.Collect)
		wallet.GET("/transactions", middleware.RequirePermission("wallet.read"), h.ListTransactions)
		wallet.PUT("/transactions/:id/forward", middleware.RequireRole(model.RoleDeliveryMan), h.ForwardToAdmin)
		wallet.PUT("/transactions/:id/accept", middleware.RequirePermission("wallet.settle"), h.AdminAccept)
		wallet.PUT("/transactions/:id/reject", middleware.RequirePermission("wallet.settle"), h.AdminReject)
	}
}

// Collect records a cash collection against an assigned order
// @Summary      Collect order payment
// @Description  Assigned delivery agent records funds collected on an order; one wallet record per order
// @Tags         wallet
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CollectPaymentRequest  true  "Collection Payload"
// @Success      201      {object}  response.Response{data=service.WalletTransactionResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/wallet/collect [post]
func (h *WalletHandler) Collect(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req service.CollectPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	tx, err := h.walletService.Collect(c.Request.Context(), actor, req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, tx))
}

// ListTransactions returns wallet transactions; agents see only their own
// @Summary      List wallet transactions
// @Tags         wallet
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "Filter by transaction status"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=response.PageData}
// @Router       /api/wallet/transactions [get]
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	params := pagination.Parse(c)

	transactions, total, err := h.walletService.List(c.Request.Context(), actor, c.Query("status"), params.Page, params.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, transactions, params.Page, params.Limit, total))
}

// ForwardToAdmin hands the held funds to the admin; rejected transactions can retry
// @Summary      Forward wallet transaction to admin
// @Tags         wallet
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Wallet Transaction ID"
// @Success      200  {object}  response.Response{data=service.WalletTransactionResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/wallet/transactions/{id}/forward [put]
func (h *WalletHandler) ForwardToAdmin(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	tx, err := h.walletService.ForwardToAdmin(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tx))
}

// AdminAccept settles the forwarded wallet funds
// @Summary      Accept wallet transaction
// @Tags         wallet
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Wallet Transaction ID"
// @Success      200  {object}  response.Response{data=service.WalletTransactionResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/wallet/transactions/{id}/accept [put]
func (h *WalletHandler) AdminAccept(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	tx, err := h.walletService.AdminAccept(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tx))
}

// AdminReject bounces the wallet funds back to the agent
// @Summary      Reject wallet transaction
// @Tags         wallet
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Wallet Transaction ID"
// @Success      200  {object}  response.Response{data=service.WalletTransactionResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/wallet/transactions/{id}/reject [put]
func (h *WalletHandler) AdminReject(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	tx, err := h.walletService.AdminReject(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tx))
}
