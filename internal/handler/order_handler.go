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

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/orders")
	{
		orders.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleCustomer), h.CreateOrder)
		orders.GET("", middleware.RequirePermission("orders.read"), h.ListOrders)
		orders.GET("/:id", middleware.RequirePermission("orders.read"), h.GetOrder)
		orders.GET("/:id/invoice", middleware.RequirePermission("orders.read"), h.GetInvoice)
		orders.PUT("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleCustomer), h.UpdateOrder)
		orders.PUT("/:id/deliver", middleware.RequireRole(model.RoleAdmin, model.RoleDeliveryMan), h.DeliverOrder)
		orders.PUT("/:id/cancel", middleware.RequireRole(model.RoleAdmin, model.RoleCustomer), h.CancelOrder)
		orders.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), h.DeleteOrder)

		orders.PUT("/:id/assign", middleware.RequirePermission("orders.assign"), h.AssignOrder)
		orders.PUT("/:id/accept-assignment", middleware.RequireRole(model.RoleDeliveryMan), h.AcceptAssignment)
		orders.PUT("/:id/reject-assignment", middleware.RequireRole(model.RoleDeliveryMan), h.RejectAssignment)
	}
}

// CreateOrder places an order, reserving stock and (for credit orders) credit
// @Summary      Create order
// @Description  Places an order; stock is always reserved, credit orders also reserve customer credit
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateOrderRequest  true  "Create Order Payload"
// @Success      201      {object}  response.Response{data=service.OrderResponse}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), actor, req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// ListOrders returns orders scoped to the caller's role
// @Summary      List orders
// @Description  Customers see their own orders, delivery agents see assigned orders, staff see all
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        status   query     string  false  "Filter by order status"
// @Param        payment  query     string  false  "Filter by payment type (credit, cash)"
// @Param        page     query     int     false  "Page number (default 1)"
// @Param        limit    query     int     false  "Number of items per page (default 20)"
// @Success      200      {object}  response.Response{data=response.PageData}
// @Router       /api/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	params := pagination.Parse(c)

	orders, total, err := h.orderService.List(c.Request.Context(), actor, c.Query("status"), c.Query("payment"), params.Page, params.Limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, orders, params.Page, params.Limit, total))
}

// GetOrder fetches one order by ID, enforcing ownership for customers
// @Summary      Get order by ID
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=service.OrderResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	order, err := h.orderService.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// GetInvoice renders the invoice tuple for an order without mutating it
// @Summary      Get order invoice
// @Description  Returns the invoice view (delivered or pending quantities) for an order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id    path      string  true   "Order ID"
// @Param        view  query     string  false  "Invoice view: delivered (default) or pending"
// @Success      200   {object}  response.Response{data=service.InvoiceTuple}
// @Failure      404   {object}  response.Response
// @Router       /api/orders/{id}/invoice [get]
func (h *OrderHandler) GetInvoice(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	invoice, err := h.orderService.Invoice(c.Request.Context(), actor, c.Param("id"), c.DefaultQuery("view", service.InvoiceViewDelivered))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// UpdateOrder re-prices a pending order, reversing and re-taking reservations atomically
// @Summary      Update order
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Order ID"
// @Param        payload  body      service.UpdateOrderRequest  true  "Update Order Payload"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/orders/{id} [put]
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req service.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	order, err := h.orderService.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// DeliverOrder records a partial or full delivery
// @Summary      Deliver order quantity
// @Description  Records delivered quantity; the order becomes delivered once fully shipped
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Order ID"
// @Param        payload  body      service.DeliverOrderRequest  true  "Delivered Quantity"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/orders/{id}/deliver [put]
func (h *OrderHandler) DeliverOrder(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req service.DeliverOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	order, err := h.orderService.Deliver(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// CancelOrder cancels the order and releases the undelivered remainder
// @Summary      Cancel order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=service.OrderResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/orders/{id}/cancel [put]
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	order, err := h.orderService.Cancel(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// DeleteOrder removes an order, releasing reservations if it was still pending
// @Summary      Delete order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id} [delete]
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	if err := h.orderService.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Order deleted successfully"))
}

// AssignOrder hands the order to a delivery agent
// @Summary      Assign order to delivery agent
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Order ID"
// @Param        payload  body      service.AssignOrderRequest  true  "Assignee"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/orders/{id}/assign [put]
func (h *OrderHandler) AssignOrder(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req service.AssignOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	order, err := h.orderService.Assign(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// AcceptAssignment lets the assigned agent take the order
// @Summary      Accept order assignment
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=service.OrderResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/orders/{id}/accept-assignment [put]
func (h *OrderHandler) AcceptAssignment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	order, err := h.orderService.AcceptAssignment(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// RejectAssignment lets the assigned agent decline the order
// @Summary      Reject order assignment
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=service.OrderResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/orders/{id}/reject-assignment [put]
func (h *OrderHandler) RejectAssignment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	order, err := h.orderService.RejectAssignment(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}
