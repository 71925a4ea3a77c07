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

type CustomerHandler struct {
	customerService service.CustomerService
}

func NewCustomerHandler(customerService service.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

func (h *CustomerHandler) RegisterRoutes(router *gin.RouterGroup) {
	customers := router.Group("/api/customers")
	{
		customers.POST("", middleware.RequirePermission("customers.write"), h.CreateCustomer)
		customers.GET("", middleware.RequirePermission("customers.read"), h.ListCustomers)
		customers.GET("/me", middleware.RequireRole(model.RoleCustomer), h.GetOwnProfile)
		customers.GET("/:id", middleware.RequirePermission("customers.read"), h.GetCustomer)
		customers.PUT("/:id/credit-limit", middleware.RequirePermission("customers.write"), h.UpdateCreditLimit)
		customers.DELETE("/:id", middleware.RequirePermission("customers.write"), h.DeleteCustomer)
	}
}

// CreateCustomer provisions a login identity and a credit account together
// @Summary      Create customer
// @Description  Creates a customer together with its login user and opening credit limit
// @Tags         customers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateCustomerRequest  true  "Create Customer Payload"
// @Success      201      {object}  response.Response{data=service.CustomerResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/customers [post]
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req service.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	customer, err := h.customerService.Create(c.Request.Context(), actor, req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, customer))
}

// ListCustomers returns a paginated customer list with optional name search
// @Summary      List customers
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        search  query     string  false  "Filter by customer name"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=response.PageData}
// @Failure      500     {object}  response.Response
// @Router       /api/customers [get]
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	params := pagination.Parse(c)

	customers, total, err := h.customerService.List(c.Request.Context(), params.Page, params.Limit, c.Query("search"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch customers"))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, customers, params.Page, params.Limit, total))
}

// GetOwnProfile returns the customer record of the authenticated user
// @Summary      Get own customer profile
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.CustomerResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/customers/me [get]
func (h *CustomerHandler) GetOwnProfile(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	customer, err := h.customerService.GetByActor(c.Request.Context(), actor)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, customer))
}

// GetCustomer fetches one customer by ID
// @Summary      Get customer by ID
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  response.Response{data=service.CustomerResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/customers/{id} [get]
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	customer, err := h.customerService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, customer))
}

// UpdateCreditLimit adjusts the credit ceiling; the spendable balance shifts by the same delta
// @Summary      Update customer credit limit
// @Tags         customers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                            true  "Customer ID"
// @Param        payload  body      service.UpdateCreditLimitRequest  true  "New Credit Limit"
// @Success      200      {object}  response.Response{data=service.CustomerResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/customers/{id}/credit-limit [put]
func (h *CustomerHandler) UpdateCreditLimit(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req service.UpdateCreditLimitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	customer, err := h.customerService.UpdateCreditLimit(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, customer))
}

// DeleteCustomer removes the customer and its login user together
// @Summary      Delete customer
// @Tags         customers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Customer ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/customers/{id} [delete]
func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	if err := h.customerService.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Customer deleted successfully"))
}
