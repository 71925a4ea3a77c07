package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	categories := router.Group("/api/categories")
	{
		categories.POST("", middleware.RequirePermission("catalog.write"), h.CreateCategory)
		categories.GET("", middleware.RequirePermission("catalog.read"), h.ListCategories)
		categories.DELETE("/:id", middleware.RequirePermission("catalog.write"), h.DeleteCategory)
	}

	subCategories := router.Group("/api/sub-categories")
	{
		subCategories.POST("", middleware.RequirePermission("catalog.write"), h.CreateSubCategory)
		subCategories.GET("", middleware.RequirePermission("catalog.read"), h.ListSubCategories)
		subCategories.DELETE("/:id", middleware.RequirePermission("catalog.write"), h.DeleteSubCategory)
	}

	products := router.Group("/api/products")
	{
		products.POST("", middleware.RequirePermission("catalog.write"), h.CreateProduct)
		products.GET("", middleware.RequirePermission("catalog.read"), h.ListProducts)
		products.GET("/:id", middleware.RequirePermission("catalog.read"), h.GetProduct)
		products.PUT("/:id", middleware.RequirePermission("catalog.write"), h.UpdateProduct)
		products.DELETE("/:id", middleware.RequirePermission("catalog.write"), h.DeleteProduct)
	}
}

// CreateCategory adds a top-level category
// @Summary      Create category
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateCategoryRequest  true  "Create Category Payload"
// @Success      201      {object}  response.Response{data=model.Category}
// @Failure      400      {object}  response.Response
// @Router       /api/categories [post]
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req service.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	category, err := h.catalogService.CreateCategory(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, category))
}

// ListCategories returns all categories
// @Summary      List categories
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Category}
// @Router       /api/categories [get]
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalogService.ListCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch categories"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, categories))
}

// DeleteCategory removes a category by ID
// @Summary      Delete category
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Category ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/categories/{id} [delete]
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	if err := h.catalogService.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Category deleted successfully"))
}

// CreateSubCategory adds a sub-category under a category
// @Summary      Create sub-category
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateSubCategoryRequest  true  "Create SubCategory Payload"
// @Success      201      {object}  response.Response{data=model.SubCategory}
// @Failure      400      {object}  response.Response
// @Router       /api/sub-categories [post]
func (h *CatalogHandler) CreateSubCategory(c *gin.Context) {
	var req service.CreateSubCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	sub, err := h.catalogService.CreateSubCategory(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, sub))
}

// ListSubCategories returns sub-categories, optionally filtered by category
// @Summary      List sub-categories
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        category_id  query     string  false  "Filter by category ID"
// @Success      200          {object}  response.Response{data=[]model.SubCategory}
// @Router       /api/sub-categories [get]
func (h *CatalogHandler) ListSubCategories(c *gin.Context) {
	subs, err := h.catalogService.ListSubCategories(c.Request.Context(), c.Query("category_id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, subs))
}

// DeleteSubCategory removes a sub-category by ID
// @Summary      Delete sub-category
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "SubCategory ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/sub-categories/{id} [delete]
func (h *CatalogHandler) DeleteSubCategory(c *gin.Context) {
	if err := h.catalogService.DeleteSubCategory(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Sub-category deleted successfully"))
}

// CreateProduct adds a product with its price and opening stock
// @Summary      Create product
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateProductRequest  true  "Create Product Payload"
// @Success      201      {object}  response.Response{data=service.ProductResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/products [post]
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	product, err := h.catalogService.CreateProduct(c.Request.Context(), actor, req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, product))
}

// ListProducts returns a paginated product list with optional search
// @Summary      List products
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        search  query     string  false  "Filter by product name or SKU"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=response.PageData}
// @Router       /api/products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	params := pagination.Parse(c)

	products, total, err := h.catalogService.ListProducts(c.Request.Context(), params.Page, params.Limit, c.Query("search"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch products"))
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, products, params.Page, params.Limit, total))
}

// GetProduct fetches one product by ID
// @Summary      Get product by ID
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=service.ProductResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/products/{id} [get]
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, err := h.catalogService.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// UpdateProduct edits product fields; existing orders keep their snapshot price
// @Summary      Update product
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Product ID"
// @Param        payload  body      service.UpdateProductRequest  true  "Update Product Payload"
// @Success      200      {object}  response.Response{data=service.ProductResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/products/{id} [put]
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req service.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	product, err := h.catalogService.UpdateProduct(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// DeleteProduct soft deletes a product
// @Summary      Delete product
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/products/{id} [delete]
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	if err := h.catalogService.DeleteProduct(c.Request.Context(), actor, c.Param("id")); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Product deleted successfully"))
}
