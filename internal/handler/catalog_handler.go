package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"optipos/internal/middleware"
	"optipos/internal/model"
	"optipos/internal/service"
	"optipos/pkg/apperror"
	"optipos/pkg/pagination"
	"optipos/pkg/response"
)

// CatalogHandler exposes the price-list hierarchy and product inventory endpoints.
type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	staff := middleware.RequireRole(model.RoleAdmin, model.RoleStaff)

	categories := router.Group("/price-categories", staff)
	{
		categories.GET("", h.ListCategories)
		categories.POST("", h.CreateCategory)
		categories.PUT("/:id", h.UpdateCategory)
		categories.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), h.DeleteCategory)
	}

	subcategories := router.Group("/price-subcategories", staff)
	{
		subcategories.POST("", h.CreateSubcategory)
		subcategories.PUT("/:id", h.UpdateSubcategory)
		subcategories.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), h.DeleteSubcategory)
	}

	products := router.Group("/products", staff)
	{
		products.GET("", h.ListProducts)
		products.GET("/low-stock", h.ListLowStockProducts)
		products.POST("", h.CreateProduct)
		products.PUT("/:id", h.UpdateProduct)
		products.PUT("/:id/stock", h.AdjustStock)
		products.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), h.DeleteProduct)
	}

	router.GET("/price-list", staff, h.GetPriceList)
}

// GetPriceList handles GET /price-list returning the full category tree
// @Summary      Get the price list
// @Description  Returns the full category > subcategory > product tree used by the POS screen
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.PriceCategory}
// @Failure      500  {object}  response.Response
// @Router       /price-list [get]
func (h *CatalogHandler) GetPriceList(c *gin.Context) {
	tree, err := h.catalogService.GetPriceList(c.Request.Context())
	if err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, tree))
}

// ListCategories handles GET /price-categories
// @Summary      List price categories
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.PriceCategory}
// @Router       /price-categories [get]
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalogService.ListCategories(c.Request.Context())
	if err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, categories))
}

// CreateCategory handles POST /price-categories
// @Summary      Create a price category
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CategoryRequest  true  "Category Payload"
// @Success      201      {object}  response.Response{data=model.PriceCategory}
// @Failure      400      {object}  response.Response
// @Router       /price-categories [post]
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req service.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	category, err := h.catalogService.CreateCategory(c.Request.Context(), middleware.UserIDFromContext(c), req)
	if err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, category))
}

// UpdateCategory handles PUT /price-categories/:id
// @Summary      Update a price category
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                   true  "Category ID"
// @Param        payload  body      service.CategoryRequest  true  "Category Payload"
// @Success      200      {object}  response.Response{data=model.PriceCategory}
// @Failure      404      {object}  response.Response
// @Router       /price-categories/{id} [put]
func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	var req service.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	category, err := h.catalogService.UpdateCategory(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"), req)
	if err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, category))
}

// DeleteCategory handles DELETE /price-categories/:id
// @Summary      Delete a price category
// @Description  Soft-deletes a category along with its subcategories and products
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Category ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /price-categories/{id} [delete]
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	if err := h.catalogService.DeleteCategory(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id")); err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Category deleted successfully"))
}

// CreateSubcategory handles POST /price-subcategories
// @Summary      Create a price subcategory
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.SubcategoryRequest  true  "Subcategory Payload"
// @Success      201      {object}  response.Response{data=model.PriceSubcategory}
// @Failure      400      {object}  response.Response
// @Router       /price-subcategories [post]
func (h *CatalogHandler) CreateSubcategory(c *gin.Context) {
	var req service.SubcategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	subcategory, err := h.catalogService.CreateSubcategory(c.Request.Context(), middleware.UserIDFromContext(c), req)
	if err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, subcategory))
}

// UpdateSubcategory handles PUT /price-subcategories/:id
// @Summary      Update a price subcategory
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Subcategory ID"
// @Param        payload  body      service.SubcategoryRequest  true  "Subcategory Payload"
// @Success      200      {object}  response.Response{data=model.PriceSubcategory}
// @Failure      404      {object}  response.Response
// @Router       /price-subcategories/{id} [put]
func (h *CatalogHandler) UpdateSubcategory(c *gin.Context) {
	var req service.SubcategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	subcategory, err := h.catalogService.UpdateSubcategory(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"), req)
	if err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, subcategory))
}

// DeleteSubcategory handles DELETE /price-subcategories/:id
// @Summary      Delete a price subcategory
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Subcategory ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /price-subcategories/{id} [delete]
func (h *CatalogHandler) DeleteSubcategory(c *gin.Context) {
	if err := h.catalogService.DeleteSubcategory(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id")); err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Subcategory deleted successfully"))
}

// ListProducts handles GET /products
// @Summary      List products
// @Description  Retrieves a paginated, searchable list of products with stock levels
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        search  query     string  false  "Search by name or code"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Success      200     {object}  response.Response{data=[]model.Product}
// @Router       /products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	params := pagination.Parse(c)
	search := c.Query("search")

	products, total, err := h.catalogService.GetProducts(c.Request.Context(), params.Page, params.Limit, search)
	if err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, products, params.Page, params.Limit, total))
}

// ListLowStockProducts handles GET /products/low-stock
// @Summary      List low-stock products
// @Description  Returns carried products whose stock is at or below their threshold
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]model.Product}
// @Router       /products/low-stock [get]
func (h *CatalogHandler) ListLowStockProducts(c *gin.Context) {
	products, err := h.catalogService.GetLowStockProducts(c.Request.Context())
	if err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, products))
}

// CreateProduct handles POST /products
// @Summary      Create a product
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.ProductRequest  true  "Product Payload"
// @Success      201      {object}  response.Response{data=model.Product}
// @Failure      400      {object}  response.Response
// @Router       /products [post]
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	product, err := h.catalogService.CreateProduct(c.Request.Context(), middleware.UserIDFromContext(c), req)
	if err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, product))
}

// UpdateProduct handles PUT /products/:id
// @Summary      Update a product
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                  true  "Product ID"
// @Param        payload  body      service.ProductRequest  true  "Product Payload"
// @Success      200      {object}  response.Response{data=model.Product}
// @Failure      404      {object}  response.Response
// @Router       /products/{id} [put]
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	product, err := h.catalogService.UpdateProduct(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"), req)
	if err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// AdjustStock handles PUT /products/:id/stock for manual stock corrections
// @Summary      Adjust product stock
// @Description  Sets the absolute stock level of a product, recording the reason in the audit trail
// @Tags         catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Product ID"
// @Param        payload  body      service.AdjustStockRequest  true  "Stock Adjustment Payload"
// @Success      200      {object}  response.Response{data=model.Product}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /products/{id}/stock [put]
func (h *CatalogHandler) AdjustStock(c *gin.Context) {
	var req service.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	product, err := h.catalogService.AdjustStock(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"), req)
	if err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// DeleteProduct handles DELETE /products/:id
// @Summary      Delete a product
// @Tags         catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /products/{id} [delete]
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	if err := h.catalogService.DeleteProduct(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id")); err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Product deleted successfully"))
}
