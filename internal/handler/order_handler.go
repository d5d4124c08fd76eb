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

// OrderHandler exposes purchase order endpoints for restocking from suppliers.
type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/orders", middleware.RequireRole(model.RoleAdmin, model.RoleStaff))
	{
		orders.GET("", h.ListOrders)
		orders.GET("/:id", h.GetOrder)
		orders.POST("", h.CreateOrder)
		orders.PUT("/:id", h.UpdateOrder)
		orders.PUT("/:id/status", h.UpdateOrderStatus)
		orders.PUT("/:id/items/:itemId/status", h.UpdateOrderItemStatus)
		orders.POST("/:id/items/:itemId/return", h.ReturnOrderItem)
		orders.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), h.DeleteOrder)
	}
}

// ListOrders handles GET /orders with filtering and sorting
// @Summary      List purchase orders
// @Description  Retrieves purchase orders filtered by status, supplier, free-text search and date range
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        status       query     string  false  "Filter by order status"
// @Param        supplier_id  query     string  false  "Filter by supplier ID"
// @Param        search       query     string  false  "Search by receipt number, description or supplier name"
// @Param        start_date   query     string  false  "Start of date range (YYYY-MM-DD)"
// @Param        end_date     query     string  false  "End of date range (YYYY-MM-DD)"
// @Param        sort_by      query     string  false  "Sort column: created_at, total_price, status, receipt_number"
// @Param        sort_dir     query     string  false  "Sort direction: asc or desc"
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Items per page (default 20)"
// @Success      200          {object}  response.Response{data=[]model.Order}
// @Failure      400          {object}  response.Response
// @Router       /orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	params := pagination.Parse(c)
	sort := pagination.ParseSort(c, "created_at")

	query := service.ListOrdersQuery{
		Status:     c.Query("status"),
		SupplierID: c.Query("supplier_id"),
		Search:     c.Query("search"),
		StartDate:  c.Query("start_date"),
		EndDate:    c.Query("end_date"),
		SortBy:     sort.By,
		SortDir:    sort.Direction,
		Page:       params.Page,
		Limit:      params.Limit,
	}

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), query)
	if err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, orders, params.Page, params.Limit, total))
}

// GetOrder handles GET /orders/:id
// @Summary      Get order by ID
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=model.Order}
// @Failure      404  {object}  response.Response
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// CreateOrder handles POST /orders
// @Summary      Create a purchase order
// @Description  Creates a purchase order against a supplier with its line items
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateOrderRequest  true  "Order Payload"
// @Success      201      {object}  response.Response{data=model.Order}
// @Failure      400      {object}  response.Response
// @Router       /orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), middleware.UserIDFromContext(c), req)
	if err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// UpdateOrder handles PUT /orders/:id
// @Summary      Update a purchase order
// @Description  Replaces the order's fields and line items, recomputing the total
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Order ID"
// @Param        payload  body      service.UpdateOrderRequest  true  "Order Payload"
// @Success      200      {object}  response.Response{data=model.Order}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /orders/{id} [put]
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	var req service.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.UpdateOrder(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"), req)
	if err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// UpdateOrderStatus handles PUT /orders/:id/status
// @Summary      Update order status
// @Description  Moves an order along its lifecycle (ordered, on_delivery, delivered, completed, cancelled, returned)
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                            true  "Order ID"
// @Param        payload  body      service.UpdateOrderStatusRequest  true  "Status Payload"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /orders/{id}/status [put]
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	var req service.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.orderService.UpdateOrderStatus(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"), req.Status); err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Order status updated successfully"))
}

// UpdateOrderItemStatus handles PUT /orders/:id/items/:itemId/status
// @Summary      Update order item status
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                            true  "Order ID"
// @Param        itemId   path      string                            true  "Order Item ID"
// @Param        payload  body      service.UpdateOrderStatusRequest  true  "Status Payload"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /orders/{id}/items/{itemId}/status [put]
func (h *OrderHandler) UpdateOrderItemStatus(c *gin.Context) {
	var req service.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := h.orderService.UpdateOrderItemStatus(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"), c.Param("itemId"), req.Status); err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Order item status updated successfully"))
}

// ReturnOrderItem handles POST /orders/:id/items/:itemId/return
// @Summary      Return an order item to the supplier
// @Description  Records a partial or full return of a delivered line item with a mandatory reason
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                          true  "Order ID"
// @Param        itemId   path      string                          true  "Order Item ID"
// @Param        payload  body      service.ReturnOrderItemRequest  true  "Return Payload"
// @Success      200      {object}  response.Response{data=model.OrderItem}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /orders/{id}/items/{itemId}/return [post]
func (h *OrderHandler) ReturnOrderItem(c *gin.Context) {
	var req service.ReturnOrderItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.orderService.ReturnOrderItem(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"), c.Param("itemId"), req)
	if err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// DeleteOrder handles DELETE /orders/:id
// @Summary      Delete a purchase order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /orders/{id} [delete]
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	if err := h.orderService.DeleteOrder(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id")); err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Order deleted successfully"))
}
