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

// TransactionHandler exposes point-of-sale transaction endpoints.
type TransactionHandler struct {
	transactionService service.TransactionService
}

func NewTransactionHandler(transactionService service.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *TransactionHandler) RegisterRoutes(router *gin.RouterGroup) {
	transactions := router.Group("/transactions", middleware.RequireRole(model.RoleAdmin, model.RoleStaff))
	{
		transactions.GET("", h.ListTransactions)
		transactions.GET("/:id", h.GetTransaction)
		transactions.POST("", h.CreateTransaction)
		transactions.PUT("/items/:itemId/fulfill", h.FulfillItem)
		transactions.PUT("/items/:itemId/refund", h.RefundItem)
		transactions.PUT("/:id/cancel", h.CancelTransaction)
	}
}

// ListTransactions handles GET /transactions
// @Summary      List transactions
// @Description  Retrieves sales transactions filtered by status and receipt number search
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status (pending, fulfilled, cancelled)"
// @Param        search  query     string  false  "Search by receipt number"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Success      200     {object}  response.Response{data=[]model.Transaction}
// @Failure      400     {object}  response.Response
// @Router       /transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	params := pagination.Parse(c)

	transactions, total, err := h.transactionService.ListTransactions(c.Request.Context(), c.Query("status"), c.Query("search"), params.Page, params.Limit)
	if err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, transactions, params.Page, params.Limit, total))
}

// GetTransaction handles GET /transactions/:id
// @Summary      Get transaction by ID
// @Description  Returns a transaction with its items and products preloaded
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Transaction ID"
// @Success      200  {object}  response.Response{data=model.Transaction}
// @Failure      404  {object}  response.Response
// @Router       /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	transaction, err := h.transactionService.GetTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, transaction))
}

// CreateTransaction handles POST /transactions
// @Summary      Create a sales transaction
// @Description  Creates a transaction, pricing items server-side and decrementing stock atomically
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateTransactionRequest  true  "Transaction Payload"
// @Success      201      {object}  response.Response{data=service.CreateTransactionResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	var req service.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	res, err := h.transactionService.CreateTransaction(c.Request.Context(), middleware.UserIDFromContext(c), req)
	if err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, res))
}

// FulfillItem handles PUT /transactions/items/:itemId/fulfill
// @Summary      Fulfill a transaction item
// @Description  Marks an item as handed over to the customer. The parent transaction becomes fulfilled once every item is.
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Param        itemId  path      string  true  "Transaction Item ID"
// @Success      200     {object}  response.Response{data=model.TransactionItem}
// @Failure      404     {object}  response.Response
// @Failure      409     {object}  response.Response
// @Router       /transactions/items/{itemId}/fulfill [put]
func (h *TransactionHandler) FulfillItem(c *gin.Context) {
	item, err := h.transactionService.FulfillItem(c.Request.Context(), c.Param("itemId"), middleware.UserIDFromContext(c))
	if err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// RefundItem handles PUT /transactions/items/:itemId/refund
// @Summary      Refund a transaction item
// @Description  Refunds part or all of an item's quantity, restoring stock. Refunds accumulate across calls.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        itemId   path      string                     true  "Transaction Item ID"
// @Param        payload  body      service.RefundItemRequest  true  "Refund Payload"
// @Success      200      {object}  response.Response{data=model.TransactionItem}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /transactions/items/{itemId}/refund [put]
func (h *TransactionHandler) RefundItem(c *gin.Context) {
	var req service.RefundItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.transactionService.RefundItem(c.Request.Context(), c.Param("itemId"), middleware.UserIDFromContext(c), req)
	if err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, item))
}

// CancelTransaction handles PUT /transactions/:id/cancel
// @Summary      Cancel a transaction
// @Description  Cancels a transaction and restores the stock that has not already been refunded
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Transaction ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /transactions/{id}/cancel [put]
func (h *TransactionHandler) CancelTransaction(c *gin.Context) {
	if err := h.transactionService.CancelTransaction(c.Request.Context(), c.Param("id"), middleware.UserIDFromContext(c)); err != nil {
		status := apperror.StatusCode(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Transaction cancelled successfully"))
}
