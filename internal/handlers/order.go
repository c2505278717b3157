// internal/handlers/order.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/contoso/storefront/internal/services"
	"github.com/contoso/storefront/internal/utils"
)

type OrderHandler struct {
	orders *services.OrderService
}

func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// The owner id comes from the user_id query parameter; request
// authentication is handled upstream of this service.
func ownerID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Query("user_id"))
	if err != nil || id < 1 {
		utils.ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", "user_id must be a positive integer", nil)
		return 0, false
	}
	return id, true
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID, ok := ownerID(c)
	if !ok {
		return
	}
	orders, err := h.orders.GetOrders(c.Request.Context(), userID)
	if err != nil {
		utils.FailWith(c, err)
		return
	}
	utils.SuccessResponse(c, orders)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, ok := ownerID(c)
	if !ok {
		return
	}
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", "order id must be an integer", nil)
		return
	}
	order, err := h.orders.GetOrder(c.Request.Context(), userID, orderID)
	if err != nil {
		utils.FailWith(c, err)
		return
	}
	utils.SuccessResponse(c, order)
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	result, err := h.orders.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		if result != nil && result.Order != nil {
			// The header (and possibly some items) is persisted. Tell the
			// caller exactly how far the write got so it can reconcile.
			utils.ErrorResponse(c, http.StatusInternalServerError, "PARTIAL_WRITE", err.Error(), result)
			return
		}
		utils.FailWith(c, err)
		return
	}
	utils.CreatedResponse(c, result)
}
