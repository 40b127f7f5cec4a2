package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lunchpad/orderengine/internal/domain/model"
	"github.com/lunchpad/orderengine/internal/server/http/dto"
	"github.com/lunchpad/orderengine/internal/server/http/middleware"
)

// OrderHandler manages order-related endpoints.
type OrderHandler struct {
	facade OrderFacade
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(facade OrderFacade) *OrderHandler {
	return &OrderHandler{facade: facade}
}

// Create handles POST /api/orders.
func (h *OrderHandler) Create(c *gin.Context) {
	userID := CurrentUserID(c)

	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.facade.PlaceOrder(c.Request.Context(), toPlaceOrderRequest(req), userID)
	middleware.RecordOrderOperation("create", err == nil)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toOrderResponse(*order))
}

// List handles GET /api/orders.
func (h *OrderHandler) List(c *gin.Context) {
	userID := CurrentUserID(c)
	orders, err := h.facade.Orders(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if len(orders) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	response := make([]dto.OrderResponse, 0, len(orders))
	for _, o := range orders {
		response = append(response, toOrderResponse(o))
	}

	c.JSON(http.StatusOK, response)
}

// Get handles GET /api/orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	userID := CurrentUserID(c)
	orderID, ok := pathID(c)
	if !ok {
		return
	}

	order, err := h.facade.Order(c.Request.Context(), orderID, userID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(*order))
}

// Cancel handles POST /api/orders/:id/cancel.
func (h *OrderHandler) Cancel(c *gin.Context) {
	userID := CurrentUserID(c)
	orderID, ok := pathID(c)
	if !ok {
		return
	}

	err := h.facade.CancelOrder(c.Request.Context(), orderID, userID)
	middleware.RecordOrderOperation("cancel", err == nil)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Status(http.StatusOK)
}

// UpdateStatus handles PATCH /api/orders/:id/status.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	userID := CurrentUserID(c)
	orderID, ok := pathID(c)
	if !ok {
		return
	}

	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status, valid := parseOrderStatus(req.Status)
	if !valid {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}

	err := h.facade.UpdateOrderStatus(c.Request.Context(), orderID, status, userID)
	middleware.RecordOrderOperation("update_status", err == nil)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Status(http.StatusOK)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func parseOrderStatus(s string) (model.OrderStatus, bool) {
	switch model.OrderStatus(s) {
	case model.OrderStatusPending, model.OrderStatusConfirmed, model.OrderStatusShipped,
		model.OrderStatusDelivered, model.OrderStatusCancelled:
		return model.OrderStatus(s), true
	default:
		return "", false
	}
}

func toPlaceOrderRequest(req dto.CreateOrderRequest) model.PlaceOrderRequest {
	lines := make([]model.LineSelection, 0, len(req.Products))
	for _, p := range req.Products {
		variations := make([]model.VariationSelection, 0, len(p.Variations))
		for _, v := range p.Variations {
			variations = append(variations, model.VariationSelection{
				VariationID: v.ID,
				OptionIDs:   v.Options,
			})
		}
		lines = append(lines, model.LineSelection{
			ProductID:  p.ProductID,
			Quantity:   p.Quantity,
			AddonIDs:   p.Addons,
			Variations: variations,
		})
	}

	return model.PlaceOrderRequest{
		BranchID:    req.BranchID,
		Type:        model.OrderType(req.Type),
		IsScheduled: req.IsScheduled,
		ScheduledAt: req.ScheduledAt,
		Address: model.ShippingAddress{
			Address:   req.ShippingAddress.Address,
			Longitude: req.ShippingAddress.Longitude,
			Latitude:  req.ShippingAddress.Latitude,
		},
		Payment: model.PaymentRequest{
			Currency:     req.Payment.Currency,
			Gateway:      req.Payment.Gateway,
			IntentID:     req.Payment.IntentID,
			ClientSecret: req.Payment.ClientSecret,
			ReceiptEmail: req.Payment.ReceiptEmail,
		},
		Lines: lines,
	}
}

func toOrderResponse(order model.Order) dto.OrderResponse {
	lines := make([]dto.OrderLineResponse, 0, len(order.Lines))
	for _, l := range order.Lines {
		lines = append(lines, dto.OrderLineResponse{
			ID:         l.ID,
			ProductID:  l.ProductID,
			Quantity:   l.Quantity,
			TotalPrice: l.TotalPrice,
			Addons:     l.AddonIDs,
			Variations: l.VariationIDs,
		})
	}

	return dto.OrderResponse{
		ID:          order.ID,
		BranchID:    order.BranchID,
		Type:        string(order.Type),
		Status:      string(order.Status),
		TotalPrice:  order.TotalPrice,
		IsScheduled: order.IsScheduled,
		ScheduledAt: order.ScheduledAt,
		CreatedAt:   order.CreatedAt,
		Lines:       lines,
	}
}
