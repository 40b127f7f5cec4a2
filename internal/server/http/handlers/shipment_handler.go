package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lunchpad/orderengine/internal/domain/model"
	"github.com/lunchpad/orderengine/internal/server/http/dto"
)

// ShipmentHandler exposes deliveries created for the user's orders.
type ShipmentHandler struct {
	facade ShipmentFacade
}

// NewShipmentHandler constructs ShipmentHandler.
func NewShipmentHandler(facade ShipmentFacade) *ShipmentHandler {
	return &ShipmentHandler{facade: facade}
}

// List handles GET /api/shipments.
func (h *ShipmentHandler) List(c *gin.Context) {
	userID := CurrentUserID(c)
	shipments, err := h.facade.Shipments(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if len(shipments) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	response := make([]dto.ShipmentResponse, 0, len(shipments))
	for _, s := range shipments {
		response = append(response, toShipmentResponse(s))
	}

	c.JSON(http.StatusOK, response)
}

func toShipmentResponse(s model.ShippingOrder) dto.ShipmentResponse {
	return dto.ShipmentResponse{
		ID:             s.ID,
		OrderID:        s.OrderID,
		Fee:            s.Fee,
		Status:         string(s.Status),
		ShippingClient: s.ShippingClient,
		CreatedAt:      s.CreatedAt,
	}
}
