package handlers

import (
	"upiroute/internal/models"
	"upiroute/internal/services/routing"
	"upiroute/internal/utils/response"
	"upiroute/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type RoutingHandler struct {
	routingService routing.Service
}

func NewRoutingHandler(routingService routing.Service) *RoutingHandler {
	return &RoutingHandler{routingService: routingService}
}

// RouteCollection picks a collection channel for the merchant's request and
// returns the selection plus its fallback chain.
func (h *RoutingHandler) RouteCollection(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*models.APIClaims)

	var input struct {
		UserID   uint    `json:"user_id"`
		Amount   float64 `json:"amount"`
		GeoCity  string  `json:"geo_city"`
		GeoState string  `json:"geo_state"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}

	if err := validation.ValidateRouteRequest(claims.ActorID, input.UserID, input.Amount); err != nil {
		return response.BadRequest(c, err.Error())
	}

	result, err := h.routingService.Route(c.Context(), routing.RouteInput{
		MerchantID: claims.ActorID,
		UserID:     input.UserID,
		Amount:     input.Amount,
		GeoCity:    input.GeoCity,
		GeoState:   input.GeoState,
		ClientIP:   c.IP(),
	})
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Channel selected", fiber.Map{
		"request_id":     result.Request.RequestID,
		"channel_id":     result.Selected.Channel.ID,
		"vpa":            result.Selected.Channel.VPA,
		"bank_name":      result.Selected.Channel.BankName,
		"fallback_chain": result.Request.FallbackChain,
		"mode":           result.Mode,
		"geo_match":      result.GeoMatch,
	})
}

// SwitchChannel advances a pending request to its next standby channel.
func (h *RoutingHandler) SwitchChannel(c *fiber.Ctx) error {
	requestID := c.Params("id")
	if requestID == "" {
		return response.BadRequest(c, "request id is required")
	}

	req, err := h.routingService.SwitchChannel(c.Context(), requestID)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Switched to fallback channel", fiber.Map{
		"request_id":      req.RequestID,
		"channel_id":      req.SelectedChannelID,
		"current_attempt": req.CurrentAttempt,
		"max_attempts":    req.MaxAttempts,
	})
}

// RecordOutcome settles an attempt against the live channel.
func (h *RoutingHandler) RecordOutcome(c *fiber.Ctx) error {
	requestID := c.Params("id")

	var input struct {
		Success bool `json:"success"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}

	if err := h.routingService.RecordOutcome(c.Context(), requestID, input.Success); err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Outcome recorded", nil)
}
