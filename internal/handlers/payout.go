package handlers

import (
	"upiroute/internal/models"
	"upiroute/internal/services/payout"
	"upiroute/internal/utils/response"
	"upiroute/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type PayoutHandler struct {
	payoutService payout.Service
}

func NewPayoutHandler(payoutService payout.Service) *PayoutHandler {
	return &PayoutHandler{payoutService: payoutService}
}

// RequestPayout allocates pending obligations to the calling custodian.
// A partial or empty fill is a normal response, not an error.
func (h *PayoutHandler) RequestPayout(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*models.APIClaims)

	var input struct {
		Amount float64 `json:"amount"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}

	if err := validation.ValidatePayoutRequest(claims.ActorID, input.Amount); err != nil {
		return response.BadRequest(c, err.Error())
	}

	req, err := h.payoutService.Allocate(c.Context(), claims.ActorID, input.Amount)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Payout request processed", payoutView(req))
}

// GetPayout returns the current state of a payout request.
func (h *PayoutHandler) GetPayout(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*models.APIClaims)

	req, err := h.payoutService.GetRequest(c.Context(), c.Params("id"))
	if err != nil {
		return response.DomainError(c, err)
	}
	if claims.Role == models.RoleCustodian && req.CustodianID != claims.ActorID {
		return response.NotFound(c, "payout request not found")
	}

	return response.Success(c, "Payout request", payoutView(req))
}

// ConfirmPayout records the custodian's proof of transfer.
func (h *PayoutHandler) ConfirmPayout(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*models.APIClaims)

	var input struct {
		ProofReference string `json:"proof_reference"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	if input.ProofReference == "" {
		return response.BadRequest(c, "proof reference is required")
	}

	if err := h.payoutService.Confirm(c.Context(), c.Params("id"), claims.ActorID, input.ProofReference); err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Payout confirmed, pending verification", nil)
}

// CancelPayoutRequest cancels the custodian's own request, releasing its
// obligations back to the pool.
func (h *PayoutHandler) CancelPayoutRequest(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*models.APIClaims)

	if err := h.payoutService.CancelRequest(c.Context(), c.Params("id"), claims.ActorID); err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Payout request cancelled", nil)
}

// CancelObligation detaches one assigned obligation, with a reason.
func (h *PayoutHandler) CancelObligation(c *fiber.Ctx) error {
	claims := c.Locals("claims").(*models.APIClaims)

	obligationID, err := c.ParamsInt("id")
	if err != nil || obligationID <= 0 {
		return response.BadRequest(c, "invalid obligation id")
	}

	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	if input.Reason == "" {
		return response.BadRequest(c, "a cancellation reason is required")
	}

	if err := h.payoutService.CancelByCustodian(c.Context(), uint(obligationID), claims.ActorID, input.Reason); err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Obligation returned to pool", nil)
}

func payoutView(req *models.PayoutRequest) fiber.Map {
	return fiber.Map{
		"request_id":       req.RequestID,
		"requested_amount": req.RequestedAmount,
		"assigned_amount":  req.AssignedAmount,
		"remaining_amount": req.RemainingAmount,
		"obligation_ids":   req.AssignedObligationIDs,
		"status":           req.Status,
		"in_waiting_list":  req.InWaitingList,
	}
}
