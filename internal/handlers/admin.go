package handlers

import (
	"context"

	"upiroute/internal/services/payout"
	"upiroute/internal/utils/response"
	"upiroute/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// CircuitReader exposes the cached bank health snapshot to operators.
type CircuitReader interface {
	Snapshot(ctx context.Context) map[string]string
}

type AdminHandler struct {
	payoutService payout.Service
	circuits      CircuitReader
}

func NewAdminHandler(payoutService payout.Service, circuits CircuitReader) *AdminHandler {
	return &AdminHandler{payoutService: payoutService, circuits: circuits}
}

// CreateObligation adds a new unassigned obligation to the payout pool.
func (h *AdminHandler) CreateObligation(c *fiber.Ctx) error {
	var input struct {
		Amount float64 `json:"amount"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	if err := validation.ValidateAmount(input.Amount); err != nil {
		return response.BadRequest(c, err.Error())
	}

	o, err := h.payoutService.CreateObligation(c.Context(), input.Amount)
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Obligation created", fiber.Map{
		"id":        o.ID,
		"reference": o.Reference,
		"amount":    o.Amount,
		"status":    o.Status,
	})
}

// RemoveObligation terminally removes an obligation from circulation.
func (h *AdminHandler) RemoveObligation(c *fiber.Ctx) error {
	obligationID, err := c.ParamsInt("id")
	if err != nil || obligationID <= 0 {
		return response.BadRequest(c, "invalid obligation id")
	}

	if err := h.payoutService.RemoveByAdmin(c.Context(), uint(obligationID)); err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Obligation removed", nil)
}

// ReassignObligation returns an assigned obligation to the unassigned pool.
func (h *AdminHandler) ReassignObligation(c *fiber.Ctx) error {
	obligationID, err := c.ParamsInt("id")
	if err != nil || obligationID <= 0 {
		return response.BadRequest(c, "invalid obligation id")
	}

	if err := h.payoutService.ReassignToPool(c.Context(), uint(obligationID)); err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Obligation returned to pool", nil)
}

// VerifyPayout approves a pending_verification payout request.
func (h *AdminHandler) VerifyPayout(c *fiber.Ctx) error {
	if err := h.payoutService.Verify(c.Context(), c.Params("id")); err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Payout verified", nil)
}

// GetCircuits returns the cached per-bank circuit snapshot.
func (h *AdminHandler) GetCircuits(c *fiber.Ctx) error {
	return response.Success(c, "Bank circuits", h.circuits.Snapshot(c.Context()))
}
