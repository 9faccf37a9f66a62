package issuance

import (
	"errors"

	"soulcertify-backend/internal/ledger"
	"soulcertify-backend/internal/middleware"
	"soulcertify-backend/internal/pkg/response"
	"soulcertify-backend/internal/requests"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *Service
	Finder  CertificateFinder
	Owner   string
}

// Approve POST /api/v1/certificate-requests/:id/approve — issues the
// certificate on the ledger and marks the request approved.
func (h *Handlers) Approve(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return response.Error(c, "Missing request ID", 400, nil)
	}
	issuer := middleware.GetCaller(c)

	certID, err := h.Service.ApproveAndIssue(c.Context(), id, issuer)
	if err != nil {
		return mapCoordinatorError(c, err)
	}
	return response.Success(c, "Certificate request approved successfully", fiber.Map{
		"certificateId": certID,
	}, nil)
}

// Reject POST /api/v1/certificate-requests/:id/reject — owner only.
func (h *Handlers) Reject(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return response.Error(c, "Missing request ID", 400, nil)
	}
	if middleware.GetCaller(c) != h.Owner {
		return response.Unauthorized(c, "Only the owner can reject requests")
	}
	if err := h.Service.Reject(c.Context(), id); err != nil {
		return mapCoordinatorError(c, err)
	}
	return response.Success(c, "Certificate request rejected successfully", nil, nil)
}

// Reconcile POST /api/v1/certificate-requests/reconcile — heals pending
// requests whose certificate already exists on the ledger. Owner only.
func (h *Handlers) Reconcile(c *fiber.Ctx) error {
	if middleware.GetCaller(c) != h.Owner {
		return response.Unauthorized(c, "Only the owner can run reconciliation")
	}
	healed, err := h.Service.Reconcile(c.Context(), h.Finder)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Reconciliation completed", fiber.Map{
		"healed": healed,
	}, nil)
}

func mapCoordinatorError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, requests.ErrNotFound):
		return response.Error(c, err.Error(), 404, nil)
	case errors.Is(err, requests.ErrInvalidState):
		return response.Error(c, err.Error(), 409, nil)
	case errors.Is(err, ledger.ErrUnauthorized):
		return response.Error(c, err.Error(), 401, nil)
	case errors.Is(err, ledger.ErrInvalidArgument):
		return response.Error(c, err.Error(), 400, nil)
	case errors.Is(err, ErrDivergence):
		return response.Error(c, err.Error(), 500, nil)
	default:
		return response.Error(c, "Internal Server Error", 500, nil)
	}
}
