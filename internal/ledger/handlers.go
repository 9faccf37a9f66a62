package ledger

import (
	"errors"
	"strconv"

	"soulcertify-backend/internal/middleware"
	"soulcertify-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *Service
}

// Issue POST /api/v1/certificates (owner only)
func (h *Handlers) Issue(c *fiber.Ctx) error {
	var body IssueInput
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}
	caller := middleware.GetCaller(c)

	id, err := h.Service.Issue(c.Context(), caller, body)
	if err != nil {
		return mapLedgerError(c, err)
	}
	return response.SuccessCreated(c, "Certificate issued successfully", fiber.Map{
		"id": id,
	}, nil)
}

// Get GET /api/v1/certificates/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := parseCertID(c)
	if err != nil {
		return response.Error(c, "Invalid certificate ID", 400, nil)
	}
	cert, err := h.Service.Get(c.Context(), id)
	if err != nil {
		return mapLedgerError(c, err)
	}
	return response.Success(c, "Certificate fetched successfully", cert, nil)
}

// ListByStudent GET /api/v1/certificates/student/:address
func (h *Handlers) ListByStudent(c *fiber.Ctx) error {
	address := c.Params("address")
	if address == "" {
		return response.Error(c, "Missing student address", 400, nil)
	}
	ids, err := h.Service.ListByStudent(c.Context(), address)
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Certificates fetched successfully", fiber.Map{
		"ids": ids,
	}, nil)
}

// Owner GET /api/v1/certificates/owner
func (h *Handlers) Owner(c *fiber.Ctx) error {
	return response.Success(c, "Owner fetched successfully", fiber.Map{
		"owner": h.Service.OwnerAddress(),
	}, nil)
}

// Approve POST /api/v1/certificates/:id/approve (recipient only)
func (h *Handlers) Approve(c *fiber.Ctx) error {
	id, err := parseCertID(c)
	if err != nil {
		return response.Error(c, "Invalid certificate ID", 400, nil)
	}
	caller := middleware.GetCaller(c)
	if err := h.Service.Approve(c.Context(), caller, id); err != nil {
		return mapLedgerError(c, err)
	}
	return response.Success(c, "Certificate approved successfully", nil, nil)
}

// Revoke POST /api/v1/certificates/:id/revoke (owner only)
func (h *Handlers) Revoke(c *fiber.Ctx) error {
	id, err := parseCertID(c)
	if err != nil {
		return response.Error(c, "Invalid certificate ID", 400, nil)
	}
	caller := middleware.GetCaller(c)
	if err := h.Service.Revoke(c.Context(), caller, id); err != nil {
		return mapLedgerError(c, err)
	}
	return response.Success(c, "Certificate revoked successfully", nil, nil)
}

func parseCertID(c *fiber.Ctx) (uint64, error) {
	return strconv.ParseUint(c.Params("id"), 10, 64)
}

func mapLedgerError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return response.Error(c, err.Error(), 404, nil)
	case errors.Is(err, ErrUnauthorized):
		return response.Error(c, err.Error(), 401, nil)
	case errors.Is(err, ErrInvalidArgument):
		return response.Error(c, err.Error(), 400, nil)
	case errors.Is(err, ErrAlreadyApproved), errors.Is(err, ErrAlreadyRevoked), errors.Is(err, ErrRevoked):
		return response.Error(c, err.Error(), 409, nil)
	default:
		return response.Error(c, "Internal Server Error", 500, nil)
	}
}
