package requests

import (
	"errors"

	"soulcertify-backend/internal/models"
	"soulcertify-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *Service
}

// Submit POST /api/v1/certificate-requests
func (h *Handlers) Submit(c *fiber.Ctx) error {
	var body SubmitInput
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}

	id, err := h.Service.Submit(c.Context(), body)
	if err != nil {
		if errors.Is(err, ErrInvalidArgument) {
			return response.Error(c, err.Error(), 400, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.SuccessCreated(c, "Certificate request submitted successfully", fiber.Map{
		"requestId": id,
	}, nil)
}

// List GET /api/v1/certificate-requests — newest first for display.
func (h *Handlers) List(c *fiber.Ctx) error {
	reqs, err := h.Service.List(c.Context())
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	reversed := make([]models.CertificateRequest, 0, len(reqs))
	for i := len(reqs) - 1; i >= 0; i-- {
		reversed = append(reversed, reqs[i])
	}
	return response.Success(c, "Certificate requests fetched successfully", reversed, nil)
}

// Get GET /api/v1/certificate-requests/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return response.Error(c, "Missing request ID", 400, nil)
	}
	req, err := h.Service.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return response.Error(c, err.Error(), 404, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Certificate request fetched successfully", req, nil)
}
