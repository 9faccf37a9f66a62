package assistant

import (
	"errors"

	"soulcertify-backend/internal/middleware"
	"soulcertify-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *Service
}

// Chat POST /api/v1/assistant/chat
func (h *Handlers) Chat(c *fiber.Ctx) error {
	var body struct {
		Messages []Message `json:"messages"`
	}
	if err := c.BodyParser(&body); err != nil || len(body.Messages) == 0 {
		return response.Error(c, "messages are required", 400, nil)
	}
	caller := middleware.GetCaller(c)

	reply, err := h.Service.Chat(c.Context(), body.Messages, caller)
	if err != nil {
		return mapAssistantError(c, err)
	}
	return response.Success(c, "Assistant reply generated", fiber.Map{
		"reply": reply,
	}, nil)
}

// Extract POST /api/v1/assistant/extract
func (h *Handlers) Extract(c *fiber.Ctx) error {
	var body struct {
		Messages []Message `json:"messages"`
	}
	if err := c.BodyParser(&body); err != nil || len(body.Messages) == 0 {
		return response.Error(c, "messages are required", 400, nil)
	}

	info, err := h.Service.ExtractInfo(c.Context(), body.Messages)
	if err != nil {
		return mapAssistantError(c, err)
	}
	// nil means the conversation does not hold enough information yet.
	return response.Success(c, "Extraction completed", fiber.Map{
		"info": info,
	}, nil)
}

// SuggestSkills POST /api/v1/assistant/suggest-skills
func (h *Handlers) SuggestSkills(c *fiber.Ctx) error {
	var body struct {
		Degree string `json:"degree"`
		Major  string `json:"major"`
	}
	if err := c.BodyParser(&body); err != nil || body.Degree == "" || body.Major == "" {
		return response.Error(c, "degree and major are required", 400, nil)
	}

	skills := h.Service.SuggestSkills(c.Context(), body.Degree, body.Major)
	return response.Success(c, "Skills suggested", fiber.Map{
		"skills": skills,
	}, nil)
}

// Analyze POST /api/v1/assistant/analyze
func (h *Handlers) Analyze(c *fiber.Ctx) error {
	var body map[string]interface{}
	if err := c.BodyParser(&body); err != nil || len(body) == 0 {
		return response.Error(c, "request data is required", 400, nil)
	}

	analysis, err := h.Service.AnalyzeRequest(c.Context(), body)
	if err != nil {
		return mapAssistantError(c, err)
	}
	return response.Success(c, "Analysis completed", analysis, nil)
}

func mapAssistantError(c *fiber.Ctx, err error) error {
	if errors.Is(err, ErrServiceUnavailable) {
		return response.Error(c, err.Error(), 503, nil)
	}
	return response.Error(c, "Internal Server Error", 500, nil)
}
