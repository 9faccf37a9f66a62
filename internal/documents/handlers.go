package documents

import (
	"io"

	"soulcertify-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *Service
}

const maxDocumentBytes = 10 << 20 // 10 MiB

// Upload POST /api/v1/documents/upload — multipart "file" field.
func (h *Handlers) Upload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.Error(c, "No file provided", 400, nil)
	}
	if fileHeader.Size > maxDocumentBytes {
		return response.Error(c, "File too large", 400, nil)
	}

	f, err := fileHeader.Open()
	if err != nil {
		return response.Error(c, "Failed to read file", 400, nil)
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return response.Error(c, "Failed to read file", 400, nil)
	}

	uri, err := h.Service.Store(c.Context(), fileHeader.Filename, content)
	if err != nil {
		return response.Error(c, "Failed to store document", 502, nil)
	}
	return response.Success(c, "File uploaded successfully", fiber.Map{
		"documentURI": uri,
		"gatewayURL":  h.Service.Gateway(uri),
	}, nil)
}
