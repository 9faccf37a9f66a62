package health

import (
	"database/sql"

	"soulcertify-backend/internal/middleware"
	"soulcertify-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

type Handlers struct {
	Rdb            *redis.Client
	DB             *sql.DB
	HealthAdminKey string
}

func (h *Handlers) pinger() DBPinger {
	if h.DB == nil {
		return nil
	}
	return h.DB
}

// JSON GET /health/json
func (h *Handlers) JSON(c *fiber.Ctx) error {
	result := CollectHealth(c.Context(), h.Rdb, h.pinger())
	return c.JSON(result)
}

// Errors GET /health/errors — recent 5xx log, admin key required.
func (h *Handlers) Errors(c *fiber.Ctx) error {
	if h.HealthAdminKey == "" || c.Query("key") != h.HealthAdminKey {
		return response.Unauthorized(c, "Unauthorized")
	}
	if h.Rdb == nil {
		return c.JSON([]string{})
	}
	entries, err := h.Rdb.LRange(c.Context(), middleware.KeyErrorLog, 0, 49).Result()
	if err != nil {
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return c.JSON(entries)
}

// Reset GET /reset — clears accumulated traffic stats, admin key required.
func (h *Handlers) Reset(c *fiber.Ctx) error {
	if h.HealthAdminKey == "" || c.Query("key") != h.HealthAdminKey {
		return response.Unauthorized(c, "Unauthorized")
	}
	if h.Rdb != nil {
		h.Rdb.Del(c.Context(),
			middleware.KeyReqTotal,
			middleware.KeyReqErrors,
			middleware.KeyResTime,
			middleware.KeyResCount,
			middleware.KeyStartTime,
			middleware.KeyLastReq,
			middleware.KeyErrorLog,
		)
	}
	return response.Success(c, "Health stats reset", nil, nil)
}
