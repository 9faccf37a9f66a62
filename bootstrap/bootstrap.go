package bootstrap

import (
	"soulcertify-backend/internal/app"
	"soulcertify-backend/internal/config"

	"github.com/gofiber/fiber/v2"
)

// New creates the Fiber app from environment configuration.
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	a, _, _, err := app.CreateApp(cfg)
	return a, err
}
