package middleware

import (
	"soulcertify-backend/internal/pkg/response"
	"soulcertify-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

const addressHeader = "X-Wallet-Address"
const callerLocal = "caller"

// Identity reads the wallet address supplied by the wallet layer and stores
// it in Locals. The address is advisory on read paths; mutating routes add
// RequireIdentity on top.
func Identity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		addr := c.Get(addressHeader)
		if addr != "" && validation.IsValidAddress(addr) {
			c.Locals(callerLocal, addr)
		}
		return c.Next()
	}
}

// RequireIdentity rejects requests that carry no valid wallet address.
func RequireIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetCaller(c) == "" {
			return response.Unauthorized(c, "Wallet address required")
		}
		return c.Next()
	}
}

// GetCaller returns the caller's wallet address ("" if none was supplied).
func GetCaller(c *fiber.Ctx) string {
	addr, _ := c.Locals(callerLocal).(string)
	return addr
}
