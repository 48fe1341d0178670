package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/omnibus/internal/address"
	"github.com/congo-pay/omnibus/internal/auth"
)

const callerKey = "caller"

// Caller validates the bearer token and stores the caller address for
// downstream handlers.
func Caller(svc *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		addr, err := svc.Verify(strings.TrimSpace(authz[len("Bearer "):]))
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}
		c.Locals(callerKey, addr)
		return c.Next()
	}
}

// CallerFrom returns the address stored by Caller.
func CallerFrom(c *fiber.Ctx) (address.Address, bool) {
	addr, ok := c.Locals(callerKey).(address.Address)
	return addr, ok
}
