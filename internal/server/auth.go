package server

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/repokit/repokit/internal/auth"
)

// newAuthMiddleware requires a bearer token when authentication is enabled.
// Safe methods need the read scope, everything else the write scope.
func newAuthMiddleware(authSvc *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !authSvc.Enabled() {
			return c.Next()
		}

		token, _ := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")

		claims, err := authSvc.ValidateJWT(strings.TrimSpace(token))
		if errors.Is(err, auth.ErrTokenMissing) || errors.Is(err, auth.ErrTokenInvalid) {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		if err != nil {
			return err //nolint:wrapcheck //already wrapped
		}

		scope := auth.ScopeWrite
		if c.Method() == fiber.MethodGet || c.Method() == fiber.MethodHead {
			scope = auth.ScopeRead
		}

		if !claims.Allows(scope) {
			return fiber.NewError(fiber.StatusForbidden, "token scope does not allow "+string(scope))
		}

		return c.Next()
	}
}
