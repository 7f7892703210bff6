// Package middlewares contains the fiber middleware shared by API routes.
package middlewares

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/ragstack/ragstack/internal/auth"
)

const identityLocalKey = "identity"

// RequireAuth validates the Authorization header with the given verifier and
// stores the resulting identity on the request context.
func RequireAuth(verifier auth.TokenVerifier) fiber.Handler {
	return func(c fiber.Ctx) error {
		identity, err := verifier.ValidateToken(c.Get("Authorization"))
		if err != nil {
			log.Debug().Err(err).Str("path", c.Path()).Msg("Rejected unauthenticated request")
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or missing token")
		}

		c.Locals(identityLocalKey, identity)

		return c.Next()
	}
}

// IdentityFromCtx returns the identity stored by RequireAuth.
func IdentityFromCtx(c fiber.Ctx) (auth.Identity, bool) {
	identity, ok := c.Locals(identityLocalKey).(auth.Identity)

	return identity, ok
}
