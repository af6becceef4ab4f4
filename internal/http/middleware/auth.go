package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"textscrub/internal/auth"
	"textscrub/internal/model"
)

// PrincipalLocalKey is where RequireAdmin stores the authenticated model.Principal.
const PrincipalLocalKey = "principal"

// Authenticator resolves and authorizes bearer tokens.
type Authenticator interface {
	Authenticate(header string) (model.Principal, error)
	Authorize(p model.Principal) error
}

// RequireAdmin rejects the request with 401 when the Authorization header
// does not resolve to a principal, and with 403 when the principal lacks the
// admin role. Rejected requests never reach the next handler.
func RequireAdmin(a Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := a.Authenticate(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}
		if err := a.Authorize(p); err != nil {
			if errors.Is(err, auth.ErrForbidden) {
				return fiber.NewError(fiber.StatusForbidden, "insufficient role")
			}
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}
		c.Locals(PrincipalLocalKey, p)
		return c.Next()
	}
}
