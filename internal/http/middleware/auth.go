package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"docsmanager/internal/model"
	"docsmanager/internal/service"
)

// ActorLocalKey is the key under which Auth stores the *model.Actor.
const ActorLocalKey = "actor"

// Authenticator resolves a session token to its principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Actor, error)
}

// Auth rejects requests without a valid session with 401.
// The token is read from the cookieName cookie, falling back to an
// "Authorization: Bearer" header.
func Auth(a Authenticator, cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := a.Authenticate(c.UserContext(), TokenFromCtx(c, cookieName))
		if err != nil {
			if errors.Is(err, service.ErrUnauthenticated) {
				return fiber.ErrUnauthorized
			}
			return err
		}
		c.Locals(ActorLocalKey, actor)
		return c.Next()
	}
}

// TokenFromCtx returns the session token of the request, or "".
func TokenFromCtx(c *fiber.Ctx, cookieName string) string {
	if token := c.Cookies(cookieName); token != "" {
		return token
	}
	const prefix = "Bearer "
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

// ActorFromCtx returns the authenticated principal, or nil.
func ActorFromCtx(c *fiber.Ctx) *model.Actor {
	a, _ := c.Locals(ActorLocalKey).(*model.Actor)
	return a
}
