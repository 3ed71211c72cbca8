package handler

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"docsmanager/internal/http/middleware"
	"docsmanager/internal/service"
	"docsmanager/internal/validation"
)

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

type loginResponse struct {
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginFormDescriptor describes the login form.
//
// @Summary  Login form descriptor
// @Tags     users
// @Produce  json
// @Success  200 {object} formDescriptor
// @Router   /users/ [get]
func LoginFormDescriptor() fiber.Handler {
	desc := formDescriptor{
		Fields: []formField{
			{Name: "username", Type: "text", Required: true, MaxLength: 150},
			{Name: "password", Type: "password", Required: true, MaxLength: 128},
		},
	}
	return func(c *fiber.Ctx) error {
		return c.JSON(desc)
	}
}

// Login verifies credentials and sets the session cookie.
//
// @Summary  Log in
// @Tags     users
// @Accept   x-www-form-urlencoded
// @Produce  json
// @Param    username formData string true "username"
// @Param    password formData string true "password"
// @Success  200 {object} loginResponse
// @Failure  400 {object} errorPayload
// @Failure  401 {object} errorPayload
// @Router   /users/ [post]
func Login(users service.AuthService, cookie CookieConfig, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var form validation.LoginForm
		if err := c.BodyParser(&form); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "malformed request body")
		}

		sess, err := users.Login(c.UserContext(), form)
		if err != nil {
			return respondError(c, log, err)
		}

		c.Cookie(&fiber.Cookie{
			Name:     cookie.Name,
			Value:    sess.Token,
			Path:     "/",
			Expires:  sess.ExpiresAt,
			HTTPOnly: true,
			Secure:   cookie.Secure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		return c.JSON(loginResponse{
			Message:   fmt.Sprintf("Welcome, %s!", sess.User.Username),
			Token:     sess.Token,
			ExpiresAt: sess.ExpiresAt,
		})
	}
}

// Logout revokes the current session and clears the cookie.
//
// @Summary  Log out
// @Tags     users
// @Produce  json
// @Success  200 {object} messageResponse
// @Router   /users/logout/ [post]
func Logout(users service.AuthService, cookie CookieConfig, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := middleware.TokenFromCtx(c, cookie.Name); token != "" {
			if err := users.Logout(c.UserContext(), token); err != nil {
				return respondError(c, log, err)
			}
		}

		c.Cookie(&fiber.Cookie{
			Name:     cookie.Name,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			HTTPOnly: true,
			Secure:   cookie.Secure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		return c.JSON(messageResponse{Message: "You have been logged out."})
	}
}
