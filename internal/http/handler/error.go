package handler

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"docsmanager/internal/http/middleware"
	"docsmanager/internal/service"
	"docsmanager/internal/validation"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Details []validation.FieldError `json:"details,omitempty"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return writeErrorDetails(c, status, code, message, nil)
}

func writeErrorDetails(c *fiber.Ctx, status int, code, message string, details []validation.FieldError) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
	return c.Status(status).JSON(res)
}

// respondError translates a service error into its HTTP response.
// Unexpected errors are logged with detail and answered with a generic 500.
func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	var (
		verrs  validation.Errors
		stoErr *service.StorageError
	)
	switch {
	case errors.As(err, &verrs):
		return writeErrorDetails(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "submitted data is invalid", verrs)
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
	case errors.Is(err, service.ErrPermissionDenied):
		return writeError(c, fiber.StatusForbidden, "PERMISSION_DENIED", "you do not have permission to perform this action")
	case errors.Is(err, service.ErrInvalidCredentials):
		return writeError(c, fiber.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid username or password")
	case errors.Is(err, service.ErrUnauthenticated):
		return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
	case errors.As(err, &stoErr):
		logger(log).Error("storage_error",
			zap.String("request_id", requestIDFromCtx(c)),
			zap.String("op", stoErr.Op),
			zap.Error(stoErr.Err),
		)
		return writeError(c, fiber.StatusInternalServerError, "STORAGE_ERROR", "the file could not be stored or read, try again later")
	default:
		logger(log).Error("internal_error",
			zap.String("request_id", requestIDFromCtx(c)),
			zap.Error(err),
		)
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

func logger(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return ErrorHandlerFor(0)
}

// ErrorHandlerFor is ErrorHandler for a server accepting uploads up to maxUpload bytes.
// Bodies rejected by the body limit are then reported as a TooLarge file error.
func ErrorHandlerFor(maxUpload int64) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var e *fiber.Error
		if errors.As(err, &e) {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			return writeError(c, status, "UNAUTHORIZED", "authentication required")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			if maxUpload <= 0 {
				return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
			}
			msg := "File too large! Max " + validation.FormatMB(maxUpload)
			if n := c.Request().Header.ContentLength(); n > 0 {
				msg += fmt.Sprintf(" (%s)", validation.FormatMB(int64(n)))
			}
			return writeErrorDetails(c, status, "PAYLOAD_TOO_LARGE", "request body too large", []validation.FieldError{
				{Field: "file", Code: string(validation.KindTooLarge), Message: msg},
			})
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
