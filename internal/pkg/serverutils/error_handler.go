package serverutils

import (
	"plantguard-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// ErrorHandler renders any error returned by a handler as {"detail": ...}.
// Server errors are logged with the request ID.
func ErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		code, message := StatusOf(err)

		details := map[string]interface{}{
			"method":     ctx.Method(),
			"path":       ctx.Path(),
			"status":     code,
			"error":      err.Error(),
			"request_id": RequestID(ctx),
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("http", "Request failed", details)
		} else {
			log.Warn("http", "Request rejected", details)
		}

		return ctx.Status(code).JSON(ErrorResponse(message))
	}
}

// RequestID returns the ID assigned by the requestid middleware, if any.
func RequestID(ctx *fiber.Ctx) string {
	if id, ok := ctx.Locals(requestid.ConfigDefault.ContextKey).(string); ok {
		return id
	}
	return ""
}
