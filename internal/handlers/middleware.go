package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/jjenkins/evcms/internal/cmserr"
	"github.com/jjenkins/evcms/internal/model"
	"go.uber.org/zap"
)

// CORS allows the editor, served from another origin, to call every route
func CORS(allowOrigins string) fiber.Handler {
	if allowOrigins == "" {
		allowOrigins = "*"
	}
	return cors.New(cors.Config{
		AllowOrigins: allowOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Requested-With",
	})
}

// NoCache marks every response as uncacheable by browsers and proxies
func NoCache() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderCacheControl, "no-cache, no-store, must-revalidate")
		c.Set(fiber.HeaderPragma, "no-cache")
		c.Set(fiber.HeaderExpires, "0")
		return c.Next()
	}
}

// ErrorHandler renders any error escaping a handler as an error body
func ErrorHandler(logger *zap.Logger, documentationURL string) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, message := statusOf(err)

		if status >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}

		return writeError(c, status, message, documentationURL)
	}
}

// statusOf maps an error to the status and message it is reported with
func statusOf(err error) (int, string) {
	var fe *fiber.Error
	var ce *cmserr.Error
	switch {
	case errors.As(err, &ce):
		return ce.Status(), ce.Message
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	}
	return fiber.StatusInternalServerError, "internal server error"
}

func writeError(c *fiber.Ctx, status int, message, documentationURL string) error {
	return c.Status(status).JSON(model.ErrorResponse{
		Message:          message,
		Status:           status,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
		DocumentationURL: documentationURL,
	})
}
