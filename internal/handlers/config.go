package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jjenkins/evcms/internal/cmserr"
	"github.com/jjenkins/evcms/internal/service"
	"gopkg.in/yaml.v3"
)

// EditorConfigHandler serves the editor document as JSON
func EditorConfigHandler(cfg *service.EditorConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(cfg)
	}
}

// EditorConfigYAMLHandler serves the editor document as YAML, the form the
// editor loads from its admin folder
func EditorConfigYAMLHandler(cfg *service.EditorConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return cmserr.Internal(err, "failed to encode editor config")
		}
		c.Set(fiber.HeaderContentType, "text/yaml; charset=utf-8")
		return c.Send(out)
	}
}
