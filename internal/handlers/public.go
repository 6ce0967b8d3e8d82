package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jjenkins/evcms/internal/model"
	"github.com/jjenkins/evcms/internal/service"
	"github.com/jjenkins/evcms/internal/store"
)

// PublicFeedHandler returns the published items of a collection
func PublicFeedHandler(feed *service.FeedService, coll model.Collection) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := feed.Published(c.UserContext(), coll)
		if err != nil {
			return err
		}
		return c.JSON(items)
	}
}

// StatsHandler returns the current content metrics
func StatsHandler(metrics *service.MetricsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		m, err := metrics.Calculate(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(m)
	}
}

// AuditHandler lists recent audit events. Without a database the route
// does not exist.
func AuditHandler(auditStore *store.AuditStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if auditStore == nil {
			return fiber.NewError(fiber.StatusNotFound, "audit trail requires a database")
		}

		events, err := auditStore.Recent(c.UserContext(), c.QueryInt("limit", 50))
		if err != nil {
			return err
		}
		return c.JSON(events)
	}
}
