package handlers

import (
	"github.com/a-h/templ"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jjenkins/evcms/internal/model"
	"github.com/jjenkins/evcms/internal/service"
	"github.com/jjenkins/evcms/internal/templates"
	"go.uber.org/zap"
)

const recentLimit = 10

func HomeHandler(feed *service.FeedService, metrics *service.MetricsService, version string, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		data := templates.HomeData{Name: service.ServerName, Version: version}

		m, err := metrics.Calculate(ctx)
		if err != nil {
			logger.Error("failed to calculate metrics", zap.Error(err))
		} else {
			data.Collections = m.Collections
			data.HasData = m.TotalItems > 0
		}

		if data.HasData {
			var recent []model.ContentItem
			for _, coll := range model.Collections {
				items, err := feed.Items(ctx, coll, true)
				if err != nil {
					logger.Error("failed to load items", zap.String("collection", string(coll)), zap.Error(err))
					continue
				}
				recent = append(recent, items...)
			}
			service.SortItems(recent)
			if len(recent) > recentLimit {
				recent = recent[:recentLimit]
			}
			data.Recent = recent
		}

		page := templates.Home(data)
		handler := adaptor.HTTPHandler(templ.Handler(page))

		return handler(c)
	}
}
