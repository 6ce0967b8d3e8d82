package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jjenkins/evcms/internal/model"
	"github.com/jjenkins/evcms/internal/service"
	"github.com/jjenkins/evcms/internal/store"
	"go.uber.org/zap"
)

// Deps holds everything the routes are built from. AuditStore is nil when no
// database is configured.
type Deps struct {
	Router         *service.Router
	CMS            *service.CMS
	Feed           *service.FeedService
	Metrics        *service.MetricsService
	EditorConfig   *service.EditorConfig
	Content        *store.ContentStore
	AuditStore     *store.AuditStore
	MaxUploadBytes int64
	Version        string
	Logger         *zap.Logger
}

// Register mounts every route on app
func Register(app *fiber.App, d Deps) {
	cms := CMSHandler(d.Router)

	// Upload must be registered ahead of the catch-all CMS routes
	app.Post(service.MediaPath, MediaUploadHandler(d.CMS, d.Router, d.MaxUploadBytes))
	app.All(service.ActionPath, cms)
	app.All(service.MediaPath, cms)
	app.All(service.InfoPath, cms)
	app.All(service.ContentsPrefix+"*", cms)

	// Editor configuration
	app.Get("/api/cms/config", EditorConfigHandler(d.EditorConfig))
	app.Get("/admin/config.yml", EditorConfigYAMLHandler(d.EditorConfig))

	// Public site
	app.Get("/api/public/intelligence", PublicFeedHandler(d.Feed, model.CollectionIntelligence))
	app.Get("/api/public/models", PublicFeedHandler(d.Feed, model.CollectionModels))

	app.Get("/api/stats", StatsHandler(d.Metrics))
	app.Get("/api/audit", AuditHandler(d.AuditStore))
	app.Get("/raw/*", RawHandler(d.Content))

	app.Get("/", HomeHandler(d.Feed, d.Metrics, d.Version, d.Logger))
}
