package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jjenkins/evcms/internal/handlers"
	"github.com/jjenkins/evcms/internal/service"
	"github.com/jjenkins/evcms/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var port string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the CMS content proxy",
	Long: `Start the HTTP server exposing the editor action endpoint, the contents
API, media uploads and the public JSON feeds.

Set database.url (or DATABASE_URL) to keep an audit trail and metric history
in PostgreSQL.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&port, "port", "p", "", "Port to run the server on (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if port != "" {
		cfg.Server.Port = port
	}

	a, err := newApp(cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()
	log := a.logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Auditing
	auditors := service.MultiAuditor{service.NewLogAuditor(log)}
	if a.db != nil {
		if err := store.Migrate(ctx, a.db); err != nil {
			return err
		}
		auditors = append(auditors, service.NewDBAuditor(a.audits, log))
		log.Info("audit trail enabled")
	}

	urls := service.NewURLBuilder(cfg.Server.BaseURL, cfg.Repo.Owner, cfg.Repo.Name, cfg.Repo.Branch)
	cms := service.NewCMS(a.content, a.media, urls, service.CMSOptions{
		Version:         version,
		Owner:           cfg.Repo.Owner,
		Repo:            cfg.Repo.Name,
		Branch:          cfg.Repo.Branch,
		PublicMediaPath: cfg.Content.PublicMediaPath,
		Collections:     collectionNames(),
	})

	cache := service.NewResponseCache(cfg.CacheDuration(), nil)
	router := service.NewRouter(cms, cache, auditors, log, service.RouterOptions{
		InFlightTimeout:  cfg.InFlightTimeout(),
		DocumentationURL: cfg.Server.DocumentationURL,
	})

	go cache.Run(ctx, cfg.SweepInterval())

	if cfg.Content.Watch {
		watcher := store.NewWatcher(a.watchDirs(), func() {
			log.Debug("content changed on disk, invalidating cache")
			router.Invalidate()
		}, log)
		go func() {
			if err := watcher.Run(ctx); err != nil {
				log.Warn("content watcher stopped", zap.Error(err))
			}
		}()
	}

	metrics := a.metricsService()
	if a.db != nil {
		go func() {
			if _, err := metrics.CalculateAndStore(ctx); err != nil {
				log.Warn("failed to store startup metrics", zap.Error(err))
			}
		}()
	}

	app := fiber.New(fiber.Config{
		AppName:               "evcms",
		BodyLimit:             int(cfg.Content.MaxUploadBytes) + 1<<20,
		ErrorHandler:          handlers.ErrorHandler(log, cfg.Server.DocumentationURL),
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(handlers.CORS(cfg.Server.AllowOrigins))
	app.Use(handlers.NoCache())

	handlers.Register(app, handlers.Deps{
		Router:  router,
		CMS:     cms,
		Feed:    a.feed,
		Metrics: metrics,
		EditorConfig: service.NewEditorConfig(service.EditorConfigOptions{
			BaseURL:            cfg.Server.BaseURL,
			Owner:              cfg.Repo.Owner,
			Repo:               cfg.Repo.Name,
			Branch:             cfg.Repo.Branch,
			IntelligenceFolder: cfg.Content.IntelligenceFolder,
			ModelsFolder:       cfg.Content.ModelsFolder,
			MediaFolder:        cfg.Content.MediaFolder,
			PublicMediaPath:    cfg.Content.PublicMediaPath,
		}),
		Content:        a.content,
		AuditStore:     a.audits,
		MaxUploadBytes: cfg.Content.MaxUploadBytes,
		Version:        version,
		Logger:         log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server",
			zap.String("port", cfg.Server.Port),
			zap.String("root", a.content.Root()),
			zap.String("base_url", cfg.Server.BaseURL),
		)
		errCh <- app.Listen(":" + cfg.Server.Port)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
