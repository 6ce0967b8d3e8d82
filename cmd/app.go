package cmd

import (
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/jjenkins/evcms/internal/config"
	"github.com/jjenkins/evcms/internal/logging"
	"github.com/jjenkins/evcms/internal/model"
	"github.com/jjenkins/evcms/internal/service"
	"github.com/jjenkins/evcms/internal/store"
	"go.uber.org/zap"
)

// app is the wired set of stores and services shared by every command
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	content *store.ContentStore
	media   *store.MediaStore
	feed    *service.FeedService
	db      *sql.DB
	audits  *store.AuditStore
	metrics *store.MetricStore
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagRoot != "" {
		cfg.Content.Root = flagRoot
	}
	return cfg, nil
}

// newApp builds the stores from cfg. The database is opened only when
// withDB is set and a URL is configured.
func newApp(cfg *config.Config, withDB bool) (*app, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	content, err := store.NewContentStore(cfg.Content.Root)
	if err != nil {
		return nil, err
	}
	media, err := store.NewMediaStore(content, cfg.Content.MediaFolder)
	if err != nil {
		return nil, fmt.Errorf("invalid media folder: %w", err)
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		content: content,
		media:   media,
		feed:    service.NewFeedService(content, collectionFolders(cfg)),
	}

	if withDB && cfg.Database.URL != "" {
		db, err := store.NewDB(cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		a.db = db
		a.audits = store.NewAuditStore(db)
		a.metrics = store.NewMetricStore(db)
	}

	return a, nil
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	_ = a.logger.Sync()
}

// metricsService returns a MetricsService that stores into Postgres when a
// database is open
func (a *app) metricsService() *service.MetricsService {
	if a.metrics == nil {
		return service.NewMetricsService(a.feed, nil)
	}
	return service.NewMetricsService(a.feed, a.metrics)
}

// watchDirs are the absolute directories whose changes invalidate cached
// responses
func (a *app) watchDirs() []string {
	dirs := make([]string, 0, len(model.Collections)+1)
	for _, coll := range model.Collections {
		dirs = append(dirs, filepath.Join(a.content.Root(), filepath.FromSlash(a.cfg.FolderFor(coll))))
	}
	dirs = append(dirs, filepath.Join(a.content.Root(), filepath.FromSlash(a.media.Folder())))
	return dirs
}

func collectionFolders(cfg *config.Config) map[model.Collection]string {
	folders := make(map[model.Collection]string, len(model.Collections))
	for _, coll := range model.Collections {
		folders[coll] = cfg.FolderFor(coll)
	}
	return folders
}

func collectionNames() []string {
	names := make([]string, 0, len(model.Collections))
	for _, coll := range model.Collections {
		names = append(names, string(coll))
	}
	return names
}
