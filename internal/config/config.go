package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/jjenkins/evcms/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

type ServerConfig struct {
	Port             string `yaml:"port"`
	BaseURL          string `yaml:"base_url"`
	AllowOrigins     string `yaml:"allow_origins"`
	DocumentationURL string `yaml:"documentation_url"`
}

type ContentConfig struct {
	Root               string `yaml:"root"`
	IntelligenceFolder string `yaml:"intelligence_folder"`
	ModelsFolder       string `yaml:"models_folder"`
	MediaFolder        string `yaml:"media_folder"`
	PublicMediaPath    string `yaml:"public_media_path"`
	MaxUploadBytes     int64  `yaml:"max_upload_bytes"`
	Watch              bool   `yaml:"watch"`
}

type CacheConfig struct {
	Duration        string `yaml:"duration"`
	SweepInterval   string `yaml:"sweep_interval"`
	InFlightTimeout string `yaml:"inflight_timeout"`
}

type RepoConfig struct {
	Owner  string `yaml:"owner"`
	Name   string `yaml:"name"`
	Branch string `yaml:"branch"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // "console" or "json"
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Content  ContentConfig  `yaml:"content"`
	Cache    CacheConfig    `yaml:"cache"`
	Repo     RepoConfig     `yaml:"repo"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
}

// CacheDuration is how long a response stays servable. Defaults to 5s.
func (c *Config) CacheDuration() time.Duration {
	return parseDuration(c.Cache.Duration, 5*time.Second)
}

// SweepInterval is how often stale cache entries are evicted. Defaults to 1m.
func (c *Config) SweepInterval() time.Duration {
	return parseDuration(c.Cache.SweepInterval, time.Minute)
}

// InFlightTimeout bounds how long a request stays registered as in flight.
func (c *Config) InFlightTimeout() time.Duration {
	return parseDuration(c.Cache.InFlightTimeout, 30*time.Second)
}

// FolderFor returns the repository-relative folder of a collection.
func (c *Config) FolderFor(coll model.Collection) string {
	switch coll {
	case model.CollectionIntelligence:
		return c.Content.IntelligenceFolder
	case model.CollectionModels:
		return c.Content.ModelsFolder
	}
	return ""
}

// CollectionFor maps a repository-relative folder back to its collection.
func (c *Config) CollectionFor(folder string) (model.Collection, bool) {
	folder = strings.Trim(filepath.ToSlash(filepath.Clean(folder)), "/")
	for _, coll := range model.Collections {
		if strings.Trim(c.FolderFor(coll), "/") == folder {
			return coll, true
		}
	}
	return "", false
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "evcms", "config.yaml")
}

// Default returns the embedded default configuration.
func Default() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

// Load reads the config at path over the embedded defaults and applies
// environment overrides. An empty path means the XDG default location, which
// may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// defaults only
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	applyEnv(cfg, os.Getenv)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := getenv("EVCMS_BASE_URL"); v != "" {
		cfg.Server.BaseURL = v
	}
	if v := getenv("EVCMS_CONTENT_ROOT"); v != "" {
		cfg.Content.Root = v
	}
	if v := getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := getenv("EVCMS_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	u, err := url.Parse(cfg.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("server.base_url: invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server.base_url: scheme must be http or https, got %q", u.Scheme)
	}
	if cfg.Content.Root == "" {
		return fmt.Errorf("content.root is required")
	}
	for name, folder := range map[string]string{
		"content.intelligence_folder": cfg.Content.IntelligenceFolder,
		"content.models_folder":       cfg.Content.ModelsFolder,
		"content.media_folder":        cfg.Content.MediaFolder,
	} {
		if folder == "" {
			return fmt.Errorf("%s is required", name)
		}
		if filepath.IsAbs(folder) || strings.HasPrefix(filepath.Clean(folder), "..") {
			return fmt.Errorf("%s must be relative to content.root, got %q", name, folder)
		}
	}
	if cfg.Content.MaxUploadBytes <= 0 {
		return fmt.Errorf("content.max_upload_bytes must be positive")
	}
	switch cfg.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q (valid: console, json)", cfg.Log.Format)
	}
	return nil
}
