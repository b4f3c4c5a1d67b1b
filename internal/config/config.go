package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment overrides, e.g. BOOKNAV_PORT.
const EnvPrefix = "BOOKNAV_"

type Config struct {
	Port string `koanf:"port"`

	// Auth; empty disables it.
	APIKey string `koanf:"api_key"`

	// Base URL the book is served from; page paths are resolved against it.
	SiteURL string `koanf:"site_url"`

	// Navigation tree source. Both empty means the embedded tree.
	TreeFile    string `koanf:"tree_file"`
	SummaryFile string `koanf:"summary_file"`

	IndexName  string `koanf:"index_name"`
	StorageKey string `koanf:"storage_key"`

	// Session state
	SessionTTL time.Duration `koanf:"session_ttl"`

	// Headless layout
	RowHeight      int `koanf:"row_height"`
	ViewportHeight int `koanf:"viewport_height"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:           "8090",
		SiteURL:        "http://localhost:8090",
		IndexName:      "index.html",
		StorageKey:     "sidebar-scroll",
		SessionTTL:     30 * time.Minute,
		RowHeight:      32,
		ViewportHeight: 640,
	}
}

// Load reads the optional YAML file at path, then overlays BOOKNAV_*
// environment variables on top of the defaults.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	cfg := Defaults()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return cfg, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return cfg, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshalling config: %w", err)
	}

	defaults := Defaults()
	if cfg.Port == "" {
		cfg.Port = defaults.Port
	}
	if cfg.SiteURL == "" {
		cfg.SiteURL = defaults.SiteURL
	}
	if cfg.IndexName == "" {
		cfg.IndexName = defaults.IndexName
	}
	if cfg.StorageKey == "" {
		cfg.StorageKey = defaults.StorageKey
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaults.SessionTTL
	}
	if cfg.RowHeight <= 0 {
		cfg.RowHeight = defaults.RowHeight
	}
	if cfg.ViewportHeight <= 0 {
		cfg.ViewportHeight = defaults.ViewportHeight
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.TreeFile != "" && c.SummaryFile != "" {
		return fmt.Errorf("tree_file and summary_file are mutually exclusive")
	}
	if strings.Contains(c.IndexName, "/") {
		return fmt.Errorf("index_name must be a file name, got %q", c.IndexName)
	}
	u, err := url.Parse(c.SiteURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("site_url must be an absolute URL, got %q", c.SiteURL)
	}
	return nil
}
