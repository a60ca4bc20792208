// # internal/config/config.go
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	// SearchPath lists the directories module names are resolved against,
	// in order, like PYTHONPATH.
	SearchPath []string `toml:"search_path"`
	Exclude    Exclude  `toml:"exclude"`
	Cache      Cache    `toml:"cache"`
	History    History  `toml:"history"`
	Serve      Serve    `toml:"serve"`
	Watch      Watch    `toml:"watch"`
	Render     Render   `toml:"render"`
}

type Exclude struct {
	// Dirs and Files are glob patterns matched against watched paths.
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Cache struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type History struct {
	Path string `toml:"path"`
}

type Serve struct {
	Addr string `toml:"addr"`
	// RateLimit is requests per second per server; Burst caps short spikes.
	RateLimit float64 `toml:"rate_limit"`
	Burst     int     `toml:"burst"`
}

type Watch struct {
	Debounce time.Duration `toml:"debounce"`
}

type Render struct {
	// ShowPrivate includes private-shaped names; ShowImported includes
	// members defined in other modules.
	ShowPrivate  bool `toml:"show_private"`
	ShowImported bool `toml:"show_imported"`
	ShowSource   bool `toml:"show_source"`
}

func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if len(cfg.SearchPath) == 0 {
		cfg.SearchPath = []string{"."}
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = defaultStateDir("cache")
	}
	if cfg.History.Path == "" {
		cfg.History.Path = filepath.Join(defaultStateDir("history"), "history.db")
	}
	if cfg.Serve.Addr == "" {
		cfg.Serve.Addr = "localhost:8080"
	}
	if cfg.Serve.RateLimit == 0 {
		cfg.Serve.RateLimit = 20
	}
	if cfg.Serve.Burst == 0 {
		cfg.Serve.Burst = 40
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
}

func defaultStateDir(sub string) string {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".supdoc", sub)
		}
		base = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(base, "supdoc", sub)
}
