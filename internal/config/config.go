package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/hylla/skadi/internal/app"
)

// DefaultRebalanceDelayMS matches app.DefaultRebalanceDelay.
const DefaultRebalanceDelayMS = 250

type Config struct {
	Database  DatabaseConfig  `toml:"database"`
	Remote    RemoteConfig    `toml:"remote"`
	Logging   LoggingConfig   `toml:"logging"`
	Identity  IdentityConfig  `toml:"identity"`
	Board     BoardConfig     `toml:"board"`
	Rebalance RebalanceConfig `toml:"rebalance"`
	Server    ServerConfig    `toml:"server"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// RemoteConfig points the TUI at a running `skadi serve` instead of the local database.
type RemoteConfig struct {
	URL string `toml:"url"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type IdentityConfig struct {
	DisplayName string `toml:"display_name"`
}

type BoardConfig struct {
	Statuses []string `toml:"statuses"`
}

type RebalanceConfig struct {
	DelayMS int `toml:"delay_ms"`
}

type ServerConfig struct {
	Bind            string  `toml:"bind"`
	APIEndpoint     string  `toml:"api_endpoint"`
	MCPEndpoint     string  `toml:"mcp_endpoint"`
	MetricsEndpoint string  `toml:"metrics_endpoint"`
	RateLimit       float64 `toml:"rate_limit"`
	RateBurst       int     `toml:"rate_burst"`
}

func Default(dbPath string) Config {
	user := strings.TrimSpace(os.Getenv("USER"))
	if user == "" {
		user = "me"
	}
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     ".skadi/log",
			},
		},
		Identity: IdentityConfig{
			DisplayName: user,
		},
		Board: BoardConfig{
			Statuses: append([]string(nil), app.DefaultStatuses...),
		},
		Rebalance: RebalanceConfig{
			DelayMS: DefaultRebalanceDelayMS,
		},
		Server: ServerConfig{
			Bind:            "127.0.0.1:8080",
			APIEndpoint:     "/api/v1",
			MCPEndpoint:     "/mcp",
			MetricsEndpoint: "/metrics",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("database path is required")
	}

	if raw := strings.TrimSpace(c.Remote.URL); raw != "" {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid remote.url: %q", c.Remote.URL)
		}
	}

	if _, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(c.Logging.Level))); err != nil {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	if len(c.Board.Statuses) == 0 {
		return errors.New("board.statuses must include at least one status")
	}
	seen := map[string]struct{}{}
	for idx, raw := range c.Board.Statuses {
		title := strings.TrimSpace(raw)
		if title == "" {
			return fmt.Errorf("board.statuses[%d] is empty", idx)
		}
		key := strings.ToLower(title)
		if _, ok := seen[key]; ok {
			return fmt.Errorf("board.statuses[%d] is duplicated: %s", idx, title)
		}
		seen[key] = struct{}{}
	}

	if c.Rebalance.DelayMS < 0 {
		return errors.New("rebalance.delay_ms must be >= 0")
	}
	if c.Server.RateLimit < 0 {
		return errors.New("server.rate_limit must be >= 0")
	}
	if c.Server.RateBurst < 0 {
		return errors.New("server.rate_burst must be >= 0")
	}
	return nil
}

// RebalanceDelay returns the debounce delay for background rebalances.
func (c Config) RebalanceDelay() time.Duration {
	return time.Duration(c.Rebalance.DelayMS) * time.Millisecond
}

// LogLevel returns the configured level, falling back to info.
func (c Config) LogLevel() log.Level {
	level, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(c.Logging.Level)))
	if err != nil {
		return log.InfoLevel
	}
	return level
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
