package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/vbonduro/spaceaccess/internal/domain"
)

type Config struct {
	ListenAddr string `env:"LISTEN_ADDR, default=:8080"`
	DBPath     string `env:"DB_PATH, default=/data/spaceaccess.db"`
	ExportPath string `env:"EXPORT_PATH, default=/data/exports"`
	// RecentLimit caps the recent-events list when no explicit limit is given.
	RecentLimit int `env:"RECENT_LIMIT, default=200"`

	Log  LogConfig
	Scan ScanConfig
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL, default=info"`
	Format string `env:"LOG_FORMAT, default=json"`
	File   string `env:"LOG_FILE"`
}

// ScanConfig drives the line-oriented scanner listener. An empty Input
// disables it; "stdin" reads standard input; anything else is a path.
type ScanConfig struct {
	Input      string    `env:"SCAN_INPUT"`
	EventType  string    `env:"SCAN_EVENT_TYPE, default=entry"`
	LocationID uuid.UUID `env:"SCAN_LOCATION_ID, default=11111111-1111-1111-1111-111111111111"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load(context.Background(), envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	typ, err := domain.ParseEventType(c.Scan.EventType)
	if err != nil {
		return fmt.Errorf("invalid SCAN_EVENT_TYPE %q: %w", c.Scan.EventType, err)
	}
	c.Scan.EventType = string(typ)

	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("invalid LOG_FORMAT %q: must be json or text", c.Log.Format)
	}
	if c.RecentLimit <= 0 {
		return fmt.Errorf("invalid RECENT_LIMIT %d: must be positive", c.RecentLimit)
	}
	return nil
}
