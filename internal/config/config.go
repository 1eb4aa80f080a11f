package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Engine    EngineConfig    `toml:"engine"`
	Data      DataConfig      `toml:"data"`
	Database  DatabaseConfig  `toml:"database"`
	Scripting ScriptingConfig `toml:"scripting"`
	Gateway   GatewayConfig   `toml:"gateway"`
	Logging   LoggingConfig   `toml:"logging"`
}

type ServerConfig struct {
	Name      string `toml:"name"`
	StartTime int64  // set at boot, not from config
}

type EngineConfig struct {
	TickRate         time.Duration `toml:"tick_rate"`
	StartingCurrency int           `toml:"starting_currency"`
	StartingLives    int           `toml:"starting_lives"`
	SellRefund       float64       `toml:"sell_refund"` // fraction of cumulative spend, (0,1]
	CommandQueueSize int           `toml:"command_queue_size"`
	Seed             int64         `toml:"seed"` // drop-roll RNG seed; 0 seeds from the clock
}

type DataConfig struct {
	Dir string `toml:"dir"` // directory holding towers.yaml, enemies.yaml, waves.yaml, map.yaml, collectibles.yaml
}

type DatabaseConfig struct {
	Enabled         bool          `toml:"enabled"` // scores kept in memory when false
	DSN             string        `toml:"dsn"`
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type ScriptingConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"` // directory holding waves.lua and friends
}

type GatewayConfig struct {
	BindAddress  string        `toml:"bind_address"`
	WriteTimeout time.Duration `toml:"write_timeout"`
	EventBuffer  int           `toml:"event_buffer"` // per-client outbound event queue
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Server.StartTime = time.Now().Unix()
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Engine.TickRate <= 0 {
		return fmt.Errorf("engine.tick_rate must be positive, got %v", c.Engine.TickRate)
	}
	if c.Engine.SellRefund <= 0 || c.Engine.SellRefund > 1 {
		return fmt.Errorf("engine.sell_refund must be in (0,1], got %v", c.Engine.SellRefund)
	}
	if c.Engine.StartingLives <= 0 {
		return fmt.Errorf("engine.starting_lives must be positive, got %d", c.Engine.StartingLives)
	}
	if c.Engine.StartingCurrency < 0 {
		return fmt.Errorf("engine.starting_currency must not be negative, got %d", c.Engine.StartingCurrency)
	}
	return nil
}

// Defaults returns a runnable configuration; Load overlays the TOML file on
// top of it, so a partial file is fine.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name: "td-engine",
		},
		Engine: EngineConfig{
			TickRate:         50 * time.Millisecond,
			StartingCurrency: 100,
			StartingLives:    20,
			SellRefund:       0.7,
			CommandQueueSize: 128,
		},
		Data: DataConfig{
			Dir: "data",
		},
		Database: DatabaseConfig{
			Enabled:         false,
			DSN:             "postgres://td:td@localhost:5432/td?sslmode=disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Scripting: ScriptingConfig{
			Enabled: false,
			Dir:     "scripts",
		},
		Gateway: GatewayConfig{
			BindAddress:  "127.0.0.1:8080",
			WriteTimeout: 10 * time.Second,
			EventBuffer:  256,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
