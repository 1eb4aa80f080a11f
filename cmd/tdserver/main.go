package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/brandon-schabel/td-engine-sub006/internal/config"
	"github.com/brandon-schabel/td-engine-sub006/internal/core/event"
	"github.com/brandon-schabel/td-engine-sub006/internal/data"
	"github.com/brandon-schabel/td-engine-sub006/internal/gateway"
	"github.com/brandon-schabel/td-engine-sub006/internal/persist"
	"github.com/brandon-schabel/td-engine-sub006/internal/scripting"
	"github.com/brandon-schabel/td-engine-sub006/internal/sim"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := "config/server.toml"
	if p := os.Getenv("TD_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	tables, err := data.LoadAll(cfg.Data.Dir)
	if err != nil {
		return fmt.Errorf("load tables: %w", err)
	}
	log.Info("tables loaded",
		zap.Int("towers", tables.Towers.Len()),
		zap.Int("enemies", tables.Enemies.Len()),
		zap.Int("waves", tables.Waves.Last()),
		zap.Int("collectibles", tables.Collectibles.Len()))

	// Scores go to Postgres when configured, otherwise live in memory.
	var scores persist.ScoreStore = persist.NewMemoryScoreStore()
	if cfg.Database.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		if err := persist.RunMigrations(ctx, db.Pool); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		scores = persist.NewScoreRepo(db)
		log.Info("database connected", zap.Int("max_conns", cfg.Database.MaxOpenConns))
	}

	opts := sim.Options{
		StartingCurrency: cfg.Engine.StartingCurrency,
		StartingLives:    cfg.Engine.StartingLives,
		SellRefund:       cfg.Engine.SellRefund,
		CommandQueueSize: cfg.Engine.CommandQueueSize,
		Seed:             cfg.Engine.Seed,
	}
	if cfg.Scripting.Enabled {
		lua, err := scripting.NewEngine(cfg.Scripting.Dir, log)
		if err != nil {
			return fmt.Errorf("scripting: %w", err)
		}
		defer lua.Close()
		opts.Hooks = lua
		log.Info("scripting enabled", zap.String("dir", cfg.Scripting.Dir))
	}

	engine, err := sim.NewEngine(tables, opts, log)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	hub := gateway.NewHub(cfg.Gateway.WriteTimeout, cfg.Gateway.EventBuffer, log)
	defer hub.Close()
	sim.ObserveAll(engine.Bus(), hub.Broadcast)
	recordScores(engine, scores, cfg.Server.Name, log)

	srv := &http.Server{
		Addr:    cfg.Gateway.BindAddress,
		Handler: gateway.NewServer(engine, hub, scores, log).Router(),
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("gateway stopped", zap.Error(err))
		}
	}()
	log.Info("gateway listening", zap.String("addr", cfg.Gateway.BindAddress))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Engine.TickRate)
	defer ticker.Stop()
	dt := cfg.Engine.TickRate.Seconds()
	log.Info("tick loop started", zap.Duration("tick_rate", cfg.Engine.TickRate))

	for {
		select {
		case <-ticker.C:
			engine.Tick(dt)
		case sig := <-shutdownCh:
			log.Info("shutting down", zap.String("signal", sig.String()))
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn("gateway shutdown", zap.Error(err))
			}
			return nil
		}
	}
}

// recordScores writes every finished run to the score store. The handlers
// fire on the tick goroutine during event flush, so the store write runs on
// its own goroutine with a copy of the data.
func recordScores(engine *sim.Engine, scores persist.ScoreStore, playerName string, log *zap.Logger) {
	save := func(wave, score int, victory bool) {
		row := &persist.ScoreRow{
			PlayerName: playerName,
			Score:      score,
			Wave:       wave,
			Victory:    victory,
			Duration:   engine.GameTime(),
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := scores.Record(ctx, row); err != nil {
				log.Error("record score", zap.Error(err))
			}
		}()
	}
	event.Subscribe(engine.Bus(), func(ev sim.GameOver) { save(ev.Wave, ev.Score, false) })
	event.Subscribe(engine.Bus(), func(ev sim.Victory) { save(ev.Wave, ev.Score, true) })
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
