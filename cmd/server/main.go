// Package main provides the game server binary: the websocket hub, the
// HTTP surface, and the tiered game-state store behind them.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/masterminds-game/masterminds/internal/config"
	"github.com/masterminds-game/masterminds/internal/game/random"
	"github.com/masterminds-game/masterminds/internal/game/room"
	"github.com/masterminds-game/masterminds/internal/game/words"
	"github.com/masterminds-game/masterminds/internal/observability"
	"github.com/masterminds-game/masterminds/internal/server"
	"github.com/masterminds-game/masterminds/internal/storage"
	"github.com/masterminds-game/masterminds/internal/storage/file"
	"github.com/masterminds-game/masterminds/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting server",
		zap.String("addr", cfg.Server.Addr()),
	)

	// Connect to PostgreSQL when configured; the local file is always the
	// durability floor and the server runs fine without a database.
	var (
		pool   *postgres.Pool
		remote storage.Backend
		health server.HealthChecker
	)
	if cfg.Database.Enabled() {
		dbStart := time.Now()
		pool, err = postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Error("connecting to database, continuing on local file only",
				zap.String("host", cfg.Database.Host),
				zap.Error(err),
			)
		} else {
			logger.Info("database connected",
				zap.String("host", cfg.Database.Host),
				zap.Duration("elapsed", time.Since(dbStart)),
			)
			remote = postgres.NewGameStateRepository(pool.DB())
			health = pool
		}
	}

	local := file.NewStore(cfg.Store.FilePath)
	store := storage.NewTiered(remote, local, logger)

	// Previous game states seed the registry so suggestion history
	// survives a restart.
	previous := store.LoadAll(ctx)

	wordPool := words.DefaultPool()
	if cfg.Words.PoolPath != "" {
		wordPool, err = words.LoadPool(cfg.Words.PoolPath)
		if err != nil {
			logger.Fatal("loading word pool",
				zap.String("path", cfg.Words.PoolPath),
				zap.Error(err),
			)
		}
	}
	src := random.NewCryptoSource()
	generator, err := words.NewGenerator(wordPool, src)
	if err != nil {
		logger.Fatal("creating word generator", zap.Error(err))
	}

	registry := room.NewRegistry(room.Config{
		RoomCapacity:      cfg.Server.RoomCapacity,
		RoomCodeLength:    cfg.Server.RoomCodeLength,
		MaxNicknameLength: cfg.Server.MaxNicknameLength,
	}, src, generator, logger, previous)
	logger.Info("room registry initialized",
		zap.Int("restored_rooms", registry.RoomCount()),
	)

	hub := server.NewHub(registry, store, logger, cfg.Store.SaveTimeout)
	router := server.NewRouter(hub, health, logger)
	httpServer := server.NewHTTPServer(cfg.Server, router, logger)

	// Wire lifecycle
	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("hub", hub)
	lifecycle.Add("http", httpServer)
	if pool != nil {
		healthQuit := make(chan struct{})
		lifecycle.Add("postgres", &server.FuncService{
			StartFn: func() error {
				ticker := time.NewTicker(30 * time.Second)
				defer ticker.Stop()
				for {
					select {
					case <-ticker.C:
						if err := pool.Health(ctx, 5*time.Second); err != nil {
							logger.Warn("database health check failed", zap.Error(err))
						}
					case <-healthQuit:
						return nil
					}
				}
			},
			StopFn: func() {
				close(healthQuit)
				pool.Close()
			},
		})
	}

	logger.Info("server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("addr", cfg.Server.Addr()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
