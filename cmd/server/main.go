package main

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/romes311/tourismiq/internal/config"
	"github.com/romes311/tourismiq/internal/model"
	"github.com/romes311/tourismiq/internal/server"
	"github.com/romes311/tourismiq/pkg/database"
	"github.com/romes311/tourismiq/pkg/logger"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger.Init()
	defer logger.Sync()

	db := database.Connect()
	if err := migrate(db); err != nil {
		logger.Fatal("migration failed", "error", err)
	}

	redisClient := connectRedis(cfg)

	srv := server.NewServer(cfg, db, redisClient)

	if bridge := srv.Bridge(); bridge != nil {
		if err := bridge.Ping(context.Background()); err != nil {
			logger.Warn("redis unreachable, cross-instance fan-out disabled", "error", err)
		} else {
			go bridge.Run(context.Background())
		}
	}

	logger.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv)
	if err := srv.Run(":" + cfg.Port); err != nil {
		logger.Fatal("server exited with error", "error", err)
	}
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Connection{},
		&model.Notification{},
		&model.Post{},
		&model.Upvote{},
		&model.Message{},
	); err != nil {
		return err
	}

	// Direction-independent uniqueness for connection pairs. Rejected rows
	// are excluded so a pair can be re-requested after a rejection. Tag-based
	// indexes can't express LEAST/GREATEST, hence raw DDL.
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_connections_active_pair
		ON connections (LEAST(sender_id, receiver_id), GREATEST(sender_id, receiver_id))
		WHERE status <> 'rejected'`).Error
}

func connectRedis(cfg *config.Config) *redis.Client {
	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL not set, running single-instance without broker")
		return nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal("invalid REDIS_URL", "error", err)
	}
	return redis.NewClient(opts)
}
