package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"

	"github.com/seravalle/locklab/config"
	"github.com/seravalle/locklab/demo"
	"github.com/seravalle/locklab/lock"
	"github.com/seravalle/locklab/metrics"
	"github.com/seravalle/locklab/resource"
	"github.com/seravalle/locklab/store"
)

func main() {
	cfg := config.Load()
	logger := demo.NewLogger(cfg.LogLevel)

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer client.Close()

	locker := lock.New(store.NewRedis(client),
		lock.WithRetryInterval(cfg.RetryInterval),
		lock.WithLogger(logger),
	)

	registry := metrics.NewRegistry()
	metrics.RegisterLockMetrics(registry)

	var counters resource.Counter
	var claims resource.Claimable
	if cfg.PostgresDSN != "" {
		pool, err := pgxpool.New(context.Background(), cfg.PostgresDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connect failed")
		}
		defer pool.Close()
		pg := resource.NewPostgres(pool)
		if err := pg.InitSchema(context.Background()); err != nil {
			logger.Fatal().Err(err).Msg("postgres schema init failed")
		}
		counters, claims = pg, pg
		logger.Info().Msg("critical resource backed by postgres")
	} else {
		r := resource.NewRedis(client)
		counters, claims = r, r
		logger.Info().Str("addr", cfg.RedisAddr).Msg("critical resource backed by redis")
	}

	srv := demo.NewServer(demo.Config{
		Logger:   logger,
		Counters: counters,
		Claims:   claims,
		Locker:   locker,
		Lease:    cfg.LockLease,
		Registry: registry,
	})

	logger.Info().Str("port", cfg.Port).Msg("demo server starting")
	if err := srv.Router().Run(":" + cfg.Port); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}
