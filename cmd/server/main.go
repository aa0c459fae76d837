// @title                       groupsplit API
// @version                     1.0
// @description                 Shared expense groups: rosters, invites, expenses and balances.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	_ "github.com/sirpyerre/groupsplit/docs"
	"github.com/sirpyerre/groupsplit/internal/api"
	"github.com/sirpyerre/groupsplit/internal/api/handler"
	"github.com/sirpyerre/groupsplit/internal/core/ports"
	"github.com/sirpyerre/groupsplit/internal/core/service"
	"github.com/sirpyerre/groupsplit/internal/infrastructure/db/mongo"
	"github.com/sirpyerre/groupsplit/internal/infrastructure/db/redis"
	"github.com/sirpyerre/groupsplit/internal/infrastructure/lock"
	"github.com/sirpyerre/groupsplit/internal/infrastructure/scheduler"
	"github.com/sirpyerre/groupsplit/internal/pkg/config"
	"github.com/sirpyerre/groupsplit/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		boot := logger.Bootstrap(os.Stderr)
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "groupsplit",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Storage ---
	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			log.Error().Err(err).Msg("mongo disconnect")
		}
	}()

	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	probes := []handler.Probe{handler.MongoProbe(db)}

	// --- Locking ---
	var locker ports.GroupLocker
	switch cfg.Lock.Backend {
	case config.LockBackendRedis:
		rdb, err := redis.Connect(ctx, redis.Config{URL: cfg.Redis.URL, Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer closeRedis(rdb, log)
		locker = redis.NewGroupLock(rdb, cfg.Lock.TTL)
		probes = append(probes, handler.RedisProbe(rdb))
	default:
		log.Warn().Msg("using in-process group locks; run a single instance only")
		locker = lock.NewKeyed(0)
	}

	// --- Services ---
	repos := service.Repositories{
		Users:       mongo.NewUserRepository(db),
		Groups:      mongo.NewGroupRepository(db),
		Memberships: mongo.NewMembershipRepository(db),
		Invites:     mongo.NewInviteRepository(db),
		Categories:  mongo.NewCategoryRepository(db),
		Expenses:    mongo.NewExpenseRepository(db),
	}

	memberships := service.NewMembershipService(repos, locker, logger.Component("membership"), service.MembershipOptions{
		AppURL:    cfg.Invites.AppURL,
		InviteTTL: cfg.Invites.TTL,
	})
	expenses := service.NewExpenseService(repos, locker, logger.Component("expense"))
	balances := service.NewBalanceService(repos, logger.Component("balance"))
	auth := service.NewAuthService(repos.Users, memberships, logger.Component("auth"), cfg.JWTSecret, cfg.JWTTTL)

	// --- Background jobs ---
	if cfg.Invites.SweepInterval > 0 {
		sweeper := scheduler.NewInviteSweeper(memberships, cfg.Invites.SweepInterval, logger.Component("sweeper"))
		go sweeper.Run(ctx)
	}

	// --- HTTP ---
	e := api.NewRouter(api.Deps{
		Auth:        auth,
		Memberships: memberships,
		Expenses:    expenses,
		Balances:    balances,
		Probes:      probes,
		JWTSecret:   cfg.JWTSecret,
		Log:         logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func closeRedis(rdb *goredis.Client, log zerolog.Logger) {
	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("redis close")
	}
}
