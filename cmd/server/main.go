// Package main is the entry point for the easyadmin API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap/zapcore"

	"easyadmin/internal/config"
	"easyadmin/internal/core/security"
	"easyadmin/internal/domain/audit"
	"easyadmin/internal/domain/auth"
	"easyadmin/internal/domain/query"
	"easyadmin/internal/domain/users"
	"easyadmin/internal/infrastructure/cache"
	v1 "easyadmin/internal/infrastructure/http/v1"
	"easyadmin/internal/infrastructure/storage/postgres"
	"easyadmin/internal/infrastructure/storage/postgres/audit_repo"
	"easyadmin/internal/infrastructure/storage/postgres/auth_repo"
	"easyadmin/internal/infrastructure/storage/postgres/log_repo"
	"easyadmin/internal/infrastructure/storage/postgres/query_repo"
	"easyadmin/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.RequireJWTSecret()
	}
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Development(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Infow("starting easyadmin server", "env", cfg.Env)

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = int32(cfg.DBMaxConns)
	poolCfg.MinConns = int32(cfg.DBMinConns)

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txm := postgres.NewTxManager(pool)

	// --- Application log table ---
	var logSink *logger.SinkCore
	if cfg.DBLogEnabled() {
		level, err := zapcore.ParseLevel(cfg.LogDBLevel)
		if err != nil {
			log.Fatalw("invalid LOG_DB_LEVEL", "error", err)
		}
		logSink = logger.NewSinkCore(level, log_repo.NewWriter(txm))
		log = log.Tee(logSink)
		logger.SetDefault(log)
	}

	// --- Department resolution, optionally cached in Redis ---
	var orgs security.OrgResolver = auth_repo.NewOrgRepo(txm)
	var rdb redis.UniversalClient
	var orgListener *cache.OrgListener

	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warnw("redis unavailable, department cache will fall through", "error", err)
		}

		orgCache := cache.NewOrgCache(orgs, rdb, cfg.OrgCacheTTL)
		orgs = orgCache

		orgListener = cache.NewOrgListener(pool.Pool, orgCache)
		orgListener.Start(ctx)
		log.Infow("department cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.OrgCacheTTL)
	}

	// --- Audit ---
	auditStore, err := audit_repo.NewStore(txm)
	if err != nil {
		log.Fatalw("failed to create audit store", "error", err)
	}
	interceptor := audit.NewInterceptor(auditStore,
		audit.WithMenus(audit_repo.NewMenuRepo(txm)),
		audit.WithWriteTimeout(cfg.AuditWriteTimeout),
	)

	// --- Users ---
	var userExecOpts []query.ExecutorOption[users.User]
	var logExecOpts []query.ExecutorOption[audit.Record]
	if cfg.QueryReadOnlyTx {
		userExecOpts = append(userExecOpts, query.WithReadOnlyTx[users.User](txm))
		logExecOpts = append(logExecOpts, query.WithReadOnlyTx[audit.Record](txm))
	}

	userRepo := query_repo.NewUserRepo(txm)
	userList := query.NewService(
		query.NewExecutor[users.User](userRepo, userExecOpts...),
		security.NewEvaluatorFor[users.User](cfg.DataPermissionEnabled, orgs),
		users.ExcludedFields...,
	)
	userService := users.NewService(userRepo, userList, txm, interceptor)

	// --- Operation log browsing ---
	logList := query.NewService(
		query.NewExecutor[audit.Record](audit_repo.NewLogRepo(txm, auditStore), logExecOpts...),
		security.NewEvaluatorFor[audit.Record](cfg.DataPermissionEnabled, orgs),
	)

	// --- Authentication ---
	jwtConfig := auth.DefaultJWTConfig(cfg.JWTSecret)
	jwtConfig.Issuer = cfg.JWTIssuer
	jwtConfig.AccessTokenTTL = cfg.AccessTTL
	jwtService := auth.NewJWTService(jwtConfig)
	identities := auth.NewIdentityService(auth_repo.NewRoleRepo(txm))

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:          pool,
		Redis:         rdb,
		Logger:        log,
		JWTValidator:  jwtService,
		Identities:    identities,
		Users:         userService,
		OperationLogs: logList,
		Development:   cfg.Development(),
	})

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	<-ctx.Done()
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	if orgListener != nil {
		orgListener.Stop()
	}

	// Audit writes are detached from requests; let the pending ones land
	// before the pool closes.
	if err := interceptor.Close(shutdownCtx); err != nil {
		log.Warnw("pending audit writes abandoned", "error", err)
	}
	if logSink != nil {
		if err := logSink.Close(shutdownCtx); err != nil {
			log.Warnw("pending log entries abandoned", "error", err)
		}
	}

	log.Info("server stopped")
}
