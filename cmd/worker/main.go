// Package main is the entry point for the easyadmin background worker.
// It purges operation log and application log records older than the
// configured retention.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"easyadmin/internal/config"
	"easyadmin/internal/infrastructure/storage/postgres"
	"easyadmin/internal/infrastructure/storage/postgres/audit_repo"
	"easyadmin/internal/infrastructure/storage/postgres/log_repo"
	"easyadmin/pkg/logger"
)

func main() {
	cfg, err := config.Load()
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

	if cfg.AuditRetention <= 0 {
		log.Info("audit retention disabled, nothing to do")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Infow("starting easyadmin worker",
		"retention", cfg.AuditRetention,
		"interval", cfg.AuditPurgeInterval,
	)

	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = 2
	poolCfg.MinConns = 1
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txm := postgres.NewTxManager(pool)
	store, err := audit_repo.NewStore(txm)
	if err != nil {
		log.Fatalw("failed to create audit store", "error", err)
	}

	worker := NewRetentionWorker(cfg.AuditRetention, cfg.AuditPurgeInterval, log,
		Target{Table: "sys_operation_log", Purger: store},
		Target{Table: "sys_log", Purger: log_repo.NewWriter(txm)},
	)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}
