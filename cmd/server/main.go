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

	"github.com/St1cky1/tarefas-service/internal/api"
	"github.com/St1cky1/tarefas-service/internal/api/handlers"
	grpcapi "github.com/St1cky1/tarefas-service/internal/api/grpc"
	"github.com/St1cky1/tarefas-service/internal/config"
	"github.com/St1cky1/tarefas-service/internal/infrastructure/client"
	"github.com/St1cky1/tarefas-service/internal/infrastructure/worker"
	"github.com/St1cky1/tarefas-service/internal/repository"
	"github.com/St1cky1/tarefas-service/internal/sanitize"
	"github.com/St1cky1/tarefas-service/internal/usecase"
	"github.com/go-pkgz/lgr"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	shutdownTimeout     = 10 * time.Second
	healthCheckInterval = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "❌ Ошибка конфигурации:", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg)
	if cfg.Debug {
		logger.Logf("DEBUG running with config %s", cfg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Logf("FATAL %v", err)
	}
	logger.Logf("INFO ✅ Приложение завершено корректно")
}

func setupLogger(cfg config.Config) lgr.L {
	opts := []lgr.Option{lgr.Msec, lgr.LevelBraces, lgr.Secret(cfg.Secrets()...)}
	if cfg.Debug {
		opts = append(opts, lgr.Debug, lgr.CallerFunc)
	}
	return lgr.New(opts...)
}

func run(ctx context.Context, cfg config.Config, logger lgr.L) error {
	// Хранилище задач
	taskRepo, auditRepo, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	g, ctx := errgroup.WithContext(ctx)

	// Аудит через RabbitMQ, если настроен
	var publisher usecase.AuditPublisher = usecase.NoopPublisher{}
	if cfg.RabbitMQEnabled() {
		rabbitMQ, err := client.NewRabbitMQClient(cfg.RabbitMQURL(), cfg.RabbitMQ.AuditQueue, logger)
		if err != nil {
			return fmt.Errorf("ошибка подключения к RabbitMQ: %w", err)
		}
		defer rabbitMQ.Close()
		publisher = rabbitMQ
		logger.Logf("INFO ✅ Подключение к RabbitMQ установлено, очередь %s", rabbitMQ.QueueName())

		if auditRepo != nil {
			auditWorker := worker.NewAuditWorker(cfg.RabbitMQURL(), cfg.RabbitMQ.AuditQueue, auditRepo, logger)
			g.Go(func() error {
				return auditWorker.Start(ctx)
			})
		} else {
			logger.Logf("WARN audit worker disabled: driver %s has no audit table", cfg.Database.Driver)
		}
	} else {
		logger.Logf("INFO RabbitMQ не настроен, аудит отключён")
	}

	taskService := usecase.NewTaskService(taskRepo, publisher, logger)
	taskHandler := handlers.NewTaskHandler(taskService, sanitize.NewSanitizer())
	taskRouter := api.NewTaskRouter(taskHandler, logger)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(taskRouter, taskService, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g.Go(func() error {
		logger.Logf("INFO ✅ HTTP сервер слушает %s, маршруты: %v", cfg.HTTPAddr, taskRouter.Routes())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Logf("INFO Завершение работы...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.GRPCAddr != "" {
		grpcServer := grpcapi.NewGRPCServer(logger)
		g.Go(func() error {
			return grpcServer.Start(cfg.GRPCAddr)
		})
		g.Go(func() error {
			grpcServer.WatchStore(ctx, taskService, healthCheckInterval)
			grpcServer.Stop()
			return nil
		})
	}

	return g.Wait()
}

// openStore возвращает хранилище задач по DB_DRIVER. Для SQLite
// репозиторий аудита не создаётся.
func openStore(ctx context.Context, cfg config.Config, logger lgr.L) (repository.ITaskRepository, repository.ITaskAuditRepository, func(), error) {
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		logLevel := gormlogger.Silent
		if cfg.Debug {
			logLevel = gormlogger.Info
		}
		db, err := gorm.Open(sqlite.Open(cfg.Database.SQLitePath), &gorm.Config{
			Logger: gormlogger.Default.LogMode(logLevel),
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("ошибка открытия SQLite: %w", err)
		}
		repo := repository.NewGormTaskRepository(db)
		if err := repo.AutoMigrate(); err != nil {
			return nil, nil, nil, fmt.Errorf("ошибка миграций SQLite: %w", err)
		}
		logger.Logf("INFO ✅ SQLite %s готова", cfg.Database.SQLitePath)

		closeFn := func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
		return repo, nil, closeFn, nil

	default:
		dbURL := cfg.PostgresURL()
		if err := client.RunMigrations(dbURL); err != nil {
			return nil, nil, nil, err
		}
		logger.Logf("INFO ✅ Миграции выполнены успешно")

		pg, err := client.NewPostgresClient(ctx, dbURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("ошибка подключения к БД: %w", err)
		}
		logger.Logf("INFO ✅ Подключение к БД установлено")

		return repository.NewTaskRepository(pg.Pool), repository.NewTaskAuditRepository(pg.Pool), pg.Close, nil
	}
}
