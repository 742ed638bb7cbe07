package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"aikona/internal/config"
	"aikona/internal/pkg/retry"
	"aikona/internal/platform/database"
	rabbitmqClient "aikona/internal/platform/rabbitmq"
	redisClient "aikona/internal/platform/redis"
	"aikona/internal/repository"
	"aikona/internal/storage"
	"aikona/internal/worker"
)

type App struct {
	Config *config.Config
	Logger *slog.Logger
	DB     *gorm.DB
	// Redis is nil unless the rate limiter runs on Redis.
	Redis *redis.Client
	// MQConn is nil when the mood journal is disabled.
	MQConn     *amqp.Connection
	MoodWorker *worker.MoodPersistWorker
	Avatars    storage.Store

	StartedAt time.Time
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{Config: cfg, Logger: logger, StartedAt: time.Now()}

	db, err := database.Open(ctx, cfg.Database.Driver, cfg.DatabaseDSN())
	if err != nil {
		return nil, err
	}
	app.DB = db
	if err := database.Migrate(db); err != nil {
		_ = app.Close()
		return nil, err
	}

	if cfg.RateLimit.Backend == "redis" {
		app.Redis, err = redisClient.New(ctx, cfg.Redis)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
	}

	if cfg.RabbitMQ.URL != "" {
		err = retry.Do(ctx, retry.Policy{
			Attempts: 5,
			Backoff:  retry.Linear(time.Second),
			OnRetry: func(attempt int, err error, delay time.Duration) {
				logger.Warn("rabbitmq not ready", "attempt", attempt, "retry_in", delay, "error", err)
			},
		}, func(ctx context.Context, _ int) error {
			conn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.MoodQueue)
			app.MQConn = conn
			return err
		})
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		moodRepo := repository.NewMoodRepository(db)
		app.MoodWorker = worker.NewMoodPersistWorker(app.MQConn, moodRepo, cfg.RabbitMQ.MoodQueue, logger)
		// the worker outlives the startup context
		if err := app.MoodWorker.Start(context.WithoutCancel(ctx)); err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("start mood worker failed: %w", err)
		}
	} else {
		logger.Info("rabbitmq url empty, mood journal disabled")
	}

	app.Avatars, err = newAvatarStore(ctx, cfg.Upload)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	return app, nil
}

func newAvatarStore(ctx context.Context, cfg config.UploadConfig) (storage.Store, error) {
	if cfg.Backend == "s3" {
		return storage.NewS3Store(ctx, storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
	}
	return storage.NewLocalStore(cfg.Dir)
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MoodWorker != nil {
		a.MoodWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
