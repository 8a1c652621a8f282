package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/upsurge/campaign-lab/internal/config"
	"github.com/upsurge/campaign-lab/internal/domain/activity"
	"github.com/upsurge/campaign-lab/internal/domain/campaign"
	"github.com/upsurge/campaign-lab/internal/domain/notification"
	"github.com/upsurge/campaign-lab/internal/domain/optimizer"
	"github.com/upsurge/campaign-lab/internal/domain/variant"
	"github.com/upsurge/campaign-lab/internal/pkg/coordination"
	"github.com/upsurge/campaign-lab/internal/pkg/database"
	"github.com/upsurge/campaign-lab/internal/pkg/email"
	"github.com/upsurge/campaign-lab/internal/pkg/imaging"
	"github.com/upsurge/campaign-lab/internal/pkg/jwt"
	"github.com/upsurge/campaign-lab/internal/pkg/llm"
	"github.com/upsurge/campaign-lab/internal/pkg/metrics"
	"github.com/upsurge/campaign-lab/internal/pkg/outbox"
	"github.com/upsurge/campaign-lab/internal/pkg/storage"
)

const (
	accessTokenTTL        = 15 * time.Minute
	notificationRetention = 30
	coordinationPrefix    = "campaign-lab:"
)

// App holds every wired service of campaign lab
type App struct {
	Config  *config.Config
	DB      *sqlx.DB
	Redis   *redis.Client
	Metrics *metrics.Metrics
	Outbox  *outbox.Outbox
	JWT     *jwt.Service

	NotificationRepo notification.Repository
	Notifications    *notification.Service
	Activity         *activity.Service
	Campaigns        *campaign.Service
	Variants         *variant.Service
	Optimizer        *optimizer.Optimizer

	worker *optimizer.Worker
	cancel context.CancelFunc
}

// New connects to the configured infrastructure and wires the services
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	rdb, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		// Redis is optional; coordination falls back to in-process state.
		log.Warn().Err(err).Msg("Failed to connect to Redis, continuing without it")
		rdb = nil
	}

	a, err := assemble(ctx, cfg, db, rdb)
	if err != nil {
		database.CloseRedis(rdb)
		database.ClosePostgres(db)
		return nil, err
	}
	return a, nil
}

func assemble(ctx context.Context, cfg *config.Config, db *sqlx.DB, rdb *redis.Client) (*App, error) {
	m := metrics.New()
	metrics.SetGlobal(m)

	queue := outbox.New(cfg.OutboxBuffer, outbox.WithResultHook(metrics.ObserveOutboxJob))

	var (
		locker     coordination.Locker
		suppressor coordination.Suppressor
	)
	if rdb != nil {
		locker = coordination.NewRedisLocker(rdb, coordinationPrefix)
		suppressor = coordination.NewRedisSuppressor(rdb, coordinationPrefix)
	} else {
		locker = coordination.NewMemoryLocker()
		suppressor = coordination.NewMemorySuppressor()
	}

	store, err := newStorage(ctx, cfg)
	if err != nil {
		queue.Close()
		return nil, err
	}

	// ---------- Repositories ----------
	notificationRepo := notification.NewRepository(db)
	activityRepo := activity.NewRepository(db)
	campaignRepo := campaign.NewRepository(db)
	variantRepo := variant.NewRepository(db)

	// ---------- Services ----------
	notificationService := notification.NewService(notificationRepo)
	notifier := notification.NewNotifier(notificationService, queue)
	activityService := activity.NewService(activityRepo)
	recorder := activity.NewRecorder(activityService, queue)
	campaignService := campaign.NewService(campaignRepo)

	generator := variant.NewGenerator(llm.NewClient(llm.Config{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
	}))
	variantService := variant.NewService(variantRepo, campaignService, generator, notifier, recorder).
		WithCreatives(imaging.NewProcessor(imaging.DefaultConfig()), store)

	opts := []optimizer.Option{optimizer.WithAlertWindow(cfg.AlertSuppressionWindow)}
	if cfg.SendGridAPIKey != "" {
		mailer := email.NewService(email.NewSendGridClient(email.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}))
		if alerts := optimizer.NewEmailAlerts(mailer, queue, cfg.AlertEmail); alerts != nil {
			opts = append(opts, optimizer.WithEmailAlerts(alerts))
		}
	} else {
		log.Warn().Msg("SendGrid not configured, optimizer email alerts disabled")
	}
	opt := optimizer.New(variantService, campaignService, notifier, locker, suppressor, opts...)

	return &App{
		Config:           cfg,
		DB:               db,
		Redis:            rdb,
		Metrics:          m,
		Outbox:           queue,
		JWT:              jwt.NewService(cfg.JWTSecret, accessTokenTTL),
		NotificationRepo: notificationRepo,
		Notifications:    notificationService,
		Activity:         activityService,
		Campaigns:        campaignService,
		Variants:         variantService,
		Optimizer:        opt,
	}, nil
}

func newStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	sc := storage.Config{
		S3Endpoint:  cfg.S3Endpoint,
		S3Region:    cfg.S3Region,
		S3Bucket:    cfg.S3Bucket,
		S3AccessKey: cfg.S3AccessKey,
		S3SecretKey: cfg.S3SecretKey,
		S3PublicURL: cfg.S3PublicURL,
	}
	if !sc.Configured() {
		log.Warn().Msg("S3 not configured, creative uploads kept in memory")
		return storage.NewMemoryStorage("/creatives"), nil
	}

	s3, err := storage.NewS3Storage(ctx, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 storage: %w", err)
	}
	log.Info().Str("bucket", cfg.S3Bucket).Msg("S3 storage ready")
	return s3, nil
}

// StartBackground launches the optimizer worker (when enabled) and the notification cleanup job
func (a *App) StartBackground(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)

	go notification.NewCleanupJob(a.NotificationRepo, notificationRetention).Start(ctx, 24*time.Hour)

	if a.Config.OptimizerEnabled {
		a.worker = optimizer.NewWorker(a.Optimizer, a.Config.OptimizerSystemUserID, a.Config.OptimizerInterval)
		a.worker.Start()
	} else {
		log.Info().Msg("Optimizer worker disabled")
	}
}

// Close stops background work, drains the outbox and closes connections
func (a *App) Close() {
	if a.worker != nil {
		a.worker.Stop()
	}
	if a.cancel != nil {
		a.cancel()
	}
	a.Outbox.Close()
	database.CloseRedis(a.Redis)
	database.ClosePostgres(a.DB)
}
