package app

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/joulek/Backend-mtr/internal/articles"
	"github.com/joulek/Backend-mtr/internal/clients"
	"github.com/joulek/Backend-mtr/internal/numbering"
	"github.com/joulek/Backend-mtr/internal/observability"
	"github.com/joulek/Backend-mtr/internal/orders"
	"github.com/joulek/Backend-mtr/internal/platform/cache"
	"github.com/joulek/Backend-mtr/internal/platform/mail"
	"github.com/joulek/Backend-mtr/internal/platform/storage"
	"github.com/joulek/Backend-mtr/internal/quotations"
	"github.com/joulek/Backend-mtr/internal/reclamations"
	"github.com/joulek/Backend-mtr/internal/shared"
	"github.com/joulek/Backend-mtr/internal/specrequests"
	"github.com/joulek/Backend-mtr/jobs"
	"github.com/joulek/Backend-mtr/report"
)

// Deps are the process-level resources the domain graph is built on.
type Deps struct {
	Config  *Config
	Logger  *slog.Logger
	Pool    *pgxpool.Pool
	Redis   *redis.Client
	Metrics *observability.Metrics
	Queue   jobs.Enqueuer
}

// Services is the wired domain graph shared by the HTTP server and the worker.
type Services struct {
	Numbers         *numbering.Allocator
	Files           *storage.LocalStorage
	Clients         *clients.Directory
	Articles        *articles.Service
	Requests        *specrequests.Service
	Aggregator      *quotations.Aggregator
	Quotations      *quotations.Service
	Reclamations    *reclamations.Service
	ReclamationRepo reclamations.Repository
	Orders          *orders.Service
	Idempotency     *shared.IdempotencyStore
	Renderer        report.Renderer
	Gotenberg       *report.Client
	Dispatcher      *jobs.Dispatcher
}

// BuildServices wires every domain service. deps.Redis and deps.Queue may be nil.
func BuildServices(deps Deps) (*Services, error) {
	cfg := deps.Config
	if cfg == nil || deps.Pool == nil {
		return nil, errors.New("app: config and pool are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var numberStore numbering.Store
	switch cfg.NumberingBackend {
	case NumberingRedis:
		if deps.Redis == nil {
			return nil, errors.New("app: redis numbering backend needs REDIS_ADDR")
		}
		numberStore = numbering.NewRedisStore(deps.Redis)
	default:
		numberStore = numbering.NewPostgresStore(deps.Pool)
	}
	numbers := numbering.NewAllocator(numberStore,
		numbering.WithRequestPrefix(cfg.RequestNumberPrefix),
		numbering.WithRegisterer(deps.Metrics.Registerer()),
	)

	files, err := storage.NewLocalStorage(cfg.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("app: storage: %w", err)
	}
	renderer, err := report.NewRenderer(cfg.PDFEngine, cfg.GotenbergURL)
	if err != nil {
		return nil, err
	}
	var gotenberg *report.Client
	if cfg.GotenbergURL != "" {
		gotenberg = report.NewClient(cfg.GotenbergURL)
	}

	directory := clients.NewDirectory(deps.Pool)
	articleSvc := articles.NewService(articles.NewRepository(deps.Pool))
	registry := specrequests.NewPostgresRegistry(deps.Pool)
	idempotency := shared.NewIdempotencyStore(deps.Pool)

	var unconverted *cache.Versioned
	if deps.Redis != nil {
		unconverted = cache.NewVersioned(deps.Redis, "devis:unconverted", cfg.UnconvertedCacheTTL)
	}
	quoteStore := quotations.NewStore(deps.Pool)
	aggregator := quotations.NewAggregator(registry, quoteStore, unconverted, logger)
	dispatcher := jobs.NewDispatcher(deps.Queue, logger)

	requestSvc := specrequests.NewService(registry, numbers, files, dispatcher, aggregator, logger)
	builder := quotations.NewLineBuilder(registry, articleSvc, quotations.LineDefaults{
		RequestPrefix:  cfg.RequestNumberPrefix,
		TaxRatePercent: cfg.QuoteDefaultTaxPercent,
	})
	quoteRepo := quotations.NewRepository(quoteStore, numbers, directory, quotations.TotalsPolicy{
		SurchargePercent: cfg.QuoteSurchargePercent,
		StampDuty:        cfg.QuoteStampDuty,
	})
	quoteSvc := quotations.NewService(quoteRepo, quoteStore, builder, aggregator, numbers,
		quotations.WithIdempotency(idempotency),
		quotations.WithAudit(shared.NewAuditLogger(deps.Pool)),
		quotations.WithDispatcher(dispatcher),
		quotations.WithLogger(logger),
		quotations.WithRegisterer(deps.Metrics.Registerer()),
	)

	reclamationRepo := reclamations.NewRepository(deps.Pool)
	reclamationSvc := reclamations.NewService(reclamationRepo, numbers, files, dispatcher, logger)
	orderSvc := orders.NewService(orders.NewRepository(deps.Pool), registry, dispatcher, logger)

	return &Services{
		Numbers:         numbers,
		Files:           files,
		Clients:         directory,
		Articles:        articleSvc,
		Requests:        requestSvc,
		Aggregator:      aggregator,
		Quotations:      quoteSvc,
		Reclamations:    reclamationSvc,
		ReclamationRepo: reclamationRepo,
		Orders:          orderSvc,
		Idempotency:     idempotency,
		Renderer:        renderer,
		Gotenberg:       gotenberg,
		Dispatcher:      dispatcher,
	}, nil
}

// NewMailSender returns the SMTP mailer, or a logging sender when SMTP is not configured or the
// process runs in test mode.
func NewMailSender(cfg *Config, logger *slog.Logger) mail.Sender {
	if !cfg.MailEnabled() || InTestMode() {
		return mail.LogSender{Logger: logger}
	}
	return mail.NewMailer(mail.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
}

// WorkerSetup returns the task handlers and cron entries served by the worker.
func WorkerSetup(cfg *Config, svc *Services, sender mail.Sender, metrics *observability.Metrics, logger *slog.Logger) ([]jobs.TaskHandler, []jobs.CronRegistration) {
	documents := &jobs.DocumentJobs{
		Quotations:   svc.Quotations,
		Requests:     svc.Requests,
		Reclamations: svc.ReclamationRepo,
		Orders:       svc.Orders,
		Clients:      svc.Clients,
		Renderer:     svc.Renderer,
		Files:        svc.Files,
		Mail:         sender,
		AdminEmail:   cfg.AdminEmail,
		PublicURL:    cfg.PublicBaseURL,
		Logger:       logger,
		Metrics:      metrics.Jobs(),
	}
	cleanup := &jobs.StorageCleanupJob{
		Files:        svc.Files,
		Dirs:         cfg.CleanupDirs,
		FileTTL:      cfg.CleanupFileTTL,
		Keys:         svc.Idempotency,
		KeyRetention: cfg.IdempotencyRetention,
		Logger:       logger,
		Metrics:      metrics.Jobs(),
	}
	handlers := append(documents.Handlers(), jobs.TaskHandler{Type: jobs.TaskStorageCleanup, Handler: cleanup.Handle})
	var cron []jobs.CronRegistration
	if cfg.CleanupCron != "" {
		cron = append(cron, jobs.CronRegistration{
			Spec:    cfg.CleanupCron,
			Task:    jobs.NewStorageCleanupTask(),
			Options: []asynq.Option{asynq.MaxRetry(1)},
		})
	}
	return handlers, cron
}
