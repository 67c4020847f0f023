package app

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/elmeel/warehouse/internal/auth"
	"github.com/elmeel/warehouse/internal/dashboard"
	"github.com/elmeel/warehouse/internal/inventory"
	"github.com/elmeel/warehouse/internal/invoicing"
	jobmetrics "github.com/elmeel/warehouse/internal/jobs"
	"github.com/elmeel/warehouse/internal/masterdata"
	"github.com/elmeel/warehouse/internal/observability"
	"github.com/elmeel/warehouse/internal/platform/cache"
	"github.com/elmeel/warehouse/internal/rbac"
	"github.com/elmeel/warehouse/internal/settings"
	"github.com/elmeel/warehouse/internal/shared"
	"github.com/elmeel/warehouse/internal/store"
	"github.com/elmeel/warehouse/internal/users"
	"github.com/elmeel/warehouse/jobs"
)

const sessionCookieName = "warehouse_session"

// Dependencies are the long lived resources the application is built on.
type Dependencies struct {
	Config *Config
	Logger *slog.Logger
	Redis  *redis.Client
	Store  *store.Store
	// Clock overrides time.Now for the ledger services.
	Clock func() time.Time
}

// Application is the assembled HTTP surface plus its optional worker.
type Application struct {
	Handler http.Handler
	Worker  *jobs.Worker
	Metrics *observability.Metrics

	closers []func() error
}

// Close releases queue clients opened by Build.
func (a *Application) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// Build wires services, handlers, the router and, when enabled, the worker.
func Build(deps Dependencies) (*Application, error) {
	cfg, logger := deps.Config, deps.Logger
	if cfg == nil {
		return nil, errors.New("app: config required")
	}
	if logger == nil {
		logger = NewLogger(cfg)
	}
	if deps.Store == nil || deps.Redis == nil {
		return nil, errors.New("app: store and redis required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	metrics := observability.NewMetrics()
	jobMetrics := jobmetrics.NewMetrics(metrics.Registerer())

	sessionManager := shared.NewSessionManager(deps.Redis, sessionCookieName, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(logger, 0)
	idempotencyStore := shared.NewIdempotencyStore(deps.Redis, cfg.IdempotencyTTL)

	rbacService := rbac.NewService()
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}

	dashboardCache := cache.NewVersioned(deps.Redis, "dashboard", cfg.DashboardCacheTTL)
	ledgerSink := observability.NewLedgerSink(metrics, dashboardCache, logger)

	authService := auth.NewService(auth.NewRepository(deps.Store), auditLogger, cfg.BcryptCost)
	masterdataService := masterdata.NewService(deps.Store, auditLogger, dashboardCache)
	inventoryService := inventory.NewService(deps.Store, auditLogger, inventory.ServiceConfig{
		AllowNegativeStock: cfg.AllowNegativeStock,
		Clock:              clock,
	}, ledgerSink)
	invoicingService := invoicing.NewService(deps.Store, inventoryService, auditLogger, idempotencyStore, clock, ledgerSink)
	usersService := users.NewService(users.NewRepository(deps.Store), auditLogger, cfg.BcryptCost)
	settingsService := settings.NewService(deps.Store, auditLogger)
	dashboardService := dashboard.NewService(deps.Store, dashboardCache, dashboard.NewFormatter(cfg.AppLocale), clock)

	application := &Application{Metrics: metrics}

	var (
		inspector jobs.QueueInspector
		enqueuer  jobs.Enqueuer
	)
	if cfg.WorkerEnabled {
		redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
		worker, err := newWorker(cfg, logger, redisOpts, masterdataService, dashboardService, jobMetrics)
		if err != nil {
			return nil, err
		}
		application.Worker = worker

		asynqInspector := asynq.NewInspector(redisOpts)
		client := jobs.NewClient(redisOpts)
		inspector, enqueuer = asynqInspector, client
		application.closers = append(application.closers, asynqInspector.Close, client.Close)
	}

	application.Handler = NewRouter(RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		RBACMiddleware:     rbacMiddleware,
		Audit:              auditLogger,
		AuthHandler:        auth.NewHandler(logger, authService, sessionManager, csrfManager),
		MasterDataHandler:  masterdata.NewHandler(logger, masterdataService, rbacMiddleware),
		InventoryHandler:   inventory.NewHandler(logger, inventoryService, rbacMiddleware),
		InvoicingHandler:   invoicing.NewHandler(logger, invoicingService, rbacMiddleware),
		UsersHandler:       users.NewHandler(logger, usersService, rbacMiddleware),
		SettingsHandler:    settings.NewHandler(logger, settingsService, rbacMiddleware),
		DashboardHandler:   dashboard.NewHandler(logger, dashboardService, rbacMiddleware),
		PermissionsHandler: rbac.NewPermissionsHandler(rbacService, rbacMiddleware),
		JobHandler:         jobs.NewHandler(inspector, enqueuer, logger, rbacMiddleware),
		Metrics:            metrics,
	})
	return application, nil
}

func newWorker(cfg *Config, logger *slog.Logger, redisOpts asynq.RedisClientOpt, items jobs.ItemLister, rec jobs.Reconciler, metrics *jobmetrics.Metrics) (*jobs.Worker, error) {
	lowStockJob := jobs.NewLowStockScanJob(items, logger, metrics)
	reconcileJob := jobs.NewReconcileJob(rec, logger, metrics)

	var cron []jobs.CronRegistration
	if cfg.LowStockCron != "" {
		task, err := jobs.NewLowStockScanTask(time.Time{}, "cron")
		if err != nil {
			return nil, err
		}
		cron = append(cron, jobs.CronRegistration{Spec: cfg.LowStockCron, Task: task})
	}
	if cfg.ReconcileCron != "" {
		task, err := jobs.NewReconcileTask(time.Time{}, "cron")
		if err != nil {
			return nil, err
		}
		cron = append(cron, jobs.CronRegistration{Spec: cfg.ReconcileCron, Task: task})
	}

	return jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   redisOpts,
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLowStockScan, Handler: lowStockJob.Handle},
			{Type: jobs.TaskReceivablesReconcile, Handler: reconcileJob.Handle},
		},
		Cron: cron,
	})
}
