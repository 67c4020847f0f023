package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/elmeel/warehouse/internal/auth"
	"github.com/elmeel/warehouse/internal/dashboard"
	"github.com/elmeel/warehouse/internal/inventory"
	"github.com/elmeel/warehouse/internal/invoicing"
	"github.com/elmeel/warehouse/internal/masterdata"
	"github.com/elmeel/warehouse/internal/observability"
	"github.com/elmeel/warehouse/internal/platform/httpx"
	"github.com/elmeel/warehouse/internal/rbac"
	"github.com/elmeel/warehouse/internal/settings"
	"github.com/elmeel/warehouse/internal/shared"
	"github.com/elmeel/warehouse/internal/users"
	"github.com/elmeel/warehouse/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	RBACMiddleware rbac.Middleware
	Audit          *shared.AuditLogger

	AuthHandler        *auth.Handler
	MasterDataHandler  *masterdata.Handler
	InventoryHandler   *inventory.Handler
	InvoicingHandler   *invoicing.Handler
	UsersHandler       *users.Handler
	SettingsHandler    *settings.Handler
	DashboardHandler   *dashboard.Handler
	PermissionsHandler *rbac.PermissionsHandler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/dashboard", params.DashboardHandler.MountRoutes)

	r.Route("/items", func(r chi.Router) {
		params.MasterDataHandler.MountItemRoutes(r)
		params.InventoryHandler.MountItemRoutes(r)
	})
	r.Route("/projects", func(r chi.Router) {
		params.MasterDataHandler.MountProjectRoutes(r)
		params.InventoryHandler.MountProjectRoutes(r)
	})
	r.Route("/clients", params.MasterDataHandler.MountClientRoutes)
	r.Route("/transactions", params.InventoryHandler.MountRoutes)
	r.Route("/invoices", params.InvoicingHandler.MountRoutes)
	r.Route("/payments", params.InvoicingHandler.MountPaymentRoutes)
	r.Route("/users", params.UsersHandler.MountRoutes)
	r.Route("/settings", params.SettingsHandler.MountRoutes)
	r.Route("/rbac", params.PermissionsHandler.MountRoutes)
	r.Route("/jobs", params.JobHandler.MountRoutes)

	if params.Audit != nil {
		r.With(params.RBACMiddleware.RequireAny(rbac.PermUsers)).Get("/audit", auditHandler(params.Audit))
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, "Method Not Allowed", r.Method+" "+r.URL.Path)
	})
	return r
}

// auditHandler lists the most recent audit entries, newest first.
func auditHandler(audit *shared.AuditLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows := audit.Recent(0)
		page, meta := shared.Page(r, rows)
		httpx.JSON(w, http.StatusOK, map[string]any{"data": page, "pagination": meta})
	}
}
