package dashboard

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"golang.org/x/sync/errgroup"

	"github.com/elmeel/warehouse/internal/platform/httpx"
	"github.com/elmeel/warehouse/internal/rbac"
	"github.com/elmeel/warehouse/internal/shared"
)

const requestTimeout = 2 * time.Second

// Handler serves dashboard endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler constructs the dashboard handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers /dashboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "export limit reached")
		}),
	)

	r.With(h.rbac.RequireAny(rbac.PermDashboard)).Get("/", h.handleDashboard)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermClients, rbac.PermInvoices))
		r.Get("/receivables", h.handleReceivables)
		r.With(limiter).Get("/receivables.csv", h.handleReceivablesCSV)
	})
}

type dashboardResponse struct {
	Summary Summary       `json:"summary"`
	Aging   []AgingBucket `json:"aging"`
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var resp dashboardResponse
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, err := h.service.Summary(gctx)
		resp.Summary = summary
		return err
	})
	g.Go(func() error {
		rec, err := h.service.Receivables(gctx)
		resp.Aging = rec.Aging
		return err
	})
	if err := g.Wait(); err != nil {
		h.fail(w, r, "dashboard", err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) handleReceivables(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Receivables(r.Context())
	if err != nil {
		h.fail(w, r, "receivables", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) handleReceivablesCSV(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Receivables(r.Context())
	if err != nil {
		h.fail(w, r, "receivables csv", err)
		return
	}
	var buf bytes.Buffer
	if err := WriteReceivablesCSV(&buf, rec); err != nil {
		h.fail(w, r, "receivables csv", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="receivables-`+rec.AsOf+`.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.Error(op, slog.Any("error", err), slog.String("path", r.URL.Path))
	httpx.RespondError(w, err)
}

func rateLimitKey(r *http.Request) (string, error) {
	if user := shared.SessionFromContext(r.Context()).AuthUser(); user != nil && strings.TrimSpace(user.ID) != "" {
		return "user:" + user.ID, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
