package inventory

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/elmeel/warehouse/internal/platform/httpx"
	"github.com/elmeel/warehouse/internal/rbac"
	"github.com/elmeel/warehouse/internal/shared"
	"github.com/elmeel/warehouse/internal/store"
)

// ErrorMappings maps inventory failures to HTTP statuses.
var ErrorMappings = []httpx.Mapping{
	{Err: ErrInvalidQuantity, Status: http.StatusUnprocessableEntity, Title: "Invalid Quantity"},
	{Err: ErrInvalidType, Status: http.StatusBadRequest, Title: "Invalid Type"},
	{Err: ErrInsufficientStock, Status: http.StatusUnprocessableEntity, Title: "Insufficient Stock"},
	{Err: ErrProjectOnReceipt, Status: http.StatusUnprocessableEntity, Title: "Project Not Allowed"},
}

// Handler wires HTTP endpoints for inventory module.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	rbac      rbac.Middleware
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: validator.New(), rbac: rbac}
}

// MountRoutes registers the transaction log routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermTransactions))
		r.Get("/", h.listTransactions)
		r.Post("/", h.createTransaction)
	})
}

// MountItemRoutes registers receipts under /items.
func (h *Handler) MountItemRoutes(r chi.Router) {
	r.With(h.rbac.RequireAny(rbac.PermItems)).Post("/{id}/receipts", h.receive)
}

// MountProjectRoutes registers material issues under /projects.
func (h *Handler) MountProjectRoutes(r chi.Router) {
	r.With(h.rbac.RequireAny(rbac.PermProjects)).Post("/{id}/issues", h.issueToProject)
}

type transactionRequest struct {
	Type      string          `json:"type" validate:"required,oneof=receipt issue"`
	ItemID    string          `json:"itemId" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	ProjectID string          `json:"projectId"`
	Notes     string          `json:"notes" validate:"max=500"`
}

type movementRequest struct {
	ItemID   string          `json:"itemId"`
	Quantity decimal.Decimal `json:"quantity"`
	Notes    string          `json:"notes" validate:"max=500"`
}

type receiptRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	Notes    string          `json:"notes" validate:"max=500"`
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := Filter{
		ItemID:    q.Get("item_id"),
		ProjectID: q.Get("project_id"),
		InvoiceID: q.Get("invoice_id"),
		Type:      store.TransactionType(q.Get("type")),
	}
	if filter.Type != "" && !filter.Type.Valid() {
		httpx.ValidationProblem(w, map[string]string{"type": "oneof=receipt issue"})
		return
	}
	rows, err := h.service.ListTransactions(r.Context(), filter)
	if err != nil {
		h.fail(w, r, "list transactions", err)
		return
	}
	page, meta := shared.Page(r, rows)
	httpx.JSON(w, http.StatusOK, map[string]any{"data": page, "pagination": meta})
}

func (h *Handler) createTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	rec, err := h.service.RecordTransaction(r.Context(), RecordInput{
		Type:      store.TransactionType(req.Type),
		ItemID:    req.ItemID,
		Quantity:  req.Quantity,
		ProjectID: req.ProjectID,
		Notes:     req.Notes,
	})
	if err != nil {
		h.fail(w, r, "record transaction", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, rec)
}

func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
	var req receiptRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	rec, err := h.service.Receive(r.Context(), chi.URLParam(r, "id"), req.Quantity, req.Notes)
	if err != nil {
		h.fail(w, r, "receive stock", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, rec)
}

func (h *Handler) issueToProject(w http.ResponseWriter, r *http.Request) {
	var req movementRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if req.ItemID == "" {
		httpx.ValidationProblem(w, map[string]string{"ItemID": "required"})
		return
	}
	rec, err := h.service.IssueToProject(r.Context(), chi.URLParam(r, "id"), req.ItemID, req.Quantity, req.Notes)
	if err != nil {
		h.fail(w, r, "issue to project", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, rec)
}

func (h *Handler) decode(r *http.Request, dst any) error {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		return err
	}
	return h.validator.Struct(dst)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.Warn(op, slog.Any("error", err), slog.String("path", r.URL.Path))
	httpx.RespondError(w, err, ErrorMappings...)
}
