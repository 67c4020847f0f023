package invoicing

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/elmeel/warehouse/internal/inventory"
	"github.com/elmeel/warehouse/internal/platform/httpx"
	"github.com/elmeel/warehouse/internal/rbac"
	"github.com/elmeel/warehouse/internal/shared"
	"github.com/elmeel/warehouse/internal/store"
)

// IdempotencyHeader carries the client supplied replay key.
const IdempotencyHeader = "Idempotency-Key"

var errorMappings = append([]httpx.Mapping{
	{Err: ErrNoLines, Status: http.StatusUnprocessableEntity, Title: "No Lines"},
	{Err: ErrInvalidQuantity, Status: http.StatusUnprocessableEntity, Title: "Invalid Quantity"},
	{Err: ErrInvalidAmount, Status: http.StatusUnprocessableEntity, Title: "Invalid Amount"},
	{Err: ErrOverpayment, Status: http.StatusUnprocessableEntity, Title: "Overpayment"},
	{Err: shared.ErrIdempotencyConflict, Status: http.StatusConflict, Title: "Duplicate Request"},
}, inventory.ErrorMappings...)

// Handler wires HTTP endpoints for invoices and payments.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	rbac      rbac.Middleware
}

// NewHandler constructs the invoicing handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: validator.New(), rbac: rbac}
}

// MountRoutes registers invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermInvoices))
		r.Get("/", h.listInvoices)
		r.Post("/", h.issueInvoice)
		r.Get("/{id}", h.getInvoice)
		r.Delete("/{id}", h.deleteInvoice)
		r.Get("/{id}/payments", h.listInvoicePayments)
		r.Post("/{id}/payments", h.applyPayment)
	})
}

// MountPaymentRoutes registers the payment ledger routes.
func (h *Handler) MountPaymentRoutes(r chi.Router) {
	r.With(h.rbac.RequireAny(rbac.PermInvoices)).Get("/", h.listPayments)
}

type lineRequest struct {
	ItemID   string          `json:"itemId" validate:"required"`
	Quantity decimal.Decimal `json:"quantity"`
}

type issueRequest struct {
	ClientID   string          `json:"clientId" validate:"required"`
	Lines      []lineRequest   `json:"lines" validate:"required,min=1,dive"`
	AmountPaid decimal.Decimal `json:"amountPaid"`
}

type paymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := Filter{ClientID: q.Get("client_id"), Status: store.InvoiceStatus(q.Get("status"))}
	rows, err := h.service.ListInvoices(r.Context(), filter)
	if err != nil {
		h.fail(w, r, "list invoices", err)
		return
	}
	page, meta := shared.Page(r, rows)
	httpx.JSON(w, http.StatusOK, map[string]any{"data": page, "pagination": meta})
}

func (h *Handler) issueInvoice(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	input := IssueInput{
		ClientID:       req.ClientID,
		AmountPaid:     req.AmountPaid,
		IdempotencyKey: r.Header.Get(IdempotencyHeader),
	}
	for _, l := range req.Lines {
		input.Lines = append(input.Lines, LineInput(l))
	}
	inv, err := h.service.IssueInvoice(r.Context(), input)
	if err != nil {
		h.fail(w, r, "issue invoice", err)
		return
	}
	h.logger.Info("invoice issued",
		slog.String("number", inv.InvoiceNumber),
		slog.String("client_id", inv.ClientID),
		slog.String("total", inv.TotalAmount.String()))
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := h.service.GetInvoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "get invoice", err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteInvoice(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "delete invoice", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) applyPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.ApplyPayment(r.Context(), chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		h.fail(w, r, "apply payment", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) listInvoicePayments(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.service.GetInvoice(r.Context(), id); err != nil {
		h.fail(w, r, "list invoice payments", err)
		return
	}
	rows, err := h.service.ListPayments(r.Context(), id)
	if err != nil {
		h.fail(w, r, "list invoice payments", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.ListPayments(r.Context(), r.URL.Query().Get("invoice_id"))
	if err != nil {
		h.fail(w, r, "list payments", err)
		return
	}
	page, meta := shared.Page(r, rows)
	httpx.JSON(w, http.StatusOK, map[string]any{"data": page, "pagination": meta})
}

func (h *Handler) decode(r *http.Request, dst any) error {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		return err
	}
	return h.validator.Struct(dst)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.Warn(op, slog.Any("error", err), slog.String("path", r.URL.Path))
	httpx.RespondError(w, err, errorMappings...)
}
