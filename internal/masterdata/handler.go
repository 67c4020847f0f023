package masterdata

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/elmeel/warehouse/internal/platform/httpx"
	"github.com/elmeel/warehouse/internal/rbac"
	"github.com/elmeel/warehouse/internal/shared"
	"github.com/elmeel/warehouse/internal/store"
)

var errorMappings = []httpx.Mapping{
	{Err: ErrRequiredField, Status: http.StatusBadRequest, Title: "Validation Failed"},
	{Err: ErrNegativeValue, Status: http.StatusUnprocessableEntity, Title: "Negative Value"},
	{Err: ErrInvalidStatus, Status: http.StatusBadRequest, Title: "Invalid Status"},
	{Err: ErrInvalidTerms, Status: http.StatusBadRequest, Title: "Invalid Payment Terms"},
	{Err: ErrDuplicateCode, Status: http.StatusConflict, Title: "Duplicate"},
}

// Handler manages master data endpoints.
type Handler struct {
	logger    *slog.Logger
	service   Service
	validator *validator.Validate
	rbac      rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service Service, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: validator.New(), rbac: rbac}
}

// MountItemRoutes registers item routes.
func (h *Handler) MountItemRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		// The invoice form needs the item list too.
		r.Use(h.rbac.RequireAny(rbac.PermItems, rbac.PermInvoices, rbac.PermProjects))
		r.Get("/", h.listItems)
		r.Get("/{id}", h.showItem)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermItems))
		r.Post("/", h.createItem)
		r.Put("/{id}", h.updateItem)
		r.Delete("/{id}", h.deleteItem)
	})
}

// MountProjectRoutes registers project routes.
func (h *Handler) MountProjectRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermProjects, rbac.PermTransactions))
		r.Get("/", h.listProjects)
		r.Get("/{id}", h.showProject)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermProjects))
		r.Post("/", h.createProject)
		r.Put("/{id}", h.updateProject)
		r.Delete("/{id}", h.deleteProject)
	})
}

// MountClientRoutes registers client routes.
func (h *Handler) MountClientRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermClients, rbac.PermInvoices))
		r.Get("/", h.listClients)
		r.Get("/{id}", h.showClient)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermClients))
		r.Post("/", h.createClient)
		r.Put("/{id}", h.updateClient)
		r.Delete("/{id}", h.deleteClient)
	})
}

type itemRequest struct {
	Name              string          `json:"name" validate:"required,max=200"`
	Code              string          `json:"code" validate:"required,max=50"`
	Unit              string          `json:"unit" validate:"required,max=30"`
	Category          string          `json:"category" validate:"max=100"`
	Price             decimal.Decimal `json:"price"`
	LowStockThreshold decimal.Decimal `json:"lowStockThreshold"`
	Stock             decimal.Decimal `json:"stock"`
}

type projectRequest struct {
	Name       string          `json:"name" validate:"required,max=200"`
	Supervisor string          `json:"supervisor" validate:"max=200"`
	Status     string          `json:"status" validate:"required,oneof=active completed on-hold"`
	Cost       decimal.Decimal `json:"cost"`
}

type clientRequest struct {
	Name          string          `json:"name" validate:"required,max=200"`
	ContactPerson string          `json:"contactPerson" validate:"max=200"`
	Phone         string          `json:"phone" validate:"max=30"`
	PaymentTerms  string          `json:"paymentTerms" validate:"required,oneof=immediate deferred"`
	Balance       decimal.Decimal `json:"balance"`
}

func listFilters(r *http.Request) ListFilters {
	q := r.URL.Query()
	low, _ := strconv.ParseBool(q.Get("low_stock"))
	return ListFilters{
		Search:       q.Get("q"),
		Category:     q.Get("category"),
		LowStockOnly: low,
		Status:       store.ProjectStatus(q.Get("status")),
		Terms:        store.PaymentTerms(q.Get("terms")),
	}
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.ListItems(r.Context(), listFilters(r))
	if err != nil {
		h.fail(w, r, "list items", err)
		return
	}
	page, meta := shared.Page(r, rows)
	httpx.JSON(w, http.StatusOK, map[string]any{"data": page, "pagination": meta})
}

func (h *Handler) showItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "get item", err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.CreateItem(r.Context(), ItemInput(req))
	if err != nil {
		h.fail(w, r, "create item", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.UpdateItem(r.Context(), chi.URLParam(r, "id"), ItemInput(req))
	if err != nil {
		h.fail(w, r, "update item", err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "delete item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listProjects(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.ListProjects(r.Context(), listFilters(r))
	if err != nil {
		h.fail(w, r, "list projects", err)
		return
	}
	page, meta := shared.Page(r, rows)
	httpx.JSON(w, http.StatusOK, map[string]any{"data": page, "pagination": meta})
}

func (h *Handler) showProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "get project", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) createProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.CreateProject(r.Context(), projectInput(req))
	if err != nil {
		h.fail(w, r, "create project", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) updateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.UpdateProject(r.Context(), chi.URLParam(r, "id"), projectInput(req))
	if err != nil {
		h.fail(w, r, "update project", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) deleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProject(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "delete project", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.ListClients(r.Context(), listFilters(r))
	if err != nil {
		h.fail(w, r, "list clients", err)
		return
	}
	page, meta := shared.Page(r, rows)
	httpx.JSON(w, http.StatusOK, map[string]any{"data": page, "pagination": meta})
}

func (h *Handler) showClient(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetClient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "get client", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) createClient(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.CreateClient(r.Context(), clientInput(req))
	if err != nil {
		h.fail(w, r, "create client", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) updateClient(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.UpdateClient(r.Context(), chi.URLParam(r, "id"), clientInput(req))
	if err != nil {
		h.fail(w, r, "update client", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) deleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteClient(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "delete client", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func projectInput(req projectRequest) ProjectInput {
	return ProjectInput{Name: req.Name, Supervisor: req.Supervisor, Status: store.ProjectStatus(req.Status), Cost: req.Cost}
}

func clientInput(req clientRequest) ClientInput {
	return ClientInput{
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		PaymentTerms:  store.PaymentTerms(req.PaymentTerms),
		Balance:       req.Balance,
	}
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
