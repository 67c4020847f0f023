package settings

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/elmeel/warehouse/internal/platform/httpx"
	"github.com/elmeel/warehouse/internal/rbac"
	"github.com/elmeel/warehouse/internal/store"
)

var errorMappings = []httpx.Mapping{
	{Err: ErrNegativeVAT, Status: http.StatusUnprocessableEntity, Title: "Invalid VAT"},
	{Err: ErrInvalidSequence, Status: http.StatusUnprocessableEntity, Title: "Invalid Sequence"},
	{Err: ErrSequenceRewind, Status: http.StatusConflict, Title: "Sequence Rewind"},
	{Err: ErrCompanyName, Status: http.StatusBadRequest, Title: "Name Required"},
}

// Handler exposes settings endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	rbac      rbac.Middleware
}

// NewHandler constructs the settings handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: validator.New(), rbac: rbac}
}

// MountRoutes registers /settings routes. Reading the company profile is
// open to every logged in user since it is printed on invoices.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireAuth).Get("/company", h.getCompany)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermSettings))
		r.Get("/", h.getSettings)
		r.Put("/", h.updateSettings)
		r.Put("/company", h.updateCompany)
	})
}

type settingsRequest struct {
	VATPercentage     decimal.Decimal `json:"vatPercentage"`
	InvoicePrefix     string          `json:"invoicePrefix" validate:"max=20"`
	NextInvoiceNumber int             `json:"nextInvoiceNumber"`
}

type companyRequest struct {
	Name            string `json:"name" validate:"required,max=200"`
	LogoURL         string `json:"logoUrl" validate:"omitempty,url"`
	Address         string `json:"address" validate:"max=500"`
	TaxRegistration string `json:"taxRegistration" validate:"max=50"`
	ContactInfo     string `json:"contactInfo" validate:"max=200"`
}

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.Settings(r.Context())
	if err != nil {
		h.fail(w, r, "get settings", err)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}

func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	s, err := h.service.UpdateSettings(r.Context(), store.Settings(req))
	if err != nil {
		h.fail(w, r, "update settings", err)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}

func (h *Handler) getCompany(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.Company(r.Context())
	if err != nil {
		h.fail(w, r, "get company", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) updateCompany(w http.ResponseWriter, r *http.Request) {
	var req companyRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.UpdateCompany(r.Context(), store.CompanyProfile(req))
	if err != nil {
		h.fail(w, r, "update company", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
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
