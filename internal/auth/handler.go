package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/elmeel/warehouse/internal/platform/httpx"
	"github.com/elmeel/warehouse/internal/shared"
)

var errorMappings = []httpx.Mapping{
	{Err: shared.ErrInvalidCredentials, Status: http.StatusUnauthorized, Title: "Invalid Credentials"},
	{Err: shared.ErrUnauthenticated, Status: http.StatusUnauthorized, Title: "Unauthorized"},
	{Err: ErrWrongPassword, Status: http.StatusUnprocessableEntity, Title: "Wrong Password"},
	{Err: ErrWeakPassword, Status: http.StatusUnprocessableEntity, Title: "Weak Password"},
	{Err: ErrPasswordConfirmation, Status: http.StatusUnprocessableEntity, Title: "Password Mismatch"},
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/csrf", h.csrfToken)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/me", h.me)
	r.Post("/password", h.changePassword)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

func (h *Handler) csrfToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.csrfManager.EnsureToken(r.Context(), shared.SessionFromContext(r.Context()))
	if err != nil {
		h.logger.Error("csrf token", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.RespondError(w, shared.ErrUnauthenticated, errorMappings...)
		return
	}
	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, "login", err)
		return
	}
	authUser := SessionUser(user)
	sess.SetAuthUser(authUser)
	httpx.JSON(w, http.StatusOK, authUser)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		h.sessionManager.Destroy(sess)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	current := shared.SessionFromContext(r.Context()).AuthUser()
	if current == nil {
		httpx.RespondError(w, shared.ErrUnauthenticated, errorMappings...)
		return
	}
	user, err := h.service.CurrentUser(r.Context(), current.ID)
	if err != nil {
		// Account deleted while logged in.
		h.sessionManager.Destroy(shared.SessionFromContext(r.Context()))
		h.fail(w, r, "current user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, SessionUser(user))
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	current := shared.SessionFromContext(r.Context()).AuthUser()
	if current == nil {
		httpx.RespondError(w, shared.ErrUnauthenticated, errorMappings...)
		return
	}
	var req passwordRequest
	if err := h.decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		h.fail(w, r, "change password", ErrPasswordConfirmation)
		return
	}
	if err := h.service.ChangePassword(r.Context(), current.ID, req.CurrentPassword, req.NewPassword); err != nil {
		h.fail(w, r, "change password", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
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
