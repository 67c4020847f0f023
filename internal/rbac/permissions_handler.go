package rbac

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/elmeel/warehouse/internal/platform/httpx"
	"github.com/elmeel/warehouse/internal/shared"
)

// PermissionsHandler exposes the role table.
type PermissionsHandler struct {
	service *Service
	rbac    Middleware
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(service *Service, rbac Middleware) *PermissionsHandler {
	return &PermissionsHandler{service: service, rbac: rbac}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireAuth).Get("/me", h.myPermissions)
	r.With(h.rbac.RequireAny(PermUsers)).Get("/roles", h.listRoles)
}

func (h *PermissionsHandler) myPermissions(w http.ResponseWriter, r *http.Request) {
	user := shared.SessionFromContext(r.Context()).AuthUser()
	role, _ := currentRole(r)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user":        user,
		"permissions": h.service.EffectivePermissions(role),
	})
}

func (h *PermissionsHandler) listRoles(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.service.Grants())
}
