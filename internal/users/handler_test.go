package users_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/elmeel/warehouse/internal/rbac"
	"github.com/elmeel/warehouse/internal/shared"
	"github.com/elmeel/warehouse/internal/store"
	"github.com/elmeel/warehouse/internal/users"
	_ "github.com/elmeel/warehouse/testing"
)

func newRouter(t *testing.T) *chi.Mux {
	t.Helper()
	svc, _, _ := newService(t, seeded(t))
	h := users.NewHandler(nil, svc, rbac.Middleware{Service: rbac.NewService()})
	r := chi.NewRouter()
	r.Route("/users", h.MountRoutes)
	return r
}

func do(r http.Handler, method, path, body string, role store.Role) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	sess := &shared.Session{ID: "test"}
	sess.SetAuthUser(&shared.AuthUser{ID: "1", Role: string(role)})
	req = req.WithContext(shared.ContextWithSession(context.Background(), sess))
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)
	return res
}

func TestUserRoutesAdminOnly(t *testing.T) {
	r := newRouter(t)

	res := do(r, http.MethodGet, "/users", "", store.RoleAccountant)
	require.Equal(t, http.StatusForbidden, res.Code)

	res = do(r, http.MethodGet, "/users", "", store.RoleAdmin)
	require.Equal(t, http.StatusOK, res.Code)
	require.NotContains(t, res.Body.String(), "$2a$")
}

func TestUserCRUDOverHTTP(t *testing.T) {
	r := newRouter(t)

	res := do(r, http.MethodPost, "/users", `{"name":"Omar","email":"omar@elmeel.com","role":"project_supervisor","password":"secret1"}`, store.RoleAdmin)
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	var u store.User
	require.NoError(t, json.NewDecoder(res.Body).Decode(&u))

	res = do(r, http.MethodPost, "/users", `{"name":"Dup","email":"omar@elmeel.com","role":"viewer","password":"secret1"}`, store.RoleAdmin)
	require.Equal(t, http.StatusConflict, res.Code)

	res = do(r, http.MethodPost, "/users", `{"name":"Bad","email":"bad@elmeel.com","role":"root","password":"secret1"}`, store.RoleAdmin)
	require.Equal(t, http.StatusBadRequest, res.Code)

	res = do(r, http.MethodPut, "/users/"+u.ID, `{"name":"Omar S","email":"omar@elmeel.com","role":"viewer"}`, store.RoleAdmin)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	require.Contains(t, res.Body.String(), `"role":"viewer"`)

	res = do(r, http.MethodDelete, "/users/"+u.ID, "", store.RoleAdmin)
	require.Equal(t, http.StatusNoContent, res.Code)
	res = do(r, http.MethodGet, "/users/"+u.ID, "", store.RoleAdmin)
	require.Equal(t, http.StatusNotFound, res.Code)
}
