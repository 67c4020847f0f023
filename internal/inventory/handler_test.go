package inventory_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/elmeel/warehouse/internal/inventory"
	"github.com/elmeel/warehouse/internal/rbac"
	"github.com/elmeel/warehouse/internal/shared"
	"github.com/elmeel/warehouse/internal/store"
	_ "github.com/elmeel/warehouse/testing"
)

func newRouter(t *testing.T) (*chi.Mux, *store.Store) {
	t.Helper()
	st := store.New(store.Dataset{
		Items:    []store.Item{{ID: "1", Code: "CEM-001", Stock: decimal.NewFromInt(30), Price: decimal.NewFromInt(1800)}},
		Projects: []store.Project{{ID: "1", Status: store.ProjectActive}},
	})
	svc := inventory.NewService(st, nil, inventory.ServiceConfig{}, nil)
	rb := rbac.Middleware{Service: rbac.NewService()}
	h := inventory.NewHandler(nil, svc, rb)

	r := chi.NewRouter()
	r.Route("/transactions", h.MountRoutes)
	r.Route("/items", h.MountItemRoutes)
	r.Route("/projects", h.MountProjectRoutes)
	return r, st
}

func do(r http.Handler, method, path, body string, role store.Role) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	sess := &shared.Session{ID: "test"}
	sess.SetAuthUser(&shared.AuthUser{ID: "1", Role: string(role)})
	req = req.WithContext(shared.ContextWithSession(context.Background(), sess))
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)
	return res
}

func TestCreateTransactionEndpoint(t *testing.T) {
	r, st := newRouter(t)

	res := do(r, http.MethodPost, "/transactions", `{"type":"issue","itemId":"1","quantity":"10","projectId":"1"}`, store.RoleWarehouseManager)
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())

	var rec store.InventoryTransaction
	require.NoError(t, json.NewDecoder(res.Body).Decode(&rec))
	require.Equal(t, store.TransactionIssue, rec.Type)

	snap := st.Snapshot()
	require.True(t, snap.Items[0].Stock.Equal(decimal.NewFromInt(20)))
	require.True(t, snap.Projects[0].Cost.Equal(decimal.NewFromInt(18000)))
}

func TestCreateTransactionErrors(t *testing.T) {
	r, _ := newRouter(t)

	cases := []struct {
		name string
		body string
		role store.Role
		code int
	}{
		{"forbidden", `{"type":"receipt","itemId":"1","quantity":"1"}`, store.RoleAccountant, http.StatusForbidden},
		{"bad type", `{"type":"gift","itemId":"1","quantity":"1"}`, store.RoleAdmin, http.StatusBadRequest},
		{"unknown field", `{"type":"receipt","itemId":"1","quantity":"1","price":3}`, store.RoleAdmin, http.StatusBadRequest},
		{"zero qty", `{"type":"receipt","itemId":"1","quantity":"0"}`, store.RoleAdmin, http.StatusUnprocessableEntity},
		{"too many", `{"type":"issue","itemId":"1","quantity":"31"}`, store.RoleAdmin, http.StatusUnprocessableEntity},
		{"unknown item", `{"type":"receipt","itemId":"9","quantity":"1"}`, store.RoleAdmin, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := do(r, http.MethodPost, "/transactions", tc.body, tc.role)
			require.Equal(t, tc.code, res.Code, res.Body.String())
		})
	}
}

func TestReceiptAndIssueRoutes(t *testing.T) {
	r, st := newRouter(t)

	res := do(r, http.MethodPost, "/items/1/receipts", `{"quantity":"20","notes":"delivery"}`, store.RoleWarehouseManager)
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	require.True(t, st.Snapshot().Items[0].Stock.Equal(decimal.NewFromInt(50)))

	res = do(r, http.MethodPost, "/projects/1/issues", `{"itemId":"1","quantity":"5"}`, store.RoleProjectSupervisor)
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())

	res = do(r, http.MethodGet, "/transactions?per_page=1", "", store.RoleWarehouseManager)
	require.Equal(t, http.StatusOK, res.Code)
	var body struct {
		Data       []store.InventoryTransaction `json:"data"`
		Pagination shared.Pagination            `json:"pagination"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Len(t, body.Data, 1)
	require.Equal(t, store.TransactionIssue, body.Data[0].Type)
	require.Equal(t, 2, body.Pagination.Total)
}

func TestTransactionLogFollowsRoleTable(t *testing.T) {
	r, _ := newRouter(t)
	cases := map[store.Role]int{
		store.RoleAdmin:             http.StatusOK,
		store.RoleWarehouseManager:  http.StatusOK,
		store.RoleAccountant:        http.StatusForbidden,
		store.RoleProjectSupervisor: http.StatusForbidden,
		store.RoleViewer:            http.StatusForbidden,
	}
	for role, want := range cases {
		res := do(r, http.MethodGet, "/transactions", "", role)
		require.Equal(t, want, res.Code, string(role))
	}
}
