package dashboard_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/elmeel/warehouse/internal/dashboard"
	"github.com/elmeel/warehouse/internal/platform/cache"
	"github.com/elmeel/warehouse/internal/rbac"
	"github.com/elmeel/warehouse/internal/shared"
	"github.com/elmeel/warehouse/internal/store"
	_ "github.com/elmeel/warehouse/testing"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var fixedNow = time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)

func dataset() store.Dataset {
	return store.Dataset{
		Items: []store.Item{
			{ID: "1", Code: "CEM", Stock: d("5"), LowStockThreshold: d("20")},
			{ID: "2", Code: "STL", Stock: d("75"), LowStockThreshold: d("10")},
		},
		Projects: []store.Project{
			{ID: "1", Status: store.ProjectActive},
			{ID: "2", Status: store.ProjectCompleted},
		},
		Clients: []store.Client{
			{ID: "1", Name: "Arab Contractors", Balance: d("45000")},
			{ID: "2", Name: "Modern Build", Balance: d("12000")},
		},
		Invoices: []store.Invoice{
			{ID: "1", ClientID: "1", ClientName: "Arab Contractors", Date: "2024-05-15", TotalAmount: d("51300"), AmountPaid: d("6300"), AmountDue: d("45000"), Status: store.InvoicePartial},
			{ID: "2", ClientID: "2", ClientName: "Modern Build", Date: "2024-08-20", TotalAmount: d("17100"), AmountDue: d("17100"), Status: store.InvoiceUnpaid},
		},
		Transactions: []store.InventoryTransaction{
			{ID: "t1", Type: store.TransactionReceipt, ItemID: "1", Quantity: d("1"), Date: "2024-09-01"},
			{ID: "t2", Type: store.TransactionIssue, ItemID: "1", Quantity: d("1"), Date: "2024-08-31"},
		},
	}
}

func newService(st *store.Store, c dashboard.Cache) *dashboard.Service {
	return dashboard.NewService(st, c, dashboard.NewFormatter("en"), func() time.Time { return fixedNow })
}

func TestSummary(t *testing.T) {
	svc := newService(store.New(dataset()), nil)

	s, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.Equal(t, "2024-09-01", s.AsOf)
	require.Equal(t, 2, s.TotalItems)
	require.Equal(t, 1, s.LowStockCount)
	require.Equal(t, 1, s.ActiveProjects)
	require.Equal(t, 1, s.TodayTransactions)
	require.True(t, s.TotalReceivables.Equal(d("57000")))
	require.Equal(t, "57,000.00", s.FormattedReceivables)
	require.Equal(t, 2, s.OutstandingInvoices)
	require.True(t, s.TotalOutstanding.Equal(d("62100")))
}

func TestReconcileFlagsDrift(t *testing.T) {
	svc := newService(store.New(dataset()), nil)

	rec, err := svc.Reconcile(context.Background())
	require.NoError(t, err)
	require.Len(t, rec.Rows, 2)
	require.False(t, rec.Rows[0].Drifted())
	require.True(t, rec.Rows[1].Drift.Equal(d("-5100")))
	require.Equal(t, []string{"2"}, rec.Drifted)

	buckets := map[string]decimal.Decimal{}
	for _, b := range rec.Aging {
		buckets[b.Bucket] = b.Amount
	}
	require.True(t, buckets[dashboard.BucketCurrent].Equal(d("17100")))
	require.True(t, buckets[dashboard.BucketOver90].Equal(d("45000")))
	require.True(t, buckets[dashboard.Bucket60].IsZero())
}

func TestCachedSummaryFollowsBump(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	versioned := cache.NewVersioned(client, "dashboard", time.Minute)
	st := store.New(dataset())
	svc := newService(st, versioned)
	ctx := context.Background()

	first, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, first.TotalItems)

	require.NoError(t, st.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		return tx.PutItem(store.Item{ID: "3", Code: "SND", Stock: d("1"), LowStockThreshold: d("1")})
	}))
	stale, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, stale.TotalItems)

	require.NoError(t, versioned.Bump(ctx))
	fresh, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, fresh.TotalItems)
}

func TestWriteReceivablesCSV(t *testing.T) {
	svc := newService(store.New(dataset()), nil)
	rec, err := svc.Reconcile(context.Background())
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, dashboard.WriteReceivablesCSV(&sb, rec))
	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, "2,Modern Build,12000.00,17100.00,-5100.00,1", lines[2])
	require.Equal(t, ",Total,57000.00,62100.00,-5100.00,", lines[3])
}

func do(r http.Handler, path string, role store.Role) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	sess := &shared.Session{ID: "test"}
	sess.SetAuthUser(&shared.AuthUser{ID: "1", Role: string(role)})
	req = req.WithContext(shared.ContextWithSession(context.Background(), sess))
	res := httptest.NewRecorder()
	r.ServeHTTP(res, req)
	return res
}

func TestDashboardRoutes(t *testing.T) {
	h := dashboard.NewHandler(nil, newService(store.New(dataset()), nil), rbac.Middleware{Service: rbac.NewService()})
	r := chi.NewRouter()
	r.Route("/dashboard", h.MountRoutes)

	res := do(r, "/dashboard", store.RoleViewer)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var body struct {
		Summary dashboard.Summary       `json:"summary"`
		Aging   []dashboard.AgingBucket `json:"aging"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Equal(t, 1, body.Summary.LowStockCount)
	require.Len(t, body.Aging, 4)

	res = do(r, "/dashboard/receivables", store.RoleViewer)
	require.Equal(t, http.StatusForbidden, res.Code)

	res = do(r, "/dashboard/receivables", store.RoleAccountant)
	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), `"drifted":["2"]`)

	res = do(r, "/dashboard/receivables.csv", store.RoleAccountant)
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, "text/csv; charset=utf-8", res.Header().Get("Content-Type"))
}
