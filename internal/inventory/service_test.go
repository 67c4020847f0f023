package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/elmeel/warehouse/internal/store"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func fixedClock() time.Time { return time.Date(2024, 7, 1, 15, 4, 5, 0, time.UTC) }

func newTestStore() *store.Store {
	return store.New(store.Dataset{
		Items: []store.Item{
			{ID: "x", Name: "Cement", Code: "CEM-001", Stock: dec(30), Price: dec(1800), LowStockThreshold: dec(5)},
			{ID: "y", Name: "Sand", Code: "SND-001", Stock: dec(10), Price: dec(120)},
		},
		Projects: []store.Project{{ID: "p", Name: "Tower", Status: store.ProjectActive, Cost: dec(1000)}},
		Invoices: []store.Invoice{{ID: "inv", InvoiceNumber: "INV-001", Status: store.InvoicePaid}},
	})
}

func item(t *testing.T, st *store.Store, id string) store.Item {
	t.Helper()
	for _, it := range st.Snapshot().Items {
		if it.ID == id {
			return it
		}
	}
	t.Fatalf("item %s missing", id)
	return store.Item{}
}

func TestReceiptIncreasesStock(t *testing.T) {
	st := newTestStore()
	svc := NewService(st, nil, ServiceConfig{Clock: fixedClock}, nil)

	rec, err := svc.RecordTransaction(context.Background(), RecordInput{Type: store.TransactionReceipt, ItemID: "x", Quantity: dec(20)})
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID)
	require.Equal(t, "2024-07-01", rec.Date)

	require.True(t, item(t, st, "x").Stock.Equal(dec(50)))
	snap := st.Snapshot()
	require.True(t, snap.Projects[0].Cost.Equal(dec(1000)))
	require.Len(t, snap.Transactions, 1)
}

func TestIssueToProjectAccruesCostAtCurrentPrice(t *testing.T) {
	st := newTestStore()
	svc := NewService(st, nil, ServiceConfig{Clock: fixedClock}, nil)
	ctx := context.Background()

	_, err := svc.RecordTransaction(ctx, RecordInput{Type: store.TransactionIssue, ItemID: "x", ProjectID: "p", Quantity: dec(10)})
	require.NoError(t, err)
	require.True(t, item(t, st, "x").Stock.Equal(dec(20)))
	require.True(t, st.Snapshot().Projects[0].Cost.Equal(dec(19000)))

	// A later price change only affects later issues.
	require.NoError(t, st.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		it, _ := tx.Item("x")
		it.Price = dec(2000)
		return tx.PutItem(it)
	}))
	_, err = svc.IssueToProject(ctx, "p", "x", dec(1), "")
	require.NoError(t, err)
	require.True(t, st.Snapshot().Projects[0].Cost.Equal(dec(21000)))
}

func TestIssueWithoutProjectLeavesCostsAlone(t *testing.T) {
	st := newTestStore()
	svc := NewService(st, nil, ServiceConfig{}, nil)

	_, err := svc.RecordTransaction(context.Background(), RecordInput{Type: store.TransactionIssue, ItemID: "x", InvoiceID: "inv", Quantity: dec(5)})
	require.NoError(t, err)
	require.True(t, item(t, st, "x").Stock.Equal(dec(25)))
	require.True(t, st.Snapshot().Projects[0].Cost.Equal(dec(1000)))
}

func TestRecordTransactionRejections(t *testing.T) {
	cases := []struct {
		name  string
		input RecordInput
		want  error
	}{
		{"zero quantity", RecordInput{Type: store.TransactionReceipt, ItemID: "x", Quantity: decimal.Zero}, ErrInvalidQuantity},
		{"negative quantity", RecordInput{Type: store.TransactionIssue, ItemID: "x", Quantity: dec(-1)}, ErrInvalidQuantity},
		{"bad type", RecordInput{Type: "transfer", ItemID: "x", Quantity: dec(1)}, ErrInvalidType},
		{"project on receipt", RecordInput{Type: store.TransactionReceipt, ItemID: "x", ProjectID: "p", Quantity: dec(1)}, ErrProjectOnReceipt},
		{"unknown item", RecordInput{Type: store.TransactionReceipt, ItemID: "nope", Quantity: dec(1)}, store.ErrReferenceNotFound},
		{"unknown project", RecordInput{Type: store.TransactionIssue, ItemID: "x", ProjectID: "nope", Quantity: dec(1)}, store.ErrReferenceNotFound},
		{"unknown invoice", RecordInput{Type: store.TransactionIssue, ItemID: "x", InvoiceID: "nope", Quantity: dec(1)}, store.ErrReferenceNotFound},
		{"insufficient stock", RecordInput{Type: store.TransactionIssue, ItemID: "y", Quantity: dec(11)}, ErrInsufficientStock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := newTestStore()
			svc := NewService(st, nil, ServiceConfig{}, nil)
			_, err := svc.RecordTransaction(context.Background(), tc.input)
			require.ErrorIs(t, err, tc.want)

			snap := st.Snapshot()
			require.Empty(t, snap.Transactions)
			require.True(t, snap.Items[0].Stock.Equal(dec(30)))
			require.True(t, snap.Items[1].Stock.Equal(dec(10)))
			require.True(t, snap.Projects[0].Cost.Equal(dec(1000)))
		})
	}
}

func TestAllowNegativeStock(t *testing.T) {
	st := newTestStore()
	svc := NewService(st, nil, ServiceConfig{AllowNegativeStock: true}, nil)
	_, err := svc.RecordTransaction(context.Background(), RecordInput{Type: store.TransactionIssue, ItemID: "y", Quantity: dec(15)})
	require.NoError(t, err)
	require.True(t, item(t, st, "y").Stock.Equal(dec(-5)))
}

func TestStockConservation(t *testing.T) {
	st := newTestStore()
	var events int
	svc := NewService(st, nil, ServiceConfig{}, EventSinkFunc(func(context.Context, store.InventoryTransaction) { events++ }))
	ctx := context.Background()

	moves := []RecordInput{
		{Type: store.TransactionReceipt, Quantity: dec(7)},
		{Type: store.TransactionIssue, Quantity: dec(12)},
		{Type: store.TransactionReceipt, Quantity: decimal.RequireFromString("2.5")},
		{Type: store.TransactionIssue, Quantity: dec(100)}, // rejected
		{Type: store.TransactionIssue, Quantity: dec(3)},
	}
	for _, m := range moves {
		m.ItemID = "x"
		_, _ = svc.RecordTransaction(ctx, m)
	}

	expected := dec(30)
	for _, tr := range st.Snapshot().Transactions {
		if tr.ItemID != "x" {
			continue
		}
		if tr.Type == store.TransactionReceipt {
			expected = expected.Add(tr.Quantity)
		} else {
			expected = expected.Sub(tr.Quantity)
		}
	}
	require.True(t, item(t, st, "x").Stock.Equal(expected))
	require.True(t, expected.Equal(decimal.RequireFromString("24.5")))
	require.Equal(t, 4, events)
}

func TestListTransactionsFilters(t *testing.T) {
	st := newTestStore()
	svc := NewService(st, nil, ServiceConfig{}, nil)
	ctx := context.Background()

	_, err := svc.Receive(ctx, "x", dec(1), "first")
	require.NoError(t, err)
	_, err = svc.IssueToProject(ctx, "p", "y", dec(1), "")
	require.NoError(t, err)
	_, err = svc.Receive(ctx, "y", dec(2), "")
	require.NoError(t, err)

	all, err := svc.ListTransactions(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "y", all[0].ItemID)
	require.Equal(t, "first", all[2].Notes)

	byItem, err := svc.ListTransactions(ctx, Filter{ItemID: "y"})
	require.NoError(t, err)
	require.Len(t, byItem, 2)

	byProject, err := svc.ListTransactions(ctx, Filter{ProjectID: "p", Type: store.TransactionIssue})
	require.NoError(t, err)
	require.Len(t, byProject, 1)

	_, err = svc.IssueToProject(ctx, "", "x", dec(1), "")
	require.ErrorIs(t, err, store.ErrReferenceNotFound)
}
