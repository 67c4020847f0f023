package invoicing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/elmeel/warehouse/internal/inventory"
	"github.com/elmeel/warehouse/internal/shared"
	"github.com/elmeel/warehouse/internal/store"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func clock() time.Time { return time.Date(2024, 7, 2, 9, 0, 0, 0, time.UTC) }

// recordingSink is called after commit, outside the store lock.
type recordingSink struct {
	mu       sync.Mutex
	issued   []store.Invoice
	payments []store.Payment
	deleted  []store.Invoice
}

func (r *recordingSink) InvoiceIssued(_ context.Context, inv store.Invoice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issued = append(r.issued, inv)
}
func (r *recordingSink) PaymentApplied(_ context.Context, p store.Payment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments = append(r.payments, p)
}
func (r *recordingSink) InvoiceDeleted(_ context.Context, inv store.Invoice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, inv)
}

func (r *recordingSink) issuedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.issued)
}

type fixture struct {
	store *store.Store
	svc   *Service
	sink  *recordingSink
	audit *shared.AuditLogger
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	st := store.New(store.Dataset{
		Items: []store.Item{
			{ID: "i1", Name: "Paint", Code: "PNT-1", Stock: dec(50), Price: dec(100)},
			{ID: "i2", Name: "Wire", Code: "WIR-1", Stock: dec(3), Price: dec(40)},
		},
		Clients:  []store.Client{{ID: "c1", Name: "Acme", Balance: dec(1000), PaymentTerms: store.TermsDeferred}},
		Settings: store.Settings{VATPercentage: dec(14), InvoicePrefix: "INV-2024-", NextInvoiceNumber: 4},
	})
	stock := inventory.NewService(st, nil, inventory.ServiceConfig{Clock: clock}, nil)
	sink := &recordingSink{}
	audit := shared.NewAuditLogger(nil, 0)
	return fixture{store: st, svc: NewService(st, stock, audit, nil, clock, sink), sink: sink, audit: audit}
}

func (f fixture) client(t *testing.T) store.Client {
	t.Helper()
	return f.store.Snapshot().Clients[0]
}

func TestIssueInvoiceScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.svc.IssueInvoice(ctx, IssueInput{
		ClientID:   "c1",
		Lines:      []LineInput{{ItemID: "i1", Quantity: dec(5)}},
		AmountPaid: dec(300),
	})
	require.NoError(t, err)

	require.True(t, inv.Subtotal().Equal(dec(500)))
	require.True(t, inv.VAT.Equal(dec(70)))
	require.True(t, inv.TotalAmount.Equal(dec(570)))
	require.True(t, inv.AmountDue.Equal(dec(270)))
	require.Equal(t, store.InvoicePartial, inv.Status)
	require.Equal(t, "INV-2024-004", inv.InvoiceNumber)
	require.Equal(t, "2024-07-02", inv.Date)
	require.Equal(t, "Acme", inv.ClientName)
	require.NoError(t, inv.CheckBalance())

	snap := f.store.Snapshot()
	require.True(t, snap.Clients[0].Balance.Equal(dec(1270)))
	require.True(t, snap.Items[0].Stock.Equal(dec(45)))
	require.Equal(t, 5, snap.Settings.NextInvoiceNumber)
	require.Len(t, snap.Invoices, 1)

	require.Len(t, snap.Payments, 1)
	require.True(t, snap.Payments[0].Amount.Equal(dec(300)))
	require.Equal(t, inv.Date, snap.Payments[0].Date)

	require.Len(t, snap.Transactions, 1)
	tr := snap.Transactions[0]
	require.Equal(t, store.TransactionIssue, tr.Type)
	require.True(t, tr.Quantity.Equal(dec(5)))
	require.Equal(t, inv.ID, tr.InvoiceID)
	require.Empty(t, tr.ProjectID)

	require.Len(t, f.sink.issued, 1)
	require.Len(t, f.sink.payments, 1)
	require.Equal(t, "invoice.issue", f.audit.Recent(1)[0].Action)

	// Settle the remainder.
	p, err := f.svc.ApplyPayment(ctx, inv.ID, dec(270))
	require.NoError(t, err)
	require.True(t, p.Amount.Equal(dec(270)))

	paid, err := f.svc.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.True(t, paid.AmountPaid.Equal(dec(570)))
	require.True(t, paid.AmountDue.IsZero())
	require.Equal(t, store.InvoicePaid, paid.Status)
	require.NoError(t, paid.CheckBalance())
	require.True(t, f.client(t).Balance.Equal(dec(1000)))

	payments, err := f.svc.ListPayments(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	require.Equal(t, p.ID, payments[0].ID)
}

func TestIssueInvoiceUnpaidAndFullyPaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unpaid, err := f.svc.IssueInvoice(ctx, IssueInput{ClientID: "c1", Lines: []LineInput{{ItemID: "i2", Quantity: dec(1)}}})
	require.NoError(t, err)
	require.Equal(t, store.InvoiceUnpaid, unpaid.Status)
	require.Empty(t, f.sink.payments)

	full, err := f.svc.IssueInvoice(ctx, IssueInput{ClientID: "c1", Lines: []LineInput{{ItemID: "i2", Quantity: dec(1)}}, AmountPaid: decimal.RequireFromString("45.6")})
	require.NoError(t, err)
	require.Equal(t, store.InvoicePaid, full.Status)
	require.True(t, full.AmountDue.IsZero())
	require.Equal(t, "INV-2024-005", full.InvoiceNumber)

	require.True(t, f.client(t).Balance.Equal(decimal.RequireFromString("1045.6")))
	invoices, err := f.svc.ListInvoices(ctx, Filter{})
	require.NoError(t, err)
	require.Equal(t, full.ID, invoices[0].ID)

	onlyPaid, err := f.svc.ListInvoices(ctx, Filter{Status: store.InvoicePaid})
	require.NoError(t, err)
	require.Len(t, onlyPaid, 1)
}

func TestIssueInvoiceMergesLinesAtCurrentPrice(t *testing.T) {
	f := newFixture(t)

	inv, err := f.svc.IssueInvoice(context.Background(), IssueInput{
		ClientID: "c1",
		Lines: []LineInput{
			{ItemID: "i1", Quantity: dec(2)},
			{ItemID: "i2", Quantity: dec(1)},
			{ItemID: "i1", Quantity: dec(3)},
		},
	})
	require.NoError(t, err)
	require.Len(t, inv.Items, 2)
	require.Equal(t, "i1", inv.Items[0].ItemID)
	require.True(t, inv.Items[0].Quantity.Equal(dec(5)))
	require.True(t, inv.Items[0].UnitPrice.Equal(dec(100)))
	require.True(t, inv.Items[0].Total.Equal(dec(500)))
	require.Equal(t, "Paint", inv.Items[0].ItemName)
	require.True(t, inv.Items[1].UnitPrice.Equal(dec(40)))

	// 500 + 40 plus 14% VAT.
	require.True(t, inv.Subtotal().Equal(dec(540)))
	require.True(t, inv.TotalAmount.Equal(decimal.RequireFromString("615.6")))
	require.Len(t, f.store.Snapshot().Transactions, 2)
}

func TestIssueInvoiceSnapshotsPriceAtIssuance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	input := IssueInput{ClientID: "c1", Lines: []LineInput{{ItemID: "i1", Quantity: dec(1)}}}

	first, err := f.svc.IssueInvoice(ctx, input)
	require.NoError(t, err)

	require.NoError(t, f.store.WithTx(ctx, func(_ context.Context, tx *store.Tx) error {
		item, err := tx.Item("i1")
		if err != nil {
			return err
		}
		item.Price = dec(200)
		return tx.PutItem(item)
	}))

	second, err := f.svc.IssueInvoice(ctx, input)
	require.NoError(t, err)
	require.True(t, second.Items[0].UnitPrice.Equal(dec(200)))

	stored, err := f.svc.GetInvoice(ctx, first.ID)
	require.NoError(t, err)
	require.True(t, stored.Items[0].UnitPrice.Equal(dec(100)))
	require.True(t, stored.TotalAmount.Equal(dec(114)))
}

func TestIssueInvoiceRejectsAndLeavesStoreUntouched(t *testing.T) {
	cases := []struct {
		name  string
		input IssueInput
		want  error
	}{
		{"no lines", IssueInput{ClientID: "c1"}, ErrNoLines},
		{"zero qty", IssueInput{ClientID: "c1", Lines: []LineInput{{ItemID: "i1", Quantity: decimal.Zero}}}, ErrInvalidQuantity},
		{"negative paid", IssueInput{ClientID: "c1", Lines: []LineInput{{ItemID: "i1", Quantity: dec(1)}}, AmountPaid: dec(-1)}, ErrInvalidAmount},
		{"overpaid", IssueInput{ClientID: "c1", Lines: []LineInput{{ItemID: "i1", Quantity: dec(1)}}, AmountPaid: dec(115)}, ErrOverpayment},
		{"unknown client", IssueInput{ClientID: "zz", Lines: []LineInput{{ItemID: "i1", Quantity: dec(1)}}}, store.ErrReferenceNotFound},
		{"unknown item", IssueInput{ClientID: "c1", Lines: []LineInput{{ItemID: "zz", Quantity: dec(1)}}}, store.ErrReferenceNotFound},
		{"short stock on second line", IssueInput{ClientID: "c1", Lines: []LineInput{{ItemID: "i1", Quantity: dec(1)}, {ItemID: "i2", Quantity: dec(4)}}}, inventory.ErrInsufficientStock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.IssueInvoice(context.Background(), tc.input)
			require.ErrorIs(t, err, tc.want)

			snap := f.store.Snapshot()
			require.Empty(t, snap.Invoices)
			require.Empty(t, snap.Payments)
			require.Empty(t, snap.Transactions)
			require.True(t, snap.Items[0].Stock.Equal(dec(50)))
			require.True(t, snap.Clients[0].Balance.Equal(dec(1000)))
			require.Equal(t, 4, snap.Settings.NextInvoiceNumber)
			require.Empty(t, f.sink.issued)
		})
	}
}

func TestApplyPaymentRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv, err := f.svc.IssueInvoice(ctx, IssueInput{ClientID: "c1", Lines: []LineInput{{ItemID: "i1", Quantity: dec(1)}}})
	require.NoError(t, err)

	_, err = f.svc.ApplyPayment(ctx, inv.ID, decimal.Zero)
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = f.svc.ApplyPayment(ctx, inv.ID, dec(-5))
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = f.svc.ApplyPayment(ctx, inv.ID, dec(115))
	require.ErrorIs(t, err, ErrOverpayment)
	_, err = f.svc.ApplyPayment(ctx, "missing", dec(1))
	require.ErrorIs(t, err, store.ErrReferenceNotFound)

	p, err := f.svc.ApplyPayment(ctx, inv.ID, dec(14))
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)
	got, _ := f.svc.GetInvoice(ctx, inv.ID)
	require.Equal(t, store.InvoicePartial, got.Status)

	_, err = f.svc.ApplyPayment(ctx, inv.ID, dec(100))
	require.NoError(t, err)
	_, err = f.svc.ApplyPayment(ctx, inv.ID, dec(1))
	require.ErrorIs(t, err, ErrOverpayment)
}

func TestApplyPaymentUnknownClient(t *testing.T) {
	st := store.New(store.Dataset{
		Invoices: []store.Invoice{{ID: "inv", ClientID: "gone", Status: store.InvoiceUnpaid, TotalAmount: dec(10), AmountDue: dec(10)}},
	})
	svc := NewService(st, inventory.NewService(st, nil, inventory.ServiceConfig{}, nil), nil, nil, clock, nil)
	_, err := svc.ApplyPayment(context.Background(), "inv", dec(5))
	require.ErrorIs(t, err, store.ErrReferenceNotFound)
	require.Empty(t, st.Snapshot().Payments)
	require.True(t, st.Snapshot().Invoices[0].AmountDue.Equal(dec(10)))
}

func TestDeleteInvoiceReversesOutstandingBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv, err := f.svc.IssueInvoice(ctx, IssueInput{ClientID: "c1", Lines: []LineInput{{ItemID: "i1", Quantity: dec(5)}}, AmountPaid: dec(300)})
	require.NoError(t, err)
	require.True(t, f.client(t).Balance.Equal(dec(1270)))

	require.NoError(t, f.svc.DeleteInvoice(ctx, inv.ID))
	require.True(t, f.client(t).Balance.Equal(dec(1000)))
	require.Len(t, f.sink.deleted, 1)

	_, err = f.svc.GetInvoice(ctx, inv.ID)
	require.ErrorIs(t, err, store.ErrReferenceNotFound)
	require.ErrorIs(t, f.svc.DeleteInvoice(ctx, inv.ID), store.ErrReferenceNotFound)

	snap := f.store.Snapshot()
	require.Len(t, snap.Payments, 1)
	require.Len(t, snap.Transactions, 1)
}

func TestIdempotencyKeyRejectsReplay(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	idem := shared.NewIdempotencyStore(client, time.Hour)

	st := store.New(store.Dataset{
		Items:    []store.Item{{ID: "i1", Name: "Paint", Stock: dec(5), Price: dec(100)}},
		Clients:  []store.Client{{ID: "c1", Name: "Acme"}},
		Settings: store.Settings{VATPercentage: dec(14), InvoicePrefix: "F", NextInvoiceNumber: 1},
	})
	svc := NewService(st, inventory.NewService(st, nil, inventory.ServiceConfig{}, nil), nil, idem, clock, nil)
	ctx := context.Background()

	// A failed attempt releases the key.
	_, err := svc.IssueInvoice(ctx, IssueInput{ClientID: "c1", Lines: []LineInput{{ItemID: "i1", Quantity: dec(6)}}, IdempotencyKey: "k1"})
	require.ErrorIs(t, err, inventory.ErrInsufficientStock)

	input := IssueInput{ClientID: "c1", Lines: []LineInput{{ItemID: "i1", Quantity: dec(1)}}, IdempotencyKey: "k1"}
	_, err = svc.IssueInvoice(ctx, input)
	require.NoError(t, err)
	_, err = svc.IssueInvoice(ctx, input)
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)
	require.Len(t, st.Snapshot().Invoices, 1)
}

func TestConcurrentIssuanceAllocatesDistinctNumbers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 10
	numbers := make(chan string, n)
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			inv, err := f.svc.IssueInvoice(ctx, IssueInput{ClientID: "c1", Lines: []LineInput{{ItemID: "i1", Quantity: dec(1)}}})
			errs <- err
			numbers <- inv.InvoiceNumber
		}()
	}
	seen := map[string]bool{}
	for i := 0; i < n; i++ {
		require.NoError(t, <-errs)
		num := <-numbers
		require.False(t, seen[num], "duplicate %s", num)
		seen[num] = true
	}
	snap := f.store.Snapshot()
	require.Equal(t, 4+n, snap.Settings.NextInvoiceNumber)
	require.True(t, snap.Items[0].Stock.Equal(dec(50-n)))
	require.Equal(t, n, f.sink.issuedCount())
}
