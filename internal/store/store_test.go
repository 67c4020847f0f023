package store

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newSeeded(t *testing.T) *Store {
	t.Helper()
	seed, err := Seed(bcrypt.MinCost)
	require.NoError(t, err)
	return New(seed)
}

func TestSeedInvoicesAreConsistent(t *testing.T) {
	s := newSeeded(t)
	for _, inv := range s.Snapshot().Invoices {
		require.NoError(t, inv.CheckBalance(), inv.InvoiceNumber)
	}
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	s := newSeeded(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(ctx context.Context, tx *Tx) error {
		item, err := tx.Item("1")
		if err != nil {
			return err
		}
		item.Stock = item.Stock.Add(decimal.NewFromInt(5))
		return tx.PutItem(item)
	})
	require.NoError(t, err)

	err = s.View(ctx, func(ctx context.Context, tx *Tx) error {
		item, err := tx.Item("1")
		require.NoError(t, err)
		require.True(t, item.Stock.Equal(decimal.NewFromInt(155)))
		return nil
	})
	require.NoError(t, err)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := newSeeded(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(ctx context.Context, tx *Tx) error {
		item, _ := tx.Item("1")
		item.Stock = decimal.Zero
		require.NoError(t, tx.PutItem(item))
		require.NoError(t, tx.PrependPayment(Payment{ID: "p", InvoiceID: "1", Amount: decimal.NewFromInt(1)}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	snap := s.Snapshot()
	require.True(t, snap.Items[0].Stock.Equal(decimal.NewFromInt(150)))
	require.Len(t, snap.Payments, 2)
}

func TestViewRejectsMutation(t *testing.T) {
	s := newSeeded(t)
	err := s.View(context.Background(), func(ctx context.Context, tx *Tx) error {
		return tx.PutItem(Item{ID: "x"})
	})
	require.ErrorIs(t, err, ErrReadOnly)
}

func TestReferenceErrorMatchesSentinel(t *testing.T) {
	s := newSeeded(t)
	err := s.View(context.Background(), func(ctx context.Context, tx *Tx) error {
		_, err := tx.Client("missing")
		return err
	})
	require.ErrorIs(t, err, ErrReferenceNotFound)
	var ref *ReferenceError
	require.True(t, errors.As(err, &ref))
	require.Equal(t, "client", ref.Entity)
	require.Equal(t, "missing", ref.ID)
}

func TestPrependKeepsMostRecentFirst(t *testing.T) {
	s := New(Dataset{})
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		id := id
		require.NoError(t, s.WithTx(ctx, func(ctx context.Context, tx *Tx) error {
			return tx.PrependTransaction(InventoryTransaction{ID: id})
		}))
	}
	snap := s.Snapshot()
	require.Equal(t, "c", snap.Transactions[0].ID)
	require.Equal(t, "a", snap.Transactions[2].ID)
}

func TestSnapshotIsDetached(t *testing.T) {
	s := newSeeded(t)
	snap := s.Snapshot()
	snap.Invoices[0].Items[0].ItemName = "changed"
	snap.Items[0].Name = "changed"

	again := s.Snapshot()
	require.NotEqual(t, "changed", again.Invoices[0].Items[0].ItemName)
	require.NotEqual(t, "changed", again.Items[0].Name)
}

func TestClosedStoreFails(t *testing.T) {
	s := newSeeded(t)
	s.Close()
	err := s.WithTx(context.Background(), func(ctx context.Context, tx *Tx) error { return nil })
	require.ErrorIs(t, err, ErrClosed)
}

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		paid, due int64
		want      InvoiceStatus
	}{
		{0, 100, InvoiceUnpaid},
		{40, 60, InvoicePartial},
		{100, 0, InvoicePaid},
		{120, -20, InvoicePaid},
	}
	for _, tc := range cases {
		got := DeriveStatus(decimal.NewFromInt(tc.paid), decimal.NewFromInt(tc.due))
		require.Equal(t, tc.want, got)
	}
}

func TestInvoiceNumberPadding(t *testing.T) {
	require.Equal(t, "INV-2024-004", Settings{InvoicePrefix: "INV-2024-", NextInvoiceNumber: 4}.InvoiceNumber())
	require.Equal(t, "F1234", Settings{InvoicePrefix: "F", NextInvoiceNumber: 1234}.InvoiceNumber())
}
