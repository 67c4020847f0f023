package invoicing

import (
	"context"

	"github.com/elmeel/warehouse/internal/store"
)

// EventSink is notified after invoicing changes have been committed.
type EventSink interface {
	InvoiceIssued(ctx context.Context, inv store.Invoice)
	PaymentApplied(ctx context.Context, p store.Payment)
	InvoiceDeleted(ctx context.Context, inv store.Invoice)
}
