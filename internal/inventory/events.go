package inventory

import (
	"context"

	"github.com/elmeel/warehouse/internal/store"
)

// EventSink is notified after a movement has been committed.
type EventSink interface {
	TransactionRecorded(ctx context.Context, t store.InventoryTransaction)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(ctx context.Context, t store.InventoryTransaction)

// TransactionRecorded implements EventSink.
func (f EventSinkFunc) TransactionRecorded(ctx context.Context, t store.InventoryTransaction) {
	f(ctx, t)
}
