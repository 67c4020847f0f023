package observability

import (
	"context"
	"log/slog"

	"github.com/elmeel/warehouse/internal/store"
)

// ChangeNotifier invalidates derived read models.
type ChangeNotifier interface {
	Bump(ctx context.Context) error
}

// LedgerSink counts committed ledger events and invalidates the dashboard
// cache. It satisfies both inventory.EventSink and invoicing.EventSink.
type LedgerSink struct {
	metrics  *Metrics
	notifier ChangeNotifier
	logger   *slog.Logger
}

// NewLedgerSink wires metrics and an optional cache notifier.
func NewLedgerSink(metrics *Metrics, notifier ChangeNotifier, logger *slog.Logger) *LedgerSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerSink{metrics: metrics, notifier: notifier, logger: logger}
}

// TransactionRecorded counts a committed stock movement.
func (s *LedgerSink) TransactionRecorded(ctx context.Context, t store.InventoryTransaction) {
	if s.metrics != nil {
		s.metrics.movements.WithLabelValues(string(t.Type)).Inc()
		s.metrics.movedQuantity.WithLabelValues(string(t.Type)).Add(t.Quantity.InexactFloat64())
	}
	s.bump(ctx)
}

// InvoiceIssued counts an issued invoice.
func (s *LedgerSink) InvoiceIssued(ctx context.Context, inv store.Invoice) {
	if s.metrics != nil {
		s.metrics.invoicesIssued.Inc()
		s.metrics.invoicedAmount.Add(inv.TotalAmount.InexactFloat64())
	}
	s.bump(ctx)
}

// PaymentApplied counts a recorded payment.
func (s *LedgerSink) PaymentApplied(ctx context.Context, p store.Payment) {
	if s.metrics != nil {
		s.metrics.paymentsApplied.Inc()
		s.metrics.paymentsReceived.Add(p.Amount.InexactFloat64())
	}
	s.bump(ctx)
}

// InvoiceDeleted counts a deleted invoice.
func (s *LedgerSink) InvoiceDeleted(ctx context.Context, inv store.Invoice) {
	if s.metrics != nil {
		s.metrics.invoicesDeleted.Inc()
	}
	s.bump(ctx)
}

func (s *LedgerSink) bump(ctx context.Context) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Bump(ctx); err != nil {
		s.logger.Warn("dashboard cache bump", slog.Any("error", err))
	}
}
