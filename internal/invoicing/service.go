package invoicing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/elmeel/warehouse/internal/inventory"
	"github.com/elmeel/warehouse/internal/shared"
	"github.com/elmeel/warehouse/internal/store"
)

const idempotencyModule = "invoices"

// StorePort abstracts the entity store for the service.
type StorePort interface {
	WithTx(ctx context.Context, fn func(context.Context, *store.Tx) error) error
	View(ctx context.Context, fn func(context.Context, *store.Tx) error) error
}

// StockPoster posts inventory movements inside an open unit of work.
type StockPoster interface {
	Post(tx *store.Tx, input inventory.RecordInput) (store.InventoryTransaction, error)
	Committed(ctx context.Context, recs ...store.InventoryTransaction)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service issues invoices and applies payments.
type Service struct {
	store       StorePort
	stock       StockPoster
	audit       AuditPort
	idempotency *shared.IdempotencyStore
	clock       func() time.Time
	events      EventSink
}

// NewService builds Service. clock may be nil.
func NewService(st StorePort, stock StockPoster, audit AuditPort, idem *shared.IdempotencyStore, clock func() time.Time, events EventSink) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{store: st, stock: stock, audit: audit, idempotency: idem, clock: clock, events: events}
}

// IssueInvoice prices the lines, records the invoice, its optional initial
// payment and one stock issue per line, raises the client's balance by the
// unpaid remainder and advances the invoice counter, all in one unit of work.
func (s *Service) IssueInvoice(ctx context.Context, input IssueInput) (store.Invoice, error) {
	lines, err := mergeLines(input.Lines)
	if err != nil {
		return store.Invoice{}, err
	}
	if input.AmountPaid.IsNegative() {
		return store.Invoice{}, fmt.Errorf("%w: paid amount %s", ErrInvalidAmount, input.AmountPaid)
	}

	if input.IdempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, input.IdempotencyKey, idempotencyModule); err != nil {
			return store.Invoice{}, err
		}
	}

	var (
		invoice store.Invoice
		payment *store.Payment
		moves   []store.InventoryTransaction
	)
	err = s.store.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		client, err := tx.Client(input.ClientID)
		if err != nil {
			return err
		}
		settings := tx.Settings()

		items := make([]store.InvoiceItem, 0, len(lines))
		subtotal := decimal.Zero
		for _, l := range lines {
			item, err := tx.Item(l.ItemID)
			if err != nil {
				return err
			}
			price := item.Price
			total := price.Mul(l.Quantity)
			subtotal = subtotal.Add(total)
			items = append(items, store.InvoiceItem{
				ItemID:    item.ID,
				ItemName:  item.Name,
				Quantity:  l.Quantity,
				UnitPrice: price,
				Total:     total,
			})
		}

		vat := subtotal.Mul(settings.VATPercentage).Div(hundred)
		totalAmount := subtotal.Add(vat)
		if input.AmountPaid.GreaterThan(totalAmount) {
			return fmt.Errorf("%w: paid %s, total %s", ErrOverpayment, input.AmountPaid, totalAmount)
		}
		amountDue := totalAmount.Sub(input.AmountPaid)
		date := store.FormatDate(s.clock())

		invoice = store.Invoice{
			ID:            uuid.NewString(),
			InvoiceNumber: settings.InvoiceNumber(),
			ClientID:      client.ID,
			ClientName:    client.Name,
			Date:          date,
			Status:        store.DeriveStatus(input.AmountPaid, amountDue),
			Items:         items,
			VAT:           vat,
			TotalAmount:   totalAmount,
			AmountPaid:    input.AmountPaid,
			AmountDue:     amountDue,
		}
		if err := tx.PrependInvoice(invoice); err != nil {
			return err
		}

		if input.AmountPaid.IsPositive() {
			payment = &store.Payment{ID: uuid.NewString(), InvoiceID: invoice.ID, Amount: input.AmountPaid, Date: date}
			if err := tx.PrependPayment(*payment); err != nil {
				return err
			}
		}

		for _, line := range items {
			rec, err := s.stock.Post(tx, inventory.RecordInput{
				Type:      store.TransactionIssue,
				ItemID:    line.ItemID,
				Quantity:  line.Quantity,
				Date:      date,
				InvoiceID: invoice.ID,
				Notes:     "invoice " + invoice.InvoiceNumber,
			})
			if err != nil {
				return err
			}
			moves = append(moves, rec)
		}

		client.Balance = client.Balance.Add(amountDue)
		if err := tx.PutClient(client); err != nil {
			return err
		}

		settings.NextInvoiceNumber++
		return tx.SetSettings(settings)
	})
	if err != nil {
		if input.IdempotencyKey != "" && s.idempotency != nil {
			_ = s.idempotency.Delete(ctx, input.IdempotencyKey, idempotencyModule)
		}
		return store.Invoice{}, err
	}

	s.record(ctx, "invoice.issue", "invoice", invoice.ID, map[string]any{
		"number":      invoice.InvoiceNumber,
		"client_id":   invoice.ClientID,
		"total":       invoice.TotalAmount.String(),
		"amount_paid": invoice.AmountPaid.String(),
	})
	s.stock.Committed(ctx, moves...)
	if s.events != nil {
		s.events.InvoiceIssued(ctx, invoice)
		if payment != nil {
			s.events.PaymentApplied(ctx, *payment)
		}
	}
	return invoice, nil
}

// ApplyPayment records a payment of amount against invoiceID. The amount must
// be positive and must not exceed what is still due.
func (s *Service) ApplyPayment(ctx context.Context, invoiceID string, amount decimal.Decimal) (store.Payment, error) {
	if !amount.IsPositive() {
		return store.Payment{}, fmt.Errorf("%w: payment %s", ErrInvalidAmount, amount)
	}

	var payment store.Payment
	err := s.store.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		inv, err := tx.Invoice(invoiceID)
		if err != nil {
			return err
		}
		if amount.GreaterThan(inv.AmountDue) {
			return fmt.Errorf("%w: payment %s, due %s", ErrOverpayment, amount, inv.AmountDue)
		}
		client, err := tx.Client(inv.ClientID)
		if err != nil {
			return err
		}

		payment = store.Payment{
			ID:        uuid.NewString(),
			InvoiceID: inv.ID,
			Amount:    amount,
			Date:      store.FormatDate(s.clock()),
		}
		if err := tx.PrependPayment(payment); err != nil {
			return err
		}

		inv.AmountPaid = inv.AmountPaid.Add(amount)
		inv.AmountDue = inv.AmountDue.Sub(amount)
		inv.Status = store.DeriveStatus(inv.AmountPaid, inv.AmountDue)
		if err := tx.UpdateInvoice(inv); err != nil {
			return err
		}

		client.Balance = client.Balance.Sub(amount)
		return tx.PutClient(client)
	})
	if err != nil {
		return store.Payment{}, err
	}

	s.record(ctx, "invoice.payment", "payment", payment.ID, map[string]any{
		"invoice_id": payment.InvoiceID,
		"amount":     payment.Amount.String(),
	})
	if s.events != nil {
		s.events.PaymentApplied(ctx, payment)
	}
	return payment, nil
}

// ListInvoices returns matching invoices, most recent first.
func (s *Service) ListInvoices(ctx context.Context, filter Filter) ([]store.Invoice, error) {
	var out []store.Invoice
	err := s.store.View(ctx, func(ctx context.Context, tx *store.Tx) error {
		for _, inv := range tx.Invoices() {
			if filter.match(inv) {
				out = append(out, inv)
			}
		}
		return nil
	})
	return out, err
}

// GetInvoice returns a single invoice.
func (s *Service) GetInvoice(ctx context.Context, id string) (store.Invoice, error) {
	var inv store.Invoice
	err := s.store.View(ctx, func(ctx context.Context, tx *store.Tx) error {
		var err error
		inv, err = tx.Invoice(id)
		return err
	})
	return inv, err
}

// DeleteInvoice removes an invoice and takes its outstanding amount off the
// client's balance. Payments and stock movements stay as history.
func (s *Service) DeleteInvoice(ctx context.Context, id string) error {
	var removed store.Invoice
	err := s.store.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		inv, err := tx.Invoice(id)
		if err != nil {
			return err
		}
		removed = inv
		if err := tx.DeleteInvoice(id); err != nil {
			return err
		}
		if !inv.AmountDue.IsPositive() {
			return nil
		}
		client, err := tx.Client(inv.ClientID)
		if err != nil {
			// The client is already gone; nothing left to reverse.
			return nil
		}
		client.Balance = client.Balance.Sub(inv.AmountDue)
		return tx.PutClient(client)
	})
	if err != nil {
		return err
	}
	s.record(ctx, "invoice.delete", "invoice", removed.ID, map[string]any{
		"number":     removed.InvoiceNumber,
		"amount_due": removed.AmountDue.String(),
	})
	if s.events != nil {
		s.events.InvoiceDeleted(ctx, removed)
	}
	return nil
}

// ListPayments returns payments, optionally for a single invoice, most recent first.
func (s *Service) ListPayments(ctx context.Context, invoiceID string) ([]store.Payment, error) {
	var out []store.Payment
	err := s.store.View(ctx, func(ctx context.Context, tx *store.Tx) error {
		for _, p := range tx.Payments() {
			if invoiceID == "" || p.InvoiceID == invoiceID {
				out = append(out, p)
			}
		}
		return nil
	})
	return out, err
}

func (s *Service) record(ctx context.Context, action, entity, id string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: entity, EntityID: id, Meta: meta})
}
