package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/elmeel/warehouse/internal/shared"
	"github.com/elmeel/warehouse/internal/store"
)

// StorePort abstracts the entity store for the service.
type StorePort interface {
	WithTx(ctx context.Context, fn func(context.Context, *store.Tx) error) error
	View(ctx context.Context, fn func(context.Context, *store.Tx) error) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	AllowNegativeStock bool
	// Clock supplies "today"; defaults to time.Now.
	Clock func() time.Time
}

// Service records stock movements.
type Service struct {
	store    StorePort
	audit    AuditPort
	allowNeg bool
	clock    func() time.Time
	events   EventSink
}

// NewService builds Service.
func NewService(st StorePort, audit AuditPort, cfg ServiceConfig, events EventSink) *Service {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{store: st, audit: audit, allowNeg: cfg.AllowNegativeStock, clock: clock, events: events}
}

// Today returns the calendar date used for new records.
func (s *Service) Today() string {
	return store.FormatDate(s.clock())
}

// RecordTransaction validates and commits a single movement.
func (s *Service) RecordTransaction(ctx context.Context, input RecordInput) (store.InventoryTransaction, error) {
	var recorded store.InventoryTransaction
	err := s.store.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		var err error
		recorded, err = s.Post(tx, input)
		return err
	})
	if err != nil {
		return store.InventoryTransaction{}, err
	}
	s.afterCommit(ctx, recorded)
	return recorded, nil
}

// Receive records an inbound movement for itemID.
func (s *Service) Receive(ctx context.Context, itemID string, qty decimal.Decimal, notes string) (store.InventoryTransaction, error) {
	return s.RecordTransaction(ctx, RecordInput{Type: store.TransactionReceipt, ItemID: itemID, Quantity: qty, Notes: notes})
}

// IssueToProject records materials consumed by a project.
func (s *Service) IssueToProject(ctx context.Context, projectID, itemID string, qty decimal.Decimal, notes string) (store.InventoryTransaction, error) {
	if projectID == "" {
		return store.InventoryTransaction{}, fmt.Errorf("inventory: project required: %w", store.ErrReferenceNotFound)
	}
	return s.RecordTransaction(ctx, RecordInput{Type: store.TransactionIssue, ItemID: itemID, ProjectID: projectID, Quantity: qty, Notes: notes})
}

// Post applies a movement inside an open unit of work. Callers that compose
// several writes, such as invoice issuance, use it to stay atomic.
func (s *Service) Post(tx *store.Tx, input RecordInput) (store.InventoryTransaction, error) {
	if !input.Quantity.IsPositive() {
		return store.InventoryTransaction{}, ErrInvalidQuantity
	}
	if !input.Type.Valid() {
		return store.InventoryTransaction{}, fmt.Errorf("%w: %q", ErrInvalidType, input.Type)
	}
	if input.Type == store.TransactionReceipt && input.ProjectID != "" {
		return store.InventoryTransaction{}, ErrProjectOnReceipt
	}

	item, err := tx.Item(input.ItemID)
	if err != nil {
		return store.InventoryTransaction{}, err
	}
	var project store.Project
	if input.ProjectID != "" {
		if project, err = tx.Project(input.ProjectID); err != nil {
			return store.InventoryTransaction{}, err
		}
	}
	if input.InvoiceID != "" {
		if _, err := tx.Invoice(input.InvoiceID); err != nil {
			return store.InventoryTransaction{}, err
		}
	}

	switch input.Type {
	case store.TransactionReceipt:
		item.Stock = item.Stock.Add(input.Quantity)
	case store.TransactionIssue:
		next := item.Stock.Sub(input.Quantity)
		if !s.allowNeg && next.IsNegative() {
			return store.InventoryTransaction{}, fmt.Errorf("%w: %s has %s, requested %s", ErrInsufficientStock, item.Code, item.Stock, input.Quantity)
		}
		item.Stock = next
	}
	if err := tx.PutItem(item); err != nil {
		return store.InventoryTransaction{}, err
	}

	// Cost uses the price on the item right now, not any earlier snapshot.
	if input.Type == store.TransactionIssue && input.ProjectID != "" {
		project.Cost = project.Cost.Add(item.Price.Mul(input.Quantity))
		if err := tx.PutProject(project); err != nil {
			return store.InventoryTransaction{}, err
		}
	}

	rec := store.InventoryTransaction{
		ID:        input.ID,
		Type:      input.Type,
		ItemID:    input.ItemID,
		Quantity:  input.Quantity,
		Date:      input.Date,
		ProjectID: input.ProjectID,
		InvoiceID: input.InvoiceID,
		Notes:     input.Notes,
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Date == "" {
		rec.Date = s.Today()
	}
	if err := tx.PrependTransaction(rec); err != nil {
		return store.InventoryTransaction{}, err
	}
	return rec, nil
}

// Committed runs the post-commit hooks for movements posted through Post by
// another service.
func (s *Service) Committed(ctx context.Context, recs ...store.InventoryTransaction) {
	for _, rec := range recs {
		if s.events != nil {
			s.events.TransactionRecorded(ctx, rec)
		}
	}
}

// ListTransactions returns matching movements, most recent first.
func (s *Service) ListTransactions(ctx context.Context, filter Filter) ([]store.InventoryTransaction, error) {
	var out []store.InventoryTransaction
	err := s.store.View(ctx, func(ctx context.Context, tx *store.Tx) error {
		for _, t := range tx.Transactions() {
			if filter.match(t) {
				out = append(out, t)
			}
		}
		return nil
	})
	return out, err
}

func (s *Service) afterCommit(ctx context.Context, rec store.InventoryTransaction) {
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Action:   "inventory." + string(rec.Type),
			Entity:   "inventory_transaction",
			EntityID: rec.ID,
			Meta: map[string]any{
				"item_id":    rec.ItemID,
				"quantity":   rec.Quantity.String(),
				"project_id": rec.ProjectID,
			},
		})
	}
	s.Committed(ctx, rec)
}
