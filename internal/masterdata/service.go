package masterdata

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

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

// ChangeNotifier is told when master data changed.
type ChangeNotifier interface {
	Bump(ctx context.Context) error
}

// service implements Service interface
type service struct {
	store    StorePort
	audit    AuditPort
	notifier ChangeNotifier
}

// NewService creates a new master data service
func NewService(st StorePort, audit AuditPort, notifier ChangeNotifier) Service {
	return &service{store: st, audit: audit, notifier: notifier}
}

// Item operations
func (s *service) ListItems(ctx context.Context, filters ListFilters) ([]store.Item, error) {
	var out []store.Item
	err := s.store.View(ctx, func(ctx context.Context, tx *store.Tx) error {
		for _, it := range tx.Items() {
			if filters.LowStockOnly && !it.IsLowStock() {
				continue
			}
			if filters.Category != "" && it.Category != filters.Category {
				continue
			}
			if !matches(filters.Search, it.Name, it.Code) {
				continue
			}
			out = append(out, it)
		}
		return nil
	})
	return out, err
}

func (s *service) GetItem(ctx context.Context, id string) (store.Item, error) {
	var item store.Item
	err := s.store.View(ctx, func(ctx context.Context, tx *store.Tx) error {
		var err error
		item, err = tx.Item(id)
		return err
	})
	return item, err
}

func (s *service) CreateItem(ctx context.Context, input ItemInput) (store.Item, error) {
	if err := s.validateItem(input); err != nil {
		return store.Item{}, err
	}
	if input.Stock.IsNegative() {
		return store.Item{}, fmt.Errorf("%w: stock", ErrNegativeValue)
	}
	item := store.Item{
		ID:                uuid.NewString(),
		Name:              strings.TrimSpace(input.Name),
		Code:              strings.TrimSpace(input.Code),
		Unit:              strings.TrimSpace(input.Unit),
		Category:          strings.TrimSpace(input.Category),
		Price:             input.Price,
		LowStockThreshold: input.LowStockThreshold,
		Stock:             input.Stock,
	}
	err := s.store.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		if err := uniqueCode(tx, item.Code, ""); err != nil {
			return err
		}
		return tx.PutItem(item)
	})
	if err != nil {
		return store.Item{}, err
	}
	s.changed(ctx, "item.create", "item", item.ID)
	return item, nil
}

func (s *service) UpdateItem(ctx context.Context, id string, input ItemInput) (store.Item, error) {
	if err := s.validateItem(input); err != nil {
		return store.Item{}, err
	}
	var item store.Item
	err := s.store.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		current, err := tx.Item(id)
		if err != nil {
			return err
		}
		code := strings.TrimSpace(input.Code)
		if err := uniqueCode(tx, code, id); err != nil {
			return err
		}
		// Stock only moves through inventory transactions.
		item = current
		item.Name = strings.TrimSpace(input.Name)
		item.Code = code
		item.Unit = strings.TrimSpace(input.Unit)
		item.Category = strings.TrimSpace(input.Category)
		item.Price = input.Price
		item.LowStockThreshold = input.LowStockThreshold
		return tx.PutItem(item)
	})
	if err != nil {
		return store.Item{}, err
	}
	s.changed(ctx, "item.update", "item", id)
	return item, nil
}

func (s *service) DeleteItem(ctx context.Context, id string) error {
	err := s.store.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		return tx.DeleteItem(id)
	})
	if err != nil {
		return err
	}
	s.changed(ctx, "item.delete", "item", id)
	return nil
}

// Project operations
func (s *service) ListProjects(ctx context.Context, filters ListFilters) ([]store.Project, error) {
	var out []store.Project
	err := s.store.View(ctx, func(ctx context.Context, tx *store.Tx) error {
		for _, p := range tx.Projects() {
			if filters.Status != "" && p.Status != filters.Status {
				continue
			}
			if !matches(filters.Search, p.Name, p.Supervisor) {
				continue
			}
			out = append(out, p)
		}
		return nil
	})
	return out, err
}

func (s *service) GetProject(ctx context.Context, id string) (store.Project, error) {
	var p store.Project
	err := s.store.View(ctx, func(ctx context.Context, tx *store.Tx) error {
		var err error
		p, err = tx.Project(id)
		return err
	})
	return p, err
}

func (s *service) CreateProject(ctx context.Context, input ProjectInput) (store.Project, error) {
	if err := s.validateProject(input); err != nil {
		return store.Project{}, err
	}
	if input.Cost.IsNegative() {
		return store.Project{}, fmt.Errorf("%w: cost", ErrNegativeValue)
	}
	p := store.Project{
		ID:         uuid.NewString(),
		Name:       strings.TrimSpace(input.Name),
		Supervisor: strings.TrimSpace(input.Supervisor),
		Status:     input.Status,
		Cost:       input.Cost,
	}
	if err := s.store.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error { return tx.PutProject(p) }); err != nil {
		return store.Project{}, err
	}
	s.changed(ctx, "project.create", "project", p.ID)
	return p, nil
}

func (s *service) UpdateProject(ctx context.Context, id string, input ProjectInput) (store.Project, error) {
	if err := s.validateProject(input); err != nil {
		return store.Project{}, err
	}
	var p store.Project
	err := s.store.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		current, err := tx.Project(id)
		if err != nil {
			return err
		}
		// Cost accrues through material issues only.
		p = current
		p.Name = strings.TrimSpace(input.Name)
		p.Supervisor = strings.TrimSpace(input.Supervisor)
		p.Status = input.Status
		return tx.PutProject(p)
	})
	if err != nil {
		return store.Project{}, err
	}
	s.changed(ctx, "project.update", "project", id)
	return p, nil
}

func (s *service) DeleteProject(ctx context.Context, id string) error {
	if err := s.store.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error { return tx.DeleteProject(id) }); err != nil {
		return err
	}
	s.changed(ctx, "project.delete", "project", id)
	return nil
}

// Client operations
func (s *service) ListClients(ctx context.Context, filters ListFilters) ([]store.Client, error) {
	var out []store.Client
	err := s.store.View(ctx, func(ctx context.Context, tx *store.Tx) error {
		for _, c := range tx.Clients() {
			if filters.Terms != "" && c.PaymentTerms != filters.Terms {
				continue
			}
			if !matches(filters.Search, c.Name, c.ContactPerson, c.Phone) {
				continue
			}
			out = append(out, c)
		}
		return nil
	})
	return out, err
}

func (s *service) GetClient(ctx context.Context, id string) (store.Client, error) {
	var c store.Client
	err := s.store.View(ctx, func(ctx context.Context, tx *store.Tx) error {
		var err error
		c, err = tx.Client(id)
		return err
	})
	return c, err
}

func (s *service) CreateClient(ctx context.Context, input ClientInput) (store.Client, error) {
	if err := s.validateClient(input); err != nil {
		return store.Client{}, err
	}
	c := store.Client{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(input.Name),
		ContactPerson: strings.TrimSpace(input.ContactPerson),
		Phone:         strings.TrimSpace(input.Phone),
		PaymentTerms:  input.PaymentTerms,
		Balance:       input.Balance,
	}
	if err := s.store.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error { return tx.PutClient(c) }); err != nil {
		return store.Client{}, err
	}
	s.changed(ctx, "client.create", "client", c.ID)
	return c, nil
}

func (s *service) UpdateClient(ctx context.Context, id string, input ClientInput) (store.Client, error) {
	if err := s.validateClient(input); err != nil {
		return store.Client{}, err
	}
	var c store.Client
	err := s.store.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		current, err := tx.Client(id)
		if err != nil {
			return err
		}
		// Balance is the receivables ledger; invoices and payments move it.
		c = current
		c.Name = strings.TrimSpace(input.Name)
		c.ContactPerson = strings.TrimSpace(input.ContactPerson)
		c.Phone = strings.TrimSpace(input.Phone)
		c.PaymentTerms = input.PaymentTerms
		return tx.PutClient(c)
	})
	if err != nil {
		return store.Client{}, err
	}
	s.changed(ctx, "client.update", "client", id)
	return c, nil
}

func (s *service) DeleteClient(ctx context.Context, id string) error {
	if err := s.store.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error { return tx.DeleteClient(id) }); err != nil {
		return err
	}
	s.changed(ctx, "client.delete", "client", id)
	return nil
}

func (s *service) changed(ctx context.Context, action, entity, id string) {
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: entity, EntityID: id})
	}
	if s.notifier != nil {
		_ = s.notifier.Bump(ctx)
	}
}

func (s *service) validateItem(input ItemInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: name", ErrRequiredField)
	}
	if strings.TrimSpace(input.Code) == "" {
		return fmt.Errorf("%w: code", ErrRequiredField)
	}
	if strings.TrimSpace(input.Unit) == "" {
		return fmt.Errorf("%w: unit", ErrRequiredField)
	}
	if input.Price.IsNegative() {
		return fmt.Errorf("%w: price", ErrNegativeValue)
	}
	if input.LowStockThreshold.IsNegative() {
		return fmt.Errorf("%w: lowStockThreshold", ErrNegativeValue)
	}
	return nil
}

func (s *service) validateProject(input ProjectInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: name", ErrRequiredField)
	}
	switch input.Status {
	case store.ProjectActive, store.ProjectCompleted, store.ProjectOnHold:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, input.Status)
	}
	return nil
}

func (s *service) validateClient(input ClientInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: name", ErrRequiredField)
	}
	switch input.PaymentTerms {
	case store.TermsImmediate, store.TermsDeferred:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidTerms, input.PaymentTerms)
	}
	return nil
}

func uniqueCode(tx *store.Tx, code, selfID string) error {
	for _, it := range tx.Items() {
		if it.ID != selfID && strings.EqualFold(it.Code, code) {
			return fmt.Errorf("%w: %s", ErrDuplicateCode, code)
		}
	}
	return nil
}

func matches(search string, fields ...string) bool {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}
