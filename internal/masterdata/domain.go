package masterdata

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/elmeel/warehouse/internal/store"
)

var (
	// ErrRequiredField indicates a missing mandatory field.
	ErrRequiredField = errors.New("masterdata: field is required")
	// ErrDuplicateCode indicates an item code already in use.
	ErrDuplicateCode = errors.New("masterdata: item code already exists")
	// ErrNegativeValue rejects negative prices, thresholds, stock or cost.
	ErrNegativeValue = errors.New("masterdata: value must not be negative")
	// ErrInvalidStatus rejects unknown project states.
	ErrInvalidStatus = errors.New("masterdata: unknown project status")
	// ErrInvalidTerms rejects unknown client payment terms.
	ErrInvalidTerms = errors.New("masterdata: unknown payment terms")
)

// ListFilters represents standard list page filters.
type ListFilters struct {
	Search       string
	Category     string
	LowStockOnly bool
	Status       store.ProjectStatus
	Terms        store.PaymentTerms
}

// ItemInput carries editable item fields. Stock is honoured on create only.
type ItemInput struct {
	Name              string
	Code              string
	Unit              string
	Category          string
	Price             decimal.Decimal
	LowStockThreshold decimal.Decimal
	Stock             decimal.Decimal
}

// ProjectInput carries editable project fields. Cost is honoured on create only.
type ProjectInput struct {
	Name       string
	Supervisor string
	Status     store.ProjectStatus
	Cost       decimal.Decimal
}

// ClientInput carries editable client fields. Balance is honoured on create only.
type ClientInput struct {
	Name          string
	ContactPerson string
	Phone         string
	PaymentTerms  store.PaymentTerms
	Balance       decimal.Decimal
}

// Service manages items, projects and clients. None of these operations
// cascade into derived state.
type Service interface {
	ListItems(ctx context.Context, filters ListFilters) ([]store.Item, error)
	GetItem(ctx context.Context, id string) (store.Item, error)
	CreateItem(ctx context.Context, input ItemInput) (store.Item, error)
	UpdateItem(ctx context.Context, id string, input ItemInput) (store.Item, error)
	DeleteItem(ctx context.Context, id string) error

	ListProjects(ctx context.Context, filters ListFilters) ([]store.Project, error)
	GetProject(ctx context.Context, id string) (store.Project, error)
	CreateProject(ctx context.Context, input ProjectInput) (store.Project, error)
	UpdateProject(ctx context.Context, id string, input ProjectInput) (store.Project, error)
	DeleteProject(ctx context.Context, id string) error

	ListClients(ctx context.Context, filters ListFilters) ([]store.Client, error)
	GetClient(ctx context.Context, id string) (store.Client, error)
	CreateClient(ctx context.Context, input ClientInput) (store.Client, error)
	UpdateClient(ctx context.Context, id string, input ClientInput) (store.Client, error)
	DeleteClient(ctx context.Context, id string) error
}
