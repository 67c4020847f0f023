package store

import (
	"context"
	"sync"
)

// Dataset is the full in-memory state: six collections and two singletons.
// Transactions, Invoices and Payments are ordered most recent first.
type Dataset struct {
	Items        []Item
	Projects     []Project
	Clients      []Client
	Invoices     []Invoice
	Payments     []Payment
	Transactions []InventoryTransaction
	Users        []User
	Company      CompanyProfile
	Settings     Settings
}

func (d Dataset) clone() Dataset {
	out := Dataset{
		Items:        append([]Item(nil), d.Items...),
		Projects:     append([]Project(nil), d.Projects...),
		Clients:      append([]Client(nil), d.Clients...),
		Payments:     append([]Payment(nil), d.Payments...),
		Transactions: append([]InventoryTransaction(nil), d.Transactions...),
		Users:        append([]User(nil), d.Users...),
		Company:      d.Company,
		Settings:     d.Settings,
	}
	if d.Invoices != nil {
		out.Invoices = make([]Invoice, len(d.Invoices))
		for i, inv := range d.Invoices {
			out.Invoices[i] = inv.clone()
		}
	}
	return out
}

// Store owns the authoritative dataset. Writers are serialised by one
// exclusive lock over every collection.
type Store struct {
	mu     sync.RWMutex
	data   Dataset
	closed bool
}

// New builds a Store holding a private copy of seed.
func New(seed Dataset) *Store {
	return &Store{data: seed.clone()}
}

// WithTx runs fn as one unit of work under the exclusive lock. fn works on a
// private copy that replaces the live dataset only when fn returns nil, so a
// failing cascade leaves nothing behind.
func (s *Store) WithTx(ctx context.Context, fn func(context.Context, *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	work := s.data.clone()
	if err := fn(ctx, &Tx{data: &work}); err != nil {
		return err
	}
	s.data = work
	return nil
}

// View runs fn under the shared lock. Mutators return ErrReadOnly.
func (s *Store) View(ctx context.Context, fn func(context.Context, *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return fn(ctx, &Tx{data: &s.data, readOnly: true})
}

// Snapshot returns a deep copy of the current dataset.
func (s *Store) Snapshot() Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.clone()
}

// Close releases the dataset. Later calls fail with ErrClosed.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.data = Dataset{}
}
