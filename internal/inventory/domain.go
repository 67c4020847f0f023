package inventory

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/elmeel/warehouse/internal/store"
)

var (
	// ErrInvalidQuantity indicates a non-positive quantity.
	ErrInvalidQuantity = errors.New("inventory: quantity must be positive")
	// ErrInvalidType indicates an unknown movement type.
	ErrInvalidType = errors.New("inventory: unknown transaction type")
	// ErrInsufficientStock indicates an issue larger than the stock on hand.
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
	// ErrProjectOnReceipt rejects receipts tagged with a project.
	ErrProjectOnReceipt = errors.New("inventory: receipts cannot reference a project")
)

// RecordInput describes a stock movement to record. ID and Date are assigned
// when empty.
type RecordInput struct {
	ID        string
	Type      store.TransactionType
	ItemID    string
	Quantity  decimal.Decimal
	Date      string
	ProjectID string
	InvoiceID string
	Notes     string
}

// Filter narrows ListTransactions. Empty fields match everything.
type Filter struct {
	ItemID    string
	ProjectID string
	InvoiceID string
	Type      store.TransactionType
}

func (f Filter) match(t store.InventoryTransaction) bool {
	if f.ItemID != "" && t.ItemID != f.ItemID {
		return false
	}
	if f.ProjectID != "" && t.ProjectID != f.ProjectID {
		return false
	}
	if f.InvoiceID != "" && t.InvoiceID != f.InvoiceID {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	return true
}
