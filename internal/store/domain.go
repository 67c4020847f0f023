package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used by every dated record.
const DateLayout = "2006-01-02"

// TransactionType enumerates inventory movements.
type TransactionType string

const (
	// TransactionReceipt increases stock.
	TransactionReceipt TransactionType = "receipt"
	// TransactionIssue decreases stock, for a project or an invoice.
	TransactionIssue TransactionType = "issue"
)

// Valid reports whether t is a known movement type.
func (t TransactionType) Valid() bool {
	return t == TransactionReceipt || t == TransactionIssue
}

// ProjectStatus enumerates project lifecycle states.
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectOnHold    ProjectStatus = "on-hold"
)

// PaymentTerms enumerates client payment terms.
type PaymentTerms string

const (
	TermsImmediate PaymentTerms = "immediate"
	TermsDeferred  PaymentTerms = "deferred"
)

// InvoiceStatus enumerates invoice settlement states.
type InvoiceStatus string

const (
	InvoicePaid    InvoiceStatus = "paid"
	InvoiceUnpaid  InvoiceStatus = "unpaid"
	InvoicePartial InvoiceStatus = "partial"
)

// Role enumerates user roles.
type Role string

const (
	RoleAdmin             Role = "admin"
	RoleWarehouseManager  Role = "warehouse_manager"
	RoleAccountant        Role = "accountant"
	RoleProjectSupervisor Role = "project_supervisor"
	RoleViewer            Role = "viewer"
)

// Item is a stocked article. Stock changes only through inventory transactions.
type Item struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Code              string          `json:"code"`
	Unit              string          `json:"unit"`
	Stock             decimal.Decimal `json:"stock"`
	Price             decimal.Decimal `json:"price"`
	LowStockThreshold decimal.Decimal `json:"lowStockThreshold"`
	Category          string          `json:"category"`
}

// IsLowStock reports whether stock fell below the item's threshold.
func (i Item) IsLowStock() bool {
	return i.Stock.LessThan(i.LowStockThreshold)
}

// Project accrues the cost of materials issued to it.
type Project struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Supervisor string          `json:"supervisor"`
	Status     ProjectStatus   `json:"status"`
	Cost       decimal.Decimal `json:"cost"`
}

// Client carries the running receivable balance owed to the business.
type Client struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	ContactPerson string          `json:"contactPerson"`
	Phone         string          `json:"phone"`
	Balance       decimal.Decimal `json:"balance"`
	PaymentTerms  PaymentTerms    `json:"paymentTerms"`
}

// InventoryTransaction is an append-only stock movement.
type InventoryTransaction struct {
	ID        string          `json:"id"`
	Type      TransactionType `json:"type"`
	ItemID    string          `json:"itemId"`
	Quantity  decimal.Decimal `json:"quantity"`
	Date      string          `json:"date"`
	ProjectID string          `json:"projectId,omitempty"`
	InvoiceID string          `json:"invoiceId,omitempty"`
	Notes     string          `json:"notes,omitempty"`
}

// InvoiceItem is a priced line frozen at issuance. ItemName and UnitPrice are
// snapshots and never follow later edits of the item.
type InvoiceItem struct {
	ItemID    string          `json:"itemId"`
	ItemName  string          `json:"itemName"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Total     decimal.Decimal `json:"total"`
}

// Invoice is a sales document. ClientName is a snapshot taken at issuance.
type Invoice struct {
	ID            string          `json:"id"`
	InvoiceNumber string          `json:"invoiceNumber"`
	ClientID      string          `json:"clientId"`
	ClientName    string          `json:"clientName"`
	Date          string          `json:"date"`
	Status        InvoiceStatus   `json:"status"`
	Items         []InvoiceItem   `json:"items"`
	VAT           decimal.Decimal `json:"vat"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	AmountPaid    decimal.Decimal `json:"amountPaid"`
	AmountDue     decimal.Decimal `json:"amountDue"`
}

// Subtotal sums the line totals.
func (inv Invoice) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, line := range inv.Items {
		sum = sum.Add(line.Total)
	}
	return sum
}

// CheckBalance verifies the paid/due/status triple against the total.
func (inv Invoice) CheckBalance() error {
	if !inv.AmountPaid.Add(inv.AmountDue).Equal(inv.TotalAmount) {
		return fmt.Errorf("%w: invoice %s paid %s + due %s != total %s", ErrInconsistentInvoice, inv.InvoiceNumber, inv.AmountPaid, inv.AmountDue, inv.TotalAmount)
	}
	if want := DeriveStatus(inv.AmountPaid, inv.AmountDue); inv.Status != want {
		return fmt.Errorf("%w: invoice %s status %s, expected %s", ErrInconsistentInvoice, inv.InvoiceNumber, inv.Status, want)
	}
	return nil
}

func (inv Invoice) clone() Invoice {
	out := inv
	out.Items = append([]InvoiceItem(nil), inv.Items...)
	return out
}

// DeriveStatus maps settlement amounts onto an invoice status.
func DeriveStatus(amountPaid, amountDue decimal.Decimal) InvoiceStatus {
	switch {
	case !amountDue.IsPositive():
		return InvoicePaid
	case amountPaid.IsPositive():
		return InvoicePartial
	default:
		return InvoiceUnpaid
	}
}

// Payment is an append-only funding event against an invoice.
type Payment struct {
	ID        string          `json:"id"`
	InvoiceID string          `json:"invoiceId"`
	Amount    decimal.Decimal `json:"amount"`
	Date      string          `json:"date"`
}

// CompanyProfile is display metadata printed on documents.
type CompanyProfile struct {
	Name            string `json:"name"`
	LogoURL         string `json:"logoUrl"`
	Address         string `json:"address"`
	TaxRegistration string `json:"taxRegistration"`
	ContactInfo     string `json:"contactInfo"`
}

// Settings holds invoicing parameters.
type Settings struct {
	VATPercentage     decimal.Decimal `json:"vatPercentage"`
	InvoicePrefix     string          `json:"invoicePrefix"`
	NextInvoiceNumber int             `json:"nextInvoiceNumber"`
}

// InvoiceNumber formats the number the next issued invoice will carry.
func (s Settings) InvoiceNumber() string {
	return fmt.Sprintf("%s%03d", s.InvoicePrefix, s.NextInvoiceNumber)
}

// User is an application account.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	PasswordHash string `json:"-"`
}

// FormatDate renders t as a calendar date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

var (
	// ErrReferenceNotFound is matched by every ReferenceError.
	ErrReferenceNotFound = errors.New("store: reference not found")
	// ErrInconsistentInvoice flags a broken paid/due/status triple.
	ErrInconsistentInvoice = errors.New("store: inconsistent invoice")
	// ErrReadOnly is returned by mutators called inside View.
	ErrReadOnly = errors.New("store: read-only transaction")
	// ErrClosed is returned once the store has been closed.
	ErrClosed = errors.New("store: closed")
)

// ReferenceError reports an unknown entity id.
type ReferenceError struct {
	Entity string
	ID     string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("store: %s %q not found", e.Entity, e.ID)
}

// Is makes errors.Is(err, ErrReferenceNotFound) hold.
func (e *ReferenceError) Is(target error) bool {
	return target == ErrReferenceNotFound
}

func notFound(entity, id string) error {
	return &ReferenceError{Entity: entity, ID: id}
}
