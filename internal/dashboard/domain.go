// Package dashboard computes read-only ledger indicators.
package dashboard

import "github.com/shopspring/decimal"

// Summary contains the key indicators surfaced on the dashboard.
type Summary struct {
	AsOf                 string          `json:"asOf"`
	TotalItems           int             `json:"totalItems"`
	LowStockCount        int             `json:"lowStockCount"`
	ActiveProjects       int             `json:"activeProjects"`
	TodayTransactions    int             `json:"todayTransactions"`
	TotalReceivables     decimal.Decimal `json:"totalReceivables"`
	FormattedReceivables string          `json:"formattedReceivables"`
	OutstandingInvoices  int             `json:"outstandingInvoices"`
	TotalOutstanding     decimal.Decimal `json:"totalOutstanding"`
	FormattedOutstanding string          `json:"formattedOutstanding"`
}

// AgingBucket summarises outstanding amounts by invoice age.
type AgingBucket struct {
	Bucket    string          `json:"bucket"`
	Amount    decimal.Decimal `json:"amount"`
	Formatted string          `json:"formatted"`
}

// Aging bucket labels, oldest last.
const (
	BucketCurrent = "0-30"
	Bucket60      = "31-60"
	Bucket90      = "61-90"
	BucketOver90  = "90+"
)

// ReceivableRow compares a client's running balance with its open invoices.
type ReceivableRow struct {
	ClientID     string          `json:"clientId"`
	ClientName   string          `json:"clientName"`
	Balance      decimal.Decimal `json:"balance"`
	Outstanding  decimal.Decimal `json:"outstanding"`
	Drift        decimal.Decimal `json:"drift"`
	OpenInvoices int             `json:"openInvoices"`
}

// Drifted reports whether balance and open invoices disagree.
func (r ReceivableRow) Drifted() bool {
	return !r.Drift.IsZero()
}

// Reconciliation is the receivables report.
type Reconciliation struct {
	AsOf             string          `json:"asOf"`
	Rows             []ReceivableRow `json:"rows"`
	TotalBalance     decimal.Decimal `json:"totalBalance"`
	TotalOutstanding decimal.Decimal `json:"totalOutstanding"`
	Drifted          []string        `json:"drifted"`
	Aging            []AgingBucket   `json:"aging"`
}
