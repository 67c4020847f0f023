package invoicing

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/elmeel/warehouse/internal/store"
)

var (
	// ErrNoLines rejects invoices without any line.
	ErrNoLines = errors.New("invoicing: invoice needs at least one line")
	// ErrInvalidQuantity rejects non-positive line quantities.
	ErrInvalidQuantity = errors.New("invoicing: line quantity must be positive")
	// ErrInvalidAmount rejects negative paid amounts and non-positive payments.
	ErrInvalidAmount = errors.New("invoicing: invalid amount")
	// ErrOverpayment rejects amounts larger than what is owed.
	ErrOverpayment = errors.New("invoicing: amount exceeds amount due")
)

// LineInput is one requested invoice line. The unit price is always the
// item's price at issuance.
type LineInput struct {
	ItemID   string
	Quantity decimal.Decimal
}

// IssueInput describes an invoice to issue.
type IssueInput struct {
	ClientID   string
	Lines      []LineInput
	AmountPaid decimal.Decimal
	// IdempotencyKey, when set, makes replays fail with shared.ErrIdempotencyConflict.
	IdempotencyKey string
}

// Filter narrows ListInvoices.
type Filter struct {
	ClientID string
	Status   store.InvoiceStatus
}

func (f Filter) match(inv store.Invoice) bool {
	if f.ClientID != "" && inv.ClientID != f.ClientID {
		return false
	}
	if f.Status != "" && inv.Status != f.Status {
		return false
	}
	return true
}

var hundred = decimal.NewFromInt(100)

// mergeLines folds repeated items into one line, keeping first-seen order.
func mergeLines(lines []LineInput) ([]LineInput, error) {
	if len(lines) == 0 {
		return nil, ErrNoLines
	}
	out := make([]LineInput, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, l := range lines {
		if !l.Quantity.IsPositive() {
			return nil, ErrInvalidQuantity
		}
		if i, ok := index[l.ItemID]; ok {
			out[i].Quantity = out[i].Quantity.Add(l.Quantity)
			continue
		}
		index[l.ItemID] = len(out)
		out = append(out, l)
	}
	return out, nil
}
