// Package settings manages invoicing parameters and the company profile.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/elmeel/warehouse/internal/shared"
	"github.com/elmeel/warehouse/internal/store"
)

var (
	// ErrNegativeVAT rejects VAT percentages below zero.
	ErrNegativeVAT = errors.New("settings: vat percentage must not be negative")
	// ErrInvalidSequence rejects invoice sequences below one.
	ErrInvalidSequence = errors.New("settings: next invoice number must be at least 1")
	// ErrSequenceRewind rejects a next invoice number that would reissue an
	// existing invoice number.
	ErrSequenceRewind = errors.New("settings: next invoice number must not go back")
	// ErrCompanyName is returned when the company name is blank.
	ErrCompanyName = errors.New("settings: company name required")
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

// Service reads and writes the singleton settings records.
type Service struct {
	store StorePort
	audit AuditPort
}

// NewService constructs the settings service.
func NewService(st StorePort, audit AuditPort) *Service {
	return &Service{store: st, audit: audit}
}

// Settings returns the invoicing parameters.
func (s *Service) Settings(ctx context.Context) (store.Settings, error) {
	var out store.Settings
	err := s.store.View(ctx, func(ctx context.Context, tx *store.Tx) error {
		out = tx.Settings()
		return nil
	})
	return out, err
}

// UpdateSettings replaces the invoicing parameters.
func (s *Service) UpdateSettings(ctx context.Context, in store.Settings) (store.Settings, error) {
	if in.VATPercentage.LessThan(decimal.Zero) {
		return store.Settings{}, ErrNegativeVAT
	}
	if in.NextInvoiceNumber < 1 {
		return store.Settings{}, ErrInvalidSequence
	}
	in.InvoicePrefix = strings.TrimSpace(in.InvoicePrefix)
	if err := s.store.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		current := tx.Settings()
		if in.InvoicePrefix == current.InvoicePrefix && in.NextInvoiceNumber < current.NextInvoiceNumber {
			return fmt.Errorf("%w: %d is below %d", ErrSequenceRewind, in.NextInvoiceNumber, current.NextInvoiceNumber)
		}
		if used := highestIssued(tx.Invoices(), in.InvoicePrefix); used >= in.NextInvoiceNumber {
			return fmt.Errorf("%w: %s%03d already issued", ErrSequenceRewind, in.InvoicePrefix, used)
		}
		return tx.SetSettings(in)
	}); err != nil {
		return store.Settings{}, err
	}
	s.record(ctx, "settings.update", "settings", map[string]any{
		"vat":    in.VATPercentage.String(),
		"prefix": in.InvoicePrefix,
		"next":   in.NextInvoiceNumber,
	})
	return in, nil
}

// highestIssued returns the largest sequence issued under prefix, or 0.
func highestIssued(invoices []store.Invoice, prefix string) int {
	highest := 0
	for _, inv := range invoices {
		rest, ok := strings.CutPrefix(inv.InvoiceNumber, prefix)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil {
			continue
		}
		highest = max(highest, n)
	}
	return highest
}

// Company returns the company profile.
func (s *Service) Company(ctx context.Context) (store.CompanyProfile, error) {
	var out store.CompanyProfile
	err := s.store.View(ctx, func(ctx context.Context, tx *store.Tx) error {
		out = tx.Company()
		return nil
	})
	return out, err
}

// UpdateCompany replaces the company profile.
func (s *Service) UpdateCompany(ctx context.Context, in store.CompanyProfile) (store.CompanyProfile, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return store.CompanyProfile{}, ErrCompanyName
	}
	if err := s.store.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		return tx.SetCompany(in)
	}); err != nil {
		return store.CompanyProfile{}, err
	}
	s.record(ctx, "settings.company_update", "company", nil)
	return in, nil
}

func (s *Service) record(ctx context.Context, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: "settings", EntityID: entityID, Meta: meta})
}
