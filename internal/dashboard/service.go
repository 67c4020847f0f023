package dashboard

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/elmeel/warehouse/internal/store"
)

// StorePort is the read side of the entity store.
type StorePort interface {
	View(ctx context.Context, fn func(context.Context, *store.Tx) error) error
}

// Cache is a JSON read-through cache keyed by parts.
type Cache interface {
	FetchJSON(ctx context.Context, dest any, loader func(context.Context) (any, error), parts ...string) error
}

// Service computes dashboard figures, optionally through a cache.
type Service struct {
	store  StorePort
	cache  Cache
	format Formatter
	clock  func() time.Time
}

// NewService wires the store with an optional cache.
func NewService(st StorePort, cache Cache, format Formatter, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{store: st, cache: cache, format: format, clock: clock}
}

func (s *Service) today() string {
	return store.FormatDate(s.clock())
}

// Summary returns the KPI card.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	today := s.today()
	loader := func(ctx context.Context) (any, error) {
		return s.computeSummary(ctx, today)
	}
	if s.cache == nil {
		v, err := loader(ctx)
		if err != nil {
			return Summary{}, err
		}
		return v.(Summary), nil
	}
	var out Summary
	if err := s.cache.FetchJSON(ctx, &out, loader, "summary", today); err != nil {
		return Summary{}, err
	}
	return out, nil
}

func (s *Service) computeSummary(ctx context.Context, today string) (Summary, error) {
	out := Summary{AsOf: today, TotalReceivables: decimal.Zero, TotalOutstanding: decimal.Zero}
	err := s.store.View(ctx, func(ctx context.Context, tx *store.Tx) error {
		items := tx.Items()
		out.TotalItems = len(items)
		for _, it := range items {
			if it.IsLowStock() {
				out.LowStockCount++
			}
		}
		for _, c := range tx.Clients() {
			out.TotalReceivables = out.TotalReceivables.Add(c.Balance)
		}
		for _, t := range tx.Transactions() {
			if t.Date == today {
				out.TodayTransactions++
			}
		}
		for _, p := range tx.Projects() {
			if p.Status == store.ProjectActive {
				out.ActiveProjects++
			}
		}
		for _, inv := range tx.Invoices() {
			if inv.AmountDue.IsPositive() {
				out.OutstandingInvoices++
				out.TotalOutstanding = out.TotalOutstanding.Add(inv.AmountDue)
			}
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}
	out.FormattedReceivables = s.format.Amount(out.TotalReceivables)
	out.FormattedOutstanding = s.format.Amount(out.TotalOutstanding)
	return out, nil
}

// Receivables reconciles every client balance against its open invoices.
func (s *Service) Receivables(ctx context.Context) (Reconciliation, error) {
	today := s.today()
	loader := func(ctx context.Context) (any, error) {
		return s.Reconcile(ctx)
	}
	if s.cache == nil {
		v, err := loader(ctx)
		if err != nil {
			return Reconciliation{}, err
		}
		return v.(Reconciliation), nil
	}
	var out Reconciliation
	if err := s.cache.FetchJSON(ctx, &out, loader, "receivables", today); err != nil {
		return Reconciliation{}, err
	}
	return out, nil
}

// Reconcile computes the receivables report without caching.
func (s *Service) Reconcile(ctx context.Context) (Reconciliation, error) {
	asOf := s.clock()
	out := Reconciliation{AsOf: store.FormatDate(asOf), TotalBalance: decimal.Zero, TotalOutstanding: decimal.Zero, Drifted: []string{}}
	err := s.store.View(ctx, func(ctx context.Context, tx *store.Tx) error {
		byClient := make(map[string]*ReceivableRow)
		for _, c := range tx.Clients() {
			row := &ReceivableRow{ClientID: c.ID, ClientName: c.Name, Balance: c.Balance, Outstanding: decimal.Zero}
			byClient[c.ID] = row
			out.TotalBalance = out.TotalBalance.Add(c.Balance)
		}
		invoices := tx.Invoices()
		for _, inv := range invoices {
			if !inv.AmountDue.IsPositive() {
				continue
			}
			out.TotalOutstanding = out.TotalOutstanding.Add(inv.AmountDue)
			row, ok := byClient[inv.ClientID]
			if !ok {
				// Client deleted after issuance; report the orphaned amount.
				row = &ReceivableRow{ClientID: inv.ClientID, ClientName: inv.ClientName, Balance: decimal.Zero, Outstanding: decimal.Zero}
				byClient[inv.ClientID] = row
			}
			row.Outstanding = row.Outstanding.Add(inv.AmountDue)
			row.OpenInvoices++
		}
		out.Aging = s.aging(invoices, asOf)
		for _, row := range byClient {
			row.Drift = row.Balance.Sub(row.Outstanding)
			out.Rows = append(out.Rows, *row)
		}
		return nil
	})
	if err != nil {
		return Reconciliation{}, err
	}
	sort.Slice(out.Rows, func(i, j int) bool { return out.Rows[i].ClientID < out.Rows[j].ClientID })
	for _, row := range out.Rows {
		if row.Drifted() {
			out.Drifted = append(out.Drifted, row.ClientID)
		}
	}
	return out, nil
}

// aging groups outstanding amounts by days since the invoice date.
func (s *Service) aging(invoices []store.Invoice, asOf time.Time) []AgingBucket {
	totals := map[string]decimal.Decimal{
		BucketCurrent: decimal.Zero,
		Bucket60:      decimal.Zero,
		Bucket90:      decimal.Zero,
		BucketOver90:  decimal.Zero,
	}
	for _, inv := range invoices {
		if !inv.AmountDue.IsPositive() {
			continue
		}
		issued, err := time.Parse(store.DateLayout, inv.Date)
		if err != nil {
			issued = asOf
		}
		days := int(asOf.Sub(issued).Hours() / 24)
		var bucket string
		switch {
		case days <= 30:
			bucket = BucketCurrent
		case days <= 60:
			bucket = Bucket60
		case days <= 90:
			bucket = Bucket90
		default:
			bucket = BucketOver90
		}
		totals[bucket] = totals[bucket].Add(inv.AmountDue)
	}
	order := []string{BucketCurrent, Bucket60, Bucket90, BucketOver90}
	out := make([]AgingBucket, 0, len(order))
	for _, b := range order {
		out = append(out, AgingBucket{Bucket: b, Amount: totals[b], Formatted: s.format.Amount(totals[b])})
	}
	return out
}
