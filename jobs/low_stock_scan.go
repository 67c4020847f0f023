package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/elmeel/warehouse/internal/jobs"
	"github.com/elmeel/warehouse/internal/masterdata"
	"github.com/elmeel/warehouse/internal/store"
)

// ItemLister lists items matching master data filters.
type ItemLister interface {
	ListItems(ctx context.Context, filters masterdata.ListFilters) ([]store.Item, error)
}

// LowStockScanJob logs every item below its low-stock threshold.
type LowStockScanJob struct {
	Items   ItemLister
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewLowStockScanJob wires dependencies for the scan handler.
func NewLowStockScanJob(items ItemLister, logger *slog.Logger, metrics *jobmetrics.Metrics) *LowStockScanJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &LowStockScanJob{Items: items, Logger: logger, Metrics: metrics}
}

// Handle processes TaskLowStockScan tasks.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Items == nil {
		return errors.New("low stock scan: handler not configured")
	}
	payload, err := decodeScan(t)
	if err != nil {
		return err
	}
	tracker := j.Metrics.Track(TaskLowStockScan)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	items, err := j.Items.ListItems(ctx, masterdata.ListFilters{LowStockOnly: true})
	if err != nil {
		j.Logger.Error("low stock scan", slog.Any("error", err))
		return err
	}
	for _, it := range items {
		j.Logger.Warn("item below threshold",
			slog.String("item_id", it.ID),
			slog.String("code", it.Code),
			slog.String("stock", it.Stock.String()),
			slog.String("threshold", it.LowStockThreshold.String()),
		)
	}
	j.Metrics.SetLowStock(len(items))
	j.Logger.Info("low stock scan complete", slog.Int("items", len(items)), slog.String("trigger", payload.Trigger))
	return nil
}
