package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/elmeel/warehouse/internal/dashboard"
	jobmetrics "github.com/elmeel/warehouse/internal/jobs"
)

// Reconciler computes the receivables report.
type Reconciler interface {
	Reconcile(ctx context.Context) (dashboard.Reconciliation, error)
}

// ReconcileJob reports clients whose balance drifted from their open invoices.
type ReconcileJob struct {
	Receivables Reconciler
	Logger      *slog.Logger
	Metrics     *jobmetrics.Metrics
}

// NewReconcileJob wires dependencies for the reconciliation handler.
func NewReconcileJob(rec Reconciler, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReconcileJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcileJob{Receivables: rec, Logger: logger, Metrics: metrics}
}

// Handle processes TaskReceivablesReconcile tasks.
func (j *ReconcileJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Receivables == nil {
		return errors.New("reconcile: handler not configured")
	}
	payload, err := decodeScan(t)
	if err != nil {
		return err
	}
	tracker := j.Metrics.Track(TaskReceivablesReconcile)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	rec, err := j.Receivables.Reconcile(ctx)
	if err != nil {
		j.Logger.Error("reconcile receivables", slog.Any("error", err))
		return err
	}
	for _, row := range rec.Rows {
		if !row.Drifted() {
			continue
		}
		j.Logger.Warn("receivable drift",
			slog.String("client_id", row.ClientID),
			slog.String("balance", row.Balance.String()),
			slog.String("outstanding", row.Outstanding.String()),
			slog.String("drift", row.Drift.String()),
		)
	}
	j.Metrics.SetReceivablesDrift(len(rec.Drifted))
	j.Logger.Info("receivables reconciled",
		slog.Int("clients", len(rec.Rows)),
		slog.Int("drifted", len(rec.Drifted)),
		slog.String("as_of", rec.AsOf),
		slog.String("trigger", payload.Trigger),
	)
	return nil
}
