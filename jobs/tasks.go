package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLowStockScan reports items below their low-stock threshold.
	TaskLowStockScan = "inventory:low_stock_scan"
	// TaskReceivablesReconcile compares client balances with open invoices.
	TaskReceivablesReconcile = "ar:reconcile"
)

// ScanPayload carries scheduling metadata shared by the ledger scans.
type ScanPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
	Trigger      string    `json:"trigger,omitempty"`
}

func newScanTask(taskType string, payload ScanPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

// NewLowStockScanTask constructs the low-stock scan task.
func NewLowStockScanTask(at time.Time, trigger string) (*asynq.Task, error) {
	return newScanTask(TaskLowStockScan, ScanPayload{ScheduledFor: at, Trigger: trigger})
}

// NewReconcileTask constructs the receivables reconciliation task.
func NewReconcileTask(at time.Time, trigger string) (*asynq.Task, error) {
	return newScanTask(TaskReceivablesReconcile, ScanPayload{ScheduledFor: at, Trigger: trigger})
}

func decodeScan(t *asynq.Task) (ScanPayload, error) {
	var payload ScanPayload
	if len(t.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return payload, asynq.SkipRetry
	}
	return payload, nil
}
