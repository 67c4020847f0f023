package dashboard

import (
	"encoding/csv"
	"io"
	"strconv"
)

// WriteReceivablesCSV serialises the reconciliation rows.
func WriteReceivablesCSV(w io.Writer, rec Reconciliation) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Client ID", "Client", "Balance", "Outstanding", "Drift", "Open Invoices"}); err != nil {
		return err
	}
	for _, row := range rec.Rows {
		if err := writer.Write([]string{
			row.ClientID,
			row.ClientName,
			row.Balance.StringFixed(2),
			row.Outstanding.StringFixed(2),
			row.Drift.StringFixed(2),
			strconv.Itoa(row.OpenInvoices),
		}); err != nil {
			return err
		}
	}
	if err := writer.Write([]string{"", "Total", rec.TotalBalance.StringFixed(2), rec.TotalOutstanding.StringFixed(2), rec.TotalBalance.Sub(rec.TotalOutstanding).StringFixed(2), ""}); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}
