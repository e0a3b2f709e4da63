package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/treasuryhq/gringotts/internal/provider"
)

// WriteTransactionsCSV writes Mercury transactions as CSV, newest first as
// the API returns them.
func WriteTransactionsCSV(w io.Writer, transactions []provider.MercuryTransaction) error {
	cw := csv.NewWriter(w)

	header := []string{"id", "posted_at", "created_at", "amount", "status", "counterparty", "description", "note", "kind"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for _, tx := range transactions {
		row := []string{
			tx.ID, tx.PostedAt, tx.CreatedAt,
			strconv.FormatFloat(tx.Amount, 'f', 2, 64),
			tx.Status, tx.CounterpartyName, tx.BankDescription, tx.Note, tx.Kind,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteTransactionsJSON writes Mercury transactions as indented JSON.
func WriteTransactionsJSON(w io.Writer, transactions []provider.MercuryTransaction) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(transactions); err != nil {
		return fmt.Errorf("encoding transactions: %w", err)
	}
	return nil
}
