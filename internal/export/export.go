// Package export writes aggregation reports to files and spreadsheets.
package export

import (
	"context"
	"errors"
	"sort"

	"github.com/samber/lo"

	"github.com/treasuryhq/gringotts/internal/domain"
	"github.com/treasuryhq/gringotts/internal/run"
)

// SummaryWriter writes one aggregation report to a destination.
type SummaryWriter interface {
	Write(ctx context.Context, report *run.Report) error
}

// Service fans a report out to all configured writers. It implements
// worker.AfterSnapshotHook so serve mode can push every snapshot to a
// spreadsheet.
type Service struct {
	writers []SummaryWriter
}

// NewService creates an export Service over the given writers.
func NewService(writers ...SummaryWriter) *Service {
	return &Service{writers: writers}
}

// Export writes the report to every writer. All writers are attempted; their
// errors are joined.
func (s *Service) Export(ctx context.Context, report *run.Report) error {
	var errs []error
	for _, w := range s.writers {
		if err := w.Write(ctx, report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// summaryRow is one flattened (organization, asset) line of a summary.
type summaryRow struct {
	Organization string
	Symbol       string
	Amount       string
	USDValue     string
}

// summaryRows flattens a summary into rows sorted by organization then symbol,
// so exports are deterministic.
func summaryRows(summary *domain.PortfolioSummary) []summaryRow {
	orgs := lo.Keys(summary.Organizations)
	sort.Strings(orgs)

	var rows []summaryRow
	for _, orgName := range orgs {
		org := summary.Organizations[orgName]
		symbols := lo.Keys(org.Assets)
		sort.Strings(symbols)
		for _, symbol := range symbols {
			agg := org.Assets[symbol]
			rows = append(rows, summaryRow{
				Organization: orgName,
				Symbol:       symbol,
				Amount:       agg.TotalAmount.String(),
				USDValue:     agg.TotalUSDValue.StringFixed(2),
			})
		}
	}
	return rows
}
