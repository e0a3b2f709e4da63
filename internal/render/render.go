// Package render formats accounts, balances and summaries as markdown and
// prints them to the terminal.
package render

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/template"

	"github.com/charmbracelet/glamour"
	"github.com/samber/lo"

	"github.com/treasuryhq/gringotts/internal/domain"
	"github.com/treasuryhq/gringotts/internal/run"
)

var accountsTmpl = template.Must(template.New("accounts").Parse(`# Tracked Accounts

| Name | Organization | Provider | Identifier |
|------|--------------|----------|------------|
{{range .}}| {{.Name}} | {{.Organization}} | {{.Provider}} | {{.Identifier}} |
{{end}}`))

var balancesTmpl = template.Must(template.New("balances").Parse(`# {{.Name}} ({{.Provider}})

| Symbol | Amount | USD Value |
|--------|--------|-----------|
{{range .Rows}}| {{.Symbol}} | {{.Amount}} | {{.USDValue}} |
{{end}}`))

var summaryTmpl = template.Must(template.New("summary").Parse(`# Portfolio Summary
{{range .Organizations}}
## {{.Name}}

| Symbol | Amount | USD Value |
|--------|--------|-----------|
{{range .Rows}}| {{.Symbol}} | {{.Amount}} | {{.USDValue}} |
{{end}}**Organization total: ${{.Total}}**
{{end}}
**Grand total: ${{.GrandTotal}}**
{{if .Failures}}
## Failed Accounts

| Account | Provider | Error |
|---------|----------|-------|
{{range .Failures}}| {{.Name}} | {{.Provider}} | {{.Err}} |
{{end}}{{end}}`))

type accountRow struct {
	Name         string
	Organization string
	Provider     string
	Identifier   string
}

type balanceRow struct {
	Symbol   string
	Amount   string
	USDValue string
}

type balancesView struct {
	Name     string
	Provider string
	Rows     []balanceRow
}

type orgView struct {
	Name  string
	Rows  []balanceRow
	Total string
}

type failureRow struct {
	Name     string
	Provider string
	Err      string
}

type summaryView struct {
	Organizations []orgView
	GrandTotal    string
	Failures      []failureRow
}

// Accounts renders the address book as a markdown table.
func Accounts(accounts []domain.TrackedAccount) string {
	rows := lo.Map(accounts, func(acc domain.TrackedAccount, _ int) accountRow {
		return accountRow{
			Name:         acc.Name,
			Organization: domain.OrganizationKey(acc.Organization),
			Provider:     acc.Kind.DisplayName(),
			Identifier:   acc.Identifier,
		}
	})
	return execute(accountsTmpl, rows)
}

// Balances renders one account's balances as a markdown table.
func Balances(res domain.AccountResult) string {
	view := balancesView{
		Name:     res.Account.Name,
		Provider: res.Account.Kind.DisplayName(),
		Rows: lo.Map(res.Balances, func(b domain.AssetBalance, _ int) balanceRow {
			return toBalanceRow(b.Symbol, b.Amount.String(), b.USDValue != nil, b)
		}),
	}
	return execute(balancesTmpl, view)
}

// Summary renders the full report: per-organization tables, totals and any
// failed accounts.
func Summary(report *run.Report) string {
	orgs := lo.Keys(report.Summary.Organizations)
	sort.Strings(orgs)

	view := summaryView{GrandTotal: report.Summary.TotalUSDValue.StringFixed(2)}
	for _, name := range orgs {
		org := report.Summary.Organizations[name]
		symbols := lo.Keys(org.Assets)
		sort.Strings(symbols)

		ov := orgView{Name: name, Total: org.TotalUSDValue.StringFixed(2)}
		for _, symbol := range symbols {
			agg := org.Assets[symbol]
			ov.Rows = append(ov.Rows, balanceRow{
				Symbol:   symbol,
				Amount:   agg.TotalAmount.String(),
				USDValue: "$" + agg.TotalUSDValue.StringFixed(2),
			})
		}
		view.Organizations = append(view.Organizations, ov)
	}

	view.Failures = lo.Map(report.Failures, func(f domain.Failure, _ int) failureRow {
		return failureRow{Name: f.Account.Name, Provider: f.Account.Kind.DisplayName(), Err: f.Err}
	})

	return execute(summaryTmpl, view)
}

func toBalanceRow(symbol, amount string, known bool, b domain.AssetBalance) balanceRow {
	usd := "?"
	if known {
		usd = "$" + b.USDValue.StringFixed(2)
	}
	return balanceRow{Symbol: symbol, Amount: amount, USDValue: usd}
}

func execute(tmpl *template.Template, data any) string {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		// Templates are static; execution only fails on a broken view type.
		return fmt.Sprintf("render error: %v\n", err)
	}
	return b.String()
}

// Print renders markdown for the terminal. If styling fails the raw markdown
// is still readable, so it is printed as-is.
func Print(w io.Writer, markdown string) {
	styled, err := glamour.Render(markdown, "auto")
	if err != nil {
		fmt.Fprint(w, markdown)
		return
	}
	fmt.Fprint(w, styled)
}

// Progress returns a collector progress callback that writes one line per
// completed account.
func Progress(w io.Writer) func(done, total int, account domain.TrackedAccount, err error) {
	return func(done, total int, account domain.TrackedAccount, err error) {
		status := "ok"
		if err != nil {
			status = "failed: " + err.Error()
		}
		fmt.Fprintf(w, "[%d/%d] %s (%s) %s\n", done, total, account.Name, account.Kind.DisplayName(), status)
	}
}
