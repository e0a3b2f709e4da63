package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/treasuryhq/gringotts/internal/api"
	"github.com/treasuryhq/gringotts/internal/collector"
	"github.com/treasuryhq/gringotts/internal/config"
	"github.com/treasuryhq/gringotts/internal/database"
	"github.com/treasuryhq/gringotts/internal/domain"
	"github.com/treasuryhq/gringotts/internal/export"
	"github.com/treasuryhq/gringotts/internal/price"
	"github.com/treasuryhq/gringotts/internal/provider"
	"github.com/treasuryhq/gringotts/internal/registry"
	"github.com/treasuryhq/gringotts/internal/render"
	"github.com/treasuryhq/gringotts/internal/run"
	"github.com/treasuryhq/gringotts/internal/snapshot"
	"github.com/treasuryhq/gringotts/internal/worker"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	app := &cli.App{
		Name:  "gringotts",
		Usage: "portfolio balance aggregation across chains and banks",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "book",
				Usage: "path to the account book file",
			},
		},
		Commands: []*cli.Command{
			addCommand(),
			addBankCommand(),
			listCommand(),
			removeCommand(),
			queryCommand(),
			queryOneCommand(),
			setupMercuryCommand(),
			exportCommand(),
			exportTransactionsCommand(),
			serveCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func bookPath(c *cli.Context) (string, error) {
	if p := c.String("book"); p != "" {
		return p, nil
	}
	return registry.DefaultPath()
}

func openBook(c *cli.Context) (*registry.Book, error) {
	path, err := bookPath(c)
	if err != nil {
		return nil, err
	}
	return registry.Load(path)
}

func providerOptions(cfg config.Config) provider.Options {
	return provider.Options{
		MercuryURL:     cfg.MercuryURL,
		MercuryAPIKey:  cfg.MercuryAPIKey,
		CircleURL:      cfg.CircleURL,
		CircleAPIKey:   cfg.CircleAPIKey,
		RetryMax:       cfg.RPCRetryMax,
		RetryBaseDelay: cfg.RPCRetryDelay,
	}
}

func buildRunService(cfg config.Config, rpcURL string, progress collector.Progress) *run.Service {
	opts := providerOptions(cfg)
	opts.RPCURL = rpcURL
	coll := collector.New(opts,
		collector.WithWorkers(cfg.CollectWorkers),
		collector.WithTimeout(cfg.AccountTimeout),
		collector.WithInterval(cfg.ProviderInterval),
		collector.WithProgress(progress),
	)
	surge := price.NewSurgeClient(cfg.SurgeURL, cfg.SurgeAPIKey, cfg.SurgeDelay, cfg.SurgeRetryMax)
	return run.NewService(coll, price.NewService(surge))
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "track a new account (provider detected from the identifier)",
		ArgsUsage: "<identifier>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Required: true, Usage: "unique account name"},
			&cli.StringFlag{Name: "org", Usage: "organization the account belongs to"},
			&cli.StringFlag{Name: "kind", Usage: "provider kind, overrides detection"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one identifier argument")
			}
			book, err := openBook(c)
			if err != nil {
				return err
			}
			acc, err := book.Add(c.String("org"), c.String("name"), c.Args().First(), c.String("kind"))
			if err != nil {
				return err
			}
			if err := book.Save(); err != nil {
				return err
			}
			fmt.Printf("Added %s (%s) as %s\n", acc.Name, acc.Kind.DisplayName(), acc.Identifier)
			return nil
		},
	}
}

func addBankCommand() *cli.Command {
	return &cli.Command{
		Name:      "add-bank",
		Usage:     "track a banking account (mercury or circle)",
		ArgsUsage: "<account-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Required: true, Usage: "unique account name"},
			&cli.StringFlag{Name: "org", Usage: "organization the account belongs to"},
			&cli.StringFlag{Name: "kind", Required: true, Usage: "mercury or circle"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one account id argument")
			}
			kind, err := domain.ParseProviderKind(c.String("kind"))
			if err != nil {
				return err
			}
			if !kind.IsBanking() {
				return fmt.Errorf("%s is not a banking provider", kind)
			}
			book, err := openBook(c)
			if err != nil {
				return err
			}
			acc, err := book.Add(c.String("org"), c.String("name"), c.Args().First(), c.String("kind"))
			if err != nil {
				return err
			}
			if err := book.Save(); err != nil {
				return err
			}
			fmt.Printf("Added %s (%s)\n", acc.Name, acc.Kind.DisplayName())
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list tracked accounts",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "org", Usage: "filter by organization substring"},
		},
		Action: func(c *cli.Context) error {
			book, err := openBook(c)
			if err != nil {
				return err
			}
			accounts := book.Accounts
			if filter := c.String("org"); filter != "" {
				accounts = book.ListByOrganization(filter)
			}
			if len(accounts) == 0 {
				fmt.Println("No tracked accounts.")
				return nil
			}
			render.Print(os.Stdout, render.Accounts(accounts))
			return nil
		},
	}
}

func removeCommand() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     "stop tracking an account",
		ArgsUsage: "<name-or-identifier>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one argument")
			}
			book, err := openBook(c)
			if err != nil {
				return err
			}
			if err := book.Remove(c.Args().First()); err != nil {
				return err
			}
			if err := book.Save(); err != nil {
				return err
			}
			fmt.Println("Removed.")
			return nil
		},
	}
}

func queryCommand() *cli.Command {
	return &cli.Command{
		Name:  "query",
		Usage: "fetch balances for all tracked accounts and print the portfolio summary",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "org", Usage: "restrict the run to one organization"},
			&cli.StringFlag{Name: "rpc-url", Usage: "override the chain RPC endpoint"},
			&cli.BoolFlag{Name: "no-prices", Usage: "skip USD price resolution"},
			&cli.StringFlag{Name: "output", Usage: "also write the report to a file"},
			&cli.StringFlag{Name: "format", Value: "json", Usage: "output file format: json, csv or xlsx"},
		},
		Action: func(c *cli.Context) error {
			book, err := openBook(c)
			if err != nil {
				return err
			}
			accounts := book.Accounts
			if filter := c.String("org"); filter != "" {
				accounts = book.ListByOrganization(filter)
			}
			if len(accounts) == 0 {
				return fmt.Errorf("no tracked accounts match")
			}

			cfg := config.Load()
			svc := buildRunService(cfg, c.String("rpc-url"), render.Progress(os.Stderr))
			report, err := svc.Execute(c.Context, accounts, run.Options{NoPrices: c.Bool("no-prices")})
			if err != nil {
				return err
			}

			render.Print(os.Stdout, render.Summary(report))

			if output := c.String("output"); output != "" {
				return writeReportFile(output, c.String("format"), report)
			}
			return nil
		},
	}
}

func queryOneCommand() *cli.Command {
	return &cli.Command{
		Name:      "query-one",
		Usage:     "fetch balances for a single tracked account",
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "no-prices", Usage: "skip USD price resolution"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one account name")
			}
			book, err := openBook(c)
			if err != nil {
				return err
			}
			acc, err := book.FindByName(c.Args().First())
			if err != nil {
				return err
			}

			cfg := config.Load()
			svc := buildRunService(cfg, "", nil)
			report, err := svc.Execute(c.Context, []domain.TrackedAccount{acc}, run.Options{NoPrices: c.Bool("no-prices")})
			if err != nil {
				return err
			}
			if len(report.Failures) > 0 {
				return fmt.Errorf("fetch failed: %s", report.Failures[0].Err)
			}
			for _, res := range report.Results {
				render.Print(os.Stdout, render.Balances(res))
			}
			return nil
		},
	}
}

func setupMercuryCommand() *cli.Command {
	return &cli.Command{
		Name:  "setup-mercury",
		Usage: "list Mercury accounts and optionally track them all",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "org", Usage: "track every listed account under this organization"},
		},
		Action: func(c *cli.Context) error {
			cfg := config.Load()
			adapter, err := provider.NewMercuryAdapter(providerOptions(cfg))
			if err != nil {
				return err
			}
			accounts, err := adapter.ListAccounts(c.Context)
			if err != nil {
				return err
			}
			if len(accounts) == 0 {
				fmt.Println("No Mercury accounts found.")
				return nil
			}
			for _, a := range accounts {
				fmt.Printf("%s  %s (%s, %s)  $%.2f\n", a.ID, a.Name, a.Kind, a.Status, a.CurrentBalance)
			}

			org := c.String("org")
			if org == "" {
				return nil
			}
			book, err := openBook(c)
			if err != nil {
				return err
			}
			added := 0
			for _, a := range accounts {
				if _, err := book.Add(org, a.Name, a.ID, "mercury"); err != nil {
					slog.Warn("skipping account", "name", a.Name, "error", err)
					continue
				}
				added++
			}
			if err := book.Save(); err != nil {
				return err
			}
			fmt.Printf("Tracking %d Mercury accounts under %s\n", added, org)
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "run the full pipeline and write the report to a file or Google Sheets",
		ArgsUsage: "[output-file]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "org", Usage: "restrict the run to one organization"},
			&cli.StringFlag{Name: "format", Usage: "json, csv, xlsx or sheets (default: from file extension)"},
		},
		Action: func(c *cli.Context) error {
			format := c.String("format")
			output := c.Args().First()
			if format != "sheets" {
				if c.NArg() != 1 {
					return fmt.Errorf("expected exactly one output file argument")
				}
				if format == "" {
					format = formatFromExtension(output)
				}
			}

			book, err := openBook(c)
			if err != nil {
				return err
			}
			accounts := book.Accounts
			if filter := c.String("org"); filter != "" {
				accounts = book.ListByOrganization(filter)
			}
			if len(accounts) == 0 {
				return fmt.Errorf("no tracked accounts match")
			}

			cfg := config.Load()
			svc := buildRunService(cfg, "", render.Progress(os.Stderr))
			report, err := svc.Execute(c.Context, accounts, run.Options{})
			if err != nil {
				return err
			}

			if format == "sheets" {
				if cfg.SheetsSpreadsheetID == "" {
					return fmt.Errorf("SHEETS_SPREADSHEET_ID is required for sheets export")
				}
				sheets, err := export.NewSheetsWriter(c.Context, cfg.SheetsSpreadsheetID, cfg.SheetsCredentials)
				if err != nil {
					return err
				}
				if err := sheets.Write(c.Context, report); err != nil {
					return err
				}
				fmt.Println("Wrote summary to Google Sheets")
				return nil
			}

			if err := writeReportFile(output, format, report); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", output)
			return nil
		},
	}
}

func exportTransactionsCommand() *cli.Command {
	return &cli.Command{
		Name:      "export-transactions",
		Usage:     "export Mercury transactions for one account",
		ArgsUsage: "<account-name>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "start", Usage: "start date (YYYY-MM-DD)"},
			&cli.StringFlag{Name: "end", Usage: "end date (YYYY-MM-DD)"},
			&cli.StringFlag{Name: "output", Required: true, Usage: "output file"},
			&cli.StringFlag{Name: "format", Value: "csv", Usage: "csv or json"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one account name")
			}
			book, err := openBook(c)
			if err != nil {
				return err
			}
			acc, err := book.FindByName(c.Args().First())
			if err != nil {
				return err
			}
			if acc.Kind != domain.KindMercury {
				return fmt.Errorf("%s is a %s account, transaction export supports Mercury only", acc.Name, acc.Kind.DisplayName())
			}

			cfg := config.Load()
			adapter, err := provider.NewMercuryAdapter(providerOptions(cfg))
			if err != nil {
				return err
			}
			transactions, err := adapter.FetchTransactions(c.Context, acc.Identifier, c.String("start"), c.String("end"))
			if err != nil {
				return err
			}

			f, err := os.Create(c.String("output"))
			if err != nil {
				return err
			}
			defer f.Close()

			switch c.String("format") {
			case "csv":
				err = export.WriteTransactionsCSV(f, transactions)
			case "json":
				err = export.WriteTransactionsJSON(f, transactions)
			default:
				err = fmt.Errorf("unknown format %q", c.String("format"))
			}
			if err != nil {
				return err
			}
			fmt.Printf("Wrote %d transactions to %s\n", len(transactions), c.String("output"))
			return nil
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the snapshot worker and HTTP API",
		Action: func(c *cli.Context) error {
			ctx := c.Context
			cfg := config.Load()

			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}

			pool, err := database.Connect(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer pool.Close()

			migrationsSub, err := fs.Sub(migrationsFS, "migrations")
			if err != nil {
				return fmt.Errorf("create migrations sub-fs: %w", err)
			}
			if err := database.Migrate(ctx, pool, migrationsSub); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}

			path, err := bookPath(c)
			if err != nil {
				return err
			}
			runSvc := buildRunService(cfg, "", nil)
			snapshotSvc := snapshot.NewService(runSvc, registry.NewFileSource(path), snapshot.NewPgRepository(pool))

			var hook worker.AfterSnapshotHook
			if cfg.SheetsSpreadsheetID != "" {
				sheets, err := export.NewSheetsWriter(ctx, cfg.SheetsSpreadsheetID, cfg.SheetsCredentials)
				if err != nil {
					return fmt.Errorf("create sheets writer: %w", err)
				}
				hook = export.NewService(sheets)
			}

			reportWorker := worker.NewReportWorker(snapshotSvc, cfg.ReportWorkerInterval, hook)
			go reportWorker.Run(ctx)

			if cfg.AdminAPIKey == "" {
				slog.Warn("ADMIN_API_KEY not set, generate endpoint is unprotected")
			}

			srv := api.NewServer(cfg.HTTPPort, snapshotSvc, cfg.AdminAPIKey)
			go func() {
				log.Printf("HTTP server listening on :%s", cfg.HTTPPort)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Printf("HTTP server error: %v", err)
				}
			}()

			<-ctx.Done()
			log.Println("Shutting down...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Printf("HTTP server shutdown error: %v", err)
			}

			log.Println("Shutdown complete")
			return nil
		},
	}
}

func formatFromExtension(path string) string {
	switch filepath.Ext(path) {
	case ".csv":
		return "csv"
	case ".xlsx":
		return "xlsx"
	default:
		return "json"
	}
}

func writeReportFile(path, format string, report *run.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch format {
	case "json":
		return export.WriteJSON(f, report)
	case "csv":
		return export.WriteCSV(f, report)
	case "xlsx":
		return export.WriteXLSX(f, report)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
