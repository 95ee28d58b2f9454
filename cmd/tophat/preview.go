package main

import (
	"log/slog"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Athenodoros/TopHat-sub000/internal/domain/ledger"
	"github.com/Athenodoros/TopHat-sub000/internal/domain/statement/service"
	"github.com/Athenodoros/TopHat-sub000/pkg/config"
	"github.com/Athenodoros/TopHat-sub000/pkg/money"
)

func newPreviewCommand() *cobra.Command {
	var flags parseFlags
	var ledgerPath string
	var dsn string
	var since string

	cmd := &cobra.Command{
		Use:   "preview <files...>",
		Short: "Compute per-row exclusion and transfer decisions against a ledger",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			files, err := readStatements(args)
			if err != nil {
				return err
			}

			var repo ledger.Repository
			var currencies []ledger.Currency
			if dsn != "" {
				pgRepo, pool, err := ledger.Open(cmd.Context(), dsn)
				if err != nil {
					return err
				}
				defer pool.Close()
				if currencies, err = pgRepo.Currencies(cmd.Context()); err != nil {
					return err
				}
				repo = pgRepo
			} else {
				if currencies, err = flags.loadCurrencies(); err != nil {
					return err
				}
				var transactions []ledger.Transaction
				var accounts []ledger.Account
				if ledgerPath != "" {
					file, err := os.Open(ledgerPath)
					if err != nil {
						return err
					}
					transactions, accounts, err = ledger.LoadTransactionsCSV(file, currencies)
					_ = file.Close()
					if err != nil {
						return err
					}
				}
				repo = ledger.NewMemoryRepository(accounts, currencies, transactions)
			}

			svc := service.New(repo, cfg.Import, slog.Default())

			session := service.Session{}.
				WithFiles(files).
				WithOptions(flags.options())
			if since != "" {
				session = session.WithAccount(&ledger.Account{
					Name:                "import target",
					LastStatementFormat: &ledger.StatementFormat{Date: since},
				})
			}

			session, err = svc.Analyze(cmd.Context(), session)
			if err != nil {
				return err
			}
			if !session.Ready() {
				printAnalysis(cmd, session, currencies)
				return nil
			}

			decisions, err := svc.DetectTransfers(cmd.Context(), session)
			if err != nil {
				return err
			}

			ticker := defaultTicker(currencies)
			for _, f := range session.Files {
				cmd.Printf("%s:\n", f.Name)
				printDecisions(cmd, svc, session, f.ID, decisions[f.ID], ticker, cfg.Import.PreviewRows)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&ledgerPath, "ledger", "", "transactions CSV (date,value,currency,reference,account)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "postgres connection string; overrides --ledger and --currencies")
	cmd.Flags().StringVar(&since, "since", "", "watermark date (ISO); rows before it are marked already imported")
	return cmd
}

func printDecisions(cmd *cobra.Command, svc *service.Service, session service.Session, fileID string, decisions map[int]service.RowDecision, ticker string, limit int) {
	rows := make([]int, 0, len(decisions))
	for row := range decisions {
		rows = append(rows, row)
	}
	sort.Ints(rows)

	for i, row := range rows {
		if limit > 0 && i >= limit {
			cmd.Printf("  ... %d more rows\n", len(rows)-limit)
			return
		}
		display := ""
		if value, ok := svc.RowValue(session, fileID, row); ok {
			display = money.Format(value, ticker)
		}
		decision := decisions[row]
		notes := ""
		if decision.Excluded {
			notes += "  [already imported]"
		}
		if decision.TransferTransaction != nil {
			notes += "  [transfer of " + decision.TransferTransaction.String() + "]"
		}
		cmd.Printf("  row %-4d %12s%s\n", row, display, notes)
	}
}

func defaultTicker(currencies []ledger.Currency) string {
	if len(currencies) > 0 {
		return currencies[0].Ticker
	}
	return "USD"
}
