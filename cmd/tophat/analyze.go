package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Athenodoros/TopHat-sub000/internal/domain/ledger"
	"github.com/Athenodoros/TopHat-sub000/internal/domain/statement/columns"
	"github.com/Athenodoros/TopHat-sub000/internal/domain/statement/mapping"
	"github.com/Athenodoros/TopHat-sub000/internal/domain/statement/service"
	"github.com/Athenodoros/TopHat-sub000/pkg/config"
)

type parseFlags struct {
	header     bool
	delimiter  string
	dateFormat string
	currencies string
}

func (f *parseFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.header, "header", true, "treat the first row as a header")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "", "column delimiter (auto-detected when empty)")
	cmd.Flags().StringVar(&f.dateFormat, "date-format", "", "Go reference layout for dates (any recognisable date when empty)")
	cmd.Flags().StringVar(&f.currencies, "currencies", "", "currencies CSV (ticker,symbol,name,rate); a lone USD is assumed when empty")
}

func (f *parseFlags) options() columns.ParseOptions {
	opts := columns.ParseOptions{Header: f.header, DateFormat: f.dateFormat}
	if f.delimiter != "" {
		opts.Delimiter = []rune(f.delimiter)[0]
	}
	return opts
}

// loadCurrencies reads the currencies file, or falls back to a single USD
// entry so the constant-currency guess has something to point at.
func (f *parseFlags) loadCurrencies() ([]ledger.Currency, error) {
	if f.currencies == "" {
		return []ledger.Currency{{
			ID: uuid.New(), Ticker: "USD", Symbol: "$", Name: "US Dollar",
			Rate: decimal.NewFromInt(1),
		}}, nil
	}
	file, err := os.Open(f.currencies)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ledger.LoadCurrenciesCSV(file)
}

func readStatements(paths []string) ([]service.StatementFile, error) {
	files := make([]service.StatementFile, 0, len(paths))
	for i, path := range paths {
		text, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, service.StatementFile{
			ID:   fmt.Sprintf("f%d", i),
			Name: filepath.Base(path),
			Text: string(text),
		})
	}
	return files, nil
}

func newAnalyzeCommand() *cobra.Command {
	var flags parseFlags

	cmd := &cobra.Command{
		Use:   "analyze <files...>",
		Short: "Infer column types, reconcile schemas and guess a mapping",
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
			currencies, err := flags.loadCurrencies()
			if err != nil {
				return err
			}

			repo := ledger.NewMemoryRepository(nil, currencies, nil)
			svc := service.New(repo, cfg.Import, slog.Default())

			session := service.Session{}.
				WithFiles(files).
				WithOptions(flags.options())
			session, err = svc.Analyze(cmd.Context(), session)
			if err != nil {
				return err
			}

			printAnalysis(cmd, session, currencies)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func printAnalysis(cmd *cobra.Command, session service.Session, currencies []ledger.Currency) {
	for _, f := range session.Files {
		status := "ok"
		switch {
		case session.Columns[f.ID] == nil:
			status = "unparseable"
		case !session.Schema.Matches[f.ID]:
			status = "schema mismatch"
		}
		cmd.Printf("%s: %s\n", f.Name, status)
	}

	if session.Schema.Common == nil {
		cmd.Println("no common schema: files need to be parsed correctly before mapping")
		return
	}

	cmd.Println("\ncommon schema:")
	for _, d := range session.Schema.Common {
		nullable := ""
		if d.Nullable {
			nullable = " (nullable)"
		}
		cmd.Printf("  %-4s %-20s %s%s\n", d.ID, d.Name, d.Type, nullable)
	}

	cmd.Println("\nguessed mapping:")
	name := descriptorNames(session)
	cmd.Printf("  date:      %s\n", name(session.Mapping.Date))
	if session.Mapping.Reference != "" {
		cmd.Printf("  reference: %s\n", name(session.Mapping.Reference))
	}
	if session.Mapping.Balance != "" {
		cmd.Printf("  balance:   %s\n", name(session.Mapping.Balance))
	}
	switch role := session.Mapping.Value.(type) {
	case mapping.SingleValue:
		cmd.Printf("  value:     %s%s\n", name(role.Column), flipSuffix(role.Flip))
	case mapping.SplitValue:
		cmd.Printf("  value:     credit %s / debit %s%s\n", name(role.Credit), name(role.Debit), flipSuffix(role.Flip))
	default:
		cmd.Println("  value:     (none)")
	}
	switch role := session.Mapping.Currency.(type) {
	case mapping.ConstantCurrency:
		cmd.Printf("  currency:  constant %s\n", tickerOf(currencies, role.CurrencyID))
	case mapping.ColumnCurrency:
		cmd.Printf("  currency:  column %s (%s)\n", name(role.Column), role.Field)
	}
}

func descriptorNames(session service.Session) func(string) string {
	byID := make(map[string]string, len(session.Schema.Common))
	for _, d := range session.Schema.Common {
		byID[d.ID] = d.Name
	}
	return func(id string) string {
		if n, ok := byID[id]; ok {
			return n
		}
		return id
	}
}

func flipSuffix(flip bool) string {
	if flip {
		return " (sign flipped)"
	}
	return ""
}

func tickerOf(currencies []ledger.Currency, id uuid.UUID) string {
	for _, c := range currencies {
		if c.ID == id {
			return c.Ticker
		}
	}
	return id.String()
}
