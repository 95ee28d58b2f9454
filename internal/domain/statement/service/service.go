package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Athenodoros/TopHat-sub000/internal/domain/ledger"
	"github.com/Athenodoros/TopHat-sub000/internal/domain/statement/columns"
	"github.com/Athenodoros/TopHat-sub000/internal/domain/statement/mapping"
	"github.com/Athenodoros/TopHat-sub000/internal/domain/statement/schema"
	"github.com/Athenodoros/TopHat-sub000/internal/domain/statement/transfer"
	"github.com/Athenodoros/TopHat-sub000/pkg/config"
)

// RowDecision is the per-row outcome of an import session: whether the row
// is pre-checked as already imported, and which existing transaction it is
// suggested to be the transfer counterpart of. Both are suggestions for the
// user to confirm.
type RowDecision struct {
	Excluded            bool
	TransferTransaction *uuid.UUID
}

// Service runs import sessions against a ledger snapshot.
type Service struct {
	ledger ledger.Repository
	cfg    config.ImportConfig
	logger *slog.Logger
}

// New creates an import service.
func New(repo ledger.Repository, cfg config.ImportConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{ledger: repo, cfg: cfg, logger: logger}
}

// Analyze parses every file of the session, reconciles the per-file columns
// into a common schema and guesses an initial mapping. When the session's
// account remembers a statement format and no explicit options were set,
// that format is adopted first. Analyze is idempotent: identical inputs
// yield an identical session.
//
// A file the tokenizer rejects gets nil columns and is flagged non-matching
// rather than failing the whole batch. A missing common schema leaves the
// mapping empty; only the absence of a usable date column is an error, since
// the caller needs to surface that case specifically.
func (s *Service) Analyze(ctx context.Context, session Session) (Session, error) {
	if !session.OptionsSet {
		if format := session.Account.StatementFormat(); format != nil {
			session.Options = columns.ParseOptions{
				Header:     format.Header,
				DateFormat: format.DateFormat,
			}
			if format.Delimiter != "" {
				session.Options.Delimiter = []rune(format.Delimiter)[0]
			}
		}
	}

	session.Columns = make(map[string][]columns.Column, len(session.Files))
	for _, f := range session.Files {
		cols, err := columns.InferColumns(f.Text, session.Options)
		if err != nil {
			s.logger.Warn("statement file is unparseable",
				slog.String("file", f.Name),
				slog.String("error", err.Error()),
			)
			session.Columns[f.ID] = nil
			continue
		}
		session.Columns[f.ID] = cols
	}

	session.Schema = schema.Reconcile(session.Columns, nil)
	session.Mapping = mapping.Mapping{}
	if session.Schema.Common == nil {
		return session, nil
	}

	defaultCurrency, err := s.ledger.DefaultCurrency(ctx)
	if err != nil {
		return session, fmt.Errorf("load default currency: %w", err)
	}

	guessed, err := mapping.Guess(session.Schema.Common, session.Columns, session.Schema.Matches, defaultCurrency.ID)
	if err != nil {
		return session, err
	}
	session.Mapping = guessed
	return session, nil
}

// ComputeExclusions applies the account watermark: for each file, the row
// indices whose mapped date falls strictly before the date through which
// this account's statements were already imported. Without an account or
// watermark nothing is excluded. ISO date strings compare correctly as
// plain strings. Pure over the session; it never deletes data.
func (s *Service) ComputeExclusions(session Session) map[string][]int {
	excluded := make(map[string][]int, len(session.Files))
	watermark := session.Account.Watermark()
	if watermark == "" || session.Mapping.Date == "" {
		return excluded
	}

	for _, f := range session.Files {
		if !session.Schema.Matches[f.ID] {
			continue
		}
		dates := session.column(f.ID, session.Mapping.Date)
		if dates == nil {
			continue
		}
		for row, cell := range dates.Cells {
			if !cell.Null && cell.Date < watermark {
				excluded[f.ID] = append(excluded[f.ID], row)
			}
		}
	}
	return excluded
}

// DetectTransfers resolves every matching row through the session's mapping,
// then runs the transfer matcher against the full ledger snapshot. The
// result is the session's decision set: per file, per row index, the
// exclusion flag and the suggested counterpart transaction if any. Rows
// whose value or date cell is null are never candidates; rows whose
// column-based currency cannot be resolved are skipped with a warning.
func (s *Service) DetectTransfers(ctx context.Context, session Session) (map[string]map[int]RowDecision, error) {
	currencyList, err := s.ledger.Currencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("load currencies: %w", err)
	}
	transactions, err := s.ledger.Transactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	currencies := make(map[uuid.UUID]ledger.Currency, len(currencyList))
	for _, c := range currencyList {
		currencies[c.ID] = c
	}
	index := transfer.BuildCurrencyIndex(currencyList)

	exclusions := s.ComputeExclusions(session)
	excluded := make(map[string]map[int]bool, len(exclusions))
	for fileID, rows := range exclusions {
		excluded[fileID] = make(map[int]bool, len(rows))
		for _, row := range rows {
			excluded[fileID][row] = true
		}
	}

	decisions := make(map[string]map[int]RowDecision, len(session.Files))
	candidates := transfer.Candidates{}
	var tracked []*transfer.Candidate

	for _, f := range session.Files {
		if !session.Schema.Matches[f.ID] {
			continue
		}
		dates := session.column(f.ID, session.Mapping.Date)
		if dates == nil {
			continue
		}
		decisions[f.ID] = make(map[int]RowDecision, len(dates.Cells))

		for row := range dates.Cells {
			decisions[f.ID][row] = RowDecision{Excluded: excluded[f.ID][row]}

			if dates.Cells[row].Null {
				continue
			}
			value, ok := s.resolveValue(session, f.ID, row)
			if !ok {
				continue
			}
			currency, ok := s.resolveCurrency(session, index, f.ID, row)
			if !ok {
				continue
			}

			cand := &transfer.Candidate{
				FileID:    f.ID,
				Row:       row,
				Value:     value,
				Currency:  currency,
				Reference: s.resolveReference(session, f.ID, row),
				Excluded:  excluded[f.ID][row],
			}
			candidates.Add(dates.Cells[row].Date, cand)
			tracked = append(tracked, cand)
		}
	}

	matcher := transfer.NewMatcher(
		s.cfg.TransferWindowDays,
		decimal.NewFromFloat(s.cfg.FuzzyRatioLow),
		decimal.NewFromFloat(s.cfg.FuzzyRatioHigh),
		s.logger,
	)
	if err := matcher.Match(candidates, transactions, currencies); err != nil {
		return nil, err
	}

	for _, cand := range tracked {
		if cand.MatchedTransaction != nil {
			decisions[cand.FileID][cand.Row] = RowDecision{
				Excluded:            cand.Excluded,
				TransferTransaction: cand.MatchedTransaction,
			}
		}
	}
	return decisions, nil
}

// RowValue resolves the mapped value of one row, for display. The second
// return is false when the row has no usable value cell.
func (s *Service) RowValue(session Session, fileID string, row int) (decimal.Decimal, bool) {
	return s.resolveValue(session, fileID, row)
}

// resolveValue applies the mapping's value role to one row. Split mode takes
// the credit cell when present, otherwise the debit cell; Flip negates the
// debit (split) or the whole value (single).
func (s *Service) resolveValue(session Session, fileID string, row int) (decimal.Decimal, bool) {
	switch role := session.Mapping.Value.(type) {
	case mapping.SingleValue:
		cell := s.cell(session, fileID, role.Column, row)
		if cell == nil || cell.Null {
			return decimal.Zero, false
		}
		if role.Flip {
			return cell.Num.Neg(), true
		}
		return cell.Num, true
	case mapping.SplitValue:
		if credit := s.cell(session, fileID, role.Credit, row); credit != nil && !credit.Null {
			return credit.Num, true
		}
		debit := s.cell(session, fileID, role.Debit, row)
		if debit == nil || debit.Null {
			return decimal.Zero, false
		}
		if role.Flip {
			return debit.Num.Neg(), true
		}
		return debit.Num, true
	}
	return decimal.Zero, false
}

func (s *Service) resolveCurrency(session Session, index *transfer.CurrencyIndex, fileID string, row int) (uuid.UUID, bool) {
	switch role := session.Mapping.Currency.(type) {
	case mapping.ConstantCurrency:
		return role.CurrencyID, true
	case mapping.ColumnCurrency:
		cell := s.cell(session, fileID, role.Column, row)
		if cell == nil || cell.Null {
			return uuid.Nil, false
		}
		id, ok := index.Lookup(cell.Str)
		if !ok {
			s.logger.Warn("unresolvable currency tag, row skipped",
				slog.String("file", fileID),
				slog.Int("row", row),
				slog.String("tag", cell.Str),
			)
			return uuid.Nil, false
		}
		return id, true
	}
	return uuid.Nil, false
}

func (s *Service) resolveReference(session Session, fileID string, row int) string {
	if session.Mapping.Reference == "" {
		return ""
	}
	cell := s.cell(session, fileID, session.Mapping.Reference, row)
	if cell == nil || cell.Null {
		return ""
	}
	return cell.Str
}

func (s *Service) cell(session Session, fileID, columnID string, row int) *columns.Cell {
	col := session.column(fileID, columnID)
	if col == nil || row >= len(col.Cells) {
		return nil
	}
	return &col.Cells[row]
}
