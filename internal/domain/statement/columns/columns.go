// Package columns turns raw statement text into typed columns. It tokenizes
// CSV-like files, auto-detecting the delimiter when none is configured, and
// infers a type per column from the cell contents.
package columns

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Athenodoros/TopHat-sub000/internal/domain/statement/scalar"
)

// ColumnType is the inferred type of a statement column.
type ColumnType string

const (
	TypeString ColumnType = "string"
	TypeNumber ColumnType = "number"
	TypeDate   ColumnType = "date"
)

var (
	ErrEmptyFile        = errors.New("file is empty")
	ErrInvalidDelimiter = errors.New("could not detect valid delimiter")
)

// Cell is one parsed value. Null cells came from empty raw cells; otherwise
// exactly one of Str/Num/Date is meaningful, per the owning column's type.
type Cell struct {
	Null bool
	Str  string
	Num  decimal.Decimal
	Date string // ISO YYYY-MM-DD
}

// Column is a typed view of one source column across all rows of a file.
// Raw and Cells always have the same length (the file's row count) and
// preserve row order. Columns are never mutated after inference.
type Column struct {
	ID       string
	Name     string
	Type     ColumnType
	Nullable bool
	Raw      []string
	Cells    []Cell
}

// ParseOptions configures tokenization and date handling for one dialog
// session. A zero Delimiter means auto-detect; an empty DateFormat means
// any recognisable date string is accepted.
type ParseOptions struct {
	Header     bool
	Delimiter  rune
	DateFormat string
}

// InferColumns tokenizes a file and infers a typed column per source column.
// Tokenizer row-shape errors are returned so the caller can flag the file as
// unparseable; they never panic across the pipeline boundary. Re-running with
// identical inputs yields identical output.
func InferColumns(fileText string, opts ParseOptions) ([]Column, error) {
	text := string(scalar.NormalizeStatementText([]byte(fileText)))
	records, err := tokenize(text, opts.Delimiter)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	names := make([]string, len(records[0]))
	rows := records
	if opts.Header {
		for i, h := range records[0] {
			names[i] = strings.TrimSpace(h)
		}
		rows = records[1:]
	} else {
		for i := range names {
			names[i] = fmt.Sprintf("Column %d", i+1)
		}
	}

	cols := make([]Column, len(names))
	for idx := range cols {
		raw := make([]string, len(rows))
		for r, row := range rows {
			raw[r] = strings.TrimSpace(row[idx])
		}
		cols[idx] = inferColumn(fmt.Sprintf("c%d", idx), names[idx], raw, opts.DateFormat)
	}
	return cols, nil
}

// inferColumn assigns a type in strict priority order: number, then date
// under the active mode, then string as the universal fallback. A column is
// typed only if every non-empty cell parses under that type.
func inferColumn(id, name string, raw []string, dateFormat string) Column {
	col := Column{ID: id, Name: name, Raw: raw}

	nonEmpty := 0
	allNumbers := true
	allDates := true
	for _, v := range raw {
		if v == "" {
			col.Nullable = true
			continue
		}
		nonEmpty++
		if allNumbers {
			if _, ok := scalar.ParseNumber(v); !ok {
				allNumbers = false
			}
		}
		if allDates {
			if _, ok := scalar.ParseDate(v, dateFormat); !ok {
				allDates = false
			}
		}
	}

	switch {
	case nonEmpty > 0 && allNumbers:
		col.Type = TypeNumber
	case nonEmpty > 0 && allDates:
		col.Type = TypeDate
	default:
		col.Type = TypeString
	}

	col.Cells = make([]Cell, len(raw))
	for i, v := range raw {
		if v == "" {
			col.Cells[i] = Cell{Null: true}
			continue
		}
		switch col.Type {
		case TypeNumber:
			n, _ := scalar.ParseNumber(v)
			col.Cells[i] = Cell{Num: n}
		case TypeDate:
			d, _ := scalar.ParseDate(v, dateFormat)
			col.Cells[i] = Cell{Date: scalar.DateKey(d)}
		default:
			col.Cells[i] = Cell{Str: v}
		}
	}
	return col
}

// tokenize reads the whole file through encoding/csv. Row-shape errors are
// surfaced to the caller: a statement with ragged rows is unparseable rather
// than silently truncated.
func tokenize(text string, delimiter rune) ([][]string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptyFile
	}

	if delimiter == 0 {
		var err error
		if delimiter, err = DetectDelimiter(trimmed); err != nil {
			return nil, err
		}
	}

	reader := csv.NewReader(strings.NewReader(trimmed))
	reader.Comma = delimiter
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	return records, nil
}

// DetectDelimiter picks the candidate delimiter occurring most often in the
// first non-empty line.
func DetectDelimiter(text string) (rune, error) {
	line := text
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		line = text[:idx]
	}
	line = strings.TrimRight(line, "\r")

	best := rune(0)
	bestCount := 0
	for _, d := range []rune{';', '\t', ',', '|'} {
		if count := strings.Count(line, string(d)); count > bestCount {
			bestCount = count
			best = d
		}
	}
	if best == 0 {
		return 0, ErrInvalidDelimiter
	}
	return best, nil
}
