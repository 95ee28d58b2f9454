// Package service orchestrates one statement-import session: parsing the
// uploaded files, reconciling their schemas, guessing a column mapping and
// computing the per-row exclusion and transfer decisions. It never writes
// to the ledger; the produced decision set is handed to the caller.
package service

import (
	"github.com/Athenodoros/TopHat-sub000/internal/domain/ledger"
	"github.com/Athenodoros/TopHat-sub000/internal/domain/statement/columns"
	"github.com/Athenodoros/TopHat-sub000/internal/domain/statement/mapping"
	"github.com/Athenodoros/TopHat-sub000/internal/domain/statement/schema"
)

// StatementFile is one uploaded statement, already read into memory.
type StatementFile struct {
	ID   string
	Name string
	Text string
}

// Session is the working state of one import dialog. It is a value: every
// transition returns a new Session, so callers can keep, compare or discard
// intermediate states freely. Derived state (Columns, Schema, Mapping) is
// filled in by Service.Analyze and becomes stale whenever files, options or
// account change; the With* transitions drop it for that reason.
type Session struct {
	Files   []StatementFile
	Options columns.ParseOptions
	// OptionsSet records that Options came from an explicit WithOptions
	// call, so Analyze will not override them with the account's remembered
	// statement format.
	OptionsSet bool
	Account    *ledger.Account

	// Columns holds the per-file inference result; a nil slice marks an
	// unparseable file.
	Columns map[string][]columns.Column
	Schema  schema.Result
	Mapping mapping.Mapping
}

// WithFiles returns the session with a new file batch and no derived state.
func (s Session) WithFiles(files []StatementFile) Session {
	s.Files = files
	return s.invalidated()
}

// WithOptions returns the session with explicit parse options and no
// derived state.
func (s Session) WithOptions(opts columns.ParseOptions) Session {
	s.Options = opts
	s.OptionsSet = true
	return s.invalidated()
}

// WithAccount returns the session targeted at an account. The account's
// remembered statement format, when it has one and no explicit options were
// set, is adopted on the next Analyze.
func (s Session) WithAccount(account *ledger.Account) Session {
	s.Account = account
	return s.invalidated()
}

// WithMapping returns the session with a user-edited mapping. Parse state
// is kept: editing the mapping invalidates only downstream decisions.
func (s Session) WithMapping(m mapping.Mapping) Session {
	s.Mapping = m
	return s
}

func (s Session) invalidated() Session {
	s.Columns = nil
	s.Schema = schema.Result{}
	s.Mapping = mapping.Mapping{}
	return s
}

// Ready reports whether the session can proceed to exclusion and transfer
// computation: a common schema exists, every file matches it and the
// mapping has its required date role.
func (s Session) Ready() bool {
	if s.Schema.Common == nil || s.Mapping.Date == "" {
		return false
	}
	for _, f := range s.Files {
		if !s.Schema.Matches[f.ID] {
			return false
		}
	}
	return true
}

// column returns the named column of one file, or nil.
func (s Session) column(fileID, columnID string) *columns.Column {
	for i := range s.Columns[fileID] {
		if s.Columns[fileID][i].ID == columnID {
			return &s.Columns[fileID][i]
		}
	}
	return nil
}
