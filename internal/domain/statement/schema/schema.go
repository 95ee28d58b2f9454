// Package schema reconciles inferred columns across the files of one import
// batch into a common schema by majority vote.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Athenodoros/TopHat-sub000/internal/domain/statement/columns"
)

// Descriptor describes one column slot of a common schema.
type Descriptor struct {
	ID       string
	Name     string
	Type     columns.ColumnType
	Nullable bool
}

// Result is the outcome of reconciliation. Common is nil when no signature
// reached the majority threshold; Matches records, per file, whether that
// file's columns are compatible with the common schema. A nil Common or any
// false entry blocks progression to the mapping stage.
type Result struct {
	Common  []Descriptor
	Matches map[string]bool
}

// Reconcile computes the common schema for a batch. Files whose columns could
// not be inferred (nil slice) vote nothing and never match. When fixed is
// non-nil the vote is skipped and every file is tested against it instead.
func Reconcile(files map[string][]columns.Column, fixed []Descriptor) Result {
	common := fixed
	if common == nil {
		common = vote(files)
	}

	matches := make(map[string]bool, len(files))
	for id, cols := range files {
		matches[id] = common != nil && cols != nil && Compatible(common, cols)
	}
	return Result{Common: common, Matches: matches}
}

// vote groups files by their (id, name, type) column signature and takes the
// most frequent signature, provided it covers at least half the files. The
// winning schema's nullability flags are the union over the files in that
// group, so a file with an occasionally-blank column widens the slot for
// everyone.
func vote(files map[string][]columns.Column) []Descriptor {
	type bucket struct {
		cols  [][]columns.Column
		count int
	}
	buckets := make(map[string]*bucket)
	for _, cols := range files {
		if cols == nil {
			continue
		}
		sig := signature(cols)
		b, ok := buckets[sig]
		if !ok {
			b = &bucket{}
			buckets[sig] = b
		}
		b.cols = append(b.cols, cols)
		b.count++
	}

	// Deterministic winner: highest count, signature string as tie-break.
	sigs := make([]string, 0, len(buckets))
	for sig := range buckets {
		sigs = append(sigs, sig)
	}
	sort.Strings(sigs)

	var winner *bucket
	for _, sig := range sigs {
		if winner == nil || buckets[sig].count > winner.count {
			winner = buckets[sig]
		}
	}
	if winner == nil || winner.count*2 < len(files) {
		return nil
	}

	common := make([]Descriptor, len(winner.cols[0]))
	for i, col := range winner.cols[0] {
		common[i] = Descriptor{ID: col.ID, Name: col.Name, Type: col.Type}
	}
	for _, cols := range winner.cols {
		for i, col := range cols {
			common[i].Nullable = common[i].Nullable || col.Nullable
		}
	}
	return common
}

// Compatible reports whether a file's columns satisfy the common schema:
// sequences align 1:1 by id and name, types are equal or the common slot is
// a string (which absorbs any per-file type), and a nullable file column
// requires a nullable common slot.
func Compatible(common []Descriptor, cols []columns.Column) bool {
	if len(common) != len(cols) {
		return false
	}
	for i, d := range common {
		col := cols[i]
		if d.ID != col.ID || d.Name != col.Name {
			return false
		}
		if d.Type != col.Type && d.Type != columns.TypeString {
			return false
		}
		if !d.Nullable && col.Nullable {
			return false
		}
	}
	return true
}

func signature(cols []columns.Column) string {
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = fmt.Sprintf("%s\x1f%s\x1f%s", col.ID, col.Name, col.Type)
	}
	return strings.Join(parts, "\x1e")
}
