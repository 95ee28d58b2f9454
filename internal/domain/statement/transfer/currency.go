package transfer

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/Athenodoros/TopHat-sub000/internal/domain/ledger"
)

// CurrencyIndex resolves raw statement cells ("EUR", "€", "Euro", ...) to
// currency ids. Exact lookup covers ticker, symbol and name; a fuzzy
// fallback over currency names catches near-misses like "US Dollars", but
// only when a single best match exists.
type CurrencyIndex struct {
	exact   map[string]uuid.UUID
	names   []string
	nameIDs []uuid.UUID
}

// BuildCurrencyIndex creates the lookup table. On tag collisions the first
// currency wins, so callers should pass currencies in a stable order.
func BuildCurrencyIndex(currencies []ledger.Currency) *CurrencyIndex {
	ix := &CurrencyIndex{exact: make(map[string]uuid.UUID, len(currencies)*3)}
	for _, c := range currencies {
		for _, tag := range []string{c.Ticker, c.Symbol, c.Name} {
			key := strings.ToLower(strings.TrimSpace(tag))
			if key == "" {
				continue
			}
			if _, taken := ix.exact[key]; !taken {
				ix.exact[key] = c.ID
			}
		}
		if c.Name != "" {
			ix.names = append(ix.names, c.Name)
			ix.nameIDs = append(ix.nameIDs, c.ID)
		}
	}
	return ix
}

// Lookup resolves a raw cell to a currency id.
func (ix *CurrencyIndex) Lookup(raw string) (uuid.UUID, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return uuid.Nil, false
	}
	if id, ok := ix.exact[key]; ok {
		return id, true
	}

	ranks := fuzzy.RankFindNormalizedFold(key, ix.names)
	if len(ranks) == 0 {
		return uuid.Nil, false
	}
	sort.Sort(ranks)
	if len(ranks) > 1 && ranks[0].Distance == ranks[1].Distance {
		// Ambiguous: refuse to guess.
		return uuid.Nil, false
	}
	return ix.nameIDs[ranks[0].OriginalIndex], true
}
