// Package basket counts items and co-occurring item pairs over
// transaction logs. One transaction is one line of delimited item tokens.
package basket

import (
	"sort"
	"strings"
)

// Delimiter separates items on a transaction line. There is no escaping,
// so an item can never contain it.
const Delimiter = ","

// Transaction is the set of unique items seen on one line.
type Transaction map[string]struct{}

// ParseLine parses a comma separated transaction line.
func ParseLine(line string) Transaction {
	return parseLineSep(line, Delimiter)
}

// parseLineSep splits line on sep, trims every token and drops the empty
// ones. Duplicate tokens collapse into one item. A blank line gives an
// empty transaction rather than an error.
func parseLineSep(line, sep string) Transaction {
	t := make(Transaction)
	line = strings.TrimSpace(line)
	if line == "" {
		return t
	}
	for _, tok := range strings.Split(line, sep) {
		if item := strings.TrimSpace(tok); item != "" {
			t[item] = struct{}{}
		}
	}
	return t
}

// Items returns the items in sorted order.
func (t Transaction) Items() []string {
	items := make([]string, 0, len(t))
	for item := range t {
		items = append(items, item)
	}
	sort.Strings(items)
	return items
}

// Pairs returns every unordered pair of distinct items in t, k*(k-1)/2 of
// them for k items. The count grows quadratically with the size of the
// basket, so a single very wide transaction dominates the cost of a run.
func (t Transaction) Pairs() []Pair {
	items := t.Items()
	if len(items) < 2 {
		return nil
	}
	pairs := make([]Pair, 0, len(items)*(len(items)-1)/2)
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			// items is sorted, so i < j is already canonical
			pairs = append(pairs, Pair{A: items[i], B: items[j]})
		}
	}
	return pairs
}
