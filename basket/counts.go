package basket

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMergeKeyMismatch is returned when an encoded key of the wrong kind is
// folded into a count, e.g. a pair key into an ItemCount. It means the
// caller wired the wrong job output into the wrong counter.
var ErrMergeKeyMismatch = errors.New("merge key mismatch")

// Pair is an unordered pair of distinct items, stored with A < B.
type Pair struct {
	A, B string
}

// NewPair canonicalizes a and b so that NewPair(a, b) == NewPair(b, a).
func NewPair(a, b string) Pair {
	if b < a {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

// String is the wire form of the pair, "a,b".
func (p Pair) String() string {
	return p.A + Delimiter + p.B
}

// ParsePair decodes the wire form written by Pair.String.
func ParsePair(s string) (Pair, error) {
	fields := strings.Split(s, Delimiter)
	if len(fields) != 2 || fields[0] == "" || fields[1] == "" || fields[0] == fields[1] {
		return Pair{}, fmt.Errorf("%w: %q is not a pair key", ErrMergeKeyMismatch, s)
	}
	return NewPair(fields[0], fields[1]), nil
}

// ItemCount maps an item to the number of transactions containing it.
type ItemCount map[string]int

// PairCount maps a pair to the number of transactions containing both items.
type PairCount map[Pair]int

// CountItems folds transactions into a fresh ItemCount.
func CountItems(ts []Transaction) ItemCount {
	c := make(ItemCount)
	for _, t := range ts {
		c.Add(t)
	}
	return c
}

// CountPairs folds transactions into a fresh PairCount.
func CountPairs(ts []Transaction) PairCount {
	c := make(PairCount)
	for _, t := range ts {
		c.Add(t)
	}
	return c
}

// Add counts every item of t once.
func (c ItemCount) Add(t Transaction) {
	for item := range t {
		c[item]++
	}
}

// Add counts every pair of t once.
func (c PairCount) Add(t Transaction) {
	for _, p := range t.Pairs() {
		c[p]++
	}
}

// Merge adds other into c key by key. other must not be used afterwards.
func (c ItemCount) Merge(other ItemCount) {
	for k, n := range other {
		c[k] += n
	}
}

// Merge adds other into c key by key. other must not be used afterwards.
func (c PairCount) Merge(other PairCount) {
	for k, n := range other {
		c[k] += n
	}
}

// MergeItems sums partial item counts. The order of parts does not matter.
func MergeItems(parts ...ItemCount) ItemCount {
	out := make(ItemCount)
	for _, p := range parts {
		out.Merge(p)
	}
	return out
}

// MergePairs sums partial pair counts. The order of parts does not matter.
func MergePairs(parts ...PairCount) PairCount {
	out := make(PairCount)
	for _, p := range parts {
		out.Merge(p)
	}
	return out
}

// AddEncoded folds one "item<TAB>n" style result row into c.
func (c ItemCount) AddEncoded(key string, n int) error {
	if key == "" || strings.Contains(key, Delimiter) {
		return fmt.Errorf("%w: %q is not an item key", ErrMergeKeyMismatch, key)
	}
	if n < 0 {
		return fmt.Errorf("negative count %d for %q", n, key)
	}
	if n > 0 {
		c[key] += n
	}
	return nil
}

// AddEncoded folds one "a,b<TAB>n" style result row into c.
func (c PairCount) AddEncoded(key string, n int) error {
	p, err := ParsePair(key)
	if err != nil {
		return err
	}
	if n < 0 {
		return fmt.Errorf("negative count %d for %q", n, key)
	}
	if n > 0 {
		c[p] += n
	}
	return nil
}
