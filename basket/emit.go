package basket

import "sort"

// Entry is one emitted (key, count) result.
type Entry struct {
	Key   string
	Count int
}

// Iterator walks the entries of a count one at a time. Counts are looked
// up when Next is called, not when the iterator is built.
type Iterator struct {
	keys  []string
	i     int
	count func(i int) int
}

// Next returns the next entry, or false once the iterator is exhausted.
func (it *Iterator) Next() (Entry, bool) {
	if it.i >= len(it.keys) {
		return Entry{}, false
	}
	e := Entry{Key: it.keys[it.i], Count: it.count(it.i)}
	it.i++
	return e, true
}

// Len is the total number of entries.
func (it *Iterator) Len() int {
	return len(it.keys)
}

// Entries iterates c. With sorted set, keys come out in byte order so
// output is reproducible; otherwise the order is map order.
func (c ItemCount) Entries(sorted bool) *Iterator {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	if sorted {
		sort.Strings(keys)
	}
	return &Iterator{keys: keys, count: func(i int) int { return c[keys[i]] }}
}

// Entries iterates c keyed by the "a,b" wire form of each pair.
func (c PairCount) Entries(sorted bool) *Iterator {
	pairs := make([]Pair, 0, len(c))
	for p := range c {
		pairs = append(pairs, p)
	}
	if sorted {
		sort.Slice(pairs, func(i, j int) bool {
			if pairs[i].A != pairs[j].A {
				return pairs[i].A < pairs[j].A
			}
			return pairs[i].B < pairs[j].B
		})
	}
	keys := make([]string, len(pairs))
	for i, p := range pairs {
		keys[i] = p.String()
	}
	return &Iterator{keys: keys, count: func(i int) int { return c[pairs[i]] }}
}
