package basket

import "sync"

// Level selects which counts Aggregate builds. Levels combine with |.
type Level uint8

const (
	ItemLevel Level = 1 << iota // single items, linear in basket size
	PairLevel                   // item pairs, quadratic in basket size
)

// Counts holds both granularities for one run. A level that was not
// requested is left empty.
type Counts struct {
	Items ItemCount
	Pairs PairCount
}

func newCounts() Counts {
	return Counts{Items: make(ItemCount), Pairs: make(PairCount)}
}

func (c Counts) add(t Transaction, levels Level) {
	if levels&ItemLevel != 0 {
		c.Items.Add(t)
	}
	if levels&PairLevel != 0 {
		c.Pairs.Add(t)
	}
}

// Aggregate parses lines and counts the requested levels in n partitions
// concurrently. Every worker owns its partial counts until all of them
// have finished, then the partials are merged on the calling goroutine.
// The result is the same for any n.
func Aggregate(lines []string, n int, levels Level) Counts {
	if n < 1 {
		n = 1
	}
	if n > len(lines) {
		n = len(lines)
	}
	if n == 0 {
		return newCounts()
	}

	partials := make([]Counts, n)
	var wg sync.WaitGroup

	// same split as the map phase: base rows each, the first r get one more
	base, r := len(lines)/n, len(lines)%n
	start := 0
	for i := 0; i < n; i++ {
		size := base
		if i < r {
			size++
		}
		chunk := lines[start : start+size]
		start += size

		wg.Add(1)
		go func(i int, chunk []string) {
			defer wg.Done()
			part := newCounts()
			for _, line := range chunk {
				part.add(ParseLine(line), levels)
			}
			partials[i] = part
		}(i, chunk)
	}
	wg.Wait()

	out := newCounts()
	for i := range partials {
		out.Items.Merge(partials[i].Items)
		out.Pairs.Merge(partials[i].Pairs)
		partials[i] = Counts{}
	}
	return out
}
