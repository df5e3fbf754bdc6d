package main

import (
	"fmt"
	"io"

	"github.com/Mariona-FT/REIN/basket"
)

// writeEntries prints one "key<TAB>count" line per entry that reaches
// minSupport.
func writeEntries(w io.Writer, it *basket.Iterator, minSupport int) error {
	for e, ok := it.Next(); ok; e, ok = it.Next() {
		if e.Count < minSupport {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s\t%d\n", e.Key, e.Count); err != nil {
			return err
		}
	}
	return nil
}
