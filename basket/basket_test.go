package basket

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

var groceries = []string{
	"milk,bread,eggs",
	"milk,bread",
	"eggs,juice",
}

func parseAll(lines []string) []Transaction {
	ts := make([]Transaction, len(lines))
	for i, l := range lines {
		ts[i] = ParseLine(l)
	}
	return ts
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"milk,bread,eggs", []string{"bread", "eggs", "milk"}},
		{"milk,milk,bread", []string{"bread", "milk"}},
		{"  milk , bread ,, ", []string{"bread", "milk"}},
		{"", []string{}},
		{"   ", []string{}},
		{",,,", []string{}},
		{"single\n", []string{"single"}},
	}
	for _, tt := range tests {
		got := ParseLine(tt.line).Items()
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseLine(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestParseLineSep(t *testing.T) {
	got := parseLineSep("a\tb\ta", "\t").Items()
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("got %v", got)
	}
}

func TestSingleTransactionCounts(t *testing.T) {
	for k := 0; k <= 8; k++ {
		line := ""
		for i := 0; i < k; i++ {
			if i > 0 {
				line += ","
			}
			line += fmt.Sprintf("item%d", i)
		}
		ts := []Transaction{ParseLine(line)}

		items := CountItems(ts)
		if len(items) != k {
			t.Errorf("k=%d: %d item entries", k, len(items))
		}
		for key, n := range items {
			if n != 1 {
				t.Errorf("k=%d: item %s counted %d times", k, key, n)
			}
		}

		pairs := CountPairs(ts)
		if want := k * (k - 1) / 2; len(pairs) != want {
			t.Errorf("k=%d: %d pair entries, want %d", k, len(pairs), want)
		}
		for p, n := range pairs {
			if n != 1 {
				t.Errorf("k=%d: pair %v counted %d times", k, p, n)
			}
			if p.A >= p.B {
				t.Errorf("k=%d: pair %v not canonical", k, p)
			}
		}
	}
}

func TestDuplicatesCountOnce(t *testing.T) {
	items := CountItems([]Transaction{ParseLine("milk,milk,bread")})
	if items["milk"] != 1 || items["bread"] != 1 {
		t.Fatalf("got %v", items)
	}
	pairs := CountPairs([]Transaction{ParseLine("milk,milk,bread")})
	if len(pairs) != 1 || pairs[NewPair("milk", "bread")] != 1 {
		t.Fatalf("got %v", pairs)
	}
}

func TestEmptyLineContributesNothing(t *testing.T) {
	ts := parseAll([]string{"", "  ", "solo"})
	if got := CountItems(ts); !reflect.DeepEqual(got, ItemCount{"solo": 1}) {
		t.Errorf("items = %v", got)
	}
	if got := CountPairs(ts); len(got) != 0 {
		t.Errorf("pairs = %v", got)
	}
}

func TestNewPairCanonical(t *testing.T) {
	if NewPair("a", "b") != NewPair("b", "a") {
		t.Fatal("pair key depends on order")
	}
	if NewPair("b", "a").String() != "a,b" {
		t.Fatalf("got %s", NewPair("b", "a"))
	}
}

func TestGroceries(t *testing.T) {
	ts := parseAll(groceries)

	wantItems := ItemCount{"milk": 2, "bread": 2, "eggs": 2, "juice": 1}
	if got := CountItems(ts); !reflect.DeepEqual(got, wantItems) {
		t.Errorf("items = %v, want %v", got, wantItems)
	}

	wantPairs := PairCount{
		NewPair("bread", "milk"): 2,
		NewPair("bread", "eggs"): 1,
		NewPair("eggs", "milk"):  1,
		NewPair("eggs", "juice"): 1,
	}
	got := CountPairs(ts)
	if !reflect.DeepEqual(got, wantPairs) {
		t.Errorf("pairs = %v, want %v", got, wantPairs)
	}
	for _, absent := range []Pair{NewPair("bread", "juice"), NewPair("juice", "milk")} {
		if _, ok := got[absent]; ok {
			t.Errorf("pair %v should be absent", absent)
		}
	}
}

func TestMergeMatchesWhole(t *testing.T) {
	lines := []string{
		"a,b,c", "b,c", "", "c,d,a", "a", "d,d,b", "e,a,b,c,d", "b,a",
	}
	ts := parseAll(lines)
	wholeItems, wholePairs := CountItems(ts), CountPairs(ts)

	for cut := 0; cut <= len(ts); cut++ {
		// merge in both orders
		l, r := ts[:cut], ts[cut:]
		if got := MergeItems(CountItems(l), CountItems(r)); !reflect.DeepEqual(got, wholeItems) {
			t.Errorf("cut %d: items %v, want %v", cut, got, wholeItems)
		}
		if got := MergeItems(CountItems(r), CountItems(l)); !reflect.DeepEqual(got, wholeItems) {
			t.Errorf("cut %d reversed: items %v, want %v", cut, got, wholeItems)
		}
		if got := MergePairs(CountPairs(r), CountPairs(l)); !reflect.DeepEqual(got, wholePairs) {
			t.Errorf("cut %d: pairs %v, want %v", cut, got, wholePairs)
		}
	}

	// associativity: (a+b)+c == a+(b+c)
	a, b, c := CountItems(ts[:2]), CountItems(ts[2:5]), CountItems(ts[5:])
	left := MergeItems(MergeItems(a, b), c)
	a, b, c = CountItems(ts[:2]), CountItems(ts[2:5]), CountItems(ts[5:])
	right := MergeItems(a, MergeItems(b, c))
	if !reflect.DeepEqual(left, right) {
		t.Errorf("merge not associative: %v vs %v", left, right)
	}
}

func TestAggregatePartitions(t *testing.T) {
	lines := append([]string{}, groceries...)
	lines = append(lines, "x,y,z", "", "milk,juice,x", "bread")
	ts := parseAll(lines)
	wantItems, wantPairs := CountItems(ts), CountPairs(ts)

	for n := 0; n <= len(lines)+2; n++ {
		got := Aggregate(lines, n, ItemLevel|PairLevel)
		if !reflect.DeepEqual(got.Items, wantItems) {
			t.Errorf("n=%d: items %v, want %v", n, got.Items, wantItems)
		}
		if !reflect.DeepEqual(got.Pairs, wantPairs) {
			t.Errorf("n=%d: pairs %v, want %v", n, got.Pairs, wantPairs)
		}
	}
}

func TestAggregateLevels(t *testing.T) {
	ts := parseAll(groceries)

	items := Aggregate(groceries, 2, ItemLevel)
	if !reflect.DeepEqual(items.Items, CountItems(ts)) {
		t.Errorf("items = %v", items.Items)
	}
	if len(items.Pairs) != 0 {
		t.Errorf("item level counted pairs: %v", items.Pairs)
	}

	pairs := Aggregate(groceries, 2, PairLevel)
	if !reflect.DeepEqual(pairs.Pairs, CountPairs(ts)) {
		t.Errorf("pairs = %v", pairs.Pairs)
	}
	if len(pairs.Items) != 0 {
		t.Errorf("pair level counted items: %v", pairs.Items)
	}
}

func TestAggregateWideBasketItems(t *testing.T) {
	// 4000 items would be ~8M pairs; the item level must not build them
	items := make([]string, 4000)
	for i := range items {
		items[i] = fmt.Sprintf("sku%04d", i)
	}
	got := Aggregate([]string{strings.Join(items, ",")}, 1, ItemLevel)
	if len(got.Items) != len(items) {
		t.Fatalf("%d items, want %d", len(got.Items), len(items))
	}
	if len(got.Pairs) != 0 {
		t.Fatalf("%d pairs counted for an item run", len(got.Pairs))
	}
}

func TestAggregateEmpty(t *testing.T) {
	got := Aggregate(nil, 4, ItemLevel|PairLevel)
	if len(got.Items) != 0 || len(got.Pairs) != 0 {
		t.Fatalf("got %+v", got)
	}
}

func TestAddEncoded(t *testing.T) {
	items := make(ItemCount)
	if err := items.AddEncoded("milk", 2); err != nil {
		t.Fatal(err)
	}
	if err := items.AddEncoded("bread,milk", 1); !errors.Is(err, ErrMergeKeyMismatch) {
		t.Errorf("pair key into items: err = %v", err)
	}
	if err := items.AddEncoded("milk", -1); err == nil {
		t.Error("negative count accepted")
	}

	pairs := make(PairCount)
	if err := pairs.AddEncoded("milk,bread", 2); err != nil {
		t.Fatal(err)
	}
	if pairs[NewPair("bread", "milk")] != 2 {
		t.Errorf("pairs = %v", pairs)
	}
	for _, bad := range []string{"milk", "a,b,c", ",a", "a,a"} {
		if err := pairs.AddEncoded(bad, 1); !errors.Is(err, ErrMergeKeyMismatch) {
			t.Errorf("AddEncoded(%q): err = %v", bad, err)
		}
	}
}

func TestEntriesSorted(t *testing.T) {
	it := CountPairs(parseAll(groceries)).Entries(true)
	if it.Len() != 4 {
		t.Fatalf("len = %d", it.Len())
	}
	var got []Entry
	for e, ok := it.Next(); ok; e, ok = it.Next() {
		got = append(got, e)
	}
	want := []Entry{
		{"bread,eggs", 1},
		{"bread,milk", 2},
		{"eggs,juice", 1},
		{"eggs,milk", 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if _, ok := it.Next(); ok {
		t.Fatal("iterator not exhausted")
	}
}

func ExampleItemCount_Entries() {
	counts := CountItems([]Transaction{
		ParseLine("milk,bread,eggs"),
		ParseLine("milk,bread"),
		ParseLine("eggs,juice"),
	})
	it := counts.Entries(true)
	for e, ok := it.Next(); ok; e, ok = it.Next() {
		fmt.Printf("%s\t%d\n", e.Key, e.Count)
	}
	// Output:
	// bread	2
	// eggs	2
	// juice	1
	// milk	2
}
