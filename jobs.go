package main

import (
	"strconv"

	"github.com/Mariona-FT/REIN/basket"
	"github.com/Mariona-FT/REIN/mapreduce"
)

// PairJob counts co-occurring item pairs, one pair per transaction.
type PairJob struct{ sumReducer }

// Map emits every pair of the transaction on value once.
func (PairJob) Map(key, value string, output chan<- mapreduce.Pair) error {
	// ensuring we close out the output channel no matter what
	defer close(output)
	for _, p := range basket.ParseLine(value).Pairs() {
		output <- mapreduce.Pair{Key: p.String(), Value: "1"}
	}
	return nil
}

// ItemJob counts items, once per transaction.
type ItemJob struct{ sumReducer }

// Map emits every unique item of the transaction on value once.
func (ItemJob) Map(key, value string, output chan<- mapreduce.Pair) error {
	defer close(output)
	for item := range basket.ParseLine(value) {
		output <- mapreduce.Pair{Key: item, Value: "1"}
	}
	return nil
}

type sumReducer struct{}

func (sumReducer) Reduce(key string, values <-chan string, output chan<- mapreduce.Pair) error {
	defer close(output)
	sum := 0
	for v := range values {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		sum += n
	}
	output <- mapreduce.Pair{Key: key, Value: strconv.Itoa(sum)}
	return nil
}
