package mapreduce

// A Pair groups a single key/value pair. Individual client jobs (item
// counts, pair counts, ...) use this type when feeding results back to the
// library.
type Pair struct {
	Key   string
	Value string
}

// Interface is what a client job implements. The client refers to it as
// mapreduce.Interface, so the short name is enough.
//
// Map is called once per input row and Reduce once per distinct
// intermediate key, with the values for that key in sorted order. Both
// must close output before returning, error or not.
type Interface interface {
	Map(key, value string, output chan<- Pair) error
	Reduce(key string, values <-chan string, output chan<- Pair) error
}
