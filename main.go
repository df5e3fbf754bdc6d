package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/Mariona-FT/REIN/basket"
	"github.com/Mariona-FT/REIN/mapreduce"
)

type options struct {
	job        string // "items" or "pairs"
	engine     string // "memory" or "mapreduce"
	partitions int
	m, r       int
	workers    int
	tempdir    string
	db         string
	minSupport int
}

func main() {
	log.SetFlags(log.Lshortfile)

	defaults := mapreduce.DefaultConfig()
	var opts options
	input := flag.String("input", "-", "transaction file, one comma separated basket per line (- for stdin)")
	flag.StringVar(&opts.job, "job", "pairs", "what to count: items or pairs")
	flag.StringVar(&opts.engine, "engine", "mapreduce", "memory or mapreduce")
	flag.IntVar(&opts.partitions, "partitions", runtime.NumCPU(), "partitions for the memory engine")
	flag.IntVar(&opts.m, "m", defaults.M, "map tasks for the mapreduce engine")
	flag.IntVar(&opts.r, "r", defaults.R, "reduce tasks for the mapreduce engine")
	flag.IntVar(&opts.workers, "workers", defaults.Workers, "workers for the mapreduce engine")
	flag.StringVar(&opts.tempdir, "tempdir", "", "directory for scratch datasets")
	flag.StringVar(&opts.db, "db", "", "keep the mapreduce output dataset at this path")
	flag.IntVar(&opts.minSupport, "min-support", 1, "only print entries counted at least this many times")
	flag.Parse()

	in := os.Stdin
	if *input != "-" {
		f, err := os.Open(*input)
		if err != nil {
			log.Fatalf("Error opening input: %v", err)
		}
		defer f.Close()
		in = f
	}

	out := bufio.NewWriter(os.Stdout)
	if err := run(opts, in, out); err != nil {
		log.Fatalf("Error counting %s: %v", opts.job, err)
	}
	if err := out.Flush(); err != nil {
		log.Fatalf("Error writing output: %v", err)
	}
}

func run(opts options, in io.Reader, out io.Writer) error {
	var client mapreduce.Interface
	var level basket.Level
	switch opts.job {
	case "items":
		client, level = ItemJob{}, basket.ItemLevel
	case "pairs":
		client, level = PairJob{}, basket.PairLevel
	default:
		return fmt.Errorf("unknown job %q", opts.job)
	}

	lines, err := readLines(in)
	if err != nil {
		return err
	}

	var counts basket.Counts
	switch opts.engine {
	case "memory":
		counts = basket.Aggregate(lines, opts.partitions, level)
	case "mapreduce":
		counts, err = runMapReduce(opts, client, lines)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown engine %q", opts.engine)
	}

	if opts.job == "items" {
		return writeEntries(out, counts.Items.Entries(true), opts.minSupport)
	}
	return writeEntries(out, counts.Pairs.Entries(true), opts.minSupport)
}

// runMapReduce loads lines into a source dataset, runs client over it and
// folds the reduced rows back into typed counts.
func runMapReduce(opts options, client mapreduce.Interface, lines []string) (basket.Counts, error) {
	counts := basket.Counts{Items: make(basket.ItemCount), Pairs: make(basket.PairCount)}

	dir, err := os.MkdirTemp(opts.tempdir, "basket.")
	if err != nil {
		return counts, fmt.Errorf("issue creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	cfg := mapreduce.Config{
		InputPath:  filepath.Join(dir, "transactions.db"),
		OutputPath: filepath.Join(dir, "counts.db"),
		TempDir:    dir,
		M:          opts.m,
		R:          opts.r,
		Workers:    opts.workers,
	}
	if opts.db != "" {
		cfg.OutputPath = opts.db
	}

	if err := mapreduce.LoadLines(cfg.InputPath, lines); err != nil {
		return counts, err
	}
	if err := mapreduce.Start(client, cfg); err != nil {
		return counts, err
	}

	err = mapreduce.ReadPairs(cfg.OutputPath, func(p mapreduce.Pair) error {
		n, err := strconv.Atoi(p.Value)
		if err != nil {
			return fmt.Errorf("bad count for %q: %w", p.Key, err)
		}
		if _, ok := client.(ItemJob); ok {
			return counts.Items.AddEncoded(p.Key, n)
		}
		return counts.Pairs.AddEncoded(p.Key, n)
	})
	return counts, err
}

func readLines(in io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("issue reading input: %w", err)
	}
	return lines, nil
}
