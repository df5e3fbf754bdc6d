package mapreduce

import (
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
)

// ReduceTask describes one reduce job: gather partition N from every map
// task and call the client's Reduce once per key.
type ReduceTask struct {
	M, R int // total number of map and reduce tasks
	N    int // reduce task number, 0-based
}

// Process runs the task against the files in tempdir.
func (task *ReduceTask) Process(tempdir string, client Interface) error {
	inputs := make([]string, task.M)
	for i := 0; i < task.M; i++ {
		inputs[i] = filepath.Join(tempdir, mapOutputFile(i, task.N))
	}

	inputDB, err := mergeDatabases(inputs, filepath.Join(tempdir, reduceInputFile(task.N)))
	if err != nil {
		return fmt.Errorf("issue merging database: %w", err)
	}
	defer inputDB.Close()

	outputDB, err := createDatabase(filepath.Join(tempdir, reduceOutputFile(task.N)))
	if err != nil {
		return fmt.Errorf("issue creating output database: %w", err)
	}
	defer outputDB.Close()

	stmt, err := outputDB.Prepare("INSERT INTO pairs (key, value) values (?, ?)")
	if err != nil {
		return fmt.Errorf("issue with the prepare insert: %w", err)
	}
	defer stmt.Close()

	// sorting brings every value of a key together
	rows, err := inputDB.Query("SELECT key, value FROM pairs ORDER BY key, value")
	if err != nil {
		return fmt.Errorf("issue querying input db: %w", err)
	}
	defer rows.Close()

	// keys, values in, pairs out
	i, v, j := 0, 0, 0
	var call *reduceCall
	var previousKey string

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			if call != nil {
				call.finish()
			}
			return fmt.Errorf("issue reading a row from the input database: %w", err)
		}

		if call == nil || key != previousKey {
			if call != nil {
				if err := call.finish(); err != nil {
					return fmt.Errorf("issue with client reduce: %w", err)
				}
			}
			i++
			call = task.startCall(key, client, stmt, &j)
			previousKey = key
		}
		v++
		call.send(value)
	}

	if call != nil {
		if err := call.finish(); err != nil {
			return fmt.Errorf("issue with client reduce: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("issue on rows of reduce input: %w", err)
	}

	log.Printf("Reduce task %d processed %d keys and %d values and generated %d pairs", task.N, i, v, j)
	return nil
}

// reduceCall is one running client Reduce for a single key.
type reduceCall struct {
	values     chan string
	reduceDone chan error
	writeDone  chan error
	returned   bool
	err        error
}

func (task *ReduceTask) startCall(key string, client Interface, stmt *sql.Stmt, count *int) *reduceCall {
	c := &reduceCall{
		values:     make(chan string, 100),
		reduceDone: make(chan error, 1),
		writeDone:  make(chan error, 1),
	}
	output := make(chan Pair, 100)
	go task.writeOutput(output, c.writeDone, stmt, count)
	go func() {
		c.reduceDone <- client.Reduce(key, c.values, output)
	}()
	return c
}

// send hands a value to Reduce, dropping it if Reduce already returned.
func (c *reduceCall) send(value string) {
	if c.returned {
		return
	}
	select {
	case c.values <- value:
	case err := <-c.reduceDone:
		c.returned, c.err = true, err
	}
}

// finish closes the value stream and waits for Reduce and its writer.
func (c *reduceCall) finish() error {
	close(c.values)
	if !c.returned {
		c.err = <-c.reduceDone
		c.returned = true
	}
	werr := <-c.writeDone
	if c.err != nil {
		return c.err
	}
	return werr
}

// much like the map version, without the hashing
func (task *ReduceTask) writeOutput(output <-chan Pair, finishedReduce chan<- error, stmt *sql.Stmt, count *int) {
	var failed error
	for pair := range output {
		if failed != nil {
			continue
		}
		*count++
		if _, err := stmt.Exec(pair.Key, pair.Value); err != nil {
			failed = fmt.Errorf("issue inserting: %w", err)
		}
	}
	finishedReduce <- failed
}

func reduceInputFile(n int) string {
	return fmt.Sprintf("reduce_%d_input.db", n)
}

func reduceOutputFile(n int) string {
	return fmt.Sprintf("reduce_%d_output.db", n)
}
