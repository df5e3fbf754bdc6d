package mapreduce

import (
	"database/sql"
	"fmt"
	"hash/fnv"
	"log"
	"path/filepath"
)

// MapTask describes one map job: run the client's Map over one source
// partition and spread the output over R intermediate datasets.
type MapTask struct {
	M, R int // total number of map and reduce tasks
	N    int // map task number, 0-based
}

// Process runs the task against the files in tempdir.
func (task *MapTask) Process(tempdir string, client Interface) error {
	// one output dataset per reduce task
	outputStatements := make([]*sql.Stmt, task.R)
	for i := 0; i < task.R; i++ {
		db, err := createDatabase(filepath.Join(tempdir, mapOutputFile(task.N, i)))
		if err != nil {
			return fmt.Errorf("issue creating output files: %w", err)
		}
		defer db.Close()

		stmt, err := db.Prepare("INSERT INTO pairs (key, value) values (?, ?)")
		if err != nil {
			return fmt.Errorf("issue on insert statements: %w", err)
		}
		defer stmt.Close()
		outputStatements[i] = stmt
	}

	db, err := openDatabase(filepath.Join(tempdir, mapSourceFile(task.N)))
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.Query("SELECT key, value FROM pairs")
	if err != nil {
		return fmt.Errorf("issue querying input db: %w", err)
	}
	defer rows.Close()

	// rows in, pairs out
	i, j := 0, 0

	for rows.Next() {
		i++
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("reading issue: %w", err)
		}

		outputMap := make(chan Pair, 200)
		finishedMap := make(chan error, 1)

		// the writer has to be draining before Map starts sending
		go task.writeOutput(outputMap, finishedMap, outputStatements, &j)

		if err := client.Map(key, value, outputMap); err != nil {
			<-finishedMap
			return fmt.Errorf("issue with client map: %w", err)
		}
		if err := <-finishedMap; err != nil {
			return fmt.Errorf("issue writing output: %w", err)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("issue in rows: %w", err)
	}

	log.Printf("Map task %d processed %d pairs and generated %d pairs", task.N, i, j)
	return nil
}

// writeOutput hashes each key to its reduce partition and stores the pair
// there. After a failed insert it keeps draining output so Map never
// blocks, and reports the first error.
func (task *MapTask) writeOutput(output <-chan Pair, finishedMap chan<- error, outputStatements []*sql.Stmt, count *int) {
	var failed error
	for pair := range output {
		if failed != nil {
			continue
		}
		*count++
		if _, err := outputStatements[partition(pair.Key, task.R)].Exec(pair.Key, pair.Value); err != nil {
			failed = fmt.Errorf("issue inserting: %w", err)
		}
	}
	finishedMap <- failed
}

func partition(key string, r int) int {
	hash := fnv.New32() // from the stdlib package hash/fnv
	hash.Write([]byte(key))
	return int(hash.Sum32() % uint32(r))
}

func mapSourceFile(n int) string {
	return fmt.Sprintf("map_%d_source.db", n)
}

func mapOutputFile(n, r int) string {
	return fmt.Sprintf("map_%d_output_%d.db", n, r)
}
