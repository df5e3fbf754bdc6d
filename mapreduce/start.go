package mapreduce

/*
A run goes:
split the input dataset into M source partitions,
hand map jobs to workers until every one of them has finished,
hand out the R reduce jobs,
merge the reduce outputs into the output dataset,
tell the workers to stop.
*/

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

// Config controls a run.
type Config struct {
	InputPath  string // source dataset, see LoadLines
	OutputPath string // merged reduce output, replaced if present
	TempDir    string // parent for the scratch directory, "" for the OS default
	M, R       int    // number of map and reduce tasks
	Workers    int    // worker goroutines
}

// DefaultConfig returns the task counts the library was tuned with.
func DefaultConfig() Config {
	return Config{
		M:       9,
		R:       3,
		Workers: runtime.NumCPU(),
	}
}

// how long an idle worker sleeps before asking again
const pollInterval = 5 * time.Millisecond

// Start runs client over cfg.InputPath and writes the reduced pairs to
// cfg.OutputPath. M is lowered to the number of input rows when there are
// fewer rows than tasks.
func Start(client Interface, cfg Config) error {
	if cfg.R < 1 {
		cfg.R = 1
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	tempdir, err := os.MkdirTemp(cfg.TempDir, fmt.Sprintf("mapreduce.%d.", os.Getpid()))
	if err != nil {
		return fmt.Errorf("issue creating temp dir: %w", err)
	}
	// be sure to remove all of our temp files
	defer os.RemoveAll(tempdir)

	total, err := countRows(cfg.InputPath)
	if err != nil {
		return err
	}
	if total == 0 {
		log.Printf("input %s is empty", cfg.InputPath)
		db, err := createDatabase(cfg.OutputPath)
		if err != nil {
			return err
		}
		return db.Close()
	}
	if cfg.M < 1 {
		cfg.M = 1
	}
	if cfg.M > total {
		cfg.M = total
	}

	if _, err := splitDatabase(cfg.InputPath, tempdir, "map_%d_source.db", cfg.M); err != nil {
		return fmt.Errorf("issue splitting: %w", err)
	}

	mapTasks := make([]MapTask, cfg.M)
	for i := range mapTasks {
		mapTasks[i] = MapTask{M: cfg.M, R: cfg.R, N: i}
	}
	reduceTasks := make([]ReduceTask, cfg.R)
	for i := range reduceTasks {
		reduceTasks[i] = ReduceTask{M: cfg.M, R: cfg.R, N: i}
	}

	master := newNode(mapTasks, reduceTasks)
	actor := master.startActor()
	defer actor.stop()

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func(addr string) {
			defer wg.Done()
			runWorker(actor, addr, tempdir, client)
		}(fmt.Sprintf("worker-%d", i))
	}

	actor.setPhase(phaseMap)
	log.Printf("master running %d map and %d reduce tasks on %d workers", cfg.M, cfg.R, cfg.Workers)

	err = actor.waitForJobs(master.Finished, cfg.M, cfg.R)
	// workers return once the phase is merge or finish
	wg.Wait()
	if err != nil {
		return err
	}

	outputs := make([]string, cfg.R)
	for i := range outputs {
		outputs[i] = filepath.Join(tempdir, reduceOutputFile(i))
	}
	db, err := mergeDatabases(outputs, cfg.OutputPath)
	if err != nil {
		return fmt.Errorf("issue merging reduce outputs: %w", err)
	}
	defer db.Close()

	n, err := rowCount(db)
	if err != nil {
		return err
	}
	actor.setPhase(phaseFinish)
	log.Printf("wrote %d pairs to %s", n, cfg.OutputPath)
	return nil
}

// runWorker asks for jobs until the master says there are none left.
func runWorker(actor nodeActor, addr, tempdir string, client Interface) {
	for {
		job := actor.requestJob(addr)
		switch {
		case job.MapTask != nil:
			err := job.MapTask.Process(tempdir, client)
			actor.finishJob(jobDone{Phase: phaseMap, Number: job.MapTask.N, Addr: addr, Err: err})
		case job.ReduceTask != nil:
			err := job.ReduceTask.Process(tempdir, client)
			actor.finishJob(jobDone{Phase: phaseReduce, Number: job.ReduceTask.N, Addr: addr, Err: err})
		case job.Phase >= phaseMerge:
			return
		default:
			time.Sleep(pollInterval)
		}
	}
}

func countRows(path string) (int, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, fmt.Errorf("issue with input dataset: %w", err)
	}
	db, err := openDatabase(path)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	return rowCount(db)
}
