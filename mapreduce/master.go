package mapreduce

import (
	"fmt"
	"log"
)

// phase is where the master is in a run.
type phase int

const (
	phaseWait phase = iota
	phaseMap
	phaseMapDone // every map job handed out, some still running
	phaseReduce
	phaseReduceDone // every reduce job handed out, some still running
	phaseMerge
	phaseFinish
)

// node is the master's state. It is only touched from its actor goroutine.
type node struct {
	Phase       phase
	NextJob     int
	DoneJobs    int
	MapTasks    []MapTask
	ReduceTasks []ReduceTask
	Finished    chan jobDone
	Workers     map[string]struct{}
}

// assignment is what a worker gets when it asks for work. Wait means
// nothing is ready yet; a Phase of phaseMerge or later means the worker
// should stop.
type assignment struct {
	Phase      phase
	Wait       bool
	MapTask    *MapTask
	ReduceTask *ReduceTask
}

// jobDone reports a completed (or failed) job back to the master.
type jobDone struct {
	Phase  phase
	Number int
	Addr   string
	Err    error
}

type handler func(*node)

// nodeActor serializes every access to a node through one goroutine.
type nodeActor chan handler

func newNode(mapTasks []MapTask, reduceTasks []ReduceTask) *node {
	return &node{
		Phase:       phaseWait,
		MapTasks:    mapTasks,
		ReduceTasks: reduceTasks,
		// room for every job so reporting never blocks a worker
		Finished: make(chan jobDone, len(mapTasks)+len(reduceTasks)),
		Workers:  make(map[string]struct{}),
	}
}

func (n *node) startActor() nodeActor {
	ch := make(chan handler)
	go func() {
		for evt := range ch {
			evt(n)
		}
	}()
	return ch
}

func (a nodeActor) run(h handler) {
	finished := make(chan struct{})
	a <- func(n *node) {
		h(n)
		finished <- struct{}{}
	}
	<-finished
}

// nextJob returns the next job on the list, or a waiting assignment if
// there isn't one right now.
func (n *node) nextJob() assignment {
	job := assignment{Phase: n.Phase, Wait: true}

	switch n.Phase {
	case phaseMap:
		if n.NextJob < len(n.MapTasks) {
			job.MapTask = &n.MapTasks[n.NextJob]
			job.Wait = false
			n.NextJob++
			if n.NextJob >= len(n.MapTasks) {
				n.Phase = phaseMapDone
			}
		}

	case phaseReduce:
		if n.NextJob < len(n.ReduceTasks) {
			job.ReduceTask = &n.ReduceTasks[n.NextJob]
			job.Wait = false
			n.NextJob++
			if n.NextJob >= len(n.ReduceTasks) {
				n.Phase = phaseReduceDone
			}
		}

	case phaseMerge, phaseFinish:
		job.Wait = false
	}
	return job
}

// requestJob registers the worker and hands it the next job.
func (a nodeActor) requestJob(workerAddress string) assignment {
	var job assignment
	a.run(func(n *node) {
		if _, ok := n.Workers[workerAddress]; !ok {
			log.Printf("worker connected at %s", workerAddress)
			n.Workers[workerAddress] = struct{}{}
		}
		job = n.nextJob()
	})
	return job
}

// finishJob reports a job as done. Finished has room for every job, so
// this never blocks the actor.
func (a nodeActor) finishJob(done jobDone) {
	a.run(func(n *node) {
		n.Finished <- done
	})
}

func (a nodeActor) stop() {
	close(a)
}

func (a nodeActor) setPhase(p phase) {
	a.run(func(n *node) {
		n.Phase = p
		n.NextJob = 0
		n.DoneJobs = 0
	})
}

// waitForJobs counts completions until every reduce job is done. Map jobs
// all have to finish before the first reduce job is handed out. A failed
// job stops the run.
func (a nodeActor) waitForJobs(taskDone <-chan jobDone, m, r int) error {
	for task := range taskDone {
		if task.Err != nil {
			a.setPhase(phaseFinish)
			return fmt.Errorf("task %d failed on [%s]: %w", task.Number, task.Addr, task.Err)
		}

		var current phase
		a.run(func(n *node) {
			switch {
			case n.Phase == phaseMap || n.Phase == phaseMapDone:
				log.Printf("Map task %d completed by [%s]", task.Number, task.Addr)
				n.DoneJobs++
				if n.DoneJobs == m {
					log.Println("Map phase completed")
					n.Phase = phaseReduce
					n.NextJob = 0
					n.DoneJobs = 0
				}

			case n.Phase == phaseReduce || n.Phase == phaseReduceDone:
				log.Printf("Reduce task %d completed by [%s]", task.Number, task.Addr)
				n.DoneJobs++
				if n.DoneJobs == r {
					log.Println("Reduce phase completed")
					n.Phase = phaseMerge
				}

			default:
				log.Printf("ignoring task completion in phase %d", n.Phase)
			}
			current = n.Phase
		})

		if current >= phaseMerge {
			return nil
		}
	}
	return fmt.Errorf("job reports ended before the reduce phase finished")
}
