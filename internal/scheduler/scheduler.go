// Package scheduler drives the two cadences of the reparse pipeline: a
// serialized task queue with a coarse periodic schedule, and a debounce timer
// for short-interval triggers. Tasks run one at a time on a single worker
// goroutine, so no two analysis cycles for a session ever overlap.
package scheduler

import (
	"log"
	"sync"
	"time"
)

// Task is one unit of work with a name for logging.
type Task struct {
	Name    string
	Execute func() error
}

// Scheduler owns the worker goroutine and the periodic tickers feeding it.
type Scheduler struct {
	taskQueue chan Task
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// NewScheduler creates a Scheduler with the specified queue size.
func NewScheduler(queueSize int) *Scheduler {
	return &Scheduler{
		taskQueue: make(chan Task, queueSize),
		stopChan:  make(chan struct{}),
	}
}

// RunScheduler starts the worker loop.
func (s *Scheduler) RunScheduler() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case task := <-s.taskQueue:
				if err := task.Execute(); err != nil {
					log.Printf("Task %s failed: %v", task.Name, err)
				}
			case <-s.stopChan:
				return
			}
		}
	}()
}

// Schedule enqueues a task without blocking. It reports false if the queue is
// full or the scheduler has stopped; callers treat that as coalescing, not as
// an error.
func (s *Scheduler) Schedule(task Task) bool {
	select {
	case <-s.stopChan:
		return false
	default:
	}

	select {
	case s.taskQueue <- task:
		return true
	default:
		log.Printf("Skipped scheduling %s. Queue is full.", task.Name)
		return false
	}
}

// SchedulePeriodicTask enqueues the task on a fixed interval until the
// scheduler stops. The schedule fires regardless of other activity; it bounds
// the staleness of whatever the task refreshes.
func (s *Scheduler) SchedulePeriodicTask(interval time.Duration, task Task) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Schedule(task)
			case <-s.stopChan:
				return
			}
		}
	}()
}

// StopScheduler stops the worker and the periodic tickers. Queued tasks are
// discarded; an in-flight task finishes first.
func (s *Scheduler) StopScheduler() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
}
