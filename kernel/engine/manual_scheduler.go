package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// ManualScheduler is a Scheduler driven by a virtual clock. Tasks only run
// when Advance or RunAll is called, on the caller's goroutine, which makes
// lifecycle timing deterministic in tests.
type ManualScheduler struct {
	mu      sync.Mutex
	now     time.Duration
	seq     int
	tasks   map[string]*manualTask
	stopped bool
}

type manualTask struct {
	key  string
	due  time.Duration
	seq  int
	task Task
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{tasks: make(map[string]*manualTask)}
}

func (s *ManualScheduler) Schedule(key string, delay time.Duration, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrSchedulerStopped
	}
	if _, found := s.tasks[key]; found {
		return errors.Wrapf(ErrAlreadyScheduled, "key [%s]", key)
	}
	s.seq++
	s.tasks[key] = &manualTask{key: key, due: s.now + delay, seq: s.seq, task: task}
	return nil
}

// Advance moves the clock forward by d and runs every task that has come
// due, including tasks scheduled by those tasks, in due order.
func (s *ManualScheduler) Advance(d time.Duration) int {
	s.mu.Lock()
	s.now += d
	s.mu.Unlock()
	return s.runDue(false)
}

// RunAll runs tasks until none are pending, moving the clock as needed.
func (s *ManualScheduler) RunAll() int {
	return s.runDue(true)
}

func (s *ManualScheduler) runDue(all bool) int {
	ran := 0
	for {
		next := s.popNext(all)
		if next == nil {
			return ran
		}
		next.task(context.Background())
		ran++
	}
}

func (s *ManualScheduler) popNext(all bool) *manualTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*manualTask
	for _, t := range s.tasks {
		if all || t.due <= s.now {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].due != due[j].due {
			return due[i].due < due[j].due
		}
		return due[i].seq < due[j].seq
	})

	next := due[0]
	if next.due > s.now {
		s.now = next.due
	}
	delete(s.tasks, next.key)
	return next
}

// Pending returns the keys of tasks that have not run yet, sorted.
func (s *ManualScheduler) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.tasks))
	for key := range s.tasks {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Stop drops every pending task.
func (s *ManualScheduler) Stop(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	s.tasks = make(map[string]*manualTask)
	return nil
}
