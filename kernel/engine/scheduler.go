package engine

import (
	"context"
	"sync"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
)

var (
	ErrAlreadyScheduled = errors.New("task already scheduled")
	ErrSchedulerStopped = errors.New("scheduler stopped")
	ErrShutdownTimeout  = errors.New("shutdown timeout")
)

// Task is a unit of background work. The context is cancelled when the
// scheduler stops.
type Task func(ctx context.Context)

// Scheduler runs tasks after a delay, off the calling goroutine. At most one
// task may be pending per key.
type Scheduler interface {
	Schedule(key string, delay time.Duration, task Task) error
	Stop(ctx context.Context) error
}

type pendingTask struct {
	mu    sync.Mutex
	timer *time.Timer
}

// TimerScheduler keeps one timer per pending key and runs fired tasks on at
// most `workers` goroutines at a time. A pending timer holds no goroutine.
type TimerScheduler struct {
	pending cmap.ConcurrentMap[string, *pendingTask]
	workers *semaphore.Weighted
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	lifeMu  sync.RWMutex
	stopped bool
}

func NewTimerScheduler(workers int) *TimerScheduler {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &TimerScheduler{
		pending: cmap.New[*pendingTask](),
		workers: semaphore.NewWeighted(int64(workers)),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (s *TimerScheduler) Schedule(key string, delay time.Duration, task Task) error {
	s.lifeMu.RLock()
	defer s.lifeMu.RUnlock()
	if s.stopped {
		return ErrSchedulerStopped
	}

	entry := &pendingTask{}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if !s.pending.SetIfAbsent(key, entry) {
		return errors.Wrapf(ErrAlreadyScheduled, "key [%s]", key)
	}
	s.wg.Add(1)
	entry.timer = time.AfterFunc(delay, func() { s.fire(key, entry, task) })
	return nil
}

// claim removes entry from the pending table. Exactly one of fire and Stop
// claims each entry, and the claimer owns its WaitGroup slot.
func (s *TimerScheduler) claim(key string, entry *pendingTask) bool {
	return s.pending.RemoveCb(key, func(_ string, v *pendingTask, exists bool) bool {
		return exists && v == entry
	})
}

func (s *TimerScheduler) fire(key string, entry *pendingTask, task Task) {
	if !s.claim(key, entry) {
		return
	}
	defer s.wg.Done()

	if err := s.workers.Acquire(s.ctx, 1); err != nil {
		return
	}
	defer s.workers.Release(1)

	task(s.ctx)
}

// Pending returns the number of tasks waiting for their timer.
func (s *TimerScheduler) Pending() int {
	return s.pending.Count()
}

// Stop cancels every pending task and waits for running tasks to return,
// giving up when ctx is done.
func (s *TimerScheduler) Stop(ctx context.Context) error {
	s.lifeMu.Lock()
	s.stopped = true
	s.lifeMu.Unlock()

	s.cancel()

	for _, key := range s.pending.Keys() {
		entry, found := s.pending.Get(key)
		if !found || !s.claim(key, entry) {
			continue
		}
		entry.mu.Lock()
		entry.timer.Stop()
		entry.mu.Unlock()
		s.wg.Done()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ErrShutdownTimeout
	}
}
