package game

import (
	"sync"
	"sync/atomic"
	"time"
)

// Scheduler funnels timer fires and network callbacks onto the loop
// goroutine. Callbacks never run concurrently with a tick; the loop drains
// the queue once per frame.
type Scheduler struct {
	mu    sync.Mutex
	tasks []func()
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Post enqueues f to run on the next drain. Safe from any goroutine.
func (s *Scheduler) Post(f func()) {
	s.mu.Lock()
	s.tasks = append(s.tasks, f)
	s.mu.Unlock()
}

// Drain runs every queued callback. Called from the loop goroutine only.
func (s *Scheduler) Drain() {
	s.mu.Lock()
	pending := s.tasks
	s.tasks = nil
	s.mu.Unlock()
	for _, f := range pending {
		f()
	}
}

// Task is a cancellable scheduled callback. Owners hold a single slot per
// concern and stop the previous task before assigning a new one, so at
// most one reset timer and one countdown interval are ever pending.
type Task struct {
	stopped atomic.Bool
	timer   *time.Timer
	ticker  *time.Ticker
	done    chan struct{}
}

// Stop cancels the task. Stopping an already fired or stopped task is a
// no-op; a fire that is queued but not yet drained is suppressed.
func (t *Task) Stop() {
	if t == nil || !t.stopped.CompareAndSwap(false, true) {
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	if t.ticker != nil {
		t.ticker.Stop()
		close(t.done)
	}
}

// After schedules f to run on the loop once after d.
func (s *Scheduler) After(d time.Duration, f func()) *Task {
	t := &Task{}
	t.timer = time.AfterFunc(d, func() {
		s.Post(func() {
			if t.stopped.CompareAndSwap(false, true) {
				f()
			}
		})
	})
	return t
}

// Every schedules f to run on the loop each interval d until stopped.
func (s *Scheduler) Every(d time.Duration, f func()) *Task {
	t := &Task{
		ticker: time.NewTicker(d),
		done:   make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-t.done:
				return
			case <-t.ticker.C:
				s.Post(func() {
					if !t.stopped.Load() {
						f()
					}
				})
			}
		}
	}()
	return t
}
