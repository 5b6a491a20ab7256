package reader

import "sync"

// Scheduler runs render cycles single-flight with trailing-edge coalescing:
// at most one cycle executes at a time, and any number of triggers arriving
// while a cycle runs collapse into exactly one follow-up cycle. No trigger
// is ever silently dropped, and triggers never stack into queued cycles.
//
// The loop is an explicit loop-with-flag rather than recursive re-triggering
// so stack depth stays bounded under trigger storms. Holding the mutex
// across the running/dirty check-and-clear closes the race between a late
// trigger and cycle exit.
//
// Scheduler is safe for concurrent use.
type Scheduler struct {
	mu      sync.Mutex
	cond    *sync.Cond
	running bool
	dirty   bool
	cycles  uint64
	run     func()
}

// NewScheduler creates a scheduler executing run for each cycle.
func NewScheduler(run func()) *Scheduler {
	s := &Scheduler{run: run}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Trigger requests a render cycle. Non-blocking and idempotent: if a cycle
// is already running, the running loop observes the dirty flag and runs
// exactly once more before exiting.
func (s *Scheduler) Trigger() {
	s.mu.Lock()
	s.dirty = true
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	go s.loop()
}

// loop executes cycles while the dirty flag keeps being set.
func (s *Scheduler) loop() {
	for {
		s.mu.Lock()
		if !s.dirty {
			s.running = false
			s.cond.Broadcast()
			s.mu.Unlock()
			return
		}
		s.dirty = false
		s.mu.Unlock()

		s.run()

		s.mu.Lock()
		s.cycles++
		s.mu.Unlock()
	}
}

// Wait blocks until no cycle is running and no trigger is pending.
func (s *Scheduler) Wait() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.running {
		s.cond.Wait()
	}
}

// Cycles returns the number of completed render cycles.
func (s *Scheduler) Cycles() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cycles
}
