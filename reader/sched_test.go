package reader

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedulerRunsOnce(t *testing.T) {
	var runs atomic.Int32
	s := NewScheduler(func() { runs.Add(1) })

	s.Trigger()
	s.Wait()

	if got := runs.Load(); got != 1 {
		t.Errorf("cycles = %d, want 1", got)
	}
	if s.Cycles() != 1 {
		t.Errorf("Cycles() = %d, want 1", s.Cycles())
	}
}

// Five triggers in rapid succession while a cycle is mid-flight must yield
// exactly two cycles: the in-flight one plus one coalesced follow-up.
func TestSchedulerCoalescesTriggers(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var runs atomic.Int32

	var once sync.Once
	s := NewScheduler(func() {
		if runs.Add(1) == 1 {
			once.Do(func() { close(started) })
			<-release
		}
	})

	s.Trigger()
	<-started
	for i := 0; i < 5; i++ {
		s.Trigger()
	}
	close(release)
	s.Wait()

	if got := runs.Load(); got != 2 {
		t.Errorf("cycles = %d, want 2 (in-flight + one coalesced)", got)
	}
}

func TestSchedulerNeverDropsTrailingTrigger(t *testing.T) {
	var runs atomic.Int32
	s := NewScheduler(func() {
		runs.Add(1)
		time.Sleep(time.Millisecond)
	})

	// Separate idle-time triggers each get their own cycle.
	for i := 0; i < 3; i++ {
		s.Trigger()
		s.Wait()
	}

	if got := runs.Load(); got != 3 {
		t.Errorf("cycles = %d, want 3", got)
	}
}

func TestSchedulerConcurrentTriggerStorm(t *testing.T) {
	var runs atomic.Int32
	s := NewScheduler(func() {
		runs.Add(1)
		time.Sleep(100 * time.Microsecond)
	})

	const triggers = 100
	var wg sync.WaitGroup
	for i := 0; i < triggers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Trigger()
		}()
	}
	wg.Wait()
	s.Wait()

	got := runs.Load()
	if got < 1 || got > triggers {
		t.Errorf("cycles = %d, want between 1 and %d", got, triggers)
	}
}

func TestSchedulerWaitWithoutTrigger(t *testing.T) {
	s := NewScheduler(func() {})
	// Wait on an idle scheduler must not block.
	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait blocked on an idle scheduler")
	}
}
