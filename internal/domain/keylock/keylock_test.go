package keylock

import (
	"sync"
	"testing"
	"time"
)

func TestSameNameSameLock(t *testing.T) {
	r := New()
	if r.get("a") != r.get("a") {
		t.Error("expected the same mutex for the same name")
	}
	if r.get("a") == r.get("b") {
		t.Error("expected different mutexes for different names")
	}
}

func TestExclusiveBlocksReaders(t *testing.T) {
	r := New()
	r.Lock("col")

	acquired := make(chan struct{})
	go func() {
		r.RLock("col")
		r.RUnlock("col")
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("reader acquired while writer held the lock")
	case <-time.After(20 * time.Millisecond):
	}

	r.Unlock("col")

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("reader never acquired after writer released")
	}
}

func TestConcurrentReaders(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.RLock("col")
			time.Sleep(time.Millisecond)
			r.RUnlock("col")
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("readers blocked each other")
	}
}
