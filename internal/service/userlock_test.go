package service

import (
	"sync"
	"testing"
	"time"
)

func TestLocksSerializePerUser(t *testing.T) {
	locks := NewLocks()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(1)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Fatalf("counter = %d, want 100", counter)
	}
}

func TestLocksIndependentAcrossUsers(t *testing.T) {
	locks := NewLocks()

	// Holding user 1's lock must not block user 2.
	unlock1 := locks.Lock(1)
	defer unlock1()

	done := make(chan struct{})
	go func() {
		unlock2 := locks.Lock(2)
		unlock2()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("user 2 blocked behind user 1's lock")
	}
}
