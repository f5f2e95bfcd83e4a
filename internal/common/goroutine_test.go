package common

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
)

func TestSafeGo_RecoversFromPanic(t *testing.T) {
	logger := arbor.NewLogger()
	var wg sync.WaitGroup
	wg.Add(1)

	SafeGo(logger, "panicking-task", func() {
		defer wg.Done()
		panic("boom")
	})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("SafeGo did not recover from panic within timeout")
	}
}

func TestSafeGo_RunsNormally(t *testing.T) {
	logger := arbor.NewLogger()
	ran := make(chan struct{})

	SafeGo(logger, "normal-task", func() {
		close(ran)
	})

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("SafeGo did not run the function")
	}
}

func TestSafeGoWithContext_SkipsWhenAlreadyCancelled(t *testing.T) {
	logger := arbor.NewLogger()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := make(chan struct{})
	SafeGoWithContext(ctx, logger, "cancelled-task", func() {
		close(ran)
	})

	select {
	case <-ran:
		t.Fatal("function should not run when context is already cancelled")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestSafeGoWithContext_RunsWhenNotCancelled(t *testing.T) {
	logger := arbor.NewLogger()
	ctx := context.Background()

	ran := make(chan struct{})
	SafeGoWithContext(ctx, logger, "active-task", func() {
		close(ran)
	})

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("SafeGoWithContext did not run the function")
	}
}

func TestGetGoroutineCount_Increments(t *testing.T) {
	before := GetGoroutineCount()
	var wg sync.WaitGroup
	wg.Add(1)
	SafeGo(arbor.NewLogger(), "count-task", func() {
		wg.Done()
	})
	wg.Wait()

	after := GetGoroutineCount()
	if after != before+1 {
		t.Errorf("got count %d, want %d", after, before+1)
	}
}
