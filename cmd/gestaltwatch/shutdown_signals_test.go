package main

import (
	"os"
	"testing"
	"time"
)

func TestWatchShutdownSignalsInvokesOnFirstSignal(t *testing.T) {
	signalCh := make(chan os.Signal, 1)
	called := make(chan struct{})

	stop := watchShutdownSignals(nil, func() { close(called) }, signalCh)
	defer stop()

	signalCh <- os.Interrupt

	select {
	case <-called:
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("expected onShutdown to be called")
	}
}

func TestWatchShutdownSignalsIgnoresRepeat(t *testing.T) {
	signalCh := make(chan os.Signal, 2)
	calls := 0
	done := make(chan struct{})

	stop := watchShutdownSignals(nil, func() {
		calls++
		close(done)
	}, signalCh)
	defer stop()

	signalCh <- os.Interrupt
	signalCh <- os.Interrupt

	<-done
	time.Sleep(50 * time.Millisecond)

	if calls != 1 {
		t.Fatalf("expected exactly one call, got %d", calls)
	}
}

func TestWatchShutdownSignalsNilChannel(t *testing.T) {
	stop := watchShutdownSignals(nil, nil, nil)
	stop()
}
