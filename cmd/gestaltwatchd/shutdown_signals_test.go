package main

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestWatchShutdownSignalsCancelsOnFirstSignal(t *testing.T) {
	_, cancel := context.WithCancel(context.Background())
	cancelled := make(chan struct{})

	signalCh := make(chan os.Signal, 1)
	stop := watchShutdownSignals(nil, func() {
		cancel()
		close(cancelled)
	}, signalCh)
	defer stop()

	signalCh <- os.Interrupt

	select {
	case <-cancelled:
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("expected cancel to be called on first signal")
	}
}

func TestWatchShutdownSignalsIgnoresRepeatSignal(t *testing.T) {
	calls := 0
	done := make(chan struct{}, 2)

	signalCh := make(chan os.Signal, 2)
	stop := watchShutdownSignals(nil, func() {
		calls++
		done <- struct{}{}
	}, signalCh)
	defer stop()

	signalCh <- os.Interrupt
	signalCh <- os.Interrupt

	<-done
	time.Sleep(50 * time.Millisecond)

	if calls != 1 {
		t.Fatalf("expected cancel to run exactly once, ran %d times", calls)
	}
}

func TestWatchShutdownSignalsNilChannel(t *testing.T) {
	stop := watchShutdownSignals(nil, nil, nil)
	stop()
}
