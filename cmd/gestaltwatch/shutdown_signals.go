package main

import (
	"os"
	"sync/atomic"

	"gestaltwatch/internal/logging"
)

// watchShutdownSignals starts a goroutine that invokes onShutdown once, on
// the first signal received from signalCh, and logs (without acting again)
// any signal that arrives while shutdown is already underway. The returned
// func stops the goroutine.
func watchShutdownSignals(logger *logging.Logger, onShutdown func(), signalCh <-chan os.Signal) func() {
	if signalCh == nil {
		return func() {}
	}

	done := make(chan struct{})
	var shutdownStarted atomic.Bool
	var loggedRepeat atomic.Bool

	go func() {
		for {
			select {
			case <-done:
				return
			case sig, ok := <-signalCh:
				if !ok {
					return
				}
				if shutdownStarted.CompareAndSwap(false, true) {
					if logger != nil {
						fields := map[string]string{}
						if sig != nil {
							fields["signal"] = sig.String()
						}
						logger.Info("shutdown signal received", fields)
					}
					if onShutdown != nil {
						onShutdown()
					}
					continue
				}
				if loggedRepeat.CompareAndSwap(false, true) && logger != nil {
					fields := map[string]string{}
					if sig != nil {
						fields["signal"] = sig.String()
					}
					logger.Info("shutdown already in progress; ignoring signal", fields)
				}
			}
		}
	}()

	return func() {
		close(done)
	}
}
