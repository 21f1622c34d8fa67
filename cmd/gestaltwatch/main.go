// Command gestaltwatch is the direct collaborator described alongside the
// notifier: it constructs one in-process and prints every event it
// delivers, with no daemon, REST surface, or remote client involved.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"gestaltwatch/internal/logging"
	"gestaltwatch/internal/watcher"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut *os.File) int {
	if len(args) < 2 {
		fmt.Fprintln(errOut, "Usage: gestaltwatch ROOT FILE...")
		return 1
	}
	root := args[0]
	files := args[1:]

	logger := logging.NewLoggerWithOutput(logging.NewLogBuffer(logging.DefaultBufferSize), logging.LevelInfo, errOut)

	shadowRoot := filepath.Join(root, ".gestaltwatch", "shadow")
	notifier, err := watcher.New(root, shadowRoot, watcher.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(errOut, "gestaltwatch: %v\n", err)
		return 1
	}

	observers := make([]watcher.Observer, 0, len(files))
	for _, file := range files {
		observer := watcher.NewObserverFunc(func(evt watcher.Event) {
			printEvent(out, evt)
		})
		if err := notifier.AddObserver(file, observer); err != nil {
			fmt.Fprintf(errOut, "gestaltwatch: watch %s: %v\n", file, err)
			return 1
		}
		observers = append(observers, observer)
	}

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	stopped := make(chan struct{})
	stopWatching := watchShutdownSignals(logger, func() {
		if err := notifier.Stop(); err != nil {
			logger.Warn("stop failed", map[string]string{"error": err.Error()})
		}
		close(stopped)
	}, signalCh)
	defer stopWatching()

	<-stopped
	return 0
}

func printEvent(out *os.File, evt watcher.Event) {
	fmt.Fprintf(out, "%s %s\n%s\n", evt.FileTime().Local().Format(time.RFC3339), evt.Path(), strings.Join(evt.Diff(), "\n"))
}
