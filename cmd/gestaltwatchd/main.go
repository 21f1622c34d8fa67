package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"gestaltwatch/internal/api"
	"gestaltwatch/internal/config"
	"gestaltwatch/internal/event"
	"gestaltwatch/internal/history"
	"gestaltwatch/internal/logging"
	"gestaltwatch/internal/metrics"
	"gestaltwatch/internal/version"
	"gestaltwatch/internal/watcher"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut *os.File) int {
	cfg, err := config.Load(args, errOut)
	if err != nil {
		return 1
	}
	if cfg.ShowHelp {
		return 0
	}
	if cfg.ShowVersion {
		printVersion(out)
		return 0
	}

	logLevel, ok := logging.ParseLevel(cfg.LogLevel)
	if !ok {
		logLevel = logging.LevelInfo
	}
	logger := logging.NewLoggerWithOutput(logging.NewLogBuffer(logging.DefaultBufferSize), logLevel, errOut)

	registry := prometheus.NewRegistry()
	metricsRegistry := metrics.NewRegistry(registry)

	notifier, err := watcher.New(cfg.Root, cfg.ShadowRoot, watcher.WithLogger(logger), watcher.WithMetrics(metricsRegistry))
	if err != nil {
		logger.Error("construct notifier failed", map[string]string{"error": err.Error()})
		return 1
	}

	historyStore, err := history.NewStore(cfg.HistoryFiles, cfg.HistoryPerFile)
	if err != nil {
		logger.Error("construct history store failed", map[string]string{"error": err.Error()})
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := event.NewBus[event.FileEvent](ctx, event.BusOptions{
		Name:     "file-events",
		Registry: metricsRegistry,
	})

	startupObservers := make([]watcher.Observer, 0, len(cfg.Watch))
	for _, file := range cfg.Watch {
		observer := watcher.NewObserverFunc(func(evt watcher.Event) {
			historyStore.Record(evt.Path(), evt)
			bus.Publish(event.NewFileEvent(evt.Path(), evt.Diff(), evt.FileTime()))
		})
		if err := notifier.AddObserver(file, observer); err != nil {
			logger.Error("register startup watch failed", map[string]string{
				"path":  file,
				"error": err.Error(),
			})
			return 1
		}
		startupObservers = append(startupObservers, observer)
	}
	logger.Info("startup watches registered", map[string]string{
		"count": strconv.Itoa(len(startupObservers)),
	})

	router := api.NewRouter(api.ServerConfig{
		Notifier:       notifier,
		History:        historyStore,
		Bus:            bus,
		LogHub:         logger.Hub(),
		Logger:         logger,
		Gatherer:       registry,
		AuthToken:      cfg.AuthToken,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	coordinator := newShutdownCoordinator(logger)
	coordinator.Add("http server", func(ctx context.Context) error {
		return server.Shutdown(ctx)
	})
	coordinator.Add("notifier", func(ctx context.Context) error {
		return notifier.Stop()
	})
	coordinator.Add("event bus", func(ctx context.Context) error {
		bus.Close()
		return nil
	})

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	stopWatching := watchShutdownSignals(logger, cancel, signalCh)
	defer stopWatching()

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := coordinator.Run(shutdownCtx); err != nil {
			logger.Warn("shutdown finished with errors", map[string]string{"error": err.Error()})
		}
	}()

	logger.Info("gestaltwatchd listening", map[string]string{
		"addr": server.Addr,
		"root": cfg.Root,
	})
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server stopped", map[string]string{"error": err.Error()})
		return 1
	}
	return 0
}

func printVersion(out *os.File) {
	info := version.GetVersionInfo()
	if info.Version == "" || info.Version == "dev" {
		out.WriteString("gestaltwatchd dev\n")
		return
	}
	out.WriteString("gestaltwatchd version " + info.Version + "\n")
}
