package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"gestaltwatch/internal/client"
)

func dispatch(httpClient *http.Client, cfg Config, out io.Writer) error {
	switch cfg.Command {
	case "watch":
		return client.AddWatch(httpClient, cfg.URL, cfg.Token, cfg.Path)
	case "unwatch":
		return client.RemoveWatch(httpClient, cfg.URL, cfg.Token, cfg.Path)
	case "list":
		return runList(httpClient, cfg, out)
	case "history":
		return runHistory(httpClient, cfg, out)
	default:
		return fmt.Errorf("unknown command %q", cfg.Command)
	}
}

func runList(httpClient *http.Client, cfg Config, out io.Writer) error {
	watches, err := client.ListWatches(httpClient, cfg.URL, cfg.Token)
	if err != nil {
		return err
	}
	if len(watches) == 0 {
		fmt.Fprintln(out, "no watches registered")
		return nil
	}
	for _, w := range watches {
		fmt.Fprintf(out, "%s\t%d observer(s)\n", w.Path, w.Observers)
	}
	return nil
}

func runHistory(httpClient *http.Client, cfg Config, out io.Writer) error {
	events, err := client.History(httpClient, cfg.URL, cfg.Token, cfg.Path)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintln(out, "no recorded history")
		return nil
	}
	for _, raw := range events {
		fmt.Fprintln(out, string(raw))
	}
	return nil
}

func exitCodeFor(err error) int {
	var httpErr *client.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode >= 400 && httpErr.StatusCode < 500 {
			return exitCodeReject
		}
		return exitCodeNetwork
	}
	return exitCodeNetwork
}
