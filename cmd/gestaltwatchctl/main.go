package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	"gestaltwatch/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	cfg, err := parseArgs(args, errOut)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitCodeSuccess
		}
		return exitCodeUsage
	}
	if cfg.ShowVersion {
		if version.Version == "" || version.Version == "dev" {
			fmt.Fprintln(out, "gestaltwatchctl dev")
		} else {
			fmt.Fprintf(out, "gestaltwatchctl version %s\n", version.Version)
		}
		return exitCodeSuccess
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	if err := dispatch(httpClient, cfg, out); err != nil {
		fmt.Fprintln(errOut, err.Error())
		return exitCodeFor(err)
	}
	return exitCodeSuccess
}
