package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gestaltwatch/internal/cliutil"
)

const defaultServerURL = "http://localhost:57518"
const defaultRequestTimeout = 5 * time.Second

type Config struct {
	Command     string
	URL         string
	Token       string
	Path        string
	Timeout     time.Duration
	ShowVersion bool
}

func parseArgs(args []string, errOut io.Writer) (Config, error) {
	fs := flag.NewFlagSet("gestaltwatchctl", flag.ContinueOnError)
	fs.SetOutput(errOut)
	urlFlag := fs.String("url", "", "gestaltwatchd URL (env: GESTALTWATCHCTL_URL, default: "+defaultServerURL+")")
	tokenFlag := fs.String("token", "", "Auth token (env: GESTALTWATCHCTL_TOKEN, default: none)")
	timeoutFlag := fs.Duration("timeout", defaultRequestTimeout, "Request timeout")
	helpVersion := cliutil.AddHelpVersionFlags(fs, "Show this help message", "Print version and exit")
	fs.Usage = func() { printUsage(fs.Output()) }

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if helpVersion.Help {
		fs.Usage()
		return Config{}, flag.ErrHelp
	}
	if helpVersion.Version {
		return Config{ShowVersion: true}, nil
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return Config{}, fmt.Errorf("command is required")
	}

	command := fs.Arg(0)
	path := ""
	switch command {
	case "watch", "unwatch", "history":
		if fs.NArg() != 2 {
			fs.Usage()
			return Config{}, fmt.Errorf("%s requires exactly one path argument", command)
		}
		path = fs.Arg(1)
	case "list":
		if fs.NArg() != 1 {
			fs.Usage()
			return Config{}, fmt.Errorf("list takes no arguments")
		}
	default:
		fs.Usage()
		return Config{}, fmt.Errorf("unknown command %q", command)
	}

	url := strings.TrimSpace(*urlFlag)
	if url == "" {
		url = strings.TrimSpace(os.Getenv("GESTALTWATCHCTL_URL"))
	}
	if url == "" {
		url = defaultServerURL
	}

	token := strings.TrimSpace(*tokenFlag)
	if token == "" {
		token = strings.TrimSpace(os.Getenv("GESTALTWATCHCTL_TOKEN"))
	}

	return Config{
		Command: command,
		URL:     url,
		Token:   token,
		Path:    path,
		Timeout: *timeoutFlag,
	}, nil
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, "Usage: gestaltwatchctl [options] <command> [path]")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  watch PATH      Register a watch on PATH")
	fmt.Fprintln(out, "  unwatch PATH    Release a watch on PATH")
	fmt.Fprintln(out, "  list            List currently registered watches")
	fmt.Fprintln(out, "  history PATH    Print recent events recorded for PATH")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Options:")
	fmt.Fprintln(out, "  --url URL       gestaltwatchd URL (env: GESTALTWATCHCTL_URL)")
	fmt.Fprintln(out, "  --token TOKEN   Auth token (env: GESTALTWATCHCTL_TOKEN)")
	fmt.Fprintln(out, "  --timeout DUR   Request timeout (default: 5s)")
	fmt.Fprintln(out, "  --help, -h      Show this help message")
	fmt.Fprintln(out, "  --version, -v   Print version and exit")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Exit codes:")
	fmt.Fprintln(out, "  0  Success")
	fmt.Fprintln(out, "  1  Usage error")
	fmt.Fprintln(out, "  2  Request rejected")
	fmt.Fprintln(out, "  3  Network or server error")
}
