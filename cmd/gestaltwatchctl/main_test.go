package main

import (
	"bytes"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func requireLocalListener(t *testing.T) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skip("local listener unavailable for httptest")
	}
	_ = listener.Close()
}

func TestRunWatchSuccess(t *testing.T) {
	requireLocalListener(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/watches" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	var stdout, stderr bytes.Buffer
	code := run([]string{"--url", srv.URL, "watch", "/tmp/a.txt"}, &stdout, &stderr)
	if code != exitCodeSuccess {
		t.Fatalf("code = %d, want success, stderr=%q", code, stderr.String())
	}
}

func TestRunWatchRejected(t *testing.T) {
	requireLocalListener(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"path is a directory"}`))
	}))
	defer srv.Close()

	var stdout, stderr bytes.Buffer
	code := run([]string{"--url", srv.URL, "watch", "/tmp"}, &stdout, &stderr)
	if code != exitCodeReject {
		t.Fatalf("code = %d, want %d", code, exitCodeReject)
	}
	if !strings.Contains(stderr.String(), "path is a directory") {
		t.Fatalf("expected error message in stderr, got %q", stderr.String())
	}
}

func TestRunListPrintsWatches(t *testing.T) {
	requireLocalListener(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"path":"/tmp/a.txt","observers":1}]`))
	}))
	defer srv.Close()

	var stdout, stderr bytes.Buffer
	code := run([]string{"--url", srv.URL, "list"}, &stdout, &stderr)
	if code != exitCodeSuccess {
		t.Fatalf("code = %d, want success", code)
	}
	if !strings.Contains(stdout.String(), "/tmp/a.txt") {
		t.Fatalf("expected watch path in output, got %q", stdout.String())
	}
}

func TestRunMissingCommandIsUsageError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(nil, &stdout, &stderr)
	if code != exitCodeUsage {
		t.Fatalf("code = %d, want %d", code, exitCodeUsage)
	}
}
