package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gestaltwatch/internal/event"
	"gestaltwatch/internal/history"
	"gestaltwatch/internal/watcher"
)

func requireLocalListener(t *testing.T) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skip("local listener unavailable for httptest")
	}
	_ = listener.Close()
}

func newTestServer(t *testing.T) (*httptest.Server, *watcher.Notifier, string) {
	t.Helper()
	requireLocalListener(t)

	root := t.TempDir()
	shadow := t.TempDir()
	notifier, err := watcher.New(root, shadow)
	if err != nil {
		t.Fatalf("watcher.New: %v", err)
	}
	t.Cleanup(func() { _ = notifier.Stop() })

	store, err := history.NewStore(10, 10)
	if err != nil {
		t.Fatalf("history.NewStore: %v", err)
	}
	bus := event.NewBus[event.FileEvent](context.Background(), event.BusOptions{})

	router := NewRouter(ServerConfig{
		Notifier: notifier,
		History:  store,
		Bus:      bus,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, notifier, root
}

func TestAddAndListWatch(t *testing.T) {
	srv, _, root := newTestServer(t)
	target := filepath.Join(root, "a.txt")
	if err := os.WriteFile(target, []byte("hello\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	body, _ := json.Marshal(map[string]string{"path": target})
	resp, err := http.Post(srv.URL+"/api/watches", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	listResp, err := http.Get(srv.URL + "/api/watches")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer listResp.Body.Close()
	var watches []watchInfo
	if err := json.NewDecoder(listResp.Body).Decode(&watches); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(watches) != 1 || watches[0].Path != target {
		t.Fatalf("unexpected watches: %+v", watches)
	}
}

func TestAddWatchRejectsDirectory(t *testing.T) {
	srv, _, root := newTestServer(t)

	body, _ := json.Marshal(map[string]string{"path": root})
	resp, err := http.Post(srv.URL+"/api/watches", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestRemoveWatch(t *testing.T) {
	srv, _, root := newTestServer(t)
	target := filepath.Join(root, "a.txt")
	if err := os.WriteFile(target, []byte("hello\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	addBody, _ := json.Marshal(map[string]string{"path": target})
	addResp, err := http.Post(srv.URL+"/api/watches", "application/json", bytes.NewReader(addBody))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	addResp.Body.Close()

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/watches", bytes.NewReader(addBody))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}

	listResp, err := http.Get(srv.URL + "/api/watches")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer listResp.Body.Close()
	var watches []watchInfo
	if err := json.NewDecoder(listResp.Body).Decode(&watches); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(watches) != 0 {
		t.Fatalf("expected no watches after removal, got %+v", watches)
	}
}

func TestHistoryEndpointReturnsRecordedEvents(t *testing.T) {
	srv, _, root := newTestServer(t)
	target := filepath.Join(root, "a.txt")
	if err := os.WriteFile(target, []byte("aaaa\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	body, _ := json.Marshal(map[string]string{"path": target})
	addResp, err := http.Post(srv.URL+"/api/watches", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	addResp.Body.Close()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if err := os.WriteFile(target, []byte("bbbb\n"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}

		resp, err := http.Get(srv.URL + "/api/watches/" + target + "/history")
		if err != nil {
			t.Fatalf("GET history: %v", err)
		}
		var entries []historyEntry
		_ = json.NewDecoder(resp.Body).Decode(&entries)
		resp.Body.Close()
		if len(entries) > 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for history to record an event")
		}
		time.Sleep(20 * time.Millisecond)
	}
}
