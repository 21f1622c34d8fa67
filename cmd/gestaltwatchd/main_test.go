package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func newTestPipe(t *testing.T) (*os.File, *os.File) {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("create pipe: %v", err)
	}
	t.Cleanup(func() {
		_ = r.Close()
		_ = w.Close()
	})
	return r, w
}

func drainPipe(t *testing.T, r *os.File, w *os.File) string {
	t.Helper()
	_ = w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	return buf.String()
}

func TestRunHelpExitsZero(t *testing.T) {
	outR, outW := newTestPipe(t)
	errR, errW := newTestPipe(t)

	code := run([]string{"--help"}, outW, errW)
	if code != 0 {
		t.Fatalf("code = %d, want 0", code)
	}
	_ = drainPipe(t, outR, outW)
	_ = drainPipe(t, errR, errW)
}

func TestRunVersionExitsZero(t *testing.T) {
	outR, outW := newTestPipe(t)
	errR, errW := newTestPipe(t)

	code := run([]string{"--version"}, outW, errW)
	if code != 0 {
		t.Fatalf("code = %d, want 0", code)
	}
	out := drainPipe(t, outR, outW)
	if out == "" {
		t.Fatalf("expected version output")
	}
	_ = drainPipe(t, errR, errW)
}

func TestRunFailsOnUnusableShadowRoot(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "not-a-directory")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}

	outR, outW := newTestPipe(t)
	errR, errW := newTestPipe(t)

	code := run([]string{
		"--root", root,
		"--shadow-root", filepath.Join(blocker, "shadow"),
	}, outW, errW)
	if code != 1 {
		t.Fatalf("code = %d, want 1", code)
	}
	_ = drainPipe(t, outR, outW)
	_ = drainPipe(t, errR, errW)
}
