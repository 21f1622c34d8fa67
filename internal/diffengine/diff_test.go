package diffengine

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDiffExample(t *testing.T) {
	got := Diff(
		[]string{"aaaa", "bbbb", "cccc"},
		[]string{"aaaa", "dddd", "eeee", "cccc"},
	)
	want := []string{"= aaaa", "< bbbb", "> dddd", "> eeee", "= cccc"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Diff() = %v, want %v", got, want)
	}
}

func TestDiffIdentical(t *testing.T) {
	x := []string{"one", "two", "three"}
	got := Diff(x, append([]string{}, x...))
	want := []string{"= one", "= two", "= three"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Diff(X, X) = %v, want %v", got, want)
	}
}

func TestDiffEmptyOld(t *testing.T) {
	y := []string{"a", "b"}
	got := Diff(nil, y)
	want := []string{"> a", "> b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Diff(nil, Y) = %v, want %v", got, want)
	}
}

func TestDiffEmptyNew(t *testing.T) {
	x := []string{"a", "b"}
	got := Diff(x, nil)
	want := []string{"< a", "< b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Diff(X, nil) = %v, want %v", got, want)
	}
}

func TestDiffIsValidEditScript(t *testing.T) {
	x := []string{"aaaa", "bbbb", "cccc"}
	y := []string{"aaaa", "dddd", "eeee", "cccc"}
	got := Diff(x, y)

	var reconstructedY, reconstructedX []string
	for _, line := range got {
		switch {
		case len(line) >= 2 && line[:2] == "= ":
			reconstructedY = append(reconstructedY, line[2:])
			reconstructedX = append(reconstructedX, line[2:])
		case len(line) >= 2 && line[:2] == "> ":
			reconstructedY = append(reconstructedY, line[2:])
		case len(line) >= 2 && line[:2] == "< ":
			reconstructedX = append(reconstructedX, line[2:])
		}
	}
	if !reflect.DeepEqual(reconstructedY, y) {
		t.Fatalf("dropping '< ' lines = %v, want %v", reconstructedY, y)
	}
	if !reflect.DeepEqual(reconstructedX, x) {
		t.Fatalf("dropping '> ' lines = %v, want %v", reconstructedX, x)
	}
}

func TestDiffFilesOldMissing(t *testing.T) {
	dir := t.TempDir()
	b := filepath.Join(dir, "b.txt")
	if err := os.WriteFile(b, []byte("newly created"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := DiffFiles(filepath.Join(dir, "missing.txt"), b)
	if err != nil {
		t.Fatalf("DiffFiles: %v", err)
	}
	want := []string{"> newly created"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("DiffFiles = %v, want %v", got, want)
	}
}

func TestDiffFilesNewMissing(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(a, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := DiffFiles(a, filepath.Join(dir, "missing.txt"))
	if err != nil {
		t.Fatalf("DiffFiles: %v", err)
	}
	want := []string{"< hello"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("DiffFiles = %v, want %v", got, want)
	}
}

func TestDiffFilesBothMissing(t *testing.T) {
	dir := t.TempDir()
	got, err := DiffFiles(filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt"))
	if err != nil {
		t.Fatalf("DiffFiles: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("DiffFiles = %v, want empty", got)
	}
}

func TestDiffFilesModification(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	if err := os.WriteFile(a, []byte("some content"), 0o644); err != nil {
		t.Fatalf("write a: %v", err)
	}
	if err := os.WriteFile(b, []byte("some new text 1700000000000"), 0o644); err != nil {
		t.Fatalf("write b: %v", err)
	}
	got, err := DiffFiles(a, b)
	if err != nil {
		t.Fatalf("DiffFiles: %v", err)
	}
	want := []string{"< some content", "> some new text 1700000000000"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("DiffFiles = %v, want %v", got, want)
	}
}

func TestIdenticalSamePath(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(a, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	ok, err := Identical(a, a)
	if err != nil {
		t.Fatalf("Identical: %v", err)
	}
	if !ok {
		t.Fatalf("Identical(f, f) = false, want true")
	}
}

func TestIdenticalMissingFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	if err := os.WriteFile(a, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	ok, err := Identical(a, b)
	if err != nil {
		t.Fatalf("Identical: %v", err)
	}
	if ok {
		t.Fatalf("Identical(existing, missing) = true, want false")
	}
}

func TestIdenticalByteEqual(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	if err := os.WriteFile(a, []byte("same bytes"), 0o644); err != nil {
		t.Fatalf("write a: %v", err)
	}
	if err := os.WriteFile(b, []byte("same bytes"), 0o644); err != nil {
		t.Fatalf("write b: %v", err)
	}
	ok, err := Identical(a, b)
	if err != nil {
		t.Fatalf("Identical: %v", err)
	}
	if !ok {
		t.Fatalf("Identical(equal bytes) = false, want true")
	}

	if err := os.WriteFile(b, []byte("different"), 0o644); err != nil {
		t.Fatalf("rewrite b: %v", err)
	}
	ok, err = Identical(a, b)
	if err != nil {
		t.Fatalf("Identical: %v", err)
	}
	if ok {
		t.Fatalf("Identical(different bytes) = true, want false")
	}
}
