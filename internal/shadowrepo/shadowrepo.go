// Package shadowrepo implements the notifier's shadow copy operations: the
// mirror tree under which each observed file's last-known content is kept,
// used both as the diff source and to detect spurious notifications.
package shadowrepo

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// PathFor returns the shadow path for file, given root and shadowRoot.
// file must already lie beneath root; callers are responsible for that
// check (see fsutil.IsAncestor).
func PathFor(root, shadowRoot, file string) (string, error) {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return "", fmt.Errorf("shadowrepo: relativize %s under %s: %w", file, root, err)
	}
	return filepath.Join(shadowRoot, rel), nil
}

// Exists reports whether the shadow file at path is present.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Seed copies file to its shadow path if file exists and no shadow is
// present yet. It is a no-op if file does not exist or a shadow already
// exists there.
func Seed(file, shadowPath string) error {
	if Exists(shadowPath) {
		return nil
	}
	info, err := os.Stat(file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("shadowrepo: stat %s: %w", file, err)
	}
	if info.IsDir() {
		return fmt.Errorf("shadowrepo: %s is a directory", file)
	}
	return copyPreservingAttrs(file, shadowPath, info)
}

// Refresh replaces the shadow at shadowPath with the current contents of
// file, preserving file's attributes. Intermediate shadow directories are
// created as needed.
func Refresh(file, shadowPath string) error {
	info, err := os.Stat(file)
	if err != nil {
		return fmt.Errorf("shadowrepo: stat %s: %w", file, err)
	}
	if info.IsDir() {
		return fmt.Errorf("shadowrepo: %s is a directory", file)
	}
	return copyPreservingAttrs(file, shadowPath, info)
}

// Purge deletes the shadow file at shadowPath if present. Deleting an
// already-absent shadow is not an error.
func Purge(shadowPath string) error {
	if err := os.Remove(shadowPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("shadowrepo: remove %s: %w", shadowPath, err)
	}
	return nil
}

// PurgeAll recursively deletes the entire shadow root.
func PurgeAll(shadowRoot string) error {
	if err := os.RemoveAll(shadowRoot); err != nil {
		return fmt.Errorf("shadowrepo: remove shadow root %s: %w", shadowRoot, err)
	}
	return nil
}

// TotalSize returns the combined size in bytes of every shadow file
// currently under shadowRoot. A missing shadow root is not an error; it
// reports zero.
func TotalSize(shadowRoot string) (int64, error) {
	var total int64
	err := filepath.WalkDir(shadowRoot, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if entry.IsDir() {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return 0, fmt.Errorf("shadowrepo: size %s: %w", shadowRoot, err)
	}
	return total, nil
}

func copyPreservingAttrs(src, dst string, srcInfo os.FileInfo) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("shadowrepo: mkdir for %s: %w", dst, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("shadowrepo: open %s: %w", src, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".shadow-*")
	if err != nil {
		return fmt.Errorf("shadowrepo: create temp for %s: %w", dst, err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("shadowrepo: copy %s to %s: %w", src, dst, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("shadowrepo: close temp for %s: %w", dst, err)
	}
	if err := os.Chmod(tmpPath, srcInfo.Mode()); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("shadowrepo: chmod %s: %w", dst, err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("shadowrepo: rename into %s: %w", dst, err)
	}
	if err := os.Chtimes(dst, srcInfo.ModTime(), srcInfo.ModTime()); err != nil {
		return fmt.Errorf("shadowrepo: chtimes %s: %w", dst, err)
	}
	return nil
}
