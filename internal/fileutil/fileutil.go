package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrEmptyOutput reports a tool that exited cleanly but wrote nothing.
var ErrEmptyOutput = errors.New("output file is empty")

// TempSibling returns the hidden temporary path used while producing path:
// .<name>.<tag>.tmp<ext> in the same directory, so the final rename never
// crosses a filesystem boundary.
func TempSibling(path, tag string) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return filepath.Join(dir, "."+strings.TrimSuffix(base, ext)+"."+tag+".tmp"+ext)
}

// Replace renames tmp over dst after checking tmp holds data. tmp is removed
// on every failure; dst is only touched by the final rename.
func Replace(tmp, dst string) error {
	info, err := os.Stat(tmp)
	if err != nil {
		return fmt.Errorf("stat temporary output: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("temporary output %s is a directory", tmp)
	}
	if info.Size() == 0 {
		_ = os.Remove(tmp)
		return ErrEmptyOutput
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", filepath.Base(dst), err)
	}
	return nil
}

// CopyFile streams src to dst using io.Copy with default permissions (0o644).
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
