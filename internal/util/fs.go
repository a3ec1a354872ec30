// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// fs.go - Crash-safe file writing.
package util

import (
	"fmt"
	"os"
	"path/filepath"
)

// AtomicWriteFile replaces the file at path with data without ever
// exposing a partially-written file: data goes to a temp file in the
// target's directory, is fsynced, then renamed over the target. After a
// crash the path holds either the old contents or the new, never a mix.
//
// The parent directory is created if missing. Used for config saves and
// thread exports, where a torn write would corrupt user data.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	// The temp file must live in the same directory: rename is only
	// atomic within one filesystem.
	tmp, err := os.CreateTemp(dir, filepath.Base(target)+".tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if err := writeAndSync(tmp, data, perm); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// writeAndSync writes data, fsyncs, sets perm, and closes f. The chmod
// happens before the caller renames, so the target never appears with
// temp-file permissions.
func writeAndSync(f *os.File, data []byte, perm os.FileMode) error {
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Chmod(perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	// Close must happen before rename on Windows.
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	return nil
}
