// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream decodes the newline-delimited JSON turn stream emitted
// by the ragline search backend.
package stream

import (
	"bytes"
	"strings"
)

// =============================================================================
// LINE FRAMER
// =============================================================================

// Framer reassembles newline-terminated records from arbitrarily chunked
// byte input. A line split across two chunks (including mid-rune splits of
// multi-byte UTF-8 characters) is held back until its terminator arrives,
// so no record is ever dropped or duplicated regardless of chunking.
type Framer struct {
	// buf holds the trailing incomplete line between Feed calls.
	buf []byte
}

// NewFramer creates an empty framer.
func NewFramer() *Framer {
	return &Framer{}
}

// Feed appends a chunk and returns all complete records it unlocked.
// Records are trimmed of surrounding whitespace; empty lines are dropped.
func (f *Framer) Feed(chunk []byte) []string {
	if len(chunk) == 0 {
		return nil
	}
	f.buf = append(f.buf, chunk...)

	var records []string
	for {
		idx := bytes.IndexByte(f.buf, '\n')
		if idx < 0 {
			break
		}
		line := strings.TrimSpace(string(f.buf[:idx]))
		f.buf = f.buf[idx+1:]
		if line != "" {
			records = append(records, line)
		}
	}

	// Release the backing array once fully consumed so long streams don't
	// pin every chunk ever fed.
	if len(f.buf) == 0 {
		f.buf = nil
	}
	return records
}

// Flush returns the final unterminated record, if any. The last line of a
// stream is not required to carry a trailing newline.
func (f *Framer) Flush() []string {
	if len(f.buf) == 0 {
		return nil
	}
	line := strings.TrimSpace(string(f.buf))
	f.buf = nil
	if line == "" {
		return nil
	}
	return []string{line}
}

// Pending returns the number of buffered bytes awaiting a terminator.
func (f *Framer) Pending() int {
	return len(f.buf)
}
