// Package tailer incrementally reads newly appended lines from a log file,
// tolerating truncation and rotation between reads.
package tailer

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrSourceUnavailable indicates the log file is missing or unreadable.
// Callers retry on the next cycle; this is never fatal.
var ErrSourceUnavailable = errors.New("log source unavailable")

// headSample is how many leading bytes feed the rotation marker hash.
const headSample = 256

// Line is one complete newly appended log line with its byte offsets.
// End is the offset just past the line's trailing newline, so a caller that
// consumes lines partially can record exactly how far it got.
type Line struct {
	Text  string
	Start int64
	End   int64
}

// Read returns the lines appended since offset, plus the new offset and
// rotation marker. If the file shrank below offset, or its head no longer
// matches the recorded marker, the file is treated as rotated and reading
// restarts from zero; lines written before rotation are considered lost.
// A trailing partial line (no newline yet) is left for the next read.
func Read(path string, offset int64, marker string) (lines []Line, newOffset int64, newMarker string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, offset, marker, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, offset, marker, fmt.Errorf("%w: stat: %v", ErrSourceUnavailable, err)
	}
	size := info.Size()

	if rotated(f, size, offset, marker) {
		offset = 0
	}

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, marker, fmt.Errorf("seek to %d: %w", offset, err)
	}

	r := bufio.NewReader(f)
	pos := offset
	for {
		s, err := r.ReadString('\n')
		if err == io.EOF {
			// Partial line without newline; pick it up next cycle.
			break
		}
		if err != nil {
			return nil, offset, marker, fmt.Errorf("read %s: %w", path, err)
		}
		end := pos + int64(len(s))
		text := strings.TrimRight(s, "\r\n")
		lines = append(lines, Line{Text: text, Start: pos, End: end})
		pos = end
	}

	newMarker, err = headMarker(f, size)
	if err != nil {
		return nil, offset, marker, fmt.Errorf("compute marker: %w", err)
	}
	return lines, pos, newMarker, nil
}

// rotated reports whether the file was truncated or replaced since the
// recorded offset and marker were taken.
func rotated(f *os.File, size, offset int64, marker string) bool {
	if size < offset {
		return true
	}
	if offset == 0 || marker == "" {
		// Nothing consumed yet; marker comparison proves nothing.
		return false
	}
	n, hash, ok := parseMarker(marker)
	if !ok {
		return true
	}
	if size < n {
		return true
	}
	current, err := hashHead(f, n)
	if err != nil {
		return true
	}
	return current != hash
}

// headMarker produces the rotation marker for the file's current content:
// "<n>:<hex>" where n = min(headSample, size) and hex is the sha256 of the
// first n bytes. Recording n keeps the marker comparable after the file
// grows past the sample window.
func headMarker(f *os.File, size int64) (string, error) {
	n := size
	if n > headSample {
		n = headSample
	}
	hash, err := hashHead(f, n)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n, 10) + ":" + hash, nil
}

func hashHead(f *os.File, n int64) (string, error) {
	buf := make([]byte, n)
	if _, err := f.ReadAt(buf, 0); err != nil && err != io.EOF {
		return "", err
	}
	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:]), nil
}

func parseMarker(marker string) (n int64, hash string, ok bool) {
	idx := strings.IndexByte(marker, ':')
	if idx <= 0 {
		return 0, "", false
	}
	n, err := strconv.ParseInt(marker[:idx], 10, 64)
	if err != nil || n < 0 {
		return 0, "", false
	}
	return n, marker[idx+1:], true
}
