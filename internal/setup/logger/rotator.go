package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LineCappedFile is an io.Writer that keeps a log file bounded to a fixed
// number of recent lines. Writes append to the file as usual; once twice the
// cap has passed through, the file is rewritten in place with only the
// retained tail so long-running sessions never grow unbounded.
type LineCappedFile struct {
	file io.Writer
	path string
	cap  int

	mu   sync.Mutex
	tail []string // circular buffer of retained lines
	next int      // next write slot in tail
	held int      // lines currently retained
	seen int      // lines written since the last rewrite
}

// NewLineCappedFile wraps an open log file with a line cap.
func NewLineCappedFile(file io.Writer, maxLines int, path string) *LineCappedFile {
	return &LineCappedFile{
		file: file,
		path: path,
		cap:  maxLines,
		tail: make([]string, maxLines),
	}
}

// Write implements io.Writer and tracks the retained tail.
func (f *LineCappedFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n, err := f.file.Write(p)
	if err != nil {
		return n, err
	}

	for line := range strings.SplitSeq(strings.TrimRight(string(p), "\n"), "\n") {
		if line == "" {
			continue
		}

		f.record(line)

		// Rewrite once twice the cap has accumulated in the file.
		if f.seen == f.cap*2 {
			if err := f.rewrite(); err != nil {
				return n, fmt.Errorf("failed to rewrite log file: %w", err)
			}

			f.seen = f.held
		}
	}

	return n, nil
}

// record adds a line to the circular tail buffer.
func (f *LineCappedFile) record(line string) {
	f.tail[f.next] = line

	f.next = (f.next + 1) % f.cap
	if f.held < f.cap {
		f.held++
	}

	f.seen++
}

// retained returns the tail lines in chronological order.
func (f *LineCappedFile) retained() []string {
	if f.held == 0 {
		return nil
	}

	lines := make([]string, f.held)
	start := (f.next - f.held + f.cap) % f.cap

	for i := range f.held {
		lines[i] = f.tail[(start+i)%f.cap]
	}

	return lines
}

// rewrite replaces the file on disk with only the retained tail.
func (f *LineCappedFile) rewrite() error {
	lines := f.retained()
	if len(lines) == 0 {
		return nil
	}

	temp, err := os.CreateTemp(filepath.Dir(f.path), "temp-log-")
	if err != nil {
		return err
	}

	tempPath := temp.Name()

	content := strings.Join(lines, "\n") + "\n"
	if _, err := temp.WriteString(content); err != nil {
		temp.Close()
		os.Remove(tempPath)

		return err
	}

	if err := temp.Sync(); err != nil {
		temp.Close()
		os.Remove(tempPath)

		return err
	}

	temp.Close()

	if closer, ok := f.file.(io.Closer); ok {
		closer.Close()
	}

	// On Windows the rename fails while the original still exists.
	os.Remove(f.path)

	if err := os.Rename(tempPath, f.path); err != nil {
		return err
	}

	newFile, err := os.OpenFile(f.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	f.file = newFile

	return nil
}
