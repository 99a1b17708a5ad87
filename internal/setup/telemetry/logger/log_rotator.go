package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LogRotator is an io.Writer that caps a log file at roughly maxLines lines.
// Once twice the cap has been written, the file is rewritten to hold only
// the most recent maxLines lines.
type LogRotator struct {
	mu       sync.Mutex
	writer   io.Writer
	filePath string
	lines    []string
	head     int
	size     int
	written  int
}

// NewLogRotator creates a new LogRotator writing to writer, which must be
// the open handle of filePath.
func NewLogRotator(writer io.Writer, maxLines int, filePath string) *LogRotator {
	return &LogRotator{
		writer:   writer,
		filePath: filePath,
		lines:    make([]string, max(maxLines, 1)),
	}
}

// Write implements io.Writer.
func (w *LogRotator) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.writer.Write(p)
	if err != nil {
		return n, err
	}

	for line := range strings.SplitSeq(strings.TrimRight(string(p), "\n"), "\n") {
		if line == "" {
			continue
		}

		w.remember(line)

		if w.written >= 2*len(w.lines) {
			if err := w.rotate(); err != nil {
				return n, err
			}
			w.written = w.size
		}
	}

	return n, nil
}

// remember stores line in the ring of recent lines.
func (w *LogRotator) remember(line string) {
	w.lines[w.head] = line
	w.head = (w.head + 1) % len(w.lines)
	w.size = min(w.size+1, len(w.lines))
	w.written++
}

// recent returns the remembered lines oldest first.
func (w *LogRotator) recent() []string {
	result := make([]string, w.size)
	start := (w.head - w.size + len(w.lines)) % len(w.lines)

	for i := range w.size {
		result[i] = w.lines[(start+i)%len(w.lines)]
	}

	return result
}

// rotate replaces the log file with the remembered lines and reopens it.
func (w *LogRotator) rotate() error {
	lines := w.recent()
	if len(lines) == 0 {
		return nil
	}

	temp, err := os.CreateTemp(filepath.Dir(w.filePath), "rotate-*.log")
	if err != nil {
		return err
	}
	tempPath := temp.Name()

	_, err = temp.WriteString(strings.Join(lines, "\n") + "\n")
	if err == nil {
		err = temp.Sync()
	}
	temp.Close()

	if err != nil {
		os.Remove(tempPath)
		return err
	}

	if closer, ok := w.writer.(io.Closer); ok {
		closer.Close()
	}

	if err := os.Rename(tempPath, w.filePath); err != nil {
		return err
	}

	file, err := os.OpenFile(w.filePath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	w.writer = file

	return nil
}
